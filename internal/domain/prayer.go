package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Canonical prayer names, in display order.
const (
	PrayerFajr    = "Fajr"
	PrayerDhuhr   = "Dhuhr"
	PrayerAsr     = "Asr"
	PrayerMaghrib = "Maghrib"
	PrayerIsha    = "Isha"
	PrayerJummah  = "Jummah"
)

// UnsetTime is shown for a prayer with no configured time.
const UnsetTime = "--:--"

// ErrInvalidTime is returned for a time that is not 24-hour HH:MM.
var ErrInvalidTime = errors.New("time must be in HH:MM format (24-hour)")

// PrayerNames returns the canonical names in display order.
func PrayerNames() []string {
	return []string{PrayerFajr, PrayerDhuhr, PrayerAsr, PrayerMaghrib, PrayerIsha, PrayerJummah}
}

var prayerAliases = map[string]string{
	"fajr":    PrayerFajr,
	"fajar":   PrayerFajr,
	"dhuhr":   PrayerDhuhr,
	"duhr":    PrayerDhuhr,
	"zuhr":    PrayerDhuhr,
	"zohr":    PrayerDhuhr,
	"asr":     PrayerAsr,
	"maghrib": PrayerMaghrib,
	"isha":    PrayerIsha,
	"isha'a":  PrayerIsha,
	"jummah":  PrayerJummah,
	"jumma":   PrayerJummah,
	"juma":    PrayerJummah,
	"jumah":   PrayerJummah,
	"jumuah":  PrayerJummah,
	"jumu'ah": PrayerJummah,
	"jumuaa":  PrayerJummah,
}

// CanonicalPrayer resolves name to its canonical spelling. Matching ignores
// case and whitespace and accepts the common transliteration variants.
func CanonicalPrayer(name string) (string, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(name), ""))
	key = strings.NewReplacer("’", "'", "‘", "'", "`", "'").Replace(key)
	canonical, ok := prayerAliases[key]
	return canonical, ok
}

// NormalizePrayerName returns the canonical spelling of name, or name with
// surrounding whitespace removed when it is not a known prayer. Applying it
// twice gives the same result as applying it once.
func NormalizePrayerName(name string) string {
	if canonical, ok := CanonicalPrayer(name); ok {
		return canonical
	}
	return strings.TrimSpace(name)
}

// ValidateTime checks that s is a 24-hour HH:MM time.
func ValidateTime(s string) error {
	if len(s) != 5 || s[2] != ':' {
		return fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return nil
}

// ShortTime trims a backend HH:MM:SS value to HH:MM. Other values are
// returned unchanged.
func ShortTime(s string) string {
	if len(s) == 8 && s[2] == ':' && s[5] == ':' {
		return s[:5]
	}
	return s
}

// PrayerTime is one configured prayer for a masjid. The backend has used both
// prayer_name/prayer_time and name/time for the same fields; either is read,
// the former is written.
type PrayerTime struct {
	ID            string    `json:"id"`
	MasjidID      string    `json:"masjid_id"`
	Name          string    `json:"prayer_name"`
	Time          string    `json:"prayer_time"`
	EffectiveDate string    `json:"effective_date,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsSet reports whether a real time is configured.
func (p PrayerTime) IsSet() bool {
	return p.Time != "" && p.Time != UnsetTime
}

func (p *PrayerTime) UnmarshalJSON(data []byte) error {
	type plain PrayerTime
	var wire struct {
		plain
		LegacyName string `json:"name"`
		LegacyTime string `json:"time"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = PrayerTime(wire.plain)
	if p.Name == "" {
		p.Name = wire.LegacyName
	}
	if p.Time == "" {
		p.Time = wire.LegacyTime
	}
	return nil
}

// CompletePrayerTimes returns exactly the six canonical prayers for masjidID
// in display order. Entries are matched by normalised name; the first match
// wins. Prayers missing from list get UnsetTime. Entries with names that are
// not prayers are dropped.
func CompletePrayerTimes(masjidID string, list []PrayerTime) []PrayerTime {
	byName := make(map[string]PrayerTime, len(list))
	for _, p := range list {
		name, ok := CanonicalPrayer(p.Name)
		if !ok {
			continue
		}
		if _, dup := byName[name]; dup {
			continue
		}
		p.Name = name
		p.Time = ShortTime(p.Time)
		if p.Time == "" {
			p.Time = UnsetTime
		}
		if p.MasjidID == "" {
			p.MasjidID = masjidID
		}
		byName[name] = p
	}

	out := make([]PrayerTime, 0, len(PrayerNames()))
	for _, name := range PrayerNames() {
		p, ok := byName[name]
		if !ok {
			p = PrayerTime{MasjidID: masjidID, Name: name, Time: UnsetTime}
		}
		out = append(out, p)
	}
	return out
}

// PatchPrayerTime returns a copy of list with the entry named name set to
// t. found is false when no entry matches.
func PatchPrayerTime(list []PrayerTime, name, t string) (out []PrayerTime, found bool) {
	canonical := NormalizePrayerName(name)
	out = append([]PrayerTime(nil), list...)
	for i := range out {
		if NormalizePrayerName(out[i].Name) == canonical {
			out[i].Time = t
			found = true
		}
	}
	return out, found
}
