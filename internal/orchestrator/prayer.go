package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/smhassan90/salaahManager/internal/api"
	"github.com/smhassan90/salaahManager/internal/domain"
)

// PrayerUpdate is one prayer's new time.
type PrayerUpdate struct {
	Prayer string
	Time   string
}

// UpdatePrayerTime sets today's time of one prayer for masjidID, or for the
// default masjid when masjidID is empty. The time must be HH:MM and the
// prayer name is canonicalised before anything is sent. On success only the
// matching local entry is patched.
func (o *Orchestrator) UpdatePrayerTime(ctx context.Context, masjidID, prayer, t string) error {
	const action = "update prayer time"

	gen, err := o.begin()
	if err != nil {
		return err
	}
	entry, err := canonicalUpdate(PrayerUpdate{Prayer: prayer, Time: t})
	if err != nil {
		return newActionError(action, err)
	}
	masjidID, err = o.resolveMasjid(masjidID)
	if err != nil {
		return newActionError(action, err)
	}

	saved, err := o.deps.PrayerTimes.CreateOrUpdate(ctx, api.PrayerTimeInput{
		MasjidID:      masjidID,
		PrayerName:    entry.PrayerName,
		PrayerTime:    entry.PrayerTime,
		EffectiveDate: o.today(),
	})
	if err != nil {
		return o.prayerTimeFailed(gen, action, err)
	}

	newTime := domain.ShortTime(saved.Time)
	if newTime == "" {
		newTime = entry.PrayerTime
	}
	o.update(gen, func(s *State) {
		s.PrayerTimePermissionError = false
		s.PrayerTimes[masjidID] = patchPrayer(masjidID, s.PrayerTimes[masjidID], entry.PrayerName, newTime)
	})
	return nil
}

// BulkUpdatePrayerTimes sets several prayers of one masjid in a single
// request. Every entry is validated before the request is sent.
func (o *Orchestrator) BulkUpdatePrayerTimes(ctx context.Context, masjidID string, updates []PrayerUpdate) error {
	const action = "update prayer times"

	gen, err := o.begin()
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}
	entries := make([]api.PrayerTimeEntry, 0, len(updates))
	for _, u := range updates {
		entry, err := canonicalUpdate(u)
		if err != nil {
			return newActionError(action, err)
		}
		entries = append(entries, entry)
	}
	masjidID, err = o.resolveMasjid(masjidID)
	if err != nil {
		return newActionError(action, err)
	}

	_, err = o.deps.PrayerTimes.BulkUpdate(ctx, api.BulkPrayerTimesInput{
		MasjidID:      masjidID,
		EffectiveDate: o.today(),
		PrayerTimes:   entries,
	})
	if err != nil {
		return o.prayerTimeFailed(gen, action, err)
	}

	o.update(gen, func(s *State) {
		s.PrayerTimePermissionError = false
		list := s.PrayerTimes[masjidID]
		for _, e := range entries {
			list = patchPrayer(masjidID, list, e.PrayerName, e.PrayerTime)
		}
		s.PrayerTimes[masjidID] = list
	})
	return nil
}

func canonicalUpdate(u PrayerUpdate) (api.PrayerTimeEntry, error) {
	t := strings.TrimSpace(u.Time)
	if err := domain.ValidateTime(t); err != nil {
		return api.PrayerTimeEntry{}, err
	}
	name, ok := domain.CanonicalPrayer(u.Prayer)
	if !ok {
		return api.PrayerTimeEntry{}, fmt.Errorf("%w: %q", ErrUnknownPrayer, u.Prayer)
	}
	return api.PrayerTimeEntry{PrayerName: name, PrayerTime: t}, nil
}

// prayerTimeFailed raises the sticky permission flag for authorization
// failures. Other failures leave it untouched.
func (o *Orchestrator) prayerTimeFailed(gen uint64, action string, err error) error {
	actionErr := newActionError(action, err)
	if actionErr.Kind == KindAuthorization {
		o.update(gen, func(s *State) { s.PrayerTimePermissionError = true })
	}
	return actionErr
}

func patchPrayer(masjidID string, list []domain.PrayerTime, name, t string) []domain.PrayerTime {
	if len(list) == 0 {
		list = domain.CompletePrayerTimes(masjidID, nil)
	}
	out, _ := domain.PatchPrayerTime(list, name, t)
	return out
}
