package api

import (
	"context"
	"net/url"

	"github.com/smhassan90/salaahManager/internal/domain"
	"github.com/smhassan90/salaahManager/pkg/httpclient"
)

// PrayerTimeInput sets one prayer's time for a masjid.
type PrayerTimeInput struct {
	MasjidID      string `json:"masjidId" validate:"required"`
	PrayerName    string `json:"prayerName" validate:"required,oneof=Fajr Dhuhr Asr Maghrib Isha Jummah"`
	PrayerTime    string `json:"prayerTime" validate:"required,hhmm"`
	EffectiveDate string `json:"effectiveDate,omitempty" validate:"omitempty,isodate"`
}

// PrayerTimeEntry is one row of a bulk update.
type PrayerTimeEntry struct {
	PrayerName string `json:"prayerName" validate:"required,oneof=Fajr Dhuhr Asr Maghrib Isha Jummah"`
	PrayerTime string `json:"prayerTime" validate:"required,hhmm"`
}

// BulkPrayerTimesInput sets several prayers at once.
type BulkPrayerTimesInput struct {
	MasjidID      string            `json:"masjidId" validate:"required"`
	EffectiveDate string            `json:"effectiveDate,omitempty" validate:"omitempty,isodate"`
	PrayerTimes   []PrayerTimeEntry `json:"prayerTimes" validate:"required,min=1,dive"`
}

// PrayerTimeService wraps the /prayer-times endpoints.
type PrayerTimeService struct {
	d httpclient.Doer
}

// NewPrayerTimeService creates a new prayer time service.
func NewPrayerTimeService(d httpclient.Doer) *PrayerTimeService {
	return &PrayerTimeService{d: d}
}

// Today returns the prayer times in effect today for a masjid.
func (s *PrayerTimeService) Today(ctx context.Context, masjidID string) ([]domain.PrayerTime, error) {
	if err := requireID("masjid id", masjidID); err != nil {
		return nil, err
	}
	return call[[]domain.PrayerTime](ctx, s.d, get(prayerTimesByMasjidPath(masjidID, "today"), nil))
}

// List returns a masjid's prayer times, optionally for one effective date
// (YYYY-MM-DD).
func (s *PrayerTimeService) List(ctx context.Context, masjidID, effectiveDate string) ([]domain.PrayerTime, error) {
	if err := requireID("masjid id", masjidID); err != nil {
		return nil, err
	}
	var q url.Values
	if effectiveDate != "" {
		q = url.Values{"effectiveDate": {effectiveDate}}
	}
	return call[[]domain.PrayerTime](ctx, s.d, get(prayerTimesByMasjidPath(masjidID), q))
}

// CreateOrUpdate sets one prayer's time. The backend upserts by masjid,
// prayer and effective date.
func (s *PrayerTimeService) CreateOrUpdate(ctx context.Context, in PrayerTimeInput) (domain.PrayerTime, error) {
	in.PrayerName = domain.NormalizePrayerName(in.PrayerName)
	if err := validate(in); err != nil {
		return domain.PrayerTime{}, err
	}
	return call[domain.PrayerTime](ctx, s.d, post(pathPrayerTimes, in))
}

// BulkUpdate sets several prayers in one call.
func (s *PrayerTimeService) BulkUpdate(ctx context.Context, in BulkPrayerTimesInput) ([]domain.PrayerTime, error) {
	entries := make([]PrayerTimeEntry, len(in.PrayerTimes))
	for i, e := range in.PrayerTimes {
		e.PrayerName = domain.NormalizePrayerName(e.PrayerName)
		entries[i] = e
	}
	in.PrayerTimes = entries
	if err := validate(in); err != nil {
		return nil, err
	}
	return call[[]domain.PrayerTime](ctx, s.d, post(pathPrayerTimesBulk, in))
}

// Update changes the time of an existing prayer time record.
func (s *PrayerTimeService) Update(ctx context.Context, id, prayerTime string) (domain.PrayerTime, error) {
	if err := requireID("prayer time id", id); err != nil {
		return domain.PrayerTime{}, err
	}
	in := struct {
		PrayerTime string `json:"prayerTime" validate:"required,hhmm"`
	}{PrayerTime: prayerTime}
	if err := validate(in); err != nil {
		return domain.PrayerTime{}, err
	}
	return call[domain.PrayerTime](ctx, s.d, put(prayerTimePath(id), in))
}

// Delete removes a prayer time record.
func (s *PrayerTimeService) Delete(ctx context.Context, id string) error {
	if err := requireID("prayer time id", id); err != nil {
		return err
	}
	return exec(ctx, s.d, del(prayerTimePath(id)))
}
