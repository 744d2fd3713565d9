package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	displayDateLayout = "02-01-2006"
	backendDateLayout = "2006-01-02"
)

// ErrInvalidDate is returned for a date that is not a real calendar day in
// the expected layout.
var ErrInvalidDate = errors.New("invalid date")

// Event is a scheduled masjid event. EventDate uses the backend's
// YYYY-MM-DD layout and EventTime is HH:MM.
type Event struct {
	ID          string    `json:"id"`
	MasjidID    string    `json:"masjid_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	EventDate   string    `json:"event_date"`
	EventTime   string    `json:"event_time"`
	Location    string    `json:"location,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToBackendDate converts a user-facing DD-MM-YYYY date to YYYY-MM-DD.
func ToBackendDate(s string) (string, error) {
	t, err := time.Parse(displayDateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %q must be DD-MM-YYYY", ErrInvalidDate, s)
	}
	return t.Format(backendDateLayout), nil
}

// FromBackendDate converts a YYYY-MM-DD date, optionally followed by a
// time component, to DD-MM-YYYY.
func FromBackendDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i == len(backendDateLayout) {
		s = s[:i]
	}
	t, err := time.Parse(backendDateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q must be YYYY-MM-DD", ErrInvalidDate, s)
	}
	return t.Format(displayDateLayout), nil
}

// SortEventsByDateDesc orders events newest first by date then time.
func SortEventsByDateDesc(list []Event) {
	sort.SliceStable(list, func(i, j int) bool {
		a := list[i].EventDate + " " + list[i].EventTime
		b := list[j].EventDate + " " + list[j].EventTime
		return a > b
	})
}

// RemoveEvent returns a copy of list without the event with id.
func RemoveEvent(list []Event, id string) []Event {
	out := make([]Event, 0, len(list))
	for _, e := range list {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}
