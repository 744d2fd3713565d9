package api

import (
	"context"
	"strings"

	"github.com/smhassan90/salaahManager/internal/domain"
	"github.com/smhassan90/salaahManager/pkg/httpclient"
)

// CreateEventInput holds a new event. EventDate is YYYY-MM-DD.
type CreateEventInput struct {
	MasjidID    string `json:"masjidId" validate:"required"`
	Name        string `json:"name" validate:"required,notblank,max=200"`
	Description string `json:"description,omitempty"`
	EventDate   string `json:"eventDate" validate:"required,isodate"`
	EventTime   string `json:"eventTime" validate:"required,hhmm"`
	Location    string `json:"location,omitempty"`
}

// UpdateEventInput holds editable event fields. Empty fields are left
// unchanged.
type UpdateEventInput struct {
	Name        string `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Description string `json:"description,omitempty"`
	EventDate   string `json:"eventDate,omitempty" validate:"omitempty,isodate"`
	EventTime   string `json:"eventTime,omitempty" validate:"omitempty,hhmm"`
	Location    string `json:"location,omitempty"`
}

// EventService wraps the /events endpoints.
type EventService struct {
	d httpclient.Doer
}

// NewEventService creates a new event service.
func NewEventService(d httpclient.Doer) *EventService {
	return &EventService{d: d}
}

// ListByMasjid returns a masjid's events.
func (s *EventService) ListByMasjid(ctx context.Context, masjidID string, params ListParams) (*Page[domain.Event], error) {
	if err := requireID("masjid id", masjidID); err != nil {
		return nil, err
	}
	return callPage[domain.Event](ctx, s.d, get(eventsByMasjidPath(masjidID), params.values()))
}

// Upcoming returns a masjid's events that have not happened yet.
func (s *EventService) Upcoming(ctx context.Context, masjidID string) ([]domain.Event, error) {
	if err := requireID("masjid id", masjidID); err != nil {
		return nil, err
	}
	return call[[]domain.Event](ctx, s.d, get(eventsByMasjidPath(masjidID, "upcoming"), nil))
}

// Past returns a page of a masjid's past events.
func (s *EventService) Past(ctx context.Context, masjidID string, params ListParams) (*Page[domain.Event], error) {
	if err := requireID("masjid id", masjidID); err != nil {
		return nil, err
	}
	params.Search = ""
	return callPage[domain.Event](ctx, s.d, get(eventsByMasjidPath(masjidID, "past"), params.values()))
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, id string) (domain.Event, error) {
	if err := requireID("event id", id); err != nil {
		return domain.Event{}, err
	}
	return call[domain.Event](ctx, s.d, get(eventPath(id), nil))
}

// Create schedules an event.
func (s *EventService) Create(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validate(in); err != nil {
		return domain.Event{}, err
	}
	return call[domain.Event](ctx, s.d, post(pathEvents, in))
}

// Update edits an event.
func (s *EventService) Update(ctx context.Context, id string, in UpdateEventInput) (domain.Event, error) {
	if err := requireID("event id", id); err != nil {
		return domain.Event{}, err
	}
	if err := validate(in); err != nil {
		return domain.Event{}, err
	}
	return call[domain.Event](ctx, s.d, put(eventPath(id), in))
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if err := requireID("event id", id); err != nil {
		return err
	}
	return exec(ctx, s.d, del(eventPath(id)))
}
