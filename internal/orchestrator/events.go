package orchestrator

import (
	"context"
	"strings"

	"github.com/smhassan90/salaahManager/internal/api"
	"github.com/smhassan90/salaahManager/internal/domain"
)

// EventDraft is a new event as entered by the user. Date is DD-MM-YYYY and
// Time is HH:MM.
type EventDraft struct {
	Name        string
	Description string
	Date        string
	Time        string
	Location    string
}

// CreateEvent creates an event for the default masjid and inserts it into
// the local list, newest first.
func (o *Orchestrator) CreateEvent(ctx context.Context, draft EventDraft) error {
	const action = "create event"

	gen, err := o.begin()
	if err != nil {
		return err
	}
	date, err := domain.ToBackendDate(draft.Date)
	if err != nil {
		return newActionError(action, err)
	}
	t := strings.TrimSpace(draft.Time)
	if err := domain.ValidateTime(t); err != nil {
		return newActionError(action, err)
	}
	masjidID, err := o.defaultMasjidID()
	if err != nil {
		return newActionError(action, err)
	}

	created, err := o.deps.Events.Create(ctx, api.CreateEventInput{
		MasjidID:    masjidID,
		Name:        draft.Name,
		Description: draft.Description,
		EventDate:   date,
		EventTime:   t,
		Location:    draft.Location,
	})
	if err != nil {
		return o.eventFailed(gen, action, err)
	}
	if created.MasjidID == "" {
		created.MasjidID = masjidID
	}

	o.update(gen, func(s *State) {
		s.EventPermissionError = false
		if domain.DefaultMasjidID(s.Masajids) != masjidID {
			return
		}
		list := append([]domain.Event{created}, s.Events...)
		domain.SortEventsByDateDesc(list)
		s.Events = list
	})
	return nil
}

// DeleteEvent deletes an event. It leaves the local list only after the
// backend confirmed the deletion.
func (o *Orchestrator) DeleteEvent(ctx context.Context, id string) error {
	const action = "delete event"

	gen, err := o.begin()
	if err != nil {
		return err
	}
	if err := o.deps.Events.Delete(ctx, id); err != nil {
		return o.eventFailed(gen, action, err)
	}
	o.update(gen, func(s *State) {
		s.EventPermissionError = false
		s.Events = domain.RemoveEvent(s.Events, id)
	})
	return nil
}

func (o *Orchestrator) eventFailed(gen uint64, action string, err error) error {
	actionErr := newActionError(action, err)
	if actionErr.Kind == KindAuthorization {
		o.update(gen, func(s *State) { s.EventPermissionError = true })
	}
	return actionErr
}
