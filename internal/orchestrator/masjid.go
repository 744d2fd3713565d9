package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smhassan90/salaahManager/internal/api"
	"github.com/smhassan90/salaahManager/internal/domain"
)

// SetDefaultMasjid makes id the default masjid. The flag flips locally
// before the backend call. A failure reverts to the last default the backend
// accepted and is returned. On success the four per-masjid collections are
// refetched. When a newer change to the default was started meanwhile, the
// completion leaves the state to that change: a success only records what the
// backend now holds and a failure is still returned.
func (o *Orchestrator) SetDefaultMasjid(ctx context.Context, id string) error {
	const action = "set default masjid"

	o.mu.Lock()
	if o.state.Phase == PhaseDisposed {
		o.mu.Unlock()
		return ErrDisposed
	}
	gen := o.generation
	next, ok := domain.WithDefault(o.state.Masajids, id)
	if !ok {
		o.mu.Unlock()
		return newActionError(action, fmt.Errorf("%w: %s", ErrUnknownMasjid, id))
	}
	o.state.Masajids = next
	token := o.claim(entityDefaultMasjid)
	o.mu.Unlock()
	o.notify()

	err := o.deps.Masajids.SetDefault(ctx, id)

	o.mu.Lock()
	if o.generation != gen || o.state.Phase == PhaseDisposed {
		o.mu.Unlock()
		if err != nil {
			return newActionError(action, err)
		}
		return nil
	}
	if err == nil {
		o.confirmedDefault = id
	}
	if !o.settle(entityDefaultMasjid, token) {
		o.mu.Unlock()
		o.logger.DebugContext(ctx, "default masjid change superseded",
			slog.String("masjid_id", id),
			slog.Bool("failed", err != nil),
		)
		if err != nil {
			return newActionError(action, err)
		}
		return nil
	}
	if err != nil {
		if o.confirmedDefault != "" {
			if reverted, ok := domain.WithDefault(o.state.Masajids, o.confirmedDefault); ok {
				o.state.Masajids = reverted
			}
		}
		o.mu.Unlock()
		o.notify()
		return newActionError(action, err)
	}
	o.mu.Unlock()

	if err := o.deps.Store.SetDefaultMasjidID(ctx, id); err != nil {
		o.logger.WarnContext(ctx, "failed to persist default masjid", slog.String("error", err.Error()))
	}
	return o.loadMasjidData(ctx, gen, id, action)
}

// RefreshMasjidData refetches prayer times, questions, notifications and
// events of the default masjid concurrently.
func (o *Orchestrator) RefreshMasjidData(ctx context.Context) error {
	gen, masjidID, err := o.beginForDefault()
	if err != nil {
		return newActionError("refresh masjid data", err)
	}
	return o.loadMasjidData(ctx, gen, masjidID, "refresh masjid data")
}

// RefreshPrayerTimes refetches today's prayer times of masjidID, or of the
// default masjid when masjidID is empty.
func (o *Orchestrator) RefreshPrayerTimes(ctx context.Context, masjidID string) error {
	gen, err := o.begin()
	if err != nil {
		return err
	}
	masjidID, err = o.resolveMasjid(masjidID)
	if err != nil {
		return newActionError("refresh prayer times", err)
	}
	if err := o.fetchPrayerTimes(ctx, gen, masjidID); err != nil {
		return newActionError("refresh prayer times", err)
	}
	return nil
}

// RefreshQuestions refetches the default masjid's questions.
func (o *Orchestrator) RefreshQuestions(ctx context.Context) error {
	return o.refreshDefault(ctx, "refresh questions", o.fetchQuestions)
}

// RefreshNotifications refetches the default masjid's notifications and
// reapplies the local read state.
func (o *Orchestrator) RefreshNotifications(ctx context.Context) error {
	return o.refreshDefault(ctx, "refresh notifications", o.fetchNotifications)
}

// RefreshEvents refetches the default masjid's events.
func (o *Orchestrator) RefreshEvents(ctx context.Context) error {
	return o.refreshDefault(ctx, "refresh events", o.fetchEvents)
}

// HandlePushNotification is called when a push message arrives. It refetches
// the notification list; failures are logged only.
func (o *Orchestrator) HandlePushNotification(ctx context.Context) {
	if !read(o, func(s *State) bool { return s.Authenticated }) {
		return
	}
	if err := o.RefreshNotifications(ctx); err != nil {
		o.logger.WarnContext(ctx, "failed to refresh notifications after push", slog.String("error", err.Error()))
	}
}

type fetchFunc func(ctx context.Context, gen uint64, masjidID string) error

func (o *Orchestrator) refreshDefault(ctx context.Context, action string, fetch fetchFunc) error {
	gen, masjidID, err := o.beginForDefault()
	if err != nil {
		return newActionError(action, err)
	}
	if err := fetch(ctx, gen, masjidID); err != nil {
		return newActionError(action, err)
	}
	return nil
}

func (o *Orchestrator) beginForDefault() (uint64, string, error) {
	gen, err := o.begin()
	if err != nil {
		return 0, "", err
	}
	masjidID, err := o.defaultMasjidID()
	if err != nil {
		return 0, "", err
	}
	return gen, masjidID, nil
}

// --- Fetchers ---
//
// Each fetcher applies its result only when the session is unchanged.
// Collections scoped to the default masjid are also dropped when the default
// moved on while the request was in flight.

func (o *Orchestrator) fetchPrayerTimes(ctx context.Context, gen uint64, masjidID string) error {
	list, err := o.deps.PrayerTimes.Today(ctx, masjidID)
	if err != nil {
		o.logFetchError(ctx, "prayer times", masjidID, err)
		return fmt.Errorf("fetch prayer times: %w", err)
	}
	complete := domain.CompletePrayerTimes(masjidID, list)
	o.update(gen, func(s *State) { s.PrayerTimes[masjidID] = complete })
	return nil
}

func (o *Orchestrator) fetchQuestions(ctx context.Context, gen uint64, masjidID string) error {
	page, err := o.deps.Questions.ListByMasjid(ctx, masjidID, api.QuestionFilter{})
	if err != nil {
		o.logFetchError(ctx, "questions", masjidID, err)
		return fmt.Errorf("fetch questions: %w", err)
	}
	o.applyForDefault(gen, masjidID, func(s *State) { s.Questions = page.Items })
	return nil
}

func (o *Orchestrator) fetchNotifications(ctx context.Context, gen uint64, masjidID string) error {
	page, err := o.deps.Notifications.ListByMasjid(ctx, masjidID, api.NotificationFilter{})
	if err != nil {
		o.logFetchError(ctx, "notifications", masjidID, err)
		return fmt.Errorf("fetch notifications: %w", err)
	}
	readIDs, err := o.deps.Store.ReadNotificationIDs(ctx)
	if err != nil {
		o.logger.WarnContext(ctx, "failed to load read notifications", slog.String("error", err.Error()))
	}
	list := domain.ApplyReadState(page.Items, domain.ReadSet(readIDs))
	o.applyForDefault(gen, masjidID, func(s *State) { s.Notifications = list })
	return nil
}

func (o *Orchestrator) fetchEvents(ctx context.Context, gen uint64, masjidID string) error {
	page, err := o.deps.Events.ListByMasjid(ctx, masjidID, api.ListParams{})
	if err != nil {
		o.logFetchError(ctx, "events", masjidID, err)
		return fmt.Errorf("fetch events: %w", err)
	}
	list := append([]domain.Event(nil), page.Items...)
	domain.SortEventsByDateDesc(list)
	o.applyForDefault(gen, masjidID, func(s *State) { s.Events = list })
	return nil
}

func (o *Orchestrator) applyForDefault(gen uint64, masjidID string, fn func(s *State)) {
	o.update(gen, func(s *State) {
		if domain.DefaultMasjidID(s.Masajids) != masjidID {
			return
		}
		fn(s)
	})
}

func (o *Orchestrator) logFetchError(ctx context.Context, what, masjidID string, err error) {
	o.logger.ErrorContext(ctx, "failed to fetch "+what,
		slog.String("masjid_id", masjidID),
		slog.String("error", err.Error()),
	)
}
