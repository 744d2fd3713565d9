package orchestrator

import (
	"context"

	"github.com/smhassan90/salaahManager/internal/api"
	"github.com/smhassan90/salaahManager/internal/domain"
)

// NotificationDraft is an announcement to publish for the default masjid.
type NotificationDraft struct {
	Title       string
	Description string
	Category    string
	// ExcludeCreator suppresses the push to the creator's own devices. The
	// local list still shows the item.
	ExcludeCreator bool
}

// CreateNotification publishes an announcement to the default masjid and
// prepends it to the local list.
func (o *Orchestrator) CreateNotification(ctx context.Context, draft NotificationDraft) error {
	const action = "create notification"

	gen, masjidID, err := o.beginForDefault()
	if err != nil {
		return newActionError(action, err)
	}
	created, err := o.deps.Notifications.Create(ctx, api.CreateNotificationInput{
		MasjidID:       masjidID,
		Title:          draft.Title,
		Description:    draft.Description,
		Category:       draft.Category,
		ExcludeCreator: draft.ExcludeCreator,
	})
	if err != nil {
		return newActionError(action, err)
	}
	if created.MasjidID == "" {
		created.MasjidID = masjidID
	}

	o.applyForDefault(gen, masjidID, func(s *State) {
		s.Notifications = append([]domain.Notification{created}, s.Notifications...)
	})
	return nil
}

// MarkNotificationRead records id as read locally. The backend is not told.
func (o *Orchestrator) MarkNotificationRead(ctx context.Context, id string) error {
	gen, err := o.begin()
	if err != nil {
		return err
	}
	if err := o.deps.Store.MarkRead(ctx, id); err != nil {
		return newActionError("mark notification read", err)
	}
	o.update(gen, func(s *State) {
		for i := range s.Notifications {
			if s.Notifications[i].ID == id {
				s.Notifications[i].IsRead = true
			}
		}
	})
	return nil
}

// MarkAllNotificationsRead records every loaded notification as read.
func (o *Orchestrator) MarkAllNotificationsRead(ctx context.Context) error {
	gen, err := o.begin()
	if err != nil {
		return err
	}
	ids := read(o, func(s *State) []string {
		out := make([]string, 0, len(s.Notifications))
		for _, n := range s.Notifications {
			out = append(out, n.ID)
		}
		return out
	})
	if len(ids) == 0 {
		return nil
	}
	if err := o.deps.Store.MarkAllRead(ctx, ids); err != nil {
		return newActionError("mark all notifications read", err)
	}
	o.update(gen, func(s *State) {
		for i := range s.Notifications {
			s.Notifications[i].IsRead = true
		}
	})
	return nil
}

// UnreadCount returns the number of unread notifications.
func (o *Orchestrator) UnreadCount() int {
	return read(o, func(s *State) int { return domain.CountUnread(s.Notifications) })
}
