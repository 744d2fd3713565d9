package api

import (
	"context"
	"strings"

	"github.com/smhassan90/salaahManager/internal/domain"
	"github.com/smhassan90/salaahManager/pkg/httpclient"
)

// CreateNotificationInput holds a new announcement. ExcludeCreator asks the
// backend not to push it to the creator's own devices.
type CreateNotificationInput struct {
	MasjidID       string `json:"masjidId" validate:"required"`
	Title          string `json:"title" validate:"required,notblank,max=200"`
	Description    string `json:"description,omitempty"`
	Category       string `json:"category,omitempty" validate:"omitempty,oneof='Prayer Times' Donations Events General"`
	ExcludeCreator bool   `json:"excludeCreator,omitempty"`
}

// UpdateNotificationInput holds editable notification fields.
type UpdateNotificationInput struct {
	Title       string `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty" validate:"omitempty,oneof='Prayer Times' Donations Events General"`
}

// NotificationFilter narrows a notification listing.
type NotificationFilter struct {
	ListParams
	Category string
}

// NotificationService wraps the /notifications endpoints.
type NotificationService struct {
	d httpclient.Doer
}

// NewNotificationService creates a new notification service.
func NewNotificationService(d httpclient.Doer) *NotificationService {
	return &NotificationService{d: d}
}

// ListByMasjid returns a masjid's notifications, newest first.
func (s *NotificationService) ListByMasjid(ctx context.Context, masjidID string, f NotificationFilter) (*Page[domain.Notification], error) {
	if err := requireID("masjid id", masjidID); err != nil {
		return nil, err
	}
	q := f.ListParams.values()
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	return callPage[domain.Notification](ctx, s.d, get(notificationsByMasjidPath(masjidID), q))
}

// Recent returns a masjid's most recent notifications.
func (s *NotificationService) Recent(ctx context.Context, masjidID string) ([]domain.Notification, error) {
	if err := requireID("masjid id", masjidID); err != nil {
		return nil, err
	}
	return call[[]domain.Notification](ctx, s.d, get(notificationsByMasjidPath(masjidID, "recent"), nil))
}

// Get returns one notification.
func (s *NotificationService) Get(ctx context.Context, id string) (domain.Notification, error) {
	if err := requireID("notification id", id); err != nil {
		return domain.Notification{}, err
	}
	return call[domain.Notification](ctx, s.d, get(notificationPath(id), nil))
}

// Create publishes an announcement.
func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (domain.Notification, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validate(in); err != nil {
		return domain.Notification{}, err
	}
	return call[domain.Notification](ctx, s.d, post(pathNotifications, in))
}

// Update edits an announcement.
func (s *NotificationService) Update(ctx context.Context, id string, in UpdateNotificationInput) (domain.Notification, error) {
	if err := requireID("notification id", id); err != nil {
		return domain.Notification{}, err
	}
	if err := validate(in); err != nil {
		return domain.Notification{}, err
	}
	return call[domain.Notification](ctx, s.d, put(notificationPath(id), in))
}

// Delete removes an announcement.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	if err := requireID("notification id", id); err != nil {
		return err
	}
	return exec(ctx, s.d, del(notificationPath(id)))
}
