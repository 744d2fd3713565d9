package domain

import "time"

// Notification categories.
const (
	CategoryPrayerTimes = "Prayer Times"
	CategoryDonations   = "Donations"
	CategoryEvents      = "Events"
	CategoryGeneral     = "General"
)

// Notification is an announcement published to a masjid's followers.
// IsRead is derived on the client from the locally persisted read set; the
// backend does not track it.
type Notification struct {
	ID          string    `json:"id"`
	MasjidID    string    `json:"masjid_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	IsRead      bool      `json:"isRead"`
}

// IsValidCategory checks if a category string is valid.
func IsValidCategory(c string) bool {
	switch c {
	case CategoryPrayerTimes, CategoryDonations, CategoryEvents, CategoryGeneral:
		return true
	}
	return false
}

// ApplyReadState returns a copy of list with IsRead recomputed from
// membership in read.
func ApplyReadState(list []Notification, read map[string]struct{}) []Notification {
	out := make([]Notification, len(list))
	for i, n := range list {
		_, n.IsRead = read[n.ID]
		out[i] = n
	}
	return out
}

// ReadSet builds a set from ids.
func ReadSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// CountUnread returns the number of unread notifications.
func CountUnread(list []Notification) int {
	n := 0
	for _, item := range list {
		if !item.IsRead {
			n++
		}
	}
	return n
}
