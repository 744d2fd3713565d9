package domain

import "time"

// Role names a user's role within a masjid.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleImam  Role = "imam"
)

// MasjidPermissions mirrors the backend's per-membership permission flags.
type MasjidPermissions struct {
	CanViewComplaints      bool `json:"can_view_complaints"`
	CanAnswerComplaints    bool `json:"can_answer_complaints"`
	CanViewQuestions       bool `json:"can_view_questions"`
	CanAnswerQuestions     bool `json:"can_answer_questions"`
	CanChangePrayerTimes   bool `json:"can_change_prayer_times"`
	CanCreateEvents        bool `json:"can_create_events"`
	CanCreateNotifications bool `json:"can_create_notifications"`
}

// Masjid is a mosque the current user administers. Roles and Permissions
// describe the user's membership and are only populated from the
// memberships listing.
type Masjid struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Location     string            `json:"location,omitempty"`
	Address      string            `json:"address,omitempty"`
	City         string            `json:"city,omitempty"`
	State        string            `json:"state,omitempty"`
	Country      string            `json:"country,omitempty"`
	PostalCode   string            `json:"postal_code,omitempty"`
	ContactEmail string            `json:"contact_email,omitempty"`
	ContactPhone string            `json:"contact_phone,omitempty"`
	IsActive     bool              `json:"is_active"`
	IsDefault    bool              `json:"isDefault"`
	Roles        []Role            `json:"roles,omitempty"`
	Permissions  MasjidPermissions `json:"permissions"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// HasRole reports whether the user holds role r in this masjid.
func (m Masjid) HasRole(r Role) bool {
	for _, have := range m.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// UserMasjid is the wire shape of a membership returned by /users/masajids.
type UserMasjid struct {
	MasjidID    string            `json:"masjidId"`
	Name        string            `json:"name"`
	Location    string            `json:"location"`
	City        string            `json:"city"`
	Roles       []Role            `json:"roles"`
	IsDefault   bool              `json:"isDefault"`
	Permissions MasjidPermissions `json:"permissions"`
}

// Masjid converts the membership into the orchestrator's masjid shape.
func (u UserMasjid) Masjid() Masjid {
	return Masjid{
		ID:          u.MasjidID,
		Name:        u.Name,
		Location:    u.Location,
		City:        u.City,
		IsActive:    true,
		IsDefault:   u.IsDefault,
		Roles:       append([]Role(nil), u.Roles...),
		Permissions: u.Permissions,
	}
}

// MasjidsFromMemberships converts a memberships listing, keeping backend order.
func MasjidsFromMemberships(in []UserMasjid) []Masjid {
	out := make([]Masjid, 0, len(in))
	for _, u := range in {
		out = append(out, u.Masjid())
	}
	return out
}

// MasjidStatistics are the dashboard counters for one masjid.
type MasjidStatistics struct {
	TotalMembers        int `json:"totalMembers"`
	TotalImams          int `json:"totalImams"`
	TotalAdmins         int `json:"totalAdmins"`
	TotalQuestions      int `json:"totalQuestions"`
	TotalEvents         int `json:"totalEvents"`
	TotalNotifications  int `json:"totalNotifications"`
	UnansweredQuestions int `json:"unansweredQuestions"`
}

// MasjidMember is a user attached to a masjid.
type MasjidMember struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone,omitempty"`
	Role        Role              `json:"role"`
	IsDefault   bool              `json:"is_default"`
	Permissions MasjidPermissions `json:"permissions"`
}

// DefaultMasjid returns the masjid flagged as default.
func DefaultMasjid(list []Masjid) (Masjid, bool) {
	for _, m := range list {
		if m.IsDefault {
			return m, true
		}
	}
	return Masjid{}, false
}

// DefaultMasjidID returns the id of the default masjid, or "".
func DefaultMasjidID(list []Masjid) string {
	m, ok := DefaultMasjid(list)
	if !ok {
		return ""
	}
	return m.ID
}

// WithDefault returns a copy of list in which only the masjid with id is
// flagged default. The second result is false, and the copy unchanged from
// list, when no masjid has that id.
func WithDefault(list []Masjid, id string) ([]Masjid, bool) {
	out := CloneMasjids(list)
	found := false
	for i := range out {
		if out[i].ID == id {
			found = true
			break
		}
	}
	if !found {
		return out, false
	}
	for i := range out {
		out[i].IsDefault = out[i].ID == id
	}
	return out, true
}

// ElectDefault guarantees exactly one default in a non-empty list. The first
// flagged masjid wins; when none is flagged the first in backend order is
// elected. The list is never re-sorted. elected is true when the function
// had to pick one.
func ElectDefault(list []Masjid) (out []Masjid, elected bool) {
	if len(list) == 0 {
		return CloneMasjids(list), false
	}
	id := DefaultMasjidID(list)
	if id == "" {
		id = list[0].ID
		elected = true
	}
	out = CloneMasjids(list)
	seen := false
	for i := range out {
		// Duplicate ids are possible in principle; keep the first.
		out[i].IsDefault = !seen && out[i].ID == id
		if out[i].IsDefault {
			seen = true
		}
	}
	return out, elected
}

// CloneMasjids deep-copies list.
func CloneMasjids(list []Masjid) []Masjid {
	if list == nil {
		return nil
	}
	out := make([]Masjid, len(list))
	for i, m := range list {
		m.Roles = append([]Role(nil), m.Roles...)
		out[i] = m
	}
	return out
}
