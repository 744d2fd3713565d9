package api

import (
	"context"

	"github.com/smhassan90/salaahManager/internal/domain"
	"github.com/smhassan90/salaahManager/pkg/httpclient"
)

// CreateMasjidInput holds the parameters for registering a masjid.
type CreateMasjidInput struct {
	Name         string `json:"name" validate:"required,notblank,max=200"`
	Location     string `json:"location,omitempty"`
	Address      string `json:"address" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	Country      string `json:"country" validate:"required"`
	PostalCode   string `json:"postal_code" validate:"required"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	ContactPhone string `json:"contact_phone" validate:"required"`
}

// UpdateMasjidInput holds editable masjid fields. Empty fields are left
// unchanged.
type UpdateMasjidInput struct {
	Name         string `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Location     string `json:"location,omitempty"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Country      string `json:"country,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	ContactEmail string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

// MasjidUserInput attaches a user to a masjid with a role.
type MasjidUserInput struct {
	UserID      string                   `json:"userId" validate:"required"`
	Role        domain.Role              `json:"role" validate:"required,oneof=imam admin"`
	Permissions domain.MasjidPermissions `json:"permissions"`
}

// UpdateRoleInput changes a member's role and permissions.
type UpdateRoleInput struct {
	Role        domain.Role              `json:"role" validate:"required,oneof=imam admin"`
	Permissions domain.MasjidPermissions `json:"permissions"`
}

// MasjidService wraps the /masajids endpoints.
type MasjidService struct {
	d httpclient.Doer
}

// NewMasjidService creates a new masjid service.
func NewMasjidService(d httpclient.Doer) *MasjidService {
	return &MasjidService{d: d}
}

// List returns a page of masajids.
func (s *MasjidService) List(ctx context.Context, params ListParams) (*Page[domain.Masjid], error) {
	return callPage[domain.Masjid](ctx, s.d, get(pathMasajids, params.values()))
}

// Get returns one masjid.
func (s *MasjidService) Get(ctx context.Context, id string) (domain.Masjid, error) {
	if err := requireID("masjid id", id); err != nil {
		return domain.Masjid{}, err
	}
	return call[domain.Masjid](ctx, s.d, get(masjidPath(id), nil))
}

// Create registers a new masjid.
func (s *MasjidService) Create(ctx context.Context, in CreateMasjidInput) (domain.Masjid, error) {
	if err := validate(in); err != nil {
		return domain.Masjid{}, err
	}
	return call[domain.Masjid](ctx, s.d, post(pathMasajids, in))
}

// Update edits a masjid.
func (s *MasjidService) Update(ctx context.Context, id string, in UpdateMasjidInput) (domain.Masjid, error) {
	if err := requireID("masjid id", id); err != nil {
		return domain.Masjid{}, err
	}
	if err := validate(in); err != nil {
		return domain.Masjid{}, err
	}
	return call[domain.Masjid](ctx, s.d, put(masjidPath(id), in))
}

// Delete removes a masjid.
func (s *MasjidService) Delete(ctx context.Context, id string) error {
	if err := requireID("masjid id", id); err != nil {
		return err
	}
	return exec(ctx, s.d, del(masjidPath(id)))
}

// SetDefault makes id the user's default masjid on the backend.
func (s *MasjidService) SetDefault(ctx context.Context, id string) error {
	if err := requireID("masjid id", id); err != nil {
		return err
	}
	return exec(ctx, s.d, put(masjidPath(id, "set-default"), nil))
}

// Statistics returns the dashboard counters for a masjid.
func (s *MasjidService) Statistics(ctx context.Context, id string) (domain.MasjidStatistics, error) {
	if err := requireID("masjid id", id); err != nil {
		return domain.MasjidStatistics{}, err
	}
	return call[domain.MasjidStatistics](ctx, s.d, get(masjidPath(id, "statistics"), nil))
}

// Members lists everyone attached to a masjid.
func (s *MasjidService) Members(ctx context.Context, id string) ([]domain.MasjidMember, error) {
	return s.members(ctx, id, "members")
}

// Imams lists the imams of a masjid.
func (s *MasjidService) Imams(ctx context.Context, id string) ([]domain.MasjidMember, error) {
	return s.members(ctx, id, "imams")
}

// Admins lists the admins of a masjid.
func (s *MasjidService) Admins(ctx context.Context, id string) ([]domain.MasjidMember, error) {
	return s.members(ctx, id, "admins")
}

func (s *MasjidService) members(ctx context.Context, id, kind string) ([]domain.MasjidMember, error) {
	if err := requireID("masjid id", id); err != nil {
		return nil, err
	}
	return call[[]domain.MasjidMember](ctx, s.d, get(masjidPath(id, kind), nil))
}

// AddUser attaches a user to a masjid.
func (s *MasjidService) AddUser(ctx context.Context, masjidID string, in MasjidUserInput) error {
	if err := requireID("masjid id", masjidID); err != nil {
		return err
	}
	if err := validate(in); err != nil {
		return err
	}
	return exec(ctx, s.d, post(masjidPath(masjidID, "users"), in))
}

// RemoveUser detaches a user from a masjid.
func (s *MasjidService) RemoveUser(ctx context.Context, masjidID, userID string) error {
	if err := requireID("masjid id", masjidID); err != nil {
		return err
	}
	if err := requireID("user id", userID); err != nil {
		return err
	}
	return exec(ctx, s.d, del(masjidUserPath(masjidID, userID)))
}

// UpdateUserRole changes a member's role and permissions.
func (s *MasjidService) UpdateUserRole(ctx context.Context, masjidID, userID string, in UpdateRoleInput) error {
	if err := requireID("masjid id", masjidID); err != nil {
		return err
	}
	if err := requireID("user id", userID); err != nil {
		return err
	}
	if err := validate(in); err != nil {
		return err
	}
	return exec(ctx, s.d, put(masjidUserPath(masjidID, userID, "role"), in))
}

// TransferOwnership hands the masjid's admin ownership to another user.
func (s *MasjidService) TransferOwnership(ctx context.Context, masjidID, newAdminID string) error {
	if err := requireID("masjid id", masjidID); err != nil {
		return err
	}
	if err := requireID("new admin id", newAdminID); err != nil {
		return err
	}
	return exec(ctx, s.d, post(masjidPath(masjidID, "transfer-ownership"), map[string]string{"newAdminId": newAdminID}))
}
