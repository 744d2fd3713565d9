package api

import (
	"context"
	"strings"

	"github.com/smhassan90/salaahManager/internal/domain"
	"github.com/smhassan90/salaahManager/pkg/httpclient"
)

// ManagedUser is a user as seen by a super admin, with their memberships.
type ManagedUser struct {
	domain.User
	Memberships []ManagedMembership `json:"userMasajids,omitempty"`
}

// ManagedMembership is one of a managed user's masjid roles.
type ManagedMembership struct {
	ID     string      `json:"id"`
	Role   domain.Role `json:"role"`
	Masjid struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		City string `json:"city"`
	} `json:"masjid"`
}

// CreateUserInput holds the parameters for creating an account as a super
// admin.
type CreateUserInput struct {
	Name         string `json:"name" validate:"required,notblank,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	Phone        string `json:"phone,omitempty"`
	IsSuperAdmin bool   `json:"is_super_admin,omitempty"`
}

// SuperAdminService wraps the /super-admin endpoints.
type SuperAdminService struct {
	d httpclient.Doer
}

// NewSuperAdminService creates a new super admin service.
func NewSuperAdminService(d httpclient.Doer) *SuperAdminService {
	return &SuperAdminService{d: d}
}

// Users returns a page of all users.
func (s *SuperAdminService) Users(ctx context.Context, params ListParams) (*Page[ManagedUser], error) {
	return callPage[ManagedUser](ctx, s.d, get(pathSuperAdminUsers, params.values()))
}

// CreateUser creates an account.
func (s *SuperAdminService) CreateUser(ctx context.Context, in CreateUserInput) (ManagedUser, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate(in); err != nil {
		return ManagedUser{}, err
	}
	return call[ManagedUser](ctx, s.d, post(pathSuperAdminUsers, in))
}

// User returns one user.
func (s *SuperAdminService) User(ctx context.Context, id string) (ManagedUser, error) {
	if err := requireID("user id", id); err != nil {
		return ManagedUser{}, err
	}
	return call[ManagedUser](ctx, s.d, get(superAdminUserPath(id), nil))
}

// DeleteUser removes a user.
func (s *SuperAdminService) DeleteUser(ctx context.Context, id string) error {
	if err := requireID("user id", id); err != nil {
		return err
	}
	return exec(ctx, s.d, del(superAdminUserPath(id)))
}

// Promote grants super admin rights.
func (s *SuperAdminService) Promote(ctx context.Context, id string) (ManagedUser, error) {
	return s.transition(ctx, id, "promote")
}

// Demote revokes super admin rights.
func (s *SuperAdminService) Demote(ctx context.Context, id string) (ManagedUser, error) {
	return s.transition(ctx, id, "demote")
}

// Activate re-enables a user.
func (s *SuperAdminService) Activate(ctx context.Context, id string) (ManagedUser, error) {
	return s.transition(ctx, id, "activate")
}

// Deactivate disables a user.
func (s *SuperAdminService) Deactivate(ctx context.Context, id string) (ManagedUser, error) {
	return s.transition(ctx, id, "deactivate")
}

func (s *SuperAdminService) transition(ctx context.Context, id, action string) (ManagedUser, error) {
	if err := requireID("user id", id); err != nil {
		return ManagedUser{}, err
	}
	return call[ManagedUser](ctx, s.d, put(superAdminUserPath(id, action), nil))
}

// SuperAdmins lists every super admin.
func (s *SuperAdminService) SuperAdmins(ctx context.Context) ([]ManagedUser, error) {
	return call[[]ManagedUser](ctx, s.d, get(pathSuperAdminList, nil))
}
