package api

import (
	"context"
	"strings"

	"github.com/smhassan90/salaahManager/internal/domain"
	"github.com/smhassan90/salaahManager/pkg/httpclient"
)

// RegisterInput holds the parameters for creating an account.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone,omitempty"`
}

// LoginInput holds the parameters for signing in.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetPasswordInput completes a forgot-password flow.
type ResetPasswordInput struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// AuthResult is the payload of a successful login or registration.
type AuthResult struct {
	User         domain.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Session returns the result as a trimmed session.
func (r *AuthResult) Session() domain.Session {
	return domain.Session{
		AccessToken:  strings.TrimSpace(r.AccessToken),
		RefreshToken: strings.TrimSpace(r.RefreshToken),
		User:         r.User,
	}
}

// AuthService wraps the /auth endpoints. It does not persist anything.
type AuthService struct {
	d httpclient.Doer
}

// NewAuthService creates a new auth service.
func NewAuthService(d httpclient.Doer) *AuthService {
	return &AuthService{d: d}
}

// Register creates an account and returns its first session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate(in); err != nil {
		return nil, err
	}
	return call[*AuthResult](ctx, s.d, post(pathRegister, in))
}

// Login exchanges credentials for a session.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate(in); err != nil {
		return nil, err
	}
	return call[*AuthResult](ctx, s.d, post(pathLogin, in))
}

// Logout invalidates the current session on the backend.
func (s *AuthService) Logout(ctx context.Context) error {
	return exec(ctx, s.d, post(pathLogout, nil))
}

// RefreshToken rotates a token pair explicitly. The transport performs the
// same exchange on its own when a request is rejected with 401.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (httpclient.TokenPair, error) {
	if err := requireID("refresh token", refreshToken); err != nil {
		return httpclient.TokenPair{}, err
	}
	return call[httpclient.TokenPair](ctx, s.d, post(pathRefreshToken, map[string]string{
		"refreshToken": strings.TrimSpace(refreshToken),
	}))
}

// ForgotPassword asks the backend to email a reset link.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	in := struct {
		Email string `json:"email" validate:"required,email"`
	}{Email: strings.TrimSpace(email)}
	if err := validate(in); err != nil {
		return err
	}
	return exec(ctx, s.d, post(pathForgotPassword, in))
}

// ResetPassword sets a new password using a reset token.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := validate(in); err != nil {
		return err
	}
	return exec(ctx, s.d, post(pathResetPassword, in))
}

// VerifyEmail confirms an email address.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if err := requireID("token", token); err != nil {
		return err
	}
	return exec(ctx, s.d, post(pathVerifyEmail, map[string]string{"token": token}))
}
