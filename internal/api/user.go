package api

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/smhassan90/salaahManager/internal/domain"
	"github.com/smhassan90/salaahManager/pkg/httpclient"
)

// UpdateProfileInput holds the editable profile fields. Empty fields are
// left unchanged.
type UpdateProfileInput struct {
	Name  string `json:"name,omitempty" validate:"omitempty,notblank,max=100"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

// ChangePasswordInput holds the parameters for a password change.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// UserService wraps the /users endpoints for the signed-in user.
type UserService struct {
	d httpclient.Doer
}

// NewUserService creates a new user service.
func NewUserService(d httpclient.Doer) *UserService {
	return &UserService{d: d}
}

// Profile returns the signed-in user's profile.
func (s *UserService) Profile(ctx context.Context) (domain.User, error) {
	return call[domain.User](ctx, s.d, get(pathProfile, nil))
}

// UpdateProfile edits the profile and returns the updated user.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (domain.User, error) {
	in.Name, in.Phone = strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone)
	if err := validate(in); err != nil {
		return domain.User{}, err
	}
	return call[domain.User](ctx, s.d, put(pathProfile, in))
}

// UploadProfilePicture uploads an image and returns the stored picture URL.
func (s *UserService) UploadProfilePicture(ctx context.Context, filename string, data []byte) (string, error) {
	if err := requireID("filename", filename); err != nil {
		return "", err
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		ext = "jpeg"
	}
	out, err := call[struct {
		ProfilePicture string `json:"profile_picture"`
	}](ctx, s.d, &httpclient.Request{
		Method: http.MethodPost,
		Path:   pathProfilePicture,
		File: &httpclient.File{
			Field:       "profile_picture",
			Name:        filename,
			ContentType: "image/" + ext,
			Data:        data,
		},
	})
	return out.ProfilePicture, err
}

// DeleteProfilePicture removes the profile picture.
func (s *UserService) DeleteProfilePicture(ctx context.Context) error {
	return exec(ctx, s.d, del(pathProfilePicture))
}

// ChangePassword changes the signed-in user's password.
func (s *UserService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if err := validate(in); err != nil {
		return err
	}
	return exec(ctx, s.d, post(pathChangePassword, in))
}

// Settings returns the notification settings.
func (s *UserService) Settings(ctx context.Context) (domain.UserSettings, error) {
	return call[domain.UserSettings](ctx, s.d, get(pathUserSettings, nil))
}

// UpdateSettings replaces the notification settings.
func (s *UserService) UpdateSettings(ctx context.Context, in domain.UserSettings) (domain.UserSettings, error) {
	return call[domain.UserSettings](ctx, s.d, put(pathUserSettings, in))
}

// MyMasajids returns the user's memberships in backend order.
func (s *UserService) MyMasajids(ctx context.Context) ([]domain.UserMasjid, error) {
	return call[[]domain.UserMasjid](ctx, s.d, get(pathMyMasajids, nil))
}

// DeleteAccount permanently deletes the signed-in account.
func (s *UserService) DeleteAccount(ctx context.Context) error {
	return exec(ctx, s.d, del(pathAccount))
}

// RegisterDeviceToken registers a push token for this device.
func (s *UserService) RegisterDeviceToken(ctx context.Context, token string) error {
	if err := requireID("device token", token); err != nil {
		return err
	}
	return exec(ctx, s.d, post(pathDeviceToken, map[string]string{"fcm_token": strings.TrimSpace(token)}))
}
