package domain

import "time"

// User is the authenticated account as returned by the auth and profile
// endpoints. The same shape is cached in the session store.
type User struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Phone          string        `json:"phone,omitempty"`
	ProfilePicture string        `json:"profile_picture,omitempty"`
	IsSuperAdmin   bool          `json:"is_super_admin"`
	IsActive       bool          `json:"is_active"`
	EmailVerified  bool          `json:"email_verified"`
	Settings       *UserSettings `json:"settings,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// UserSettings holds the per-category push notification toggles.
type UserSettings struct {
	PrayerTimesNotifications bool `json:"prayer_times_notifications"`
	EventsNotifications      bool `json:"events_notifications"`
	DonationsNotifications   bool `json:"donations_notifications"`
	GeneralNotifications     bool `json:"general_notifications"`
	QuestionsNotifications   bool `json:"questions_notifications"`
}

// Session is an authenticated identity: the token pair plus the user it
// belongs to.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// Valid reports whether both tokens are present.
func (s Session) Valid() bool {
	return s.AccessToken != "" && s.RefreshToken != ""
}

// Language is the stored UI language preference.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageUrdu    Language = "ur"
	LanguageArabic  Language = "ar"
)

// DefaultLanguage is used when no preference has been stored.
const DefaultLanguage = LanguageEnglish

// Valid reports whether l is a supported language code.
func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageUrdu, LanguageArabic:
		return true
	}
	return false
}

// RTL reports whether the language is written right to left.
func (l Language) RTL() bool {
	return l == LanguageUrdu || l == LanguageArabic
}

// HealthStatus is the backend health check payload.
type HealthStatus struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}
