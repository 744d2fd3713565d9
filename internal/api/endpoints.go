package api

import (
	"net/url"
	"strings"
)

// Fixed path templates, relative to the versioned base URL.
const (
	pathRegister       = "/auth/register"
	pathLogin          = "/auth/login"
	pathLogout         = "/auth/logout"
	pathRefreshToken   = "/auth/refresh-token"
	pathForgotPassword = "/auth/forgot-password"
	pathResetPassword  = "/auth/reset-password"
	pathVerifyEmail    = "/auth/verify-email"

	pathProfile        = "/users/profile"
	pathProfilePicture = "/users/profile/picture"
	pathChangePassword = "/users/change-password"
	pathUserSettings   = "/users/settings"
	pathMyMasajids     = "/users/masajids"
	pathAccount        = "/users/account"
	pathDeviceToken    = "/users/fcm-token"

	pathMasajids = "/masajids"

	pathPrayerTimes     = "/prayer-times"
	pathPrayerTimesBulk = "/prayer-times/bulk"

	pathQuestions     = "/questions"
	pathEvents        = "/events"
	pathNotifications = "/notifications"

	pathSuperAdminUsers = "/super-admin/users"
	pathSuperAdminList  = "/super-admin/list"

	pathHealth = "/health"
)

// join builds a path from a fixed prefix and segments, escaping each
// segment so ids cannot alter the route.
func join(prefix string, segments ...string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

func masjidPath(id string, sub ...string) string {
	return join(pathMasajids, id) + suffix(sub)
}

func masjidUserPath(masjidID, userID string, sub ...string) string {
	return join(pathMasajids, masjidID) + join("/users", userID) + suffix(sub)
}

func prayerTimesByMasjidPath(masjidID string, sub ...string) string {
	return join(pathPrayerTimes+"/masjid", masjidID) + suffix(sub)
}

func prayerTimePath(id string) string {
	return join(pathPrayerTimes, id)
}

func questionsByMasjidPath(masjidID string, sub ...string) string {
	return join(pathQuestions+"/masjid", masjidID) + suffix(sub)
}

func questionPath(id string, sub ...string) string {
	return join(pathQuestions, id) + suffix(sub)
}

func eventsByMasjidPath(masjidID string, sub ...string) string {
	return join(pathEvents+"/masjid", masjidID) + suffix(sub)
}

func eventPath(id string) string {
	return join(pathEvents, id)
}

func notificationsByMasjidPath(masjidID string, sub ...string) string {
	return join(pathNotifications+"/masjid", masjidID) + suffix(sub)
}

func notificationPath(id string) string {
	return join(pathNotifications, id)
}

func superAdminUserPath(userID string, sub ...string) string {
	return join(pathSuperAdminUsers, userID) + suffix(sub)
}

// suffix appends fixed sub-resource names; they are literals, never user data.
func suffix(sub []string) string {
	if len(sub) == 0 {
		return ""
	}
	return "/" + strings.Join(sub, "/")
}
