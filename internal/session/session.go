package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/smhassan90/salaahManager/internal/domain"
)

// Storage keys. Values are plain strings or JSON documents.
const (
	KeyAccessToken       = "@salaahmanager:access_token"
	KeyRefreshToken      = "@salaahmanager:refresh_token"
	KeyUserData          = "@salaahmanager:user_data"
	KeyDefaultMasjid     = "@salaahmanager:default_masjid"
	KeyReadNotifications = "@salaahmanager:read_notifications"
	KeyDeviceToken       = "@salaahmanager:fcm_token"
	KeyLanguage          = "@salaahmanager:language"
)

// sessionKeys are removed by ClearSession. The language preference is not
// tied to an identity and survives logout.
var sessionKeys = []string{
	KeyAccessToken,
	KeyRefreshToken,
	KeyUserData,
	KeyDefaultMasjid,
	KeyReadNotifications,
	KeyDeviceToken,
}

// ErrIncompleteTokens is returned when asked to store only half a token pair.
var ErrIncompleteTokens = errors.New("access and refresh tokens must be stored together")

// Backend is a durable string key-value store. Each call either fully
// applies or not at all; SetMany and Remove apply all their keys atomically.
type Backend interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error

	// SetMany stores every entry of kv in one atomic write.
	SetMany(ctx context.Context, kv map[string]string) error

	// Remove deletes keys. Absent keys are ignored.
	Remove(ctx context.Context, keys ...string) error

	// Close releases the underlying connection.
	Close() error
}

// Store is the typed session store on top of a Backend.
type Store struct {
	backend Backend

	// readMu serialises read-modify-write of the read-notification set.
	readMu sync.Mutex
}

// NewStore creates a session store over backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Get returns the raw value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("session get %s: %w", key, err)
	}
	return v, ok, nil
}

// Set stores a raw value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.backend.Set(ctx, key, value); err != nil {
		return fmt.Errorf("session set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.backend.Remove(ctx, key); err != nil {
		return fmt.Errorf("session remove %s: %w", key, err)
	}
	return nil
}

func (s *Store) getString(ctx context.Context, key string) (string, error) {
	v, _, err := s.Get(ctx, key)
	return v, err
}

// --- Tokens ---

// AccessToken returns the stored access token, or "".
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.getString(ctx, KeyAccessToken)
}

// RefreshToken returns the stored refresh token, or "".
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.getString(ctx, KeyRefreshToken)
}

// SetTokens trims and stores both tokens in one write.
func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	access, refresh = strings.TrimSpace(access), strings.TrimSpace(refresh)
	if access == "" || refresh == "" {
		return ErrIncompleteTokens
	}
	if err := s.backend.SetMany(ctx, map[string]string{
		KeyAccessToken:  access,
		KeyRefreshToken: refresh,
	}); err != nil {
		return fmt.Errorf("session set tokens: %w", err)
	}
	return nil
}

// --- Session ---

// SaveSession stores the token pair and the user blob in one write.
func (s *Store) SaveSession(ctx context.Context, sess domain.Session) error {
	access, refresh := strings.TrimSpace(sess.AccessToken), strings.TrimSpace(sess.RefreshToken)
	if access == "" || refresh == "" {
		return ErrIncompleteTokens
	}
	user, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.backend.SetMany(ctx, map[string]string{
		KeyAccessToken:  access,
		KeyRefreshToken: refresh,
		KeyUserData:     string(user),
	}); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

// Session returns the cached session. ok is false unless an access token
// and a user blob are both stored.
func (s *Store) Session(ctx context.Context) (sess domain.Session, ok bool, err error) {
	access, err := s.AccessToken(ctx)
	if err != nil {
		return sess, false, err
	}
	refresh, err := s.RefreshToken(ctx)
	if err != nil {
		return sess, false, err
	}
	user, found, err := s.User(ctx)
	if err != nil {
		return sess, false, err
	}
	if access == "" || !found {
		return sess, false, nil
	}
	return domain.Session{AccessToken: access, RefreshToken: refresh, User: user}, true, nil
}

// ClearSession removes everything tied to the signed-in identity in one
// operation. The language preference is kept.
func (s *Store) ClearSession(ctx context.Context) error {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	if err := s.backend.Remove(ctx, sessionKeys...); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

// --- User ---

// User returns the cached user blob.
func (s *Store) User(ctx context.Context) (domain.User, bool, error) {
	var u domain.User
	raw, ok, err := s.Get(ctx, KeyUserData)
	if err != nil || !ok || raw == "" {
		return u, false, err
	}
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return u, false, fmt.Errorf("unmarshal cached user: %w", err)
	}
	return u, true, nil
}

// SetUser caches the user blob.
func (s *Store) SetUser(ctx context.Context, u domain.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return s.Set(ctx, KeyUserData, string(data))
}

// --- Default masjid ---

// DefaultMasjidID returns the persisted default masjid id, or "".
func (s *Store) DefaultMasjidID(ctx context.Context) (string, error) {
	return s.getString(ctx, KeyDefaultMasjid)
}

// SetDefaultMasjidID persists the default masjid id.
func (s *Store) SetDefaultMasjidID(ctx context.Context, id string) error {
	return s.Set(ctx, KeyDefaultMasjid, id)
}

// --- Read notifications ---

// ReadNotificationIDs returns the ids of notifications seen on this device.
func (s *Store) ReadNotificationIDs(ctx context.Context) ([]string, error) {
	raw, ok, err := s.Get(ctx, KeyReadNotifications)
	if err != nil || !ok || raw == "" {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal read notifications: %w", err)
	}
	return ids, nil
}

// MarkRead adds id to the read set. Marking an id twice is a no-op.
func (s *Store) MarkRead(ctx context.Context, id string) error {
	return s.MarkAllRead(ctx, []string{id})
}

// MarkAllRead unions ids into the read set.
func (s *Store) MarkAllRead(ctx context.Context, ids []string) error {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	current, err := s.ReadNotificationIDs(ctx)
	if err != nil {
		return err
	}
	seen := domain.ReadSet(current)
	changed := false
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		current = append(current, id)
		changed = true
	}
	if !changed {
		return nil
	}

	data, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("marshal read notifications: %w", err)
	}
	return s.Set(ctx, KeyReadNotifications, string(data))
}

// --- Device token ---

// DeviceToken returns the stored push token, or "".
func (s *Store) DeviceToken(ctx context.Context) (string, error) {
	return s.getString(ctx, KeyDeviceToken)
}

// SetDeviceToken stores the push token.
func (s *Store) SetDeviceToken(ctx context.Context, token string) error {
	return s.Set(ctx, KeyDeviceToken, strings.TrimSpace(token))
}

// --- Language ---

// Language returns the stored language, or domain.DefaultLanguage when none
// or an unsupported code is stored.
func (s *Store) Language(ctx context.Context) (domain.Language, error) {
	v, err := s.getString(ctx, KeyLanguage)
	if err != nil {
		return domain.DefaultLanguage, err
	}
	lang := domain.Language(v)
	if !lang.Valid() {
		return domain.DefaultLanguage, nil
	}
	return lang, nil
}

// SetLanguage stores the language preference.
func (s *Store) SetLanguage(ctx context.Context, lang domain.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("unsupported language %q", lang)
	}
	return s.Set(ctx, KeyLanguage, string(lang))
}
