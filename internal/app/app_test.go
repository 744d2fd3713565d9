package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smhassan90/salaahManager/internal/config"
	"github.com/smhassan90/salaahManager/internal/domain"
	"github.com/smhassan90/salaahManager/internal/orchestrator"
	"github.com/smhassan90/salaahManager/pkg/database"
	"github.com/smhassan90/salaahManager/pkg/health"
	"github.com/smhassan90/salaahManager/pkg/logger"
)

// --- Test Helpers ---

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Environment:         "development",
		APIBaseURL:          baseURL + "/api/v1",
		APITimeout:          5 * time.Second,
		MaxRateLimitRetries: 2,
		RetryWaitMin:        time.Millisecond,
		RetryWaitMax:        5 * time.Millisecond,
		RefreshDebounce:     time.Millisecond,
		SessionBackend:      config.BackendMemory,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok(data any) map[string]any {
	return map[string]any{"success": true, "message": "ok", "data": data}
}

// fakeBackend serves the endpoints the orchestrator touches and records the
// paths it saw.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string
}

func (b *fakeBackend) seen(call string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (b *fakeBackend) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.calls = append(b.calls, call)
		b.mu.Unlock()

		switch call {
		case "POST /api/v1/auth/login":
			writeJSON(w, http.StatusOK, ok(map[string]any{
				"user":         map[string]any{"id": "u1", "name": "Imam Yusuf", "email": "imam@example.com"},
				"accessToken":  "access-1",
				"refreshToken": "refresh-1",
			}))
		case "POST /api/v1/auth/logout":
			writeJSON(w, http.StatusOK, ok(nil))
		case "GET /api/v1/users/masajids":
			assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, ok([]map[string]any{
				{"masjidId": "m1", "name": "Central", "roles": []string{"admin"}},
				{"masjidId": "m2", "name": "Eastside", "roles": []string{"imam"}},
			}))
		case "PUT /api/v1/masajids/m1/set-default":
			writeJSON(w, http.StatusOK, ok(nil))
		case "GET /api/v1/prayer-times/masjid/m1/today":
			writeJSON(w, http.StatusOK, ok([]map[string]any{
				{"id": "p1", "prayer_name": "Fajr", "prayer_time": "05:10:00"},
				{"id": "p6", "name": "Jumma", "time": "13:30"},
			}))
		default:
			if r.Method == http.MethodGet {
				writeJSON(w, http.StatusOK, ok([]any{}))
				return
			}
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Route not found"})
		}
	})
}

// ============================================================================
// Tests
// ============================================================================

func TestNewApp_LoginLoadsAccountAndLogoutClears(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	a, err := NewApp(context.Background(), testConfig(srv.URL), logger.Discard())
	require.NoError(t, err)
	defer a.Close()
	o := a.Orchestrator()
	ctx := context.Background()

	require.NoError(t, o.Bootstrap(ctx))
	assert.False(t, o.Snapshot().Authenticated)

	require.NoError(t, o.Login(ctx, "imam@example.com", "secret"))

	s := o.Snapshot()
	assert.True(t, s.Authenticated)
	assert.Equal(t, "Imam Yusuf", s.User.Name)
	require.Len(t, s.Masajids, 2)
	assert.Equal(t, "m1", domain.DefaultMasjidID(s.Masajids))
	assert.True(t, backend.seen("PUT /api/v1/masajids/m1/set-default"))

	times := s.DefaultPrayerTimes()
	require.Len(t, times, 6)
	assert.Equal(t, "05:10", times[0].Time)
	assert.Equal(t, "13:30", times[5].Time)

	token, err := a.Store().AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)

	require.NoError(t, o.Logout(ctx))
	assert.True(t, backend.seen("POST /api/v1/auth/logout"))
	assert.False(t, o.Snapshot().Authenticated)
	_, found, err := a.Store().Session(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewApp_FailedRefreshSignsOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid token"})
	}))
	defer srv.Close()

	a, err := NewApp(context.Background(), testConfig(srv.URL), logger.Discard())
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()
	require.NoError(t, a.Store().SaveSession(ctx, domain.Session{
		AccessToken:  "expired",
		RefreshToken: "revoked",
		User:         domain.User{ID: "u1", Name: "Imam Yusuf"},
	}))

	err = a.Orchestrator().Bootstrap(ctx)

	require.Error(t, err)
	assert.Equal(t, orchestrator.KindAuthentication, orchestrator.KindOf(err))
	s := a.Orchestrator().Snapshot()
	assert.Equal(t, orchestrator.PhaseReady, s.Phase)
	assert.False(t, s.Authenticated)
	assert.Nil(t, s.User)

	_, found, err := a.Store().Session(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewApp_SQLiteStorePersists(t *testing.T) {
	cfg := testConfig("http://localhost:3000")
	cfg.SessionBackend = config.BackendSQLite
	cfg.SQLite = database.DefaultSQLiteConfig(filepath.Join(t.TempDir(), "session.db"))
	ctx := context.Background()

	first, err := NewApp(ctx, cfg, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, first.Store().SetLanguage(ctx, domain.LanguageUrdu))
	require.NoError(t, first.Close())

	second, err := NewApp(ctx, cfg, logger.Discard())
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.Orchestrator().Bootstrap(ctx))
	assert.Equal(t, domain.LanguageUrdu, second.Orchestrator().Snapshot().Language)
}

func TestNewApp_UnknownBackend(t *testing.T) {
	cfg := testConfig("http://localhost:3000")
	cfg.SessionBackend = "etcd"

	a, err := NewApp(context.Background(), cfg, logger.Discard())

	assert.Nil(t, a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown session backend")
}

func TestApp_Health(t *testing.T) {
	srv := httptest.NewServer((&fakeBackend{}).handler(t))
	defer srv.Close()

	a, err := NewApp(context.Background(), testConfig(srv.URL), logger.Discard())
	require.NoError(t, err)
	defer a.Close()

	report := a.Health(context.Background())

	assert.True(t, report.Healthy())
	assert.Equal(t, health.StatusUp, report.Checks["api"].Status)
	assert.Equal(t, health.StatusUp, report.Checks["session_store"].Status)
}

func TestApp_HealthBackendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	cfg := testConfig(srv.URL)
	cfg.BreakerEnabled = false
	a, err := NewApp(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	defer a.Close()

	report := a.Health(context.Background())

	assert.False(t, report.Healthy())
	assert.Equal(t, health.StatusDown, report.Checks["api"].Status)
	assert.NotEmpty(t, report.Checks["api"].Error)
	assert.Equal(t, health.StatusUp, report.Checks["session_store"].Status)
}
