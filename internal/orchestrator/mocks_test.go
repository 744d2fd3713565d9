package orchestrator_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smhassan90/salaahManager/internal/api"
	"github.com/smhassan90/salaahManager/internal/domain"
	"github.com/smhassan90/salaahManager/internal/orchestrator"
	"github.com/smhassan90/salaahManager/internal/session"
	"github.com/smhassan90/salaahManager/internal/session/memory"
	"github.com/smhassan90/salaahManager/pkg/logger"
)

// --- Mock Auth API ---

type mockAuthAPI struct {
	mock.Mock
}

func (m *mockAuthAPI) Login(ctx context.Context, in api.LoginInput) (*api.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.AuthResult), args.Error(1)
}

func (m *mockAuthAPI) Register(ctx context.Context, in api.RegisterInput) (*api.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.AuthResult), args.Error(1)
}

func (m *mockAuthAPI) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Mock User API ---

type mockUserAPI struct {
	mock.Mock
}

func (m *mockUserAPI) Profile(ctx context.Context) (domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserAPI) UpdateProfile(ctx context.Context, in api.UpdateProfileInput) (domain.User, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserAPI) MyMasajids(ctx context.Context) ([]domain.UserMasjid, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserMasjid), args.Error(1)
}

func (m *mockUserAPI) RegisterDeviceToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// --- Mock Masjid API ---

type mockMasjidAPI struct {
	mock.Mock
}

func (m *mockMasjidAPI) SetDefault(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Prayer Time API ---

type mockPrayerTimeAPI struct {
	mock.Mock
}

func (m *mockPrayerTimeAPI) Today(ctx context.Context, masjidID string) ([]domain.PrayerTime, error) {
	args := m.Called(ctx, masjidID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PrayerTime), args.Error(1)
}

func (m *mockPrayerTimeAPI) CreateOrUpdate(ctx context.Context, in api.PrayerTimeInput) (domain.PrayerTime, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.PrayerTime), args.Error(1)
}

func (m *mockPrayerTimeAPI) BulkUpdate(ctx context.Context, in api.BulkPrayerTimesInput) ([]domain.PrayerTime, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PrayerTime), args.Error(1)
}

// --- Mock Question API ---

type mockQuestionAPI struct {
	mock.Mock
}

func (m *mockQuestionAPI) ListByMasjid(ctx context.Context, masjidID string, f api.QuestionFilter) (*api.Page[domain.Question], error) {
	args := m.Called(ctx, masjidID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.Page[domain.Question]), args.Error(1)
}

func (m *mockQuestionAPI) Reply(ctx context.Context, id, reply string) (domain.Question, error) {
	args := m.Called(ctx, id, reply)
	return args.Get(0).(domain.Question), args.Error(1)
}

// --- Mock Event API ---

type mockEventAPI struct {
	mock.Mock
}

func (m *mockEventAPI) ListByMasjid(ctx context.Context, masjidID string, params api.ListParams) (*api.Page[domain.Event], error) {
	args := m.Called(ctx, masjidID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.Page[domain.Event]), args.Error(1)
}

func (m *mockEventAPI) Create(ctx context.Context, in api.CreateEventInput) (domain.Event, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.Event), args.Error(1)
}

func (m *mockEventAPI) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Notification API ---

type mockNotificationAPI struct {
	mock.Mock
}

func (m *mockNotificationAPI) ListByMasjid(ctx context.Context, masjidID string, f api.NotificationFilter) (*api.Page[domain.Notification], error) {
	args := m.Called(ctx, masjidID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.Page[domain.Notification]), args.Error(1)
}

func (m *mockNotificationAPI) Create(ctx context.Context, in api.CreateNotificationInput) (domain.Notification, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.Notification), args.Error(1)
}

// --- Fixture ---

var testNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

const testToday = "2026-10-16"

type fixture struct {
	auth          *mockAuthAPI
	users         *mockUserAPI
	masajids      *mockMasjidAPI
	prayers       *mockPrayerTimeAPI
	questions     *mockQuestionAPI
	events        *mockEventAPI
	notifications *mockNotificationAPI
	backend       *memory.Backend
	store         *session.Store
	o             *orchestrator.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		auth:          new(mockAuthAPI),
		users:         new(mockUserAPI),
		masajids:      new(mockMasjidAPI),
		prayers:       new(mockPrayerTimeAPI),
		questions:     new(mockQuestionAPI),
		events:        new(mockEventAPI),
		notifications: new(mockNotificationAPI),
		backend:       memory.New(),
	}
	f.store = session.NewStore(f.backend)
	f.o = orchestrator.New(orchestrator.Deps{
		Auth:          f.auth,
		Users:         f.users,
		Masajids:      f.masajids,
		PrayerTimes:   f.prayers,
		Questions:     f.questions,
		Events:        f.events,
		Notifications: f.notifications,
		Store:         f.store,
		Logger:        logger.Discard(),
		Clock:         func() time.Time { return testNow },
	})
	t.Cleanup(func() { _ = f.o.Close() })
	return f
}

var testUser = domain.User{ID: "u1", Name: "Imam Yusuf", Email: "imam@example.com", IsActive: true}

func (f *fixture) cacheSession(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.SaveSession(context.Background(), domain.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		User:         testUser,
	}))
}

func memberships(defaultID string, ids ...string) []domain.UserMasjid {
	out := make([]domain.UserMasjid, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.UserMasjid{
			MasjidID:  id,
			Name:      "Masjid " + id,
			Roles:     []domain.Role{domain.RoleAdmin},
			IsDefault: id == defaultID,
		})
	}
	return out
}

// stubMasjidData answers the four per-masjid listings for any masjid.
func (f *fixture) stubMasjidData() {
	f.prayers.On("Today", mock.Anything, mock.Anything).Return([]domain.PrayerTime{
		{ID: "p1", Name: "Fajr", Time: "05:00:00"},
		{ID: "p6", Name: "Jumma", Time: "13:30"},
	}, nil)
	f.questions.On("ListByMasjid", mock.Anything, mock.Anything, mock.Anything).Return(&api.Page[domain.Question]{
		Items: []domain.Question{
			{ID: "q1", Title: "Zakat", Status: domain.QuestionStatusNew},
			{ID: "q2", Title: "Nikah", Status: domain.QuestionStatusReplied},
		},
	}, nil)
	f.notifications.On("ListByMasjid", mock.Anything, mock.Anything, mock.Anything).Return(&api.Page[domain.Notification]{
		Items: []domain.Notification{
			{ID: "n1", Title: "Eid prayer"},
			{ID: "n2", Title: "Fundraiser"},
		},
	}, nil)
	f.events.On("ListByMasjid", mock.Anything, mock.Anything, mock.Anything).Return(&api.Page[domain.Event]{
		Items: []domain.Event{
			{ID: "e1", Name: "Halaqa", EventDate: "2026-10-01", EventTime: "19:00"},
			{ID: "e2", Name: "Open day", EventDate: "2026-11-05", EventTime: "10:00"},
		},
	}, nil)
}

// signIn bootstraps from a cached session with memberships m1 (default) and m2.
func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	f.cacheSession(t)
	f.users.On("MyMasajids", mock.Anything).Return(memberships("m1", "m1", "m2"), nil)
	f.stubMasjidData()
	require.NoError(t, f.o.Bootstrap(context.Background()))
}

// recorder collects every snapshot delivered to a listener.
type recorder struct {
	mu     sync.Mutex
	states []orchestrator.State
}

func (r *recorder) listen(s orchestrator.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) all() []orchestrator.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]orchestrator.State(nil), r.states...)
}

func defaultID(s orchestrator.State) string {
	return domain.DefaultMasjidID(s.Masajids)
}

func countDefaults(list []domain.Masjid) int {
	n := 0
	for _, m := range list {
		if m.IsDefault {
			n++
		}
	}
	return n
}

func mockLogin(email string) api.LoginInput {
	return api.LoginInput{Email: email, Password: "x"}
}
