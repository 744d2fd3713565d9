// Package orchestrator owns the client's in-memory application state. It
// runs bootstrap, applies optimistic updates with rollback, reconciles
// state after backend calls and classifies every failure before it reaches
// the presentation layer.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/smhassan90/salaahManager/internal/api"
	"github.com/smhassan90/salaahManager/internal/domain"
)

// Phase is the orchestrator lifecycle stage.
type Phase string

const (
	PhaseCreated       Phase = "created"
	PhaseBootstrapping Phase = "bootstrapping"
	PhaseReady         Phase = "ready"
	PhaseDisposed      Phase = "disposed"
)

// --- Collaborators ---

// AuthAPI is the subset of the auth service the orchestrator drives.
type AuthAPI interface {
	Login(ctx context.Context, in api.LoginInput) (*api.AuthResult, error)
	Register(ctx context.Context, in api.RegisterInput) (*api.AuthResult, error)
	Logout(ctx context.Context) error
}

// UserAPI is the subset of the user service the orchestrator drives.
type UserAPI interface {
	Profile(ctx context.Context) (domain.User, error)
	UpdateProfile(ctx context.Context, in api.UpdateProfileInput) (domain.User, error)
	MyMasajids(ctx context.Context) ([]domain.UserMasjid, error)
	RegisterDeviceToken(ctx context.Context, token string) error
}

// MasjidAPI is the subset of the masjid service the orchestrator drives.
type MasjidAPI interface {
	SetDefault(ctx context.Context, id string) error
}

// PrayerTimeAPI is the subset of the prayer time service the orchestrator drives.
type PrayerTimeAPI interface {
	Today(ctx context.Context, masjidID string) ([]domain.PrayerTime, error)
	CreateOrUpdate(ctx context.Context, in api.PrayerTimeInput) (domain.PrayerTime, error)
	BulkUpdate(ctx context.Context, in api.BulkPrayerTimesInput) ([]domain.PrayerTime, error)
}

// QuestionAPI is the subset of the question service the orchestrator drives.
type QuestionAPI interface {
	ListByMasjid(ctx context.Context, masjidID string, f api.QuestionFilter) (*api.Page[domain.Question], error)
	Reply(ctx context.Context, id, reply string) (domain.Question, error)
}

// EventAPI is the subset of the event service the orchestrator drives.
type EventAPI interface {
	ListByMasjid(ctx context.Context, masjidID string, params api.ListParams) (*api.Page[domain.Event], error)
	Create(ctx context.Context, in api.CreateEventInput) (domain.Event, error)
	Delete(ctx context.Context, id string) error
}

// NotificationAPI is the subset of the notification service the orchestrator drives.
type NotificationAPI interface {
	ListByMasjid(ctx context.Context, masjidID string, f api.NotificationFilter) (*api.Page[domain.Notification], error)
	Create(ctx context.Context, in api.CreateNotificationInput) (domain.Notification, error)
}

// SessionStore is the durable session state. *session.Store implements it.
type SessionStore interface {
	Session(ctx context.Context) (domain.Session, bool, error)
	SaveSession(ctx context.Context, sess domain.Session) error
	SetUser(ctx context.Context, u domain.User) error
	DefaultMasjidID(ctx context.Context) (string, error)
	SetDefaultMasjidID(ctx context.Context, id string) error
	ReadNotificationIDs(ctx context.Context) ([]string, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, ids []string) error
	SetDeviceToken(ctx context.Context, token string) error
	Language(ctx context.Context) (domain.Language, error)
	SetLanguage(ctx context.Context, lang domain.Language) error
	ClearSession(ctx context.Context) error
}

// Deps are the orchestrator's collaborators.
type Deps struct {
	Auth          AuthAPI
	Users         UserAPI
	Masajids      MasjidAPI
	PrayerTimes   PrayerTimeAPI
	Questions     QuestionAPI
	Events        EventAPI
	Notifications NotificationAPI
	Store         SessionStore
	Logger        *slog.Logger

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// DepsFromServices fills the API collaborators from s.
func DepsFromServices(s *api.Services, store SessionStore, logger *slog.Logger) Deps {
	return Deps{
		Auth:          s.Auth,
		Users:         s.Users,
		Masajids:      s.Masajids,
		PrayerTimes:   s.PrayerTimes,
		Questions:     s.Questions,
		Events:        s.Events,
		Notifications: s.Notifications,
		Store:         store,
		Logger:        logger,
	}
}

// --- State ---

// State is a point-in-time copy of everything the presentation layer shows.
// Questions, notifications and events belong to the default masjid; prayer
// times are kept per masjid.
type State struct {
	Phase         Phase
	Authenticated bool
	User          *domain.User
	Language      domain.Language

	Masajids      []domain.Masjid
	PrayerTimes   map[string][]domain.PrayerTime
	Questions     []domain.Question
	Notifications []domain.Notification
	Events        []domain.Event

	// Sticky permission banners. Each is cleared by the next successful
	// action of the same type or by logout.
	PrayerTimePermissionError bool
	EventPermissionError      bool
}

// DefaultMasjid returns the default masjid.
func (s State) DefaultMasjid() (domain.Masjid, bool) {
	return domain.DefaultMasjid(s.Masajids)
}

// DefaultPrayerTimes returns the prayer times of the default masjid.
func (s State) DefaultPrayerTimes() []domain.PrayerTime {
	return s.PrayerTimes[domain.DefaultMasjidID(s.Masajids)]
}

// PendingQuestions returns how many questions await a reply.
func (s State) PendingQuestions() int {
	return domain.CountPending(s.Questions)
}

// UnreadNotifications returns how many notifications are unread.
func (s State) UnreadNotifications() int {
	return domain.CountUnread(s.Notifications)
}

func (s State) clone() State {
	out := s
	if s.User != nil {
		u := *s.User
		if u.Settings != nil {
			settings := *u.Settings
			u.Settings = &settings
		}
		out.User = &u
	}
	out.Masajids = domain.CloneMasjids(s.Masajids)
	out.PrayerTimes = make(map[string][]domain.PrayerTime, len(s.PrayerTimes))
	for id, list := range s.PrayerTimes {
		out.PrayerTimes[id] = append([]domain.PrayerTime(nil), list...)
	}
	out.Questions = cloneQuestions(s.Questions)
	out.Notifications = append([]domain.Notification(nil), s.Notifications...)
	out.Events = append([]domain.Event(nil), s.Events...)
	return out
}

func cloneQuestions(in []domain.Question) []domain.Question {
	if in == nil {
		return nil
	}
	out := make([]domain.Question, len(in))
	for i, q := range in {
		if q.RepliedAt != nil {
			t := *q.RepliedAt
			q.RepliedAt = &t
		}
		out[i] = q
	}
	return out
}

// --- Orchestrator ---

const entityDefaultMasjid = "default-masjid"

// Listener receives a snapshot after every state change.
type Listener func(State)

// Orchestrator is the single owner of application state. All methods are
// safe for concurrent use. The state lock is never held across a network or
// storage call.
type Orchestrator struct {
	deps   Deps
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	state State
	// generation increments whenever the session is wiped, so late results
	// from the previous session are dropped.
	generation uint64
	// pending holds the token of the latest in-flight optimistic operation
	// per entity.
	pending map[string]uint64
	seq     uint64
	// confirmedDefault is the default masjid the backend last accepted. A
	// failed change reverts to it.
	confirmedDefault string

	listenerMu sync.RWMutex
	listeners  map[uint64]Listener
	nextID     uint64
}

// New creates an orchestrator in the created phase.
func New(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		deps:   deps,
		logger: logger,
		now:    now,
		state: State{
			Phase:       PhaseCreated,
			Language:    domain.DefaultLanguage,
			PrayerTimes: make(map[string][]domain.PrayerTime),
		},
		pending:   make(map[string]uint64),
		listeners: make(map[uint64]Listener),
	}
}

// Snapshot returns a deep copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// Subscribe registers fn to receive state snapshots. The returned function
// removes it.
func (o *Orchestrator) Subscribe(fn Listener) func() {
	o.listenerMu.Lock()
	defer o.listenerMu.Unlock()
	id := o.nextID
	o.nextID++
	o.listeners[id] = fn
	return func() {
		o.listenerMu.Lock()
		defer o.listenerMu.Unlock()
		delete(o.listeners, id)
	}
}

// Close disposes the orchestrator. Later actions fail with ErrDisposed and
// in-flight results are dropped.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.state.Phase == PhaseDisposed {
		o.mu.Unlock()
		return nil
	}
	o.state.Phase = PhaseDisposed
	o.generation++
	o.mu.Unlock()

	o.notify()

	o.listenerMu.Lock()
	clear(o.listeners)
	o.listenerMu.Unlock()
	return nil
}

func (o *Orchestrator) notify() {
	snap := o.Snapshot()
	o.listenerMu.RLock()
	fns := make([]Listener, 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	o.listenerMu.RUnlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// begin checks the orchestrator is usable and returns the current session
// generation.
func (o *Orchestrator) begin() (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Phase == PhaseDisposed {
		return 0, ErrDisposed
	}
	return o.generation, nil
}

// update applies fn to the state if gen is still current and notifies
// listeners. It reports whether fn ran.
func (o *Orchestrator) update(gen uint64, fn func(s *State)) bool {
	o.mu.Lock()
	if o.generation != gen || o.state.Phase == PhaseDisposed {
		o.mu.Unlock()
		return false
	}
	fn(&o.state)
	o.mu.Unlock()
	o.notify()
	return true
}

// read returns a value computed from the state under the lock.
func read[T any](o *Orchestrator, fn func(s *State) T) T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return fn(&o.state)
}

// defaultMasjidID returns the current default masjid id or
// ErrNoDefaultMasjid.
func (o *Orchestrator) defaultMasjidID() (string, error) {
	id := read(o, func(s *State) string { return domain.DefaultMasjidID(s.Masajids) })
	if id == "" {
		return "", ErrNoDefaultMasjid
	}
	return id, nil
}

// resolveMasjid returns masjidID, or the default masjid when it is empty.
func (o *Orchestrator) resolveMasjid(masjidID string) (string, error) {
	if masjidID != "" {
		return masjidID, nil
	}
	return o.defaultMasjidID()
}

// claim records a new pending operation on entity and returns its token.
// Must be called with o.mu held, together with the optimistic change.
func (o *Orchestrator) claim(entity string) uint64 {
	o.seq++
	o.pending[entity] = o.seq
	return o.seq
}

// settle reports whether token is still the latest operation on entity and,
// if so, releases it. Must be called with o.mu held.
func (o *Orchestrator) settle(entity string, token uint64) bool {
	if o.pending[entity] != token {
		return false
	}
	delete(o.pending, entity)
	return true
}

// wipe resets all session state. Language and lifecycle phase survive.
// Must be called with o.mu held.
func (o *Orchestrator) wipe() {
	o.generation++
	clear(o.pending)
	o.confirmedDefault = ""
	o.state = State{
		Phase:       o.state.Phase,
		Language:    o.state.Language,
		PrayerTimes: make(map[string][]domain.PrayerTime),
	}
}

func (o *Orchestrator) today() string {
	return o.now().Format("2006-01-02")
}
