package orchestrator

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/smhassan90/salaahManager/internal/api"
	"github.com/smhassan90/salaahManager/internal/domain"
)

// Bootstrap restores a cached session and loads the account's data. A cached
// token and user mark the session authenticated before anything is fetched.
// A failure to load the memberships is returned; failures of the per-masjid
// fetches are returned after all of them finished.
func (o *Orchestrator) Bootstrap(ctx context.Context) error {
	o.mu.Lock()
	switch o.state.Phase {
	case PhaseDisposed:
		o.mu.Unlock()
		return ErrDisposed
	case PhaseBootstrapping, PhaseReady:
		o.mu.Unlock()
		return ErrAlreadyBootstrapped
	}
	o.state.Phase = PhaseBootstrapping
	gen := o.generation
	o.mu.Unlock()
	o.notify()
	defer o.markReady()

	lang, err := o.deps.Store.Language(ctx)
	if err != nil {
		o.logger.WarnContext(ctx, "failed to read language preference", slog.String("error", err.Error()))
	}
	sess, ok, err := o.deps.Store.Session(ctx)
	if err != nil {
		o.logger.WarnContext(ctx, "failed to read cached session, starting signed out", slog.String("error", err.Error()))
		ok = false
	}

	o.update(gen, func(s *State) {
		s.Language = lang
		if ok {
			user := sess.User
			s.Authenticated = true
			s.User = &user
		}
	})
	if !ok {
		return nil
	}

	o.logger.InfoContext(ctx, "restored cached session", slog.String("user_id", sess.User.ID))
	return o.loadAccount(ctx, gen, "bootstrap")
}

func (o *Orchestrator) markReady() {
	o.mu.Lock()
	if o.state.Phase != PhaseBootstrapping {
		o.mu.Unlock()
		return
	}
	o.state.Phase = PhaseReady
	o.mu.Unlock()
	o.notify()
}

// Login signs in and loads the account.
func (o *Orchestrator) Login(ctx context.Context, email, password string) error {
	gen, err := o.begin()
	if err != nil {
		return err
	}
	res, err := o.deps.Auth.Login(ctx, api.LoginInput{Email: email, Password: password})
	if err != nil {
		return newActionError("login", err)
	}
	return o.startSession(ctx, gen, "login", res)
}

// Register creates an account, signs in and loads the account.
func (o *Orchestrator) Register(ctx context.Context, in api.RegisterInput) error {
	gen, err := o.begin()
	if err != nil {
		return err
	}
	res, err := o.deps.Auth.Register(ctx, in)
	if err != nil {
		return newActionError("register", err)
	}
	return o.startSession(ctx, gen, "register", res)
}

func (o *Orchestrator) startSession(ctx context.Context, gen uint64, action string, res *api.AuthResult) error {
	sess := res.Session()
	if err := o.deps.Store.SaveSession(ctx, sess); err != nil {
		return newActionError(action, err)
	}
	user := sess.User
	if !o.update(gen, func(s *State) {
		s.Authenticated = true
		s.User = &user
		if s.Phase == PhaseCreated {
			s.Phase = PhaseReady
		}
	}) {
		return ErrDisposed
	}
	o.logger.InfoContext(ctx, "signed in", slog.String("user_id", user.ID))
	return o.loadAccount(ctx, gen, action)
}

// loadAccount fetches the memberships, settles the default masjid and loads
// its data.
func (o *Orchestrator) loadAccount(ctx context.Context, gen uint64, action string) error {
	memberships, err := o.deps.Users.MyMasajids(ctx)
	if err != nil {
		return newActionError(action, err)
	}

	list, elected := domain.ElectDefault(domain.MasjidsFromMemberships(memberships))
	defaultID := domain.DefaultMasjidID(list)

	if !o.update(gen, func(s *State) {
		s.Masajids = list
		o.confirmedDefault = defaultID
	}) {
		return nil
	}
	if defaultID == "" {
		return nil
	}

	if elected {
		// The local election stands even if the backend does not accept it.
		if err := o.deps.Masajids.SetDefault(ctx, defaultID); err != nil {
			o.logger.WarnContext(ctx, "failed to save elected default masjid",
				slog.String("masjid_id", defaultID),
				slog.String("error", err.Error()),
			)
		}
	}
	if err := o.deps.Store.SetDefaultMasjidID(ctx, defaultID); err != nil {
		o.logger.WarnContext(ctx, "failed to persist default masjid", slog.String("error", err.Error()))
	}

	return o.loadMasjidData(ctx, gen, defaultID, action)
}

// loadMasjidData fetches the four per-masjid collections concurrently and
// waits for all of them.
func (o *Orchestrator) loadMasjidData(ctx context.Context, gen uint64, masjidID, action string) error {
	var g errgroup.Group
	g.Go(func() error { return o.fetchPrayerTimes(ctx, gen, masjidID) })
	g.Go(func() error { return o.fetchQuestions(ctx, gen, masjidID) })
	g.Go(func() error { return o.fetchNotifications(ctx, gen, masjidID) })
	g.Go(func() error { return o.fetchEvents(ctx, gen, masjidID) })
	if err := g.Wait(); err != nil {
		return newActionError(action, err)
	}
	return nil
}

// Logout ends the session. The backend call is best effort; local state and
// the persisted session are always cleared.
func (o *Orchestrator) Logout(ctx context.Context) error {
	if _, err := o.begin(); err != nil {
		return err
	}
	authenticated := read(o, func(s *State) bool { return s.Authenticated })
	if authenticated {
		if err := o.deps.Auth.Logout(ctx); err != nil {
			o.logger.WarnContext(ctx, "logout request failed, clearing local session anyway", slog.String("error", err.Error()))
		}
	}

	o.mu.Lock()
	o.wipe()
	o.mu.Unlock()
	o.notify()

	if err := o.deps.Store.ClearSession(ctx); err != nil {
		return newActionError("logout", err)
	}
	return nil
}

// HandleSessionExpired wipes in-memory state after the transport gave up on
// refreshing the session. The transport has already cleared the store.
func (o *Orchestrator) HandleSessionExpired(ctx context.Context) {
	o.mu.Lock()
	if o.state.Phase == PhaseDisposed {
		o.mu.Unlock()
		return
	}
	o.wipe()
	o.mu.Unlock()
	o.logger.WarnContext(ctx, "session expired, signed out")
	o.notify()
}

// RefreshProfile reloads the user's profile and refreshes the cached copy.
func (o *Orchestrator) RefreshProfile(ctx context.Context) error {
	gen, err := o.begin()
	if err != nil {
		return err
	}
	user, err := o.deps.Users.Profile(ctx)
	if err != nil {
		return newActionError("refresh profile", err)
	}
	o.storeUser(ctx, gen, user)
	return nil
}

// UpdateProfile edits the profile and refreshes the cached copy.
func (o *Orchestrator) UpdateProfile(ctx context.Context, in api.UpdateProfileInput) error {
	gen, err := o.begin()
	if err != nil {
		return err
	}
	user, err := o.deps.Users.UpdateProfile(ctx, in)
	if err != nil {
		return newActionError("update profile", err)
	}
	o.storeUser(ctx, gen, user)
	return nil
}

func (o *Orchestrator) storeUser(ctx context.Context, gen uint64, user domain.User) {
	if !o.update(gen, func(s *State) { s.User = &user }) {
		return
	}
	if err := o.deps.Store.SetUser(ctx, user); err != nil {
		o.logger.WarnContext(ctx, "failed to cache user", slog.String("error", err.Error()))
	}
}

// RegisterDeviceToken stores the push token and forwards it to the backend
// when signed in. Failures are logged only.
func (o *Orchestrator) RegisterDeviceToken(ctx context.Context, token string) error {
	if _, err := o.begin(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := o.deps.Store.SetDeviceToken(ctx, token); err != nil {
		o.logger.WarnContext(ctx, "failed to store device token", slog.String("error", err.Error()))
	}
	if !read(o, func(s *State) bool { return s.Authenticated }) {
		return nil
	}
	if err := o.deps.Users.RegisterDeviceToken(ctx, token); err != nil {
		o.logger.WarnContext(ctx, "failed to register device token", slog.String("error", err.Error()))
	}
	return nil
}

// SetLanguage persists and applies the language preference.
func (o *Orchestrator) SetLanguage(ctx context.Context, lang domain.Language) error {
	gen, err := o.begin()
	if err != nil {
		return err
	}
	if !lang.Valid() {
		return &ActionError{Action: "set language", Kind: KindValidation, Message: "unsupported language " + string(lang)}
	}
	if err := o.deps.Store.SetLanguage(ctx, lang); err != nil {
		return newActionError("set language", err)
	}
	o.update(gen, func(s *State) { s.Language = lang })
	return nil
}
