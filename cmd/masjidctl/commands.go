package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/smhassan90/salaahManager/internal/app"
	"github.com/smhassan90/salaahManager/internal/domain"
	"github.com/smhassan90/salaahManager/internal/orchestrator"
)

var errNotSignedIn = errors.New("not signed in; run 'masjidctl login' first")

type env struct {
	app *app.App
	o   *orchestrator.Orchestrator
	out io.Writer
}

func (e *env) print(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (e *env) requireSession() error {
	if !e.o.Snapshot().Authenticated {
		return errNotSignedIn
	}
	return nil
}

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"login":         {"sign in: -email -password", runLogin},
	"logout":        {"sign out and clear the stored session", runLogout},
	"status":        {"show the signed-in user and masajids", runStatus},
	"health":        {"check the backend and the session store", runHealth},
	"language":      {"show or change the language: [-set en|ur|ar]", runLanguage},
	"set-default":   {"change the default masjid: -masjid", runSetDefault},
	"prayer-times":  {"show today's prayer times: [-masjid]", runPrayerTimes},
	"set-prayer":    {"update one prayer time: -prayer -time HH:MM [-masjid]", runSetPrayer},
	"questions":     {"list questions of the default masjid", runQuestions},
	"reply":         {"reply to a question: -id -text", runReply},
	"notifications": {"list notifications of the default masjid", runNotifications},
	"notify":        {"publish a notification: -title [-description] [-category] [-exclude-creator]", runNotify},
	"mark-read":     {"mark notifications read: -id | -all", runMarkRead},
	"events":        {"list events of the default masjid", runEvents},
	"create-event":  {"create an event: -name -date DD-MM-YYYY -time HH:MM [-description] [-location]", runCreateEvent},
	"delete-event":  {"delete an event: -id", runDeleteEvent},
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "usage: masjidctl <command> [flags]")
	fmt.Fprintln(w)
	for _, name := range names {
		fmt.Fprintf(w, "  %-14s %s\n", name, commands[name].summary)
	}
}

func newFlags(name string, e *env) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.out)
	return fs
}

// --- Session ---

func runLogin(ctx context.Context, e *env, args []string) error {
	fs := newFlags("login", e)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("-email and -password are required")
	}
	if err := e.o.Login(ctx, *email, *password); err != nil {
		return err
	}
	return runStatus(ctx, e, nil)
}

func runLogout(ctx context.Context, e *env, _ []string) error {
	if err := e.o.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "signed out")
	return nil
}

type statusView struct {
	Authenticated bool            `json:"authenticated"`
	User          *domain.User    `json:"user,omitempty"`
	Language      domain.Language `json:"language"`
	Masajids      []domain.Masjid `json:"masajids,omitempty"`
	Pending       int             `json:"pendingQuestions"`
	Unread        int             `json:"unreadNotifications"`
}

func runStatus(_ context.Context, e *env, _ []string) error {
	s := e.o.Snapshot()
	return e.print(statusView{
		Authenticated: s.Authenticated,
		User:          s.User,
		Language:      s.Language,
		Masajids:      s.Masajids,
		Pending:       s.PendingQuestions(),
		Unread:        s.UnreadNotifications(),
	})
}

func runHealth(ctx context.Context, e *env, _ []string) error {
	report := e.app.Health(ctx)
	if err := e.print(report); err != nil {
		return err
	}
	if !report.Healthy() {
		return errors.New("unhealthy")
	}
	return nil
}

func runLanguage(ctx context.Context, e *env, args []string) error {
	fs := newFlags("language", e)
	set := fs.String("set", "", "new language (en, ur or ar)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *set != "" {
		if err := e.o.SetLanguage(ctx, domain.Language(strings.ToLower(*set))); err != nil {
			return err
		}
	}
	fmt.Fprintln(e.out, e.o.Snapshot().Language)
	return nil
}

// --- Masajids and prayer times ---

func runSetDefault(ctx context.Context, e *env, args []string) error {
	fs := newFlags("set-default", e)
	masjid := fs.String("masjid", "", "masjid id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := e.requireSession(); err != nil {
		return err
	}
	if err := e.o.SetDefaultMasjid(ctx, *masjid); err != nil {
		return err
	}
	return runStatus(ctx, e, nil)
}

func runPrayerTimes(ctx context.Context, e *env, args []string) error {
	fs := newFlags("prayer-times", e)
	masjid := fs.String("masjid", "", "masjid id (default masjid when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := e.requireSession(); err != nil {
		return err
	}
	if *masjid != "" {
		if err := e.o.RefreshPrayerTimes(ctx, *masjid); err != nil {
			return err
		}
		return e.print(e.o.Snapshot().PrayerTimes[*masjid])
	}
	return e.print(e.o.Snapshot().DefaultPrayerTimes())
}

func runSetPrayer(ctx context.Context, e *env, args []string) error {
	fs := newFlags("set-prayer", e)
	masjid := fs.String("masjid", "", "masjid id (default masjid when empty)")
	prayer := fs.String("prayer", "", "prayer name")
	t := fs.String("time", "", "new time, HH:MM")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := e.requireSession(); err != nil {
		return err
	}
	if err := e.o.UpdatePrayerTime(ctx, *masjid, *prayer, *t); err != nil {
		return err
	}
	s := e.o.Snapshot()
	if *masjid != "" {
		return e.print(s.PrayerTimes[*masjid])
	}
	return e.print(s.DefaultPrayerTimes())
}

// --- Questions ---

func runQuestions(_ context.Context, e *env, _ []string) error {
	if err := e.requireSession(); err != nil {
		return err
	}
	return e.print(e.o.Snapshot().Questions)
}

func runReply(ctx context.Context, e *env, args []string) error {
	fs := newFlags("reply", e)
	id := fs.String("id", "", "question id")
	text := fs.String("text", "", "reply text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := e.requireSession(); err != nil {
		return err
	}
	if err := e.o.ReplyToQuestion(ctx, *id, *text); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "replied")
	return nil
}

// --- Notifications ---

func runNotifications(_ context.Context, e *env, _ []string) error {
	if err := e.requireSession(); err != nil {
		return err
	}
	return e.print(e.o.Snapshot().Notifications)
}

func runNotify(ctx context.Context, e *env, args []string) error {
	fs := newFlags("notify", e)
	title := fs.String("title", "", "title")
	description := fs.String("description", "", "body text")
	category := fs.String("category", domain.CategoryGeneral, "category")
	excludeCreator := fs.Bool("exclude-creator", false, "do not push to your own devices")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := e.requireSession(); err != nil {
		return err
	}
	if err := e.o.CreateNotification(ctx, orchestrator.NotificationDraft{
		Title:          *title,
		Description:    *description,
		Category:       *category,
		ExcludeCreator: *excludeCreator,
	}); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "published")
	return nil
}

func runMarkRead(ctx context.Context, e *env, args []string) error {
	fs := newFlags("mark-read", e)
	id := fs.String("id", "", "notification id")
	all := fs.Bool("all", false, "mark every loaded notification read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var err error
	switch {
	case *all:
		err = e.o.MarkAllNotificationsRead(ctx)
	case *id != "":
		err = e.o.MarkNotificationRead(ctx, *id)
	default:
		return errors.New("-id or -all is required")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%d unread\n", e.o.UnreadCount())
	return nil
}

// --- Events ---

func runEvents(_ context.Context, e *env, _ []string) error {
	if err := e.requireSession(); err != nil {
		return err
	}
	return e.print(e.o.Snapshot().Events)
}

func runCreateEvent(ctx context.Context, e *env, args []string) error {
	fs := newFlags("create-event", e)
	name := fs.String("name", "", "event name")
	date := fs.String("date", "", "date, DD-MM-YYYY")
	t := fs.String("time", "", "time, HH:MM")
	description := fs.String("description", "", "description")
	location := fs.String("location", "", "location")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := e.requireSession(); err != nil {
		return err
	}
	if err := e.o.CreateEvent(ctx, orchestrator.EventDraft{
		Name:        *name,
		Description: *description,
		Date:        *date,
		Time:        *t,
		Location:    *location,
	}); err != nil {
		return err
	}
	return e.print(e.o.Snapshot().Events)
}

func runDeleteEvent(ctx context.Context, e *env, args []string) error {
	fs := newFlags("delete-event", e)
	id := fs.String("id", "", "event id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := e.requireSession(); err != nil {
		return err
	}
	if err := e.o.DeleteEvent(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "deleted")
	return nil
}
