package orchestrator

import (
	"errors"
	"net/http"
	"strings"

	"github.com/smhassan90/salaahManager/internal/domain"
	apperrors "github.com/smhassan90/salaahManager/pkg/errors"
	"github.com/smhassan90/salaahManager/pkg/httpclient"
)

// Kind classifies a failed action for presentation.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindRateLimited    Kind = "rate_limited"
	KindNetwork        Kind = "network"
	KindUnexpected     Kind = "unexpected"
)

var (
	// ErrDisposed is returned by every action after Close.
	ErrDisposed = errors.New("orchestrator is closed")
	// ErrAlreadyBootstrapped is returned by a second Bootstrap call.
	ErrAlreadyBootstrapped = errors.New("orchestrator already bootstrapped")
	// ErrNotAuthenticated is returned by actions that need a signed-in user.
	ErrNotAuthenticated = errors.New("not signed in")
	// ErrNoDefaultMasjid is returned by per-masjid actions before a default
	// masjid is known.
	ErrNoDefaultMasjid = errors.New("no default masjid selected")
	// ErrUnknownMasjid is returned for a masjid id outside the memberships.
	ErrUnknownMasjid = errors.New("masjid is not one of your masajids")
	// ErrUnknownQuestion is returned when replying to a question that is not
	// loaded.
	ErrUnknownQuestion = errors.New("question not found")
	// ErrUnknownPrayer is returned for a prayer name that cannot be resolved.
	ErrUnknownPrayer = errors.New("unknown prayer name")
)

// permissionPhrases mark an authorization failure in a response message when
// the status code does not say so.
var permissionPhrases = []string{"permission", "forbidden", "not authorized"}

// ActionError is the classified failure of an orchestrator action.
type ActionError struct {
	Action  string
	Kind    Kind
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return e.Action + ": " + e.Message
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or "" for nil.
func KindOf(err error) Kind {
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return actionErr.Kind
	}
	return Classify(err)
}

// Classify maps err to a Kind. The HTTP status decides first; the message is
// only inspected for permission wording when the status is ambiguous, since
// some endpoints answer permission problems with 400 or 500.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, apperrors.ErrSessionExpired):
		return KindAuthentication
	case apperrors.IsNetwork(err):
		return KindNetwork
	case isLocalValidation(err):
		return KindValidation
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		switch appErr.Status {
		case http.StatusUnauthorized:
			return KindAuthentication
		case http.StatusForbidden:
			return KindAuthorization
		case http.StatusTooManyRequests:
			return KindRateLimited
		}
		if mentionsPermission(appErr.Message) || mentionsPermission(appErr.Body) {
			return KindAuthorization
		}
		if appErr.Status == http.StatusBadRequest || appErr.Status == http.StatusUnprocessableEntity {
			return KindValidation
		}
		return KindUnexpected
	}

	if mentionsPermission(err.Error()) {
		return KindAuthorization
	}
	return KindUnexpected
}

func isLocalValidation(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidTime,
		domain.ErrInvalidDate,
		domain.ErrEmptyReply,
		domain.ErrAlreadyReplied,
		ErrNoDefaultMasjid,
		ErrUnknownMasjid,
		ErrUnknownQuestion,
		ErrUnknownPrayer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func mentionsPermission(s string) bool {
	s = strings.ToLower(s)
	for _, p := range permissionPhrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// newActionError classifies err and picks the most useful message for it.
func newActionError(action string, err error) *ActionError {
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return actionErr
	}
	kind := Classify(err)
	return &ActionError{
		Action:  action,
		Kind:    kind,
		Message: messageFor(kind, err),
		Err:     err,
	}
}

func messageFor(kind Kind, err error) string {
	var appErr *apperrors.AppError
	isApp := errors.As(err, &appErr)

	switch {
	case errors.Is(err, apperrors.ErrSessionExpired):
		return "Your session has expired. Please sign in again."
	case kind == KindValidation && isApp && appErr.Status != 0:
		return validationMessage(appErr)
	case kind == KindValidation:
		return err.Error()
	}
	return httpclient.Message(err)
}

// validationMessage prefers field errors, then the server message, then the
// raw response body.
func validationMessage(appErr *apperrors.AppError) string {
	if msg := appErr.FieldMessages(); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(appErr.Message); msg != "" && msg != http.StatusText(appErr.Status) {
		return msg
	}
	if body := strings.TrimSpace(appErr.Body); body != "" {
		return body
	}
	return httpclient.MsgGeneric
}
