// Package api is the typed call surface for the backend REST resources.
// Every method shapes one request, sends it through the transport and
// returns the unwrapped envelope data. Retries, token refresh and error
// translation live in the transport; state lives in the orchestrator.
package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/smhassan90/salaahManager/pkg/errors"
	"github.com/smhassan90/salaahManager/pkg/httpclient"
	"github.com/smhassan90/salaahManager/pkg/pagination"
	"github.com/smhassan90/salaahManager/pkg/validator"
)

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items      []T
	Pagination *pagination.Meta
}

// ListParams are the common query parameters of paginated listings.
// Zero values are omitted.
type ListParams struct {
	pagination.Params
	Search string
}

func (p ListParams) values() url.Values {
	q := p.Params.Apply(url.Values{})
	if s := strings.TrimSpace(p.Search); s != "" {
		q.Set("search", s)
	}
	return q
}

// Services groups every resource service over one transport.
type Services struct {
	Auth          *AuthService
	Users         *UserService
	Masajids      *MasjidService
	PrayerTimes   *PrayerTimeService
	Questions     *QuestionService
	Events        *EventService
	Notifications *NotificationService
	Health        *HealthService
	SuperAdmin    *SuperAdminService
}

// New creates all services over d.
func New(d httpclient.Doer) *Services {
	return &Services{
		Auth:          NewAuthService(d),
		Users:         NewUserService(d),
		Masajids:      NewMasjidService(d),
		PrayerTimes:   NewPrayerTimeService(d),
		Questions:     NewQuestionService(d),
		Events:        NewEventService(d),
		Notifications: NewNotificationService(d),
		Health:        NewHealthService(d),
		SuperAdmin:    NewSuperAdminService(d),
	}
}

// call sends req and returns the envelope data.
func call[T any](ctx context.Context, d httpclient.Doer, req *httpclient.Request) (T, error) {
	env, err := httpclient.Call[T](ctx, d, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}

// callPage sends req and returns the data together with its pagination.
func callPage[T any](ctx context.Context, d httpclient.Doer, req *httpclient.Request) (*Page[T], error) {
	env, err := httpclient.Call[[]T](ctx, d, req)
	if err != nil {
		return nil, err
	}
	return &Page[T]{Items: env.Data, Pagination: env.Pagination}, nil
}

// exec sends req and discards the data.
func exec(ctx context.Context, d httpclient.Doer, req *httpclient.Request) error {
	_, err := d.Do(ctx, req)
	return err
}

func get(path string, q url.Values) *httpclient.Request {
	return &httpclient.Request{Method: http.MethodGet, Path: path, Query: q}
}

func post(path string, body any) *httpclient.Request {
	return &httpclient.Request{Method: http.MethodPost, Path: path, Body: body}
}

func put(path string, body any) *httpclient.Request {
	return &httpclient.Request{Method: http.MethodPut, Path: path, Body: body}
}

func del(path string) *httpclient.Request {
	return &httpclient.Request{Method: http.MethodDelete, Path: path}
}

// validate checks in against its struct tags and reports failures as an
// invalid-input AppError carrying one field error per violation.
func validate(in any) error {
	err := validator.Validate(in)
	if err == nil {
		return nil
	}
	var verr *validator.ValidationError
	if !errors.As(err, &verr) {
		return apperrors.InvalidInput(err.Error())
	}
	appErr := apperrors.InvalidInput(verr.Error())
	for _, fe := range verr.Errors {
		appErr.Fields = append(appErr.Fields, apperrors.FieldError{
			Field:   fe.Field(),
			Message: verr.Fields()[fe.Field()],
		})
	}
	return appErr
}

// requireID rejects a blank path parameter before it reaches the network.
func requireID(name, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.InvalidInput(name + " is required")
	}
	return nil
}
