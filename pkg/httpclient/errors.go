package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	apperrors "github.com/smhassan90/salaahManager/pkg/errors"
)

// Human-readable messages for failures that never reached the backend.
const (
	MsgTimeout      = "Request timed out. Please check your internet connection and try again."
	MsgNoConnection = "No internet connection. Please check your network settings and try again."
	MsgNetwork      = "Network error. Please check your internet connection and try again."
	MsgGeneric      = "An error occurred. Please try again."
)

// errorResponse is the backend's failure envelope.
type errorResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

// ParseResponseError translates a non-2xx response into an AppError that
// keeps the status, the server message, any field errors and the raw body.
func ParseResponseError(resp *Response) *apperrors.AppError {
	appErr := &apperrors.AppError{
		Code:   codeForStatus(resp.StatusCode),
		Status: resp.StatusCode,
		Body:   string(resp.Body),
		Err:    sentinelForStatus(resp.StatusCode),
	}

	var body errorResponse
	if json.Unmarshal(resp.Body, &body) == nil {
		appErr.Message = body.Message
		if appErr.Message == "" {
			appErr.Message = body.Error
		}
		if len(body.Errors) > 0 {
			var fields []apperrors.FieldError
			if json.Unmarshal(body.Errors, &fields) == nil {
				appErr.Fields = fields
			}
		}
	}
	if appErr.Message == "" {
		appErr.Message = http.StatusText(resp.StatusCode)
	}
	if appErr.Message == "" {
		appErr.Message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}
	return appErr
}

func rateLimitError(resp *Response) *apperrors.AppError {
	appErr := ParseResponseError(resp)
	msg := appErr.Message
	if msg == http.StatusText(http.StatusTooManyRequests) {
		msg = ""
	}
	out := apperrors.TooManyRequests(msg)
	out.Body = appErr.Body
	return out
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return "INVALID_INPUT"
	case status == http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case status == http.StatusForbidden:
		return "FORBIDDEN"
	case status == http.StatusNotFound:
		return "NOT_FOUND"
	case status == http.StatusConflict:
		return "CONFLICT"
	case status == http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case status == http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case status >= 500:
		return "SERVER_ERROR"
	default:
		return fmt.Sprintf("HTTP_%d", status)
	}
}

func sentinelForStatus(status int) error {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.ErrInvalidInput
	case status == http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case status == http.StatusForbidden:
		return apperrors.ErrForbidden
	case status == http.StatusNotFound:
		return apperrors.ErrNotFound
	case status == http.StatusConflict:
		return apperrors.ErrConflict
	case status == http.StatusTooManyRequests:
		return apperrors.ErrRateLimited
	case status == http.StatusServiceUnavailable:
		return apperrors.ErrServiceUnavail
	case status >= 500:
		return apperrors.ErrInternal
	default:
		return nil
	}
}

// transportError maps a failed round trip to a network AppError. Caller
// cancellation is returned as is.
func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return err
	}
	var netErr net.Error
	timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
	return apperrors.Network(err, timeout)
}

// IsNoConnection reports whether err is a failure to reach the host at all
// (DNS lookup or dial).
func IsNoConnection(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// Message returns a human-readable description of err: the timeout and
// connectivity texts for network failures, else the server message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, apperrors.ErrTimeout):
		return MsgTimeout
	case errors.Is(err, apperrors.ErrNetwork):
		if IsNoConnection(err) {
			return MsgNoConnection
		}
		return MsgNetwork
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && strings.TrimSpace(appErr.Message) != "" {
		return appErr.Message
	}
	return MsgGeneric
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
