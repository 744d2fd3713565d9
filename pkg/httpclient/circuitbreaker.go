package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	apperrors "github.com/smhassan90/salaahManager/pkg/errors"
)

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this breaker (used in metrics and logs).
	Name string

	// MaxRequests is the maximum number of requests allowed in the half-open state.
	// 0 means 1 request is allowed.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state for clearing internal counts.
	Interval time.Duration

	// Timeout is how long the breaker stays open before moving to half-open.
	Timeout time.Duration

	// FailureRatio trips the breaker once failures/requests reaches it.
	FailureRatio float64

	// MinRequests is the minimum number of requests needed before the failure ratio is evaluated.
	MinRequests uint32
}

// DefaultCircuitBreakerConfig returns sensible defaults for a circuit breaker.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// ErrCircuitOpen is returned by gobreaker when the breaker rejects a request.
var ErrCircuitOpen = gobreaker.ErrOpenState

// errServerFailure marks a 5xx response as a breaker failure while the
// response itself is still handed back to the caller.
var errServerFailure = errors.New("server error response")

type circuitBreaker struct {
	cb     *gobreaker.CircuitBreaker[*Response]
	name   string
	logger *slog.Logger
}

func newCircuitBreaker(cfg CircuitBreakerConfig, logger *slog.Logger) *circuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			circuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		// A caller giving up says nothing about backend health.
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
	}

	circuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	return &circuitBreaker{
		cb:     gobreaker.NewCircuitBreaker[*Response](settings),
		name:   cfg.Name,
		logger: logger,
	}
}

// execute runs fn through the breaker. 5xx responses count as failures but
// are returned unmodified; an open breaker yields a 503 AppError.
func (b *circuitBreaker) execute(ctx context.Context, fn func() (*Response, error)) (*Response, error) {
	resp, err := b.cb.Execute(func() (*Response, error) {
		resp, err := fn()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerFailure
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, errServerFailure):
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		b.logger.WarnContext(ctx, "circuit breaker rejected request",
			slog.String("breaker", b.name),
			slog.String("state", b.cb.State().String()),
		)
		return nil, &apperrors.AppError{
			Code:    "SERVICE_UNAVAILABLE",
			Message: "The server is temporarily unavailable. Please try again shortly.",
			Status:  503,
			Err:     fmt.Errorf("%w: %w", apperrors.ErrServiceUnavail, err),
		}
	case err != nil:
		return nil, err
	}
	return resp, nil
}

// stateToFloat maps gobreaker states to prometheus gauge values.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// BreakerState returns the breaker state name, or "disabled".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.cb.State().String()
}
