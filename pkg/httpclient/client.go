package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/smhassan90/salaahManager/pkg/errors"
	"github.com/smhassan90/salaahManager/pkg/logger"
)

const (
	tracerName   = "github.com/smhassan90/salaahManager/pkg/httpclient"
	maxBodyBytes = 10 << 20
)

// Config holds HTTP client configuration
type Config struct {
	BaseURL             string
	Timeout             time.Duration
	MaxRateLimitRetries int
	RetryWaitMin        time.Duration
	RetryWaitMax        time.Duration
	RefreshDebounce     time.Duration
	RefreshPath         string
	MaxConnsPerHost     int
	UserAgent           string

	// CircuitBreaker is optional; nil disables the breaker.
	CircuitBreaker *CircuitBreakerConfig
}

// DefaultConfig returns the production API settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:             "https://alasrbackend.vercel.app/api/v1",
		Timeout:             30 * time.Second,
		MaxRateLimitRetries: 2,
		RetryWaitMin:        time.Second,
		RetryWaitMax:        10 * time.Second,
		RefreshDebounce:     500 * time.Millisecond,
		RefreshPath:         "/auth/refresh-token",
		MaxConnsPerHost:     16,
		UserAgent:           "salaahmanager-go",
	}
}

// TokenStore is the persisted credential pair the client reads and rotates.
type TokenStore interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetTokens(ctx context.Context, access, refresh string) error
	ClearSession(ctx context.Context) error
}

// TokenPair is the data payload of a successful refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

var errNoRefreshToken = errors.New("no refresh token stored")

// attempt carries the retry state of one logical request. It is passed by
// value so nothing leaks between requests.
type attempt struct {
	rateLimitRetries int
	refreshed        bool
	token            string
}

// Client sends API requests with bearer auth, 429 backoff and single-flight
// token refresh.
type Client struct {
	httpClient *http.Client
	config     Config
	tokens     TokenStore
	logger     *slog.Logger
	breaker    *circuitBreaker
	tracer     trace.Tracer

	refreshGroup singleflight.Group

	hookMu           sync.RWMutex
	onSessionExpired func(context.Context)

	// replaced in tests
	sleep func(context.Context, time.Duration) error
	now   func() time.Time
}

// New creates a client for cfg.BaseURL backed by a pooled transport.
func New(cfg Config, tokens TokenStore, log *slog.Logger) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = DefaultConfig().RefreshPath
	}
	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		config: cfg,
		tokens: tokens,
		logger: log,
		tracer: otel.Tracer(tracerName),
		sleep:  sleepContext,
		now:    time.Now,
	}
	if cfg.CircuitBreaker != nil {
		c.breaker = newCircuitBreaker(*cfg.CircuitBreaker, log)
	}
	return c
}

// SetSessionExpiredHook registers fn to run after a failed refresh has
// cleared the stored session.
func (c *Client) SetSessionExpiredHook(fn func(context.Context)) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onSessionExpired = fn
}

// BaseURL returns the API base address.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Do executes one logical request. Recovered 429s and 401s are invisible to
// the caller; any other non-2xx status is returned as *apperrors.AppError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	p, err := req.prepare()
	if err != nil {
		return nil, err
	}

	if logger.RequestIDFromContext(ctx) == "" {
		ctx = logger.WithRequestID(ctx, uuid.NewString())
	}
	ctx, span := c.tracer.Start(ctx, p.method+" "+p.path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", p.method),
		attribute.String("url.path", p.path),
	)

	start := c.now()
	resp, err := c.execute(ctx, p, attempt{})
	elapsed := c.now().Sub(start)

	status := apperrors.HTTPStatus(err)
	if err == nil {
		status = resp.StatusCode
	}
	requestsTotal.WithLabelValues(p.method, statusLabel(status)).Inc()
	requestDuration.WithLabelValues(p.method).Observe(elapsed.Seconds())
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	log := logger.WithContext(ctx, c.logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.DebugContext(ctx, "api request failed",
			slog.String("method", p.method),
			slog.String("path", p.path),
			slog.Int("status", status),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	log.DebugContext(ctx, "api request",
		slog.String("method", p.method),
		slog.String("path", p.path),
		slog.Int("status", status),
		slog.Duration("duration", elapsed),
	)
	return resp, nil
}

func (c *Client) execute(ctx context.Context, p *prepared, at attempt) (*Response, error) {
	token := at.token
	if token == "" {
		token = c.storedAccessToken(ctx)
	}

	resp, err := c.send(ctx, p, token)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if at.rateLimitRetries >= c.config.MaxRateLimitRetries {
			return nil, rateLimitError(resp)
		}
		wait := c.rateLimitWait(resp.Header, at.rateLimitRetries)
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "rate limited, backing off",
			slog.String("path", p.path),
			slog.Int("retry", at.rateLimitRetries+1),
			slog.Duration("wait", wait),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
		retriesTotal.WithLabelValues("rate_limit").Inc()
		at.rateLimitRetries++
		return c.execute(ctx, p, at)

	case resp.StatusCode == http.StatusUnauthorized && !at.refreshed:
		newToken, err := c.refresh(ctx, token)
		if errors.Is(err, errNoRefreshToken) {
			return nil, ParseResponseError(resp)
		}
		if err != nil {
			return nil, err
		}
		retriesTotal.WithLabelValues("unauthorized").Inc()
		at.refreshed = true
		at.token = newToken
		return c.execute(ctx, p, at)

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, ParseResponseError(resp)
	}

	return resp, nil
}

// send performs a single HTTP round trip, through the breaker when enabled.
func (c *Client) send(ctx context.Context, p *prepared, token string) (*Response, error) {
	httpReq, err := p.build(ctx, c.config.BaseURL)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	if id := logger.RequestIDFromContext(ctx); id != "" {
		httpReq.Header.Set("X-Request-ID", id)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	roundTrip := func() (*Response, error) {
		return c.roundTrip(ctx, httpReq)
	}
	if c.breaker != nil {
		return c.breaker.execute(ctx, roundTrip)
	}
	return roundTrip()
}

func (c *Client) roundTrip(ctx context.Context, httpReq *http.Request) (*Response, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, transportError(ctx, err)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

func (c *Client) storedAccessToken(ctx context.Context) string {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "read access token",
			slog.String("error", err.Error()),
		)
		return ""
	}
	return strings.TrimSpace(token)
}

// refresh returns an access token to replay with after failedToken was
// rejected. Concurrent callers holding the same refresh token share one call.
func (c *Client) refresh(ctx context.Context, failedToken string) (string, error) {
	// Another request may already have rotated the pair.
	if current := c.storedAccessToken(ctx); current != "" && current != failedToken {
		return current, nil
	}

	refreshToken, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "read refresh token",
			slog.String("error", err.Error()),
		)
		return "", errNoRefreshToken
	}
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return "", errNoRefreshToken
	}

	// The flight outlives any single caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := c.refreshGroup.Do(refreshToken, func() (any, error) {
		if err := c.sleep(flightCtx, c.config.RefreshDebounce); err != nil {
			return "", err
		}
		if current := c.storedAccessToken(flightCtx); current != "" && current != failedToken {
			return current, nil
		}
		return c.rotateTokens(flightCtx, refreshToken)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// rotateTokens calls the refresh endpoint directly, bypassing the retry
// pipeline and the breaker, and persists the new pair.
func (c *Client) rotateTokens(ctx context.Context, refreshToken string) (string, error) {
	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", fmt.Errorf("encode refresh request: %w", err)
	}
	url := strings.TrimRight(c.config.BaseURL, "/") + c.config.RefreshPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create refresh request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if id := logger.RequestIDFromContext(ctx); id != "" {
		httpReq.Header.Set("X-Request-ID", id)
	}

	resp, err := c.roundTrip(ctx, httpReq)
	if err != nil {
		return "", c.expireSession(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.expireSession(ctx, ParseResponseError(resp))
	}

	env, err := Decode[TokenPair](resp)
	if err != nil {
		return "", c.expireSession(ctx, err)
	}
	access := strings.TrimSpace(env.Data.AccessToken)
	if access == "" {
		return "", c.expireSession(ctx, errors.New("refresh response missing access token"))
	}
	refresh := strings.TrimSpace(env.Data.RefreshToken)
	if refresh == "" {
		refresh = refreshToken
	}

	if err := c.tokens.SetTokens(ctx, access, refresh); err != nil {
		return "", c.expireSession(ctx, fmt.Errorf("persist tokens: %w", err))
	}
	tokenRefreshTotal.WithLabelValues("success").Inc()
	logger.WithContext(ctx, c.logger).InfoContext(ctx, "access token refreshed")
	return access, nil
}

// expireSession wipes the stored session after a failed refresh and returns
// cause wrapped with ErrSessionExpired.
func (c *Client) expireSession(ctx context.Context, cause error) error {
	tokenRefreshTotal.WithLabelValues("failure").Inc()
	log := logger.WithContext(ctx, c.logger)
	log.WarnContext(ctx, "token refresh failed, clearing session",
		slog.String("error", cause.Error()),
	)
	if err := c.tokens.ClearSession(ctx); err != nil {
		log.ErrorContext(ctx, "clear session after refresh failure",
			slog.String("error", err.Error()),
		)
	}

	c.hookMu.RLock()
	hook := c.onSessionExpired
	c.hookMu.RUnlock()
	if hook != nil {
		hook(ctx)
	}
	return fmt.Errorf("%w: %w", apperrors.ErrSessionExpired, cause)
}

// rateLimitWait honours Retry-After (seconds or HTTP date), else backs off
// exponentially from RetryWaitMin, capped at RetryWaitMax.
func (c *Client) rateLimitWait(h http.Header, retries int) time.Duration {
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
		if at, err := http.ParseTime(v); err == nil {
			if d := at.Sub(c.now()); d > 0 {
				return d
			}
			return 0
		}
	}
	wait := c.config.RetryWaitMin << retries
	if wait <= 0 || wait > c.config.RetryWaitMax {
		wait = c.config.RetryWaitMax
	}
	return wait
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func statusLabel(status int) string {
	if status == 0 {
		return "network_error"
	}
	return strconv.Itoa(status)
}
