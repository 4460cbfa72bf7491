// Package token keeps the shopper's commerce API tokens usable. Per inbound
// request it reuses, refreshes or newly obtains an access token and records
// the outcome in the session.
package token

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/storefront-session/internal/inflight"
	"github.com/openkcm/storefront-session/internal/middleware/requestkey"
	"github.com/openkcm/storefront-session/internal/serviceerr"
	"github.com/openkcm/storefront-session/internal/session"
	"github.com/openkcm/storefront-session/internal/slas"
)

type Status string

const (
	StatusValid     Status = "valid"
	StatusRefreshed Status = "refreshed"
	StatusNew       Status = "new"

	statusFailed = "failed"
)

const (
	FlashRefreshFailed = "Retrieving refreshed access token failed"
	FlashNewFailed     = "Retrieving new access token failed"
)

const (
	DefaultAccessTokenExpiryRatio  = 0.95
	DefaultRefreshTokenExpiryRatio = 0.99
)

// OAuthClient is the subset of the shopper login client the manager needs.
type OAuthClient interface {
	LoginGuestUser(ctx context.Context, params slas.GuestLoginParams) (slas.TokenResponse, error)
	LoginGuestUserPrivate(ctx context.Context, params slas.PrivateLoginParams, clientSecret string) (slas.TokenResponse, error)
	RefreshAccessToken(ctx context.Context, params slas.RefreshParams, clientSecret string) (slas.TokenResponse, error)
	Logout(ctx context.Context, params slas.LogoutParams) (slas.TokenResponse, error)
}

type SessionStore interface {
	GetSession(r *http.Request) *session.Session
	Commit(w http.ResponseWriter, sess *session.Session) error
}

// CommitFunc writes the session cookie if the session was modified.
type CommitFunc func(w http.ResponseWriter) error

type Result struct {
	Session *session.Session
	Status  Status
	Commit  CommitFunc
}

type Config struct {
	RedirectURI string
	// PrivateClient switches guest logins to the client credentials grant.
	PrivateClient bool
	ClientSecret  string
	// Zero ratios fall back to the defaults.
	AccessTokenExpiryRatio  float64
	RefreshTokenExpiryRatio float64
}

type Manager struct {
	cfg    Config
	client OAuthClient
	store  SessionStore

	group       *inflight.Group[Result]
	now         func() time.Time
	resolutions metric.Int64Counter
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithGroup shares the de-duplication group between managers.
func WithGroup(group *inflight.Group[Result]) Option {
	return func(m *Manager) { m.group = group }
}

func WithMeter(meter metric.Meter) Option {
	return func(m *Manager) {
		m.resolutions, _ = newResolutionCounter(meter)
	}
}

func NewManager(cfg Config, client OAuthClient, store SessionStore, opts ...Option) (*Manager, error) {
	if cfg.AccessTokenExpiryRatio == 0 {
		cfg.AccessTokenExpiryRatio = DefaultAccessTokenExpiryRatio
	}
	if cfg.RefreshTokenExpiryRatio == 0 {
		cfg.RefreshTokenExpiryRatio = DefaultRefreshTokenExpiryRatio
	}
	if err := validateRatio("access token expiry ratio", cfg.AccessTokenExpiryRatio); err != nil {
		return nil, err
	}
	if err := validateRatio("refresh token expiry ratio", cfg.RefreshTokenExpiryRatio); err != nil {
		return nil, err
	}
	if cfg.PrivateClient && cfg.ClientSecret == "" {
		return nil, errors.New("private client mode requires a client secret")
	}

	m := &Manager{
		cfg:    cfg,
		client: client,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if m.group == nil {
		m.group = &inflight.Group[Result]{}
	}
	if m.resolutions == nil {
		counter, err := newResolutionCounter(otel.Meter("storefront-session/token"))
		if err != nil {
			return nil, fmt.Errorf("creating resolution counter: %w", err)
		}
		m.resolutions = counter
	}

	return m, nil
}

func validateRatio(name string, ratio float64) error {
	if math.IsNaN(ratio) || ratio <= 0 || ratio > 1 {
		return fmt.Errorf("%w: %s %v", serviceerr.ErrInvalidRatio, name, ratio)
	}
	return nil
}

func newResolutionCounter(meter metric.Meter) (metric.Int64Counter, error) {
	return meter.Int64Counter(
		"storefront.token.resolutions",
		metric.WithDescription("Token lifecycle resolutions by outcome"),
		metric.WithUnit("resolution"),
	)
}

// GetCommerceAPIToken returns a session holding a usable access token for
// the inbound request. Concurrent calls for the same request share a single
// resolution. On failure the session carries a flash error and is returned
// together with the error.
func (m *Manager) GetCommerceAPIToken(ctx context.Context, r *http.Request) (Result, error) {
	key := requestkey.FromRequest(r)

	res, shared, err := m.group.Do(ctx, key, func(ctx context.Context) (Result, error) {
		return m.resolve(ctx, r)
	})
	if shared {
		slogctx.Debug(ctx, "Joined a running token resolution")
	}

	return res, err
}

func (m *Manager) resolve(ctx context.Context, r *http.Request) (Result, error) {
	sess := m.store.GetSession(r)
	res := Result{
		Session: sess,
		Commit:  m.commitFunc(sess),
	}

	now := m.now()
	nowMillis := now.UnixMilli()

	switch {
	case sess.AccessToken != "" && sess.AccessTokenExpiry >= nowMillis:
		res.Status = StatusValid

	case sess.RefreshToken != "" && sess.RefreshTokenExpiry >= nowMillis:
		tokens, err := m.client.RefreshAccessToken(ctx, slas.RefreshParams{RefreshToken: sess.RefreshToken}, m.secret())
		if err != nil {
			return m.fail(ctx, res, FlashRefreshFailed, err)
		}
		m.updateSession(sess, tokens, now)
		res.Status = StatusRefreshed

	default:
		tokens, err := m.login(ctx)
		if err != nil {
			return m.fail(ctx, res, FlashNewFailed, err)
		}
		m.updateSession(sess, tokens, now)
		res.Status = StatusNew
	}

	m.record(ctx, string(res.Status))
	slogctx.Debug(ctx, "Resolved commerce API token", "status", res.Status)

	return res, nil
}

func (m *Manager) login(ctx context.Context) (slas.TokenResponse, error) {
	if m.cfg.PrivateClient {
		return m.client.LoginGuestUserPrivate(ctx, slas.PrivateLoginParams{}, m.cfg.ClientSecret)
	}
	return m.client.LoginGuestUser(ctx, slas.GuestLoginParams{RedirectURI: m.cfg.RedirectURI})
}

func (m *Manager) secret() string {
	if m.cfg.PrivateClient {
		return m.cfg.ClientSecret
	}
	return ""
}

func (m *Manager) fail(ctx context.Context, res Result, flash string, err error) (Result, error) {
	res.Session.SetFlashError(flash)
	m.record(ctx, statusFailed)
	slogctx.Error(ctx, flash, "error", err)

	return res, fmt.Errorf("%s: %w", flash, err)
}

// updateSession stores the tokens with expiries shortened by the configured
// ratios so they are renewed before the provider rejects them.
func (m *Manager) updateSession(sess *session.Session, tokens slas.TokenResponse, now time.Time) {
	nowMillis := now.UnixMilli()
	sess.SetTokens(
		tokens.AccessToken,
		nowMillis+scaledMillis(tokens.ExpiresIn, m.cfg.AccessTokenExpiryRatio),
		tokens.RefreshToken,
		nowMillis+scaledMillis(tokens.RefreshTokenExpiresIn, m.cfg.RefreshTokenExpiryRatio),
	)
}

func scaledMillis(seconds int64, ratio float64) int64 {
	return int64(math.Round(float64(seconds) * 1000 * ratio))
}

func (m *Manager) commitFunc(sess *session.Session) CommitFunc {
	return func(w http.ResponseWriter) error {
		if !sess.Modified() {
			return nil
		}
		return m.store.Commit(w, sess)
	}
}

func (m *Manager) record(ctx context.Context, status string) {
	m.resolutions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// Logout revokes the refresh token held by the session, if any, and clears
// the session. The session is cleared even when revocation fails.
func (m *Manager) Logout(ctx context.Context, r *http.Request) (*session.Session, error) {
	sess := m.store.GetSession(r)

	var err error
	if sess.RefreshToken != "" {
		_, err = m.client.Logout(ctx, slas.LogoutParams{
			AccessToken:  sess.AccessToken,
			RefreshToken: sess.RefreshToken,
		})
		if err != nil {
			err = fmt.Errorf("revoking refresh token: %w", err)
		}
	}

	sess.Clear()

	return sess, err
}
