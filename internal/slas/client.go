// Package slas implements the shopper login calls of the commerce platform's
// identity provider: authorize, token exchange and logout.
package slas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/storefront-session/internal/pkce"
	"github.com/openkcm/storefront-session/internal/serviceerr"
)

const (
	defaultBaseURI = "https://api.commercecloud.salesforce.com"

	authorizePath = "/shopper/auth/v1/organizations/%s/oauth2/authorize"
	tokenPath     = "/shopper/auth/v1/organizations/%s/oauth2/token"
	logoutPath    = "/shopper/auth/v1/organizations/%s/oauth2/logout"
)

type Config struct {
	ClientID       string
	OrganizationID string
	SiteID         string
	ShortCode      string
	// Proxy takes precedence over BaseURI and the short code host.
	Proxy   string
	BaseURI string
	// Headers are sent with every request.
	Headers http.Header
}

func (c Config) baseURL() string {
	switch {
	case c.Proxy != "":
		return c.Proxy
	case c.BaseURI != "":
		return c.BaseURI
	case c.ShortCode != "":
		return "https://" + c.ShortCode + ".api.commercecloud.salesforce.com"
	default:
		return defaultBaseURI
	}
}

// Authorizer obtains an authorization code for a login attempt.
type Authorizer interface {
	PerformAuthorizeRequest(ctx context.Context, params AuthorizeParams) (AuthorizeResult, error)
}

type Client struct {
	cfg Config

	httpClient      *http.Client
	authorizeClient *http.Client
	authorizer      Authorizer
	pkce            pkce.Source
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithAuthorizer replaces the redirect based authorize request.
func WithAuthorizer(authorizer Authorizer) Option {
	return func(c *Client) { c.authorizer = authorizer }
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	// The authorize endpoint answers with a redirect carrying the code.
	// It must not be followed.
	authorizeClient := *c.httpClient
	authorizeClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.authorizeClient = &authorizeClient

	if c.authorizer == nil {
		c.authorizer = c
	}

	return c
}

func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) endpoint(pathFormat string) (string, error) {
	u, err := url.JoinPath(c.cfg.baseURL(), fmt.Sprintf(pathFormat, url.PathEscape(c.cfg.OrganizationID)))
	if err != nil {
		return "", fmt.Errorf("building endpoint url: %w", err)
	}
	return u, nil
}

// AuthorizeCustomerRaw issues the authorize request and returns the raw,
// unfollowed response. The caller closes the body.
func (c *Client) AuthorizeCustomerRaw(ctx context.Context, params AuthorizeParams) (*http.Response, error) {
	u, err := c.endpoint(authorizePath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+params.query(c.cfg.ClientID, c.cfg.SiteID).Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, nil)

	resp, err := c.authorizeClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	return resp, nil
}

// AuthorizeCustomer issues the authorize request and extracts code and usid
// from the redirect location.
func (c *Client) AuthorizeCustomer(ctx context.Context, params AuthorizeParams) (AuthorizeResult, error) {
	resp, err := c.AuthorizeCustomerRaw(ctx, params)
	if err != nil {
		return AuthorizeResult{}, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	redirectURL, err := resp.Location()
	if err != nil {
		if !errors.Is(err, http.ErrNoLocation) || resp.Request == nil {
			return AuthorizeResult{}, serviceerr.ErrNoRedirectLocation
		}
		// the transport already followed the redirect
		redirectURL = resp.Request.URL
	}

	q := redirectURL.Query()
	if resp.StatusCode >= http.StatusBadRequest || q.Get("error") != "" {
		return AuthorizeResult{}, &serviceerr.AuthorizationError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Reason:     q.Get("error"),
		}
	}

	code := q.Get("code")
	if code == "" {
		return AuthorizeResult{}, &serviceerr.AuthorizationError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Reason:     "missing authorization code",
		}
	}

	slogctx.Debug(ctx, "Received an authorization code", "status", resp.StatusCode)

	return AuthorizeResult{
		Code: code,
		URL:  redirectURL.String(),
		USID: q.Get("usid"),
	}, nil
}

// PerformAuthorizeRequest implements Authorizer using the manual redirect flow.
func (c *Client) PerformAuthorizeRequest(ctx context.Context, params AuthorizeParams) (AuthorizeResult, error) {
	return c.AuthorizeCustomer(ctx, params)
}

// GetAccessToken exchanges the request body for tokens.
func (c *Client) GetAccessToken(ctx context.Context, body TokenRequest, headers http.Header) (TokenResponse, error) {
	u, err := c.endpoint(tokenPath)
	if err != nil {
		return TokenResponse{}, err
	}

	resp, err := c.postForm(ctx, u, body.form(), headers)
	if err != nil {
		return TokenResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return TokenResponse{}, &serviceerr.TokenRequestError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			GrantType:  body.GrantType,
		}
	}

	var tokens TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return TokenResponse{}, fmt.Errorf("decoding response: %w", err)
	}

	slogctx.Debug(ctx, "Received tokens", "grant_type", body.GrantType, "expires_in", tokens.ExpiresIn)

	return tokens, nil
}

// LogoutCustomer revokes the refresh token.
func (c *Client) LogoutCustomer(ctx context.Context, body LogoutRequest, headers http.Header) (TokenResponse, error) {
	u, err := c.endpoint(logoutPath)
	if err != nil {
		return TokenResponse{}, err
	}

	resp, err := c.postForm(ctx, u, body.form(), headers)
	if err != nil {
		return TokenResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return TokenResponse{}, &serviceerr.LogoutError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	var tokens TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil && !errors.Is(err, io.EOF) {
		return TokenResponse{}, fmt.Errorf("decoding response: %w", err)
	}

	return tokens, nil
}

func (c *Client) postForm(ctx context.Context, u string, form url.Values, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, headers)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request, headers http.Header) {
	for k, v := range c.cfg.Headers {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}
	for k, v := range headers {
		req.Header[k] = append([]string(nil), v...)
	}
}
