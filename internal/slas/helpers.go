package slas

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/openkcm/storefront-session/internal/serviceerr"
)

// LoginGuestUser runs the public client guest login with PKCE: authorize with
// a fresh code challenge, then exchange the code with its verifier.
func (c *Client) LoginGuestUser(ctx context.Context, params GuestLoginParams) (TokenResponse, error) {
	verifier := c.pkce.CodeVerifier()

	auth, err := c.authorizer.PerformAuthorizeRequest(ctx, AuthorizeParams{
		RedirectURI:   params.RedirectURI,
		CodeChallenge: c.pkce.Challenge(verifier),
		Hint:          hintGuest,
		USID:          params.USID,
		Extra:         params.Extra,
	})
	if err != nil {
		return TokenResponse{}, fmt.Errorf("authorizing guest: %w", err)
	}

	tokens, err := c.GetAccessToken(ctx, TokenRequest{
		GrantType:    GrantTypeAuthorizationCodePKCE,
		ClientID:     c.cfg.ClientID,
		ChannelID:    c.cfg.SiteID,
		Code:         auth.Code,
		CodeVerifier: verifier,
		RedirectURI:  params.RedirectURI,
		USID:         auth.USID,
		DNT:          params.DNT,
	}, nil)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("exchanging authorization code: %w", err)
	}

	return tokens, nil
}

// LoginGuestUserPrivate runs the private client guest login using the client
// credentials grant.
func (c *Client) LoginGuestUserPrivate(ctx context.Context, params PrivateLoginParams, clientSecret string) (TokenResponse, error) {
	if c.cfg.SiteID == "" {
		return TokenResponse{}, serviceerr.ErrMissingSiteID
	}

	tokens, err := c.GetAccessToken(ctx, TokenRequest{
		GrantType: GrantTypeClientCredentials,
		ChannelID: c.cfg.SiteID,
		USID:      params.USID,
		DNT:       params.DNT,
	}, c.basicAuth(clientSecret))
	if err != nil {
		return TokenResponse{}, fmt.Errorf("requesting client credentials token: %w", err)
	}

	return tokens, nil
}

// RefreshAccessToken exchanges a refresh token. A non-empty client secret
// authenticates the request as a private client.
func (c *Client) RefreshAccessToken(ctx context.Context, params RefreshParams, clientSecret string) (TokenResponse, error) {
	var headers http.Header
	if clientSecret != "" {
		headers = c.basicAuth(clientSecret)
	}

	tokens, err := c.GetAccessToken(ctx, TokenRequest{
		GrantType:    GrantTypeRefreshToken,
		RefreshToken: params.RefreshToken,
		ClientID:     c.cfg.ClientID,
		ChannelID:    c.cfg.SiteID,
		DNT:          params.DNT,
	}, headers)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("refreshing access token: %w", err)
	}

	return tokens, nil
}

// Logout revokes the shopper's refresh token.
func (c *Client) Logout(ctx context.Context, params LogoutParams) (TokenResponse, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+params.AccessToken)

	tokens, err := c.LogoutCustomer(ctx, LogoutRequest{
		RefreshToken: params.RefreshToken,
		ClientID:     c.cfg.ClientID,
		ChannelID:    c.cfg.SiteID,
	}, headers)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("logging out: %w", err)
	}

	return tokens, nil
}

func (c *Client) basicAuth(clientSecret string) http.Header {
	headers := http.Header{}
	headers.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID+":"+clientSecret)))

	return headers
}
