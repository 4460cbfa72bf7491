package slas

import (
	"net/url"
	"strconv"
)

const (
	GrantTypeAuthorizationCodePKCE = "authorization_code_pkce"
	GrantTypeRefreshToken          = "refresh_token"
	GrantTypeClientCredentials     = "client_credentials"

	hintGuest = "guest"
)

// TokenResponse is the answer of the token and logout endpoints.
type TokenResponse struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
	TokenType             string `json:"token_type"`
	USID                  string `json:"usid"`
	CustomerID            string `json:"customer_id,omitempty"`
	EncUserID             string `json:"enc_user_id,omitempty"`
	IDToken               string `json:"id_token,omitempty"`
	IDPAccessToken        string `json:"idp_access_token,omitempty"`
}

type AuthorizeParams struct {
	RedirectURI string
	// CodeChallenge is omitted for private clients.
	CodeChallenge string
	Hint          string
	USID          string
	// Extra holds custom query parameters passed through unchanged.
	Extra url.Values
}

func (p AuthorizeParams) query(clientID, channelID string) url.Values {
	q := url.Values{}
	for k, v := range p.Extra {
		q[k] = append([]string(nil), v...)
	}

	q.Set("client_id", clientID)
	q.Set("channel_id", channelID)
	q.Set("redirect_uri", p.RedirectURI)
	q.Set("response_type", "code")
	setIfNotEmpty(q, "code_challenge", p.CodeChallenge)
	setIfNotEmpty(q, "hint", p.Hint)
	setIfNotEmpty(q, "usid", p.USID)

	return q
}

// AuthorizeResult is extracted from the authorize redirect.
type AuthorizeResult struct {
	Code string
	URL  string
	USID string
}

// TokenRequest is the form body of the token endpoint.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ChannelID    string
	Code         string
	CodeVerifier string
	RedirectURI  string
	USID         string
	RefreshToken string
	DNT          *bool
	Extra        url.Values
}

func (r TokenRequest) form() url.Values {
	f := url.Values{}
	for k, v := range r.Extra {
		f[k] = append([]string(nil), v...)
	}

	f.Set("grant_type", r.GrantType)
	setIfNotEmpty(f, "client_id", r.ClientID)
	setIfNotEmpty(f, "channel_id", r.ChannelID)
	setIfNotEmpty(f, "code", r.Code)
	setIfNotEmpty(f, "code_verifier", r.CodeVerifier)
	setIfNotEmpty(f, "redirect_uri", r.RedirectURI)
	setIfNotEmpty(f, "usid", r.USID)
	setIfNotEmpty(f, "refresh_token", r.RefreshToken)
	if r.DNT != nil {
		f.Set("dnt", strconv.FormatBool(*r.DNT))
	}

	return f
}

// LogoutRequest is the form body of the logout endpoint.
type LogoutRequest struct {
	RefreshToken string
	ClientID     string
	ChannelID    string
	RedirectURI  string
}

func (r LogoutRequest) form() url.Values {
	f := url.Values{}
	f.Set("refresh_token", r.RefreshToken)
	setIfNotEmpty(f, "client_id", r.ClientID)
	setIfNotEmpty(f, "channel_id", r.ChannelID)
	setIfNotEmpty(f, "redirect_uri", r.RedirectURI)

	return f
}

type GuestLoginParams struct {
	RedirectURI string
	USID        string
	DNT         *bool
	Extra       url.Values
}

type PrivateLoginParams struct {
	USID string
	DNT  *bool
}

type RefreshParams struct {
	RefreshToken string
	DNT          *bool
}

type LogoutParams struct {
	AccessToken  string
	RefreshToken string
}

func setIfNotEmpty(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
