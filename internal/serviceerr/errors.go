package serviceerr

import (
	"errors"
	"fmt"
)

var ErrAuthorization = errors.New("authorization failed")
var ErrTokenRequest = errors.New("token request failed")
var ErrLogout = errors.New("logout failed")
var ErrResource = errors.New("resource request failed")

var ErrNoRedirectLocation = errors.New("no redirect location found in response")
var ErrMissingSiteID = errors.New("required argument channel_id is not provided through the site ID")
var ErrInvalidRatio = errors.New("expiry ratio must be within (0, 1]")
var ErrNoSecrets = errors.New("at least one session secret is required")

// AuthorizationError is returned when the authorize endpoint answers with
// an error status or redirects with an error query parameter.
type AuthorizationError struct {
	StatusCode int
	Status     string
	// Reason holds the error query parameter of the redirect, if any.
	Reason string
}

func (e *AuthorizationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %d %s: %s", ErrAuthorization, e.StatusCode, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s: %d %s", ErrAuthorization, e.StatusCode, e.Status)
}

func (e *AuthorizationError) Unwrap() error { return ErrAuthorization }

// TokenRequestError is returned for a non-2xx answer of the token endpoint.
type TokenRequestError struct {
	StatusCode int
	Status     string
	GrantType  string
}

func (e *TokenRequestError) Error() string {
	return fmt.Sprintf("%s (%s): %d %s", ErrTokenRequest, e.GrantType, e.StatusCode, e.Status)
}

func (e *TokenRequestError) Unwrap() error { return ErrTokenRequest }

// LogoutError is returned for a non-2xx answer of the logout endpoint.
type LogoutError struct {
	StatusCode int
	Status     string
}

func (e *LogoutError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrLogout, e.StatusCode, e.Status)
}

func (e *LogoutError) Unwrap() error { return ErrLogout }

// ResourceError is returned by the resource API clients for non-2xx answers.
type ResourceError struct {
	Operation  string
	StatusCode int
	Status     string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s: %s: %d %s", ErrResource, e.Operation, e.StatusCode, e.Status)
}

func (e *ResourceError) Unwrap() error { return ErrResource }
