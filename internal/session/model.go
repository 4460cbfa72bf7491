package session

import "time"

// Data is the token material carried in the session cookie. Expiries are
// absolute epoch milliseconds; zero means unset.
type Data struct {
	AccessToken        string `json:"accessToken,omitempty"`
	AccessTokenExpiry  int64  `json:"accessTokenExpiry,omitempty"`
	RefreshToken       string `json:"refreshToken,omitempty"`
	RefreshTokenExpiry int64  `json:"refreshTokenExpiry,omitempty"`
	BasketID           string `json:"basketId,omitempty"`
}

// FlashData is removed from the session once it has been read.
type FlashData struct {
	Error string `json:"error,omitempty"`
}

// Session represents the authentication state of one shopper. It is owned by
// a single request/response cycle.
type Session struct {
	Data

	flash    FlashData
	modified bool
}

func New() *Session {
	return &Session{}
}

// Modified reports whether the session changed since it was loaded or last
// committed, i.e. whether a Set-Cookie header is needed.
func (s *Session) Modified() bool {
	return s.modified
}

// SetTokens overwrites the four token fields.
func (s *Session) SetTokens(accessToken string, accessTokenExpiry int64, refreshToken string, refreshTokenExpiry int64) {
	s.AccessToken = accessToken
	s.AccessTokenExpiry = accessTokenExpiry
	s.RefreshToken = refreshToken
	s.RefreshTokenExpiry = refreshTokenExpiry
	s.modified = true
}

func (s *Session) SetBasketID(basketID string) {
	if s.BasketID == basketID {
		return
	}
	s.BasketID = basketID
	s.modified = true
}

// Clear drops all token material and the basket reference.
func (s *Session) Clear() {
	s.Data = Data{}
	s.modified = true
}

// SetFlashError stores a one-shot diagnostic message.
func (s *Session) SetFlashError(msg string) {
	s.flash.Error = msg
	s.modified = true
}

// FlashError returns the flash message and removes it from the session.
func (s *Session) FlashError() string {
	msg := s.flash.Error
	if msg != "" {
		s.flash.Error = ""
		s.modified = true
	}
	return msg
}

// PeekFlashError returns the flash message without consuming it.
func (s *Session) PeekFlashError() string {
	return s.flash.Error
}

func (s *Session) AccessTokenExpiresAt() time.Time {
	if s.AccessTokenExpiry == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.AccessTokenExpiry)
}

func (s *Session) RefreshTokenExpiresAt() time.Time {
	if s.RefreshTokenExpiry == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.RefreshTokenExpiry)
}

// validate drops inconsistent cookie content instead of trusting it.
func (s *Session) validate() {
	if s.AccessTokenExpiry < 0 {
		s.AccessTokenExpiry = 0
	}
	if s.RefreshTokenExpiry < 0 {
		s.RefreshTokenExpiry = 0
	}
	if s.AccessToken == "" || s.AccessTokenExpiry == 0 {
		s.AccessToken = ""
		s.AccessTokenExpiry = 0
	}
	if s.RefreshToken == "" || s.RefreshTokenExpiry == 0 {
		s.RefreshToken = ""
		s.RefreshTokenExpiry = 0
	}
}
