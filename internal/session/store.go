package session

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/storefront-session/internal/config"
	"github.com/openkcm/storefront-session/internal/serviceerr"
)

type payload struct {
	Data  Data       `json:"data"`
	Flash *FlashData `json:"flash,omitempty"`
}

// Store reads and writes sessions from and to an encrypted, signed cookie.
type Store struct {
	template config.CookieTemplate
	codecs   []securecookie.Codec
}

// NewStore creates a cookie store. The first secret encodes new cookies,
// all secrets are accepted when decoding so secrets can be rotated.
func NewStore(ctx context.Context, template config.CookieTemplate, secrets ...[]byte) (*Store, error) {
	if len(secrets) == 0 {
		return nil, serviceerr.ErrNoSecrets
	}

	keyPairs := make([][]byte, 0, 2*len(secrets))
	for i, secret := range secrets {
		if len(secret) == 0 {
			return nil, fmt.Errorf("session secret %d is empty", i)
		}
		hashKey, blockKey := deriveKeys(secret)
		keyPairs = append(keyPairs, hashKey, blockKey)
	}

	codecs := securecookie.CodecsFromPairs(keyPairs...)
	for _, codec := range codecs {
		//nolint:forcetypeassert
		codec.(*securecookie.SecureCookie).
			MaxAge(0).
			SetSerializer(securecookie.JSONEncoder{})
	}

	if !template.Secure {
		slogctx.Warn(ctx, "Session cookie is not marked as Secure; this is not recommended in production environments")
	}
	if !template.HTTPOnly {
		slogctx.Warn(ctx, "Session cookie is not marked as HttpOnly; this is not recommended in production environments")
	}

	return &Store{
		template: template,
		codecs:   codecs,
	}, nil
}

// deriveKeys expands a secret into an HMAC key and an AES-256 key.
func deriveKeys(secret []byte) (hashKey, blockKey []byte) {
	h := sha512.Sum512(append([]byte("storefront-session/hash:"), secret...))
	b := sha256.Sum256(append([]byte("storefront-session/block:"), secret...))
	return h[:], b[:]
}

// GetSession parses the session cookie of the request. A missing, malformed
// or unverifiable cookie yields an empty session.
func (s *Store) GetSession(r *http.Request) *Session {
	c, err := r.Cookie(s.template.Name)
	if err != nil {
		return New()
	}

	var p payload
	if err := securecookie.DecodeMulti(s.template.Name, c.Value, &p, s.codecs...); err != nil {
		slogctx.Debug(r.Context(), "Ignoring invalid session cookie", "error", err)
		return New()
	}

	sess := &Session{Data: p.Data}
	if p.Flash != nil {
		sess.flash = *p.Flash
	}
	sess.validate()

	return sess
}

// CommitSession serializes the session and returns the Set-Cookie header
// value. The cookie expires together with the refresh token.
func (s *Store) CommitSession(sess *Session) (string, error) {
	p := payload{Data: sess.Data}
	if sess.flash.Error != "" {
		flash := sess.flash
		p.Flash = &flash
	}

	value, err := securecookie.EncodeMulti(s.template.Name, p, s.codecs...)
	if err != nil {
		return "", fmt.Errorf("encoding session cookie: %w", err)
	}

	cookie := s.template.ToCookie(value)
	if sess.RefreshTokenExpiry > 0 {
		cookie.Expires = time.UnixMilli(sess.RefreshTokenExpiry).UTC()
	}

	if err := cookie.Valid(); err != nil {
		return "", fmt.Errorf("invalid session cookie: %w", err)
	}

	return cookie.String(), nil
}

// Commit writes the session cookie to the response.
func (s *Store) Commit(w http.ResponseWriter, sess *Session) error {
	header, err := s.CommitSession(sess)
	if err != nil {
		return err
	}

	w.Header().Add("Set-Cookie", header)
	sess.modified = false

	return nil
}

// DestroySession returns a Set-Cookie header value removing the cookie.
func (s *Store) DestroySession() string {
	cookie := s.template.ToCookie("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0).UTC()

	return cookie.String()
}
