// Package requestkey assigns every incoming *http.Request a unique key and
// puts it into the context so work can be de-duplicated per request.
package requestkey

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

// Using an unexported type prevents key collisions from other packages.
type requestKey string

// RequestKey is the context key for the request key.
const RequestKey requestKey = "request-key"

// Middleware is an http.Handler middleware that injects a fresh request key
// into the context and the logger.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := uuid.NewString()
		ctx := context.WithValue(r.Context(), RequestKey, key)
		ctx = slogctx.With(ctx, commoncfg.AttrRequestID, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext retrieves the request key from the context.
func FromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(RequestKey).(string)
	return key, ok && key != ""
}

// FromRequest returns the request key. Requests that did not pass the
// middleware are keyed by their identity.
func FromRequest(r *http.Request) string {
	if key, ok := FromContext(r.Context()); ok {
		return key
	}
	return fmt.Sprintf("%p", r)
}
