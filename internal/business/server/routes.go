package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/storefront-session/internal/commerce"
	"github.com/openkcm/storefront-session/internal/config"
	"github.com/openkcm/storefront-session/internal/serviceerr"
	"github.com/openkcm/storefront-session/internal/session"
	"github.com/openkcm/storefront-session/internal/token"
)

const navigationLevels = 2

type TokenManager interface {
	GetCommerceAPIToken(ctx context.Context, r *http.Request) (token.Result, error)
	Logout(ctx context.Context, r *http.Request) (*session.Session, error)
}

type SessionDestroyer interface {
	DestroySession() string
}

// Services are the dependencies of the storefront routes.
type Services struct {
	Tokens     TokenManager
	Sessions   SessionDestroyer
	Commerce   *commerce.Factory
	Categories *commerce.CategoryCache
}

type routes struct {
	cfg *config.Config
	Services
}

func newRoutes(cfg *config.Config, services Services) *routes {
	return &routes{cfg: cfg, Services: services}
}

func (rt *routes) register(mux *http.ServeMux) {
	rt.handle(mux, "GET /api/categories/{categoryId}", "getCategory", rt.withSession(rt.getCategory))
	rt.handle(mux, "GET /api/products/{productId}", "getProduct", rt.withSession(rt.getProduct))
	rt.handle(mux, "GET /api/search", "productSearch", rt.withSession(rt.productSearch))
	rt.handle(mux, "GET /api/basket", "getBasket", rt.withSession(rt.getBasket))
	rt.handle(mux, "POST /api/basket/items", "addItemToBasket", rt.withSession(rt.addItemToBasket))
	rt.handle(mux, "PATCH /api/basket/items/{itemId}", "updateItemInBasket", rt.withSession(rt.updateItemInBasket))
	rt.handle(mux, "DELETE /api/basket/items/{itemId}", "removeItemFromBasket", rt.withSession(rt.removeItemFromBasket))
	rt.handle(mux, "POST /api/logout", "logout", http.HandlerFunc(rt.logout))
}

func (rt *routes) handle(mux *http.ServeMux, pattern, operationID string, h http.Handler) {
	mux.Handle(pattern, newTraceMiddleware(rt.cfg, operationID)(h))
}

// shopperHandler serves a request on behalf of a shopper with a usable
// session. Handlers may modify the session; it is committed before the
// response is written.
type shopperHandler func(r *http.Request, sess *session.Session) (int, any, error)

func (rt *routes) withSession(h shopperHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		res, err := rt.Tokens.GetCommerceAPIToken(ctx, r)
		if err != nil {
			slogctx.Error(ctx, "Failed to obtain a shopper session", "error", err)
			writeError(w, http.StatusInternalServerError, "session unavailable")
			return
		}
		ctx = slogctx.With(ctx, "tokenStatus", string(res.Status))
		r = r.WithContext(ctx)

		status, body, err := h(r, res.Session)

		// tokens obtained for this request are kept even if the handler failed
		if commitErr := res.Commit(w); commitErr != nil {
			slogctx.Error(ctx, "Failed to commit the session", "error", commitErr)
			writeError(w, http.StatusInternalServerError, "session unavailable")
			return
		}

		if err != nil {
			status, msg := errorStatus(err)
			slogctx.Warn(ctx, "Request failed", "status", status, "error", err)
			writeError(w, status, msg)
			return
		}

		writeJSON(ctx, w, status, body)
	})
}

// badRequestError is returned by handlers for invalid input.
type badRequestError struct {
	msg string
}

func (e badRequestError) Error() string {
	return e.msg
}

func errorStatus(err error) (int, string) {
	var badRequest badRequestError
	if errors.As(err, &badRequest) {
		return http.StatusBadRequest, badRequest.msg
	}

	var resErr *serviceerr.ResourceError
	if errors.As(err, &resErr) {
		switch {
		case resErr.StatusCode == http.StatusNotFound:
			return http.StatusNotFound, "not found"
		case resErr.StatusCode >= 400 && resErr.StatusCode < 500:
			return http.StatusBadRequest, "request rejected"
		default:
			return http.StatusBadGateway, "upstream unavailable"
		}
	}

	return http.StatusInternalServerError, "internal error"
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	if body == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slogctx.Error(ctx, "Failed to write the response", "error", err)
	}
}
