package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/storefront-session/internal/commerce"
	"github.com/openkcm/storefront-session/internal/serviceerr"
	"github.com/openkcm/storefront-session/internal/session"
)

var productExpand = []string{
	"availability",
	"images",
	"prices",
	"promotions",
	"variations",
	"set_products",
	"bundled_products",
}

// searchKeys are the query parameters that are not filters.
var searchKeys = map[string]struct{}{
	"q":          {},
	"categoryId": {},
	"sort":       {},
	"limit":      {},
	"page":       {},
	"refine":     {},
	"currency":   {},
}

type categoryResponse struct {
	Category *commerce.Category `json:"category"`
}

// getCategory degrades to 404 when the navigation category cannot be loaded.
func (rt *routes) getCategory(r *http.Request, sess *session.Session) (int, any, error) {
	ctx := r.Context()
	id := r.PathValue("categoryId")

	category, err := rt.Categories.Get(ctx, rt.Commerce.Products(sess), id, navigationLevels)
	if err != nil {
		slogctx.Warn(ctx, "Failed to load category", "categoryId", id, "error", err)
		return http.StatusNotFound, errorBody{Error: "no category"}, nil
	}

	return http.StatusOK, categoryResponse{Category: &category}, nil
}

func (rt *routes) getProduct(r *http.Request, sess *session.Session) (int, any, error) {
	product, err := rt.Commerce.Products(sess).GetProduct(r.Context(), r.PathValue("productId"), commerce.ProductParams{
		Expand:       productExpand,
		AllImages:    true,
		PerPricebook: true,
	})
	if err != nil {
		return 0, nil, err
	}

	return http.StatusOK, product, nil
}

func (rt *routes) productSearch(r *http.Request, sess *session.Session) (int, any, error) {
	params, err := searchParams(r.URL.Query())
	if err != nil {
		return 0, nil, err
	}

	result, err := rt.Commerce.Search(sess).ProductSearch(r.Context(), params)
	if err != nil {
		return 0, nil, err
	}

	return http.StatusOK, result, nil
}

func searchParams(q url.Values) (commerce.SearchParams, error) {
	params := commerce.SearchParams{
		Query:      q.Get("q"),
		CategoryID: q.Get("categoryId"),
		Sort:       q.Get("sort"),
		Refine:     q["refine"],
		Currency:   q.Get("currency"),
	}

	var err error
	if params.Limit, err = intParam(q, "limit"); err != nil {
		return commerce.SearchParams{}, err
	}
	if params.Page, err = intParam(q, "page"); err != nil {
		return commerce.SearchParams{}, err
	}

	for k, v := range q {
		if _, ok := searchKeys[k]; ok {
			continue
		}
		if params.Filters == nil {
			params.Filters = map[string][]string{}
		}
		params.Filters[k] = v
	}

	return params, nil
}

func intParam(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, badRequestError{msg: "invalid " + key}
	}
	return v, nil
}

type basketResponse struct {
	Basket           *commerce.Basket            `json:"basket"`
	ProductsByItemID map[string]commerce.Product `json:"productsByItemId,omitempty"`
}

// getBasket returns the shopper's basket. A basket that no longer exists is
// dropped from the session.
func (rt *routes) getBasket(r *http.Request, sess *session.Session) (int, any, error) {
	ctx := r.Context()
	if sess.BasketID == "" {
		return http.StatusOK, basketResponse{}, nil
	}

	basket, err := rt.Commerce.Baskets(sess).GetBasket(ctx, sess.BasketID)
	var resErr *serviceerr.ResourceError
	if errors.As(err, &resErr) && resErr.StatusCode == http.StatusNotFound {
		slogctx.Info(ctx, "Dropping unknown basket from session", "basketId", sess.BasketID)
		sess.SetBasketID("")
		return http.StatusOK, basketResponse{}, nil
	}
	if err != nil {
		return 0, nil, err
	}

	return http.StatusOK, basketResponse{
		Basket:           &basket,
		ProductsByItemID: commerce.ProductsByItemID(ctx, rt.Commerce.Products(sess), basket),
	}, nil
}

// addItemToBasket adds the posted items, creating the basket on first use.
func (rt *routes) addItemToBasket(r *http.Request, sess *session.Session) (int, any, error) {
	ctx := r.Context()

	var items []commerce.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		return 0, nil, badRequestError{msg: "invalid items"}
	}
	if len(items) == 0 {
		return 0, nil, badRequestError{msg: "no items"}
	}
	for _, item := range items {
		if item.ProductID == "" || item.Quantity <= 0 {
			return 0, nil, badRequestError{msg: "items need a productId and a positive quantity"}
		}
	}

	baskets := rt.Commerce.Baskets(sess)
	if sess.BasketID == "" {
		basket, err := baskets.CreateBasket(ctx)
		if err != nil {
			return 0, nil, err
		}
		sess.SetBasketID(basket.BasketID)
		slogctx.Info(ctx, "Created a basket", "basketId", basket.BasketID)
	}

	basket, err := baskets.AddItemToBasket(ctx, sess.BasketID, items)
	if err != nil {
		return 0, nil, err
	}

	return http.StatusOK, basketResponse{Basket: &basket}, nil
}

func (rt *routes) updateItemInBasket(r *http.Request, sess *session.Session) (int, any, error) {
	if sess.BasketID == "" {
		return 0, nil, badRequestError{msg: "no basket"}
	}

	var item commerce.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil || item.Quantity < 0 {
		return 0, nil, badRequestError{msg: "invalid item"}
	}

	baskets := rt.Commerce.Baskets(sess)
	itemID := r.PathValue("itemId")

	var (
		basket commerce.Basket
		err    error
	)
	if item.Quantity == 0 {
		basket, err = baskets.RemoveItemFromBasket(r.Context(), sess.BasketID, itemID)
	} else {
		basket, err = baskets.UpdateItemInBasket(r.Context(), sess.BasketID, itemID, item)
	}
	if err != nil {
		return 0, nil, err
	}

	return http.StatusOK, basketResponse{Basket: &basket}, nil
}

func (rt *routes) removeItemFromBasket(r *http.Request, sess *session.Session) (int, any, error) {
	if sess.BasketID == "" {
		return 0, nil, badRequestError{msg: "no basket"}
	}

	basket, err := rt.Commerce.Baskets(sess).RemoveItemFromBasket(r.Context(), sess.BasketID, r.PathValue("itemId"))
	if err != nil {
		return 0, nil, err
	}

	return http.StatusOK, basketResponse{Basket: &basket}, nil
}

// logout revokes the shopper's tokens and removes the session cookie. A
// failed revocation still logs the shopper out locally.
func (rt *routes) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := rt.Tokens.Logout(ctx, r); err != nil {
		slogctx.Warn(ctx, "Failed to revoke the shopper's tokens", "error", err)
	}

	w.Header().Add("Set-Cookie", rt.Sessions.DestroySession())
	w.WriteHeader(http.StatusNoContent)
}
