package commerce_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/storefront-session/internal/commerce"
	"github.com/openkcm/storefront-session/internal/serviceerr"
	"github.com/openkcm/storefront-session/internal/session"
)

const (
	proxyPath   = "/mobify/proxy/api"
	productsAPI = proxyPath + "/product/shopper-products/v1/organizations/org"
	searchAPI   = proxyPath + "/search/shopper-search/v1/organizations/org"
	basketsAPI  = proxyPath + "/checkout/shopper-baskets/v1/organizations/org"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	auth   string
	body   []byte
}

func newServer(t *testing.T, status int, response any) (*commerce.Factory, *recorded) {
	t.Helper()

	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.Query()
		rec.auth = r.Header.Get("Authorization")
		rec.body, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if response != nil {
			_ = json.NewEncoder(w).Encode(response)
		}
	}))
	t.Cleanup(srv.Close)

	factory := commerce.NewFactory(commerce.Config{
		OrganizationID: "org",
		SiteID:         "RefArch",
		Locale:         "en-US",
		Currency:       "EUR",
		Proxy:          srv.URL + proxyPath,
	}, srv.Client())

	return factory, rec
}

func shopper() *session.Session {
	s := session.New()
	s.SetTokens("access-token", time.Now().Add(time.Hour).UnixMilli(), "", 0)
	return s
}

func TestProductsClient(t *testing.T) {
	t.Run("get category", func(t *testing.T) {
		factory, rec := newServer(t, http.StatusOK, commerce.Category{ID: "root", Categories: []commerce.Category{{ID: "mens"}}})

		category, err := factory.Products(shopper()).GetCategory(t.Context(), "root", 2)
		require.NoError(t, err)

		assert.Equal(t, "root", category.ID)
		assert.Len(t, category.Categories, 1)
		assert.Equal(t, http.MethodGet, rec.method)
		assert.Equal(t, productsAPI+"/categories/root", rec.path)
		assert.Equal(t, "2", rec.query.Get("levels"))
		assert.Equal(t, "RefArch", rec.query.Get("siteId"))
		assert.Equal(t, "en-US", rec.query.Get("locale"))
		assert.Equal(t, "Bearer access-token", rec.auth)
	})

	t.Run("get product", func(t *testing.T) {
		factory, rec := newServer(t, http.StatusOK, commerce.Product{ID: "p1", Name: "Shirt"})

		product, err := factory.Products(shopper()).GetProduct(t.Context(), "p1", commerce.ProductParams{
			Expand:    []string{"images", "prices"},
			AllImages: true,
		})
		require.NoError(t, err)

		assert.Equal(t, "Shirt", product.Name)
		assert.Equal(t, productsAPI+"/products/p1", rec.path)
		assert.Equal(t, "images,prices", rec.query.Get("expand"))
		assert.Equal(t, "true", rec.query.Get("allImages"))
		assert.False(t, rec.query.Has("perPricebook"))
	})

	t.Run("get products", func(t *testing.T) {
		factory, rec := newServer(t, http.StatusOK, commerce.ProductResult{Data: []commerce.Product{{ID: "a"}, {ID: "b"}}})

		result, err := factory.Products(shopper()).GetProducts(t.Context(), []string{"a", "b"}, commerce.ProductParams{})
		require.NoError(t, err)

		assert.Len(t, result.Data, 2)
		assert.Equal(t, productsAPI+"/products", rec.path)
		assert.Equal(t, "a,b", rec.query.Get("ids"))
	})

	t.Run("get products without ids", func(t *testing.T) {
		factory, rec := newServer(t, http.StatusOK, nil)

		result, err := factory.Products(shopper()).GetProducts(t.Context(), nil, commerce.ProductParams{})
		require.NoError(t, err)

		assert.Empty(t, result.Data)
		assert.Empty(t, rec.method, "No request expected")
	})
}

func TestResourceError(t *testing.T) {
	factory, _ := newServer(t, http.StatusNotFound, map[string]string{"title": "Not Found"})

	_, err := factory.Products(shopper()).GetProduct(t.Context(), "missing", commerce.ProductParams{})

	var resErr *serviceerr.ResourceError
	require.ErrorAs(t, err, &resErr)
	assert.ErrorIs(t, err, serviceerr.ErrResource)
	assert.Equal(t, "getProduct", resErr.Operation)
	assert.Equal(t, http.StatusNotFound, resErr.StatusCode)
}

func TestSearchParams_Refinements(t *testing.T) {
	tests := []struct {
		name   string
		params commerce.SearchParams
		want   []string
	}{
		{
			name:   "none",
			params: commerce.SearchParams{},
			want:   nil,
		},
		{
			name: "category and filters",
			params: commerce.SearchParams{
				CategoryID: "mens",
				Filters: map[string][]string{
					"c_refinementColor": {"Blue", "Red"},
					"brand":             {"Acme"},
				},
			},
			want: []string{"cgid=mens", "brand=Acme", "c_refinementColor=Blue", "c_refinementColor=Red"},
		},
		{
			name: "duplicates are dropped",
			params: commerce.SearchParams{
				CategoryID: "mens",
				Refine:     []string{"cgid=mens", "price=(0..50)"},
				Filters:    map[string][]string{"price": {"(0..50)"}},
			},
			want: []string{"cgid=mens", "price=(0..50)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.Refinements())
		})
	}
}

func TestSearchClient_ProductSearch(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		factory, rec := newServer(t, http.StatusOK, commerce.ProductSearchResult{Total: 1, Hits: []commerce.ProductSearchHit{{ProductID: "p1"}}})

		result, err := factory.Search(shopper()).ProductSearch(t.Context(), commerce.SearchParams{CategoryID: "mens"})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Total)
		assert.Equal(t, searchAPI+"/product-search", rec.path)
		assert.Equal(t, "best-matches", rec.query.Get("sort"))
		assert.Equal(t, "24", rec.query.Get("limit"))
		assert.Equal(t, "0", rec.query.Get("offset"))
		assert.Equal(t, "EUR", rec.query.Get("currency"), "The configured currency is the default")
		assert.Equal(t, "promotions,variations,prices,images,page_meta_tags,custom_properties", rec.query.Get("expand"))
		assert.Equal(t, "true", rec.query.Get("allImages"))
		assert.Equal(t, "true", rec.query.Get("allVariationProperties"))
		assert.Equal(t, "true", rec.query.Get("perPricebook"))
		assert.Equal(t, []string{"cgid=mens"}, rec.query["refine"])
		assert.True(t, rec.query.Has("q"))
	})

	t.Run("paging and overrides", func(t *testing.T) {
		factory, rec := newServer(t, http.StatusOK, commerce.ProductSearchResult{})
		off := false

		_, err := factory.Search(shopper()).ProductSearch(t.Context(), commerce.SearchParams{
			Query:     "shirt",
			Sort:      "price-low-to-high",
			Limit:     10,
			Page:      3,
			Currency:  "GBP",
			AllImages: &off,
			Select:    "(hits.(productId))",
		})
		require.NoError(t, err)

		assert.Equal(t, "shirt", rec.query.Get("q"))
		assert.Equal(t, "price-low-to-high", rec.query.Get("sort"))
		assert.Equal(t, "10", rec.query.Get("limit"))
		assert.Equal(t, "30", rec.query.Get("offset"))
		assert.Equal(t, "GBP", rec.query.Get("currency"))
		assert.Equal(t, "false", rec.query.Get("allImages"))
		assert.Equal(t, "(hits.(productId))", rec.query.Get("select"))
		assert.False(t, rec.query.Has("refine"))
	})
}

func TestBasketsClient(t *testing.T) {
	basket := commerce.Basket{BasketID: "b1", ProductItems: []commerce.ProductItem{{ItemID: "i1", ProductID: "p1", Quantity: 1}}}

	tests := []struct {
		name       string
		call       func(ctx context.Context, c *commerce.BasketsClient) (commerce.Basket, error)
		wantMethod string
		wantPath   string
		wantBody   string
	}{
		{
			name: "create",
			call: func(ctx context.Context, c *commerce.BasketsClient) (commerce.Basket, error) {
				return c.CreateBasket(ctx)
			},
			wantMethod: http.MethodPost,
			wantPath:   basketsAPI + "/baskets",
			wantBody:   `{}`,
		},
		{
			name: "get",
			call: func(ctx context.Context, c *commerce.BasketsClient) (commerce.Basket, error) {
				return c.GetBasket(ctx, "b1")
			},
			wantMethod: http.MethodGet,
			wantPath:   basketsAPI + "/baskets/b1",
		},
		{
			name: "add item",
			call: func(ctx context.Context, c *commerce.BasketsClient) (commerce.Basket, error) {
				return c.AddItemToBasket(ctx, "b1", []commerce.ItemInput{{ProductID: "p1", Quantity: 2}})
			},
			wantMethod: http.MethodPost,
			wantPath:   basketsAPI + "/baskets/b1/items",
			wantBody:   `[{"productId":"p1","quantity":2}]`,
		},
		{
			name: "update item",
			call: func(ctx context.Context, c *commerce.BasketsClient) (commerce.Basket, error) {
				return c.UpdateItemInBasket(ctx, "b1", "i1", commerce.ItemInput{Quantity: 3})
			},
			wantMethod: http.MethodPatch,
			wantPath:   basketsAPI + "/baskets/b1/items/i1",
			wantBody:   `{"quantity":3}`,
		},
		{
			name: "remove item",
			call: func(ctx context.Context, c *commerce.BasketsClient) (commerce.Basket, error) {
				return c.RemoveItemFromBasket(ctx, "b1", "i1")
			},
			wantMethod: http.MethodDelete,
			wantPath:   basketsAPI + "/baskets/b1/items/i1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory, rec := newServer(t, http.StatusOK, basket)

			got, err := tt.call(t.Context(), factory.Baskets(shopper()))
			require.NoError(t, err)

			assert.Equal(t, "b1", got.BasketID)
			assert.Equal(t, tt.wantMethod, rec.method)
			assert.Equal(t, tt.wantPath, rec.path)
			assert.Equal(t, "Bearer access-token", rec.auth)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, string(rec.body))
			} else {
				assert.Empty(t, rec.body)
			}
		})
	}
}

type fakeProducts struct {
	ids    []string
	result commerce.ProductResult
	err    error
}

func (f *fakeProducts) GetProducts(_ context.Context, ids []string, _ commerce.ProductParams) (commerce.ProductResult, error) {
	f.ids = ids
	return f.result, f.err
}

func TestProductsByItemID(t *testing.T) {
	basket := commerce.Basket{
		BasketID: "b1",
		ProductItems: []commerce.ProductItem{
			{ItemID: "i1", ProductID: "p1"},
			{ItemID: "i2", ProductID: "p2"},
			{ItemID: "i3", ProductID: "p1"},
			{ItemID: "i4", ProductID: "unknown"},
		},
	}

	t.Run("maps items to products", func(t *testing.T) {
		products := &fakeProducts{result: commerce.ProductResult{Data: []commerce.Product{{ID: "p1"}, {ID: "p2"}}}}

		got := commerce.ProductsByItemID(t.Context(), products, basket)

		assert.Equal(t, []string{"p1", "p2", "unknown"}, products.ids, "Product ids must be de-duplicated")
		assert.Equal(t, map[string]commerce.Product{
			"i1": {ID: "p1"},
			"i2": {ID: "p2"},
			"i3": {ID: "p1"},
		}, got)
	})

	t.Run("empty basket", func(t *testing.T) {
		products := &fakeProducts{}
		assert.Nil(t, commerce.ProductsByItemID(t.Context(), products, commerce.Basket{}))
		assert.Nil(t, products.ids, "No lookup expected")
	})

	t.Run("lookup fails", func(t *testing.T) {
		products := &fakeProducts{err: errors.New("boom")}
		assert.Nil(t, commerce.ProductsByItemID(t.Context(), products, basket))
	})
}

type countingCategories struct {
	calls atomic.Int32
	err   error
}

func (c *countingCategories) GetCategory(_ context.Context, id string, _ int) (commerce.Category, error) {
	c.calls.Add(1)
	if c.err != nil {
		return commerce.Category{}, c.err
	}
	return commerce.Category{ID: id}, nil
}

func TestCategoryCache(t *testing.T) {
	c := commerce.NewCategoryCache(time.Minute)
	getter := &countingCategories{}

	for range 3 {
		category, err := c.Get(t.Context(), getter, "root", 2)
		require.NoError(t, err)
		assert.Equal(t, "root", category.ID)
	}
	assert.Equal(t, int32(1), getter.calls.Load(), "Expected a single lookup")

	_, err := c.Get(t.Context(), getter, "root", 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), getter.calls.Load(), "Levels are part of the key")

	failing := &countingCategories{err: errors.New("boom")}
	_, err = c.Get(t.Context(), failing, "other", 2)
	require.Error(t, err)
	_, err = c.Get(t.Context(), failing, "other", 2)
	require.Error(t, err)
	assert.Equal(t, int32(2), failing.calls.Load(), "Failures must not be cached")
}
