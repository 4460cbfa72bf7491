package commerce

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type ProductsClient struct {
	resource
}

type ProductParams struct {
	Expand       []string
	AllImages    bool
	PerPricebook bool
}

func (p ProductParams) query() url.Values {
	q := url.Values{}
	if len(p.Expand) > 0 {
		q.Set("expand", strings.Join(p.Expand, ","))
	}
	if p.AllImages {
		q.Set("allImages", "true")
	}
	if p.PerPricebook {
		q.Set("perPricebook", "true")
	}
	return q
}

// GetCategory returns the category with its subcategories down to levels.
func (c *ProductsClient) GetCategory(ctx context.Context, id string, levels int) (Category, error) {
	q := url.Values{}
	if levels > 0 {
		q.Set("levels", strconv.Itoa(levels))
	}

	var category Category
	err := c.do(ctx, "getCategory", http.MethodGet, "/categories/"+url.PathEscape(id), q, nil, &category)

	return category, err
}

func (c *ProductsClient) GetProduct(ctx context.Context, id string, params ProductParams) (Product, error) {
	var product Product
	err := c.do(ctx, "getProduct", http.MethodGet, "/products/"+url.PathEscape(id), params.query(), nil, &product)

	return product, err
}

// GetProducts fetches several products in one call. No call is made for an
// empty id list.
func (c *ProductsClient) GetProducts(ctx context.Context, ids []string, params ProductParams) (ProductResult, error) {
	if len(ids) == 0 {
		return ProductResult{}, nil
	}

	q := params.query()
	q.Set("ids", strings.Join(ids, ","))

	var result ProductResult
	err := c.do(ctx, "getProducts", http.MethodGet, "/products", q, nil, &result)

	return result, err
}
