package commerce

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultSort     = "best-matches"
	DefaultLimit    = 24
	DefaultCurrency = "USD"
)

// DefaultSearchExpand is requested when SearchParams.Expand is empty.
var DefaultSearchExpand = []string{
	"promotions",
	"variations",
	"prices",
	"images",
	"page_meta_tags",
	"custom_properties",
}

type SearchClient struct {
	resource

	currency string
}

// SearchParams describes a product listing. Unset booleans default to true.
type SearchParams struct {
	CategoryID string
	Query      string
	// Filters maps attribute ids to the selected values.
	Filters  map[string][]string
	Refine   []string
	Sort     string
	Limit    int
	Page     int
	Expand   []string
	Select   string
	Currency string

	AllImages              *bool
	AllVariationProperties *bool
	PerPricebook           *bool
}

// Refinements returns the de-duplicated refinements in the order: explicit
// refinements, the category, then the filters sorted by attribute id.
func (p SearchParams) Refinements() []string {
	var refinements []string
	seen := map[string]struct{}{}
	add := func(r string) {
		if _, ok := seen[r]; ok {
			return
		}
		seen[r] = struct{}{}
		refinements = append(refinements, r)
	}

	for _, r := range p.Refine {
		add(r)
	}
	if p.CategoryID != "" {
		add("cgid=" + p.CategoryID)
	}

	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		for _, v := range p.Filters[k] {
			add(k + "=" + v)
		}
	}

	return refinements
}

func (p SearchParams) query(defaultCurrency string) url.Values {
	sort := p.Sort
	if sort == "" {
		sort = DefaultSort
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	page := max(p.Page, 0)
	expand := p.Expand
	if len(expand) == 0 {
		expand = DefaultSearchExpand
	}
	currency := p.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	if currency == "" {
		currency = DefaultCurrency
	}

	q := url.Values{}
	q.Set("q", p.Query)
	q.Set("sort", sort)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(page*limit))
	q.Set("expand", strings.Join(expand, ","))
	q.Set("currency", currency)
	q.Set("allImages", strconv.FormatBool(boolOrTrue(p.AllImages)))
	q.Set("allVariationProperties", strconv.FormatBool(boolOrTrue(p.AllVariationProperties)))
	q.Set("perPricebook", strconv.FormatBool(boolOrTrue(p.PerPricebook)))
	if p.Select != "" {
		q.Set("select", p.Select)
	}
	for _, r := range p.Refinements() {
		q.Add("refine", r)
	}

	return q
}

func boolOrTrue(b *bool) bool {
	return b == nil || *b
}

func (c *SearchClient) ProductSearch(ctx context.Context, params SearchParams) (ProductSearchResult, error) {
	var result ProductSearchResult
	err := c.do(ctx, "productSearch", http.MethodGet, "/product-search", params.query(c.currency), nil, &result)

	return result, err
}
