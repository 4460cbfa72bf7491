// Package commerce builds authenticated clients for the shopper resource
// APIs: products, search and baskets.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/openkcm/storefront-session/internal/serviceerr"
	"github.com/openkcm/storefront-session/internal/session"
)

type Config struct {
	OrganizationID string
	SiteID         string
	ShortCode      string
	Locale         string
	Currency       string
	// Proxy takes precedence over BaseURI and the short code host.
	Proxy   string
	BaseURI string
}

func (c Config) baseURL() string {
	switch {
	case c.Proxy != "":
		return c.Proxy
	case c.BaseURI != "":
		return c.BaseURI
	default:
		return "https://" + c.ShortCode + ".api.commercecloud.salesforce.com"
	}
}

// Factory creates short-lived resource clients bound to a session's access
// token. It is safe for concurrent use.
type Factory struct {
	cfg  Config
	base *http.Client
}

func NewFactory(cfg Config, base *http.Client) *Factory {
	if base == nil {
		base = http.DefaultClient
	}
	return &Factory{cfg: cfg, base: base}
}

func (f *Factory) Products(sess *session.Session) *ProductsClient {
	return &ProductsClient{resource: f.resource(sess, "/product/shopper-products/v1")}
}

func (f *Factory) Search(sess *session.Session) *SearchClient {
	return &SearchClient{resource: f.resource(sess, "/search/shopper-search/v1"), currency: f.cfg.Currency}
}

func (f *Factory) Baskets(sess *session.Session) *BasketsClient {
	return &BasketsClient{resource: f.resource(sess, "/checkout/shopper-baskets/v1")}
}

func (f *Factory) resource(sess *session.Session, api string) resource {
	httpClient := *f.base
	httpClient.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: sess.AccessToken,
			TokenType:   "Bearer",
		}),
		Base: f.base.Transport,
	}

	common := url.Values{}
	common.Set("siteId", f.cfg.SiteID)
	if f.cfg.Locale != "" {
		common.Set("locale", f.cfg.Locale)
	}

	return resource{
		http:    &httpClient,
		baseURL: strings.TrimSuffix(f.cfg.baseURL(), "/") + api + "/organizations/" + url.PathEscape(f.cfg.OrganizationID),
		common:  common,
	}
}

type resource struct {
	http    *http.Client
	baseURL string
	common  url.Values
}

// do calls the API and decodes the JSON answer into out. Non-2xx answers are
// reported as *serviceerr.ResourceError.
func (r resource) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	q := url.Values{}
	for k, v := range r.common {
		q[k] = v
	}
	for k, v := range query {
		q[k] = v
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path+"?"+q.Encode(), reqBody)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("executing %s request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &serviceerr.ResourceError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", op, err)
	}

	return nil
}
