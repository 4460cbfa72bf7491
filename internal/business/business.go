package business

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/storefront-session/internal/business/server"
	"github.com/openkcm/storefront-session/internal/commerce"
	"github.com/openkcm/storefront-session/internal/config"
	"github.com/openkcm/storefront-session/internal/session"
	"github.com/openkcm/storefront-session/internal/slas"
	"github.com/openkcm/storefront-session/internal/token"
)

// Main starts the storefront API server
func Main(ctx context.Context, cfg *config.Config) error {
	services, err := initServices(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialising the services: %w", err)
	}

	slogctx.Info(ctx, "Starting the storefront API",
		"organizationID", cfg.Commerce.OrganizationID,
		"siteID", cfg.Commerce.SiteID,
		"privateClient", cfg.Commerce.PrivateClient,
	)

	return server.StartHTTPServer(ctx, cfg, services)
}

func initServices(ctx context.Context, cfg *config.Config) (server.Services, error) {
	secrets := make([][]byte, 0, len(cfg.Session.Secrets))
	for i, ref := range cfg.Session.Secrets {
		secret, err := commoncfg.LoadValueFromSourceRef(ref)
		if err != nil {
			return server.Services{}, fmt.Errorf("loading session secret %d: %w", i, err)
		}
		secrets = append(secrets, secret)
	}

	store, err := session.NewStore(ctx, cfg.Session.Cookie, secrets...)
	if err != nil {
		return server.Services{}, fmt.Errorf("creating session store: %w", err)
	}

	var clientSecret string
	if cfg.Commerce.PrivateClient {
		secret, err := commoncfg.LoadValueFromSourceRef(cfg.Commerce.ClientSecret)
		if err != nil {
			return server.Services{}, fmt.Errorf("loading client secret: %w", err)
		}
		clientSecret = string(secret)
	}

	httpClient, err := loadHTTPClient(cfg)
	if err != nil {
		return server.Services{}, fmt.Errorf("loading http client: %w", err)
	}

	oauthClient := slas.NewClient(slasConfig(cfg), slas.WithHTTPClient(httpClient))

	tokens, err := token.NewManager(token.Config{
		RedirectURI:             cfg.Commerce.RedirectURI(),
		PrivateClient:           cfg.Commerce.PrivateClient,
		ClientSecret:            clientSecret,
		AccessTokenExpiryRatio:  cfg.TokenLifecycle.AccessTokenExpiryRatio,
		RefreshTokenExpiryRatio: cfg.TokenLifecycle.RefreshTokenExpiryRatio,
	}, oauthClient, store)
	if err != nil {
		return server.Services{}, fmt.Errorf("creating token manager: %w", err)
	}

	return server.Services{
		Tokens:     tokens,
		Sessions:   store,
		Commerce:   commerce.NewFactory(commerceConfig(cfg), httpClient),
		Categories: commerce.NewCategoryCache(cfg.Catalog.CategoryCacheTTL),
	}, nil
}

func slasConfig(cfg *config.Config) slas.Config {
	var headers http.Header
	if len(cfg.Outbound.Headers) > 0 {
		headers = http.Header{}
		for k, v := range cfg.Outbound.Headers {
			headers.Set(k, v)
		}
	}

	return slas.Config{
		ClientID:       cfg.Commerce.ClientID,
		OrganizationID: cfg.Commerce.OrganizationID,
		SiteID:         cfg.Commerce.SiteID,
		ShortCode:      cfg.Commerce.ShortCode,
		Proxy:          cfg.Commerce.Proxy(),
		BaseURI:        cfg.Commerce.BaseURI,
		Headers:        headers,
	}
}

func commerceConfig(cfg *config.Config) commerce.Config {
	return commerce.Config{
		OrganizationID: cfg.Commerce.OrganizationID,
		SiteID:         cfg.Commerce.SiteID,
		ShortCode:      cfg.Commerce.ShortCode,
		Locale:         cfg.Commerce.Locale,
		Currency:       cfg.Commerce.Currency,
		Proxy:          cfg.Commerce.Proxy(),
		BaseURI:        cfg.Commerce.BaseURI,
	}
}

// loadHTTPClient builds the instrumented outbound client shared by the
// identity provider and the resource APIs.
func loadHTTPClient(cfg *config.Config) (*http.Client, error) {
	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("unexpected default transport %T", http.DefaultTransport)
	}
	transport = transport.Clone()

	if cfg.Outbound.MTLS != nil {
		tlsConfig, err := commoncfg.LoadMTLSConfig(cfg.Outbound.MTLS)
		if err != nil {
			return nil, fmt.Errorf("loading mTLS config: %w", err)
		}
		transport.TLSClientConfig = tlsConfig
	}

	return &http.Client{
		Timeout:   cfg.Outbound.Timeout,
		Transport: otelhttp.NewTransport(transport),
	}, nil
}
