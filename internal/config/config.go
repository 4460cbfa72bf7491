// Package config defines the necessary types to configure the application.
// An example config file config.yaml is provided in the repository.
package config

import (
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash" yaml:",inline"`

	HTTP HTTPServer `yaml:"http"`

	Commerce       Commerce       `yaml:"commerce"`
	Session        Session        `yaml:"session"`
	TokenLifecycle TokenLifecycle `yaml:"tokenLifecycle"`
	Catalog        Catalog        `yaml:"catalog"`
	Outbound       Outbound       `yaml:"outbound"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" default:":8080" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"5s" validate:"gte=0"`
}

// Commerce holds the identifiers of the commerce platform tenant and the
// public URLs the storefront is reachable under.
type Commerce struct {
	ClientID       string `yaml:"clientID" validate:"required"`
	OrganizationID string `yaml:"organizationID" validate:"required"`
	ShortCode      string `yaml:"shortCode"`
	SiteID         string `yaml:"siteID" validate:"required"`
	Locale         string `yaml:"locale" default:"en-US"`
	Currency       string `yaml:"currency" default:"USD" validate:"omitempty,len=3"`

	// APIURL is the public origin of the storefront, e.g. https://shop.example.com.
	APIURL       string `yaml:"apiURL" validate:"omitempty,url"`
	ProxyPath    string `yaml:"proxyPath" default:"/mobify/proxy/api"`
	CallbackPath string `yaml:"callbackPath" default:"/callback"`
	// BaseURI overrides the short code host when no proxy is configured.
	BaseURI string `yaml:"baseURI" validate:"omitempty,url"`

	// PrivateClient switches guest login to the client_credentials grant.
	PrivateClient bool                `yaml:"privateClient"`
	ClientSecret  commoncfg.SourceRef `yaml:"clientSecret"`
}

// Proxy returns the reverse proxy base URL the resource APIs are called through.
func (c Commerce) Proxy() string {
	if c.APIURL == "" {
		return ""
	}
	return c.APIURL + c.ProxyPath
}

// RedirectURI returns the OAuth callback URL.
func (c Commerce) RedirectURI() string {
	return c.APIURL + c.CallbackPath
}

type Session struct {
	Cookie CookieTemplate `yaml:"cookie"`
	// Secrets are tried in order when decoding; the first one encodes.
	Secrets []commoncfg.SourceRef `yaml:"secrets"`
}

type TokenLifecycle struct {
	AccessTokenExpiryRatio  float64 `yaml:"accessTokenExpiryRatio" default:"0.95" validate:"gt=0,lte=1"`
	RefreshTokenExpiryRatio float64 `yaml:"refreshTokenExpiryRatio" default:"0.99" validate:"gt=0,lte=1"`
}

type Catalog struct {
	CategoryCacheTTL time.Duration `yaml:"categoryCacheTTL" default:"5m" validate:"gt=0"`
}

// Outbound configures the http client used for the identity provider and
// the resource APIs.
type Outbound struct {
	Timeout time.Duration `yaml:"timeout" default:"10s" validate:"gte=0"`
	// MTLS is optional; without it the system roots are used.
	MTLS *commoncfg.MTLS `yaml:"mtls"`
	// Headers are added to every identity provider request.
	Headers map[string]string `yaml:"headers"`
}
