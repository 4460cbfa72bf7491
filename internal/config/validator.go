package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks the application blocks using struct tags and the rules
// spanning several fields.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	blocks := []struct {
		name  string
		value any
	}{
		{"http", c.HTTP},
		{"commerce", c.Commerce},
		{"tokenLifecycle", c.TokenLifecycle},
		{"catalog", c.Catalog},
		{"outbound", c.Outbound},
	}
	for _, b := range blocks {
		if err := v.Struct(b.value); err != nil {
			return fmt.Errorf("%s: %w", b.name, formatValidationErrors(err))
		}
	}

	if c.Commerce.APIURL == "" && c.Commerce.BaseURI == "" && c.Commerce.ShortCode == "" {
		return errors.New("commerce: one of apiURL, baseURI or shortCode is required")
	}
	if c.Commerce.PrivateClient && c.Commerce.ClientSecret.Source == "" {
		return errors.New("commerce: privateClient requires a clientSecret")
	}
	if len(c.Session.Secrets) == 0 {
		return errors.New("session: at least one secret is required")
	}
	if c.Session.Cookie.Name == "" {
		return errors.New("session: cookie name is required")
	}

	return nil
}

func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		if e.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s=%s", e.Field(), e.Tag(), e.Param()))
			continue
		}
		messages = append(messages, fmt.Sprintf("%s is %s", e.Field(), e.Tag()))
	}

	return errors.New(strings.Join(messages, "; "))
}
