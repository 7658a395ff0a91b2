// Package psclient provides the main entry point for creating preservation
// repository API clients.
package psclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/preservio/papi/internal/auth"
	"github.com/preservio/papi/internal/client"
	"github.com/preservio/papi/internal/constants"
	internalhttp "github.com/preservio/papi/internal/http"
	"github.com/preservio/papi/pkg/papi"
)

// New creates a preservation repository API client from the given config.
// Credentials come either from Username/Password directly or from a
// CredentialProvider plus SecretName.
func New(ctx context.Context, config *papi.Config) (papi.Client, error) {
	if config == nil {
		return nil, papi.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, papi.ErrAPIEndpointRequired
	}

	apiEndpoint := normalizeEndpoint(config.APIEndpoint)
	config.APIEndpoint = apiEndpoint

	provider, secretName, err := resolveProvider(config)
	if err != nil {
		return nil, err
	}

	credentialCache, tokenCache, err := buildCaches(config)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewCachingTokenManager(&auth.Config{
		LoginURL:   apiEndpoint + constants.LoginPath,
		Provider:   provider,
		SecretName: secretName,
		TokenTTL:   config.TokenTTL,
		Logger:     config.Logger,
	}, credentialCache, tokenCache)

	httpClient := internalhttp.NewClient(apiEndpoint, tokens, httpOptions(config)...)

	// Fail fast on bad credentials rather than on the first API call.
	_, err = tokens.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticating: %w", err)
	}

	return client.New(httpClient, tokens, config.Logger), nil
}

// NewWithPassword creates a client using direct username/password
// authentication.
func NewWithPassword(ctx context.Context, endpoint, username, password string) (papi.Client, error) {
	return New(ctx, &papi.Config{
		APIEndpoint: endpoint,
		Username:    username,
		Password:    password,
	})
}

// NewWithProvider creates a client that fetches credentials from the given
// provider by secret name.
func NewWithProvider(ctx context.Context, endpoint string, provider papi.CredentialProvider, secretName string) (papi.Client, error) {
	return New(ctx, &papi.Config{
		APIEndpoint:        endpoint,
		CredentialProvider: provider,
		SecretName:         secretName,
	})
}

// normalizeEndpoint trims a trailing slash and defaults to https when no
// scheme is present.
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(endpoint, "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}

// resolveProvider selects the credential source: an explicit provider wins,
// otherwise direct username/password is wrapped in a static provider.
func resolveProvider(config *papi.Config) (papi.CredentialProvider, string, error) {
	if config.CredentialProvider != nil {
		return config.CredentialProvider, config.SecretName, nil
	}

	if config.Username == "" || config.Password == "" {
		return nil, "", papi.ErrCredentialsRequired
	}

	return auth.NewStaticCredentialProvider(config.Username, config.Password), "static", nil
}

// buildCaches creates the two independent cache backends. The credential
// cache and the token cache never share entries, so an invalidation of one
// cannot leave the other serving stale data unnoticed.
func buildCaches(config *papi.Config) (papi.Cache, papi.Cache, error) {
	cacheConfig := config.Cache
	if cacheConfig == nil {
		cacheConfig = papi.DefaultCacheConfig()
	}

	credentialCache, err := papi.NewCacheFromConfig(cacheConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("building credential cache: %w", err)
	}

	tokenCache, err := papi.NewCacheFromConfig(cacheConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("building token cache: %w", err)
	}

	return credentialCache, tokenCache, nil
}

func httpOptions(config *papi.Config) []internalhttp.Option {
	var opts []internalhttp.Option

	if config.Logger != nil {
		opts = append(opts, internalhttp.WithLogger(config.Logger))
	}

	if config.Debug {
		opts = append(opts, internalhttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		opts = append(opts, internalhttp.WithUserAgent(config.UserAgent))
	}

	if config.RetryMax > 0 || config.RetryWaitMin > 0 || config.RetryWaitMax > 0 {
		retryMax := config.RetryMax
		if retryMax <= 0 {
			retryMax = constants.DefaultRetryMax
		}

		waitMin := config.RetryWaitMin
		if waitMin <= 0 {
			waitMin = constants.DefaultRetryWaitMin
		}

		waitMax := config.RetryWaitMax
		if waitMax <= 0 {
			waitMax = constants.DefaultRetryWaitMax
		}

		opts = append(opts, internalhttp.WithRetryConfig(retryMax, waitMin, waitMax))
	}

	if config.HTTPTimeout > 0 {
		opts = append(opts, internalhttp.WithHTTPTimeout(config.HTTPTimeout))
	}

	return opts
}
