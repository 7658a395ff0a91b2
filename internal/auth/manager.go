package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/preservio/papi/internal/constants"
	"github.com/preservio/papi/pkg/papi"
)

const errorBodyLimit = 2048

// Config configures a CachingTokenManager.
type Config struct {
	// LoginURL is the absolute token exchange endpoint.
	LoginURL string

	// Provider supplies credentials by SecretName.
	Provider papi.CredentialProvider

	// SecretName names the secret fetched from the provider.
	SecretName string

	// TokenTTL bounds token reuse. Zero selects the 15 minute default.
	TokenTTL time.Duration

	// HTTPClient performs the login call. Nil selects a client with the
	// short default timeout.
	HTTPClient *http.Client

	// Logger may be nil.
	Logger papi.Logger
}

// CachingTokenManager implements TokenManager over two independent caches:
// one for the raw credential lookup, one for the exchanged access token.
// Each refresh is single-flight per cache key; an authorization failure
// anywhere downstream invalidates both entries at once.
type CachingTokenManager struct {
	loginURL   string
	provider   papi.CredentialProvider
	secretName string
	tokenTTL   time.Duration
	httpClient *http.Client
	logger     papi.Logger

	credentials *papi.CacheManager
	tokens      *papi.CacheManager
}

// NewCachingTokenManager creates a token manager over the two given cache
// backends.
func NewCachingTokenManager(config *Config, credentialCache, tokenCache papi.Cache) *CachingTokenManager {
	ttl := config.TokenTTL
	if ttl <= 0 {
		ttl = constants.DefaultTokenTTL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.ShortHTTPTimeout}
	}

	return &CachingTokenManager{
		loginURL:    config.LoginURL,
		provider:    config.Provider,
		secretName:  config.SecretName,
		tokenTTL:    ttl,
		httpClient:  httpClient,
		logger:      config.Logger,
		credentials: papi.NewCacheManager(credentialCache, config.Logger),
		tokens:      papi.NewCacheManager(tokenCache, config.Logger),
	}
}

// GetToken returns the cached token when valid; otherwise it fetches
// credentials, exchanges them for a fresh token and caches the result.
// Concurrent callers during a refresh share a single login call.
func (m *CachingTokenManager) GetToken(ctx context.Context) (string, error) {
	data, err := m.tokens.GetOrCompute(ctx, constants.TokenCacheKey, m.tokenTTL, func(ctx context.Context) ([]byte, error) {
		credentials, err := m.GetCredentials(ctx, papi.StageCurrent)
		if err != nil {
			return nil, err
		}

		token, err := m.exchangeForToken(ctx, credentials)
		if err != nil {
			return nil, err
		}

		return []byte(token), nil
	})
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// GetCredentials returns credentials for the given stage. Only the current
// stage is cached; the pending stage is used once during password-change
// verification and always hits the provider.
func (m *CachingTokenManager) GetCredentials(ctx context.Context, stage papi.Stage) (*papi.Credentials, error) {
	if m.provider == nil {
		return nil, constants.ErrNoCredentialProvider
	}

	if stage != papi.StageCurrent {
		credentials, err := m.provider.GetSecret(ctx, m.secretName, stage)
		if err != nil {
			return nil, fmt.Errorf("fetching credentials: %w", err)
		}

		return credentials, nil
	}

	data, err := m.credentials.GetOrCompute(ctx, constants.CredentialsCacheKey, m.tokenTTL, func(ctx context.Context) ([]byte, error) {
		credentials, err := m.provider.GetSecret(ctx, m.secretName, stage)
		if err != nil {
			return nil, fmt.Errorf("fetching credentials: %w", err)
		}

		encoded, err := json.Marshal(credentials)
		if err != nil {
			return nil, fmt.Errorf("encoding credentials: %w", err)
		}

		return encoded, nil
	})
	if err != nil {
		return nil, err
	}

	var credentials papi.Credentials

	err = json.Unmarshal(data, &credentials)
	if err != nil {
		return nil, fmt.Errorf("decoding cached credentials: %w", err)
	}

	return &credentials, nil
}

// RefreshToken drops both cache entries and fetches a fresh token.
func (m *CachingTokenManager) RefreshToken(ctx context.Context) error {
	err := m.InvalidateAll(ctx)
	if err != nil {
		return err
	}

	_, err = m.GetToken(ctx)

	return err
}

// InvalidateAll clears both the credential and token cache entries. It is
// called by the dispatcher when a downstream call answers 401 or 403, so
// the next GetToken performs a full refresh rather than re-serving a stale
// token.
func (m *CachingTokenManager) InvalidateAll(ctx context.Context) error {
	err := m.tokens.Delete(ctx, constants.TokenCacheKey)
	if err != nil {
		return fmt.Errorf("invalidating token cache: %w", err)
	}

	err = m.credentials.Delete(ctx, constants.CredentialsCacheKey)
	if err != nil {
		return fmt.Errorf("invalidating credential cache: %w", err)
	}

	return nil
}

// exchangeForToken POSTs credentials to the login endpoint and decodes the
// token from the JSON response.
func (m *CachingTokenManager) exchangeForToken(ctx context.Context, credentials *papi.Credentials) (string, error) {
	form := url.Values{}
	form.Set("username", credentials.Username)
	form.Set("password", credentials.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating login request: %w", err)
	}

	req.Header.Set("Content-Type", constants.ContentTypeForm)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", &papi.APIError{
			Method:  http.MethodPost,
			URL:     m.loginURL,
			Message: fmt.Sprintf("login request failed: %v", err),
		}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	if err != nil {
		return "", fmt.Errorf("reading login response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", papi.NewHTTPError(http.MethodPost, m.loginURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var login loginResponse

	err = json.Unmarshal(body, &login)
	if err != nil {
		return "", papi.NewHTTPError(http.MethodPost, m.loginURL, resp.StatusCode, fmt.Sprintf("decoding login response: %v", err))
	}

	if login.Token == "" {
		return "", papi.NewHTTPError(http.MethodPost, m.loginURL, resp.StatusCode, constants.ErrEmptyToken.Error())
	}

	if m.logger != nil {
		m.logger.Debug("exchanged credentials for access token", map[string]interface{}{
			"login_url": m.loginURL,
			"ttl":       m.tokenTTL.String(),
		})
	}

	return login.Token, nil
}
