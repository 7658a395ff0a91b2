package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for metadata requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as login.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry defaults.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 5

	// DefaultRetryWaitMin is the base backoff delay before the first retry.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 30 * time.Second
)

// Cache defaults.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultTokenTTL bounds how long an exchanged access token is reused.
	DefaultTokenTTL = 15 * time.Minute

	// CredentialsCacheKey is the cache key for the credential lookup result.
	CredentialsCacheKey = "papi-credentials"

	// TokenCacheKey is the cache key for the exchanged access token.
	TokenCacheKey = "papi-access-token"
)

// Concurrency limits.
const (
	// DefaultFanOutLimit bounds concurrent generation/bitstream fetches
	// inside one entity decode.
	DefaultFanOutLimit = 4
)

// Wire headers and content types.
const (
	// AccessTokenHeader carries the bearer token on every request.
	AccessTokenHeader = "Preservica-Access-Token"

	// ContentTypeXML is sent on XML calls.
	ContentTypeXML = "application/xml"

	// ContentTypeJSON is sent on JSON calls.
	ContentTypeJSON = "application/json;charset=UTF-8"

	// ContentTypeForm is sent on the login call.
	ContentTypeForm = "application/x-www-form-urlencoded"

	// LoginPath is the token exchange endpoint, relative to the API base.
	LoginPath = "/api/accesstoken/login"
)
