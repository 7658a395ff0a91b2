package papi

import (
	"context"
	"io"
	"time"
)

// Client is the typed entry point to a preservation repository API.
type Client interface {
	Entities() EntitiesClient
	Content() ContentClient
	Workflows() WorkflowsClient
	ProcessMonitor() ProcessMonitorClient
	Admin() AdminClient

	// GetToken returns the current access token, refreshing it if needed.
	GetToken(ctx context.Context) (string, error)
}

// EntitiesClient provides access to the entity hierarchy.
type EntitiesClient interface {
	Get(ctx context.Context, entityType EntityType, ref string) (*Entity, error)
	GetStructuralObject(ctx context.Context, ref string) (*Entity, error)
	GetInformationObject(ctx context.Context, ref string) (*Entity, error)
	GetContentObject(ctx context.Context, ref string) (*Entity, error)

	CreateFolder(ctx context.Context, request *CreateFolderRequest) (*Entity, error)
	Update(ctx context.Context, entity *Entity) (*Entity, error)

	Identifiers(ctx context.Context, entity *Entity) ([]Identifier, error)
	AddIdentifier(ctx context.Context, entity *Entity, name, value string) error
	ByIdentifier(ctx context.Context, name, value string) ([]Entity, error)

	UpdatedSince(ctx context.Context, since time.Time) ([]Entity, error)
	EventActions(ctx context.Context, entity *Entity) ([]EventAction, error)
	Links(ctx context.Context, entity *Entity) ([]EntityLink, error)
}

// ContentClient provides access to generations and bitstream payloads.
type ContentClient interface {
	// Bitstreams resolves every generation of a content object and returns
	// one BitStreamInfo per bitstream-generation pairing.
	Bitstreams(ctx context.Context, contentObject *Entity) ([]BitStreamInfo, error)

	// Download streams one bitstream payload to w, returning the byte count.
	// The read timeout is unbounded; large payloads may take a long time.
	Download(ctx context.Context, bitstream *BitStreamInfo, w io.Writer) (int64, error)
}

// WorkflowsClient starts repository workflows.
type WorkflowsClient interface {
	Start(ctx context.Context, request *StartWorkflowRequest) (*WorkflowInstance, error)
}

// ProcessMonitorClient inspects long-running repository processes.
type ProcessMonitorClient interface {
	Get(ctx context.Context, processID string) (*Process, error)
	Messages(ctx context.Context, processID string) ([]ProcessMessage, error)
}

// AdminClient provides administrative operations.
type AdminClient interface {
	UploadDocument(ctx context.Context, name string, body io.Reader) error
}

// CreateFolderRequest describes a new structural object. Parent is required
// unless Root is set; that combination is validated before any network call.
type CreateFolderRequest struct {
	Title       string
	Description string
	SecurityTag SecurityTag
	Parent      string
	Root        bool
}

// StartWorkflowRequest identifies the workflow context to start. Exactly one
// of ContextID and ContextName must be supplied.
type StartWorkflowRequest struct {
	ContextID     string
	ContextName   string
	CorrelationID string
}

// Stage selects which credential-provider secret value to fetch.
type Stage string

const (
	// StageCurrent is the currently active secret value.
	StageCurrent Stage = "current"

	// StagePending is a not-yet-promoted secret value, used only during
	// password-change verification.
	StagePending Stage = "pending"
)

// Credentials is a username/password pair produced by a CredentialProvider.
// Credentials are ephemeral: they live in the credential cache for at most
// its TTL and are never otherwise persisted.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	APIURL   string `json:"api_url,omitempty"`
}

// CredentialProvider returns a username/password pair by secret name and
// stage. Failures are opaque to the pipeline and wrapped into APIError.
type CredentialProvider interface {
	GetSecret(ctx context.Context, name string, stage Stage) (*Credentials, error)
}

// Logger is the structured logging interface consumed by the HTTP layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a papi.Client.
//
// # Authentication
//
// Provide either Username/Password directly, or a CredentialProvider plus
// SecretName. The client exchanges credentials for an access token at
// <APIEndpoint>/api/accesstoken/login and caches the token for TokenTTL.
// An authorization failure on any call invalidates both the credential and
// token cache entries, forcing a full refresh on the next attempt.
type Config struct {
	// APIEndpoint is the base URL for the repository API. psclient.New
	// normalizes it by trimming a trailing slash and adding https:// when
	// no scheme is present.
	APIEndpoint string

	// Username and Password authenticate directly when no provider is set.
	Username string
	Password string

	// CredentialProvider supplies credentials by SecretName when set.
	CredentialProvider CredentialProvider

	// SecretName names the secret fetched from the CredentialProvider.
	SecretName string

	// TokenTTL bounds how long an exchanged token is reused. Zero selects
	// the default of 15 minutes.
	TokenTTL time.Duration

	// RetryMax is the maximum number of retries per request. Zero selects
	// the default.
	RetryMax int

	// RetryWaitMin is the base backoff delay. Zero selects 1 second.
	RetryWaitMin time.Duration

	// RetryWaitMax caps the backoff delay.
	RetryWaitMax time.Duration

	// HTTPTimeout bounds metadata calls. Content downloads are unbounded.
	HTTPTimeout time.Duration

	// Cache selects the backend for the credential and token caches.
	Cache *CacheConfig

	// Logger receives structured request, retry and cache logs.
	Logger Logger

	// Debug enables verbose HTTP request/response logging.
	Debug bool

	// UserAgent overrides the default User-Agent header.
	UserAgent string
}
