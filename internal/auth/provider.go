package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/preservio/papi/pkg/papi"
)

// Static errors for err113 compliance.
var (
	ErrSecretNotFound = fmt.Errorf("secret not found")
)

// StaticCredentialProvider serves one fixed username/password pair for any
// secret name. It backs direct Username/Password configuration.
type StaticCredentialProvider struct {
	credentials papi.Credentials
}

// NewStaticCredentialProvider creates a provider around fixed credentials.
func NewStaticCredentialProvider(username, password string) *StaticCredentialProvider {
	return &StaticCredentialProvider{
		credentials: papi.Credentials{Username: username, Password: password},
	}
}

// GetSecret implements papi.CredentialProvider. The stage is ignored: a
// static provider has no pending value.
func (p *StaticCredentialProvider) GetSecret(ctx context.Context, name string, stage papi.Stage) (*papi.Credentials, error) {
	credentials := p.credentials

	return &credentials, nil
}

// EnvCredentialProvider reads credentials from environment variables named
// <PREFIX>_USERNAME, <PREFIX>_PASSWORD and optionally <PREFIX>_PENDING_* for
// the pending stage.
type EnvCredentialProvider struct {
	prefix string
}

// NewEnvCredentialProvider creates a provider reading env vars under prefix.
func NewEnvCredentialProvider(prefix string) *EnvCredentialProvider {
	return &EnvCredentialProvider{prefix: prefix}
}

// GetSecret implements papi.CredentialProvider.
func (p *EnvCredentialProvider) GetSecret(ctx context.Context, name string, stage papi.Stage) (*papi.Credentials, error) {
	prefix := p.prefix
	if stage == papi.StagePending {
		prefix += "_PENDING"
	}

	username := os.Getenv(prefix + "_USERNAME")
	password := os.Getenv(prefix + "_PASSWORD")

	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: %s (stage %s)", ErrSecretNotFound, name, stage)
	}

	return &papi.Credentials{
		Username: username,
		Password: password,
		APIURL:   os.Getenv(prefix + "_URL"),
	}, nil
}
