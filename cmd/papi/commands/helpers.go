// Package commands implements the papi CLI commands.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/preservio/papi/pkg/papi"
	"github.com/preservio/papi/pkg/psclient"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Static errors for err113 compliance.
var (
	ErrAPIRequired         = errors.New("API endpoint is required (--api, PAPI_API or login)")
	ErrCredentialsRequired = errors.New("username and password are required (login or PAPI_USERNAME/PAPI_PASSWORD)")
	ErrUnknownEntityType   = errors.New("unknown entity type (expected SO, IO or CO)")
)

// newClient builds an authenticated API client from viper configuration.
func newClient(ctx context.Context) (papi.Client, error) {
	endpoint := viper.GetString("api")
	if endpoint == "" {
		return nil, ErrAPIRequired
	}

	username := viper.GetString("username")
	password := viper.GetString("password")

	if username == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	client, err := psclient.New(ctx, &papi.Config{
		APIEndpoint: endpoint,
		Username:    username,
		Password:    password,
		Debug:       viper.GetBool("verbose"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	return client, nil
}

// parseEntityType maps a CLI argument to an entity type.
func parseEntityType(value string) (papi.EntityType, error) {
	entityType := papi.EntityTypeFromTag(value)
	if entityType == papi.EntityTypeUnknown {
		return entityType, fmt.Errorf("%w: %q", ErrUnknownEntityType, value)
	}

	return entityType, nil
}

// renderStructured writes value as JSON or YAML per the output flag and
// reports whether it handled the output. Table rendering stays with the
// caller.
func renderStructured(value interface{}) (bool, error) {
	switch viper.GetString("output") {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		return true, encoder.Encode(value)
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)

		return true, encoder.Encode(value)
	default:
		return false, nil
	}
}

// renderTable renders a header plus rows with the shared table style.
func renderTable(header []string, rows [][]string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header(toAnySlice(header)...)

	for _, row := range rows {
		_ = table.Append(toAnySlice(row)...)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func toAnySlice(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, value := range values {
		out[i] = value
	}

	return out
}
