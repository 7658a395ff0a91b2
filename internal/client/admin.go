package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/preservio/papi/internal/constants"
	internalhttp "github.com/preservio/papi/internal/http"
)

const adminBasePath = "/api/admin"

// AdminClient implements papi.AdminClient.
type AdminClient struct {
	http *internalhttp.Client
}

// UploadDocument stores a named XML document in the repository's admin
// document store. The body is buffered so the retry loop can replay it.
func (c *AdminClient) UploadDocument(ctx context.Context, name string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("reading document %s: %w", name, err)
	}

	query := url.Values{}
	query.Set("name", name)

	_, err = c.http.Do(ctx, &internalhttp.Request{
		Method:      http.MethodPost,
		Path:        adminBasePath + "/documents",
		Query:       query,
		Body:        data,
		ContentType: constants.ContentTypeXML,
	})

	return err
}
