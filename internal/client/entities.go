package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	internalhttp "github.com/preservio/papi/internal/http"
	"github.com/preservio/papi/internal/xip"
	"github.com/preservio/papi/pkg/papi"
)

const entityBasePath = "/api/entity"

// EntitiesClient implements papi.EntitiesClient over the dispatcher.
type EntitiesClient struct {
	http *internalhttp.Client
}

// entityPath builds /api/entity/{segment}/{ref}.
func entityPath(entityType papi.EntityType, ref string) (string, error) {
	segment := entityType.Path()
	if segment == "" {
		return "", fmt.Errorf("%w: %q", papi.ErrUnknownEntityType, string(entityType))
	}

	return fmt.Sprintf("%s/%s/%s", entityBasePath, segment, url.PathEscape(ref)), nil
}

// Get fetches one entity by type and reference. The response type must match
// the requested type; a mismatch means the reference belongs to a different
// kind of entity.
func (c *EntitiesClient) Get(ctx context.Context, entityType papi.EntityType, ref string) (*papi.Entity, error) {
	path, err := entityPath(entityType, ref)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	decoded, err := xip.DecodeEntity(resp.Body)
	if err != nil {
		return nil, err
	}

	if decoded.Entity.Type != entityType {
		return nil, fmt.Errorf("%w: requested %s, got %s", papi.ErrEntityTypeMismatch, entityType, decoded.Entity.Type)
	}

	return decoded.Entity, nil
}

// GetStructuralObject fetches one structural object by reference.
func (c *EntitiesClient) GetStructuralObject(ctx context.Context, ref string) (*papi.Entity, error) {
	return c.Get(ctx, papi.EntityTypeStructuralObject, ref)
}

// GetInformationObject fetches one information object by reference.
func (c *EntitiesClient) GetInformationObject(ctx context.Context, ref string) (*papi.Entity, error) {
	return c.Get(ctx, papi.EntityTypeInformationObject, ref)
}

// GetContentObject fetches one content object by reference.
func (c *EntitiesClient) GetContentObject(ctx context.Context, ref string) (*papi.Entity, error) {
	return c.Get(ctx, papi.EntityTypeContentObject, ref)
}

// CreateFolder creates a structural object. A parent reference is required
// unless the folder is explicitly created at the repository root; that is
// validated before any network call.
func (c *EntitiesClient) CreateFolder(ctx context.Context, request *papi.CreateFolderRequest) (*papi.Entity, error) {
	if request.Parent == "" && !request.Root {
		return nil, fmt.Errorf("%w", papi.ErrParentRequired)
	}

	body, err := xip.EncodeFolder(request)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Post(ctx, entityBasePath+"/structural-objects", body)
	if err != nil {
		return nil, err
	}

	decoded, err := xip.DecodeEntity(resp.Body)
	if err != nil {
		return nil, err
	}

	return decoded.Entity, nil
}

// Update replaces an entity's descriptive fields and returns the updated
// entity as the server recorded it.
func (c *EntitiesClient) Update(ctx context.Context, entity *papi.Entity) (*papi.Entity, error) {
	path, err := entityPath(entity.Type, entity.Ref)
	if err != nil {
		return nil, err
	}

	body, err := xip.EncodeEntityUpdate(entity)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Put(ctx, path, body)
	if err != nil {
		return nil, err
	}

	decoded, err := xip.DecodeEntity(resp.Body)
	if err != nil {
		return nil, err
	}

	return decoded.Entity, nil
}

// Identifiers lists every external identifier on the entity, walking all
// pages.
func (c *EntitiesClient) Identifiers(ctx context.Context, entity *papi.Entity) ([]papi.Identifier, error) {
	path, err := entityPath(entity.Type, entity.Ref)
	if err != nil {
		return nil, err
	}

	return papi.FetchAllPages(ctx, path+"/identifiers", func(ctx context.Context, pageURL string) (*papi.Page[papi.Identifier], error) {
		resp, err := c.http.Get(ctx, pageURL, nil)
		if err != nil {
			return nil, err
		}

		return xip.DecodeIdentifierPage(resp.Body)
	})
}

// AddIdentifier attaches an external identifier to the entity. Names are not
// required to be unique; adding a duplicate name creates a second identifier.
func (c *EntitiesClient) AddIdentifier(ctx context.Context, entity *papi.Entity, name, value string) error {
	path, err := entityPath(entity.Type, entity.Ref)
	if err != nil {
		return err
	}

	body, err := xip.EncodeIdentifier(name, value)
	if err != nil {
		return err
	}

	_, err = c.http.Post(ctx, path+"/identifiers", body)

	return err
}

// ByIdentifier finds every entity carrying the given identifier name/value
// pair, walking all pages.
func (c *EntitiesClient) ByIdentifier(ctx context.Context, name, value string) ([]papi.Entity, error) {
	query := url.Values{}
	query.Set("type", name)
	query.Set("value", value)

	start := entityBasePath + "/entities/by-identifier?" + query.Encode()

	return c.fetchEntityPages(ctx, start)
}

// UpdatedSince lists every entity modified at or after the given time,
// walking all pages.
func (c *EntitiesClient) UpdatedSince(ctx context.Context, since time.Time) ([]papi.Entity, error) {
	query := url.Values{}
	query.Set("date", since.UTC().Format(time.RFC3339))

	start := entityBasePath + "/entities/updated-since?" + query.Encode()

	return c.fetchEntityPages(ctx, start)
}

func (c *EntitiesClient) fetchEntityPages(ctx context.Context, startURL string) ([]papi.Entity, error) {
	return papi.FetchAllPages(ctx, startURL, func(ctx context.Context, pageURL string) (*papi.Page[papi.Entity], error) {
		resp, err := c.http.Get(ctx, pageURL, nil)
		if err != nil {
			return nil, err
		}

		return xip.DecodeEntityPage(resp.Body)
	})
}

// EventActions lists the entity's lifecycle events, most recent first. The
// API pages oldest-first; the accumulated walk is reversed before returning.
func (c *EntitiesClient) EventActions(ctx context.Context, entity *papi.Entity) ([]papi.EventAction, error) {
	path, err := entityPath(entity.Type, entity.Ref)
	if err != nil {
		return nil, err
	}

	events, err := papi.FetchAllPages(ctx, path+"/event-actions", func(ctx context.Context, pageURL string) (*papi.Page[papi.EventAction], error) {
		resp, err := c.http.Get(ctx, pageURL, nil)
		if err != nil {
			return nil, err
		}

		return xip.DecodeEventActionPage(resp.Body)
	})
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}

	return events, nil
}

// Links lists the entity's typed relationships, walking all pages.
func (c *EntitiesClient) Links(ctx context.Context, entity *papi.Entity) ([]papi.EntityLink, error) {
	path, err := entityPath(entity.Type, entity.Ref)
	if err != nil {
		return nil, err
	}

	return papi.FetchAllPages(ctx, path+"/links", func(ctx context.Context, pageURL string) (*papi.Page[papi.EntityLink], error) {
		resp, err := c.http.Get(ctx, pageURL, nil)
		if err != nil {
			return nil, err
		}

		return xip.DecodeLinkPage(resp.Body)
	})
}
