package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/runloop/rl-cli/internal/domain"
)

// ObjectsService wraps the object-store endpoints
type ObjectsService struct {
	client *Client
}

// ObjectCreateRequest is the create-object payload
type ObjectCreateRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
}

// ObjectListParams filter the object list endpoints
type ObjectListParams struct {
	Limit         int
	StartingAfter string
	Name          string
	ContentType   string
	State         string
	Search        string
}

// Create registers a new object and returns it in UPLOADING state
// with a presigned upload URL.
func (s *ObjectsService) Create(ctx context.Context, name string, contentType domain.ContentType) (*domain.Object, error) {
	var obj domain.Object
	req := ObjectCreateRequest{Name: name, ContentType: string(contentType)}
	if err := s.client.post(ctx, "/v1/objects", req, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

// Complete transitions an object from UPLOADING to READ_ONLY
func (s *ObjectsService) Complete(ctx context.Context, id string) (*domain.Object, error) {
	var obj domain.Object
	if err := s.client.post(ctx, fmt.Sprintf("/v1/objects/%s/complete", id), nil, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

// Retrieve fetches object metadata
func (s *ObjectsService) Retrieve(ctx context.Context, id string) (*domain.Object, error) {
	var obj domain.Object
	if err := s.client.get(ctx, fmt.Sprintf("/v1/objects/%s", id), nil, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

// DownloadURL mints a presigned download URL valid for
// durationSeconds.
func (s *ObjectsService) DownloadURL(ctx context.Context, id string, durationSeconds int) (string, error) {
	var out domain.ObjectDownloadURL
	body := map[string]int{"duration_seconds": durationSeconds}
	if err := s.client.post(ctx, fmt.Sprintf("/v1/objects/%s/download", id), body, &out); err != nil {
		return "", err
	}
	return out.DownloadURL, nil
}

// Delete removes an object irreversibly
func (s *ObjectsService) Delete(ctx context.Context, id string) (*domain.Object, error) {
	var obj domain.Object
	if err := s.client.post(ctx, fmt.Sprintf("/v1/objects/%s/delete", id), nil, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

// List returns a page of the caller's objects
func (s *ObjectsService) List(ctx context.Context, params ObjectListParams) (*domain.ObjectList, error) {
	return s.list(ctx, "/v1/objects", params)
}

// ListPublic returns a page of public objects
func (s *ObjectsService) ListPublic(ctx context.Context, params ObjectListParams) (*domain.ObjectList, error) {
	return s.list(ctx, "/v1/objects/list_public", params)
}

func (s *ObjectsService) list(ctx context.Context, path string, params ObjectListParams) (*domain.ObjectList, error) {
	query := url.Values{}
	if params.Limit > 0 {
		query.Set("limit", intQuery(params.Limit))
	}
	if params.StartingAfter != "" {
		query.Set("starting_after", params.StartingAfter)
	}
	if params.Name != "" {
		query.Set("name", params.Name)
	}
	if params.ContentType != "" {
		query.Set("content_type", params.ContentType)
	}
	if params.State != "" {
		query.Set("state", params.State)
	}
	if params.Search != "" {
		query.Set("search", params.Search)
	}

	var out domain.ObjectList
	if err := s.client.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
