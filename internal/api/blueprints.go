package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/runloop/rl-cli/internal/domain"
)

// BlueprintsService wraps the blueprint endpoints
type BlueprintsService struct {
	client *Client
}

// BlueprintCreateRequest is the create/preview payload
type BlueprintCreateRequest struct {
	Name                string                   `json:"name"`
	SystemSetupCommands []string                 `json:"system_setup_commands,omitempty"`
	Dockerfile          string                   `json:"dockerfile,omitempty"`
	AvailablePorts      []int                    `json:"available_ports,omitempty"`
	LaunchParameters    *domain.LaunchParameters `json:"launch_parameters,omitempty"`
}

// Create starts a blueprint build
func (s *BlueprintsService) Create(ctx context.Context, req BlueprintCreateRequest) (*domain.Blueprint, error) {
	var bp domain.Blueprint
	if err := s.client.post(ctx, "/v1/blueprints", req, &bp); err != nil {
		return nil, err
	}
	return &bp, nil
}

// Preview renders the Dockerfile a create request would build,
// without building it
func (s *BlueprintsService) Preview(ctx context.Context, req BlueprintCreateRequest) (*domain.BlueprintPreview, error) {
	var preview domain.BlueprintPreview
	if err := s.client.post(ctx, "/v1/blueprints/preview", req, &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

// List returns blueprints, optionally filtered by name
func (s *BlueprintsService) List(ctx context.Context, name string) (*domain.BlueprintList, error) {
	query := url.Values{}
	if name != "" {
		query.Set("name", name)
	}

	var out domain.BlueprintList
	if err := s.client.get(ctx, "/v1/blueprints", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Retrieve fetches a blueprint by id
func (s *BlueprintsService) Retrieve(ctx context.Context, id string) (*domain.Blueprint, error) {
	var bp domain.Blueprint
	if err := s.client.get(ctx, fmt.Sprintf("/v1/blueprints/%s", id), nil, &bp); err != nil {
		return nil, err
	}
	return &bp, nil
}

// Logs fetches the build logs for a blueprint
func (s *BlueprintsService) Logs(ctx context.Context, id string) (*domain.BlueprintLogs, error) {
	var logs domain.BlueprintLogs
	if err := s.client.get(ctx, fmt.Sprintf("/v1/blueprints/%s/logs", id), nil, &logs); err != nil {
		return nil, err
	}
	return &logs, nil
}
