package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/runloop/rl-cli/internal/domain"
)

// DevboxesService wraps the devbox endpoints
type DevboxesService struct {
	client *Client
}

// DevboxCreateRequest is the create-devbox payload
type DevboxCreateRequest struct {
	Entrypoint           string                   `json:"entrypoint,omitempty"`
	EnvironmentVariables map[string]string        `json:"environment_variables,omitempty"`
	BlueprintID          string                   `json:"blueprint_id,omitempty"`
	BlueprintName        string                   `json:"blueprint_name,omitempty"`
	SnapshotID           string                   `json:"snapshot_id,omitempty"`
	CodeMounts           []domain.CodeMount       `json:"code_mounts,omitempty"`
	LaunchParameters     *domain.LaunchParameters `json:"launch_parameters,omitempty"`
}

// DevboxListParams filter the devbox list endpoint
type DevboxListParams struct {
	Status string
	Limit  int
}

// ExecuteRequest is the payload for synchronous and asynchronous
// command execution
type ExecuteRequest struct {
	Command   string `json:"command"`
	ShellName string `json:"shell_name,omitempty"`
}

// SendStdinRequest writes to the stdin of a running async execution.
// Exactly one of Text or Signal is set.
type SendStdinRequest struct {
	Text   string `json:"text,omitempty"`
	Signal string `json:"signal,omitempty"`
}

// Create provisions a new devbox
func (s *DevboxesService) Create(ctx context.Context, req DevboxCreateRequest) (*domain.Devbox, error) {
	var devbox domain.Devbox
	if err := s.client.post(ctx, "/v1/devboxes", req, &devbox); err != nil {
		return nil, err
	}
	return &devbox, nil
}

// List returns a page of devboxes
func (s *DevboxesService) List(ctx context.Context, params DevboxListParams) (*domain.DevboxList, error) {
	query := url.Values{}
	if params.Status != "" {
		query.Set("status", params.Status)
	}
	if params.Limit > 0 {
		query.Set("limit", intQuery(params.Limit))
	}

	var out domain.DevboxList
	if err := s.client.get(ctx, "/v1/devboxes", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Retrieve fetches a devbox by id
func (s *DevboxesService) Retrieve(ctx context.Context, id string) (*domain.Devbox, error) {
	var devbox domain.Devbox
	if err := s.client.get(ctx, fmt.Sprintf("/v1/devboxes/%s", id), nil, &devbox); err != nil {
		return nil, err
	}
	return &devbox, nil
}

// ExecuteSync runs a command on the devbox and waits for the result
func (s *DevboxesService) ExecuteSync(ctx context.Context, id string, req ExecuteRequest) (*domain.DevboxExecution, error) {
	var exec domain.DevboxExecution
	if err := s.client.post(ctx, fmt.Sprintf("/v1/devboxes/%s/execute_sync", id), req, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

// ExecuteAsync starts a command on the devbox without waiting
func (s *DevboxesService) ExecuteAsync(ctx context.Context, id string, req ExecuteRequest) (*domain.DevboxExecution, error) {
	var exec domain.DevboxExecution
	if err := s.client.post(ctx, fmt.Sprintf("/v1/devboxes/%s/execute_async", id), req, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

// RetrieveExecution fetches the status of an async execution
func (s *DevboxesService) RetrieveExecution(ctx context.Context, devboxID, executionID string) (*domain.DevboxExecution, error) {
	var exec domain.DevboxExecution
	path := fmt.Sprintf("/v1/devboxes/%s/executions/%s", devboxID, executionID)
	if err := s.client.get(ctx, path, nil, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

// SendStdin writes text or a signal to a running async execution
func (s *DevboxesService) SendStdin(ctx context.Context, devboxID, executionID string, req SendStdinRequest) error {
	path := fmt.Sprintf("/v1/devboxes/%s/executions/%s/send_stdin", devboxID, executionID)
	return s.client.post(ctx, path, req, nil)
}

// Logs fetches the devbox log listing
func (s *DevboxesService) Logs(ctx context.Context, id string) (*domain.DevboxLogs, error) {
	var logs domain.DevboxLogs
	if err := s.client.get(ctx, fmt.Sprintf("/v1/devboxes/%s/logs", id), nil, &logs); err != nil {
		return nil, err
	}
	return &logs, nil
}

// Suspend suspends a running devbox
func (s *DevboxesService) Suspend(ctx context.Context, id string) (*domain.Devbox, error) {
	return s.lifecycle(ctx, id, "suspend")
}

// Resume resumes a suspended devbox
func (s *DevboxesService) Resume(ctx context.Context, id string) (*domain.Devbox, error) {
	return s.lifecycle(ctx, id, "resume")
}

// Shutdown shuts a devbox down
func (s *DevboxesService) Shutdown(ctx context.Context, id string) (*domain.Devbox, error) {
	return s.lifecycle(ctx, id, "shutdown")
}

func (s *DevboxesService) lifecycle(ctx context.Context, id, action string) (*domain.Devbox, error) {
	var devbox domain.Devbox
	if err := s.client.post(ctx, fmt.Sprintf("/v1/devboxes/%s/%s", id, action), nil, &devbox); err != nil {
		return nil, err
	}
	return &devbox, nil
}

// CreateSSHKey mints an SSH credential for the devbox
func (s *DevboxesService) CreateSSHKey(ctx context.Context, id string) (*domain.DevboxSSHKey, error) {
	var key domain.DevboxSSHKey
	if err := s.client.post(ctx, fmt.Sprintf("/v1/devboxes/%s/create_ssh_key", id), nil, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// SnapshotDisk starts an asynchronous disk snapshot
func (s *DevboxesService) SnapshotDisk(ctx context.Context, id string) (*domain.DevboxSnapshot, error) {
	var snap domain.DevboxSnapshot
	if err := s.client.post(ctx, fmt.Sprintf("/v1/devboxes/%s/snapshot_disk_async", id), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SnapshotStatus fetches the status of a snapshot operation
func (s *DevboxesService) SnapshotStatus(ctx context.Context, snapshotID string) (*domain.DevboxSnapshot, error) {
	var snap domain.DevboxSnapshot
	path := fmt.Sprintf("/v1/devboxes/disk_snapshots/%s/status", snapshotID)
	if err := s.client.get(ctx, path, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListSnapshots lists disk snapshots
func (s *DevboxesService) ListSnapshots(ctx context.Context) (*domain.DevboxSnapshotList, error) {
	var out domain.DevboxSnapshotList
	if err := s.client.get(ctx, "/v1/devboxes/disk_snapshots", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
