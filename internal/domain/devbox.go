package domain

// DevboxStatus is the remote lifecycle status of a devbox
type DevboxStatus string

const (
	DevboxStatusInitializing DevboxStatus = "initializing"
	DevboxStatusRunning      DevboxStatus = "running"
	DevboxStatusSuspending   DevboxStatus = "suspending"
	DevboxStatusSuspended    DevboxStatus = "suspended"
	DevboxStatusResuming     DevboxStatus = "resuming"
	DevboxStatusFailure      DevboxStatus = "failure"
	DevboxStatusShutdown     DevboxStatus = "shutdown"
)

// Devbox is a remote ephemeral compute sandbox
type Devbox struct {
	ID               string            `json:"id"`
	Name             string            `json:"name,omitempty"`
	Status           DevboxStatus      `json:"status,omitempty"`
	BlueprintID      string            `json:"blueprint_id,omitempty"`
	SnapshotID       string            `json:"snapshot_id,omitempty"`
	CreateTimeMs     int64             `json:"create_time_ms,omitempty"`
	EnvironmentVars  map[string]string `json:"environment_variables,omitempty"`
	LaunchParameters *LaunchParameters `json:"launch_parameters,omitempty"`
}

// LaunchParameters configure how a devbox is provisioned
type LaunchParameters struct {
	LaunchCommands      []string        `json:"launch_commands,omitempty"`
	ResourceSizeRequest string          `json:"resource_size_request,omitempty"`
	Architecture        string          `json:"architecture,omitempty"`
	AfterIdle           *AfterIdle      `json:"after_idle,omitempty"`
	UserParameters      *UserParameters `json:"user_parameters,omitempty"`
}

// AfterIdle configures the idle action of a devbox
type AfterIdle struct {
	IdleTimeSeconds int    `json:"idle_time_seconds"`
	OnIdle          string `json:"on_idle"`
}

// UserParameters configures the execution user inside a devbox
type UserParameters struct {
	Username string `json:"username"`
	UID      int    `json:"uid"`
}

// CodeMount describes a repository mounted into a devbox at creation
type CodeMount struct {
	RepoName  string `json:"repo_name"`
	RepoOwner string `json:"repo_owner,omitempty"`
	Token     string `json:"token,omitempty"`
}

// DevboxList is a page of devboxes from the list endpoint
type DevboxList struct {
	Devboxes   []Devbox `json:"devboxes"`
	HasMore    bool     `json:"has_more"`
	TotalCount int      `json:"total_count"`
}

// DevboxExecution is the result or status of a command execution
type DevboxExecution struct {
	ExecutionID string `json:"execution_id,omitempty"`
	DevboxID    string `json:"devbox_id,omitempty"`
	Status      string `json:"status,omitempty"`
	Stdout      string `json:"stdout,omitempty"`
	Stderr      string `json:"stderr,omitempty"`
	ExitStatus  *int   `json:"exit_status,omitempty"`
}

// DevboxLogEntry is one line of devbox log output
type DevboxLogEntry struct {
	TimestampMs int64  `json:"timestamp_ms,omitempty"`
	Source      string `json:"source,omitempty"`
	Cmd         string `json:"cmd,omitempty"`
	Message     string `json:"message,omitempty"`
	ExitCode    *int   `json:"exit_code,omitempty"`
}

// DevboxLogs is the log listing for a devbox
type DevboxLogs struct {
	Logs []DevboxLogEntry `json:"logs"`
}

// DevboxSSHKey is a freshly minted SSH credential for a devbox
type DevboxSSHKey struct {
	SSHPrivateKey string `json:"ssh_private_key"`
	URL           string `json:"url"`
}

// DevboxSnapshot is a disk snapshot of a devbox
type DevboxSnapshot struct {
	ID       string `json:"id"`
	DevboxID string `json:"source_devbox_id,omitempty"`
	Status   string `json:"status,omitempty"`
}

// DevboxSnapshotList is a page of snapshots
type DevboxSnapshotList struct {
	Snapshots []DevboxSnapshot `json:"snapshots"`
}
