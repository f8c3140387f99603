package constants

import (
	"os"
	"path/filepath"
)

const (
	// ConfigFileName is the default config file name
	ConfigFileName = "config.yaml"

	// RunloopDir is the directory name for rl data under $HOME
	RunloopDir = ".runloop"

	// SSHKeysDir is the subdirectory for persisted devbox SSH keys
	SSHKeysDir = "ssh_keys"

	// APIKeyEnvVar is the environment variable holding the API key
	APIKeyEnvVar = "RUNLOOP_API_KEY"

	// EnvEnvVar selects the target environment ("dev" for the dev stack)
	EnvEnvVar = "RUNLOOP_ENV"

	// ConfigEnvVar is the environment variable to override config path
	ConfigEnvVar = "RUNLOOP_CONFIG"

	// ProdBaseURL is the production API endpoint
	ProdBaseURL = "https://api.runloop.ai"

	// DevBaseURL is the development API endpoint
	DevBaseURL = "https://api.runloop.pro"

	// ProdSSHProxyAddr is the production SSH proxy endpoint
	ProdSSHProxyAddr = "ssh.runloop.ai:443"

	// DevSSHProxyAddr is the development SSH proxy endpoint
	DevSSHProxyAddr = "ssh.runloop.pro:443"

	// TransferChunkSize is the buffer size for streaming uploads and downloads
	TransferChunkSize = 8 * 1024

	// DefaultDownloadURLDuration is the default presigned download URL
	// validity in seconds
	DefaultDownloadURLDuration = 3600

	// DefaultListLimit is the default page size for list commands
	DefaultListLimit = 20

	// DefaultReadyTimeoutSeconds is how long to wait for a devbox to
	// become ready before giving up
	DefaultReadyTimeoutSeconds = 180

	// DefaultPollIntervalSeconds is the devbox readiness poll interval
	DefaultPollIntervalSeconds = 3

	// BytesPerKB is the number of bytes in a kilobyte
	BytesPerKB = 1024
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitNotConfigured    = 1
	ExitInvalidArgs      = 2
	ExitFileNotFound     = 3
	ExitPermissionDenied = 4
	ExitUploadFailed     = 5
	ExitDownloadFailed   = 6
	ExitAPIError         = 7
	ExitArchiveError     = 8
	ExitIncompleteUpload = 9
	ExitUserCancelled    = 10
	ExitUnknownError     = 99
)

// DefaultConfigDir returns the default configuration directory path
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, RunloopDir)
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, ConfigFileName)
}

// SSHKeyDir returns the directory where devbox SSH keys are persisted
func SSHKeyDir() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, SSHKeysDir)
}

// UpdateCacheDir returns the directory used for update-check state
func UpdateCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cache", "rl-cli")
}
