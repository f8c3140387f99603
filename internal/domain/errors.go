package domain

import (
	"errors"
	"fmt"

	"github.com/runloop/rl-cli/internal/constants"
)

// Sentinel errors
var (
	ErrNotConfigured      = errors.New("rl not configured")
	ErrInvalidArgs        = errors.New("invalid arguments")
	ErrFileNotFound       = errors.New("file not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrFileUnreadable     = errors.New("file not readable")
	ErrUploadFailed       = errors.New("upload failed")
	ErrDownloadFailed     = errors.New("download failed")
	ErrAPIError           = errors.New("API error")
	ErrPathTraversal      = errors.New("path traversal detected")
	ErrUnsupportedArchive = errors.New("not a supported archive type")
	ErrNotZstd            = errors.New("does not appear to be zstd-compressed")
	ErrIncompleteUpload   = errors.New("object left in UPLOADING state")
	ErrUserCancelled      = errors.New("operation cancelled by user")
)

// ExitCodeError wraps an error with an exit code
type ExitCodeError struct {
	Err      error
	ExitCode int
}

func (e *ExitCodeError) Error() string {
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// WrapWithExitCode wraps an error with an exit code based on the error type
func WrapWithExitCode(err error) *ExitCodeError {
	if err == nil {
		return nil
	}

	// Check if already wrapped
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr
	}

	return &ExitCodeError{Err: err, ExitCode: errorToExitCode(err)}
}

// errorToExitCode maps errors to exit codes
func errorToExitCode(err error) int {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return constants.ExitNotConfigured
	case errors.Is(err, ErrInvalidArgs):
		return constants.ExitInvalidArgs
	case errors.Is(err, ErrFileNotFound):
		return constants.ExitFileNotFound
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrFileUnreadable):
		return constants.ExitPermissionDenied
	case errors.Is(err, ErrIncompleteUpload):
		return constants.ExitIncompleteUpload
	case errors.Is(err, ErrUploadFailed):
		return constants.ExitUploadFailed
	case errors.Is(err, ErrDownloadFailed):
		return constants.ExitDownloadFailed
	case errors.Is(err, ErrPathTraversal), errors.Is(err, ErrUnsupportedArchive), errors.Is(err, ErrNotZstd):
		return constants.ExitArchiveError
	case errors.Is(err, ErrAPIError):
		return constants.ExitAPIError
	case errors.Is(err, ErrUserCancelled):
		return constants.ExitUserCancelled
	default:
		return constants.ExitUnknownError
	}
}

// GetExitCode returns the exit code for an error
func GetExitCode(err error) int {
	if err == nil {
		return constants.ExitSuccess
	}

	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode
	}

	return errorToExitCode(err)
}

// Errorf creates a formatted error wrapping a sentinel error
func Errorf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, args...)...)
}
