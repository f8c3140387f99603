// Package objects orchestrates the object upload and download flows:
// the three-step upload handshake against the API plus the
// download-and-extract pipeline built on the transfer and archive
// packages.
package objects

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runloop/rl-cli/internal/archive"
	"github.com/runloop/rl-cli/internal/constants"
	"github.com/runloop/rl-cli/internal/domain"
	"github.com/runloop/rl-cli/internal/ui"
)

// ObjectAPI is the slice of the objects API the orchestrator needs
type ObjectAPI interface {
	Create(ctx context.Context, name string, contentType domain.ContentType) (*domain.Object, error)
	Complete(ctx context.Context, id string) (*domain.Object, error)
	Retrieve(ctx context.Context, id string) (*domain.Object, error)
	DownloadURL(ctx context.Context, id string, durationSeconds int) (string, error)
}

// Transferer moves bytes to and from presigned URLs
type Transferer interface {
	Upload(ctx context.Context, url, path string, size int64) error
	Download(ctx context.Context, url, destPath string) error
}

// Service runs object upload and download flows
type Service struct {
	api      ObjectAPI
	transfer Transferer
	out      *ui.Output
}

// NewService creates an object service
func NewService(api ObjectAPI, transfer Transferer, out *ui.Output) *Service {
	return &Service{api: api, transfer: transfer, out: out}
}

// UploadOptions configure an upload
type UploadOptions struct {
	// Path is the local file to upload
	Path string

	// Name overrides the remote object name; defaults to the base name
	// of Path
	Name string

	// ContentType overrides content-type classification; unknown values
	// normalize to unspecified
	ContentType string
}

// Upload pushes a local file to a new remote object. The local file is
// validated before any remote call so a bad path never leaves an
// orphaned object in UPLOADING state. If the byte transfer succeeds
// but the completion call fails, the object id is reported so the
// upload can be completed manually; the error is surfaced, not retried.
func (s *Service) Upload(ctx context.Context, opts UploadOptions) (*domain.Object, error) {
	size, err := validateLocalFile(opts.Path)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = filepath.Base(opts.Path)
	}

	contentType := domain.ClassifyForUpload(opts.Path)
	if opts.ContentType != "" {
		contentType = domain.ParseContentType(opts.ContentType)
	}

	s.out.Verbose("Creating object %q (content type %s, %s)", name, contentType, ui.FormatBytes(size))
	obj, err := s.api.Create(ctx, name, contentType)
	if err != nil {
		return nil, err
	}
	if obj.UploadURL == "" {
		return nil, domain.Errorf(domain.ErrUploadFailed, "create response for object %s carried no upload URL", obj.ID)
	}

	if err := s.transfer.Upload(ctx, obj.UploadURL, opts.Path, size); err != nil {
		return nil, domain.Errorf(domain.ErrUploadFailed, "upload of %s to object %s failed: %v", opts.Path, obj.ID, err)
	}

	completed, err := s.api.Complete(ctx, obj.ID)
	if err != nil {
		s.out.Warn("object %s was uploaded but could not be marked complete: %v", obj.ID, err)
		s.out.Warn("the object remains in UPLOADING state; run 'rl object complete --id %s' to finish it", obj.ID)
		return nil, domain.Errorf(domain.ErrIncompleteUpload, "object %s: %v", obj.ID, err)
	}

	return completed, nil
}

// validateLocalFile checks that path names a readable regular file and
// returns its size
func validateLocalFile(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return 0, domain.Errorf(domain.ErrFileNotFound, "%s", path)
		case os.IsPermission(err):
			return 0, domain.Errorf(domain.ErrPermissionDenied, "%s", path)
		default:
			return 0, domain.Errorf(domain.ErrFileUnreadable, "%s: %v", path, err)
		}
	}
	if info.IsDir() {
		return 0, domain.Errorf(domain.ErrFileUnreadable, "%s is a directory", path)
	}

	// Stat alone does not prove read access
	f, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return 0, domain.Errorf(domain.ErrPermissionDenied, "%s", path)
		}
		return 0, domain.Errorf(domain.ErrFileUnreadable, "%s: %v", path, err)
	}
	f.Close()

	return info.Size(), nil
}

// DownloadOptions configure a download
type DownloadOptions struct {
	// ID is the remote object to download
	ID string

	// Path is the destination: a file path normally, a directory when
	// Extract is set
	Path string

	// Extract unpacks the downloaded archive into Path instead of
	// saving the raw bytes
	Extract bool

	// DurationSeconds bounds the presigned URL lifetime; zero uses the
	// default
	DurationSeconds int
}

// Download fetches an object's bytes to a local path, optionally
// extracting them. Extraction is all-or-nothing: the target directory
// is recreated fresh, and on any extraction failure it is removed
// again so no partial tree is left behind.
func (s *Service) Download(ctx context.Context, opts DownloadOptions) (*domain.Object, error) {
	duration := opts.DurationSeconds
	if duration <= 0 {
		duration = constants.DefaultDownloadURLDuration
	}

	meta, err := s.api.Retrieve(ctx, opts.ID)
	if err != nil {
		return nil, err
	}

	url, err := s.api.DownloadURL(ctx, opts.ID, duration)
	if err != nil {
		return nil, err
	}

	if !opts.Extract {
		if err := s.transfer.Download(ctx, url, opts.Path); err != nil {
			return nil, domain.Errorf(domain.ErrDownloadFailed, "download of object %s failed: %v", opts.ID, err)
		}
		return meta, nil
	}

	archivePath := downloadArchivePath(meta)
	s.out.Verbose("Downloading object %s to %s", opts.ID, archivePath)
	if err := s.transfer.Download(ctx, url, archivePath); err != nil {
		return nil, domain.Errorf(domain.ErrDownloadFailed, "download of object %s failed: %v", opts.ID, err)
	}

	// Resolve the format by name first, then by content for objects
	// whose name gives nothing away
	kind := archive.DetectKind(archivePath)
	if kind == archive.KindNone {
		kind = archive.SniffKind(archivePath)
	}
	if kind == archive.KindNone {
		os.Remove(archivePath)
		return nil, domain.Errorf(domain.ErrUnsupportedArchive, "object %s (%s)", opts.ID, meta.Name)
	}

	// The extraction target is recreated from scratch so stale files
	// from a previous run cannot mix with the new contents
	if err := os.RemoveAll(opts.Path); err != nil {
		os.Remove(archivePath)
		return nil, domain.Errorf(domain.ErrDownloadFailed, "failed to reset %s: %v", opts.Path, err)
	}
	if err := os.MkdirAll(opts.Path, 0755); err != nil {
		os.Remove(archivePath)
		return nil, domain.Errorf(domain.ErrDownloadFailed, "failed to create %s: %v", opts.Path, err)
	}

	if err := archive.ExtractAs(archivePath, kind, opts.Path); err != nil {
		os.RemoveAll(opts.Path)
		os.Remove(archivePath)
		return nil, err
	}

	if err := os.Remove(archivePath); err != nil {
		s.out.Warn("could not remove temporary archive %s: %v", archivePath, err)
	}

	return meta, nil
}

// downloadArchivePath picks the temp file the archive is downloaded to
// before extraction. An archive-named object keeps its own name; for
// anything else the name is synthesized from the object id plus the
// extension its content type implies.
func downloadArchivePath(obj *domain.Object) string {
	if obj.Name != "" && archive.IsArchiveName(obj.Name) {
		return filepath.Join(os.TempDir(), filepath.Base(obj.Name))
	}
	ext := domain.PreferredExtension(obj.ContentType)
	return filepath.Join(os.TempDir(), fmt.Sprintf("rl_cli_download_%s%s", obj.ID, ext))
}
