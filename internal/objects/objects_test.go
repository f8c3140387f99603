package objects

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/runloop/rl-cli/internal/api"
	"github.com/runloop/rl-cli/internal/domain"
	"github.com/runloop/rl-cli/internal/transfer"
	"github.com/runloop/rl-cli/internal/ui"
	"github.com/stretchr/testify/require"
)

func fastRetry() transfer.RetryConfig {
	return transfer.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

// newService wires a Service against a test server, returning the
// stderr buffer for warning assertions.
func newService(t *testing.T, mux *http.ServeMux) (*Service, *httptest.Server, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	var stdout, stderr bytes.Buffer
	out := ui.NewOutputWithWriters(&stdout, &stderr, false, false)
	apiClient := api.NewClientWithHTTP(srv.URL, "test-key", srv.Client())
	xfer := transfer.NewClientWithOptions(srv.Client(), fastRetry(), nil)

	return NewService(apiClient.Objects, xfer, out), srv, &stderr
}

func tarGzBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name, Mode: 0644, Size: int64(len(content)), Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestUpload_ThreePhaseHandshake(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "sample.txt")
	require.NoError(t, os.WriteFile(local, []byte("hello world"), 0644))

	var steps []string
	var putBody []byte

	mux := http.NewServeMux()
	srvURL := ""
	mux.HandleFunc("/v1/objects", func(w http.ResponseWriter, r *http.Request) {
		steps = append(steps, "create")

		var req api.ObjectCreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "sample.txt", req.Name)
		require.Equal(t, "text", req.ContentType)

		json.NewEncoder(w).Encode(domain.Object{
			ID:        "obj-1",
			Name:      req.Name,
			State:     domain.ObjectStateUploading,
			UploadURL: srvURL + "/put/obj-1",
		})
	})
	mux.HandleFunc("/put/obj-1", func(w http.ResponseWriter, r *http.Request) {
		steps = append(steps, "put")
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, int64(11), r.ContentLength)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		putBody = body
	})
	mux.HandleFunc("/v1/objects/obj-1/complete", func(w http.ResponseWriter, r *http.Request) {
		steps = append(steps, "complete")
		json.NewEncoder(w).Encode(domain.Object{ID: "obj-1", State: domain.ObjectStateReadOnly})
	})

	svc, srv, _ := newService(t, mux)
	srvURL = srv.URL

	obj, err := svc.Upload(context.Background(), UploadOptions{Path: local})
	require.NoError(t, err)
	require.Equal(t, "obj-1", obj.ID)
	require.Equal(t, domain.ObjectStateReadOnly, obj.State)
	require.Equal(t, "hello world", string(putBody))
	require.Equal(t, []string{"create", "put", "complete"}, steps)
}

func TestUpload_MissingFileFailsBeforeAnyRemoteCall(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	svc, _, _ := newService(t, mux)

	_, err := svc.Upload(context.Background(), UploadOptions{Path: "/nonexistent/sample.txt"})
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrFileNotFound)
	require.Contains(t, err.Error(), "/nonexistent/sample.txt")
	require.Zero(t, calls)
}

func TestUpload_DirectoryRejected(t *testing.T) {
	svc, _, _ := newService(t, http.NewServeMux())

	dir := t.TempDir()
	_, err := svc.Upload(context.Background(), UploadOptions{Path: dir})
	require.ErrorIs(t, err, domain.ErrFileUnreadable)
}

func TestUpload_NameAndContentTypeOverrides(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(local, []byte("x"), 0644))

	mux := http.NewServeMux()
	srvURL := ""
	mux.HandleFunc("/v1/objects", func(w http.ResponseWriter, r *http.Request) {
		var req api.ObjectCreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "renamed.bin", req.Name)
		require.Equal(t, "binary", req.ContentType)
		json.NewEncoder(w).Encode(domain.Object{ID: "obj-2", UploadURL: srvURL + "/put/obj-2"})
	})
	mux.HandleFunc("/put/obj-2", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/v1/objects/obj-2/complete", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.Object{ID: "obj-2", State: domain.ObjectStateReadOnly})
	})

	svc, srv, _ := newService(t, mux)
	srvURL = srv.URL

	_, err := svc.Upload(context.Background(), UploadOptions{
		Path:        local,
		Name:        "renamed.bin",
		ContentType: "binary",
	})
	require.NoError(t, err)
}

func TestUpload_CompletionFailureWarnsAndSurfaces(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "sample.txt")
	require.NoError(t, os.WriteFile(local, []byte("hello"), 0644))

	mux := http.NewServeMux()
	srvURL := ""
	mux.HandleFunc("/v1/objects", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.Object{ID: "obj-9", UploadURL: srvURL + "/put/obj-9"})
	})
	mux.HandleFunc("/put/obj-9", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/v1/objects/obj-9/complete", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error": "state conflict"}`))
	})

	svc, srv, stderr := newService(t, mux)
	srvURL = srv.URL

	_, err := svc.Upload(context.Background(), UploadOptions{Path: local})
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrIncompleteUpload)
	require.Contains(t, err.Error(), "obj-9")
	require.Contains(t, stderr.String(), "obj-9")
	require.Contains(t, stderr.String(), "UPLOADING")
}

func TestDownload_PlainFile(t *testing.T) {
	mux := http.NewServeMux()
	srvURL := ""
	mux.HandleFunc("/v1/objects/obj-3", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.Object{ID: "obj-3", Name: "report.txt", ContentType: "text"})
	})
	mux.HandleFunc("/v1/objects/obj-3/download", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, 3600, body["duration_seconds"])
		json.NewEncoder(w).Encode(domain.ObjectDownloadURL{DownloadURL: srvURL + "/get/obj-3"})
	})
	mux.HandleFunc("/get/obj-3", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quarterly numbers"))
	})

	svc, srv, _ := newService(t, mux)
	srvURL = srv.URL

	dest := filepath.Join(t.TempDir(), "nested", "report.txt")
	obj, err := svc.Download(context.Background(), DownloadOptions{ID: "obj-3", Path: dest})
	require.NoError(t, err)
	require.Equal(t, "report.txt", obj.Name)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "quarterly numbers", string(data))
}

func TestDownload_ExtractTarGz(t *testing.T) {
	payload := tarGzBytes(t, map[string]string{
		"a.txt":   "alpha",
		"b/b.txt": "beta",
	})

	mux := http.NewServeMux()
	srvURL := ""
	mux.HandleFunc("/v1/objects/obj-4", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.Object{ID: "obj-4", Name: "bundle.tar.gz", ContentType: "tgz"})
	})
	mux.HandleFunc("/v1/objects/obj-4/download", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.ObjectDownloadURL{DownloadURL: srvURL + "/get/obj-4"})
	})
	mux.HandleFunc("/get/obj-4", func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})

	svc, srv, _ := newService(t, mux)
	srvURL = srv.URL

	target := filepath.Join(t.TempDir(), "out")
	// Stale content must not survive into the fresh extraction
	require.NoError(t, os.MkdirAll(target, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "stale.txt"), []byte("old"), 0644))

	_, err := svc.Download(context.Background(), DownloadOptions{ID: "obj-4", Path: target, Extract: true})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(target, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "alpha", string(data))

	data, err = os.ReadFile(filepath.Join(target, "b", "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "beta", string(data))

	_, err = os.Stat(filepath.Join(target, "stale.txt"))
	require.True(t, os.IsNotExist(err))

	// Temp archive is removed after a successful extraction
	_, err = os.Stat(filepath.Join(os.TempDir(), "bundle.tar.gz"))
	require.True(t, os.IsNotExist(err))
}

func TestDownload_ExtractRejectsNonArchive(t *testing.T) {
	mux := http.NewServeMux()
	srvURL := ""
	mux.HandleFunc("/v1/objects/obj-5", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.Object{ID: "obj-5", Name: "plain.txt", ContentType: "text"})
	})
	mux.HandleFunc("/v1/objects/obj-5/download", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.ObjectDownloadURL{DownloadURL: srvURL + "/get/obj-5"})
	})
	mux.HandleFunc("/get/obj-5", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("just some text"))
	})

	svc, srv, _ := newService(t, mux)
	srvURL = srv.URL

	target := filepath.Join(t.TempDir(), "out")
	_, err := svc.Download(context.Background(), DownloadOptions{ID: "obj-5", Path: target, Extract: true})
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrUnsupportedArchive)
	require.Contains(t, err.Error(), "not a supported archive type")

	// Neither the target dir nor the temp archive are left behind
	_, err = os.Stat(target)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(os.TempDir(), "rl_cli_download_obj-5.txt"))
	require.True(t, os.IsNotExist(err))
}

func TestDownload_ExtractBySniffWhenNameIsAmbiguous(t *testing.T) {
	payload := zipBytes(t, map[string]string{"inner.txt": "zipped"})

	mux := http.NewServeMux()
	srvURL := ""
	mux.HandleFunc("/v1/objects/obj-6", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.Object{ID: "obj-6", Name: "payload", ContentType: "unspecified"})
	})
	mux.HandleFunc("/v1/objects/obj-6/download", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.ObjectDownloadURL{DownloadURL: srvURL + "/get/obj-6"})
	})
	mux.HandleFunc("/get/obj-6", func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})

	svc, srv, _ := newService(t, mux)
	srvURL = srv.URL

	target := filepath.Join(t.TempDir(), "out")
	_, err := svc.Download(context.Background(), DownloadOptions{ID: "obj-6", Path: target, Extract: true})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(target, "inner.txt"))
	require.NoError(t, err)
	require.Equal(t, "zipped", string(data))
}

func TestDownload_ExtractionFailureRemovesTargetDir(t *testing.T) {
	// Archive-named object whose bytes are not a valid gzip stream
	mux := http.NewServeMux()
	srvURL := ""
	mux.HandleFunc("/v1/objects/obj-7", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.Object{ID: "obj-7", Name: "broken.tar.gz", ContentType: "tgz"})
	})
	mux.HandleFunc("/v1/objects/obj-7/download", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.ObjectDownloadURL{DownloadURL: srvURL + "/get/obj-7"})
	})
	mux.HandleFunc("/get/obj-7", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not gzip"))
	})

	svc, srv, _ := newService(t, mux)
	srvURL = srv.URL

	target := filepath.Join(t.TempDir(), "out")
	_, err := svc.Download(context.Background(), DownloadOptions{ID: "obj-7", Path: target, Extract: true})
	require.Error(t, err)

	_, err = os.Stat(target)
	require.True(t, os.IsNotExist(err))
}

func TestDownloadArchivePath(t *testing.T) {
	tests := []struct {
		name string
		obj  domain.Object
		want string
	}{
		{
			name: "archive-named object keeps its name",
			obj:  domain.Object{ID: "obj-1", Name: "bundle.tar.gz"},
			want: filepath.Join(os.TempDir(), "bundle.tar.gz"),
		},
		{
			name: "synthesized from id and content type",
			obj:  domain.Object{ID: "obj-2", Name: "notes", ContentType: "tgz"},
			want: filepath.Join(os.TempDir(), "rl_cli_download_obj-2.tar.gz"),
		},
		{
			name: "no extension when content type is unknown",
			obj:  domain.Object{ID: "obj-3", Name: "blob", ContentType: "unspecified"},
			want: filepath.Join(os.TempDir(), "rl_cli_download_obj-3"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, downloadArchivePath(&tt.obj))
		})
	}
}
