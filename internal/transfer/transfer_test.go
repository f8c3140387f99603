package transfer

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(progress io.Writer) *Client {
	return NewClientWithOptions(http.DefaultClient, fastRetry(), progress)
}

func TestClient_Upload(t *testing.T) {
	var received []byte
	var contentLength int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		contentLength = r.ContentLength
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0644))

	var progress bytes.Buffer
	c := newTestClient(&progress)
	err := c.Upload(context.Background(), srv.URL, path, 11)

	require.NoError(t, err)
	require.Equal(t, []byte("hello world"), received)
	require.Equal(t, int64(11), contentLength)
	require.Contains(t, progress.String(), "Uploading: 100.0%")
}

func TestClient_Upload_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("signature expired"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	c := newTestClient(nil)
	err := c.Upload(context.Background(), srv.URL, path, 4)

	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
	require.Contains(t, err.Error(), "signature expired")
}

func TestClient_Upload_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		require.Equal(t, "retry me", string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte("retry me"), 0644))

	c := newTestClient(nil)
	err := c.Upload(context.Background(), srv.URL, path, 8)

	require.NoError(t, err)
	// Each retry re-sends the full stream
	require.Equal(t, int32(3), calls.Load())
}

func TestClient_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "11")
		w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "nested", "out.txt")

	var progress bytes.Buffer
	c := newTestClient(&progress)
	require.NoError(t, c.Download(context.Background(), srv.URL, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
	require.Contains(t, progress.String(), "Downloading: 100.0%")
}

func TestClient_Download_NoProgressWithoutContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		// Chunked response: no Content-Length
		w.Write([]byte("part one "))
		flusher.Flush()
		w.Write([]byte("part two"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.txt")

	var progress bytes.Buffer
	c := newTestClient(&progress)
	require.NoError(t, c.Download(context.Background(), srv.URL, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "part one part two", string(data))
	require.Empty(t, progress.String())
}

func TestClient_Download_NotFoundIsFatal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("expired URL"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.txt")

	c := newTestClient(nil)
	err := c.Download(context.Background(), srv.URL, dest)

	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
	require.Contains(t, err.Error(), "expired URL")
	// 4xx is terminal: exactly one request
	require.Equal(t, int32(1), calls.Load())

	// No partial file left behind
	_, statErr := os.Stat(dest)
	require.True(t, os.IsNotExist(statErr))
}

func TestClient_Download_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("eventually"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.txt")

	c := newTestClient(nil)
	require.NoError(t, c.Download(context.Background(), srv.URL, dest))
	require.Equal(t, int32(2), calls.Load())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "eventually", string(data))
}

func TestProgressReader_ReportsPercentages(t *testing.T) {
	var out bytes.Buffer
	pr := newProgressReader(strings.NewReader("0123456789"), 10, &out, "Downloading")

	buf := make([]byte, 5)
	_, err := pr.Read(buf)
	require.NoError(t, err)
	require.Contains(t, out.String(), "Downloading: 50.0%")

	_, err = pr.Read(buf)
	require.NoError(t, err)
	require.Contains(t, out.String(), "Downloading: 100.0%")

	pr.finish()
	require.True(t, strings.HasSuffix(out.String(), "\n"))
}

func TestProgressReader_SilentWhenTotalUnknown(t *testing.T) {
	var out bytes.Buffer
	pr := newProgressReader(strings.NewReader("data"), -1, &out, "Downloading")

	_, err := io.ReadAll(pr)
	require.NoError(t, err)
	pr.finish()
	require.Empty(t, out.String())
}
