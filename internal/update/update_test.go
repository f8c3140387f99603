package update

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/runloop/rl-cli/internal/ui"
	"github.com/stretchr/testify/require"
)

func TestIsNewer(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		current   string
		want      bool
	}{
		{"newer patch", "v0.1.2", "v0.1.1", true},
		{"newer minor", "0.2.0", "0.1.9", true},
		{"newer major", "v1.0.0", "v0.9.9", true},
		{"same version", "v0.1.1", "v0.1.1", false},
		{"older", "v0.1.0", "v0.1.1", false},
		{"longer candidate wins on tie", "v0.1.1.1", "v0.1.1", true},
		{"dev build never updates", "v9.9.9", "dev", false},
		{"non-numeric component", "v0.1.x", "v0.1.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsNewer(tt.candidate, tt.current))
		})
	}
}

func newTestChecker(t *testing.T, handler http.HandlerFunc, cacheDir, version string) (*Checker, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var stdout, stderr bytes.Buffer
	out := ui.NewOutputWithWriters(&stdout, &stderr, false, false)
	return NewCheckerWithOptions(srv.URL, cacheDir, version, srv.Client(), out), &stderr
}

func TestMaybeCheck_NoticesNewerVersion(t *testing.T) {
	c, stderr := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name": "v0.2.0"}`))
	}, t.TempDir(), "v0.1.0")

	c.MaybeCheck(context.Background())
	require.Contains(t, stderr.String(), "v0.2.0")
	require.Contains(t, stderr.String(), "v0.1.0")
}

func TestMaybeCheck_SilentWhenUpToDate(t *testing.T) {
	c, stderr := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name": "v0.1.0"}`))
	}, t.TempDir(), "v0.1.0")

	c.MaybeCheck(context.Background())
	require.Empty(t, stderr.String())
}

func TestMaybeCheck_SilentOnEndpointFailure(t *testing.T) {
	c, stderr := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, t.TempDir(), "v0.1.0")

	c.MaybeCheck(context.Background())
	require.Empty(t, stderr.String())
}

func TestMaybeCheck_GatedByStampAge(t *testing.T) {
	cacheDir := t.TempDir()
	var hits int
	c, _ := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"tag_name": "v0.1.0"}`))
	}, cacheDir, "v0.1.0")

	c.MaybeCheck(context.Background())
	require.Equal(t, 1, hits)

	// Fresh stamp suppresses the next check
	c.MaybeCheck(context.Background())
	require.Equal(t, 1, hits)

	// An aged stamp re-enables it
	stamp := filepath.Join(cacheDir, stampFileName)
	old := time.Now().Add(-25 * time.Hour)
	require.NoError(t, os.Chtimes(stamp, old, old))

	c.MaybeCheck(context.Background())
	require.Equal(t, 2, hits)
}

func TestCheck_SurfacesFailures(t *testing.T) {
	c, _ := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, t.TempDir(), "v0.1.0")

	_, err := c.Check(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "update check failed")
}

func TestCheck_ReturnsLatest(t *testing.T) {
	c, _ := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name": "v1.4.0"}`))
	}, t.TempDir(), "v0.1.0")

	latest, err := c.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, "v1.4.0", latest)
}
