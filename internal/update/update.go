// Package update implements the release-check housekeeping: at most
// one background check per day, quietly skipped on any failure, plus
// a verbose on-demand mode for the update-check command.
package update

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/runloop/rl-cli/internal/constants"
	"github.com/runloop/rl-cli/internal/domain"
	"github.com/runloop/rl-cli/internal/ui"
	"github.com/runloop/rl-cli/internal/version"
)

const (
	// DefaultReleaseEndpoint serves the latest release metadata
	DefaultReleaseEndpoint = "https://api.github.com/repos/runloop/rl-cli/releases/latest"

	// checkInterval is the minimum time between background checks
	checkInterval = 24 * time.Hour

	// requestTimeout bounds the release request so a slow endpoint
	// never delays the actual command
	requestTimeout = 2 * time.Second

	// stampFileName records when the last check ran, via its mtime
	stampFileName = "last_update_check"
)

// Checker queries the release endpoint and compares versions
type Checker struct {
	endpoint   string
	httpClient *http.Client
	cacheDir   string
	version    string
	out        *ui.Output
}

// NewChecker creates a checker for the current binary version
func NewChecker(out *ui.Output) *Checker {
	return &Checker{
		endpoint:   DefaultReleaseEndpoint,
		httpClient: &http.Client{Timeout: requestTimeout},
		cacheDir:   constants.UpdateCacheDir(),
		version:    version.Version,
		out:        out,
	}
}

// NewCheckerWithOptions creates a checker with explicit endpoint,
// cache directory and version (for testing)
func NewCheckerWithOptions(endpoint, cacheDir, currentVersion string, httpClient *http.Client, out *ui.Output) *Checker {
	return &Checker{
		endpoint:   endpoint,
		httpClient: httpClient,
		cacheDir:   cacheDir,
		version:    currentVersion,
		out:        out,
	}
}

type releaseResponse struct {
	TagName string `json:"tag_name"`
}

// MaybeCheck runs the daily background check. Every failure mode is
// silent: a broken cache dir, an unreachable endpoint, or malformed
// release data must never affect the command being run.
func (c *Checker) MaybeCheck(ctx context.Context) {
	if c.cacheDir == "" || !c.due() {
		return
	}
	c.stamp()

	latest, err := c.fetchLatest(ctx)
	if err != nil {
		return
	}

	if IsNewer(latest, c.version) {
		c.out.Notice("A new version of rl is available: %s (you have %s). See https://github.com/runloop/rl-cli/releases", latest, c.version)
	}
}

// Check runs the check unconditionally and reports the outcome,
// returning the latest published version.
func (c *Checker) Check(ctx context.Context) (string, error) {
	latest, err := c.fetchLatest(ctx)
	if err != nil {
		return "", domain.Errorf(domain.ErrAPIError, "update check failed: %v", err)
	}
	c.stamp()
	return latest, nil
}

// IsNewer reports whether candidate is a strictly newer release than
// current, comparing dotted numeric components. Either side may carry
// a "v" prefix; non-numeric components end the comparison.
func IsNewer(candidate, current string) bool {
	if current == "dev" || current == "" {
		return false
	}

	cand := strings.Split(strings.TrimPrefix(candidate, "v"), ".")
	cur := strings.Split(strings.TrimPrefix(current, "v"), ".")

	for i := 0; i < len(cand) && i < len(cur); i++ {
		a, errA := strconv.Atoi(cand[i])
		b, errB := strconv.Atoi(cur[i])
		if errA != nil || errB != nil {
			return false
		}
		if a != b {
			return a > b
		}
	}
	return len(cand) > len(cur)
}

func (c *Checker) fetchLatest(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.Errorf(domain.ErrAPIError, "release endpoint returned status %d", resp.StatusCode)
	}

	var release releaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}
	if release.TagName == "" {
		return "", domain.Errorf(domain.ErrAPIError, "release endpoint returned no version")
	}

	return release.TagName, nil
}

// due reports whether the last check is old enough to repeat
func (c *Checker) due() bool {
	info, err := os.Stat(filepath.Join(c.cacheDir, stampFileName))
	if err != nil {
		return true
	}
	return time.Since(info.ModTime()) >= checkInterval
}

// stamp records that a check ran now
func (c *Checker) stamp() {
	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return
	}
	path := filepath.Join(c.cacheDir, stampFileName)
	if err := os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)+"\n"), 0644); err != nil {
		return
	}
}
