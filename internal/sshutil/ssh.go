// Package sshutil bridges devboxes and the system ssh tooling: it
// persists minted SSH keys, renders the proxy configuration the
// Runloop SSH gateway requires, and builds argv slices for ssh, scp,
// rsync and port-forward invocations. The SSH protocol itself is
// always the system binaries' job.
package sshutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/runloop/rl-cli/internal/constants"
	"github.com/runloop/rl-cli/internal/domain"
)

// SaveKey persists a devbox private key under the rl SSH key
// directory with owner-only permissions and returns its path. The
// write is fsync'd so a crash cannot leave a truncated key behind.
func SaveKey(devboxID, privateKey string) (string, error) {
	dir := constants.SSHKeyDir()
	if dir == "" {
		return "", domain.Errorf(domain.ErrInvalidArgs, "cannot determine home directory for SSH keys")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create SSH key directory: %w", err)
	}

	path := filepath.Join(dir, devboxID+".pem")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create key file: %w", err)
	}

	if _, err := f.WriteString(privateKey); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write key file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to sync key file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	return path, nil
}

// ProxyCommand is the ssh ProxyCommand that tunnels the connection
// through the Runloop SSH gateway over TLS.
func ProxyCommand(proxyAddr string) string {
	return fmt.Sprintf("openssl s_client -quiet -verify_quiet -servername %%h -connect %s", proxyAddr)
}

// sshOptions are the per-connection options shared by every
// invocation. Host keys are ephemeral per devbox, so host key
// checking is disabled.
func sshOptions(keyPath, proxyAddr string) []string {
	return []string{
		"-i", keyPath,
		"-o", "StrictHostKeyChecking=no",
		"-o", "UserKnownHostsFile=/dev/null",
		"-o", "LogLevel=ERROR",
		"-o", fmt.Sprintf("ProxyCommand=%s", ProxyCommand(proxyAddr)),
	}
}

// ConfigStanza renders an ssh_config Host block for a devbox, for
// users who want to use plain ssh outside rl.
func ConfigStanza(devboxID, user, keyPath, proxyAddr string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Host %s\n", devboxID)
	fmt.Fprintf(&b, "  HostName %s\n", devboxID)
	fmt.Fprintf(&b, "  User %s\n", user)
	fmt.Fprintf(&b, "  IdentityFile %s\n", keyPath)
	fmt.Fprintf(&b, "  StrictHostKeyChecking no\n")
	fmt.Fprintf(&b, "  UserKnownHostsFile /dev/null\n")
	fmt.Fprintf(&b, "  ProxyCommand %s\n", ProxyCommand(proxyAddr))
	return b.String()
}

// SSHArgs builds the argv for an interactive shell on the devbox
func SSHArgs(keyPath, proxyAddr, user, devboxID string, extra []string) []string {
	args := append([]string{"ssh"}, sshOptions(keyPath, proxyAddr)...)
	args = append(args, fmt.Sprintf("%s@%s", user, devboxID))
	return append(args, extra...)
}

// ResolveEndpoint rewrites a ":path" argument into the remote
// "user@host:path" form scp and rsync expect; anything else is a
// local path and passes through unchanged.
func ResolveEndpoint(arg, user, devboxID string) string {
	if strings.HasPrefix(arg, ":") {
		return fmt.Sprintf("%s@%s%s", user, devboxID, arg)
	}
	return arg
}

// SCPArgs builds the argv for a file copy; src and dst use the
// ":path" marker for the remote side.
func SCPArgs(keyPath, proxyAddr, user, devboxID, src, dst string) []string {
	args := append([]string{"scp"}, sshOptions(keyPath, proxyAddr)...)
	return append(args,
		ResolveEndpoint(src, user, devboxID),
		ResolveEndpoint(dst, user, devboxID),
	)
}

// RsyncArgs builds the argv for an rsync transfer riding over the
// proxied ssh transport.
func RsyncArgs(keyPath, proxyAddr, user, devboxID, src, dst string, extra []string) []string {
	transport := strings.Join(append([]string{"ssh"}, sshOptions(keyPath, proxyAddr)...), " ")
	args := []string{"rsync", "-avz", "-e", transport}
	args = append(args, extra...)
	return append(args,
		ResolveEndpoint(src, user, devboxID),
		ResolveEndpoint(dst, user, devboxID),
	)
}

// TunnelArgs builds the argv for a local port forward into the devbox
func TunnelArgs(keyPath, proxyAddr, user, devboxID string, localPort, remotePort int) []string {
	args := append([]string{"ssh"}, sshOptions(keyPath, proxyAddr)...)
	return append(args,
		"-L", fmt.Sprintf("%d:localhost:%d", localPort, remotePort),
		"-N",
		fmt.Sprintf("%s@%s", user, devboxID),
	)
}

// Exec runs the built argv with the caller's terminal attached and
// returns the child's exit error, if any.
func Exec(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// DevboxRetriever is the one API call readiness polling needs
type DevboxRetriever interface {
	Retrieve(ctx context.Context, id string) (*domain.Devbox, error)
}

// WaitForReady polls the devbox status at a fixed interval until it
// is running, reaches a state it cannot leave, or the timeout
// expires.
func WaitForReady(ctx context.Context, api DevboxRetriever, devboxID string, timeout, pollInterval time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		devbox, err := api.Retrieve(ctx, devboxID)
		if err != nil {
			return err
		}

		switch devbox.Status {
		case domain.DevboxStatusRunning:
			return nil
		case domain.DevboxStatusFailure, domain.DevboxStatusShutdown, domain.DevboxStatusSuspended:
			return domain.Errorf(domain.ErrAPIError, "devbox %s is %s and will not become ready", devboxID, devbox.Status)
		}

		select {
		case <-ctx.Done():
			return domain.Errorf(domain.ErrAPIError, "timed out waiting for devbox %s (last status %s)", devboxID, devbox.Status)
		case <-ticker.C:
		}
	}
}
