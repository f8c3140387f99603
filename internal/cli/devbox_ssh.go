package cli

import (
	"context"
	"time"

	"github.com/runloop/rl-cli/internal/api"
	"github.com/runloop/rl-cli/internal/config"
	"github.com/runloop/rl-cli/internal/constants"
	"github.com/runloop/rl-cli/internal/sshutil"
	"github.com/spf13/cobra"
)

var (
	sshID         string
	sshPrintConf  bool
	scpID         string
	rsyncID       string
	tunnelID      string
	tunnelLocal   int
	tunnelRemote  int
)

var devboxSSHCmd = &cobra.Command{
	Use:   "ssh",
	Short: "Open a shell on a devbox",
	Long: `Open an interactive shell on a devbox using the system ssh binary.

A fresh SSH key is minted for the devbox and stored under
~/.runloop/ssh_keys/. The connection is proxied through the Runloop
SSH gateway over TLS.`,
	RunE: runDevboxSSH,
}

var devboxSCPCmd = &cobra.Command{
	Use:   "scp <src> <dst>",
	Short: "Copy files to or from a devbox",
	Long: `Copy files to or from a devbox with the system scp binary.

Prefix the remote side with a colon: 'rl devbox scp --id ID local.txt
:remote.txt' uploads, 'rl devbox scp --id ID :remote.txt local.txt'
downloads.`,
	Args: cobra.ExactArgs(2),
	RunE: runDevboxSCP,
}

var devboxRsyncCmd = &cobra.Command{
	Use:   "rsync <src> <dst>",
	Short: "Sync files to or from a devbox",
	Long: `Sync files to or from a devbox with the system rsync binary.
The ":path" convention marks the remote side, as with scp.`,
	Args: cobra.ExactArgs(2),
	RunE: runDevboxRsync,
}

var devboxTunnelCmd = &cobra.Command{
	Use:   "tunnel",
	Short: "Forward a local port to a devbox",
	RunE:  runDevboxTunnel,
}

func init() {
	devboxSSHCmd.Flags().StringVar(&sshID, "id", "", "devbox id (required)")
	devboxSSHCmd.MarkFlagRequired("id")
	devboxSSHCmd.Flags().BoolVar(&sshPrintConf, "print-config", false, "print an ssh_config stanza instead of connecting")

	devboxSCPCmd.Flags().StringVar(&scpID, "id", "", "devbox id (required)")
	devboxSCPCmd.MarkFlagRequired("id")

	devboxRsyncCmd.Flags().StringVar(&rsyncID, "id", "", "devbox id (required)")
	devboxRsyncCmd.MarkFlagRequired("id")

	devboxTunnelCmd.Flags().StringVar(&tunnelID, "id", "", "devbox id (required)")
	devboxTunnelCmd.MarkFlagRequired("id")
	devboxTunnelCmd.Flags().IntVar(&tunnelLocal, "local_port", 0, "local port to listen on (required)")
	devboxTunnelCmd.MarkFlagRequired("local_port")
	devboxTunnelCmd.Flags().IntVar(&tunnelRemote, "remote_port", 0, "devbox port to forward to (required)")
	devboxTunnelCmd.MarkFlagRequired("remote_port")
}

// prepareSSHKey waits for the devbox to be running, mints a key, and
// persists it, returning the key path.
func prepareSSHKey(ctx context.Context, client *api.Client, devboxID string) (string, error) {
	err := sshutil.WaitForReady(ctx, client.Devboxes, devboxID,
		constants.DefaultReadyTimeoutSeconds*time.Second,
		constants.DefaultPollIntervalSeconds*time.Second)
	if err != nil {
		return "", err
	}

	key, err := client.Devboxes.CreateSSHKey(ctx, devboxID)
	if err != nil {
		return "", err
	}

	keyPath, err := sshutil.SaveKey(devboxID, key.SSHPrivateKey)
	if err != nil {
		return "", err
	}
	output.Verbose("SSH key saved to %s", keyPath)

	return keyPath, nil
}

func runDevboxSSH(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	keyPath, err := prepareSSHKey(ctx, newAPIClient(), sshID)
	if err != nil {
		return err
	}

	proxyAddr := config.SSHProxyAddr()
	if sshPrintConf {
		output.Printf("%s", sshutil.ConfigStanza(sshID, devboxUser, keyPath, proxyAddr))
		return nil
	}

	// The session itself is interactive and unbounded; the terminal
	// delivers signals to the child directly
	return sshutil.Exec(context.Background(), sshutil.SSHArgs(keyPath, proxyAddr, devboxUser, sshID, nil))
}

func runDevboxSCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	keyPath, err := prepareSSHKey(ctx, newAPIClient(), scpID)
	if err != nil {
		return err
	}

	argv := sshutil.SCPArgs(keyPath, config.SSHProxyAddr(), devboxUser, scpID, args[0], args[1])
	return sshutil.Exec(context.Background(), argv)
}

func runDevboxRsync(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	keyPath, err := prepareSSHKey(ctx, newAPIClient(), rsyncID)
	if err != nil {
		return err
	}

	argv := sshutil.RsyncArgs(keyPath, config.SSHProxyAddr(), devboxUser, rsyncID, args[0], args[1], nil)
	return sshutil.Exec(context.Background(), argv)
}

func runDevboxTunnel(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	keyPath, err := prepareSSHKey(ctx, newAPIClient(), tunnelID)
	if err != nil {
		return err
	}

	output.Notice("Forwarding localhost:%d to devbox port %d (Ctrl-C to stop)", tunnelLocal, tunnelRemote)
	argv := sshutil.TunnelArgs(keyPath, config.SSHProxyAddr(), devboxUser, tunnelID, tunnelLocal, tunnelRemote)
	return sshutil.Exec(context.Background(), argv)
}
