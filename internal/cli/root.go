package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/runloop/rl-cli/internal/config"
	"github.com/runloop/rl-cli/internal/domain"
	"github.com/runloop/rl-cli/internal/ui"
	"github.com/runloop/rl-cli/internal/update"
	"github.com/runloop/rl-cli/internal/version"
	"github.com/spf13/cobra"
)

const (
	// DefaultOperationTimeout bounds a single command invocation.
	// Transfers of large objects are the slowest operation, so this is
	// generous.
	DefaultOperationTimeout = 30 * time.Minute
)

var (
	// Global flags
	cfgFile        string
	verbose        bool
	jsonOut        bool
	nonInteractive bool

	// Shared state
	cfg    *config.Config
	output *ui.Output
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "rl",
	Short: "Interact with the Runloop platform",
	Long: `rl is a CLI client for the Runloop devbox platform.

It manages devboxes (ephemeral compute sandboxes), blueprints (devbox
build templates), and objects (file artifacts uploaded to and
downloaded from the platform).`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		output = ui.NewOutput(verbose, jsonOut)
		ui.SetNonInteractive(nonInteractive)

		if !needsConfig(cmd) {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		if config.IsDev() {
			output.Notice("Using dev environment (%s)", cfg.BaseURL)
		} else {
			output.Verbose("Using prod environment (%s)", cfg.BaseURL)
		}

		// Daily release check; gated, short timeout, silent on failure
		update.NewChecker(output).MaybeCheck(cmd.Context())

		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// needsConfig returns true if the command requires an API key
func needsConfig(cmd *cobra.Command) bool {
	noConfigCmds := map[string]bool{
		"configure":    true,
		"update-check": true,
		"help":         true,
		"completion":   true,
		"version":      true,
	}

	return !noConfigCmds[cmd.Name()]
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		if output != nil {
			output.Error("%v", err)
		} else {
			ui.NewOutput(false, false).Error("%v", err)
		}

		return domain.WrapWithExitCode(err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.runloop/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "disable interactive prompts (for CI/CD)")

	rootCmd.SetVersionTemplate("rl {{.Version}}\n")

	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(objectCmd)
	rootCmd.AddCommand(devboxCmd)
	rootCmd.AddCommand(blueprintCmd)
	rootCmd.AddCommand(updateCheckCmd)
}

// signalContext returns a context that is cancelled on SIGINT, SIGTERM, or timeout
func signalContext() (context.Context, context.CancelFunc) {
	ctx, timeoutCancel := context.WithTimeout(context.Background(), DefaultOperationTimeout)
	ctx, signalCancel := context.WithCancel(ctx)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-c:
			signalCancel()
		case <-ctx.Done():
		}
		signal.Stop(c)
		// Drain any pending signal to prevent goroutine leak
		select {
		case <-c:
		default:
		}
	}()

	return ctx, func() {
		signalCancel()
		timeoutCancel()
	}
}
