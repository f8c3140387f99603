package cli

import (
	"fmt"

	"github.com/runloop/rl-cli/internal/config"
	"github.com/runloop/rl-cli/internal/ui"
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Set up rl configuration",
	Long: `Set up rl configuration interactively.

This command creates the configuration file at ~/.runloop/config.yaml
with your Runloop API key. The RUNLOOP_API_KEY environment variable
always takes precedence over the file.`,
	RunE: runConfigure,
}

func runConfigure(cmd *cobra.Command, args []string) error {
	if !ui.CanPrompt() {
		return fmt.Errorf("configure requires interactive mode; set RUNLOOP_API_KEY instead")
	}

	prompt := ui.NewPrompt()
	out := ui.NewOutput(verbose, jsonOut)

	configPath := config.ConfigPath(cfgFile)

	if config.Exists(configPath) {
		confirmed, err := prompt.Confirm("Configuration already exists. Overwrite?", false)
		if err != nil {
			return err
		}
		if !confirmed {
			out.Println("Aborted.")
			return nil
		}
	}

	out.Println("Setting up rl configuration...")
	out.Println()

	apiKey, err := prompt.Secret("Runloop API key")
	if err != nil {
		return err
	}
	if apiKey == "" {
		return fmt.Errorf("API key is required")
	}

	c := &config.Config{APIKey: apiKey}

	baseURL, err := prompt.String("API base URL (leave empty for default)", "")
	if err != nil {
		return err
	}
	c.BaseURL = baseURL

	if err := c.Save(configPath); err != nil {
		return err
	}

	out.Println()
	out.Success("Configuration saved to %s", configPath)
	out.Println()
	out.Println("Next steps:")
	out.Println("  1. Run 'rl devbox list' to verify your credentials")
	out.Println("  2. Run 'rl object upload --path <file>' to store your first object")

	return nil
}
