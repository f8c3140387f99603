package cli

import (
	"github.com/runloop/rl-cli/internal/update"
	"github.com/runloop/rl-cli/internal/version"
	"github.com/spf13/cobra"
)

var updateCheckCmd = &cobra.Command{
	Use:   "update-check",
	Short: "Check for a newer release",
	RunE:  runUpdateCheck,
}

func runUpdateCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	latest, err := update.NewChecker(output).Check(ctx)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(map[string]interface{}{
			"current": version.Version,
			"latest":  latest,
			"newer":   update.IsNewer(latest, version.Version),
		})
	}

	output.Status("Current version", version.Version)
	output.Status("Latest release", latest)
	if update.IsNewer(latest, version.Version) {
		output.Println()
		output.Println("A newer version is available: https://github.com/runloop/rl-cli/releases")
	} else {
		output.Println()
		output.Println("You are up to date")
	}
	return nil
}
