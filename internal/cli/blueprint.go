package cli

import (
	"os"

	"github.com/runloop/rl-cli/internal/api"
	"github.com/runloop/rl-cli/internal/domain"
	"github.com/spf13/cobra"
)

var blueprintCmd = &cobra.Command{
	Use:   "blueprint",
	Short: "Manage blueprints",
	Long: `Manage blueprints, the build templates devboxes are created from.

A blueprint is built once from setup commands or a Dockerfile; devboxes
created from it boot with the build already applied.`,
}

var (
	blueprintCreateName       string
	blueprintCreateSetupCmds  []string
	blueprintCreateDockerfile string

	blueprintPreviewName       string
	blueprintPreviewSetupCmds  []string
	blueprintPreviewDockerfile string

	blueprintListName string
	blueprintGetID    string
	blueprintLogsID   string
)

var blueprintCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Build a new blueprint",
	RunE:  runBlueprintCreate,
}

var blueprintPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview the Dockerfile a blueprint would build",
	RunE:  runBlueprintPreview,
}

var blueprintListCmd = &cobra.Command{
	Use:   "list",
	Short: "List blueprints",
	RunE:  runBlueprintList,
}

var blueprintGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show a blueprint",
	RunE:  runBlueprintGet,
}

var blueprintLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show a blueprint's build logs",
	RunE:  runBlueprintLogs,
}

func init() {
	blueprintCreateCmd.Flags().StringVar(&blueprintCreateName, "name", "", "blueprint name (required)")
	blueprintCreateCmd.MarkFlagRequired("name")
	blueprintCreateCmd.Flags().StringArrayVar(&blueprintCreateSetupCmds, "system_setup_commands", nil, "setup command to bake in (repeatable)")
	blueprintCreateCmd.Flags().StringVar(&blueprintCreateDockerfile, "dockerfile", "", "path to a Dockerfile to build from")

	blueprintPreviewCmd.Flags().StringVar(&blueprintPreviewName, "name", "", "blueprint name (required)")
	blueprintPreviewCmd.MarkFlagRequired("name")
	blueprintPreviewCmd.Flags().StringArrayVar(&blueprintPreviewSetupCmds, "system_setup_commands", nil, "setup command to bake in (repeatable)")
	blueprintPreviewCmd.Flags().StringVar(&blueprintPreviewDockerfile, "dockerfile", "", "path to a Dockerfile to build from")

	blueprintListCmd.Flags().StringVar(&blueprintListName, "name", "", "filter by name")

	blueprintGetCmd.Flags().StringVar(&blueprintGetID, "id", "", "blueprint id (required)")
	blueprintGetCmd.MarkFlagRequired("id")

	blueprintLogsCmd.Flags().StringVar(&blueprintLogsID, "id", "", "blueprint id (required)")
	blueprintLogsCmd.MarkFlagRequired("id")

	blueprintCmd.AddCommand(blueprintCreateCmd)
	blueprintCmd.AddCommand(blueprintPreviewCmd)
	blueprintCmd.AddCommand(blueprintListCmd)
	blueprintCmd.AddCommand(blueprintGetCmd)
	blueprintCmd.AddCommand(blueprintLogsCmd)
}

// blueprintRequest assembles a create/preview payload, reading the
// Dockerfile from disk when one is given
func blueprintRequest(name string, setupCmds []string, dockerfilePath string) (api.BlueprintCreateRequest, error) {
	req := api.BlueprintCreateRequest{
		Name:                name,
		SystemSetupCommands: setupCmds,
	}

	if dockerfilePath != "" {
		data, err := os.ReadFile(dockerfilePath)
		if err != nil {
			if os.IsNotExist(err) {
				return req, domain.Errorf(domain.ErrFileNotFound, "%s", dockerfilePath)
			}
			return req, domain.Errorf(domain.ErrFileUnreadable, "%s: %v", dockerfilePath, err)
		}
		req.Dockerfile = string(data)
	}

	return req, nil
}

func runBlueprintCreate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	req, err := blueprintRequest(blueprintCreateName, blueprintCreateSetupCmds, blueprintCreateDockerfile)
	if err != nil {
		return err
	}

	bp, err := newAPIClient().Blueprints.Create(ctx, req)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(bp)
	}

	output.Success("Building blueprint %s (%s)", bp.ID, bp.Name)
	output.Printf("Check the build with: rl blueprint logs --id %s\n", bp.ID)
	return nil
}

func runBlueprintPreview(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	req, err := blueprintRequest(blueprintPreviewName, blueprintPreviewSetupCmds, blueprintPreviewDockerfile)
	if err != nil {
		return err
	}

	preview, err := newAPIClient().Blueprints.Preview(ctx, req)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(preview)
	}

	output.Printf("%s\n", preview.Dockerfile)
	return nil
}

func runBlueprintList(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	list, err := newAPIClient().Blueprints.List(ctx, blueprintListName)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(list)
	}

	if len(list.Blueprints) == 0 {
		output.Println("No blueprints found")
		return nil
	}

	rows := make([][]string, 0, len(list.Blueprints))
	for _, bp := range list.Blueprints {
		rows = append(rows, []string{bp.ID, bp.Name, bp.Status})
	}
	output.Table([]string{"ID", "NAME", "STATUS"}, rows)
	return nil
}

func runBlueprintGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	bp, err := newAPIClient().Blueprints.Retrieve(ctx, blueprintGetID)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(bp)
	}

	output.Status("ID", bp.ID)
	output.Status("Name", bp.Name)
	output.Status("Status", bp.Status)
	return nil
}

func runBlueprintLogs(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	logs, err := newAPIClient().Blueprints.Logs(ctx, blueprintLogsID)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(logs)
	}

	for _, line := range logs.Logs {
		output.Println(line.Message)
	}
	return nil
}
