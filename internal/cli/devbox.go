package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/runloop/rl-cli/internal/api"
	"github.com/runloop/rl-cli/internal/constants"
	"github.com/runloop/rl-cli/internal/domain"
	"github.com/runloop/rl-cli/internal/sshutil"
	"github.com/spf13/cobra"
)

var devboxCmd = &cobra.Command{
	Use:   "devbox",
	Short: "Manage devboxes",
	Long: `Manage devboxes, the platform's ephemeral compute sandboxes.

A devbox is created from a blueprint or snapshot, runs commands, and
can be suspended, resumed, and shut down.`,
}

var (
	devboxCreateEntrypoint    string
	devboxCreateEnvVars       []string
	devboxCreateBlueprintID   string
	devboxCreateBlueprintName string
	devboxCreateSnapshotID    string
	devboxCreateLaunchCmds    []string
	devboxCreateResourceSize  string
	devboxCreateArchitecture  string
	devboxCreateIdleSeconds   int
	devboxCreateIdleAction    string
	devboxCreateWait          bool

	devboxListStatus string
	devboxListLimit  int

	devboxGetID      string
	devboxLogsID     string
	devboxSuspendID  string
	devboxResumeID   string
	devboxShutdownID string
)

var devboxCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a devbox",
	RunE:  runDevboxCreate,
}

var devboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List devboxes",
	RunE:  runDevboxList,
}

var devboxGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show a devbox's status",
	RunE:  runDevboxGet,
}

var devboxLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show a devbox's logs",
	RunE:  runDevboxLogs,
}

var devboxSuspendCmd = &cobra.Command{
	Use:   "suspend",
	Short: "Suspend a running devbox",
	RunE:  runDevboxSuspend,
}

var devboxResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a suspended devbox",
	RunE:  runDevboxResume,
}

var devboxShutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Shut a devbox down",
	RunE:  runDevboxShutdown,
}

func init() {
	devboxCreateCmd.Flags().StringVar(&devboxCreateEntrypoint, "entrypoint", "", "command to run on startup")
	devboxCreateCmd.Flags().StringArrayVar(&devboxCreateEnvVars, "env", nil, "environment variable KEY=VALUE (repeatable)")
	devboxCreateCmd.Flags().StringVar(&devboxCreateBlueprintID, "blueprint_id", "", "blueprint id to build from")
	devboxCreateCmd.Flags().StringVar(&devboxCreateBlueprintName, "blueprint_name", "", "blueprint name to build from")
	devboxCreateCmd.Flags().StringVar(&devboxCreateSnapshotID, "snapshot_id", "", "disk snapshot id to restore")
	devboxCreateCmd.Flags().StringArrayVar(&devboxCreateLaunchCmds, "launch_commands", nil, "command to run during launch (repeatable)")
	devboxCreateCmd.Flags().StringVar(&devboxCreateResourceSize, "resource_size", "", "resource size request")
	devboxCreateCmd.Flags().StringVar(&devboxCreateArchitecture, "architecture", "", "cpu architecture (x86_64, arm64)")
	devboxCreateCmd.Flags().IntVar(&devboxCreateIdleSeconds, "idle_time_seconds", 0, "idle time before the idle action fires")
	devboxCreateCmd.Flags().StringVar(&devboxCreateIdleAction, "idle_action", "", "action after idling (shutdown, suspend)")
	devboxCreateCmd.Flags().BoolVar(&devboxCreateWait, "wait", false, "wait until the devbox is running")

	devboxListCmd.Flags().StringVar(&devboxListStatus, "status", "", "filter by status")
	devboxListCmd.Flags().IntVar(&devboxListLimit, "limit", constants.DefaultListLimit, "maximum number of devboxes to return")

	devboxGetCmd.Flags().StringVar(&devboxGetID, "id", "", "devbox id (required)")
	devboxGetCmd.MarkFlagRequired("id")
	devboxLogsCmd.Flags().StringVar(&devboxLogsID, "id", "", "devbox id (required)")
	devboxLogsCmd.MarkFlagRequired("id")
	devboxSuspendCmd.Flags().StringVar(&devboxSuspendID, "id", "", "devbox id (required)")
	devboxSuspendCmd.MarkFlagRequired("id")
	devboxResumeCmd.Flags().StringVar(&devboxResumeID, "id", "", "devbox id (required)")
	devboxResumeCmd.MarkFlagRequired("id")
	devboxShutdownCmd.Flags().StringVar(&devboxShutdownID, "id", "", "devbox id (required)")
	devboxShutdownCmd.MarkFlagRequired("id")

	devboxCmd.AddCommand(devboxCreateCmd)
	devboxCmd.AddCommand(devboxListCmd)
	devboxCmd.AddCommand(devboxGetCmd)
	devboxCmd.AddCommand(devboxLogsCmd)
	devboxCmd.AddCommand(devboxSuspendCmd)
	devboxCmd.AddCommand(devboxResumeCmd)
	devboxCmd.AddCommand(devboxShutdownCmd)
	devboxCmd.AddCommand(devboxExecCmd)
	devboxCmd.AddCommand(devboxExecAsyncCmd)
	devboxCmd.AddCommand(devboxGetAsyncCmd)
	devboxCmd.AddCommand(devboxSendStdinCmd)
	devboxCmd.AddCommand(devboxSSHCmd)
	devboxCmd.AddCommand(devboxSCPCmd)
	devboxCmd.AddCommand(devboxRsyncCmd)
	devboxCmd.AddCommand(devboxTunnelCmd)
	devboxCmd.AddCommand(devboxSnapshotCmd)
}

// parseEnvVars turns repeated KEY=VALUE flags into a map
func parseEnvVars(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	envVars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, domain.Errorf(domain.ErrInvalidArgs, "invalid --env value %q, expected KEY=VALUE", pair)
		}
		envVars[key] = value
	}
	return envVars, nil
}

func runDevboxCreate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	envVars, err := parseEnvVars(devboxCreateEnvVars)
	if err != nil {
		return err
	}

	req := api.DevboxCreateRequest{
		Entrypoint:           devboxCreateEntrypoint,
		EnvironmentVariables: envVars,
		BlueprintID:          devboxCreateBlueprintID,
		BlueprintName:        devboxCreateBlueprintName,
		SnapshotID:           devboxCreateSnapshotID,
	}

	if len(devboxCreateLaunchCmds) > 0 || devboxCreateResourceSize != "" ||
		devboxCreateArchitecture != "" || devboxCreateIdleAction != "" {
		params := &domain.LaunchParameters{
			LaunchCommands:      devboxCreateLaunchCmds,
			ResourceSizeRequest: devboxCreateResourceSize,
			Architecture:        devboxCreateArchitecture,
		}
		if devboxCreateIdleAction != "" {
			params.AfterIdle = &domain.AfterIdle{
				IdleTimeSeconds: devboxCreateIdleSeconds,
				OnIdle:          devboxCreateIdleAction,
			}
		}
		req.LaunchParameters = params
	}

	client := newAPIClient()
	devbox, err := client.Devboxes.Create(ctx, req)
	if err != nil {
		return err
	}

	if devboxCreateWait {
		output.Notice("Waiting for devbox %s to become ready...", devbox.ID)
		err = sshutil.WaitForReady(ctx, client.Devboxes, devbox.ID,
			constants.DefaultReadyTimeoutSeconds*time.Second,
			constants.DefaultPollIntervalSeconds*time.Second)
		if err != nil {
			return err
		}
		devbox, err = client.Devboxes.Retrieve(ctx, devbox.ID)
		if err != nil {
			return err
		}
	}

	if output.IsJSON() {
		return output.JSON(devbox)
	}

	output.Success("Created devbox %s (%s)", devbox.ID, devbox.Status)
	return nil
}

func runDevboxList(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	list, err := newAPIClient().Devboxes.List(ctx, api.DevboxListParams{
		Status: devboxListStatus,
		Limit:  devboxListLimit,
	})
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(list)
	}

	if len(list.Devboxes) == 0 {
		output.Println("No devboxes found")
		return nil
	}

	rows := make([][]string, 0, len(list.Devboxes))
	for _, d := range list.Devboxes {
		created := ""
		if d.CreateTimeMs > 0 {
			created = time.UnixMilli(d.CreateTimeMs).Format(time.RFC3339)
		}
		rows = append(rows, []string{d.ID, d.Name, string(d.Status), created})
	}
	output.Table([]string{"ID", "NAME", "STATUS", "CREATED"}, rows)

	return nil
}

func runDevboxGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	devbox, err := newAPIClient().Devboxes.Retrieve(ctx, devboxGetID)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(devbox)
	}

	output.Status("ID", devbox.ID)
	output.Status("Name", devbox.Name)
	output.Status("Status", string(devbox.Status))
	if devbox.BlueprintID != "" {
		output.Status("Blueprint", devbox.BlueprintID)
	}
	if devbox.SnapshotID != "" {
		output.Status("Snapshot", devbox.SnapshotID)
	}
	if devbox.CreateTimeMs > 0 {
		output.Status("Created", time.UnixMilli(devbox.CreateTimeMs).Format(time.RFC3339))
	}
	return nil
}

func runDevboxLogs(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	logs, err := newAPIClient().Devboxes.Logs(ctx, devboxLogsID)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(logs)
	}

	for _, entry := range logs.Logs {
		ts := time.UnixMilli(entry.TimestampMs).Format(time.RFC3339)
		line := entry.Message
		if entry.Cmd != "" {
			line = entry.Cmd
		}
		if entry.ExitCode != nil {
			line = fmt.Sprintf("%s (exit %d)", line, *entry.ExitCode)
		}
		output.Printf("%s %-10s %s\n", ts, entry.Source, line)
	}
	return nil
}

func runDevboxSuspend(cmd *cobra.Command, args []string) error {
	return runDevboxLifecycle(devboxSuspendID, "Suspended",
		func(c *api.Client) lifecycleFn { return c.Devboxes.Suspend })
}

func runDevboxResume(cmd *cobra.Command, args []string) error {
	return runDevboxLifecycle(devboxResumeID, "Resumed",
		func(c *api.Client) lifecycleFn { return c.Devboxes.Resume })
}

func runDevboxShutdown(cmd *cobra.Command, args []string) error {
	return runDevboxLifecycle(devboxShutdownID, "Shut down",
		func(c *api.Client) lifecycleFn { return c.Devboxes.Shutdown })
}

type lifecycleFn = func(ctx context.Context, id string) (*domain.Devbox, error)

func runDevboxLifecycle(id, verb string, pick func(*api.Client) lifecycleFn) error {
	ctx, cancel := signalContext()
	defer cancel()

	devbox, err := pick(newAPIClient())(ctx, id)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(devbox)
	}

	output.Success("%s devbox %s (%s)", verb, devbox.ID, devbox.Status)
	return nil
}
