package cli

import (
	"github.com/runloop/rl-cli/internal/api"
	"github.com/runloop/rl-cli/internal/domain"
	"github.com/spf13/cobra"
)

var (
	execID      string
	execCommand string
	execShell   string

	execAsyncID      string
	execAsyncCommand string
	execAsyncShell   string

	getAsyncDevboxID    string
	getAsyncExecutionID string

	stdinDevboxID    string
	stdinExecutionID string
	stdinText        string
	stdinSignal      string
)

var devboxExecCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run a command on a devbox and wait",
	RunE:  runDevboxExec,
}

var devboxExecAsyncCmd = &cobra.Command{
	Use:   "exec_async",
	Short: "Start a command on a devbox without waiting",
	RunE:  runDevboxExecAsync,
}

var devboxGetAsyncCmd = &cobra.Command{
	Use:   "get_async",
	Short: "Show the status of an async execution",
	RunE:  runDevboxGetAsync,
}

var devboxSendStdinCmd = &cobra.Command{
	Use:   "send_stdin",
	Short: "Send input or a signal to an async execution",
	RunE:  runDevboxSendStdin,
}

func init() {
	devboxExecCmd.Flags().StringVar(&execID, "id", "", "devbox id (required)")
	devboxExecCmd.MarkFlagRequired("id")
	devboxExecCmd.Flags().StringVar(&execCommand, "command", "", "command to run (required)")
	devboxExecCmd.MarkFlagRequired("command")
	devboxExecCmd.Flags().StringVar(&execShell, "shell_name", "", "named shell to run in")

	devboxExecAsyncCmd.Flags().StringVar(&execAsyncID, "id", "", "devbox id (required)")
	devboxExecAsyncCmd.MarkFlagRequired("id")
	devboxExecAsyncCmd.Flags().StringVar(&execAsyncCommand, "command", "", "command to run (required)")
	devboxExecAsyncCmd.MarkFlagRequired("command")
	devboxExecAsyncCmd.Flags().StringVar(&execAsyncShell, "shell_name", "", "named shell to run in")

	devboxGetAsyncCmd.Flags().StringVar(&getAsyncDevboxID, "id", "", "devbox id (required)")
	devboxGetAsyncCmd.MarkFlagRequired("id")
	devboxGetAsyncCmd.Flags().StringVar(&getAsyncExecutionID, "execution_id", "", "execution id (required)")
	devboxGetAsyncCmd.MarkFlagRequired("execution_id")

	devboxSendStdinCmd.Flags().StringVar(&stdinDevboxID, "id", "", "devbox id (required)")
	devboxSendStdinCmd.MarkFlagRequired("id")
	devboxSendStdinCmd.Flags().StringVar(&stdinExecutionID, "execution_id", "", "execution id (required)")
	devboxSendStdinCmd.MarkFlagRequired("execution_id")
	devboxSendStdinCmd.Flags().StringVar(&stdinText, "text", "", "text to write to stdin")
	devboxSendStdinCmd.Flags().StringVar(&stdinSignal, "signal", "", "signal to deliver (e.g. SIGINT)")
}

func runDevboxExec(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	exec, err := newAPIClient().Devboxes.ExecuteSync(ctx, execID, api.ExecuteRequest{
		Command:   execCommand,
		ShellName: execShell,
	})
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(exec)
	}

	printExecution(exec)
	return nil
}

func runDevboxExecAsync(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	exec, err := newAPIClient().Devboxes.ExecuteAsync(ctx, execAsyncID, api.ExecuteRequest{
		Command:   execAsyncCommand,
		ShellName: execAsyncShell,
	})
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(exec)
	}

	output.Success("Started execution %s on devbox %s", exec.ExecutionID, execAsyncID)
	output.Printf("Check it with: rl devbox get_async --id %s --execution_id %s\n", execAsyncID, exec.ExecutionID)
	return nil
}

func runDevboxGetAsync(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	exec, err := newAPIClient().Devboxes.RetrieveExecution(ctx, getAsyncDevboxID, getAsyncExecutionID)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(exec)
	}

	printExecution(exec)
	return nil
}

func runDevboxSendStdin(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if (stdinText == "") == (stdinSignal == "") {
		return domain.Errorf(domain.ErrInvalidArgs, "exactly one of --text or --signal is required")
	}

	err := newAPIClient().Devboxes.SendStdin(ctx, stdinDevboxID, stdinExecutionID, api.SendStdinRequest{
		Text:   stdinText,
		Signal: stdinSignal,
	})
	if err != nil {
		return err
	}

	output.Success("Sent to execution %s", stdinExecutionID)
	return nil
}

// printExecution renders an execution result, stdout to stdout and
// stderr to stderr so shell pipelines compose.
func printExecution(exec *domain.DevboxExecution) {
	if exec.Stdout != "" {
		output.Printf("%s", exec.Stdout)
	}
	if exec.Stderr != "" {
		output.Notice("%s", exec.Stderr)
	}
	if exec.Status != "" && exec.ExitStatus == nil {
		output.Status("Status", exec.Status)
	}
	if exec.ExitStatus != nil && *exec.ExitStatus != 0 {
		output.Notice("Command exited with status %d", *exec.ExitStatus)
	}
}
