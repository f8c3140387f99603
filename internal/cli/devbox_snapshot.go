package cli

import (
	"github.com/spf13/cobra"
)

var devboxSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage devbox disk snapshots",
}

var (
	snapshotCreateID string
	snapshotStatusID string
)

var devboxSnapshotCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start a disk snapshot of a devbox",
	RunE:  runDevboxSnapshotCreate,
}

var devboxSnapshotStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a snapshot's status",
	RunE:  runDevboxSnapshotStatus,
}

var devboxSnapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List disk snapshots",
	RunE:  runDevboxSnapshotList,
}

func init() {
	devboxSnapshotCreateCmd.Flags().StringVar(&snapshotCreateID, "id", "", "devbox id (required)")
	devboxSnapshotCreateCmd.MarkFlagRequired("id")

	devboxSnapshotStatusCmd.Flags().StringVar(&snapshotStatusID, "id", "", "snapshot id (required)")
	devboxSnapshotStatusCmd.MarkFlagRequired("id")

	devboxSnapshotCmd.AddCommand(devboxSnapshotCreateCmd)
	devboxSnapshotCmd.AddCommand(devboxSnapshotStatusCmd)
	devboxSnapshotCmd.AddCommand(devboxSnapshotListCmd)
}

func runDevboxSnapshotCreate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	snap, err := newAPIClient().Devboxes.SnapshotDisk(ctx, snapshotCreateID)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(snap)
	}

	output.Success("Started snapshot %s of devbox %s", snap.ID, snapshotCreateID)
	output.Printf("Check it with: rl devbox snapshot status --id %s\n", snap.ID)
	return nil
}

func runDevboxSnapshotStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	snap, err := newAPIClient().Devboxes.SnapshotStatus(ctx, snapshotStatusID)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(snap)
	}

	output.Status("ID", snap.ID)
	output.Status("Devbox", snap.DevboxID)
	output.Status("Status", snap.Status)
	return nil
}

func runDevboxSnapshotList(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	list, err := newAPIClient().Devboxes.ListSnapshots(ctx)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(list)
	}

	if len(list.Snapshots) == 0 {
		output.Println("No snapshots found")
		return nil
	}

	rows := make([][]string, 0, len(list.Snapshots))
	for _, s := range list.Snapshots {
		rows = append(rows, []string{s.ID, s.DevboxID, s.Status})
	}
	output.Table([]string{"ID", "DEVBOX", "STATUS"}, rows)
	return nil
}
