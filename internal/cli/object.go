package cli

import (
	"fmt"
	"time"

	"github.com/runloop/rl-cli/internal/api"
	"github.com/runloop/rl-cli/internal/constants"
	"github.com/runloop/rl-cli/internal/domain"
	"github.com/runloop/rl-cli/internal/ui"
	"github.com/spf13/cobra"
)

var objectCmd = &cobra.Command{
	Use:   "object",
	Short: "Manage file objects",
	Long: `Manage file objects stored on the platform.

Objects are immutable file artifacts: uploaded once, then read-only
until deleted.`,
}

var (
	objectGetID string

	objectListLimit         int
	objectListStartingAfter string
	objectListName          string
	objectListContentType   string
	objectListState         string
	objectListSearch        string
	objectListPublic        bool

	objectDeleteID    string
	objectDeleteForce bool

	objectCompleteID string
)

var objectGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show an object's metadata",
	RunE:  runObjectGet,
}

var objectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List objects",
	RunE:  runObjectList,
}

var objectDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete an object",
	Long: `Delete an object permanently.

Deletion is irreversible; the command asks for confirmation unless
--force is given.`,
	RunE: runObjectDelete,
}

var objectCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Mark an interrupted upload complete",
	Long: `Mark an object whose upload finished but whose completion call
failed as complete, transitioning it from UPLOADING to READ_ONLY.`,
	RunE: runObjectComplete,
}

func init() {
	objectGetCmd.Flags().StringVar(&objectGetID, "id", "", "object id (required)")
	objectGetCmd.MarkFlagRequired("id")

	objectListCmd.Flags().IntVar(&objectListLimit, "limit", constants.DefaultListLimit, "maximum number of objects to return")
	objectListCmd.Flags().StringVar(&objectListStartingAfter, "starting_after", "", "object id to start the page after")
	objectListCmd.Flags().StringVar(&objectListName, "name", "", "filter by exact name")
	objectListCmd.Flags().StringVar(&objectListContentType, "content_type", "", "filter by content type")
	objectListCmd.Flags().StringVar(&objectListState, "state", "", "filter by state (UPLOADING, READ_ONLY, DELETED)")
	objectListCmd.Flags().StringVar(&objectListSearch, "search", "", "filter by name substring")
	objectListCmd.Flags().BoolVar(&objectListPublic, "public", false, "list public objects instead of your own")

	objectDeleteCmd.Flags().StringVar(&objectDeleteID, "id", "", "object id (required)")
	objectDeleteCmd.MarkFlagRequired("id")
	objectDeleteCmd.Flags().BoolVar(&objectDeleteForce, "force", false, "skip the confirmation prompt")

	objectCompleteCmd.Flags().StringVar(&objectCompleteID, "id", "", "object id (required)")
	objectCompleteCmd.MarkFlagRequired("id")

	objectCmd.AddCommand(objectUploadCmd)
	objectCmd.AddCommand(objectDownloadCmd)
	objectCmd.AddCommand(objectGetCmd)
	objectCmd.AddCommand(objectListCmd)
	objectCmd.AddCommand(objectDeleteCmd)
	objectCmd.AddCommand(objectCompleteCmd)
}

func runObjectGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	obj, err := newAPIClient().Objects.Retrieve(ctx, objectGetID)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(obj)
	}

	printObject(obj)
	return nil
}

func runObjectList(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	params := api.ObjectListParams{
		Limit:         objectListLimit,
		StartingAfter: objectListStartingAfter,
		Name:          objectListName,
		ContentType:   objectListContentType,
		State:         objectListState,
		Search:        objectListSearch,
	}

	client := newAPIClient()
	var list *domain.ObjectList
	var err error
	if objectListPublic {
		list, err = client.Objects.ListPublic(ctx, params)
	} else {
		list, err = client.Objects.List(ctx, params)
	}
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(list)
	}

	if len(list.Objects) == 0 {
		output.Println("No objects found")
		return nil
	}

	rows := make([][]string, 0, len(list.Objects))
	for _, obj := range list.Objects {
		rows = append(rows, []string{
			obj.ID,
			obj.Name,
			obj.ContentType,
			string(obj.State),
			ui.FormatBytes(obj.SizeBytes),
		})
	}
	output.Table([]string{"ID", "NAME", "CONTENT TYPE", "STATE", "SIZE"}, rows)

	if list.HasMore {
		output.Println()
		last := list.Objects[len(list.Objects)-1]
		output.Printf("More results available; continue with --starting_after %s\n", last.ID)
	}

	return nil
}

func runObjectDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if !objectDeleteForce {
		if !ui.CanPrompt() {
			return fmt.Errorf("delete requires confirmation; use --force in non-interactive mode")
		}

		prompt := ui.NewPrompt()
		confirmed, err := prompt.ConfirmDanger(fmt.Sprintf("This permanently deletes object %s.", objectDeleteID))
		if err != nil {
			return err
		}
		if !confirmed {
			return domain.Errorf(domain.ErrUserCancelled, "delete of %s", objectDeleteID)
		}
	}

	obj, err := newAPIClient().Objects.Delete(ctx, objectDeleteID)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(obj)
	}

	output.Success("Deleted object %s", obj.ID)
	return nil
}

func runObjectComplete(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	obj, err := newAPIClient().Objects.Complete(ctx, objectCompleteID)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(obj)
	}

	output.Success("Object %s is now %s", obj.ID, obj.State)
	return nil
}

// printObject renders object metadata as status lines
func printObject(obj *domain.Object) {
	output.Status("ID", obj.ID)
	output.Status("Name", obj.Name)
	output.Status("Content type", obj.ContentType)
	output.Status("State", string(obj.State))
	output.Status("Size", ui.FormatBytes(obj.SizeBytes))
	if !obj.CreatedAt.IsZero() {
		output.Status("Created", obj.CreatedAt.Format(time.RFC3339))
	}
	if obj.Public {
		output.Status("Public", "yes")
	}
}
