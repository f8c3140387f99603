package cli

import (
	"github.com/runloop/rl-cli/internal/objects"
	"github.com/spf13/cobra"
)

var (
	uploadPath        string
	uploadName        string
	uploadContentType string
)

var objectUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a file as a new object",
	Long: `Upload a local file as a new object.

The content type is inferred from the file name unless --content_type
is given. After the upload the object is read-only.`,
	RunE: runObjectUpload,
}

func init() {
	objectUploadCmd.Flags().StringVar(&uploadPath, "path", "", "local file to upload (required)")
	objectUploadCmd.MarkFlagRequired("path")
	objectUploadCmd.Flags().StringVar(&uploadName, "name", "", "object name (default: file name)")
	objectUploadCmd.Flags().StringVar(&uploadContentType, "content_type", "", "content type override (text, binary, gzip, tar, tgz)")
}

func runObjectUpload(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	svc := newObjectService(newAPIClient())

	obj, err := svc.Upload(ctx, objects.UploadOptions{
		Path:        uploadPath,
		Name:        uploadName,
		ContentType: uploadContentType,
	})
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(obj)
	}

	output.Success("Uploaded %s as object %s", uploadPath, obj.ID)
	printObject(obj)
	return nil
}
