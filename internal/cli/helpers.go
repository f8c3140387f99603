package cli

import (
	"io"
	"os"

	"github.com/runloop/rl-cli/internal/api"
	"github.com/runloop/rl-cli/internal/objects"
	"github.com/runloop/rl-cli/internal/transfer"
)

// devboxUser is the login user inside every devbox
const devboxUser = "user"

// newAPIClient builds the platform client from the loaded config
func newAPIClient() *api.Client {
	return api.NewClient(cfg)
}

// newObjectService wires the object orchestrator: API client plus a
// transfer client reporting progress to stderr (suppressed in JSON
// mode so scripted callers get clean streams).
func newObjectService(client *api.Client) *objects.Service {
	var progress io.Writer
	if !output.IsJSON() {
		progress = os.Stderr
	}

	return objects.NewService(client.Objects, transfer.NewClient(progress), output)
}
