// Package preflight verifies that the external tools a run needs are installed.
package preflight

import (
	"fmt"
	"os/exec"

	"github.com/kebairia/mongomail/internal/failure"
)

// LookPathFunc resolves an executable name to a path, like exec.LookPath.
type LookPathFunc func(file string) (string, error)

// Check resolves every tool with lookPath (exec.LookPath when nil) and
// returns their paths keyed by name. The first tool that cannot be resolved
// fails the check with a tool-missing error naming it.
func Check(lookPath LookPathFunc, tools ...string) (map[string]string, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	found := make(map[string]string, len(tools))
	for _, tool := range tools {
		path, err := lookPath(tool)
		if err != nil {
			return nil, failure.ToolMissing(fmt.Sprintf("required tool %q not found", tool), err)
		}
		found[tool] = path
	}
	return found, nil
}
