// pkg/rel_cli/wrap.go

package rel_cli

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_err"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RunFunc is a command body that receives the per-run context.
type RunFunc func(rc *rel_io.RuntimeContext, cmd *cobra.Command, args []string) error

// Wrap adapts fn to cobra's RunE with a runtime context, panic recovery and
// stack annotation of unexpected errors.
func Wrap(fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		rc := rel_io.NewContext(parent, cmd.Name())
		defer rc.End(&err)

		defer rc.HandlePanic(&err)

		rc.Log.Debug("Command started",
			zap.String("path", cmd.CommandPath()),
			zap.Strings("args", args))

		err = fn(rc, cmd, args)
		if err != nil && !rel_err.IsExpectedUserError(err) {
			err = cerr.WithStack(err)
		}
		return err
	}
}
