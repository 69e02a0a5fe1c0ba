/* cmd/snapshot.go */

package cmd

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/display"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/fileops"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_cli"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_io"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/versionlog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSnapshotCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot [command]",
		Short: "Record the manifest version and dependencies in the version log",
		Long: `Prepend a snapshot of the manifest version, Go toolchain and dependency sets
to the version log. The optional argument labels the snapshot; it defaults to
"Manual Update".`,
		Args: optionalMessage,
		RunE: rel_cli.Wrap(func(rc *rel_io.RuntimeContext, cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rc, cmd, v)
			if err != nil {
				return err
			}

			rec := &versionlog.Recorder{
				FS:           fileops.NewFileSystemOperations(cfg.RepositoryRoot, rc.Log),
				ManifestPath: cfg.ManifestPath,
				LogPath:      cfg.VersionLogPath,
			}
			snap, err := rec.Record(rc.Ctx, messageArg(args))
			if err != nil {
				return err
			}
			rc.Attributes["version"] = snap.Version
			fmt.Fprint(cmd.OutOrStdout(), display.Snapshot(snap, cfg.VersionLogPath))
			return nil
		}),
	}
}
