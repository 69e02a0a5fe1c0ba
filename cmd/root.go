/* cmd/root.go */

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/config"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/evidence"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_cli"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_err"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_io"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/versionlog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Prog is the program name used in diagnostics.
const Prog = "releasectl"

const validCommands = "major, minor, patch, auto, pre or snapshot"

// NewRootCmd builds the command tree. Configuration is resolved through v.
func NewRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:   Prog,
		Short: "Classify, version and publish releases from repository history",
		Long: `releasectl inspects commit history and dependency changes to decide whether a
release is major, minor or patch, bumps the manifest version, writes a changelog
entry, and publishes the result as a commit, an annotated tag and a push.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: rel_cli.Wrap(func(rc *rel_io.RuntimeContext, cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return rel_err.NewExpectedError(fmt.Errorf("unknown command %q (want %s)", args[0], validCommands))
			}
			fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
			return rel_err.NewExpectedError(fmt.Errorf("missing command (want %s)", validCommands))
		}),
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return rel_err.NewExpectedError(err)
	})

	pf := root.PersistentFlags()
	pf.StringP(config.KeyRepo, "C", config.DefaultRepo, "repository root")
	pf.String(config.KeyRemote, config.DefaultRemote, "remote to push to")
	pf.String(config.KeyManifest, config.DefaultManifest, "version manifest, relative to the repository root (.json, .yaml or .yml)")
	pf.String(config.KeyChangelog, config.DefaultChangelog, "changelog document, relative to the repository root")
	pf.String(config.KeyBackend, config.BackendGit, "version-control backend: git or native")
	pf.Int(config.KeyWindow, evidence.DefaultWindow, "number of recent commits the keyword probes inspect")
	pf.Int(config.KeyHeadlineCommits, evidence.DefaultHeadlineCommits, "number of commit subjects in the generated headline")
	pf.Bool(config.KeyDryRun, false, "print what would be released without writing or publishing anything")
	pf.String(config.KeyVersionLog, versionlog.DefaultPath, "version snapshot log, relative to the repository root")

	RegisterCommands(root, v)
	return root
}

// RegisterCommands adds all subcommands to root.
func RegisterCommands(root *cobra.Command, v *viper.Viper) {
	for _, sub := range []*cobra.Command{
		newMajorCmd(v),
		newMinorCmd(v),
		newPatchCmd(v),
		newAutoCmd(v),
		newPreCmd(v),
		newSnapshotCmd(v),
	} {
		root.AddCommand(sub)
	}
}

// Run executes the CLI with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(config.New())
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		rel_err.PrintError(stderr, Prog, err)
		return rel_err.ExitCode(err)
	}
	return rel_err.ExitOK
}

// Execute runs the CLI against the process arguments.
func Execute() int {
	defer func() {
		if err := logger.Sync(); err != nil {
			logger.L().Debug("Failed to flush logs", zap.Error(err))
		}
	}()

	logger.L().Debug("releasectl starting", zap.Strings("args", os.Args[1:]))
	return Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}
