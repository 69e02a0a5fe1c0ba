/* cmd/release.go */

package cmd

import (
	"fmt"
	"strings"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/config"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/display"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/fileops"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/publisher"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_cli"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_err"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_io"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/vcs"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newMajorCmd(v *viper.Viper) *cobra.Command {
	return newReleaseCmd(v, "major", "Release the next major version")
}

func newMinorCmd(v *viper.Viper) *cobra.Command {
	return newReleaseCmd(v, "minor", "Release the next minor version")
}

func newPatchCmd(v *viper.Viper) *cobra.Command {
	return newReleaseCmd(v, "patch", "Release the next patch version")
}

// newReleaseCmd builds a command that forces the magnitude named by its use.
func newReleaseCmd(v *viper.Viper, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " [message]",
		Short: short,
		Long: short + `, ignoring commit and dependency evidence.
The optional message replaces the generated headline and tag message.`,
		Args: optionalMessage,
		RunE: rel_cli.Wrap(func(rc *rel_io.RuntimeContext, cmd *cobra.Command, args []string) error {
			forced, err := version.ParseMagnitude(cmd.Name())
			if err != nil {
				return err
			}
			return runRelease(rc, cmd, v, &forced, args)
		}),
	}
}

func newAutoCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "auto [message]",
		Short: "Classify the release from repository evidence and publish it",
		Long: `Classify the pending release and publish it.

Precedence, first match wins:
  dependencies changed or error-fix commits  major
  feature commits                            minor
  otherwise                                  patch`,
		Args: optionalMessage,
		RunE: rel_cli.Wrap(func(rc *rel_io.RuntimeContext, cmd *cobra.Command, args []string) error {
			return runRelease(rc, cmd, v, nil, args)
		}),
	}
}

func runRelease(rc *rel_io.RuntimeContext, cmd *cobra.Command, v *viper.Viper, forced *version.Magnitude, args []string) error {
	cfg, err := loadConfig(rc, cmd, v)
	if err != nil {
		return err
	}
	pub, err := newPublisher(rc, cfg)
	if err != nil {
		return err
	}

	res, err := pub.Release(rc.Ctx, publisher.Options{Forced: forced, Message: messageArg(args)})
	if res != nil {
		rc.Attributes["version"] = res.Next.String()
		rc.Attributes["tag"] = res.Tag
	}
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), display.Summary(res))
	return nil
}

// optionalMessage accepts at most one positional argument.
func optionalMessage(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return rel_err.NewExpectedError(fmt.Errorf("%s takes at most one message argument, got %d (quote the message)", cmd.Name(), len(args)))
	}
	return nil
}

func messageArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSpace(args[0])
}

// loadConfig binds the command's flags and resolves the configuration.
func loadConfig(rc *rel_io.RuntimeContext, cmd *cobra.Command, v *viper.Viper) (*config.Config, error) {
	if err := rel_cli.BindFlagsToViper(cmd.Flags(), v); err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, rel_err.NewExpectedError(err)
	}
	rc.Log.Debug("Configuration resolved",
		zap.String("repo", cfg.RepositoryRoot),
		zap.String("backend", cfg.Backend),
		zap.String("manifest", cfg.ManifestPath),
		zap.String("changelog", cfg.ChangelogPath),
		zap.String("config_file", cfg.Source),
		zap.Bool("dry_run", cfg.DryRun))
	return cfg, nil
}

func newBackend(rc *rel_io.RuntimeContext, cfg *config.Config) (vcs.Backend, error) {
	if cfg.Backend == config.BackendNative {
		n, err := vcs.OpenNative(cfg.RepositoryRoot)
		if err != nil {
			return nil, rel_err.NewExpectedError(err)
		}
		return n, nil
	}
	return vcs.NewGitCLI(cfg.RepositoryRoot, rc.Log), nil
}

func newPublisher(rc *rel_io.RuntimeContext, cfg *config.Config) (*publisher.Publisher, error) {
	backend, err := newBackend(rc, cfg)
	if err != nil {
		return nil, err
	}
	return &publisher.Publisher{
		Backend:         backend,
		FS:              fileops.NewFileSystemOperations(cfg.RepositoryRoot, rc.Log),
		Remote:          cfg.RemoteName,
		ManifestPath:    cfg.ManifestPath,
		ChangelogPath:   cfg.ChangelogPath,
		Window:          cfg.CommitWindow,
		HeadlineCommits: cfg.HeadlineCommits,
		DryRun:          cfg.DryRun,
	}, nil
}
