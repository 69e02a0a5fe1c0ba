/* cmd/pre.go */

package cmd

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/display"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_cli"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_io"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPreCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "pre [message]",
		Short: "Tag the current version as a beta pre-release",
		Long: `Tag the current, unbumped version as v{version}-beta.1 and push tags only.
The manifest and changelog are left untouched. Running it twice on the same
version fails because the tag already exists.`,
		Args: optionalMessage,
		RunE: rel_cli.Wrap(func(rc *rel_io.RuntimeContext, cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rc, cmd, v)
			if err != nil {
				return err
			}
			pub, err := newPublisher(rc, cfg)
			if err != nil {
				return err
			}

			res, err := pub.PreRelease(rc.Ctx, messageArg(args))
			if res != nil {
				rc.Attributes["tag"] = res.Tag
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), display.Summary(res))
			return nil
		}),
	}
}
