package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/daylog/internal/version"
)

func addVersion(topLevel *cobra.Command, env *Env) {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if env.JSON {
				return printJSON(env.Out, info)
			}
			_, err := fmt.Fprintln(env.Out, info)
			return err
		},
	}
	topLevel.AddCommand(cmd)
}
