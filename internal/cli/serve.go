package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/daylog/internal/app"
	"github.com/MrSnakeDoc/daylog/internal/config"
)

func addServe(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service.",
		Long: `Run the HTTP service. Configuration is read from DAYLOG_* environment
variables, optionally overlaid by a dotenv file (DAYLOG_ENV_FILE).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), config.Load())
			if err != nil {
				return err
			}
			return a.Run()
		},
	}
	topLevel.AddCommand(cmd)
}
