package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/daylog/internal/render"
)

func addTags(topLevel *cobra.Command, env *Env) {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List the tags of every entry.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOffline(cmd.Context(), env, true, func(o *offline) error {
				summaries, err := o.workspaces.Tags(cmd.Context(), o.owner)
				if err != nil {
					return err
				}
				if env.JSON {
					return printJSON(env.Out, summaries)
				}
				printTags(env.Out, summaries)
				return nil
			})
		},
	}
	topLevel.AddCommand(cmd)
}

func addCollection(topLevel *cobra.Command, env *Env) {
	var html bool

	cmd := &cobra.Command{
		Use:     "collection <tag>",
		Aliases: []string{"c"},
		Short:   "Print every segment written under a tag, oldest first.",
		Example: `
daylog collection work
daylog collection work --html --json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := args[0]
			return withOffline(cmd.Context(), env, true, func(o *offline) error {
				items, err := o.workspaces.Collection(cmd.Context(), o.owner, tag)
				if err != nil {
					return err
				}
				if html {
					rendered, err := render.Collection(items)
					if err != nil {
						return err
					}
					return printJSON(env.Out, rendered)
				}
				if env.JSON {
					return printJSON(env.Out, items)
				}
				printCollection(env.Out, tag, items)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "Render each segment's markdown to HTML (JSON output).")
	topLevel.AddCommand(cmd)
}
