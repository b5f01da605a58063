package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/scheduler"
	"github.com/MrSnakeDoc/daylog/internal/sources/archive"
)

func addImport(topLevel *cobra.Command, env *Env) {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a YAML archive, every owner it names.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := archive.NewLoader(args[0]).Load()
			if err != nil {
				return err
			}
			return withOffline(cmd.Context(), env, false, func(o *offline) error {
				result, err := scheduler.ImportFile(cmd.Context(), file, archive.NewMapper(), o.workspaces, o.log)
				if err != nil {
					return err
				}
				if env.JSON {
					return printJSON(env.Out, result)
				}
				printDone(env.Out, "imported %d entries for %d owners (%d skipped)",
					result.Imported, result.Owners, result.Skipped)
				return nil
			})
		},
	}
	topLevel.AddCommand(cmd)
}

func addExport(topLevel *cobra.Command, env *Env) {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every entry of the owner as a YAML archive.",
		Example: `
daylog export --owner alice > alice.yaml
daylog export --owner alice --out backup/alice.yaml
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if env.JSON {
				return errors.New("export writes YAML, --json is not supported")
			}
			return withOffline(cmd.Context(), env, true, func(o *offline) error {
				entries, err := o.workspaces.Export(cmd.Context(), o.owner)
				if err != nil {
					return err
				}
				file := archive.Build([]archive.OwnerEntries{{Owner: o.owner, Entries: entries}})
				if out == "" {
					return archive.Encode(env.Out, file)
				}
				if err := archive.WriteFile(out, file); err != nil {
					return err
				}
				printDone(env.Out, "exported %d entries to %s", countExisting(entries), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Write to this file instead of stdout.")
	topLevel.AddCommand(cmd)
}

func countExisting(entries []domain.DiaryEntry) int {
	n := 0
	for _, e := range entries {
		if e.Exists {
			n++
		}
	}
	return n
}
