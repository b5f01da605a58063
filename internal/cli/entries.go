package cli

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/daylog/internal/domain"
)

func addGet(topLevel *cobra.Command, env *Env) {
	cmd := &cobra.Command{
		Use:   "get [date]",
		Short: "Print the entry of a day.",
		Example: `
daylog get
daylog get 2024-01-05
daylog get 2024-1-5 --json
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateArg(args)
			if err != nil {
				return err
			}
			return withOffline(cmd.Context(), env, true, func(o *offline) error {
				entry, err := o.workspaces.Fetch(cmd.Context(), o.owner, date)
				if err != nil {
					return err
				}
				if env.JSON {
					return printJSON(env.Out, entry)
				}
				printEntry(env.Out, entry)
				return nil
			})
		},
	}
	topLevel.AddCommand(cmd)
}

func addPut(topLevel *cobra.Command, env *Env) {
	var file string

	cmd := &cobra.Command{
		Use:   "put <date> [content]",
		Short: "Overwrite the entry of a day.",
		Long: `Overwrite the entry of a day. Content comes from the argument,
from --file, or from stdin when neither is given.`,
		Example: `
daylog put today "#work
shipped the importer"
daylog put 2024-01-05 --file notes.md
cat notes.md | daylog put 2024-01-05
`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateArg(args)
			if err != nil {
				return err
			}
			content, err := readContent(env, args[1:], file)
			if err != nil {
				return err
			}
			return withOffline(cmd.Context(), env, true, func(o *offline) error {
				if err := o.workspaces.Save(cmd.Context(), o.owner, date, content); err != nil {
					return err
				}
				if env.JSON {
					return printJSON(env.Out, domain.DiaryEntry{Date: date, Content: content, Exists: true})
				}
				printDone(env.Out, "saved %s", date)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the content from a file.")
	topLevel.AddCommand(cmd)
}

func readContent(env *Env, args []string, file string) (string, error) {
	switch {
	case len(args) > 0 && file != "":
		return "", errors.New("give the content either as argument or with --file, not both")
	case len(args) > 0:
		return args[0], nil
	case file != "":
		b, err := os.ReadFile(file)
		return strings.TrimSuffix(string(b), "\n"), err
	default:
		b, err := io.ReadAll(env.In)
		return strings.TrimSuffix(string(b), "\n"), err
	}
}
