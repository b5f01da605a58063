// Package cli holds the daylog command tree.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/daylog/internal/config"
	"github.com/MrSnakeDoc/daylog/internal/logger"
	"github.com/MrSnakeDoc/daylog/internal/store"
)

// Opener opens the entry store used by offline commands
type Opener func(ctx context.Context) (store.Backend, logger.Logger, error)

// Env is what every command shares
type Env struct {
	Out   io.Writer
	In    io.Reader
	Open  Opener
	Owner string
	JSON  bool
}

// OpenFromConfig loads the environment configuration and opens its store
func OpenFromConfig(ctx context.Context) (store.Backend, logger.Logger, error) {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	backend, err := store.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return backend, log, nil
}

// New builds the root command
func New() *cobra.Command {
	return NewWithEnv(&Env{Out: color.Output, In: os.Stdin, Open: OpenFromConfig})
}

// NewWithEnv builds the root command around env
func NewWithEnv(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "daylog",
		Short:         "A daily diary with tag collections.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetOut(env.Out)

	cmd.PersistentFlags().StringVarP(&env.Owner, "owner", "o", os.Getenv("DAYLOG_OWNER"),
		"Owner whose diary is used (default $DAYLOG_OWNER).")
	cmd.PersistentFlags().BoolVar(&env.JSON, "json", false,
		"Output as JSON.")

	addServe(cmd)
	addGet(cmd, env)
	addPut(cmd, env)
	addTags(cmd, env)
	addCollection(cmd, env)
	addImport(cmd, env)
	addExport(cmd, env)
	addVersion(cmd, env)
	return cmd
}
