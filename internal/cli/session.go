package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/logger"
	"github.com/MrSnakeDoc/daylog/internal/store"
	"github.com/MrSnakeDoc/daylog/internal/utils"
	"github.com/MrSnakeDoc/daylog/internal/workspace"
)

// offline is one command's view of the store, outside the HTTP service
type offline struct {
	backend    store.Backend
	log        logger.Logger
	workspaces *workspace.Registry
	owner      domain.Owner
}

// withOffline opens the store, runs fn and flushes before closing.
// needOwner=false lets fn run without a bound owner.
func withOffline(ctx context.Context, env *Env, needOwner bool, fn func(o *offline) error) (err error) {
	owner := domain.Owner(env.Owner)
	if needOwner {
		if err := owner.Validate(); err != nil {
			return fmt.Errorf("%w (set --owner or DAYLOG_OWNER)", err)
		}
	}

	backend, log, err := env.Open(ctx)
	if err != nil {
		return err
	}
	defer utils.MustClose(backend, backend.Name()+" store", log)

	o := &offline{
		backend:    backend,
		log:        log,
		workspaces: workspace.NewRegistry(backend, nil, log, workspace.Options{SyncOnOpen: true}),
		owner:      owner,
	}
	defer func() {
		err = errors.Join(err, o.workspaces.CloseAll(ctx))
	}()

	return fn(o)
}

func parseDateArg(args []string) (domain.DateKey, error) {
	if len(args) == 0 || args[0] == "today" {
		return domain.Today(), nil
	}
	return domain.ParseDateKey(args[0])
}
