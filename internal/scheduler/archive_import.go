package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/logger"
	"github.com/MrSnakeDoc/daylog/internal/sources/archive"
)

// EntryImporter writes entries of one owner through the diary layer
type EntryImporter interface {
	ImportEntries(ctx context.Context, owner domain.Owner, entries []domain.DiaryEntry) (int, error)
}

// ImportResult summarizes one import pass
type ImportResult struct {
	Owners   int `json:"owners"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ArchiveImporter loads a YAML archive into the store at start, on a
// ticker when an interval is set, and whenever manualTrigger fires.
type ArchiveImporter struct {
	loader        *archive.Loader
	mapper        *archive.Mapper
	target        EntryImporter
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewArchiveImporter creates an importer for archiveFile
func NewArchiveImporter(
	archiveFile string,
	target EntryImporter,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *ArchiveImporter {
	return &ArchiveImporter{
		loader:        archive.NewLoader(archiveFile),
		mapper:        archive.NewMapper(),
		target:        target,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start imports once then waits for ticks and manual triggers
func (ai *ArchiveImporter) Start(ctx context.Context) error {
	if _, err := ai.Import(ctx); err != nil {
		return fmt.Errorf("initial archive import failed: %w", err)
	}

	go func() {
		var tick <-chan time.Time // nil never fires
		if ai.interval > 0 {
			ticker := time.NewTicker(ai.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-tick:
				ai.importAndLog(ctx)
			case <-ai.manualTrigger:
				ai.logger.Info("manual archive import triggered")
				ai.importAndLog(ctx)
			case <-ai.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the importer
func (ai *ArchiveImporter) Stop() {
	close(ai.stopCh)
}

func (ai *ArchiveImporter) importAndLog(ctx context.Context) {
	if _, err := ai.Import(ctx); err != nil {
		ai.logger.Error("archive import failed", logger.Error(err))
	}
}

// Import loads the archive and writes every valid entry
func (ai *ArchiveImporter) Import(ctx context.Context) (ImportResult, error) {
	ai.logger.Info("importing archive", logger.String("file", ai.loader.Path()))

	file, err := ai.loader.Load()
	if err != nil {
		return ImportResult{}, err
	}
	return ImportFile(ctx, file, ai.mapper, ai.target, ai.logger)
}

// ImportFile maps an already decoded archive and writes it through target
func ImportFile(ctx context.Context, file archive.File, mapper *archive.Mapper, target EntryImporter, log logger.Logger) (ImportResult, error) {
	groups, skipped := mapper.MapEntries(file)
	for _, s := range skipped {
		log.Warn("archive record skipped", logger.String("record", s.String()))
	}

	result := ImportResult{Owners: len(groups), Skipped: len(skipped)}
	for _, g := range groups {
		n, err := target.ImportEntries(ctx, g.Owner, g.Entries)
		result.Imported += n
		if err != nil {
			return result, fmt.Errorf("import %s: %w", g.Owner, err)
		}
		log.Info("archive imported",
			logger.String("owner", g.Owner.String()),
			logger.Int("entries", n))
	}
	return result, nil
}
