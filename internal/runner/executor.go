package runner

import (
	"context"
	"time"

	"phishcheck/features/dataset"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const DatasetReloadJob = "dataset_reload"

// DatasetReloadTask reloads the store's file. With onlyOnChange set the
// reload is skipped while the file's size and mtime are unchanged.
func DatasetReloadTask(store *dataset.Store, onlyOnChange bool) Task {
	return func(ctx context.Context) error {
		startedAt := time.Now()
		runLogger := log.With().
			Str("run_id", uuid.NewString()).
			Str("job", DatasetReloadJob).
			Str("path", store.Path()).
			Logger()

		if onlyOnChange {
			changed, err := store.ReloadIfChanged(ctx)
			if err != nil {
				return err
			}
			if !changed {
				return nil
			}
		} else if _, err := store.Reload(ctx); err != nil {
			return err
		}

		runLogger.Info().
			Str("version", store.Snapshot().Version()).
			Dur("duration", time.Since(startedAt)).
			Msg("Scheduled dataset reload completed")

		return nil
	}
}
