package runner

import (
	"context"
	"errors"
	"sync"

	"phishcheck/features/dataset"
	"phishcheck/internal/config"

	"github.com/rs/zerolog/log"
)

var (
	ErrRunnerCreate  = errors.New("failed to create runner")
	ErrJobRegister   = errors.New("failed to register jobs")
	ErrRunnerNotInit = errors.New("runner not initialized")
)

var (
	globalRunner *Runner
	initOnce     sync.Once
	initError    error
)

// InitializeRunner creates the global runner with the dataset reload job
// and starts it.
func InitializeRunner(store *dataset.Store, cfg config.DatasetConfig) (*Runner, error) {
	initOnce.Do(func() {
		_globalRunner, err := NewRunner()
		if err != nil {
			log.Err(err).Msg("Failed to create runner")
			initError = errors.Join(ErrRunnerCreate, err)
			return
		}

		task := DatasetReloadTask(store, cfg.ReloadOnlyOnChange)
		if err := _globalRunner.Register(DatasetReloadJob, cfg.ReloadCron, task); err != nil {
			log.Err(err).Msg("Failed to register dataset reload job")
			initError = errors.Join(ErrJobRegister, err)
			return
		}

		globalRunner = _globalRunner
		globalRunner.Start()
		log.Info().Msg("Global scheduler runner initialized and started")
	})

	return globalRunner, initError
}

func GetRunner() (*Runner, error) {
	if globalRunner == nil {
		log.Error().Msg("Runner not initialized")
		return nil, ErrRunnerNotInit
	}
	return globalRunner, nil
}

func ShutdownRunner(ctx context.Context) error {
	if globalRunner == nil {
		return nil
	}
	return globalRunner.Stop(ctx)
}
