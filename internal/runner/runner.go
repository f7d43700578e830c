package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

var (
	ErrFailedToCreateScheduler = errors.New("failed to create scheduler")
	ErrJobAlreadyExists        = errors.New("job already registered")
	ErrFailedToCreateJob       = errors.New("failed to create job")
	ErrFailedToGetNextRun      = errors.New("failed to get next run time")
	ErrJobNotFound             = errors.New("job not found")
)

// Task is a unit of scheduled work.
type Task func(ctx context.Context) error

// Runner schedules named tasks on cron expressions. A task never overlaps
// with itself; a run that is still going when the next tick fires causes
// that tick to be rescheduled.
type Runner struct {
	scheduler gocron.Scheduler
	jobs      map[string]gocron.Job
	tasks     map[string]Task
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewRunner() (*Runner, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithGlobalJobOptions(
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		),
	)

	if err != nil {
		log.Error().Err(err).Msg("Failed to create scheduler")
		return nil, errors.Join(ErrFailedToCreateScheduler, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		scheduler: scheduler,
		jobs:      make(map[string]gocron.Job),
		tasks:     make(map[string]Task),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Register adds task under name. cronSchedule uses the six-field form
// with seconds; an empty schedule registers the task for RunNow only.
func (r *Runner) Register(name, cronSchedule string, task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[name]; exists {
		log.Error().Str("job", name).Msg("Job already registered")
		return ErrJobAlreadyExists
	}
	r.tasks[name] = task

	if cronSchedule == "" {
		log.Warn().Str("job", name).Msg("No cron schedule provided, job runs on demand only")
		return nil
	}

	job, err := r.scheduler.NewJob(
		gocron.CronJob(
			cronSchedule,
			true,
		),
		gocron.NewTask(
			r.execute,
			name,
		),
		gocron.WithName(strings.Join([]string{"job", name}, "_")),
		gocron.WithTags(name),
	)

	if err != nil {
		delete(r.tasks, name)
		log.Error().Err(err).Str("job", name).Str("cron", cronSchedule).Msg("Failed to schedule job")
		return errors.Join(ErrFailedToCreateJob, err)
	}

	r.jobs[name] = job

	// The job is scheduled at this point; a missing next run only
	// affects the log line.
	event := log.Info().Str("job", name).Str("cron", cronSchedule)
	if nextRun, err := job.NextRun(); err != nil {
		log.Warn().Err(err).Str("job", name).Msg("Failed to get next run time")
	} else {
		event = event.Time("next_run", nextRun)
	}
	event.Msg("Job registered with scheduler")

	return nil
}

func (r *Runner) execute(name string) {
	if err := r.RunNow(r.ctx, name); err != nil && !errors.Is(err, ErrJobNotFound) {
		log.Error().Err(err).Str("job", name).Msg("Scheduled job failed")
	}
}

// RunNow executes the named task synchronously, outside its schedule.
func (r *Runner) RunNow(ctx context.Context, name string) error {
	r.mu.RLock()
	task, exists := r.tasks[name]
	r.mu.RUnlock()

	if !exists {
		log.Error().Str("job", name).Msg("Job not found in registry")
		return ErrJobNotFound
	}

	startedAt := time.Now()
	err := task(ctx)

	log.Debug().
		Str("job", name).
		Dur("duration", time.Since(startedAt)).
		AnErr("error", err).
		Msg("Job finished")

	return err
}

func (r *Runner) Start() {
	r.scheduler.Start()
	log.Info().Int("jobs", len(r.jobs)).Msg("Scheduler started")
}

// Stop cancels running tasks and shuts the scheduler down.
func (r *Runner) Stop(ctx context.Context) error {
	r.cancel()

	done := make(chan error, 1)
	go func() { done <- r.scheduler.Shutdown() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRun returns the next scheduled run of the named job.
func (r *Runner) NextRun(name string) (time.Time, error) {
	r.mu.RLock()
	job, exists := r.jobs[name]
	r.mu.RUnlock()

	if !exists {
		return time.Time{}, ErrJobNotFound
	}

	next, err := job.NextRun()
	if err != nil {
		return time.Time{}, errors.Join(ErrFailedToGetNextRun, err)
	}
	return next, nil
}

// NextRuns returns the next run time of every scheduled job.
func (r *Runner) NextRuns() map[string]time.Time {
	result := make(map[string]time.Time)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, job := range r.jobs {
		nr, err := job.NextRun()
		if err != nil {
			log.Error().Err(err).Str("job", name).Msg("Error getting next run time")
			result[name] = time.Time{}
			continue
		}
		result[name] = nr
	}

	return result
}
