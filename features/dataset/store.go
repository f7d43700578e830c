package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"phishcheck/features/entries"
	"phishcheck/features/entries/enums"
	"phishcheck/internal/collector"

	"github.com/rs/zerolog/log"
)

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrPersist       = errors.New("failed to persist dataset")
	ErrNoPath        = errors.New("dataset path not configured")
)

type fileStamp struct {
	modTime time.Time
	size    int64
}

// Store owns the active Dataset version. Readers call Snapshot and never
// block; writers are serialized and publish a new version with one
// atomic swap, so a reader sees either the old or the new dataset.
type Store struct {
	path    string
	opts    []Option
	current atomic.Pointer[Dataset]
	writeMu sync.Mutex
	stamp   fileStamp
}

// NewStore returns a store bound to path, serving an empty dataset until
// the first Reload or Replace.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{path: path, opts: opts}
	s.current.Store(Empty())
	return s
}

func (s *Store) Path() string { return s.path }

// Snapshot returns the current dataset. The value stays valid for as
// long as the caller holds it, even across later swaps.
func (s *Store) Snapshot() *Dataset {
	return s.current.Load()
}

// Replace publishes d as the active version.
func (s *Store) Replace(d *Dataset) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.replace(d)
}

func (s *Store) replace(d *Dataset) {
	prev := s.current.Swap(d)

	exact, domain := d.Counts()
	log.Info().
		Str("version", d.Version()).
		Str("previous_version", prev.Version()).
		Int("exact", exact).
		Int("domain", domain).
		Msg("Dataset version published")

	if mc, err := collector.GetMetricsCollector(); err == nil {
		mc.SetDatasetSize(exact, domain)
		mc.SetDatasetLoadedAt(d.LoadedAt())
	}
}

// Reload loads the dataset file and publishes it. On failure the
// previous version keeps serving and the error is returned.
func (s *Store) Reload(ctx context.Context) (*Dataset, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.reload(ctx)
}

func (s *Store) reload(ctx context.Context) (*Dataset, error) {
	if s.path == "" {
		return nil, ErrNoPath
	}

	mc, _ := collector.GetMetricsCollector()
	startedAt := time.Now()

	stamp, statErr := statFile(s.path)
	d, err := Load(ctx, s.path, s.opts...)
	if err != nil {
		if mc != nil {
			mc.SetReloadFailed(time.Since(startedAt))
		}
		log.Error().
			Err(err).
			Str("path", s.path).
			Str("serving_version", s.Snapshot().Version()).
			Msg("Dataset reload failed, keeping previous version")
		return nil, err
	}

	if statErr == nil {
		s.stamp = stamp
	}
	s.replace(d)

	if mc != nil {
		mc.SetReloadSuccess(time.Since(startedAt))
		mc.AddRejected(len(d.rejected))
		mc.AddDuplicates(d.duplicates)
	}

	return d, nil
}

// ReloadIfChanged reloads only when the file's size or modification time
// differs from the last successful load.
func (s *Store) ReloadIfChanged(ctx context.Context) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	stamp, err := statFile(s.path)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if stamp == s.stamp {
		log.Debug().Str("path", s.path).Msg("Dataset file unchanged, skipping reload")
		return false, nil
	}

	if _, err := s.reload(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Persist writes the current dataset back to the store's path.
func (s *Store) Persist(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.persist(s.Snapshot(), s.path)
}

// PersistTo writes the current dataset to another file.
func (s *Store) PersistTo(path string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return writeFile(s.Snapshot(), path)
}

func (s *Store) persist(d *Dataset, path string) error {
	if path == "" {
		return ErrNoPath
	}
	if err := writeFile(d, path); err != nil {
		return err
	}
	if stamp, err := statFile(path); err == nil && path == s.path {
		s.stamp = stamp
	}
	return nil
}

// Upsert adds or replaces an entry, persists the result and publishes it.
// It returns the new version and whether an existing entry was replaced.
func (s *Store) Upsert(ctx context.Context, e entries.Entry) (*Dataset, bool, error) {
	normalized, err := NormalizeEntry(e)
	if err != nil {
		return nil, false, err
	}
	warnIfPublicSuffix(normalized)

	return s.update(ctx, func(b *Builder) (bool, error) {
		return b.Add(normalized) != nil, nil
	})
}

// Remove deletes the entry for (pattern, scope), persists and publishes.
func (s *Store) Remove(ctx context.Context, pattern string, scope enums.Scope) (*Dataset, error) {
	normalized, err := NormalizeEntry(entries.Entry{Pattern: pattern, Scope: scope})
	if err != nil {
		return nil, err
	}

	d, _, err := s.update(ctx, func(b *Builder) (bool, error) {
		if !b.Remove(normalized.Key()) {
			return false, fmt.Errorf("%w: %s (%s)", ErrEntryNotFound, normalized.Pattern, scope)
		}
		return true, nil
	})
	return d, err
}

// update runs a copy-on-write change: the new version is persisted first
// and only swapped in when the write succeeded.
func (s *Store) update(ctx context.Context, fn func(*Builder) (bool, error)) (*Dataset, bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	b := s.Snapshot().ToBuilder()
	if b.path == "" {
		b.path = s.path
	}

	changed, err := fn(b)
	if err != nil {
		return nil, false, err
	}

	next := b.Build(s.opts...)
	if err := s.persist(next, s.path); err != nil {
		return nil, false, err
	}
	s.replace(next)

	return next, changed, nil
}

// writeFile encodes d to a temp file next to path and renames it into
// place, so readers of the file never see a partial document.
func writeFile(d *Dataset, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	tmp, err := os.CreateTemp(dir, ".dataset-*.json")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Encode(tmp, d); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	log.Info().
		Str("path", path).
		Str("version", d.Version()).
		Int("entries", d.Len()).
		Msg("Dataset persisted")

	return nil
}

func statFile(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}, nil
}
