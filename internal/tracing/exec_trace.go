package tracing

import (
	"os"
	"path/filepath"
	"runtime/trace"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	envExecTrace      = "PHISHCHECK_EXECTRACE"
	envExecTraceScope = "PHISHCHECK_EXECTRACE_SCOPE"
	envExecTraceDir   = "PHISHCHECK_EXECTRACE_DIR"
)

var (
	execTraceMu     sync.Mutex
	execTraceActive bool
)

// Enabled reports whether a runtime trace should be recorded for scope.
// PHISHCHECK_EXECTRACE=1 turns tracing on; PHISHCHECK_EXECTRACE_SCOPE
// narrows it to a single scope such as "dataset".
func Enabled(scope string) bool {
	if os.Getenv(envExecTrace) != "1" {
		return false
	}
	if wanted := os.Getenv(envExecTraceScope); wanted != "" && wanted != scope {
		return false
	}
	return true
}

// StartExecTrace records a Go execution trace into
// traces/<scope>-<label>-<timestamp>.out and returns the function that
// stops it. Only one trace runs at a time; when disabled or busy the
// returned stop is a no-op.
func StartExecTrace(scope, label string) (stop func()) {
	noop := func() {}
	if !Enabled(scope) || !acquire() {
		return noop
	}

	dir := os.Getenv(envExecTraceDir)
	if dir == "" {
		dir = "traces"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Cannot create trace directory, exec trace skipped")
		release()
		return noop
	}

	startedAt := time.Now()
	name := filepath.Join(dir, scope+"-"+sanitize(label)+"-"+startedAt.UTC().Format("20060102T150405Z")+".out")

	f, err := os.Create(name)
	if err != nil {
		log.Warn().Err(err).Str("file", name).Msg("Cannot create trace file, exec trace skipped")
		release()
		return noop
	}
	if err := trace.Start(f); err != nil {
		_ = f.Close()
		log.Warn().Err(err).Str("file", name).Msg("Exec trace failed to start")
		release()
		return noop
	}

	log.Info().Str("scope", scope).Str("file", name).Msg("Exec trace started")

	var once sync.Once
	return func() {
		once.Do(func() {
			trace.Stop()
			_ = f.Close()
			release()
			log.Info().
				Str("scope", scope).
				Str("file", name).
				Dur("duration", time.Since(startedAt)).
				Msg("Exec trace stopped")
		})
	}
}

// Active reports whether a trace is being recorded right now.
func Active() bool {
	execTraceMu.Lock()
	defer execTraceMu.Unlock()
	return execTraceActive
}

func acquire() bool {
	execTraceMu.Lock()
	defer execTraceMu.Unlock()
	if execTraceActive {
		log.Debug().Msg("Exec trace already running")
		return false
	}
	execTraceActive = true
	return true
}

func release() {
	execTraceMu.Lock()
	execTraceActive = false
	execTraceMu.Unlock()
}

func sanitize(label string) string {
	out := []rune(label)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			out[i] = '_'
		}
	}
	if len(out) == 0 {
		return "run"
	}
	return string(out)
}
