package classification

import (
	"context"
	"errors"
	"time"

	"phishcheck/features/dataset"
	"phishcheck/features/entries/enums"
	"phishcheck/features/matcher"
	"phishcheck/features/urlnorm"
	"phishcheck/internal/collector"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// IsInvalid reports whether err from Check means the input was not a
// usable URL, as opposed to an internal failure.
func IsInvalid(err error) bool {
	return errors.Is(err, urlnorm.ErrNormalization)
}

// Result is the answer to one check.
type Result struct {
	Input          string          `json:"url"`
	Verdict        enums.Verdict   `json:"verdict"`
	MatchedPattern *string         `json:"matched_pattern"`
	MatchType      enums.MatchType `json:"match_type"`
	Source         string          `json:"source,omitempty"`
	Normalized     string          `json:"normalized"`
	DatasetVersion string          `json:"dataset_version"`
}

// Service classifies URLs against the store's current dataset. Apart from
// the store it only keeps metric instruments, so it is safe for
// concurrent use.
type Service struct {
	store    *dataset.Store
	duration metric.Float64Histogram
}

func NewService(store *dataset.Store) *Service {
	if mc, err := collector.GetMetricsCollector(); err == nil {
		verdicts := make([]string, 0, 3)
		for _, v := range enums.VerdictValues() {
			verdicts = append(verdicts, v.String())
		}
		matchTypes := make([]string, 0, 3)
		for _, m := range enums.MatchTypeValues() {
			matchTypes = append(matchTypes, m.String())
		}
		mc.InitCheckSeries(verdicts, matchTypes)
	}

	duration, err := otel.Meter("phishcheck/classification").Float64Histogram(
		"phishcheck.check.duration",
		metric.WithDescription("Time spent normalizing and matching one URL."),
		metric.WithUnit("s"),
	)
	if err != nil {
		log.Warn().Err(err).Msg("Check duration histogram unavailable")
	}

	return &Service{store: store, duration: duration}
}

func (s *Service) Store() *dataset.Store {
	return s.store
}

// Check normalizes raw and matches it against one dataset snapshot. The
// whole check sees a single version even if a reload lands meanwhile.
// Input that cannot be normalized returns an error wrapping
// urlnorm.ErrNormalization.
func (s *Service) Check(raw string) (Result, error) {
	mc, _ := collector.GetMetricsCollector()
	startedAt := time.Now()

	u, err := urlnorm.Normalize(raw)
	if err != nil {
		if mc != nil {
			mc.IncrementInvalid()
		}
		log.Debug().Str("url", raw).Err(err).Msg("Rejected url")
		return Result{Input: raw}, err
	}

	snapshot := s.store.Snapshot()
	m := matcher.Match(snapshot, u)

	res := Result{
		Input:          raw,
		Verdict:        m.Verdict,
		MatchType:      m.MatchType,
		Normalized:     u.String(),
		DatasetVersion: snapshot.Version(),
	}
	if m.Entry != nil {
		pattern := m.Entry.Pattern
		res.MatchedPattern = &pattern
		res.Source = m.Entry.Source
	}

	if mc != nil {
		mc.IncrementCheck(res.Verdict.String(), res.MatchType.String())
	}
	if s.duration != nil {
		s.duration.Record(context.Background(), time.Since(startedAt).Seconds(),
			metric.WithAttributes(attribute.String("verdict", res.Verdict.String())))
	}

	return res, nil
}
