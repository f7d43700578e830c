package collector

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once
	mc   *MetricsCollector

	ErrNotInitialized = errors.New("metrics collector not initialized")
)

// ReloadStatus is the last known state of the dataset reload loop.
type ReloadStatus struct {
	Status     string        `json:"status"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`
}

type MetricsCollector struct {
	mu     sync.RWMutex
	reload ReloadStatus

	checksTotal     *prometheus.CounterVec // checks by verdict and match type
	invalidTotal    prometheus.Counter     // inputs that failed normalization
	reloadSuccess   prometheus.Counter
	reloadFailed    prometheus.Counter
	reloadDuration  prometheus.Gauge
	datasetEntries  *prometheus.GaugeVec // entries by scope
	datasetLoadedAt prometheus.Gauge
	rejectedTotal   prometheus.Counter
	duplicatesTotal prometheus.Counter
}

func GetMetricsCollector() (*MetricsCollector, error) {
	if mc == nil {
		return nil, ErrNotInitialized
	}
	return mc, nil
}

// NewMetricsCollector registers the process metrics on the default
// Prometheus registry. Later calls return the same collector.
func NewMetricsCollector() *MetricsCollector {
	once.Do(func() {
		_mc := &MetricsCollector{
			reload: ReloadStatus{Status: "idle"},

			checksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "phishcheck_checks_total",
				Help: "Total number of URL checks by verdict and match type.",
			}, []string{"verdict", "match_type"}),

			invalidTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "phishcheck_checks_invalid_total",
				Help: "Total number of checks rejected because the URL could not be normalized.",
			}),

			reloadSuccess: promauto.NewCounter(prometheus.CounterOpts{
				Name: "dataset_reload_success_total",
				Help: "Total number of successful dataset reloads.",
			}),

			reloadFailed: promauto.NewCounter(prometheus.CounterOpts{
				Name: "dataset_reload_failed_total",
				Help: "Total number of failed dataset reloads.",
			}),

			reloadDuration: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "dataset_reload_duration_seconds",
				Help: "Duration of the last dataset reload in seconds.",
			}),

			datasetEntries: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "dataset_entries",
				Help: "Number of entries in the active dataset by scope.",
			}, []string{"scope"}),

			datasetLoadedAt: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "dataset_loaded_at_seconds",
				Help: "Unix time at which the active dataset was built.",
			}),

			rejectedTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "dataset_records_rejected_total",
				Help: "Total number of dataset records rejected during loads.",
			}),

			duplicatesTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "dataset_records_duplicate_total",
				Help: "Total number of duplicate (pattern, scope) records seen during loads.",
			}),
		}

		mc = _mc
	})

	return mc
}

// InitCheckSeries creates every verdict and match type series at zero so
// rate queries work before the first hit.
func (mc *MetricsCollector) InitCheckSeries(verdicts, matchTypes []string) {
	for _, v := range verdicts {
		for _, m := range matchTypes {
			mc.checksTotal.WithLabelValues(v, m)
		}
	}
}

func (mc *MetricsCollector) IncrementCheck(verdict, matchType string) {
	mc.checksTotal.With(prometheus.Labels{"verdict": verdict, "match_type": matchType}).Inc()
}

func (mc *MetricsCollector) IncrementInvalid() {
	mc.invalidTotal.Inc()
}

func (mc *MetricsCollector) SetReloadSuccess(duration time.Duration) {
	mc.reloadSuccess.Inc()
	mc.reloadDuration.Set(duration.Seconds())
	mc.setReloadStatus("success", duration)
}

// SetReloadFailed still records the duration; slow failures usually point
// at a large or truncated file.
func (mc *MetricsCollector) SetReloadFailed(duration time.Duration) {
	mc.reloadFailed.Inc()
	mc.reloadDuration.Set(duration.Seconds())
	mc.setReloadStatus("failed", duration)
}

func (mc *MetricsCollector) SetDatasetSize(exact, domain int) {
	mc.datasetEntries.With(prometheus.Labels{"scope": "exact"}).Set(float64(exact))
	mc.datasetEntries.With(prometheus.Labels{"scope": "domain"}).Set(float64(domain))
}

func (mc *MetricsCollector) SetDatasetLoadedAt(t time.Time) {
	mc.datasetLoadedAt.Set(float64(t.Unix()))
}

func (mc *MetricsCollector) AddRejected(n int) {
	if n > 0 {
		mc.rejectedTotal.Add(float64(n))
	}
}

func (mc *MetricsCollector) AddDuplicates(n int) {
	if n > 0 {
		mc.duplicatesTotal.Add(float64(n))
	}
}

// LastReload returns the outcome of the most recent reload attempt.
func (mc *MetricsCollector) LastReload() ReloadStatus {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.reload
}

func (mc *MetricsCollector) setReloadStatus(status string, duration time.Duration) {
	mc.mu.Lock()
	mc.reload = ReloadStatus{Status: status, FinishedAt: time.Now(), Duration: duration}
	mc.mu.Unlock()
}
