package dataset

import "runtime"

const (
	defaultBloomFPRate  = 0.01
	minBloomCapacity    = 1000
	parallelLoadMinimum = 256
)

type options struct {
	useBloom    bool
	bloomFPRate float64
	workers     int
	allowLegacy bool
}

func defaultOptions() options {
	return options{
		bloomFPRate: defaultBloomFPRate,
		workers:     runtime.NumCPU(),
		allowLegacy: true,
	}
}

func newOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type Option func(*options)

// WithBloom puts a Bloom filter in front of the index maps. A zero or
// out-of-range rate falls back to 1%.
func WithBloom(falsePositiveRate float64) Option {
	return func(o *options) {
		o.useBloom = true
		if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
			falsePositiveRate = defaultBloomFPRate
		}
		o.bloomFPRate = falsePositiveRate
	}
}

// WithWorkers sets how many goroutines normalize records during a load.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLegacyFormat toggles reading {"flagged_sites": [...]} documents.
func WithLegacyFormat(state bool) Option {
	return func(o *options) {
		o.allowLegacy = state
	}
}
