package dataset

import (
	"time"

	"phishcheck/features/entries"
	"phishcheck/features/entries/enums"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	exactPrefix  = "e:"
	domainPrefix = "d:"
)

// Rejection describes a record that was dropped while loading.
type Rejection struct {
	Index   int    `json:"index"`
	Pattern string `json:"pattern"`
	Reason  string `json:"reason"`
}

// Dataset is an immutable, indexed set of entries. It is never changed
// after Build; writers build a new one and swap it into the Store.
type Dataset struct {
	version    string
	loadedAt   time.Time
	path       string
	entries    []entries.Entry
	exact      map[string]int
	domains    map[string]int
	bloom      *bloom.BloomFilter
	rejected   []Rejection
	duplicates int
	opts       options
}

// Empty returns a dataset with no entries; every lookup misses.
func Empty() *Dataset {
	return NewBuilder(0).Build()
}

func (d *Dataset) Version() string     { return d.version }
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }
func (d *Dataset) Path() string        { return d.path }
func (d *Dataset) Len() int            { return len(d.entries) }
func (d *Dataset) Duplicates() int     { return d.duplicates }

// Entries returns a copy of the entries in insertion order.
func (d *Dataset) Entries() []entries.Entry {
	out := make([]entries.Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Rejected returns the records dropped by the load that built d.
func (d *Dataset) Rejected() []Rejection {
	out := make([]Rejection, len(d.rejected))
	copy(out, d.rejected)
	return out
}

// LookupExact finds the exact-scope entry for a normalized URL key.
func (d *Dataset) LookupExact(key string) (entries.Entry, bool) {
	return d.lookup(d.exact, exactPrefix, key)
}

// LookupDomain finds the domain-scope entry for one host.
func (d *Dataset) LookupDomain(domain string) (entries.Entry, bool) {
	return d.lookup(d.domains, domainPrefix, domain)
}

func (d *Dataset) lookup(index map[string]int, prefix, key string) (entries.Entry, bool) {
	if d.bloom != nil && !d.bloom.TestString(prefix+key) {
		return entries.Entry{}, false
	}
	i, ok := index[key]
	if !ok {
		return entries.Entry{}, false
	}
	return d.entries[i], true
}

// Counts returns the number of exact and domain entries.
func (d *Dataset) Counts() (exact, domain int) {
	return len(d.exact), len(d.domains)
}

// ToBuilder starts a new version from the entries of d.
func (d *Dataset) ToBuilder() *Builder {
	b := NewBuilder(len(d.entries) + 1)
	for _, e := range d.entries {
		b.Add(e)
	}
	b.path = d.path
	return b
}

// Builder collects entries and enforces (pattern, scope) uniqueness with
// last-write-wins; the winner keeps the first occurrence's position.
type Builder struct {
	entries    []entries.Entry
	index      map[entries.Key]int
	rejected   []Rejection
	duplicates int
	path       string
}

func NewBuilder(capacity int) *Builder {
	return &Builder{
		entries: make([]entries.Entry, 0, capacity),
		index:   make(map[entries.Key]int, capacity),
	}
}

// Add inserts e, or overwrites an earlier entry with the same key.
// It returns the replaced entry when there was one.
func (b *Builder) Add(e entries.Entry) (previous *entries.Entry) {
	key := e.Key()
	if i, ok := b.index[key]; ok {
		prev := b.entries[i]
		b.entries[i] = e
		return &prev
	}
	b.index[key] = len(b.entries)
	b.entries = append(b.entries, e)
	return nil
}

// Remove deletes the entry with key; it reports whether one existed.
func (b *Builder) Remove(key entries.Key) bool {
	i, ok := b.index[key]
	if !ok {
		return false
	}
	b.entries = append(b.entries[:i], b.entries[i+1:]...)
	delete(b.index, key)
	for j := i; j < len(b.entries); j++ {
		b.index[b.entries[j].Key()] = j
	}
	return true
}

func (b *Builder) Len() int { return len(b.entries) }

func (b *Builder) reject(r Rejection) {
	b.rejected = append(b.rejected, r)
}

// Build freezes the builder into a new Dataset version.
func (b *Builder) Build(opts ...Option) *Dataset {
	o := newOptions(opts)

	d := &Dataset{
		version:    uuid.New().String(),
		loadedAt:   time.Now(),
		path:       b.path,
		entries:    make([]entries.Entry, len(b.entries)),
		exact:      make(map[string]int),
		domains:    make(map[string]int),
		rejected:   append([]Rejection(nil), b.rejected...),
		duplicates: b.duplicates,
		opts:       o,
	}
	copy(d.entries, b.entries)

	for i, e := range d.entries {
		switch e.Scope {
		case enums.ScopeExact:
			d.exact[e.Pattern] = i
		case enums.ScopeDomain:
			d.domains[e.Pattern] = i
		}
	}

	if o.useBloom {
		d.bloom = buildBloom(d, o.bloomFPRate)
	}

	return d
}

func buildBloom(d *Dataset, fpRate float64) *bloom.BloomFilter {
	capacity := len(d.entries)
	if capacity < minBloomCapacity {
		capacity = minBloomCapacity
	}

	bf := bloom.NewWithEstimates(uint(capacity), fpRate)
	for key := range d.exact {
		bf.AddString(exactPrefix + key)
	}
	for domain := range d.domains {
		bf.AddString(domainPrefix + domain)
	}

	log.Debug().
		Int("entries", len(d.entries)).
		Uint("bloom_capacity", bf.Cap()).
		Uint("hash_functions", bf.K()).
		Float64("false_positive_rate", bloom.EstimateFalsePositiveRate(bf.Cap(), bf.K(), uint(len(d.entries)))).
		Msg("Built bloom filter for dataset")

	return bf
}
