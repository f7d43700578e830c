package entries

import (
	"phishcheck/features/entries/enums"
)

// Entry is one classified URL or domain. Pattern is stored normalized:
// host[:port]+path[?query] for exact entries, the bare host for domain
// entries.
type Entry struct {
	Pattern string      `json:"pattern"`
	Scope   enums.Scope `json:"scope"`
	Label   enums.Label `json:"label"`
	Source  string      `json:"source,omitempty"` // Provenance only, never matched on
}

// Key identifies an entry inside a dataset; (pattern, scope) is unique.
type Key struct {
	Pattern string
	Scope   enums.Scope
}

// NewEntry creates an Entry with the given pattern and scope, labeled harmful.
func NewEntry(pattern string, scope enums.Scope) *Entry {
	return &Entry{
		Pattern: pattern,
		Scope:   scope,
		Label:   enums.LabelHarmful,
	}
}

// WithLabel sets the label and returns the entry for chaining
func (e *Entry) WithLabel(label enums.Label) *Entry {
	e.Label = label
	return e
}

// WithSource sets the provenance text and returns the entry for chaining
func (e *Entry) WithSource(source string) *Entry {
	e.Source = source
	return e
}

func (e Entry) Key() Key {
	return Key{Pattern: e.Pattern, Scope: e.Scope}
}
