package admin

import (
	"time"

	"phishcheck/features/dataset"
	"phishcheck/features/entries"
)

type DatasetStats struct {
	Version    string              `json:"version"`
	Path       string              `json:"path"`
	LoadedAt   time.Time           `json:"loaded_at"`
	Entries    int                 `json:"entries"`
	Exact      int                 `json:"exact"`
	Domain     int                 `json:"domain"`
	Duplicates int                 `json:"duplicates"`
	Rejected   []dataset.Rejection `json:"rejected"`
}

func NewDatasetStats(d *dataset.Dataset) DatasetStats {
	exact, domain := d.Counts()
	return DatasetStats{
		Version:    d.Version(),
		Path:       d.Path(),
		LoadedAt:   d.LoadedAt(),
		Entries:    d.Len(),
		Exact:      exact,
		Domain:     domain,
		Duplicates: d.Duplicates(),
		Rejected:   d.Rejected(),
	}
}

type EntriesPayload struct {
	Version string          `json:"version"`
	Count   int             `json:"count"`
	Entries []entries.Entry `json:"entries"`
}

type UpsertPayload struct {
	Entry    entries.Entry `json:"entry"`
	Replaced bool          `json:"replaced"`
	Version  string        `json:"version"`
}
