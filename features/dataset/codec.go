package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"phishcheck/features/entries"
	"phishcheck/features/entries/enums"
	"phishcheck/features/urlnorm"
	"phishcheck/internal/tracing"

	"github.com/alitto/pond/v2"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Load errors. ErrIO and ErrParse both wrap ErrLoad.
var (
	ErrLoad  = errors.New("dataset load failed")
	ErrIO    = fmt.Errorf("%w: io", ErrLoad)
	ErrParse = fmt.Errorf("%w: parse", ErrLoad)
)

const legacySource = "flagged_sites"

var validate = validator.New()

// record is the on-disk schema of one entry.
type record struct {
	Pattern string `json:"pattern" validate:"required"`
	Scope   string `json:"scope" validate:"required,oneof=exact domain"`
	Label   string `json:"label" validate:"required,oneof=harmful safe"`
	Source  string `json:"source,omitempty" validate:"max=1024"`
}

type legacyDocument struct {
	FlaggedSites []json.RawMessage `json:"flagged_sites"`
}

type decoded struct {
	entry     entries.Entry
	rejection *Rejection
}

// Load reads and indexes the dataset file at path.
func Load(ctx context.Context, path string, opts ...Option) (d *Dataset, err error) {
	ctx, span := otel.Tracer("phishcheck/dataset").Start(ctx, "dataset.load",
		trace.WithAttributes(attribute.String("dataset.path", path)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("dataset.entries", d.Len()))
		}
		span.End()
	}()

	stop := tracing.StartExecTrace("dataset", filepath.Base(path))
	defer stop()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	d, err = Decode(ctx, f, opts...)
	if err != nil {
		return nil, err
	}
	d.path = path
	return d, nil
}

// Decode reads a dataset document from r. Invalid records are rejected
// and reported on the result; only unreadable input or malformed JSON
// fails the whole decode.
func Decode(ctx context.Context, r io.Reader, opts ...Option) (*Dataset, error) {
	o := newOptions(opts)
	startedAt := time.Now()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	raws, legacy, err := splitDocument(data, o.allowLegacy)
	if err != nil {
		return nil, err
	}

	results, err := normalizeAll(ctx, raws, legacy, o.workers)
	if err != nil {
		return nil, err
	}

	b := NewBuilder(len(results))
	for i, res := range results {
		if res.rejection != nil {
			log.Warn().
				Int("index", res.rejection.Index).
				Str("pattern", res.rejection.Pattern).
				Str("reason", res.rejection.Reason).
				Msg("Rejected dataset record")
			b.reject(*res.rejection)
			continue
		}

		warnIfPublicSuffix(res.entry)

		if prev := b.Add(res.entry); prev != nil {
			b.duplicates++
			log.Warn().
				Int("index", i).
				Str("pattern", res.entry.Pattern).
				Str("scope", res.entry.Scope.String()).
				Str("previous_label", prev.Label.String()).
				Str("label", res.entry.Label.String()).
				Str("previous_source", prev.Source).
				Str("source", res.entry.Source).
				Msg("Duplicate dataset entry, later record wins")
		}
	}

	d := b.Build(opts...)

	exact, domain := d.Counts()
	log.Info().
		Str("version", d.Version()).
		Int("records", len(raws)).
		Int("exact", exact).
		Int("domain", domain).
		Int("rejected", len(d.rejected)).
		Int("duplicates", d.duplicates).
		Bool("legacy_format", legacy).
		Dur("duration", time.Since(startedAt)).
		Msg("Dataset decoded")

	return d, nil
}

// splitDocument returns the raw records of either document format.
func splitDocument(data []byte, allowLegacy bool) (raws []json.RawMessage, legacy bool, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("%w: empty document", ErrParse)
	}

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, false, fmt.Errorf("%w: %w", ErrParse, err)
		}
		return raws, false, nil
	case '{':
		if !allowLegacy {
			return nil, false, fmt.Errorf("%w: expected a JSON array of entries", ErrParse)
		}
		var doc legacyDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, true, fmt.Errorf("%w: %w", ErrParse, err)
		}
		if doc.FlaggedSites == nil {
			return nil, true, fmt.Errorf("%w: object without %q array", ErrParse, legacySource)
		}
		return doc.FlaggedSites, true, nil
	default:
		return nil, false, fmt.Errorf("%w: expected a JSON array of entries", ErrParse)
	}
}

// normalizeAll validates and normalizes every record. Results keep the
// input order so duplicate resolution stays deterministic.
func normalizeAll(ctx context.Context, raws []json.RawMessage, legacy bool, workers int) ([]decoded, error) {
	results := make([]decoded, len(raws))

	if len(raws) < parallelLoadMinimum || workers <= 1 {
		for i, raw := range raws {
			results[i] = decodeRecord(i, raw, legacy)
		}
		return results, ctx.Err()
	}

	pool := pond.NewPool(workers)
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for i, raw := range raws {
		group.Submit(func() {
			results[i] = decodeRecord(i, raw, legacy)
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return results, ctx.Err()
}

func decodeRecord(index int, raw json.RawMessage, legacy bool) decoded {
	rec, err := parseRecord(raw, legacy)
	if err != nil {
		return rejected(index, rec.Pattern, err)
	}

	if err := validate.Struct(rec); err != nil {
		return rejected(index, rec.Pattern, validationMessage(err))
	}

	scope, err := enums.ScopeString(rec.Scope)
	if err != nil {
		return rejected(index, rec.Pattern, err)
	}
	label, err := enums.LabelString(rec.Label)
	if err != nil {
		return rejected(index, rec.Pattern, err)
	}

	entry := entries.NewEntry(rec.Pattern, scope).WithLabel(label).WithSource(rec.Source)
	normalized, err := NormalizeEntry(*entry)
	if err != nil {
		return rejected(index, rec.Pattern, err)
	}

	return decoded{entry: normalized}
}

func parseRecord(raw json.RawMessage, legacy bool) (record, error) {
	if legacy {
		var site string
		if err := json.Unmarshal(raw, &site); err != nil {
			return record{}, fmt.Errorf("flagged site must be a string: %w", err)
		}
		return record{
			Pattern: site,
			Scope:   enums.ScopeExact.String(),
			Label:   enums.LabelHarmful.String(),
			Source:  legacySource,
		}, nil
	}

	var rec record
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return rec, fmt.Errorf("malformed record: %w", err)
	}
	return rec, nil
}

func rejected(index int, pattern string, err error) decoded {
	return decoded{rejection: &Rejection{
		Index:   index,
		Pattern: pattern,
		Reason:  err.Error(),
	}}
}

func validationMessage(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fe.Error())
	}
	return errors.New(strings.Join(msgs, ", "))
}

// Encode writes d as an indented JSON array in insertion order. The
// output decodes back to an equivalent dataset.
func Encode(w io.Writer, d *Dataset) error {
	list := make([]entries.Entry, len(d.entries))
	for i, e := range d.entries {
		if e.Scope == enums.ScopeExact {
			e.Pattern = urlnorm.PatternFor(e.Pattern)
		}
		list[i] = e
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(list); err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	return nil
}
