package matcher

import (
	"phishcheck/features/dataset"
	"phishcheck/features/entries"
	"phishcheck/features/entries/enums"
	"phishcheck/features/urlnorm"
)

// Result is the outcome of matching one URL against one dataset version.
type Result struct {
	Verdict   enums.Verdict
	MatchType enums.MatchType
	Entry     *entries.Entry // nil when nothing matched
}

// Matched reports whether any entry decided the verdict.
func (r Result) Matched() bool {
	return r.Entry != nil
}

// Match applies the lookup precedence: an exact entry for the full key,
// then for the key without its query, then the nearest domain entry
// walking from the host up to the TLD. No hit yields VerdictUnknown.
func Match(d *dataset.Dataset, u urlnorm.URL) Result {
	if d == nil {
		return Result{Verdict: enums.VerdictUnknown, MatchType: enums.MatchTypeNone}
	}

	if e, ok := d.LookupExact(u.Key()); ok {
		return hit(e, enums.MatchTypeExact)
	}
	if u.RawQuery != "" {
		if e, ok := d.LookupExact(u.KeyWithoutQuery()); ok {
			return hit(e, enums.MatchTypeExact)
		}
	}

	for _, domain := range u.Domains() {
		if e, ok := d.LookupDomain(domain); ok {
			return hit(e, enums.MatchTypeDomain)
		}
	}

	return Result{Verdict: enums.VerdictUnknown, MatchType: enums.MatchTypeNone}
}

func hit(e entries.Entry, mt enums.MatchType) Result {
	return Result{
		Verdict:   e.Label.Verdict(),
		MatchType: mt,
		Entry:     &e,
	}
}
