package dataset

import (
	"errors"
	"fmt"

	"phishcheck/features/entries"
	"phishcheck/features/entries/enums"
	"phishcheck/features/urlnorm"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
)

var (
	ErrInvalidPattern = errors.New("invalid pattern")
	ErrDomainNotBare  = errors.New("domain pattern must be a bare host without port, path or query")
	ErrInvalidScope   = errors.New("invalid scope")
)

// NormalizeEntry rewrites e.Pattern with the same rules used for queries:
// the URL key for exact entries and the host for domain entries.
func NormalizeEntry(e entries.Entry) (entries.Entry, error) {
	u, err := urlnorm.Normalize(e.Pattern)
	if err != nil {
		return e, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	switch e.Scope {
	case enums.ScopeExact:
		e.Pattern = u.Key()
	case enums.ScopeDomain:
		if !u.IsBareHost() {
			return e, fmt.Errorf("%w: %w: %q", ErrInvalidPattern, ErrDomainNotBare, e.Pattern)
		}
		e.Pattern = u.Host
	default:
		return e, fmt.Errorf("%w: %d", ErrInvalidScope, int(e.Scope))
	}

	return e, nil
}

// warnIfPublicSuffix logs domain entries that cover a whole public
// suffix such as "com" or "co.uk". They are legal but match a lot.
func warnIfPublicSuffix(e entries.Entry) {
	if e.Scope != enums.ScopeDomain {
		return
	}
	suffix, icann := publicsuffix.PublicSuffix(e.Pattern)
	if suffix != e.Pattern {
		return
	}
	log.Warn().
		Str("pattern", e.Pattern).
		Str("label", e.Label.String()).
		Bool("icann", icann).
		Msg("Domain entry covers an entire public suffix")
}
