package enums

import "fmt"

// MatchType records which lookup produced a verdict.
type MatchType int

const (
	MatchTypeNone MatchType = iota
	MatchTypeExact
	MatchTypeDomain
)

var matchTypeNames = map[MatchType]string{
	MatchTypeNone:   "none",
	MatchTypeExact:  "exact",
	MatchTypeDomain: "domain",
}

func (m MatchType) String() string {
	if name, ok := matchTypeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("MatchType(%d)", int(m))
}

func (m MatchType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// MatchTypeValues lists every match type, used to pre-create metric series.
func MatchTypeValues() []MatchType {
	return []MatchType{MatchTypeNone, MatchTypeExact, MatchTypeDomain}
}
