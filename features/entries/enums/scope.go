package enums

import "fmt"

// Scope tells whether an entry matches one URL or a whole domain tree.
type Scope int

const (
	ScopeExact Scope = iota
	ScopeDomain
)

var scopeNames = map[Scope]string{
	ScopeExact:  "exact",
	ScopeDomain: "domain",
}

func (s Scope) String() string {
	if name, ok := scopeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

// ScopeString returns the Scope for its wire name.
func ScopeString(s string) (Scope, error) {
	for scope, name := range scopeNames {
		if name == s {
			return scope, nil
		}
	}
	return 0, fmt.Errorf("%s does not belong to Scope values", s)
}

// ScopeStrings returns the wire names of all scopes.
func ScopeStrings() []string {
	return []string{ScopeExact.String(), ScopeDomain.String()}
}

func (s Scope) IsAScope() bool {
	_, ok := scopeNames[s]
	return ok
}

func (s Scope) MarshalText() ([]byte, error) {
	if !s.IsAScope() {
		return nil, fmt.Errorf("invalid scope %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Scope) UnmarshalText(text []byte) error {
	var err error
	*s, err = ScopeString(string(text))
	return err
}
