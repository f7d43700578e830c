package enums

import "fmt"

// Verdict is the answer for a checked URL. Unknown means "not in the
// dataset" and is kept apart from an explicit Safe label.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictSafe
	VerdictHarmful
)

var verdictNames = map[Verdict]string{
	VerdictUnknown: "unknown",
	VerdictSafe:    "safe",
	VerdictHarmful: "harmful",
}

func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// VerdictValues lists every verdict, used to pre-create metric series.
func VerdictValues() []Verdict {
	return []Verdict{VerdictUnknown, VerdictSafe, VerdictHarmful}
}

func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
