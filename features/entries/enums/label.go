package enums

import "fmt"

// Label is the classification stored on an entry.
type Label int

const (
	LabelHarmful Label = iota
	LabelSafe
)

var labelNames = map[Label]string{
	LabelHarmful: "harmful",
	LabelSafe:    "safe",
}

func (l Label) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Label(%d)", int(l))
}

// LabelString returns the Label for its wire name.
func LabelString(s string) (Label, error) {
	for label, name := range labelNames {
		if name == s {
			return label, nil
		}
	}
	return 0, fmt.Errorf("%s does not belong to Label values", s)
}

func (l Label) IsALabel() bool {
	_, ok := labelNames[l]
	return ok
}

// Verdict maps a stored label to the verdict returned for a hit.
func (l Label) Verdict() Verdict {
	if l == LabelSafe {
		return VerdictSafe
	}
	return VerdictHarmful
}

func (l Label) MarshalText() ([]byte, error) {
	if !l.IsALabel() {
		return nil, fmt.Errorf("invalid label %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Label) UnmarshalText(text []byte) error {
	var err error
	*l, err = LabelString(string(text))
	return err
}
