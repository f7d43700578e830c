package admin

import (
	"phishcheck/features/entries"
	"phishcheck/features/entries/enums"
)

type EntryInput struct {
	Pattern string `json:"pattern" validate:"required,max=2048"`
	Scope   string `json:"scope" validate:"required,oneof=exact domain"`
	Label   string `json:"label" validate:"omitempty,oneof=harmful safe"`
	Source  string `json:"source" validate:"max=1024"`
}

// Entry converts validated input; an empty label means harmful.
func (in EntryInput) Entry() (entries.Entry, error) {
	scope, err := enums.ScopeString(in.Scope)
	if err != nil {
		return entries.Entry{}, err
	}

	e := entries.NewEntry(in.Pattern, scope).WithSource(in.Source)
	if in.Label != "" {
		label, err := enums.LabelString(in.Label)
		if err != nil {
			return entries.Entry{}, err
		}
		e.WithLabel(label)
	}
	return *e, nil
}

type RemoveInput struct {
	Pattern string `query:"pattern" validate:"required"`
	Scope   string `query:"scope" validate:"required,oneof=exact domain"`
}

type ListInput struct {
	Scope string `query:"scope" validate:"omitempty,oneof=exact domain"`
	Label string `query:"label" validate:"omitempty,oneof=harmful safe"`
}
