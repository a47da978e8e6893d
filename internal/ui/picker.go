package ui

import (
	"errors"

	"github.com/charmbracelet/huh"

	lverrors "github.com/MandiZhao/lowvr/internal/errors"
)

// PickOption is one choice of a multi-select picker.
type PickOption struct {
	Label    string
	Value    string
	Selected bool
}

// pickerOptions converts choices to huh options, keeping preselection.
func pickerOptions(choices []PickOption) []huh.Option[string] {
	options := make([]huh.Option[string], len(choices))
	for i, c := range choices {
		label := c.Label
		if label == "" {
			label = c.Value
		}
		options[i] = huh.NewOption(label, c.Value).Selected(c.Selected)
	}
	return options
}

// newPickerForm builds a filterable multi-select writing into values.
func newPickerForm(title string, choices []PickOption, limit int, values *[]string) *huh.Form {
	sel := huh.NewMultiSelect[string]().
		Title(title).
		Options(pickerOptions(choices)...).
		Filterable(true).
		Height(min(len(choices)+2, 20)).
		Value(values)
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	return huh.NewForm(huh.NewGroup(sel))
}

// Pick shows a multi-select of choices and returns the chosen values.
// limit caps the selection; 0 means no cap. Cancelling returns an INPUT
// error.
func Pick(title string, choices []PickOption, limit int) ([]string, error) {
	if len(choices) == 0 {
		return nil, lverrors.New(lverrors.ErrInput, "Nothing to pick from: "+title, "")
	}

	var values []string
	if err := newPickerForm(title, choices, limit, &values).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, lverrors.New(lverrors.ErrInput, "Selection cancelled", "")
		}
		return nil, lverrors.WrapWithCode(err, lverrors.ErrInput,
			"Picker failed", "Name runs with --runs instead of --pick")
	}
	if len(values) == 0 {
		return nil, lverrors.New(lverrors.ErrInput, "Nothing selected",
			"Use space to select entries, enter to confirm")
	}
	return values, nil
}
