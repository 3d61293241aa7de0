package intake

import (
	"encoding/json"
	"time"

	"github.com/emr/emr/internal/domain/forms"
	"github.com/emr/emr/internal/platform/canvas"
	"github.com/emr/emr/pkg/apperr"
)

// ValidateAnswers checks a submission's answers against the schema elements
// the assignment was issued with. Every required answerable element must have
// an answer, every answer must reference a known element, and each value must
// match the shape its element type demands.
func ValidateAnswers(elements []forms.FormElement, answers []Answer) error {
	byID := make(map[string]*forms.FormElement, len(elements))
	for i := range elements {
		byID[elements[i].ID] = &elements[i]
	}

	answered := make(map[string]bool, len(answers))
	for _, a := range answers {
		el, ok := byID[a.ElementID]
		if !ok {
			return apperr.Validation("answer references unknown element %q", a.ElementID)
		}
		if answered[a.ElementID] {
			return apperr.Validation("duplicate answer for element %q", a.ElementID)
		}
		answered[a.ElementID] = true

		if !el.Type.Answerable() {
			return apperr.Validation("element %q does not take an answer", a.ElementID)
		}
		if err := validateValue(el, a.Value); err != nil {
			return err
		}
	}

	for _, el := range elements {
		if el.Required && el.Type.Answerable() && !answered[el.ID] {
			return apperr.Validation("required element %q has no answer", el.ID)
		}
	}
	return nil
}

func validateValue(el *forms.FormElement, value json.RawMessage) error {
	switch el.Type {
	case forms.ElementText:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return apperr.Validation("element %q expects a text value", el.ID)
		}
		if el.Required && s == "" {
			return apperr.Validation("required element %q has an empty value", el.ID)
		}

	case forms.ElementCheckbox:
		var b bool
		if err := json.Unmarshal(value, &b); err != nil {
			return apperr.Validation("element %q expects a boolean value", el.ID)
		}

	case forms.ElementDropdown, forms.ElementRadio:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return apperr.Validation("element %q expects a choice value", el.ID)
		}
		for _, opt := range el.Options {
			if s == opt {
				return nil
			}
		}
		return apperr.Validation("element %q has no option %q", el.ID, s)

	case forms.ElementDate:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return apperr.Validation("element %q expects a date value", el.ID)
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return apperr.Validation("element %q expects a YYYY-MM-DD date, got %q", el.ID, s)
		}

	case forms.ElementSignature, forms.ElementImage:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return apperr.Validation("element %q expects an encoded image", el.ID)
		}
		if _, err := canvas.DecodeDataURL(s); err != nil {
			return apperr.Validation("element %q has an invalid image: %v", el.ID, err)
		}

	case forms.ElementTable:
		var rows []map[string]string
		if err := json.Unmarshal(value, &rows); err != nil {
			return apperr.Validation("element %q expects rows keyed by column id", el.ID)
		}
		colIDs := make(map[string]bool, len(el.Columns))
		for _, col := range el.Columns {
			colIDs[col.ID] = true
		}
		for i, row := range rows {
			for key := range row {
				if !colIDs[key] {
					return apperr.Validation("element %q row %d has unknown column %q", el.ID, i, key)
				}
			}
		}
	}
	return nil
}
