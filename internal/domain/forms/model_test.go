package forms

import (
	"testing"

	"github.com/emr/emr/pkg/apperr"
)

func baseSchema() *FormSchema {
	return &FormSchema{
		Name: "Intake",
		Elements: []FormElement{
			{ID: "welcome", Type: ElementStaticText, Content: "Welcome to the clinic"},
			{ID: "name", Type: ElementText, Label: "Full name", Required: true},
			{ID: "dob", Type: ElementDate, Label: "Date of birth", Required: true},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := baseSchema().Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FormSchema)
	}{
		{"empty name", func(s *FormSchema) { s.Name = " " }},
		{"missing element id", func(s *FormSchema) { s.Elements[1].ID = "" }},
		{"duplicate element id", func(s *FormSchema) { s.Elements[2].ID = "name" }},
		{"unknown type", func(s *FormSchema) { s.Elements[1].Type = "slider" }},
		{"dropdown without options", func(s *FormSchema) {
			s.Elements = append(s.Elements, FormElement{ID: "pref", Type: ElementDropdown, Label: "Preference"})
		}},
		{"table without columns", func(s *FormSchema) {
			s.Elements = append(s.Elements, FormElement{ID: "meds", Type: ElementTable, Label: "Medications"})
		}},
		{"static text without content", func(s *FormSchema) { s.Elements[0].Content = "" }},
		{"required display element", func(s *FormSchema) { s.Elements[0].Required = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseSchema()
			tt.mutate(s)
			if err := s.Validate(); !apperr.IsKind(err, apperr.KindValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestProblems_CollectsAllErrors(t *testing.T) {
	s := &FormSchema{
		Name: " ",
		Elements: []FormElement{
			{ID: "pref", Type: ElementDropdown, Label: "Preference"},
			{ID: "pref", Type: ElementText, Label: "Duplicate"},
			{ID: "meds", Type: ElementTable, Label: "Medications",
				Columns: []TableColumn{{ID: "dose"}, {ID: "dose"}}},
		},
	}
	errs, _ := s.Problems()
	if len(errs) != 4 {
		t.Fatalf("expected 4 errors (name, options, duplicate id, duplicate column), got %d: %v", len(errs), errs)
	}
	for _, err := range errs {
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	}
	// Validate surfaces the first of them.
	if err := s.Validate(); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error from Validate, got %v", err)
	}
}

func TestProblems_EmptySchemaWarnsButIsValid(t *testing.T) {
	s := &FormSchema{Name: "Blank"}
	errs, warnings := s.Problems()
	if len(errs) != 0 {
		t.Errorf("expected no errors for an empty schema, got %v", errs)
	}
	if len(warnings) != 1 {
		t.Errorf("expected one warning for an empty schema, got %v", warnings)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("expected empty schema to validate, got %v", err)
	}
}

func TestValidate_TableColumnsNeedIDs(t *testing.T) {
	s := baseSchema()
	s.Elements = append(s.Elements, FormElement{
		ID: "meds", Type: ElementTable, Label: "Medications",
		Columns: []TableColumn{{Label: "Drug"}},
	})
	if err := s.Validate(); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for column without id, got %v", err)
	}
}

func TestAddElement_AtPosition(t *testing.T) {
	s := baseSchema()
	el := FormElement{ID: "phone", Type: ElementText, Label: "Phone"}
	if err := s.AddElement(el, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Elements[1].ID != "phone" {
		t.Errorf("expected phone at index 1, got %s", s.Elements[1].ID)
	}
	if len(s.Elements) != 4 {
		t.Errorf("expected 4 elements, got %d", len(s.Elements))
	}
}

func TestAddElement_AppendsWhenOutOfRange(t *testing.T) {
	s := baseSchema()
	if err := s.AddElement(FormElement{ID: "sig", Type: ElementSignature, Label: "Sign here"}, 99); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Elements[len(s.Elements)-1].ID != "sig" {
		t.Error("expected element appended at the end")
	}

	if err := s.AddElement(FormElement{ID: "notes", Type: ElementText, Label: "Notes"}, -1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Elements[len(s.Elements)-1].ID != "notes" {
		t.Error("expected negative position to append")
	}
}

func TestAddElement_GeneratesID(t *testing.T) {
	s := baseSchema()
	if err := s.AddElement(FormElement{Type: ElementCheckbox, Label: "Consent"}, -1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Elements[len(s.Elements)-1].ID == "" {
		t.Error("expected a generated element id")
	}
}

func TestAddElement_DuplicateID(t *testing.T) {
	s := baseSchema()
	err := s.AddElement(FormElement{ID: "name", Type: ElementText}, -1)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdateElement(t *testing.T) {
	s := baseSchema()
	if err := s.UpdateElement(FormElement{ID: "name", Type: ElementText, Label: "Legal name", Required: false}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Elements[1].Label != "Legal name" || s.Elements[1].Required {
		t.Errorf("expected element replaced in place, got %+v", s.Elements[1])
	}
	if err := s.UpdateElement(FormElement{ID: "nope", Type: ElementText}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found for unknown id, got %v", err)
	}
}

func TestRemoveElement(t *testing.T) {
	s := baseSchema()
	if err := s.RemoveElement("name"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Element("name") != nil {
		t.Error("expected element to be removed")
	}
	if err := s.RemoveElement("name"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found for unknown id, got %v", err)
	}
}

func TestMoveElement(t *testing.T) {
	tests := []struct {
		name string
		from int
		to   int
		want []string
	}{
		{"forward", 0, 2, []string{"name", "dob", "welcome"}},
		{"backward", 2, 0, []string{"dob", "welcome", "name"}},
		{"no-op", 1, 1, []string{"welcome", "name", "dob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseSchema()
			if err := s.MoveElement(tt.from, tt.to); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i := range tt.want {
				if s.Elements[i].ID != tt.want[i] {
					t.Errorf("position %d: expected %s, got %s", i, tt.want[i], s.Elements[i].ID)
				}
			}
		})
	}
}

func TestMoveElement_OutOfRange(t *testing.T) {
	s := baseSchema()
	if err := s.MoveElement(-1, 0); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for negative from, got %v", err)
	}
	if err := s.MoveElement(0, 3); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for to past end, got %v", err)
	}
	if err := s.MoveElement(3, 0); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for from past end, got %v", err)
	}
}

func TestReorderElements(t *testing.T) {
	s := baseSchema()
	if err := s.ReorderElements([]string{"dob", "welcome", "name"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []string{s.Elements[0].ID, s.Elements[1].ID, s.Elements[2].ID}
	want := []string{"dob", "welcome", "name"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestReorderElements_Invalid(t *testing.T) {
	s := baseSchema()
	if err := s.ReorderElements([]string{"dob", "welcome"}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for short order, got %v", err)
	}
	if err := s.ReorderElements([]string{"dob", "welcome", "bogus"}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for unknown id, got %v", err)
	}
	// Duplicated id fails because the permutation consumes each id once.
	if err := s.ReorderElements([]string{"dob", "dob", "name"}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for duplicate id, got %v", err)
	}
}
