// Package forms implements the form schema builder: clinics assemble intake
// and consent forms from typed elements, publish them, and revise them over
// time. Every saved change bumps the schema version; assignments snapshot the
// version they were issued against so in-flight forms never shift under the
// patient.
package forms

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emr/emr/pkg/apperr"
)

// ElementType enumerates the kinds of building blocks a form can contain.
type ElementType string

const (
	ElementStaticText ElementType = "static_text"
	ElementText       ElementType = "text"
	ElementCheckbox   ElementType = "checkbox"
	ElementDropdown   ElementType = "dropdown"
	ElementRadio      ElementType = "radio"
	ElementDate       ElementType = "date"
	ElementSignature  ElementType = "signature"
	ElementTable      ElementType = "table"
	ElementImage      ElementType = "image"
	ElementSection    ElementType = "section"
)

var validElementTypes = map[ElementType]bool{
	ElementStaticText: true,
	ElementText:       true,
	ElementCheckbox:   true,
	ElementDropdown:   true,
	ElementRadio:      true,
	ElementDate:       true,
	ElementSignature:  true,
	ElementTable:      true,
	ElementImage:      true,
	ElementSection:    true,
}

// Answerable reports whether the element type collects an answer from the
// patient. Static text and section headers are display-only; image elements
// take a patient upload.
func (t ElementType) Answerable() bool {
	switch t {
	case ElementStaticText, ElementSection:
		return false
	}
	return true
}

// TableColumn defines one column of a table element. Row answers are keyed by
// the column ID.
type TableColumn struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// FormElement is one building block within a form schema. Elements are stored
// in display order inside the schema's JSONB column.
type FormElement struct {
	ID       string      `json:"id"`
	Type     ElementType `json:"type"`
	Label    string      `json:"label,omitempty"`
	Required bool        `json:"required,omitempty"`
	// Options holds the choices for dropdown and radio elements.
	Options []string `json:"options,omitempty"`
	// Columns holds the column definitions for table elements.
	Columns []TableColumn `json:"columns,omitempty"`
	// Content holds the text for display-only elements.
	Content string `json:"content,omitempty"`
}

// FormSchema is a versioned form definition owned by one organization.
type FormSchema struct {
	ID          uuid.UUID     `json:"id"`
	OrgID       uuid.UUID     `json:"org_id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Version     int           `json:"version"`
	Elements    []FormElement `json:"elements"`
	IsDeleted   bool          `json:"-"`
	CreatedBy   uuid.UUID     `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Problems checks structural integrity and returns every validation error
// plus advisory warnings: a name, known element types, unique element IDs,
// and per-type requirements (choices need options, tables need identified
// columns, display elements need content). A schema with no elements is
// valid but warned about; warnings never block saving.
func (s *FormSchema) Problems() (errs []error, warnings []string) {
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, apperr.Validation("schema name is required"))
	}
	if len(s.Elements) == 0 {
		warnings = append(warnings, "schema has no elements")
	}
	seen := make(map[string]bool, len(s.Elements))
	for i, el := range s.Elements {
		errs = append(errs, elementProblems(el, i, seen)...)
	}
	return errs, warnings
}

func elementProblems(el FormElement, index int, seen map[string]bool) []error {
	var errs []error
	if el.ID == "" {
		errs = append(errs, apperr.Validation("element %d is missing an id", index))
	} else if seen[el.ID] {
		errs = append(errs, apperr.Validation("duplicate element id %q", el.ID))
	} else {
		seen[el.ID] = true
	}

	if !validElementTypes[el.Type] {
		errs = append(errs, apperr.Validation("element %q has unknown type %q", el.ID, el.Type))
		return errs
	}
	if el.Type.Answerable() && strings.TrimSpace(el.Label) == "" {
		errs = append(errs, apperr.Validation("element %q needs a label", el.ID))
	}

	switch el.Type {
	case ElementDropdown, ElementRadio:
		if len(el.Options) == 0 {
			errs = append(errs, apperr.Validation("element %q needs at least one option", el.ID))
		}
	case ElementTable:
		if len(el.Columns) == 0 {
			errs = append(errs, apperr.Validation("element %q needs at least one column", el.ID))
		}
		colSeen := make(map[string]bool, len(el.Columns))
		for _, col := range el.Columns {
			if col.ID == "" {
				errs = append(errs, apperr.Validation("element %q has a column without an id", el.ID))
				continue
			}
			if colSeen[col.ID] {
				errs = append(errs, apperr.Validation("element %q has duplicate column id %q", el.ID, col.ID))
			}
			colSeen[col.ID] = true
		}
	case ElementStaticText:
		if strings.TrimSpace(el.Content) == "" {
			errs = append(errs, apperr.Validation("element %q needs content", el.ID))
		}
	}

	if el.Required && !el.Type.Answerable() {
		errs = append(errs, apperr.Validation("element %q is display-only and cannot be required", el.ID))
	}
	return errs
}

// Validate is the save-time gate: it returns the first problem found, or nil.
func (s *FormSchema) Validate() error {
	errs, _ := s.Problems()
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Element returns the element with the given id, or nil.
func (s *FormSchema) Element(id string) *FormElement {
	for i := range s.Elements {
		if s.Elements[i].ID == id {
			return &s.Elements[i]
		}
	}
	return nil
}

// AddElement inserts an element at the given position. A negative or
// out-of-range position appends. The element id must be unique.
func (s *FormSchema) AddElement(el FormElement, position int) error {
	if el.ID == "" {
		el.ID = uuid.NewString()
	}
	if s.Element(el.ID) != nil {
		return apperr.Validation("element id %q already exists", el.ID)
	}
	if position < 0 || position > len(s.Elements) {
		position = len(s.Elements)
	}
	s.Elements = append(s.Elements, FormElement{})
	copy(s.Elements[position+1:], s.Elements[position:])
	s.Elements[position] = el
	return nil
}

// UpdateElement replaces the element carrying el.ID in place, keeping its
// position.
func (s *FormSchema) UpdateElement(el FormElement) error {
	for i := range s.Elements {
		if s.Elements[i].ID == el.ID {
			s.Elements[i] = el
			return nil
		}
	}
	return apperr.NotFound("element %q not found", el.ID)
}

// RemoveElement deletes the element with the given id.
func (s *FormSchema) RemoveElement(id string) error {
	for i := range s.Elements {
		if s.Elements[i].ID == id {
			s.Elements = append(s.Elements[:i], s.Elements[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("element %q not found", id)
}

// MoveElement shifts the element at fromIndex to toIndex, preserving the
// relative order of everything else.
func (s *FormSchema) MoveElement(fromIndex, toIndex int) error {
	n := len(s.Elements)
	if fromIndex < 0 || fromIndex >= n {
		return apperr.Validation("from index %d out of range [0,%d)", fromIndex, n)
	}
	if toIndex < 0 || toIndex >= n {
		return apperr.Validation("to index %d out of range [0,%d)", toIndex, n)
	}
	el := s.Elements[fromIndex]
	s.Elements = append(s.Elements[:fromIndex], s.Elements[fromIndex+1:]...)
	s.Elements = append(s.Elements, FormElement{})
	copy(s.Elements[toIndex+1:], s.Elements[toIndex:])
	s.Elements[toIndex] = el
	return nil
}

// ReorderElements rearranges elements to match the given id order. The order
// must be an exact permutation of the current element ids.
func (s *FormSchema) ReorderElements(order []string) error {
	if len(order) != len(s.Elements) {
		return apperr.Validation("reorder must list all %d elements", len(s.Elements))
	}
	byID := make(map[string]FormElement, len(s.Elements))
	for _, el := range s.Elements {
		byID[el.ID] = el
	}
	reordered := make([]FormElement, 0, len(order))
	for _, id := range order {
		el, ok := byID[id]
		if !ok {
			return apperr.Validation("unknown element id %q in reorder", id)
		}
		delete(byID, id)
		reordered = append(reordered, el)
	}
	s.Elements = reordered
	return nil
}
