// Package intake tracks forms through their lifecycle: a staff member assigns
// a form schema to a patient, the patient fills it in, and submission freezes
// the answers forever. Assignments snapshot the schema elements at assignment
// time, so later edits to the schema never change what an in-flight patient
// sees or what a stored submission means.
package intake

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/emr/emr/internal/domain/forms"
)

// AssignmentStatus tracks where a form assignment is in its lifecycle.
type AssignmentStatus string

const (
	StatusAssigned   AssignmentStatus = "assigned"
	StatusInProgress AssignmentStatus = "in_progress"
	StatusSubmitted  AssignmentStatus = "submitted"
)

// Assignment issues one form schema to one patient. SchemaVersion and
// SchemaSnapshot capture the schema as it stood at assignment time.
type Assignment struct {
	ID             uuid.UUID           `json:"id"`
	OrgID          uuid.UUID           `json:"org_id"`
	SchemaID       uuid.UUID           `json:"schema_id"`
	SchemaVersion  int                 `json:"schema_version"`
	SchemaSnapshot []forms.FormElement `json:"schema_snapshot"`
	PatientID      uuid.UUID           `json:"patient_id"`
	AssignedBy     uuid.UUID           `json:"assigned_by"`
	Status         AssignmentStatus    `json:"status"`
	DueAt          *time.Time          `json:"due_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Answer is the patient's response to a single form element. Value is kept
// raw because its shape depends on the element type.
type Answer struct {
	ElementID string          `json:"element_id"`
	Value     json.RawMessage `json:"value"`
}

// SubmissionAnswer is one stored answer, denormalized with the question text
// so the submission reads on its own even if the schema is later deleted.
// Answer is JSON null when an optional element went unanswered.
type SubmissionAnswer struct {
	FieldID  string          `json:"field_id"`
	Question string          `json:"question"`
	Answer   json.RawMessage `json:"answer"`
}

// Submission is the immutable record of a completed assignment. It carries
// the schema identity so the answers can always be read against the exact
// elements the patient saw. Answers follow the snapshot's display order.
type Submission struct {
	ID            uuid.UUID          `json:"id"`
	OrgID         uuid.UUID          `json:"org_id"`
	AssignmentID  uuid.UUID          `json:"assignment_id"`
	PatientID     uuid.UUID          `json:"patient_id"`
	SchemaID      uuid.UUID          `json:"schema_id"`
	SchemaVersion int                `json:"schema_version"`
	Answers       []SubmissionAnswer `json:"answers"`
	SubmittedAt   time.Time          `json:"submitted_at"`
}

// BuildSubmissionAnswers pairs the validated answers with the snapshot's
// answerable elements, in display order. Unanswered optional elements get a
// null answer so every question the patient saw appears in the record.
func BuildSubmissionAnswers(elements []forms.FormElement, answers []Answer) []SubmissionAnswer {
	byID := make(map[string]json.RawMessage, len(answers))
	for _, a := range answers {
		byID[a.ElementID] = a.Value
	}
	out := make([]SubmissionAnswer, 0, len(elements))
	for _, el := range elements {
		if !el.Type.Answerable() {
			continue
		}
		value, ok := byID[el.ID]
		if !ok {
			value = json.RawMessage("null")
		}
		out = append(out, SubmissionAnswer{
			FieldID:  el.ID,
			Question: el.Label,
			Answer:   value,
		})
	}
	return out
}
