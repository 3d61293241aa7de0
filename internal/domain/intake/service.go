package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/emr/emr/internal/domain/forms"
	"github.com/emr/emr/internal/domain/identity"
	"github.com/emr/emr/internal/platform/canvas"
	"github.com/emr/emr/internal/platform/realtime"
	"github.com/emr/emr/pkg/apperr"
)

// SchemaGetter resolves form schemas; satisfied by *forms.Service.
type SchemaGetter interface {
	GetSchema(ctx context.Context, orgID, id uuid.UUID) (*forms.FormSchema, error)
}

// PatientGetter resolves patients; satisfied by *identity.Service.
type PatientGetter interface {
	GetPatient(ctx context.Context, orgID, id uuid.UUID) (*identity.Patient, error)
}

// TxRunner runs fn inside a database transaction carried in the context.
// Production wiring binds this to db.WithTx over the shared pool.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

type Service struct {
	assignments AssignmentRepository
	submissions SubmissionRepository
	schemas     SchemaGetter
	patients    PatientGetter
	tx          TxRunner
	publisher   realtime.EventPublisher
}

func NewService(
	assignments AssignmentRepository,
	submissions SubmissionRepository,
	schemas SchemaGetter,
	patients PatientGetter,
	tx TxRunner,
	publisher realtime.EventPublisher,
) *Service {
	return &Service{
		assignments: assignments,
		submissions: submissions,
		schemas:     schemas,
		patients:    patients,
		tx:          tx,
		publisher:   publisher,
	}
}

// CreateAssignment issues a schema to a patient, snapshotting the schema's
// elements and version so later edits never affect this assignment. A nil
// dueAt means the assignment has no deadline.
func (s *Service) CreateAssignment(ctx context.Context, orgID, schemaID, patientID, assignedBy uuid.UUID, dueAt *time.Time) (*Assignment, error) {
	schema, err := s.schemas.GetSchema(ctx, orgID, schemaID)
	if err != nil {
		return nil, err
	}
	if _, err := s.patients.GetPatient(ctx, orgID, patientID); err != nil {
		return nil, err
	}

	a := &Assignment{
		OrgID:          orgID,
		SchemaID:       schema.ID,
		SchemaVersion:  schema.Version,
		SchemaSnapshot: schema.Elements,
		PatientID:      patientID,
		AssignedBy:     assignedBy,
		Status:         StatusAssigned,
		DueAt:          dueAt,
	}
	if err := s.assignments.Create(ctx, a); err != nil {
		return nil, apperr.Storage(err)
	}

	s.publish(ctx, "assignment.created", a)
	return a, nil
}

func (s *Service) GetAssignment(ctx context.Context, orgID, id uuid.UUID) (*Assignment, error) {
	a, err := s.assignments.GetByID(ctx, orgID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("assignment %s not found", id)
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return a, nil
}

// StartAssignment marks an assignment in_progress when the patient first
// saves partial work. Starting is optional: a patient may submit directly
// from assigned.
func (s *Service) StartAssignment(ctx context.Context, orgID, id uuid.UUID) (*Assignment, error) {
	a, err := s.GetAssignment(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	switch a.Status {
	case StatusSubmitted:
		return nil, apperr.Conflict("assignment %s is already submitted", id)
	case StatusInProgress:
		return a, nil
	}
	if err := s.assignments.UpdateStatus(ctx, orgID, id, StatusInProgress); err != nil {
		return nil, apperr.Storage(err)
	}
	a.Status = StatusInProgress
	return a, nil
}

// SubmitForm validates the answers against the assignment's schema snapshot
// and records the submission. The submission insert and the assignment's
// transition to submitted happen in one transaction; a failure of either
// leaves both untouched.
func (s *Service) SubmitForm(ctx context.Context, orgID, assignmentID uuid.UUID, answers []Answer) (*Submission, error) {
	a, err := s.GetAssignment(ctx, orgID, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusSubmitted {
		return nil, apperr.Conflict("assignment %s is already submitted", assignmentID)
	}

	if err := ValidateAnswers(a.SchemaSnapshot, answers); err != nil {
		return nil, err
	}

	sub := &Submission{
		OrgID:         orgID,
		AssignmentID:  a.ID,
		PatientID:     a.PatientID,
		SchemaID:      a.SchemaID,
		SchemaVersion: a.SchemaVersion,
		Answers:       BuildSubmissionAnswers(a.SchemaSnapshot, answers),
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.submissions.Create(ctx, sub); err != nil {
			// Two submits racing past the status pre-check both reach the
			// insert; the unique constraint on assignment_id decides the
			// winner and the loser gets the same conflict as a late submit.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return apperr.Conflict("assignment %s is already submitted", assignmentID)
			}
			return apperr.Storage(err)
		}
		if err := s.assignments.UpdateStatus(ctx, orgID, a.ID, StatusSubmitted); err != nil {
			return apperr.Storage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.Status = StatusSubmitted
	s.publish(ctx, "assignment.submitted", a)
	return sub, nil
}

func (s *Service) GetSubmission(ctx context.Context, orgID, id uuid.UUID) (*Submission, error) {
	sub, err := s.submissions.GetByID(ctx, orgID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("submission %s not found", id)
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return sub, nil
}

// SubmissionThumbnail renders a scaled-down PNG preview of an image answer
// within a submission. The field must hold a signature or image data URL.
func (s *Service) SubmissionThumbnail(ctx context.Context, orgID, submissionID uuid.UUID, fieldID string, maxWidth, maxHeight int) ([]byte, error) {
	sub, err := s.GetSubmission(ctx, orgID, submissionID)
	if err != nil {
		return nil, err
	}
	for _, ans := range sub.Answers {
		if ans.FieldID != fieldID {
			continue
		}
		var dataURL string
		if err := json.Unmarshal(ans.Answer, &dataURL); err != nil {
			return nil, apperr.Validation("field %q does not hold an image answer", fieldID)
		}
		img, err := canvas.DecodeDataURL(dataURL)
		if err != nil {
			return nil, apperr.Validation("field %q does not hold an image answer", fieldID)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, canvas.Thumbnail(img, maxWidth, maxHeight)); err != nil {
			return nil, apperr.Storage(err)
		}
		return buf.Bytes(), nil
	}
	return nil, apperr.NotFound("submission %s has no field %q", submissionID, fieldID)
}

func (s *Service) GetSubmissionByAssignment(ctx context.Context, orgID, assignmentID uuid.UUID) (*Submission, error) {
	sub, err := s.submissions.GetByAssignment(ctx, orgID, assignmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("no submission for assignment %s", assignmentID)
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return sub, nil
}

func (s *Service) ListAssignmentsByPatient(ctx context.Context, orgID, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	items, total, err := s.assignments.ListByPatient(ctx, orgID, patientID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return items, total, nil
}

func (s *Service) ListSubmissionsByPatient(ctx context.Context, orgID, patientID uuid.UUID, limit, offset int) ([]*Submission, int, error) {
	items, total, err := s.submissions.ListByPatient(ctx, orgID, patientID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return items, total, nil
}

func (s *Service) publish(ctx context.Context, eventType string, a *Assignment) {
	if s.publisher == nil {
		return
	}
	data, _ := json.Marshal(map[string]string{"status": string(a.Status)})
	_ = s.publisher.Publish(ctx, realtime.Event{
		Type:       eventType,
		Topic:      realtime.AssignmentTopic(a.OrgID.String(), a.PatientID.String()),
		Resource:   "Assignment",
		ResourceID: a.ID.String(),
		Timestamp:  time.Now().UTC(),
		Data:       data,
	})
}
