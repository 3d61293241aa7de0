package intake

import (
	"context"

	"github.com/google/uuid"
)

type AssignmentRepository interface {
	Create(ctx context.Context, a *Assignment) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Assignment, error)
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status AssignmentStatus) error
	ListByPatient(ctx context.Context, orgID, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, s *Submission) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Submission, error)
	GetByAssignment(ctx context.Context, orgID, assignmentID uuid.UUID) (*Submission, error)
	ListByPatient(ctx context.Context, orgID, patientID uuid.UUID, limit, offset int) ([]*Submission, int, error)
}
