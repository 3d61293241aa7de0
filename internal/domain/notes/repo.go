package notes

import (
	"context"

	"github.com/google/uuid"
)

type NoteRepository interface {
	Create(ctx context.Context, n *ClinicalNote) error
	// GetByID returns only notes that have not been soft deleted.
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*ClinicalNote, error)
	// UpdateContent writes title/body and bumps the version, but only if the
	// stored version still equals expectedVersion. Returns the number of rows
	// written; zero means the version moved underneath the caller.
	UpdateContent(ctx context.Context, n *ClinicalNote, expectedVersion int) (int64, error)
	// SetStatus transitions lifecycle state and signing metadata.
	SetStatus(ctx context.Context, n *ClinicalNote) error
	SoftDelete(ctx context.Context, orgID, id uuid.UUID) error
	ListByPatient(ctx context.Context, orgID, patientID uuid.UUID, limit, offset int) ([]*ClinicalNote, int, error)
}
