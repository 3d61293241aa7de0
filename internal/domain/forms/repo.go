package forms

import (
	"context"

	"github.com/google/uuid"
)

type SchemaRepository interface {
	Create(ctx context.Context, s *FormSchema) error
	// GetByID returns only schemas that have not been soft deleted.
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*FormSchema, error)
	// Update persists the schema with its version already bumped by the caller.
	Update(ctx context.Context, s *FormSchema) error
	SoftDelete(ctx context.Context, orgID, id uuid.UUID) error
	// ListByOrg lists schemas, optionally filtered to those carrying tag.
	ListByOrg(ctx context.Context, orgID uuid.UUID, tag string, limit, offset int) ([]*FormSchema, int, error)
}
