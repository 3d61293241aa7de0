package identity

import (
	"context"

	"github.com/google/uuid"
)

type OrganizationRepository interface {
	Create(ctx context.Context, o *Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	List(ctx context.Context, limit, offset int) ([]*Organization, int, error)
}

type ProviderRepository interface {
	Create(ctx context.Context, p *Provider) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Provider, error)
	Update(ctx context.Context, p *Provider) error
	ListByOrg(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Provider, int, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	// GetByID returns only patients that have not been soft deleted.
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SoftDelete(ctx context.Context, orgID, id uuid.UUID) error
	ListByOrg(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Patient, int, error)
}
