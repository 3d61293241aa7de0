package fax

import (
	"context"

	"github.com/google/uuid"
)

type FaxRepository interface {
	Create(ctx context.Context, f *Fax) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Fax, error)
	// GetByCarrierSID is not org-scoped: carrier callbacks carry no tenant
	// context, only the SID issued at send time. The row itself names the org.
	GetByCarrierSID(ctx context.Context, carrierSID string) (*Fax, error)
	// UpdateStatus writes the carrier-reported delivery fields.
	UpdateStatus(ctx context.Context, f *Fax) error
	ListByOrg(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Fax, int, error)
}
