package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/emr/emr/pkg/apperr"
)

type Service struct {
	orgs      OrganizationRepository
	providers ProviderRepository
	patients  PatientRepository
}

func NewService(orgs OrganizationRepository, providers ProviderRepository, patients PatientRepository) *Service {
	return &Service{orgs: orgs, providers: providers, patients: patients}
}

// -- Organization --

func (s *Service) CreateOrganization(ctx context.Context, o *Organization) error {
	if strings.TrimSpace(o.Name) == "" {
		return apperr.Validation("organization name is required")
	}
	if err := s.orgs.Create(ctx, o); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (s *Service) GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error) {
	o, err := s.orgs.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("organization %s not found", id)
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return o, nil
}

func (s *Service) ListOrganizations(ctx context.Context, limit, offset int) ([]*Organization, int, error) {
	items, total, err := s.orgs.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return items, total, nil
}

// -- Provider --

func (s *Service) CreateProvider(ctx context.Context, p *Provider) error {
	if p.OrgID == uuid.Nil {
		return apperr.Validation("org_id is required")
	}
	if strings.TrimSpace(p.GivenName) == "" || strings.TrimSpace(p.FamilyName) == "" {
		return apperr.Validation("provider name is required")
	}
	if p.Role == "" {
		p.Role = RoleClinician
	}
	if !validProviderRoles[p.Role] {
		return apperr.Validation("invalid role: %s", p.Role)
	}
	if err := s.providers.Create(ctx, p); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (s *Service) GetProvider(ctx context.Context, orgID, id uuid.UUID) (*Provider, error) {
	p, err := s.providers.GetByID(ctx, orgID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("provider %s not found", id)
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return p, nil
}

func (s *Service) UpdateProvider(ctx context.Context, p *Provider) error {
	if p.Role != "" && !validProviderRoles[p.Role] {
		return apperr.Validation("invalid role: %s", p.Role)
	}
	if _, err := s.GetProvider(ctx, p.OrgID, p.ID); err != nil {
		return err
	}
	if err := s.providers.Update(ctx, p); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (s *Service) ListProviders(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Provider, int, error) {
	items, total, err := s.providers.ListByOrg(ctx, orgID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return items, total, nil
}

// -- Patient --

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.OrgID == uuid.Nil {
		return apperr.Validation("org_id is required")
	}
	if strings.TrimSpace(p.GivenName) == "" || strings.TrimSpace(p.FamilyName) == "" {
		return apperr.Validation("patient name is required")
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (s *Service) GetPatient(ctx context.Context, orgID, id uuid.UUID) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, orgID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient %s not found", id)
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return p, nil
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if _, err := s.GetPatient(ctx, p.OrgID, p.ID); err != nil {
		return err
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (s *Service) DeletePatient(ctx context.Context, orgID, id uuid.UUID) error {
	if _, err := s.GetPatient(ctx, orgID, id); err != nil {
		return err
	}
	if err := s.patients.SoftDelete(ctx, orgID, id); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (s *Service) ListPatients(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	items, total, err := s.patients.ListByOrg(ctx, orgID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return items, total, nil
}
