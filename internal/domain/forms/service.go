package forms

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/emr/emr/pkg/apperr"
)

type Service struct {
	schemas SchemaRepository
}

func NewService(schemas SchemaRepository) *Service {
	return &Service{schemas: schemas}
}

func (s *Service) CreateSchema(ctx context.Context, schema *FormSchema) error {
	if schema.OrgID == uuid.Nil {
		return apperr.Validation("org_id is required")
	}
	if err := schema.Validate(); err != nil {
		return err
	}
	if err := s.schemas.Create(ctx, schema); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (s *Service) GetSchema(ctx context.Context, orgID, id uuid.UUID) (*FormSchema, error) {
	schema, err := s.schemas.GetByID(ctx, orgID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("form schema %s not found", id)
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return schema, nil
}

// UpdateSchema replaces the schema's metadata and elements. Each saved change
// bumps the version so outstanding assignments keep the revision they were
// issued against.
func (s *Service) UpdateSchema(ctx context.Context, schema *FormSchema) (*FormSchema, error) {
	current, err := s.GetSchema(ctx, schema.OrgID, schema.ID)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	current.Name = schema.Name
	current.Description = schema.Description
	current.Tags = schema.Tags
	current.Elements = schema.Elements
	current.Version++

	if err := s.schemas.Update(ctx, current); err != nil {
		return nil, apperr.Storage(err)
	}
	return current, nil
}

// CheckSchema reports every problem with a stored schema without modifying
// it, so a builder UI can show all defects in one pass.
func (s *Service) CheckSchema(ctx context.Context, orgID, id uuid.UUID) ([]error, []string, error) {
	schema, err := s.GetSchema(ctx, orgID, id)
	if err != nil {
		return nil, nil, err
	}
	errs, warnings := schema.Problems()
	return errs, warnings, nil
}

func (s *Service) DeleteSchema(ctx context.Context, orgID, id uuid.UUID) error {
	if _, err := s.GetSchema(ctx, orgID, id); err != nil {
		return err
	}
	if err := s.schemas.SoftDelete(ctx, orgID, id); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

// ListSchemas pages through the org's schemas. A non-empty tag restricts the
// listing to schemas carrying it.
func (s *Service) ListSchemas(ctx context.Context, orgID uuid.UUID, tag string, limit, offset int) ([]*FormSchema, int, error) {
	items, total, err := s.schemas.ListByOrg(ctx, orgID, tag, limit, offset)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return items, total, nil
}

// mutate loads a schema, applies fn, revalidates, bumps the version, and
// saves. All builder operations funnel through here.
func (s *Service) mutate(ctx context.Context, orgID, id uuid.UUID, fn func(*FormSchema) error) (*FormSchema, error) {
	schema, err := s.GetSchema(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(schema); err != nil {
		return nil, err
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	schema.Version++
	if err := s.schemas.Update(ctx, schema); err != nil {
		return nil, apperr.Storage(err)
	}
	return schema, nil
}

// AddElement inserts an element at position; negative appends.
func (s *Service) AddElement(ctx context.Context, orgID, id uuid.UUID, el FormElement, position int) (*FormSchema, error) {
	return s.mutate(ctx, orgID, id, func(schema *FormSchema) error {
		return schema.AddElement(el, position)
	})
}

func (s *Service) UpdateElement(ctx context.Context, orgID, id uuid.UUID, el FormElement) (*FormSchema, error) {
	return s.mutate(ctx, orgID, id, func(schema *FormSchema) error {
		return schema.UpdateElement(el)
	})
}

func (s *Service) RemoveElement(ctx context.Context, orgID, id uuid.UUID, elementID string) (*FormSchema, error) {
	return s.mutate(ctx, orgID, id, func(schema *FormSchema) error {
		return schema.RemoveElement(elementID)
	})
}

func (s *Service) MoveElement(ctx context.Context, orgID, id uuid.UUID, fromIndex, toIndex int) (*FormSchema, error) {
	return s.mutate(ctx, orgID, id, func(schema *FormSchema) error {
		return schema.MoveElement(fromIndex, toIndex)
	})
}

func (s *Service) ReorderElements(ctx context.Context, orgID, id uuid.UUID, order []string) (*FormSchema, error) {
	return s.mutate(ctx, orgID, id, func(schema *FormSchema) error {
		return schema.ReorderElements(order)
	})
}
