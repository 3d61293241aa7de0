package forms

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/emr/emr/pkg/apperr"
)

// -- Mock Repository --

type mockSchemaRepo struct {
	items map[uuid.UUID]*FormSchema
}

func newMockSchemaRepo() *mockSchemaRepo {
	return &mockSchemaRepo{items: make(map[uuid.UUID]*FormSchema)}
}

func (m *mockSchemaRepo) Create(_ context.Context, s *FormSchema) error {
	s.ID = uuid.New()
	s.Version = 1
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *mockSchemaRepo) GetByID(_ context.Context, orgID, id uuid.UUID) (*FormSchema, error) {
	s, ok := m.items[id]
	if !ok || s.OrgID != orgID || s.IsDeleted {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	cp.Elements = append([]FormElement(nil), s.Elements...)
	return &cp, nil
}

func (m *mockSchemaRepo) Update(_ context.Context, s *FormSchema) error {
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *mockSchemaRepo) SoftDelete(_ context.Context, orgID, id uuid.UUID) error {
	if s, ok := m.items[id]; ok && s.OrgID == orgID {
		s.IsDeleted = true
	}
	return nil
}

func (m *mockSchemaRepo) ListByOrg(_ context.Context, orgID uuid.UUID, tag string, limit, offset int) ([]*FormSchema, int, error) {
	var result []*FormSchema
	for _, s := range m.items {
		if s.OrgID != orgID || s.IsDeleted {
			continue
		}
		if tag != "" && !hasTag(s.Tags, tag) {
			continue
		}
		result = append(result, s)
	}
	return result, len(result), nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T) (*Service, uuid.UUID, *FormSchema) {
	t.Helper()
	svc := NewService(newMockSchemaRepo())
	orgID := uuid.New()
	schema := &FormSchema{
		OrgID: orgID,
		Name:  "Intake",
		Elements: []FormElement{
			{ID: "name", Type: ElementText, Label: "Full name", Required: true},
			{ID: "dob", Type: ElementDate, Label: "Date of birth"},
		},
	}
	if err := svc.CreateSchema(context.Background(), schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return svc, orgID, schema
}

// -- Tests --

func TestCreateSchema_SetsVersionOne(t *testing.T) {
	_, _, schema := newTestService(t)
	if schema.Version != 1 {
		t.Errorf("expected version 1, got %d", schema.Version)
	}
}

func TestCreateSchema_RejectsInvalid(t *testing.T) {
	svc := NewService(newMockSchemaRepo())
	err := svc.CreateSchema(context.Background(), &FormSchema{
		OrgID:    uuid.New(),
		Name:     "Bad",
		Elements: []FormElement{{ID: "x", Type: "bogus"}},
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdateSchema_BumpsVersion(t *testing.T) {
	svc, orgID, schema := newTestService(t)

	schema.Description = "Updated intake form"
	updated, err := svc.UpdateSchema(context.Background(), schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("expected version 2, got %d", updated.Version)
	}

	fetched, err := svc.GetSchema(context.Background(), orgID, schema.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetched.Description != "Updated intake form" {
		t.Errorf("expected description to persist, got %q", fetched.Description)
	}
}

func TestAddElement_BumpsVersionAndPersists(t *testing.T) {
	svc, orgID, schema := newTestService(t)

	updated, err := svc.AddElement(context.Background(), orgID, schema.ID,
		FormElement{ID: "sig", Type: ElementSignature, Label: "Signature", Required: true}, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("expected version 2, got %d", updated.Version)
	}

	fetched, err := svc.GetSchema(context.Background(), orgID, schema.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetched.Element("sig") == nil {
		t.Error("expected added element to persist")
	}
}

func TestAddElement_InvalidLeavesVersion(t *testing.T) {
	svc, orgID, schema := newTestService(t)

	_, err := svc.AddElement(context.Background(), orgID, schema.ID,
		FormElement{ID: "choice", Type: ElementDropdown, Label: "Pick one"}, -1)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	fetched, err := svc.GetSchema(context.Background(), orgID, schema.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetched.Version != 1 {
		t.Errorf("expected version unchanged at 1, got %d", fetched.Version)
	}
}

func TestRemoveElement_Unknown(t *testing.T) {
	svc, orgID, schema := newTestService(t)
	_, err := svc.RemoveElement(context.Background(), orgID, schema.ID, "nope")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestReorderElements_Service(t *testing.T) {
	svc, orgID, schema := newTestService(t)
	updated, err := svc.ReorderElements(context.Background(), orgID, schema.ID, []string{"dob", "name"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Elements[0].ID != "dob" {
		t.Errorf("expected dob first, got %s", updated.Elements[0].ID)
	}
}

func TestMoveElement_Service(t *testing.T) {
	svc, orgID, schema := newTestService(t)
	updated, err := svc.MoveElement(context.Background(), orgID, schema.ID, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Elements[0].ID != "dob" {
		t.Errorf("expected dob first, got %s", updated.Elements[0].ID)
	}
	if updated.Version != 2 {
		t.Errorf("expected version 2, got %d", updated.Version)
	}
}

func TestMoveElement_OutOfRange_Service(t *testing.T) {
	svc, orgID, schema := newTestService(t)
	_, err := svc.MoveElement(context.Background(), orgID, schema.ID, 5, 0)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestListSchemas_FiltersByTag(t *testing.T) {
	svc, orgID, _ := newTestService(t)
	tagged := &FormSchema{
		OrgID: orgID,
		Name:  "Consent",
		Tags:  []string{"consent", "surgical"},
		Elements: []FormElement{
			{ID: "agree", Type: ElementCheckbox, Label: "I agree"},
		},
	}
	if err := svc.CreateSchema(context.Background(), tagged); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	items, total, err := svc.ListSchemas(context.Background(), orgID, "consent", 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != tagged.ID {
		t.Fatalf("expected only the tagged schema, got %d items (total %d)", len(items), total)
	}

	_, total, err = svc.ListSchemas(context.Background(), orgID, "", 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("expected both schemas without a tag filter, got %d", total)
	}
}

func TestGetSchema_CrossOrgIsNotFound(t *testing.T) {
	svc, _, schema := newTestService(t)
	_, err := svc.GetSchema(context.Background(), uuid.New(), schema.ID)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found for cross-org read, got %v", err)
	}
}

func TestDeleteSchema_HidesFromReads(t *testing.T) {
	svc, orgID, schema := newTestService(t)
	if err := svc.DeleteSchema(context.Background(), orgID, schema.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetSchema(context.Background(), orgID, schema.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}
