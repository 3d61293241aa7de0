package fax

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/emr/emr/pkg/apperr"
)

type mockFaxRepo struct {
	items map[uuid.UUID]*Fax
}

func newMockFaxRepo() *mockFaxRepo {
	return &mockFaxRepo{items: make(map[uuid.UUID]*Fax)}
}

func (m *mockFaxRepo) Create(_ context.Context, f *Fax) error {
	f.ID = uuid.New()
	f.CreatedAt = time.Now()
	f.UpdatedAt = time.Now()
	cp := *f
	m.items[f.ID] = &cp
	return nil
}

func (m *mockFaxRepo) GetByID(_ context.Context, orgID, id uuid.UUID) (*Fax, error) {
	f, ok := m.items[id]
	if !ok || f.OrgID != orgID {
		return nil, pgx.ErrNoRows
	}
	cp := *f
	return &cp, nil
}

func (m *mockFaxRepo) GetByCarrierSID(_ context.Context, carrierSID string) (*Fax, error) {
	for _, f := range m.items {
		if f.CarrierSID == carrierSID {
			cp := *f
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockFaxRepo) UpdateStatus(_ context.Context, f *Fax) error {
	if stored, ok := m.items[f.ID]; ok {
		stored.Status = f.Status
		stored.PageCount = f.PageCount
		stored.DurationSeconds = f.DurationSeconds
		stored.ErrorMessage = f.ErrorMessage
	}
	return nil
}

func (m *mockFaxRepo) ListByOrg(_ context.Context, orgID uuid.UUID, limit, offset int) ([]*Fax, int, error) {
	var result []*Fax
	for _, f := range m.items {
		if f.OrgID == orgID {
			result = append(result, f)
		}
	}
	return result, len(result), nil
}

func recordFax(t *testing.T, svc *Service, orgID uuid.UUID, sid string) *Fax {
	t.Helper()
	f := &Fax{
		OrgID:      orgID,
		ToNumber:   "+15550001111",
		FromNumber: "+15550002222",
		CarrierSID: sid,
	}
	if err := svc.RecordOutbound(context.Background(), f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return f
}

func TestRecordOutbound_DefaultsToQueued(t *testing.T) {
	svc := NewService(newMockFaxRepo())
	f := recordFax(t, svc, uuid.New(), "FX123")
	if f.Status != StatusQueued {
		t.Errorf("expected queued, got %s", f.Status)
	}
	if f.Direction != DirectionOutbound {
		t.Errorf("expected outbound, got %s", f.Direction)
	}
}

func TestRecordOutbound_RequiresCarrierSID(t *testing.T) {
	svc := NewService(newMockFaxRepo())
	err := svc.RecordOutbound(context.Background(), &Fax{
		OrgID: uuid.New(), ToNumber: "+15550001111",
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHandleStatusCallback_UpdatesMatchedFax(t *testing.T) {
	repo := newMockFaxRepo()
	svc := NewService(repo)
	orgID := uuid.New()
	f := recordFax(t, svc, orgID, "FX123")

	updated, err := svc.HandleStatusCallback(context.Background(), StatusCallback{
		FaxSID: "FX123", Status: StatusDelivered, PageCount: 4, DurationSeconds: 92,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusDelivered {
		t.Errorf("expected delivered, got %s", updated.Status)
	}
	if updated.PageCount != 4 || updated.DurationSeconds != 92 {
		t.Errorf("expected carrier metrics recorded, got pages=%d duration=%d",
			updated.PageCount, updated.DurationSeconds)
	}

	stored, _ := svc.GetFax(context.Background(), orgID, f.ID)
	if stored.Status != StatusDelivered {
		t.Errorf("expected stored status delivered, got %s", stored.Status)
	}
}

func TestHandleStatusCallback_FailureCarriesError(t *testing.T) {
	svc := NewService(newMockFaxRepo())
	recordFax(t, svc, uuid.New(), "FX123")

	updated, err := svc.HandleStatusCallback(context.Background(), StatusCallback{
		FaxSID: "FX123", Status: StatusFailed, ErrorMessage: "no answer from remote",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ErrorMessage != "no answer from remote" {
		t.Errorf("expected carrier error message, got %q", updated.ErrorMessage)
	}
}

func TestHandleStatusCallback_UnknownSID(t *testing.T) {
	svc := NewService(newMockFaxRepo())
	_, err := svc.HandleStatusCallback(context.Background(), StatusCallback{
		FaxSID: "FXmissing", Status: StatusDelivered,
	})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestHandleStatusCallback_UnknownStatus(t *testing.T) {
	svc := NewService(newMockFaxRepo())
	recordFax(t, svc, uuid.New(), "FX123")
	_, err := svc.HandleStatusCallback(context.Background(), StatusCallback{
		FaxSID: "FX123", Status: "teleported",
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestGetFax_CrossOrg(t *testing.T) {
	svc := NewService(newMockFaxRepo())
	f := recordFax(t, svc, uuid.New(), "FX123")
	_, err := svc.GetFax(context.Background(), uuid.New(), f.ID)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found for foreign org, got %v", err)
	}
}
