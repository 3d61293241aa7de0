package fax

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/emr/emr/pkg/apperr"
)

type Service struct {
	faxes FaxRepository
}

func NewService(faxes FaxRepository) *Service {
	return &Service{faxes: faxes}
}

// RecordOutbound registers a fax handed to the carrier. The carrier SID must
// be present; it is the only key later status callbacks can match on.
func (s *Service) RecordOutbound(ctx context.Context, f *Fax) error {
	if strings.TrimSpace(f.ToNumber) == "" {
		return apperr.Validation("to_number is required")
	}
	if strings.TrimSpace(f.CarrierSID) == "" {
		return apperr.Validation("carrier_sid is required")
	}
	f.Direction = DirectionOutbound
	if f.Status == "" {
		f.Status = StatusQueued
	}
	if !validStatuses[f.Status] {
		return apperr.Validation("invalid fax status: %s", f.Status)
	}
	if err := s.faxes.Create(ctx, f); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (s *Service) GetFax(ctx context.Context, orgID, id uuid.UUID) (*Fax, error) {
	f, err := s.faxes.GetByID(ctx, orgID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("fax %s not found", id)
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return f, nil
}

func (s *Service) ListFaxes(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Fax, int, error) {
	items, total, err := s.faxes.ListByOrg(ctx, orgID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return items, total, nil
}

// StatusCallback is the payload the carrier posts as a transmission
// progresses.
type StatusCallback struct {
	FaxSID          string `json:"faxSid"`
	Status          Status `json:"status"`
	PageCount       int    `json:"pageCount"`
	DurationSeconds int    `json:"durationSeconds"`
	ErrorMessage    string `json:"errorMessage"`
}

// HandleStatusCallback applies a carrier delivery update to the fax matching
// the SID. An unknown SID is surfaced as NotFound so misrouted callbacks show
// up in carrier logs instead of vanishing.
func (s *Service) HandleStatusCallback(ctx context.Context, cb StatusCallback) (*Fax, error) {
	if strings.TrimSpace(cb.FaxSID) == "" {
		return nil, apperr.Validation("faxSid is required")
	}
	if !validStatuses[cb.Status] {
		return nil, apperr.Validation("unknown fax status: %s", cb.Status)
	}

	f, err := s.faxes.GetByCarrierSID(ctx, cb.FaxSID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("no fax with carrier sid %s", cb.FaxSID)
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}

	f.Status = cb.Status
	if cb.PageCount > 0 {
		f.PageCount = cb.PageCount
	}
	if cb.DurationSeconds > 0 {
		f.DurationSeconds = cb.DurationSeconds
	}
	f.ErrorMessage = cb.ErrorMessage
	if err := s.faxes.UpdateStatus(ctx, f); err != nil {
		return nil, apperr.Storage(err)
	}
	return f, nil
}
