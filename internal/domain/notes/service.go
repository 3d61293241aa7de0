package notes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/emr/emr/internal/domain/identity"
	"github.com/emr/emr/internal/platform/ai"
	"github.com/emr/emr/internal/platform/realtime"
	"github.com/emr/emr/internal/platform/speech"
	"github.com/emr/emr/pkg/apperr"
)

// PatientGetter resolves patients; satisfied by *identity.Service.
type PatientGetter interface {
	GetPatient(ctx context.Context, orgID, id uuid.UUID) (*identity.Patient, error)
}

// TxRunner runs fn inside a database transaction carried in the context.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

const draftSystemPrompt = "You are a clinical documentation assistant. " +
	"Write a concise, structured clinical note from the material provided. " +
	"Do not invent findings that are not in the source text."

type Service struct {
	notes       NoteRepository
	patients    PatientGetter
	tx          TxRunner
	publisher   realtime.EventPublisher
	completer   ai.Completer
	transcriber speech.Transcriber
}

func NewService(
	notes NoteRepository,
	patients PatientGetter,
	tx TxRunner,
	publisher realtime.EventPublisher,
	completer ai.Completer,
	transcriber speech.Transcriber,
) *Service {
	return &Service{
		notes:       notes,
		patients:    patients,
		tx:          tx,
		publisher:   publisher,
		completer:   completer,
		transcriber: transcriber,
	}
}

// CreateNote starts a new draft. The patient must belong to the caller's
// organization; a cross-org patient reference is an authorization failure,
// not a lookup miss, because the caller is naming a record it cannot touch.
func (s *Service) CreateNote(ctx context.Context, n *ClinicalNote) error {
	if n.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if n.AuthorID == uuid.Nil {
		return apperr.Validation("author_id is required")
	}
	if n.Type == "" {
		n.Type = TypeManual
	}
	if !validNoteTypes[n.Type] {
		return apperr.Validation("invalid note type: %s", n.Type)
	}

	if _, err := s.patients.GetPatient(ctx, n.OrgID, n.PatientID); err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.Authorization("patient %s is not accessible to this organization", n.PatientID)
		}
		return err
	}

	n.Status = StatusDraft
	if err := s.notes.Create(ctx, n); err != nil {
		return apperr.Storage(err)
	}

	s.publish(ctx, "note.created", n)
	return nil
}

func (s *Service) GetNote(ctx context.Context, orgID, id uuid.UUID) (*ClinicalNote, error) {
	n, err := s.notes.GetByID(ctx, orgID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("note %s not found", id)
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return n, nil
}

// UpdateNote replaces a note's title, body, and tags. expectedVersion must
// match the version the caller read; a mismatch means someone else wrote
// first and the caller must re-read and retry.
func (s *Service) UpdateNote(ctx context.Context, orgID, id uuid.UUID, title, body string, tags []string, expectedVersion int) (*ClinicalNote, error) {
	n, err := s.GetNote(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if !n.Status.Editable() {
		return nil, apperr.Conflict("note %s is %s and cannot be edited; amend it instead", id, n.Status)
	}

	n.Title = title
	n.Body = body
	n.Tags = tags
	rows, err := s.notes.UpdateContent(ctx, n, expectedVersion)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if rows == 0 {
		return nil, apperr.Conflict("note %s was modified concurrently (expected version %d)", id, expectedVersion)
	}
	n.Version = expectedVersion + 1

	s.publish(ctx, "note.updated", n)
	return n, nil
}

// SignNote freezes a note. Only editable notes can be signed.
func (s *Service) SignNote(ctx context.Context, orgID, id, signedBy uuid.UUID) (*ClinicalNote, error) {
	n, err := s.GetNote(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if n.Status == StatusSigned {
		return nil, apperr.Conflict("note %s is already signed", id)
	}
	if !n.Status.Editable() {
		return nil, apperr.Conflict("note %s is %s and cannot be signed", id, n.Status)
	}

	now := time.Now().UTC()
	n.Status = StatusSigned
	n.SignedBy = &signedBy
	n.SignedAt = &now
	if err := s.notes.SetStatus(ctx, n); err != nil {
		return nil, apperr.Storage(err)
	}

	s.publish(ctx, "note.signed", n)
	return n, nil
}

// AmendNote forks a signed note: the original is marked amended and stays
// frozen, and a new editable draft carrying the original's content points
// back at it via parent_note_id. Both writes happen in one transaction.
func (s *Service) AmendNote(ctx context.Context, orgID, id, authorID uuid.UUID) (*ClinicalNote, error) {
	original, err := s.GetNote(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if original.Status != StatusSigned {
		return nil, apperr.Conflict("only signed notes can be amended; note %s is %s", id, original.Status)
	}

	amendment := &ClinicalNote{
		OrgID:        orgID,
		PatientID:    original.PatientID,
		AuthorID:     authorID,
		Type:         original.Type,
		Status:       StatusDraft,
		Title:        original.Title,
		Body:         original.Body,
		Tags:         original.Tags,
		Transcript:   original.Transcript,
		ParentNoteID: &original.ID,
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.notes.Create(ctx, amendment); err != nil {
			return apperr.Storage(err)
		}
		original.Status = StatusAmended
		if err := s.notes.SetStatus(ctx, original); err != nil {
			return apperr.Storage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "note.amended", amendment)
	return amendment, nil
}

// DeleteNote soft-deletes an editable note. Signed and amended notes are part
// of the legal record and cannot be removed.
func (s *Service) DeleteNote(ctx context.Context, orgID, id uuid.UUID) error {
	n, err := s.GetNote(ctx, orgID, id)
	if err != nil {
		return err
	}
	if !n.Status.Editable() {
		return apperr.Conflict("note %s is %s and cannot be deleted", id, n.Status)
	}
	if err := s.notes.SoftDelete(ctx, orgID, id); err != nil {
		return apperr.Storage(err)
	}
	s.publish(ctx, "note.deleted", n)
	return nil
}

func (s *Service) ListNotesByPatient(ctx context.Context, orgID, patientID uuid.UUID, limit, offset int) ([]*ClinicalNote, int, error) {
	items, total, err := s.notes.ListByPatient(ctx, orgID, patientID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return items, total, nil
}

// CreateVoiceNote transcribes dictated audio and drafts a structured note
// from the transcript. The raw transcript is preserved alongside the draft.
func (s *Service) CreateVoiceNote(ctx context.Context, orgID, patientID, authorID uuid.UUID, audio io.Reader, contentType string) (*ClinicalNote, error) {
	if s.transcriber == nil {
		return nil, apperr.Validation("voice notes are not enabled")
	}
	tr, err := s.transcriber.Transcribe(ctx, audio, contentType)
	if err != nil {
		return nil, err
	}

	body := tr.Text
	if s.completer != nil {
		if drafted, err := s.completer.Complete(ctx, ai.CompletionRequest{
			SystemPrompt: draftSystemPrompt,
			UserPrompt:   "Draft a clinical note from this dictation transcript:\n\n" + tr.Text,
			Temperature:  0.2,
			MaxTokens:    2048,
		}); err == nil {
			body = drafted
		}
		// A drafting failure is not fatal: the raw transcript still makes a
		// usable draft the provider can edit.
	}

	n := &ClinicalNote{
		OrgID:      orgID,
		PatientID:  patientID,
		AuthorID:   authorID,
		Type:       TypeVoice,
		Title:      "Voice note",
		Body:       body,
		Transcript: tr.Text,
	}
	if err := s.CreateNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// CreateAIDraft generates a draft note from free-form instructions.
func (s *Service) CreateAIDraft(ctx context.Context, orgID, patientID, authorID uuid.UUID, instructions string) (*ClinicalNote, error) {
	if s.completer == nil {
		return nil, apperr.Validation("ai drafting is not enabled")
	}
	if strings.TrimSpace(instructions) == "" {
		return nil, apperr.Validation("instructions must not be empty")
	}

	body, err := s.completer.Complete(ctx, ai.CompletionRequest{
		SystemPrompt: draftSystemPrompt,
		UserPrompt:   instructions,
		Temperature:  0.3,
		MaxTokens:    2048,
	})
	if err != nil {
		return nil, err
	}

	n := &ClinicalNote{
		OrgID:     orgID,
		PatientID: patientID,
		AuthorID:  authorID,
		Type:      TypeAIAssisted,
		Title:     "Draft note",
		Body:      body,
	}
	if err := s.CreateNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) publish(ctx context.Context, eventType string, n *ClinicalNote) {
	if s.publisher == nil {
		return
	}
	data, _ := json.Marshal(map[string]interface{}{
		"status":  string(n.Status),
		"version": n.Version,
	})
	_ = s.publisher.Publish(ctx, realtime.Event{
		Type:       eventType,
		Topic:      realtime.NoteTopic(n.OrgID.String(), n.PatientID.String()),
		Resource:   "ClinicalNote",
		ResourceID: n.ID.String(),
		Timestamp:  time.Now().UTC(),
		Data:       data,
	})
}
