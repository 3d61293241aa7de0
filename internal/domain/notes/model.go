// Package notes implements clinical documentation: providers draft notes by
// hand, from dictation, from templates, or with AI assistance, then sign
// them. A signed note is immutable; corrections happen by amending, which
// forks a fresh draft linked to the signed original.
package notes

import (
	"time"

	"github.com/google/uuid"
)

// NoteType records how a note was produced.
type NoteType string

const (
	TypeVoice      NoteType = "voice"
	TypeManual     NoteType = "manual"
	TypeTemplate   NoteType = "template"
	TypeAIAssisted NoteType = "ai_assisted"
)

var validNoteTypes = map[NoteType]bool{
	TypeVoice:      true,
	TypeManual:     true,
	TypeTemplate:   true,
	TypeAIAssisted: true,
}

// NoteStatus tracks a note through its lifecycle. draft and final notes are
// editable; signed and amended notes are frozen.
type NoteStatus string

const (
	StatusDraft   NoteStatus = "draft"
	StatusFinal   NoteStatus = "final"
	StatusSigned  NoteStatus = "signed"
	StatusAmended NoteStatus = "amended"
)

// Editable reports whether a note in this status accepts content changes.
func (s NoteStatus) Editable() bool {
	return s == StatusDraft || s == StatusFinal
}

// ClinicalNote is one unit of clinical documentation. Version increments on
// every content change and backs optimistic concurrency: writers present the
// version they read, and a mismatch rejects the write.
type ClinicalNote struct {
	ID        uuid.UUID  `json:"id"`
	OrgID     uuid.UUID  `json:"org_id"`
	PatientID uuid.UUID  `json:"patient_id"`
	AuthorID  uuid.UUID  `json:"author_id"`
	Type      NoteType   `json:"type"`
	Status    NoteStatus `json:"status"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Tags      []string   `json:"tags,omitempty"`
	// Transcript holds the raw dictation text for voice notes.
	Transcript string `json:"transcript,omitempty"`
	Version    int    `json:"version"`
	// ParentNoteID links an amendment draft back to the signed note it revises.
	ParentNoteID *uuid.UUID `json:"parent_note_id,omitempty"`
	SignedBy     *uuid.UUID `json:"signed_by,omitempty"`
	SignedAt     *time.Time `json:"signed_at,omitempty"`
	IsDeleted    bool       `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
