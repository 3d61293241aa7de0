package notes

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emr/emr/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type noteRepoPG struct{ pool *pgxpool.Pool }

func NewNoteRepoPG(pool *pgxpool.Pool) NoteRepository { return &noteRepoPG{pool: pool} }

func (r *noteRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const noteCols = `id, org_id, patient_id, author_id, note_type, status, title, body, tags, transcript,
	version, parent_note_id, signed_by, signed_at, is_deleted, created_at, updated_at`

func (r *noteRepoPG) scanNote(row pgx.Row) (*ClinicalNote, error) {
	var n ClinicalNote
	err := row.Scan(&n.ID, &n.OrgID, &n.PatientID, &n.AuthorID, &n.Type, &n.Status, &n.Title, &n.Body,
		&n.Tags, &n.Transcript, &n.Version, &n.ParentNoteID, &n.SignedBy, &n.SignedAt, &n.IsDeleted,
		&n.CreatedAt, &n.UpdatedAt)
	return &n, err
}

func (r *noteRepoPG) Create(ctx context.Context, n *ClinicalNote) error {
	n.ID = uuid.New()
	n.Version = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clinical_notes (id, org_id, patient_id, author_id, note_type, status, title, body,
			tags, transcript, version, parent_note_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		n.ID, n.OrgID, n.PatientID, n.AuthorID, n.Type, n.Status, n.Title, n.Body,
		n.Tags, n.Transcript, n.Version, n.ParentNoteID)
	return err
}

func (r *noteRepoPG) GetByID(ctx context.Context, orgID, id uuid.UUID) (*ClinicalNote, error) {
	return r.scanNote(r.conn(ctx).QueryRow(ctx,
		`SELECT `+noteCols+` FROM clinical_notes WHERE id = $1 AND org_id = $2 AND is_deleted = FALSE`, id, orgID))
}

func (r *noteRepoPG) UpdateContent(ctx context.Context, n *ClinicalNote, expectedVersion int) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE clinical_notes SET title=$4, body=$5, tags=$6, version = version + 1, updated_at=NOW()
		WHERE id = $1 AND org_id = $2 AND version = $3 AND is_deleted = FALSE`,
		n.ID, n.OrgID, expectedVersion, n.Title, n.Body, n.Tags)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *noteRepoPG) SetStatus(ctx context.Context, n *ClinicalNote) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE clinical_notes SET status=$3, signed_by=$4, signed_at=$5, updated_at=NOW()
		WHERE id = $1 AND org_id = $2 AND is_deleted = FALSE`,
		n.ID, n.OrgID, n.Status, n.SignedBy, n.SignedAt)
	return err
}

func (r *noteRepoPG) SoftDelete(ctx context.Context, orgID, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE clinical_notes SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND org_id = $2 AND is_deleted = FALSE`, id, orgID)
	return err
}

func (r *noteRepoPG) ListByPatient(ctx context.Context, orgID, patientID uuid.UUID, limit, offset int) ([]*ClinicalNote, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM clinical_notes WHERE org_id = $1 AND patient_id = $2 AND is_deleted = FALSE`,
		orgID, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+noteCols+` FROM clinical_notes WHERE org_id = $1 AND patient_id = $2 AND is_deleted = FALSE ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		orgID, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ClinicalNote
	for rows.Next() {
		n, err := r.scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, nil
}
