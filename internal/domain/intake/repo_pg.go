package intake

import (
	"context"
	"encoding/json"
	"fmt"

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

// =========== Assignment Repository ===========

type assignmentRepoPG struct{ pool *pgxpool.Pool }

func NewAssignmentRepoPG(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepoPG{pool: pool}
}

func (r *assignmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const assignmentCols = `id, org_id, schema_id, schema_version, schema_snapshot, patient_id,
	assigned_by, status, due_at, created_at, updated_at`

func (r *assignmentRepoPG) scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	var snapshot []byte
	err := row.Scan(&a.ID, &a.OrgID, &a.SchemaID, &a.SchemaVersion, &snapshot, &a.PatientID,
		&a.AssignedBy, &a.Status, &a.DueAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &a.SchemaSnapshot); err != nil {
		return nil, fmt.Errorf("unmarshal schema snapshot: %w", err)
	}
	return &a, nil
}

func (r *assignmentRepoPG) Create(ctx context.Context, a *Assignment) error {
	a.ID = uuid.New()
	snapshot, err := json.Marshal(a.SchemaSnapshot)
	if err != nil {
		return fmt.Errorf("marshal schema snapshot: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO form_assignments (id, org_id, schema_id, schema_version, schema_snapshot,
			patient_id, assigned_by, status, due_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.OrgID, a.SchemaID, a.SchemaVersion, snapshot,
		a.PatientID, a.AssignedBy, a.Status, a.DueAt)
	return err
}

func (r *assignmentRepoPG) GetByID(ctx context.Context, orgID, id uuid.UUID) (*Assignment, error) {
	return r.scanAssignment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+assignmentCols+` FROM form_assignments WHERE id = $1 AND org_id = $2`, id, orgID))
}

func (r *assignmentRepoPG) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status AssignmentStatus) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE form_assignments SET status = $3, updated_at = NOW()
		WHERE id = $1 AND org_id = $2`, id, orgID, status)
	return err
}

func (r *assignmentRepoPG) ListByPatient(ctx context.Context, orgID, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM form_assignments WHERE org_id = $1 AND patient_id = $2`, orgID, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+assignmentCols+` FROM form_assignments WHERE org_id = $1 AND patient_id = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		orgID, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Assignment
	for rows.Next() {
		a, err := r.scanAssignment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}

// =========== Submission Repository ===========

type submissionRepoPG struct{ pool *pgxpool.Pool }

func NewSubmissionRepoPG(pool *pgxpool.Pool) SubmissionRepository {
	return &submissionRepoPG{pool: pool}
}

func (r *submissionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const submissionCols = `id, org_id, assignment_id, patient_id, schema_id, schema_version, answers, submitted_at`

func (r *submissionRepoPG) scanSubmission(row pgx.Row) (*Submission, error) {
	var s Submission
	var answers []byte
	err := row.Scan(&s.ID, &s.OrgID, &s.AssignmentID, &s.PatientID, &s.SchemaID, &s.SchemaVersion,
		&answers, &s.SubmittedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal submission answers: %w", err)
	}
	return &s, nil
}

func (r *submissionRepoPG) Create(ctx context.Context, s *Submission) error {
	s.ID = uuid.New()
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("marshal submission answers: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO form_submissions (id, org_id, assignment_id, patient_id, schema_id, schema_version, answers)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.OrgID, s.AssignmentID, s.PatientID, s.SchemaID, s.SchemaVersion, answers)
	return err
}

func (r *submissionRepoPG) GetByID(ctx context.Context, orgID, id uuid.UUID) (*Submission, error) {
	return r.scanSubmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+submissionCols+` FROM form_submissions WHERE id = $1 AND org_id = $2`, id, orgID))
}

func (r *submissionRepoPG) GetByAssignment(ctx context.Context, orgID, assignmentID uuid.UUID) (*Submission, error) {
	return r.scanSubmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+submissionCols+` FROM form_submissions WHERE assignment_id = $1 AND org_id = $2`, assignmentID, orgID))
}

func (r *submissionRepoPG) ListByPatient(ctx context.Context, orgID, patientID uuid.UUID, limit, offset int) ([]*Submission, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM form_submissions WHERE org_id = $1 AND patient_id = $2`, orgID, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+submissionCols+` FROM form_submissions WHERE org_id = $1 AND patient_id = $2 ORDER BY submitted_at DESC LIMIT $3 OFFSET $4`,
		orgID, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Submission
	for rows.Next() {
		s, err := r.scanSubmission(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, nil
}
