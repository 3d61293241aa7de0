package forms

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

type schemaRepoPG struct{ pool *pgxpool.Pool }

func NewSchemaRepoPG(pool *pgxpool.Pool) SchemaRepository { return &schemaRepoPG{pool: pool} }

func (r *schemaRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const schemaCols = `id, org_id, name, description, tags, version, elements, is_deleted, created_by, created_at, updated_at`

func (r *schemaRepoPG) scanSchema(row pgx.Row) (*FormSchema, error) {
	var s FormSchema
	var elements []byte
	err := row.Scan(&s.ID, &s.OrgID, &s.Name, &s.Description, &s.Tags, &s.Version, &elements,
		&s.IsDeleted, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(elements, &s.Elements); err != nil {
		return nil, fmt.Errorf("unmarshal schema elements: %w", err)
	}
	return &s, nil
}

func (r *schemaRepoPG) Create(ctx context.Context, s *FormSchema) error {
	s.ID = uuid.New()
	s.Version = 1
	elements, err := json.Marshal(s.Elements)
	if err != nil {
		return fmt.Errorf("marshal schema elements: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO form_schemas (id, org_id, name, description, tags, version, elements, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.OrgID, s.Name, s.Description, s.Tags, s.Version, elements, s.CreatedBy)
	return err
}

func (r *schemaRepoPG) GetByID(ctx context.Context, orgID, id uuid.UUID) (*FormSchema, error) {
	return r.scanSchema(r.conn(ctx).QueryRow(ctx,
		`SELECT `+schemaCols+` FROM form_schemas WHERE id = $1 AND org_id = $2 AND is_deleted = FALSE`, id, orgID))
}

func (r *schemaRepoPG) Update(ctx context.Context, s *FormSchema) error {
	elements, err := json.Marshal(s.Elements)
	if err != nil {
		return fmt.Errorf("marshal schema elements: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE form_schemas SET name=$3, description=$4, tags=$5, version=$6, elements=$7, updated_at=NOW()
		WHERE id = $1 AND org_id = $2 AND is_deleted = FALSE`,
		s.ID, s.OrgID, s.Name, s.Description, s.Tags, s.Version, elements)
	return err
}

func (r *schemaRepoPG) SoftDelete(ctx context.Context, orgID, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE form_schemas SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND org_id = $2 AND is_deleted = FALSE`, id, orgID)
	return err
}

func (r *schemaRepoPG) ListByOrg(ctx context.Context, orgID uuid.UUID, tag string, limit, offset int) ([]*FormSchema, int, error) {
	// An empty tag matches everything so one query serves both cases.
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM form_schemas WHERE org_id = $1 AND is_deleted = FALSE AND ($2 = '' OR $2 = ANY(tags))`,
		orgID, tag).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+schemaCols+` FROM form_schemas WHERE org_id = $1 AND is_deleted = FALSE AND ($2 = '' OR $2 = ANY(tags)) ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		orgID, tag, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*FormSchema
	for rows.Next() {
		s, err := r.scanSchema(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, nil
}
