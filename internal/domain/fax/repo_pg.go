package fax

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

type faxRepoPG struct{ pool *pgxpool.Pool }

func NewFaxRepoPG(pool *pgxpool.Pool) FaxRepository { return &faxRepoPG{pool: pool} }

func (r *faxRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const faxCols = `id, org_id, direction, to_number, from_number, carrier_sid, status,
	page_count, duration_seconds, error_message, media_url, created_at, updated_at`

func (r *faxRepoPG) scanFax(row pgx.Row) (*Fax, error) {
	var f Fax
	err := row.Scan(&f.ID, &f.OrgID, &f.Direction, &f.ToNumber, &f.FromNumber, &f.CarrierSID,
		&f.Status, &f.PageCount, &f.DurationSeconds, &f.ErrorMessage, &f.MediaURL,
		&f.CreatedAt, &f.UpdatedAt)
	return &f, err
}

func (r *faxRepoPG) Create(ctx context.Context, f *Fax) error {
	f.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO faxes (id, org_id, direction, to_number, from_number, carrier_sid, status,
			page_count, duration_seconds, error_message, media_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		f.ID, f.OrgID, f.Direction, f.ToNumber, f.FromNumber, f.CarrierSID, f.Status,
		f.PageCount, f.DurationSeconds, f.ErrorMessage, f.MediaURL)
	return err
}

func (r *faxRepoPG) GetByID(ctx context.Context, orgID, id uuid.UUID) (*Fax, error) {
	return r.scanFax(r.conn(ctx).QueryRow(ctx,
		`SELECT `+faxCols+` FROM faxes WHERE id = $1 AND org_id = $2`, id, orgID))
}

func (r *faxRepoPG) GetByCarrierSID(ctx context.Context, carrierSID string) (*Fax, error) {
	return r.scanFax(r.conn(ctx).QueryRow(ctx,
		`SELECT `+faxCols+` FROM faxes WHERE carrier_sid = $1`, carrierSID))
}

func (r *faxRepoPG) UpdateStatus(ctx context.Context, f *Fax) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE faxes SET status=$2, page_count=$3, duration_seconds=$4, error_message=$5, updated_at=NOW()
		WHERE id = $1`,
		f.ID, f.Status, f.PageCount, f.DurationSeconds, f.ErrorMessage)
	return err
}

func (r *faxRepoPG) ListByOrg(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Fax, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM faxes WHERE org_id = $1`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+faxCols+` FROM faxes WHERE org_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Fax
	for rows.Next() {
		f, err := r.scanFax(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, f)
	}
	return items, total, nil
}
