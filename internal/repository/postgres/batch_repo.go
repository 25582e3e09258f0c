package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"

	"github.com/and161185/ayurtrace/internal/model"
)

// BatchRepo implements BatchRepository using PostgreSQL.
type BatchRepo struct{ db *DB }

// NewBatchRepo constructs a batch repository.
func NewBatchRepo(db *DB) *BatchRepo { return &BatchRepo{db: db} }

const batchCols = `id, content_id, owner_id, plant_name, confidence, submitted_at, latitude, longitude,
COALESCE(address, ''), COALESCE(confirmation, 'null'::jsonb), status, COALESCE(lab_result, 'null'::jsonb),
earnings::text, quality_score, image_url, ver`

func scanBatch(row scanner) (*model.Batch, error) {
	var (
		b            model.Batch
		lat, lon     float64
		status       string
		confirmation []byte
		labResult    []byte
		earnings     string
	)
	if err := row.Scan(&b.ID, &b.ContentID, &b.OwnerID, &b.PlantName, &b.Confidence, &b.SubmittedAt,
		&lat, &lon, &b.Address, &confirmation, &status, &labResult, &earnings, &b.QualityScore,
		&b.ImageURL, &b.Version); err != nil {
		return nil, err
	}
	b.Location = orb.Point{lon, lat}
	b.Status = model.BatchStatus(status)
	if err := unmarshalOptional(confirmation, &b.Confirmation); err != nil {
		return nil, err
	}
	if err := unmarshalOptional(labResult, &b.LabResult); err != nil {
		return nil, err
	}
	e, err := decimal.NewFromString(earnings)
	if err != nil {
		return nil, err
	}
	b.Earnings = e
	return &b, nil
}

// unmarshalOptional decodes a jsonb column into *dst, leaving it nil for SQL/JSON null.
func unmarshalOptional[T any](raw []byte, dst **T) error {
	if len(raw) == 0 || string(raw) == "null" {
		*dst = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

func marshalOptional[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Insert takes the next value of batch_seq as the ID and stores b with version 1.
func (r *BatchRepo) Insert(ctx context.Context, b *model.Batch) (*model.Batch, error) {
	var seq int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT nextval('batch_seq')`).Scan(&seq); err != nil {
		return nil, err
	}
	out := b.Clone()
	out.ID = model.FormatBatchID(seq)
	out.Version = 1
	if out.Status == "" {
		out.Status = model.StatusPending
	}
	if out.SubmittedAt.IsZero() {
		out.SubmittedAt = time.Now().UTC()
	}
	confirmation, err := marshalOptional(out.Confirmation)
	if err != nil {
		return nil, err
	}
	labResult, err := marshalOptional(out.LabResult)
	if err != nil {
		return nil, err
	}

	const q = `
INSERT INTO batches (id, seq, content_id, owner_id, plant_name, confidence, submitted_at, latitude, longitude,
    address, confirmation, status, lab_result, earnings, quality_score, image_url, ver)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12, $13, $14::numeric, $15, $16, $17)`
	_, err = r.db.Pool.Exec(ctx, q,
		out.ID, seq, out.ContentID, out.OwnerID, out.PlantName, out.Confidence, out.SubmittedAt,
		out.Location.Lat(), out.Location.Lon(), out.Address, confirmation, string(out.Status), labResult,
		out.Earnings.String(), out.QualityScore, out.ImageURL, out.Version)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns a single batch by ID.
func (r *BatchRepo) Get(ctx context.Context, id string) (*model.Batch, error) {
	b, err := scanBatch(r.db.Pool.QueryRow(ctx, `SELECT `+batchCols+` FROM batches WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

// ListByOwner returns the owner's batches in insertion order.
func (r *BatchRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Batch, error) {
	return r.list(ctx, `SELECT `+batchCols+` FROM batches WHERE owner_id=$1 ORDER BY seq ASC`, owner)
}

// ListAll returns every batch in insertion order.
func (r *BatchRepo) ListAll(ctx context.Context) ([]model.Batch, error) {
	return r.list(ctx, `SELECT `+batchCols+` FROM batches ORDER BY seq ASC`)
}

func (r *BatchRepo) list(ctx context.Context, q string, args ...any) ([]model.Batch, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Batch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// UpdateStatus locks the row, applies upd and writes it back in one transaction.
// A no-op transition commits without writing.
func (r *BatchRepo) UpdateStatus(
	ctx context.Context, id string, upd model.StatusUpdate,
) (b *model.Batch, changed bool, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			b, changed, err = nil, false, e
		}
	}()

	b, err = scanBatch(tx.QueryRow(ctx, `SELECT `+batchCols+` FROM batches WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, false, notFound(err)
	}
	changed, err = upd.Apply(b)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return b, false, nil
	}
	labResult, err := marshalOptional(b.LabResult)
	if err != nil {
		return nil, false, err
	}
	const q = `UPDATE batches SET status=$2, lab_result=$3, ver=$4 WHERE id=$1`
	if _, err = tx.Exec(ctx, q, id, string(b.Status), labResult, b.Version); err != nil {
		return nil, false, err
	}
	return b, true, nil
}
