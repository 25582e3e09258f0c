package memory

import (
	"context"
	"sort"

	"github.com/gofrs/uuid/v5"
	"github.com/hashicorp/go-memdb"

	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/model"
)

// BatchRepo implements BatchRepository in memory.
type BatchRepo struct{ s *Store }

// NewBatchRepo constructs a batch repository.
func NewBatchRepo(s *Store) *BatchRepo { return &BatchRepo{s: s} }

// Insert assigns the next sequential ID and stores the batch.
func (r *BatchRepo) Insert(ctx context.Context, b *model.Batch) (*model.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seq := r.s.seq.Add(1)
	row := &batchRow{
		ID:    model.FormatBatchID(seq),
		Owner: b.OwnerID.String(),
		Seq:   seq,
		Batch: b.Clone(),
	}
	row.Batch.ID = row.ID
	row.Batch.Version = 1
	if row.Batch.Status == "" {
		row.Batch.Status = model.StatusPending
	}

	txn := r.s.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableBatches, row); err != nil {
		return nil, err
	}
	txn.Commit()

	out := row.Batch.Clone()
	return &out, nil
}

// Get returns a single batch by ID.
func (r *BatchRepo) Get(ctx context.Context, id string) (*model.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := r.s.db.Txn(false).First(tableBatches, indexID, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errs.ErrNotFound
	}
	out := raw.(*batchRow).Batch.Clone()
	return &out, nil
}

// ListByOwner returns the owner's batches in insertion order.
func (r *BatchRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Batch, error) {
	return r.list(ctx, indexOwner, owner.String())
}

// ListAll returns all batches in insertion order.
func (r *BatchRepo) ListAll(ctx context.Context) ([]model.Batch, error) {
	return r.list(ctx, indexID)
}

// UpdateStatus applies a review inside a single write transaction.
func (r *BatchRepo) UpdateStatus(ctx context.Context, id string, upd model.StatusUpdate) (*model.Batch, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableBatches, indexID, id)
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, errs.ErrNotFound
	}
	next := *raw.(*batchRow)
	next.Batch = next.Batch.Clone()
	changed, err := upd.Apply(&next.Batch)
	if err != nil {
		return nil, false, err
	}
	if changed {
		if err := txn.Insert(tableBatches, &next); err != nil {
			return nil, false, err
		}
		txn.Commit()
	}
	out := next.Batch.Clone()
	return &out, changed, nil
}

func (r *BatchRepo) list(ctx context.Context, index string, args ...any) ([]model.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	it, err := r.s.db.Txn(false).Get(tableBatches, index, args...)
	if err != nil {
		return nil, err
	}
	rows := collect(it)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Seq < rows[j].Seq })

	out := make([]model.Batch, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Batch.Clone())
	}
	return out, nil
}

func collect(it memdb.ResultIterator) []*batchRow {
	var rows []*batchRow
	for raw := it.Next(); raw != nil; raw = it.Next() {
		rows = append(rows, raw.(*batchRow))
	}
	return rows
}
