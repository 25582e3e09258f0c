package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	pkgcrypto "github.com/and161185/ayurtrace/internal/crypto"
	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/model"
)

// CodeRepo implements CodeRepository using PostgreSQL.
type CodeRepo struct{ db *DB }

// NewCodeRepo constructs a login code repository.
func NewCodeRepo(db *DB) *CodeRepo { return &CodeRepo{db: db} }

// Put stores c, replacing any pending code for the same contact.
func (r *CodeRepo) Put(ctx context.Context, c model.LoginCode) error {
	const q = `
INSERT INTO login_codes (contact, code_hash, expires_at, attempts)
VALUES ($1, $2, $3, 0)
ON CONFLICT (contact) DO UPDATE
SET code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at, attempts = 0`
	_, err := r.db.Pool.Exec(ctx, q, c.Contact, c.CodeHash, c.ExpiresAt)
	return err
}

// Consume verifies code for contact. Failed checks are committed too, so the
// attempt counter survives the returned ErrCodeInvalid.
func (r *CodeRepo) Consume(ctx context.Context, contact, code string, now time.Time, maxAttempts int) error {
	ok, err := r.consume(ctx, contact, code, now, maxAttempts)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrCodeInvalid
	}
	return nil
}

func (r *CodeRepo) consume(
	ctx context.Context, contact, code string, now time.Time, maxAttempts int,
) (ok bool, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			ok, err = false, e
		}
	}()

	const sel = `SELECT code_hash, expires_at, attempts FROM login_codes WHERE contact=$1 FOR UPDATE`
	const del = `DELETE FROM login_codes WHERE contact=$1`
	const upd = `UPDATE login_codes SET attempts=$2 WHERE contact=$1`

	var (
		hash     []byte
		expires  time.Time
		attempts int
	)
	if err = tx.QueryRow(ctx, sel, contact).Scan(&hash, &expires, &attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	switch {
	case !now.Before(expires):
		_, err = tx.Exec(ctx, del, contact)
		return false, err
	case pkgcrypto.VerifyCode(code, hash):
		_, err = tx.Exec(ctx, del, contact)
		return err == nil, err
	}

	attempts++
	if maxAttempts > 0 && attempts >= maxAttempts {
		_, err = tx.Exec(ctx, del, contact)
	} else {
		_, err = tx.Exec(ctx, upd, contact, attempts)
	}
	return false, err
}
