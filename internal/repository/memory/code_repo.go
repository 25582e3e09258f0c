package memory

import (
	"context"
	"time"

	pkgcrypto "github.com/and161185/ayurtrace/internal/crypto"
	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/model"
)

// CodeRepo implements CodeRepository in memory.
type CodeRepo struct{ s *Store }

// NewCodeRepo constructs a one-time code repository.
func NewCodeRepo(s *Store) *CodeRepo { return &CodeRepo{s: s} }

// Put stores c, replacing any pending code for the contact.
func (r *CodeRepo) Put(ctx context.Context, c model.LoginCode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := r.s.db.Txn(true)
	defer txn.Abort()
	row := &codeRow{ID: c.Contact, Code: c}
	row.Code.CodeHash = append([]byte(nil), c.CodeHash...)
	if err := txn.Insert(tableCodes, row); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Consume verifies and burns a code.
func (r *CodeRepo) Consume(ctx context.Context, contact, code string, now time.Time, maxAttempts int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableCodes, indexID, contact)
	if err != nil {
		return err
	}
	if raw == nil {
		return errs.ErrCodeInvalid
	}
	row := raw.(*codeRow)

	switch {
	case !now.Before(row.Code.ExpiresAt):
		if err := txn.Delete(tableCodes, row); err != nil {
			return err
		}
		txn.Commit()
		return errs.ErrCodeInvalid
	case pkgcrypto.VerifyCode(code, row.Code.CodeHash):
		if err := txn.Delete(tableCodes, row); err != nil {
			return err
		}
		txn.Commit()
		return nil
	}

	next := *row
	next.Code.Attempts++
	if maxAttempts > 0 && next.Code.Attempts >= maxAttempts {
		err = txn.Delete(tableCodes, row)
	} else {
		err = txn.Insert(tableCodes, &next)
	}
	if err != nil {
		return err
	}
	txn.Commit()
	return errs.ErrCodeInvalid
}
