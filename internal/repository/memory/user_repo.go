package memory

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/and161185/ayurtrace/internal/crypto"
	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/model"
)

// UserRepo implements UserRepository in memory.
type UserRepo struct{ s *Store }

// NewUserRepo constructs a user repository.
func NewUserRepo(s *Store) *UserRepo { return &UserRepo{s: s} }

// Create inserts a new user, hashing secret when present.
func (r *UserRepo) Create(ctx context.Context, u *model.User, secret string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := &userRow{ID: u.ID.String(), Phone: u.Phone, User: u.Clone()}
	if secret != "" {
		salt, err := pkgcrypto.RandBytes(pkgcrypto.SaltLen)
		if err != nil {
			return err
		}
		row.Salt = salt
		row.Hash = pkgcrypto.HashPassword([]byte(secret), salt)
	}

	txn := r.s.db.Txn(true)
	defer txn.Abort()

	if raw, err := txn.First(tableUsers, indexID, row.ID); err != nil {
		return err
	} else if raw != nil {
		return errs.ErrAlreadyExists
	}
	if row.Phone != "" {
		if raw, err := txn.First(tableUsers, indexPhone, row.Phone); err != nil {
			return err
		} else if raw != nil {
			return errs.ErrAlreadyExists
		}
	}
	if err := txn.Insert(tableUsers, row); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// GetByID loads a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	row, err := r.first(ctx, indexID, id.String())
	if err != nil {
		return nil, err
	}
	u := row.User.Clone()
	return &u, nil
}

// GetByPhone loads a user by contact phone.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	if phone == "" {
		return nil, errs.ErrNotFound
	}
	row, err := r.first(ctx, indexPhone, phone)
	if err != nil {
		return nil, err
	}
	u := row.User.Clone()
	return &u, nil
}

// FindByCredential matches identifier (phone or ID) and verifies the secret.
// Unknown identifiers and wrong secrets both yield ErrUnauthorized.
func (r *UserRepo) FindByCredential(ctx context.Context, identifier, secret string) (*model.User, error) {
	if identifier == "" {
		return nil, errs.ErrUnauthorized
	}
	row, err := r.first(ctx, indexPhone, identifier)
	if errors.Is(err, errs.ErrNotFound) {
		row, err = r.first(ctx, indexID, identifier)
	}
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !pkgcrypto.VerifyPassword([]byte(secret), row.Salt, row.Hash) {
		return nil, errs.ErrUnauthorized
	}
	u := row.User.Clone()
	return &u, nil
}

// Update merges patch into the stored user.
func (r *UserRepo) Update(ctx context.Context, id uuid.UUID, patch model.UserPatch) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableUsers, indexID, id.String())
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errs.ErrNotFound
	}
	next := *raw.(*userRow)
	next.User = next.User.Clone()
	patch.Apply(&next.User)
	if err := txn.Insert(tableUsers, &next); err != nil {
		return nil, err
	}
	txn.Commit()

	u := next.User.Clone()
	return &u, nil
}

func (r *UserRepo) first(ctx context.Context, index, key string) (*userRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txn := r.s.db.Txn(false)
	raw, err := txn.First(tableUsers, index, key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errs.ErrNotFound
	}
	return raw.(*userRow), nil
}
