package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	pkgcrypto "github.com/and161185/ayurtrace/internal/crypto"
	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userCols = `id, name, COALESCE(phone, ''), role, country, COALESCE(settings, 'null'::jsonb), created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner, extra ...any) (*model.User, error) {
	var (
		u        model.User
		role     string
		settings []byte
	)
	dest := append([]any{&u.ID, &u.Name, &u.Phone, &role, &u.Country, &settings, &u.MemberSince}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	if len(settings) > 0 && string(settings) != "null" {
		var s model.Settings
		if err := json.Unmarshal(settings, &s); err != nil {
			return nil, err
		}
		u.Settings = &s
	}
	return &u, nil
}

func settingsJSON(s *model.Settings) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// notFound maps pgx.ErrNoRows to errs.ErrNotFound and passes other errors through.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	return err
}

// Create inserts a new user row. An empty secret leaves the password columns empty.
func (r *UserRepo) Create(ctx context.Context, u *model.User, secret string) error {
	var hash, salt []byte
	if secret != "" {
		var err error
		if salt, err = pkgcrypto.RandBytes(pkgcrypto.SaltLen); err != nil {
			return err
		}
		hash = pkgcrypto.HashPassword([]byte(secret), salt)
	}
	settings, err := settingsJSON(u.Settings)
	if err != nil {
		return err
	}
	if u.MemberSince.IsZero() {
		u.MemberSince = time.Now().UTC()
	}

	const q = `
INSERT INTO users (id, name, phone, role, pwd_hash, salt_auth, country, settings, created_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)`
	_, err = r.db.Pool.Exec(ctx, q,
		u.ID, u.Name, u.Phone, string(u.Role), hash, salt, u.Country, settings, u.MemberSince)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	q := `SELECT ` + userCols + ` FROM users WHERE id=$1`
	u, err := scanUser(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// GetByPhone selects a user by contact phone.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	q := `SELECT ` + userCols + ` FROM users WHERE phone=$1`
	u, err := scanUser(r.db.Pool.QueryRow(ctx, q, phone))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// FindByCredential matches identifier against phone or user ID and verifies
// secret against the stored hash. Any mismatch is ErrUnauthorized.
func (r *UserRepo) FindByCredential(ctx context.Context, identifier, secret string) (*model.User, error) {
	q := `SELECT ` + userCols + `, pwd_hash, salt_auth FROM users WHERE phone=$1 OR id::text=$1 LIMIT 1`
	var hash, salt []byte
	u, err := scanUser(r.db.Pool.QueryRow(ctx, q, identifier), &hash, &salt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrUnauthorized
		}
		return nil, err
	}
	if !pkgcrypto.VerifyPassword([]byte(secret), salt, hash) {
		return nil, errs.ErrUnauthorized
	}
	return u, nil
}

// Update merges patch into the stored row; nil fields keep their column value.
func (r *UserRepo) Update(ctx context.Context, id uuid.UUID, patch model.UserPatch) (*model.User, error) {
	settings, err := settingsJSON(patch.Settings)
	if err != nil {
		return nil, err
	}
	q := `
UPDATE users
SET name = COALESCE($2, name), country = COALESCE($3, country), settings = COALESCE($4, settings)
WHERE id = $1
RETURNING ` + userCols
	u, err := scanUser(r.db.Pool.QueryRow(ctx, q, id, patch.Name, patch.Country, settings))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}
