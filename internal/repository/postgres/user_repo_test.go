package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	pkgcrypto "github.com/and161185/ayurtrace/internal/crypto"
	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var userColNames = []string{"id", "name", "phone", "role", "country", "settings", "created_at"}

func TestUserRepo_Create_OK_and_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := &model.User{
		ID:          uuid.Must(uuid.NewV4()),
		Name:        "Asha",
		Phone:       "9000000001",
		Role:        model.RoleFarmer,
		MemberSince: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Country:     "India",
	}

	mock.ExpectExec(`INSERT INTO users \(id, name, phone, role, pwd_hash, salt_auth, country, settings, created_at\)`).
		WithArgs(u.ID, "Asha", "9000000001", "farmer", pgxmock.AnyArg(), pgxmock.AnyArg(), "India", []byte(nil), u.MemberSince).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, u, "pw1"))

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, "Asha", "9000000001", "farmer", pgxmock.AnyArg(), pgxmock.AnyArg(), "India", []byte(nil), u.MemberSince).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	err := r.Create(ctx, u, "pw1")
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, name, COALESCE\(phone, ''\), role, country, .* FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(userColNames).
			AddRow(id, "Sita", "9000000002", "lab", "India", []byte(`{"notifications":{"sms":true,"ivr":false},"language":"Hindi"}`), since))
	u, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, model.RoleLab, u.Role)
	require.Equal(t, since, u.MemberSince)
	require.NotNil(t, u.Settings)
	require.Equal(t, "Hindi", u.Settings.Language)
	require.False(t, u.Settings.Notifications.IVR)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByID(ctx, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_GetByPhone_NullSettings(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`FROM users WHERE phone=\$1`).
		WithArgs("9000000003").
		WillReturnRows(pgxmock.NewRows(userColNames).
			AddRow(id, "Ravi", "9000000003", "farmer", "", []byte("null"), time.Now()))
	u, err := r.GetByPhone(context.Background(), "9000000003")
	require.NoError(t, err)
	require.Nil(t, u.Settings)
}

func TestUserRepo_FindByCredential(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	salt := []byte("0123456789abcdef")
	hash := pkgcrypto.HashPassword([]byte("pw1"), salt)
	cols := append(append([]string{}, userColNames...), "pwd_hash", "salt_auth")
	row := func() *pgxmock.Rows {
		return pgxmock.NewRows(cols).
			AddRow(id, "Asha", "9000000001", "farmer", "India", []byte("null"), time.Now(), hash, salt)
	}

	mock.ExpectQuery(`FROM users WHERE phone=\$1 OR id::text=\$1`).WithArgs("9000000001").WillReturnRows(row())
	u, err := r.FindByCredential(ctx, "9000000001", "pw1")
	require.NoError(t, err)
	require.Equal(t, id, u.ID)

	mock.ExpectQuery(`FROM users WHERE phone=\$1 OR id::text=\$1`).WithArgs("9000000001").WillReturnRows(row())
	_, err = r.FindByCredential(ctx, "9000000001", "wrong")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	mock.ExpectQuery(`FROM users WHERE phone=\$1 OR id::text=\$1`).WithArgs("nobody").WillReturnError(pgx.ErrNoRows)
	_, err = r.FindByCredential(ctx, "nobody", "pw1")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestUserRepo_Update(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	country := "Nepal"

	mock.ExpectQuery(`UPDATE users SET name = COALESCE\(\$2, name\), country = COALESCE\(\$3, country\)`).
		WithArgs(id, (*string)(nil), &country, []byte(nil)).
		WillReturnRows(pgxmock.NewRows(userColNames).
			AddRow(id, "Asha", "9000000001", "farmer", "Nepal", []byte("null"), time.Now()))
	u, err := r.Update(ctx, id, model.UserPatch{Country: &country})
	require.NoError(t, err)
	require.Equal(t, "Nepal", u.Country)
	require.Equal(t, "Asha", u.Name)

	mock.ExpectQuery(`UPDATE users`).
		WithArgs(id, (*string)(nil), &country, []byte(nil)).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.Update(ctx, id, model.UserPatch{Country: &country})
	require.ErrorIs(t, err, errs.ErrNotFound)
}
