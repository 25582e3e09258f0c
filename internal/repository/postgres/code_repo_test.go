package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	pkgcrypto "github.com/and161185/ayurtrace/internal/crypto"
	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/model"
)

func codeRow(code string, exp time.Time, attempts int) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"code_hash", "expires_at", "attempts"}).
		AddRow(pkgcrypto.HashCode(code), exp, attempts)
}

func TestCodeRepo_Put(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCodeRepo(db)
	exp := time.Now().Add(5 * time.Minute)
	hash := pkgcrypto.HashCode("123456")

	mock.ExpectExec(`INSERT INTO login_codes .* ON CONFLICT \(contact\) DO UPDATE`).
		WithArgs("9000", hash, exp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Put(context.Background(), model.LoginCode{Contact: "9000", CodeHash: hash, ExpiresAt: exp}))
}

func TestCodeRepo_Consume_Match(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCodeRepo(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT code_hash, expires_at, attempts FROM login_codes WHERE contact=\$1 FOR UPDATE`).
		WithArgs("9000").
		WillReturnRows(codeRow("123456", now.Add(time.Minute), 0))
	mock.ExpectExec(`DELETE FROM login_codes WHERE contact=\$1`).
		WithArgs("9000").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, r.Consume(context.Background(), "9000", "123456", now, 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCodeRepo_Consume_MismatchCountsAttempt(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCodeRepo(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM login_codes WHERE contact=\$1 FOR UPDATE`).
		WithArgs("9000").
		WillReturnRows(codeRow("123456", now.Add(time.Minute), 1))
	mock.ExpectExec(`UPDATE login_codes SET attempts=\$2 WHERE contact=\$1`).
		WithArgs("9000", 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := r.Consume(context.Background(), "9000", "000000", now, 5)
	require.ErrorIs(t, err, errs.ErrCodeInvalid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCodeRepo_Consume_LastAttemptDrops(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCodeRepo(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("9000").
		WillReturnRows(codeRow("123456", now.Add(time.Minute), 4))
	mock.ExpectExec(`DELETE FROM login_codes`).
		WithArgs("9000").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err := r.Consume(context.Background(), "9000", "000000", now, 5)
	require.ErrorIs(t, err, errs.ErrCodeInvalid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCodeRepo_Consume_ExpiredAndMissing(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCodeRepo(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("9000").
		WillReturnRows(codeRow("123456", now.Add(-time.Second), 0))
	mock.ExpectExec(`DELETE FROM login_codes`).
		WithArgs("9000").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()
	require.ErrorIs(t, r.Consume(context.Background(), "9000", "123456", now, 5), errs.ErrCodeInvalid)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("9000").WillReturnError(pgx.ErrNoRows)
	mock.ExpectCommit()
	require.ErrorIs(t, r.Consume(context.Background(), "9000", "123456", now, 5), errs.ErrCodeInvalid)
	require.NoError(t, mock.ExpectationsWereMet())
}
