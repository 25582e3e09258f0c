package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pkgcrypto "github.com/and161185/ayurtrace/internal/crypto"
	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/model"
)

func TestCodeRepo_SingleUse(t *testing.T) {
	t.Parallel()
	r := NewCodeRepo(newStore(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, r.Put(ctx, model.LoginCode{Contact: "9000", CodeHash: pkgcrypto.HashCode("123456"), ExpiresAt: now.Add(5 * time.Minute)}))
	require.NoError(t, r.Consume(ctx, "9000", "123456", now, 5))
	require.ErrorIs(t, r.Consume(ctx, "9000", "123456", now, 5), errs.ErrCodeInvalid)
}

func TestCodeRepo_Expired(t *testing.T) {
	t.Parallel()
	r := NewCodeRepo(newStore(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, r.Put(ctx, model.LoginCode{Contact: "9000", CodeHash: pkgcrypto.HashCode("123456"), ExpiresAt: now.Add(time.Minute)}))
	late := now.Add(2 * time.Minute)
	require.ErrorIs(t, r.Consume(ctx, "9000", "123456", late, 5), errs.ErrCodeInvalid)
	require.ErrorIs(t, r.Consume(ctx, "9000", "123456", late, 5), errs.ErrCodeInvalid)
}

func TestCodeRepo_AttemptsExhausted(t *testing.T) {
	t.Parallel()
	r := NewCodeRepo(newStore(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, r.Put(ctx, model.LoginCode{Contact: "9000", CodeHash: pkgcrypto.HashCode("123456"), ExpiresAt: now.Add(time.Minute)}))
	for i := 0; i < 3; i++ {
		require.ErrorIs(t, r.Consume(ctx, "9000", "000000", now, 3), errs.ErrCodeInvalid)
	}
	// The right code no longer works once attempts are used up.
	require.ErrorIs(t, r.Consume(ctx, "9000", "123456", now, 3), errs.ErrCodeInvalid)
}

func TestCodeRepo_PutReplacesPending(t *testing.T) {
	t.Parallel()
	r := NewCodeRepo(newStore(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, r.Put(ctx, model.LoginCode{Contact: "9000", CodeHash: pkgcrypto.HashCode("111111"), ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, r.Put(ctx, model.LoginCode{Contact: "9000", CodeHash: pkgcrypto.HashCode("222222"), ExpiresAt: now.Add(time.Minute)}))
	require.ErrorIs(t, r.Consume(ctx, "9000", "111111", now, 5), errs.ErrCodeInvalid)
	require.NoError(t, r.Consume(ctx, "9000", "222222", now, 5))
}
