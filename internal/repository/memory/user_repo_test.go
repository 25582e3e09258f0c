package memory

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/model"
)

func newUser(phone string) *model.User {
	return &model.User{
		ID:          uuid.Must(uuid.NewV4()),
		Name:        "Asha",
		Phone:       phone,
		Role:        model.RoleFarmer,
		MemberSince: time.Now().UTC(),
		Country:     "India",
		Settings:    model.DefaultSettings(),
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	return s
}

func TestUserRepo_CreateAndUniqueness(t *testing.T) {
	t.Parallel()
	r := NewUserRepo(newStore(t))
	ctx := context.Background()

	u := newUser("9000000001")
	require.NoError(t, r.Create(ctx, u, "pw1"))

	dupPhone := newUser("9000000001")
	require.ErrorIs(t, r.Create(ctx, dupPhone, "x"), errs.ErrAlreadyExists)

	dupID := newUser("9000000002")
	dupID.ID = u.ID
	require.ErrorIs(t, r.Create(ctx, dupID, "x"), errs.ErrAlreadyExists)

	// Users without a phone do not collide with each other.
	require.NoError(t, r.Create(ctx, newUser(""), ""))
	require.NoError(t, r.Create(ctx, newUser(""), ""))
}

func TestUserRepo_FindByCredential(t *testing.T) {
	t.Parallel()
	r := NewUserRepo(newStore(t))
	ctx := context.Background()

	u := newUser("9000000001")
	require.NoError(t, r.Create(ctx, u, "pw1"))

	got, err := r.FindByCredential(ctx, "9000000001", "pw1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	got, err = r.FindByCredential(ctx, u.ID.String(), "pw1")
	require.NoError(t, err)
	require.Equal(t, u.Phone, got.Phone)

	_, err = r.FindByCredential(ctx, "9000000001", "wrong")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = r.FindByCredential(ctx, "0000000000", "pw1")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	fed := newUser("")
	require.NoError(t, r.Create(ctx, fed, ""))
	_, err = r.FindByCredential(ctx, fed.ID.String(), "")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestUserRepo_UpdateMergesAndReturnsCopies(t *testing.T) {
	t.Parallel()
	r := NewUserRepo(newStore(t))
	ctx := context.Background()

	u := newUser("9000000001")
	require.NoError(t, r.Create(ctx, u, "pw1"))

	name := "Asha Rao"
	lang := &model.Settings{Language: "Hindi", Notifications: model.Notifications{SMS: false, IVR: true}}
	got, err := r.Update(ctx, u.ID, model.UserPatch{Name: &name, Settings: lang})
	require.NoError(t, err)
	require.Equal(t, "Asha Rao", got.Name)
	require.Equal(t, "India", got.Country)
	require.Equal(t, "Hindi", got.Settings.Language)

	// Mutating a returned value must not leak into the store.
	got.Settings.Language = "tampered"
	again, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Hindi", again.Settings.Language)

	// Secret survives profile updates.
	_, err = r.FindByCredential(ctx, "9000000001", "pw1")
	require.NoError(t, err)

	_, err = r.Update(ctx, uuid.Must(uuid.NewV4()), model.UserPatch{Name: &name})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_CanceledContext(t *testing.T) {
	t.Parallel()
	r := NewUserRepo(newStore(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, r.Create(ctx, newUser("1"), "x"), context.Canceled)
	_, err := r.GetByPhone(ctx, "1")
	require.ErrorIs(t, err, context.Canceled)
}
