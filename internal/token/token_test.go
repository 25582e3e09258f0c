package token

import (
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/model"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer([]byte("k"), time.Hour)
	id := uuid.Must(uuid.NewV4())

	tok, err := iss.Issue(id, model.RoleLab)
	require.NoError(t, err)
	require.NotEmpty(t, tok.AccessToken)
	require.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)

	p, err := iss.Parse(tok.AccessToken)
	require.NoError(t, err)
	require.Equal(t, id, p.UserID)
	require.Equal(t, model.RoleLab, p.Role)
}

func TestIssuer_Rejects(t *testing.T) {
	iss := NewIssuer([]byte("k"), time.Hour)
	id := uuid.Must(uuid.NewV4())
	tok, err := iss.Issue(id, model.RoleFarmer)
	require.NoError(t, err)

	_, err = NewIssuer([]byte("other"), time.Hour).Parse(tok.AccessToken)
	require.ErrorIs(t, err, errs.ErrUnauthorized, "wrong key")

	_, err = iss.Parse("garbage")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	expired := NewIssuer([]byte("k"), time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.Issue(id, model.RoleFarmer)
	require.NoError(t, err)
	_, err = iss.Parse(old.AccessToken)
	require.ErrorIs(t, err, errs.ErrUnauthorized, "expired")

	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = iss.Parse(bad)
	require.ErrorIs(t, err, errs.ErrUnauthorized, "unknown role")
}

func TestFederationVerifier(t *testing.T) {
	key := []byte("fed")
	want := model.FederatedIdentity{Issuer: "https://accounts.google.com", Subject: "1234", Name: "Aisha Patel", Phone: "9999999999"}
	tok, err := SignAssertion(key, want, time.Minute)
	require.NoError(t, err)

	got, err := NewFederationVerifier(key).Verify(tok)
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = NewFederationVerifier(key, "https://idp.example.org").Verify(tok)
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = NewFederationVerifier([]byte("nope")).Verify(tok)
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	noSub, err := SignAssertion(key, model.FederatedIdentity{Issuer: "x"}, time.Minute)
	require.NoError(t, err)
	_, err = NewFederationVerifier(key).Verify(noSub)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}
