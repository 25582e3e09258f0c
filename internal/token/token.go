// Package token issues and verifies HS256 JWTs: access tokens carrying the
// caller's role, and assertions from a federated identity provider.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/model"
)

const leeway = 30 * time.Second

// Claims are the access token claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and parses access tokens.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewIssuer constructs an Issuer.
func NewIssuer(key []byte, ttl time.Duration) *Issuer {
	return &Issuer{key: key, ttl: ttl, now: time.Now}
}

// Issue creates a signed token for the user.
func (i *Issuer) Issue(userID uuid.UUID, role model.Role) (model.Tokens, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}

// Parse verifies tok and returns the caller. Every failure wraps ErrUnauthorized.
func (i *Issuer) Parse(tok string) (model.Principal, error) {
	var claims Claims
	if err := parse(tok, &claims, i.key, i.now); err != nil {
		return model.Principal{}, err
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: bad subject", errs.ErrUnauthorized)
	}
	role := model.Role(claims.Role)
	if !role.Valid() {
		return model.Principal{}, fmt.Errorf("%w: bad role", errs.ErrUnauthorized)
	}
	return model.Principal{UserID: id, Role: role}, nil
}

func parse(tok string, claims jwt.Claims, key []byte, now func() time.Time) error {
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	}, jwt.WithLeeway(leeway), jwt.WithTimeFunc(now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return fmt.Errorf("%w: invalid token", errs.ErrUnauthorized)
	}
	return nil
}

type federationClaims struct {
	Name  string `json:"name"`
	Phone string `json:"phone_number"`
	jwt.RegisteredClaims
}

// FederationVerifier checks assertions issued by trusted identity providers
// sharing a signing key with this service.
type FederationVerifier struct {
	key     []byte
	issuers map[string]struct{}
	now     func() time.Time
}

// NewFederationVerifier trusts assertions signed with key. An empty issuers
// list accepts any issuer.
func NewFederationVerifier(key []byte, issuers ...string) *FederationVerifier {
	set := make(map[string]struct{}, len(issuers))
	for _, iss := range issuers {
		set[iss] = struct{}{}
	}
	return &FederationVerifier{key: key, issuers: set, now: time.Now}
}

// Verify returns the identity asserted by tok.
func (v *FederationVerifier) Verify(tok string) (model.FederatedIdentity, error) {
	var claims federationClaims
	if err := parse(tok, &claims, v.key, v.now); err != nil {
		return model.FederatedIdentity{}, err
	}
	if claims.Issuer == "" || claims.Subject == "" {
		return model.FederatedIdentity{}, fmt.Errorf("%w: missing iss/sub", errs.ErrUnauthorized)
	}
	if len(v.issuers) > 0 {
		if _, ok := v.issuers[claims.Issuer]; !ok {
			return model.FederatedIdentity{}, fmt.Errorf("%w: untrusted issuer", errs.ErrUnauthorized)
		}
	}
	return model.FederatedIdentity{
		Issuer:  claims.Issuer,
		Subject: claims.Subject,
		Name:    claims.Name,
		Phone:   claims.Phone,
	}, nil
}

// SignAssertion produces an assertion the way a trusted provider would.
// Used by the CLI's dev login and by tests.
func SignAssertion(key []byte, id model.FederatedIdentity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := federationClaims{
		Name:  id.Name,
		Phone: id.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    id.Issuer,
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}
