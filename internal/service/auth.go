// Package service contains application services for authentication and the batch lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/ayurtrace/internal/crypto"
	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/limiter"
	"github.com/and161185/ayurtrace/internal/metrics"
	"github.com/and161185/ayurtrace/internal/model"
	"github.com/and161185/ayurtrace/internal/notify"
	"github.com/and161185/ayurtrace/internal/repository"
	"github.com/and161185/ayurtrace/internal/token"
)

// federatedNS derives stable user IDs from (issuer, subject) pairs.
var federatedNS = uuid.Must(uuid.FromString("3b1f6a0e-7c55-4f0b-a0c4-1d2e9f8a6b37"))

// AuthService defines authentication and profile operations. Every login
// path returns a Session whose user never carries a secret.
type AuthService interface {
	// Authenticate checks identifier (phone or user ID) and secret, rate limited by (identifier, ip).
	Authenticate(ctx context.Context, identifier, secret, ip string) (model.Session, error)
	// RequestCode issues a one-time code for a registered contact.
	RequestCode(ctx context.Context, contact string) error
	// VerifyCode consumes a one-time code.
	VerifyCode(ctx context.Context, contact, code, ip string) (model.Session, error)
	// FederatedLogin trusts a signed assertion and creates the user on first sight.
	FederatedLogin(ctx context.Context, assertion string) (model.Session, error)
	// Register creates a farmer account.
	Register(ctx context.Context, name, phone, secret string) (model.Session, error)
	// UpdateProfile merges patch into the user's profile.
	UpdateProfile(ctx context.Context, id uuid.UUID, patch model.UserPatch) (*model.User, error)
	// GetUser loads a profile.
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// AuthOptions tunes one-time codes.
type AuthOptions struct {
	CodeTTL         time.Duration
	CodeDigits      int
	MaxCodeAttempts int
	FixedCode       string // dev only; replaces the random code
}

// AuthDeps are the collaborators of AuthServiceImpl. Federation, Metrics and Log are optional.
type AuthDeps struct {
	Users      repository.UserRepository
	Codes      repository.CodeRepository
	Tokens     *token.Issuer
	Federation *token.FederationVerifier
	Sender     notify.Sender
	Limiter    limiter.Limiter
	Metrics    *metrics.Metrics
	Log        *zap.Logger
}

type AuthServiceImpl struct {
	users   repository.UserRepository
	codes   repository.CodeRepository
	tokens  *token.Issuer
	fed     *token.FederationVerifier
	sender  notify.Sender
	lim     limiter.Limiter
	metrics *metrics.Metrics
	log     *zap.Logger
	opts    AuthOptions
	now     func() time.Time
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(d AuthDeps, opts AuthOptions) *AuthServiceImpl {
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = 5 * time.Minute
	}
	if opts.CodeDigits <= 0 {
		opts.CodeDigits = 6
	}
	if opts.MaxCodeAttempts <= 0 {
		opts.MaxCodeAttempts = 5
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{
		users:   d.Users,
		codes:   d.Codes,
		tokens:  d.Tokens,
		fed:     d.Federation,
		sender:  d.Sender,
		lim:     d.Limiter,
		metrics: d.Metrics,
		log:     log,
		opts:    opts,
		now:     time.Now,
	}
}

// Authenticate applies rate limiting by (identifier, ip) and checks the secret.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, identifier, secret, ip string) (model.Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return model.Session{}, fmt.Errorf("%w: empty identifier/secret", errs.ErrInvalidArgument)
	}
	ipHash := limiter.HashIP(ip)
	if err := s.allow(ctx, identifier, ipHash); err != nil {
		return model.Session{}, err
	}

	u, err := s.users.FindByCredential(ctx, identifier, secret)
	if err != nil {
		s.metrics.Login("password", false)
		if errors.Is(err, errs.ErrUnauthorized) {
			return model.Session{}, s.fail(ctx, identifier, ipHash, errs.ErrUnauthorized)
		}
		return model.Session{}, err
	}
	s.succeed(ctx, identifier, ipHash)
	s.metrics.Login("password", true)
	return s.session(u)
}

// RequestCode generates a code, stores its hash and sends it to contact.
func (s *AuthServiceImpl) RequestCode(ctx context.Context, contact string) error {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return fmt.Errorf("%w: empty contact", errs.ErrInvalidArgument)
	}
	if _, err := s.users.GetByPhone(ctx, contact); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrUserNotFound
		}
		return err
	}

	code := s.opts.FixedCode
	if code == "" {
		var err error
		if code, err = pkgcrypto.NumericCode(s.opts.CodeDigits); err != nil {
			return err
		}
	}
	lc := model.LoginCode{
		Contact:   contact,
		CodeHash:  pkgcrypto.HashCode(code),
		ExpiresAt: s.now().Add(s.opts.CodeTTL),
	}
	if err := s.codes.Put(ctx, lc); err != nil {
		return err
	}

	text := fmt.Sprintf("Your AyurTrace login code is %s. It expires in %d minutes.",
		code, int(s.opts.CodeTTL.Round(time.Minute)/time.Minute))
	if err := s.sender.Send(ctx, contact, text); err != nil {
		return fmt.Errorf("deliver code: %w", err)
	}
	s.log.Info("login code issued", zap.String("contact", contact), zap.Time("expires", lc.ExpiresAt))
	return nil
}

// VerifyCode consumes the pending code for contact.
func (s *AuthServiceImpl) VerifyCode(ctx context.Context, contact, code, ip string) (model.Session, error) {
	contact = strings.TrimSpace(contact)
	code = strings.TrimSpace(code)
	if contact == "" || code == "" {
		return model.Session{}, fmt.Errorf("%w: empty contact/code", errs.ErrInvalidArgument)
	}
	ipHash := limiter.HashIP(ip)
	if err := s.allow(ctx, contact, ipHash); err != nil {
		return model.Session{}, err
	}

	if err := s.codes.Consume(ctx, contact, code, s.now(), s.opts.MaxCodeAttempts); err != nil {
		s.metrics.Login("code", false)
		if errors.Is(err, errs.ErrCodeInvalid) {
			return model.Session{}, s.fail(ctx, contact, ipHash, errs.ErrCodeInvalid)
		}
		return model.Session{}, err
	}
	u, err := s.users.GetByPhone(ctx, contact)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Session{}, errs.ErrCodeInvalid
		}
		return model.Session{}, err
	}
	s.succeed(ctx, contact, ipHash)
	s.metrics.Login("code", true)
	return s.session(u)
}

// FederatedLogin verifies the assertion and signs the user in, enrolling a
// farmer account the first time an (issuer, subject) pair is seen.
func (s *AuthServiceImpl) FederatedLogin(ctx context.Context, assertion string) (model.Session, error) {
	if s.fed == nil {
		return model.Session{}, fmt.Errorf("%w: federated login disabled", errs.ErrUnauthorized)
	}
	if assertion == "" {
		return model.Session{}, fmt.Errorf("%w: empty assertion", errs.ErrInvalidArgument)
	}
	id, err := s.fed.Verify(assertion)
	if err != nil {
		s.metrics.Login("federated", false)
		return model.Session{}, err
	}

	uid := uuid.NewV5(federatedNS, id.Issuer+"|"+id.Subject)
	u, err := s.users.GetByID(ctx, uid)
	if errors.Is(err, errs.ErrNotFound) {
		u, err = s.enrollFederated(ctx, uid, id)
	}
	if err != nil {
		return model.Session{}, err
	}
	s.metrics.Login("federated", true)
	return s.session(u)
}

func (s *AuthServiceImpl) enrollFederated(ctx context.Context, uid uuid.UUID, id model.FederatedIdentity) (*model.User, error) {
	name := strings.TrimSpace(id.Name)
	if name == "" {
		name = "Farmer"
	}
	u := &model.User{
		ID:          uid,
		Name:        name,
		Phone:       strings.TrimSpace(id.Phone),
		Role:        model.RoleFarmer,
		MemberSince: s.now().UTC(),
		Country:     "India",
		Settings:    model.DefaultSettings(),
	}
	err := s.users.Create(ctx, u, "")
	if errors.Is(err, errs.ErrAlreadyExists) {
		// Either a concurrent first login won, or the asserted phone belongs
		// to another account; the latter enrolls without a contact.
		if existing, gerr := s.users.GetByID(ctx, uid); gerr == nil {
			return existing, nil
		}
		u.Phone = ""
		err = s.users.Create(ctx, u, "")
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("federated user enrolled", zap.String("user_id", uid.String()), zap.String("issuer", id.Issuer))
	return u, nil
}

// Register creates a farmer account and signs it in.
func (s *AuthServiceImpl) Register(ctx context.Context, name, phone, secret string) (model.Session, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || secret == "" {
		return model.Session{}, fmt.Errorf("%w: empty name/secret", errs.ErrInvalidArgument)
	}
	if !validPhone(phone) {
		return model.Session{}, fmt.Errorf("%w: bad phone %q", errs.ErrInvalidArgument, phone)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.Session{}, err
	}
	u := &model.User{
		ID:          uid,
		Name:        name,
		Phone:       phone,
		Role:        model.RoleFarmer,
		MemberSince: s.now().UTC(),
		Country:     "India",
		Settings:    model.DefaultSettings(),
	}
	if err := s.users.Create(ctx, u, secret); err != nil {
		return model.Session{}, err
	}
	return s.session(u)
}

// UpdateProfile validates and applies patch.
func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, id uuid.UUID, patch model.UserPatch) (*model.User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: empty user id", errs.ErrInvalidArgument)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: empty name", errs.ErrInvalidArgument)
	}
	if patch.Settings != nil && strings.TrimSpace(patch.Settings.Language) == "" {
		return nil, fmt.Errorf("%w: empty language", errs.ErrInvalidArgument)
	}
	if patch.Empty() {
		return s.users.GetByID(ctx, id)
	}
	return s.users.Update(ctx, id, patch)
}

// GetUser loads a profile.
func (s *AuthServiceImpl) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthServiceImpl) session(u *model.User) (model.Session, error) {
	tok, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{Tokens: tok, User: u.Clone()}, nil
}

func (s *AuthServiceImpl) allow(ctx context.Context, key string, ipHash []byte) error {
	allowed, _, err := s.lim.Allow(ctx, key, ipHash)
	if err != nil {
		return err
	}
	if !allowed {
		return errs.ErrRateLimited
	}
	return nil
}

// fail records a failed attempt and returns cause, or ErrRateLimited once the
// threshold is reached.
func (s *AuthServiceImpl) fail(ctx context.Context, key string, ipHash []byte, cause error) error {
	blocked, _, err := s.lim.Failure(ctx, key, ipHash)
	if err != nil {
		s.log.Warn("limiter failure", zap.Error(err))
		return cause
	}
	if blocked {
		return errs.ErrRateLimited
	}
	return cause
}

// succeed resets counters (best-effort).
func (s *AuthServiceImpl) succeed(ctx context.Context, key string, ipHash []byte) {
	if err := s.lim.Success(ctx, key, ipHash); err != nil {
		s.log.Warn("limiter reset", zap.Error(err))
	}
}

func validPhone(p string) bool {
	digits := strings.TrimPrefix(p, "+")
	if len(digits) < 6 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
