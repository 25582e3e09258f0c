package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/ayurtrace/internal/config"
	"github.com/and161185/ayurtrace/internal/events"
	"github.com/and161185/ayurtrace/internal/geocode"
	"github.com/and161185/ayurtrace/internal/ledger"
	"github.com/and161185/ayurtrace/internal/limiter"
	"github.com/and161185/ayurtrace/internal/media"
	"github.com/and161185/ayurtrace/internal/metrics"
	"github.com/and161185/ayurtrace/internal/migrate"
	"github.com/and161185/ayurtrace/internal/notify"
	"github.com/and161185/ayurtrace/internal/recognition"
	"github.com/and161185/ayurtrace/internal/repository"
	"github.com/and161185/ayurtrace/internal/repository/memory"
	"github.com/and161185/ayurtrace/internal/repository/postgres"
	"github.com/and161185/ayurtrace/internal/seed"
	"github.com/and161185/ayurtrace/internal/service"
	"github.com/and161185/ayurtrace/internal/token"
)

type storage struct {
	users   repository.UserRepository
	batches repository.BatchRepository
	codes   repository.CodeRepository
	limiter limiter.Limiter
	close   func()
}

// openStorage builds repositories for the configured driver and loads the
// demo seed when asked to.
func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*storage, error) {
	policy := limiter.Policy{
		Window:   cfg.Auth.Limiter.Window,
		MaxFails: cfg.Auth.Limiter.MaxFails,
		BlockFor: cfg.Auth.Limiter.BlockFor,
	}

	var st *storage
	switch cfg.Storage.Driver {
	case "postgres":
		n, err := migrate.Up(ctx, cfg.Storage.DSN, log)
		if err != nil {
			return nil, fmt.Errorf("migrate up: %w", err)
		}
		log.Info("schema ready", zap.Int("applied", n))
		db, err := postgres.New(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("pgxpool: %w", err)
		}
		st = &storage{
			users:   postgres.NewUserRepo(db),
			batches: postgres.NewBatchRepo(db),
			codes:   postgres.NewCodeRepo(db),
			limiter: limiter.NewPG(db.Pool, policy),
			close:   db.Close,
		}
	default:
		mem, err := memory.New()
		if err != nil {
			return nil, err
		}
		st = &storage{
			users:   memory.NewUserRepo(mem),
			batches: memory.NewBatchRepo(mem),
			codes:   memory.NewCodeRepo(mem),
			limiter: limiter.NewMemory(policy),
			close:   func() {},
		}
	}

	if cfg.Storage.Seed {
		loaded, err := seed.Load(ctx, st.users, st.batches, time.Now())
		if err != nil {
			st.close()
			return nil, fmt.Errorf("seed: %w", err)
		}
		log.Info("demo seed", zap.Bool("loaded", loaded))
	}
	return st, nil
}

type capabilities struct {
	recognizer recognition.Recognizer
	geocoder   geocode.Geocoder
	sender     notify.Sender
	media      media.Store
	events     events.Publisher
	close      func()
}

func openCapabilities(ctx context.Context, cfg *config.Config, log *zap.Logger) (*capabilities, error) {
	c := &capabilities{events: events.Nop{}, close: func() {}}

	switch cfg.Recognition.Mode {
	case "random":
		c.recognizer = recognition.NewRandom(cfg.Recognition.MinConfidence, cfg.Recognition.MaxConfidence, cfg.Recognition.Latency)
	default:
		c.recognizer = recognition.NewFixed(cfg.Recognition.Latency)
	}

	switch cfg.Geocoder.Driver {
	case "nominatim":
		c.geocoder = geocode.NewNominatim(cfg.Geocoder.URL, cfg.Geocoder.UserAgent, cfg.Geocoder.Timeout, log)
	default:
		c.geocoder = geocode.Stub{Address: cfg.Geocoder.StubAddress}
	}

	switch cfg.Notify.Driver {
	case "telegram":
		tg, err := notify.NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.Chats)
		if err != nil {
			return nil, err
		}
		c.sender = tg
	default:
		c.sender = notify.NewLogSender(log)
	}

	switch cfg.Media.Driver {
	case "s3":
		s3, err := media.NewS3(ctx, cfg.Media.S3)
		if err != nil {
			return nil, fmt.Errorf("s3: %w", err)
		}
		c.media = s3
	default:
		c.media = media.NewMemory(cfg.Media.BaseURL)
	}

	if cfg.Events.Driver == "nats" {
		pub, closeFn, err := events.Connect(cfg.Events.URL, cfg.Events.Prefix)
		if err != nil {
			return nil, err
		}
		c.events, c.close = pub, closeFn
	}
	return c, nil
}

func newServices(cfg *config.Config, st *storage, caps *capabilities, issuer *token.Issuer, m *metrics.Metrics, log *zap.Logger) (*service.AuthServiceImpl, *service.BatchServiceImpl) {
	var fed *token.FederationVerifier
	if cfg.Auth.FederationKey != "" {
		fed = token.NewFederationVerifier([]byte(cfg.Auth.FederationKey), cfg.Auth.FederationIssuers...)
	}
	authSvc := service.NewAuthService(service.AuthDeps{
		Users:      st.users,
		Codes:      st.codes,
		Tokens:     issuer,
		Federation: fed,
		Sender:     caps.sender,
		Limiter:    st.limiter,
		Metrics:    m,
		Log:        log.Named("auth"),
	}, service.AuthOptions{
		CodeTTL:         cfg.Auth.CodeTTL,
		CodeDigits:      cfg.Auth.CodeDigits,
		MaxCodeAttempts: cfg.Auth.MaxCodeAttempts,
		FixedCode:       cfg.Auth.FixedCode,
	})
	batchSvc := service.NewBatchService(service.BatchDeps{
		Batches:    st.batches,
		Users:      st.users,
		Anchor:     ledger.NewHasher(),
		Recognizer: caps.recognizer,
		Geocoder:   caps.geocoder,
		Media:      caps.media,
		Events:     caps.events,
		Metrics:    m,
		Log:        log.Named("batches"),
	}, service.BatchOptions{
		RecognitionTimeout: cfg.Recognition.Timeout,
		GeocodeTimeout:     cfg.Geocoder.Timeout,
	})
	return authSvc, batchSvc
}
