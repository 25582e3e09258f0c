// Command ayur-server starts the AyurTrace gRPC server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/ayurtrace/internal/api"
	"github.com/and161185/ayurtrace/internal/config"
	"github.com/and161185/ayurtrace/internal/metrics"
	grpcserver "github.com/and161185/ayurtrace/internal/server/grpc"
	"github.com/and161185/ayurtrace/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, wires storage and capabilities, and serves gRPC
// until SIGINT/SIGTERM.
func main() {
	cfgPath := flag.String("config", "", "path to YAML config (defaults when empty)")
	dev := flag.Bool("dev", false, "dev mode: plaintext allowed, reflection, logged codes")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	if *dev {
		cfg.Dev = true
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := newLogger(cfg.Dev)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Server.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	issuer := token.NewIssuer([]byte(cfg.Auth.JWTKey), cfg.Auth.AccessTTL)

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}
	defer st.close()

	caps, err := openCapabilities(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("capabilities", zap.Error(err))
	}
	defer caps.close()

	authSvc, batchSvc := newServices(cfg, st, caps, issuer, m, logger)

	// gRPC server with interceptors
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.MetricsUnary(m),
			grpcserver.AuthUnary(issuer, api.PublicMethods),
			grpcserver.LoggingUnary(logger),
		),
	}
	if useTLS(cfg) {
		creds, err := credentials.NewServerTLSFromFile(cfg.Server.TLSCert, cfg.Server.TLSKey)
		if err != nil {
			logger.Fatal("failed to load TLS cert/key", zap.Error(err))
		}
		opts = append(opts, grpc.Creds(creds))
	} else {
		logger.Warn("serving without TLS (dev mode)")
	}
	s := grpc.NewServer(opts...)
	api.RegisterTraceServer(s, grpcserver.New(authSvc, batchSvc))

	// Health & reflection (dev)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	if cfg.Dev {
		reflection.Register(s)
	}

	var metricsSrv *http.Server
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsSrv = &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener", zap.Error(err))
			}
		}()
	}

	// Listen
	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("metrics", cfg.Server.MetricsAddr))
		errCh <- s.Serve(lis)
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		hs.Shutdown()
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.Stop()
		}
		if metricsSrv != nil {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			_ = metricsSrv.Shutdown(sctx)
			cancel()
		}
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// useTLS reports whether to serve TLS. Dev mode falls back to plaintext when
// the configured certificate files are absent.
func useTLS(cfg *config.Config) bool {
	if cfg.Server.TLSCert == "" || cfg.Server.TLSKey == "" {
		return false
	}
	if !cfg.Dev {
		return true
	}
	_, certErr := os.Stat(cfg.Server.TLSCert)
	_, keyErr := os.Stat(cfg.Server.TLSKey)
	return certErr == nil && keyErr == nil
}

func newLogger(dev bool) *zap.Logger {
	if dev {
		l, _ := zap.NewDevelopment()
		return l
	}
	l, _ := zap.NewProduction()
	return l
}
