package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jcmexdev/homechef-marketplace/internal/config"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/auth"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/pkg/interceptors"
	"github.com/jcmexdev/homechef-marketplace/internal/pkg/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	mintToken := flag.String("mint-token", "", "print a bearer token for role:id (e.g. customer:u-1) and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of a minted token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(cfg.LogLevel)

	if *mintToken != "" {
		if err := printToken(cfg.JWTSecret, *mintToken, *tokenTTL); err != nil {
			slog.Error("failed to mint token", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg); err != nil {
		slog.Error("marketplace-api stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := telemetry.Setup(ctx, telemetry.Config{
			ServiceName:    cfg.ServiceName,
			Exporter:       cfg.TracesExporter,
			Endpoint:       cfg.OTLPEndpoint,
			Environment:    cfg.Environment,
			SampleRatio:    cfg.SampleRatio,
			MetricInterval: cfg.MetricInterval,
		})
		if err != nil {
			return fmt.Errorf("initialise telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("telemetry shutdown error", "error", err)
			}
		}()
	}

	deps, err := buildDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           deps.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GRPCHealthAddr, err)
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(interceptors.UnaryServerInterceptor()),
	)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus(cfg.ServiceName, healthpb.HealthCheckResponse_SERVING)

	errCh := make(chan error, 2)
	go func() {
		slog.Info("marketplace HTTP API running", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		slog.Info("gRPC health server running", "addr", cfg.GRPCHealthAddr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	healthSrv.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	return runErr
}

// printToken signs a token for subject, formatted "role:id".
func printToken(secret, subject string, ttl time.Duration) error {
	roleName, id, ok := strings.Cut(subject, ":")
	if !ok || id == "" {
		return fmt.Errorf("token subject %q must look like role:id", subject)
	}
	role, ok := domain.ParseRole(roleName)
	if !ok {
		return fmt.Errorf("unknown role %q", roleName)
	}
	token, err := auth.NewVerifier(secret).Sign(domain.Actor{ID: id, Role: role}, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
