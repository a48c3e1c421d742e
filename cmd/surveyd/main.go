package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/survey-extractor/internal/app"
	"github.com/joseph-ayodele/survey-extractor/internal/common"
	"github.com/joseph-ayodele/survey-extractor/internal/ingest"
	"github.com/joseph-ayodele/survey-extractor/internal/server"
)

const gracefulShutdownTimeout = 15 * time.Second

func main() {
	cmd := &cobra.Command{
		Use:           "surveyd",
		Short:         "Survey extraction service: HTTP API, gRPC health, worker queue and drop folder",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.New()
			if err := common.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := common.LoadConfig(v)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := common.NewLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger)
		},
	}
	common.AddFlags(cmd.Flags())

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "surveyd:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		return err
	}
	defer a.Close()

	if err := a.DB.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		return err
	}

	queue := a.NewQueue()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()
		queue.Shutdown(sctx)
	}()

	api := server.New(server.Deps{
		Jobs:      a.Jobs,
		Responses: a.Responses,
		Settings:  a.Settings,
		Runs:      queue,
		Exporter:  a.Exporter,
		Health: func(ctx context.Context) error {
			return a.DB.HealthCheck(ctx, 2*time.Second)
		},
		Registry: a.Registry,
		Gatherer: a.Registry,
		Logger:   logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	var grpcLis net.Listener
	if cfg.Server.GRPCAddr != "" {
		grpcLis, err = net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})

	if grpcLis != nil {
		g.Go(func() error {
			healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
			logger.Info("grpc health listening", "addr", cfg.Server.GRPCAddr)
			return grpcServer.Serve(grpcLis)
		})
	}

	if cfg.Watch.Dir != "" {
		in := ingest.NewIngestor(a.Jobs, queue, cfg.Watch.OwnerID, logger)
		g.Go(func() error {
			err := ingest.Watch(gctx, in, ingest.WatchConfig{
				Roots:       []string{cfg.Watch.Dir},
				InitialScan: true,
				Debounce:    500 * time.Millisecond,
				Logger:      logger,
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	// database probe feeding the gRPC health status
	g.Go(func() error {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				status := grpc_health_v1.HealthCheckResponse_SERVING
				if err := a.DB.HealthCheck(gctx, 2*time.Second); err != nil {
					logger.Warn("database health check failed", "error", err)
					status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
				}
				healthServer.SetServingStatus("", status)
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		healthServer.Shutdown()
		sctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(sctx)
		grpcServer.GracefulStop()
		return nil
	})

	return g.Wait()
}
