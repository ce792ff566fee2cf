package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	accountH "github.com/fekuna/omnipos-bloodbank-service/internal/account/handler"
	accountRepoPkg "github.com/fekuna/omnipos-bloodbank-service/internal/account/repository"
	accountUCPkg "github.com/fekuna/omnipos-bloodbank-service/internal/account/usecase"
	"github.com/fekuna/omnipos-bloodbank-service/internal/auth"
	"github.com/fekuna/omnipos-bloodbank-service/internal/donor"
	donorH "github.com/fekuna/omnipos-bloodbank-service/internal/donor/handler"
	donorRepoPkg "github.com/fekuna/omnipos-bloodbank-service/internal/donor/repository"
	donorUCPkg "github.com/fekuna/omnipos-bloodbank-service/internal/donor/usecase"
	"github.com/fekuna/omnipos-bloodbank-service/internal/ledger"
	ledgerH "github.com/fekuna/omnipos-bloodbank-service/internal/ledger/handler"
	ledgerListenerPkg "github.com/fekuna/omnipos-bloodbank-service/internal/ledger/listener"
	ledgerRepoPkg "github.com/fekuna/omnipos-bloodbank-service/internal/ledger/repository"
	ledgerUCPkg "github.com/fekuna/omnipos-bloodbank-service/internal/ledger/usecase"
	"github.com/fekuna/omnipos-bloodbank-service/internal/server"
	"github.com/fekuna/omnipos-bloodbank-service/migrations"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/broker"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/cache"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/search"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the gRPC health endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply pending migrations before serving")
}

func serve(ctx context.Context) error {
	// 1. Database
	db, err := openDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}
	defer db.Close()

	if autoMigrate {
		if err := migrations.Up(ctx, db, appLogger); err != nil {
			return err
		}
	}

	// 2. Redis
	var redisClient *cache.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, inventory cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 3. Kafka
	var events ledger.EventPublisher
	var consumer *broker.KafkaConsumer
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.LedgerTopic})
		defer producer.Close()
		events = producer

		consumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.DonationTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer consumer.Close()
		appLogger.Info("Connected to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("donation_topic", cfg.Kafka.DonationTopic),
			zap.String("ledger_topic", cfg.Kafka.LedgerTopic),
		)
	}

	// 4. Elasticsearch
	var donorIndex donor.SearchIndex
	if len(cfg.Elastic.Addresses) > 0 {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, donor search uses the database", zap.Error(err))
		} else if err := esClient.CreateIndex(ctx, cfg.Elastic.DonorIndex, donor.IndexMapping); err != nil {
			appLogger.Warn("Could not create donor index, donor search uses the database", zap.Error(err))
		} else {
			donorIndex = esClient
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 5. Use cases
	accountUC, err := accountUCPkg.NewAccountUseCase(accountRepoPkg.NewSQLRepository(db), cfg.Auth.BcryptCost, appLogger)
	if err != nil {
		return err
	}
	donorUC := donorUCPkg.NewDonorUseCase(donorRepoPkg.NewSQLRepository(db), donorIndex, cfg.Elastic.DonorIndex, appLogger)
	ledgerUC := ledgerUCPkg.NewLedgerUseCase(ledgerRepoPkg.NewSQLRepository(db), redisClient, cfg.Redis.InventoryTTL, events, donorUC, appLogger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 6. Listener
	listenerDone := make(chan struct{})
	if consumer != nil {
		go func() {
			defer close(listenerDone)
			ledgerListenerPkg.NewDonationListener(consumer, ledgerUC, appLogger).Start(runCtx)
		}()
	} else {
		close(listenerDone)
	}

	// 7. HTTP
	if cfg.Server.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	tokens := auth.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL)
	router := server.NewRouter(server.Handlers{
		Account: accountH.NewAccountHandler(accountUC, tokens, appLogger),
		Donor:   donorH.NewDonorHandler(donorUC, appLogger),
		Ledger:  ledgerH.NewLedgerHandler(ledgerUC, appLogger),
	}, tokens, db, appLogger)

	httpServer := &http.Server{
		Addr:              normalizePort(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 8. gRPC health
	grpcLis, err := net.Listen("tcp", normalizePort(cfg.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	grpcServer, healthServer := server.NewGRPCServer()
	go server.WatchHealth(runCtx, healthServer, db, 5*time.Second, appLogger)

	errCh := make(chan error, 2)
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		appLogger.Info("Starting gRPC server", zap.String("addr", grpcLis.Addr().String()))
		if err := grpcServer.Serve(grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		appLogger.Error("Server failed", zap.Error(serveErr))
	}

	// Graceful shutdown
	appLogger.Info("Shutting down server...")
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	<-listenerDone
	appLogger.Info("Server stopped")
	return serveErr
}

func normalizePort(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
