package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/config"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/database"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg       *config.Config
	appLogger logger.ZapLogger
)

var rootCmd = &cobra.Command{
	Use:   "bloodbank",
	Short: "Blood bank ledger service",
	Long: `bloodbank keeps the blood inventory ledger: donations add units,
hospital requests reserve them, and every change is recorded atomically.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load() // Load .env file if it exists
		cfg = config.LoadEnv()

		logConfig := &logger.ZapLoggerConfig{
			IsDevelopment:     false,
			Encoding:          "json",
			Level:             "info",
			DisableCaller:     cfg.Logger.DisableCaller,
			DisableStacktrace: cfg.Logger.DisableStacktrace,
			ServiceName:       "bloodbank",
		}
		if cfg.Server.AppEnv == "development" {
			logConfig.IsDevelopment = true
			logConfig.Encoding = cfg.Logger.Encoding
			logConfig.Level = cfg.Logger.Level
		}
		appLogger = logger.NewZapLogger(logConfig)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appLogger != nil {
			_ = appLogger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func openDatabase(c *config.DatabaseConfig) (*sqlx.DB, error) {
	switch c.Driver {
	case database.DriverPostgres:
		db, err := database.NewPostgres(&database.PostgresConfig{
			Host:            c.Postgres.Host,
			Port:            c.Postgres.Port,
			User:            c.Postgres.User,
			Password:        c.Postgres.Password,
			DBName:          c.Postgres.DBName,
			SSLMode:         c.Postgres.SSLMode,
			MaxOpenConns:    c.Postgres.MaxOpenConns,
			MaxIdleConns:    c.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(c.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(c.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", c.Postgres.DBName))
		return db, nil
	case database.DriverSQLite:
		db, err := database.NewSQLite(c.SQLitePath)
		if err != nil {
			return nil, err
		}
		appLogger.Info("Opened SQLite database", zap.String("path", c.SQLitePath))
		return db, nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", c.Driver)
}
