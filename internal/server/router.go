package server

import (
	"context"
	"net/http"
	"time"

	accountH "github.com/fekuna/omnipos-bloodbank-service/internal/account/handler"
	"github.com/fekuna/omnipos-bloodbank-service/internal/auth"
	donorH "github.com/fekuna/omnipos-bloodbank-service/internal/donor/handler"
	ledgerH "github.com/fekuna/omnipos-bloodbank-service/internal/ledger/handler"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether the database answers; *sqlx.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	Account *accountH.AccountHandler
	Donor   *donorH.DonorHandler
	Ledger  *ledgerH.LedgerHandler
}

// NewRouter mounts every API under /api/v1. Only registration and login are
// reachable without a bearer token.
func NewRouter(h Handlers, tokens *auth.TokenManager, db Pinger, log logger.ZapLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := r.Group("/api/v1")
	private := r.Group("/api/v1", auth.RequireAuth(tokens))

	h.Account.RegisterRoutes(public, private)
	h.Donor.RegisterRoutes(private)
	h.Ledger.RegisterRoutes(private)
	return r
}

func requestLogger(log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if id := auth.GetAccountID(c.Request.Context()); id != "" {
			fields = append(fields, zap.String("account_id", id))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warn("HTTP request", fields...)
			return
		}
		log.Debug("HTTP request", fields...)
	}
}
