package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Suraj-219/Attendance/internal/config"
	"github.com/Suraj-219/Attendance/internal/face"
	"github.com/Suraj-219/Attendance/internal/handler"
	"github.com/Suraj-219/Attendance/internal/httpmiddleware"
	"github.com/Suraj-219/Attendance/internal/logger"
	"github.com/Suraj-219/Attendance/internal/queue"
	"github.com/Suraj-219/Attendance/internal/session"
	"github.com/Suraj-219/Attendance/internal/store"
	"github.com/Suraj-219/Attendance/internal/user"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Error("http server failed", "err", err)
		os.Exit(1)
	}
}

func runHTTP(cfg config.App, log *slog.Logger) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, store.ScanQueueKey)
	}

	var sessionStore session.Store
	if cfg.StoreBackend == "memory" {
		log.Warn("using in-memory session store; sessions are lost on restart")
		sessionStore = session.NewMemoryStore()
	} else {
		sessionStore = session.NewPostgresStore(db.Client)
	}

	sessions := session.NewService(sessionStore, session.Config{
		TokenTTL:     cfg.TokenTTL,
		LateCutoff:   cfg.LateCutoff,
		DedupeWindow: cfg.DedupeWindow,
	})
	users := user.NewRepository(db.Client)
	faces := face.NewStore(db.Client)

	h := handler.New(cfg, sessions, users, faces, q, log)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewLimiter(cfg.RateLimitPerMin, cfg.RateLimitPerMin, httpmiddleware.ByClientIP()).GinMiddleware())

	// Tight per-student limit on the scan endpoint, sized to the token
	// rotation cadence rather than the general API rate.
	scanLimit := httpmiddleware.NewLimiter(5, cfg.ScanRatePerMin, httpmiddleware.ByStudent()).GinMiddleware()

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		resp := gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy}
		if redisHealthy {
			resp["audit_backlog"] = redisClient.QueueDepth(c.Request.Context(), store.ScanQueueKey)
		}
		c.JSON(status, resp)
	})

	h.Register(r.Group("/api"), scanLimit)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced shutdown", "err", err)
	}

	log.Info("server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
