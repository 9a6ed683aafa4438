package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Suraj-219/Attendance/internal/config"
	"github.com/Suraj-219/Attendance/internal/logger"
	"github.com/Suraj-219/Attendance/internal/metrics"
	"github.com/Suraj-219/Attendance/internal/queue"
	"github.com/Suraj-219/Attendance/internal/store"
)

// Worker drains the scan audit queue and records each event in the logs and
// counters, keeping the request path free of that work.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, store.ScanQueueKey)
	}

	events, err := q.Consume(ctx)
	if err != nil {
		log.Error("queue consume init failed", "err", err)
		os.Exit(1)
	}

	log.Info("worker started, waiting for scan events")
	for evt := range events {
		metrics.AuditEventsProcessed.Inc()
		log.Info("scan recorded",
			"session", evt.SessionID,
			"student", evt.StudentID,
			"status", evt.Status,
			"duplicate", evt.Duplicate,
			"recorded_at", evt.RecordedAt,
		)
	}

	log.Info("worker stopped")
}
