package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/handlecraft/handlecraft-backend/config"
	httpapi "github.com/handlecraft/handlecraft-backend/internal/api/http"
	"github.com/handlecraft/handlecraft-backend/internal/api/http/middleware"
	"github.com/handlecraft/handlecraft-backend/internal/bootstrap"
	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/llm"
	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/repository"
	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/service"
	cronjob "github.com/handlecraft/handlecraft-backend/internal/maintenance/cron"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		cache  service.SuggestionCache
		pinger httpapi.Pinger
	)
	if cfg.Cache.RedisURL != "" {
		rdb, err := bootstrap.OpenRedis(ctx, cfg.Cache.RedisURL)
		if err != nil {
			log.Printf("Warning: suggestion cache disabled: %v", err)
		} else {
			defer rdb.Close()
			c := repository.NewSuggestionCache(rdb, cfg.Cache.TTL)
			cache, pinger = c, c
			log.Printf("Suggestion cache enabled (ttl=%s)", cfg.Cache.TTL)
		}
	}

	suggestions := service.NewSuggestionService(cfg.DeepSeek, llm.NewDeepSeek(cfg.DeepSeek), cache)
	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

	scheduler := cronjob.NewScheduler(limiter)
	if err := scheduler.Start(); err != nil {
		log.Printf("Failed to start cron scheduler: %v", err)
	} else {
		defer scheduler.Stop()
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    "handlecraft",
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		APIConfigured:  cfg.DeepSeek.HasAPIKey(),
		Suggester:      suggestions,
		Cache:          pinger,
		Limiter:        limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Leave room for the completion call plus response writing.
		WriteTimeout: cfg.DeepSeek.Timeout + 15*time.Second,
	}

	go func() {
		log.Printf("listening on :%s (env=%s)", cfg.Server.Port, cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
