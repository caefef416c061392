package bootstrap

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	httpapi "github.com/handlecraft/handlecraft-backend/internal/api/http"
	"github.com/handlecraft/handlecraft-backend/internal/api/http/middleware"
	hshttp "github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/http"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	TrustedProxies []string
	APIConfigured  bool
	Suggester      hshttp.Suggester
	Cache          httpapi.Pinger
	Limiter        *middleware.IPRateLimiter
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()
	// Rate limiting keys on ClientIP, so forwarded headers are honored only
	// from configured proxies.
	if err := r.SetTrustedProxies(dep.TrustedProxies); err != nil {
		log.Printf("Warning: invalid trusted proxies %v: %v; trusting none", dep.TrustedProxies, err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(cors.New(corsConfig(dep.AllowedOrigins)))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.APIConfigured, dep.Cache)
	healthHandler.RegisterRoutes(r)
	r.GET("/metrics", httpapi.MetricsHandler)

	suggestions := hshttp.New(dep.Suggester)

	api := r.Group("/api")
	api.Use(middleware.RequestIDMiddleware())
	api.Use(middleware.RateLimitMiddleware(dep.Limiter))
	suggestions.Register(api)

	v1 := api.Group("/v1")
	suggestions.Register(v1)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
