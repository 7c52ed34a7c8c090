package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"gamegate/internal/config"
	"gamegate/internal/database"
	"gamegate/internal/middleware"
	"gamegate/internal/modules/admin"
	"gamegate/internal/modules/entitlement"
	"gamegate/internal/modules/proxy"
	jwtsvc "gamegate/internal/pkg/jwt"
	"gamegate/internal/repository"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	tokenRepo := repository.NewTokenRepository(db)

	entitlementService := entitlement.NewService(tokenRepo)
	entitlementHandler := entitlement.NewHandler(entitlementService)

	jwtService := jwtsvc.New(cfg.JWTSecret, 24*time.Hour)
	adminHandler := admin.NewHandler(cfg, jwtService)

	forwarder, err := proxy.NewForwarder(cfg.UpstreamOrigin)
	if err != nil {
		log.Fatal(err)
	}
	proxyHandler := proxy.NewHandler(forwarder)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go entitlementService.RunSweeper(ctx, cfg.SweepInterval)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), middleware.ErrorLogger())

	start := time.Now()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"version": version,
			"uptime":  int(time.Since(start).Seconds()),
		})
	})

	api := r.Group("/api", middleware.CORS(cfg))
	{
		adminHandler.RegisterRoutes(api)
		entitlementHandler.RegisterPublicRoutes(api)

		protected := api.Group("/", middleware.AdminAuth(cfg, jwtService))
		{
			adminHandler.RegisterProtectedRoutes(protected)
			entitlementHandler.RegisterAdminRoutes(protected)
		}
	}

	// Proxy traffic bypasses the API CORS layer: the forwarder writes its
	// own permissive headers and answers preflight locally.
	gated := r.Group("/proxy", middleware.AccessGate(entitlementService))
	proxyHandler.RegisterRoutes(gated)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("gamegate listening on :%s, forwarding to %s", cfg.Port, cfg.UpstreamOrigin)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutdown signal received: closing HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
