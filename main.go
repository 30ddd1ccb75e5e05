package main

import (
    "context"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/gin-gonic/gin"
    "go.uber.org/zap"

    "health-copilot-backend/config"
    "health-copilot-backend/routes"
    "health-copilot-backend/services"
)

func main() {
    // Load configuration
    if err := config.Load(); err != nil {
        log.Fatalf("Failed to load configuration: %v", err)
    }

    cfg := config.Get()

    logger, err := newLogger(cfg.Environment)
    if err != nil {
        log.Fatalf("Failed to initialize logger: %v", err)
    }
    defer logger.Sync()

    // Set Gin mode
    if cfg.Environment == "production" {
        gin.SetMode(gin.ReleaseMode)
    }

    // Authorize the calendar gateway up front. Booking still degrades to an
    // explanatory reply if this fails, so the server starts regardless.
    calendarSvc := services.NewCalendarService(cfg.Calendar, logger)
    if err := calendarSvc.EnsureAuthorized(context.Background()); err != nil {
        logger.Warn("calendar authorization failed, appointment booking will be unavailable", zap.Error(err))
    }

    // Create Gin router
    router := gin.New()

    // Add middleware
    router.Use(gin.Recovery())
    router.Use(gin.Logger())
    router.Use(corsMiddleware(cfg.Security.AllowedOrigins))

    // Health check endpoint
    router.GET("/health", func(c *gin.Context) {
        c.JSON(200, gin.H{
            "status":              "ok",
            "timestamp":           time.Now(),
            "calendar_authorized": calendarSvc.Authorized(),
        })
    })

    // Setup all routes
    routes.SetupRoutes(router, calendarSvc, logger)

    // Create HTTP server
    srv := &http.Server{
        Addr:         ":" + cfg.Port,
        Handler:      router,
        ReadTimeout:  15 * time.Second,
        WriteTimeout: 60 * time.Second,
        IdleTimeout:  60 * time.Second,
    }

    // Start server in a goroutine
    go func() {
        logger.Info("server starting", zap.String("port", cfg.Port))

        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            logger.Fatal("failed to start server", zap.Error(err))
        }
    }()

    // Wait for interrupt signal to gracefully shutdown the server
    quit := make(chan os.Signal, 1)
    signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
    <-quit

    logger.Info("shutting down server")

    // Graceful shutdown with timeout
    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()

    if err := srv.Shutdown(ctx); err != nil {
        logger.Error("server forced to shutdown", zap.Error(err))
    }

    logger.Info("server exited")
}

func newLogger(environment string) (*zap.Logger, error) {
    if environment == "production" {
        return zap.NewProduction()
    }
    return zap.NewDevelopment()
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
    allowed := make(map[string]bool, len(allowedOrigins))
    for _, origin := range allowedOrigins {
        allowed[origin] = true
    }

    return func(c *gin.Context) {
        origin := c.Request.Header.Get("Origin")
        if allowed[origin] {
            c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
            c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
            c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
            c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
        }

        if c.Request.Method == "OPTIONS" {
            c.AbortWithStatus(204)
            return
        }

        c.Next()
    }
}
