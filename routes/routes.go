package routes

import (
    "time"

    "github.com/gin-gonic/gin"
    "go.uber.org/zap"

    "health-copilot-backend/config"
    "health-copilot-backend/controllers"
    "health-copilot-backend/services"
)

// SetupRoutes wires services and controllers and registers all routes. The
// calendar gateway is built by the caller so startup can authorize it before
// the server accepts traffic.
func SetupRoutes(router *gin.Engine, calendarSvc services.CalendarGateway, logger *zap.Logger) {
    cfg := config.Get()

    location, err := time.LoadLocation(cfg.Calendar.Timezone)
    if err != nil {
        logger.Warn("unknown calendar timezone, using UTC", zap.String("timezone", cfg.Calendar.Timezone))
        location = time.UTC
    }

    // Initialize services
    generationService := services.NewGenerationService(cfg.AI, logger)
    translationService := services.NewTranslationService(cfg.Translate, logger)
    healthLogService := services.NewHealthLogService()

    var pharmacyService services.PharmacyLocator
    if cfg.Maps.APIKey != "" {
        svc, err := services.NewPharmacyService(cfg.Maps, logger)
        if err != nil {
            logger.Warn("pharmacy search disabled", zap.Error(err))
        } else {
            pharmacyService = svc
        }
    } else {
        logger.Warn("MAPS_API_KEY not set, pharmacy search disabled")
    }

    chatbotService := services.NewChatbotService(
        generationService,
        translationService,
        calendarSvc,
        pharmacyService,
        healthLogService,
        location,
        logger,
    )

    // Initialize controllers
    chatController := controllers.NewChatController(chatbotService)
    wsController := controllers.NewWebSocketController(chatbotService, logger)

    // Chat endpoints
    router.POST("/chat", chatController.HandleChat)
    router.GET("/intents", chatController.GetSupportedIntents)

    // WebSocket for real-time chat
    router.GET("/ws", wsController.HandleWebSocket)

    // 404 handler
    router.NoRoute(func(c *gin.Context) {
        c.JSON(404, gin.H{
            "error": "Route not found",
            "path":  c.Request.URL.Path,
        })
    })
}
