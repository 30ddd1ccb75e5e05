package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"health-copilot-backend/models"
	"health-copilot-backend/services"
)

var upgrader = websocket.Upgrader{
    CheckOrigin: func(r *http.Request) bool {
        return true // Configure properly for production
    },
}

type WebSocketController struct {
    chatbotService *services.ChatbotService
    logger         *zap.Logger
}

func NewWebSocketController(chatbotService *services.ChatbotService, logger *zap.Logger) *WebSocketController {
    return &WebSocketController{
        chatbotService: chatbotService,
        logger:         logger,
    }
}

// HandleWebSocket runs a persistent chat session over one connection. Each
// inbound frame goes through the same pipeline as POST /chat.
func (wc *WebSocketController) HandleWebSocket(c *gin.Context) {
    conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
    if err != nil {
        wc.logger.Warn("websocket upgrade failed", zap.Error(err))
        return
    }
    defer conn.Close()

    for {
        var msg map[string]string
        if err := conn.ReadJSON(&msg); err != nil {
            wc.logger.Debug("websocket closed", zap.Error(err))
            break
        }

        req := models.ChatRequest{
            Message: msg["message"],
            UserID:  msg["user_id"],
        }
        if req.UserID == "" {
            req.UserID = "default"
        }
        if req.Message == "" {
            if err := conn.WriteJSON(map[string]interface{}{
                "error": "message is required",
            }); err != nil {
                wc.logger.Debug("websocket write failed", zap.Error(err))
                break
            }
            continue
        }

        response := wc.chatbotService.ProcessMessage(c.Request.Context(), req)
        if err := conn.WriteJSON(response); err != nil {
            wc.logger.Debug("websocket write failed", zap.Error(err))
            break
        }
    }
}
