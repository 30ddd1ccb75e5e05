package controllers

import (
    "net/http"

    "github.com/gin-gonic/gin"

    "health-copilot-backend/models"
    "health-copilot-backend/services"
)

type ChatController struct {
    chatbotService *services.ChatbotService
}

func NewChatController(chatbotService *services.ChatbotService) *ChatController {
    return &ChatController{
        chatbotService: chatbotService,
    }
}

// HandleChat processes one chat message and always answers with a reply and
// an intent label.
func (cc *ChatController) HandleChat(c *gin.Context) {
    var req models.ChatRequest

    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{
            "error":   "Invalid request format",
            "details": err.Error(),
        })
        return
    }

    if req.UserID == "" {
        req.UserID = "default"
    }

    response := cc.chatbotService.ProcessMessage(c.Request.Context(), req)
    c.JSON(http.StatusOK, response)
}

// GetSupportedIntents returns the list of supported intents
func (cc *ChatController) GetSupportedIntents(c *gin.Context) {
    intents := []map[string]interface{}{
        {
            "intent":      "symptom_check",
            "description": "Describe symptoms and get safe, non-diagnostic advice",
            "examples": []string{
                "I have a headache and fever",
                "My throat hurts and I keep coughing",
            },
        },
        {
            "intent":      "medicine_suggest",
            "description": "Over-the-counter medicine suggestions with warnings",
            "examples": []string{
                "Suggest medicine for cold",
                "What can I take for a mild fever?",
            },
        },
        {
            "intent":      "appointment",
            "description": "Book a doctor appointment on your calendar",
            "examples": []string{
                "Book an appointment with Dr. Mehta next Monday at 4:30 PM",
                "Schedule a checkup tomorrow at 10am",
            },
        },
        {
            "intent":      "order_medicine",
            "description": "Find nearby pharmacies for a medicine",
            "examples": []string{
                "Order paracetamol from a nearby pharmacy",
                "Where can I buy ibuprofen near me?",
            },
        },
        {
            "intent":      "reminder",
            "description": "Set an evening health reminder on your calendar",
            "examples": []string{
                "Remind me to take my medicine",
            },
        },
        {
            "intent":      "log",
            "description": "Show the record of your health actions",
            "examples": []string{
                "Show my health log",
            },
        },
        {
            "intent":      "help",
            "description": "List everything the assistant can do",
            "examples": []string{
                "What can you do?",
            },
        },
    }

    c.JSON(http.StatusOK, gin.H{
        "intents": intents,
    })
}
