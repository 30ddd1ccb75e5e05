package utils

import (
    "strings"

    "health-copilot-backend/models"
)

// IntentClassifier is the deterministic keyword fallback used when the
// language model returns a label outside the intent vocabulary. It always
// produces an intent from the fixed set, defaulting to chit_chat.
type IntentClassifier struct {
    patterns map[models.Intent][]string
}

func NewIntentClassifier() *IntentClassifier {
    return &IntentClassifier{
        patterns: map[models.Intent][]string{
            models.IntentSymptomCheck: {
                "fever", "pain", "cough", "headache", "symptom", "sick",
                "cold", "hurt", "ache", "sore", "nausea", "dizzy",
            },
            models.IntentMedicineSuggest: {
                "medicine", "tablet", "drug", "dose", "dosage",
                "paracetamol", "ibuprofen", "prescription",
            },
            models.IntentAppointment: {
                "appointment", "book", "doctor", "schedule", "consultation",
                "visit", "checkup", "physician",
            },
            models.IntentOrderMedicine: {
                "order", "pharmacy", "nearby", "buy", "chemist", "drugstore",
            },
            models.IntentReminder: {
                "remind", "reminder",
            },
            models.IntentLog: {
                "log", "history", "record", "records",
            },
            models.IntentHelp: {
                "help", "what can you do", "features",
            },
        },
    }
}

// Classify scores each intent by keyword hits and returns the best match.
// No match at all means casual conversation.
func (ic *IntentClassifier) Classify(message string) models.Intent {
    message = strings.ToLower(message)

    scores := make(map[models.Intent]int)
    for intent, keywords := range ic.patterns {
        for _, keyword := range keywords {
            if strings.Contains(message, keyword) {
                scores[intent]++
            }
        }
    }

    maxIntent := models.IntentChitChat
    maxScore := 0
    for _, intent := range []models.Intent{
        models.IntentSymptomCheck,
        models.IntentMedicineSuggest,
        models.IntentAppointment,
        models.IntentOrderMedicine,
        models.IntentReminder,
        models.IntentLog,
        models.IntentHelp,
    } {
        if scores[intent] > maxScore {
            maxScore = scores[intent]
            maxIntent = intent
        }
    }

    return maxIntent
}
