package models

import (
    "time"
)

// Intent is the discrete action category assigned to an inbound message.
type Intent string

const (
    IntentSymptomCheck    Intent = "symptom_check"
    IntentMedicineSuggest Intent = "medicine_suggest"
    IntentAppointment     Intent = "appointment"
    IntentOrderMedicine   Intent = "order_medicine"
    IntentReminder        Intent = "reminder"
    IntentLog             Intent = "log"
    IntentChitChat        Intent = "chit_chat"
    IntentHelp            Intent = "help"
    IntentUnknown         Intent = "unknown"
)

var intentVocabulary = map[string]Intent{
    "symptom_check":    IntentSymptomCheck,
    "medicine_suggest": IntentMedicineSuggest,
    "appointment":      IntentAppointment,
    "order_medicine":   IntentOrderMedicine,
    "reminder":         IntentReminder,
    "log":              IntentLog,
    "chit_chat":        IntentChitChat,
    "help":             IntentHelp,
    "unknown":          IntentUnknown,
}

// ParseIntent maps a free-text label to a member of the intent vocabulary.
// The label comes back from the language model unverified, so callers must
// treat ok == false as "not an intent" and fall back to keyword matching.
func ParseIntent(label string) (Intent, bool) {
    intent, ok := intentVocabulary[label]
    return intent, ok
}

type ChatRequest struct {
    Message string `json:"message" binding:"required"`
    UserID  string `json:"user_id,omitempty"`
}

type ChatResponse struct {
    Reply  string                 `json:"reply"`
    Intent Intent                 `json:"intent"`
    Data   map[string]interface{} `json:"data,omitempty"`
}

// LogEntry is one auditable action in the in-memory health log.
// Entries are append-only and never mutated after creation.
type LogEntry struct {
    Time   time.Time `json:"time"`
    Action string    `json:"action"`
    Detail string    `json:"detail"`
}

// Pharmacy is a single nearby-search result. Produced transiently by the
// pharmacy locator, never persisted.
type Pharmacy struct {
    Name     string `json:"name"`
    Address  string `json:"address"`
    MapsLink string `json:"maps_link"`
}
