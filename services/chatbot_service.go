package services

import (
    "context"
    "fmt"
    "regexp"
    "strings"
    "time"

    "github.com/olebedev/when"
    "github.com/olebedev/when/rules/common"
    "github.com/olebedev/when/rules/en"
    "go.uber.org/zap"

    "health-copilot-backend/models"
    "health-copilot-backend/utils"
)

const (
    classifyPrompt = "Classify the user's intent from this message: '%s'. " +
        "Choose one of: symptom_check, medicine_suggest, appointment, order_medicine, reminder, log, chit_chat, help, unknown. " +
        "Reply with only the intent label."

    symptomPrompt = "You are a health assistant. A user says: '%s'. " +
        "Give a short, safe, and clear health suggestion, with simple home remedies and over-the-counter guidance where appropriate. " +
        "If it sounds like an emergency, say so. If not, suggest seeing a doctor if needed. " +
        "Do not diagnose, just help."

    medicinePrompt = "You are a health assistant. A user asks: '%s'. " +
        "Suggest only over-the-counter medicines if appropriate, with warnings. " +
        "If not appropriate, say to see a doctor. Never give prescription advice."

    chitChatPrompt = "You are a friendly health companion. Chat casually with the user: '%s'"

    unknownReply = "Sorry, I didn't understand. Try asking about symptoms, medicines, appointments, or reminders."

    appointmentFormatReply = "I couldn't find a date and time in your message. " +
        "Please include one, for example: 'Book an appointment with Dr. Mehta next Monday at 4:30 PM'."

    noPharmaciesReply = "Sorry, I couldn't find any pharmacies nearby right now. Please try again later."

    helpReply = "🤖 Health Copilot can help you with:\n" +
        "- Symptom check (e.g., 'I have a headache and fever')\n" +
        "- Medicine suggestion (e.g., 'Suggest medicine for cold')\n" +
        "- Booking a doctor appointment (e.g., 'Book an appointment with Dr. Mehta next Monday at 4:30 PM')\n" +
        "- Ordering medicine from a nearby pharmacy (e.g., 'Order paracetamol nearby')\n" +
        "- Setting a health reminder (e.g., 'Remind me to take my medicine')\n" +
        "- Showing your health log (e.g., 'Show my health log')\n" +
        "- Casual chat (e.g., 'How are you?')\n" +
        "Ask 'help' anytime to see this list."
)

var doctorPattern = regexp.MustCompile(`(?i)\bdr\.?\s+([a-zA-Z]+)`)

// ChatbotService is the request orchestrator: it normalizes the inbound
// message to the working language, classifies it, dispatches to exactly one
// intent handler, and localizes the reply back to the user's language.
// Handlers only ever see working-language text.
type ChatbotService struct {
    generator  Generator
    translator Translator
    calendar   CalendarGateway
    pharmacy   PharmacyLocator
    healthLog  *HealthLogService
    classifier *utils.IntentClassifier
    dateParser *when.Parser
    location   *time.Location
    logger     *zap.Logger
    now        func() time.Time
}

func NewChatbotService(
    generator Generator,
    translator Translator,
    calendar CalendarGateway,
    pharmacy PharmacyLocator,
    healthLog *HealthLogService,
    location *time.Location,
    logger *zap.Logger,
) *ChatbotService {
    parser := when.New(nil)
    parser.Add(en.All...)
    parser.Add(common.All...)

    return &ChatbotService{
        generator:  generator,
        translator: translator,
        calendar:   calendar,
        pharmacy:   pharmacy,
        healthLog:  healthLog,
        classifier: utils.NewIntentClassifier(),
        dateParser: parser,
        location:   location,
        logger:     logger,
        now:        time.Now,
    }
}

// ProcessMessage runs the full pipeline for one chat message. It always
// produces a reply and an intent; internal failures degrade into informative
// text instead of propagating to the transport layer.
func (s *ChatbotService) ProcessMessage(ctx context.Context, req models.ChatRequest) *models.ChatResponse {
    normalized, lang := s.translator.ToWorking(ctx, req.Message)
    intent := s.detectIntent(ctx, normalized)

    s.logger.Info("message classified",
        zap.String("intent", string(intent)),
        zap.String("source_lang", lang),
        zap.String("user_id", req.UserID))

    var reply string
    var data map[string]interface{}

    switch intent {
    case models.IntentSymptomCheck:
        reply = s.handleSymptomCheck(ctx, normalized)
    case models.IntentMedicineSuggest:
        reply = s.handleMedicineSuggest(ctx, normalized)
    case models.IntentAppointment:
        reply, data = s.handleAppointment(ctx, normalized)
    case models.IntentOrderMedicine:
        reply, data = s.handleOrderMedicine(ctx, normalized)
    case models.IntentReminder:
        reply, data = s.handleReminder(ctx, normalized)
    case models.IntentLog:
        reply = s.healthLog.Format()
    case models.IntentChitChat:
        reply = s.generator.Generate(ctx, fmt.Sprintf(chitChatPrompt, normalized))
    case models.IntentHelp:
        reply = helpReply
    default:
        reply = unknownReply
    }

    return &models.ChatResponse{
        Reply:  s.translator.ToUser(ctx, reply, lang),
        Intent: intent,
        Data:   data,
    }
}

// detectIntent asks the model for a label and validates it against the fixed
// vocabulary. The label is unverified free text, so anything unrecognized
// falls back to deterministic keyword matching and never propagates.
func (s *ChatbotService) detectIntent(ctx context.Context, message string) models.Intent {
    label := s.generator.Generate(ctx, fmt.Sprintf(classifyPrompt, message))
    label = strings.Trim(strings.ToLower(strings.TrimSpace(label)), `"'.`)

    if intent, ok := models.ParseIntent(label); ok {
        return intent
    }

    fallback := s.classifier.Classify(message)
    s.logger.Debug("model label unrecognized, using keyword fallback",
        zap.String("label", label),
        zap.String("fallback", string(fallback)))
    return fallback
}

func (s *ChatbotService) handleSymptomCheck(ctx context.Context, message string) string {
    reply := s.generator.Generate(ctx, fmt.Sprintf(symptomPrompt, message))
    s.healthLog.Record("Symptom Check", message)
    return reply
}

func (s *ChatbotService) handleMedicineSuggest(ctx context.Context, message string) string {
    reply := s.generator.Generate(ctx, fmt.Sprintf(medicinePrompt, message))
    s.healthLog.Record("Medicine Suggest", message)
    return reply
}

func (s *ChatbotService) handleAppointment(ctx context.Context, message string) (string, map[string]interface{}) {
    start, ok := s.parseDateTime(message)
    if !ok {
        return appointmentFormatReply, nil
    }
    end := start.Add(30 * time.Minute)

    doctor := extractDoctor(message)
    summary := "Doctor Appointment"
    if doctor != "" {
        summary = fmt.Sprintf("Appointment with Dr. %s", doctor)
    }

    conf, err := s.calendar.CreateEvent(ctx, EventRequest{
        Summary:     summary,
        Description: message,
        Start:       start,
        End:         end,
        WithMeet:    wantsConferencing(message),
    })

    s.healthLog.Record("Appointment", message)

    if err != nil {
        s.logger.Error("appointment booking failed", zap.Error(err))
        return fmt.Sprintf("Sorry, I couldn't book the appointment: %v", err), nil
    }

    reply := fmt.Sprintf("✅ %s booked for %s.\nView it in your calendar: %s",
        summary, start.Format("Monday, Jan 2 at 3:04 PM"), conf.HTMLLink)
    data := map[string]interface{}{
        "calendar_link": conf.HTMLLink,
    }
    if conf.MeetLink != "" {
        reply += fmt.Sprintf("\nJoin online: %s", conf.MeetLink)
        data["meet_link"] = conf.MeetLink
    }
    return reply, data
}

// wantsConferencing reports whether the user asked for a remote consultation.
func wantsConferencing(message string) bool {
    lower := strings.ToLower(message)
    for _, word := range []string{"online", "video", "virtual", "remote", "telehealth"} {
        if strings.Contains(lower, word) {
            return true
        }
    }
    return false
}

func (s *ChatbotService) handleReminder(ctx context.Context, message string) (string, map[string]interface{}) {
    // Reminders take a fixed evening slot rather than parsed input.
    now := s.now().In(s.location)
    start := time.Date(now.Year(), now.Month(), now.Day(), 20, 0, 0, 0, s.location)
    end := start.Add(15 * time.Minute)

    conf, err := s.calendar.CreateEvent(ctx, EventRequest{
        Summary:     "Health Reminder",
        Description: message,
        Start:       start,
        End:         end,
        WithMeet:    false,
    })

    s.healthLog.Record("Reminder", message)

    if err != nil {
        s.logger.Error("reminder booking failed", zap.Error(err))
        return fmt.Sprintf("Sorry, I couldn't set the reminder: %v", err), nil
    }

    reply := fmt.Sprintf("⏰ Health reminder set for %s.\nView it in your calendar: %s",
        start.Format("3:04 PM today"), conf.HTMLLink)
    return reply, map[string]interface{}{
        "calendar_link": conf.HTMLLink,
    }
}

func (s *ChatbotService) handleOrderMedicine(ctx context.Context, message string) (string, map[string]interface{}) {
    if s.pharmacy == nil {
        return noPharmaciesReply, nil
    }

    pharmacies, err := s.pharmacy.FindNearby(ctx, medicineKeyword(message))
    if err != nil {
        s.logger.Error("pharmacy search failed", zap.Error(err))
        return noPharmaciesReply, nil
    }
    if len(pharmacies) == 0 {
        return noPharmaciesReply, nil
    }

    if len(pharmacies) > 5 {
        pharmacies = pharmacies[:5]
    }

    var sb strings.Builder
    sb.WriteString("Here are pharmacies near you:\n")
    for i, p := range pharmacies {
        sb.WriteString(fmt.Sprintf("%d. %s — %s\n   Map: %s\n", i+1, p.Name, p.Address, p.MapsLink))
    }

    return strings.TrimRight(sb.String(), "\n"), map[string]interface{}{
        "pharmacies": pharmacies,
    }
}

// parseDateTime extracts a date/time expression from the message, preferring
// future-dated interpretations.
func (s *ChatbotService) parseDateTime(message string) (time.Time, bool) {
    base := s.now().In(s.location)

    result, err := s.dateParser.Parse(message, base)
    if err != nil || result == nil {
        return time.Time{}, false
    }

    start := result.Time
    if start.Before(base) {
        start = start.Add(24 * time.Hour)
    }
    if start.Before(base) {
        return time.Time{}, false
    }
    return start, true
}

func extractDoctor(message string) string {
    m := doctorPattern.FindStringSubmatch(message)
    if m == nil {
        return ""
    }
    name := strings.ToLower(m[1])
    return strings.ToUpper(name[:1]) + name[1:]
}

var orderFillerWords = map[string]bool{
    "order": true, "buy": true, "get": true, "find": true, "need": true,
    "want": true, "me": true, "some": true, "please": true, "from": true,
    "a": true, "an": true, "the": true, "i": true, "to": true, "for": true,
    "nearby": true, "near": true, "my": true, "location": true,
    "pharmacy": true, "pharmacies": true, "chemist": true, "drugstore": true,
    "medicine": true, "medicines": true,
}

// medicineKeyword strips ordering filler so the places search is scoped to
// the medicine the user actually asked for.
func medicineKeyword(message string) string {
    cleaned := strings.Map(func(r rune) rune {
        switch r {
        case '.', ',', '!', '?', ';', ':':
            return ' '
        }
        return r
    }, strings.ToLower(message))

    var kept []string
    for _, word := range strings.Fields(cleaned) {
        if !orderFillerWords[word] {
            kept = append(kept, word)
        }
    }
    return strings.Join(kept, " ")
}
