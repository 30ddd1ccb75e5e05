package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"health-copilot-backend/models"
)

// stubGenerator answers the classification prompt with a fixed label and
// every other prompt with a fixed reply.
type stubGenerator struct {
	label string
	reply string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) string {
	if strings.HasPrefix(prompt, "Classify the user's intent") {
		return g.label
	}
	return g.reply
}

type passthroughTranslator struct{}

func (passthroughTranslator) ToWorking(_ context.Context, text string) (string, string) {
	return text, WorkingLanguage
}

func (passthroughTranslator) ToUser(_ context.Context, text, _ string) string {
	return text
}

// recordingTranslator simulates a non-working source language and tags
// localized output so tests can see the re-localization step ran.
type recordingTranslator struct {
	sourceLang string
	toUserLang string
}

func (tr *recordingTranslator) ToWorking(_ context.Context, text string) (string, string) {
	return text, tr.sourceLang
}

func (tr *recordingTranslator) ToUser(_ context.Context, text, lang string) string {
	tr.toUserLang = lang
	return "[localized] " + text
}

type mockCalendar struct {
	requests []EventRequest
	err      error
}

func (m *mockCalendar) EnsureAuthorized(context.Context) error { return nil }

func (m *mockCalendar) CreateEvent(_ context.Context, req EventRequest) (*EventConfirmation, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &EventConfirmation{HTMLLink: "https://calendar.example/event/42"}, nil
}

type mockLocator struct {
	pharmacies []models.Pharmacy
	err        error
}

func (m *mockLocator) FindNearby(context.Context, string) ([]models.Pharmacy, error) {
	return m.pharmacies, m.err
}

// Wednesday morning.
var testNow = time.Date(2026, time.August, 26, 9, 0, 0, 0, time.UTC)

func newTestChatbot(gen Generator, tr Translator, cal CalendarGateway, loc PharmacyLocator) *ChatbotService {
	svc := NewChatbotService(gen, tr, cal, loc, NewHealthLogService(), time.UTC, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestInvalidLabelFallsBackToSymptomCheck(t *testing.T) {
	gen := &stubGenerator{label: "definitely-not-an-intent", reply: "Rest and hydrate."}
	svc := newTestChatbot(gen, passthroughTranslator{}, &mockCalendar{}, nil)

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{Message: "I have a headache and fever"})

	assert.Equal(t, models.IntentSymptomCheck, resp.Intent)
	assert.Equal(t, "Rest and hydrate.", resp.Reply)

	entries := svc.healthLog.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Symptom Check", entries[0].Action)
}

func TestValidLabelSkipsKeywordFallback(t *testing.T) {
	// The message keywords say symptom_check, but a valid model label wins.
	gen := &stubGenerator{label: "chit_chat", reply: "Hope your day gets better!"}
	svc := newTestChatbot(gen, passthroughTranslator{}, &mockCalendar{}, nil)

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{Message: "I have a headache and fever"})

	assert.Equal(t, models.IntentChitChat, resp.Intent)
	assert.Empty(t, svc.healthLog.Entries())
}

func TestLabelWhitespaceAndCaseNormalized(t *testing.T) {
	gen := &stubGenerator{label: "  Medicine_Suggest \n", reply: "Try an OTC antihistamine."}
	svc := newTestChatbot(gen, passthroughTranslator{}, &mockCalendar{}, nil)

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{Message: "what should I take for allergies"})
	assert.Equal(t, models.IntentMedicineSuggest, resp.Intent)
}

func TestAppointmentParsesFutureDateTime(t *testing.T) {
	gen := &stubGenerator{label: "appointment"}
	cal := &mockCalendar{}
	svc := newTestChatbot(gen, passthroughTranslator{}, cal, nil)

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{
		Message: "Book a physician appointment next Monday at 4:30 PM",
	})

	require.Len(t, cal.requests, 1)
	booked := cal.requests[0]

	assert.Equal(t, time.Monday, booked.Start.Weekday())
	assert.Equal(t, 16, booked.Start.Hour())
	assert.Equal(t, 30, booked.Start.Minute())
	assert.True(t, booked.Start.After(testNow), "appointment must be future-dated")
	assert.Equal(t, booked.Start.Add(30*time.Minute), booked.End)

	assert.Equal(t, models.IntentAppointment, resp.Intent)
	assert.Contains(t, resp.Reply, "https://calendar.example/event/42")
	assert.Equal(t, "https://calendar.example/event/42", resp.Data["calendar_link"])

	entries := svc.healthLog.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Appointment", entries[0].Action)
}

func TestAppointmentExtractsDoctorName(t *testing.T) {
	gen := &stubGenerator{label: "appointment"}
	cal := &mockCalendar{}
	svc := newTestChatbot(gen, passthroughTranslator{}, cal, nil)

	svc.ProcessMessage(context.Background(), models.ChatRequest{
		Message: "Book an appointment with Dr. mehta tomorrow at 10am",
	})

	require.Len(t, cal.requests, 1)
	assert.Equal(t, "Appointment with Dr. Mehta", cal.requests[0].Summary)
	assert.Equal(t, 10, cal.requests[0].Start.Hour())
	assert.Equal(t, 27, cal.requests[0].Start.Day())
}

func TestAppointmentDefaultsSummaryWithoutDoctor(t *testing.T) {
	gen := &stubGenerator{label: "appointment"}
	cal := &mockCalendar{}
	svc := newTestChatbot(gen, passthroughTranslator{}, cal, nil)

	svc.ProcessMessage(context.Background(), models.ChatRequest{
		Message: "Book a checkup tomorrow at 10am",
	})

	require.Len(t, cal.requests, 1)
	assert.Equal(t, "Doctor Appointment", cal.requests[0].Summary)
}

func TestAppointmentWithoutDateTimeAsksForFormat(t *testing.T) {
	gen := &stubGenerator{label: "appointment"}
	cal := &mockCalendar{}
	svc := newTestChatbot(gen, passthroughTranslator{}, cal, nil)

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{
		Message: "Book an appointment with Dr. Mehta",
	})

	assert.Empty(t, cal.requests, "nothing must be booked without a parseable date")
	assert.Equal(t, appointmentFormatReply, resp.Reply)
	assert.Equal(t, models.IntentAppointment, resp.Intent)
	assert.Empty(t, svc.healthLog.Entries())
}

func TestAppointmentRequestsMeetForOnlineConsultation(t *testing.T) {
	gen := &stubGenerator{label: "appointment"}
	cal := &mockCalendar{}
	svc := newTestChatbot(gen, passthroughTranslator{}, cal, nil)

	svc.ProcessMessage(context.Background(), models.ChatRequest{
		Message: "Book an online consultation with Dr. Mehta tomorrow at 10am",
	})

	require.Len(t, cal.requests, 1)
	assert.True(t, cal.requests[0].WithMeet)
}

func TestAppointmentInPersonSkipsMeet(t *testing.T) {
	gen := &stubGenerator{label: "appointment"}
	cal := &mockCalendar{}
	svc := newTestChatbot(gen, passthroughTranslator{}, cal, nil)

	svc.ProcessMessage(context.Background(), models.ChatRequest{
		Message: "Book a checkup tomorrow at 10am",
	})

	require.Len(t, cal.requests, 1)
	assert.False(t, cal.requests[0].WithMeet)
}

func TestAppointmentGatewayFailureEmbedsReason(t *testing.T) {
	gen := &stubGenerator{label: "appointment"}
	cal := &mockCalendar{err: errors.New("calendar provider unavailable")}
	svc := newTestChatbot(gen, passthroughTranslator{}, cal, nil)

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{
		Message: "Book a checkup tomorrow at 10am",
	})

	assert.Equal(t, models.IntentAppointment, resp.Intent)
	assert.Contains(t, resp.Reply, "calendar provider unavailable")
}

func TestReminderUsesFixedEveningSlot(t *testing.T) {
	gen := &stubGenerator{label: "reminder"}
	cal := &mockCalendar{}
	svc := newTestChatbot(gen, passthroughTranslator{}, cal, nil)

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{
		Message: "Remind me to take my medicine",
	})

	require.Len(t, cal.requests, 1)
	booked := cal.requests[0]

	assert.Equal(t, "Health Reminder", booked.Summary)
	assert.Equal(t, 20, booked.Start.Hour())
	assert.Equal(t, 0, booked.Start.Minute())
	assert.Equal(t, testNow.Day(), booked.Start.Day())
	assert.Equal(t, booked.Start.Add(15*time.Minute), booked.End)

	assert.Equal(t, models.IntentReminder, resp.Intent)
	assert.Contains(t, resp.Reply, "https://calendar.example/event/42")

	entries := svc.healthLog.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Reminder", entries[0].Action)
}

func TestEmptyLogReturnsSentinel(t *testing.T) {
	gen := &stubGenerator{label: "log"}
	svc := newTestChatbot(gen, passthroughTranslator{}, &mockCalendar{}, nil)

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{Message: "show my health log"})

	assert.Equal(t, NoRecordsReply, resp.Reply)
	assert.Equal(t, models.IntentLog, resp.Intent)
	assert.Empty(t, svc.healthLog.Entries())
}

func TestLogIntentIsReadOnly(t *testing.T) {
	gen := &stubGenerator{label: "log"}
	svc := newTestChatbot(gen, passthroughTranslator{}, &mockCalendar{}, nil)

	svc.healthLog.Record("Symptom Check", "I have a cough")
	svc.healthLog.Record("Medicine Suggest", "medicine for cough")

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{Message: "show my health log"})

	lines := strings.Split(resp.Reply, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[Symptom Check]")
	assert.Contains(t, lines[1], "[Medicine Suggest]")
	assert.Len(t, svc.healthLog.Entries(), 2)
}

func TestOrderMedicineListsAtMostFive(t *testing.T) {
	pharmacies := make([]models.Pharmacy, 0, 7)
	for i := 0; i < 7; i++ {
		pharmacies = append(pharmacies, models.Pharmacy{
			Name:     "Pharmacy " + string(rune('A'+i)),
			Address:  "Street " + string(rune('A'+i)),
			MapsLink: "https://maps.example/" + string(rune('a'+i)),
		})
	}

	gen := &stubGenerator{label: "order_medicine"}
	svc := newTestChatbot(gen, passthroughTranslator{}, &mockCalendar{}, &mockLocator{pharmacies: pharmacies})

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{
		Message: "Order paracetamol from a nearby pharmacy",
	})

	assert.Equal(t, models.IntentOrderMedicine, resp.Intent)
	assert.Equal(t, 5, strings.Count(resp.Reply, "Map: "))
	assert.Contains(t, resp.Reply, "Pharmacy A")
	assert.NotContains(t, resp.Reply, "Pharmacy F")

	listed, ok := resp.Data["pharmacies"].([]models.Pharmacy)
	require.True(t, ok)
	assert.Len(t, listed, 5)
}

func TestOrderMedicineSearchFailureIsFriendly(t *testing.T) {
	gen := &stubGenerator{label: "order_medicine"}
	svc := newTestChatbot(gen, passthroughTranslator{}, &mockCalendar{}, &mockLocator{err: errors.New("quota exceeded")})

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{Message: "order medicine nearby"})
	assert.Equal(t, noPharmaciesReply, resp.Reply)
}

func TestOrderMedicineNoResults(t *testing.T) {
	gen := &stubGenerator{label: "order_medicine"}
	svc := newTestChatbot(gen, passthroughTranslator{}, &mockCalendar{}, &mockLocator{})

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{Message: "order medicine nearby"})
	assert.Equal(t, noPharmaciesReply, resp.Reply)
}

func TestOrderMedicineWithoutLocator(t *testing.T) {
	gen := &stubGenerator{label: "order_medicine"}
	svc := newTestChatbot(gen, passthroughTranslator{}, &mockCalendar{}, nil)

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{Message: "order medicine nearby"})
	assert.Equal(t, noPharmaciesReply, resp.Reply)
}

func TestHelpListsFeatures(t *testing.T) {
	gen := &stubGenerator{label: "help"}
	svc := newTestChatbot(gen, passthroughTranslator{}, &mockCalendar{}, nil)

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{Message: "what can you do?"})

	assert.Equal(t, models.IntentHelp, resp.Intent)
	assert.Contains(t, resp.Reply, "Symptom check")
	assert.Contains(t, resp.Reply, "health log")
	assert.Empty(t, svc.healthLog.Entries())
}

func TestUnknownAsksForClarification(t *testing.T) {
	gen := &stubGenerator{label: "unknown"}
	svc := newTestChatbot(gen, passthroughTranslator{}, &mockCalendar{}, nil)

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{Message: "xyzzy"})

	assert.Equal(t, models.IntentUnknown, resp.Intent)
	assert.Equal(t, unknownReply, resp.Reply)
}

func TestReplyIsLocalizedToSourceLanguage(t *testing.T) {
	gen := &stubGenerator{label: "chit_chat", reply: "Doing great, thanks!"}
	tr := &recordingTranslator{sourceLang: "hi"}
	svc := newTestChatbot(gen, tr, &mockCalendar{}, nil)

	resp := svc.ProcessMessage(context.Background(), models.ChatRequest{Message: "आप कैसे हैं?"})

	assert.Equal(t, "hi", tr.toUserLang)
	assert.Equal(t, "[localized] Doing great, thanks!", resp.Reply)
	assert.Equal(t, models.IntentChitChat, resp.Intent)
}

func TestMedicineKeywordStripsFiller(t *testing.T) {
	assert.Equal(t, "paracetamol", medicineKeyword("Order paracetamol from a nearby pharmacy"))
	assert.Equal(t, "ibuprofen", medicineKeyword("I want to buy some ibuprofen, please!"))
	assert.Equal(t, "", medicineKeyword("order medicine from a pharmacy"))
}

func TestExtractDoctor(t *testing.T) {
	assert.Equal(t, "Mehta", extractDoctor("book with Dr. Mehta tomorrow"))
	assert.Equal(t, "Rao", extractDoctor("see dr rao next week"))
	assert.Equal(t, "", extractDoctor("book a checkup tomorrow"))
}
