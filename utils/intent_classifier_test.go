package utils

import (
    "testing"

    "github.com/stretchr/testify/assert"

    "health-copilot-backend/models"
)

func TestClassifyKeywordFallback(t *testing.T) {
    classifier := NewIntentClassifier()

    tests := []struct {
        name     string
        message  string
        expected models.Intent
    }{
        {
            name:     "symptoms select symptom_check",
            message:  "I have a headache and fever",
            expected: models.IntentSymptomCheck,
        },
        {
            name:     "pharmacy wording selects order_medicine",
            message:  "order paracetamol from a nearby pharmacy",
            expected: models.IntentOrderMedicine,
        },
        {
            name:     "booking wording selects appointment",
            message:  "book a consultation with my doctor",
            expected: models.IntentAppointment,
        },
        {
            name:     "dosage question selects medicine_suggest",
            message:  "what dosage of this tablet should I take",
            expected: models.IntentMedicineSuggest,
        },
        {
            name:     "reminder wording selects reminder",
            message:  "remind me about my evening walk",
            expected: models.IntentReminder,
        },
        {
            name:     "history wording selects log",
            message:  "show my health records",
            expected: models.IntentLog,
        },
        {
            name:     "help wording selects help",
            message:  "help, what are your features",
            expected: models.IntentHelp,
        },
        {
            name:     "no keyword defaults to chit_chat",
            message:  "tell me something interesting",
            expected: models.IntentChitChat,
        },
        {
            name:     "empty message defaults to chit_chat",
            message:  "",
            expected: models.IntentChitChat,
        },
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            assert.Equal(t, tt.expected, classifier.Classify(tt.message))
        })
    }
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
    classifier := NewIntentClassifier()
    assert.Equal(t, models.IntentSymptomCheck, classifier.Classify("I HAVE A FEVER"))
}

func TestClassifyIsDeterministic(t *testing.T) {
    classifier := NewIntentClassifier()

    // Same message, same intent, every time: the fallback must never leave
    // the pipeline without a stable intent.
    first := classifier.Classify("I caught a cold and need some medicine")
    for i := 0; i < 50; i++ {
        assert.Equal(t, first, classifier.Classify("I caught a cold and need some medicine"))
    }
}
