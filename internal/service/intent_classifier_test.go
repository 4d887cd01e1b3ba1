package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected Intent
	}{
		{"book with doctor name", "I want to book an appointment with Dr. Rahman", IntentBookAppointment},
		{"book via see doctor", "I need to see a doctor about my back pain", IntentBookAppointment},
		{"schedule checkup", "Can you schedule a checkup for next week?", IntentBookAppointment},
		{"availability direct", "What slots are available on Friday?", IntentCheckAvailability},
		{"availability via when", "When is Dr. Chen in the clinic?", IntentCheckAvailability},
		{"cancel", "Please cancel my appointment for tomorrow", IntentCancelAppointment},
		{"cancel beats book", "I'd like to cancel my booking", IntentCancelAppointment},
		{"reschedule", "Can I reschedule my appointment to Monday?", IntentReschedule},
		{"move to new time", "I need to move my visit to a later time", IntentReschedule},
		{"greeting", "Hello there", IntentGreeting},
		{"greeting good morning", "good morning!", IntentGreeting},
		{"unrelated", "What is the parking situation?", IntentUnknown},
		{"empty", "", IntentUnknown},
		{"whitespace only", "   ", IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyIntent(tt.message))
		})
	}
}

func TestScriptedReply(t *testing.T) {
	// Every intent gets a non-empty canned reply, including unknown.
	for _, intent := range []Intent{
		IntentBookAppointment,
		IntentCheckAvailability,
		IntentCancelAppointment,
		IntentReschedule,
		IntentGreeting,
		IntentUnknown,
	} {
		assert.NotEmpty(t, ScriptedReply(intent))
	}
}
