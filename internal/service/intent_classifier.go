package service

import (
	"regexp"
	"strings"
)

// Intent is the classified purpose of a free-text chat message
type Intent string

const (
	IntentBookAppointment   Intent = "book_appointment"
	IntentCheckAvailability Intent = "check_availability"
	IntentCancelAppointment Intent = "cancel_appointment"
	IntentReschedule        Intent = "reschedule_appointment"
	IntentGreeting          Intent = "greeting"
	IntentUnknown           Intent = "unknown"
)

// intentRules are evaluated in order; the first match wins. Cancellation and
// rescheduling are checked before booking because "cancel my booking" should
// not classify as a booking request.
var intentRules = []struct {
	intent  Intent
	pattern *regexp.Regexp
}{
	{IntentCancelAppointment, regexp.MustCompile(`\b(cancel|call off|drop)\b.*\b(appointment|booking|visit)\b|\b(appointment|booking)\b.*\bcancel`)},
	{IntentReschedule, regexp.MustCompile(`\b(reschedul\w*|move|change|postpone)\b.*\b(appointment|booking|visit|time|date)\b`)},
	{IntentCheckAvailability, regexp.MustCompile(`\b(available|availability|free slots?|open slots?|opening)\b|\bwhen\b.*\b(doctor|dr)\b`)},
	{IntentBookAppointment, regexp.MustCompile(`\b(book|schedule|make|set up|arrange|need|want)\b.*\b(appointment|visit|consultation|checkup|check-up)\b|\bsee\b.*\b(doctor|dr)\b`)},
	{IntentGreeting, regexp.MustCompile(`^\s*(hi|hello|hey|good (morning|afternoon|evening))\b`)},
}

// ClassifyIntent matches a chat message against deterministic keyword rules.
// There is no learning component; unknown text stays unknown.
func ClassifyIntent(text string) Intent {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return IntentUnknown
	}

	for _, rule := range intentRules {
		if rule.pattern.MatchString(normalized) {
			return rule.intent
		}
	}
	return IntentUnknown
}

// ScriptedReply returns the canned assistant response for an intent
func ScriptedReply(intent Intent) string {
	switch intent {
	case IntentBookAppointment:
		return "I can help you book an appointment. Please pick a doctor and an available slot from the schedule."
	case IntentCheckAvailability:
		return "You can check a doctor's open slots on their profile page, or tell me a doctor and a date."
	case IntentCancelAppointment:
		return "To cancel, open your appointments list and choose the appointment you want to cancel."
	case IntentReschedule:
		return "To reschedule, open the appointment and pick a new available slot with the same doctor."
	case IntentGreeting:
		return "Hello! I can help you book, reschedule or cancel appointments, and check doctor availability."
	default:
		return "Sorry, I didn't understand that. I can help with booking, rescheduling, cancelling and availability."
	}
}
