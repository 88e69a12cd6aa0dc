package queue

import (
	"encoding/json"
	"fmt"
)

// BookingConfirmedLogLine decodes a BookingConfirmedEvent and renders it as
// a single human-friendly log line.
func BookingConfirmedLogLine(body []byte) (string, error) {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}
	return fmt.Sprintf("[%s] booking confirmed | booking_id=%s | hold_id=%s | departure_id=%s | code=%s | seats=%d | customer_ref=%s\n",
		ev.ConfirmedAt, ev.BookingID, ev.HoldID, ev.DepartureID, ev.Code, ev.Seats, ev.CustomerRef), nil
}

// WaitlistPromotedLogLine decodes a WaitlistPromotedEvent and renders it as
// a single human-friendly log line.
func WaitlistPromotedLogLine(body []byte) (string, error) {
	var ev WaitlistPromotedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}
	return fmt.Sprintf("[%s] waitlist entry promoted | waitlist_entry_id=%s | departure_id=%s | customer_ref=%s | hold_id=%s\n",
		ev.PromotedAt, ev.WaitlistEntryID, ev.DepartureID, ev.CustomerRef, ev.HoldID), nil
}
