// Package service provides publishers for domain events raised by booking
// confirmation and waitlist promotion. Each publish is a per-call
// dial/declare/publish/close against RabbitMQ, wrapped in a reusable
// EventPublisher bound to a broker URL instead of reading the URL from the
// environment on every call.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/google/uuid"

	"github.com/opsicle/seatkeep/internal/clock"
	"github.com/opsicle/seatkeep/internal/queue"
)

const (
	bookingConfirmedQueue  = "booking.confirmed"
	waitlistPromotedQueue  = "waitlist.promoted"
)

// EventPublisher publishes domain events to RabbitMQ.
type EventPublisher struct {
	URL   string
	Clock clock.Clock
}

// NewEventPublisher returns a publisher bound to the given broker URL.
func NewEventPublisher(url string, c clock.Clock) *EventPublisher {
	return &EventPublisher{URL: url, Clock: c}
}

// PublishBookingConfirmed publishes a BookingConfirmedEvent to the
// booking.confirmed queue.
func (p *EventPublisher) PublishBookingConfirmed(bookingID, holdID, departureID uuid.UUID, code string, seats int32, customerRef string) error {
	ev := queue.BookingConfirmedEvent{
		BookingID:   bookingID,
		HoldID:      holdID,
		DepartureID: departureID,
		Code:        code,
		Seats:       seats,
		CustomerRef: customerRef,
		ConfirmedAt: p.Clock.Now().Format(time.RFC3339),
	}
	return p.publish(bookingConfirmedQueue, ev)
}

// PublishWaitlistPromoted publishes a WaitlistPromotedEvent to the
// waitlist.promoted queue.
func (p *EventPublisher) PublishWaitlistPromoted(entryID, departureID uuid.UUID, customerRef string, holdID uuid.UUID) error {
	ev := queue.WaitlistPromotedEvent{
		WaitlistEntryID: entryID,
		DepartureID:     departureID,
		CustomerRef:     customerRef,
		HoldID:          holdID,
		PromotedAt:      p.Clock.Now().Format(time.RFC3339),
	}
	return p.publish(waitlistPromotedQueue, ev)
}

// publish dials the broker, declares the durable queue, and publishes a
// persistent message. Errors are logged and returned so callers can choose
// to ignore them without interrupting the main request flow, matching the
// teacher's PublishBookingConfirmed.
func (p *EventPublisher) publish(queueName string, event any) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
