// Package queue also contains the background consumer that listens to a
// broker queue and writes structured log lines for each event it receives.
// It takes any queue name and decoding function so the same reconnect loop
// backs both booking.confirmed and waitlist.promoted.
package queue

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartConsumer connects to RabbitMQ, declares queueName (durable), and
// consumes messages, handing each delivery's body to logLine. It runs a
// reconnect loop with exponential backoff capped at 30s, and only returns
// if ctx signals via done being closed.
func StartConsumer(url, queueName string, done <-chan struct{}, logLine func([]byte) (string, error)) {
	backoff := time.Second
	for {
		select {
		case <-done:
			return
		default:
		}

		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("consumer[%s]: failed to dial broker: %v; retrying in %s", queueName, err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn, queueName, logLine, done); err != nil {
			log.Printf("consumer[%s]: consume loop ended: %v; reconnecting", queueName, err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, queueName string, logLine func([]byte) (string, error), done <-chan struct{}) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("consumer[%s]: set QoS failed: %v", queueName, err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-done:
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := appendLog(queueName, d.Body, logLine); err != nil {
				log.Printf("consumer[%s]: handle message failed: %v", queueName, err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func appendLog(queueName string, body []byte, logLine func([]byte) (string, error)) error {
	line, err := logLine(body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", queueName+".log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
