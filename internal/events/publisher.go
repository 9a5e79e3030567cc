package events

import (
	"context"
	"datalingua/internal/logger"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Routing keys
const (
	ResponseSubmittedKey = "response.submitted"
	SessionAbandonedKey  = "session.abandoned"
)

// ResponseSubmitted is published after a response is stored
type ResponseSubmitted struct {
	SurveyID     string    `json:"surveyId"`
	ResponseID   string    `json:"responseId"`
	RespondentID string    `json:"respondentId"`
	AnswerCount  int       `json:"answerCount"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// SessionAbandoned is published when a respondent leaves mid-survey
type SessionAbandoned struct {
	SurveyID      string    `json:"surveyId"`
	RespondentID  string    `json:"respondentId"`
	QuestionID    string    `json:"questionId"`
	QuestionIndex int       `json:"questionIndex"`
	At            time.Time `json:"at"`
}

// Publisher defines the interface for event publishing
type Publisher interface {
	PublishResponseSubmitted(ctx context.Context, ev ResponseSubmitted) error
	PublishSessionAbandoned(ctx context.Context, ev SessionAbandoned) error
	Close() error
}

// EventPublisher implements Publisher on a RabbitMQ topic exchange
type EventPublisher struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	enabled      bool
}

// NewEventPublisher connects to RabbitMQ. An empty URL yields a disabled
// publisher that drops every event.
func NewEventPublisher(url, exchange string) (*EventPublisher, error) {
	if url == "" {
		logger.Warn("AMQP URL is empty, event publishing is disabled")
		return &EventPublisher{enabled: false}, nil
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &EventPublisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchange,
		enabled:      true,
	}, nil
}

func (p *EventPublisher) Enabled() bool { return p.enabled }

func (p *EventPublisher) PublishResponseSubmitted(ctx context.Context, ev ResponseSubmitted) error {
	return p.publish(ctx, ResponseSubmittedKey, ev)
}

func (p *EventPublisher) PublishSessionAbandoned(ctx context.Context, ev SessionAbandoned) error {
	return p.publish(ctx, SessionAbandonedKey, ev)
}

func (p *EventPublisher) publish(ctx context.Context, routingKey string, event any) error {
	if !p.enabled {
		logger.Debugf("event publishing is disabled, skipping %s", routingKey)
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	logger.Debugf("published event %s", routingKey)
	return nil
}

func (p *EventPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
