package rabbitmq

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// RabbitMQServiceImpl publishes order lifecycle events to a durable topic exchange.
type RabbitMQServiceImpl struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	mu       sync.Mutex
}

// NewRabbitMQService dials the broker and declares the exchange plus one durable queue per
// routing key, each bound under its own name.
func NewRabbitMQService(host, exchange string, routingKeys []string) (*RabbitMQServiceImpl, error) {
	conn, err := amqp.Dial(host)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if err := declareTopology(ch, exchange, routingKeys); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQServiceImpl{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
	}, nil
}

func declareTopology(ch *amqp.Channel, exchange string, routingKeys []string) error {
	err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare an exchange: %w", err)
	}

	for _, key := range routingKeys {
		if _, err := ch.QueueDeclare(key, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare event queue %s: %w", key, err)
		}
		if err := ch.QueueBind(key, key, exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind event queue %s: %w", key, err)
		}
	}
	return nil
}

// Publish sends a persistent JSON message to the exchange under the given routing key.
// amqp channels are not safe for concurrent publishing, so calls are serialised.
func (s *RabbitMQServiceImpl) Publish(topic string, body []byte) error {
	if topic == "" {
		return errors.New("topic cannot be empty")
	}
	if body == nil {
		return errors.New("message body cannot be nil")
	}
	if s.conn == nil || s.conn.IsClosed() {
		return errors.New("connection to RabbitMQ is closed")
	}
	if s.channel == nil {
		return errors.New("channel is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.channel.Publish(
		s.exchange,
		topic,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message to topic '%s': %w", topic, err)
	}
	return nil
}

func (s *RabbitMQServiceImpl) IsHealthy() bool {
	return s.conn != nil && !s.conn.IsClosed() && s.channel != nil
}

func (s *RabbitMQServiceImpl) Close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
