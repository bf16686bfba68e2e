package alerting

import (
	"context"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/pkg/config"
)

// Publisher is the part of an AMQP channel the sink uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPSink publishes alerts to a topic exchange. The routing key is the
// configured prefix followed by the lower-cased alert level.
type AMQPSink struct {
	conn       *amqp.Connection
	channel    Publisher
	exchange   string
	routingKey string
}

func NewAMQPSink(cfg config.AMQPConfig) (*AMQPSink, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to amqp broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	logger.Infof("AMQP alert sink ready: exchange=%s", cfg.Exchange)

	sink := NewAMQPSinkWithPublisher(ch, cfg.Exchange, cfg.RoutingKey)
	sink.conn = conn
	return sink, nil
}

func NewAMQPSinkWithPublisher(p Publisher, exchange, routingKey string) *AMQPSink {
	return &AMQPSink{channel: p, exchange: exchange, routingKey: routingKey}
}

func (s *AMQPSink) key(a Alert) string {
	level := strings.ToLower(string(a.Level))
	if s.routingKey == "" {
		return level
	}
	return s.routingKey + "." + level
}

func (s *AMQPSink) Send(ctx context.Context, a Alert) error {
	body, err := a.encode()
	if err != nil {
		return err
	}

	err = s.channel.PublishWithContext(ctx, s.exchange, s.key(a), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		MessageId:    a.RunID + ":" + a.VIN,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

func (s *AMQPSink) Close() error {
	err := s.channel.Close()
	if s.conn != nil {
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

