package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	NotificationExchange   = "notifications.exchange"
	NotificationRoutingKey = "notifications.user"
)

type amqpPublisher interface {
	PublishWithContext(
		ctx context.Context,
		exchange string,
		key string,
		mandatory bool,
		immediate bool,
		msg amqp.Publishing,
	) error
}

// AMQPForwarder republishes bus events to a RabbitMQ topic exchange so that
// delivery services outside this process can consume notifications.
type AMQPForwarder struct {
	conn    *amqp.Connection
	channel amqpPublisher
	mu      sync.Mutex
	log     logger.Logger
}

func NewAMQPForwarder(url string) (*AMQPForwarder, error) {
	log := logger.New("AMQPForwarder").Function("NewAMQPForwarder")

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, log.Err("failed to connect to rabbitmq", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, log.Err("failed to open rabbitmq channel", err)
	}

	err = channel.ExchangeDeclare(
		NotificationExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return nil, log.Err("failed to declare notification exchange", err)
	}

	log.Info("Notification forwarder connected", "exchange", NotificationExchange)
	return &AMQPForwarder{conn: conn, channel: channel, log: logger.New("AMQPForwarder")}, nil
}

// Forward is an EventHandler.
func (f *AMQPForwarder) Forward(event Event) error {
	log := f.log.Function("Forward")

	body, err := json.Marshal(event)
	if err != nil {
		return log.Err("failed to marshal event", err, "eventID", event.ID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f.mu.Lock()
	defer f.mu.Unlock()

	err = f.channel.PublishWithContext(
		ctx,
		NotificationExchange,
		NotificationRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return log.Err("failed to forward event", err, "eventID", event.ID)
	}

	return nil
}

func (f *AMQPForwarder) Close() error {
	if f.conn == nil {
		return nil
	}
	return f.conn.Close()
}
