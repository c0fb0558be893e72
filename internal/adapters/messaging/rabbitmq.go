package messaging

import (
	"fmt"
	"sync/atomic"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/config"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/ports"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/logging"
)

// RabbitMQBroker publishes care events to a durable queue on a channel in
// confirm mode.
type RabbitMQBroker struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	queueName string
	cb        *gobreaker.CircuitBreaker
	log       *logging.Logger
	closed    atomic.Bool
}

var _ ports.CareEventPublisher = (*RabbitMQBroker)(nil)

func NewRabbitMQBroker(amqpURL, queueName string, log *logging.Logger) (*RabbitMQBroker, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("messaging: dial: %w", err)
	}

	rmq := &RabbitMQBroker{
		conn:      conn,
		queueName: queueName,
		cb:        config.NewCircuitBreaker(config.BreakerRabbitMQ),
		log:       log,
	}
	if err := rmq.openChannel(); err != nil {
		conn.Close()
		return nil, err
	}

	go rmq.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))
	return rmq, nil
}

func (rmq *RabbitMQBroker) openChannel() error {
	ch, err := rmq.conn.Channel()
	if err != nil {
		return fmt.Errorf("messaging: open channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return fmt.Errorf("messaging: confirm mode: %w", err)
	}

	// Idempotent; the relay may start before any consumer declared it.
	if _, err := ch.QueueDeclare(
		rmq.queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		ch.Close()
		return fmt.Errorf("messaging: declare %s: %w", rmq.queueName, err)
	}

	rmq.ch = ch
	return nil
}

// watch flips Connected to false once the connection goes away.
func (rmq *RabbitMQBroker) watch(closed <-chan *amqp.Error) {
	if err, ok := <-closed; ok && err != nil {
		rmq.log.Error("messaging: connection lost", "code", err.Code, "reason", err.Reason)
	}
	rmq.closed.Store(true)
}

// Connected reports whether the AMQP connection is still open.
func (rmq *RabbitMQBroker) Connected() bool {
	return !rmq.closed.Load()
}

func (rmq *RabbitMQBroker) Close() error {
	rmq.closed.Store(true)
	if rmq.ch != nil {
		if err := rmq.ch.Close(); err != nil {
			return err
		}
	}
	if rmq.conn != nil {
		return rmq.conn.Close()
	}
	return nil
}
