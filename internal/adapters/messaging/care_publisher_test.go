package messaging

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/logging"
	"github.com/AchilleasB/care-portal/care-portal-service/test/mocks"
)

func TestPublishCareEvent_ExpiredContext(t *testing.T) {
	broker := &RabbitMQBroker{queueName: "care_events"}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	err := broker.PublishCareEvent(ctx, mocks.CreateTestEvent())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClose_NoConnection(t *testing.T) {
	broker := &RabbitMQBroker{}
	assert.True(t, broker.Connected())
	assert.NoError(t, broker.Close())
	assert.False(t, broker.Connected())
}

func TestWatch(t *testing.T) {
	t.Run("connection error", func(t *testing.T) {
		broker := &RabbitMQBroker{log: logging.Discard()}
		closed := make(chan *amqp.Error, 1)
		closed <- &amqp.Error{Code: amqp.ConnectionForced, Reason: "shutdown"}

		broker.watch(closed)
		assert.False(t, broker.Connected())
	})

	t.Run("graceful close", func(t *testing.T) {
		broker := &RabbitMQBroker{log: logging.Discard()}
		closed := make(chan *amqp.Error)
		close(closed)

		broker.watch(closed)
		assert.False(t, broker.Connected())
	})
}
