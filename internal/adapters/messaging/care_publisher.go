package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/ports"
)

var ErrNotConfirmed = errors.New("messaging: broker did not confirm the message")

// PublishCareEvent sends evt as a persistent JSON message and waits for the
// broker's confirmation, so the caller only marks it sent once it is stored.
func (rmq *RabbitMQBroker) PublishCareEvent(ctx context.Context, evt ports.CareEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	// Respect context deadline
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) <= 0 {
			return ctx.Err()
		}
	}

	_, err = rmq.cb.Execute(func() (interface{}, error) {
		confirmation, err := rmq.ch.PublishWithDeferredConfirmWithContext(
			ctx,
			"",            // exchange (default)
			rmq.queueName, // routing key == queue name
			false,         // mandatory
			false,         // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    evt.ID,
				Type:         evt.Collection + "." + evt.Kind,
				Timestamp:    evt.OccurredAt,
				Body:         body,
			},
		)
		if err != nil {
			return nil, err
		}

		acked, err := confirmation.WaitContext(ctx)
		if err != nil {
			return nil, err
		}
		if !acked {
			return nil, ErrNotConfirmed
		}
		return nil, nil
	})
	return err
}
