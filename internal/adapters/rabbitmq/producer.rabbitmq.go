// Package rabbitmq provides the producer that fans journal link messages
// out to downstream consumers.
package rabbitmq

import (
	"context"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	libRabbitmq "github.com/LerianStudio/lib-commons/v2/commons/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// ProducerRepository provides an interface for producer operations related to rabbitmq.
type ProducerRepository interface {
	ProducerDefault(ctx context.Context, exchange, key string, message mmodel.JournalLinkMessage) error
	CheckRabbitMQHealth() bool
}

// ProducerRabbitMQRepository is a rabbitmq implementation of ProducerRepository.
type ProducerRabbitMQRepository struct {
	conn *libRabbitmq.RabbitMQConnection
}

// NewProducerRabbitMQ returns a new instance of ProducerRabbitMQRepository using the given rabbitmq connection.
func NewProducerRabbitMQ(c *libRabbitmq.RabbitMQConnection) *ProducerRabbitMQRepository {
	prmq := &ProducerRabbitMQRepository{
		conn: c,
	}

	if _, err := c.GetNewConnect(); err != nil {
		panic("Failed to connect rabbitmq")
	}

	return prmq
}

// CheckRabbitMQHealth checks rabbitmq health, reconnecting when the channel went away.
func (prmq *ProducerRabbitMQRepository) CheckRabbitMQHealth() bool {
	if _, err := prmq.conn.GetNewConnect(); err != nil {
		return false
	}

	return true
}

// ProducerDefault publishes a journal link message on an exchange. Bodies are
// msgpack so consumers decode them without caring about field ordering.
func (prmq *ProducerRabbitMQRepository) ProducerDefault(ctx context.Context, exchange, key string, message mmodel.JournalLinkMessage) error {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "rabbitmq.producer.publish_message")
	defer span.End()

	body, err := msgpack.Marshal(message)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to marshal journal link message", err)

		return err
	}

	newConn, err := prmq.conn.GetNewConnect()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to get rabbitmq connection", err)

		return err
	}

	err = newConn.PublishWithContext(
		ctx,
		exchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/msgpack",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to publish message", err)

		logger.Errorf("Failed to publish message: %s", err.Error())

		return err
	}

	logger.Infof("Journal link message sent to exchange %s with key %s", exchange, key)

	return nil
}
