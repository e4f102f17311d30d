package event

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"garage/internal/garage/domain"
)

// ConsumerGroupID groupe de consommation du service garage
const ConsumerGroupID = "garage-service-group"

// MessageReader est le contrat minimal attendu du transport entrant,
// satisfait par kafka.Reader
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// VehiculeEventHandler traite un événement de création de véhicule.
// Les handlers doivent être idempotents: la livraison est at-least-once
// et un même événement peut être relivré après un crash ou un échec.
type VehiculeEventHandler interface {
	Handle(ctx context.Context, e domain.VehiculeCreatedEvent) error
}

// VehiculeCreatedConsumer consomme le topic vehicule.created avec
// acquittement manuel: un message n'est commité qu'après le succès
// complet du handler. En cas d'échec l'offset n'avance pas et le
// message sera relivré.
type VehiculeCreatedConsumer struct {
	reader  MessageReader
	handler VehiculeEventHandler
	logger  *zap.Logger
}

// NewVehiculeCreatedConsumer crée une nouvelle instance du consumer
func NewVehiculeCreatedConsumer(reader MessageReader, handler VehiculeEventHandler, logger *zap.Logger) *VehiculeCreatedConsumer {
	return &VehiculeCreatedConsumer{
		reader:  reader,
		handler: handler,
		logger:  logger,
	}
}

// Run consomme les messages jusqu'à l'annulation du contexte
func (c *VehiculeCreatedConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		var e domain.VehiculeCreatedEvent
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			// Message illisible: on l'acquitte quand même, le
			// relivrer ne le rendra pas lisible.
			c.logger.Error("undecodable vehicule event, skipping",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			c.commit(ctx, msg)
			continue
		}

		c.logger.Info("vehicule event received",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.String("vehicule_id", e.VehiculeID.String()),
			zap.String("garage_id", e.GarageID.String()))

		if err := c.handler.Handle(ctx, e); err != nil {
			// Pas d'acquittement: le message reste éligible à la
			// relivraison.
			c.logger.Error("vehicule event processing failed, message not acknowledged",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}

		c.commit(ctx, msg)
	}
}

func (c *VehiculeCreatedConsumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("offset commit failed",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
	}
}

// NewVehiculeReader construit le reader Kafka du topic vehicule.created.
// Le GroupID donne à chaque partition un seul consommateur du groupe:
// l'ordre par clé est préservé jusqu'au handler.
func NewVehiculeReader(broker string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   VehiculeCreatedTopic,
		GroupID: ConsumerGroupID,
	})
}
