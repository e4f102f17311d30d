package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"garage/internal/garage/domain"
	sharedinfra "garage/internal/shared/infrastructure"
)

// VehiculeCreatedTopic topic Kafka des événements de création de véhicule
const VehiculeCreatedTopic = "vehicule.created"

// États du cycle de publication d'un enregistrement, journalisés à
// chaque transition: pending → committed → publishing → delivered,
// ou publish_failed → retrying → delivered.
const (
	statePublishing    = "publishing"
	stateDelivered     = "delivered"
	statePublishFailed = "publish_failed"
	stateRetrying      = "retrying"
)

// publishAttempts tentatives de remise côté application, en plus des
// retries internes du transport
const publishAttempts = 3

// publishTimeout délai maximal d'une tentative de remise
const publishTimeout = 10 * time.Second

// MessageWriter est le contrat minimal attendu du transport sortant,
// satisfait par kafka.Writer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaDomainEventPublisher publie les événements domaine vers Kafka.
//
// La clé de partitionnement est l'ID du garage: les événements d'un même
// garage vont dans la même partition et sont livrés dans l'ordre de
// publication. La remise est asynchrone vis-à-vis de l'enregistrement:
// Publish met l'événement en file et rend la main, un échec définitif
// est journalisé comme alerte opérationnelle et ne remonte jamais.
//
// Le pool de dispatch n'a qu'un seul worker: la file est FIFO, donc
// l'ordre de soumission — celui des commits — est préservé par clé.
type KafkaDomainEventPublisher struct {
	writer MessageWriter
	pool   *sharedinfra.WorkerPool
	logger *zap.Logger
}

// NewKafkaDomainEventPublisher crée le publisher et démarre son worker
// de dispatch
func NewKafkaDomainEventPublisher(writer MessageWriter, logger *zap.Logger) *KafkaDomainEventPublisher {
	pool := sharedinfra.NewWorkerPool(1)
	pool.Start()
	return &KafkaDomainEventPublisher{
		writer: writer,
		pool:   pool,
		logger: logger,
	}
}

// Publish met l'événement en file de publication. L'erreur retournée ne
// concerne que la mise en file (publisher arrêté), jamais la remise.
func (p *KafkaDomainEventPublisher) Publish(ctx context.Context, e domain.VehiculeCreatedEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(e.PartitionKey()),
		Value: payload,
	}

	return p.pool.Submit(func() error {
		p.deliver(e, msg)
		return nil
	})
}

// deliver remet le message avec retries bornés, at-least-once
func (p *KafkaDomainEventPublisher) deliver(e domain.VehiculeCreatedEvent, msg kafka.Message) {
	fields := []zap.Field{
		zap.String("vehicule_id", e.VehiculeID.String()),
		zap.String("garage_id", e.GarageID.String()),
		zap.String("topic", VehiculeCreatedTopic),
	}

	var lastErr error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		p.logger.Info("publishing vehicule event",
			append(fields, zap.String("state", statePublishing), zap.Int("attempt", attempt))...)

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		lastErr = p.writer.WriteMessages(ctx, msg)
		cancel()

		if lastErr == nil {
			p.logger.Info("vehicule event delivered",
				append(fields, zap.String("state", stateDelivered))...)
			return
		}

		if attempt < publishAttempts {
			p.logger.Warn("vehicule event delivery failed, retrying",
				append(fields, zap.String("state", stateRetrying), zap.Error(lastErr))...)
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
	}

	// L'enregistrement est déjà commité: alerte opérationnelle,
	// jamais une erreur utilisateur.
	p.logger.Error("vehicule event publication abandoned",
		append(fields, zap.String("state", statePublishFailed),
			zap.Error(&domain.PublicationError{Cause: lastErr}))...)
}

// Close arrête le worker de dispatch après la fin des remises en cours
func (p *KafkaDomainEventPublisher) Close() {
	p.pool.Wait()
}

// NewVehiculeWriter construit le writer Kafka du topic vehicule.created.
// Le balancer par hash de clé garantit qu'une même clé va toujours dans
// la même partition; RequireAll et les retries du transport donnent la
// remise at-least-once sans duplication côté producteur.
func NewVehiculeWriter(broker string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        VehiculeCreatedTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  5,
		BatchTimeout: 10 * time.Millisecond,
	}
}
