package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// VehiculeCreatedEvent est l'événement domaine publié après
// l'enregistrement durable d'un véhicule. Jamais muté après construction.
type VehiculeCreatedEvent struct {
	VehiculeID       uuid.UUID     `json:"vehiculeId"`
	GarageID         uuid.UUID     `json:"garageId"`
	Brand            string        `json:"brand"`
	AnneeFabrication int           `json:"anneeFabrication"`
	TypeCarburant    TypeCarburant `json:"typeCarburant"`
	OccurredOn       time.Time     `json:"occurredOn"`
}

// NewVehiculeCreatedEvent construit l'événement à partir d'un véhicule
// déjà commité. À n'appeler qu'après le succès de la transaction.
func NewVehiculeCreatedEvent(v *Vehicule) VehiculeCreatedEvent {
	return VehiculeCreatedEvent{
		VehiculeID:       v.ID(),
		GarageID:         v.GarageID(),
		Brand:            v.Brand(),
		AnneeFabrication: v.AnneeFabrication(),
		TypeCarburant:    v.TypeCarburant(),
		OccurredOn:       time.Now(),
	}
}

// PartitionKey retourne la clé de partitionnement: tous les événements
// d'un même garage partagent la même clé, donc la même partition et le
// même ordre de livraison.
func (e VehiculeCreatedEvent) PartitionKey() string {
	return e.GarageID.String()
}

// DomainEventPublisher port de publication des événements domaine,
// livraison at-least-once ordonnée par clé de partition
type DomainEventPublisher interface {
	Publish(ctx context.Context, event VehiculeCreatedEvent) error
}
