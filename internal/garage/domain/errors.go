package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError signale une entrée invalide au niveau d'un champ.
// Toujours récupérable par l'appelant en corrigeant la valeur.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Rule)
}

// CapacityExceededError signale le refus d'admission d'un véhicule:
// le garage a atteint sa capacité maximale. Règle métier, pas une panne.
type CapacityExceededError struct {
	GarageID uuid.UUID
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("garage %s has reached its maximum capacity of %d vehicles", e.GarageID, MaxCapacity)
}

// GarageNotFoundError signale qu'aucun garage ne porte cet identifiant
type GarageNotFoundError struct {
	ID uuid.UUID
}

func (e *GarageNotFoundError) Error() string {
	return fmt.Sprintf("garage not found: %s", e.ID)
}

// VehiculeNotFoundError signale qu'aucun véhicule ne porte cet identifiant
type VehiculeNotFoundError struct {
	ID uuid.UUID
}

func (e *VehiculeNotFoundError) Error() string {
	return fmt.Sprintf("vehicule not found: %s", e.ID)
}

// AccessoireNotFoundError signale qu'aucun accessoire ne porte cet identifiant
type AccessoireNotFoundError struct {
	ID uuid.UUID
}

func (e *AccessoireNotFoundError) Error() string {
	return fmt.Sprintf("accessoire not found: %s", e.ID)
}

// ConcurrencyConflictError signale un échec de compare-and-swap sur la
// version de l'agrégat. Signal de retry interne, pas une erreur appelant.
type ConcurrencyConflictError struct {
	GarageID uuid.UUID
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrent modification of garage %s, retry with a fresh read", e.GarageID)
}

// PublicationError enveloppe un échec de publication post-commit.
// Journalisée et réessayée par le transport, jamais remontée à l'appelant
// de l'enregistrement.
type PublicationError struct {
	Cause error
}

func (e *PublicationError) Error() string {
	return fmt.Sprintf("event publication failed: %v", e.Cause)
}

func (e *PublicationError) Unwrap() error {
	return e.Cause
}
