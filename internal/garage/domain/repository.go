package domain

import (
	"context"

	"github.com/google/uuid"
)

// GarageRepository port de persistance de l'agrégat Garage.
//
// Les écritures portant sur le parc (SaveVehicule, DeleteVehicule) et la
// mise à jour des champs scalaires (Update) sont des compare-and-swap sur
// le jeton de version de l'agrégat: elles retournent
// ConcurrencyConflictError si la version a changé depuis la lecture,
// sans aucun effet partiel.
type GarageRepository interface {
	// Save insère un nouveau garage
	Save(ctx context.Context, g *Garage) error
	// FindByID charge le garage, son parc et sa version, ou
	// GarageNotFoundError
	FindByID(ctx context.Context, id uuid.UUID) (*Garage, error)
	// FindAll retourne une page de garages et le total
	FindAll(ctx context.Context, offset, limit int) ([]*Garage, int64, error)
	// FindByVille retourne les garages d'une ville
	FindByVille(ctx context.Context, ville string) ([]*Garage, error)
	// FindByName retourne les garages dont le nom contient la chaîne
	FindByName(ctx context.Context, name string) ([]*Garage, error)
	// ExistsByID vérifie l'existence d'un garage
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	// CountVehicules compte les véhicules persistés d'un garage
	CountVehicules(ctx context.Context, garageID uuid.UUID) (int, error)
	// Update persiste les champs scalaires du garage sous CAS de version
	Update(ctx context.Context, g *Garage) error
	// SaveVehicule insère le véhicule et incrémente la version du garage
	// dans une même transaction, sous CAS de version
	SaveVehicule(ctx context.Context, g *Garage, v *Vehicule) error
	// DeleteVehicule supprime le véhicule et incrémente la version du
	// garage dans une même transaction, sous CAS de version
	DeleteVehicule(ctx context.Context, g *Garage, vehiculeID uuid.UUID) error
	// DeleteByID supprime le garage et, en cascade, ses véhicules
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// VehiculeRepository port de persistance des véhicules
type VehiculeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicule, error)
	FindByGarageID(ctx context.Context, garageID uuid.UUID) ([]*Vehicule, error)
	FindByTypeCarburant(ctx context.Context, typeCarburant TypeCarburant) ([]*Vehicule, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	Update(ctx context.Context, v *Vehicule) error
}

// AccessoireRepository port de persistance des accessoires
type AccessoireRepository interface {
	Save(ctx context.Context, a *Accessoire) error
	FindByID(ctx context.Context, id uuid.UUID) (*Accessoire, error)
	FindByVehiculeID(ctx context.Context, vehiculeID uuid.UUID) ([]*Accessoire, error)
	Update(ctx context.Context, a *Accessoire) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
}
