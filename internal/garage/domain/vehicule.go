package domain

import (
	"time"

	"github.com/google/uuid"
)

// TypeCarburant représente le type de carburant d'un véhicule
type TypeCarburant string

const (
	CarburantEssence    TypeCarburant = "essence"
	CarburantDiesel     TypeCarburant = "diesel"
	CarburantElectrique TypeCarburant = "electrique"
	CarburantHybride    TypeCarburant = "hybride"
	CarburantGPL        TypeCarburant = "gpl"
)

// ParseTypeCarburant valide et convertit une chaîne en TypeCarburant
func ParseTypeCarburant(s string) (TypeCarburant, error) {
	switch TypeCarburant(s) {
	case CarburantEssence, CarburantDiesel, CarburantElectrique, CarburantHybride, CarburantGPL:
		return TypeCarburant(s), nil
	default:
		return "", &ValidationError{Field: "typeCarburant", Rule: "must be one of essence, diesel, electrique, hybride, gpl"}
	}
}

// Vehicule représente un véhicule d'un garage. Possédé exclusivement par
// son garage une fois rattaché: avant rattachement garageID vaut zéro.
type Vehicule struct {
	id               uuid.UUID
	garageID         uuid.UUID
	modeleID         uuid.UUID
	brand            string
	anneeFabrication int
	typeCarburant    TypeCarburant
	accessoires      []*Accessoire
	createdAt        time.Time
	updatedAt        time.Time
}

// NewVehicule crée un nouveau véhicule avec validation
func NewVehicule(id, modeleID uuid.UUID, brand string, anneeFabrication int, typeCarburant TypeCarburant, createdAt time.Time) (*Vehicule, error) {
	if err := validateBrand(brand); err != nil {
		return nil, err
	}
	if err := validateAnneeFabrication(anneeFabrication); err != nil {
		return nil, err
	}
	if _, err := ParseTypeCarburant(string(typeCarburant)); err != nil {
		return nil, err
	}

	return &Vehicule{
		id:               id,
		modeleID:         modeleID,
		brand:            brand,
		anneeFabrication: anneeFabrication,
		typeCarburant:    typeCarburant,
		accessoires:      make([]*Accessoire, 0),
		createdAt:        createdAt,
		updatedAt:        createdAt,
	}, nil
}

// ID retourne l'identifiant du véhicule
func (v *Vehicule) ID() uuid.UUID {
	return v.id
}

// GarageID retourne l'identifiant du garage propriétaire,
// uuid.Nil si le véhicule n'est pas encore rattaché
func (v *Vehicule) GarageID() uuid.UUID {
	return v.garageID
}

// ModeleID retourne la référence du modèle
func (v *Vehicule) ModeleID() uuid.UUID {
	return v.modeleID
}

// Brand retourne la marque
func (v *Vehicule) Brand() string {
	return v.brand
}

// AnneeFabrication retourne l'année de fabrication
func (v *Vehicule) AnneeFabrication() int {
	return v.anneeFabrication
}

// TypeCarburant retourne le type de carburant
func (v *Vehicule) TypeCarburant() TypeCarburant {
	return v.typeCarburant
}

// Accessoires retourne une copie des accessoires du véhicule
func (v *Vehicule) Accessoires() []*Accessoire {
	return append([]*Accessoire{}, v.accessoires...)
}

// CreatedAt retourne la date de création
func (v *Vehicule) CreatedAt() time.Time {
	return v.createdAt
}

// UpdatedAt retourne la date de dernière modification
func (v *Vehicule) UpdatedAt() time.Time {
	return v.updatedAt
}

// AddAccessoire ajoute un accessoire au véhicule
func (v *Vehicule) AddAccessoire(a *Accessoire) error {
	if a == nil {
		return &ValidationError{Field: "accessoire", Rule: "cannot be nil"}
	}
	v.accessoires = append(v.accessoires, a)
	a.attachToVehicule(v.id)
	v.touch()
	return nil
}

// RemoveAccessoire retire un accessoire du véhicule
func (v *Vehicule) RemoveAccessoire(accessoireID uuid.UUID) {
	kept := v.accessoires[:0]
	for _, a := range v.accessoires {
		if a.ID() != accessoireID {
			kept = append(kept, a)
		}
	}
	v.accessoires = kept
	v.touch()
}

// UpdateVehicule porte les champs d'une mise à jour partielle
type UpdateVehicule struct {
	ModeleID         *uuid.UUID
	Brand            *string
	AnneeFabrication *int
	TypeCarburant    *TypeCarburant
}

// Update applique une mise à jour partielle avec revalidation
func (v *Vehicule) Update(u UpdateVehicule) error {
	if u.Brand != nil {
		if err := validateBrand(*u.Brand); err != nil {
			return err
		}
	}
	if u.AnneeFabrication != nil {
		if err := validateAnneeFabrication(*u.AnneeFabrication); err != nil {
			return err
		}
	}
	if u.TypeCarburant != nil {
		if _, err := ParseTypeCarburant(string(*u.TypeCarburant)); err != nil {
			return err
		}
	}

	if u.ModeleID != nil {
		v.modeleID = *u.ModeleID
	}
	if u.Brand != nil {
		v.brand = *u.Brand
	}
	if u.AnneeFabrication != nil {
		v.anneeFabrication = *u.AnneeFabrication
	}
	if u.TypeCarburant != nil {
		v.typeCarburant = *u.TypeCarburant
	}
	v.touch()
	return nil
}

// SetGarageID définit le garage propriétaire (pour hydratation depuis la base)
func (v *Vehicule) SetGarageID(garageID uuid.UUID) {
	v.garageID = garageID
}

// SetAccessoires définit les accessoires (pour hydratation depuis la base)
func (v *Vehicule) SetAccessoires(accessoires []*Accessoire) {
	v.accessoires = accessoires
}

// SetUpdatedAt définit la date de modification (pour hydratation depuis la base)
func (v *Vehicule) SetUpdatedAt(t time.Time) {
	v.updatedAt = t
}

func (v *Vehicule) attachToGarage(garageID uuid.UUID) {
	v.garageID = garageID
	v.touch()
}

func (v *Vehicule) touch() {
	v.updatedAt = time.Now()
}

func validateBrand(brand string) error {
	if len(brand) == 0 || len(brand) > 100 {
		return &ValidationError{Field: "brand", Rule: "must contain between 1 and 100 characters"}
	}
	return nil
}

func validateAnneeFabrication(annee int) error {
	currentYear := time.Now().Year()
	if annee < 1900 || annee > currentYear+1 {
		return &ValidationError{Field: "anneeFabrication", Rule: "must be between 1900 and next year"}
	}
	return nil
}
