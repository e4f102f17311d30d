package domain

import (
	"time"

	"github.com/google/uuid"

	shareddomain "garage/internal/shared/domain"
)

// TypeAccessoire représente la catégorie d'un accessoire
type TypeAccessoire string

const (
	AccessoireInterieur    TypeAccessoire = "interieur"
	AccessoireExterieur    TypeAccessoire = "exterieur"
	AccessoireElectronique TypeAccessoire = "electronique"
	AccessoireSecurite     TypeAccessoire = "securite"
	AccessoireConfort      TypeAccessoire = "confort"
)

// ParseTypeAccessoire valide et convertit une chaîne en TypeAccessoire
func ParseTypeAccessoire(s string) (TypeAccessoire, error) {
	switch TypeAccessoire(s) {
	case AccessoireInterieur, AccessoireExterieur, AccessoireElectronique, AccessoireSecurite, AccessoireConfort:
		return TypeAccessoire(s), nil
	default:
		return "", &ValidationError{Field: "type", Rule: "must be one of interieur, exterieur, electronique, securite, confort"}
	}
}

// Accessoire représente un accessoire attaché à un véhicule,
// possédé exclusivement par ce véhicule
type Accessoire struct {
	id          uuid.UUID
	vehiculeID  uuid.UUID
	nom         string
	description string
	prix        shareddomain.Price
	typ         TypeAccessoire
	createdAt   time.Time
}

// NewAccessoire crée un nouvel accessoire avec validation,
// la description est facultative
func NewAccessoire(id uuid.UUID, nom, description string, prix shareddomain.Price, typ TypeAccessoire, createdAt time.Time) (*Accessoire, error) {
	if err := validateNomAccessoire(nom); err != nil {
		return nil, err
	}
	if _, err := ParseTypeAccessoire(string(typ)); err != nil {
		return nil, err
	}

	return &Accessoire{
		id:          id,
		nom:         nom,
		description: description,
		prix:        prix,
		typ:         typ,
		createdAt:   createdAt,
	}, nil
}

// ID retourne l'identifiant de l'accessoire
func (a *Accessoire) ID() uuid.UUID {
	return a.id
}

// VehiculeID retourne l'identifiant du véhicule propriétaire
func (a *Accessoire) VehiculeID() uuid.UUID {
	return a.vehiculeID
}

// Nom retourne le nom de l'accessoire
func (a *Accessoire) Nom() string {
	return a.nom
}

// Description retourne la description, éventuellement vide
func (a *Accessoire) Description() string {
	return a.description
}

// Prix retourne le prix
func (a *Accessoire) Prix() shareddomain.Price {
	return a.prix
}

// Type retourne la catégorie de l'accessoire
func (a *Accessoire) Type() TypeAccessoire {
	return a.typ
}

// CreatedAt retourne la date de création
func (a *Accessoire) CreatedAt() time.Time {
	return a.createdAt
}

// UpdateAccessoire porte les champs d'une mise à jour partielle
type UpdateAccessoire struct {
	Nom         *string
	Description *string
	Prix        *shareddomain.Price
	Type        *TypeAccessoire
}

// Update applique une mise à jour partielle avec revalidation
func (a *Accessoire) Update(u UpdateAccessoire) error {
	if u.Nom != nil {
		if err := validateNomAccessoire(*u.Nom); err != nil {
			return err
		}
	}
	if u.Type != nil {
		if _, err := ParseTypeAccessoire(string(*u.Type)); err != nil {
			return err
		}
	}

	if u.Nom != nil {
		a.nom = *u.Nom
	}
	if u.Description != nil {
		a.description = *u.Description
	}
	if u.Prix != nil {
		a.prix = *u.Prix
	}
	if u.Type != nil {
		a.typ = *u.Type
	}
	return nil
}

// SetVehiculeID définit le véhicule propriétaire (pour hydratation depuis la base)
func (a *Accessoire) SetVehiculeID(vehiculeID uuid.UUID) {
	a.vehiculeID = vehiculeID
}

func (a *Accessoire) attachToVehicule(vehiculeID uuid.UUID) {
	a.vehiculeID = vehiculeID
}

func validateNomAccessoire(nom string) error {
	if len(nom) == 0 || len(nom) > 255 {
		return &ValidationError{Field: "nom", Rule: "must contain between 1 and 255 characters"}
	}
	return nil
}
