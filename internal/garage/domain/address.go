package domain

import "strings"

// Address représente une adresse physique immuable (Value Object)
type Address struct {
	rue        string
	ville      string
	codePostal string
	pays       string
}

// NewAddress crée une nouvelle Address avec validation, tous les champs
// doivent être non vides
func NewAddress(rue, ville, codePostal, pays string) (Address, error) {
	if strings.TrimSpace(rue) == "" {
		return Address{}, &ValidationError{Field: "rue", Rule: "cannot be blank"}
	}
	if strings.TrimSpace(ville) == "" {
		return Address{}, &ValidationError{Field: "ville", Rule: "cannot be blank"}
	}
	if strings.TrimSpace(codePostal) == "" {
		return Address{}, &ValidationError{Field: "codePostal", Rule: "cannot be blank"}
	}
	if strings.TrimSpace(pays) == "" {
		return Address{}, &ValidationError{Field: "pays", Rule: "cannot be blank"}
	}
	return Address{
		rue:        rue,
		ville:      ville,
		codePostal: codePostal,
		pays:       pays,
	}, nil
}

// Rue retourne la rue
func (a Address) Rue() string {
	return a.rue
}

// Ville retourne la ville
func (a Address) Ville() string {
	return a.ville
}

// CodePostal retourne le code postal
func (a Address) CodePostal() string {
	return a.codePostal
}

// Pays retourne le pays
func (a Address) Pays() string {
	return a.pays
}

// Equal compare deux adresses par valeur
func (a Address) Equal(other Address) bool {
	return a == other
}
