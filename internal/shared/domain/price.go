package domain

import (
	"errors"
	"strconv"
)

// MaxPrice plafond autorisé pour un prix
const MaxPrice = 999999.99

// Price représente un prix avec garanties d'invariants
type Price struct {
	amount float64
}

// NewPrice crée une nouvelle instance de Price avec validation
func NewPrice(amount float64) (Price, error) {
	if amount < 0 {
		return Price{}, errors.New("price cannot be negative")
	}
	if amount > MaxPrice {
		return Price{}, errors.New("price cannot exceed 999999.99")
	}
	return Price{amount: amount}, nil
}

// MustNewPrice crée un Price en paniquant si invalide
func MustNewPrice(amount float64) Price {
	p, err := NewPrice(amount)
	if err != nil {
		panic("invalid price: " + err.Error())
	}
	return p
}

// Amount retourne le montant
func (p Price) Amount() float64 {
	return p.amount
}

// IsZero vérifie si le prix est nul
func (p Price) IsZero() bool {
	return p.amount == 0
}

// String retourne le prix formaté avec deux décimales
func (p Price) String() string {
	return strconv.FormatFloat(p.amount, 'f', 2, 64)
}
