package v1

import (
	"fmt"
	"time"

	"garage/internal/garage/application"
	"garage/internal/garage/domain"
)

// CreneauDTO représente une plage horaire au format HH:MM
type CreneauDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CreateGarageRequest corps de la requête POST /garages
type CreateGarageRequest struct {
	Name       string                  `json:"name"`
	Rue        string                  `json:"rue"`
	Ville      string                  `json:"ville"`
	CodePostal string                  `json:"codePostal"`
	Pays       string                  `json:"pays"`
	Telephone  string                  `json:"telephone"`
	Email      string                  `json:"email"`
	Horaires   map[string][]CreneauDTO `json:"horaires"`
}

// UpdateGarageRequest corps de la requête PUT /garages/{id}
type UpdateGarageRequest struct {
	Name       *string                 `json:"name"`
	Rue        *string                 `json:"rue"`
	Ville      *string                 `json:"ville"`
	CodePostal *string                 `json:"codePostal"`
	Pays       *string                 `json:"pays"`
	Telephone  *string                 `json:"telephone"`
	Email      *string                 `json:"email"`
	Horaires   map[string][]CreneauDTO `json:"horaires"`
}

// RegisterVehiculeRequest corps de la requête POST /garages/{id}/vehicules
type RegisterVehiculeRequest struct {
	ModeleID         string `json:"modeleId"`
	Brand            string `json:"brand"`
	AnneeFabrication int    `json:"anneeFabrication"`
	TypeCarburant    string `json:"typeCarburant"`
}

// UpdateVehiculeRequest corps de la requête PUT /vehicules/{id}
type UpdateVehiculeRequest struct {
	ModeleID         *string `json:"modeleId"`
	Brand            *string `json:"brand"`
	AnneeFabrication *int    `json:"anneeFabrication"`
	TypeCarburant    *string `json:"typeCarburant"`
}

// CreateAccessoireRequest corps de la requête POST /vehicules/{id}/accessoires
type CreateAccessoireRequest struct {
	Nom         string  `json:"nom"`
	Description string  `json:"description"`
	Prix        float64 `json:"prix"`
	Type        string  `json:"type"`
}

// UpdateAccessoireRequest corps de la requête PUT des accessoires
type UpdateAccessoireRequest struct {
	Nom         *string  `json:"nom"`
	Description *string  `json:"description"`
	Prix        *float64 `json:"prix"`
	Type        *string  `json:"type"`
}

// GarageResponse représentation JSON d'un garage
type GarageResponse struct {
	ID                string                  `json:"id"`
	Name              string                  `json:"name"`
	Rue               string                  `json:"rue"`
	Ville             string                  `json:"ville"`
	CodePostal        string                  `json:"codePostal"`
	Pays              string                  `json:"pays"`
	Telephone         string                  `json:"telephone"`
	Email             string                  `json:"email"`
	Horaires          map[string][]CreneauDTO `json:"horaires"`
	VehiculeCount     int                     `json:"vehiculeCount"`
	RemainingCapacity int                     `json:"remainingCapacity"`
	CreatedAt         time.Time               `json:"createdAt"`
	UpdatedAt         time.Time               `json:"updatedAt"`
}

// GaragePageResponse page de garages
type GaragePageResponse struct {
	Content       []GarageResponse `json:"content"`
	Page          int              `json:"page"`
	TotalPages    int              `json:"totalPages"`
	TotalElements int64            `json:"totalElements"`
}

// VehiculeResponse représentation JSON d'un véhicule
type VehiculeResponse struct {
	ID               string               `json:"id"`
	GarageID         string               `json:"garageId"`
	ModeleID         string               `json:"modeleId"`
	Brand            string               `json:"brand"`
	AnneeFabrication int                  `json:"anneeFabrication"`
	TypeCarburant    string               `json:"typeCarburant"`
	Accessoires      []AccessoireResponse `json:"accessoires"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

// AccessoireResponse représentation JSON d'un accessoire
type AccessoireResponse struct {
	ID          string    `json:"id"`
	VehiculeID  string    `json:"vehiculeId"`
	Nom         string    `json:"nom"`
	Description string    `json:"description,omitempty"`
	Prix        float64   `json:"prix"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"createdAt"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var weekdayLabels = map[time.Weekday]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

func toHorairesInput(in map[string][]CreneauDTO) (map[time.Weekday][]application.CreneauInput, error) {
	if in == nil {
		return nil, nil
	}
	out := make(map[time.Weekday][]application.CreneauInput, len(in))
	for day, creneaux := range in {
		weekday, ok := weekdayNames[day]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", day)
		}
		inputs := make([]application.CreneauInput, len(creneaux))
		for i, c := range creneaux {
			inputs[i] = application.CreneauInput{Start: c.Start, End: c.End}
		}
		out[weekday] = inputs
	}
	return out, nil
}

func toGarageResponse(g *domain.Garage) GarageResponse {
	horaires := make(map[string][]CreneauDTO, len(g.Horaires()))
	for day, creneaux := range g.Horaires() {
		dtos := make([]CreneauDTO, len(creneaux))
		for i, c := range creneaux {
			dtos[i] = CreneauDTO{Start: c.StartString(), End: c.EndString()}
		}
		horaires[weekdayLabels[day]] = dtos
	}

	addr := g.Address()
	return GarageResponse{
		ID:                g.ID().String(),
		Name:              g.Name(),
		Rue:               addr.Rue(),
		Ville:             addr.Ville(),
		CodePostal:        addr.CodePostal(),
		Pays:              addr.Pays(),
		Telephone:         g.Telephone(),
		Email:             g.Email(),
		Horaires:          horaires,
		VehiculeCount:     g.VehiculeCount(),
		RemainingCapacity: g.RemainingCapacity(),
		CreatedAt:         g.CreatedAt(),
		UpdatedAt:         g.UpdatedAt(),
	}
}

func toGarageResponses(garages []*domain.Garage) []GarageResponse {
	out := make([]GarageResponse, len(garages))
	for i, g := range garages {
		out[i] = toGarageResponse(g)
	}
	return out
}

func toVehiculeResponse(v *domain.Vehicule) VehiculeResponse {
	accessoires := make([]AccessoireResponse, len(v.Accessoires()))
	for i, a := range v.Accessoires() {
		accessoires[i] = toAccessoireResponse(a)
	}
	return VehiculeResponse{
		ID:               v.ID().String(),
		GarageID:         v.GarageID().String(),
		ModeleID:         v.ModeleID().String(),
		Brand:            v.Brand(),
		AnneeFabrication: v.AnneeFabrication(),
		TypeCarburant:    string(v.TypeCarburant()),
		Accessoires:      accessoires,
		CreatedAt:        v.CreatedAt(),
		UpdatedAt:        v.UpdatedAt(),
	}
}

func toAccessoireResponse(a *domain.Accessoire) AccessoireResponse {
	return AccessoireResponse{
		ID:          a.ID().String(),
		VehiculeID:  a.VehiculeID().String(),
		Nom:         a.Nom(),
		Description: a.Description(),
		Prix:        a.Prix().Amount(),
		Type:        string(a.Type()),
		CreatedAt:   a.CreatedAt(),
	}
}
