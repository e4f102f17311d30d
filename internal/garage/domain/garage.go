package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// MaxCapacity capacité maximale de véhicules d'un garage
const MaxCapacity = 50

var (
	telephonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	emailPattern     = regexp.MustCompile(`^[^@\s]+@.+$`)
)

// Garage représente un garage et son parc de véhicules (Aggregate Root).
// Toute mutation du parc passe par les méthodes de l'agrégat: la liste
// de véhicules n'est jamais exposée de manière mutable.
//
// AddVehicle suppose l'exécution sous le protocole d'admission contrôlée
// par version (voir application.VehiculeService): deux copies en mémoire
// du même garage persisté ne doivent pas muter le parc sans ce protocole.
type Garage struct {
	id        uuid.UUID
	name      string
	address   Address
	telephone string
	email     string
	horaires  Horaires
	vehicules []*Vehicule
	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewGarage crée un nouveau garage avec validation atomique de tous les
// invariants: tout échoue ou tout passe, jamais de garage partiellement valide
func NewGarage(id uuid.UUID, name string, address Address, telephone, email string, horaires Horaires, createdAt time.Time) (*Garage, error) {
	if err := validateGarageName(name); err != nil {
		return nil, err
	}
	if err := validateTelephone(telephone); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validateHoraires(horaires); err != nil {
		return nil, err
	}

	return &Garage{
		id:        id,
		name:      name,
		address:   address,
		telephone: telephone,
		email:     email,
		horaires:  copyHoraires(horaires),
		vehicules: make([]*Vehicule, 0),
		createdAt: createdAt,
		updatedAt: createdAt,
	}, nil
}

// ID retourne l'identifiant du garage
func (g *Garage) ID() uuid.UUID {
	return g.id
}

// Name retourne le nom du garage
func (g *Garage) Name() string {
	return g.name
}

// Address retourne l'adresse du garage
func (g *Garage) Address() Address {
	return g.address
}

// Telephone retourne le numéro de téléphone
func (g *Garage) Telephone() string {
	return g.telephone
}

// Email retourne l'adresse email
func (g *Garage) Email() string {
	return g.email
}

// Horaires retourne une copie des horaires d'ouverture
func (g *Garage) Horaires() Horaires {
	return copyHoraires(g.horaires)
}

// Vehicules retourne une copie du parc de véhicules
func (g *Garage) Vehicules() []*Vehicule {
	return append([]*Vehicule{}, g.vehicules...)
}

// Version retourne le jeton de version pour la concurrence optimiste
func (g *Garage) Version() int64 {
	return g.version
}

// CreatedAt retourne la date de création
func (g *Garage) CreatedAt() time.Time {
	return g.createdAt
}

// UpdatedAt retourne la date de dernière modification
func (g *Garage) UpdatedAt() time.Time {
	return g.updatedAt
}

// VehiculeCount retourne le nombre de véhicules du garage
func (g *Garage) VehiculeCount() int {
	return len(g.vehicules)
}

// RemainingCapacity retourne la capacité restante du garage
func (g *Garage) RemainingCapacity() int {
	return MaxCapacity - len(g.vehicules)
}

// IsFull vérifie si le garage est plein
func (g *Garage) IsFull() bool {
	return len(g.vehicules) >= MaxCapacity
}

// AddVehicle ajoute un véhicule au garage. Retourne CapacityExceededError
// si le garage est plein, sans aucun effet de bord.
func (g *Garage) AddVehicle(v *Vehicule) error {
	if v == nil {
		return &ValidationError{Field: "vehicule", Rule: "cannot be nil"}
	}
	if g.IsFull() {
		return &CapacityExceededError{GarageID: g.id}
	}
	g.vehicules = append(g.vehicules, v)
	v.attachToGarage(g.id)
	g.touch()
	return nil
}

// RemoveVehicle retire un véhicule du garage. Sans effet si le véhicule
// est absent: l'existence est vérifiée par l'appelant.
func (g *Garage) RemoveVehicle(vehiculeID uuid.UUID) {
	kept := g.vehicules[:0]
	for _, v := range g.vehicules {
		if v.ID() != vehiculeID {
			kept = append(kept, v)
		}
	}
	g.vehicules = kept
	g.touch()
}

// UpdateGarage porte les champs d'une mise à jour partielle,
// nil signifie "inchangé"
type UpdateGarage struct {
	Name      *string
	Address   *Address
	Telephone *string
	Email     *string
	Horaires  Horaires
}

// Update applique une mise à jour partielle. Chaque champ fourni est
// revalidé avec les mêmes règles qu'à la création.
func (g *Garage) Update(u UpdateGarage) error {
	if u.Name != nil {
		if err := validateGarageName(*u.Name); err != nil {
			return err
		}
	}
	if u.Telephone != nil {
		if err := validateTelephone(*u.Telephone); err != nil {
			return err
		}
	}
	if u.Email != nil {
		if err := validateEmail(*u.Email); err != nil {
			return err
		}
	}
	if u.Horaires != nil {
		if err := validateHoraires(u.Horaires); err != nil {
			return err
		}
	}

	if u.Name != nil {
		g.name = *u.Name
	}
	if u.Address != nil {
		g.address = *u.Address
	}
	if u.Telephone != nil {
		g.telephone = *u.Telephone
	}
	if u.Email != nil {
		g.email = *u.Email
	}
	if u.Horaires != nil {
		g.horaires = copyHoraires(u.Horaires)
	}
	g.touch()
	return nil
}

// SetVehicules définit le parc du garage (pour hydratation depuis la base)
func (g *Garage) SetVehicules(vehicules []*Vehicule) {
	g.vehicules = vehicules
}

// SetVersion définit le jeton de version (pour hydratation depuis la base)
func (g *Garage) SetVersion(version int64) {
	g.version = version
}

// SetUpdatedAt définit la date de modification (pour hydratation depuis la base)
func (g *Garage) SetUpdatedAt(t time.Time) {
	g.updatedAt = t
}

func (g *Garage) touch() {
	g.updatedAt = time.Now()
}

// Validations

func validateGarageName(name string) error {
	if len(name) < 3 || len(name) > 255 {
		return &ValidationError{Field: "name", Rule: "must contain between 3 and 255 characters"}
	}
	return nil
}

func validateTelephone(telephone string) error {
	if !telephonePattern.MatchString(telephone) {
		return &ValidationError{Field: "telephone", Rule: "must match ^\\+?[0-9]{10,15}$"}
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return &ValidationError{Field: "email", Rule: "invalid email format"}
	}
	return nil
}

func validateHoraires(horaires Horaires) error {
	if len(horaires) == 0 {
		return &ValidationError{Field: "horaires", Rule: "cannot be empty"}
	}
	for jour, creneaux := range horaires {
		for i := 0; i < len(creneaux); i++ {
			for j := i + 1; j < len(creneaux); j++ {
				if creneaux[i].Overlaps(creneaux[j]) {
					return &ValidationError{
						Field: "horaires",
						Rule:  fmt.Sprintf("overlapping opening times on %s: %s and %s", jour, creneaux[i], creneaux[j]),
					}
				}
			}
		}
	}
	return nil
}

func copyHoraires(horaires Horaires) Horaires {
	copied := make(Horaires, len(horaires))
	for jour, creneaux := range horaires {
		copied[jour] = append([]OpeningTime{}, creneaux...)
	}
	return copied
}
