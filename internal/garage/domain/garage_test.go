package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// validHoraires retourne des horaires d'ouverture valides pour les tests
func validHoraires(t testing.TB) Horaires {
	t.Helper()
	matin, err := ParseOpeningTime("08:00", "12:00")
	if err != nil {
		t.Fatal(err)
	}
	apresMidi, err := ParseOpeningTime("14:00", "18:00")
	if err != nil {
		t.Fatal(err)
	}
	return Horaires{
		time.Monday:  {matin, apresMidi},
		time.Tuesday: {matin},
	}
}

func validGarage(t testing.TB) *Garage {
	t.Helper()
	address, err := NewAddress("12 rue de la Paix", "Paris", "75002", "France")
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewGarage(uuid.New(), "Garage Central", address, "+33140000000", "contact@garage.fr", validHoraires(t), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func validVehicule(t testing.TB) *Vehicule {
	t.Helper()
	v, err := NewVehicule(uuid.New(), uuid.New(), "Renault", 2022, CarburantElectrique, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return v
}

// ========================================
// Tests: Création du garage
// ========================================

func TestNewGarage_Valid(t *testing.T) {
	g := validGarage(t)

	if g.Name() != "Garage Central" {
		t.Errorf("Expected name Garage Central, got %s", g.Name())
	}
	if g.VehiculeCount() != 0 {
		t.Errorf("Expected empty garage, got %d vehicles", g.VehiculeCount())
	}
	if g.Version() != 0 {
		t.Errorf("Expected version 0 for new garage, got %d", g.Version())
	}
	if g.RemainingCapacity() != MaxCapacity {
		t.Errorf("Expected remaining capacity %d, got %d", MaxCapacity, g.RemainingCapacity())
	}
}

func TestNewGarage_Invalid(t *testing.T) {
	address, _ := NewAddress("12 rue de la Paix", "Paris", "75002", "France")
	horaires := validHoraires(t)

	tests := []struct {
		name      string
		garage    string
		telephone string
		email     string
		field     string
	}{
		{"name too short", "ab", "+33140000000", "contact@garage.fr", "name"},
		{"telephone too short", "Garage Central", "012345", "contact@garage.fr", "telephone"},
		{"telephone with letters", "Garage Central", "01abc4567890", "contact@garage.fr", "telephone"},
		{"email without at", "Garage Central", "+33140000000", "contact.garage.fr", "email"},
		{"email with space", "Garage Central", "+33140000000", "con tact@garage.fr", "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGarage(uuid.New(), tt.garage, address, tt.telephone, tt.email, horaires, time.Now())

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("Expected error on field %s, got %s", tt.field, validationErr.Field)
			}
		})
	}
}

func TestNewGarage_OverlappingHoraires(t *testing.T) {
	address, _ := NewAddress("12 rue de la Paix", "Paris", "75002", "France")

	matin, _ := ParseOpeningTime("09:00", "17:00")
	soir, _ := ParseOpeningTime("17:00", "20:00")
	horaires := Horaires{time.Monday: {matin, soir}}

	// Les bornes sont inclusives: 17:00 termine l'un et commence l'autre
	_, err := NewGarage(uuid.New(), "Garage Central", address, "+33140000000", "contact@garage.fr", horaires, time.Now())
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError for touching opening times, got %v", err)
	}
	if validationErr.Field != "horaires" {
		t.Errorf("Expected error on field horaires, got %s", validationErr.Field)
	}
}

func TestNewGarage_EmptyHoraires(t *testing.T) {
	address, _ := NewAddress("12 rue de la Paix", "Paris", "75002", "France")

	_, err := NewGarage(uuid.New(), "Garage Central", address, "+33140000000", "contact@garage.fr", Horaires{}, time.Now())
	if err == nil {
		t.Error("Expected error for empty horaires")
	}
}

// ========================================
// Tests: Capacité du parc
// ========================================

func TestGarage_AddVehicle_UntilFull(t *testing.T) {
	g := validGarage(t)

	for i := 0; i < MaxCapacity; i++ {
		if err := g.AddVehicle(validVehicule(t)); err != nil {
			t.Fatalf("Expected admission %d to succeed, got %v", i+1, err)
		}
	}

	if !g.IsFull() {
		t.Error("Expected garage to be full")
	}
	if g.RemainingCapacity() != 0 {
		t.Errorf("Expected remaining capacity 0, got %d", g.RemainingCapacity())
	}

	// Le 51e véhicule est refusé sans effet de bord
	err := g.AddVehicle(validVehicule(t))
	var capacityErr *CapacityExceededError
	if !errors.As(err, &capacityErr) {
		t.Fatalf("Expected CapacityExceededError, got %v", err)
	}
	if capacityErr.GarageID != g.ID() {
		t.Errorf("Expected garage ID %s in error, got %s", g.ID(), capacityErr.GarageID)
	}
	if g.VehiculeCount() != MaxCapacity {
		t.Errorf("Expected count unchanged at %d, got %d", MaxCapacity, g.VehiculeCount())
	}
}

func TestGarage_AddVehicle_AttachesGarageID(t *testing.T) {
	g := validGarage(t)
	v := validVehicule(t)

	if err := g.AddVehicle(v); err != nil {
		t.Fatal(err)
	}
	if v.GarageID() != g.ID() {
		t.Errorf("Expected vehicle attached to garage %s, got %s", g.ID(), v.GarageID())
	}
}

func TestGarage_RemoveVehicle(t *testing.T) {
	g := validGarage(t)
	v := validVehicule(t)

	if err := g.AddVehicle(v); err != nil {
		t.Fatal(err)
	}

	g.RemoveVehicle(v.ID())
	if g.VehiculeCount() != 0 {
		t.Errorf("Expected empty garage after removal, got %d", g.VehiculeCount())
	}

	// Retrait d'un véhicule absent: sans effet
	g.RemoveVehicle(uuid.New())
	if g.VehiculeCount() != 0 {
		t.Errorf("Expected count unchanged, got %d", g.VehiculeCount())
	}
}

func TestGarage_RemoveVehicle_FreesCapacity(t *testing.T) {
	g := validGarage(t)

	vehicules := make([]*Vehicule, 0, MaxCapacity)
	for i := 0; i < MaxCapacity; i++ {
		v := validVehicule(t)
		if err := g.AddVehicle(v); err != nil {
			t.Fatal(err)
		}
		vehicules = append(vehicules, v)
	}

	g.RemoveVehicle(vehicules[0].ID())

	if err := g.AddVehicle(validVehicule(t)); err != nil {
		t.Errorf("Expected admission to succeed after removal, got %v", err)
	}
}

// ========================================
// Tests: Mise à jour partielle
// ========================================

func TestGarage_Update_Partial(t *testing.T) {
	g := validGarage(t)
	name := "Garage du Centre"

	if err := g.Update(UpdateGarage{Name: &name}); err != nil {
		t.Fatal(err)
	}

	if g.Name() != name {
		t.Errorf("Expected name %s, got %s", name, g.Name())
	}
	if g.Email() != "contact@garage.fr" {
		t.Errorf("Expected email unchanged, got %s", g.Email())
	}
}

func TestGarage_Update_InvalidFieldRejected(t *testing.T) {
	g := validGarage(t)
	name := "Garage du Centre"
	badEmail := "not-an-email"

	err := g.Update(UpdateGarage{Name: &name, Email: &badEmail})
	if err == nil {
		t.Fatal("Expected error for invalid email")
	}

	// Aucun champ n'est appliqué quand la validation échoue
	if g.Name() != "Garage Central" {
		t.Errorf("Expected name unchanged, got %s", g.Name())
	}
}

func TestGarage_Vehicules_ReturnsCopy(t *testing.T) {
	g := validGarage(t)
	if err := g.AddVehicle(validVehicule(t)); err != nil {
		t.Fatal(err)
	}

	list := g.Vehicules()
	list[0] = nil

	if g.Vehicules()[0] == nil {
		t.Error("Expected internal vehicle list to be isolated from returned slice")
	}
}

// ========================================
// Benchmarks
// ========================================

// BenchmarkGarage_AddVehicle mesure le coût d'une admission
func BenchmarkGarage_AddVehicle(b *testing.B) {
	address, _ := NewAddress("12 rue de la Paix", "Paris", "75002", "France")
	matin, _ := ParseOpeningTime("08:00", "12:00")
	horaires := Horaires{time.Monday: {matin}}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		g, _ := NewGarage(uuid.New(), "Garage Central", address, "+33140000000", "contact@garage.fr", horaires, time.Now())
		v, _ := NewVehicule(uuid.New(), uuid.New(), "Renault", 2022, CarburantElectrique, time.Now())
		_ = g.AddVehicle(v)
	}
}

// BenchmarkValidateHoraires mesure la détection de chevauchements
func BenchmarkValidateHoraires(b *testing.B) {
	horaires := make(Horaires)
	for day := time.Sunday; day <= time.Saturday; day++ {
		creneaux := make([]OpeningTime, 0, 4)
		for h := 8; h < 16; h += 2 {
			o, _ := NewOpeningTime(h*60, h*60+90)
			creneaux = append(creneaux, o)
		}
		horaires[day] = creneaux
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = validateHoraires(horaires)
	}
}
