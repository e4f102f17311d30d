package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"garage/internal/garage/domain"
	sharedinfra "garage/internal/shared/infrastructure"
	"garage/internal/testhelpers"
)

func seedGarage(t testing.TB, repo domain.GarageRepository) *domain.Garage {
	t.Helper()

	address, err := domain.NewAddress("12 rue de la Paix", "Paris", "75002", "France")
	if err != nil {
		t.Fatal(err)
	}
	matin, err := domain.ParseOpeningTime("08:00", "12:00")
	if err != nil {
		t.Fatal(err)
	}
	horaires := domain.Horaires{time.Monday: {matin}}

	g, err := domain.NewGarage(uuid.New(), "Garage Central", address, "+33140000000", "contact@garage.fr", horaires, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(context.Background(), g); err != nil {
		t.Fatal(err)
	}
	return g
}

func registerInput() RegisterVehiculeInput {
	return RegisterVehiculeInput{
		ModeleID:         uuid.New(),
		Brand:            "Renault",
		AnneeFabrication: 2022,
		TypeCarburant:    "electrique",
	}
}

func newVehiculeService(store *testhelpers.InMemoryStore, publisher domain.DomainEventPublisher) *VehiculeService {
	return NewVehiculeService(
		testhelpers.NewInMemoryGarageRepository(store),
		testhelpers.NewInMemoryVehiculeRepository(store),
		publisher,
		sharedinfra.NewInMemoryCache(),
		zap.NewNop(),
	)
}

// ========================================
// Tests: Enregistrement de véhicules
// ========================================

func TestVehiculeService_Register(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	publisher := testhelpers.NewRecordingPublisher()
	service := newVehiculeService(store, publisher)
	garageRepo := testhelpers.NewInMemoryGarageRepository(store)
	g := seedGarage(t, garageRepo)

	v, err := service.Register(context.Background(), g.ID(), registerInput())
	if err != nil {
		t.Fatalf("Expected registration to succeed, got %v", err)
	}

	if v.GarageID() != g.ID() {
		t.Errorf("Expected vehicule attached to garage %s, got %s", g.ID(), v.GarageID())
	}

	count, err := garageRepo.CountVehicules(context.Background(), g.ID())
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 persisted vehicule, got %d", count)
	}

	events := publisher.Events()
	if len(events) != 1 {
		t.Fatalf("Expected 1 published event, got %d", len(events))
	}
	if events[0].VehiculeID != v.ID() {
		t.Errorf("Expected event for vehicule %s, got %s", v.ID(), events[0].VehiculeID)
	}
	if events[0].GarageID != g.ID() {
		t.Errorf("Expected event for garage %s, got %s", g.ID(), events[0].GarageID)
	}
}

func TestVehiculeService_Register_UnknownGarage(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	publisher := testhelpers.NewRecordingPublisher()
	service := newVehiculeService(store, publisher)

	_, err := service.Register(context.Background(), uuid.New(), registerInput())

	var notFound *domain.GarageNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected GarageNotFoundError, got %v", err)
	}
	if len(publisher.Events()) != 0 {
		t.Error("Expected no event for failed registration")
	}
}

func TestVehiculeService_Register_InvalidInput(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	publisher := testhelpers.NewRecordingPublisher()
	service := newVehiculeService(store, publisher)
	garageRepo := testhelpers.NewInMemoryGarageRepository(store)
	g := seedGarage(t, garageRepo)

	in := registerInput()
	in.TypeCarburant = "charbon"

	_, err := service.Register(context.Background(), g.ID(), in)
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}

	count, _ := garageRepo.CountVehicules(context.Background(), g.ID())
	if count != 0 {
		t.Errorf("Expected nothing persisted, got %d vehicules", count)
	}
	if len(publisher.Events()) != 0 {
		t.Error("Expected no event for rejected registration")
	}
}

func TestVehiculeService_Register_CapacityLimit(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	publisher := testhelpers.NewRecordingPublisher()
	service := newVehiculeService(store, publisher)
	garageRepo := testhelpers.NewInMemoryGarageRepository(store)
	g := seedGarage(t, garageRepo)

	for i := 0; i < domain.MaxCapacity; i++ {
		if _, err := service.Register(context.Background(), g.ID(), registerInput()); err != nil {
			t.Fatalf("Expected registration %d to succeed, got %v", i+1, err)
		}
	}

	// Le 51e est refusé sans persistance ni événement
	_, err := service.Register(context.Background(), g.ID(), registerInput())
	var capacityErr *domain.CapacityExceededError
	if !errors.As(err, &capacityErr) {
		t.Fatalf("Expected CapacityExceededError, got %v", err)
	}

	count, _ := garageRepo.CountVehicules(context.Background(), g.ID())
	if count != domain.MaxCapacity {
		t.Errorf("Expected %d persisted vehicules, got %d", domain.MaxCapacity, count)
	}
	if len(publisher.Events()) != domain.MaxCapacity {
		t.Errorf("Expected %d events, got %d", domain.MaxCapacity, len(publisher.Events()))
	}
}

func TestVehiculeService_Register_ConcurrentAdmissions(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	publisher := testhelpers.NewRecordingPublisher()
	service := newVehiculeService(store, publisher)
	garageRepo := testhelpers.NewInMemoryGarageRepository(store)
	g := seedGarage(t, garageRepo)

	const requests = 100

	var successes, rejections atomic.Int64
	var wg sync.WaitGroup
	wg.Add(requests)

	for i := 0; i < requests; i++ {
		go func() {
			defer wg.Done()
			for {
				_, err := service.Register(context.Background(), g.ID(), registerInput())
				if err == nil {
					successes.Add(1)
					return
				}

				var capacityErr *domain.CapacityExceededError
				if errors.As(err, &capacityErr) {
					rejections.Add(1)
					return
				}

				// Conflit de version épuisé: nouvelle tentative complète
				var conflict *domain.ConcurrencyConflictError
				if !errors.As(err, &conflict) {
					t.Errorf("Unexpected error during concurrent admission: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if successes.Load() != domain.MaxCapacity {
		t.Errorf("Expected exactly %d successful admissions, got %d", domain.MaxCapacity, successes.Load())
	}
	if rejections.Load() != requests-domain.MaxCapacity {
		t.Errorf("Expected %d rejections, got %d", requests-domain.MaxCapacity, rejections.Load())
	}

	count, _ := garageRepo.CountVehicules(context.Background(), g.ID())
	if count != domain.MaxCapacity {
		t.Errorf("Expected %d persisted vehicules, got %d", domain.MaxCapacity, count)
	}
	if len(publisher.Events()) != domain.MaxCapacity {
		t.Errorf("Expected %d events, got %d", domain.MaxCapacity, len(publisher.Events()))
	}
}

func TestVehiculeService_Register_PublisherFailureDoesNotFailRegistration(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	publisher := testhelpers.NewRecordingPublisher()
	publisher.Err = errors.New("broker unavailable")
	service := newVehiculeService(store, publisher)
	garageRepo := testhelpers.NewInMemoryGarageRepository(store)
	g := seedGarage(t, garageRepo)

	v, err := service.Register(context.Background(), g.ID(), registerInput())
	if err != nil {
		t.Fatalf("Expected registration to succeed despite publish failure, got %v", err)
	}

	count, _ := garageRepo.CountVehicules(context.Background(), g.ID())
	if count != 1 {
		t.Errorf("Expected vehicule %s persisted, count %d", v.ID(), count)
	}
}

// ========================================
// Tests: Suppression et capacité libérée
// ========================================

func TestVehiculeService_Delete_FreesCapacity(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	publisher := testhelpers.NewRecordingPublisher()
	service := newVehiculeService(store, publisher)
	garageRepo := testhelpers.NewInMemoryGarageRepository(store)
	g := seedGarage(t, garageRepo)

	first, err := service.Register(context.Background(), g.ID(), registerInput())
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < domain.MaxCapacity; i++ {
		if _, err := service.Register(context.Background(), g.ID(), registerInput()); err != nil {
			t.Fatal(err)
		}
	}

	if err := service.Delete(context.Background(), g.ID(), first.ID()); err != nil {
		t.Fatalf("Expected delete to succeed, got %v", err)
	}

	if _, err := service.Register(context.Background(), g.ID(), registerInput()); err != nil {
		t.Errorf("Expected admission after removal, got %v", err)
	}
}

func TestVehiculeService_Delete_UnknownVehicule(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	service := newVehiculeService(store, testhelpers.NewRecordingPublisher())
	garageRepo := testhelpers.NewInMemoryGarageRepository(store)
	g := seedGarage(t, garageRepo)

	err := service.Delete(context.Background(), g.ID(), uuid.New())
	var notFound *domain.VehiculeNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected VehiculeNotFoundError, got %v", err)
	}
}

func TestVehiculeService_ListByGarage_UnknownGarage(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	service := newVehiculeService(store, testhelpers.NewRecordingPublisher())

	_, err := service.ListByGarage(context.Background(), uuid.New())
	var notFound *domain.GarageNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected GarageNotFoundError, got %v", err)
	}
}

func TestVehiculeService_Update(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	service := newVehiculeService(store, testhelpers.NewRecordingPublisher())
	garageRepo := testhelpers.NewInMemoryGarageRepository(store)
	g := seedGarage(t, garageRepo)

	v, err := service.Register(context.Background(), g.ID(), registerInput())
	if err != nil {
		t.Fatal(err)
	}

	brand := "Peugeot"
	updated, err := service.Update(context.Background(), v.ID(), UpdateVehiculeInput{Brand: &brand})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Brand() != "Peugeot" {
		t.Errorf("Expected brand Peugeot, got %s", updated.Brand())
	}

	reloaded, err := service.Get(context.Background(), v.ID())
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Brand() != "Peugeot" {
		t.Errorf("Expected persisted brand Peugeot, got %s", reloaded.Brand())
	}
}

// ========================================
// Benchmarks
// ========================================

// BenchmarkVehiculeService_Register mesure une admission sans contention
func BenchmarkVehiculeService_Register(b *testing.B) {
	store := testhelpers.NewInMemoryStore()
	service := newVehiculeService(store, testhelpers.NewRecordingPublisher())
	garageRepo := testhelpers.NewInMemoryGarageRepository(store)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if i%domain.MaxCapacity == 0 {
			b.StopTimer()
			g := seedGarage(b, garageRepo)
			b.StartTimer()
			benchGarageID = g.ID()
		}
		_, _ = service.Register(context.Background(), benchGarageID, registerInput())
	}
}

var benchGarageID uuid.UUID
