package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"garage/internal/garage/domain"
	sharedinfra "garage/internal/shared/infrastructure"
	"garage/internal/testhelpers"
)

func newGarageService(store *testhelpers.InMemoryStore) (*GarageService, *sharedinfra.InMemoryCache) {
	cache := sharedinfra.NewInMemoryCache()
	service := NewGarageService(
		testhelpers.NewInMemoryGarageRepository(store),
		testhelpers.NewInMemoryVehiculeRepository(store),
		testhelpers.NewInMemoryAccessoireRepository(store),
		cache,
		zap.NewNop(),
	)
	return service, cache
}

func createInput() CreateGarageInput {
	return CreateGarageInput{
		Name:       "Garage Central",
		Rue:        "12 rue de la Paix",
		Ville:      "Paris",
		CodePostal: "75002",
		Pays:       "France",
		Telephone:  "+33140000000",
		Email:      "contact@garage.fr",
		Horaires: map[time.Weekday][]CreneauInput{
			time.Monday: {{Start: "08:00", End: "12:00"}, {Start: "14:00", End: "18:00"}},
		},
	}
}

// ========================================
// Tests: Cycle de vie des garages
// ========================================

func TestGarageService_CreateAndGet(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	service, cache := newGarageService(store)
	defer cache.Close()

	g, err := service.Create(context.Background(), createInput())
	if err != nil {
		t.Fatalf("Expected creation to succeed, got %v", err)
	}

	loaded, err := service.Get(context.Background(), g.ID())
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name() != "Garage Central" {
		t.Errorf("Expected name Garage Central, got %s", loaded.Name())
	}

	// Seconde lecture servie par le cache
	cached, err := service.Get(context.Background(), g.ID())
	if err != nil {
		t.Fatal(err)
	}
	if cached != loaded {
		t.Error("Expected second read to come from cache")
	}
}

func TestGarageService_Create_InvalidInput(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	service, cache := newGarageService(store)
	defer cache.Close()

	tests := []struct {
		name   string
		mutate func(*CreateGarageInput)
	}{
		{"bad email", func(in *CreateGarageInput) { in.Email = "not-an-email" }},
		{"bad telephone", func(in *CreateGarageInput) { in.Telephone = "123" }},
		{"short name", func(in *CreateGarageInput) { in.Name = "ab" }},
		{"blank ville", func(in *CreateGarageInput) { in.Ville = "  " }},
		{"no horaires", func(in *CreateGarageInput) { in.Horaires = nil }},
		{"bad creneau", func(in *CreateGarageInput) {
			in.Horaires = map[time.Weekday][]CreneauInput{time.Monday: {{Start: "10:00", End: "10:00"}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := createInput()
			tt.mutate(&in)

			_, err := service.Create(context.Background(), in)
			var validationErr *domain.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
		})
	}

	// Rien n'a été persisté
	result, err := service.List(context.Background(), 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if result.TotalElements != 0 {
		t.Errorf("Expected no garages persisted, got %d", result.TotalElements)
	}
}

func TestGarageService_Update_InvalidatesCache(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	service, cache := newGarageService(store)
	defer cache.Close()

	g, err := service.Create(context.Background(), createInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := service.Get(context.Background(), g.ID()); err != nil {
		t.Fatal(err)
	}

	name := "Garage du Centre"
	ville := "Lyon"
	if _, err := service.Update(context.Background(), g.ID(), UpdateGarageInput{Name: &name, Ville: &ville}); err != nil {
		t.Fatal(err)
	}

	reloaded, err := service.Get(context.Background(), g.ID())
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Name() != name {
		t.Errorf("Expected updated name %s, got %s", name, reloaded.Name())
	}
	if reloaded.Address().Ville() != ville {
		t.Errorf("Expected updated ville %s, got %s", ville, reloaded.Address().Ville())
	}
	// Les champs non fournis sont préservés
	if reloaded.Address().Rue() != "12 rue de la Paix" {
		t.Errorf("Expected rue unchanged, got %s", reloaded.Address().Rue())
	}
}

func TestGarageService_Get_RefleteLesAdmissions(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	service, cache := newGarageService(store)
	defer cache.Close()

	// Le service véhicule partage le cache des lectures de garages
	vehiculeService := NewVehiculeService(
		testhelpers.NewInMemoryGarageRepository(store),
		testhelpers.NewInMemoryVehiculeRepository(store),
		testhelpers.NewRecordingPublisher(),
		cache,
		zap.NewNop(),
	)
	ctx := context.Background()

	g, err := service.Create(ctx, createInput())
	if err != nil {
		t.Fatal(err)
	}

	before, err := service.Get(ctx, g.ID())
	if err != nil {
		t.Fatal(err)
	}
	if before.VehiculeCount() != 0 {
		t.Fatalf("Expected empty garage, got %d vehicules", before.VehiculeCount())
	}

	v, err := vehiculeService.Register(ctx, g.ID(), registerInput())
	if err != nil {
		t.Fatal(err)
	}

	after, err := service.Get(ctx, g.ID())
	if err != nil {
		t.Fatal(err)
	}
	if after.VehiculeCount() != 1 {
		t.Errorf("Expected 1 vehicule after registration, got %d", after.VehiculeCount())
	}
	if after.RemainingCapacity() != domain.MaxCapacity-1 {
		t.Errorf("Expected remaining capacity %d, got %d", domain.MaxCapacity-1, after.RemainingCapacity())
	}

	if err := vehiculeService.Delete(ctx, g.ID(), v.ID()); err != nil {
		t.Fatal(err)
	}

	final, err := service.Get(ctx, g.ID())
	if err != nil {
		t.Fatal(err)
	}
	if final.VehiculeCount() != 0 {
		t.Errorf("Expected empty garage after removal, got %d vehicules", final.VehiculeCount())
	}
}

func TestGarageService_Delete(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	service, cache := newGarageService(store)
	defer cache.Close()

	g, err := service.Create(context.Background(), createInput())
	if err != nil {
		t.Fatal(err)
	}

	if err := service.Delete(context.Background(), g.ID()); err != nil {
		t.Fatal(err)
	}

	_, err = service.Get(context.Background(), g.ID())
	var notFound *domain.GarageNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected GarageNotFoundError after delete, got %v", err)
	}

	err = service.Delete(context.Background(), g.ID())
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected GarageNotFoundError for second delete, got %v", err)
	}
}

func TestGarageService_List_Pagination(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	service, cache := newGarageService(store)
	defer cache.Close()

	for i := 0; i < 5; i++ {
		if _, err := service.Create(context.Background(), createInput()); err != nil {
			t.Fatal(err)
		}
	}

	result, err := service.List(context.Background(), 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Garages) != 2 {
		t.Errorf("Expected 2 garages on first page, got %d", len(result.Garages))
	}
	if result.TotalElements != 5 {
		t.Errorf("Expected 5 total, got %d", result.TotalElements)
	}
	if result.TotalPages != 3 {
		t.Errorf("Expected 3 pages, got %d", result.TotalPages)
	}

	last, err := service.List(context.Background(), 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(last.Garages) != 1 {
		t.Errorf("Expected 1 garage on last page, got %d", len(last.Garages))
	}
}

// ========================================
// Tests: Recherches
// ========================================

func TestGarageService_FindByVilleAndName(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	service, cache := newGarageService(store)
	defer cache.Close()

	in := createInput()
	if _, err := service.Create(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	lyon := createInput()
	lyon.Ville = "Lyon"
	lyon.Name = "Atelier des Brotteaux"
	if _, err := service.Create(context.Background(), lyon); err != nil {
		t.Fatal(err)
	}

	paris, err := service.FindByVille(context.Background(), "Paris")
	if err != nil {
		t.Fatal(err)
	}
	if len(paris) != 1 {
		t.Errorf("Expected 1 garage in Paris, got %d", len(paris))
	}

	matches, err := service.FindByName(context.Background(), "atelier")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Name() != "Atelier des Brotteaux" {
		t.Errorf("Expected case-insensitive name match, got %d results", len(matches))
	}
}

func TestGarageService_SearchByCarburantAndAccessoire(t *testing.T) {
	store := testhelpers.NewInMemoryStore()
	service, cache := newGarageService(store)
	defer cache.Close()

	publisher := testhelpers.NewRecordingPublisher()
	vehiculeService := newVehiculeService(store, publisher)
	accessoireService := NewAccessoireService(
		testhelpers.NewInMemoryAccessoireRepository(store),
		testhelpers.NewInMemoryVehiculeRepository(store),
		zap.NewNop(),
	)

	// Garage 1: véhicule électrique avec GPS
	g1, err := service.Create(context.Background(), createInput())
	if err != nil {
		t.Fatal(err)
	}
	v1, err := vehiculeService.Register(context.Background(), g1.ID(), registerInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := accessoireService.Create(context.Background(), v1.ID(), CreateAccessoireInput{
		Nom: "GPS intégré", Prix: 299.99, Type: "electronique",
	}); err != nil {
		t.Fatal(err)
	}

	// Garage 2: véhicule diesel avec GPS, ne matche pas le carburant
	g2, err := service.Create(context.Background(), createInput())
	if err != nil {
		t.Fatal(err)
	}
	dieselInput := registerInput()
	dieselInput.TypeCarburant = "diesel"
	v2, err := vehiculeService.Register(context.Background(), g2.ID(), dieselInput)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := accessoireService.Create(context.Background(), v2.ID(), CreateAccessoireInput{
		Nom: "GPS intégré", Prix: 299.99, Type: "electronique",
	}); err != nil {
		t.Fatal(err)
	}

	// Garage 3: véhicule électrique sans accessoire correspondant
	g3, err := service.Create(context.Background(), createInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := vehiculeService.Register(context.Background(), g3.ID(), registerInput()); err != nil {
		t.Fatal(err)
	}

	garages, err := service.SearchByCarburantAndAccessoire(context.Background(), domain.CarburantElectrique, "gps")
	if err != nil {
		t.Fatal(err)
	}
	if len(garages) != 1 {
		t.Fatalf("Expected 1 matching garage, got %d", len(garages))
	}
	if garages[0].ID() != g1.ID() {
		t.Errorf("Expected garage %s, got %s", g1.ID(), garages[0].ID())
	}
}
