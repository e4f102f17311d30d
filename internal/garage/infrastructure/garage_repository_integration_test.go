package infrastructure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"garage/database"
	"garage/internal/garage/domain"
	"garage/internal/testhelpers"
)

// ========================================
// INTEGRATION TESTS - REAL DATABASE
// ========================================
// Ces tests utilisent PostgreSQL et vérifient le mapping SQL réel :
// horaires JSONB, contrôle de version optimiste, cascades.

// ========================================
// Test Helpers
// ========================================

// setupGarageRepo prépare le schéma et retourne un dépôt branché sur la base de test
func setupGarageRepo(t *testing.T) *GarageSQLRepository {
	t.Helper()

	db := testhelpers.SetupTestDB(t)
	if err := database.CreateSchemaOn(db); err != nil {
		t.Fatalf("création du schéma: %v", err)
	}
	return NewGarageSQLRepository(db)
}

// persistedGarage construit et sauvegarde un garage valide, avec nettoyage automatique
func persistedGarage(t *testing.T, repo *GarageSQLRepository) *domain.Garage {
	t.Helper()

	address, err := domain.NewAddress("12 rue de la Paix", "Paris", "75002", "France")
	if err != nil {
		t.Fatalf("adresse invalide: %v", err)
	}
	monday, err := domain.NewOpeningTime(8*60, 18*60)
	if err != nil {
		t.Fatalf("créneau invalide: %v", err)
	}
	horaires := domain.Horaires{time.Monday: {monday}}

	g, err := domain.NewGarage(uuid.New(), "Garage Intégration", address, "+33140000000", "integration@garage.fr", horaires, time.Now())
	if err != nil {
		t.Fatalf("garage invalide: %v", err)
	}

	ctx := context.Background()
	if err := repo.Save(ctx, g); err != nil {
		t.Fatalf("sauvegarde du garage: %v", err)
	}
	t.Cleanup(func() {
		_ = repo.DeleteByID(context.Background(), g.ID())
	})
	return g
}

func testVehicule(t *testing.T) *domain.Vehicule {
	t.Helper()

	v, err := domain.NewVehicule(uuid.New(), uuid.New(), "Renault", 2022, domain.CarburantElectrique, time.Now())
	if err != nil {
		t.Fatalf("véhicule invalide: %v", err)
	}
	return v
}

// ========================================
// Round-trip et mapping JSONB
// ========================================

func TestGarageSQLRepository_SaveAndFindByID(t *testing.T) {
	testhelpers.SkipIfNoDatabase(t)

	repo := setupGarageRepo(t)
	g := persistedGarage(t, repo)

	loaded, err := repo.FindByID(context.Background(), g.ID())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}

	if loaded.Name() != g.Name() {
		t.Errorf("nom = %q, attendu %q", loaded.Name(), g.Name())
	}
	if loaded.Address().Ville() != "Paris" {
		t.Errorf("ville = %q, attendu Paris", loaded.Address().Ville())
	}
	if loaded.Version() != 0 {
		t.Errorf("version initiale = %d, attendu 0", loaded.Version())
	}

	creneaux := loaded.Horaires()[time.Monday]
	if len(creneaux) != 1 {
		t.Fatalf("créneaux du lundi = %d, attendu 1", len(creneaux))
	}
	if creneaux[0].Start() != 8*60 || creneaux[0].End() != 18*60 {
		t.Errorf("créneau = %d-%d, attendu 480-1080", creneaux[0].Start(), creneaux[0].End())
	}
}

func TestGarageSQLRepository_FindByID_Inconnu(t *testing.T) {
	testhelpers.SkipIfNoDatabase(t)

	repo := setupGarageRepo(t)

	_, err := repo.FindByID(context.Background(), uuid.New())
	var notFound *domain.GarageNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("erreur = %v, attendu GarageNotFoundError", err)
	}
}

// ========================================
// Contrôle de version optimiste
// ========================================

func TestGarageSQLRepository_SaveVehicule_IncrementeVersion(t *testing.T) {
	testhelpers.SkipIfNoDatabase(t)

	repo := setupGarageRepo(t)
	g := persistedGarage(t, repo)
	ctx := context.Background()

	loaded, err := repo.FindByID(ctx, g.ID())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}

	v := testVehicule(t)
	if err := loaded.AddVehicle(v); err != nil {
		t.Fatalf("AddVehicle: %v", err)
	}
	if err := repo.SaveVehicule(ctx, loaded, v); err != nil {
		t.Fatalf("SaveVehicule: %v", err)
	}

	reloaded, err := repo.FindByID(ctx, g.ID())
	if err != nil {
		t.Fatalf("FindByID après ajout: %v", err)
	}
	if reloaded.Version() != 1 {
		t.Errorf("version = %d, attendu 1", reloaded.Version())
	}
	if reloaded.VehiculeCount() != 1 {
		t.Errorf("nombre de véhicules = %d, attendu 1", reloaded.VehiculeCount())
	}
}

func TestGarageSQLRepository_SaveVehicule_VersionPerimee(t *testing.T) {
	testhelpers.SkipIfNoDatabase(t)

	repo := setupGarageRepo(t)
	g := persistedGarage(t, repo)
	ctx := context.Background()

	fresh, err := repo.FindByID(ctx, g.ID())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	stale, err := repo.FindByID(ctx, g.ID())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}

	v1 := testVehicule(t)
	if err := fresh.AddVehicle(v1); err != nil {
		t.Fatalf("AddVehicle: %v", err)
	}
	if err := repo.SaveVehicule(ctx, fresh, v1); err != nil {
		t.Fatalf("première écriture: %v", err)
	}

	// La copie chargée avant la première écriture porte une version dépassée
	v2 := testVehicule(t)
	if err := stale.AddVehicle(v2); err != nil {
		t.Fatalf("AddVehicle: %v", err)
	}
	err = repo.SaveVehicule(ctx, stale, v2)

	var conflict *domain.ConcurrencyConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("erreur = %v, attendu ConcurrencyConflictError", err)
	}
}

// ========================================
// Suppression en cascade
// ========================================

func TestGarageSQLRepository_DeleteByID_CascadeVehicules(t *testing.T) {
	testhelpers.SkipIfNoDatabase(t)

	repo := setupGarageRepo(t)
	g := persistedGarage(t, repo)
	ctx := context.Background()

	loaded, err := repo.FindByID(ctx, g.ID())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	v := testVehicule(t)
	if err := loaded.AddVehicle(v); err != nil {
		t.Fatalf("AddVehicle: %v", err)
	}
	if err := repo.SaveVehicule(ctx, loaded, v); err != nil {
		t.Fatalf("SaveVehicule: %v", err)
	}

	if err := repo.DeleteByID(ctx, g.ID()); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}

	exists, err := repo.ExistsByID(ctx, g.ID())
	if err != nil {
		t.Fatalf("ExistsByID: %v", err)
	}
	if exists {
		t.Error("le garage existe encore après suppression")
	}
}
