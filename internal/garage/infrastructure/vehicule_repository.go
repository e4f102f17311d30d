package infrastructure

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"garage/internal/garage/domain"
	sharedinfra "garage/internal/shared/infrastructure"
)

const vehiculeColumns = `id, garage_id, modele_id, brand, annee_fabrication, type_carburant, created_at, updated_at`

// VehiculeSQLRepository implémentation PostgreSQL de domain.VehiculeRepository
type VehiculeSQLRepository struct {
	sharedinfra.BaseRepository
}

// NewVehiculeSQLRepository crée un nouveau repository de véhicules
func NewVehiculeSQLRepository(db *sql.DB) *VehiculeSQLRepository {
	return &VehiculeSQLRepository{BaseRepository: sharedinfra.NewBaseRepository(db)}
}

// FindByID charge un véhicule et ses accessoires
func (r *VehiculeSQLRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Vehicule, error) {
	v, err := scanVehicule(r.QueryRow(ctx, `SELECT `+vehiculeColumns+` FROM vehicules WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.VehiculeNotFoundError{ID: id}
	}
	if err != nil {
		return nil, err
	}

	accessoires, err := findAccessoiresOf(ctx, &r.BaseRepository, id)
	if err != nil {
		return nil, err
	}
	v.SetAccessoires(accessoires)
	return v, nil
}

// FindByGarageID retourne les véhicules d'un garage
func (r *VehiculeSQLRepository) FindByGarageID(ctx context.Context, garageID uuid.UUID) ([]*domain.Vehicule, error) {
	return r.queryVehicules(ctx, `SELECT `+vehiculeColumns+` FROM vehicules WHERE garage_id = $1`, garageID)
}

// FindByTypeCarburant retourne les véhicules d'un type de carburant
func (r *VehiculeSQLRepository) FindByTypeCarburant(ctx context.Context, typeCarburant domain.TypeCarburant) ([]*domain.Vehicule, error) {
	return r.queryVehicules(ctx, `SELECT `+vehiculeColumns+` FROM vehicules WHERE type_carburant = $1`, string(typeCarburant))
}

// ExistsByID vérifie l'existence d'un véhicule
func (r *VehiculeSQLRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM vehicules WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// Update persiste les champs d'un véhicule
func (r *VehiculeSQLRepository) Update(ctx context.Context, v *domain.Vehicule) error {
	query := `
		UPDATE vehicules
		SET modele_id = $1, brand = $2, annee_fabrication = $3, type_carburant = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := r.Exec(ctx, query,
		v.ModeleID(), v.Brand(), v.AnneeFabrication(), string(v.TypeCarburant()), v.UpdatedAt(), v.ID())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &domain.VehiculeNotFoundError{ID: v.ID()}
	}
	return nil
}

func (r *VehiculeSQLRepository) queryVehicules(ctx context.Context, query string, args ...interface{}) ([]*domain.Vehicule, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicules := make([]*domain.Vehicule, 0)
	for rows.Next() {
		v, err := scanVehicule(rows)
		if err != nil {
			return nil, err
		}
		vehicules = append(vehicules, v)
	}
	return vehicules, rows.Err()
}
