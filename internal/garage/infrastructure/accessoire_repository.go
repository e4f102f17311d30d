package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"garage/internal/garage/domain"
	shareddomain "garage/internal/shared/domain"
	sharedinfra "garage/internal/shared/infrastructure"
)

const accessoireColumns = `id, vehicule_id, nom, description, prix, type, created_at`

// AccessoireSQLRepository implémentation PostgreSQL de domain.AccessoireRepository
type AccessoireSQLRepository struct {
	sharedinfra.BaseRepository
}

// NewAccessoireSQLRepository crée un nouveau repository d'accessoires
func NewAccessoireSQLRepository(db *sql.DB) *AccessoireSQLRepository {
	return &AccessoireSQLRepository{BaseRepository: sharedinfra.NewBaseRepository(db)}
}

// Save insère un nouvel accessoire
func (r *AccessoireSQLRepository) Save(ctx context.Context, a *domain.Accessoire) error {
	query := `
		INSERT INTO accessoires (id, vehicule_id, nom, description, prix, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.Exec(ctx, query,
		a.ID(), a.VehiculeID(), a.Nom(), nullableString(a.Description()),
		a.Prix().Amount(), string(a.Type()), a.CreatedAt())
	return err
}

// FindByID retourne un accessoire par son ID
func (r *AccessoireSQLRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Accessoire, error) {
	a, err := scanAccessoire(r.QueryRow(ctx, `SELECT `+accessoireColumns+` FROM accessoires WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.AccessoireNotFoundError{ID: id}
	}
	return a, err
}

// FindByVehiculeID retourne les accessoires d'un véhicule
func (r *AccessoireSQLRepository) FindByVehiculeID(ctx context.Context, vehiculeID uuid.UUID) ([]*domain.Accessoire, error) {
	return findAccessoiresOf(ctx, &r.BaseRepository, vehiculeID)
}

// Update persiste les champs d'un accessoire
func (r *AccessoireSQLRepository) Update(ctx context.Context, a *domain.Accessoire) error {
	query := `
		UPDATE accessoires
		SET nom = $1, description = $2, prix = $3, type = $4
		WHERE id = $5
	`
	result, err := r.Exec(ctx, query,
		a.Nom(), nullableString(a.Description()), a.Prix().Amount(), string(a.Type()), a.ID())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &domain.AccessoireNotFoundError{ID: a.ID()}
	}
	return nil
}

// DeleteByID supprime un accessoire
func (r *AccessoireSQLRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := r.Exec(ctx, `DELETE FROM accessoires WHERE id = $1`, id)
	return err
}

// findAccessoiresOf charge les accessoires d'un véhicule, partagé avec
// le repository des véhicules
func findAccessoiresOf(ctx context.Context, repo *sharedinfra.BaseRepository, vehiculeID uuid.UUID) ([]*domain.Accessoire, error) {
	rows, err := repo.Query(ctx, `SELECT `+accessoireColumns+` FROM accessoires WHERE vehicule_id = $1`, vehiculeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accessoires := make([]*domain.Accessoire, 0)
	for rows.Next() {
		a, err := scanAccessoire(rows)
		if err != nil {
			return nil, err
		}
		accessoires = append(accessoires, a)
	}
	return accessoires, rows.Err()
}

func scanAccessoire(row rowScanner) (*domain.Accessoire, error) {
	var (
		id, vehiculeID uuid.UUID
		nom            string
		description    sql.NullString
		prixAmount     float64
		typ            string
		createdAt      time.Time
	)
	if err := row.Scan(&id, &vehiculeID, &nom, &description, &prixAmount, &typ, &createdAt); err != nil {
		return nil, err
	}

	prix, err := shareddomain.NewPrice(prixAmount)
	if err != nil {
		return nil, err
	}

	a, err := domain.NewAccessoire(id, nom, description.String, prix, domain.TypeAccessoire(typ), createdAt)
	if err != nil {
		return nil, err
	}
	a.SetVehiculeID(vehiculeID)
	return a, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
