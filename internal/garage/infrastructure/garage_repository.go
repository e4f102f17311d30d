package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"garage/internal/garage/domain"
	sharedinfra "garage/internal/shared/infrastructure"
)

// garageColumns colonnes scalaires d'un garage, dans l'ordre de scan
const garageColumns = `g.id, g.name, g.rue, g.ville, g.code_postal, g.pays,
	g.telephone, g.email, g.horaires, g.version, g.created_at, g.updated_at`

// GarageSQLRepository implémentation PostgreSQL de domain.GarageRepository.
//
// Les écritures sur le parc passent par un compare-and-swap sur la
// colonne version: `UPDATE ... WHERE id = $1 AND version = $2`. Zéro
// ligne affectée signifie une modification concurrente depuis la
// lecture, la transaction est annulée et ConcurrencyConflictError est
// retournée sans effet partiel.
type GarageSQLRepository struct {
	sharedinfra.BaseRepository
	uow sharedinfra.UnitOfWork
}

// NewGarageSQLRepository crée un nouveau repository de garages
func NewGarageSQLRepository(db *sql.DB) *GarageSQLRepository {
	return &GarageSQLRepository{
		BaseRepository: sharedinfra.NewBaseRepository(db),
		uow:            sharedinfra.NewUnitOfWork(db),
	}
}

// Save insère un nouveau garage
func (r *GarageSQLRepository) Save(ctx context.Context, g *domain.Garage) error {
	horaires, err := marshalHoraires(g.Horaires())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO garages (id, name, rue, ville, code_postal, pays, telephone, email, horaires, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	addr := g.Address()
	_, err = r.Exec(ctx, query,
		g.ID(), g.Name(), addr.Rue(), addr.Ville(), addr.CodePostal(), addr.Pays(),
		g.Telephone(), g.Email(), horaires, g.Version(), g.CreatedAt(), g.UpdatedAt())
	return err
}

// FindByID charge un garage, son parc et sa version
func (r *GarageSQLRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Garage, error) {
	query := fmt.Sprintf(`SELECT %s FROM garages g WHERE g.id = $1`, garageColumns)

	g, err := scanGarage(r.QueryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.GarageNotFoundError{ID: id}
	}
	if err != nil {
		return nil, err
	}

	vehicules, err := r.findVehicules(ctx, id)
	if err != nil {
		return nil, err
	}
	g.SetVehicules(vehicules)
	return g, nil
}

// FindAll retourne une page de garages et le total
func (r *GarageSQLRepository) FindAll(ctx context.Context, offset, limit int) ([]*domain.Garage, int64, error) {
	var total int64
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM garages`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM garages g ORDER BY g.created_at DESC OFFSET $1 LIMIT $2`, garageColumns)
	garages, err := r.queryGarages(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return garages, total, nil
}

// FindByVille retourne les garages d'une ville
func (r *GarageSQLRepository) FindByVille(ctx context.Context, ville string) ([]*domain.Garage, error) {
	query := fmt.Sprintf(`SELECT %s FROM garages g WHERE g.ville = $1`, garageColumns)
	return r.queryGarages(ctx, query, ville)
}

// FindByName retourne les garages dont le nom contient la chaîne
func (r *GarageSQLRepository) FindByName(ctx context.Context, name string) ([]*domain.Garage, error) {
	query := fmt.Sprintf(`SELECT %s FROM garages g WHERE g.name ILIKE '%%' || $1 || '%%'`, garageColumns)
	return r.queryGarages(ctx, query, name)
}

// ExistsByID vérifie l'existence d'un garage
func (r *GarageSQLRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM garages WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// CountVehicules compte les véhicules persistés d'un garage
func (r *GarageSQLRepository) CountVehicules(ctx context.Context, garageID uuid.UUID) (int, error) {
	var count int
	err := r.QueryRow(ctx, `SELECT COUNT(*) FROM vehicules WHERE garage_id = $1`, garageID).Scan(&count)
	return count, err
}

// Update persiste les champs scalaires du garage sous CAS de version
func (r *GarageSQLRepository) Update(ctx context.Context, g *domain.Garage) error {
	horaires, err := marshalHoraires(g.Horaires())
	if err != nil {
		return err
	}

	query := `
		UPDATE garages
		SET name = $1, rue = $2, ville = $3, code_postal = $4, pays = $5,
		    telephone = $6, email = $7, horaires = $8,
		    version = version + 1, updated_at = $9
		WHERE id = $10 AND version = $11
	`
	addr := g.Address()
	result, err := r.Exec(ctx, query,
		g.Name(), addr.Rue(), addr.Ville(), addr.CodePostal(), addr.Pays(),
		g.Telephone(), g.Email(), horaires, g.UpdatedAt(), g.ID(), g.Version())
	if err != nil {
		return err
	}
	return checkVersionCAS(result, g.ID())
}

// SaveVehicule insère le véhicule et incrémente la version du garage
// dans une même transaction
func (r *GarageSQLRepository) SaveVehicule(ctx context.Context, g *domain.Garage, v *domain.Vehicule) error {
	return r.uow.Execute(ctx, func(tx *sql.Tx) error {
		repo := r.WithTx(tx)

		result, err := repo.Exec(ctx,
			`UPDATE garages SET version = version + 1, updated_at = $1 WHERE id = $2 AND version = $3`,
			g.UpdatedAt(), g.ID(), g.Version())
		if err != nil {
			return err
		}
		if err := checkVersionCAS(result, g.ID()); err != nil {
			return err
		}

		_, err = repo.Exec(ctx, `
			INSERT INTO vehicules (id, garage_id, modele_id, brand, annee_fabrication, type_carburant, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			v.ID(), v.GarageID(), v.ModeleID(), v.Brand(), v.AnneeFabrication(), string(v.TypeCarburant()), v.CreatedAt(), v.UpdatedAt())
		return err
	})
}

// DeleteVehicule supprime le véhicule et incrémente la version du garage
// dans une même transaction
func (r *GarageSQLRepository) DeleteVehicule(ctx context.Context, g *domain.Garage, vehiculeID uuid.UUID) error {
	return r.uow.Execute(ctx, func(tx *sql.Tx) error {
		repo := r.WithTx(tx)

		result, err := repo.Exec(ctx,
			`UPDATE garages SET version = version + 1, updated_at = $1 WHERE id = $2 AND version = $3`,
			g.UpdatedAt(), g.ID(), g.Version())
		if err != nil {
			return err
		}
		if err := checkVersionCAS(result, g.ID()); err != nil {
			return err
		}

		_, err = repo.Exec(ctx, `DELETE FROM vehicules WHERE id = $1`, vehiculeID)
		return err
	})
}

// DeleteByID supprime le garage, ses véhicules et leurs accessoires
// suivent par cascade
func (r *GarageSQLRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := r.Exec(ctx, `DELETE FROM garages WHERE id = $1`, id)
	return err
}

func (r *GarageSQLRepository) queryGarages(ctx context.Context, query string, args ...interface{}) ([]*domain.Garage, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	garages := make([]*domain.Garage, 0)
	for rows.Next() {
		g, err := scanGarage(rows)
		if err != nil {
			return nil, err
		}
		vehicules, err := r.findVehicules(ctx, g.ID())
		if err != nil {
			return nil, err
		}
		g.SetVehicules(vehicules)
		garages = append(garages, g)
	}
	return garages, rows.Err()
}

func (r *GarageSQLRepository) findVehicules(ctx context.Context, garageID uuid.UUID) ([]*domain.Vehicule, error) {
	rows, err := r.Query(ctx, `
		SELECT id, garage_id, modele_id, brand, annee_fabrication, type_carburant, created_at, updated_at
		FROM vehicules WHERE garage_id = $1`, garageID)
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

// rowScanner abstrait sql.Row et sql.Rows pour les fonctions de scan
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGarage(row rowScanner) (*domain.Garage, error) {
	var (
		id                   uuid.UUID
		name                 string
		rue, ville, cp, pays string
		telephone, email     string
		horairesRaw          []byte
		version              int64
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &name, &rue, &ville, &cp, &pays, &telephone, &email, &horairesRaw, &version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	address, err := domain.NewAddress(rue, ville, cp, pays)
	if err != nil {
		return nil, err
	}
	horaires, err := unmarshalHoraires(horairesRaw)
	if err != nil {
		return nil, err
	}

	g, err := domain.NewGarage(id, name, address, telephone, email, horaires, createdAt)
	if err != nil {
		return nil, err
	}
	g.SetVersion(version)
	g.SetUpdatedAt(updatedAt)
	return g, nil
}

func scanVehicule(row rowScanner) (*domain.Vehicule, error) {
	var (
		id, modeleID         uuid.UUID
		garageID             uuid.UUID
		brand                string
		annee                int
		typeCarburant        string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &garageID, &modeleID, &brand, &annee, &typeCarburant, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	v, err := domain.NewVehicule(id, modeleID, brand, annee, domain.TypeCarburant(typeCarburant), createdAt)
	if err != nil {
		return nil, err
	}
	v.SetGarageID(garageID)
	v.SetUpdatedAt(updatedAt)
	return v, nil
}

// checkVersionCAS traduit "zéro ligne affectée" en conflit de version
func checkVersionCAS(result sql.Result, garageID uuid.UUID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &domain.ConcurrencyConflictError{GarageID: garageID}
	}
	return nil
}

// creneauJSON forme persistée d'un créneau horaire
type creneauJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func marshalHoraires(horaires domain.Horaires) ([]byte, error) {
	out := make(map[string][]creneauJSON, len(horaires))
	for jour, creneaux := range horaires {
		list := make([]creneauJSON, 0, len(creneaux))
		for _, c := range creneaux {
			list = append(list, creneauJSON{Start: c.StartString(), End: c.EndString()})
		}
		out[weekdayName(jour)] = list
	}
	return json.Marshal(out)
}

func unmarshalHoraires(raw []byte) (domain.Horaires, error) {
	var in map[string][]creneauJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}

	horaires := make(domain.Horaires, len(in))
	for jour, creneaux := range in {
		weekday, err := parseWeekday(jour)
		if err != nil {
			return nil, err
		}
		for _, c := range creneaux {
			ot, err := domain.ParseOpeningTime(c.Start, c.End)
			if err != nil {
				return nil, err
			}
			horaires[weekday] = append(horaires[weekday], ot)
		}
	}
	return horaires, nil
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

func weekdayName(d time.Weekday) string {
	switch d {
	case time.Sunday:
		return "sunday"
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	default:
		return "saturday"
	}
}

func parseWeekday(s string) (time.Weekday, error) {
	if d, ok := weekdayNames[s]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
