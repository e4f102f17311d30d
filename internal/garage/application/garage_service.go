package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"garage/internal/garage/domain"
	sharedinfra "garage/internal/shared/infrastructure"
)

// garageCacheTTL durée de vie des lectures de garages en cache
const garageCacheTTL = 5 * time.Minute

// CreneauInput représente un créneau horaire au format "HH:MM"
type CreneauInput struct {
	Start string
	End   string
}

// CreateGarageInput porte les champs de création d'un garage
type CreateGarageInput struct {
	Name       string
	Rue        string
	Ville      string
	CodePostal string
	Pays       string
	Telephone  string
	Email      string
	Horaires   map[time.Weekday][]CreneauInput
}

// UpdateGarageInput porte les champs d'une mise à jour partielle,
// nil signifie "inchangé"
type UpdateGarageInput struct {
	Name       *string
	Rue        *string
	Ville      *string
	CodePostal *string
	Pays       *string
	Telephone  *string
	Email      *string
	Horaires   map[time.Weekday][]CreneauInput
}

// GarageListResult une page de garages avec les métadonnées de pagination
type GarageListResult struct {
	Garages       []*domain.Garage
	Page          int
	TotalPages    int
	TotalElements int64
}

// GarageService gère le cycle de vie des garages. Les lectures par ID
// passent par un cache TTL invalidé à chaque mutation.
type GarageService struct {
	garageRepo     domain.GarageRepository
	vehiculeRepo   domain.VehiculeRepository
	accessoireRepo domain.AccessoireRepository
	cache          sharedinfra.Cache
	logger         *zap.Logger
}

// NewGarageService crée une nouvelle instance de GarageService
func NewGarageService(
	garageRepo domain.GarageRepository,
	vehiculeRepo domain.VehiculeRepository,
	accessoireRepo domain.AccessoireRepository,
	cache sharedinfra.Cache,
	logger *zap.Logger,
) *GarageService {
	return &GarageService{
		garageRepo:     garageRepo,
		vehiculeRepo:   vehiculeRepo,
		accessoireRepo: accessoireRepo,
		cache:          cache,
		logger:         logger,
	}
}

// Create crée un nouveau garage après validation de tous les invariants
func (s *GarageService) Create(ctx context.Context, in CreateGarageInput) (*domain.Garage, error) {
	address, err := domain.NewAddress(in.Rue, in.Ville, in.CodePostal, in.Pays)
	if err != nil {
		return nil, err
	}

	horaires, err := buildHoraires(in.Horaires)
	if err != nil {
		return nil, err
	}

	g, err := domain.NewGarage(uuid.New(), in.Name, address, in.Telephone, in.Email, horaires, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.garageRepo.Save(ctx, g); err != nil {
		return nil, err
	}

	s.logger.Info("garage created",
		zap.String("garage_id", g.ID().String()),
		zap.String("ville", g.Address().Ville()))
	return g, nil
}

// Get retourne un garage par son ID, depuis le cache si possible
func (s *GarageService) Get(ctx context.Context, id uuid.UUID) (*domain.Garage, error) {
	key := garageCacheKey(id)
	if cached, found := s.cache.Get(key); found {
		return cached.(*domain.Garage), nil
	}

	g, err := s.garageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, g, garageCacheTTL)
	return g, nil
}

// List retourne une page de garages
func (s *GarageService) List(ctx context.Context, page, size int) (*GarageListResult, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}

	garages, total, err := s.garageRepo.FindAll(ctx, page*size, size)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return &GarageListResult{
		Garages:       garages,
		Page:          page,
		TotalPages:    totalPages,
		TotalElements: total,
	}, nil
}

// Update applique une mise à jour partielle à un garage
func (s *GarageService) Update(ctx context.Context, id uuid.UUID, in UpdateGarageInput) (*domain.Garage, error) {
	g, err := s.garageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update := domain.UpdateGarage{
		Name:      in.Name,
		Telephone: in.Telephone,
		Email:     in.Email,
	}

	if in.Rue != nil || in.Ville != nil || in.CodePostal != nil || in.Pays != nil {
		current := g.Address()
		address, err := domain.NewAddress(
			orDefault(in.Rue, current.Rue()),
			orDefault(in.Ville, current.Ville()),
			orDefault(in.CodePostal, current.CodePostal()),
			orDefault(in.Pays, current.Pays()),
		)
		if err != nil {
			return nil, err
		}
		update.Address = &address
	}

	if in.Horaires != nil {
		horaires, err := buildHoraires(in.Horaires)
		if err != nil {
			return nil, err
		}
		update.Horaires = horaires
	}

	if err := g.Update(update); err != nil {
		return nil, err
	}

	if err := s.garageRepo.Update(ctx, g); err != nil {
		return nil, err
	}

	s.cache.Delete(garageCacheKey(id))
	return g, nil
}

// Delete supprime un garage et, en cascade, ses véhicules
func (s *GarageService) Delete(ctx context.Context, id uuid.UUID) error {
	exists, err := s.garageRepo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return &domain.GarageNotFoundError{ID: id}
	}

	if err := s.garageRepo.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.cache.Delete(garageCacheKey(id))
	s.logger.Info("garage deleted", zap.String("garage_id", id.String()))
	return nil
}

// FindByVille retourne les garages d'une ville
func (s *GarageService) FindByVille(ctx context.Context, ville string) ([]*domain.Garage, error) {
	return s.garageRepo.FindByVille(ctx, ville)
}

// FindByName retourne les garages dont le nom contient la chaîne
func (s *GarageService) FindByName(ctx context.Context, name string) ([]*domain.Garage, error) {
	return s.garageRepo.FindByName(ctx, name)
}

// SearchByCarburantAndAccessoire retourne les garages ayant au moins un
// véhicule du type de carburant donné équipé d'un accessoire dont le nom
// contient la chaîne donnée
func (s *GarageService) SearchByCarburantAndAccessoire(ctx context.Context, typeCarburant domain.TypeCarburant, nomAccessoire string) ([]*domain.Garage, error) {
	vehicules, err := s.vehiculeRepo.FindByTypeCarburant(ctx, typeCarburant)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(nomAccessoire)
	seen := make(map[uuid.UUID]bool)
	garages := make([]*domain.Garage, 0)

	for _, v := range vehicules {
		if v.GarageID() == uuid.Nil || seen[v.GarageID()] {
			continue
		}
		accessoires, err := s.accessoireRepo.FindByVehiculeID(ctx, v.ID())
		if err != nil {
			return nil, err
		}
		for _, a := range accessoires {
			if strings.Contains(strings.ToLower(a.Nom()), needle) {
				seen[v.GarageID()] = true
				g, err := s.garageRepo.FindByID(ctx, v.GarageID())
				if err != nil {
					return nil, err
				}
				garages = append(garages, g)
				break
			}
		}
	}
	return garages, nil
}

func buildHoraires(in map[time.Weekday][]CreneauInput) (domain.Horaires, error) {
	if in == nil {
		return nil, &domain.ValidationError{Field: "horaires", Rule: "cannot be empty"}
	}
	horaires := make(domain.Horaires, len(in))
	for jour, creneaux := range in {
		for _, c := range creneaux {
			ot, err := domain.ParseOpeningTime(c.Start, c.End)
			if err != nil {
				return nil, err
			}
			horaires[jour] = append(horaires[jour], ot)
		}
	}
	return horaires, nil
}

func garageCacheKey(id uuid.UUID) string {
	return sharedinfra.NewCacheKeyBuilder().Add("garage").Add(id.String()).Build()
}

func orDefault(v *string, def string) string {
	if v != nil {
		return *v
	}
	return def
}
