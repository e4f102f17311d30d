package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"garage/internal/garage/domain"
	sharedinfra "garage/internal/shared/infrastructure"
)

// maxAdmissionAttempts nombre de tentatives d'admission avant de
// remonter le conflit de concurrence à l'appelant
const maxAdmissionAttempts = 3

// RegisterVehiculeInput porte les champs d'enregistrement d'un véhicule
type RegisterVehiculeInput struct {
	ModeleID         uuid.UUID
	Brand            string
	AnneeFabrication int
	TypeCarburant    string
}

// UpdateVehiculeInput porte les champs d'une mise à jour partielle
type UpdateVehiculeInput struct {
	ModeleID         *uuid.UUID
	Brand            *string
	AnneeFabrication *int
	TypeCarburant    *string
}

// VehiculeService gère l'enregistrement des véhicules sous contrôle
// d'admission et la publication des événements d'enregistrement.
//
// Le protocole d'admission est la concurrence optimiste par jeton de
// version: lecture de l'agrégat (parc + version), vérification de
// capacité locale à l'agrégat, puis commit conditionné à la version lue.
// Un conflit déclenche une relecture et une nouvelle tentative, dans la
// limite de maxAdmissionAttempts. Les admissions de garages distincts ne
// se sérialisent jamais entre elles.
type VehiculeService struct {
	garageRepo   domain.GarageRepository
	vehiculeRepo domain.VehiculeRepository
	publisher    domain.DomainEventPublisher
	cache        sharedinfra.Cache
	logger       *zap.Logger
}

// NewVehiculeService crée une nouvelle instance de VehiculeService. Le
// cache est celui des lectures de garages: toute mutation du parc
// invalide l'entrée du garage concerné.
func NewVehiculeService(
	garageRepo domain.GarageRepository,
	vehiculeRepo domain.VehiculeRepository,
	publisher domain.DomainEventPublisher,
	cache sharedinfra.Cache,
	logger *zap.Logger,
) *VehiculeService {
	return &VehiculeService{
		garageRepo:   garageRepo,
		vehiculeRepo: vehiculeRepo,
		publisher:    publisher,
		cache:        cache,
		logger:       logger,
	}
}

// Register enregistre un nouveau véhicule dans un garage.
//
// L'événement VehiculeCreatedEvent n'est construit et remis au publisher
// qu'après le commit durable de la mutation: un enregistrement rejeté ou
// annulé ne publie rien. Un échec de publication est journalisé mais ne
// remonte jamais à l'appelant, l'enregistrement ayant déjà réussi.
func (s *VehiculeService) Register(ctx context.Context, garageID uuid.UUID, in RegisterVehiculeInput) (*domain.Vehicule, error) {
	typeCarburant, err := domain.ParseTypeCarburant(in.TypeCarburant)
	if err != nil {
		return nil, err
	}

	var lastConflict error
	for attempt := 1; attempt <= maxAdmissionAttempts; attempt++ {
		g, err := s.garageRepo.FindByID(ctx, garageID)
		if err != nil {
			return nil, err
		}

		v, err := domain.NewVehicule(uuid.New(), in.ModeleID, in.Brand, in.AnneeFabrication, typeCarburant, time.Now())
		if err != nil {
			return nil, err
		}

		if err := g.AddVehicle(v); err != nil {
			return nil, err
		}

		err = s.garageRepo.SaveVehicule(ctx, g, v)
		var conflict *domain.ConcurrencyConflictError
		if errors.As(err, &conflict) {
			lastConflict = err
			s.logger.Debug("admission conflict, retrying with a fresh read",
				zap.String("garage_id", garageID.String()),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}

		s.cache.Delete(garageCacheKey(garageID))
		s.logger.Info("vehicule registered",
			zap.String("vehicule_id", v.ID().String()),
			zap.String("garage_id", garageID.String()),
			zap.String("brand", v.Brand()))

		event := domain.NewVehiculeCreatedEvent(v)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("post-commit event publication failed",
				zap.String("vehicule_id", v.ID().String()),
				zap.String("garage_id", garageID.String()),
				zap.Error(&domain.PublicationError{Cause: err}))
		}
		return v, nil
	}

	s.logger.Warn("admission abandoned after repeated conflicts",
		zap.String("garage_id", garageID.String()),
		zap.Int("attempts", maxAdmissionAttempts))
	return nil, lastConflict
}

// Get retourne un véhicule par son ID
func (s *VehiculeService) Get(ctx context.Context, id uuid.UUID) (*domain.Vehicule, error) {
	return s.vehiculeRepo.FindByID(ctx, id)
}

// ListByGarage retourne les véhicules d'un garage
func (s *VehiculeService) ListByGarage(ctx context.Context, garageID uuid.UUID) ([]*domain.Vehicule, error) {
	exists, err := s.garageRepo.ExistsByID(ctx, garageID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &domain.GarageNotFoundError{ID: garageID}
	}
	return s.vehiculeRepo.FindByGarageID(ctx, garageID)
}

// Update applique une mise à jour partielle à un véhicule
func (s *VehiculeService) Update(ctx context.Context, id uuid.UUID, in UpdateVehiculeInput) (*domain.Vehicule, error) {
	v, err := s.vehiculeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update := domain.UpdateVehicule{
		ModeleID:         in.ModeleID,
		Brand:            in.Brand,
		AnneeFabrication: in.AnneeFabrication,
	}
	if in.TypeCarburant != nil {
		tc, err := domain.ParseTypeCarburant(*in.TypeCarburant)
		if err != nil {
			return nil, err
		}
		update.TypeCarburant = &tc
	}

	if err := v.Update(update); err != nil {
		return nil, err
	}
	if err := s.vehiculeRepo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Delete retire un véhicule de son garage et le supprime. La suppression
// passe par le même CAS de version que l'admission.
func (s *VehiculeService) Delete(ctx context.Context, garageID, vehiculeID uuid.UUID) error {
	exists, err := s.vehiculeRepo.ExistsByID(ctx, vehiculeID)
	if err != nil {
		return err
	}
	if !exists {
		return &domain.VehiculeNotFoundError{ID: vehiculeID}
	}

	var lastConflict error
	for attempt := 1; attempt <= maxAdmissionAttempts; attempt++ {
		g, err := s.garageRepo.FindByID(ctx, garageID)
		if err != nil {
			return err
		}

		g.RemoveVehicle(vehiculeID)

		err = s.garageRepo.DeleteVehicule(ctx, g, vehiculeID)
		var conflict *domain.ConcurrencyConflictError
		if errors.As(err, &conflict) {
			lastConflict = err
			continue
		}
		if err == nil {
			s.cache.Delete(garageCacheKey(garageID))
		}
		return err
	}
	return lastConflict
}
