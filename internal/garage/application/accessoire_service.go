package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"garage/internal/garage/domain"
	shareddomain "garage/internal/shared/domain"
)

// CreateAccessoireInput porte les champs de création d'un accessoire
type CreateAccessoireInput struct {
	Nom         string
	Description string
	Prix        float64
	Type        string
}

// UpdateAccessoireInput porte les champs d'une mise à jour partielle
type UpdateAccessoireInput struct {
	Nom         *string
	Description *string
	Prix        *float64
	Type        *string
}

// AccessoireService gère les accessoires d'un véhicule
type AccessoireService struct {
	accessoireRepo domain.AccessoireRepository
	vehiculeRepo   domain.VehiculeRepository
	logger         *zap.Logger
}

// NewAccessoireService crée une nouvelle instance de AccessoireService
func NewAccessoireService(
	accessoireRepo domain.AccessoireRepository,
	vehiculeRepo domain.VehiculeRepository,
	logger *zap.Logger,
) *AccessoireService {
	return &AccessoireService{
		accessoireRepo: accessoireRepo,
		vehiculeRepo:   vehiculeRepo,
		logger:         logger,
	}
}

// Create ajoute un accessoire à un véhicule existant
func (s *AccessoireService) Create(ctx context.Context, vehiculeID uuid.UUID, in CreateAccessoireInput) (*domain.Accessoire, error) {
	v, err := s.vehiculeRepo.FindByID(ctx, vehiculeID)
	if err != nil {
		return nil, err
	}

	prix, err := shareddomain.NewPrice(in.Prix)
	if err != nil {
		return nil, &domain.ValidationError{Field: "prix", Rule: err.Error()}
	}

	typ, err := domain.ParseTypeAccessoire(in.Type)
	if err != nil {
		return nil, err
	}

	a, err := domain.NewAccessoire(uuid.New(), in.Nom, in.Description, prix, typ, time.Now())
	if err != nil {
		return nil, err
	}

	if err := v.AddAccessoire(a); err != nil {
		return nil, err
	}

	if err := s.accessoireRepo.Save(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("accessoire created",
		zap.String("accessoire_id", a.ID().String()),
		zap.String("vehicule_id", vehiculeID.String()))
	return a, nil
}

// List retourne les accessoires d'un véhicule
func (s *AccessoireService) List(ctx context.Context, vehiculeID uuid.UUID) ([]*domain.Accessoire, error) {
	exists, err := s.vehiculeRepo.ExistsByID(ctx, vehiculeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &domain.VehiculeNotFoundError{ID: vehiculeID}
	}
	return s.accessoireRepo.FindByVehiculeID(ctx, vehiculeID)
}

// Update applique une mise à jour partielle à un accessoire
func (s *AccessoireService) Update(ctx context.Context, vehiculeID, accessoireID uuid.UUID, in UpdateAccessoireInput) (*domain.Accessoire, error) {
	exists, err := s.vehiculeRepo.ExistsByID(ctx, vehiculeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &domain.VehiculeNotFoundError{ID: vehiculeID}
	}

	a, err := s.accessoireRepo.FindByID(ctx, accessoireID)
	if err != nil {
		return nil, err
	}
	if a.VehiculeID() != vehiculeID {
		return nil, &domain.AccessoireNotFoundError{ID: accessoireID}
	}

	update := domain.UpdateAccessoire{
		Nom:         in.Nom,
		Description: in.Description,
	}
	if in.Prix != nil {
		prix, err := shareddomain.NewPrice(*in.Prix)
		if err != nil {
			return nil, &domain.ValidationError{Field: "prix", Rule: err.Error()}
		}
		update.Prix = &prix
	}
	if in.Type != nil {
		typ, err := domain.ParseTypeAccessoire(*in.Type)
		if err != nil {
			return nil, err
		}
		update.Type = &typ
	}

	if err := a.Update(update); err != nil {
		return nil, err
	}
	if err := s.accessoireRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete supprime un accessoire d'un véhicule
func (s *AccessoireService) Delete(ctx context.Context, vehiculeID, accessoireID uuid.UUID) error {
	exists, err := s.vehiculeRepo.ExistsByID(ctx, vehiculeID)
	if err != nil {
		return err
	}
	if !exists {
		return &domain.VehiculeNotFoundError{ID: vehiculeID}
	}

	a, err := s.accessoireRepo.FindByID(ctx, accessoireID)
	if err != nil {
		return err
	}
	if a.VehiculeID() != vehiculeID {
		return &domain.AccessoireNotFoundError{ID: accessoireID}
	}
	return s.accessoireRepo.DeleteByID(ctx, accessoireID)
}
