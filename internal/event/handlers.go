package event

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"garage/internal/garage/domain"
	sharedinfra "garage/internal/shared/infrastructure"
)

// processedTTL durée de rétention des IDs d'événements déjà traités
const processedTTL = 24 * time.Hour

// VehiculeCreatedHandler applique les effets de bord d'un enregistrement
// de véhicule: notification, statistiques, synchronisation externe.
//
// La livraison étant at-least-once, le handler déduplique par ID de
// véhicule: une relivraison du même événement est acquittée sans
// réappliquer les effets.
type VehiculeCreatedHandler struct {
	processed sharedinfra.Cache
	logger    *zap.Logger

	mu    sync.Mutex
	stats map[domain.TypeCarburant]int64
}

// NewVehiculeCreatedHandler crée une nouvelle instance du handler
func NewVehiculeCreatedHandler(processed sharedinfra.Cache, logger *zap.Logger) *VehiculeCreatedHandler {
	return &VehiculeCreatedHandler{
		processed: processed,
		logger:    logger,
		stats:     make(map[domain.TypeCarburant]int64),
	}
}

// Handle traite un événement de création de véhicule de manière
// idempotente
func (h *VehiculeCreatedHandler) Handle(ctx context.Context, e domain.VehiculeCreatedEvent) error {
	key := processedKey(e)
	if h.processed.Has(key) {
		h.logger.Info("duplicate vehicule event, side effects already applied",
			zap.String("vehicule_id", e.VehiculeID.String()))
		return nil
	}

	if err := h.sendNotification(ctx, e); err != nil {
		return err
	}
	h.updateStatistics(e)
	if err := h.syncExternalSystem(ctx, e); err != nil {
		return err
	}

	h.processed.Set(key, true, processedTTL)
	h.logger.Info("vehicule event processed",
		zap.String("vehicule_id", e.VehiculeID.String()),
		zap.String("garage_id", e.GarageID.String()))
	return nil
}

// StatsByCarburant retourne le nombre de véhicules enregistrés par type
// de carburant depuis le démarrage
func (h *VehiculeCreatedHandler) StatsByCarburant() map[domain.TypeCarburant]int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[domain.TypeCarburant]int64, len(h.stats))
	for k, v := range h.stats {
		out[k] = v
	}
	return out
}

func (h *VehiculeCreatedHandler) sendNotification(ctx context.Context, e domain.VehiculeCreatedEvent) error {
	// Point d'accroche pour un service d'email réel.
	h.logger.Info("notification sent for new vehicule",
		zap.String("brand", e.Brand),
		zap.String("garage_id", e.GarageID.String()))
	return nil
}

func (h *VehiculeCreatedHandler) updateStatistics(e domain.VehiculeCreatedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats[e.TypeCarburant]++
}

func (h *VehiculeCreatedHandler) syncExternalSystem(ctx context.Context, e domain.VehiculeCreatedEvent) error {
	// Point d'accroche pour la synchronisation avec un système tiers.
	h.logger.Info("external system synchronized",
		zap.String("vehicule_id", e.VehiculeID.String()))
	return nil
}

func processedKey(e domain.VehiculeCreatedEvent) string {
	return sharedinfra.NewCacheKeyBuilder().Add("event").Add("vehicule").Add(e.VehiculeID.String()).Build()
}
