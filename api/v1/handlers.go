package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"garage/internal/garage/application"
	"garage/internal/garage/domain"
)

// Handlers expose les services applicatifs sur l'API REST v1
type Handlers struct {
	garageService     *application.GarageService
	vehiculeService   *application.VehiculeService
	accessoireService *application.AccessoireService
	logger            *zap.Logger
}

// NewHandlers crée une nouvelle instance des handlers v1
func NewHandlers(
	garageService *application.GarageService,
	vehiculeService *application.VehiculeService,
	accessoireService *application.AccessoireService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		garageService:     garageService,
		vehiculeService:   vehiculeService,
		accessoireService: accessoireService,
		logger:            logger,
	}
}

// Register branche les routes de l'API v1 sur le mux
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/garages", h.CreateGarage)
	mux.HandleFunc("GET /api/v1/garages", h.ListGarages)
	mux.HandleFunc("GET /api/v1/garages/search", h.SearchGarages)
	mux.HandleFunc("GET /api/v1/garages/{id}", h.GetGarage)
	mux.HandleFunc("PUT /api/v1/garages/{id}", h.UpdateGarage)
	mux.HandleFunc("DELETE /api/v1/garages/{id}", h.DeleteGarage)

	mux.HandleFunc("POST /api/v1/garages/{id}/vehicules", h.RegisterVehicule)
	mux.HandleFunc("GET /api/v1/garages/{id}/vehicules", h.ListVehicules)
	mux.HandleFunc("DELETE /api/v1/garages/{id}/vehicules/{vehiculeId}", h.DeleteVehicule)

	mux.HandleFunc("GET /api/v1/vehicules/{id}", h.GetVehicule)
	mux.HandleFunc("PUT /api/v1/vehicules/{id}", h.UpdateVehicule)

	mux.HandleFunc("POST /api/v1/vehicules/{id}/accessoires", h.CreateAccessoire)
	mux.HandleFunc("GET /api/v1/vehicules/{id}/accessoires", h.ListAccessoires)
	mux.HandleFunc("PUT /api/v1/vehicules/{id}/accessoires/{accessoireId}", h.UpdateAccessoire)
	mux.HandleFunc("DELETE /api/v1/vehicules/{id}/accessoires/{accessoireId}", h.DeleteAccessoire)
}

// CreateGarage handler pour POST /api/v1/garages
func (h *Handlers) CreateGarage(w http.ResponseWriter, r *http.Request) {
	var req CreateGarageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	horaires, err := toHorairesInput(req.Horaires)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := h.garageService.Create(r.Context(), application.CreateGarageInput{
		Name:       req.Name,
		Rue:        req.Rue,
		Ville:      req.Ville,
		CodePostal: req.CodePostal,
		Pays:       req.Pays,
		Telephone:  req.Telephone,
		Email:      req.Email,
		Horaires:   horaires,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toGarageResponse(g))
}

// GetGarage handler pour GET /api/v1/garages/{id}
func (h *Handlers) GetGarage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	g, err := h.garageService.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toGarageResponse(g))
}

// ListGarages handler pour GET /api/v1/garages
// Supporte la pagination (page, size) et les filtres ville et name.
func (h *Handlers) ListGarages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if ville := query.Get("ville"); ville != "" {
		garages, err := h.garageService.FindByVille(r.Context(), ville)
		if err != nil {
			h.handleError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, toGarageResponses(garages))
		return
	}

	if name := query.Get("name"); name != "" {
		garages, err := h.garageService.FindByName(r.Context(), name)
		if err != nil {
			h.handleError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, toGarageResponses(garages))
		return
	}

	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 0 {
		page = 0
	}
	size, err := strconv.Atoi(query.Get("size"))
	if err != nil || size <= 0 {
		size = 20
	}

	result, err := h.garageService.List(r.Context(), page, size)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, GaragePageResponse{
		Content:       toGarageResponses(result.Garages),
		Page:          result.Page,
		TotalPages:    result.TotalPages,
		TotalElements: result.TotalElements,
	})
}

// SearchGarages handler pour GET /api/v1/garages/search
// Croise le type de carburant des véhicules et le nom d'un accessoire.
func (h *Handlers) SearchGarages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	carburant, err := domain.ParseTypeCarburant(query.Get("typeCarburant"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	accessoire := query.Get("accessoire")
	if accessoire == "" {
		h.writeError(w, http.StatusBadRequest, "accessoire parameter is required")
		return
	}

	garages, err := h.garageService.SearchByCarburantAndAccessoire(r.Context(), carburant, accessoire)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toGarageResponses(garages))
}

// UpdateGarage handler pour PUT /api/v1/garages/{id}
func (h *Handlers) UpdateGarage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateGarageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	horaires, err := toHorairesInput(req.Horaires)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := h.garageService.Update(r.Context(), id, application.UpdateGarageInput{
		Name:       req.Name,
		Rue:        req.Rue,
		Ville:      req.Ville,
		CodePostal: req.CodePostal,
		Pays:       req.Pays,
		Telephone:  req.Telephone,
		Email:      req.Email,
		Horaires:   horaires,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toGarageResponse(g))
}

// DeleteGarage handler pour DELETE /api/v1/garages/{id}
func (h *Handlers) DeleteGarage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.garageService.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegisterVehicule handler pour POST /api/v1/garages/{id}/vehicules
func (h *Handlers) RegisterVehicule(w http.ResponseWriter, r *http.Request) {
	garageID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req RegisterVehiculeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	modeleID, err := uuid.Parse(req.ModeleID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid modeleId")
		return
	}

	v, err := h.vehiculeService.Register(r.Context(), garageID, application.RegisterVehiculeInput{
		ModeleID:         modeleID,
		Brand:            req.Brand,
		AnneeFabrication: req.AnneeFabrication,
		TypeCarburant:    req.TypeCarburant,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toVehiculeResponse(v))
}

// ListVehicules handler pour GET /api/v1/garages/{id}/vehicules
func (h *Handlers) ListVehicules(w http.ResponseWriter, r *http.Request) {
	garageID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	vehicules, err := h.vehiculeService.ListByGarage(r.Context(), garageID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	responses := make([]VehiculeResponse, len(vehicules))
	for i, v := range vehicules {
		responses[i] = toVehiculeResponse(v)
	}
	h.writeJSON(w, http.StatusOK, responses)
}

// GetVehicule handler pour GET /api/v1/vehicules/{id}
func (h *Handlers) GetVehicule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	v, err := h.vehiculeService.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toVehiculeResponse(v))
}

// UpdateVehicule handler pour PUT /api/v1/vehicules/{id}
func (h *Handlers) UpdateVehicule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateVehiculeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := application.UpdateVehiculeInput{
		Brand:            req.Brand,
		AnneeFabrication: req.AnneeFabrication,
		TypeCarburant:    req.TypeCarburant,
	}
	if req.ModeleID != nil {
		modeleID, err := uuid.Parse(*req.ModeleID)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid modeleId")
			return
		}
		input.ModeleID = &modeleID
	}

	v, err := h.vehiculeService.Update(r.Context(), id, input)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toVehiculeResponse(v))
}

// DeleteVehicule handler pour DELETE /api/v1/garages/{id}/vehicules/{vehiculeId}
func (h *Handlers) DeleteVehicule(w http.ResponseWriter, r *http.Request) {
	garageID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	vehiculeID, ok := h.pathUUID(w, r, "vehiculeId")
	if !ok {
		return
	}

	if err := h.vehiculeService.Delete(r.Context(), garageID, vehiculeID); err != nil {
		h.handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateAccessoire handler pour POST /api/v1/vehicules/{id}/accessoires
func (h *Handlers) CreateAccessoire(w http.ResponseWriter, r *http.Request) {
	vehiculeID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CreateAccessoireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.accessoireService.Create(r.Context(), vehiculeID, application.CreateAccessoireInput{
		Nom:         req.Nom,
		Description: req.Description,
		Prix:        req.Prix,
		Type:        req.Type,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toAccessoireResponse(a))
}

// ListAccessoires handler pour GET /api/v1/vehicules/{id}/accessoires
func (h *Handlers) ListAccessoires(w http.ResponseWriter, r *http.Request) {
	vehiculeID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	accessoires, err := h.accessoireService.List(r.Context(), vehiculeID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	responses := make([]AccessoireResponse, len(accessoires))
	for i, a := range accessoires {
		responses[i] = toAccessoireResponse(a)
	}
	h.writeJSON(w, http.StatusOK, responses)
}

// UpdateAccessoire handler pour PUT /api/v1/vehicules/{id}/accessoires/{accessoireId}
func (h *Handlers) UpdateAccessoire(w http.ResponseWriter, r *http.Request) {
	vehiculeID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	accessoireID, ok := h.pathUUID(w, r, "accessoireId")
	if !ok {
		return
	}

	var req UpdateAccessoireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.accessoireService.Update(r.Context(), vehiculeID, accessoireID, application.UpdateAccessoireInput{
		Nom:         req.Nom,
		Description: req.Description,
		Prix:        req.Prix,
		Type:        req.Type,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toAccessoireResponse(a))
}

// DeleteAccessoire handler pour DELETE /api/v1/vehicules/{id}/accessoires/{accessoireId}
func (h *Handlers) DeleteAccessoire(w http.ResponseWriter, r *http.Request) {
	vehiculeID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	accessoireID, ok := h.pathUUID(w, r, "accessoireId")
	if !ok {
		return
	}

	if err := h.accessoireService.Delete(r.Context(), vehiculeID, accessoireID); err != nil {
		h.handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// handleError traduit les erreurs du domaine en statuts HTTP
func (h *Handlers) handleError(w http.ResponseWriter, err error) {
	var (
		validationErr  *domain.ValidationError
		capacityErr    *domain.CapacityExceededError
		conflictErr    *domain.ConcurrencyConflictError
		garageNotFound *domain.GarageNotFoundError
		vehNotFound    *domain.VehiculeNotFoundError
		accNotFound    *domain.AccessoireNotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &capacityErr):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &conflictErr):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &garageNotFound), errors.As(err, &vehNotFound), errors.As(err, &accNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("unhandled request error", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
