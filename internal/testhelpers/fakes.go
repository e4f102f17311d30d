package testhelpers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"garage/internal/garage/domain"
)

// InMemoryStore état partagé des repositories en mémoire.
// Reproduit la sémantique compare-and-swap du jeton de version des garages.
type InMemoryStore struct {
	mu          sync.Mutex
	garages     map[uuid.UUID]*garageRecord
	garageOrder []uuid.UUID
	accessoires map[uuid.UUID]*domain.Accessoire
}

type garageRecord struct {
	garage        *domain.Garage
	version       int64
	vehicules     map[uuid.UUID]*domain.Vehicule
	vehiculeOrder []uuid.UUID
}

// NewInMemoryStore crée un état partagé vide
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		garages:     make(map[uuid.UUID]*garageRecord),
		accessoires: make(map[uuid.UUID]*domain.Accessoire),
	}
}

func cloneGarage(g *domain.Garage) *domain.Garage {
	clone, err := domain.NewGarage(g.ID(), g.Name(), g.Address(), g.Telephone(), g.Email(), g.Horaires(), g.CreatedAt())
	if err != nil {
		panic(fmt.Sprintf("clone of valid garage failed: %v", err))
	}
	clone.SetUpdatedAt(g.UpdatedAt())
	return clone
}

func cloneVehicule(v *domain.Vehicule) *domain.Vehicule {
	clone, err := domain.NewVehicule(v.ID(), v.ModeleID(), v.Brand(), v.AnneeFabrication(), v.TypeCarburant(), v.CreatedAt())
	if err != nil {
		panic(fmt.Sprintf("clone of valid vehicule failed: %v", err))
	}
	clone.SetGarageID(v.GarageID())
	clone.SetUpdatedAt(v.UpdatedAt())
	return clone
}

func cloneAccessoire(a *domain.Accessoire) *domain.Accessoire {
	clone, err := domain.NewAccessoire(a.ID(), a.Nom(), a.Description(), a.Prix(), a.Type(), a.CreatedAt())
	if err != nil {
		panic(fmt.Sprintf("clone of valid accessoire failed: %v", err))
	}
	clone.SetVehiculeID(a.VehiculeID())
	return clone
}

func (s *InMemoryStore) rehydrateLocked(rec *garageRecord) *domain.Garage {
	g := cloneGarage(rec.garage)
	vehicules := make([]*domain.Vehicule, 0, len(rec.vehiculeOrder))
	for _, id := range rec.vehiculeOrder {
		v := cloneVehicule(rec.vehicules[id])
		v.SetAccessoires(s.accessoiresOfLocked(id))
		vehicules = append(vehicules, v)
	}
	g.SetVehicules(vehicules)
	g.SetVersion(rec.version)
	return g
}

func (s *InMemoryStore) accessoiresOfLocked(vehiculeID uuid.UUID) []*domain.Accessoire {
	out := make([]*domain.Accessoire, 0)
	for _, a := range s.accessoires {
		if a.VehiculeID() == vehiculeID {
			out = append(out, cloneAccessoire(a))
		}
	}
	return out
}

// InMemoryGarageRepository implémentation en mémoire de domain.GarageRepository
type InMemoryGarageRepository struct {
	store *InMemoryStore
}

// NewInMemoryGarageRepository crée un repository de garages en mémoire
func NewInMemoryGarageRepository(store *InMemoryStore) *InMemoryGarageRepository {
	return &InMemoryGarageRepository{store: store}
}

func (r *InMemoryGarageRepository) Save(ctx context.Context, g *domain.Garage) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.garages[g.ID()]; exists {
		return fmt.Errorf("garage %s already exists", g.ID())
	}
	s.garages[g.ID()] = &garageRecord{
		garage:    cloneGarage(g),
		vehicules: make(map[uuid.UUID]*domain.Vehicule),
	}
	s.garageOrder = append(s.garageOrder, g.ID())
	return nil
}

func (r *InMemoryGarageRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Garage, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.garages[id]
	if !ok {
		return nil, &domain.GarageNotFoundError{ID: id}
	}
	return s.rehydrateLocked(rec), nil
}

func (r *InMemoryGarageRepository) FindAll(ctx context.Context, offset, limit int) ([]*domain.Garage, int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	total := int64(len(s.garageOrder))
	garages := make([]*domain.Garage, 0)
	for i := offset; i < len(s.garageOrder) && i < offset+limit; i++ {
		garages = append(garages, s.rehydrateLocked(s.garages[s.garageOrder[i]]))
	}
	return garages, total, nil
}

func (r *InMemoryGarageRepository) FindByVille(ctx context.Context, ville string) ([]*domain.Garage, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	garages := make([]*domain.Garage, 0)
	for _, id := range s.garageOrder {
		rec := s.garages[id]
		if rec.garage.Address().Ville() == ville {
			garages = append(garages, s.rehydrateLocked(rec))
		}
	}
	return garages, nil
}

func (r *InMemoryGarageRepository) FindByName(ctx context.Context, name string) ([]*domain.Garage, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	garages := make([]*domain.Garage, 0)
	for _, id := range s.garageOrder {
		rec := s.garages[id]
		if containsFold(rec.garage.Name(), name) {
			garages = append(garages, s.rehydrateLocked(rec))
		}
	}
	return garages, nil
}

func (r *InMemoryGarageRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.garages[id]
	return ok, nil
}

func (r *InMemoryGarageRepository) CountVehicules(ctx context.Context, garageID uuid.UUID) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.garages[garageID]
	if !ok {
		return 0, &domain.GarageNotFoundError{ID: garageID}
	}
	return len(rec.vehicules), nil
}

func (r *InMemoryGarageRepository) Update(ctx context.Context, g *domain.Garage) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.garages[g.ID()]
	if !ok {
		return &domain.GarageNotFoundError{ID: g.ID()}
	}
	if rec.version != g.Version() {
		return &domain.ConcurrencyConflictError{GarageID: g.ID()}
	}
	rec.garage = cloneGarage(g)
	rec.version++
	return nil
}

func (r *InMemoryGarageRepository) SaveVehicule(ctx context.Context, g *domain.Garage, v *domain.Vehicule) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.garages[g.ID()]
	if !ok {
		return &domain.GarageNotFoundError{ID: g.ID()}
	}
	if rec.version != g.Version() {
		return &domain.ConcurrencyConflictError{GarageID: g.ID()}
	}
	rec.version++
	rec.vehicules[v.ID()] = cloneVehicule(v)
	rec.vehiculeOrder = append(rec.vehiculeOrder, v.ID())
	return nil
}

func (r *InMemoryGarageRepository) DeleteVehicule(ctx context.Context, g *domain.Garage, vehiculeID uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.garages[g.ID()]
	if !ok {
		return &domain.GarageNotFoundError{ID: g.ID()}
	}
	if rec.version != g.Version() {
		return &domain.ConcurrencyConflictError{GarageID: g.ID()}
	}
	rec.version++
	delete(rec.vehicules, vehiculeID)
	for i, id := range rec.vehiculeOrder {
		if id == vehiculeID {
			rec.vehiculeOrder = append(rec.vehiculeOrder[:i], rec.vehiculeOrder[i+1:]...)
			break
		}
	}
	for id, a := range s.accessoires {
		if a.VehiculeID() == vehiculeID {
			delete(s.accessoires, id)
		}
	}
	return nil
}

func (r *InMemoryGarageRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.garages[id]
	if !ok {
		return &domain.GarageNotFoundError{ID: id}
	}
	for vehiculeID := range rec.vehicules {
		for accID, a := range s.accessoires {
			if a.VehiculeID() == vehiculeID {
				delete(s.accessoires, accID)
			}
		}
	}
	delete(s.garages, id)
	for i, gid := range s.garageOrder {
		if gid == id {
			s.garageOrder = append(s.garageOrder[:i], s.garageOrder[i+1:]...)
			break
		}
	}
	return nil
}

// InMemoryVehiculeRepository implémentation en mémoire de domain.VehiculeRepository
type InMemoryVehiculeRepository struct {
	store *InMemoryStore
}

// NewInMemoryVehiculeRepository crée un repository de véhicules en mémoire
func NewInMemoryVehiculeRepository(store *InMemoryStore) *InMemoryVehiculeRepository {
	return &InMemoryVehiculeRepository{store: store}
}

func (r *InMemoryVehiculeRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Vehicule, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.garages {
		if v, ok := rec.vehicules[id]; ok {
			clone := cloneVehicule(v)
			clone.SetAccessoires(s.accessoiresOfLocked(id))
			return clone, nil
		}
	}
	return nil, &domain.VehiculeNotFoundError{ID: id}
}

func (r *InMemoryVehiculeRepository) FindByGarageID(ctx context.Context, garageID uuid.UUID) ([]*domain.Vehicule, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.garages[garageID]
	if !ok {
		return nil, &domain.GarageNotFoundError{ID: garageID}
	}
	vehicules := make([]*domain.Vehicule, 0, len(rec.vehiculeOrder))
	for _, id := range rec.vehiculeOrder {
		v := cloneVehicule(rec.vehicules[id])
		v.SetAccessoires(s.accessoiresOfLocked(id))
		vehicules = append(vehicules, v)
	}
	return vehicules, nil
}

func (r *InMemoryVehiculeRepository) FindByTypeCarburant(ctx context.Context, typeCarburant domain.TypeCarburant) ([]*domain.Vehicule, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	vehicules := make([]*domain.Vehicule, 0)
	for _, gid := range s.garageOrder {
		rec := s.garages[gid]
		for _, id := range rec.vehiculeOrder {
			v := rec.vehicules[id]
			if v.TypeCarburant() == typeCarburant {
				clone := cloneVehicule(v)
				clone.SetAccessoires(s.accessoiresOfLocked(id))
				vehicules = append(vehicules, clone)
			}
		}
	}
	return vehicules, nil
}

func (r *InMemoryVehiculeRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.garages {
		if _, ok := rec.vehicules[id]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryVehiculeRepository) Update(ctx context.Context, v *domain.Vehicule) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.garages {
		if _, ok := rec.vehicules[v.ID()]; ok {
			rec.vehicules[v.ID()] = cloneVehicule(v)
			return nil
		}
	}
	return &domain.VehiculeNotFoundError{ID: v.ID()}
}

// InMemoryAccessoireRepository implémentation en mémoire de domain.AccessoireRepository
type InMemoryAccessoireRepository struct {
	store *InMemoryStore
}

// NewInMemoryAccessoireRepository crée un repository d'accessoires en mémoire
func NewInMemoryAccessoireRepository(store *InMemoryStore) *InMemoryAccessoireRepository {
	return &InMemoryAccessoireRepository{store: store}
}

func (r *InMemoryAccessoireRepository) Save(ctx context.Context, a *domain.Accessoire) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessoires[a.ID()] = cloneAccessoire(a)
	return nil
}

func (r *InMemoryAccessoireRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Accessoire, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accessoires[id]
	if !ok {
		return nil, &domain.AccessoireNotFoundError{ID: id}
	}
	return cloneAccessoire(a), nil
}

func (r *InMemoryAccessoireRepository) FindByVehiculeID(ctx context.Context, vehiculeID uuid.UUID) ([]*domain.Accessoire, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessoiresOfLocked(vehiculeID), nil
}

func (r *InMemoryAccessoireRepository) Update(ctx context.Context, a *domain.Accessoire) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accessoires[a.ID()]; !ok {
		return &domain.AccessoireNotFoundError{ID: a.ID()}
	}
	s.accessoires[a.ID()] = cloneAccessoire(a)
	return nil
}

func (r *InMemoryAccessoireRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accessoires, id)
	return nil
}

// RecordingPublisher implémentation de domain.DomainEventPublisher qui
// enregistre les événements publiés
type RecordingPublisher struct {
	mu     sync.Mutex
	events []domain.VehiculeCreatedEvent
	// Err est retourné par Publish quand il est non nil
	Err error
}

// NewRecordingPublisher crée un publisher d'enregistrement
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(ctx context.Context, e domain.VehiculeCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, e)
	return nil
}

// Events retourne une copie des événements publiés
func (p *RecordingPublisher) Events() []domain.VehiculeCreatedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.VehiculeCreatedEvent, len(p.events))
	copy(out, p.events)
	return out
}

// FakeMessageWriter implémentation en mémoire de event.MessageWriter
type FakeMessageWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	// FailTimes fait échouer les N prochains appels à WriteMessages
	FailTimes int
}

// NewFakeMessageWriter crée un writer Kafka en mémoire
func NewFakeMessageWriter() *FakeMessageWriter {
	return &FakeMessageWriter{}
}

func (w *FakeMessageWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FailTimes > 0 {
		w.FailTimes--
		return fmt.Errorf("broker unavailable")
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

// Messages retourne une copie des messages écrits
func (w *FakeMessageWriter) Messages() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]kafka.Message, len(w.messages))
	copy(out, w.messages)
	return out
}

// FakeMessageReader implémentation en mémoire de event.MessageReader.
// FetchMessage consomme les messages poussés via Push, puis bloque
// jusqu'à l'annulation du contexte.
type FakeMessageReader struct {
	mu        sync.Mutex
	queue     chan kafka.Message
	committed []kafka.Message
}

// NewFakeMessageReader crée un reader Kafka en mémoire
func NewFakeMessageReader(capacity int) *FakeMessageReader {
	return &FakeMessageReader{queue: make(chan kafka.Message, capacity)}
}

// Push ajoute un message à la file de consommation
func (r *FakeMessageReader) Push(msg kafka.Message) {
	r.queue <- msg
}

func (r *FakeMessageReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-r.queue:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *FakeMessageReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

// Committed retourne une copie des messages acquittés
func (r *FakeMessageReader) Committed() []kafka.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]kafka.Message, len(r.committed))
	copy(out, r.committed)
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
