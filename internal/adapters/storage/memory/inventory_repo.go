package memory

import (
	"context"
	"strings"
	"sync"

	"ganado360/internal/domain/inventory"

	"github.com/google/uuid"
)

type InventoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]inventory.Animal
	order   []string
	history []inventory.HistoryEntry
}

func NewInventoryRepo() *InventoryRepo {
	return &InventoryRepo{
		byID: make(map[string]inventory.Animal),
	}
}

func (r *InventoryRepo) CreateAnimal(ctx context.Context, a inventory.Animal) (inventory.Animal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		a.ID = uuid.NewString()
	}
	if _, exists := r.byID[a.ID]; exists {
		return inventory.Animal{}, conflict("animal already exists")
	}
	if a.Estado == "" {
		a.Estado = inventory.EstadoActivo
	}
	r.byID[a.ID] = a
	r.order = append(r.order, a.ID)
	return a, nil
}

func (r *InventoryRepo) GetAnimal(ctx context.Context, id string) (inventory.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return inventory.Animal{}, notFound("animal")
	}
	return a, nil
}

// ListAnimals respeta el orden de alta.
func (r *InventoryRepo) ListAnimals(ctx context.Context) ([]inventory.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]inventory.Animal, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out, nil
}

func (r *InventoryRepo) UpdateAnimal(ctx context.Context, a inventory.Animal) (inventory.Animal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[a.ID]; !ok {
		return inventory.Animal{}, notFound("animal")
	}
	r.byID[a.ID] = a
	return a, nil
}

func (r *InventoryRepo) AppendHistory(ctx context.Context, e inventory.HistoryEntry) (inventory.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[e.AnimalID]; !ok {
		return inventory.HistoryEntry{}, notFound("animal")
	}
	e.ID = uuid.NewString()
	r.history = append(r.history, e)
	return e, nil
}

func (r *InventoryRepo) ListHistory(ctx context.Context, animalID string) ([]inventory.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]inventory.HistoryEntry, 0)
	for _, e := range r.history {
		if e.AnimalID == animalID {
			out = append(out, e)
		}
	}
	return out, nil
}
