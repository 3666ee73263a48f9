package memory

import (
	"context"
	"sync"

	"ganado360/internal/domain/health"

	"github.com/google/uuid"
)

// defaultCatalog es el catálogo sanitario con el que arranca el modo dev.
var defaultCatalog = []health.CatalogItem{
	{ID: "enf-aftosa", Kind: health.KindEnfermedad, Nombre: "Fiebre aftosa"},
	{ID: "enf-brucelosis", Kind: health.KindEnfermedad, Nombre: "Brucelosis"},
	{ID: "enf-mastitis", Kind: health.KindEnfermedad, Nombre: "Mastitis"},
	{ID: "trat-ivermectina", Kind: health.KindTratamiento, Nombre: "Ivermectina", Descripcion: "Antiparasitario"},
	{ID: "trat-oxitetraciclina", Kind: health.KindTratamiento, Nombre: "Oxitetraciclina", Descripcion: "Antibiótico"},
	{ID: "vac-aftosa", Kind: health.KindVacunacion, Nombre: "Aftosa bivalente"},
	{ID: "vac-carbon", Kind: health.KindVacunacion, Nombre: "Carbón sintomático"},
	{ID: "vac-rabia", Kind: health.KindVacunacion, Nombre: "Rabia bovina"},
}

type HealthRepo struct {
	mu        sync.RWMutex
	incidents map[health.Kind][]health.Incident
	catalog   []health.CatalogItem
}

func NewHealthRepo() *HealthRepo {
	return &HealthRepo{
		incidents: make(map[health.Kind][]health.Incident),
		catalog:   append([]health.CatalogItem{}, defaultCatalog...),
	}
}

func (r *HealthRepo) ListIncidents(ctx context.Context, kind health.Kind) ([]health.Incident, error) {
	if !kind.Valid() {
		return nil, badRequest("invalid incident kind")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]health.Incident{}, r.incidents[kind]...), nil
}

func (r *HealthRepo) GetIncident(ctx context.Context, kind health.Kind, id string) (health.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, in := range r.incidents[kind] {
		if in.ID == id {
			return in, nil
		}
	}
	return health.Incident{}, notFound("incidencia")
}

func (r *HealthRepo) CreateIncident(ctx context.Context, in health.Incident) (health.Incident, error) {
	if !in.Kind.Valid() {
		return health.Incident{}, badRequest("invalid incident kind")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	in.ID = uuid.NewString()
	r.incidents[in.Kind] = append(r.incidents[in.Kind], in)
	return in, nil
}

func (r *HealthRepo) UpdateIncident(ctx context.Context, in health.Incident) (health.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.incidents[in.Kind]
	for i := range items {
		if items[i].ID == in.ID {
			items[i] = in
			return in, nil
		}
	}
	return health.Incident{}, notFound("incidencia")
}

func (r *HealthRepo) ListCatalog(ctx context.Context, kind health.Kind) ([]health.CatalogItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]health.CatalogItem, 0)
	for _, c := range r.catalog {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out, nil
}
