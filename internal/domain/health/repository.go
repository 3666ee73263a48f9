package health

import (
	"context"

	"ganado360/internal/domain/inventory"
)

type Repository interface {
	ListIncidents(ctx context.Context, kind Kind) ([]Incident, error)
	GetIncident(ctx context.Context, kind Kind, id string) (Incident, error)
	CreateIncident(ctx context.Context, in Incident) (Incident, error)
	UpdateIncident(ctx context.Context, in Incident) (Incident, error)

	ListCatalog(ctx context.Context, kind Kind) ([]CatalogItem, error)
}

// Histories es la historia del animal; cada incidencia deja una entrada.
type Histories interface {
	AppendHistory(ctx context.Context, e inventory.HistoryEntry) (inventory.HistoryEntry, error)
}
