package inventory

import "context"

// Repository es el acceso a los recursos de inventario del API remoto
// (/api/inventory/animales, /api/inventory/animales/historias).
type Repository interface {
	CreateAnimal(ctx context.Context, a Animal) (Animal, error)
	GetAnimal(ctx context.Context, id string) (Animal, error)
	ListAnimals(ctx context.Context) ([]Animal, error)
	UpdateAnimal(ctx context.Context, a Animal) (Animal, error)

	AppendHistory(ctx context.Context, e HistoryEntry) (HistoryEntry, error)
	ListHistory(ctx context.Context, animalID string) ([]HistoryEntry, error)
}

// ListFilter es el filtrado liviano que se hace del lado cliente.
type ListFilter struct {
	FincaID string
	Especie string
	Sexo    Sexo
	Estado  Estado
	Query   string // busca en identificador, raza y ubicación
}
