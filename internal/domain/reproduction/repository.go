package reproduction

import (
	"context"

	"ganado360/internal/domain/inventory"
)

// Repository es el acceso a /api/reproduccion/* del API remoto.
// Las colecciones se traen completas; los cruces se hacen en memoria.
type Repository interface {
	ListMontas(ctx context.Context) ([]Monta, error)
	GetMonta(ctx context.Context, id string) (Monta, error)
	CreateMonta(ctx context.Context, m Monta) (Monta, error)
	UpdateMonta(ctx context.Context, m Monta) (Monta, error)

	ListDiagnosticos(ctx context.Context) ([]Diagnostico, error)
	CreateDiagnostico(ctx context.Context, d Diagnostico) (Diagnostico, error)

	ListGestaciones(ctx context.Context) ([]Gestacion, error)

	ListNacimientos(ctx context.Context) ([]Nacimiento, error)
	CreateNacimiento(ctx context.Context, n Nacimiento) (Nacimiento, error)

	ListGenealogias(ctx context.Context) ([]Genealogia, error)
	CreateGenealogia(ctx context.Context, g Genealogia) (Genealogia, error)
}

// Animals es la parte del inventario que usa este módulo.
type Animals interface {
	CreateAnimal(ctx context.Context, a inventory.Animal) (inventory.Animal, error)
	GetAnimal(ctx context.Context, id string) (inventory.Animal, error)
	ListAnimals(ctx context.Context) ([]inventory.Animal, error)
	AppendHistory(ctx context.Context, e inventory.HistoryEntry) (inventory.HistoryEntry, error)
}

// SagaJournal persiste el estado intermedio de los registros de nacimiento
// para poder reanudarlos o conciliarlos a mano.
type SagaJournal interface {
	Save(ctx context.Context, s BirthSaga) error
	Get(ctx context.Context, id string) (BirthSaga, error)
	ListIncomplete(ctx context.Context) ([]BirthSaga, error)
}
