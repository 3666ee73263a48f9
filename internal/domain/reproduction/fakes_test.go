package reproduction

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ganado360/internal/domain/inventory"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errFakeNotFound = errors.New("fake: not found")

// fakeStore implementa Repository, Animals y SagaJournal. Registra el orden de
// las escrituras en calls y permite forzar fallos por operación.
type fakeStore struct {
	mu sync.Mutex

	animals      map[string]inventory.Animal
	montas       []Monta
	diagnosticos []Diagnostico
	gestaciones  []Gestacion
	nacimientos  []Nacimiento
	genealogias  []Genealogia
	history      []inventory.HistoryEntry
	sagas        map[string]BirthSaga

	calls []string
	fail  map[string]error
	seq   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		animals: map[string]inventory.Animal{},
		sagas:   map[string]BirthSaga{},
		fail:    map[string]error{},
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

// record anota la llamada y devuelve el error forzado, si hay.
func (f *fakeStore) record(op string) error {
	f.calls = append(f.calls, op)
	return f.fail[op]
}

func (f *fakeStore) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeStore) clearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = map[string]error{}
}

func (f *fakeStore) writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		switch c {
		case "CreateAnimal", "CreateNacimiento", "UpdateMonta", "CreateGenealogia", "CreateDiagnostico", "CreateMonta", "AppendHistory":
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeStore) addAnimal(a inventory.Animal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.Estado == "" {
		a.Estado = inventory.EstadoActivo
	}
	f.animals[a.ID] = a
}

func (f *fakeStore) monta(id string) Monta {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.montas {
		if m.ID == id {
			return m
		}
	}
	return Monta{}
}

// Animals

func (f *fakeStore) CreateAnimal(ctx context.Context, a inventory.Animal) (inventory.Animal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateAnimal"); err != nil {
		return inventory.Animal{}, err
	}
	a.ID = f.nextID("animal")
	f.animals[a.ID] = a
	return a, nil
}

func (f *fakeStore) GetAnimal(ctx context.Context, id string) (inventory.Animal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetAnimal"); err != nil {
		return inventory.Animal{}, err
	}
	a, ok := f.animals[id]
	if !ok {
		return inventory.Animal{}, errFakeNotFound
	}
	return a, nil
}

func (f *fakeStore) ListAnimals(ctx context.Context) ([]inventory.Animal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListAnimals"); err != nil {
		return nil, err
	}
	out := make([]inventory.Animal, 0, len(f.animals))
	for _, a := range f.animals {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) AppendHistory(ctx context.Context, e inventory.HistoryEntry) (inventory.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AppendHistory"); err != nil {
		return inventory.HistoryEntry{}, err
	}
	e.ID = f.nextID("hist")
	f.history = append(f.history, e)
	return e, nil
}

// Repository

func (f *fakeStore) ListMontas(ctx context.Context) ([]Monta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListMontas"); err != nil {
		return nil, err
	}
	return append([]Monta(nil), f.montas...), nil
}

func (f *fakeStore) GetMonta(ctx context.Context, id string) (Monta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetMonta"); err != nil {
		return Monta{}, err
	}
	for _, m := range f.montas {
		if m.ID == id {
			return m, nil
		}
	}
	return Monta{}, errFakeNotFound
}

func (f *fakeStore) CreateMonta(ctx context.Context, m Monta) (Monta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateMonta"); err != nil {
		return Monta{}, err
	}
	if m.ID == "" {
		m.ID = f.nextID("monta")
	}
	f.montas = append(f.montas, m)
	return m, nil
}

func (f *fakeStore) UpdateMonta(ctx context.Context, m Monta) (Monta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateMonta"); err != nil {
		return Monta{}, err
	}
	for i := range f.montas {
		if f.montas[i].ID == m.ID {
			f.montas[i] = m
			return m, nil
		}
	}
	return Monta{}, errFakeNotFound
}

func (f *fakeStore) ListDiagnosticos(ctx context.Context) ([]Diagnostico, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListDiagnosticos"); err != nil {
		return nil, err
	}
	return append([]Diagnostico(nil), f.diagnosticos...), nil
}

func (f *fakeStore) CreateDiagnostico(ctx context.Context, d Diagnostico) (Diagnostico, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateDiagnostico"); err != nil {
		return Diagnostico{}, err
	}
	d.ID = f.nextID("diag")
	f.diagnosticos = append(f.diagnosticos, d)
	return d, nil
}

func (f *fakeStore) ListGestaciones(ctx context.Context) ([]Gestacion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListGestaciones"); err != nil {
		return nil, err
	}
	return append([]Gestacion(nil), f.gestaciones...), nil
}

func (f *fakeStore) ListNacimientos(ctx context.Context) ([]Nacimiento, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListNacimientos"); err != nil {
		return nil, err
	}
	return append([]Nacimiento(nil), f.nacimientos...), nil
}

func (f *fakeStore) CreateNacimiento(ctx context.Context, n Nacimiento) (Nacimiento, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateNacimiento"); err != nil {
		return Nacimiento{}, err
	}
	n.ID = f.nextID("nac")
	f.nacimientos = append(f.nacimientos, n)
	return n, nil
}

func (f *fakeStore) ListGenealogias(ctx context.Context) ([]Genealogia, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListGenealogias"); err != nil {
		return nil, err
	}
	return append([]Genealogia(nil), f.genealogias...), nil
}

func (f *fakeStore) CreateGenealogia(ctx context.Context, g Genealogia) (Genealogia, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateGenealogia"); err != nil {
		return Genealogia{}, err
	}
	g.ID = f.nextID("gen")
	f.genealogias = append(f.genealogias, g)
	return g, nil
}

// SagaJournal

func (f *fakeStore) Save(ctx context.Context, s BirthSaga) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["SaveSaga"]; err != nil {
		return err
	}
	f.sagas[s.ID] = s
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (BirthSaga, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sagas[id]
	if !ok {
		return BirthSaga{}, ErrSagaNotFound
	}
	return s, nil
}

func (f *fakeStore) ListIncomplete(ctx context.Context) ([]BirthSaga, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]BirthSaga, 0)
	for _, s := range f.sagas {
		if s.Status != SagaCompleted {
			out = append(out, s)
		}
	}
	return out, nil
}
