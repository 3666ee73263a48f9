package reproduction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ganado360/internal/domain/inventory"
	"ganado360/internal/platform/logger"
	"ganado360/internal/platform/validation"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrMatingClosed    = errors.New("mating is closed")
	ErrMatingNotActive = errors.New("mating is not active")
	ErrGenealogyExists = errors.New("animal already has a genealogy record")
	ErrGenealogyCycle  = errors.New("genealogy record would create a cycle")
	ErrSagaNotFound    = errors.New("birth saga not found")
)

type Service struct {
	repo    Repository
	animals Animals
	journal SagaJournal
	log     logger.Logger

	now         func() time.Time
	newID       func() string
	sagaTimeout time.Duration
}

// DefaultSagaTimeout acota una saga de nacimiento cuando nadie configura otro valor.
const DefaultSagaTimeout = 2 * time.Minute

func NewService(repo Repository, animals Animals, journal SagaJournal, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if journal == nil {
		journal = nopJournal{}
	}
	return &Service{
		repo:        repo,
		animals:     animals,
		journal:     journal,
		log:         log.With(map[string]any{"component": "reproduction"}),
		now:         time.Now,
		newID:       uuid.NewString,
		sagaTimeout: DefaultSagaTimeout,
	}
}

// SetSagaTimeout cambia el límite de una saga de nacimiento; d <= 0 se ignora.
func (s *Service) SetSagaTimeout(d time.Duration) {
	if d > 0 {
		s.sagaTimeout = d
	}
}

// ---------------------------------------------------------------------------
// Montas
// ---------------------------------------------------------------------------

type MatingInput struct {
	HembraID string    `validate:"required"`
	MachoID  string    // opcional
	Fecha    time.Time `validate:"required,notfuture"`
	Metodo   string    `validate:"required"`
	Notas    string
}

// CreateMating registra una monta nueva en estado ACTIVA.
func (s *Service) CreateMating(ctx context.Context, in MatingInput) (Monta, error) {
	in.HembraID = strings.TrimSpace(in.HembraID)
	in.MachoID = strings.TrimSpace(in.MachoID)
	in.Metodo = strings.TrimSpace(in.Metodo)
	if err := validation.Struct(in); err != nil {
		return Monta{}, err
	}

	hembra, err := s.animals.GetAnimal(ctx, in.HembraID)
	if err != nil {
		return Monta{}, err
	}
	if hembra.Sexo != inventory.SexoHembra {
		return Monta{}, validation.Field("HembraID", "female")
	}
	if in.MachoID != "" {
		macho, err := s.animals.GetAnimal(ctx, in.MachoID)
		if err != nil {
			return Monta{}, err
		}
		if macho.Sexo != inventory.SexoMacho {
			return Monta{}, validation.Field("MachoID", "male")
		}
	}

	return s.repo.CreateMonta(ctx, Monta{
		IDHembra:        in.HembraID,
		IDMacho:         in.MachoID,
		Fecha:           in.Fecha,
		MetodoUtilizado: in.Metodo,
		Notas:           strings.TrimSpace(in.Notas),
		Estado:          MontaActiva,
	})
}

// ---------------------------------------------------------------------------
// Diagnósticos de gestación
// ---------------------------------------------------------------------------

type DiagnosisInput struct {
	MatingID      string               `validate:"required"`
	Fecha         time.Time            `validate:"required,notfuture"`
	Resultado     ResultadoDiagnostico `validate:"required,oneof=GESTANTE VACIA NO_CONCLUYENTE"`
	Especie       string
	Observaciones string
}

// RegisterDiagnosis guarda el diagnóstico y mueve la monta según el resultado.
// Solo una monta ACTIVA admite diagnósticos.
func (s *Service) RegisterDiagnosis(ctx context.Context, in DiagnosisInput) (Diagnostico, Monta, error) {
	in.MatingID = strings.TrimSpace(in.MatingID)
	in.Resultado = ResultadoDiagnostico(strings.ToUpper(strings.TrimSpace(string(in.Resultado))))
	if err := validation.Struct(in); err != nil {
		return Diagnostico{}, Monta{}, err
	}

	m, err := s.repo.GetMonta(ctx, in.MatingID)
	if err != nil {
		return Diagnostico{}, Monta{}, err
	}
	if m.Estado != MontaActiva {
		return Diagnostico{}, m, fmt.Errorf("%w: monta %s está %s", ErrMatingNotActive, m.ID, m.Estado)
	}

	d, err := s.repo.CreateDiagnostico(ctx, Diagnostico{
		IDMonta:       m.ID,
		Fecha:         in.Fecha,
		Resultado:     in.Resultado,
		Especie:       strings.TrimSpace(in.Especie),
		Observaciones: strings.TrimSpace(in.Observaciones),
	})
	if err != nil {
		return Diagnostico{}, m, err
	}

	target := in.Resultado.EstadoMonta()
	if target == "" {
		return d, m, nil
	}

	m.Estado = target
	updated, err := s.repo.UpdateMonta(ctx, m)
	if err != nil {
		s.log.Error("diagnóstico registrado sin actualizar la monta", map[string]any{
			"diagnostico_id": d.ID, "monta_id": m.ID, "target": string(target), "err": err,
		})
		return d, m, fmt.Errorf("diagnóstico %s registrado pero la monta %s no pasó a %s: %w", d.ID, m.ID, target, err)
	}
	return d, updated, nil
}

// ---------------------------------------------------------------------------
// Genealogía
// ---------------------------------------------------------------------------

// LinkGenealogy crea una arista madre/padre -> hijo a mano. Rechaza un segundo
// registro para el mismo hijo y cualquier arista que forme un ciclo.
func (s *Service) LinkGenealogy(ctx context.Context, g Genealogia) (Genealogia, error) {
	g.Hijo = strings.TrimSpace(g.Hijo)
	g.Madre = strings.TrimSpace(g.Madre)
	g.Padre = strings.TrimSpace(g.Padre)
	if g.Hijo == "" {
		return Genealogia{}, validation.Field("hijo", "required")
	}
	if g.Madre == "" && g.Padre == "" {
		return Genealogia{}, validation.Field("madre", "required_without=padre")
	}

	edges, err := s.repo.ListGenealogias(ctx)
	if err != nil {
		return Genealogia{}, err
	}
	for _, e := range edges {
		if e.Hijo == g.Hijo {
			return Genealogia{}, ErrGenealogyExists
		}
	}
	if WouldCreateCycle(edges, g) {
		return Genealogia{}, ErrGenealogyCycle
	}
	return s.repo.CreateGenealogia(ctx, g)
}

// Pedigree trae aristas y animales en paralelo y reconstruye el árbol.
func (s *Service) Pedigree(ctx context.Context, animalID string) (Pedigree, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return Pedigree{}, ErrInvalidInput
	}

	var (
		edges   []Genealogia
		animals []inventory.Animal
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		edges, err = s.repo.ListGenealogias(egCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		animals, err = s.animals.ListAnimals(egCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return Pedigree{}, err
	}

	p := BuildPedigree(animalID, edges, inventory.AnimalIndex(animals))
	if p.CycleDetected {
		s.log.Warn("genealogía con ciclo", map[string]any{"animal_id": animalID})
	}
	return p, nil
}

// ---------------------------------------------------------------------------
// Recordatorios de parto
// ---------------------------------------------------------------------------

// UpcomingBirths filtra gestaciones ACTIVA con parto estimado entre hoy y
// hoy+window (por día calendario), ordenadas por fecha ascendente.
func UpcomingBirths(gs []Gestacion, now time.Time, window time.Duration) []Gestacion {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(window)

	out := make([]Gestacion, 0)
	for _, g := range gs {
		if g.Estado != GestacionActiva || g.FechaEstimadaParto.IsZero() {
			continue
		}
		if g.FechaEstimadaParto.Before(start) || g.FechaEstimadaParto.After(end) {
			continue
		}
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FechaEstimadaParto.Before(out[j].FechaEstimadaParto)
	})
	return out
}

func (s *Service) UpcomingBirths(ctx context.Context, window time.Duration) ([]Gestacion, error) {
	gs, err := s.repo.ListGestaciones(ctx)
	if err != nil {
		return nil, err
	}
	return UpcomingBirths(gs, s.now(), window), nil
}

type nopJournal struct{}

func (nopJournal) Save(context.Context, BirthSaga) error { return nil }
func (nopJournal) Get(context.Context, string) (BirthSaga, error) {
	return BirthSaga{}, ErrSagaNotFound
}
func (nopJournal) ListIncomplete(context.Context) ([]BirthSaga, error) { return nil, nil }
