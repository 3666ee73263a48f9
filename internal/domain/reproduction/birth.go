package reproduction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ganado360/internal/domain/inventory"
	"ganado360/internal/platform/metrics"
	"ganado360/internal/platform/validation"
)

// BirthStep es cada escritura del registro de nacimiento, en orden.
type BirthStep string

const (
	StepPrepare       BirthStep = "prepare" // lecturas previas, no escribe
	StepCreateAnimal  BirthStep = "create_animal"
	StepCreateBirth   BirthStep = "create_birth"
	StepCloseMating   BirthStep = "close_mating"
	StepLinkGenealogy BirthStep = "link_genealogy"
	StepDone          BirthStep = "done"
)

func (s BirthStep) next() BirthStep {
	switch s {
	case StepCreateAnimal:
		return StepCreateBirth
	case StepCreateBirth:
		return StepCloseMating
	case StepCloseMating:
		return StepLinkGenealogy
	default:
		return StepDone
	}
}

type SagaStatus string

const (
	SagaPending   SagaStatus = "PENDING"
	SagaCompleted SagaStatus = "COMPLETED"
	SagaFailed    SagaStatus = "FAILED"
)

var (
	// ErrNothingCreated: falló antes de que exista el animal; se puede reintentar.
	ErrNothingCreated = errors.New("birth registration failed: nothing was created")
	// ErrBirthIncomplete: el animal existe pero falta nacimiento, cierre de monta
	// o genealogía; requiere reanudar o conciliar a mano.
	ErrBirthIncomplete = errors.New("birth registration incomplete: animal created without full linkage")
)

// NewbornInput son los datos del recién nacido.
// FincaID vacío => se hereda de la madre.
type NewbornInput struct {
	FincaID         string
	Especie         string         `validate:"required"`
	Raza            string         `validate:"required"`
	Sexo            inventory.Sexo `validate:"required,oneof=M H"`
	FechaNacimiento time.Time      `validate:"required,notfuture"`
	Peso            *float64       `validate:"omitempty,gt=0"`
	Identificador   string
	Ubicacion       string
}

type BirthInput struct {
	MatingID      string `validate:"required"`
	MotherID      string `validate:"required"`
	Newborn       NewbornInput
	Observaciones string
}

func (in BirthInput) normalize() BirthInput {
	in.MatingID = strings.TrimSpace(in.MatingID)
	in.MotherID = strings.TrimSpace(in.MotherID)
	in.Observaciones = strings.TrimSpace(in.Observaciones)
	nb := &in.Newborn
	nb.FincaID = strings.TrimSpace(nb.FincaID)
	nb.Especie = strings.TrimSpace(nb.Especie)
	nb.Raza = strings.TrimSpace(nb.Raza)
	nb.Sexo = inventory.Sexo(strings.ToUpper(strings.TrimSpace(string(nb.Sexo))))
	nb.Identificador = strings.TrimSpace(nb.Identificador)
	nb.Ubicacion = strings.TrimSpace(nb.Ubicacion)
	return in
}

// BirthSaga es el estado persistido del registro. NextStep es el primer paso
// que todavía no se completó.
type BirthSaga struct {
	ID       string
	Input    BirthInput
	PadreID  string
	NextStep BirthStep
	Status   SagaStatus

	AnimalID     string
	BirthID      string
	GenealogiaID string

	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type BirthResult struct {
	SagaID       string
	AnimalID     string
	BirthID      string
	GenealogiaID string
}

// BirthError distingue "no se creó nada" de "animal creado sin vínculos".
type BirthError struct {
	SagaID   string
	Step     BirthStep
	AnimalID string
	BirthID  string
	Err      error
}

// Partial indica que el animal ya fue creado.
func (e *BirthError) Partial() bool { return e.AnimalID != "" }

func (e *BirthError) Kind() error {
	if e.Partial() {
		return ErrBirthIncomplete
	}
	return ErrNothingCreated
}

func (e *BirthError) Error() string {
	if e.Partial() {
		return fmt.Sprintf("birth saga %s: step %s failed after creating animal %s: %v", e.SagaID, e.Step, e.AnimalID, e.Err)
	}
	return fmt.Sprintf("birth saga %s: step %s failed, nothing created: %v", e.SagaID, e.Step, e.Err)
}

func (e *BirthError) Unwrap() []error { return []error{e.Kind(), e.Err} }

// RegisterBirth valida, lee monta y madre, y ejecuta en orden:
// crear animal -> crear nacimiento -> monta FINALIZADA -> genealogía.
// No hay rollback: si falla un paso posterior al primero, el animal queda y el
// error es ErrBirthIncomplete; la saga queda en el journal para ResumeBirth.
func (s *Service) RegisterBirth(ctx context.Context, in BirthInput) (BirthResult, error) {
	in = in.normalize()
	if err := validation.Struct(in); err != nil {
		metrics.BirthSaga(metrics.OutcomeInvalid)
		return BirthResult{}, err
	}

	mating, err := s.repo.GetMonta(ctx, in.MatingID)
	if err != nil {
		metrics.BirthSaga(metrics.OutcomeNothingCreated)
		return BirthResult{}, &BirthError{Step: StepPrepare, Err: err}
	}
	if mating.IDHembra != in.MotherID {
		metrics.BirthSaga(metrics.OutcomeInvalid)
		return BirthResult{}, validation.Field("MotherID", "mating_female")
	}
	if mating.Estado.Terminal() {
		metrics.BirthSaga(metrics.OutcomeInvalid)
		return BirthResult{}, fmt.Errorf("%w: monta %s está %s", ErrMatingClosed, mating.ID, mating.Estado)
	}

	mother, err := s.animals.GetAnimal(ctx, in.MotherID)
	if err != nil {
		metrics.BirthSaga(metrics.OutcomeNothingCreated)
		return BirthResult{}, &BirthError{Step: StepPrepare, Err: err}
	}
	if mother.Sexo != inventory.SexoHembra {
		metrics.BirthSaga(metrics.OutcomeInvalid)
		return BirthResult{}, validation.Field("MotherID", "female")
	}
	if in.Newborn.FincaID == "" {
		in.Newborn.FincaID = mother.FincaID
	}

	now := s.now()
	saga := BirthSaga{
		ID:        s.newID(),
		Input:     in,
		PadreID:   mating.IDMacho,
		NextStep:  StepCreateAnimal,
		Status:    SagaPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx, cancel := s.sagaContext(ctx)
	defer cancel()
	s.persist(ctx, saga)

	return s.runBirth(ctx, &saga)
}

// ResumeBirth continúa una saga incompleta desde el primer paso pendiente.
// Sobre una saga completada devuelve su resultado sin escribir nada.
func (s *Service) ResumeBirth(ctx context.Context, sagaID string) (BirthResult, error) {
	saga, err := s.journal.Get(ctx, strings.TrimSpace(sagaID))
	if err != nil {
		return BirthResult{}, err
	}
	if saga.Status == SagaCompleted {
		return saga.result(), nil
	}
	s.log.Info("reanudando saga de nacimiento", map[string]any{"saga_id": saga.ID, "step": string(saga.NextStep)})
	saga.Status = SagaPending

	ctx, cancel := s.sagaContext(ctx)
	defer cancel()
	return s.runBirth(ctx, &saga)
}

// sagaContext separa la saga de la cancelación del llamador: si el cliente se
// desconecta o el CLI recibe Ctrl-C después de crear la cría, los pasos
// restantes siguen hasta terminar o hasta sagaTimeout. Los valores del
// contexto (token de sesión, request id) se conservan.
func (s *Service) sagaContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.sagaTimeout)
}

func (s *Service) GetBirthSaga(ctx context.Context, sagaID string) (BirthSaga, error) {
	return s.journal.Get(ctx, strings.TrimSpace(sagaID))
}

func (s *Service) ListIncompleteBirths(ctx context.Context) ([]BirthSaga, error) {
	return s.journal.ListIncomplete(ctx)
}

func (s *Service) runBirth(ctx context.Context, saga *BirthSaga) (BirthResult, error) {
	log := s.log.With(map[string]any{"saga_id": saga.ID, "monta_id": saga.Input.MatingID})

	for saga.NextStep != StepDone {
		step := saga.NextStep
		if err := s.execStep(ctx, saga, step); err != nil {
			saga.Status = SagaFailed
			saga.LastError = err.Error()
			saga.UpdatedAt = s.now()
			s.persist(ctx, *saga)

			berr := &BirthError{SagaID: saga.ID, Step: step, AnimalID: saga.AnimalID, BirthID: saga.BirthID, Err: err}
			if berr.Partial() {
				metrics.BirthSaga(metrics.OutcomeIncomplete)
				log.Error("nacimiento incompleto: animal creado sin vínculos", map[string]any{
					"step": string(step), "animal_id": saga.AnimalID, "nacimiento_id": saga.BirthID, "err": err,
				})
			} else {
				metrics.BirthSaga(metrics.OutcomeNothingCreated)
				log.Warn("nacimiento fallido: no se creó nada", map[string]any{"step": string(step), "err": err})
			}
			return BirthResult{}, berr
		}

		saga.NextStep = step.next()
		saga.LastError = ""
		saga.UpdatedAt = s.now()
		log.Info("paso de nacimiento completado", map[string]any{
			"step": string(step), "animal_id": saga.AnimalID, "nacimiento_id": saga.BirthID,
		})
		s.persist(ctx, *saga)
	}

	saga.Status = SagaCompleted
	saga.UpdatedAt = s.now()
	s.persist(ctx, *saga)
	metrics.BirthSaga(metrics.OutcomeCompleted)

	// Historia del recién nacido: best-effort, no forma parte de la saga.
	if _, err := s.animals.AppendHistory(ctx, inventory.HistoryEntry{
		AnimalID:    saga.AnimalID,
		TipoEvento:  inventory.EventoNacimiento,
		Fecha:       saga.Input.Newborn.FechaNacimiento,
		Descripcion: fmt.Sprintf("Nacimiento registrado (monta %s, madre %s)", saga.Input.MatingID, saga.Input.MotherID),
	}); err != nil {
		log.Warn("no se pudo registrar historia de nacimiento", map[string]any{"animal_id": saga.AnimalID, "err": err})
	}

	return saga.result(), nil
}

func (s *Service) execStep(ctx context.Context, saga *BirthSaga, step BirthStep) error {
	in := saga.Input
	switch step {
	case StepCreateAnimal:
		a, err := s.animals.CreateAnimal(ctx, inventory.Animal{
			FincaID:         in.Newborn.FincaID,
			Especie:         in.Newborn.Especie,
			Raza:            in.Newborn.Raza,
			Sexo:            in.Newborn.Sexo,
			FechaNacimiento: in.Newborn.FechaNacimiento,
			Identificador:   in.Newborn.Identificador,
			Peso:            in.Newborn.Peso,
			Ubicacion:       in.Newborn.Ubicacion,
			Estado:          inventory.EstadoActivo,
		})
		if err != nil {
			return err
		}
		if a.ID == "" {
			return errors.New("create animal: response without id")
		}
		saga.AnimalID = a.ID
		return nil

	case StepCreateBirth:
		n, err := s.repo.CreateNacimiento(ctx, Nacimiento{
			IDMonta:       in.MatingID,
			IDMadre:       in.MotherID,
			IDAnimal:      saga.AnimalID,
			Fecha:         in.Newborn.FechaNacimiento,
			Sexo:          in.Newborn.Sexo,
			Peso:          in.Newborn.Peso,
			Observaciones: in.Observaciones,
		})
		if err != nil {
			return err
		}
		saga.BirthID = n.ID
		return nil

	case StepCloseMating:
		m, err := s.repo.GetMonta(ctx, in.MatingID)
		if err != nil {
			return err
		}
		if m.Estado == MontaFinalizada {
			return nil // ya cerrada (reintento)
		}
		m.Estado = MontaFinalizada
		_, err = s.repo.UpdateMonta(ctx, m)
		return err

	case StepLinkGenealogy:
		g, err := s.repo.CreateGenealogia(ctx, Genealogia{
			Madre: in.MotherID,
			Padre: saga.PadreID,
			Hijo:  saga.AnimalID,
		})
		if err != nil {
			return err
		}
		saga.GenealogiaID = g.ID
		return nil

	default:
		return fmt.Errorf("unknown birth step %q", step)
	}
}

// persist guarda la saga; un fallo del journal se registra pero no aborta.
func (s *Service) persist(ctx context.Context, saga BirthSaga) {
	if err := s.journal.Save(ctx, saga); err != nil {
		s.log.Error("no se pudo guardar la saga de nacimiento", map[string]any{
			"saga_id": saga.ID, "step": string(saga.NextStep), "animal_id": saga.AnimalID, "err": err,
		})
	}
}

func (s BirthSaga) result() BirthResult {
	return BirthResult{
		SagaID:       s.ID,
		AnimalID:     s.AnimalID,
		BirthID:      s.BirthID,
		GenealogiaID: s.GenealogiaID,
	}
}
