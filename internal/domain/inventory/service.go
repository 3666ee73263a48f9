package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ganado360/internal/platform/logger"
	"ganado360/internal/platform/validation"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrAlreadyRetired = errors.New("animal already retired")
)

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"component": "inventory"}),
		now:  time.Now,
	}
}

// CreateInput son los campos del formulario de alta de animal.
type CreateInput struct {
	FincaID         string    `validate:"required"`
	Especie         string    `validate:"required"`
	Raza            string    `validate:"required"`
	Sexo            Sexo      `validate:"required,oneof=M H"`
	FechaNacimiento time.Time `validate:"required,notfuture"`

	Identificador string
	Peso          *float64 `validate:"omitempty,gt=0"`
	Ubicacion     string
}

// Normalize recorta espacios de los campos de texto.
func (in CreateInput) Normalize() CreateInput {
	in.FincaID = strings.TrimSpace(in.FincaID)
	in.Especie = strings.TrimSpace(in.Especie)
	in.Raza = strings.TrimSpace(in.Raza)
	in.Sexo = Sexo(strings.ToUpper(strings.TrimSpace(string(in.Sexo))))
	in.Identificador = strings.TrimSpace(in.Identificador)
	in.Ubicacion = strings.TrimSpace(in.Ubicacion)
	return in
}

func (in CreateInput) Animal() Animal {
	return Animal{
		FincaID:         in.FincaID,
		Especie:         in.Especie,
		Raza:            in.Raza,
		Sexo:            in.Sexo,
		FechaNacimiento: in.FechaNacimiento,
		Identificador:   in.Identificador,
		Peso:            in.Peso,
		Ubicacion:       in.Ubicacion,
		Estado:          EstadoActivo,
	}
}

func (s *Service) CreateAnimal(ctx context.Context, in CreateInput) (Animal, error) {
	in = in.Normalize()
	if err := validation.Struct(in); err != nil {
		return Animal{}, err
	}
	return s.repo.CreateAnimal(ctx, in.Animal())
}

func (s *Service) GetAnimal(ctx context.Context, id string) (Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Animal{}, ErrInvalidInput
	}
	return s.repo.GetAnimal(ctx, id)
}

// ListAnimals trae la colección completa y filtra en memoria.
func (s *Service) ListAnimals(ctx context.Context, filter ListFilter) ([]Animal, error) {
	items, err := s.repo.ListAnimals(ctx)
	if err != nil {
		return nil, err
	}
	return FilterAnimals(items, filter), nil
}

func FilterAnimals(items []Animal, filter ListFilter) []Animal {
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]Animal, 0, len(items))
	for _, a := range items {
		if filter.FincaID != "" && a.FincaID != filter.FincaID {
			continue
		}
		if filter.Especie != "" && !strings.EqualFold(a.Especie, filter.Especie) {
			continue
		}
		if filter.Sexo != "" && a.Sexo != filter.Sexo {
			continue
		}
		if filter.Estado != "" && a.Estado != filter.Estado {
			continue
		}
		if q != "" {
			hay := strings.ToLower(a.Identificador + " " + a.Raza + " " + a.Ubicacion)
			if !strings.Contains(hay, q) {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// AnimalIndex arma el mapa id -> animal que usan las consultas en memoria.
func AnimalIndex(items []Animal) map[string]Animal {
	idx := make(map[string]Animal, len(items))
	for _, a := range items {
		idx[a.ID] = a
	}
	return idx
}

func (s *Service) ListHistory(ctx context.Context, animalID string) ([]HistoryEntry, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListHistory(ctx, animalID)
}

// AppendHistory agrega una entrada a la historia (nunca se edita ni se borra).
func (s *Service) AppendHistory(ctx context.Context, animalID string, tipo TipoEvento, descripcion string) (HistoryEntry, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" || tipo == "" {
		return HistoryEntry{}, ErrInvalidInput
	}
	return s.repo.AppendHistory(ctx, HistoryEntry{
		AnimalID:    animalID,
		TipoEvento:  tipo,
		Fecha:       s.now(),
		Descripcion: strings.TrimSpace(descripcion),
	})
}

// RetirementError indica en qué paso falló la baja.
// HistoryWritten=true significa que la entrada BAJA quedó registrada aunque el
// animal siga activo.
type RetirementError struct {
	AnimalID       string
	HistoryWritten bool
	Err            error
}

func (e *RetirementError) Error() string {
	if e.HistoryWritten {
		return fmt.Sprintf("retire %s: history written but deactivation failed: %v", e.AnimalID, e.Err)
	}
	return fmt.Sprintf("retire %s: history entry not written: %v", e.AnimalID, e.Err)
}

func (e *RetirementError) Unwrap() error { return e.Err }

// Retire da de baja un animal: primero la entrada BAJA (auditoría), luego el
// cambio de estado a Inactivo. Un animal ya inactivo se rechaza.
func (s *Service) Retire(ctx context.Context, animalID, reason string) error {
	animalID = strings.TrimSpace(animalID)
	reason = strings.TrimSpace(reason)
	if animalID == "" {
		return validation.Field("animalId", "required")
	}
	if reason == "" {
		return validation.Field("motivo", "required")
	}

	a, err := s.repo.GetAnimal(ctx, animalID)
	if err != nil {
		return err
	}
	if !a.Activo() {
		return ErrAlreadyRetired
	}

	log := s.log.With(map[string]any{"animal_id": animalID})

	if _, err := s.repo.AppendHistory(ctx, HistoryEntry{
		AnimalID:    animalID,
		TipoEvento:  EventoBaja,
		Fecha:       s.now(),
		Descripcion: reason,
	}); err != nil {
		log.Error("baja: no se pudo registrar historia", map[string]any{"err": err})
		return &RetirementError{AnimalID: animalID, Err: err}
	}

	a.Estado = EstadoInactivo
	if _, err := s.repo.UpdateAnimal(ctx, a); err != nil {
		log.Error("baja: historia registrada pero el animal sigue activo", map[string]any{"err": err})
		return &RetirementError{AnimalID: animalID, HistoryWritten: true, Err: err}
	}

	log.Info("animal dado de baja", nil)
	return nil
}
