package health

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

	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidKind       = errors.New("invalid incident kind")
	ErrInvalidTransition = errors.New("invalid incident status transition")
)

type Service struct {
	repo      Repository
	histories Histories
	log       logger.Logger
}

func NewService(repo Repository, histories Histories, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:      repo,
		histories: histories,
		log:       log.With(map[string]any{"component": "health"}),
	}
}

type IncidentInput struct {
	Kind          Kind      `validate:"required,oneof=ENFERMEDAD TRATAMIENTO VACUNACION"`
	AnimalID      string    `validate:"required"`
	CatalogID     string    `validate:"required"`
	Responsable   string    `validate:"required"`
	Fecha         time.Time `validate:"required,notfuture"`
	Estado        Estado    // vacío => estado inicial de la variante
	Observaciones string
}

func (in IncidentInput) normalize() IncidentInput {
	in.Kind = Kind(strings.ToUpper(strings.TrimSpace(string(in.Kind))))
	in.AnimalID = strings.TrimSpace(in.AnimalID)
	in.CatalogID = strings.TrimSpace(in.CatalogID)
	in.Responsable = strings.TrimSpace(in.Responsable)
	in.Estado = Estado(strings.ToUpper(strings.TrimSpace(string(in.Estado))))
	in.Observaciones = strings.TrimSpace(in.Observaciones)
	return in
}

// RecordIncident registra la incidencia y agrega la entrada correspondiente a
// la historia del animal (best-effort).
func (s *Service) RecordIncident(ctx context.Context, in IncidentInput) (Incident, error) {
	in = in.normalize()
	if err := validation.Struct(in); err != nil {
		return Incident{}, err
	}
	if in.Estado == "" {
		in.Estado = in.Kind.InitialEstado()
	}
	if !in.Kind.ValidEstado(in.Estado) {
		return Incident{}, validation.Field("Estado", "oneof")
	}

	created, err := s.repo.CreateIncident(ctx, Incident{
		Kind:          in.Kind,
		AnimalID:      in.AnimalID,
		CatalogID:     in.CatalogID,
		Responsable:   in.Responsable,
		Fecha:         in.Fecha,
		Estado:        in.Estado,
		Observaciones: in.Observaciones,
	})
	if err != nil {
		return Incident{}, err
	}

	if s.histories != nil {
		if _, err := s.histories.AppendHistory(ctx, inventory.HistoryEntry{
			AnimalID:    created.AnimalID,
			TipoEvento:  historyTipo(created.Kind),
			Fecha:       created.Fecha,
			Descripcion: fmt.Sprintf("%s %s (%s) por %s", strings.ToLower(string(created.Kind)), created.CatalogID, created.Estado, created.Responsable),
		}); err != nil {
			s.log.Warn("incidencia registrada sin entrada de historia", map[string]any{
				"incident_id": created.ID, "animal_id": created.AnimalID, "err": err,
			})
		}
	}
	return created, nil
}

func historyTipo(k Kind) inventory.TipoEvento {
	switch k {
	case KindVacunacion:
		return inventory.EventoVacunacion
	case KindTratamiento:
		return inventory.EventoTratamiento
	default:
		return inventory.EventoSanitario
	}
}

// ChangeStatus mueve una incidencia a otro estado de su variante.
func (s *Service) ChangeStatus(ctx context.Context, kind Kind, id string, to Estado) (Incident, error) {
	kind = Kind(strings.ToUpper(strings.TrimSpace(string(kind))))
	if !kind.Valid() {
		return Incident{}, ErrInvalidKind
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Incident{}, validation.Field("id", "required")
	}
	to = Estado(strings.ToUpper(strings.TrimSpace(string(to))))

	cur, err := s.repo.GetIncident(ctx, kind, id)
	if err != nil {
		return Incident{}, err
	}
	if !kind.CanTransition(cur.Estado, to) {
		return Incident{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.Estado, to)
	}
	cur.Estado = to
	return s.repo.UpdateIncident(ctx, cur)
}

// ListIncidents trae las tres variantes en paralelo y devuelve las del animal,
// más reciente primero (empates: enfermedad, tratamiento, vacunación).
func (s *Service) ListIncidents(ctx context.Context, animalID string) ([]Incident, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return nil, validation.Field("animalId", "required")
	}

	results := make([][]Incident, len(Kinds))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, k := range Kinds {
		eg.Go(func() error {
			items, err := s.repo.ListIncidents(egCtx, k)
			if err != nil {
				return fmt.Errorf("list %s: %w", strings.ToLower(string(k)), err)
			}
			results[i] = items
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]Incident, 0)
	for _, items := range results {
		for _, it := range items {
			if it.AnimalID == animalID {
				out = append(out, it)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Fecha.After(out[j].Fecha)
	})
	return out, nil
}

func (s *Service) ListCatalog(ctx context.Context, kind Kind) ([]CatalogItem, error) {
	kind = Kind(strings.ToUpper(strings.TrimSpace(string(kind))))
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	items, err := s.repo.ListCatalog(ctx, kind)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Nombre) < strings.ToLower(items[j].Nombre)
	})
	return items, nil
}
