package reproduction

import (
	"context"
	"sort"
	"sync"
	"time"

	"ganado360/internal/domain/inventory"
	"ganado360/internal/platform/metrics"

	"golang.org/x/sync/errgroup"
)

// TimelineEventType es el discriminante de cada evento del historial.
type TimelineEventType string

const (
	EventoMontaMacho      TimelineEventType = "MONTA_MACHO"
	EventoMontaHembra     TimelineEventType = "MONTA_HEMBRA"
	EventoDiagnostico     TimelineEventType = "DIAGNOSTICO"
	EventoGestacion       TimelineEventType = "GESTACION"
	EventoNacimientoMadre TimelineEventType = "NACIMIENTO_MADRE"
	EventoNacimientoHija  TimelineEventType = "NACIMIENTO_HIJA"
	EventoNacimientoHijo  TimelineEventType = "NACIMIENTO_HIJO"
)

// TimelineEvent lleva la fecha normalizada y exactamente uno de los registros fuente.
type TimelineEvent struct {
	Tipo  TimelineEventType
	Fecha time.Time

	Monta       *Monta
	Diagnostico *Diagnostico
	Gestacion   *Gestacion
	Nacimiento  *Nacimiento
}

// SourceID devuelve el id del registro de origen.
func (e TimelineEvent) SourceID() string {
	switch {
	case e.Monta != nil:
		return e.Monta.ID
	case e.Diagnostico != nil:
		return e.Diagnostico.ID
	case e.Gestacion != nil:
		return e.Gestacion.ID
	case e.Nacimiento != nil:
		return e.Nacimiento.ID
	default:
		return ""
	}
}

// Sources son las cuatro colecciones que cruza el historial.
type Sources struct {
	Montas       []Monta
	Diagnosticos []Diagnostico
	Gestaciones  []Gestacion
	Nacimientos  []Nacimiento
}

// Nombres de fuente (logs, métricas y FailedSources).
const (
	SourceMontas       = "montas"
	SourceDiagnosticos = "diagnosticos"
	SourceGestaciones  = "gestaciones"
	SourceNacimientos  = "nacimientos"
)

// BuildHistory arma la línea de tiempo reproductiva del animal, más reciente
// primero. Los empates de fecha conservan el orden de entrada
// (montas, diagnósticos, gestaciones, nacimientos; cada uno en su orden).
func BuildHistory(animalID string, sexo inventory.Sexo, src Sources) []TimelineEvent {
	out := make([]TimelineEvent, 0)
	if animalID == "" {
		return out
	}

	switch sexo {
	case inventory.SexoMacho:
		for i := range src.Montas {
			m := src.Montas[i]
			if m.IDMacho == animalID {
				out = append(out, TimelineEvent{Tipo: EventoMontaMacho, Fecha: m.Fecha, Monta: &m})
			}
		}
		for i := range src.Nacimientos {
			n := src.Nacimientos[i]
			if n.IDAnimal == animalID {
				out = append(out, TimelineEvent{Tipo: EventoNacimientoHijo, Fecha: n.Fecha, Nacimiento: &n})
			}
		}

	case inventory.SexoHembra:
		montaIDs := make(map[string]struct{})
		for i := range src.Montas {
			m := src.Montas[i]
			if m.IDHembra != animalID {
				continue
			}
			montaIDs[m.ID] = struct{}{}
			out = append(out, TimelineEvent{Tipo: EventoMontaHembra, Fecha: m.Fecha, Monta: &m})
		}
		for i := range src.Diagnosticos {
			d := src.Diagnosticos[i]
			if _, ok := montaIDs[d.IDMonta]; ok {
				out = append(out, TimelineEvent{Tipo: EventoDiagnostico, Fecha: d.Fecha, Diagnostico: &d})
			}
		}
		for i := range src.Gestaciones {
			g := src.Gestaciones[i]
			if g.IDHembra == animalID {
				out = append(out, TimelineEvent{Tipo: EventoGestacion, Fecha: g.FechaInicio, Gestacion: &g})
			}
		}
		for i := range src.Nacimientos {
			n := src.Nacimientos[i]
			switch {
			case n.IDMadre == animalID:
				out = append(out, TimelineEvent{Tipo: EventoNacimientoMadre, Fecha: n.Fecha, Nacimiento: &n})
			case n.IDAnimal == animalID:
				out = append(out, TimelineEvent{Tipo: EventoNacimientoHija, Fecha: n.Fecha, Nacimiento: &n})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Fecha.After(out[j].Fecha)
	})
	return out
}

// Timeline es el resultado del agregador con las fuentes que fallaron.
type Timeline struct {
	AnimalID      string
	Sexo          inventory.Sexo
	Events        []TimelineEvent
	FailedSources []string
}

// FetchSources trae las cuatro colecciones en paralelo. Cada fuente es
// independiente: si falla queda vacía y se reporta en failed.
func (s *Service) FetchSources(ctx context.Context) (Sources, []string) {
	var (
		src    Sources
		mu     sync.Mutex
		failed []string
	)
	fail := func(name string, err error) {
		s.log.Warn("historial: fuente no disponible", map[string]any{"source": name, "err": err})
		metrics.HistorySourceFailed(name)
		mu.Lock()
		failed = append(failed, name)
		mu.Unlock()
	}

	// errgroup solo para el join: ningún goroutine devuelve error.
	var eg errgroup.Group
	eg.Go(func() error {
		items, err := s.repo.ListMontas(ctx)
		if err != nil {
			fail(SourceMontas, err)
			return nil
		}
		src.Montas = items
		return nil
	})
	eg.Go(func() error {
		items, err := s.repo.ListDiagnosticos(ctx)
		if err != nil {
			fail(SourceDiagnosticos, err)
			return nil
		}
		src.Diagnosticos = items
		return nil
	})
	eg.Go(func() error {
		items, err := s.repo.ListGestaciones(ctx)
		if err != nil {
			fail(SourceGestaciones, err)
			return nil
		}
		src.Gestaciones = items
		return nil
	})
	eg.Go(func() error {
		items, err := s.repo.ListNacimientos(ctx)
		if err != nil {
			fail(SourceNacimientos, err)
			return nil
		}
		src.Nacimientos = items
		return nil
	})
	_ = eg.Wait()

	sort.Strings(failed)
	return src, failed
}

// History resuelve el sexo del animal y devuelve su historial reproductivo.
// Solo falla si no se puede obtener el animal.
func (s *Service) History(ctx context.Context, animalID string) (Timeline, error) {
	a, err := s.animals.GetAnimal(ctx, animalID)
	if err != nil {
		return Timeline{}, err
	}
	src, failed := s.FetchSources(ctx)
	return Timeline{
		AnimalID:      a.ID,
		Sexo:          a.Sexo,
		Events:        BuildHistory(a.ID, a.Sexo, src),
		FailedSources: failed,
	}, nil
}
