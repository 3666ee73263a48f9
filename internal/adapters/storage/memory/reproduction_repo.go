package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"ganado360/internal/domain/reproduction"

	"github.com/google/uuid"
)

// gestationDays por especie; lo usa la gestación que se abre al confirmar una
// monta. Especie desconocida => bovino.
var gestationDays = map[string]int{
	"bovino":   283,
	"bufalino": 310,
	"ovino":    150,
	"caprino":  150,
	"porcino":  114,
	"equino":   340,
}

func estimatedBirth(especie string, start time.Time) time.Time {
	days, ok := gestationDays[strings.ToLower(strings.TrimSpace(especie))]
	if !ok {
		days = gestationDays["bovino"]
	}
	return start.AddDate(0, 0, days)
}

// ReproductionRepo imita las reglas del API remoto que el cliente no ve:
// un diagnóstico GESTANTE abre una gestación y un nacimiento la cierra.
type ReproductionRepo struct {
	mu sync.RWMutex

	montas       []reproduction.Monta
	diagnosticos []reproduction.Diagnostico
	gestaciones  []reproduction.Gestacion
	nacimientos  []reproduction.Nacimiento
	genealogias  []reproduction.Genealogia
}

func NewReproductionRepo() *ReproductionRepo {
	return &ReproductionRepo{}
}

func (r *ReproductionRepo) ListMontas(ctx context.Context) ([]reproduction.Monta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]reproduction.Monta{}, r.montas...), nil
}

func (r *ReproductionRepo) GetMonta(ctx context.Context, id string) (reproduction.Monta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.montas {
		if m.ID == id {
			return m, nil
		}
	}
	return reproduction.Monta{}, notFound("monta")
}

func (r *ReproductionRepo) CreateMonta(ctx context.Context, m reproduction.Monta) (reproduction.Monta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if strings.TrimSpace(m.ID) == "" {
		m.ID = uuid.NewString()
	}
	if m.Estado == "" {
		m.Estado = reproduction.MontaActiva
	}
	r.montas = append(r.montas, m)
	return m, nil
}

func (r *ReproductionRepo) UpdateMonta(ctx context.Context, m reproduction.Monta) (reproduction.Monta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.montas {
		if r.montas[i].ID == m.ID {
			r.montas[i] = m
			return m, nil
		}
	}
	return reproduction.Monta{}, notFound("monta")
}

func (r *ReproductionRepo) ListDiagnosticos(ctx context.Context) ([]reproduction.Diagnostico, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]reproduction.Diagnostico{}, r.diagnosticos...), nil
}

func (r *ReproductionRepo) CreateDiagnostico(ctx context.Context, d reproduction.Diagnostico) (reproduction.Diagnostico, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var monta *reproduction.Monta
	for i := range r.montas {
		if r.montas[i].ID == d.IDMonta {
			monta = &r.montas[i]
			break
		}
	}
	if monta == nil {
		return reproduction.Diagnostico{}, notFound("monta")
	}

	d.ID = uuid.NewString()
	r.diagnosticos = append(r.diagnosticos, d)

	if d.Resultado == reproduction.ResultadoGestante {
		r.gestaciones = append(r.gestaciones, reproduction.Gestacion{
			ID:                 uuid.NewString(),
			IDHembra:           monta.IDHembra,
			Estado:             reproduction.GestacionActiva,
			FechaInicio:        monta.Fecha,
			FechaEstimadaParto: estimatedBirth(d.Especie, monta.Fecha),
		})
	}
	return d, nil
}

func (r *ReproductionRepo) ListGestaciones(ctx context.Context) ([]reproduction.Gestacion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]reproduction.Gestacion{}, r.gestaciones...), nil
}

// AddGestacion carga una gestación directamente (seed de desarrollo).
func (r *ReproductionRepo) AddGestacion(g reproduction.Gestacion) reproduction.Gestacion {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	r.gestaciones = append(r.gestaciones, g)
	return g
}

func (r *ReproductionRepo) ListNacimientos(ctx context.Context) ([]reproduction.Nacimiento, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]reproduction.Nacimiento{}, r.nacimientos...), nil
}

func (r *ReproductionRepo) CreateNacimiento(ctx context.Context, n reproduction.Nacimiento) (reproduction.Nacimiento, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(n.IDMadre) == "" || strings.TrimSpace(n.IDAnimal) == "" {
		return reproduction.Nacimiento{}, badRequest("idMadre and idAnimal are required")
	}
	n.ID = uuid.NewString()
	r.nacimientos = append(r.nacimientos, n)

	for i := range r.gestaciones {
		g := &r.gestaciones[i]
		if g.IDHembra == n.IDMadre && g.Estado == reproduction.GestacionActiva {
			g.Estado = reproduction.GestacionFinalizada
		}
	}
	return n, nil
}

func (r *ReproductionRepo) ListGenealogias(ctx context.Context) ([]reproduction.Genealogia, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]reproduction.Genealogia{}, r.genealogias...), nil
}

func (r *ReproductionRepo) CreateGenealogia(ctx context.Context, g reproduction.Genealogia) (reproduction.Genealogia, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.genealogias {
		if e.Hijo == g.Hijo {
			return reproduction.Genealogia{}, conflict("genealogia already exists for hijo")
		}
	}
	g.ID = uuid.NewString()
	r.genealogias = append(r.genealogias, g)
	return g, nil
}
