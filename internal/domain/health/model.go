package health

import "time"

// Kind es la variante de incidencia sanitaria.
type Kind string

const (
	KindEnfermedad  Kind = "ENFERMEDAD"
	KindTratamiento Kind = "TRATAMIENTO"
	KindVacunacion  Kind = "VACUNACION"
)

var Kinds = []Kind{KindEnfermedad, KindTratamiento, KindVacunacion}

func (k Kind) Valid() bool {
	switch k {
	case KindEnfermedad, KindTratamiento, KindVacunacion:
		return true
	default:
		return false
	}
}

// Estado de la incidencia. Cada variante usa su propio conjunto.
type Estado string

const (
	// Vacunación y tratamiento.
	EstadoPendiente Estado = "PENDIENTE"
	EstadoRealizado Estado = "REALIZADO"
	EstadoAnulado   Estado = "ANULADO"

	// Enfermedad.
	EstadoDiagnosticada Estado = "DIAGNOSTICADA"
	EstadoEnTratamiento Estado = "TRATAMIENTO"
	EstadoFinalizada    Estado = "FINALIZADA"
)

// InitialEstado es el estado con el que se registra una incidencia nueva.
func (k Kind) InitialEstado() Estado {
	if k == KindEnfermedad {
		return EstadoDiagnosticada
	}
	return EstadoPendiente
}

// ValidEstado indica si e pertenece a la variante k.
func (k Kind) ValidEstado(e Estado) bool {
	switch k {
	case KindEnfermedad:
		return e == EstadoDiagnosticada || e == EstadoEnTratamiento || e == EstadoFinalizada
	case KindTratamiento, KindVacunacion:
		return e == EstadoPendiente || e == EstadoRealizado || e == EstadoAnulado
	default:
		return false
	}
}

// CanTransition: enfermedad avanza DIAGNOSTICADA -> TRATAMIENTO -> FINALIZADA
// (o directo a FINALIZADA); vacunas y tratamientos salen de PENDIENTE una vez.
func (k Kind) CanTransition(from, to Estado) bool {
	if !k.ValidEstado(from) || !k.ValidEstado(to) || from == to {
		return false
	}
	switch k {
	case KindEnfermedad:
		switch from {
		case EstadoDiagnosticada:
			return to == EstadoEnTratamiento || to == EstadoFinalizada
		case EstadoEnTratamiento:
			return to == EstadoFinalizada
		}
		return false
	default:
		return from == EstadoPendiente
	}
}

// Incident es una incidencia aplicada a un animal.
type Incident struct {
	ID            string
	Kind          Kind
	AnimalID      string
	CatalogID     string // enfermedad / tratamiento / vacuna del catálogo
	Responsable   string
	Fecha         time.Time
	Estado        Estado
	Observaciones string
}

// CatalogItem es una entrada del catálogo de enfermedades, tratamientos o vacunas.
type CatalogItem struct {
	ID          string
	Kind        Kind
	Nombre      string
	Descripcion string
}
