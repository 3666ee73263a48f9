package reproduction

import (
	"time"

	"ganado360/internal/domain/inventory"
)

// MontaEstado es el ciclo de vida de una monta.
// ACTIVA -> CONFIRMADA | FALLIDA (por diagnóstico), CONFIRMADA|ACTIVA -> FINALIZADA (por nacimiento).
type MontaEstado string

const (
	MontaActiva     MontaEstado = "ACTIVA"
	MontaConfirmada MontaEstado = "CONFIRMADA"
	MontaFallida    MontaEstado = "FALLIDA"
	MontaFinalizada MontaEstado = "FINALIZADA"
)

// Terminal indica que la monta ya no admite transiciones.
func (e MontaEstado) Terminal() bool {
	return e == MontaFallida || e == MontaFinalizada
}

func (e MontaEstado) CanTransition(to MontaEstado) bool {
	switch e {
	case MontaActiva:
		return to == MontaConfirmada || to == MontaFallida || to == MontaFinalizada
	case MontaConfirmada:
		return to == MontaFinalizada
	default:
		return false
	}
}

type Monta struct {
	ID              string
	IDHembra        string
	IDMacho         string // opcional (inseminación sin macho registrado)
	Fecha           time.Time
	MetodoUtilizado string
	Notas           string
	Estado          MontaEstado
}

type ResultadoDiagnostico string

const (
	ResultadoGestante      ResultadoDiagnostico = "GESTANTE"
	ResultadoVacia         ResultadoDiagnostico = "VACIA"
	ResultadoNoConcluyente ResultadoDiagnostico = "NO_CONCLUYENTE"
)

// EstadoMonta devuelve el estado al que lleva el resultado; "" = sin cambio.
func (r ResultadoDiagnostico) EstadoMonta() MontaEstado {
	switch r {
	case ResultadoGestante:
		return MontaConfirmada
	case ResultadoVacia:
		return MontaFallida
	default:
		return ""
	}
}

type Diagnostico struct {
	ID            string
	IDMonta       string
	Fecha         time.Time
	Resultado     ResultadoDiagnostico
	Especie       string
	Observaciones string
}

type GestacionEstado string

const (
	GestacionActiva     GestacionEstado = "ACTIVA"
	GestacionFinalizada GestacionEstado = "FINALIZADA"
	GestacionPerdida    GestacionEstado = "PERDIDA"
)

// Gestacion no referencia a una monta; ver DESIGN.md.
type Gestacion struct {
	ID                 string
	IDHembra           string
	Estado             GestacionEstado
	FechaInicio        time.Time
	FechaEstimadaParto time.Time
}

type Nacimiento struct {
	ID            string
	IDMonta       string
	IDMadre       string
	IDAnimal      string // el animal recién nacido
	Fecha         time.Time
	Sexo          inventory.Sexo
	Peso          *float64
	Observaciones string
}

// Genealogia es la arista madre/padre -> hijo. Hay a lo sumo una por hijo.
type Genealogia struct {
	ID    string
	Madre string // opcional
	Padre string // opcional
	Hijo  string
}
