package inventory

import "time"

// Sexo del animal.
// @Enum M, H
type Sexo string

const (
	SexoMacho  Sexo = "M"
	SexoHembra Sexo = "H"
)

func (s Sexo) Valid() bool { return s == SexoMacho || s == SexoHembra }

// Estado del animal. Solo existe la transición Activo -> Inactivo (baja).
type Estado string

const (
	EstadoActivo   Estado = "Activo"
	EstadoInactivo Estado = "Inactivo"
)

// Animal es el registro de inventario de un animal de una finca.
type Animal struct {
	ID      string
	FincaID string

	Especie string
	Raza    string
	Sexo    Sexo

	FechaNacimiento time.Time

	Identificador string   // arete/tag, opcional
	Peso          *float64 // kg, opcional
	Ubicacion     string   // opcional

	Estado Estado
}

func (a Animal) Activo() bool { return a.Estado != EstadoInactivo }

// TipoEvento de la historia del animal.
type TipoEvento string

const (
	EventoBaja         TipoEvento = "BAJA"
	EventoNacimiento   TipoEvento = "NACIMIENTO"
	EventoVacunacion   TipoEvento = "VACUNACION"
	EventoTratamiento  TipoEvento = "TRATAMIENTO"
	EventoPesaje       TipoEvento = "PESAJE"
	EventoMovimiento   TipoEvento = "MOVIMIENTO"
	EventoReproduccion TipoEvento = "REPRODUCCION"
	EventoSanitario    TipoEvento = "SANITARIO"
)

func (t TipoEvento) Valid() bool {
	switch t {
	case EventoBaja, EventoNacimiento, EventoVacunacion, EventoTratamiento,
		EventoPesaje, EventoMovimiento, EventoReproduccion, EventoSanitario:
		return true
	default:
		return false
	}
}

// HistoryEntry es una entrada append-only de la historia del animal.
// El cliente nunca la modifica ni la borra.
type HistoryEntry struct {
	ID          string
	AnimalID    string
	TipoEvento  TipoEvento
	Fecha       time.Time
	Descripcion string
}
