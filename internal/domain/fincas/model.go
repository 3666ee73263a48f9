package fincas

import "time"

type Rol string

const (
	RolPropietario   Rol = "PROPIETARIO"
	RolAdministrador Rol = "ADMINISTRADOR"
	RolTrabajador    Rol = "TRABAJADOR"
	RolVeterinario   Rol = "VETERINARIO"
)

type Status string

const (
	StatusPendiente Status = "PENDIENTE"
	StatusAceptada  Status = "ACEPTADA"
	StatusRechazada Status = "RECHAZADA"
)

type Finca struct {
	ID        string
	Nombre    string
	Ubicacion string
}

// Invitation invita a un correo a sumarse a una finca con un rol.
type Invitation struct {
	ID      string
	FincaID string

	Email       string // invitado
	InvitadoPor string // email de quien invita

	Rol    Rol
	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Membership struct {
	FincaID string
	Email   string
	Rol     Rol
}

// InvitationView es la invitación con su finca resuelta. Finca es nil si no se
// pudo obtener.
type InvitationView struct {
	Invitation Invitation
	Finca      *Finca
}
