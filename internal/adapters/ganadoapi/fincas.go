package ganadoapi

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"ganado360/internal/domain/fincas"
	"ganado360/internal/platform/httpclient"
	"ganado360/internal/platform/logger"
)

const (
	fincasPath      = "/api/fincas"
	invitacionesAll = "/api/fincas/invitaciones"
)

type FincasRepo struct {
	hc *httpclient.Client
	log logger.Logger
}

type fincaDTO struct {
	ID        string `json:"id"`
	Nombre    string `json:"nombre"`
	Ubicacion string `json:"ubicacion,omitempty"`
}

type invitationDTO struct {
	ID          string `json:"id,omitempty"`
	FincaID     string `json:"fincaId"`
	Email       string `json:"email"`
	InvitadoPor string `json:"invitadoPor,omitempty"`
	Rol         string `json:"rol"`
	Estado      string `json:"estado"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

func toInvitationDTO(inv fincas.Invitation) invitationDTO {
	return invitationDTO{
		ID:          inv.ID,
		FincaID:     inv.FincaID,
		Email:       inv.Email,
		InvitadoPor: inv.InvitadoPor,
		Rol:         string(inv.Rol),
		Estado:      string(inv.Status),
		CreatedAt:   formatInstant(inv.CreatedAt),
		UpdatedAt:   formatInstant(inv.UpdatedAt),
	}
}

func (d invitationDTO) domain() (fincas.Invitation, error) {
	created, err := parseDate("invitacion.createdAt", d.CreatedAt)
	if err != nil {
		return fincas.Invitation{}, err
	}
	updated, err := parseDate("invitacion.updatedAt", d.UpdatedAt)
	if err != nil {
		return fincas.Invitation{}, err
	}
	return fincas.Invitation{
		ID:          d.ID,
		FincaID:     d.FincaID,
		Email:       d.Email,
		InvitadoPor: d.InvitadoPor,
		Rol:         fincas.Rol(d.Rol),
		Status:      fincas.Status(d.Estado),
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

// formatInstant usa RFC3339: las invitaciones guardan hora, no solo día.
func formatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

type memberDTO struct {
	FincaID string `json:"fincaId"`
	Email   string `json:"email"`
	Rol     string `json:"rol"`
}

func (d memberDTO) domain() (fincas.Membership, error) {
	return fincas.Membership{FincaID: d.FincaID, Email: d.Email, Rol: fincas.Rol(d.Rol)}, nil
}

func (r *FincasRepo) GetFinca(ctx context.Context, id string) (fincas.Finca, error) {
	var out fincaDTO
	if err := r.hc.Get(ctx, withID(fincasPath, id), &out); err != nil {
		return fincas.Finca{}, fmt.Errorf("get finca %s: %w", id, err)
	}
	return fincas.Finca(out), nil
}

func (r *FincasRepo) ListInvitationsByFinca(ctx context.Context, fincaID string) ([]fincas.Invitation, error) {
	var out []invitationDTO
	if err := r.hc.Get(ctx, withID(fincasPath, fincaID)+"/invitaciones", &out); err != nil {
		return nil, fmt.Errorf("list invitaciones finca %s: %w", fincaID, err)
	}
	return convertAll(r.log, "invitacion", out, invitationDTO.domain)
}

func (r *FincasRepo) ListInvitationsByEmail(ctx context.Context, email string) ([]fincas.Invitation, error) {
	var out []invitationDTO
	if err := r.hc.Get(ctx, withQuery(invitacionesAll, url.Values{"email": {email}}), &out); err != nil {
		return nil, fmt.Errorf("list invitaciones de %s: %w", email, err)
	}
	return convertAll(r.log, "invitacion", out, invitationDTO.domain)
}

func (r *FincasRepo) GetInvitation(ctx context.Context, id string) (fincas.Invitation, error) {
	var out invitationDTO
	if err := r.hc.Get(ctx, withID(invitacionesAll, id), &out); err != nil {
		return fincas.Invitation{}, fmt.Errorf("get invitacion %s: %w", id, err)
	}
	return out.domain()
}

func (r *FincasRepo) CreateInvitation(ctx context.Context, inv fincas.Invitation) (fincas.Invitation, error) {
	body := toInvitationDTO(inv)
	body.ID = ""
	var out invitationDTO
	if err := r.hc.Post(ctx, withID(fincasPath, inv.FincaID)+"/invitaciones", body, &out); err != nil {
		return fincas.Invitation{}, fmt.Errorf("create invitacion: %w", err)
	}
	return out.domain()
}

func (r *FincasRepo) UpdateInvitation(ctx context.Context, inv fincas.Invitation) (fincas.Invitation, error) {
	var out invitationDTO
	if err := r.hc.Put(ctx, withID(invitacionesAll, inv.ID), toInvitationDTO(inv), &out); err != nil {
		return fincas.Invitation{}, fmt.Errorf("update invitacion %s: %w", inv.ID, err)
	}
	return out.domain()
}

func (r *FincasRepo) ListMembers(ctx context.Context, fincaID string) ([]fincas.Membership, error) {
	var out []memberDTO
	if err := r.hc.Get(ctx, withID(fincasPath, fincaID)+"/miembros", &out); err != nil {
		return nil, fmt.Errorf("list miembros %s: %w", fincaID, err)
	}
	return convertAll(r.log, "miembro", out, memberDTO.domain)
}

func (r *FincasRepo) AddMember(ctx context.Context, m fincas.Membership) (fincas.Membership, error) {
	in := memberDTO{FincaID: m.FincaID, Email: m.Email, Rol: string(m.Rol)}
	var out memberDTO
	if err := r.hc.Post(ctx, withID(fincasPath, m.FincaID)+"/miembros", in, &out); err != nil {
		return fincas.Membership{}, fmt.Errorf("add miembro %s: %w", m.FincaID, err)
	}
	return out.domain()
}
