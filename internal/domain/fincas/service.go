package fincas

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"ganado360/internal/platform/logger"
	"ganado360/internal/platform/validation"

	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrForbidden     = errors.New("forbidden")
	ErrBadState      = errors.New("invalid state")
	ErrAlreadyMember = errors.New("already a member of the farm")
)

// maxFarmLookups acota las lecturas de fincas en vuelo.
const maxFarmLookups = 8

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
		log:  log.With(map[string]any{"component": "fincas"}),
		now:  time.Now,
	}
}

type InviteInput struct {
	FincaID     string `validate:"required"`
	Email       string `validate:"required,email"`
	InvitadoPor string `validate:"omitempty,email"`
	Rol         Rol    `validate:"required,oneof=ADMINISTRADOR TRABAJADOR VETERINARIO"`
}

// Invite crea la invitación. Si ya hay una PENDIENTE para el mismo correo y
// finca se actualiza su rol en lugar de duplicarla.
func (s *Service) Invite(ctx context.Context, in InviteInput) (Invitation, error) {
	in.FincaID = strings.TrimSpace(in.FincaID)
	in.Email = normalizeEmail(in.Email)
	in.InvitadoPor = normalizeEmail(in.InvitadoPor)
	in.Rol = Rol(strings.ToUpper(strings.TrimSpace(string(in.Rol))))
	if err := validation.Struct(in); err != nil {
		return Invitation{}, err
	}
	if in.Email == in.InvitadoPor {
		return Invitation{}, validation.Field("Email", "self")
	}

	members, err := s.repo.ListMembers(ctx, in.FincaID)
	if err != nil {
		return Invitation{}, err
	}
	for _, m := range members {
		if normalizeEmail(m.Email) == in.Email {
			return Invitation{}, ErrAlreadyMember
		}
	}

	now := s.now()

	existing, err := s.repo.ListInvitationsByFinca(ctx, in.FincaID)
	if err != nil {
		return Invitation{}, err
	}
	for _, inv := range existing {
		if normalizeEmail(inv.Email) != in.Email || inv.Status != StatusPendiente {
			continue
		}
		if inv.Rol == in.Rol {
			return inv, nil
		}
		inv.Rol = in.Rol
		inv.UpdatedAt = now
		return s.repo.UpdateInvitation(ctx, inv)
	}

	return s.repo.CreateInvitation(ctx, Invitation{
		FincaID:     in.FincaID,
		Email:       in.Email,
		InvitadoPor: in.InvitadoPor,
		Rol:         in.Rol,
		Status:      StatusPendiente,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Accept acepta la invitación y da de alta la membresía. Aceptar dos veces es
// idempotente; si la primera vez la membresía no llegó a crearse, la segunda
// la crea.
func (s *Service) Accept(ctx context.Context, invitationID, email string) (Invitation, error) {
	inv, err := s.ownedInvitation(ctx, invitationID, email)
	if err != nil {
		return Invitation{}, err
	}
	switch inv.Status {
	case StatusAceptada:
		return inv, s.ensureMember(ctx, inv)
	case StatusPendiente:
	default:
		return Invitation{}, ErrBadState
	}

	inv.Status = StatusAceptada
	inv.UpdatedAt = s.now()
	updated, err := s.repo.UpdateInvitation(ctx, inv)
	if err != nil {
		return Invitation{}, err
	}
	return updated, s.ensureMember(ctx, updated)
}

// ensureMember agrega la membresía de una invitación aceptada si todavía no existe.
func (s *Service) ensureMember(ctx context.Context, inv Invitation) error {
	members, err := s.repo.ListMembers(ctx, inv.FincaID)
	if err == nil {
		for _, m := range members {
			if normalizeEmail(m.Email) == normalizeEmail(inv.Email) {
				return nil
			}
		}
		_, err = s.repo.AddMember(ctx, Membership{FincaID: inv.FincaID, Email: normalizeEmail(inv.Email), Rol: inv.Rol})
	}
	if err != nil {
		s.log.Error("invitación aceptada sin membresía", map[string]any{
			"invitation_id": inv.ID, "finca_id": inv.FincaID, "err": err,
		})
		return err
	}
	return nil
}

// Reject rechaza una invitación PENDIENTE. Rechazar dos veces es idempotente.
func (s *Service) Reject(ctx context.Context, invitationID, email string) (Invitation, error) {
	inv, err := s.ownedInvitation(ctx, invitationID, email)
	if err != nil {
		return Invitation{}, err
	}
	switch inv.Status {
	case StatusRechazada:
		return inv, nil
	case StatusPendiente:
	default:
		return Invitation{}, ErrBadState
	}

	inv.Status = StatusRechazada
	inv.UpdatedAt = s.now()
	return s.repo.UpdateInvitation(ctx, inv)
}

func (s *Service) ownedInvitation(ctx context.Context, invitationID, email string) (Invitation, error) {
	invitationID = strings.TrimSpace(invitationID)
	email = normalizeEmail(email)
	if invitationID == "" || email == "" {
		return Invitation{}, ErrInvalidInput
	}
	inv, err := s.repo.GetInvitation(ctx, invitationID)
	if err != nil {
		return Invitation{}, err
	}
	if normalizeEmail(inv.Email) != email {
		return Invitation{}, ErrForbidden
	}
	return inv, nil
}

func (s *Service) ListByFinca(ctx context.Context, fincaID string) ([]Invitation, error) {
	fincaID = strings.TrimSpace(fincaID)
	if fincaID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListInvitationsByFinca(ctx, fincaID)
}

// ListMyInvitations trae las invitaciones del correo y resuelve cada finca en
// paralelo. Una finca que no se puede leer queda en nil; no falla el listado.
func (s *Service) ListMyInvitations(ctx context.Context, email string) ([]InvitationView, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidInput
	}
	invs, err := s.repo.ListInvitationsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		fincas = make(map[string]Finca)
		eg     errgroup.Group
	)
	eg.SetLimit(maxFarmLookups)

	seen := make(map[string]struct{})
	for _, inv := range invs {
		id := inv.FincaID
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		eg.Go(func() error {
			f, err := s.repo.GetFinca(ctx, id)
			if err != nil {
				s.log.Warn("invitaciones: finca no disponible", map[string]any{"finca_id": id, "err": err})
				return nil
			}
			mu.Lock()
			fincas[id] = f
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]InvitationView, 0, len(invs))
	for _, inv := range invs {
		v := InvitationView{Invitation: inv}
		if f, ok := fincas[inv.FincaID]; ok {
			v.Finca = &f
		}
		out = append(out, v)
	}
	return out, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
