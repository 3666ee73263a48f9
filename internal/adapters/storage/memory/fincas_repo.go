package memory

import (
	"context"
	"strings"
	"sync"

	"ganado360/internal/domain/fincas"

	"github.com/google/uuid"
)

type FincasRepo struct {
	mu          sync.RWMutex
	fincas      map[string]fincas.Finca
	invitations map[string]fincas.Invitation
	invOrder    []string
	members     map[string][]fincas.Membership
}

func NewFincasRepo() *FincasRepo {
	return &FincasRepo{
		fincas:      make(map[string]fincas.Finca),
		invitations: make(map[string]fincas.Invitation),
		members:     make(map[string][]fincas.Membership),
	}
}

// PutFinca registra una finca con su propietario (seed de desarrollo).
func (r *FincasRepo) PutFinca(f fincas.Finca, ownerEmail string) fincas.Finca {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	r.fincas[f.ID] = f
	if owner := strings.ToLower(strings.TrimSpace(ownerEmail)); owner != "" {
		r.members[f.ID] = append(r.members[f.ID], fincas.Membership{FincaID: f.ID, Email: owner, Rol: fincas.RolPropietario})
	}
	return f
}

func (r *FincasRepo) GetFinca(ctx context.Context, id string) (fincas.Finca, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fincas[id]
	if !ok {
		return fincas.Finca{}, notFound("finca")
	}
	return f, nil
}

func (r *FincasRepo) listInvitations(match func(fincas.Invitation) bool) []fincas.Invitation {
	out := make([]fincas.Invitation, 0)
	for _, id := range r.invOrder {
		if inv := r.invitations[id]; match(inv) {
			out = append(out, inv)
		}
	}
	return out
}

func (r *FincasRepo) ListInvitationsByFinca(ctx context.Context, fincaID string) ([]fincas.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.fincas[fincaID]; !ok {
		return nil, notFound("finca")
	}
	return r.listInvitations(func(inv fincas.Invitation) bool { return inv.FincaID == fincaID }), nil
}

func (r *FincasRepo) ListInvitationsByEmail(ctx context.Context, email string) ([]fincas.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listInvitations(func(inv fincas.Invitation) bool { return strings.EqualFold(inv.Email, email) }), nil
}

func (r *FincasRepo) GetInvitation(ctx context.Context, id string) (fincas.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invitations[id]
	if !ok {
		return fincas.Invitation{}, notFound("invitacion")
	}
	return inv, nil
}

func (r *FincasRepo) CreateInvitation(ctx context.Context, inv fincas.Invitation) (fincas.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fincas[inv.FincaID]; !ok {
		return fincas.Invitation{}, notFound("finca")
	}
	inv.ID = uuid.NewString()
	r.invitations[inv.ID] = inv
	r.invOrder = append(r.invOrder, inv.ID)
	return inv, nil
}

func (r *FincasRepo) UpdateInvitation(ctx context.Context, inv fincas.Invitation) (fincas.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invitations[inv.ID]; !ok {
		return fincas.Invitation{}, notFound("invitacion")
	}
	r.invitations[inv.ID] = inv
	return inv, nil
}

func (r *FincasRepo) ListMembers(ctx context.Context, fincaID string) ([]fincas.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]fincas.Membership{}, r.members[fincaID]...), nil
}

func (r *FincasRepo) AddMember(ctx context.Context, m fincas.Membership) (fincas.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fincas[m.FincaID]; !ok {
		return fincas.Membership{}, notFound("finca")
	}
	for _, cur := range r.members[m.FincaID] {
		if strings.EqualFold(cur.Email, m.Email) {
			return fincas.Membership{}, conflict("already a member")
		}
	}
	r.members[m.FincaID] = append(r.members[m.FincaID], m)
	return m, nil
}
