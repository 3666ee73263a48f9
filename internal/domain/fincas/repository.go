package fincas

import "context"

type Repository interface {
	GetFinca(ctx context.Context, id string) (Finca, error)

	ListInvitationsByFinca(ctx context.Context, fincaID string) ([]Invitation, error)
	ListInvitationsByEmail(ctx context.Context, email string) ([]Invitation, error)
	GetInvitation(ctx context.Context, id string) (Invitation, error)
	CreateInvitation(ctx context.Context, inv Invitation) (Invitation, error)
	UpdateInvitation(ctx context.Context, inv Invitation) (Invitation, error)

	ListMembers(ctx context.Context, fincaID string) ([]Membership, error)
	AddMember(ctx context.Context, m Membership) (Membership, error)
}
