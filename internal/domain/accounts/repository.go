package accounts

import "context"

// Repository es el acceso a /api/auth del API remoto.
type Repository interface {
	Login(ctx context.Context, c Credentials) (token string, err error)
	Register(ctx context.Context, in RegisterInput) (User, error)
}
