package ganadoapi

import (
	"context"
	"fmt"

	"ganado360/internal/domain/accounts"
	"ganado360/internal/platform/httpclient"
	"ganado360/internal/platform/logger"
)

const (
	loginPath    = "/api/auth/login"
	registroPath = "/api/auth/registro"
)

type AccountsRepo struct {
	hc *httpclient.Client
	log logger.Logger
}

func (r *AccountsRepo) Login(ctx context.Context, c accounts.Credentials) (string, error) {
	in := map[string]string{"email": c.Email, "password": c.Password}
	var out struct {
		Token string `json:"token"`
	}
	if err := r.hc.Post(ctx, loginPath, in, &out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return out.Token, nil
}

func (r *AccountsRepo) Register(ctx context.Context, in accounts.RegisterInput) (accounts.User, error) {
	body := map[string]string{"nombre": in.Nombre, "email": in.Email, "password": in.Password}
	var out struct {
		ID     string `json:"id"`
		Nombre string `json:"nombre"`
		Email  string `json:"email"`
	}
	if err := r.hc.Post(ctx, registroPath, body, &out); err != nil {
		return accounts.User{}, fmt.Errorf("registro: %w", err)
	}
	return accounts.User(out), nil
}
