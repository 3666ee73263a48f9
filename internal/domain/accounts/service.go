package accounts

import (
	"context"
	"errors"
	"strings"

	"ganado360/internal/platform/logger"
	"ganado360/internal/platform/session"
	"ganado360/internal/platform/validation"
)

var ErrEmptyToken = errors.New("login returned empty token")

type Service struct {
	repo Repository
	sess *session.Session
	log  logger.Logger
}

// NewService: sess puede ser nil (el BFF no guarda tokens; se los devuelve al
// cliente). El CLI pasa su sesión con FileStore.
func NewService(repo Repository, sess *session.Session, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo: repo,
		sess: sess,
		log:  log.With(map[string]any{"component": "accounts"}),
	}
}

// Login valida el formulario, autentica contra el API y deja el token en la
// sesión (si hay una).
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	c := Credentials{Email: normalizeEmail(email), Password: password}
	if err := validation.Struct(c); err != nil {
		return "", err
	}

	token, err := s.repo.Login(ctx, c)
	if err != nil {
		s.log.Warn("login rechazado", map[string]any{"email": c.Email, "err": err})
		return "", err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrEmptyToken
	}
	if s.sess != nil {
		if err := s.sess.Login(token); err != nil {
			return "", err
		}
	}
	s.log.Info("login ok", map[string]any{"email": c.Email})
	return token, nil
}

// Logout descarta el token guardado. No hay llamada al API.
func (s *Service) Logout() error {
	if s.sess == nil {
		return nil
	}
	return s.sess.Logout()
}

// Register valida campos y política de contraseña antes de llamar al API.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return User{}, err
	}
	return s.repo.Register(ctx, in)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
