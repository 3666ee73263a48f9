// Package session guarda el único token bearer que el cliente conserva.
//
// El Session se inyecta explícitamente en el cliente HTTP al construirlo; no hay
// estado global. En el BFF cada request puede traer su propio token, que viaja
// por context (WithToken) y tiene prioridad sobre el Session del cliente.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store persiste el token entre ejecuciones (solo el CLI lo usa).
type Store interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type Session struct {
	mu    sync.RWMutex
	token string
	store Store
}

// New crea una sesión vacía sin persistencia.
func New() *Session {
	return &Session{}
}

// NewWithStore crea una sesión y carga el token guardado, si existe.
func NewWithStore(store Store) (*Session, error) {
	s := &Session{store: store}
	if store == nil {
		return s, nil
	}
	tok, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	s.token = strings.TrimSpace(tok)
	return s, nil
}

func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// Login reemplaza el token actual.
func (s *Session) Login(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("session: empty token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Save(token); err != nil {
			return fmt.Errorf("session: save: %w", err)
		}
	}
	s.token = token
	return nil
}

// Logout borra el token (memoria y store).
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			return fmt.Errorf("session: clear: %w", err)
		}
	}
	return nil
}

type ctxKey struct{}

// WithToken adjunta un token al context (override por request).
func WithToken(ctx context.Context, token string) context.Context {
	token = strings.TrimSpace(token)
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, token)
}

// TokenFrom devuelve el token adjuntado con WithToken.
func TokenFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(ctxKey{}).(string)
	return v, ok && v != ""
}

// FileStore guarda el token en un archivo con permisos 0600.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: expandHome(path)}
}

func (f *FileStore) Load() (string, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (f *FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.Path, []byte(token+"\n"), 0o600)
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func expandHome(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
