package memory

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"ganado360/internal/domain/accounts"
	"ganado360/internal/platform/httpclient"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// tokenClaims son los claims de los tokens que emite el modo dev.
type tokenClaims struct {
	Email  string `json:"email"`
	Nombre string `json:"nombre"`
	jwt.RegisteredClaims
}

type account struct {
	user accounts.User
	hash []byte
}

// AccountsRepo reemplaza /api/auth en modo dev: guarda hashes bcrypt y emite
// JWT HS256 firmados con un secreto local.
type AccountsRepo struct {
	mu      sync.RWMutex
	byEmail map[string]account

	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

func NewAccountsRepo(secret string, ttl time.Duration) *AccountsRepo {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AccountsRepo{
		byEmail: make(map[string]account),
		secret:  []byte(secret),
		ttl:     ttl,
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
	}
}

func unauthorized() error {
	return &httpclient.HTTPError{StatusCode: http.StatusUnauthorized, Message: "Unauthorized"}
}

func (r *AccountsRepo) Register(ctx context.Context, in accounts.RegisterInput) (accounts.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), r.cost)
	if err != nil {
		return accounts.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[email]; exists {
		return accounts.User{}, conflict("email already registered")
	}
	u := accounts.User{ID: uuid.NewString(), Nombre: strings.TrimSpace(in.Nombre), Email: email}
	r.byEmail[email] = account{user: u, hash: hash}
	return u, nil
}

func (r *AccountsRepo) Login(ctx context.Context, c accounts.Credentials) (string, error) {
	email := strings.ToLower(strings.TrimSpace(c.Email))

	r.mu.RLock()
	acc, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return "", unauthorized()
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(c.Password)); err != nil {
		return "", unauthorized()
	}
	return r.issue(acc.user)
}

func (r *AccountsRepo) issue(u accounts.User) (string, error) {
	now := r.now()
	claims := tokenClaims{
		Email:  u.Email,
		Nombre: u.Nombre,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    "ganado360-dev",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

// EmailFromToken valida un token emitido por Login y devuelve su email.
func (r *AccountsRepo) EmailFromToken(token string) (string, bool) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return r.secret, nil
	}, jwt.WithTimeFunc(r.now))
	if err != nil || !parsed.Valid {
		return "", false
	}
	return claims.Email, claims.Email != ""
}
