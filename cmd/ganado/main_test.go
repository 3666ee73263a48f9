package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ganado360/internal/config"
	"ganado360/internal/domain/reproduction"
	"ganado360/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI simula el API remoto con un único usuario y token.
type fakeAPI struct {
	mu      sync.Mutex
	token   string
	revoked bool
	auths   []string

	// expireOnCreate revoca el token justo después de crear un animal.
	expireOnCreate bool
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "Secreto123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"credenciales inválidas"}`))
			return
		}
		writeJSON(w, map[string]string{"token": f.token})
	})
	mux.HandleFunc("GET /api/inventory/animales", f.authed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []map[string]any{
			{"id": "cria", "fincaId": "f1", "especie": "Bovino", "raza": "Gyr", "sexo": "H", "fechaNacimiento": "2024-10-20", "estado": "Activo"},
			{"id": "vaca", "fincaId": "f1", "especie": "Bovino", "raza": "Gyr", "sexo": "H", "fechaNacimiento": "2019-02-01", "estado": "Activo", "identificador": "V-7"},
			{"id": "toro", "fincaId": "f1", "especie": "Bovino", "raza": "Gyr", "sexo": "M", "fechaNacimiento": "2018-06-01", "estado": "Activo"},
		})
	}))
	mux.HandleFunc("GET /api/reproduccion/genealogias", f.authed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []map[string]any{{"id": "g1", "madre": "vaca", "padre": "toro", "hijo": "cria"}})
	}))
	mux.HandleFunc("GET /api/reproduccion/gestaciones", f.authed(func(w http.ResponseWriter, _ *http.Request) {
		soon := time.Now().UTC().AddDate(0, 0, 5).Format("2006-01-02")
		writeJSON(w, []map[string]any{
			{"id": "gest-1", "idHembra": "vaca", "estado": "ACTIVA", "fechaInicio": "2024-01-01", "fechaEstimadaParto": soon},
		})
	}))
	mux.HandleFunc("GET /api/reproduccion/montas/{id}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"id": r.PathValue("id"), "idHembra": "vaca", "idMacho": "toro", "fecha": "2023-12-01",
			"metodoUtilizado": "natural", "estado": "ACTIVA",
		})
	}))
	mux.HandleFunc("GET /api/inventory/animales/{id}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"id": r.PathValue("id"), "fincaId": "f1", "especie": "Bovino", "raza": "Gyr", "sexo": "H",
			"fechaNacimiento": "2019-02-01", "estado": "Activo",
		})
	}))
	mux.HandleFunc("POST /api/inventory/animales", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["id"] = "cria-nueva"
		f.mu.Lock()
		if f.expireOnCreate {
			f.revoked = true
		}
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(body)
	}))
	mux.HandleFunc("POST /api/reproduccion/nacimientos", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["id"] = "nac-1"
		writeJSON(w, body)
	}))
	return mux
}

func (f *fakeAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.auths = append(f.auths, r.Header.Get("Authorization"))
		ok := !f.revoked && r.Header.Get("Authorization") == "Bearer "+f.token
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthorized"}`))
			return
		}
		next(w, r)
	}
}

func (f *fakeAPI) seenAuth() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auths...)
}

func (f *fakeAPI) revoke() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type cliFixture struct {
	api         *fakeAPI
	out         *bytes.Buffer
	sessionFile string
	cfg         *config.Config
}

func newFixture(t *testing.T) *cliFixture {
	t.Helper()
	api := &fakeAPI{token: "tok-abc"}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	sessionFile := filepath.Join(t.TempDir(), "ganado", "session")
	return &cliFixture{
		api:         api,
		out:         &bytes.Buffer{},
		sessionFile: sessionFile,
		cfg: &config.Config{
			UpstreamURL:            srv.URL,
			UpstreamTimeoutSeconds: 5,
			SessionFile:            sessionFile,
			ReminderWindowDays:     30,
		},
	}
}

// run crea un app nuevo por invocación, como cada ejecución del binario.
func (f *cliFixture) run(t *testing.T, args ...string) error {
	t.Helper()
	a, err := newApp(f.cfg, logger.NewNop(), f.out)
	require.NoError(t, err)
	return a.execute(context.Background(), args)
}

func (f *cliFixture) storedToken(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(f.sessionFile)
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(t, err)
	return string(bytes.TrimSpace(b))
}

func TestNewApp_RequiresUpstream(t *testing.T) {
	_, err := newApp(&config.Config{SessionFile: filepath.Join(t.TempDir(), "s")}, logger.NewNop(), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestLoginStoresToken(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, "login", "--email", " Ana@Finca.com ", "--password", "Secreto123")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", f.storedToken(t))
	assert.Contains(t, f.out.String(), "ana@finca.com")
}

func TestLoginRejected(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, "login", "--email", "ana@finca.com", "--password", "Incorrecta1")
	require.Error(t, err)
	assert.Empty(t, f.storedToken(t))
}

func TestCommandsRequireSession(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, "pedigree", "cria")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ganado login")
	assert.Empty(t, f.api.seenAuth(), "no debe llamar al API sin sesión")
}

func TestPedigreeUsesStoredToken(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run(t, "login", "--email", "ana@finca.com", "--password", "Secreto123"))
	f.out.Reset()

	require.NoError(t, f.run(t, "pedigree", "cria"))

	out := f.out.String()
	assert.Contains(t, out, "vaca [V-7] H")
	assert.Contains(t, out, "toro M")
	assert.Contains(t, out, "Crías: ninguna")
	require.NotEmpty(t, f.api.seenAuth())
	for _, h := range f.api.seenAuth() {
		assert.Equal(t, "Bearer tok-abc", h)
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run(t, "login", "--email", "ana@finca.com", "--password", "Secreto123"))
	f.api.revoke()

	err := f.run(t, "pedigree", "cria")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ganado login")
	assert.Empty(t, f.storedToken(t))
}

func TestBirthPartialWithExpiredSessionKeepsResumeHint(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run(t, "login", "--email", "ana@finca.com", "--password", "Secreto123"))
	f.api.mu.Lock()
	f.api.expireOnCreate = true
	f.api.mu.Unlock()

	err := f.run(t, "nacimiento", "--monta", "m1", "--madre", "vaca",
		"--especie", "Bovino", "--raza", "Gyr", "--sexo", "H", "--fecha", "2024-03-01")

	require.Error(t, err)
	var be *reproduction.BirthError
	require.ErrorAs(t, err, &be)
	assert.True(t, be.Partial())
	assert.Equal(t, "cria-nueva", be.AnimalID)

	msg := err.Error()
	assert.Contains(t, msg, "cria-nueva")
	assert.Contains(t, msg, "ganado nacimiento reanudar "+be.SagaID)
	assert.Contains(t, msg, "ganado login")
	assert.Empty(t, f.storedToken(t))
}

func TestRecordatorios(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run(t, "login", "--email", "ana@finca.com", "--password", "Secreto123"))
	f.out.Reset()

	require.NoError(t, f.run(t, "recordatorios"))
	assert.Contains(t, f.out.String(), "gest-1")

	f.out.Reset()
	require.NoError(t, f.run(t, "recordatorios", "--dias", "2"))
	assert.Contains(t, f.out.String(), "Sin partos estimados")

	assert.Error(t, f.run(t, "recordatorios", "--dias", "400"))
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run(t, "login", "--email", "ana@finca.com", "--password", "Secreto123"))

	require.NoError(t, f.run(t, "logout"))
	assert.Empty(t, f.storedToken(t))
}
