package memory

import (
	"context"
	"testing"
	"time"

	"ganado360/internal/domain/accounts"
	"ganado360/internal/domain/fincas"
	"ganado360/internal/domain/inventory"
	"ganado360/internal/domain/reproduction"
	"ganado360/internal/platform/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestInventoryRepo_NotFoundLooksLikeUpstream(t *testing.T) {
	repo := NewInventoryRepo()

	_, err := repo.GetAnimal(context.Background(), "nope")
	assert.True(t, httpclient.IsNotFound(err))

	_, err = repo.AppendHistory(context.Background(), inventory.HistoryEntry{AnimalID: "nope"})
	assert.True(t, httpclient.IsNotFound(err))
}

func TestInventoryRepo_ListKeepsInsertionOrder(t *testing.T) {
	repo := NewInventoryRepo()
	ctx := context.Background()
	for _, raza := range []string{"Brahman", "Gyr", "Holstein"} {
		_, err := repo.CreateAnimal(ctx, inventory.Animal{Raza: raza})
		require.NoError(t, err)
	}

	items, err := repo.ListAnimals(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Brahman", items[0].Raza)
	assert.Equal(t, "Holstein", items[2].Raza)
	assert.Equal(t, inventory.EstadoActivo, items[1].Estado)
}

func TestReproductionRepo_GestanteOpensGestation(t *testing.T) {
	repo := NewReproductionRepo()
	ctx := context.Background()
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	m, err := repo.CreateMonta(ctx, reproduction.Monta{IDHembra: "h1", Fecha: start})
	require.NoError(t, err)
	assert.Equal(t, reproduction.MontaActiva, m.Estado)

	_, err = repo.CreateDiagnostico(ctx, reproduction.Diagnostico{IDMonta: m.ID, Resultado: reproduction.ResultadoGestante, Especie: "Bovino"})
	require.NoError(t, err)

	gs, err := repo.ListGestaciones(ctx)
	require.NoError(t, err)
	require.Len(t, gs, 1)
	assert.Equal(t, "h1", gs[0].IDHembra)
	assert.Equal(t, start.AddDate(0, 0, 283), gs[0].FechaEstimadaParto)

	_, err = repo.CreateNacimiento(ctx, reproduction.Nacimiento{IDMadre: "h1", IDAnimal: "c1"})
	require.NoError(t, err)
	gs, _ = repo.ListGestaciones(ctx)
	assert.Equal(t, reproduction.GestacionFinalizada, gs[0].Estado)
}

func TestReproductionRepo_OneGenealogyPerHijo(t *testing.T) {
	repo := NewReproductionRepo()
	ctx := context.Background()

	_, err := repo.CreateGenealogia(ctx, reproduction.Genealogia{Madre: "h1", Hijo: "c1"})
	require.NoError(t, err)
	_, err = repo.CreateGenealogia(ctx, reproduction.Genealogia{Madre: "h2", Hijo: "c1"})

	var he *httpclient.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, 409, he.StatusCode)
}

func TestSagaJournal(t *testing.T) {
	j := NewSagaJournal()
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.Save(ctx, reproduction.BirthSaga{ID: "b", Status: reproduction.SagaFailed, CreatedAt: t0.Add(time.Hour)}))
	require.NoError(t, j.Save(ctx, reproduction.BirthSaga{ID: "a", Status: reproduction.SagaPending, CreatedAt: t0}))
	require.NoError(t, j.Save(ctx, reproduction.BirthSaga{ID: "c", Status: reproduction.SagaCompleted, CreatedAt: t0}))

	open, err := j.ListIncomplete(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "a", open[0].ID)
	assert.Equal(t, "b", open[1].ID)

	_, err = j.Get(ctx, "zz")
	assert.ErrorIs(t, err, reproduction.ErrSagaNotFound)
}

func TestFincasRepo_Members(t *testing.T) {
	repo := NewFincasRepo()
	ctx := context.Background()
	f := repo.PutFinca(fincas.Finca{Nombre: "La Esperanza"}, "Dueno@Finca.com")

	ms, err := repo.ListMembers(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, []fincas.Membership{{FincaID: f.ID, Email: "dueno@finca.com", Rol: fincas.RolPropietario}}, ms)

	_, err = repo.AddMember(ctx, fincas.Membership{FincaID: f.ID, Email: "DUENO@finca.com"})
	assert.Error(t, err)

	_, err = repo.CreateInvitation(ctx, fincas.Invitation{FincaID: "otra"})
	assert.True(t, httpclient.IsNotFound(err))
}

func TestAccountsRepo_LoginIssuesVerifiableToken(t *testing.T) {
	repo := NewAccountsRepo("test-secret", time.Hour)
	repo.cost = bcrypt.MinCost
	ctx := context.Background()

	_, err := repo.Register(ctx, accounts.RegisterInput{Nombre: "Ana", Email: "Ana@Finca.com", Password: "Ganado2024"})
	require.NoError(t, err)

	_, err = repo.Register(ctx, accounts.RegisterInput{Nombre: "Ana", Email: "ana@finca.com", Password: "Ganado2024"})
	assert.Error(t, err, "email duplicado")

	_, err = repo.Login(ctx, accounts.Credentials{Email: "ana@finca.com", Password: "mala"})
	assert.True(t, httpclient.IsUnauthorized(err))

	tok, err := repo.Login(ctx, accounts.Credentials{Email: "ana@finca.com", Password: "Ganado2024"})
	require.NoError(t, err)

	email, ok := repo.EmailFromToken(tok)
	assert.True(t, ok)
	assert.Equal(t, "ana@finca.com", email)

	other := NewAccountsRepo("otro-secret", time.Hour)
	_, ok = other.EmailFromToken(tok)
	assert.False(t, ok, "firma con otro secreto")

	repo.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, ok = repo.EmailFromToken(tok)
	assert.False(t, ok, "token expirado")
}
