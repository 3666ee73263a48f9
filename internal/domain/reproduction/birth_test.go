package reproduction

import (
	"context"
	"errors"
	"testing"
	"time"

	"ganado360/internal/domain/inventory"
	"ganado360/internal/platform/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream 500")

// birthFixture: hembra h1 (finca f1), macho p1 y monta m1 ACTIVA entre ambos.
func birthFixture(t *testing.T) (*fakeStore, *Service) {
	t.Helper()
	store := newFakeStore()
	store.addAnimal(inventory.Animal{ID: "h1", FincaID: "f1", Sexo: inventory.SexoHembra, Especie: "Bovino"})
	store.addAnimal(inventory.Animal{ID: "p1", FincaID: "f1", Sexo: inventory.SexoMacho, Especie: "Bovino"})
	store.montas = []Monta{{ID: "m1", IDHembra: "h1", IDMacho: "p1", Fecha: day(1), Estado: MontaActiva}}

	svc := NewService(store, store, store, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC) }
	return store, svc
}

func validBirth() BirthInput {
	return BirthInput{
		MatingID: "m1",
		MotherID: "h1",
		Newborn: NewbornInput{
			Especie:         "Bovino",
			Raza:            "Brahman",
			Sexo:            inventory.SexoHembra,
			FechaNacimiento: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		Observaciones: "parto normal",
	}
}

func TestRegisterBirth_EndToEndScenario(t *testing.T) {
	store, svc := birthFixture(t)
	ctx := context.Background()

	_, m, err := svc.RegisterDiagnosis(ctx, DiagnosisInput{
		MatingID:  "m1",
		Fecha:     day(20),
		Resultado: ResultadoGestante,
	})
	require.NoError(t, err)
	assert.Equal(t, MontaConfirmada, m.Estado)

	res, err := svc.RegisterBirth(ctx, validBirth())
	require.NoError(t, err)
	require.NotEmpty(t, res.AnimalID)
	require.NotEmpty(t, res.BirthID)
	require.NotEmpty(t, res.SagaID)

	newborn, ok := store.animals[res.AnimalID]
	require.True(t, ok)
	assert.Equal(t, "f1", newborn.FincaID, "finca heredada de la madre")
	assert.Equal(t, "Brahman", newborn.Raza)
	assert.Equal(t, inventory.EstadoActivo, newborn.Estado)

	require.Len(t, store.nacimientos, 1)
	assert.Equal(t, "m1", store.nacimientos[0].IDMonta)
	assert.Equal(t, "h1", store.nacimientos[0].IDMadre)
	assert.Equal(t, res.AnimalID, store.nacimientos[0].IDAnimal)

	assert.Equal(t, MontaFinalizada, store.monta("m1").Estado)

	require.Len(t, store.genealogias, 1)
	g := store.genealogias[0]
	assert.Equal(t, Genealogia{ID: g.ID, Madre: "h1", Padre: "p1", Hijo: res.AnimalID}, g)

	saga, err := svc.GetBirthSaga(ctx, res.SagaID)
	require.NoError(t, err)
	assert.Equal(t, SagaCompleted, saga.Status)
	assert.Equal(t, StepDone, saga.NextStep)

	require.Len(t, store.history, 1)
	assert.Equal(t, inventory.EventoNacimiento, store.history[0].TipoEvento)
	assert.Equal(t, res.AnimalID, store.history[0].AnimalID)
}

func TestRegisterBirth_StepOrder(t *testing.T) {
	store, svc := birthFixture(t)

	_, err := svc.RegisterBirth(context.Background(), validBirth())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CreateAnimal",
		"CreateNacimiento",
		"UpdateMonta",
		"CreateGenealogia",
		"AppendHistory",
	}, store.writes())
}

func TestRegisterBirth_CreateAnimalFails_NothingCreated(t *testing.T) {
	store, svc := birthFixture(t)
	store.failOn("CreateAnimal", errUpstream)

	_, err := svc.RegisterBirth(context.Background(), validBirth())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNothingCreated)
	assert.NotErrorIs(t, err, ErrBirthIncomplete)
	assert.ErrorIs(t, err, errUpstream)

	var be *BirthError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, StepCreateAnimal, be.Step)
	assert.Empty(t, be.AnimalID)

	assert.Equal(t, []string{"CreateAnimal"}, store.writes())
	assert.Equal(t, MontaActiva, store.monta("m1").Estado)

	saga, err := svc.GetBirthSaga(context.Background(), be.SagaID)
	require.NoError(t, err)
	assert.Equal(t, SagaFailed, saga.Status)
	assert.Equal(t, StepCreateAnimal, saga.NextStep)
}

func TestRegisterBirth_CreateBirthFails_Incomplete(t *testing.T) {
	store, svc := birthFixture(t)
	store.failOn("CreateNacimiento", errUpstream)

	_, err := svc.RegisterBirth(context.Background(), validBirth())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBirthIncomplete)
	assert.NotErrorIs(t, err, ErrNothingCreated)

	var be *BirthError
	require.ErrorAs(t, err, &be)
	assert.True(t, be.Partial())
	assert.Equal(t, StepCreateBirth, be.Step)
	assert.NotEmpty(t, be.AnimalID)

	// Ni cierre de monta ni genealogía antes de que exista el nacimiento.
	assert.Equal(t, []string{"CreateAnimal", "CreateNacimiento"}, store.writes())
	assert.Empty(t, store.genealogias)
	assert.Equal(t, MontaActiva, store.monta("m1").Estado)
}

func TestRegisterBirth_GenealogyFailsThenResume(t *testing.T) {
	store, svc := birthFixture(t)
	store.failOn("CreateGenealogia", errUpstream)
	ctx := context.Background()

	_, err := svc.RegisterBirth(ctx, validBirth())
	var be *BirthError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, StepLinkGenealogy, be.Step)

	incomplete, err := svc.ListIncompleteBirths(ctx)
	require.NoError(t, err)
	require.Len(t, incomplete, 1)
	assert.Equal(t, be.SagaID, incomplete[0].ID)
	assert.Equal(t, StepLinkGenealogy, incomplete[0].NextStep)
	assert.Equal(t, be.AnimalID, incomplete[0].AnimalID)
	assert.Contains(t, incomplete[0].LastError, "upstream 500")

	store.clearFailures()
	res, err := svc.ResumeBirth(ctx, be.SagaID)
	require.NoError(t, err)
	assert.Equal(t, be.AnimalID, res.AnimalID)

	// El animal se creó una sola vez.
	creates := 0
	for _, w := range store.writes() {
		if w == "CreateAnimal" {
			creates++
		}
	}
	assert.Equal(t, 1, creates)
	require.Len(t, store.genealogias, 1)
	assert.Equal(t, be.AnimalID, store.genealogias[0].Hijo)

	incomplete, err = svc.ListIncompleteBirths(ctx)
	require.NoError(t, err)
	assert.Empty(t, incomplete)
}

func TestResumeBirth_CompletedSagaIsNoop(t *testing.T) {
	store, svc := birthFixture(t)
	ctx := context.Background()

	res, err := svc.RegisterBirth(ctx, validBirth())
	require.NoError(t, err)
	before := len(store.writes())

	again, err := svc.ResumeBirth(ctx, res.SagaID)
	require.NoError(t, err)
	assert.Equal(t, res, again)
	assert.Len(t, store.writes(), before)
}

func TestResumeBirth_UnknownSaga(t *testing.T) {
	_, svc := birthFixture(t)
	_, err := svc.ResumeBirth(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSagaNotFound)
}

func TestResumeBirth_CloseMatingSkipsWhenAlreadyFinalized(t *testing.T) {
	store, svc := birthFixture(t)
	store.failOn("CreateGenealogia", errUpstream)
	ctx := context.Background()

	_, err := svc.RegisterBirth(ctx, validBirth())
	var be *BirthError
	require.ErrorAs(t, err, &be)

	// Forzamos que la saga vuelva a close_mating con la monta ya cerrada.
	saga, err := store.Get(ctx, be.SagaID)
	require.NoError(t, err)
	saga.NextStep = StepCloseMating
	require.NoError(t, store.Save(ctx, saga))
	store.clearFailures()

	updatesBefore := countOp(store.writes(), "UpdateMonta")
	_, err = svc.ResumeBirth(ctx, be.SagaID)
	require.NoError(t, err)
	assert.Equal(t, updatesBefore, countOp(store.writes(), "UpdateMonta"))
}

func countOp(ops []string, op string) int {
	n := 0
	for _, o := range ops {
		if o == op {
			n++
		}
	}
	return n
}

func TestRegisterBirth_ValidationBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BirthInput)
		field  string
	}{
		{"missing mating", func(in *BirthInput) { in.MatingID = " " }, "MatingID"},
		{"missing mother", func(in *BirthInput) { in.MotherID = "" }, "MotherID"},
		{"missing especie", func(in *BirthInput) { in.Newborn.Especie = "" }, "Especie"},
		{"missing raza", func(in *BirthInput) { in.Newborn.Raza = "" }, "Raza"},
		{"bad sexo", func(in *BirthInput) { in.Newborn.Sexo = "X" }, "Sexo"},
		{"missing fecha", func(in *BirthInput) { in.Newborn.FechaNacimiento = time.Time{} }, "FechaNacimiento"},
		{"future fecha", func(in *BirthInput) { in.Newborn.FechaNacimiento = time.Now().Add(72 * time.Hour) }, "FechaNacimiento"},
		{"zero peso", func(in *BirthInput) { zero := 0.0; in.Newborn.Peso = &zero }, "Peso"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, svc := birthFixture(t)
			in := validBirth()
			tc.mutate(&in)

			_, err := svc.RegisterBirth(context.Background(), in)

			require.ErrorIs(t, err, validation.ErrInvalid)
			var ve *validation.Error
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tc.field)
			assert.Empty(t, store.calls, "no debe haber requests")
		})
	}
}

func TestRegisterBirth_MotherMustMatchMating(t *testing.T) {
	store, svc := birthFixture(t)
	store.addAnimal(inventory.Animal{ID: "h2", Sexo: inventory.SexoHembra})
	in := validBirth()
	in.MotherID = "h2"

	_, err := svc.RegisterBirth(context.Background(), in)

	require.ErrorIs(t, err, validation.ErrInvalid)
	assert.Empty(t, store.writes())
}

func TestRegisterBirth_ClosedMatingRejected(t *testing.T) {
	for _, estado := range []MontaEstado{MontaFallida, MontaFinalizada} {
		t.Run(string(estado), func(t *testing.T) {
			store, svc := birthFixture(t)
			store.montas[0].Estado = estado

			_, err := svc.RegisterBirth(context.Background(), validBirth())

			assert.ErrorIs(t, err, ErrMatingClosed)
			assert.Empty(t, store.writes())
		})
	}
}

func TestRegisterBirth_MatingLookupFails(t *testing.T) {
	store, svc := birthFixture(t)
	store.failOn("GetMonta", errUpstream)

	_, err := svc.RegisterBirth(context.Background(), validBirth())

	assert.ErrorIs(t, err, ErrNothingCreated)
	assert.ErrorIs(t, err, errUpstream)
	assert.Empty(t, store.writes())
}

func TestRegisterBirth_JournalFailureDoesNotAbort(t *testing.T) {
	store, svc := birthFixture(t)
	store.failOn("SaveSaga", errors.New("db down"))

	res, err := svc.RegisterBirth(context.Background(), validBirth())

	require.NoError(t, err)
	assert.NotEmpty(t, res.AnimalID)
	require.Len(t, store.genealogias, 1)
}

func TestRegisterBirth_HistoryFailureIsBestEffort(t *testing.T) {
	store, svc := birthFixture(t)
	store.failOn("AppendHistory", errUpstream)

	res, err := svc.RegisterBirth(context.Background(), validBirth())

	require.NoError(t, err)
	saga, err := svc.GetBirthSaga(context.Background(), res.SagaID)
	require.NoError(t, err)
	assert.Equal(t, SagaCompleted, saga.Status)
}

func TestRegisterBirth_MatingWithoutMale(t *testing.T) {
	store, svc := birthFixture(t)
	store.montas[0].IDMacho = ""

	res, err := svc.RegisterBirth(context.Background(), validBirth())

	require.NoError(t, err)
	require.Len(t, store.genealogias, 1)
	assert.Equal(t, Genealogia{ID: store.genealogias[0].ID, Madre: "h1", Hijo: res.AnimalID}, store.genealogias[0])
}

type tenantKey struct{}

// cancellingStore cancela el contexto del llamador justo después de crear la
// cría y rechaza cualquier escritura posterior hecha con un contexto cancelado,
// como haría un cliente HTTP real.
type cancellingStore struct {
	*fakeStore
	cancel context.CancelFunc
	seen   []any
}

func (c *cancellingStore) CreateAnimal(ctx context.Context, a inventory.Animal) (inventory.Animal, error) {
	out, err := c.fakeStore.CreateAnimal(ctx, a)
	c.cancel()
	return out, err
}

func (c *cancellingStore) CreateNacimiento(ctx context.Context, n Nacimiento) (Nacimiento, error) {
	if err := ctx.Err(); err != nil {
		return Nacimiento{}, err
	}
	c.seen = append(c.seen, ctx.Value(tenantKey{}))
	return c.fakeStore.CreateNacimiento(ctx, n)
}

func (c *cancellingStore) CreateGenealogia(ctx context.Context, g Genealogia) (Genealogia, error) {
	if err := ctx.Err(); err != nil {
		return Genealogia{}, err
	}
	return c.fakeStore.CreateGenealogia(ctx, g)
}

func TestRegisterBirth_CallerCancelAfterCalfCreatedStillCompletes(t *testing.T) {
	store, _ := birthFixture(t)
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), tenantKey{}, "f1"))
	defer cancel()
	cs := &cancellingStore{fakeStore: store, cancel: cancel}

	svc := NewService(cs, cs, store, nil)
	res, err := svc.RegisterBirth(ctx, validBirth())

	require.NoError(t, err)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.NotEmpty(t, res.AnimalID)
	assert.NotEmpty(t, res.BirthID)
	assert.Equal(t, []string{"CreateAnimal", "CreateNacimiento", "UpdateMonta", "CreateGenealogia", "AppendHistory"}, store.writes())
	assert.Equal(t, []any{"f1"}, cs.seen)

	saga, err := svc.GetBirthSaga(context.Background(), res.SagaID)
	require.NoError(t, err)
	assert.Equal(t, SagaCompleted, saga.Status)
}

func TestRegisterBirth_SagaTimeoutBoundsDetachedSteps(t *testing.T) {
	store, svc := birthFixture(t)
	svc.SetSagaTimeout(time.Nanosecond)
	cs := &cancellingStore{fakeStore: store, cancel: func() {}}
	svc.repo, svc.animals = cs, cs

	_, err := svc.RegisterBirth(context.Background(), validBirth())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBirthIncomplete)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
