package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"ganado360/internal/domain/inventory"
	"ganado360/internal/domain/reproduction"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Contra un Postgres real: GANADO_TEST_DATABASE_URL=postgres://... go test ./...
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("GANADO_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("GANADO_TEST_DATABASE_URL no definido")
	}
	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, EnsureSchema(ctx, db))
	// dos veces: el schema tiene que ser idempotente
	require.NoError(t, EnsureSchema(ctx, db))
	return db
}

func testSaga(created time.Time) reproduction.BirthSaga {
	peso := 31.5
	return reproduction.BirthSaga{
		ID: uuid.NewString(),
		Input: reproduction.BirthInput{
			MatingID: "m1",
			MotherID: "h1",
			Newborn: reproduction.NewbornInput{
				FincaID:         "f1",
				Especie:         "Bovino",
				Raza:            "Brahman",
				Sexo:            inventory.SexoHembra,
				FechaNacimiento: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				Peso:            &peso,
			},
			Observaciones: "parto normal",
		},
		PadreID:   "p1",
		NextStep:  reproduction.StepCreateAnimal,
		Status:    reproduction.SagaPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestSagaJournal_Postgres(t *testing.T) {
	db := openTestDB(t)
	j := NewSagaJournal(db)
	ctx := context.Background()

	// timestamptz guarda microsegundos
	base := time.Now().UTC().Truncate(time.Microsecond)
	failed := testSaga(base)
	done := testSaga(base.Add(time.Second))
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM birth_sagas WHERE id = ANY($1)`, []string{failed.ID, done.ID})
	})

	require.NoError(t, j.Save(ctx, failed))
	require.NoError(t, j.Save(ctx, done))

	// upsert: avanza pasos sin duplicar la fila ni tocar input/created_at
	failed.NextStep = reproduction.StepCreateBirth
	failed.Status = reproduction.SagaFailed
	failed.AnimalID = "cria-1"
	failed.LastError = "http 503: upstream"
	failed.UpdatedAt = base.Add(2 * time.Second)
	require.NoError(t, j.Save(ctx, failed))

	done.NextStep = reproduction.StepDone
	done.Status = reproduction.SagaCompleted
	done.AnimalID, done.BirthID, done.GenealogiaID = "cria-2", "nac-2", "gen-2"
	require.NoError(t, j.Save(ctx, done))

	got, err := j.Get(ctx, "  "+failed.ID+" ")
	require.NoError(t, err)
	sameInstant := cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })
	if diff := cmp.Diff(failed, got, sameInstant); diff != "" {
		t.Fatalf("saga mismatch (-want +got):\n%s", diff)
	}

	_, err = j.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, reproduction.ErrSagaNotFound)

	incomplete, err := j.ListIncomplete(ctx)
	require.NoError(t, err)
	var ids []string
	for _, s := range incomplete {
		if s.ID == failed.ID || s.ID == done.ID {
			ids = append(ids, s.ID)
		}
	}
	assert.Equal(t, []string{failed.ID}, ids)
}
