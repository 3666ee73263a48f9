package postgres

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ganado360/internal/domain/inventory"
	"ganado360/internal/domain/reproduction"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow reproduce el Scan de database/sql con valores fijos.
type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.vals[i].(string)
		case *[]byte:
			*p = r.vals[i].([]byte)
		case *time.Time:
			*p = r.vals[i].(time.Time)
		}
	}
	return nil
}

func TestScanSaga_RoundTripsInput(t *testing.T) {
	peso := 31.5
	in := reproduction.BirthInput{
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
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	created := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)

	got, err := scanSaga(fakeRow{vals: []any{
		"s1", raw, "p1",
		"link_genealogy", "FAILED",
		"a1", "n1", "",
		"http 500: boom", created, created.Add(time.Minute),
	}})
	require.NoError(t, err)

	want := reproduction.BirthSaga{
		ID:        "s1",
		Input:     in,
		PadreID:   "p1",
		NextStep:  reproduction.StepLinkGenealogy,
		Status:    reproduction.SagaFailed,
		AnimalID:  "a1",
		BirthID:   "n1",
		LastError: "http 500: boom",
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("saga mismatch (-want +got):\n%s", diff)
	}
}

func TestScanSaga_Errors(t *testing.T) {
	boom := errors.New("boom")
	_, err := scanSaga(fakeRow{err: boom})
	assert.ErrorIs(t, err, boom)

	_, err = scanSaga(fakeRow{vals: []any{"s1", []byte("{"), "", "", "", "", "", "", "", time.Time{}, time.Time{}}})
	assert.ErrorContains(t, err, "unmarshal input")
}

func TestSchemaIsEmbedded(t *testing.T) {
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS birth_sagas")
}
