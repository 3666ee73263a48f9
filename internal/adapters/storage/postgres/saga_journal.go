package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ganado360/internal/domain/reproduction"
)

// SagaJournal persiste las sagas de nacimiento en birth_sagas.
type SagaJournal struct {
	db *sql.DB
}

func NewSagaJournal(db *sql.DB) *SagaJournal {
	return &SagaJournal{db: db}
}

const sagaColumns = `
	id, input, padre_id,
	next_step, status,
	animal_id, birth_id, genealogia_id,
	last_error, created_at, updated_at`

func (j *SagaJournal) Save(ctx context.Context, s reproduction.BirthSaga) error {
	input, err := json.Marshal(s.Input)
	if err != nil {
		return fmt.Errorf("saga %s: marshal input: %w", s.ID, err)
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO birth_sagas (`+sagaColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			next_step     = EXCLUDED.next_step,
			status        = EXCLUDED.status,
			animal_id     = EXCLUDED.animal_id,
			birth_id      = EXCLUDED.birth_id,
			genealogia_id = EXCLUDED.genealogia_id,
			last_error    = EXCLUDED.last_error,
			updated_at    = EXCLUDED.updated_at
	`,
		s.ID,
		input,
		s.PadreID,
		string(s.NextStep),
		string(s.Status),
		s.AnimalID,
		s.BirthID,
		s.GenealogiaID,
		s.LastError,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func (j *SagaJournal) Get(ctx context.Context, id string) (reproduction.BirthSaga, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return reproduction.BirthSaga{}, reproduction.ErrSagaNotFound
	}
	row := j.db.QueryRowContext(ctx, `SELECT `+sagaColumns+` FROM birth_sagas WHERE id = $1`, id)
	s, err := scanSaga(row)
	if errors.Is(err, sql.ErrNoRows) {
		return reproduction.BirthSaga{}, reproduction.ErrSagaNotFound
	}
	return s, err
}

func (j *SagaJournal) ListIncomplete(ctx context.Context) ([]reproduction.BirthSaga, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+sagaColumns+`
		FROM birth_sagas
		WHERE status <> $1
		ORDER BY created_at ASC, id ASC
	`, string(reproduction.SagaCompleted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reproduction.BirthSaga, 0)
	for rows.Next() {
		s, err := scanSaga(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSaga(sc scanner) (reproduction.BirthSaga, error) {
	var (
		s            reproduction.BirthSaga
		input        []byte
		step, status string
	)
	if err := sc.Scan(
		&s.ID,
		&input,
		&s.PadreID,
		&step,
		&status,
		&s.AnimalID,
		&s.BirthID,
		&s.GenealogiaID,
		&s.LastError,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return reproduction.BirthSaga{}, err
	}
	if err := json.Unmarshal(input, &s.Input); err != nil {
		return reproduction.BirthSaga{}, fmt.Errorf("saga %s: unmarshal input: %w", s.ID, err)
	}
	s.NextStep = reproduction.BirthStep(step)
	s.Status = reproduction.SagaStatus(status)
	return s, nil
}
