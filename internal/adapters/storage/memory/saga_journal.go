package memory

import (
	"context"
	"sort"
	"sync"

	"ganado360/internal/domain/reproduction"
)

// SagaJournal guarda las sagas de nacimiento en memoria. Se pierde al
// reiniciar; con DATABASE_URL se usa el journal de postgres.
type SagaJournal struct {
	mu   sync.RWMutex
	byID map[string]reproduction.BirthSaga
}

func NewSagaJournal() *SagaJournal {
	return &SagaJournal{byID: make(map[string]reproduction.BirthSaga)}
}

func (j *SagaJournal) Save(ctx context.Context, s reproduction.BirthSaga) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.byID[s.ID] = s
	return nil
}

func (j *SagaJournal) Get(ctx context.Context, id string) (reproduction.BirthSaga, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	s, ok := j.byID[id]
	if !ok {
		return reproduction.BirthSaga{}, reproduction.ErrSagaNotFound
	}
	return s, nil
}

// ListIncomplete devuelve las sagas no completadas, más antiguas primero.
func (j *SagaJournal) ListIncomplete(ctx context.Context) ([]reproduction.BirthSaga, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]reproduction.BirthSaga, 0)
	for _, s := range j.byID {
		if s.Status != reproduction.SagaCompleted {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID < out[k].ID
		}
		return out[i].CreatedAt.Before(out[k].CreatedAt)
	})
	return out, nil
}
