package storage

import (
	"context"
	"sync"

	"github.com/tutorhub/quiz-service/internal/models"
)

// MemorySubstrate keeps the collection in process memory. It backs tests
// and local development; production uses the Postgres or Redis substrate.
type MemorySubstrate struct {
	mu      sync.Mutex
	quizzes []models.Quiz
}

func NewMemorySubstrate() *MemorySubstrate {
	return &MemorySubstrate{}
}

func (m *MemorySubstrate) LoadAll(_ context.Context) ([]models.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Quiz, len(m.quizzes))
	for i := range m.quizzes {
		out[i] = *m.quizzes[i].Clone()
	}
	return out, nil
}

func (m *MemorySubstrate) SaveAll(_ context.Context, quizzes []models.Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make([]models.Quiz, len(quizzes))
	for i := range quizzes {
		snapshot[i] = *quizzes[i].Clone()
	}
	m.quizzes = snapshot
	return nil
}

// MemoryProgressStore keeps attempt progress in process memory.
type MemoryProgressStore struct {
	mu       sync.Mutex
	progress map[string]*models.AttemptProgress
}

func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{
		progress: make(map[string]*models.AttemptProgress),
	}
}

func (m *MemoryProgressStore) Get(_ context.Context, quizID string) (*models.AttemptProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.progress[quizID]
	if !ok {
		return nil, ErrProgressNotFound
	}
	return p.Clone(), nil
}

func (m *MemoryProgressStore) Put(_ context.Context, progress *models.AttemptProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.progress[progress.QuizID] = progress.Clone()
	return nil
}

func (m *MemoryProgressStore) Delete(_ context.Context, quizID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.progress, quizID)
	return nil
}
