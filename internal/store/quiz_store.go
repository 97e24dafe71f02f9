package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tutorhub/quiz-service/internal/models"
	"github.com/tutorhub/quiz-service/internal/storage"
)

var (
	// ErrNotFound is returned when no quiz exists under the given id.
	ErrNotFound = errors.New("quiz not found")
	// ErrDuplicateID is returned by Create when the supplied id is already
	// taken. Create never overwrites an existing document.
	ErrDuplicateID = errors.New("quiz id already exists")
)

// IsNotFoundError reports whether the error is the store's not-found kind.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IDGenerator produces opaque, collision-resistant document ids. It is
// injected so tests can use deterministic ids.
type IDGenerator func() string

// UUIDGenerator is the default IDGenerator.
func UUIDGenerator() string {
	return uuid.NewString()
}

// QuizStore owns the quiz collection: identity, lookup and consistent
// persistence, no business rules. It holds the single mutable copy of the
// collection; components read a copy, mutate it and write it back through
// Update, so the store is the serialization point for all quiz writes.
//
// Every mutation flushes the full collection through the substrate before
// returning. If the flush fails the in-memory state is left unchanged, so
// callers never observe a mutation that did not reach durable storage.
type QuizStore struct {
	mu        sync.Mutex
	substrate storage.Substrate
	idGen     IDGenerator
	logger    *slog.Logger

	quizzes []models.Quiz
	index   map[string]int

	now func() time.Time
}

// NewQuizStore loads the collection from the substrate and returns a store
// over it. Constructed once per process and passed to all components.
func NewQuizStore(ctx context.Context, substrate storage.Substrate, logger *slog.Logger) (*QuizStore, error) {
	quizzes, err := substrate.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz collection: %w", err)
	}

	index := make(map[string]int, len(quizzes))
	for i := range quizzes {
		index[quizzes[i].ID] = i
	}

	logger.Info("Quiz collection loaded", "count", len(quizzes))

	return &QuizStore{
		substrate: substrate,
		idGen:     UUIDGenerator,
		logger:    logger,
		quizzes:   quizzes,
		index:     index,
		now:       time.Now,
	}, nil
}

// SetIDGenerator replaces the id generator. Intended for tests and callers
// that need a specific opaque-id strategy.
func (s *QuizStore) SetIDGenerator(gen IDGenerator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idGen = gen
}

// Create inserts the quiz, assigning a fresh id if none is supplied, and
// flushes the collection. Returns the assigned id.
func (s *QuizStore) Create(ctx context.Context, quiz *models.Quiz) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := quiz.Clone()
	if doc.ID == "" {
		doc.ID = s.idGen()
	}
	if _, exists := s.index[doc.ID]; exists {
		return "", ErrDuplicateID
	}

	now := s.now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	next := append(append([]models.Quiz(nil), s.quizzes...), *doc)
	if err := s.substrate.SaveAll(ctx, next); err != nil {
		return "", fmt.Errorf("failed to persist quiz collection: %w", err)
	}

	s.quizzes = next
	s.index[doc.ID] = len(next) - 1

	s.logger.Info("Quiz created", "quiz_id", doc.ID, "tutor_id", doc.TutorID)
	return doc.ID, nil
}

// Get returns a copy of the quiz with the given id.
func (s *QuizStore) Get(_ context.Context, id string) (*models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.quizzes[i].Clone(), nil
}

// Update replaces the document under id and flushes the collection.
func (s *QuizStore) Update(ctx context.Context, id string, quiz *models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}

	doc := quiz.Clone()
	doc.ID = id
	doc.CreatedAt = s.quizzes[i].CreatedAt
	doc.UpdatedAt = s.now()

	next := append([]models.Quiz(nil), s.quizzes...)
	next[i] = *doc
	if err := s.substrate.SaveAll(ctx, next); err != nil {
		return fmt.Errorf("failed to persist quiz collection: %w", err)
	}

	s.quizzes = next
	s.logger.Info("Quiz updated", "quiz_id", id, "status", doc.Status)
	return nil
}

// Delete removes the quiz permanently. Deleting an absent id is a no-op:
// deletion is the one terminal operation and the caller gates it behind an
// explicit confirmation.
func (s *QuizStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return nil
	}

	next := append([]models.Quiz(nil), s.quizzes[:i]...)
	next = append(next, s.quizzes[i+1:]...)
	if err := s.substrate.SaveAll(ctx, next); err != nil {
		return fmt.Errorf("failed to persist quiz collection: %w", err)
	}

	s.quizzes = next
	delete(s.index, id)
	for j := i; j < len(next); j++ {
		s.index[next[j].ID] = j
	}

	s.logger.Info("Quiz deleted", "quiz_id", id)
	return nil
}

// Query returns copies of all quizzes matching the predicate, in insertion
// order.
func (s *QuizStore) Query(_ context.Context, predicate func(*models.Quiz) bool) ([]*models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Quiz
	for i := range s.quizzes {
		if predicate(&s.quizzes[i]) {
			out = append(out, s.quizzes[i].Clone())
		}
	}
	return out, nil
}
