package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tutorhub/quiz-service/internal/models"
)

const (
	quizCollectionKey = "quiz:documents"
	progressKeyPrefix = "quiz:progress:"
)

// RedisSubstrate stores the full quiz collection as a single JSON value, so
// SaveAll is one atomic SET and a crash mid-write never exposes a partial
// collection.
type RedisSubstrate struct {
	client *redis.Client
}

func NewRedisSubstrate(client *redis.Client) *RedisSubstrate {
	return &RedisSubstrate{client: client}
}

func (r *RedisSubstrate) LoadAll(ctx context.Context) ([]models.Quiz, error) {
	payload, err := r.client.Get(ctx, quizCollectionKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load quiz collection: %w", err)
	}

	var quizzes []models.Quiz
	if err := json.Unmarshal(payload, &quizzes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quiz collection: %w", err)
	}
	return quizzes, nil
}

func (r *RedisSubstrate) SaveAll(ctx context.Context, quizzes []models.Quiz) error {
	payload, err := json.Marshal(quizzes)
	if err != nil {
		return fmt.Errorf("failed to marshal quiz collection: %w", err)
	}

	if err := r.client.Set(ctx, quizCollectionKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save quiz collection: %w", err)
	}
	return nil
}

// RedisProgressStore persists attempt progress as one JSON value per quiz.
type RedisProgressStore struct {
	client *redis.Client
}

func NewRedisProgressStore(client *redis.Client) *RedisProgressStore {
	return &RedisProgressStore{client: client}
}

func (r *RedisProgressStore) Get(ctx context.Context, quizID string) (*models.AttemptProgress, error) {
	payload, err := r.client.Get(ctx, progressKeyPrefix+quizID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to load attempt progress: %w", err)
	}

	var progress models.AttemptProgress
	if err := json.Unmarshal(payload, &progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attempt progress: %w", err)
	}
	return &progress, nil
}

func (r *RedisProgressStore) Put(ctx context.Context, progress *models.AttemptProgress) error {
	payload, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt progress: %w", err)
	}

	if err := r.client.Set(ctx, progressKeyPrefix+progress.QuizID, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save attempt progress: %w", err)
	}
	return nil
}

func (r *RedisProgressStore) Delete(ctx context.Context, quizID string) error {
	if err := r.client.Del(ctx, progressKeyPrefix+quizID).Err(); err != nil {
		return fmt.Errorf("failed to delete attempt progress: %w", err)
	}
	return nil
}
