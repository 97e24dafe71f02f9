package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventQuizPosted           EventType = "quiz.posted"
	EventAttemptStarted       EventType = "attempt.started"
	EventAttemptSubmitted     EventType = "attempt.submitted"
	EventAttemptAutoSubmitted EventType = "attempt.auto_submitted"
	EventQuizGraded           EventType = "quiz.graded"
)

// QuizEvent is the envelope published for every quiz lifecycle transition.
// Downstream consumers (notification fan-out, analytics) key off Type and
// the identity fields; Data carries transition-specific extras.
type QuizEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`

	QuizID    string `json:"quiz_id"`
	TutorID   string `json:"tutor_id,omitempty"`
	StudentID string `json:"student_id,omitempty"`

	Data map[string]interface{} `json:"data,omitempty"`
}

// NewQuizEvent creates a lifecycle event with the standard envelope fields
// filled in.
func NewQuizEvent(eventType EventType, quizID, tutorID, studentID string, data map[string]interface{}) *QuizEvent {
	return &QuizEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    "quiz-service",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		QuizID:    quizID,
		TutorID:   tutorID,
		StudentID: studentID,
		Data:      data,
	}
}
