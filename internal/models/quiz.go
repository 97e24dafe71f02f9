package models

import (
	"time"
)

type QuizStatus string

const (
	StatusDraft     QuizStatus = "draft"
	StatusSaved     QuizStatus = "saved"
	StatusPosted    QuizStatus = "posted"
	StatusCompleted QuizStatus = "completed"
)

type GradeMark string

const (
	MarkCorrect GradeMark = "correct"
	MarkWrong   GradeMark = "wrong"
)

// Quiz is the persisted document describing one tutor-authored quiz
// assigned to one student, together with everything the lifecycle
// accumulates: the submitted answers, the tutor's marks and the final score.
type Quiz struct {
	ID        string `json:"id"`
	TutorID   string `json:"tutor_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`

	CourseName string `json:"course_name" validate:"required,max=200"`
	QuizType   string `json:"quiz_type" validate:"required,max=100"`

	TimeLimitMinutes int `json:"time_limit_minutes" validate:"required,min=1"`
	DaysToComplete   int `json:"days_to_complete" validate:"required,min=1"`

	// DueDate is derived from PostDate + DaysToComplete when the quiz is
	// built or rebuilt. It is not recomputed after posting.
	PostDate time.Time `json:"post_date"`
	DueDate  time.Time `json:"due_date"`

	Status QuizStatus `json:"status" validate:"omitempty,quiz_status"`

	// Order is significant and preserved across save/post/attempt.
	Questions []Question `json:"questions"`

	// StudentAnswers, Marks and Explanations are index-aligned with
	// Questions once non-nil. StudentAnswers is set when an attempt is
	// submitted; Marks and Explanations are filled in by grading.
	StudentAnswers []Answer     `json:"student_answers,omitempty"`
	Marks          []*GradeMark `json:"marks,omitempty"`
	Explanations   []string     `json:"explanations,omitempty"`

	// Score is "<correct>/<total>", set only once grading is finalized.
	Score *string `json:"score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnsureGradingArrays allocates the mark/explanation arrays aligned to the
// question list so grading can address questions by index.
func (q *Quiz) EnsureGradingArrays() {
	if q.Marks == nil {
		q.Marks = make([]*GradeMark, len(q.Questions))
	}
	if q.Explanations == nil {
		q.Explanations = make([]string, len(q.Questions))
	}
}

// UngradedIndices returns the question indices that have no mark yet.
func (q *Quiz) UngradedIndices() []int {
	var ungraded []int
	for i := range q.Questions {
		if q.Marks == nil || i >= len(q.Marks) || q.Marks[i] == nil {
			ungraded = append(ungraded, i)
		}
	}
	return ungraded
}

// Clone returns a deep copy of the quiz. The store hands out and accepts
// copies only, so callers mutate documents in isolation and write them back
// through Update.
func (q *Quiz) Clone() *Quiz {
	out := *q

	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		out.Questions[i] = *question.Clone()
	}

	if q.StudentAnswers != nil {
		out.StudentAnswers = make([]Answer, len(q.StudentAnswers))
		for i, a := range q.StudentAnswers {
			out.StudentAnswers[i] = *a.Clone()
		}
	}

	if q.Marks != nil {
		out.Marks = make([]*GradeMark, len(q.Marks))
		for i, m := range q.Marks {
			if m != nil {
				mark := *m
				out.Marks[i] = &mark
			}
		}
	}

	if q.Explanations != nil {
		out.Explanations = append([]string(nil), q.Explanations...)
	}

	if q.Score != nil {
		score := *q.Score
		out.Score = &score
	}

	return &out
}
