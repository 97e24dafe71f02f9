package models

import "time"

// AttemptProgress is the resumable, ephemeral state of one student's
// in-progress attempt at a quiz. Exactly one progress record exists per
// quiz; it is created on start, rewritten on every answer and navigation,
// and deleted when the attempt is submitted.
//
// The countdown only ticks while the session is actively open: wall-clock
// time spent paused is not deducted on resume.
type AttemptProgress struct {
	QuizID    string `json:"quiz_id"`
	StudentID string `json:"student_id"`

	TimeRemainingSeconds int `json:"time_remaining_seconds"`
	CurrentQuestionIndex int `json:"current_question_index"`

	// Answers is sparse: a nil entry means the question has not been
	// answered yet. Length always equals the quiz question count.
	Answers []*Answer `json:"answers"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *AttemptProgress) Clone() *AttemptProgress {
	out := *p
	out.Answers = make([]*Answer, len(p.Answers))
	for i, a := range p.Answers {
		if a != nil {
			out.Answers[i] = a.Clone()
		}
	}
	return &out
}

// AnsweredCount returns how many questions have a recorded answer.
func (p *AttemptProgress) AnsweredCount() int {
	n := 0
	for _, a := range p.Answers {
		if a != nil {
			n++
		}
	}
	return n
}
