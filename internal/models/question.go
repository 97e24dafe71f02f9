package models

type QuestionType string

const (
	TrueFalse      QuestionType = "true_false"
	MultipleChoice QuestionType = "multiple_choice"
	OpenEnded      QuestionType = "open_ended"
)

// TrueFalseChoices are the fixed choices of a true/false question.
var TrueFalseChoices = []string{"true", "false"}

// Question is one entry of a quiz. The three variants share a single struct:
//   - true_false: fixed true/false choices, CorrectAnswers holds zero or one
//     of "true"/"false"
//   - multiple_choice: Choices holds the ordered options, CorrectAnswers a
//     subset of them (zero or more)
//   - open_ended: no choices, CorrectAnswers holds at most one free-text
//     reference answer for the tutor; it is never auto-graded
type Question struct {
	ID   string       `json:"id"`
	Type QuestionType `json:"type" validate:"required,question_type"`
	Text string       `json:"text" validate:"required"`

	Choices        []string `json:"choices,omitempty"`
	CorrectAnswers []string `json:"correct_answers,omitempty"`
}

func (q *Question) Clone() *Question {
	out := *q
	if q.Choices != nil {
		out.Choices = append([]string(nil), q.Choices...)
	}
	if q.CorrectAnswers != nil {
		out.CorrectAnswers = append([]string(nil), q.CorrectAnswers...)
	}
	return &out
}

// HasChoice reports whether the given token is a valid choice for the
// question variant.
func (q *Question) HasChoice(token string) bool {
	choices := q.Choices
	if q.Type == TrueFalse {
		choices = TrueFalseChoices
	}
	for _, c := range choices {
		if c == token {
			return true
		}
	}
	return false
}
