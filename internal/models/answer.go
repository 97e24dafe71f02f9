package models

// Answer is one student answer, index-aligned with the quiz questions.
// Selected carries tokens for true_false (exactly one of "true"/"false")
// and multiple_choice (the chosen options); Text carries the open_ended
// response. NoAnswer marks a question the student never answered before a
// forced submit.
type Answer struct {
	Selected []string `json:"selected,omitempty"`
	Text     string   `json:"text,omitempty"`
	NoAnswer bool     `json:"no_answer,omitempty"`
}

// NoAnswerValue is the explicit "no answer" filled in for unanswered
// questions when a timed-out attempt is submitted.
func NoAnswerValue() Answer {
	return Answer{NoAnswer: true}
}

func (a *Answer) Clone() *Answer {
	out := *a
	if a.Selected != nil {
		out.Selected = append([]string(nil), a.Selected...)
	}
	return &out
}

// IsEmpty reports whether no answer content has been recorded.
func (a *Answer) IsEmpty() bool {
	return len(a.Selected) == 0 && a.Text == "" && !a.NoAnswer
}
