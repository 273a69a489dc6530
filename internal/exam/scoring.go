package exam

import (
	"errors"
	"fmt"
)

// Scoring reasons attached to each question's breakdown entry.
const (
	ReasonCorrect    = "correct"
	ReasonWrong      = "wrong"
	ReasonUnanswered = "unanswered"
	ReasonInvalidKey = "invalid_key"
)

var (
	ErrNotMCQ          = errors.New("exam is not mcq format")
	ErrNotWritten      = errors.New("exam is not written format")
	ErrUnknownQuestion = errors.New("answer references unknown question")
	ErrMissingKey      = errors.New("mcq question has no correct option")
)

// Answer is a student's raw per-question input at submit time.
type Answer struct {
	QuestionID     string   `json:"question_id"`
	SelectedOption *int     `json:"selected_option,omitempty"`
	WrittenImages  []string `json:"written_images,omitempty"`
}

// QuestionScore is the scored outcome of one question.
type QuestionScore struct {
	QuestionID string  `json:"question_id"`
	Answered   bool    `json:"answered"`
	Correct    *bool   `json:"correct,omitempty"`
	Awarded    float64 `json:"awarded"`
	Penalty    float64 `json:"penalty"`
	Reason     string  `json:"reason"`
}

// MCQOutcome is the aggregate auto-grading result. Score may go below zero
// when accumulated penalties exceed awards; NegativeDeduction tracks the
// penalty total separately.
type MCQOutcome struct {
	Score             float64         `json:"score"`
	TotalMarks        float64         `json:"total_marks"`
	NegativeDeduction float64         `json:"negative_deduction"`
	Breakdown         []QuestionScore `json:"breakdown"`
}

// ScoreMCQ auto-grades an MCQ attempt. Each question awards its marks on
// exact index equality with the correct option; a wrong selection subtracts
// the exam's per-question penalty when one is configured; an unanswered
// question earns neither credit nor penalty. Answers referencing unknown
// questions and questions missing their answer key are recognizable
// failures, not silent zeros.
func ScoreMCQ(e Exam, answers []Answer) (*MCQOutcome, error) {
	if e.Format != FormatMCQ {
		return nil, ErrNotMCQ
	}

	byQuestion := make(map[string]*Answer, len(answers))
	known := make(map[string]bool, len(e.Questions))
	for _, q := range e.Questions {
		known[q.ID] = true
	}
	for i := range answers {
		a := &answers[i]
		if !known[a.QuestionID] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, a.QuestionID)
		}
		byQuestion[a.QuestionID] = a
	}

	out := &MCQOutcome{
		TotalMarks: TotalMarks(e.Questions),
		Breakdown:  make([]QuestionScore, 0, len(e.Questions)),
	}

	for _, q := range e.Questions {
		if q.CorrectOption == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingKey, q.ID)
		}

		qs := QuestionScore{QuestionID: q.ID}
		a := byQuestion[q.ID]
		if a == nil || a.SelectedOption == nil {
			qs.Reason = ReasonUnanswered
			out.Breakdown = append(out.Breakdown, qs)
			continue
		}

		qs.Answered = true
		keyValid := *q.CorrectOption >= 0 && *q.CorrectOption < len(q.Options)
		correct := keyValid && *a.SelectedOption == *q.CorrectOption
		qs.Correct = &correct
		if correct {
			qs.Awarded = q.Marks
			qs.Reason = ReasonCorrect
		} else {
			// An out-of-range key never matches any selection: the answer
			// counts as wrong, with the authoring defect surfaced in Reason.
			qs.Reason = ReasonWrong
			if !keyValid {
				qs.Reason = ReasonInvalidKey
			}
			if e.NegativeMarks > 0 {
				qs.Penalty = e.NegativeMarks
			}
		}
		out.Breakdown = append(out.Breakdown, qs)
	}

	for _, qs := range out.Breakdown {
		out.Score += qs.Awarded - qs.Penalty
		out.NegativeDeduction += qs.Penalty
	}
	return out, nil
}
