package exam

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrAlreadyGraded   = errors.New("submission already graded")
	ErrMarksOutOfRange = errors.New("marks outside allowed range")
	ErrGradeIncomplete = errors.New("every question needs a grade before finalization")
	ErrGraderRequired  = errors.New("grader identity is required")
)

// QuestionGrade is a grader's input for one written question.
type QuestionGrade struct {
	Marks    float64 `json:"marks"`
	Feedback string  `json:"feedback,omitempty"`
}

// WrittenOutcome is the aggregate of a finalized manual grade.
type WrittenOutcome struct {
	Score      float64 `json:"score"`
	TotalMarks float64 `json:"total_marks"`
}

// FinalizeWritten commits a manual grade. All per-question inputs are read at
// finalize time and applied to the submission in one step; nothing partial is
// authoritative before that. Marks outside [0, question marks] are refused.
// allowRegrade permits grading an already-GRADED submission again (the caller
// is responsible for appending, not mutating, the result history).
func FinalizeWritten(e Exam, sub Submission, grades map[string]QuestionGrade, graderID string, allowRegrade bool, now time.Time) (Submission, *WrittenOutcome, error) {
	if e.Format != FormatWritten {
		return sub, nil, ErrNotWritten
	}
	if sub.ExamID != e.ID {
		return sub, nil, fmt.Errorf("submission %s does not belong to exam %s", sub.ID, e.ID)
	}
	if strings.TrimSpace(graderID) == "" {
		return sub, nil, ErrGraderRequired
	}
	if sub.Status == StatusGraded && !allowRegrade {
		return sub, nil, ErrAlreadyGraded
	}

	// Marks are validated against the authoritative question list, never a
	// cached total, so edits between publish and grading cannot drift.
	total := 0.0
	awarded := map[string]QuestionGrade{}
	for _, q := range e.Questions {
		g, ok := grades[q.ID]
		if !ok {
			return sub, nil, fmt.Errorf("%w: question %s", ErrGradeIncomplete, q.ID)
		}
		if g.Marks < 0 || g.Marks > q.Marks {
			return sub, nil, fmt.Errorf("%w: question %s got %v, max %v", ErrMarksOutOfRange, q.ID, g.Marks, q.Marks)
		}
		awarded[q.ID] = g
		total += g.Marks
	}
	for id := range grades {
		if _, ok := awarded[id]; !ok {
			return sub, nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
		}
	}

	graded := sub
	graded.Answers = append([]SubmissionAnswer(nil), sub.Answers...)
	byQuestion := map[string]int{}
	for i, a := range graded.Answers {
		byQuestion[a.QuestionID] = i
	}
	for _, q := range e.Questions {
		g := awarded[q.ID]
		idx, ok := byQuestion[q.ID]
		if !ok {
			// The student skipped the question entirely; record the grade
			// against an empty answer so the breakdown stays complete.
			graded.Answers = append(graded.Answers, SubmissionAnswer{QuestionID: q.ID})
			idx = len(graded.Answers) - 1
		}
		graded.Answers[idx].Awarded = g.Marks
		graded.Answers[idx].Feedback = g.Feedback
	}

	graded.Status = StatusGraded
	graded.ObtainedMarks = total
	graded.GradedBy = graderID
	gradedAt := now
	graded.GradedAt = &gradedAt

	return graded, &WrittenOutcome{Score: total, TotalMarks: TotalMarks(e.Questions)}, nil
}
