package exam

import (
	"errors"
	"testing"
	"time"
)

func validMCQ() Exam {
	return mcqExam(0.25)
}

func TestValidate(t *testing.T) {
	start := time.Now().Add(time.Hour)

	tests := []struct {
		name   string
		mutate func(*Exam)
		wantOK bool
	}{
		{name: "valid mcq", mutate: func(*Exam) {}, wantOK: true},
		{
			name: "valid live with start time",
			mutate: func(e *Exam) {
				e.Type = TypeLive
				e.StartTime = &start
			},
			wantOK: true,
		},
		{name: "missing title", mutate: func(e *Exam) { e.Title = "   " }},
		{name: "missing folder", mutate: func(e *Exam) { e.FolderID = "" }},
		{name: "live without start time", mutate: func(e *Exam) { e.Type = TypeLive }},
		{name: "zero duration", mutate: func(e *Exam) { e.DurationMinutes = 0 }},
		{name: "no questions", mutate: func(e *Exam) {
			e.Questions = nil
			e.QuestionsCount = 0
			e.TotalMarks = 0
		}},
		{name: "question without text or image", mutate: func(e *Exam) { e.Questions[0].Text = "" }},
		{name: "mcq question with one option", mutate: func(e *Exam) {
			e.Questions[0].Options = []string{"only"}
			e.Questions[0].CorrectOption = intPtr(0)
		}},
		{name: "mcq question without correct option", mutate: func(e *Exam) { e.Questions[0].CorrectOption = nil }},
		{name: "correct option out of range", mutate: func(e *Exam) { e.Questions[0].CorrectOption = intPtr(7) }},
		{name: "duplicate question ids", mutate: func(e *Exam) { e.Questions[1].ID = e.Questions[0].ID }},
		{name: "stale questions count", mutate: func(e *Exam) { e.QuestionsCount = 5 }},
		{name: "stale total marks", mutate: func(e *Exam) { e.TotalMarks = 99 }},
		{name: "unknown format", mutate: func(e *Exam) { e.Format = "oral" }},
		{name: "negative penalty", mutate: func(e *Exam) { e.NegativeMarks = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := validMCQ()
			tc.mutate(&e)
			err := Validate(e)
			if tc.wantOK {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidExam) {
				t.Fatalf("expected ErrInvalidExam, got %v", err)
			}
		})
	}
}

func TestValidateWrittenCarriesNoOptions(t *testing.T) {
	e := writtenExam()
	if err := Validate(e); err != nil {
		t.Fatalf("expected valid written exam, got %v", err)
	}

	e.Questions[0].CorrectOption = intPtr(0)
	if err := Validate(e); !errors.Is(err, ErrInvalidExam) {
		t.Fatalf("expected refusal of written question with an answer key, got %v", err)
	}

	e = writtenExam()
	e.NegativeMarks = 0.5
	if err := Validate(e); !errors.Is(err, ErrInvalidExam) {
		t.Fatalf("expected refusal of negative marking on written exam, got %v", err)
	}
}

func TestTotalMarksRecomputed(t *testing.T) {
	qs := []Question{{ID: "a", Marks: 2.5}, {ID: "b", Marks: 7.5}, {ID: "c", Marks: 10}}
	if got := TotalMarks(qs); got != 20 {
		t.Fatalf("expected 20, got %v", got)
	}
	if got := TotalMarks(nil); got != 0 {
		t.Fatalf("expected 0 for empty list, got %v", got)
	}
}
