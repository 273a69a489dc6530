package exam

import (
	"errors"
	"testing"
	"time"
)

func writtenExam() Exam {
	return Exam{
		ID:              "w1",
		Title:           "Essay paper",
		FolderID:        "f1",
		Type:            TypeGeneral,
		Format:          FormatWritten,
		DurationMinutes: 120,
		QuestionsCount:  2,
		TotalMarks:      50,
		Questions: []Question{
			{ID: "q1", Text: "Discuss A", Marks: 25},
			{ID: "q2", Text: "Discuss B", Marks: 25},
		},
	}
}

func pendingSubmission() Submission {
	return Submission{
		ID:        "s1",
		ExamID:    "w1",
		StudentID: "stu1",
		Status:    StatusPending,
		Answers: []SubmissionAnswer{
			{QuestionID: "q1", WrittenImages: []string{"scan1.jpg"}},
			{QuestionID: "q2", WrittenImages: []string{"scan2.jpg"}},
		},
	}
}

func TestFinalizeWritten(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	graded, outcome, err := FinalizeWritten(writtenExam(), pendingSubmission(), map[string]QuestionGrade{
		"q1": {Marks: 20, Feedback: "good"},
		"q2": {Marks: 22},
	}, "grader1", false, now)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if graded.Status != StatusGraded {
		t.Fatalf("expected status graded, got %s", graded.Status)
	}
	if graded.ObtainedMarks != 42 {
		t.Fatalf("expected obtained=42, got %v", graded.ObtainedMarks)
	}
	if graded.GradedBy != "grader1" {
		t.Fatalf("expected grader identity stamped, got %q", graded.GradedBy)
	}
	if graded.GradedAt == nil || !graded.GradedAt.Equal(now) {
		t.Fatalf("expected graded_at=%v, got %v", now, graded.GradedAt)
	}
	if outcome.Score != 42 || outcome.TotalMarks != 50 {
		t.Fatalf("expected outcome 42/50, got %v/%v", outcome.Score, outcome.TotalMarks)
	}
	if graded.Answers[0].Feedback != "good" {
		t.Fatalf("expected per-question feedback kept, got %q", graded.Answers[0].Feedback)
	}
}

func TestFinalizeWrittenRefusals(t *testing.T) {
	now := time.Now()
	fullGrades := map[string]QuestionGrade{"q1": {Marks: 10}, "q2": {Marks: 10}}

	tests := []struct {
		name    string
		exam    Exam
		sub     Submission
		grades  map[string]QuestionGrade
		grader  string
		regrade bool
		wantErr error
	}{
		{
			name:    "marks above question max",
			exam:    writtenExam(),
			sub:     pendingSubmission(),
			grades:  map[string]QuestionGrade{"q1": {Marks: 26}, "q2": {Marks: 10}},
			grader:  "grader1",
			wantErr: ErrMarksOutOfRange,
		},
		{
			name:    "negative marks",
			exam:    writtenExam(),
			sub:     pendingSubmission(),
			grades:  map[string]QuestionGrade{"q1": {Marks: -1}, "q2": {Marks: 10}},
			grader:  "grader1",
			wantErr: ErrMarksOutOfRange,
		},
		{
			name:    "missing question grade",
			exam:    writtenExam(),
			sub:     pendingSubmission(),
			grades:  map[string]QuestionGrade{"q1": {Marks: 10}},
			grader:  "grader1",
			wantErr: ErrGradeIncomplete,
		},
		{
			name:    "grade for unknown question",
			exam:    writtenExam(),
			sub:     pendingSubmission(),
			grades:  map[string]QuestionGrade{"q1": {Marks: 10}, "q2": {Marks: 10}, "ghost": {Marks: 1}},
			grader:  "grader1",
			wantErr: ErrUnknownQuestion,
		},
		{
			name:    "grader identity required",
			exam:    writtenExam(),
			sub:     pendingSubmission(),
			grades:  fullGrades,
			grader:  "  ",
			wantErr: ErrGraderRequired,
		},
		{
			name: "already graded without regrade",
			exam: writtenExam(),
			sub: func() Submission {
				s := pendingSubmission()
				s.Status = StatusGraded
				return s
			}(),
			grades:  fullGrades,
			grader:  "grader1",
			wantErr: ErrAlreadyGraded,
		},
		{
			name: "mcq exam refused",
			exam: func() Exam {
				e := writtenExam()
				e.Format = FormatMCQ
				return e
			}(),
			sub:     pendingSubmission(),
			grades:  fullGrades,
			grader:  "grader1",
			wantErr: ErrNotWritten,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := FinalizeWritten(tc.exam, tc.sub, tc.grades, tc.grader, tc.regrade, now)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFinalizeWrittenRegradeAllowed(t *testing.T) {
	sub := pendingSubmission()
	sub.Status = StatusGraded
	sub.ObtainedMarks = 30

	graded, outcome, err := FinalizeWritten(writtenExam(), sub, map[string]QuestionGrade{
		"q1": {Marks: 25},
		"q2": {Marks: 20},
	}, "grader2", true, time.Now())
	if err != nil {
		t.Fatalf("regrade: %v", err)
	}
	if graded.ObtainedMarks != 45 || outcome.Score != 45 {
		t.Fatalf("expected regraded total 45, got %v", graded.ObtainedMarks)
	}
	if graded.GradedBy != "grader2" {
		t.Fatalf("expected new grader stamped, got %q", graded.GradedBy)
	}
}
