package exam

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ExamType string

const (
	TypeLive    ExamType = "live"
	TypeGeneral ExamType = "general"
)

type ExamFormat string

const (
	FormatMCQ     ExamFormat = "mcq"
	FormatWritten ExamFormat = "written"
)

type SubmissionStatus string

const (
	StatusPending SubmissionStatus = "pending"
	StatusGraded  SubmissionStatus = "graded"
)

type ResultStatus string

const (
	ResultPassed ResultStatus = "passed"
	ResultMerit  ResultStatus = "merit"
	ResultFailed ResultStatus = "failed"
)

var (
	ErrInvalidExam = errors.New("invalid exam")
)

// Question is one authored exam question. MCQ questions carry 2..N options
// and exactly one correct-option index; written questions carry neither.
type Question struct {
	ID            string   `json:"id" validate:"required"`
	Text          string   `json:"text"`
	ImageURL      string   `json:"image_url,omitempty"`
	Marks         float64  `json:"marks" validate:"gt=0"`
	Options       []string `json:"options,omitempty"`
	CorrectOption *int     `json:"correct_option,omitempty"`
}

// Exam is the authoring-time definition, mirrored through the collection
// store. TotalMarks and QuestionsCount are derived and must always agree with
// the question list.
type Exam struct {
	ID              string     `json:"id"`
	Title           string     `json:"title" validate:"required"`
	FolderID        string     `json:"folder_id" validate:"required"`
	Audience        string     `json:"audience,omitempty"`
	Type            ExamType   `json:"type" validate:"required,oneof=live general"`
	Format          ExamFormat `json:"format" validate:"required,oneof=mcq written"`
	DurationMinutes int        `json:"duration_minutes" validate:"gt=0"`
	TotalMarks      float64    `json:"total_marks"`
	QuestionsCount  int        `json:"questions_count"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	NegativeMarks   float64    `json:"negative_marks,omitempty"`
	IsPublished     bool       `json:"is_published"`
	Questions       []Question `json:"questions" validate:"min=1"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (e Exam) EntityID() string { return e.ID }

// SubmissionAnswer is one per-question answer plus the marks the grading
// engine attached to it.
type SubmissionAnswer struct {
	QuestionID     string   `json:"question_id"`
	SelectedOption *int     `json:"selected_option,omitempty"`
	WrittenImages  []string `json:"written_images,omitempty"`
	Awarded        float64  `json:"awarded"`
	Penalty        float64  `json:"penalty,omitempty"`
	Correct        *bool    `json:"correct,omitempty"`
	Feedback       string   `json:"feedback,omitempty"`
}

// Submission is one (exam, student) attempt. Created at submit time and
// mutated only by the grading engine.
type Submission struct {
	ID                string             `json:"id"`
	ExamID            string             `json:"exam_id"`
	StudentID         string             `json:"student_id"`
	Status            SubmissionStatus   `json:"status"`
	ObtainedMarks     float64            `json:"obtained_marks"`
	NegativeDeduction float64            `json:"negative_deduction,omitempty"`
	GradedBy          string             `json:"graded_by,omitempty"`
	GradedAt          *time.Time         `json:"graded_at,omitempty"`
	SubmittedAt       time.Time          `json:"submitted_at"`
	Answers           []SubmissionAnswer `json:"answers"`
}

func (s Submission) EntityID() string { return s.ID }

// StudentResult is one entry of the student's append-only result history. It
// is never edited; a re-grade appends a corrected record instead.
type StudentResult struct {
	ID                string       `json:"id"`
	StudentID         string       `json:"student_id"`
	ExamID            string       `json:"exam_id"`
	ExamTitle         string       `json:"exam_title"`
	Score             float64      `json:"score"`
	TotalMarks        float64      `json:"total_marks"`
	NegativeDeduction float64      `json:"negative_deduction,omitempty"`
	Status            ResultStatus `json:"status"`
	Corrected         bool         `json:"corrected,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}

func (r StudentResult) EntityID() string { return r.ID }

var validate = validator.New()

// Validate refuses a structurally invalid exam before it is ever handed to
// the collection store.
func Validate(e Exam) error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExam, err)
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidExam)
	}
	if e.Type == TypeLive && e.StartTime == nil {
		return fmt.Errorf("%w: live exam requires a start time", ErrInvalidExam)
	}
	if e.Format != FormatMCQ && e.NegativeMarks != 0 {
		return fmt.Errorf("%w: negative marking applies to mcq exams only", ErrInvalidExam)
	}
	if e.NegativeMarks < 0 {
		return fmt.Errorf("%w: negative marks penalty must not be negative", ErrInvalidExam)
	}

	seen := map[string]bool{}
	for i, q := range e.Questions {
		if seen[q.ID] {
			return fmt.Errorf("%w: duplicate question id %s", ErrInvalidExam, q.ID)
		}
		seen[q.ID] = true
		if strings.TrimSpace(q.Text) == "" && strings.TrimSpace(q.ImageURL) == "" {
			return fmt.Errorf("%w: question %d needs text or an image", ErrInvalidExam, i+1)
		}
		switch e.Format {
		case FormatMCQ:
			if len(q.Options) < 2 {
				return fmt.Errorf("%w: mcq question %d needs at least 2 options", ErrInvalidExam, i+1)
			}
			for j, opt := range q.Options {
				if strings.TrimSpace(opt) == "" {
					return fmt.Errorf("%w: mcq question %d option %d is empty", ErrInvalidExam, i+1, j+1)
				}
			}
			if q.CorrectOption == nil {
				return fmt.Errorf("%w: mcq question %d has no correct option", ErrInvalidExam, i+1)
			}
			if *q.CorrectOption < 0 || *q.CorrectOption >= len(q.Options) {
				return fmt.Errorf("%w: mcq question %d correct option out of range", ErrInvalidExam, i+1)
			}
		case FormatWritten:
			if len(q.Options) > 0 || q.CorrectOption != nil {
				return fmt.Errorf("%w: written question %d must not carry options", ErrInvalidExam, i+1)
			}
		}
	}

	if e.QuestionsCount != len(e.Questions) {
		return fmt.Errorf("%w: questions_count %d does not match question list %d", ErrInvalidExam, e.QuestionsCount, len(e.Questions))
	}
	if !floatEq(e.TotalMarks, TotalMarks(e.Questions)) {
		return fmt.Errorf("%w: total_marks %v does not match question marks sum %v", ErrInvalidExam, e.TotalMarks, TotalMarks(e.Questions))
	}
	return nil
}

// TotalMarks recomputes the mark total from the authoritative question list.
// Callers must never cache this independently during grading.
func TotalMarks(qs []Question) float64 {
	total := 0.0
	for _, q := range qs {
		total += q.Marks
	}
	return total
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
