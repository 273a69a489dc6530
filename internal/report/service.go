package report

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"eduhub/internal/exam"
	"eduhub/internal/user"
)

var ErrExamNotFound = errors.New("exam not found")

// ResultSource is the slice of the exam service the reports need.
type ResultSource interface {
	Get(id string) (exam.Exam, bool)
	ResultsForExam(examID string) []exam.StudentResult
}

// NameSource resolves student IDs to display names for exports.
type NameSource interface {
	Get(id string) (user.User, bool)
}

type Service struct {
	exams ResultSource
	users NameSource
}

func NewService(exams ResultSource, users NameSource) *Service {
	return &Service{exams: exams, users: users}
}

type ExamSummary struct {
	ExamID       string  `json:"examId"`
	ExamTitle    string  `json:"examTitle"`
	TotalMarks   float64 `json:"totalMarks"`
	Participants int     `json:"participants"`
	Passed       int     `json:"passed"`
	Merit        int     `json:"merit"`
	Failed       int     `json:"failed"`
	AverageScore float64 `json:"averageScore"`
	HighestScore float64 `json:"highestScore"`
	LowestScore  float64 `json:"lowestScore"`
}

// SummaryByExam aggregates the exam's result history. Corrected records
// supersede the originals for the same student, so each participant counts
// exactly once with their latest standing.
func (s *Service) SummaryByExam(examID string) (*ExamSummary, error) {
	e, ok := s.exams.Get(examID)
	if !ok {
		return nil, ErrExamNotFound
	}

	latest := latestResults(s.exams.ResultsForExam(examID))
	sum := &ExamSummary{
		ExamID:     e.ID,
		ExamTitle:  e.Title,
		TotalMarks: e.TotalMarks,
	}
	if len(latest) == 0 {
		return sum, nil
	}

	total := 0.0
	sum.HighestScore = latest[0].Score
	sum.LowestScore = latest[0].Score
	for _, r := range latest {
		sum.Participants++
		total += r.Score
		if r.Score > sum.HighestScore {
			sum.HighestScore = r.Score
		}
		if r.Score < sum.LowestScore {
			sum.LowestScore = r.Score
		}
		switch r.Status {
		case exam.ResultMerit:
			sum.Merit++
		case exam.ResultPassed:
			sum.Passed++
		default:
			sum.Failed++
		}
	}
	sum.AverageScore = total / float64(sum.Participants)
	return sum, nil
}

// ExportExamExcel renders the exam's latest results as a spreadsheet, one
// row per participant.
func (s *Service) ExportExamExcel(examID string) ([]byte, error) {
	e, ok := s.exams.Get(examID)
	if !ok {
		return nil, ErrExamNotFound
	}
	latest := latestResults(s.exams.ResultsForExam(examID))

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	headers := []string{"student", "email", "score", "total_marks", "negative_deduction", "status", "corrected", "submitted_at"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, r := range latest {
		row := i + 2
		name := r.StudentID
		email := ""
		if u, ok := s.users.Get(r.StudentID); ok {
			name = u.Name
			email = u.Email
		}
		values := []any{
			name,
			email,
			r.Score,
			r.TotalMarks,
			r.NegativeDeduction,
			string(r.Status),
			r.Corrected,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "A", "H", 22)
	_ = f.SetSheetName(sheet, sanitizeSheetName(e.Title))

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeSheetName strips characters Excel refuses in sheet names and caps
// the length at 31.
func sanitizeSheetName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return "Results"
	}
	if len(out) > 31 {
		out = out[:31]
	}
	return string(out)
}

// latestResults keeps one record per student: the newest, so corrections win.
func latestResults(all []exam.StudentResult) []exam.StudentResult {
	byStudent := map[string]exam.StudentResult{}
	for _, r := range all {
		prev, ok := byStudent[r.StudentID]
		if !ok || r.CreatedAt.After(prev.CreatedAt) {
			byStudent[r.StudentID] = r
		}
	}
	out := make([]exam.StudentResult, 0, len(byStudent))
	for _, r := range byStudent {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
