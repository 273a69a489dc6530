package exam

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"eduhub/internal/store"
	"eduhub/internal/user"
)

var (
	ErrExamNotFound       = errors.New("exam not found")
	ErrExamNotPublished   = errors.New("exam not published")
	ErrExamNotStarted     = errors.New("live exam has not started")
	ErrAlreadySubmitted   = errors.New("exam already submitted by this student")
	ErrSubmissionNotFound = errors.New("submission not found")
)

// Service drives the exam lifecycle: authoring, publication, student
// submission, auto- and manual grading, and the append-only result history.
// It is the only writer of submission marks and result records.
type Service struct {
	exams   *store.Collection[Exam]
	subs    *store.Collection[Submission]
	results *store.Collection[StudentResult]
	users   *user.Service
	policy  ResultPolicy
	now     func() time.Time
}

func NewService(
	exams *store.Collection[Exam],
	subs *store.Collection[Submission],
	results *store.Collection[StudentResult],
	users *user.Service,
	policy ResultPolicy,
) *Service {
	if policy.PassPercent <= 0 && policy.MeritPercent <= 0 {
		policy = DefaultResultPolicy()
	}
	return &Service{
		exams:   exams,
		subs:    subs,
		results: results,
		users:   users,
		policy:  policy,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateExam(e Exam) (*Exam, error) {
	if strings.TrimSpace(e.ID) == "" {
		e.ID = uuid.NewString()
	}
	e.Title = strings.TrimSpace(e.Title)
	e.TotalMarks = TotalMarks(e.Questions)
	e.QuestionsCount = len(e.Questions)
	e.CreatedAt = s.now()
	for i := range e.Questions {
		if strings.TrimSpace(e.Questions[i].ID) == "" {
			e.Questions[i].ID = uuid.NewString()
		}
	}
	if err := Validate(e); err != nil {
		return nil, err
	}
	s.exams.Update(func(prev []Exam) []Exam {
		return append(prev, e)
	})
	return &e, nil
}

func (s *Service) UpdateExam(e Exam) (*Exam, error) {
	if _, ok := s.Get(e.ID); !ok {
		return nil, ErrExamNotFound
	}
	e.TotalMarks = TotalMarks(e.Questions)
	e.QuestionsCount = len(e.Questions)
	if err := Validate(e); err != nil {
		return nil, err
	}
	s.exams.Update(func(prev []Exam) []Exam {
		for i := range prev {
			if prev[i].ID == e.ID {
				prev[i] = e
			}
		}
		return prev
	})
	return &e, nil
}

func (s *Service) DeleteExam(id string) error {
	if _, ok := s.Get(id); !ok {
		return ErrExamNotFound
	}
	s.exams.Update(func(prev []Exam) []Exam {
		out := prev[:0]
		for _, e := range prev {
			if e.ID != id {
				out = append(out, e)
			}
		}
		return out
	})
	return nil
}

// SetPublished toggles DRAFT <-> PUBLISHED.
func (s *Service) SetPublished(id string, published bool) (*Exam, error) {
	e, ok := s.Get(id)
	if !ok {
		return nil, ErrExamNotFound
	}
	e.IsPublished = published
	s.exams.Update(func(prev []Exam) []Exam {
		for i := range prev {
			if prev[i].ID == id {
				prev[i].IsPublished = published
			}
		}
		return prev
	})
	return &e, nil
}

func (s *Service) Get(id string) (Exam, bool) {
	for _, e := range s.exams.Items() {
		if e.ID == id {
			return e, true
		}
	}
	return Exam{}, false
}

func (s *Service) ListAll() []Exam {
	return s.exams.Items()
}

// ListAvailable returns exams visible to students: published, and for LIVE
// exams only once the start time has arrived.
func (s *Service) ListAvailable() []Exam {
	now := s.now()
	var out []Exam
	for _, e := range s.exams.Items() {
		if !e.IsPublished {
			continue
		}
		if e.Type == TypeLive && (e.StartTime == nil || now.Before(*e.StartTime)) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SubmitMCQ records an MCQ attempt, auto-grades it synchronously, appends a
// StudentResult and awards the rounded score as XP. The result append and the
// XP award are two independent writes with no compensating transaction.
func (s *Service) SubmitMCQ(examID, studentID string, answers []Answer) (*Submission, *StudentResult, error) {
	e, err := s.openForSubmission(examID, studentID)
	if err != nil {
		return nil, nil, err
	}
	if e.Format != FormatMCQ {
		return nil, nil, ErrNotMCQ
	}

	outcome, err := ScoreMCQ(*e, answers)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	sub := Submission{
		ID:                uuid.NewString(),
		ExamID:            e.ID,
		StudentID:         studentID,
		Status:            StatusGraded,
		ObtainedMarks:     outcome.Score,
		NegativeDeduction: outcome.NegativeDeduction,
		SubmittedAt:       now,
		Answers:           answersWithScores(answers, outcome.Breakdown),
	}
	s.subs.Update(func(prev []Submission) []Submission {
		return append(prev, sub)
	})

	res := s.appendResult(*e, studentID, outcome.Score, outcome.TotalMarks, outcome.NegativeDeduction, false)

	if pts := int(math.Round(outcome.Score)); pts > 0 {
		if err := s.users.AwardPoints(studentID, pts); err != nil {
			log.Printf(`{"event":"xp_award_failed","student_id":%q,"error":%q}`, studentID, err.Error())
		}
	}
	return &sub, res, nil
}

// SubmitWritten records a written attempt; it stays PENDING until a grader
// finalizes it.
func (s *Service) SubmitWritten(examID, studentID string, answers []Answer) (*Submission, error) {
	e, err := s.openForSubmission(examID, studentID)
	if err != nil {
		return nil, err
	}
	if e.Format != FormatWritten {
		return nil, ErrNotWritten
	}
	known := map[string]bool{}
	for _, q := range e.Questions {
		known[q.ID] = true
	}
	subAnswers := make([]SubmissionAnswer, 0, len(answers))
	for _, a := range answers {
		if !known[a.QuestionID] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, a.QuestionID)
		}
		subAnswers = append(subAnswers, SubmissionAnswer{
			QuestionID:    a.QuestionID,
			WrittenImages: a.WrittenImages,
		})
	}

	sub := Submission{
		ID:          uuid.NewString(),
		ExamID:      e.ID,
		StudentID:   studentID,
		Status:      StatusPending,
		SubmittedAt: s.now(),
		Answers:     subAnswers,
	}
	s.subs.Update(func(prev []Submission) []Submission {
		return append(prev, sub)
	})
	return &sub, nil
}

// GradeWritten finalizes a manual grade and appends a StudentResult. Grading
// an already-graded submission appends a corrected record; the earlier result
// history entry is left untouched.
func (s *Service) GradeWritten(submissionID string, grades map[string]QuestionGrade, graderID string) (*Submission, *StudentResult, error) {
	sub, ok := s.Submission(submissionID)
	if !ok {
		return nil, nil, ErrSubmissionNotFound
	}
	e, ok := s.Get(sub.ExamID)
	if !ok {
		return nil, nil, ErrExamNotFound
	}

	regrade := sub.Status == StatusGraded
	graded, outcome, err := FinalizeWritten(e, sub, grades, graderID, regrade, s.now())
	if err != nil {
		return nil, nil, err
	}

	s.subs.Update(func(prev []Submission) []Submission {
		for i := range prev {
			if prev[i].ID == graded.ID {
				prev[i] = graded
			}
		}
		return prev
	})

	res := s.appendResult(e, sub.StudentID, outcome.Score, outcome.TotalMarks, 0, regrade)
	return &graded, res, nil
}

func (s *Service) Submission(id string) (Submission, bool) {
	for _, sub := range s.subs.Items() {
		if sub.ID == id {
			return sub, true
		}
	}
	return Submission{}, false
}

// PendingSubmissions lists written attempts awaiting a grader.
func (s *Service) PendingSubmissions() []Submission {
	var out []Submission
	for _, sub := range s.subs.Items() {
		if sub.Status == StatusPending {
			out = append(out, sub)
		}
	}
	return out
}

func (s *Service) SubmissionsForExam(examID string) []Submission {
	var out []Submission
	for _, sub := range s.subs.Items() {
		if sub.ExamID == examID {
			out = append(out, sub)
		}
	}
	return out
}

// ResultsForStudent returns the student's result history, oldest first.
func (s *Service) ResultsForStudent(studentID string) []StudentResult {
	var out []StudentResult
	for _, r := range s.results.Items() {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Service) ResultsForExam(examID string) []StudentResult {
	var out []StudentResult
	for _, r := range s.results.Items() {
		if r.ExamID == examID {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) openForSubmission(examID, studentID string) (*Exam, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, fmt.Errorf("student id is required")
	}
	e, ok := s.Get(examID)
	if !ok {
		return nil, ErrExamNotFound
	}
	if !e.IsPublished {
		return nil, ErrExamNotPublished
	}
	if e.Type == TypeLive && (e.StartTime == nil || s.now().Before(*e.StartTime)) {
		return nil, ErrExamNotStarted
	}
	for _, sub := range s.subs.Items() {
		if sub.ExamID == examID && sub.StudentID == studentID {
			return nil, ErrAlreadySubmitted
		}
	}
	return &e, nil
}

// appendResult adds one entry to the append-only result history. Existing
// entries are never touched, re-grade included.
func (s *Service) appendResult(e Exam, studentID string, score, totalMarks, deduction float64, corrected bool) *StudentResult {
	res := StudentResult{
		ID:                uuid.NewString(),
		StudentID:         studentID,
		ExamID:            e.ID,
		ExamTitle:         e.Title,
		Score:             score,
		TotalMarks:        totalMarks,
		NegativeDeduction: deduction,
		Status:            s.policy.Classify(score, totalMarks),
		Corrected:         corrected,
		CreatedAt:         s.now(),
	}
	s.results.Update(func(prev []StudentResult) []StudentResult {
		return append(prev, res)
	})
	return &res
}

func answersWithScores(answers []Answer, breakdown []QuestionScore) []SubmissionAnswer {
	byQuestion := map[string]Answer{}
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	out := make([]SubmissionAnswer, 0, len(breakdown))
	for _, qs := range breakdown {
		a := byQuestion[qs.QuestionID]
		out = append(out, SubmissionAnswer{
			QuestionID:     qs.QuestionID,
			SelectedOption: a.SelectedOption,
			Awarded:        qs.Awarded,
			Penalty:        qs.Penalty,
			Correct:        qs.Correct,
		})
	}
	return out
}
