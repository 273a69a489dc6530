package exam

import (
	"context"
	"errors"
	"testing"
	"time"

	"eduhub/internal/store"
	"eduhub/internal/user"
)

type fixture struct {
	svc     *Service
	users   *user.Service
	results *store.Collection[StudentResult]
	student user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New(store.NewMemoryBackend(), func(e *store.SyncError) {
		t.Logf("sync error: %v", e)
	})
	t.Cleanup(st.Close)

	exams, err := store.Open[Exam](st, "exams", nil)
	if err != nil {
		t.Fatalf("open exams: %v", err)
	}
	subs, err := store.Open[Submission](st, "submissions", nil)
	if err != nil {
		t.Fatalf("open submissions: %v", err)
	}
	results, err := store.Open[StudentResult](st, "results", nil)
	if err != nil {
		t.Fatalf("open results: %v", err)
	}
	users, err := store.Open[user.User](st, "users", nil)
	if err != nil {
		t.Fatalf("open users: %v", err)
	}

	userSvc := user.NewService(users, time.Hour)
	stu, err := userSvc.Register(context.Background(), user.RegisterInput{
		Name:     "Student One",
		Email:    "stu1@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("register student: %v", err)
	}

	return &fixture{
		svc:     NewService(exams, subs, results, userSvc, DefaultResultPolicy()),
		users:   userSvc,
		results: results,
		student: *stu,
	}
}

func (f *fixture) createPublished(t *testing.T, e Exam) Exam {
	t.Helper()
	created, err := f.svc.CreateExam(e)
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}
	published, err := f.svc.SetPublished(created.ID, true)
	if err != nil {
		t.Fatalf("publish exam: %v", err)
	}
	return *published
}

func TestCreateExamDerivesTotals(t *testing.T) {
	f := newFixture(t)

	e := mcqExam(0.25)
	e.ID = ""
	e.TotalMarks = 999 // stale caller value must be overwritten
	e.QuestionsCount = 999

	created, err := f.svc.CreateExam(e)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.TotalMarks != 10 || created.QuestionsCount != 2 {
		t.Fatalf("expected derived totals 10/2, got %v/%v", created.TotalMarks, created.QuestionsCount)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.IsPublished {
		t.Fatal("new exams start as drafts")
	}
}

func TestCreateExamRefusesInvalid(t *testing.T) {
	f := newFixture(t)

	e := mcqExam(0)
	e.Questions[0].CorrectOption = nil
	if _, err := f.svc.CreateExam(e); !errors.Is(err, ErrInvalidExam) {
		t.Fatalf("expected ErrInvalidExam, got %v", err)
	}
	if len(f.svc.ListAll()) != 0 {
		t.Fatal("invalid exam must never reach the store")
	}
}

func TestListAvailableGatesDraftsAndLiveStart(t *testing.T) {
	f := newFixture(t)

	f.createPublished(t, mcqExam(0))

	draft := mcqExam(0)
	draft.ID = ""
	if _, err := f.svc.CreateExam(draft); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	future := time.Now().Add(time.Hour)
	live := mcqExam(0)
	live.ID = ""
	live.Type = TypeLive
	live.StartTime = &future
	f.createPublished(t, live)

	if got := len(f.svc.ListAvailable()); got != 1 {
		t.Fatalf("expected only the started published exam, got %d", got)
	}
}

func TestSubmitMCQRecordsResultAndAwardsXP(t *testing.T) {
	f := newFixture(t)
	e := f.createPublished(t, mcqExam(0.25))

	sub, res, err := f.svc.SubmitMCQ(e.ID, f.student.ID, []Answer{
		{QuestionID: "q1", SelectedOption: intPtr(1)},
		{QuestionID: "q2", SelectedOption: intPtr(0)},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if sub.Status != StatusGraded {
		t.Fatalf("mcq submissions are auto-graded, got %s", sub.Status)
	}
	if sub.ObtainedMarks != 4.75 || sub.NegativeDeduction != 0.25 {
		t.Fatalf("expected 4.75 with 0.25 deduction, got %v/%v", sub.ObtainedMarks, sub.NegativeDeduction)
	}
	if res.Score != 4.75 || res.TotalMarks != 10 || res.Status != ResultPassed {
		t.Fatalf("unexpected result record: %+v", res)
	}

	// XP is the rounded score: round(4.75) = 5.
	u, ok := f.users.Get(f.student.ID)
	if !ok {
		t.Fatal("student disappeared")
	}
	if u.Points != 5 {
		t.Fatalf("expected 5 xp, got %d", u.Points)
	}
}

func TestSubmitMCQRefusesSecondAttempt(t *testing.T) {
	f := newFixture(t)
	e := f.createPublished(t, mcqExam(0))

	answers := []Answer{{QuestionID: "q1", SelectedOption: intPtr(1)}}
	if _, _, err := f.svc.SubmitMCQ(e.ID, f.student.ID, answers); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, _, err := f.svc.SubmitMCQ(e.ID, f.student.ID, answers); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestSubmitRequiresPublishedExam(t *testing.T) {
	f := newFixture(t)

	draft := mcqExam(0)
	created, err := f.svc.CreateExam(draft)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, _, err = f.svc.SubmitMCQ(created.ID, f.student.ID, nil)
	if !errors.Is(err, ErrExamNotPublished) {
		t.Fatalf("expected ErrExamNotPublished, got %v", err)
	}
}

func TestWrittenLifecycle(t *testing.T) {
	f := newFixture(t)
	e := f.createPublished(t, writtenExam())

	sub, err := f.svc.SubmitWritten(e.ID, f.student.ID, []Answer{
		{QuestionID: "q1", WrittenImages: []string{"scan1.jpg"}},
		{QuestionID: "q2", WrittenImages: []string{"scan2.jpg"}},
	})
	if err != nil {
		t.Fatalf("submit written: %v", err)
	}
	if sub.Status != StatusPending {
		t.Fatalf("written submissions await manual grading, got %s", sub.Status)
	}
	if len(f.svc.PendingSubmissions()) != 1 {
		t.Fatal("expected one pending submission")
	}

	graded, res, err := f.svc.GradeWritten(sub.ID, map[string]QuestionGrade{
		"q1": {Marks: 20, Feedback: "solid"},
		"q2": {Marks: 22},
	}, "grader1")
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if graded.ObtainedMarks != 42 || graded.Status != StatusGraded {
		t.Fatalf("expected graded 42, got %v (%s)", graded.ObtainedMarks, graded.Status)
	}
	if res.Score != 42 || res.TotalMarks != 50 || res.Status != ResultMerit {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(f.svc.PendingSubmissions()) != 0 {
		t.Fatal("graded submission must leave the pending queue")
	}
}

func TestRegradeAppendsCorrectedResult(t *testing.T) {
	f := newFixture(t)
	e := f.createPublished(t, writtenExam())

	sub, err := f.svc.SubmitWritten(e.ID, f.student.ID, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, _, err := f.svc.GradeWritten(sub.ID, map[string]QuestionGrade{
		"q1": {Marks: 10}, "q2": {Marks: 10},
	}, "grader1"); err != nil {
		t.Fatalf("first grade: %v", err)
	}
	if _, _, err := f.svc.GradeWritten(sub.ID, map[string]QuestionGrade{
		"q1": {Marks: 25}, "q2": {Marks: 20},
	}, "grader2"); err != nil {
		t.Fatalf("regrade: %v", err)
	}

	history := f.svc.ResultsForStudent(f.student.ID)
	if len(history) != 2 {
		t.Fatalf("expected regrade to append, got %d records", len(history))
	}
	if history[0].Score != 20 || history[0].Corrected {
		t.Fatalf("first record must stay untouched: %+v", history[0])
	}
	if history[1].Score != 45 || !history[1].Corrected {
		t.Fatalf("second record must be marked corrected: %+v", history[1])
	}
}

func TestResultHistoryIsAppendOnly(t *testing.T) {
	f := newFixture(t)
	first := f.createPublished(t, mcqExam(0))

	second := mcqExam(0)
	second.ID = ""
	second.Title = "Second exam"
	secondCreated := f.createPublished(t, second)

	if _, _, err := f.svc.SubmitMCQ(first.ID, f.student.ID, []Answer{{QuestionID: "q1", SelectedOption: intPtr(1)}}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	before := f.svc.ResultsForStudent(f.student.ID)
	if len(before) != 1 {
		t.Fatalf("expected 1 record, got %d", len(before))
	}

	if _, _, err := f.svc.SubmitMCQ(secondCreated.ID, f.student.ID, []Answer{{QuestionID: "q1", SelectedOption: intPtr(1)}}); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	after := f.svc.ResultsForStudent(f.student.ID)
	if len(after) != 2 {
		t.Fatalf("expected 2 records, got %d", len(after))
	}
	if after[0].ID != before[0].ID || after[0].Score != before[0].Score {
		t.Fatal("appending a result must never mutate prior history entries")
	}
}
