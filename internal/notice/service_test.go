package notice

import (
	"errors"
	"testing"
	"time"

	"eduhub/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st := store.New(store.NewMemoryBackend(), func(e *store.SyncError) {
		t.Logf("sync error: %v", e)
	})
	t.Cleanup(st.Close)

	notices, err := store.Open[Notice](st, "notices", nil)
	if err != nil {
		t.Fatalf("open notices: %v", err)
	}
	appeals, err := store.Open[Appeal](st, "appeals", nil)
	if err != nil {
		t.Fatalf("open appeals: %v", err)
	}
	return NewService(notices, appeals)
}

func TestNoticeOrderingPinnedFirst(t *testing.T) {
	svc := newTestService(t)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	step := 0
	svc.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}

	if _, err := svc.CreateNotice(Notice{Title: "Old", Body: "b", CreatedBy: "a1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	pinned, err := svc.CreateNotice(Notice{Title: "Rules", Body: "b", Pinned: true, CreatedBy: "a1"})
	if err != nil {
		t.Fatalf("create pinned: %v", err)
	}
	if _, err := svc.CreateNotice(Notice{Title: "New", Body: "b", CreatedBy: "a1"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got := svc.ListNotices()
	if len(got) != 3 {
		t.Fatalf("expected 3 notices, got %d", len(got))
	}
	if got[0].ID != pinned.ID {
		t.Fatalf("pinned notice must lead the list, got %q", got[0].Title)
	}
	if got[1].Title != "New" || got[2].Title != "Old" {
		t.Fatalf("unpinned notices must be newest first, got %q then %q", got[1].Title, got[2].Title)
	}
}

func TestCreateNoticeRefusesBlankTitle(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.CreateNotice(Notice{Title: "   ", Body: "b"}); !errors.Is(err, ErrInvalidNotice) {
		t.Fatalf("expected ErrInvalidNotice, got %v", err)
	}
}

func TestAppealThreadAndResolve(t *testing.T) {
	svc := newTestService(t)

	a, err := svc.CreateAppeal(Appeal{
		StudentID: "stu1",
		Subject:   "Wrong score",
		Body:      "Question 3 was marked wrong but my answer matches the key.",
		Images:    []string{"/u/screenshot.png"},
	})
	if err != nil {
		t.Fatalf("create appeal: %v", err)
	}
	if a.Status != AppealOpen {
		t.Fatalf("new appeals start open, got %s", a.Status)
	}

	if _, err := svc.Reply(a.ID, "teacher1", "  "); !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("expected ErrEmptyReply, got %v", err)
	}
	withReply, err := svc.Reply(a.ID, "teacher1", "Looking into it.")
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if len(withReply.Replies) != 1 || withReply.Replies[0].AuthorID != "teacher1" {
		t.Fatalf("unexpected thread: %+v", withReply.Replies)
	}

	resolved, err := svc.Resolve(a.ID, "teacher1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != AppealResolved || resolved.ResolvedBy != "teacher1" || resolved.ResolvedAt == nil {
		t.Fatalf("unexpected resolution: %+v", resolved)
	}

	if _, err := svc.Reply(a.ID, "teacher1", "too late"); !errors.Is(err, ErrAppealResolved) {
		t.Fatalf("resolved appeals refuse replies, got %v", err)
	}
	if _, err := svc.Resolve(a.ID, "teacher2"); !errors.Is(err, ErrAppealResolved) {
		t.Fatalf("double resolve refused, got %v", err)
	}
}

func TestAppealListingFilters(t *testing.T) {
	svc := newTestService(t)

	a1, err := svc.CreateAppeal(Appeal{StudentID: "stu1", Subject: "A", Body: "b"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateAppeal(Appeal{StudentID: "stu2", Subject: "B", Body: "b"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Resolve(a1.ID, "teacher1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if got := len(svc.ListAppeals(AppealOpen)); got != 1 {
		t.Fatalf("expected 1 open appeal, got %d", got)
	}
	if got := len(svc.ListAppeals("")); got != 2 {
		t.Fatalf("expected 2 total, got %d", got)
	}
	if got := len(svc.AppealsForStudent("stu1")); got != 1 {
		t.Fatalf("expected 1 appeal for stu1, got %d", got)
	}
}
