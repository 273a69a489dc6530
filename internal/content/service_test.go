package content

import (
	"errors"
	"testing"

	"eduhub/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st := store.New(store.NewMemoryBackend(), func(e *store.SyncError) {
		t.Logf("sync error: %v", e)
	})
	t.Cleanup(st.Close)

	folders, err := store.Open[Folder](st, "folders", nil)
	if err != nil {
		t.Fatalf("open folders: %v", err)
	}
	contents, err := store.Open[StudyContent](st, "contents", nil)
	if err != nil {
		t.Fatalf("open contents: %v", err)
	}
	posts, err := store.Open[BlogPost](st, "posts", nil)
	if err != nil {
		t.Fatalf("open posts: %v", err)
	}
	return NewService(folders, contents, posts)
}

func mustFolder(t *testing.T, svc *Service, name string) Folder {
	t.Helper()
	f, err := svc.CreateFolder(Folder{Name: name})
	if err != nil {
		t.Fatalf("create folder %q: %v", name, err)
	}
	return *f
}

func TestFolderLifecycle(t *testing.T) {
	svc := newTestService(t)

	root := mustFolder(t, svc, "Mathematics")
	child, err := svc.CreateFolder(Folder{Name: "Algebra", ParentID: root.ID})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	if _, err := svc.CreateFolder(Folder{Name: "Orphan", ParentID: "missing"}); !errors.Is(err, ErrFolderNotFound) {
		t.Fatalf("expected ErrFolderNotFound, got %v", err)
	}

	if err := svc.DeleteFolder(root.ID); !errors.Is(err, ErrFolderNotEmpty) {
		t.Fatalf("parent with children must refuse delete, got %v", err)
	}
	if err := svc.DeleteFolder(child.ID); err != nil {
		t.Fatalf("delete child: %v", err)
	}
	if err := svc.DeleteFolder(root.ID); err != nil {
		t.Fatalf("delete root after child gone: %v", err)
	}
}

func TestCreateContentRequiresTypeMatchingPayload(t *testing.T) {
	svc := newTestService(t)
	f := mustFolder(t, svc, "Physics")

	if _, err := svc.CreateContent(StudyContent{
		FolderID: f.ID, Title: "Lecture 1", Type: TypeVideo,
	}); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("video without url must be refused, got %v", err)
	}

	if _, err := svc.CreateContent(StudyContent{
		FolderID: f.ID, Title: "Notes", Type: TypeNote,
	}); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("note without body must be refused, got %v", err)
	}

	if _, err := svc.CreateContent(StudyContent{
		FolderID: f.ID, Title: "Slides", Type: "slideshow", URL: "/u/x.pdf",
	}); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("unknown content type must be refused, got %v", err)
	}

	c, err := svc.CreateContent(StudyContent{
		FolderID: f.ID, Title: "Lecture 1", Type: TypeVideo, URL: "https://example.com/v1",
	})
	if err != nil {
		t.Fatalf("create video: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected generated id")
	}

	byFolder := svc.ListContentByFolder(f.ID)
	if len(byFolder) != 1 || byFolder[0].ID != c.ID {
		t.Fatalf("expected the new record in its folder, got %+v", byFolder)
	}
}

func TestContentBlocksFolderDelete(t *testing.T) {
	svc := newTestService(t)
	f := mustFolder(t, svc, "Chemistry")
	c, err := svc.CreateContent(StudyContent{
		FolderID: f.ID, Title: "Syllabus", Type: TypePDF, URL: "/u/syllabus.pdf",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteFolder(f.ID); !errors.Is(err, ErrFolderNotEmpty) {
		t.Fatalf("expected ErrFolderNotEmpty, got %v", err)
	}
	if err := svc.DeleteContent(c.ID); err != nil {
		t.Fatalf("delete content: %v", err)
	}
	if err := svc.DeleteFolder(f.ID); err != nil {
		t.Fatalf("delete folder after content removed: %v", err)
	}
}

func TestBlogPostVisibility(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.CreatePost(BlogPost{Title: "Welcome", Body: "hello", Published: true, AuthorID: "a1"}); err != nil {
		t.Fatalf("create published: %v", err)
	}
	draft, err := svc.CreatePost(BlogPost{Title: "Draft", Body: "wip", AuthorID: "a1"})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	if got := len(svc.ListPosts(false)); got != 1 {
		t.Fatalf("students must only see published posts, got %d", got)
	}
	if got := len(svc.ListPosts(true)); got != 2 {
		t.Fatalf("admins see drafts too, got %d", got)
	}

	draft.Published = true
	if _, err := svc.UpdatePost(*draft); err != nil {
		t.Fatalf("publish draft: %v", err)
	}
	if got := len(svc.ListPosts(false)); got != 2 {
		t.Fatalf("expected 2 visible after publish, got %d", got)
	}
}

func TestUpdatePostKeepsAuthorAndCreation(t *testing.T) {
	svc := newTestService(t)
	p, err := svc.CreatePost(BlogPost{Title: "T", Body: "b", AuthorID: "a1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	edited := *p
	edited.AuthorID = "intruder"
	edited.Body = "edited"
	updated, err := svc.UpdatePost(edited)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.AuthorID != "a1" {
		t.Fatalf("author must be immutable, got %q", updated.AuthorID)
	}
	if !updated.CreatedAt.Equal(p.CreatedAt) {
		t.Fatal("creation time must be immutable")
	}
	if updated.Body != "edited" {
		t.Fatalf("body edit lost: %q", updated.Body)
	}
}
