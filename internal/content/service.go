package content

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"eduhub/internal/store"
)

var (
	ErrFolderNotFound  = errors.New("folder not found")
	ErrContentNotFound = errors.New("content not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrFolderNotEmpty  = errors.New("folder still has content")
)

var validate = validator.New()

// Service manages the study library: folders, the content inside them, and
// blog posts. All three collections sync through the store.
type Service struct {
	folders  *store.Collection[Folder]
	contents *store.Collection[StudyContent]
	posts    *store.Collection[BlogPost]
	now      func() time.Time
}

func NewService(folders *store.Collection[Folder], contents *store.Collection[StudyContent], posts *store.Collection[BlogPost]) *Service {
	return &Service{
		folders:  folders,
		contents: contents,
		posts:    posts,
		now:      time.Now,
	}
}

func (s *Service) CreateFolder(f Folder) (*Folder, error) {
	f.Name = strings.TrimSpace(f.Name)
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if f.ParentID != "" {
		if _, ok := s.Folder(f.ParentID); !ok {
			return nil, ErrFolderNotFound
		}
	}
	f.ID = uuid.NewString()
	f.CreatedAt = s.now().UTC()
	s.folders.Update(func(prev []Folder) []Folder {
		return append(prev, f)
	})
	return &f, nil
}

func (s *Service) RenameFolder(id, name string) (*Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidContent
	}
	f, ok := s.Folder(id)
	if !ok {
		return nil, ErrFolderNotFound
	}
	f.Name = name
	s.folders.Update(func(prev []Folder) []Folder {
		for i := range prev {
			if prev[i].ID == id {
				prev[i].Name = name
			}
		}
		return prev
	})
	return &f, nil
}

// DeleteFolder refuses to delete folders that still hold content or child
// folders, so a stray admin click cannot orphan a subtree.
func (s *Service) DeleteFolder(id string) error {
	if _, ok := s.Folder(id); !ok {
		return ErrFolderNotFound
	}
	for _, c := range s.contents.Items() {
		if c.FolderID == id {
			return ErrFolderNotEmpty
		}
	}
	for _, f := range s.folders.Items() {
		if f.ParentID == id {
			return ErrFolderNotEmpty
		}
	}
	s.folders.Update(func(prev []Folder) []Folder {
		out := prev[:0]
		for _, f := range prev {
			if f.ID != id {
				out = append(out, f)
			}
		}
		return out
	})
	return nil
}

func (s *Service) Folder(id string) (Folder, bool) {
	for _, f := range s.folders.Items() {
		if f.ID == id {
			return f, true
		}
	}
	return Folder{}, false
}

func (s *Service) ListFolders() []Folder {
	items := s.folders.Items()
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

func (s *Service) CreateContent(c StudyContent) (*StudyContent, error) {
	c.Title = strings.TrimSpace(c.Title)
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if !c.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown content type %q", ErrInvalidContent, c.Type)
	}
	switch c.Type {
	case TypeNote:
		if strings.TrimSpace(c.Body) == "" {
			return nil, fmt.Errorf("%w: note content needs a body", ErrInvalidContent)
		}
	default:
		if strings.TrimSpace(c.URL) == "" {
			return nil, fmt.Errorf("%w: %s content needs a url", ErrInvalidContent, c.Type)
		}
	}
	if _, ok := s.Folder(c.FolderID); !ok {
		return nil, ErrFolderNotFound
	}
	c.ID = uuid.NewString()
	c.CreatedAt = s.now().UTC()
	s.contents.Update(func(prev []StudyContent) []StudyContent {
		return append(prev, c)
	})
	return &c, nil
}

func (s *Service) UpdateContent(c StudyContent) (*StudyContent, error) {
	existing, ok := s.Content(c.ID)
	if !ok {
		return nil, ErrContentNotFound
	}
	c.CreatedAt = existing.CreatedAt
	c.CreatedBy = existing.CreatedBy
	c.Title = strings.TrimSpace(c.Title)
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if !c.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown content type %q", ErrInvalidContent, c.Type)
	}
	if _, ok := s.Folder(c.FolderID); !ok {
		return nil, ErrFolderNotFound
	}
	s.contents.Update(func(prev []StudyContent) []StudyContent {
		for i := range prev {
			if prev[i].ID == c.ID {
				prev[i] = c
			}
		}
		return prev
	})
	return &c, nil
}

func (s *Service) DeleteContent(id string) error {
	if _, ok := s.Content(id); !ok {
		return ErrContentNotFound
	}
	s.contents.Update(func(prev []StudyContent) []StudyContent {
		out := prev[:0]
		for _, c := range prev {
			if c.ID != id {
				out = append(out, c)
			}
		}
		return out
	})
	return nil
}

func (s *Service) Content(id string) (StudyContent, bool) {
	for _, c := range s.contents.Items() {
		if c.ID == id {
			return c, true
		}
	}
	return StudyContent{}, false
}

func (s *Service) ListContentByFolder(folderID string) []StudyContent {
	var out []StudyContent
	for _, c := range s.contents.Items() {
		if c.FolderID == folderID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Service) CreatePost(p BlogPost) (*BlogPost, error) {
	p.Title = strings.TrimSpace(p.Title)
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	p.ID = uuid.NewString()
	p.CreatedAt = s.now().UTC()
	s.posts.Update(func(prev []BlogPost) []BlogPost {
		return append(prev, p)
	})
	return &p, nil
}

func (s *Service) UpdatePost(p BlogPost) (*BlogPost, error) {
	existing, ok := s.Post(p.ID)
	if !ok {
		return nil, ErrPostNotFound
	}
	p.AuthorID = existing.AuthorID
	p.CreatedAt = existing.CreatedAt
	p.Title = strings.TrimSpace(p.Title)
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	s.posts.Update(func(prev []BlogPost) []BlogPost {
		for i := range prev {
			if prev[i].ID == p.ID {
				prev[i] = p
			}
		}
		return prev
	})
	return &p, nil
}

func (s *Service) DeletePost(id string) error {
	if _, ok := s.Post(id); !ok {
		return ErrPostNotFound
	}
	s.posts.Update(func(prev []BlogPost) []BlogPost {
		out := prev[:0]
		for _, p := range prev {
			if p.ID != id {
				out = append(out, p)
			}
		}
		return out
	})
	return nil
}

func (s *Service) Post(id string) (BlogPost, bool) {
	for _, p := range s.posts.Items() {
		if p.ID == id {
			return p, true
		}
	}
	return BlogPost{}, false
}

// ListPosts returns published posts newest first. Admins pass
// includeDrafts to see unpublished work.
func (s *Service) ListPosts(includeDrafts bool) []BlogPost {
	var out []BlogPost
	for _, p := range s.posts.Items() {
		if p.Published || includeDrafts {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
