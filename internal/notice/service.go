package notice

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
	ErrInvalidNotice    = errors.New("invalid notice")
	ErrNoticeNotFound   = errors.New("notice not found")
	ErrAppealNotFound   = errors.New("appeal not found")
	ErrAppealResolved   = errors.New("appeal already resolved")
	ErrEmptyReply       = errors.New("reply body is empty")
	ErrResolverRequired = errors.New("resolver identity required")
)

var validate = validator.New()

type Service struct {
	notices *store.Collection[Notice]
	appeals *store.Collection[Appeal]
	now     func() time.Time
}

func NewService(notices *store.Collection[Notice], appeals *store.Collection[Appeal]) *Service {
	return &Service{notices: notices, appeals: appeals, now: time.Now}
}

func (s *Service) CreateNotice(n Notice) (*Notice, error) {
	n.Title = strings.TrimSpace(n.Title)
	if err := validate.Struct(n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNotice, err)
	}
	n.ID = uuid.NewString()
	n.CreatedAt = s.now().UTC()
	s.notices.Update(func(prev []Notice) []Notice {
		return append(prev, n)
	})
	return &n, nil
}

func (s *Service) UpdateNotice(n Notice) (*Notice, error) {
	existing, ok := s.Notice(n.ID)
	if !ok {
		return nil, ErrNoticeNotFound
	}
	n.CreatedBy = existing.CreatedBy
	n.CreatedAt = existing.CreatedAt
	n.Title = strings.TrimSpace(n.Title)
	if err := validate.Struct(n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNotice, err)
	}
	s.notices.Update(func(prev []Notice) []Notice {
		for i := range prev {
			if prev[i].ID == n.ID {
				prev[i] = n
			}
		}
		return prev
	})
	return &n, nil
}

func (s *Service) DeleteNotice(id string) error {
	if _, ok := s.Notice(id); !ok {
		return ErrNoticeNotFound
	}
	s.notices.Update(func(prev []Notice) []Notice {
		out := prev[:0]
		for _, n := range prev {
			if n.ID != id {
				out = append(out, n)
			}
		}
		return out
	})
	return nil
}

func (s *Service) Notice(id string) (Notice, bool) {
	for _, n := range s.notices.Items() {
		if n.ID == id {
			return n, true
		}
	}
	return Notice{}, false
}

// ListNotices returns pinned notices first, newest first within each group.
func (s *Service) ListNotices() []Notice {
	items := s.notices.Items()
	sort.Slice(items, func(i, j int) bool {
		if items[i].Pinned != items[j].Pinned {
			return items[i].Pinned
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

func (s *Service) CreateAppeal(a Appeal) (*Appeal, error) {
	a.Subject = strings.TrimSpace(a.Subject)
	if err := validate.Struct(a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNotice, err)
	}
	if strings.TrimSpace(a.StudentID) == "" {
		return nil, fmt.Errorf("%w: student id required", ErrInvalidNotice)
	}
	a.ID = uuid.NewString()
	a.Status = AppealOpen
	a.Replies = nil
	a.ResolvedBy = ""
	a.ResolvedAt = nil
	a.CreatedAt = s.now().UTC()
	s.appeals.Update(func(prev []Appeal) []Appeal {
		return append(prev, a)
	})
	return &a, nil
}

func (s *Service) Reply(appealID, authorID, body string) (*Appeal, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyReply
	}
	a, ok := s.Appeal(appealID)
	if !ok {
		return nil, ErrAppealNotFound
	}
	if a.Status == AppealResolved {
		return nil, ErrAppealResolved
	}

	reply := AppealReply{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: s.now().UTC(),
	}
	a.Replies = append(a.Replies, reply)
	s.appeals.Update(func(prev []Appeal) []Appeal {
		for i := range prev {
			if prev[i].ID == appealID {
				prev[i] = a
			}
		}
		return prev
	})
	return &a, nil
}

func (s *Service) Resolve(appealID, resolverID string) (*Appeal, error) {
	if strings.TrimSpace(resolverID) == "" {
		return nil, ErrResolverRequired
	}
	a, ok := s.Appeal(appealID)
	if !ok {
		return nil, ErrAppealNotFound
	}
	if a.Status == AppealResolved {
		return nil, ErrAppealResolved
	}

	now := s.now().UTC()
	a.Status = AppealResolved
	a.ResolvedBy = resolverID
	a.ResolvedAt = &now
	s.appeals.Update(func(prev []Appeal) []Appeal {
		for i := range prev {
			if prev[i].ID == appealID {
				prev[i] = a
			}
		}
		return prev
	})
	return &a, nil
}

func (s *Service) Appeal(id string) (Appeal, bool) {
	for _, a := range s.appeals.Items() {
		if a.ID == id {
			return a, true
		}
	}
	return Appeal{}, false
}

func (s *Service) ListAppeals(status AppealStatus) []Appeal {
	var out []Appeal
	for _, a := range s.appeals.Items() {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Service) AppealsForStudent(studentID string) []Appeal {
	var out []Appeal
	for _, a := range s.appeals.Items() {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
