package feed

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"eduhub/internal/store"
)

var (
	ErrEmptyPost       = errors.New("post body is empty")
	ErrPostNotFound    = errors.New("post not found")
	ErrReportNotFound  = errors.New("report not found")
	ErrReportResolved  = errors.New("report already resolved")
	ErrNotPostAuthor   = errors.New("not the post author")
	ErrUnknownAction   = errors.New("unknown moderation action")
	ErrMissingReason   = errors.New("report reason required")
	ErrDuplicateReport = errors.New("post already reported by this user")
)

type Service struct {
	posts   *store.Collection[SocialPost]
	reports *store.Collection[PostReport]
	now     func() time.Time
}

func NewService(posts *store.Collection[SocialPost], reports *store.Collection[PostReport]) *Service {
	return &Service{posts: posts, reports: reports, now: time.Now}
}

func (s *Service) CreatePost(authorID, body string, images []string) (*SocialPost, error) {
	body = strings.TrimSpace(body)
	if body == "" && len(images) == 0 {
		return nil, ErrEmptyPost
	}
	p := SocialPost{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Body:      body,
		Images:    images,
		CreatedAt: s.now().UTC(),
	}
	s.posts.Update(func(prev []SocialPost) []SocialPost {
		return append(prev, p)
	})
	return &p, nil
}

// DeletePost removes a post. Authors may delete their own; moderators pass
// force to delete anyone's.
func (s *Service) DeletePost(id, actorID string, force bool) error {
	p, ok := s.Post(id)
	if !ok {
		return ErrPostNotFound
	}
	if !force && p.AuthorID != actorID {
		return ErrNotPostAuthor
	}
	s.posts.Update(func(prev []SocialPost) []SocialPost {
		out := prev[:0]
		for _, q := range prev {
			if q.ID != id {
				out = append(out, q)
			}
		}
		return out
	})
	return nil
}

// ToggleLike flips the user's like on the post and returns the new state.
func (s *Service) ToggleLike(postID, userID string) (*SocialPost, error) {
	p, ok := s.Post(postID)
	if !ok {
		return nil, ErrPostNotFound
	}

	liked := false
	for _, id := range p.LikedBy {
		if id == userID {
			liked = true
			break
		}
	}
	// p shares its LikedBy backing array with the collection's local state,
	// so build a fresh slice instead of editing in place.
	next := make([]string, 0, len(p.LikedBy)+1)
	for _, id := range p.LikedBy {
		if id != userID {
			next = append(next, id)
		}
	}
	if !liked {
		next = append(next, userID)
	}
	p.LikedBy = next
	p.LikeCount = len(p.LikedBy)

	s.posts.Update(func(prev []SocialPost) []SocialPost {
		for i := range prev {
			if prev[i].ID == postID {
				prev[i] = p
			}
		}
		return prev
	})
	return &p, nil
}

func (s *Service) Post(id string) (SocialPost, bool) {
	for _, p := range s.posts.Items() {
		if p.ID == id {
			return p, true
		}
	}
	return SocialPost{}, false
}

func (s *Service) ListPosts() []SocialPost {
	items := s.posts.Items()
	for i := range items {
		items[i].LikeCount = len(items[i].LikedBy)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items
}

func (s *Service) Report(postID, reporterID, reason string) (*PostReport, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrMissingReason
	}
	if _, ok := s.Post(postID); !ok {
		return nil, ErrPostNotFound
	}
	for _, r := range s.reports.Items() {
		if r.PostID == postID && r.ReporterID == reporterID && r.Status == ReportOpen {
			return nil, ErrDuplicateReport
		}
	}

	rep := PostReport{
		ID:         uuid.NewString(),
		PostID:     postID,
		ReporterID: reporterID,
		Reason:     reason,
		Status:     ReportOpen,
		CreatedAt:  s.now().UTC(),
	}
	s.reports.Update(func(prev []PostReport) []PostReport {
		return append(prev, rep)
	})
	return &rep, nil
}

// ResolveReport records the moderator's decision. ActionRemove also deletes
// the offending post.
func (s *Service) ResolveReport(reportID, moderatorID string, action ReportAction) (*PostReport, error) {
	switch action {
	case ActionDismiss, ActionRemove:
	default:
		return nil, ErrUnknownAction
	}
	rep, ok := s.reportByID(reportID)
	if !ok {
		return nil, ErrReportNotFound
	}
	if rep.Status == ReportResolved {
		return nil, ErrReportResolved
	}

	rep.Status = ReportResolved
	rep.Action = action
	rep.ResolvedBy = moderatorID
	s.reports.Update(func(prev []PostReport) []PostReport {
		for i := range prev {
			if prev[i].ID == reportID {
				prev[i] = rep
			}
		}
		return prev
	})

	if action == ActionRemove {
		if err := s.DeletePost(rep.PostID, moderatorID, true); err != nil && !errors.Is(err, ErrPostNotFound) {
			return nil, err
		}
	}
	return &rep, nil
}

func (s *Service) ListReports(status ReportStatus) []PostReport {
	var out []PostReport
	for _, r := range s.reports.Items() {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Service) reportByID(id string) (PostReport, bool) {
	for _, r := range s.reports.Items() {
		if r.ID == id {
			return r, true
		}
	}
	return PostReport{}, false
}
