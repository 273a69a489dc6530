package feed

import "time"

// SocialPost is a student-visible feed entry. LikedBy records user IDs so a
// like is idempotent per user; LikeCount is derived on the way out.
type SocialPost struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	Images    []string  `json:"images,omitempty"`
	LikedBy   []string  `json:"likedBy,omitempty"`
	LikeCount int       `json:"likeCount"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p SocialPost) EntityID() string { return p.ID }

type ReportStatus string

const (
	ReportOpen     ReportStatus = "OPEN"
	ReportResolved ReportStatus = "RESOLVED"
)

// ReportAction is what the moderator decided: dismiss keeps the post,
// remove takes it down.
type ReportAction string

const (
	ActionDismiss ReportAction = "DISMISS"
	ActionRemove  ReportAction = "REMOVE"
)

type PostReport struct {
	ID         string       `json:"id"`
	PostID     string       `json:"postId"`
	ReporterID string       `json:"reporterId"`
	Reason     string       `json:"reason"`
	Status     ReportStatus `json:"status"`
	Action     ReportAction `json:"action,omitempty"`
	ResolvedBy string       `json:"resolvedBy,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
}

func (r PostReport) EntityID() string { return r.ID }
