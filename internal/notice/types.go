package notice

import "time"

// Notice is an announcement pushed to every student. Images hold upload
// references, not inline bytes.
type Notice struct {
	ID        string    `json:"id"`
	Title     string    `json:"title" validate:"required"`
	Body      string    `json:"body" validate:"required"`
	Images    []string  `json:"images,omitempty"`
	Pinned    bool      `json:"pinned"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func (n Notice) EntityID() string { return n.ID }

type AppealStatus string

const (
	AppealOpen     AppealStatus = "OPEN"
	AppealResolved AppealStatus = "RESOLVED"
)

type AppealReply struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Appeal is a student-raised complaint or request. Staff reply in a thread
// and eventually mark it resolved; the thread stays readable afterwards.
type Appeal struct {
	ID         string        `json:"id"`
	StudentID  string        `json:"studentId"`
	Subject    string        `json:"subject" validate:"required"`
	Body       string        `json:"body" validate:"required"`
	Images     []string      `json:"images,omitempty"`
	Status     AppealStatus  `json:"status"`
	Replies    []AppealReply `json:"replies,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	ResolvedBy string        `json:"resolvedBy,omitempty"`
	ResolvedAt *time.Time    `json:"resolvedAt,omitempty"`
}

func (a Appeal) EntityID() string { return a.ID }
