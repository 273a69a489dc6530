package content

import (
	"errors"
	"time"
)

var ErrInvalidContent = errors.New("invalid content")

// ContentType tags what a study-content record points at. The tag is
// explicit on every record; consumers must never infer the kind from which
// fields happen to be populated.
type ContentType string

const (
	TypePDF   ContentType = "pdf"
	TypeVideo ContentType = "video"
	TypeLink  ContentType = "link"
	TypeNote  ContentType = "note"
)

func (t ContentType) Valid() bool {
	switch t {
	case TypePDF, TypeVideo, TypeLink, TypeNote:
		return true
	}
	return false
}

// Folder groups exams and study content into a browsable tree. ParentID is
// empty for top-level folders.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required"`
	ParentID  string    `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (f Folder) EntityID() string { return f.ID }

type StudyContent struct {
	ID          string      `json:"id"`
	FolderID    string      `json:"folderId" validate:"required"`
	Title       string      `json:"title" validate:"required"`
	Type        ContentType `json:"type"`
	URL         string      `json:"url,omitempty"`
	Body        string      `json:"body,omitempty"`
	CreatedBy   string      `json:"createdBy,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (c StudyContent) EntityID() string { return c.ID }

type BlogPost struct {
	ID         string    `json:"id"`
	Title      string    `json:"title" validate:"required"`
	Body       string    `json:"body" validate:"required"`
	CoverImage string    `json:"coverImage,omitempty"`
	AuthorID   string    `json:"authorId"`
	Published  bool      `json:"published"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (p BlogPost) EntityID() string { return p.ID }
