package user

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// User is the account entity mirrored through the collection store. Points is
// the cumulative XP total increased when a student completes an MCQ exam.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Role         Role      `json:"role"`
	Points       int       `json:"points"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) EntityID() string { return u.ID }

// Public strips credentials before a user record leaves the API.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
