package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"eduhub/internal/store"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionInvalid     = errors.New("session invalid or expired")
)

type session struct {
	UserID    string
	ExpiresAt time.Time
}

// Service owns account management and session authentication. Sessions live
// in process memory; the user records themselves sync through the store.
type Service struct {
	users      *store.Collection[User]
	bcryptCost int
	sessionTTL time.Duration

	mu       sync.Mutex
	sessions map[string]session
}

func NewService(users *store.Collection[User], sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
	return &Service{
		users:      users,
		bcryptCost: bcrypt.DefaultCost,
		sessionTTL: sessionTTL,
		sessions:   map[string]session{},
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

func (s *Service) Register(_ context.Context, in RegisterInput) (*User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" || len(in.Password) < 8 {
		return nil, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidInput
	}
	role := in.Role
	if role == "" {
		role = RoleStudent
	}
	switch role {
	case RoleAdmin, RoleTeacher, RoleStudent:
	default:
		return nil, ErrInvalidInput
	}

	if _, ok := s.findByEmail(email); ok {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	s.users.Update(func(prev []User) []User {
		return append(prev, u)
	})
	return &u, nil
}

// Login verifies credentials and mints a session token.
func (s *Service) Login(_ context.Context, email, password string) (string, *User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, ok := s.findByEmail(email)
	if !ok || !u.IsActive {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return "", nil, fmt.Errorf("mint session token: %w", err)
	}
	s.mu.Lock()
	s.sessions[token] = session{UserID: u.ID, ExpiresAt: time.Now().Add(s.sessionTTL)}
	s.mu.Unlock()
	return token, &u, nil
}

func (s *Service) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Resolve maps a session token back to its user.
func (s *Service) Resolve(token string) (*User, error) {
	s.mu.Lock()
	sess, ok := s.sessions[token]
	if ok && time.Now().After(sess.ExpiresAt) {
		delete(s.sessions, token)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionInvalid
	}

	u, found := s.Get(sess.UserID)
	if !found || !u.IsActive {
		return nil, ErrSessionInvalid
	}
	return &u, nil
}

func (s *Service) Get(id string) (User, bool) {
	for _, u := range s.users.Items() {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

func (s *Service) List() []User {
	items := s.users.Items()
	out := make([]User, 0, len(items))
	for _, u := range items {
		out = append(out, u.Public())
	}
	return out
}

// AwardPoints adds pts to the user's cumulative XP total. This is an
// independent write with no compensating transaction; see the exam service.
func (s *Service) AwardPoints(id string, pts int) error {
	if _, ok := s.Get(id); !ok {
		return ErrUserNotFound
	}
	s.users.Update(func(prev []User) []User {
		for i := range prev {
			if prev[i].ID == id {
				prev[i].Points += pts
			}
		}
		return prev
	})
	return nil
}

func (s *Service) SetActive(id string, active bool) error {
	if _, ok := s.Get(id); !ok {
		return ErrUserNotFound
	}
	s.users.Update(func(prev []User) []User {
		for i := range prev {
			if prev[i].ID == id {
				prev[i].IsActive = active
			}
		}
		return prev
	})
	return nil
}

func (s *Service) findByEmail(email string) (User, bool) {
	for _, u := range s.users.Items() {
		if u.Email == email {
			return u, true
		}
	}
	return User{}, false
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
