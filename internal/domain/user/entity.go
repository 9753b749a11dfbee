package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyName    = errors.New("user name cannot be empty")
	ErrInvalidEmail = errors.New("invalid email address")
)

type User struct {
	id        uuid.UUID
	name      string
	email     string
	createdAt time.Time
}

func NewUser(name, email string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	return &User{id: uuid.New(), name: name, email: email}, nil
}

func Reconstruct(id uuid.UUID, name, email string, createdAt time.Time) *User {
	return &User{id: id, name: name, email: email, createdAt: createdAt}
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) Name() string         { return u.name }
func (u *User) Email() string        { return u.email }
func (u *User) CreatedAt() time.Time { return u.createdAt }
