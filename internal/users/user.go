package users

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicate is returned when the email or username is already taken.
	ErrDuplicate = errors.New("user already exists")
	// ErrNotFound is returned by updates of an unknown user.
	ErrNotFound = errors.New("user not found")
)

// User is an account. The password hash and refresh token never leave the service.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password"`
	RefreshToken string    `json:"-" bson:"refreshToken,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Store persists users. Finders return (nil, nil) when nothing matches.
type Store interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error)
	FindByRefreshToken(ctx context.Context, token string) (*User, error)
	// SetRefreshToken stores token for the user; an empty token clears it.
	SetRefreshToken(ctx context.Context, id, token string) error
}
