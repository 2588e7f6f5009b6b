package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/imrishuroy/go-storefront/internal/users"
	"github.com/imrishuroy/go-storefront/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 12

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

type RegisterInput struct {
	Username string `json:"username" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is what refresh returns.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session is what login returns.
type Session struct {
	TokenPair
	User *users.User `json:"user"`
}

// Service registers and authenticates users and rotates their tokens.
type Service struct {
	users    users.Store
	tokens   *Tokens
	validate *validatorv10.Validate
	cost     int
	newID    func() string
}

func NewService(store users.Store, tokens *Tokens) *Service {
	return &Service{
		users:    store,
		tokens:   tokens,
		validate: validation.New(),
		cost:     BcryptCost,
		newID:    uuid.NewString,
	}
}

// Register creates a user. An email or username already in use fails with ErrUserExists.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*users.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := s.validate.Struct(in); err != nil {
		return nil, ErrMissingFields
	}
	if len(in.Password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	existing, err := s.users.FindByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, fmt.Errorf("register: hash password: %w", err)
	}
	u := &users.User{
		ID:           s.newID(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}
	return u, nil
}

// Login checks the credentials, issues a token pair and remembers the refresh token.
// Unknown email and wrong password fail the same way.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, ErrMissingCredentials
	}

	u, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &Session{TokenPair: *pair, User: u}, nil
}

// Refresh rotates both tokens. The presented token must be the one stored for the user.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrRefreshRequired
	}
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrRefreshExpired
		}
		if errors.Is(err, ErrNoSecret) {
			return nil, err
		}
		return nil, ErrInvalidRefresh
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if u == nil || u.RefreshToken != refreshToken {
		return nil, ErrInvalidRefresh
	}

	pair, err := s.issue(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return pair, nil
}

// Logout forgets the refresh token. An unknown token is not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrLogoutTokenRequired
	}
	u, err := s.users.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if u == nil {
		return nil
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, ""); err != nil && !errors.Is(err, users.ErrNotFound) {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Current returns the user behind a verified access token.
func (s *Service) Current(ctx context.Context, userID string) (*users.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) issue(ctx context.Context, u *users.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccess(u)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(u)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, refresh); err != nil {
		return nil, err
	}
	u.RefreshToken = refresh
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
