package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/imrishuroy/go-storefront/internal/users"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// ErrNoSecret is returned when a token is issued or checked without a signing secret.
var ErrNoSecret = errors.New("jwt secret not configured")

// Claims carried by access and refresh tokens. Refresh tokens omit the username.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 tokens. Access and refresh tokens use separate secrets.
type Tokens struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	nowFunc       func() time.Time
}

func NewTokens(accessSecret, refreshSecret string) *Tokens {
	return &Tokens{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		AccessTTL:     DefaultAccessTTL,
		RefreshTTL:    DefaultRefreshTTL,
		nowFunc:       time.Now,
	}
}

func (t *Tokens) IssueAccess(u *users.User) (string, error) {
	return t.sign(t.AccessSecret, Claims{UserID: u.ID, Username: u.Username}, t.AccessTTL)
}

// IssueRefresh returns a refresh token with a unique id so consecutive tokens always differ.
func (t *Tokens) IssueRefresh(u *users.User) (string, error) {
	c := Claims{UserID: u.ID}
	c.ID = uuid.NewString()
	return t.sign(t.RefreshSecret, c, t.RefreshTTL)
}

// ParseAccess verifies an access token. Expiry is reported as jwt.ErrTokenExpired.
func (t *Tokens) ParseAccess(token string) (*Claims, error) {
	return t.parse(t.AccessSecret, token)
}

func (t *Tokens) ParseRefresh(token string) (*Claims, error) {
	return t.parse(t.RefreshSecret, token)
}

func (t *Tokens) sign(secret []byte, c Claims, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", ErrNoSecret
	}
	now := t.nowFunc()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *Tokens) parse(secret []byte, token string) (*Claims, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	var c Claims
	_, err := jwt.ParseWithClaims(token, &c, func(tok *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.nowFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if c.UserID == "" {
		return nil, errors.New("token has no user id")
	}
	return &c, nil
}
