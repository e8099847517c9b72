// Package auth issues and verifies the signed admin session carried in the
// admin_session cookie.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	CookieName = "admin_session"
	issuer     = "portfolio-service"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
)

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Session is a freshly issued token and the moment it stops being valid.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

type Service interface {
	Login(ctx context.Context, username, password string) (Session, error)
	Verify(token string) (*Claims, error)
	TTL() time.Duration
}

// JWTService checks credentials against a single configured admin account
// and signs sessions with HS256.
type JWTService struct {
	username string
	password []byte
	hashed   bool
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewJWTService accepts the admin password either in plain text or as a
// bcrypt hash.
func NewJWTService(username, password, secret string, ttl time.Duration) *JWTService {
	_, costErr := bcrypt.Cost([]byte(password))
	return &JWTService{
		username: username,
		password: []byte(password),
		hashed:   costErr == nil,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

func (s *JWTService) Login(_ context.Context, username, password string) (Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := s.checkPassword(password)
	if !userOK || !passOK {
		return Session{}, ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("failed to sign session: %w", err)
	}

	return Session{Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *JWTService) checkPassword(password string) bool {
	if s.hashed {
		return bcrypt.CompareHashAndPassword(s.password, []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), s.password) == 1
}

// Verify rejects tokens that are malformed, signed with another key or
// algorithm, issued by someone else, or expired.
func (s *JWTService) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !parsed.Valid || claims.Username != s.username {
		return nil, ErrInvalidSession
	}

	return claims, nil
}
