package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"campusDelivery/internal/apperr"
	"campusDelivery/internal/auth"
	"campusDelivery/internal/config"
	"campusDelivery/models"
	"campusDelivery/repository"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
	maxPasswordLen = 72 // bytes; bcrypt rejects longer input
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Token is an issued bearer token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UserService owns registration, login and identity resolution.
type UserService struct {
	users    repository.UserRepositoryI
	identity config.IdentityConfig
	auth     config.AuthConfig
	emailRe  *regexp.Regexp
	now      func() time.Time
}

func NewUserService(users repository.UserRepositoryI, identity config.IdentityConfig, authCfg config.AuthConfig) *UserService {
	domain := strings.ToLower(strings.TrimSpace(identity.EmailDomain))
	return &UserService{
		users:    users,
		identity: identity,
		auth:     authCfg,
		emailRe:  regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@` + regexp.QuoteMeta(domain) + `$`),
		now:      time.Now,
	}
}

// ValidEmail reports whether email belongs to the institutional domain.
func (s *UserService) ValidEmail(email string) bool {
	return s.emailRe.MatchString(email)
}

// Register validates the input and creates a user with the starting balance.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, apperr.InvalidInput("username must be between %d and %d characters", minUsernameLen, maxUsernameLen)
	}
	// Measured in bytes: bcrypt's limit is on the encoded input, so a
	// multi-byte password reaches it with fewer characters.
	if n := len(in.Password); n < minPasswordLen || n > maxPasswordLen {
		return nil, apperr.InvalidInput("password must be between %d and %d bytes", minPasswordLen, maxPasswordLen)
	}
	if !s.ValidEmail(email) {
		return nil, apperr.InvalidInput("email must be a valid %s email address", s.identity.EmailDomain)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	u, err := s.users.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Points:       s.identity.StartingPoints,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.duplicateError(ctx, username, email)
		}
		return nil, apperr.Internal("create user", err)
	}
	return u, nil
}

// duplicateError names the field that collided. The unique constraint is the
// authority; the lookups only pick the message.
func (s *UserService) duplicateError(ctx context.Context, username, email string) error {
	if u, err := s.users.GetByEmail(ctx, email); err == nil && u != nil {
		return apperr.Conflict("user with this email already exists")
	}
	if u, err := s.users.GetByUsername(ctx, username); err == nil && u != nil {
		return apperr.Conflict("username is already taken")
	}
	return apperr.Conflict("user already exists")
}

// Authenticate returns the user whose credentials match.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	if u == nil {
		return nil, apperr.Unauthenticated("incorrect email or password")
	}
	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return nil, apperr.Internal("check password", err)
	}
	if !ok {
		return nil, apperr.Unauthenticated("incorrect email or password")
	}
	return u, nil
}

// Login authenticates and issues a bearer token for the user's email.
func (s *UserService) Login(ctx context.Context, email, password string) (*Token, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	tok, exp, err := auth.IssueToken(s.auth.JWTSecret, u.Email, s.auth.TokenTTL, s.now())
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}
	return &Token{AccessToken: tok, TokenType: "bearer", ExpiresAt: exp.UTC()}, nil
}

// Resolve maps a verified token subject to its user.
func (s *UserService) Resolve(ctx context.Context, email string) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	if u == nil {
		return nil, apperr.Unauthenticated("could not validate credentials")
	}
	return u, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
