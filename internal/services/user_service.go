package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/markdave123-py/orthoscan/internal/core"
	"github.com/markdave123-py/orthoscan/internal/models"
)

var (
	ErrInvalidUser        = errors.New("invalid user payload")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

const minPasswordLen = 8

type UserService struct {
	db   core.DbClient
	cost int
}

func NewUserService(db core.DbClient) *UserService {
	return &UserService{db: db, cost: bcrypt.DefaultCost}
}

// Register creates a user with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: bad email", ErrInvalidUser)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password shorter than %d characters", ErrInvalidUser, minPasswordLen)
	}

	_, err := s.db.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, core.ErrNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}

	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.CreateUser(ctx, u); err != nil {
		// Lost a race with a concurrent signup.
		if errors.Is(err, core.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Authenticate returns the user when password matches. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.db.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
