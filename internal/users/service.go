package users

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/banglalekha/go-services/internal/models"
)

var (
	ErrEmailTaken     = errors.New("user already exists with the email")
	ErrBadCredentials = errors.New("bad credentials")
	ErrInactive       = errors.New("account is inactive")
)

// Service encapsulates user-related business logic
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// Register creates a new account with a bcrypt-hashed password. New accounts
// start inactive until the email is verified.
func (s *Service) Register(ctx context.Context, email, password string, username *string) (*models.User, error) {
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:    email,
		Username: username,
		Password: string(hashed),
		Role:     models.RoleUser,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks the password for the account found by email or username.
func (s *Service) Login(ctx context.Context, email, username, password string) (*models.User, error) {
	var (
		u   *models.User
		err error
	)
	if email != "" {
		u, err = s.repo.GetByEmail(ctx, email)
	} else {
		u, err = s.repo.GetByUsername(ctx, username)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// VerifyEmail marks the account verified and activates it.
func (s *Service) VerifyEmail(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsEmailVerified {
		return u, nil
	}
	u.IsEmailVerified = true
	u.IsActive = true
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID returns the account.
func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetPublicProfile returns an account only when its owner shares it.
func (s *Service) GetPublicProfile(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsProfilePublic {
		return nil, ErrNotFound
	}
	return u, nil
}
