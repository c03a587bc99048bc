package user

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"interprep/pkg/generator"
)

type ServiceInterface interface {
	Register(username, email, password string) (*User, error)
	Login(username, password string) (*User, error)
	Get(id string) (*User, error)
}

type Service struct {
	Repo Repository
	Now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

func (s *Service) Register(username, email, password string) (*User, error) {
	if err := s.ensureFree(username, email); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.Now().UTC()
	userID, err := generator.NewID(now)
	if err != nil {
		return nil, fmt.Errorf("generating user id: %w", err)
	}

	user := &User{
		ID:        userID,
		Username:  username,
		Email:     email,
		Password:  string(hashedPassword),
		CreatedAt: now,
		IsActive:  true,
	}

	if err := s.Repo.Create(user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) ensureFree(username, email string) error {
	_, err := s.Repo.FindByUsername(username)
	switch {
	case err == nil:
		return ErrUsernameTaken
	case !errors.Is(err, ErrNotFound):
		return err
	}

	_, err = s.Repo.FindByEmail(email)
	switch {
	case err == nil:
		return ErrEmailTaken
	case !errors.Is(err, ErrNotFound):
		return err
	}
	return nil
}

func (s *Service) Login(username, password string) (*User, error) {
	user, err := s.Repo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.Now().UTC()
	if err := s.Repo.UpdateLastLogin(user.ID, now); err != nil {
		return nil, fmt.Errorf("updating last login: %w", err)
	}
	user.LastLogin = &now

	return user, nil
}

func (s *Service) Get(id string) (*User, error) {
	return s.Repo.FindByID(id)
}
