package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/Terml/ERP-system/internal/config"
	"github.com/Terml/ERP-system/internal/middleware"
	"github.com/Terml/ERP-system/internal/shared/cache"
	"github.com/Terml/ERP-system/internal/workshop/entity"
	"github.com/Terml/ERP-system/internal/workshop/repository"
)

// ErrInvalidCredentials login or password did not match.
var ErrInvalidCredentials = errors.New("invalid login or password")

// UserService workshop accounts and authentication.
type UserService struct {
	repos   *repository.Repositories
	effects *SideEffects
	jwtCfg  config.JWTConfig
}

func NewUserService(repos *repository.Repositories, effects *SideEffects, jwtCfg config.JWTConfig) *UserService {
	return &UserService{repos: repos, effects: effects, jwtCfg: jwtCfg}
}

type UserInput struct {
	Login    string `json:"login"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

var validRoles = map[string]bool{
	entity.RoleAdmin:      true,
	entity.RoleManager:    true,
	entity.RoleDispatcher: true,
	entity.RoleMaster:     true,
	entity.RoleOTK:        true,
}

// Login verifies credentials and issues a token.
func (s *UserService) Login(ctx context.Context, login, password string) (*entity.User, string, error) {
	user, err := s.repos.User.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := middleware.GenerateToken(
		s.jwtCfg.Secret, s.jwtCfg.Issuer, s.jwtCfg.AccessTokenExpire,
		user.ID, user.Login, user.Name, user.Role,
	)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) List(ctx context.Context, page, pageSize int, role string) ([]entity.User, int64, error) {
	return s.repos.User.FindAll(ctx, page, pageSize, role)
}

func (s *UserService) Get(ctx context.Context, id uint) (*entity.User, error) {
	return s.repos.User.FindByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, input UserInput) (*entity.User, error) {
	if input.Login == "" {
		return nil, &ValidationError{Field: "login", Reason: "required"}
	}
	if len(input.Password) < 6 {
		return nil, &ValidationError{Field: "password", Reason: "must be at least 6 characters"}
	}
	if input.Role == "" {
		input.Role = entity.RoleMaster
	}
	if !validRoles[input.Role] {
		return nil, &ValidationError{Field: "role", Reason: "unknown role " + input.Role}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		Login:    input.Login,
		Name:     input.Name,
		Password: string(hash),
		Role:     input.Role,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, err
	}
	s.effects.Flush(ctx, cache.TagUsers, cache.TagReference)
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uint, input UserInput) (*entity.User, error) {
	user, err := s.repos.User.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Role != "" {
		if !validRoles[input.Role] {
			return nil, &ValidationError{Field: "role", Reason: "unknown role " + input.Role}
		}
		user.Role = input.Role
	}
	if input.Password != "" {
		if len(input.Password) < 6 {
			return nil, &ValidationError{Field: "password", Reason: "must be at least 6 characters"}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.Password = string(hash)
	}
	if err := s.repos.User.Update(ctx, user); err != nil {
		return nil, err
	}
	s.effects.Flush(ctx, cache.TagUsers, cache.TagReference)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repos.User.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repos.User.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.effects.Flush(ctx, cache.TagUsers, cache.TagReference)
	return nil
}
