package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/userhub/backend/internal/model"
	"github.com/userhub/backend/internal/redact"
)

// UserService holds identity CRUD for the admin dashboard and the user's own
// profile. It never changes a role.
type UserService struct {
	repo   userRepo
	hasher PasswordHasher
	log    logrus.FieldLogger
}

func NewUserService(repo userRepo, hasher PasswordHasher, log logrus.FieldLogger) *UserService {
	return &UserService{repo: repo, hasher: hasher, log: log}
}

// Dashboard lists role=user identities matching search. An empty result is
// reported as ErrNotFound.
func (s *UserService) Dashboard(ctx context.Context, search string) ([]model.User, error) {
	users, err := s.repo.ListUsers(ctx, model.RoleUser, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return users, nil
}

func (s *UserService) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	user, err := newIdentity(s.hasher, req.Name, req.Email, req.Password, req.Image, model.RoleUser)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, mapStoreError(err)
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID.String(), "email": redact.Email(user.Email)}).Info("user created")
	return user, nil
}

func (s *UserService) EditUser(ctx context.Context, req model.EditUserRequest) (*model.User, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, &ValidationError{Messages: []string{"id must be a valid UUID"}}
	}
	return s.update(ctx, id, model.RoleUser, req.Name, req.Email, req.Image)
}

func (s *UserService) DeleteUser(ctx context.Context, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return &ValidationError{Messages: []string{"id must be a valid UUID"}}
	}
	if err := s.repo.DeleteUser(ctx, id, model.RoleUser); err != nil {
		return mapStoreError(err)
	}
	s.log.WithField("user_id", id.String()).Info("user deleted")
	return nil
}

// UpdateProfile edits the caller's own identity.
func (s *UserService) UpdateProfile(ctx context.Context, caller model.PublicUser, req model.UpdateProfileRequest) (*model.User, error) {
	return s.update(ctx, caller.ID, caller.Role, req.Name, req.Email, req.Image)
}

func (s *UserService) update(ctx context.Context, id uuid.UUID, role model.Role, name, email, image string) (*model.User, error) {
	name, email, image = strings.TrimSpace(name), normalizeEmail(email), strings.TrimSpace(image)
	if msgs := validateProfile(name, image); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	user := &model.User{ID: id, Role: role, Name: name, Email: email, Image: image}
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, mapStoreError(err)
	}
	return user, nil
}

// newIdentity validates and hashes everything before the caller touches the
// store, so a rejected input never mutates anything.
func newIdentity(hasher PasswordHasher, name, email, password, image string, role model.Role) (*model.User, error) {
	name, email, image = strings.TrimSpace(name), normalizeEmail(email), strings.TrimSpace(image)

	msgs := validateProfile(name, image)
	if email == "" {
		msgs = append(msgs, "email is required")
	}
	if len(password) < 8 {
		msgs = append(msgs, "password must be at least 8 characters")
	}
	if len(password) > 72 {
		msgs = append(msgs, "password must be at most 72 bytes")
	}
	if len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	return &model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Image:        image,
	}, nil
}

func validateProfile(name, image string) []string {
	var msgs []string
	if name == "" {
		msgs = append(msgs, "name is required")
	}
	if image != "" {
		u, err := url.Parse(image)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			msgs = append(msgs, "image must be an http(s) URL")
		}
	}
	return msgs
}
