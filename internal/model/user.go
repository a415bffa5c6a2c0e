package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a stored Identity. PasswordHash never leaves the service layer; use
// Public for anything that is serialized.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Image        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Image    string `json:"image" binding:"omitempty,url,max=2048"`
}

type EditUserRequest struct {
	ID    string `json:"id" binding:"required,uuid"`
	Name  string `json:"name" binding:"required,max=100"`
	Email string `json:"email" binding:"required,email,max=254"`
	Image string `json:"image" binding:"omitempty,url,max=2048"`
}

type DeleteUserRequest struct {
	ID string `json:"id" binding:"required,uuid"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Email string `json:"email" binding:"required,email,max=254"`
	Image string `json:"image" binding:"omitempty,url,max=2048"`
}

type UserResponse struct {
	User PublicUser `json:"user"`
}

type UserListResponse struct {
	Users []PublicUser `json:"users"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
