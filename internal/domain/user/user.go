package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	ImageURL     string    `json:"imageUrl"`
	PlaceIDs     []string  `json:"places"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("email already in use")
)

// SignUpRequest is bound from the multipart form; the avatar image is
// handled separately by the handler.
type SignUpRequest struct {
	Name     string `form:"name" binding:"required,min=1,max=120"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func NewFromSignUp(req SignUpRequest, passwordHash, imageURL string) User {
	now := time.Now().UTC()

	return User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		ImageURL:     imageURL,
		PlaceIDs:     []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
