package place

import (
	"errors"
	"time"

	"github.com/placehub/placehub/internal/geocode"
)

type Place struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Address     string              `json:"address"`
	Location    geocode.Coordinates `json:"location"`
	ImageURL    string              `json:"imageUrl"`
	OwnerID     string              `json:"creator"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

var (
	ErrNotFound = errors.New("place not found")
	// ErrNotOwner means a valid identity tried to touch someone
	// else's place.
	ErrNotOwner = errors.New("not the owner of this place")
)

// CreatePlaceRequest is bound from the multipart form; the image file
// itself is handled separately by the handler.
type CreatePlaceRequest struct {
	Title       string `form:"title" binding:"required,min=1,max=120"`
	Description string `form:"description" binding:"required,min=5,max=1000"`
	Address     string `form:"address" binding:"required,min=1,max=300"`
}

type UpdatePlaceRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=120"`
	Description string `json:"description" binding:"required,min=5,max=1000"`
	Address     string `json:"address" binding:"required,min=1,max=300"`
}
