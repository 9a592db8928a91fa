package place

import (
	"time"

	"github.com/google/uuid"

	"github.com/placehub/placehub/internal/geocode"
)

func NewFromCreateRequest(req CreatePlaceRequest, ownerID, imageURL, resolvedAddress string, location geocode.Coordinates) Place {
	now := time.Now().UTC()

	return Place{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Address:     resolvedAddress,
		Location:    location,
		ImageURL:    imageURL,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
