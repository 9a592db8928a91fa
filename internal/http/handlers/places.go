package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/placehub/placehub/internal/cache"
	"github.com/placehub/placehub/internal/config"
	"github.com/placehub/placehub/internal/domain/place"
	"github.com/placehub/placehub/internal/domain/user"
	"github.com/placehub/placehub/internal/geocode"
	"github.com/placehub/placehub/internal/http/middlewares"
	"github.com/placehub/placehub/internal/storage"
)

type PlacesRepository interface {
	List(ctx context.Context) ([]place.Place, error)
	ListByOwner(ctx context.Context, ownerID string) ([]place.Place, error)
	GetByID(ctx context.Context, id string) (place.Place, error)
	Create(ctx context.Context, p place.Place) error
	Update(ctx context.Context, id, title, description, address string, location geocode.Coordinates) (place.Place, error)
	Delete(ctx context.Context, id string) error
}

type AddressResolver interface {
	Resolve(ctx context.Context, address string) (geocode.Coordinates, string, error)
}

type ImageStore interface {
	Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error)
}

// ImageReleaser accepts refs for best-effort background removal.
type ImageReleaser interface {
	Enqueue(ref string)
}

const placesListCacheKey = "places:list:v1"

type PlacesHandler struct {
	repo     PlacesRepository
	resolver AddressResolver
	images   ImageStore
	cleaner  ImageReleaser
	cache    cache.Store
}

func NewPlacesHandler(repo PlacesRepository, resolver AddressResolver, images ImageStore, cleaner ImageReleaser, c cache.Store) *PlacesHandler {
	return &PlacesHandler{
		repo:     repo,
		resolver: resolver,
		images:   images,
		cleaner:  cleaner,
		cache:    c,
	}
}

func (h *PlacesHandler) invalidateList(ctx context.Context) {
	if h.cache != nil {
		h.cache.Delete(ctx, placesListCacheKey)
	}
}

func (h *PlacesHandler) ListPlaces(ctx *gin.Context) {
	if h.cache != nil {
		if b, ok := h.cache.Get(ctx.Request.Context(), placesListCacheKey); ok {
			RespondDataWithETag(ctx, http.StatusOK, b)
			return
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	places, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Fetching places failed, please try again.")
		return
	}

	body, err := json.Marshal(gin.H{"places": places})

	if err != nil {
		RespondInternal(ctx, "Fetching places failed, please try again.")
		return
	}

	if h.cache != nil {
		h.cache.Set(ctx.Request.Context(), placesListCacheKey, body)
	}

	RespondDataWithETag(ctx, http.StatusOK, body)
}

// ListPlacesByUser answers 404 for a user with zero places. Unusual,
// but the frontend depends on it.
func (h *PlacesHandler) ListPlacesByUser(ctx *gin.Context) {
	userID := ctx.Param("uid")

	if uuid.Validate(userID) != nil {
		RespondNotFound(ctx, "Could not find a place(s) for the provided user ID.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	places, err := h.repo.ListByOwner(cctx, userID)

	if err != nil {
		switch {
		case errors.Is(err, place.ErrNotFound), errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "Could not find a place(s) for the provided user ID.")
		default:
			RespondInternal(ctx, "Something went wrong, could not find user.")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"places": places})
}

func (h *PlacesHandler) GetPlaceByID(ctx *gin.Context) {
	placeID := ctx.Param("pid")

	if uuid.Validate(placeID) != nil {
		RespondNotFound(ctx, "Could not find a place for the provided ID.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	p, err := h.repo.GetByID(cctx, placeID)

	if err != nil {
		if errors.Is(err, place.ErrNotFound) {
			RespondNotFound(ctx, "Could not find a place for the provided ID.")
			return
		}
		RespondInternal(ctx, "Something went wrong, could not find a place.")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"place": p})
}

func (h *PlacesHandler) CreatePlace(ctx *gin.Context) {
	var req place.CreatePlaceRequest

	if !BindForm(ctx, &req) {
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondAuthFailed(ctx, "Authentication failed.")
		return
	}

	fileHeader, err := ctx.FormFile("image")

	if err != nil {
		RespondUnprocessable(ctx, invalidInputMessage)
		return
	}

	// geocode + two persisted writes; give this one more headroom
	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	location, resolvedAddress, err := h.resolver.Resolve(cctx, req.Address)

	if err != nil {
		if errors.Is(err, geocode.ErrAddressNotFound) {
			RespondUnprocessable(ctx, "Could not find location for entered address.")
			return
		}
		RespondInternal(ctx, "Could not resolve address, please try again.")
		return
	}

	file, err := fileHeader.Open()

	if err != nil {
		RespondInternal(ctx, "Creating place failed, please try again.")
		return
	}

	defer file.Close()

	imageURL, err := h.images.Save(cctx, fileHeader.Filename, file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))

	if err != nil {
		// only the caller can fix a bad content type; anything else is
		// a storage failure on our side
		if errors.Is(err, storage.ErrUnsupportedType) {
			RespondUnprocessable(ctx, invalidInputMessage)
			return
		}
		RespondInternal(ctx, "Creating place failed, please try again.")
		return
	}

	p := place.NewFromCreateRequest(req, userID, imageURL, resolvedAddress, location)

	err = h.repo.Create(cctx, p)

	if err != nil {
		// the stored image has no place row to belong to anymore
		if h.cleaner != nil {
			h.cleaner.Enqueue(imageURL)
		}

		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "Could not find user for provided ID.")
			return
		}

		RespondInternal(ctx, "Creating place failed, please try again.")
		return
	}

	h.invalidateList(cctx)

	ctx.JSON(http.StatusCreated, gin.H{"place": p})
}

func (h *PlacesHandler) UpdatePlace(ctx *gin.Context) {
	placeID := ctx.Param("pid")

	if uuid.Validate(placeID) != nil {
		RespondNotFound(ctx, "Could not find a place for the provided ID.")
		return
	}

	var req place.UpdatePlaceRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondAuthFailed(ctx, "Authentication failed.")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	existing, err := h.repo.GetByID(cctx, placeID)

	if err != nil {
		if errors.Is(err, place.ErrNotFound) {
			RespondNotFound(ctx, "Could not find a place for the provided ID.")
			return
		}
		RespondInternal(ctx, "Something went wrong, could not find a place.")
		return
	}

	// only the owner may edit
	if existing.OwnerID != userID {
		RespondNotAuthorized(ctx, "You are not authorized to edit this place.")
		return
	}

	location, resolvedAddress, err := h.resolver.Resolve(cctx, req.Address)

	if err != nil {
		if errors.Is(err, geocode.ErrAddressNotFound) {
			RespondUnprocessable(ctx, "Could not find location for entered address.")
			return
		}
		RespondInternal(ctx, "Could not resolve address, please try again.")
		return
	}

	updated, err := h.repo.Update(cctx, placeID, req.Title, req.Description, resolvedAddress, location)

	if err != nil {
		if errors.Is(err, place.ErrNotFound) {
			RespondNotFound(ctx, "Could not find a place for the provided ID.")
			return
		}
		RespondInternal(ctx, "Something went wrong, could not update place.")
		return
	}

	h.invalidateList(cctx)

	ctx.JSON(http.StatusOK, gin.H{"place": updated})
}

func (h *PlacesHandler) DeletePlace(ctx *gin.Context) {
	placeID := ctx.Param("pid")

	if uuid.Validate(placeID) != nil {
		RespondNotFound(ctx, "Could not find place for this ID.")
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondAuthFailed(ctx, "Authentication failed.")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	existing, err := h.repo.GetByID(cctx, placeID)

	if err != nil {
		if errors.Is(err, place.ErrNotFound) {
			RespondNotFound(ctx, "Could not find place for this ID.")
			return
		}
		RespondInternal(ctx, "Something went wrong, could not find a place.")
		return
	}

	// only the owner may delete
	if existing.OwnerID != userID {
		RespondNotAuthorized(ctx, "You are not authorized to delete this place.")
		return
	}

	err = h.repo.Delete(cctx, placeID)

	if err != nil {
		// a concurrent delete may have won the race
		if errors.Is(err, place.ErrNotFound) {
			RespondNotFound(ctx, "Could not find place for this ID.")
			return
		}
		RespondInternal(ctx, "Something went wrong, could not delete place.")
		return
	}

	// image release is not part of the consistency contract; failures
	// are logged by the cleaner and never surfaced here
	if h.cleaner != nil {
		h.cleaner.Enqueue(existing.ImageURL)
	}

	h.invalidateList(cctx)

	ctx.JSON(http.StatusOK, gin.H{"message": "Deleted place."})
}
