package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/placehub/placehub/internal/auth"
	"github.com/placehub/placehub/internal/cache"
	"github.com/placehub/placehub/internal/domain/place"
	"github.com/placehub/placehub/internal/domain/user"
	"github.com/placehub/placehub/internal/geocode"
	"github.com/placehub/placehub/internal/http/handlers"
	"github.com/placehub/placehub/internal/http/middlewares"
	"github.com/placehub/placehub/internal/storage"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

func newUUID() string {
	return uuid.NewString()
}

// Fake repository implementation of the handlers.PlacesRepository interface

type fakePlacesRepo struct {
	listFn        func(ctx context.Context) ([]place.Place, error)
	listByOwnerFn func(ctx context.Context, ownerID string) ([]place.Place, error)
	getFn         func(ctx context.Context, id string) (place.Place, error)
	createFn      func(ctx context.Context, p place.Place) error
	updateFn      func(ctx context.Context, id, title, description, address string, location geocode.Coordinates) (place.Place, error)
	deleteFn      func(ctx context.Context, id string) error
}

func (f *fakePlacesRepo) List(ctx context.Context) ([]place.Place, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}

	return []place.Place{}, nil
}

func (f *fakePlacesRepo) ListByOwner(ctx context.Context, ownerID string) ([]place.Place, error) {
	if f.listByOwnerFn != nil {
		return f.listByOwnerFn(ctx, ownerID)
	}

	return []place.Place{}, nil
}

func (f *fakePlacesRepo) GetByID(ctx context.Context, id string) (place.Place, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}

	return place.Place{}, nil
}

func (f *fakePlacesRepo) Create(ctx context.Context, p place.Place) error {
	if f.createFn != nil {
		return f.createFn(ctx, p)
	}

	return nil
}

func (f *fakePlacesRepo) Update(ctx context.Context, id, title, description, address string, location geocode.Coordinates) (place.Place, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, title, description, address, location)
	}

	return place.Place{}, nil
}

func (f *fakePlacesRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}

	return nil
}

// Fake geocoder

type fakeResolver struct {
	resolveFn func(ctx context.Context, address string) (geocode.Coordinates, string, error)
}

func (f *fakeResolver) Resolve(ctx context.Context, address string) (geocode.Coordinates, string, error) {
	if f.resolveFn != nil {
		return f.resolveFn(ctx, address)
	}

	return geocode.Coordinates{Lat: 40.7484405, Lng: -73.9878584}, address, nil
}

// Fake image store

type fakeImageStore struct {
	saveFn func(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error)
}

func (f *fakeImageStore) Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if f.saveFn != nil {
		return f.saveFn(ctx, filename, r, size, contentType)
	}

	return "uploads/images/" + filename, nil
}

// Fake cleaner records what the handler hands off for removal

type fakeCleaner struct {
	refs []string
}

func (f *fakeCleaner) Enqueue(ref string) {
	f.refs = append(f.refs, ref)
}

// Fake verifier so protected routes can be exercised through the real
// auth middleware

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f *fakeVerifier) VerifyToken(token string) (*auth.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.claims, nil
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func setupAuthedRouter(method, path string, h gin.HandlerFunc, userID string) *gin.Engine {
	r := gin.New()

	mw := middlewares.NewAuthMiddleware(&fakeVerifier{
		claims: &auth.Claims{UserID: userID, Email: "tester@example.com"},
	})

	r.Handle(method, path, mw.RequireAuth(), h)

	return r
}

// multipart form builder for the create-place and signup routes

func buildMultipartForm(t *testing.T, fields map[string]string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %q: %v", k, err)
		}
	}

	if withImage {
		fw, err := mw.CreateFormFile("image", "photo.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte("not-really-a-png")); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	return &buf, mw.FormDataContentType()
}

func samplePlace(ownerID string) place.Place {
	now := time.Now().UTC()

	return place.Place{
		ID:          newUUID(),
		Title:       "Empire State Building",
		Description: "One of the most famous sky scrapers in the world",
		Address:     "20 W 34th St, New York, NY 10001, USA",
		Location:    geocode.Coordinates{Lat: 40.7484405, Lng: -73.9878584},
		ImageURL:    "uploads/images/esb.png",
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// --- List places tests

func TestListPlacesHandler(t *testing.T) {
	ownerID := newUUID()

	tests := []struct {
		name           string
		repoSetUp      func(*fakePlacesRepo)
		wantStatusCode int
		wantCount      int
	}{
		{
			name: "success",
			repoSetUp: func(f *fakePlacesRepo) {
				f.listFn = func(ctx context.Context) ([]place.Place, error) {
					return []place.Place{samplePlace(ownerID), samplePlace(ownerID)}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      2,
		},
		{
			name: "empty_list_is_ok",
			repoSetUp: func(f *fakePlacesRepo) {
				f.listFn = func(ctx context.Context) ([]place.Place, error) {
					return []place.Place{}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      0,
		},
		{
			name: "repo_error",
			repoSetUp: func(f *fakePlacesRepo) {
				f.listFn = func(ctx context.Context) ([]place.Place, error) {
					return nil, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePlacesRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewPlacesHandler(repo, &fakeResolver{}, &fakeImageStore{}, &fakeCleaner{}, nil)

			r := setupRouter(http.MethodGet, "/api/places", h.ListPlaces)

			req := httptest.NewRequest(http.MethodGet, "/api/places", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode != http.StatusOK {
				return
			}

			var resp struct {
				Places []place.Place `json:"places"`
			}

			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}

			if len(resp.Places) != tt.wantCount {
				t.Fatalf("got %d places, want %d", len(resp.Places), tt.wantCount)
			}
		})
	}
}

func TestListPlacesServesFromCache(t *testing.T) {
	calls := 0

	repo := &fakePlacesRepo{
		listFn: func(ctx context.Context) ([]place.Place, error) {
			calls++
			return []place.Place{samplePlace(newUUID())}, nil
		},
	}

	h := handlers.NewPlacesHandler(repo, &fakeResolver{}, &fakeImageStore{}, &fakeCleaner{}, cache.New(time.Minute))

	r := setupRouter(http.MethodGet, "/api/places", h.ListPlaces)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/places", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, body=%s", i, w.Code, w.Body.String())
		}
	}

	if calls != 1 {
		t.Fatalf("repo hit %d times, want 1 (cached afterwards)", calls)
	}
}

func TestListPlacesETagNotModified(t *testing.T) {
	repo := &fakePlacesRepo{
		listFn: func(ctx context.Context) ([]place.Place, error) {
			return []place.Place{samplePlace(newUUID())}, nil
		},
	}

	h := handlers.NewPlacesHandler(repo, &fakeResolver{}, &fakeImageStore{}, &fakeCleaner{}, cache.New(time.Minute))

	r := setupRouter(http.MethodGet, "/api/places", h.ListPlaces)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/places", nil))

	etag := first.Header().Get("ETag")

	if etag == "" {
		t.Fatal("first response carries no ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/places", nil)
	req.Header.Set("If-None-Match", etag)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, req)

	if second.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want %d", second.Code, http.StatusNotModified)
	}
}

// --- List places by user tests

func TestListPlacesByUserHandler(t *testing.T) {
	ownerID := newUUID()

	tests := []struct {
		name           string
		userID         string
		repoSetUp      func(*fakePlacesRepo)
		wantStatusCode int
	}{
		{
			name:   "success",
			userID: ownerID,
			repoSetUp: func(f *fakePlacesRepo) {
				f.listByOwnerFn = func(ctx context.Context, id string) ([]place.Place, error) {
					if id != ownerID {
						return nil, errors.New("wrong owner id passed")
					}
					return []place.Place{samplePlace(ownerID)}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "malformed_user_id",
			userID:         "not-a-uuid",
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:   "unknown_user",
			userID: newUUID(),
			repoSetUp: func(f *fakePlacesRepo) {
				f.listByOwnerFn = func(ctx context.Context, id string) ([]place.Place, error) {
					return nil, user.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			// a real user with zero places still answers 404, the
			// frontend relies on it
			name:   "user_without_places",
			userID: ownerID,
			repoSetUp: func(f *fakePlacesRepo) {
				f.listByOwnerFn = func(ctx context.Context, id string) ([]place.Place, error) {
					return nil, place.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:   "repo_error",
			userID: ownerID,
			repoSetUp: func(f *fakePlacesRepo) {
				f.listByOwnerFn = func(ctx context.Context, id string) ([]place.Place, error) {
					return nil, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePlacesRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewPlacesHandler(repo, &fakeResolver{}, &fakeImageStore{}, &fakeCleaner{}, nil)

			r := setupRouter(http.MethodGet, "/api/places/user/:uid", h.ListPlacesByUser)

			req := httptest.NewRequest(http.MethodGet, "/api/places/user/"+tt.userID, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// --- Get place by ID tests

func TestGetPlaceByIDHandler(t *testing.T) {
	known := samplePlace(newUUID())

	tests := []struct {
		name           string
		placeID        string
		repoSetUp      func(*fakePlacesRepo)
		wantStatusCode int
	}{
		{
			name:    "success",
			placeID: known.ID,
			repoSetUp: func(f *fakePlacesRepo) {
				f.getFn = func(ctx context.Context, id string) (place.Place, error) {
					return known, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "malformed_place_id",
			placeID:        "abc123",
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:    "not_found",
			placeID: newUUID(),
			repoSetUp: func(f *fakePlacesRepo) {
				f.getFn = func(ctx context.Context, id string) (place.Place, error) {
					return place.Place{}, place.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:    "repo_error",
			placeID: newUUID(),
			repoSetUp: func(f *fakePlacesRepo) {
				f.getFn = func(ctx context.Context, id string) (place.Place, error) {
					return place.Place{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePlacesRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewPlacesHandler(repo, &fakeResolver{}, &fakeImageStore{}, &fakeCleaner{}, nil)

			r := setupRouter(http.MethodGet, "/api/places/:pid", h.GetPlaceByID)

			req := httptest.NewRequest(http.MethodGet, "/api/places/"+tt.placeID, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// --- Create place tests

func TestCreatePlaceHandler(t *testing.T) {
	ownerID := newUUID()

	validFields := map[string]string{
		"title":       "Empire State Building",
		"description": "One of the most famous sky scrapers in the world",
		"address":     "20 W 34th St, New York, NY 10001",
	}

	tests := []struct {
		name            string
		fields          map[string]string
		withImage       bool
		repoSetUp       func(*fakePlacesRepo)
		resolverSetUp   func(*fakeResolver)
		storeSetUp      func(*fakeImageStore)
		wantStatusCode  int
		wantCleanerRefs int
	}{
		{
			name:      "success",
			fields:    validFields,
			withImage: true,
			repoSetUp: func(f *fakePlacesRepo) {
				f.createFn = func(ctx context.Context, p place.Place) error {
					if p.OwnerID != ownerID {
						return errors.New("owner not taken from token identity")
					}
					if p.ID == "" {
						return errors.New("place has no id")
					}
					return nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "validation_error_short_description",
			fields: map[string]string{
				"title":       "Empire State Building",
				"description": "tiny",
				"address":     "20 W 34th St, New York, NY 10001",
			},
			withImage:      true,
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "missing_image",
			fields:         validFields,
			withImage:      false,
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:      "address_not_found",
			fields:    validFields,
			withImage: true,
			resolverSetUp: func(f *fakeResolver) {
				f.resolveFn = func(ctx context.Context, address string) (geocode.Coordinates, string, error) {
					return geocode.Coordinates{}, "", geocode.ErrAddressNotFound
				}
			},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:      "geocoder_unreachable",
			fields:    validFields,
			withImage: true,
			resolverSetUp: func(f *fakeResolver) {
				f.resolveFn = func(ctx context.Context, address string) (geocode.Coordinates, string, error) {
					return geocode.Coordinates{}, "", errors.New("connection refused")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name:      "unsupported_image_type",
			fields:    validFields,
			withImage: true,
			storeSetUp: func(f *fakeImageStore) {
				f.saveFn = func(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
					return "", storage.ErrUnsupportedType
				}
			},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:      "image_store_unavailable",
			fields:    validFields,
			withImage: true,
			storeSetUp: func(f *fakeImageStore) {
				f.saveFn = func(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
					return "", errors.New("disk full")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name:      "owner_vanished",
			fields:    validFields,
			withImage: true,
			repoSetUp: func(f *fakePlacesRepo) {
				f.createFn = func(ctx context.Context, p place.Place) error {
					return user.ErrNotFound
				}
			},
			wantStatusCode:  http.StatusNotFound,
			wantCleanerRefs: 1,
		},
		{
			name:      "repo_error_releases_image",
			fields:    validFields,
			withImage: true,
			repoSetUp: func(f *fakePlacesRepo) {
				f.createFn = func(ctx context.Context, p place.Place) error {
					return errors.New("db error")
				}
			},
			wantStatusCode:  http.StatusInternalServerError,
			wantCleanerRefs: 1,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePlacesRepo{}
			resolver := &fakeResolver{}
			store := &fakeImageStore{}
			cleaner := &fakeCleaner{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}
			if tt.resolverSetUp != nil {
				tt.resolverSetUp(resolver)
			}
			if tt.storeSetUp != nil {
				tt.storeSetUp(store)
			}

			h := handlers.NewPlacesHandler(repo, resolver, store, cleaner, nil)

			r := setupAuthedRouter(http.MethodPost, "/api/places", h.CreatePlace, ownerID)

			body, contentType := buildMultipartForm(t, tt.fields, tt.withImage)

			req := httptest.NewRequest(http.MethodPost, "/api/places", body)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Authorization", "Bearer test-token")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if len(cleaner.refs) != tt.wantCleanerRefs {
				t.Fatalf("cleaner got %d refs, want %d", len(cleaner.refs), tt.wantCleanerRefs)
			}
		})
	}
}

func TestCreatePlaceRejectsMissingToken(t *testing.T) {
	h := handlers.NewPlacesHandler(&fakePlacesRepo{}, &fakeResolver{}, &fakeImageStore{}, &fakeCleaner{}, nil)

	r := setupAuthedRouter(http.MethodPost, "/api/places", h.CreatePlace, newUUID())

	body, contentType := buildMultipartForm(t, map[string]string{
		"title":       "Empire State Building",
		"description": "One of the most famous sky scrapers in the world",
		"address":     "20 W 34th St, New York, NY 10001",
	}, true)

	req := httptest.NewRequest(http.MethodPost, "/api/places", body)
	req.Header.Set("Content-Type", contentType)
	// no Authorization header

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusForbidden)
	}
}

// --- Update place tests

func TestUpdatePlaceHandler(t *testing.T) {
	ownerID := newUUID()
	existing := samplePlace(ownerID)

	validBody := `{
		"title": "Empire State Building (renovated)",
		"description": "Still one of the most famous sky scrapers",
		"address": "20 W 34th St, New York, NY 10001"
	}`

	tests := []struct {
		name           string
		placeID        string
		callerID       string
		body           string
		repoSetUp      func(*fakePlacesRepo)
		wantStatusCode int
	}{
		{
			name:     "success",
			placeID:  existing.ID,
			callerID: ownerID,
			body:     validBody,
			repoSetUp: func(f *fakePlacesRepo) {
				f.getFn = func(ctx context.Context, id string) (place.Place, error) {
					return existing, nil
				}
				f.updateFn = func(ctx context.Context, id, title, description, address string, location geocode.Coordinates) (place.Place, error) {
					updated := existing
					updated.Title = title
					updated.Description = description
					updated.Address = address
					updated.Location = location
					return updated, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:     "not_the_owner",
			placeID:  existing.ID,
			callerID: newUUID(),
			body:     validBody,
			repoSetUp: func(f *fakePlacesRepo) {
				f.getFn = func(ctx context.Context, id string) (place.Place, error) {
					return existing, nil
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "validation_error",
			placeID:        existing.ID,
			callerID:       ownerID,
			body:           `{"title": ""}`,
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "place_not_found",
			placeID:  newUUID(),
			callerID: ownerID,
			body:     validBody,
			repoSetUp: func(f *fakePlacesRepo) {
				f.getFn = func(ctx context.Context, id string) (place.Place, error) {
					return place.Place{}, place.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "malformed_place_id",
			placeID:        "nope",
			callerID:       ownerID,
			body:           validBody,
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePlacesRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewPlacesHandler(repo, &fakeResolver{}, &fakeImageStore{}, &fakeCleaner{}, nil)

			r := setupAuthedRouter(http.MethodPatch, "/api/places/:pid", h.UpdatePlace, tt.callerID)

			req := httptest.NewRequest(http.MethodPatch, "/api/places/"+tt.placeID, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer test-token")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// --- Delete place tests

func TestDeletePlaceHandler(t *testing.T) {
	ownerID := newUUID()
	existing := samplePlace(ownerID)

	tests := []struct {
		name            string
		placeID         string
		callerID        string
		repoSetUp       func(*fakePlacesRepo)
		wantStatusCode  int
		wantCleanerRefs int
	}{
		{
			name:     "success",
			placeID:  existing.ID,
			callerID: ownerID,
			repoSetUp: func(f *fakePlacesRepo) {
				f.getFn = func(ctx context.Context, id string) (place.Place, error) {
					return existing, nil
				}
			},
			wantStatusCode:  http.StatusOK,
			wantCleanerRefs: 1,
		},
		{
			name:     "not_the_owner",
			placeID:  existing.ID,
			callerID: newUUID(),
			repoSetUp: func(f *fakePlacesRepo) {
				f.getFn = func(ctx context.Context, id string) (place.Place, error) {
					return existing, nil
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:     "place_not_found",
			placeID:  newUUID(),
			callerID: ownerID,
			repoSetUp: func(f *fakePlacesRepo) {
				f.getFn = func(ctx context.Context, id string) (place.Place, error) {
					return place.Place{}, place.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			// the row disappeared between the ownership check and the
			// delete itself
			name:     "lost_delete_race",
			placeID:  existing.ID,
			callerID: ownerID,
			repoSetUp: func(f *fakePlacesRepo) {
				f.getFn = func(ctx context.Context, id string) (place.Place, error) {
					return existing, nil
				}
				f.deleteFn = func(ctx context.Context, id string) error {
					return place.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePlacesRepo{}
			cleaner := &fakeCleaner{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewPlacesHandler(repo, &fakeResolver{}, &fakeImageStore{}, cleaner, nil)

			r := setupAuthedRouter(http.MethodDelete, "/api/places/:pid", h.DeletePlace, tt.callerID)

			req := httptest.NewRequest(http.MethodDelete, "/api/places/"+tt.placeID, nil)
			req.Header.Set("Authorization", "Bearer test-token")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if len(cleaner.refs) != tt.wantCleanerRefs {
				t.Fatalf("cleaner got %d refs, want %d", len(cleaner.refs), tt.wantCleanerRefs)
			}
		})
	}
}
