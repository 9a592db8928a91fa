package memory

import (
	"context"
	"sync"
	"time"

	"github.com/placehub/placehub/internal/domain/place"
	"github.com/placehub/placehub/internal/domain/user"
	"github.com/placehub/placehub/internal/geocode"
)

// PlacesRepo keeps places and the owner's reference array under one
// lock so both writes of create/delete land together, matching the
// transactional behavior of the postgres repo. Used by tests and
// local development without a database.
type PlacesRepo struct {
	mu     sync.RWMutex
	places map[string]place.Place
	users  map[string]*user.User
}

func NewPlacesRepo() *PlacesRepo {
	return &PlacesRepo{
		places: make(map[string]place.Place),
		users:  make(map[string]*user.User),
	}
}

// SeedUser registers a user the repo can attach places to.
func (r *PlacesRepo) SeedUser(u user.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.PlaceIDs == nil {
		u.PlaceIDs = []string{}
	}
	r.users[u.ID] = &u
}

func (r *PlacesRepo) User(id string) (user.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]

	if !ok {
		return user.User{}, false
	}

	return *u, true
}

func (r *PlacesRepo) List(ctx context.Context) ([]place.Place, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]place.Place, 0, len(r.places))

	for _, p := range r.places {
		out = append(out, p)
	}

	return out, nil
}

func (r *PlacesRepo) ListByOwner(ctx context.Context, ownerID string) ([]place.Place, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[ownerID]

	if !ok {
		return nil, user.ErrNotFound
	}

	out := make([]place.Place, 0, len(u.PlaceIDs))

	for _, id := range u.PlaceIDs {
		if p, ok := r.places[id]; ok {
			out = append(out, p)
		}
	}

	if len(out) == 0 {
		return nil, place.ErrNotFound
	}

	return out, nil
}

func (r *PlacesRepo) GetByID(ctx context.Context, id string) (place.Place, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.places[id]

	if !ok {
		return place.Place{}, place.ErrNotFound
	}

	return p, nil
}

func (r *PlacesRepo) Create(ctx context.Context, p place.Place) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[p.OwnerID]

	if !ok {
		return user.ErrNotFound
	}

	r.places[p.ID] = p
	u.PlaceIDs = append(u.PlaceIDs, p.ID)

	return nil
}

func (r *PlacesRepo) Update(ctx context.Context, id, title, description, address string, location geocode.Coordinates) (place.Place, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.places[id]

	if !ok {
		return place.Place{}, place.ErrNotFound
	}

	p.Title = title
	p.Description = description
	p.Address = address
	p.Location = location
	p.UpdatedAt = time.Now().UTC()

	r.places[id] = p

	return p, nil
}

func (r *PlacesRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.places[id]

	if !ok {
		return place.ErrNotFound
	}

	delete(r.places, id)

	if u, ok := r.users[p.OwnerID]; ok {
		refs := u.PlaceIDs[:0]

		for _, ref := range u.PlaceIDs {
			if ref != id {
				refs = append(refs, ref)
			}
		}
		u.PlaceIDs = refs
	}

	return nil
}
