package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/placehub/placehub/internal/domain/place"
	"github.com/placehub/placehub/internal/domain/user"
	"github.com/placehub/placehub/internal/geocode"
	"github.com/placehub/placehub/internal/observability"
)

type PlacesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPlacesRepo(pool *pgxpool.Pool, prom *observability.Prom) *PlacesRepo {
	return &PlacesRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *PlacesRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

const placeColumns = `id, title, description, address, lat, lng, image_url, owner_id, created_at, updated_at`

func scanPlace(row pgx.Row) (place.Place, error) {
	var p place.Place

	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Address, &p.Location.Lat, &p.Location.Lng, &p.ImageURL, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)

	return p, err
}

func (repo *PlacesRepo) List(ctx context.Context) (places []place.Place, err error) {
	var rows pgx.Rows

	err = repo.observe("places.list", func() error {
		rows, err = repo.pool.Query(ctx,
			`SELECT `+placeColumns+`
			FROM places
			ORDER BY created_at ASC, id ASC`,
		)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	places = make([]place.Place, 0)

	for rows.Next() {
		p, scanErr := scanPlace(rows)

		if scanErr != nil {
			err = scanErr
			return
		}
		places = append(places, p)
	}

	err = rows.Err()

	return
}

// ListByOwner treats zero results as not-found rather than an empty
// list. Unusual, but the exposed API behavior depends on it.
func (repo *PlacesRepo) ListByOwner(ctx context.Context, ownerID string) (places []place.Place, err error) {
	var rows pgx.Rows

	err = repo.observe("places.list_by_owner", func() error {
		rows, err = repo.pool.Query(ctx,
			`SELECT `+placeColumns+`
			FROM places
			WHERE owner_id = $1
			ORDER BY created_at ASC, id ASC`,
			ownerID,
		)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	places = make([]place.Place, 0)

	for rows.Next() {
		p, scanErr := scanPlace(rows)

		if scanErr != nil {
			err = scanErr
			return
		}
		places = append(places, p)
	}

	err = rows.Err()

	if err != nil {
		return
	}

	if len(places) == 0 {
		// distinguish missing user from a user with no places; both
		// surface as 404 but the message differs
		var dummy string

		err = repo.observe("places.list_by_owner.check_user_exists", func() error {
			return repo.pool.QueryRow(ctx, `SELECT id FROM users WHERE id = $1`, ownerID).Scan(&dummy)
		})

		if errors.Is(err, pgx.ErrNoRows) {
			err = user.ErrNotFound
			return
		}

		if err != nil {
			return
		}

		err = place.ErrNotFound
	}

	return
}

func (repo *PlacesRepo) GetByID(ctx context.Context, id string) (found place.Place, err error) {
	err = repo.observe("places.get_by_id", func() error {
		var scanErr error
		found, scanErr = scanPlace(repo.pool.QueryRow(ctx,
			`SELECT `+placeColumns+` FROM places WHERE id = $1`, id))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = place.ErrNotFound
		}
		return
	}

	return
}

// Create persists the place and appends its id to the owner's
// place_ids in one transaction. A reader never observes one write
// without the other; any failure aborts both.
func (repo *PlacesRepo) Create(ctx context.Context, p place.Place) (err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// lock the owner row; a missing owner means the authenticated
	// identity no longer maps to a user
	var dummy string

	err = repo.observe("places.create.owner_lock", func() error {
		return tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, p.OwnerID).Scan(&dummy)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = user.ErrNotFound
		}
		return
	}

	err = repo.observe("places.create.insert", func() error {
		_, e := tx.Exec(ctx,
			`INSERT INTO places (id, title, description, address, lat, lng, image_url, owner_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			p.ID, p.Title, p.Description, p.Address, p.Location.Lat, p.Location.Lng, p.ImageURL, p.OwnerID, p.CreatedAt, p.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return
	}

	err = repo.observe("places.create.append_ref", func() error {
		_, e := tx.Exec(ctx,
			`UPDATE users SET place_ids = array_append(place_ids, $1), updated_at = NOW() WHERE id = $2`,
			p.ID, p.OwnerID,
		)
		return e
	})

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	return
}

func (repo *PlacesRepo) Update(ctx context.Context, id, title, description, address string, location geocode.Coordinates) (updated place.Place, err error) {
	err = repo.observe("places.update", func() error {
		var scanErr error
		updated, scanErr = scanPlace(repo.pool.QueryRow(ctx,
			`UPDATE places
				SET title = $2,
					description = $3,
					address = $4,
					lat = $5,
					lng = $6,
					updated_at = NOW()
			WHERE id = $1
			RETURNING `+placeColumns,
			id, title, description, address, location.Lat, location.Lng,
		))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = place.ErrNotFound
		}
		return
	}

	return
}

// Delete removes the place and pulls its id from the owner's
// place_ids in one transaction, mirroring Create.
func (repo *PlacesRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var ownerID string

	err = repo.observe("places.delete.remove", func() error {
		return tx.QueryRow(ctx, `DELETE FROM places WHERE id = $1 RETURNING owner_id`, id).Scan(&ownerID)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = place.ErrNotFound
		}
		return
	}

	err = repo.observe("places.delete.pull_ref", func() error {
		_, e := tx.Exec(ctx,
			`UPDATE users SET place_ids = array_remove(place_ids, $1), updated_at = NOW() WHERE id = $2`,
			id, ownerID,
		)
		return e
	})

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	return
}
