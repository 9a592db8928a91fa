package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/placehub/placehub/internal/domain/user"
	"github.com/placehub/placehub/internal/observability"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (repo *UsersRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

const userColumns = `id, name, email, password_hash, image_url, place_ids, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.ImageURL, &u.PlaceIDs, &u.CreatedAt, &u.UpdatedAt)

	return u, err
}

func (repo *UsersRepo) List(ctx context.Context) (users []user.User, err error) {
	var rows pgx.Rows

	err = repo.observe("users.list", func() error {
		rows, err = repo.pool.Query(ctx,
			`SELECT `+userColumns+`
			FROM users
			ORDER BY created_at ASC, id ASC`,
		)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	users = make([]user.User, 0)

	for rows.Next() {
		u, scanErr := scanUser(rows)

		if scanErr != nil {
			err = scanErr
			return
		}
		users = append(users, u)
	}

	err = rows.Err()

	return
}

func (repo *UsersRepo) GetByEmail(ctx context.Context, email string) (found user.User, err error) {
	err = repo.observe("users.get_by_email", func() error {
		var scanErr error
		found, scanErr = scanUser(repo.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = user.ErrNotFound
		}
		return
	}

	return
}

func (repo *UsersRepo) GetByID(ctx context.Context, id string) (found user.User, err error) {
	err = repo.observe("users.get_by_id", func() error {
		var scanErr error
		found, scanErr = scanUser(repo.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = user.ErrNotFound
		}
		return
	}

	return
}

func (repo *UsersRepo) Create(ctx context.Context, u user.User) (err error) {
	err = repo.observe("users.create", func() error {
		_, e := repo.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, image_url, place_ids, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.ImageURL, u.PlaceIDs, u.CreatedAt, u.UpdatedAt,
		)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			err = user.ErrEmailExists
		}
		return
	}

	return
}
