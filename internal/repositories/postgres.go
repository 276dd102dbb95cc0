package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/movievault/backend/internal/db"
	"github.com/movievault/backend/internal/models"
)

const pgUniqueViolation = "23505"

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record. A duplicate email surfaces as ErrConflict;
// the unique index is the only guard against concurrent registrations, so
// whichever insert commits second observes the violation.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, name, email, password_hash, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, user.ID, user.Name, user.Email, user.Password, user.Active, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, name, email, password_hash, is_active, created_at, updated_at
        FROM users
        WHERE email = $1
    `, email)

	return scanUser(row)
}

// FindByID fetches a user by their identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, name, email, password_hash, is_active, created_at, updated_at
        FROM users
        WHERE id = $1
    `, id)

	return scanUser(row)
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.Active, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

// PostgresMovieRepository provides PostgreSQL-backed persistence for movies.
// All queries are scoped to the owning user in SQL rather than filtered after
// the fact.
type PostgresMovieRepository struct {
	pool db.Pool
}

// NewPostgresMovieRepository constructs a movie repository backed by PostgreSQL.
func NewPostgresMovieRepository(pool db.Pool) *PostgresMovieRepository {
	return &PostgresMovieRepository{pool: pool}
}

// Create stores a new movie record.
func (r *PostgresMovieRepository) Create(ctx context.Context, movie models.Movie) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO movies (id, title, publishing_year, poster, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, movie.ID, movie.Title, movie.PublishingYear, movie.Poster, movie.OwnerID, movie.CreatedAt, movie.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert movie: %w", err)
	}

	return nil
}

// FindByID fetches a movie owned by the provided user. A movie that exists
// but belongs to someone else is reported as ErrNotFound, never as a
// permission failure.
func (r *PostgresMovieRepository) FindByID(ctx context.Context, id, ownerID string) (models.Movie, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Movie{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, title, publishing_year, poster, owner_id, created_at, updated_at
        FROM movies
        WHERE id = $1 AND owner_id = $2
    `, id, ownerID)

	var movie models.Movie
	if err := row.Scan(&movie.ID, &movie.Title, &movie.PublishingYear, &movie.Poster, &movie.OwnerID, &movie.CreatedAt, &movie.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Movie{}, ErrNotFound
		}
		return models.Movie{}, fmt.Errorf("select movie: %w", err)
	}

	return movie, nil
}

// List returns one page of the owner's movies in reverse chronological order
// together with the total match count. Search filters on a case-insensitive
// title substring.
func (r *PostgresMovieRepository) List(ctx context.Context, ownerID string, query ListQuery) ([]models.Movie, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	search := escapeLikePattern(query.Search)

	var total int
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM movies
        WHERE owner_id = $1
          AND ($2 = '' OR title ILIKE '%' || $2 || '%')
    `, ownerID, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	offset := (query.Page - 1) * query.Limit
	rows, err := conn.Query(ctx, `
        SELECT id, title, publishing_year, poster, owner_id, created_at, updated_at
        FROM movies
        WHERE owner_id = $1
          AND ($2 = '' OR title ILIKE '%' || $2 || '%')
        ORDER BY created_at DESC
        LIMIT $3 OFFSET $4
    `, ownerID, search, query.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	var movies []models.Movie
	for rows.Next() {
		var movie models.Movie
		if err := rows.Scan(&movie.ID, &movie.Title, &movie.PublishingYear, &movie.Poster, &movie.OwnerID, &movie.CreatedAt, &movie.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, movie)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate movies: %w", err)
	}

	return movies, total, nil
}

// escapeLikePattern neutralises LIKE metacharacters so the search term matches
// as a literal substring. The default ESCAPE character is backslash.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}

// Update replaces the mutable fields of an owned movie. Updates are
// last-writer-wins; there is no version check.
func (r *PostgresMovieRepository) Update(ctx context.Context, movie models.Movie) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE movies
        SET title = $3, publishing_year = $4, poster = $5, updated_at = $6
        WHERE id = $1 AND owner_id = $2
    `, movie.ID, movie.OwnerID, movie.Title, movie.PublishingYear, movie.Poster, movie.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update movie: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes an owned movie record.
func (r *PostgresMovieRepository) Delete(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM movies
        WHERE id = $1 AND owner_id = $2
    `, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ MovieRepository = (*PostgresMovieRepository)(nil)
