package repositories

import (
	"context"

	"github.com/movievault/backend/internal/models"
)

// ListQuery controls pagination and filtering for movie listings. Page and
// Limit must already be normalised to positive values by the caller; Search
// is matched as a case-insensitive substring against titles when non-empty.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
}

// MovieRepository defines the data access contract for movies. Every method
// takes the owner id and scopes the underlying query to it, so a caller can
// never observe or mutate another user's records.
type MovieRepository interface {
	Create(ctx context.Context, movie models.Movie) error
	FindByID(ctx context.Context, id, ownerID string) (models.Movie, error)
	List(ctx context.Context, ownerID string, query ListQuery) ([]models.Movie, int, error)
	Update(ctx context.Context, movie models.Movie) error
	Delete(ctx context.Context, id, ownerID string) error
}
