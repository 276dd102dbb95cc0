package handlers

import (
	"context"

	"github.com/movievault/backend/internal/auth"
	"github.com/movievault/backend/internal/models"
	"github.com/movievault/backend/internal/movies"
	"github.com/movievault/backend/internal/storage"
)

// UserStore captures the persistence operations required by the auth handlers
// and the auth middleware.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// TokenIssuer mints and verifies the bearer tokens handed to clients.
type TokenIssuer interface {
	Issue(user models.User) (string, error)
	Verify(token string) (auth.Claims, error)
}

// MovieCatalog captures the catalog operations required by the movie handlers.
type MovieCatalog interface {
	Create(ctx context.Context, ownerID string, input movies.CreateInput, poster *storage.File) (models.Movie, error)
	List(ctx context.Context, ownerID string, page, limit int, search string) (movies.Page, error)
	Get(ctx context.Context, id, ownerID string) (models.Movie, error)
	Update(ctx context.Context, id, ownerID string, input movies.UpdateInput, poster *storage.File) (models.Movie, error)
	Remove(ctx context.Context, id, ownerID string) error
}
