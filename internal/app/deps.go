package app

import (
	"context"
	"fmt"
	"time"

	"github.com/movievault/backend/internal/auth"
	"github.com/movievault/backend/internal/config"
	"github.com/movievault/backend/internal/db"
	"github.com/movievault/backend/internal/handlers"
	"github.com/movievault/backend/internal/middleware"
	"github.com/movievault/backend/internal/movies"
	"github.com/movievault/backend/internal/repositories"
	"github.com/movievault/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. Object-store configuration problems surface here, at startup.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	posterStore, err := storage.NewPosterStore(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure poster store: %w", err)
	}

	users := repositories.NewPostgresUserRepository(pool)
	catalog := movies.NewService(repositories.NewPostgresMovieRepository(pool), posterStore)
	issuer := auth.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)
	loginLimiter := middleware.NewIPRateLimiter(cfg.LoginRateLimit, time.Minute, cfg.LoginRateBurst, 10*time.Minute)

	return handlers.Dependencies{
		Users:        users,
		Tokens:       issuer,
		Catalog:      catalog,
		LoginLimiter: loginLimiter,
	}, nil
}
