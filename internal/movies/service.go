package movies

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/movievault/backend/internal/models"
	"github.com/movievault/backend/internal/repositories"
	"github.com/movievault/backend/internal/storage"
)

// DefaultPageSize is used when a listing request does not specify a limit.
const DefaultPageSize = 8

// PosterStorage is the slice of the object store the catalog needs. Delete is
// best effort and never reports failure.
type PosterStorage interface {
	Upload(ctx context.Context, file storage.File) (string, error)
	Delete(ctx context.Context, fileURL string)
}

// Service implements the movie catalog operations. Every operation is scoped
// to the owning user; ownership checks live in the repository queries, not in
// post-filtering.
type Service struct {
	movies  repositories.MovieRepository
	posters PosterStorage
	nowFunc func() time.Time
}

// NewService constructs the catalog service.
func NewService(movies repositories.MovieRepository, posters PosterStorage) *Service {
	if movies == nil {
		panic("movies: repository must not be nil")
	}
	if posters == nil {
		panic("movies: poster storage must not be nil")
	}
	return &Service{movies: movies, posters: posters}
}

// CreateInput carries the fields required to catalogue a movie.
type CreateInput struct {
	Title string
	Year  int
}

// UpdateInput carries a partial update; nil fields keep their current value.
type UpdateInput struct {
	Title *string
	Year  *int
}

// Pagination describes one page of a listing.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalMovies int  `json:"totalMovies"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

// Page bundles a page of movies with its pagination metadata.
type Page struct {
	Movies     []models.Movie `json:"movies"`
	Pagination Pagination     `json:"pagination"`
}

// Create validates and persists a new movie for the owner. When a poster file
// is supplied it is uploaded first and its public URL stored; otherwise the
// poster field stays empty.
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput, poster *storage.File) (models.Movie, error) {
	if err := s.validate(input.Title, input.Year); err != nil {
		return models.Movie{}, err
	}

	posterURL := ""
	if poster != nil {
		url, err := s.posters.Upload(ctx, *poster)
		if err != nil {
			return models.Movie{}, err
		}
		posterURL = url
	}

	now := s.now()
	movie := models.Movie{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(input.Title),
		PublishingYear: input.Year,
		Poster:         posterURL,
		OwnerID:        ownerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.movies.Create(ctx, movie); err != nil {
		return models.Movie{}, fmt.Errorf("create movie: %w", err)
	}

	return movie, nil
}

// List returns one page of the owner's movies, newest first, optionally
// filtered by a case-insensitive title substring. An out-of-range page yields
// an empty list with accurate totals rather than an error.
func (s *Service) List(ctx context.Context, ownerID string, page, limit int, search string) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	items, total, err := s.movies.List(ctx, ownerID, repositories.ListQuery{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(search),
	})
	if err != nil {
		return Page{}, fmt.Errorf("list movies: %w", err)
	}

	if items == nil {
		items = []models.Movie{}
	}

	totalPages := (total + limit - 1) / limit

	return Page{
		Movies: items,
		Pagination: Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalMovies: total,
			HasNext:     page < totalPages,
			HasPrevious: page > 1,
		},
	}, nil
}

// Get fetches a single owned movie. A malformed id is ErrInvalidID; a movie
// that does not exist for this owner, including one owned by somebody else,
// is ErrNotFound.
func (s *Service) Get(ctx context.Context, id, ownerID string) (models.Movie, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Movie{}, ErrInvalidID
	}

	movie, err := s.movies.FindByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Movie{}, ErrNotFound
		}
		return models.Movie{}, fmt.Errorf("fetch movie: %w", err)
	}

	return movie, nil
}

// Update applies a partial update to an owned movie. When a replacement
// poster is supplied the new file is uploaded before the old blob is deleted,
// so a failed upload never leaves the record pointing at a removed object.
func (s *Service) Update(ctx context.Context, id, ownerID string, input UpdateInput, poster *storage.File) (models.Movie, error) {
	movie, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return models.Movie{}, err
	}

	if input.Title != nil {
		movie.Title = strings.TrimSpace(*input.Title)
	}
	if input.Year != nil {
		movie.PublishingYear = *input.Year
	}
	if err := s.validate(movie.Title, movie.PublishingYear); err != nil {
		return models.Movie{}, err
	}

	if poster != nil {
		url, err := s.posters.Upload(ctx, *poster)
		if err != nil {
			return models.Movie{}, err
		}
		s.posters.Delete(ctx, movie.Poster)
		movie.Poster = url
	}

	movie.UpdatedAt = s.now()

	if err := s.movies.Update(ctx, movie); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Movie{}, ErrNotFound
		}
		return models.Movie{}, fmt.Errorf("update movie: %w", err)
	}

	return movie, nil
}

// Remove deletes an owned movie and, best effort, its poster blob. A failed
// poster delete never blocks the record deletion.
func (s *Service) Remove(ctx context.Context, id, ownerID string) error {
	movie, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return err
	}

	s.posters.Delete(ctx, movie.Poster)

	if err := s.movies.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete movie: %w", err)
	}

	return nil
}

func (s *Service) validate(title string, year int) error {
	if strings.TrimSpace(title) == "" {
		return ErrInvalidTitle
	}
	if year < models.MinPublishingYear || year > models.MaxPublishingYear(s.now()) {
		return ErrInvalidYear
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now().UTC()
}
