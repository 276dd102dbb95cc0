package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/movievault/backend/internal/logging"
	"github.com/movievault/backend/internal/models"
	"github.com/movievault/backend/internal/movies"
	"github.com/movievault/backend/internal/storage"
)

// maxUploadBytes caps the whole multipart request body. The poster itself is
// limited to storage.MaxPosterBytes; the slack covers form fields and
// multipart framing so an at-the-limit poster is still parseable.
const maxUploadBytes = storage.MaxPosterBytes + 1024*1024

// MovieHandler provides the owner-scoped movie catalog endpoints. All routes
// sit behind RequireAuth, so the authenticated user is always on the context.
type MovieHandler struct {
	Catalog MovieCatalog
}

// List handles GET /movies.
func (h MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	page, ok := positiveIntQuery(r, "page", 1)
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	limit, ok := positiveIntQuery(r, "limit", movies.DefaultPageSize)
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	search := r.URL.Query().Get("search")

	result, err := h.Catalog.List(ctx, user.ID, page, limit, search)
	if err != nil {
		h.respondCatalogError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, result)
}

// Get handles GET /movies/{id}.
func (h MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	movie, err := h.Catalog.Get(ctx, r.PathValue("id"), user.ID)
	if err != nil {
		h.respondCatalogError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, movie)
}

// Create handles POST /movies. The body is multipart form data: title,
// publishingYear, and an optional poster file.
func (h MovieHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	poster, cleanup, ok := h.parseMultipart(ctx, w, r)
	if !ok {
		return
	}
	defer cleanup()

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}
	year, err := strconv.Atoi(strings.TrimSpace(r.FormValue("publishingYear")))
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "publishing year must be a number")
		return
	}

	movie, err := h.Catalog.Create(ctx, user.ID, movies.CreateInput{Title: title, Year: year}, poster)
	if err != nil {
		h.respondCatalogError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, movieResponse{
		Message: "Movie created successfully",
		Movie:   movie,
	})
}

// Update handles PATCH /movies/{id}. All fields are optional; omitted fields
// keep their stored values.
func (h MovieHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	poster, cleanup, ok := h.parseMultipart(ctx, w, r)
	if !ok {
		return
	}
	defer cleanup()

	var input movies.UpdateInput
	if values := r.MultipartForm.Value["title"]; len(values) > 0 {
		title := strings.TrimSpace(values[0])
		input.Title = &title
	}
	if values := r.MultipartForm.Value["publishingYear"]; len(values) > 0 {
		year, err := strconv.Atoi(strings.TrimSpace(values[0]))
		if err != nil {
			respondError(ctx, w, http.StatusBadRequest, "publishing year must be a number")
			return
		}
		input.Year = &year
	}

	movie, err := h.Catalog.Update(ctx, r.PathValue("id"), user.ID, input, poster)
	if err != nil {
		h.respondCatalogError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, movieResponse{
		Message: "Movie updated successfully",
		Movie:   movie,
	})
}

// Delete handles DELETE /movies/{id}.
func (h MovieHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.Catalog.Remove(ctx, r.PathValue("id"), user.ID); err != nil {
		h.respondCatalogError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "Movie deleted successfully"})
}

// parseMultipart parses the request form and extracts the optional poster
// file. On failure it writes the error response and returns ok=false.
func (h MovieHandler) parseMultipart(ctx context.Context, w http.ResponseWriter, r *http.Request) (*storage.File, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(ctx, w, http.StatusBadRequest, storage.ErrTooLarge.Error())
			return nil, nil, false
		}
		respondError(ctx, w, http.StatusBadRequest, "request body must be multipart form data")
		return nil, nil, false
	}

	file, header, err := r.FormFile("poster")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, true
		}
		respondError(ctx, w, http.StatusBadRequest, "invalid poster upload")
		return nil, nil, false
	}

	poster := &storage.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	return poster, func() { _ = file.Close() }, true
}

func (h MovieHandler) respondCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, movies.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "movie not found")
	case errors.Is(err, movies.ErrInvalidID),
		errors.Is(err, movies.ErrInvalidTitle),
		errors.Is(err, movies.ErrInvalidYear),
		errors.Is(err, storage.ErrUnsupportedType),
		errors.Is(err, storage.ErrTooLarge):
		respondError(ctx, w, http.StatusBadRequest, err.Error())
	default:
		// Storage and database details never reach the caller.
		logging.FromContext(ctx).Error("movie operation failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "operation failed")
	}
}

func positiveIntQuery(r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, false
	}
	return value, true
}

type movieResponse struct {
	Message string       `json:"message"`
	Movie   models.Movie `json:"movie"`
}
