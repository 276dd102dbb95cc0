// Package client is a Go client for the movie catalog API. It keeps the
// bearer token from Login or Register on the client and, when a SessionStore
// is attached, persists it across runs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/movievault/backend/internal/models"
	"github.com/movievault/backend/internal/movies"
)

// Sentinel errors mapped from API status codes. Responses carry a message;
// callers that only care about the class of failure can errors.Is against
// these.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrRateLimited  = errors.New("rate limited")
)

// PosterFile is an optional poster attachment for create and update calls.
type PosterFile struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// CreateMovieInput carries the fields for a new movie.
type CreateMovieInput struct {
	Title  string
	Year   int
	Poster *PosterFile
}

// UpdateMovieInput carries a partial update. Nil fields keep their stored
// values.
type UpdateMovieInput struct {
	Title  *string
	Year   *int
	Poster *PosterFile
}

// Client talks to a movie catalog server.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions *SessionStore
	session  *Session
}

// New constructs a client for the given base URL. When store is non-nil the
// persisted session, if any, is loaded so earlier logins carry over.
func New(baseURL string, store *SessionStore) (*Client, error) {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		sessions: store,
	}
	if store != nil {
		session, err := store.Load()
		if err != nil {
			return nil, err
		}
		c.session = session
	}
	return c, nil
}

// Session returns the active session, or nil when nobody is logged in.
func (c *Client) Session() *Session {
	return c.session
}

// Register creates an account and logs straight into it.
func (c *Client) Register(ctx context.Context, name, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Logout drops the active session. Tokens are stateless so there is no server
// call; the token simply stops being sent and the persisted copy is removed.
func (c *Client) Logout() error {
	c.session = nil
	if c.sessions != nil {
		return c.sessions.Clear()
	}
	return nil
}

// ListMovies fetches a page of the caller's movies. Zero page and limit fall
// back to the server defaults; search narrows by title substring.
func (c *Client) ListMovies(ctx context.Context, page, limit int, search string) (movies.Page, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if search != "" {
		query.Set("search", search)
	}

	path := "/movies"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var result movies.Page
	if err := c.do(ctx, http.MethodGet, path, "", nil, &result); err != nil {
		return movies.Page{}, err
	}
	return result, nil
}

// GetMovie fetches a single movie by ID.
func (c *Client) GetMovie(ctx context.Context, id string) (models.Movie, error) {
	var movie models.Movie
	if err := c.do(ctx, http.MethodGet, "/movies/"+url.PathEscape(id), "", nil, &movie); err != nil {
		return models.Movie{}, err
	}
	return movie, nil
}

// CreateMovie creates a movie, uploading the poster when one is attached.
func (c *Client) CreateMovie(ctx context.Context, input CreateMovieInput) (models.Movie, error) {
	fields := map[string]string{
		"title":          input.Title,
		"publishingYear": strconv.Itoa(input.Year),
	}
	body, contentType, err := encodeMultipart(fields, input.Poster)
	if err != nil {
		return models.Movie{}, err
	}

	var resp movieEnvelope
	if err := c.do(ctx, http.MethodPost, "/movies", contentType, body, &resp); err != nil {
		return models.Movie{}, err
	}
	return resp.Movie, nil
}

// UpdateMovie applies a partial update to a movie.
func (c *Client) UpdateMovie(ctx context.Context, id string, input UpdateMovieInput) (models.Movie, error) {
	fields := map[string]string{}
	if input.Title != nil {
		fields["title"] = *input.Title
	}
	if input.Year != nil {
		fields["publishingYear"] = strconv.Itoa(*input.Year)
	}
	body, contentType, err := encodeMultipart(fields, input.Poster)
	if err != nil {
		return models.Movie{}, err
	}

	var resp movieEnvelope
	if err := c.do(ctx, http.MethodPatch, "/movies/"+url.PathEscape(id), contentType, body, &resp); err != nil {
		return models.Movie{}, err
	}
	return resp.Movie, nil
}

// DeleteMovie removes a movie and its poster.
func (c *Client) DeleteMovie(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/movies/"+url.PathEscape(id), "", nil, nil)
}

func (c *Client) authenticate(ctx context.Context, path string, payload map[string]string) (*Session, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var resp authEnvelope
	if err := c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}

	session := &Session{Token: resp.Token, User: resp.User}
	c.session = session
	if c.sessions != nil {
		if err := c.sessions.Save(session); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.session != nil {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	message := http.StatusText(resp.StatusCode)
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		message = payload.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, message)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidInput, message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, message)
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, message)
	}
}

// encodeMultipart builds the form body the movie endpoints expect. The poster
// part carries its own Content-Type header, which the server validates.
func encodeMultipart(fields map[string]string, poster *PosterFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", name, err)
		}
	}

	if poster != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="poster"; filename=%q`, poster.Name))
		header.Set("Content-Type", poster.ContentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create poster part: %w", err)
		}
		if _, err := io.Copy(part, poster.Body); err != nil {
			return nil, "", fmt.Errorf("copy poster body: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize form body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

type authEnvelope struct {
	Message string            `json:"message"`
	User    models.PublicUser `json:"user"`
	Token   string            `json:"token"`
}

type movieEnvelope struct {
	Message string       `json:"message"`
	Movie   models.Movie `json:"movie"`
}
