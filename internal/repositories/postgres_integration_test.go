package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/movievault/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)

	user := models.User{
		ID:        uuid.NewString(),
		Name:      "Alice",
		Email:     "alice@example.com",
		Password:  "secret-hash",
		Active:    true,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := models.User{
		ID:        uuid.NewString(),
		Name:      "Imposter",
		Email:     user.Email,
		Password:  "another-hash",
		Active:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when creating duplicate email, got %v", err)
	}

	var count int
	if err := testPool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE email = $1`, user.Email).Scan(&count); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one user for %s, got %d", user.Email, count)
	}

	fetched, err := repo.FindByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if fetched.ID != user.ID || fetched.Name != user.Name || fetched.Password != user.Password || !fetched.Active {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	byID, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.Email != user.Email {
		t.Fatalf("expected email %s, got %s", user.Email, byID.Email)
	}

	if _, err := repo.FindByEmail(ctx, "missing@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing email, got %v", err)
	}
	if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestPostgresMovieRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	movieRepo := NewPostgresMovieRepository(testPool)

	owner := createTestUser(t, userRepo, "owner@example.com")
	other := createTestUser(t, userRepo, "other@example.com")

	movie := models.Movie{
		ID:             uuid.NewString(),
		Title:          "Inception",
		PublishingYear: 2010,
		Poster:         "",
		OwnerID:        owner.ID,
		CreatedAt:      time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt:      time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := movieRepo.Create(ctx, movie); err != nil {
		t.Fatalf("create movie: %v", err)
	}

	fetched, err := movieRepo.FindByID(ctx, movie.ID, owner.ID)
	if err != nil {
		t.Fatalf("find movie: %v", err)
	}
	if fetched.Title != movie.Title || fetched.PublishingYear != movie.PublishingYear || fetched.Poster != "" {
		t.Fatalf("unexpected movie fetched: %+v", fetched)
	}

	// Another user's lookups must behave as if the record does not exist.
	if _, err := movieRepo.FindByID(ctx, movie.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}

	updated := fetched
	updated.Title = "Inception (Director's Cut)"
	updated.Poster = "https://bucket.s3.us-east-1.amazonaws.com/posters/key.jpg"
	updated.UpdatedAt = time.Now().UTC()

	if err := movieRepo.Update(ctx, updated); err != nil {
		t.Fatalf("update movie: %v", err)
	}

	fetched, err = movieRepo.FindByID(ctx, movie.ID, owner.ID)
	if err != nil {
		t.Fatalf("find updated movie: %v", err)
	}
	if fetched.Title != updated.Title || fetched.Poster != updated.Poster {
		t.Fatalf("expected updated fields to persist, got %+v", fetched)
	}

	foreign := updated
	foreign.OwnerID = other.ID
	if err := movieRepo.Update(ctx, foreign); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating as foreign owner, got %v", err)
	}

	if err := movieRepo.Delete(ctx, movie.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting as foreign owner, got %v", err)
	}
	if err := movieRepo.Delete(ctx, movie.ID, owner.ID); err != nil {
		t.Fatalf("delete movie: %v", err)
	}
	if _, err := movieRepo.FindByID(ctx, movie.ID, owner.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPostgresMovieRepository_ListPaginationAndSearch(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	movieRepo := NewPostgresMovieRepository(testPool)

	owner := createTestUser(t, userRepo, "list-owner@example.com")
	other := createTestUser(t, userRepo, "list-other@example.com")

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 20; i++ {
		movie := models.Movie{
			ID:             uuid.NewString(),
			Title:          fmt.Sprintf("Movie %02d", i),
			PublishingYear: 2000 + i,
			OwnerID:        owner.ID,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := movieRepo.Create(ctx, movie); err != nil {
			t.Fatalf("create movie %d: %v", i, err)
		}
	}

	foreign := models.Movie{
		ID:             uuid.NewString(),
		Title:          "Movie 99",
		PublishingYear: 1999,
		OwnerID:        other.ID,
		CreatedAt:      base.Add(time.Hour),
		UpdatedAt:      base.Add(time.Hour),
	}
	if err := movieRepo.Create(ctx, foreign); err != nil {
		t.Fatalf("create foreign movie: %v", err)
	}

	page1, total, err := movieRepo.List(ctx, owner.ID, ListQuery{Page: 1, Limit: 8})
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if total != 20 {
		t.Fatalf("expected total 20, got %d", total)
	}
	if len(page1) != 8 {
		t.Fatalf("expected 8 movies on page 1, got %d", len(page1))
	}
	if page1[0].Title != "Movie 19" {
		t.Fatalf("expected newest movie first, got %s", page1[0].Title)
	}

	page3, total, err := movieRepo.List(ctx, owner.ID, ListQuery{Page: 3, Limit: 8})
	if err != nil {
		t.Fatalf("list page 3: %v", err)
	}
	if total != 20 || len(page3) != 4 {
		t.Fatalf("expected 4 movies on page 3 of 20, got %d (total %d)", len(page3), total)
	}

	empty, total, err := movieRepo.List(ctx, owner.ID, ListQuery{Page: 10, Limit: 8})
	if err != nil {
		t.Fatalf("list page 10: %v", err)
	}
	if total != 20 || len(empty) != 0 {
		t.Fatalf("expected empty page with accurate total, got %d items (total %d)", len(empty), total)
	}

	matches, total, err := movieRepo.List(ctx, owner.ID, ListQuery{Page: 1, Limit: 8, Search: "movie 0"})
	if err != nil {
		t.Fatalf("list with search: %v", err)
	}
	if total != 10 {
		t.Fatalf("expected 10 search matches, got %d", total)
	}
	for _, m := range matches {
		if m.OwnerID != owner.ID {
			t.Fatalf("search leaked foreign movie: %+v", m)
		}
	}
}

func TestPostgresMovieRepository_SearchTreatsMetacharactersLiterally(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	movieRepo := NewPostgresMovieRepository(testPool)

	owner := createTestUser(t, userRepo, "search-owner@example.com")

	titles := []string{"100% Wolf", "100 Wolves", "A_Quiet_Place", "An Odd Place"}
	base := time.Now().UTC().Add(-time.Hour)
	for i, title := range titles {
		movie := models.Movie{
			ID:             uuid.NewString(),
			Title:          title,
			PublishingYear: 2020,
			OwnerID:        owner.ID,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := movieRepo.Create(ctx, movie); err != nil {
			t.Fatalf("create movie %q: %v", title, err)
		}
	}

	tests := []struct {
		search string
		want   string
	}{
		{"100%", "100% Wolf"},
		{"A_Quiet", "A_Quiet_Place"},
	}
	for _, tc := range tests {
		matches, total, err := movieRepo.List(ctx, owner.ID, ListQuery{Page: 1, Limit: 8, Search: tc.search})
		if err != nil {
			t.Fatalf("list with search %q: %v", tc.search, err)
		}
		if total != 1 || len(matches) != 1 {
			t.Fatalf("search %q: expected 1 literal match, got %d (total %d)", tc.search, len(matches), total)
		}
		if matches[0].Title != tc.want {
			t.Fatalf("search %q: expected %q, got %q", tc.search, tc.want, matches[0].Title)
		}
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE movies, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, email string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Name:      "Test User",
		Email:     email,
		Password:  "password-hash",
		Active:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}
