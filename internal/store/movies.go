package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Movie models a catalogued film. Rating and runtime may be absent for
// titles the ingestion process could not enrich.
type Movie struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	ReleaseYear    int      `json:"release_year"`
	Rating         *float64 `json:"rating"`
	Certification  string   `json:"certification,omitempty"`
	RuntimeMinutes *int     `json:"runtime_minutes,omitempty"`
	PosterURL      string   `json:"poster_url,omitempty"`
	Overview       string   `json:"overview,omitempty"`
}

// Genre is a named movie category.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MovieStats carries the denormalized per-movie counters.
type MovieStats struct {
	RatingsCount   int `json:"ratings_count"`
	ReviewsCount   int `json:"reviews_count"`
	WatchlistCount int `json:"watchlist_count"`
	FavoritesCount int `json:"favorites_count"`
	WatchedCount   int `json:"watched_count"`
}

// MovieDetail is the view assembled for a movie page.
type MovieDetail struct {
	Movie
	Genres []Genre    `json:"genres"`
	Stats  MovieStats `json:"stats"`
}

// GenreMovies pairs a genre with its top-rated titles.
type GenreMovies struct {
	Genre  Genre   `json:"genre"`
	Movies []Movie `json:"movies"`
}

const movieColumns = `m.id, m.title, m.release_year, m.rating, m.certification, m.runtime_minutes, m.poster_url, m.overview`

func scanMovie(row interface{ Scan(...any) error }) (Movie, error) {
	var (
		movie   Movie
		rating  sql.NullFloat64
		cert    sql.NullString
		runtime sql.NullInt32
		poster  sql.NullString
		over    sql.NullString
	)
	err := row.Scan(&movie.ID, &movie.Title, &movie.ReleaseYear, &rating, &cert, &runtime, &poster, &over)
	if err != nil {
		return Movie{}, err
	}
	if rating.Valid {
		v := rating.Float64
		movie.Rating = &v
	}
	if runtime.Valid {
		v := int(runtime.Int32)
		movie.RuntimeMinutes = &v
	}
	movie.Certification = cert.String
	movie.PosterURL = poster.String
	movie.Overview = over.String
	return movie, nil
}

func collectMovies(rows *sql.Rows) ([]Movie, error) {
	defer rows.Close()

	var movies []Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}

// GroupedByGenre returns every genre with at least one linked movie, ordered
// by name, each carrying its top perGenre titles by rating (nulls last).
func (s *Store) GroupedByGenre(ctx context.Context, perGenre int) ([]GenreMovies, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name
		FROM genres g
		WHERE EXISTS (SELECT 1 FROM movie_genres mg WHERE mg.genre_id = g.id)
		ORDER BY g.name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("select genres: %w", err)
	}

	var genres []Genre
	for rows.Next() {
		var genre Genre
		if err := rows.Scan(&genre.ID, &genre.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, genre)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate genres: %w", err)
	}
	rows.Close()

	var groups []GenreMovies
	for _, genre := range genres {
		movieRows, err := s.db.QueryContext(ctx, `
			SELECT `+movieColumns+`
			FROM movies m
			JOIN movie_genres mg ON mg.movie_id = m.id
			WHERE mg.genre_id = $1
			ORDER BY m.rating DESC NULLS LAST, m.id ASC
			LIMIT $2
		`, genre.ID, perGenre)
		if err != nil {
			return nil, fmt.Errorf("select genre movies: %w", err)
		}
		movies, err := collectMovies(movieRows)
		if err != nil {
			return nil, err
		}
		if len(movies) > 0 {
			groups = append(groups, GenreMovies{Genre: genre, Movies: movies})
		}
	}

	return groups, nil
}

// MoviesByGenre returns all movies linked to the genre, best rated first.
func (s *Store) MoviesByGenre(ctx context.Context, genreID int64) (Genre, []Movie, error) {
	var genre Genre
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name FROM genres WHERE id = $1
	`, genreID).Scan(&genre.ID, &genre.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Genre{}, nil, ErrGenreNotFound
		}
		return Genre{}, nil, fmt.Errorf("get genre: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+movieColumns+`
		FROM movies m
		JOIN movie_genres mg ON mg.movie_id = m.id
		WHERE mg.genre_id = $1
		ORDER BY m.rating DESC NULLS LAST, m.id ASC
	`, genreID)
	if err != nil {
		return Genre{}, nil, fmt.Errorf("select genre movies: %w", err)
	}
	movies, err := collectMovies(rows)
	if err != nil {
		return Genre{}, nil, err
	}

	return genre, movies, nil
}

// SearchByTitle matches titles containing the query, case-insensitively.
func (s *Store) SearchByTitle(ctx context.Context, query string) ([]Movie, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+movieColumns+`
		FROM movies m
		WHERE m.title ILIKE '%' || $1 || '%'
		ORDER BY m.rating DESC NULLS LAST, m.id ASC
	`, query)
	if err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	return collectMovies(rows)
}

// TopMovies returns the highest rated titles. Unrated movies are excluded.
func (s *Store) TopMovies(ctx context.Context, limit int) ([]Movie, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+movieColumns+`
		FROM movies m
		WHERE m.rating IS NOT NULL
		ORDER BY m.rating DESC, m.id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("select top movies: %w", err)
	}
	return collectMovies(rows)
}

// SimilarMovies recommends titles sharing a genre with the given movie,
// best rated first, topped up with random picks when the pool runs short.
// The movie itself never appears and no title is returned twice.
func (s *Store) SimilarMovies(ctx context.Context, movieID int64, limit int) ([]Movie, error) {
	if limit <= 0 {
		return nil, nil
	}

	// Only the first three genres feed the candidate pool.
	genreRows, err := s.db.QueryContext(ctx, `
		SELECT genre_id
		FROM movie_genres
		WHERE movie_id = $1
		ORDER BY genre_id ASC
		LIMIT 3
	`, movieID)
	if err != nil {
		return nil, fmt.Errorf("select movie genres: %w", err)
	}
	var genreIDs []int64
	for genreRows.Next() {
		var id int64
		if err := genreRows.Scan(&id); err != nil {
			genreRows.Close()
			return nil, fmt.Errorf("scan genre id: %w", err)
		}
		genreIDs = append(genreIDs, id)
	}
	if err := genreRows.Err(); err != nil {
		genreRows.Close()
		return nil, fmt.Errorf("iterate genre ids: %w", err)
	}
	genreRows.Close()

	var movies []Movie
	if len(genreIDs) > 0 {
		placeholders := make([]string, len(genreIDs))
		args := make([]any, 0, len(genreIDs)+2)
		args = append(args, movieID)
		for i, id := range genreIDs {
			placeholders[i] = "$" + strconv.Itoa(i+2)
			args = append(args, id)
		}
		args = append(args, limit)

		rows, err := s.db.QueryContext(ctx, `
			SELECT DISTINCT `+movieColumns+`
			FROM movies m
			JOIN movie_genres mg ON mg.movie_id = m.id
			WHERE m.id <> $1 AND mg.genre_id IN (`+strings.Join(placeholders, ", ")+`)
			ORDER BY m.rating DESC NULLS LAST, m.id ASC
			LIMIT $`+strconv.Itoa(len(genreIDs)+2)+`
		`, args...)
		if err != nil {
			return nil, fmt.Errorf("select similar movies: %w", err)
		}
		movies, err = collectMovies(rows)
		if err != nil {
			return nil, err
		}
	}

	if len(movies) < limit {
		backfill, err := s.randomMovies(ctx, movieID, movies, limit-len(movies))
		if err != nil {
			return nil, err
		}
		movies = append(movies, backfill...)
	}

	return movies, nil
}

// randomMovies draws uniformly from the catalog, excluding the given movie
// and anything already chosen.
func (s *Store) randomMovies(ctx context.Context, movieID int64, chosen []Movie, count int) ([]Movie, error) {
	exclude := make([]string, 0, len(chosen)+1)
	args := make([]any, 0, len(chosen)+2)
	args = append(args, movieID)
	exclude = append(exclude, "$1")
	for i, movie := range chosen {
		exclude = append(exclude, "$"+strconv.Itoa(i+2))
		args = append(args, movie.ID)
	}
	args = append(args, count)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+movieColumns+`
		FROM movies m
		WHERE m.id NOT IN (`+strings.Join(exclude, ", ")+`)
		ORDER BY random()
		LIMIT $`+strconv.Itoa(len(args))+`
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("select random movies: %w", err)
	}
	return collectMovies(rows)
}

// MovieByID assembles the detail view for a single movie.
func (s *Store) MovieByID(ctx context.Context, id int64) (MovieDetail, error) {
	var detail MovieDetail
	row := s.db.QueryRowContext(ctx, `
		SELECT `+movieColumns+`,
			COALESCE(st.ratings_count, 0),
			COALESCE(st.reviews_count, 0),
			COALESCE(st.watchlist_count, 0),
			COALESCE(st.favorites_count, 0),
			COALESCE(st.watched_count, 0)
		FROM movies m
		LEFT JOIN movie_stats st ON st.movie_id = m.id
		WHERE m.id = $1
	`, id)

	var (
		rating  sql.NullFloat64
		cert    sql.NullString
		runtime sql.NullInt32
		poster  sql.NullString
		over    sql.NullString
	)
	err := row.Scan(
		&detail.ID, &detail.Title, &detail.ReleaseYear, &rating, &cert, &runtime, &poster, &over,
		&detail.Stats.RatingsCount, &detail.Stats.ReviewsCount,
		&detail.Stats.WatchlistCount, &detail.Stats.FavoritesCount, &detail.Stats.WatchedCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return MovieDetail{}, ErrMovieNotFound
		}
		return MovieDetail{}, fmt.Errorf("get movie: %w", err)
	}
	if rating.Valid {
		v := rating.Float64
		detail.Rating = &v
	}
	if runtime.Valid {
		v := int(runtime.Int32)
		detail.RuntimeMinutes = &v
	}
	detail.Certification = cert.String
	detail.PosterURL = poster.String
	detail.Overview = over.String

	genreRows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name
		FROM genres g
		JOIN movie_genres mg ON mg.genre_id = g.id
		WHERE mg.movie_id = $1
		ORDER BY g.id ASC
	`, id)
	if err != nil {
		return MovieDetail{}, fmt.Errorf("select movie genres: %w", err)
	}
	defer genreRows.Close()

	for genreRows.Next() {
		var genre Genre
		if err := genreRows.Scan(&genre.ID, &genre.Name); err != nil {
			return MovieDetail{}, fmt.Errorf("scan genre: %w", err)
		}
		detail.Genres = append(detail.Genres, genre)
	}
	if err := genreRows.Err(); err != nil {
		return MovieDetail{}, fmt.Errorf("iterate genres: %w", err)
	}

	return detail, nil
}
