package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ListKind identifies one of the three per-user movie lists.
type ListKind string

const (
	ListWatchlist ListKind = "watchlist"
	ListFavorites ListKind = "favorites"
	ListWatched   ListKind = "watched"
)

// Valid reports whether the kind names a known list.
func (k ListKind) Valid() bool {
	switch k {
	case ListWatchlist, ListFavorites, ListWatched:
		return true
	}
	return false
}

// table returns the membership relation backing the list. Kinds are a closed
// enum, so the name is safe to splice into SQL.
func (k ListKind) table() string {
	return string(k)
}

// counterColumn returns the movie_stats column mirroring the list cardinality.
func (k ListKind) counterColumn() string {
	return string(k) + "_count"
}

// ToggleResult reports the membership state after a toggle and the counter
// value committed alongside it.
type ToggleResult struct {
	Added bool
	Count int
}

// ListStatuses collects the movie ids present in each of a user's lists.
type ListStatuses struct {
	Watchlist []int64 `json:"watchlist"`
	Favorites []int64 `json:"favorites"`
	Watched   []int64 `json:"watched"`
}

// Library materializes a user's three lists as movies.
type Library struct {
	Watchlist []Movie `json:"watchlist"`
	Favorites []Movie `json:"favorites"`
	Watched   []Movie `json:"watched"`
}

// IsMember reports whether the movie is in the user's list.
func (s *Store) IsMember(ctx context.Context, kind ListKind, userID, movieID int64) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("unknown list kind %q", kind)
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM `+kind.table()+` WHERE user_id = $1 AND movie_id = $2)
	`, userID, movieID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}

// Toggle flips the movie's membership in the user's list. The membership row
// and the movie_stats counter change in the same transaction so the counter
// can never drift from the true cardinality.
func (s *Store) Toggle(ctx context.Context, kind ListKind, userID, movieID int64) (ToggleResult, error) {
	if !kind.Valid() {
		return ToggleResult{}, fmt.Errorf("unknown list kind %q", kind)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	var movieExists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM movies WHERE id = $1)
	`, movieID).Scan(&movieExists)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("check movie: %w", err)
	}
	if !movieExists {
		return ToggleResult{}, ErrMovieNotFound
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM `+kind.table()+` WHERE user_id = $1 AND movie_id = $2
	`, userID, movieID)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("delete membership: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return ToggleResult{}, fmt.Errorf("rows affected: %w", err)
	}

	var result ToggleResult
	if affected > 0 {
		result.Added = false
		result.Count, err = decrementCounter(ctx, tx, kind, movieID)
		if err != nil {
			return ToggleResult{}, err
		}
	} else {
		result.Added = true
		inserted, err := insertMembership(ctx, tx, kind, userID, movieID)
		if err != nil {
			return ToggleResult{}, err
		}
		if inserted {
			result.Count, err = incrementCounter(ctx, tx, kind, movieID)
		} else {
			// A concurrent toggle won the insert; the row exists and the
			// counter already accounts for it.
			result.Count, err = currentCounter(ctx, tx, kind, movieID)
		}
		if err != nil {
			return ToggleResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return ToggleResult{}, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return result, nil
}

// RemoveFromAllLists drops the movie from every list it occupies for the
// user, decrementing the matching counters in one transaction. The boolean
// reports whether any membership existed.
func (s *Store) RemoveFromAllLists(ctx context.Context, userID, movieID int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	var movieExists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM movies WHERE id = $1)
	`, movieID).Scan(&movieExists)
	if err != nil {
		return false, fmt.Errorf("check movie: %w", err)
	}
	if !movieExists {
		return false, ErrMovieNotFound
	}

	removed := false
	for _, kind := range []ListKind{ListWatchlist, ListFavorites, ListWatched} {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM `+kind.table()+` WHERE user_id = $1 AND movie_id = $2
		`, userID, movieID)
		if err != nil {
			return false, fmt.Errorf("delete from %s: %w", kind, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("rows affected: %w", err)
		}
		if affected > 0 {
			removed = true
			if _, err := decrementCounter(ctx, tx, kind, movieID); err != nil {
				return false, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return removed, nil
}

// MovieStatuses returns the ids held in each of the user's lists.
func (s *Store) MovieStatuses(ctx context.Context, userID int64) (ListStatuses, error) {
	var statuses ListStatuses
	for _, entry := range []struct {
		kind ListKind
		dest *[]int64
	}{
		{ListWatchlist, &statuses.Watchlist},
		{ListFavorites, &statuses.Favorites},
		{ListWatched, &statuses.Watched},
	} {
		ids, err := s.listMovieIDs(ctx, entry.kind, userID)
		if err != nil {
			return ListStatuses{}, err
		}
		*entry.dest = ids
	}
	return statuses, nil
}

// Library returns the user's lists as movies. The watched list is ordered by
// recency; the others by when they were added.
func (s *Store) Library(ctx context.Context, userID int64) (Library, error) {
	var lib Library
	var err error

	if lib.Watchlist, err = s.listMovies(ctx, ListWatchlist, userID, "l.added_at DESC"); err != nil {
		return Library{}, err
	}
	if lib.Favorites, err = s.listMovies(ctx, ListFavorites, userID, "l.added_at DESC"); err != nil {
		return Library{}, err
	}
	if lib.Watched, err = s.listMovies(ctx, ListWatched, userID, "l.watched_at DESC"); err != nil {
		return Library{}, err
	}

	return lib, nil
}

// RecountStats resets the list counters to the true membership cardinalities.
// Intended for operators; nothing schedules it.
func (s *Store) RecountStats(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE movie_stats st SET
			watchlist_count = (SELECT COUNT(*) FROM watchlist w WHERE w.movie_id = st.movie_id),
			favorites_count = (SELECT COUNT(*) FROM favorites f WHERE f.movie_id = st.movie_id),
			watched_count = (SELECT COUNT(*) FROM watched wd WHERE wd.movie_id = st.movie_id)
	`)
	if err != nil {
		return fmt.Errorf("recount stats: %w", err)
	}
	return nil
}

func (s *Store) listMovieIDs(ctx context.Context, kind ListKind, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT movie_id FROM `+kind.table()+` WHERE user_id = $1 ORDER BY movie_id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select %s ids: %w", kind, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan movie id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s ids: %w", kind, err)
	}
	return ids, nil
}

func (s *Store) listMovies(ctx context.Context, kind ListKind, userID int64, order string) ([]Movie, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+movieColumns+`
		FROM movies m
		JOIN `+kind.table()+` l ON l.movie_id = m.id
		WHERE l.user_id = $1
		ORDER BY `+order+`
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select %s movies: %w", kind, err)
	}
	return collectMovies(rows)
}

// insertMembership adds the list row, reporting false when a concurrent
// request already created it.
func insertMembership(ctx context.Context, tx *sql.Tx, kind ListKind, userID, movieID int64) (bool, error) {
	var query string
	if kind == ListWatched {
		query = `
			INSERT INTO watched (user_id, movie_id, watched_at)
			VALUES ($1, $2, now())
			ON CONFLICT (user_id, movie_id) DO NOTHING
		`
	} else {
		query = `
			INSERT INTO ` + kind.table() + ` (user_id, movie_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, movie_id) DO NOTHING
		`
	}

	res, err := tx.ExecContext(ctx, query, userID, movieID)
	if err != nil {
		return false, fmt.Errorf("insert membership: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// incrementCounter bumps the stats counter, creating the stats row when the
// ingestion process did not seed one.
func incrementCounter(ctx context.Context, tx *sql.Tx, kind ListKind, movieID int64) (int, error) {
	col := kind.counterColumn()
	var count int
	err := tx.QueryRowContext(ctx, `
		INSERT INTO movie_stats (movie_id, `+col+`)
		VALUES ($1, 1)
		ON CONFLICT (movie_id) DO UPDATE SET `+col+` = movie_stats.`+col+` + 1
		RETURNING `+col+`
	`, movieID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", col, err)
	}
	return count, nil
}

// decrementCounter lowers the stats counter, never below zero.
func decrementCounter(ctx context.Context, tx *sql.Tx, kind ListKind, movieID int64) (int, error) {
	col := kind.counterColumn()
	var count int
	err := tx.QueryRowContext(ctx, `
		UPDATE movie_stats
		SET `+col+` = GREATEST(`+col+` - 1, 0)
		WHERE movie_id = $1
		RETURNING `+col+`
	`, movieID).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("decrement %s: %w", col, err)
	}
	return count, nil
}

func currentCounter(ctx context.Context, tx *sql.Tx, kind ListKind, movieID int64) (int, error) {
	col := kind.counterColumn()
	var count int
	err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(`+col+`, 0) FROM movie_stats WHERE movie_id = $1
	`, movieID).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("read %s: %w", col, err)
	}
	return count, nil
}
