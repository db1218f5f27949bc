package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestToggleAddsMembership(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM movies WHERE id = $1)`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM watchlist WHERE user_id = $1 AND movie_id = $2`)).
		WithArgs(int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO watchlist (user_id, movie_id)`)).
		WithArgs(int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO movie_stats (movie_id, watchlist_count)`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"watchlist_count"}).AddRow(1))
	mock.ExpectCommit()

	got, err := s.Toggle(context.Background(), ListWatchlist, 1, 7)
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	if !got.Added {
		t.Fatalf("expected membership added")
	}
	if got.Count != 1 {
		t.Fatalf("expected count 1, got %d", got.Count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestToggleRemovesMembershipAndFloorsCounter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM movies WHERE id = $1)`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM favorites WHERE user_id = $1 AND movie_id = $2`)).
		WithArgs(int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SET favorites_count = GREATEST(favorites_count - 1, 0)`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"favorites_count"}).AddRow(0))
	mock.ExpectCommit()

	got, err := s.Toggle(context.Background(), ListFavorites, 1, 7)
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	if got.Added {
		t.Fatalf("expected membership removed")
	}
	if got.Count != 0 {
		t.Fatalf("expected count 0, got %d", got.Count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestToggleMissingMovie(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM movies WHERE id = $1)`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err = s.Toggle(context.Background(), ListWatched, 1, 99)
	if !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("expected ErrMovieNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestToggleConcurrentInsertTreatedAsMember(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM movies WHERE id = $1)`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM watched WHERE user_id = $1 AND movie_id = $2`)).
		WithArgs(int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO watched (user_id, movie_id, watched_at)`)).
		WithArgs(int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(watched_count, 0) FROM movie_stats WHERE movie_id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"watched_count"}).AddRow(3))
	mock.ExpectCommit()

	got, err := s.Toggle(context.Background(), ListWatched, 1, 7)
	if err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	if !got.Added {
		t.Fatalf("expected member state after losing insert race")
	}
	if got.Count != 3 {
		t.Fatalf("expected count 3, got %d", got.Count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestToggleUnknownKind(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	if _, err := s.Toggle(context.Background(), ListKind("ratings"), 1, 7); err == nil {
		t.Fatalf("expected error for unknown list kind")
	}
}

func TestRemoveFromAllListsNoMembership(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM movies WHERE id = $1)`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	for _, table := range []string{"watchlist", "favorites", "watched"} {
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM ` + table + ` WHERE user_id = $1 AND movie_id = $2`)).
			WithArgs(int64(1), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	removed, err := s.RemoveFromAllLists(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("RemoveFromAllLists error: %v", err)
	}
	if removed {
		t.Fatalf("expected no-op removal")
	}

	// No counter updates were expected; any would fail here.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRemoveFromAllListsDecrementsEachCounter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM movies WHERE id = $1)`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM watchlist WHERE user_id = $1 AND movie_id = $2`)).
		WithArgs(int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SET watchlist_count = GREATEST(watchlist_count - 1, 0)`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"watchlist_count"}).AddRow(4))

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM favorites WHERE user_id = $1 AND movie_id = $2`)).
		WithArgs(int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM watched WHERE user_id = $1 AND movie_id = $2`)).
		WithArgs(int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SET watched_count = GREATEST(watched_count - 1, 0)`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"watched_count"}).AddRow(0))

	mock.ExpectCommit()

	removed, err := s.RemoveFromAllLists(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("RemoveFromAllLists error: %v", err)
	}
	if !removed {
		t.Fatalf("expected removal to be reported")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRemoveFromAllListsMissingMovie(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM movies WHERE id = $1)`)).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err = s.RemoveFromAllLists(context.Background(), 1, 404)
	if !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("expected ErrMovieNotFound, got %v", err)
	}
}

func TestIsMember(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND movie_id = $2)`)).
		WithArgs(int64(1), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	member, err := s.IsMember(context.Background(), ListFavorites, 1, 7)
	if err != nil {
		t.Fatalf("IsMember error: %v", err)
	}
	if !member {
		t.Fatalf("expected membership")
	}
}

func TestMovieStatuses(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT movie_id FROM watchlist WHERE user_id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id"}).AddRow(int64(2)).AddRow(int64(5)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT movie_id FROM favorites WHERE user_id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT movie_id FROM watched WHERE user_id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id"}).AddRow(int64(9)))

	statuses, err := s.MovieStatuses(context.Background(), 1)
	if err != nil {
		t.Fatalf("MovieStatuses error: %v", err)
	}
	if len(statuses.Watchlist) != 2 || len(statuses.Favorites) != 0 || len(statuses.Watched) != 1 {
		t.Fatalf("unexpected statuses: %+v", statuses)
	}
}
