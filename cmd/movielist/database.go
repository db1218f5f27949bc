package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	dbPingTimeout = 5 * time.Second
	dbConnectWait = 30 * time.Second
)

// openDatabase opens a connection pool and waits for the instance to answer
// a ping. Container orchestration often starts the app before Postgres is
// ready, so failed pings are retried with growing pauses until dbConnectWait
// runs out.
func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	deadline := time.Now().Add(dbConnectWait)
	pause := 500 * time.Millisecond

	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return db, nil
		}

		if ctx.Err() != nil || time.Now().After(deadline) {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}

		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", pause).Msg("database not ready")
		time.Sleep(pause)
		if pause < 5*time.Second {
			pause *= 2
		}
	}
}
