package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"busflow/internal/source"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Ping checks the connection, retrying with exponential backoff for up to maxWait.
func Ping(ctx context.Context, db *sql.DB, maxWait time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxWait
	op := func() error {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pctx)
	}
	notify := func(err error, d time.Duration) {
		log.Warn().Err(err).Dur("retryIn", d).Msg("db ping failed")
	}
	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
}

// recordsQuery selects the raw records of table in insertion order.
func recordsQuery(table string) string {
	return fmt.Sprintf(`SELECT record FROM %s ORDER BY id`, pgx.Identifier{table}.Sanitize())
}

// FetchRecords returns every raw record stored in table, ordered by id.
// Failures are reported as source.ErrInputUnavailable.
func FetchRecords(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, recordsQuery(table))
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", source.ErrInputUnavailable, table, err)
	}
	defer rows.Close()

	var records []string
	for rows.Next() {
		var rec sql.NullString
		if err := rows.Scan(&rec); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %w", source.ErrInputUnavailable, table, err)
		}
		// NULL records are treated as blank lines
		records = append(records, rec.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrInputUnavailable, err)
	}
	return records, nil
}

// LoadRecords opens dsn, waits for the database and fetches the records of table.
func LoadRecords(ctx context.Context, dsn, table string) ([]string, error) {
	conn, err := Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: db open: %w", source.ErrInputUnavailable, err)
	}
	defer conn.Close()
	if err := Ping(ctx, conn, 15*time.Second); err != nil {
		return nil, fmt.Errorf("%w: db ping: %w", source.ErrInputUnavailable, err)
	}
	return FetchRecords(ctx, conn, table)
}
