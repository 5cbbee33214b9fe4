package database

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var (
	// ErrNotFound is returned when a query matched no row.
	ErrNotFound = errors.New("database: not found")
	// ErrDuplicate is returned when an insert hit a unique constraint.
	ErrDuplicate = errors.New("database: duplicate")
)

// Classify maps driver errors onto ErrNotFound and ErrDuplicate. Other errors pass through.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
