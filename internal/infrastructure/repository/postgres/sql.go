package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports a postgres unique constraint violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
