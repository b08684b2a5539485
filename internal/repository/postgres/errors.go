package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

const (
	pgForeignKeyViolation  = "23503"
	pgUniqueViolation      = "23505"
	pgInvalidTextRepresent = "22P02"
)

func pgErrorCode(err error) string {
	var perr *pq.Error
	if errors.As(err, &perr) {
		return string(perr.Code)
	}
	return ""
}

// isMissing reports whether err means the addressed row does not exist, including ids that
// are not valid UUIDs.
func isMissing(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || pgErrorCode(err) == pgInvalidTextRepresent
}
