package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"procurement-be/internal/apperror"

	"github.com/lib/pq"
)

const (
	PgUniqueViolation   = "23505"
	PgNumericOutOfRange = "22003"
)

// Classify leaves domain failures untouched and turns connectivity failures
// into StorageUnavailable. Anything else passes through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}

	if IsUnavailable(err) {
		return apperror.Wrap(apperror.KindStorageUnavailable, "storage unavailable", err)
	}
	return err
}

func IsUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		class := string(pqErr.Code)
		// 08 connection exception, 53 insufficient resources, 57P operator intervention
		return strings.HasPrefix(class, "08") ||
			strings.HasPrefix(class, "53") ||
			strings.HasPrefix(class, "57P")
	}
	return false
}

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation, optionally on the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != PgUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// IsOutOfRange reports whether a value overflowed its column type.
func IsOutOfRange(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == PgNumericOutOfRange
}
