package repository

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
)

// storeErr maps connectivity failures onto ErrBackendUnavailable and
// passes everything else through.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	var connectErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connectErr),
		pgconn.Timeout(err),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return apperrors.ErrBackendUnavailable.Wrap(err)
	}
	return err
}

// cacheErr is storeErr for Redis replies. redis.Nil is never an outage.
func cacheErr(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	return storeErr(err)
}

// isForeignKeyViolation reports a 23503 error from PostgreSQL.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
