package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhishek-bajpai1/athletecho/internal/model"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
)

const connectionColumns = `id, user_a, user_b, status, requested_by, create_at, update_at`

// ConnectionRepository stores one connection record per pair of users.
type ConnectionRepository struct {
	db *pgxpool.Pool
}

// NewConnectionRepository creates a connection repository.
func NewConnectionRepository(db *pgxpool.Pool) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

func scanConnection(row pgx.Row) (*model.Connection, error) {
	c := &model.Connection{}
	err := row.Scan(
		&c.ID,
		&c.Participants[0],
		&c.Participants[1],
		&c.Status,
		&c.RequestedBy,
		&c.CreateAt,
		&c.UpdateAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateIfAbsent inserts a pending record unless the pair already has one.
// It fails with ErrConnectionExists in that case and never touches the
// existing record.
func (r *ConnectionRepository) CreateIfAbsent(ctx context.Context, c *model.Connection) error {
	query := `
		INSERT INTO connections (id, user_a, user_b, status, requested_by, create_at, update_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
		RETURNING create_at, update_at
	`
	err := r.db.QueryRow(ctx, query,
		c.ID,
		c.Participants[0],
		c.Participants[1],
		c.Status,
		c.RequestedBy,
	).Scan(&c.CreateAt, &c.UpdateAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrConnectionExists
		}
		return storeErr(err)
	}
	return nil
}

// Get returns the record for a pair key.
func (r *ConnectionRepository) Get(ctx context.Context, id string) (*model.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`
	c, err := scanConnection(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConnectionNotFound
		}
		return nil, storeErr(err)
	}
	return c, nil
}

// Accept flips a pending record to accepted, provided the acceptor is not
// the initiator. A record that is gone or no longer pending yields
// ErrConnectionNotFound.
func (r *ConnectionRepository) Accept(ctx context.Context, id, acceptor string) (*model.Connection, error) {
	query := `
		UPDATE connections SET status = $2, update_at = NOW()
		WHERE id = $1 AND status = $3 AND requested_by <> $4
		RETURNING ` + connectionColumns
	c, err := scanConnection(r.db.QueryRow(ctx, query, id, model.ConnectionAccepted, model.ConnectionPending, acceptor))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConnectionNotFound
		}
		return nil, storeErr(err)
	}
	return c, nil
}

// Delete removes the record for a pair key. It reports whether a record
// existed.
func (r *ConnectionRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM connections WHERE id = $1`, id)
	if err != nil {
		return false, storeErr(err)
	}
	return result.RowsAffected() > 0, nil
}

// ListForUser returns every record uid participates in, most recently
// changed first.
func (r *ConnectionRepository) ListForUser(ctx context.Context, uid string) ([]*model.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE user_a = $1 OR user_b = $1
		ORDER BY update_at DESC, id
	`
	rows, err := r.db.Query(ctx, query, uid)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	conns := make([]*model.Connection, 0)
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, storeErr(rows.Err())
}
