package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhishek-bajpai1/athletecho/internal/model"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
)

const userColumns = `uid, display_name, photo_url, email, online, last_seen, title, location, about,
	social_links, achievements, games, create_at, update_at`

// UserRepository stores user profiles.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a user repository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*model.UserProfile, error) {
	u := &model.UserProfile{}
	err := row.Scan(
		&u.UID,
		&u.DisplayName,
		&u.PhotoURL,
		&u.Email,
		&u.Online,
		&u.LastSeen,
		&u.Title,
		&u.Location,
		&u.About,
		&u.SocialLinks,
		&u.Achievements,
		&u.Games,
		&u.CreateAt,
		&u.UpdateAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpsertSignIn creates or refreshes the profile of a signed-in identity and
// marks it online. Athlete profile fields are left untouched.
func (r *UserRepository) UpsertSignIn(ctx context.Context, id *model.Identity) (*model.UserProfile, error) {
	query := `
		INSERT INTO users (uid, display_name, photo_url, email, online, last_seen, create_at, update_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW(), NOW())
		ON CONFLICT (uid) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			photo_url    = EXCLUDED.photo_url,
			email        = EXCLUDED.email,
			online       = TRUE,
			last_seen    = NOW(),
			update_at    = NOW()
		RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRow(ctx, query, id.UID, id.DisplayName, id.PhotoURL, id.Email))
	if err != nil {
		return nil, storeErr(err)
	}
	return u, nil
}

// SetPresence updates the online flag and stamps last_seen.
func (r *UserRepository) SetPresence(ctx context.Context, uid string, online bool) error {
	query := `UPDATE users SET online = $2, last_seen = NOW() WHERE uid = $1`
	result, err := r.db.Exec(ctx, query, uid, online)
	if err != nil {
		return storeErr(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetByUID returns one profile.
func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*model.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, storeErr(err)
	}
	return u, nil
}

// UpdateProfile writes the editable profile fields of p.
func (r *UserRepository) UpdateProfile(ctx context.Context, p *model.UserProfile) error {
	query := `
		UPDATE users SET
			display_name = $2,
			title        = $3,
			location     = $4,
			about        = $5,
			social_links = $6,
			achievements = $7,
			games        = $8,
			update_at    = NOW()
		WHERE uid = $1
		RETURNING update_at
	`
	achievements := p.Achievements
	if achievements == nil {
		achievements = []string{}
	}
	err := r.db.QueryRow(ctx, query,
		p.UID,
		p.DisplayName,
		p.Title,
		p.Location,
		p.About,
		p.SocialLinks,
		achievements,
		p.Games,
	).Scan(&p.UpdateAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrUserNotFound
		}
		return storeErr(err)
	}
	return nil
}

// UpdatePhoto sets the profile picture URL.
func (r *UserRepository) UpdatePhoto(ctx context.Context, uid, photoURL string) error {
	query := `UPDATE users SET photo_url = $2, update_at = NOW() WHERE uid = $1`
	result, err := r.db.Exec(ctx, query, uid, photoURL)
	if err != nil {
		return storeErr(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// ListExcept returns every profile but uid's, by display name.
func (r *UserRepository) ListExcept(ctx context.Context, uid string) ([]*model.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uid <> $1 ORDER BY display_name, uid`
	rows, err := r.db.Query(ctx, query, uid)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	users := make([]*model.UserProfile, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, storeErr(rows.Err())
}
