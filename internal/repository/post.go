package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhishek-bajpai1/athletecho/internal/model"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
)

const postColumns = `id, author_id, author_name, author_photo, content, image_url, sport, create_at, liked_by, comment_count`

// PostRepository stores posts and comments.
type PostRepository struct {
	db *pgxpool.Pool
}

// NewPostRepository creates a post repository.
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db}
}

func scanPost(row pgx.Row) (*model.Post, error) {
	p := &model.Post{}
	err := row.Scan(
		&p.ID,
		&p.AuthorID,
		&p.AuthorName,
		&p.AuthorPhoto,
		&p.Content,
		&p.ImageURL,
		&p.Sport,
		&p.CreateAt,
		&p.LikedBy,
		&p.CommentCount,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a post with an empty liker set and no comments.
func (r *PostRepository) Create(ctx context.Context, p *model.Post) error {
	query := `
		INSERT INTO posts (id, author_id, author_name, author_photo, content, image_url, sport, create_at, liked_by, comment_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, clock_timestamp(), '{}', 0)
		RETURNING create_at
	`
	err := r.db.QueryRow(ctx, query,
		p.ID,
		p.AuthorID,
		p.AuthorName,
		p.AuthorPhoto,
		p.Content,
		p.ImageURL,
		p.Sport,
	).Scan(&p.CreateAt)
	if err != nil {
		return storeErr(err)
	}
	p.LikedBy = []string{}
	p.CommentCount = 0
	return nil
}

// Get returns one post.
func (r *PostRepository) Get(ctx context.Context, id int64) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	p, err := scanPost(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, storeErr(err)
	}
	return p, nil
}

// SetLike adds uid to or removes it from the liker set. Both directions are
// idempotent.
func (r *PostRepository) SetLike(ctx context.Context, id int64, uid string, liked bool) (*model.Post, error) {
	query := `UPDATE posts SET liked_by = array_remove(liked_by, $2) WHERE id = $1 RETURNING ` + postColumns
	if liked {
		query = `UPDATE posts SET liked_by = array_append(array_remove(liked_by, $2), $2) WHERE id = $1 RETURNING ` + postColumns
	}
	p, err := scanPost(r.db.QueryRow(ctx, query, id, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, storeErr(err)
	}
	return p, nil
}

// DeleteByAuthor removes a post authored by actor. Comments cascade.
func (r *PostRepository) DeleteByAuthor(ctx context.Context, id int64, actor string) error {
	var author string
	err := r.db.QueryRow(ctx, `
		WITH target AS (SELECT id, author_id FROM posts WHERE id = $1),
		     removed AS (DELETE FROM posts p USING target t WHERE p.id = t.id AND t.author_id = $2 RETURNING p.id)
		SELECT author_id FROM target
	`, id, actor).Scan(&author)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrPostNotFound
		}
		return storeErr(err)
	}
	if author != actor {
		return apperrors.ErrNotPostAuthor
	}
	return nil
}

// Recent returns the newest limit posts, newest first.
func (r *PostRepository) Recent(ctx context.Context, limit int) ([]*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY create_at DESC, id DESC LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	posts := make([]*model.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, storeErr(rows.Err())
}

// AddComment stores c and bumps the post's counter in one transaction.
func (r *PostRepository) AddComment(ctx context.Context, c *model.Comment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `UPDATE posts SET comment_count = comment_count + 1 WHERE id = $1`, c.PostID)
	if err != nil {
		return storeErr(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrPostNotFound
	}

	insert := `
		INSERT INTO comments (id, post_id, author_id, author_name, author_photo, text, create_at)
		VALUES ($1, $2, $3, $4, $5, $6, clock_timestamp())
		RETURNING create_at
	`
	err = tx.QueryRow(ctx, insert,
		c.ID,
		c.PostID,
		c.AuthorID,
		c.AuthorName,
		c.AuthorPhoto,
		c.Text,
	).Scan(&c.CreateAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrPostNotFound
		}
		return storeErr(err)
	}

	return storeErr(tx.Commit(ctx))
}

// ListComments returns a post's comments oldest first.
func (r *PostRepository) ListComments(ctx context.Context, postID int64) ([]*model.Comment, error) {
	query := `
		SELECT id, post_id, author_id, author_name, author_photo, text, create_at
		FROM comments
		WHERE post_id = $1
		ORDER BY create_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, postID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	comments := make([]*model.Comment, 0)
	for rows.Next() {
		c := &model.Comment{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.AuthorPhoto, &c.Text, &c.CreateAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, storeErr(rows.Err())
}
