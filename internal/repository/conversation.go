package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhishek-bajpai1/athletecho/internal/model"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
)

const conversationColumns = `id, user_a, user_b, last_message, last_time, create_at`

// ConversationRepository stores conversations and their messages.
type ConversationRepository struct {
	db *pgxpool.Pool
}

// NewConversationRepository creates a conversation repository.
func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func scanConversation(row pgx.Row, extra ...any) (*model.Conversation, error) {
	c := &model.Conversation{}
	dest := append([]any{
		&c.ID,
		&c.Participants[0],
		&c.Participants[1],
		&c.LastMessage,
		&c.LastTime,
		&c.CreateAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateIfAbsent inserts the conversation unless it exists and reports
// whether this call created it.
func (r *ConversationRepository) CreateIfAbsent(ctx context.Context, c *model.Conversation) (bool, error) {
	query := `
		INSERT INTO conversations (id, user_a, user_b, last_message, last_time, create_at)
		VALUES ($1, $2, $3, '', NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, c.ID, c.Participants[0], c.Participants[1])
	if err != nil {
		return false, storeErr(err)
	}
	return result.RowsAffected() == 1, nil
}

// Get returns a conversation by pair key.
func (r *ConversationRepository) Get(ctx context.Context, id string) (*model.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	c, err := scanConversation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, storeErr(err)
	}
	return c, nil
}

// AppendMessage stores msg and moves the conversation preview to it in one
// transaction. SentAt is assigned by the database.
func (r *ConversationRepository) AppendMessage(ctx context.Context, msg *model.Message) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO messages (id, conversation_id, sender_id, text, sent_at, read)
		VALUES ($1, $2, $3, $4, clock_timestamp(), FALSE)
		RETURNING sent_at
	`
	err = tx.QueryRow(ctx, insert, msg.ID, msg.ConversationID, msg.SenderID, msg.Text).Scan(&msg.SentAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrConversationNotFound
		}
		return storeErr(err)
	}

	// GREATEST keeps the preview on the newest message when sends commit out
	// of order.
	update := `
		UPDATE conversations
		SET last_message = CASE WHEN $3 >= last_time THEN $2 ELSE last_message END,
		    last_time    = GREATEST(last_time, $3)
		WHERE id = $1
	`
	result, err := tx.Exec(ctx, update, msg.ConversationID, msg.Text, msg.SentAt)
	if err != nil {
		return storeErr(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrConversationNotFound
	}

	return storeErr(tx.Commit(ctx))
}

// MarkRead flips every unread message of the conversation not sent by
// viewer and returns how many changed.
func (r *ConversationRepository) MarkRead(ctx context.Context, id, viewer string) (int64, error) {
	query := `
		UPDATE messages SET read = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2 AND read = FALSE
	`
	result, err := r.db.Exec(ctx, query, id, viewer)
	if err != nil {
		return 0, storeErr(err)
	}
	return result.RowsAffected(), nil
}

// ListForUser returns uid's conversations, most recent activity first, with
// uid's unread count.
func (r *ConversationRepository) ListForUser(ctx context.Context, uid string) ([]*model.ConversationSummary, error) {
	query := `
		SELECT c.id, c.user_a, c.user_b, c.last_message, c.last_time, c.create_at,
		       (SELECT COUNT(*) FROM messages m
		        WHERE m.conversation_id = c.id AND m.sender_id <> $1 AND NOT m.read) AS unread
		FROM conversations c
		WHERE c.user_a = $1 OR c.user_b = $1
		ORDER BY c.last_time DESC, c.id
	`
	rows, err := r.db.Query(ctx, query, uid)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	list := make([]*model.ConversationSummary, 0)
	for rows.Next() {
		var unread int
		c, err := scanConversation(rows, &unread)
		if err != nil {
			return nil, err
		}
		list = append(list, &model.ConversationSummary{
			Conversation: c,
			OtherUID:     c.Other(uid),
			UnreadCount:  unread,
		})
	}
	return list, storeErr(rows.Err())
}

// ListMessages returns the conversation's messages oldest first.
func (r *ConversationRepository) ListMessages(ctx context.Context, id string) ([]*model.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, text, sent_at, read
		FROM messages
		WHERE conversation_id = $1
		ORDER BY sent_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	msgs := make([]*model.Message, 0)
	for rows.Next() {
		m := &model.Message{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Text, &m.SentAt, &m.Read); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, storeErr(rows.Err())
}
