package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessagePointerRepository stores where each order card was posted.
type MessagePointerRepository struct {
	pool *pgxpool.Pool
}

func NewMessagePointerRepository(pool *pgxpool.Pool) *MessagePointerRepository {
	return &MessagePointerRepository{pool: pool}
}

// ensureTable creates order_message_pointers if missing (safety net when
// migrate was not run).
func (r *MessagePointerRepository) ensureTable(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS order_message_pointers (
			order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			chat_id BIGINT NOT NULL,
			message_id INT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (order_id, chat_id)
		)
	`)
	return err
}

func isRelationNotExist(err error) bool {
	return err != nil && strings.Contains(err.Error(), "order_message_pointers") && strings.Contains(err.Error(), "does not exist")
}

func (r *MessagePointerRepository) GetMessagePointer(ctx context.Context, orderID string, chatID int64) (int, bool, error) {
	var messageID int
	err := r.pool.QueryRow(ctx, `
		SELECT message_id FROM order_message_pointers WHERE order_id = $1 AND chat_id = $2`,
		orderID, chatID,
	).Scan(&messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		if isRelationNotExist(err) {
			if ensureErr := r.ensureTable(ctx); ensureErr != nil {
				return 0, false, ensureErr
			}
			return 0, false, nil
		}
		return 0, false, err
	}
	return messageID, true, nil
}

func (r *MessagePointerRepository) UpsertMessagePointer(ctx context.Context, orderID string, chatID int64, messageID int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO order_message_pointers (order_id, chat_id, message_id, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (order_id, chat_id) DO UPDATE SET message_id = EXCLUDED.message_id, updated_at = now()`,
		orderID, chatID, messageID,
	)
	if err != nil && isRelationNotExist(err) {
		if ensureErr := r.ensureTable(ctx); ensureErr != nil {
			return ensureErr
		}
		return r.UpsertMessagePointer(ctx, orderID, chatID, messageID)
	}
	return err
}
