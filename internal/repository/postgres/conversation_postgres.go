package postgres

import (
	"context"
	"database/sql"

	"pichat/internal/model"
	"pichat/internal/repository"
)

// ConversationPostgres is a PostgreSQL implementation of
// repository.ConversationRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type ConversationPostgres struct {
	db *sql.DB
}

// NewConversationPostgres creates a new ConversationPostgres repository.
func NewConversationPostgres(db *sql.DB) *ConversationPostgres {
	return &ConversationPostgres{db: db}
}

var _ repository.ConversationRepository = (*ConversationPostgres)(nil)

const conversationColumns = `id, node_id, peer_id, subject, initiated, turns, storage_path, started_at, ended_at`

// Create inserts a new conversation row and returns the stored record.
func (r *ConversationPostgres) Create(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	const q = `
		INSERT INTO conversations (id, node_id, peer_id, subject, initiated, turns, storage_path, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + conversationColumns

	row := r.db.QueryRowContext(ctx, q,
		conv.ID,
		conv.NodeID,
		conv.PeerID,
		conv.Subject,
		conv.Initiated,
		conv.Turns,
		conv.StoragePath,
		conv.StartedAt,
		conv.EndedAt,
	)
	return scanConversation(row)
}

// FindByID fetches a single conversation by its ID.
func (r *ConversationPostgres) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	const q = `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE id = $1
	`
	return scanConversation(r.db.QueryRowContext(ctx, q, id))
}

// List returns conversations using LIMIT/OFFSET pagination and a total count.
func (r *ConversationPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Conversation], error) {
	const qCount = `SELECT COUNT(*) FROM conversations`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + conversationColumns + `
		FROM conversations
		ORDER BY ended_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Conversation, 0)
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(
			&c.ID,
			&c.NodeID,
			&c.PeerID,
			&c.Subject,
			&c.Initiated,
			&c.Turns,
			&c.StoragePath,
			&c.StartedAt,
			&c.EndedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Conversation]{Items: items, Total: total}, nil
}

func scanConversation(row *sql.Row) (*model.Conversation, error) {
	var c model.Conversation
	if err := row.Scan(
		&c.ID,
		&c.NodeID,
		&c.PeerID,
		&c.Subject,
		&c.Initiated,
		&c.Turns,
		&c.StoragePath,
		&c.StartedAt,
		&c.EndedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
