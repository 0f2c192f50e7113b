package repository

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.

import (
	"context"

	"pichat/internal/model"
)

// ConversationRepository defines data access for archived conversations
// using SQL queries only. No business logic here, strictly persistence.
type ConversationRepository interface {
	// Create inserts a new conversation record and returns the stored row.
	Create(ctx context.Context, conv *model.Conversation) (*model.Conversation, error)

	// FindByID returns a conversation by its ID.
	FindByID(ctx context.Context, id string) (*model.Conversation, error)

	// List returns a paginated list of conversations, newest first, and the
	// total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Conversation], error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
