package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"

	"pichat/internal/model"
	"pichat/internal/repository"
	"pichat/internal/storage"
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrNotFound        = errors.New("conversation not found")
	ErrNoEntries       = errors.New("transcript has no entries")
	ErrArchiveDisabled = errors.New("conversation archive is disabled")
)

// ConversationListResult is the service-level DTO for paginated conversations.
type ConversationListResult struct {
	Items []model.Conversation `json:"data"`
	Total int                  `json:"total"`
}

// ArchiveService persists finished conversations: the transcript goes to
// object storage, the metadata row to the database.
type ArchiveService interface {
	// Archive uploads the transcript and saves the conversation row,
	// rolling the object back if the row insert fails.
	Archive(ctx context.Context, conv *model.Conversation, entries []model.TranscriptEntry) error

	// Get returns a single archived conversation by its ID.
	Get(ctx context.Context, id string) (*model.Conversation, error)

	// List returns archived conversations using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*ConversationListResult, error)

	// Transcript fetches the transcript document of an archived conversation.
	Transcript(ctx context.Context, id string) (*model.Transcript, error)

	// Enabled reports whether archiving is configured.
	Enabled() bool
}

// archiveService is the concrete implementation used when a database and
// object storage are configured.
type archiveService struct {
	store storage.TranscriptStore
	repo  repository.ConversationRepository
}

// NewArchiveService constructs an ArchiveService.
func NewArchiveService(store storage.TranscriptStore, repo repository.ConversationRepository) ArchiveService {
	return &archiveService{store: store, repo: repo}
}

func (s *archiveService) Archive(ctx context.Context, conv *model.Conversation, entries []model.TranscriptEntry) error {
	if conv.ID == "" {
		return ErrIDRequired
	}
	if len(entries) == 0 {
		return ErrNoEntries
	}

	key := path.Join("transcripts", conv.ID+".json")
	tr := &model.Transcript{
		ConversationID: conv.ID,
		Subject:        conv.Subject,
		Entries:        entries,
	}

	if _, err := s.store.Put(ctx, key, tr); err != nil {
		return fmt.Errorf("upload transcript: %w", err)
	}

	conv.StoragePath = key
	if _, err := s.repo.Create(ctx, conv); err != nil {
		// Rollback: delete the transcript object from storage.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return fmt.Errorf("db save failed: %w", err)
	}
	return nil
}

func (s *archiveService) Get(ctx context.Context, id string) (*model.Conversation, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	conv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return conv, nil
}

func (s *archiveService) List(ctx context.Context, limit, offset int) (*ConversationListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ConversationListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *archiveService) Transcript(ctx context.Context, id string) (*model.Transcript, error) {
	conv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, conv.StoragePath)
}

func (s *archiveService) Enabled() bool { return true }
