package service

import (
	"context"

	"pichat/internal/model"
)

// noopArchive is used when no database is configured: conversations are
// simply not archived and the read endpoints report the archive disabled.
type noopArchive struct{}

// NewNoopArchive returns an ArchiveService that discards conversations.
func NewNoopArchive() ArchiveService { return noopArchive{} }

func (noopArchive) Archive(context.Context, *model.Conversation, []model.TranscriptEntry) error {
	return nil
}

func (noopArchive) Get(context.Context, string) (*model.Conversation, error) {
	return nil, ErrArchiveDisabled
}

func (noopArchive) List(context.Context, int, int) (*ConversationListResult, error) {
	return nil, ErrArchiveDisabled
}

func (noopArchive) Transcript(context.Context, string) (*model.Transcript, error) {
	return nil, ErrArchiveDisabled
}

func (noopArchive) Enabled() bool { return false }
