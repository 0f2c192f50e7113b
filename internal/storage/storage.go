package storage

import (
	"context"
	"time"

	"pichat/internal/model"
)

// Package storage persists conversation transcripts in S3-compatible object
// storage. Transcripts are small JSON documents, so the interface works on
// decoded values rather than streams.

// ObjectInfo contains basic information about a stored transcript object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// TranscriptStore is a reusable S3-compatible store for transcript JSON.
type TranscriptStore interface {
	// Put uploads a transcript under the given key.
	Put(ctx context.Context, key string, tr *model.Transcript) (ObjectInfo, error)
	// Get retrieves and decodes a transcript by key.
	Get(ctx context.Context, key string) (*model.Transcript, error)
	// Delete removes a transcript by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL for downloading the raw object
	// without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
