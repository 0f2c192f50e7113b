package model

import "time"

// TranscriptEntry is a single utterance inside a conversation transcript.
type TranscriptEntry struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// Conversation represents one finished chat between this node and its peer.
// The transcript itself lives in object storage; the row keeps metadata plus
// the storage key of the transcript JSON.
type Conversation struct {
	ID          string    `json:"id"`
	NodeID      string    `json:"node_id"`
	PeerID      string    `json:"peer_id"`
	Subject     string    `json:"subject"`
	Initiated   bool      `json:"initiated"`
	Turns       int       `json:"turns"`
	StoragePath string    `json:"storage_path"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
}

// Transcript is the JSON document uploaded to object storage per conversation.
type Transcript struct {
	ConversationID string            `json:"conversation_id"`
	Subject        string            `json:"subject"`
	Entries        []TranscriptEntry `json:"entries"`
}
