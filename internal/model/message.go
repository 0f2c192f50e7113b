package model

import "time"

// ChatMessage is the JSON envelope carried on a node's MQTT inbox topic.
// This is a pure domain model with no transport-specific dependencies;
// it can be used across layers (MQTT, engine, archive) without coupling.
type ChatMessage struct {
	ID     string    `json:"id"`
	From   string    `json:"from"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// Presence is the last observed heartbeat of a peer node.
type Presence struct {
	NodeID   string    `json:"node_id"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen"`
}
