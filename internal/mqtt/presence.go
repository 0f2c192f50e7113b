package mqtt

import (
	"sync"
	"time"

	"pichat/internal/model"
)

// presenceTracker keeps the last observed heartbeat and subject broadcast per
// node. It is safe for concurrent use.
type presenceTracker struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	seen     map[string]model.Presence
	subjects map[string]string
}

func newPresenceTracker(ttl time.Duration) *presenceTracker {
	return &presenceTracker{
		ttl:      ttl,
		now:      time.Now,
		seen:     make(map[string]model.Presence),
		subjects: make(map[string]string),
	}
}

func (t *presenceTracker) update(node string, online bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[node] = model.Presence{NodeID: node, Online: online, LastSeen: t.now()}
}

func (t *presenceTracker) setSubject(node, subject string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subjects[node] = subject
}

func (t *presenceTracker) subject(node string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.subjects[node]
}

// online reports whether the node's last heartbeat was "online" and is
// younger than the TTL. A retained "offline" (including the broker-delivered
// last will) takes effect immediately.
func (t *presenceTracker) online(node string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.seen[node]
	if !ok || !p.Online {
		return false
	}
	return t.now().Sub(p.LastSeen) < t.ttl
}
