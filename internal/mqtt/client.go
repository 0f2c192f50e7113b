package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pichat/internal/config"
	"pichat/internal/metrics"
	"pichat/internal/model"
)

// inboxBuffer bounds the channel between the paho callback and the engine.
// The callback must never block; overflow envelopes are dropped and counted.
const inboxBuffer = 32

// dedupeWindow is how many recent envelope IDs are remembered to absorb
// QoS 1 redelivery.
const dedupeWindow = 256

// Client is the broker session used by the chat engine and the tool registry.
type Client interface {
	// Connect establishes the broker session, subscribes to the node's
	// topics and announces the node online.
	Connect(ctx context.Context) error

	// Close announces the node offline and tears the session down.
	Close()

	// SendChat publishes a chat envelope to the given node's inbox (QoS 1)
	// and returns the envelope that was sent.
	SendChat(ctx context.Context, to, body string) (model.ChatMessage, error)

	// PublishPresence publishes this node's retained heartbeat.
	PublishPresence(online bool) error

	// AnnounceSubject broadcasts the current conversation subject (retained).
	// An empty subject clears the broadcast.
	AnnounceSubject(subject string) error

	// Messages delivers inbound chat envelopes addressed to this node.
	Messages() <-chan model.ChatMessage

	// PeerOnline reports whether the node's heartbeat is live.
	PeerOnline(node string) bool

	// PeerSubject returns the subject last announced by the node.
	PeerSubject(node string) string

	// Connected reports whether the broker session is up.
	Connected() bool
}

// session implements Client on eclipse/paho.
type session struct {
	node    string
	cli     paho.Client
	tracker *presenceTracker
	inbox   chan model.ChatMessage
	recent  *ringSet
	met     *metrics.Metrics
	log     *logrus.Entry
}

// New creates a broker session for the given node. The session registers a
// retained last-will "offline" so the peer sees a crash immediately instead
// of waiting out the heartbeat TTL.
func New(nodeID string, cfg config.BrokerConfig, ttl time.Duration, met *metrics.Metrics, log *logrus.Logger) Client {
	s := &session{
		node:    nodeID,
		tracker: newPresenceTracker(ttl),
		inbox:   make(chan model.ChatMessage, inboxBuffer),
		recent:  newRingSet(dedupeWindow),
		met:     met,
		log:     log.WithField("component", "mqtt"),
	}

	clientID := fmt.Sprintf("pichat-%s-%s", nodeID, uuid.NewString()[:8])

	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)).
		SetClientID(clientID).
		SetKeepAlive(cfg.KeepAlive).
		SetAutoReconnect(true).
		SetWill(presenceTopic(nodeID), "offline", 0, true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			s.log.WithError(err).Warn("broker connection lost")
		}).
		SetOnConnectHandler(func(c paho.Client) {
			// Auto-reconnect does not restore subscriptions; re-establish
			// them on every (re)connect.
			s.subscribe(c)
			s.log.Info("broker connected")
		})

	s.cli = paho.NewClient(opts)
	return s
}

func (s *session) Connect(ctx context.Context) error {
	if err := waitToken(ctx, s.cli.Connect()); err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}
	if err := s.PublishPresence(true); err != nil {
		return err
	}
	return nil
}

func (s *session) Close() {
	if s.cli.IsConnected() {
		_ = s.PublishPresence(false)
		// Leave the broker a moment to flush the retained offline marker.
		s.cli.Disconnect(250)
	}
}

func (s *session) subscribe(c paho.Client) {
	subs := map[string]byte{
		inboxTopic(s.node):                   1,
		presencePrefix + "+" + presenceSuffix: 0,
		subjectPrefix + "+":                  0,
	}
	if tok := c.SubscribeMultiple(subs, s.onMessage); tok.Wait() && tok.Error() != nil {
		s.log.WithError(tok.Error()).Error("subscribe failed")
	}
}

func (s *session) onMessage(_ paho.Client, msg paho.Message) {
	s.handle(msg.Topic(), msg.Payload())
}

// handle routes one raw broker message. Split from the paho callback so the
// routing rules are testable without a broker.
func (s *session) handle(topic string, payload []byte) {
	if node := presenceNode(topic); node != "" {
		online := string(payload) == "online"
		s.tracker.update(node, online)
		s.log.WithFields(logrus.Fields{"node": node, "online": online}).Debug("presence update")
		return
	}

	if node := subjectNode(topic); node != "" {
		s.tracker.setSubject(node, string(payload))
		return
	}

	if topic != inboxTopic(s.node) {
		return
	}

	var env model.ChatMessage
	if err := json.Unmarshal(payload, &env); err != nil {
		s.log.WithError(err).Warn("malformed chat envelope")
		s.met.MessagesDropped.Inc()
		return
	}
	if env.From == s.node {
		return
	}
	if !s.recent.add(env.ID) {
		s.met.MessagesDropped.Inc()
		return
	}

	select {
	case s.inbox <- env:
		s.met.MessagesReceived.Inc()
	default:
		s.log.WithField("id", env.ID).Warn("inbox buffer full, dropping envelope")
		s.met.MessagesDropped.Inc()
	}
}

func (s *session) SendChat(ctx context.Context, to, body string) (model.ChatMessage, error) {
	env := model.ChatMessage{
		ID:     uuid.NewString(),
		From:   s.node,
		Body:   body,
		SentAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("encode envelope: %w", err)
	}
	if err := waitToken(ctx, s.cli.Publish(inboxTopic(to), 1, false, payload)); err != nil {
		return model.ChatMessage{}, fmt.Errorf("publish chat: %w", err)
	}
	s.met.MessagesSent.Inc()
	return env, nil
}

func (s *session) PublishPresence(online bool) error {
	payload := "offline"
	if online {
		payload = "online"
	}
	tok := s.cli.Publish(presenceTopic(s.node), 0, true, payload)
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("publish presence: %w", err)
	}
	return nil
}

func (s *session) AnnounceSubject(subject string) error {
	tok := s.cli.Publish(subjectTopic(s.node), 0, true, subject)
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("announce subject: %w", err)
	}
	return nil
}

func (s *session) Messages() <-chan model.ChatMessage { return s.inbox }

func (s *session) PeerOnline(node string) bool {
	// A node is always online to itself.
	if node == s.node {
		return true
	}
	return s.tracker.online(node)
}

func (s *session) PeerSubject(node string) string { return s.tracker.subject(node) }

func (s *session) Connected() bool { return s.cli.IsConnectionOpen() }

func waitToken(ctx context.Context, tok paho.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ringSet remembers the last capacity ids added; add reports false for ids
// already present.
type ringSet struct {
	ids   map[string]struct{}
	order []string
	next  int
}

func newRingSet(capacity int) *ringSet {
	return &ringSet{
		ids:   make(map[string]struct{}, capacity),
		order: make([]string, capacity),
	}
}

func (r *ringSet) add(id string) bool {
	if _, ok := r.ids[id]; ok {
		return false
	}
	if old := r.order[r.next]; old != "" {
		delete(r.ids, old)
	}
	r.order[r.next] = id
	r.next = (r.next + 1) % len(r.order)
	r.ids[id] = struct{}{}
	return true
}
