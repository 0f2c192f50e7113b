package chat

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pichat/internal/config"
	"pichat/internal/display"
	"pichat/internal/llm"
	"pichat/internal/metrics"
	"pichat/internal/model"
	"pichat/internal/mqtt"
	"pichat/internal/service"
)

// Mode is the engine's current operating mode.
type Mode string

const (
	ModeIdle Mode = "idle"
	ModeChat Mode = "chat"
)

// maxToolRounds bounds how many function-call/function-response exchanges a
// single turn may take before the turn is abandoned.
const maxToolRounds = 4

// subjectTimeout caps how long chat initiation waits for a model-generated
// subject before falling back to the predefined list.
const subjectTimeout = 5 * time.Second

// ToolCaller dispatches model-requested function calls and describes the
// available functions. Implemented by the tools registry.
type ToolCaller interface {
	Declarations() []llm.FunctionDeclaration
	Call(ctx context.Context, name string, args map[string]any) (string, error)
}

// Snapshot is the engine state served by the HTTP status endpoint.
type Snapshot struct {
	NodeID     string `json:"node_id"`
	PeerID     string `json:"peer_id"`
	Mode       Mode   `json:"mode"`
	Subject    string `json:"subject"`
	PeerOnline bool   `json:"peer_online"`
	Turns      int    `json:"turns"`
}

// Engine runs the idle/chat mode machine for one node: screensaver rotation
// while idle, conversation initiation after a random idle window, LLM turns
// for every inbound peer message, and archival when a chat window closes.
//
// All state transitions happen on the Run goroutine; the mutex only guards
// the fields read by Snapshot/Mode/Subject from other goroutines.
type Engine struct {
	node    string
	peer    string
	timing  config.TimingConfig
	histMax int

	broker  mqtt.Client
	llm     llm.Client
	tools   ToolCaller
	display display.Renderer
	archive service.ArchiveService
	met     *metrics.Metrics
	log     *logrus.Entry

	mu         sync.RWMutex
	mode       Mode
	subject    string
	turns      int
	initiated  bool
	startedAt  time.Time
	history    []llm.Content
	transcript []model.TranscriptEntry

	now func() time.Time
	rng *rand.Rand
}

// New creates the engine. The tool caller is wired afterwards with SetTools
// because the tools registry needs the engine as its status provider.
func New(cfg *config.AppConfig, broker mqtt.Client, lc llm.Client, d display.Renderer, arch service.ArchiveService, met *metrics.Metrics, log *logrus.Logger) *Engine {
	return &Engine{
		node:    cfg.NodeID,
		peer:    cfg.PeerID,
		timing:  cfg.Timing,
		histMax: cfg.HistoryLimit,
		broker:  broker,
		llm:     lc,
		display: d,
		archive: arch,
		met:     met,
		log:     log.WithField("component", "chat"),
		mode:    ModeIdle,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetTools wires the tool caller. Must be called before Run.
func (e *Engine) SetTools(tc ToolCaller) { e.tools = tc }

// Mode implements tools.StatusProvider.
func (e *Engine) Mode() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return string(e.mode)
}

// Subject implements tools.StatusProvider.
func (e *Engine) Subject() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.subject
}

// Snapshot returns the engine state for the status endpoint.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		NodeID:     e.node,
		PeerID:     e.peer,
		Mode:       e.mode,
		Subject:    e.subject,
		PeerOnline: e.broker.PeerOnline(e.peer),
		Turns:      e.turns,
	}
}

// Run drives the mode machine until the context is canceled.
func (e *Engine) Run(ctx context.Context) error {
	e.display.ShowStatus(fmt.Sprintf("Node %s booting...", e.node))

	e.startIdle()
	modeTimer := time.NewTimer(e.window(e.timing.IdleMin, e.timing.IdleMax))
	defer modeTimer.Stop()
	saver := time.NewTimer(e.window(e.timing.ScreensaverMin, e.timing.ScreensaverMax))
	defer saver.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-e.broker.Messages():
			if !ok {
				return nil
			}
			e.onMessage(ctx, msg, modeTimer)
			e.drainStale()

		case <-modeTimer.C:
			switch e.currentMode() {
			case ModeIdle:
				// Idle window expired: try to start a conversation.
				if d, ok := e.startChat(ctx, true, nil); ok {
					resetTimer(modeTimer, d)
				} else {
					resetTimer(modeTimer, e.window(e.timing.IdleMin, e.timing.IdleMax))
				}
			case ModeChat:
				e.finishChat(ctx)
				e.startIdle()
				resetTimer(modeTimer, e.window(e.timing.IdleMin, e.timing.IdleMax))
			}
			e.drainStale()

		case <-saver.C:
			if e.currentMode() == ModeIdle {
				e.display.ShowStatus(screensaverLines[e.rng.Intn(len(screensaverLines))])
			}
			resetTimer(saver, e.window(e.timing.ScreensaverMin, e.timing.ScreensaverMax))
		}
	}
}

func (e *Engine) currentMode() Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mode
}

// onMessage handles one inbound envelope: in idle it makes this node the
// responder of a new conversation; in chat it feeds a turn.
func (e *Engine) onMessage(ctx context.Context, msg model.ChatMessage, modeTimer *time.Timer) {
	switch e.currentMode() {
	case ModeIdle:
		e.log.WithField("from", msg.From).Info("incoming message in idle, joining chat")
		if d, ok := e.startChat(ctx, false, &msg); ok {
			resetTimer(modeTimer, d)
		}
	case ModeChat:
		e.turn(ctx, &msg, "")
	}
}

// drainStale drops envelopes that arrived while a turn was running; a turn
// already in flight answers the conversation state they belong to.
func (e *Engine) drainStale() {
	for {
		select {
		case msg, ok := <-e.broker.Messages():
			if !ok {
				return
			}
			e.log.WithField("id", msg.ID).Debug("turn in flight, skipping stale envelope")
		default:
			return
		}
	}
}

// startIdle transitions to idle: clear conversation state, blank the screen
// and withdraw the subject broadcast.
func (e *Engine) startIdle() {
	e.mu.Lock()
	e.mode = ModeIdle
	e.subject = ""
	e.history = nil
	e.transcript = nil
	e.turns = 0
	e.initiated = false
	e.mu.Unlock()

	e.met.ChatMode.Set(0)
	e.display.Clear()
	if err := e.broker.AnnounceSubject(""); err != nil {
		e.log.WithError(err).Warn("failed to clear subject broadcast")
	}
	e.log.Info("entering idle mode")
}

// startChat transitions to chat mode and runs the opening turn. It returns
// the chat window duration and false when the peer is offline.
func (e *Engine) startChat(ctx context.Context, initiating bool, incoming *model.ChatMessage) (time.Duration, bool) {
	if !e.broker.PeerOnline(e.peer) {
		e.log.WithField("peer", e.peer).Info("peer offline, staying idle")
		return 0, false
	}

	e.mu.Lock()
	e.mode = ModeChat
	e.initiated = initiating
	e.startedAt = e.now()
	e.mu.Unlock()
	e.met.ChatMode.Set(1)
	e.display.Clear()

	if initiating {
		e.display.ShowStatus(fmt.Sprintf("[%s] Initiating chat...", e.node))
		subject := e.pickSubject(ctx)
		e.setSubject(subject)
		if err := e.broker.AnnounceSubject(subject); err != nil {
			e.log.WithError(err).Warn("failed to announce subject")
		}
		e.log.WithField("subject", subject).Info("starting conversation")

		kickoff := fmt.Sprintf(
			"You are starting a conversation with the other node, '%s'. The topic is: '%s'. "+
				"Begin with an engaging opening statement, keeping it concise. Use the "+
				"'send_chat_message' tool to deliver your opening message to '%s'.",
			e.peer, subject, e.peer)
		e.turn(ctx, nil, kickoff)
	} else {
		e.display.ShowStatus(fmt.Sprintf("[%s] Responding to chat...", e.node))
		subject := e.broker.PeerSubject(e.peer)
		if subject == "" {
			subject = fallbackSubject
			e.log.Info("peer announced no subject, using fallback")
		}
		e.setSubject(subject)
		e.log.WithField("subject", subject).Info("joining conversation")
		e.turn(ctx, incoming, "")
	}

	return e.window(e.timing.ChatMin, e.timing.ChatMax), true
}

// finishChat says goodbye (best effort) and hands the conversation to the
// archive.
func (e *Engine) finishChat(ctx context.Context) {
	e.log.Info("chat window expired, closing conversation")

	farewell := fmt.Sprintf(
		"The conversation with '%s' about '%s' is concluding. Send a brief, polite "+
			"farewell message using the 'send_chat_message' tool.",
		e.peer, e.Subject())
	e.turn(ctx, nil, farewell)

	e.archiveConversation(ctx)
	e.met.Conversations.Inc()
}

func (e *Engine) archiveConversation(ctx context.Context) {
	e.mu.RLock()
	conv := model.Conversation{
		ID:        uuid.NewString(),
		NodeID:    e.node,
		PeerID:    e.peer,
		Subject:   e.subject,
		Initiated: e.initiated,
		Turns:     e.turns,
		StartedAt: e.startedAt,
		EndedAt:   e.now(),
	}
	entries := append([]model.TranscriptEntry(nil), e.transcript...)
	e.mu.RUnlock()

	if len(entries) == 0 {
		return
	}
	if err := e.archive.Archive(ctx, &conv, entries); err != nil {
		e.log.WithError(err).Error("failed to archive conversation")
	}
}

func (e *Engine) setSubject(s string) {
	e.mu.Lock()
	e.subject = s
	e.mu.Unlock()
}

// pickSubject asks the model for a fresh topic and falls back to the
// predefined list when that fails or times out.
func (e *Engine) pickSubject(ctx context.Context) string {
	genCtx, cancel := context.WithTimeout(ctx, subjectTimeout)
	defer cancel()

	if s, err := e.llm.Generate(genCtx, subjectPrompt); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return defaultSubjects[e.rng.Intn(len(defaultSubjects))]
}

func (e *Engine) systemPreamble() string {
	return fmt.Sprintf(
		"You are an autonomous Raspberry Pi chatbot with ID '%s'. Your conversation "+
			"partner is another autonomous Raspberry Pi chatbot with ID '%s'. The current "+
			"topic of discussion is: '%s'. Keep your responses concise and relevant to the "+
			"topic. Use the provided tools only when appropriate to display messages or "+
			"send them to the other node.",
		e.node, e.peer, e.Subject())
}

// turn runs one model exchange. Either incoming (a peer envelope appended to
// history) or kickoff (an instruction fed to the model once, not retained in
// history) is set.
func (e *Engine) turn(ctx context.Context, incoming *model.ChatMessage, kickoff string) {
	e.display.ShowMessage(fmt.Sprintf("[%s] Thinking...", e.node))

	if incoming != nil {
		e.appendHistory(llm.Content{Role: "user", Parts: []llm.Part{{Text: incoming.Body}}})
		e.appendTranscript(e.peer, incoming.Body)
		e.display.ShowMessage(fmt.Sprintf("[%s]: %s\n\n[%s]: Thinking...", e.peer, incoming.Body, e.node))
	}

	contents := e.historyCopy()
	if kickoff != "" {
		contents = append(contents, llm.Content{Role: "user", Parts: []llm.Part{{Text: kickoff}}})
	}
	decls := e.tools.Declarations()

	for round := 0; round < maxToolRounds; round++ {
		e.met.LLMCalls.Inc()
		resp, err := e.llm.Chat(ctx, e.systemPreamble(), contents, decls)
		if err != nil {
			e.met.LLMErrors.Inc()
			e.log.WithError(err).Error("model turn failed")
			e.display.ShowMessage(fmt.Sprintf("[%s] Error: the AI is unavailable right now.", e.node))
			break
		}

		if text := resp.Text(); text != "" {
			e.appendHistory(llm.Content{Role: "model", Parts: []llm.Part{{Text: text}}})
			e.appendTranscript(e.node, text)
			e.display.ShowMessage(fmt.Sprintf("[%s]: %s", e.node, text))
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			break
		}

		// Execute the requested tools and feed the responses back for
		// another round.
		contents = append(contents, *resp)
		e.appendHistory(*resp)

		var responses []llm.Part
		for _, call := range calls {
			out, err := e.tools.Call(ctx, call.Name, call.Args)
			if err != nil {
				e.log.WithError(err).WithField("tool", call.Name).Warn("tool call failed")
				out = fmt.Sprintf("Error: %v", err)
			} else if call.Name == "send_chat_message" {
				if msg, ok := call.Args["message"].(string); ok {
					e.appendTranscript(e.node, msg)
					e.display.ShowMessage(fmt.Sprintf("[%s]: %s", e.node, msg))
				}
			}
			responses = append(responses, llm.Part{FunctionResponse: &llm.FunctionResponse{
				Name:     call.Name,
				Response: map[string]any{"content": out},
			}})
		}

		fr := llm.Content{Role: "function", Parts: responses}
		contents = append(contents, fr)
		e.appendHistory(fr)
	}

	e.mu.Lock()
	e.turns++
	if len(e.history) > e.histMax {
		e.history = e.history[len(e.history)-e.histMax:]
	}
	e.mu.Unlock()
}

func (e *Engine) appendHistory(c llm.Content) {
	e.mu.Lock()
	e.history = append(e.history, c)
	e.mu.Unlock()
}

func (e *Engine) appendTranscript(speaker, text string) {
	e.mu.Lock()
	e.transcript = append(e.transcript, model.TranscriptEntry{
		Speaker: speaker,
		Text:    text,
		At:      e.now(),
	})
	e.mu.Unlock()
}

func (e *Engine) historyCopy() []llm.Content {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]llm.Content(nil), e.history...)
}

// window returns a random duration in [min, max].
func (e *Engine) window(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(e.rng.Int63n(int64(max-min)+1))
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
