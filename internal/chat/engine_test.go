package chat

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"pichat/internal/config"
	"pichat/internal/display"
	"pichat/internal/llm"
	llmmocks "pichat/internal/llm/mocks"
	"pichat/internal/metrics"
	"pichat/internal/model"
	mqttmocks "pichat/internal/mqtt/mocks"
	servicemocks "pichat/internal/service/mocks"
)

// stubTools records dispatched calls instead of executing anything.
type stubTools struct {
	decls []llm.FunctionDeclaration
	calls []string
	out   string
	err   error
}

func (s *stubTools) Declarations() []llm.FunctionDeclaration { return s.decls }

func (s *stubTools) Call(_ context.Context, name string, _ map[string]any) (string, error) {
	s.calls = append(s.calls, name)
	return s.out, s.err
}

func textContent(text string) *llm.Content {
	return &llm.Content{Role: "model", Parts: []llm.Part{{Text: text}}}
}

func callContent(name string, args map[string]any) *llm.Content {
	return &llm.Content{Role: "model", Parts: []llm.Part{
		{FunctionCall: &llm.FunctionCall{Name: name, Args: args}},
	}}
}

type engineFixture struct {
	engine  *Engine
	broker  *mqttmocks.MockClient
	llm     *llmmocks.MockClient
	tools   *stubTools
	archive *servicemocks.MockArchiveService
	frames  *display.FrameStore
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	cfg := &config.AppConfig{
		NodeID:       "pi1",
		PeerID:       "pi2",
		HistoryLimit: 20,
		Timing: config.TimingConfig{
			IdleMin: 30 * time.Second, IdleMax: 60 * time.Second,
			ChatMin: 60 * time.Second, ChatMax: 300 * time.Second,
			ScreensaverMin: 5 * time.Second, ScreensaverMax: 15 * time.Second,
		},
	}

	broker := new(mqttmocks.MockClient)
	lc := new(llmmocks.MockClient)
	arch := new(servicemocks.MockArchiveService)
	frames := display.NewFrameStore(100)

	met, err := metrics.New(prometheus.NewRegistry())
	assert.NoError(t, err)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	e := New(cfg, broker, lc, frames, arch, met, log)
	e.rng = rand.New(rand.NewSource(1))
	e.now = func() time.Time { return time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC) }

	tools := &stubTools{out: "ok"}
	e.SetTools(tools)

	return &engineFixture{engine: e, broker: broker, llm: lc, tools: tools, archive: arch, frames: frames}
}

func TestEngine_StartChat_PeerOffline(t *testing.T) {
	f := newEngineFixture(t)
	f.broker.On("PeerOnline", "pi2").Return(false)

	_, ok := f.engine.startChat(context.Background(), true, nil)

	assert.False(t, ok)
	assert.Equal(t, string(ModeIdle), f.engine.Mode())
	f.llm.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_StartChat_Initiating(t *testing.T) {
	f := newEngineFixture(t)
	f.broker.On("PeerOnline", "pi2").Return(true)
	f.broker.On("AnnounceSubject", "strange dreams").Return(nil)
	f.llm.On("Generate", mock.Anything, mock.Anything).Return("strange dreams", nil)

	// First round asks to send the opening message, second round ends the turn.
	f.llm.On("Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(callContent("send_chat_message", map[string]any{"to": "peer", "message": "hey pi2!"}), nil).Once()
	f.llm.On("Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(textContent("Sent it."), nil).Once()

	d, ok := f.engine.startChat(context.Background(), true, nil)

	assert.True(t, ok)
	assert.GreaterOrEqual(t, d, 60*time.Second)
	assert.LessOrEqual(t, d, 300*time.Second)
	assert.Equal(t, string(ModeChat), f.engine.Mode())
	assert.Equal(t, "strange dreams", f.engine.Subject())
	assert.Equal(t, []string{"send_chat_message"}, f.tools.calls)

	// The outgoing tool message lands in the transcript.
	assert.Equal(t, "hey pi2!", f.engine.transcript[0].Text)
	assert.Equal(t, "pi1", f.engine.transcript[0].Speaker)
}

func TestEngine_StartChat_Responding_FallbackSubject(t *testing.T) {
	f := newEngineFixture(t)
	f.broker.On("PeerOnline", "pi2").Return(true)
	f.broker.On("PeerSubject", "pi2").Return("")
	f.llm.On("Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(textContent("Interesting question."), nil).Once()

	msg := &model.ChatMessage{ID: "m1", From: "pi2", Body: "what do you think about rain?"}
	_, ok := f.engine.startChat(context.Background(), false, msg)

	assert.True(t, ok)
	assert.Equal(t, fallbackSubject, f.engine.Subject())
	// Peer message then our reply.
	assert.Len(t, f.engine.transcript, 2)
	assert.Equal(t, "pi2", f.engine.transcript[0].Speaker)
	assert.Equal(t, "pi1", f.engine.transcript[1].Speaker)
	f.llm.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestEngine_PickSubject_FallsBackOnError(t *testing.T) {
	f := newEngineFixture(t)
	f.llm.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	subject := f.engine.pickSubject(context.Background())

	assert.Contains(t, defaultSubjects, subject)
}

func TestEngine_Turn_ModelError(t *testing.T) {
	f := newEngineFixture(t)
	f.llm.On("Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("503 from upstream"))

	f.engine.turn(context.Background(), nil, "say hello")

	frame := f.frames.Current()
	assert.Equal(t, display.KindMessage, frame.Kind)
	assert.Contains(t, frame.Lines[0], "unavailable")
}

func TestEngine_Turn_ToolRoundLimit(t *testing.T) {
	f := newEngineFixture(t)
	// The model keeps asking for tools; the loop must stop at maxToolRounds.
	f.llm.On("Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(callContent("get_peer_status", map[string]any{"node_id": "pi2"}), nil)

	f.engine.turn(context.Background(), nil, "loop forever")

	assert.Len(t, f.tools.calls, maxToolRounds)
}

func TestEngine_Turn_HistoryTrim(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.histMax = 4
	f.llm.On("Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(textContent("reply"), nil)

	for i := 0; i < 5; i++ {
		msg := &model.ChatMessage{ID: "m", From: "pi2", Body: "ping"}
		f.engine.turn(context.Background(), msg, "")
	}

	assert.Len(t, f.engine.history, 4)
	assert.Equal(t, 5, f.engine.turns)
}

func TestEngine_FinishChat_Archives(t *testing.T) {
	f := newEngineFixture(t)
	f.broker.On("PeerOnline", "pi2").Return(true)
	f.broker.On("PeerSubject", "pi2").Return("old maps")
	f.broker.On("AnnounceSubject", "").Return(nil)
	f.llm.On("Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(textContent("goodbye then"), nil)
	f.archive.On("Archive", mock.Anything, mock.MatchedBy(func(conv *model.Conversation) bool {
		return conv.NodeID == "pi1" && conv.PeerID == "pi2" && conv.Subject == "old maps" && !conv.Initiated
	}), mock.Anything).Return(nil)

	msg := &model.ChatMessage{ID: "m1", From: "pi2", Body: "hello"}
	_, ok := f.engine.startChat(context.Background(), false, msg)
	assert.True(t, ok)

	f.engine.finishChat(context.Background())

	f.archive.AssertExpectations(t)
}

func TestEngine_StartIdle_ClearsState(t *testing.T) {
	f := newEngineFixture(t)
	f.broker.On("AnnounceSubject", "").Return(nil)

	f.engine.mu.Lock()
	f.engine.mode = ModeChat
	f.engine.subject = "something"
	f.engine.history = []llm.Content{{Role: "user"}}
	f.engine.turns = 3
	f.engine.mu.Unlock()

	f.engine.startIdle()

	assert.Equal(t, string(ModeIdle), f.engine.Mode())
	assert.Empty(t, f.engine.Subject())
	assert.Empty(t, f.engine.history)
	assert.Equal(t, display.KindBlank, f.frames.Current().Kind)
	f.broker.AssertCalled(t, "AnnounceSubject", "")
}

func TestEngine_DrainStale(t *testing.T) {
	f := newEngineFixture(t)
	ch := make(chan model.ChatMessage, 4)
	ch <- model.ChatMessage{ID: "stale-1"}
	ch <- model.ChatMessage{ID: "stale-2"}
	f.broker.On("Messages").Return(ch)

	f.engine.drainStale()

	assert.Empty(t, ch)
}

func TestEngine_Snapshot(t *testing.T) {
	f := newEngineFixture(t)
	f.broker.On("PeerOnline", "pi2").Return(true)

	snap := f.engine.Snapshot()

	assert.Equal(t, "pi1", snap.NodeID)
	assert.Equal(t, "pi2", snap.PeerID)
	assert.Equal(t, ModeIdle, snap.Mode)
	assert.True(t, snap.PeerOnline)
}

func TestEngine_Window(t *testing.T) {
	f := newEngineFixture(t)

	for i := 0; i < 50; i++ {
		d := f.engine.window(5*time.Second, 15*time.Second)
		assert.GreaterOrEqual(t, d, 5*time.Second)
		assert.LessOrEqual(t, d, 15*time.Second)
	}

	assert.Equal(t, 7*time.Second, f.engine.window(7*time.Second, 7*time.Second))
}
