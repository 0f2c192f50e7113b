package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the daemon's prometheus instruments. HTTP request metrics
// live in the http middleware; everything chat-related is registered here.
type Metrics struct {
	MessagesSent     prometheus.Counter
	MessagesReceived prometheus.Counter
	MessagesDropped  prometheus.Counter
	LLMCalls         prometheus.Counter
	LLMErrors        prometheus.Counter
	ToolCalls        *prometheus.CounterVec
	ChatMode         prometheus.Gauge
	Conversations    prometheus.Counter
}

// New creates and registers the chat metrics on the given registry.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pichat_messages_sent_total",
			Help: "Chat envelopes published to the peer inbox.",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pichat_messages_received_total",
			Help: "Chat envelopes accepted from the local inbox.",
		}),
		MessagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pichat_messages_dropped_total",
			Help: "Inbox envelopes dropped (duplicates or full buffer).",
		}),
		LLMCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pichat_llm_calls_total",
			Help: "Calls made to the language model API.",
		}),
		LLMErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pichat_llm_errors_total",
			Help: "Failed language model API calls.",
		}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pichat_tool_calls_total",
			Help: "Tool invocations requested by the model.",
		}, []string{"tool"}),
		ChatMode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pichat_chat_mode",
			Help: "1 while a conversation is running, 0 in idle.",
		}),
		Conversations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pichat_conversations_total",
			Help: "Conversations completed since start.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.MessagesSent, m.MessagesReceived, m.MessagesDropped,
		m.LLMCalls, m.LLMErrors, m.ToolCalls, m.ChatMode, m.Conversations,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
