package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"pichat/internal/display"
	"pichat/internal/llm"
	"pichat/internal/metrics"
	"pichat/internal/mqtt"
)

// StatusProvider reports the chat engine's current state to the status tool.
type StatusProvider interface {
	Mode() string
	Subject() string
}

// Registry holds the device capabilities callable by the language model.
// One set of definitions backs both surfaces: the Gemini function
// declarations used by the local turn loop and the MCP tool definitions
// served to external clients.
type Registry struct {
	node    string
	peer    string
	display display.Renderer
	broker  mqtt.Client
	status  StatusProvider
	met     *metrics.Metrics
	log     *logrus.Entry
}

// NewRegistry wires the registry to the live device components.
func NewRegistry(node, peer string, d display.Renderer, b mqtt.Client, sp StatusProvider, met *metrics.Metrics, log *logrus.Logger) *Registry {
	return &Registry{
		node:    node,
		peer:    peer,
		display: d,
		broker:  b,
		status:  sp,
		met:     met,
		log:     log.WithField("component", "tools"),
	}
}

// param describes one tool parameter in a transport-agnostic way.
type param struct {
	name        string
	description string
	required    bool
	enum        []string
}

// spec describes one tool; both the MCP definition and the Gemini
// declaration are derived from it so the two surfaces cannot drift apart.
type spec struct {
	name        string
	description string
	params      []param
}

func (r *Registry) specs() []spec {
	return []spec{
		{
			name:        "display_message",
			description: "Display a text message on this node's attached screen.",
			params: []param{
				{name: "message", description: "The text to display.", required: true},
			},
		},
		{
			name:        "send_chat_message",
			description: "Send a chat message to the peer node over MQTT. The peer's AI will read and answer it.",
			params: []param{
				{name: "to", description: "ID of the receiving node.", required: true, enum: []string{r.node, r.peer}},
				{name: "message", description: "The chat message to send.", required: true},
			},
		},
		{
			name:        "get_peer_status",
			description: "Get this node's mode and conversation subject plus the peer's online state.",
		},
		{
			name:        "announce_topic",
			description: "Broadcast the current conversation subject so both nodes share context.",
			params: []param{
				{name: "topic", description: "The subject under discussion.", required: true},
			},
		},
	}
}

// Declarations returns the Gemini function declarations for every tool.
func (r *Registry) Declarations() []llm.FunctionDeclaration {
	specs := r.specs()
	decls := make([]llm.FunctionDeclaration, 0, len(specs))
	for _, sp := range specs {
		decl := llm.FunctionDeclaration{
			Name:        sp.name,
			Description: sp.description,
		}
		if len(sp.params) > 0 {
			// Gemini schemas use uppercase type names.
			schema := &llm.Schema{Type: "OBJECT", Properties: map[string]*llm.Schema{}}
			for _, p := range sp.params {
				schema.Properties[p.name] = &llm.Schema{
					Type:        "STRING",
					Description: p.description,
					Enum:        p.enum,
				}
				if p.required {
					schema.Required = append(schema.Required, p.name)
				}
			}
			decl.Parameters = schema
		}
		decls = append(decls, decl)
	}
	return decls
}

// Call dispatches a tool invocation from the local turn loop. The returned
// string is fed back to the model as the function response.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	r.met.ToolCalls.WithLabelValues(name).Inc()
	r.log.WithFields(logrus.Fields{"tool": name, "args": args}).Debug("tool call")

	switch name {
	case "display_message":
		msg, err := stringArg(args, "message")
		if err != nil {
			return "", err
		}
		r.display.ShowMessage(msg)
		return "Message displayed.", nil

	case "send_chat_message":
		to, err := stringArg(args, "to")
		if err != nil {
			return "", err
		}
		msg, err := stringArg(args, "message")
		if err != nil {
			return "", err
		}
		if to == r.node {
			return "", fmt.Errorf("cannot send a message to self (%s)", r.node)
		}
		if _, err := r.broker.SendChat(ctx, to, msg); err != nil {
			return "", err
		}
		return fmt.Sprintf("Message sent to %s.", to), nil

	case "get_peer_status":
		status := map[string]any{
			"node_id":     r.node,
			"mode":        r.status.Mode(),
			"subject":     r.status.Subject(),
			"peer_id":     r.peer,
			"peer_online": r.broker.PeerOnline(r.peer),
		}
		b, err := json.Marshal(status)
		if err != nil {
			return "", err
		}
		return string(b), nil

	case "announce_topic":
		topic, err := stringArg(args, "topic")
		if err != nil {
			return "", err
		}
		if err := r.broker.AnnounceSubject(topic); err != nil {
			return "", err
		}
		return "Subject announced.", nil

	default:
		return "", fmt.Errorf("unknown tool %q", name)
	}
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("argument %q must be a non-empty string", key)
	}
	return s, nil
}
