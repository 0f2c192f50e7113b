package llm

import (
	"context"
	"errors"
)

var (
	// ErrAPIKeyRequired is returned when the client is built without a key.
	ErrAPIKeyRequired = errors.New("llm: api key is required")
	// ErrNoCandidates is returned when the API answers without any candidate,
	// typically because the prompt was blocked.
	ErrNoCandidates = errors.New("llm: response contained no candidates")
)

// Client generates model responses for the chat engine.
type Client interface {
	// Generate produces a plain text completion for a single prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// Chat runs one model turn over the given conversation contents.
	// The system preamble rides separately from the turn contents. When
	// declarations are provided the model may answer with function call
	// parts instead of (or alongside) text.
	Chat(ctx context.Context, system string, contents []Content, decls []FunctionDeclaration) (*Content, error)
}
