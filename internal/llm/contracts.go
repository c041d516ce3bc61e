package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// TextPlaceholder marks where the document text goes inside a prompt.
const TextPlaceholder = "{text}"

// Schema is a named JSON Schema the model output must satisfy.
type Schema struct {
	Name       string
	Definition map[string]any
	// Canonical rewrites loose enum values by dotted field path before strict validation.
	Canonical map[string]Canonicalizer
}

type Request struct {
	Prompt string
	Text   string
	Schema Schema
}

// Messages splits the request into a system and a user message. When the prompt has
// a text slot the text is rendered into it; otherwise the text becomes the user message.
func (r Request) Messages() (system, user string) {
	if strings.Contains(r.Prompt, TextPlaceholder) {
		return strings.ReplaceAll(r.Prompt, TextPlaceholder, r.Text), ""
	}
	return r.Prompt, r.Text
}

// Capability is the model boundary: prompt and schema in, schema-valid JSON out.
// Implementations return ErrLLMConnection, ErrLLMTimeout or ErrLLMResponse and never retry.
type Capability interface {
	Call(ctx context.Context, req Request) (json.RawMessage, error)
}

// CapabilityFunc adapts a function to Capability.
type CapabilityFunc func(ctx context.Context, req Request) (json.RawMessage, error)

func (f CapabilityFunc) Call(ctx context.Context, req Request) (json.RawMessage, error) {
	return f(ctx, req)
}
