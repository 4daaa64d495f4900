package engine

import "context"

type Message struct {
	Role    string
	Content string
}

type GenerateOptions struct {
	Temperature float64

	// JSON asks the engine for a JSON-only response when the upstream
	// supports a response MIME type or response_format hint.
	JSON bool
}

// Engine produces a single, non-streamed completion.
type Engine interface {
	Name() string
	GenerateText(ctx context.Context, model string, messages []Message, opts GenerateOptions) (string, error)
}

// SplitSystem separates system messages from the conversation, joining
// multiple system messages with blank lines.
func SplitSystem(messages []Message) (system string, rest []Message) {
	rest = make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
