// Package llm defines the Generator capability the orchestrator and the
// streaming service consume, plus the OpenAI-backed implementation and the
// reliability wrappers around it.
package llm

import "context"

// GenerateRequest describes one completion call. Zero values defer to the
// adapter's configured defaults.
type GenerateRequest struct {
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64
	// TemperatureSet distinguishes an explicit 0.0 from "use the default".
	TemperatureSet bool
}

// StreamChunk is one increment of a streamed completion. Err is non-nil only
// on the final chunk of a failed stream.
type StreamChunk struct {
	Content string
	Err     error
}

// Generator is the single LLM capability boundary. Providers, models and
// prompt templates live behind it.
type Generator interface {
	// Generate returns the full completion for a prompt.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// Stream returns completion tokens incrementally. The channel is closed
	// when the stream ends; a trailing chunk carries any stream error.
	Stream(ctx context.Context, req GenerateRequest) (<-chan StreamChunk, error)
	// Close cleans up any resources.
	Close() error
}

// ClampTemperature bounds a requested temperature to the supported range.
func ClampTemperature(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 2 {
		return 2
	}
	return t
}
