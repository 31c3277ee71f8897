// Package stream implements the server-sent-events contract used by the
// streaming ask endpoint. Every frame on the wire is a single
// "data: <json>\n\n" event; clients never see a partial frame.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Chunk types emitted over a stream, in protocol order: one start, any
// number of progress and data chunks, then exactly one done (or one error
// followed by done).
const (
	TypeStart    = "start"
	TypeProgress = "progress"
	TypeData     = "data"
	TypeError    = "error"
	TypeDone     = "done"
)

// Chunk size bounds for splitting generated text into data events.
const (
	MinChunkSize     = 80
	MaxChunkSize     = 800
	DefaultChunkSize = 200
)

// Chunk is one typed SSE payload. Start chunks carry TotalSteps when the
// pipeline length is known up front; progress chunks then carry the numeric
// Step and ProgressPct.
type Chunk struct {
	Type        string                 `json:"type"`
	RequestID   string                 `json:"request_id,omitempty"`
	Step        int                    `json:"step,omitempty"`
	TotalSteps  int                    `json:"total_steps,omitempty"`
	ProgressPct float64                `json:"progress_pct,omitempty"`
	Content     string                 `json:"content,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Phase       string                 `json:"phase,omitempty"`
	Meta        map[string]interface{} `json:"meta,omitempty"`
}

// Pct computes the percentage of completed steps, zero when the total is
// unknown.
func Pct(step, totalSteps int) float64 {
	if totalSteps <= 0 {
		return 0
	}
	return 100 * float64(step) / float64(totalSteps)
}

// Format renders any value as one SSE event. HTML escaping is disabled so
// Korean text and angle brackets survive the wire intact. Values that
// cannot be marshaled degrade to an error event rather than a broken frame.
func Format(v interface{}) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("data: {\"type\":%q,\"error\":\"encode failed\"}\n\n", TypeError)
	}
	// Encode appends a newline; the SSE frame supplies its own.
	return "data: " + strings.TrimRight(buf.String(), "\n") + "\n\n"
}

// FormatRaw wraps an already serialized payload as an SSE event.
func FormatRaw(payload string) string {
	return "data: " + payload + "\n\n"
}

// Terminator is the sentinel event ending a raw passthrough stream.
const Terminator = "data: [DONE]\n\n"

// Producer generates chunks into out. It must not close out; the stream
// owns channel lifecycle.
type Producer func(ctx context.Context, out chan<- Chunk) error

// Run drives a producer and returns the ordered frames on a channel. The
// channel always delivers a start frame first and a done frame last. A
// producer error or panic surfaces as exactly one error frame before done.
func Run(ctx context.Context, requestID string, totalSteps int, producer Producer) <-chan string {
	frames := make(chan string, 8)
	go func() {
		defer close(frames)
		frames <- Format(Chunk{Type: TypeStart, RequestID: requestID, TotalSteps: totalSteps})

		chunks := make(chan Chunk, 8)
		errCh := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					errCh <- fmt.Errorf("stream producer panicked: %v", r)
				}
				close(chunks)
			}()
			errCh <- producer(ctx, chunks)
		}()

		for chunk := range chunks {
			if chunk.Type == "" {
				chunk.Type = TypeData
			}
			select {
			case frames <- Format(chunk):
			case <-ctx.Done():
				drain(chunks)
				frames <- Format(Chunk{Type: TypeError, RequestID: requestID, Error: ctx.Err().Error()})
				frames <- Format(Chunk{Type: TypeDone, RequestID: requestID})
				return
			}
		}
		if err := <-errCh; err != nil {
			frames <- Format(Chunk{Type: TypeError, RequestID: requestID, Error: err.Error()})
		}
		frames <- Format(Chunk{Type: TypeDone, RequestID: requestID})
	}()
	return frames
}

// RunWithPrefetch runs a prefetch stage before the producer. Prefetch
// failures are reported with phase "prefetch" so clients can distinguish
// context assembly problems from generation problems; the stream still
// terminates cleanly with a done frame.
func RunWithPrefetch(ctx context.Context, requestID string, totalSteps int, prefetch func(ctx context.Context) error, producer Producer) <-chan string {
	return Run(ctx, requestID, totalSteps, func(ctx context.Context, out chan<- Chunk) error {
		if prefetch != nil {
			out <- Chunk{
				Type:        TypeProgress,
				Phase:       "prefetch",
				Step:        1,
				ProgressPct: Pct(1, totalSteps),
				Content:     "assembling context",
			}
			if err := prefetch(ctx); err != nil {
				out <- Chunk{Type: TypeError, Phase: "prefetch", Error: err.Error()}
				return nil
			}
		}
		return producer(ctx, out)
	})
}

// SplitText cuts generated text into data chunks of roughly size runes,
// breaking on whitespace when one is near. Size is clamped to the
// supported bounds; zero means the default.
func SplitText(text string, size int) []string {
	switch {
	case size == 0:
		size = DefaultChunkSize
	case size < MinChunkSize:
		size = MinChunkSize
	case size > MaxChunkSize:
		size = MaxChunkSize
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	var out []string
	for start := 0; start < len(runes); {
		end := start + size
		if end >= len(runes) {
			out = append(out, string(runes[start:]))
			break
		}
		cut := end
		for i := end; i > start && i > end-20; i-- {
			if runes[i-1] == ' ' || runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		out = append(out, string(runes[start:cut]))
		start = cut
	}
	return out
}

func drain(ch <-chan Chunk) {
	for range ch {
	}
}
