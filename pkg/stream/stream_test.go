package stream_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/mirae-labs/go-mirae/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var framePattern = regexp.MustCompile(`^data: .*\n\n$`)

func collect(frames <-chan string) []string {
	var out []string
	for f := range frames {
		out = append(out, f)
	}
	return out
}

func decode(t *testing.T, frame string) stream.Chunk {
	t.Helper()
	payload := strings.TrimSuffix(strings.TrimPrefix(frame, "data: "), "\n\n")
	var c stream.Chunk
	require.NoError(t, json.Unmarshal([]byte(payload), &c))
	return c
}

func TestFormatFraming(t *testing.T) {
	frame := stream.Format(stream.Chunk{Type: stream.TypeData, Content: "hello"})
	assert.Regexp(t, framePattern, frame)
}

func TestFormatPreservesUnicode(t *testing.T) {
	frame := stream.Format(stream.Chunk{Type: stream.TypeData, Content: "오늘의 운세 <b>"})
	assert.Contains(t, frame, "오늘의 운세")
	assert.Contains(t, frame, "<b>", "html escaping disabled")
}

func TestRunProtocolOrder(t *testing.T) {
	frames := collect(stream.Run(context.Background(), "req-1", 0, func(_ context.Context, out chan<- stream.Chunk) error {
		out <- stream.Chunk{Type: stream.TypeData, Content: "one"}
		out <- stream.Chunk{Type: stream.TypeData, Content: "two"}
		return nil
	}))

	require.Len(t, frames, 4)
	assert.Equal(t, stream.TypeStart, decode(t, frames[0]).Type)
	assert.Equal(t, "one", decode(t, frames[1]).Content)
	assert.Equal(t, "two", decode(t, frames[2]).Content)
	assert.Equal(t, stream.TypeDone, decode(t, frames[3]).Type)
	for _, f := range frames {
		assert.Regexp(t, framePattern, f)
	}
}

func TestRunProducerError(t *testing.T) {
	frames := collect(stream.Run(context.Background(), "req-1", 0, func(_ context.Context, _ chan<- stream.Chunk) error {
		return errors.New("generation failed")
	}))

	require.Len(t, frames, 3)
	errChunk := decode(t, frames[1])
	assert.Equal(t, stream.TypeError, errChunk.Type)
	assert.Equal(t, "generation failed", errChunk.Error)
	assert.Equal(t, stream.TypeDone, decode(t, frames[2]).Type)
}

func TestRunProducerPanic(t *testing.T) {
	frames := collect(stream.Run(context.Background(), "req-1", 0, func(_ context.Context, _ chan<- stream.Chunk) error {
		panic("boom")
	}))

	errs := 0
	for _, f := range frames {
		if decode(t, f).Type == stream.TypeError {
			errs++
		}
	}
	assert.Equal(t, 1, errs, "panic surfaces as exactly one error chunk")
	assert.Equal(t, stream.TypeDone, decode(t, frames[len(frames)-1]).Type)
}

func TestRunWithPrefetchFailure(t *testing.T) {
	frames := collect(stream.RunWithPrefetch(context.Background(), "req-1", 0,
		func(_ context.Context) error { return errors.New("no graph") },
		func(_ context.Context, out chan<- stream.Chunk) error {
			out <- stream.Chunk{Content: "never sent?"}
			return nil
		}))

	var sawPrefetchError bool
	for _, f := range frames {
		c := decode(t, f)
		if c.Type == stream.TypeError && c.Phase == "prefetch" {
			sawPrefetchError = true
		}
	}
	assert.True(t, sawPrefetchError)
	assert.Equal(t, stream.TypeDone, decode(t, frames[len(frames)-1]).Type)
}

func TestRunProgressFields(t *testing.T) {
	frames := collect(stream.RunWithPrefetch(context.Background(), "req-1", 3,
		func(_ context.Context) error { return nil },
		func(_ context.Context, out chan<- stream.Chunk) error {
			out <- stream.Chunk{Type: stream.TypeProgress, Step: 2, ProgressPct: stream.Pct(2, 3)}
			return nil
		}))

	start := decode(t, frames[0])
	assert.Equal(t, stream.TypeStart, start.Type)
	assert.Equal(t, 3, start.TotalSteps)

	prefetch := decode(t, frames[1])
	assert.Equal(t, 1, prefetch.Step)
	assert.InDelta(t, 100.0/3, prefetch.ProgressPct, 1e-9)

	progress := decode(t, frames[2])
	assert.Equal(t, 2, progress.Step)
	assert.InDelta(t, 200.0/3, progress.ProgressPct, 1e-9)
}

func TestSplitTextBounds(t *testing.T) {
	text := strings.Repeat("가나다라 마바사 ", 100)

	pieces := stream.SplitText(text, 0)
	require.NotEmpty(t, pieces)
	for _, p := range pieces[:len(pieces)-1] {
		assert.LessOrEqual(t, len([]rune(p)), stream.DefaultChunkSize)
	}
	assert.Equal(t, text, strings.Join(pieces, ""), "no runes lost")

	tiny := stream.SplitText(text, 10)
	for _, p := range tiny[:len(tiny)-1] {
		assert.LessOrEqual(t, len([]rune(p)), stream.MinChunkSize)
	}
}

func TestSplitTextEmpty(t *testing.T) {
	assert.Empty(t, stream.SplitText("", 200))
}

func TestTerminator(t *testing.T) {
	assert.Equal(t, "data: [DONE]\n\n", stream.Terminator)
	assert.Regexp(t, framePattern, stream.FormatRaw(`{"x":1}`))
}
