// Package mirae is the main entry point for the divination reading backend.
// It assembles the input sanitizer, the bilingual entity extractor, the
// knowledge graph, the rule engine, the workflow orchestrator and the LLM
// generation layer behind one client.
package mirae

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mirae-labs/go-mirae/pkg/agent"
	"github.com/mirae-labs/go-mirae/pkg/cache"
	"github.com/mirae-labs/go-mirae/pkg/config"
	"github.com/mirae-labs/go-mirae/pkg/extraction"
	"github.com/mirae-labs/go-mirae/pkg/kg"
	"github.com/mirae-labs/go-mirae/pkg/llm"
	"github.com/mirae-labs/go-mirae/pkg/ratelimit"
	"github.com/mirae-labs/go-mirae/pkg/sanitize"
	"github.com/mirae-labs/go-mirae/pkg/stream"
	"github.com/mirae-labs/go-mirae/pkg/types"
)

// ErrInvalidInput reports a request whose query is empty after sanitization.
var ErrInvalidInput = errors.New("invalid input")

// AskInput is one reading request after transport decoding.
// UseDeepTraversal is a tri-state override: nil means traverse whenever a
// graph is wired, an explicit false opts the request out.
type AskInput struct {
	Query            string
	Dream            string
	Name             string
	Facts            map[string]interface{}
	Locale           string
	Theme            string
	SessionID        string
	UseDeepTraversal *bool
	Model            string
}

// AskResult is the synchronous reading outcome.
type AskResult struct {
	State   *types.AgentState
	Answer  string
	Variant llm.Variant
}

// Client wires all subsystems for the lifetime of the process.
type Client struct {
	cfg       *config.Config
	logger    *slog.Logger
	extractor *extraction.Extractor
	orch      *agent.Orchestrator
	rules     *RuleService
	sessions  cache.SessionCache
	limiter   ratelimit.Limiter
	generator llm.Generator
	ab        llm.ABConfig
}

// New builds a client from configuration. Optional subsystems (LLM, graph,
// rules) degrade to absent rather than failing construction; only a
// misconfigured mandatory piece returns an error.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var generator llm.Generator
	if cfg.LLM.APIKey != "" {
		generator = llm.NewBreakerGenerator(llm.NewOpenAIGenerator(llm.OpenAIConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		}))
	}

	extractorOpts := []extraction.Option{extraction.WithLogger(logger)}
	if generator != nil && cfg.LLM.UseNER {
		extractorOpts = append(extractorOpts, extraction.WithLLMFallback(generator))
	}
	extractor := extraction.New(extractorOpts...)

	graph, err := loadGraph(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	ruleService := NewRuleService(logger)
	if cfg.Rules.Dir != "" {
		if err := ruleService.Load(cfg.Rules.Dir); err != nil {
			logger.Warn("rule directory not loaded", "dir", cfg.Rules.Dir, "error", err)
		}
	}

	sessions := cache.New(cache.Config{
		RedisURL:   cfg.Redis.URL,
		BadgerPath: cfg.Session.BadgerPath,
		MaxSize:    cfg.Session.MaxSize,
		TTL:        cfg.Session.TTL(),
	}, logger)

	limiter := ratelimit.New(ratelimit.Config{RedisURL: cfg.Redis.URL}, logger)

	opts := agent.Options{
		Graph:      graph,
		RuleEngine: ruleService.Engine(),
		Logger:     logger,
	}
	if graph != nil {
		opts.Searcher = graphSearcher{graph}
	}
	orch := agent.New(extractor, opts)

	return &Client{
		cfg:       cfg,
		logger:    logger,
		extractor: extractor,
		orch:      orch,
		rules:     ruleService,
		sessions:  sessions,
		limiter:   limiter,
		generator: generator,
		ab: llm.ABConfig{
			Enabled:      cfg.RAG.ABMode,
			ModelA:       cfg.RAG.ModelA,
			ModelB:       cfg.RAG.ModelB,
			TemperatureA: float64(cfg.RAG.TempA),
			TemperatureB: float64(cfg.RAG.TempB),
		},
	}, nil
}

func loadGraph(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*kg.MemoryGraph, error) {
	if cfg.Database.URI != "" {
		graph, err := kg.LoadNeo4j(ctx, kg.Neo4jConfig{
			URI:      cfg.Database.URI,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			Database: cfg.Database.Database,
		})
		if err != nil {
			return nil, fmt.Errorf("load graph from neo4j: %w", err)
		}
		logger.Info("knowledge graph loaded", "source", "neo4j")
		return graph, nil
	}
	if cfg.Graph.JSONPath != "" {
		graph, err := kg.LoadJSON(cfg.Graph.JSONPath)
		if err != nil {
			return nil, fmt.Errorf("load graph from json: %w", err)
		}
		logger.Info("knowledge graph loaded", "source", "json", "path", cfg.Graph.JSONPath)
		return graph, nil
	}
	return nil, nil
}

// graphSearcher adapts the in-memory graph to the orchestrator's search
// capability.
type graphSearcher struct {
	graph *kg.MemoryGraph
}

func (s graphSearcher) Search(_ context.Context, query string, topK int) ([]map[string]interface{}, error) {
	return s.graph.Search(query, topK), nil
}

// Ask runs one full reading: sanitize, orchestrate, generate, cache.
func (c *Client) Ask(ctx context.Context, in AskInput) (*AskResult, error) {
	req, err := c.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	state := c.orch.Run(ctx, req)

	answer := state.Context
	var variant llm.Variant
	if c.generator != nil && state.Error == "" {
		genReq := llm.GenerateRequest{
			Prompt:    buildPrompt(req.Locale, req.Query, state.Context),
			Model:     in.Model,
			MaxTokens: c.cfg.LLM.MaxTokens,
		}
		genReq, variant = c.ab.Apply(genReq, in.SessionID, state.RequestID)
		generated, err := c.generator.Generate(ctx, genReq)
		if err != nil {
			c.logger.Warn("generation failed, serving assembled context",
				"request_id", state.RequestID, "error", err)
		} else {
			answer = generated
		}
	}

	c.remember(ctx, in.SessionID, state)
	return &AskResult{State: state, Answer: answer, Variant: variant}, nil
}

// streamSteps is the pipeline length reported on the start frame: context
// assembly, context ready, generation.
const streamSteps = 3

// AskStream runs one reading and returns SSE frames. Context assembly
// failures surface as prefetch errors; generation failures as stream errors.
func (c *Client) AskStream(ctx context.Context, in AskInput) <-chan string {
	requestID := uuid.NewString()
	var (
		state   *types.AgentState
		req     agent.Request
		variant llm.Variant
	)
	prefetch := func(ctx context.Context) error {
		var err error
		req, err = c.prepare(ctx, in)
		if err != nil {
			return err
		}
		req.RequestID = requestID
		state = c.orch.Run(ctx, req)
		if state.Error != "" {
			return errors.New(state.Error)
		}
		return nil
	}

	producer := func(ctx context.Context, out chan<- stream.Chunk) error {
		out <- stream.Chunk{
			Type:        stream.TypeProgress,
			RequestID:   state.RequestID,
			Step:        2,
			ProgressPct: stream.Pct(2, streamSteps),
			Content:     "context ready",
			Meta: map[string]interface{}{
				"entities":   len(state.Entities),
				"confidence": state.Confidence,
			},
		}
		if c.generator == nil {
			for _, piece := range stream.SplitText(state.Context, c.cfg.RAG.StreamChunkSize) {
				out <- stream.Chunk{Type: stream.TypeData, Content: piece}
			}
			c.remember(ctx, in.SessionID, state)
			return nil
		}

		genReq := llm.GenerateRequest{
			Prompt:    buildPrompt(req.Locale, req.Query, state.Context),
			Model:     in.Model,
			MaxTokens: c.cfg.LLM.MaxTokens,
		}
		genReq, variant = c.ab.Apply(genReq, in.SessionID, state.RequestID)
		if variant != "" {
			out <- stream.Chunk{
				Type:    stream.TypeProgress,
				Content: "variant selected",
				Meta:    map[string]interface{}{"variant": string(variant)},
			}
		}
		chunks, err := c.generator.Stream(ctx, genReq)
		if err != nil {
			return err
		}
		for chunk := range chunks {
			if chunk.Err != nil {
				return chunk.Err
			}
			out <- stream.Chunk{Type: stream.TypeData, Content: chunk.Content}
		}
		c.remember(ctx, in.SessionID, state)
		return nil
	}

	return stream.RunWithPrefetch(ctx, requestID, streamSteps, prefetch, producer)
}

// prepare sanitizes the input and shapes the orchestrator request.
func (c *Client) prepare(_ context.Context, in AskInput) (agent.Request, error) {
	if sanitize.IsSuspicious(in.Query) || sanitize.IsSuspicious(in.Dream) {
		c.logger.Warn("suspicious input detected",
			"security", true, "session_id", in.SessionID)
	}

	query := sanitize.Sanitize(in.Query, c.cfg.Sanitizer.MaxInput, false)
	if query == "" {
		return agent.Request{}, fmt.Errorf("%w: empty query", ErrInvalidInput)
	}

	facts := in.Facts
	if dream := sanitize.Sanitize(in.Dream, c.cfg.Sanitizer.MaxDream, true); dream != "" {
		facts = cloneFacts(facts)
		facts["dream"] = dream
	}
	if name := sanitize.Sanitize(in.Name, c.cfg.Sanitizer.MaxName, false); name != "" {
		facts = cloneFacts(facts)
		facts["name"] = name
	}

	return agent.Request{
		Query:             query,
		Facts:             facts,
		Locale:            normalizeLocale(in.Locale),
		Theme:             in.Theme,
		SessionID:         in.SessionID,
		SkipDeepTraversal: in.UseDeepTraversal != nil && !*in.UseDeepTraversal,
	}, nil
}

// remember stores a compact session record for follow-up questions.
func (c *Client) remember(ctx context.Context, sessionID string, state *types.AgentState) {
	if sessionID == "" {
		return
	}
	record := map[string]interface{}{
		"request_id": state.RequestID,
		"query":      state.Query,
		"confidence": state.Confidence,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := c.sessions.Set(ctx, sessionID, record); err != nil {
		c.logger.Warn("session cache write failed", "session_id", sessionID, "error", err)
	}
}

// Session returns the cached record for a session, or nil.
func (c *Client) Session(ctx context.Context, sessionID string) interface{} {
	data, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil
	}
	return data
}

// Rules exposes the curated rule service.
func (c *Client) Rules() *RuleService { return c.rules }

// Limiter exposes the rate limiter for the HTTP middleware.
func (c *Client) Limiter() ratelimit.Limiter { return c.limiter }

// Config exposes the resolved configuration.
func (c *Client) Config() *config.Config { return c.cfg }

// Stats reports operational counters across subsystems.
func (c *Client) Stats(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"sessions": c.sessions.Stats(ctx),
		"rules":    c.rules.Stats(),
		"rate_limit": map[string]interface{}{
			"requests":       c.cfg.RateLimit.Requests,
			"window_seconds": c.cfg.RateLimit.WindowSeconds,
		},
		"graph_loaded": c.orch.HasGraph(),
		"llm_enabled":  c.generator != nil,
		"ab_mode":      c.ab.Enabled,
	}
}

// Close releases all subsystem resources.
func (c *Client) Close() error {
	var errs []string
	if c.generator != nil {
		if err := c.generator.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := c.sessions.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func cloneFacts(facts map[string]interface{}) map[string]interface{} {
	if facts == nil {
		return make(map[string]interface{})
	}
	out := make(map[string]interface{}, len(facts))
	for k, v := range facts {
		out[k] = v
	}
	return out
}

func normalizeLocale(locale string) string {
	switch strings.ToLower(locale) {
	case "ko", "ko-kr", "kr":
		return "ko"
	default:
		return "en"
	}
}

func buildPrompt(locale, query, context string) string {
	var b strings.Builder
	if locale == "ko" {
		b.WriteString("당신은 사주, 점성술, 타로를 아우르는 운세 상담가입니다. ")
		b.WriteString("아래 참고 자료를 근거로 질문에 한국어로 답하세요. 자료에 없는 내용은 지어내지 마세요.\n\n")
	} else {
		b.WriteString("You are a divination counselor versed in saju, western astrology and tarot. ")
		b.WriteString("Answer the question in English, grounded strictly in the reference material below.\n\n")
	}
	if context != "" {
		b.WriteString("[Reference]\n")
		b.WriteString(context)
		b.WriteString("\n\n")
	}
	b.WriteString("[Question]\n")
	b.WriteString(query)
	return b.String()
}
