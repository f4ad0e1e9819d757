package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scout-cli/internal/config"
	"github.com/sells-group/scout-cli/internal/metrics"
	"github.com/sells-group/scout-cli/internal/resilience"
	"github.com/sells-group/scout-cli/pkg/anthropic"
)

// ModelError reports a model call that could not produce a JSON object:
// retries were exhausted, the failure was permanent, or the call was
// cancelled.
type ModelError struct {
	Attempts int
	Err      error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("llm: model call failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// badReplyError marks a reply that did not parse as a JSON object.
type badReplyError struct {
	err error
}

func (e *badReplyError) Error() string { return e.err.Error() }

func (e *badReplyError) Unwrap() error { return e.err }

// shouldRetry retries transient transport failures and unparseable replies.
// Permanent API errors (400, 401, 403, 404) fail on the first attempt.
func shouldRetry(err error) bool {
	var bad *badReplyError
	return errors.As(err, &bad) || resilience.IsTransient(err)
}

// Generator returns a parsed JSON object for a system and user instruction.
type Generator interface {
	GenerateJSON(ctx context.Context, system, user string) (map[string]any, error)
}

var _ Generator = (*Client)(nil)

// Client wraps an anthropic.Client with a bounded retry loop and JSON
// recovery.
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int64
	retry     resilience.RetryConfig
}

// New builds a Client over api.
func New(api anthropic.Client, acfg config.AnthropicConfig, lcfg config.LLMConfig) *Client {
	retry := resilience.FromLLMConfig(lcfg)
	retry.ShouldRetry = shouldRetry
	retry.OnRetry = resilience.RetryLogger("anthropic", "generate_json")
	maxTokens := acfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Client{
		api:       api,
		model:     acfg.Model,
		maxTokens: maxTokens,
		retry:     retry,
	}
}

// NewFromConfig selects the live SDK backend, or the fixture backend when
// llm.offline is set.
func NewFromConfig(cfg *config.Config) *Client {
	var api anthropic.Client
	if cfg.LLM.Offline {
		zap.L().Info("llm: offline mode, using fixture responses")
		api = anthropic.NewFixtureClient()
	} else {
		api = anthropic.NewClient(cfg.Anthropic.Key, cfg.Anthropic.BaseURL)
	}
	return New(api, cfg.Anthropic, cfg.LLM)
}

// WithRetry returns a copy of c using rc, keeping the default retry policy
// unless rc sets its own.
func (c *Client) WithRetry(rc resilience.RetryConfig) *Client {
	cp := *c
	if rc.ShouldRetry == nil {
		rc.ShouldRetry = shouldRetry
	}
	cp.retry = rc
	return &cp
}

// GenerateJSON sends one request per attempt and parses the reply into a
// JSON object. Transient failures and unparseable replies are retried.
func (c *Client) GenerateJSON(ctx context.Context, system, user string) (map[string]any, error) {
	attempts := 0
	obj, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (map[string]any, error) {
		attempts++
		return c.attempt(ctx, system, user)
	})
	if err != nil {
		metrics.ObserveModelCall("exhausted")
		return nil, &ModelError{Attempts: attempts, Err: err}
	}
	return obj, nil
}

func (c *Client) attempt(ctx context.Context, system, user string) (map[string]any, error) {
	resp, err := c.api.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    []anthropic.SystemBlock{{Text: system}},
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		metrics.ObserveModelCall("error")
		if code := anthropic.StatusCode(err); resilience.IsTransientHTTPStatus(code) {
			return nil, resilience.NewTransientError(err, code)
		}
		return nil, err
	}
	resp.Usage.LogCost(c.model, "generate_json")

	obj, err := ParseObject(resp.Text())
	if err != nil {
		metrics.ObserveModelCall("bad_json")
		return nil, &badReplyError{err: err}
	}
	metrics.ObserveModelCall("ok")
	return obj, nil
}

// ParseObject decodes text as a JSON object. When the raw text does not
// parse, it retries on the outermost {...} span after stripping code fences.
func ParseObject(text string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &obj); err == nil && obj != nil {
		return obj, nil
	}

	cleaned := cleanJSON(text)
	obj = nil
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, eris.Wrapf(err, "llm: response is not a JSON object (%d bytes)", len(text))
	}
	if obj == nil {
		return nil, eris.New("llm: response is JSON null")
	}
	return obj, nil
}

func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	for _, fence := range []string{"```json", "```"} {
		if strings.HasPrefix(text, fence) {
			text = strings.TrimPrefix(text, fence)
			if idx := strings.LastIndex(text, "```"); idx >= 0 {
				text = text[:idx]
			}
			break
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
