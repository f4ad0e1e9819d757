package resilience

import "github.com/sells-group/scout-cli/internal/config"

// FromLLMConfig builds the retry policy for model calls. Only transient
// failures are retried; callers widen ShouldRetry for their own cases.
func FromLLMConfig(cfg config.LLMConfig) RetryConfig {
	rc := DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		rc.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialBackoffMs > 0 {
		rc.InitialBackoff = cfg.InitialBackoff()
	}
	if cfg.MaxBackoffMs > 0 {
		rc.MaxBackoff = cfg.MaxBackoff()
	}
	rc.ShouldRetry = IsTransient
	return rc
}
