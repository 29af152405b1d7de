package resilience

import (
	"time"

	"github.com/sells-group/gtm-cli/internal/config"
)

// FromConfig builds a RetryConfig from the retry section of the app config.
// Zero values keep the defaults.
func FromConfig(c config.RetryConfig) RetryConfig {
	cfg := DefaultRetryConfig()
	if c.MaxAttempts > 0 {
		cfg.MaxAttempts = c.MaxAttempts
	}
	if c.InitialBackoffMS > 0 {
		cfg.InitialBackoff = time.Duration(c.InitialBackoffMS) * time.Millisecond
	}
	if c.MaxBackoffMS > 0 {
		cfg.MaxBackoff = time.Duration(c.MaxBackoffMS) * time.Millisecond
	}
	return cfg
}
