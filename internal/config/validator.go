package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid setting.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the accepted logging levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks c and returns every problem found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Document.Path == "" {
		errs = append(errs, ValidationError{"document.path", c.Document.Path, "must not be empty"})
	}
	if c.Engine.CacheSize < 0 {
		errs = append(errs, ValidationError{"engine.cache_size", c.Engine.CacheSize, "must be >= 0"})
	}
	if c.Engine.RegexTimeoutMs < 0 {
		errs = append(errs, ValidationError{"engine.regex_timeout_ms", c.Engine.RegexTimeoutMs, "must be >= 0"})
	}
	if c.Grid.Concurrency < 1 {
		errs = append(errs, ValidationError{"grid.concurrency", c.Grid.Concurrency, "must be >= 1"})
	}
	if c.Server.Addr == "" {
		errs = append(errs, ValidationError{"server.addr", c.Server.Addr, "must not be empty"})
	}
	if !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errs = append(errs, ValidationError{
			"logging.level", c.Logging.Level,
			fmt.Sprintf("must be one of %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	return errs
}
