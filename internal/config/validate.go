package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/adamancini/toolup/internal/triple"
)

// ValidationError represents a settings validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every problem found in one settings file.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("validation errors:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the settings for valid values.
func Validate(s *Settings) error {
	var errs ValidationErrors

	if s.Version != 1 {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (must be 1)", s.Version),
		})
	}

	if s.Home != "" && !filepath.IsAbs(s.Home) {
		errs = append(errs, ValidationError{
			Field:   "home",
			Message: fmt.Sprintf("'%s' must be an absolute path", s.Home),
		})
	}

	if err := validateDistServer(s.DistServer); err != nil {
		errs = append(errs, *err)
	}

	if s.DefaultToolchain != "" {
		if _, err := triple.ParsePartialToolchainDesc(s.DefaultToolchain); err != nil {
			errs = append(errs, ValidationError{Field: "default_toolchain", Message: err.Error()})
		}
	}

	if s.IOThreads != "" && !validThreads(s.IOThreads) {
		errs = append(errs, ValidationError{
			Field:   "io_threads",
			Message: fmt.Sprintf("invalid value '%s' (must be disabled, immediate, threaded or a positive integer)", s.IOThreads),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateDistServer(server string) *ValidationError {
	if server == "" {
		return nil
	}
	u, err := url.Parse(server)
	if err != nil {
		return &ValidationError{Field: "dist_server", Message: err.Error()}
	}
	switch u.Scheme {
	case "http", "https", "file":
		return nil
	default:
		return &ValidationError{
			Field:   "dist_server",
			Message: fmt.Sprintf("unsupported scheme '%s' (must be http, https or file)", u.Scheme),
		}
	}
}
