// Package config provides configuration models and helpers for pipeline runs.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "images.count"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue in the slice has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateImages(p.Images)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	issues = append(issues, validateStageOptions(p)...)

	return issues
}

// validateImages validates the image corpus configuration.
func validateImages(im Images) []Issue {
	var issues []Issue

	if strings.TrimSpace(im.Dir) == "" && strings.TrimSpace(im.Manifest) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "images.dir",
			Message:  "either images.dir or images.manifest must be set",
		})
	}
	if im.Count < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "images.count",
			Message:  fmt.Sprintf("count must not be negative (got %d)", im.Count),
		})
	}
	if im.Count > 999 {
		// File names are img_NNN.jpg; four digits would break the id scheme.
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "images.count",
			Message:  fmt.Sprintf("count %d exceeds the img_NNN naming range; ids above 999 will not sort correctly", im.Count),
		})
	}
	return issues
}

// validateStorage validates the storage configuration.
func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}

	// Known storage kinds. Unknown kinds are warnings (for forward
	// compatibility with externally registered backends).
	known := map[string]struct{}{
		"postgres": {},
		"sqlite":   {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "dsn must not be empty (for postgres it is assembled from DB_* env vars when the config leaves it blank)",
		})
	}
	return issues
}

// validateRuntime validates runtime knobs. Zero means "use the default"; only
// negative values are rejected.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	check := func(name string, v int) {
		if v < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "runtime." + name,
				Message:  fmt.Sprintf("%s must not be negative (got %d)", name, v),
			})
		}
	}
	check("tag_workers", r.TagWorkers)
	check("batch_size", r.BatchSize)
	check("channel_buffer", r.ChannelBuffer)

	if r.TagWorkers > 64 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.tag_workers",
			Message:  fmt.Sprintf("tag_workers=%d is unusually high for a CPU-bound stage", r.TagWorkers),
		})
	}
	return issues
}

// validateStageOptions sanity-checks the per-stage option bags for values the
// stages would silently clamp or ignore.
func validateStageOptions(p Pipeline) []Issue {
	var issues []Issue

	if n := p.Enrich.Options.Int("max_candidates", 5); n < 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "enrich.options.max_candidates",
			Message:  fmt.Sprintf("max_candidates must be at least 1 (got %d)", n),
		})
	}
	if c := p.Enrich.Options.Float("variation_chance", 0.2); c < 0 || c > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "enrich.options.variation_chance",
			Message:  fmt.Sprintf("variation_chance must be in [0,1] (got %g)", c),
		})
	}
	if n := p.Simulate.Options.Int("users", 15); n < 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "simulate.options.users",
			Message:  fmt.Sprintf("users must be at least 1 (got %d)", n),
		})
	}
	if n := p.Recommend.Options.Int("top_n", 3); n < 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "recommend.options.top_n",
			Message:  fmt.Sprintf("top_n must be at least 1 (got %d)", n),
		})
	}
	return issues
}
