// Package audit verifies the stored pipeline data against its structural
// guarantees: schema idempotency, metadata completeness against the source
// directory, and positional alignment of the array-pair columns.
package audit

import (
	"context"
	"fmt"

	"fashionetl/internal/datasource/file"
	"fashionetl/internal/logging"
	"fashionetl/internal/storage"
)

// Severity classifies a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one audit result. Check names the verification that produced it.
type Finding struct {
	Severity Severity
	Check    string
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Check, f.Message)
}

// HasErrors reports whether any finding is error-severity.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Run executes every check and returns the findings. imageDir may be empty,
// in which case the count check is skipped. A non-nil error means a check
// could not run at all, as opposed to a check that ran and failed.
func Run(ctx context.Context, store storage.Store, log *logging.Logger, imageDir string) ([]Finding, error) {
	var findings []Finding

	// Schema idempotency: the DDL already ran once when the store was opened,
	// so a second application must be a no-op.
	if err := store.EnsureSchema(ctx); err != nil {
		findings = append(findings, Finding{
			Severity: SeverityError,
			Check:    "schema_idempotent",
			Message:  fmt.Sprintf("schema re-application failed: %v", err),
		})
	}

	if imageDir != "" {
		f, err := checkImageCount(ctx, store, imageDir)
		if err != nil {
			return findings, err
		}
		findings = append(findings, f...)
	} else {
		log.Debug("no image directory configured, skipping count check")
	}

	f, err := checkPathAlignment(ctx, store)
	if err != nil {
		return findings, err
	}
	findings = append(findings, f...)

	f, err = checkRecommendationAlignment(ctx, store)
	if err != nil {
		return findings, err
	}
	findings = append(findings, f...)

	for _, f := range findings {
		switch f.Severity {
		case SeverityError:
			log.Error("audit finding", "check", f.Check, "message", f.Message)
		default:
			log.Warn("audit finding", "check", f.Check, "message", f.Message)
		}
	}
	log.Info("audit complete", "findings", len(findings), "errors", HasErrors(findings))
	return findings, nil
}

// checkImageCount compares stored metadata rows against the img_*.jpg files
// on disk.
func checkImageCount(ctx context.Context, store storage.Store, dir string) ([]Finding, error) {
	paths, err := file.ScanImages(dir)
	if err != nil {
		return nil, fmt.Errorf("audit: scan %s: %w", dir, err)
	}
	count, err := store.CountImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: count image_metadata: %w", err)
	}
	if count != int64(len(paths)) {
		return []Finding{{
			Severity: SeverityError,
			Check:    "image_count",
			Message: fmt.Sprintf("image_metadata has %d rows but %s holds %d images",
				count, dir, len(paths)),
		}}, nil
	}
	return nil, nil
}

// checkPathAlignment verifies every navigation path keeps its images and
// scores arrays the same length.
func checkPathAlignment(ctx context.Context, store storage.Store) ([]Finding, error) {
	paths, err := store.ListNavigationPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: list navigation paths: %w", err)
	}
	var findings []Finding
	for _, p := range paths {
		if err := p.Validate(); err != nil {
			findings = append(findings, Finding{
				Severity: SeverityError,
				Check:    "path_alignment",
				Message:  err.Error(),
			})
		}
	}
	if len(paths) == 0 {
		findings = append(findings, Finding{
			Severity: SeverityWarning,
			Check:    "path_alignment",
			Message:  "image_navigation_paths is empty; enrich stage has not run",
		})
	}
	return findings, nil
}

// checkRecommendationAlignment verifies every recommendation keeps its images
// and reasoning arrays the same length.
func checkRecommendationAlignment(ctx context.Context, store storage.Store) ([]Finding, error) {
	recs, err := store.ListRecommendations(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: list recommendations: %w", err)
	}
	var findings []Finding
	for _, r := range recs {
		if err := r.Validate(); err != nil {
			findings = append(findings, Finding{
				Severity: SeverityError,
				Check:    "recommendation_alignment",
				Message:  err.Error(),
			})
		}
	}
	return findings, nil
}
