// Package pipeline contains the streaming ETL execution logic for the
// image-metadata load stage.
//
// It wires directory scanning (or manifest reading), concurrent tagging,
// validation, and batched upserting into the configured storage backend in a
// fully streaming fashion. Bad rows are dropped before the database
// (fail-soft semantics) while tag and validation errors are aggregated and
// summarized at the end.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fashionetl/internal/catalog"
	"fashionetl/internal/config"
	"fashionetl/internal/datasource/file"
	"fashionetl/internal/logging"
	"fashionetl/internal/metrics"
	"fashionetl/internal/storage"
	"fashionetl/internal/tagger"
)

const firstN = 3 // error examples kept per aggregator

// counters holds cross-goroutine statistics for a streaming run.
//
// All fields are updated atomically.
type counters struct {
	scanned         atomic.Int64 // image paths entering the tag stage
	processed       atomic.Int64 // records successfully leaving the tag stage
	tagErrors       atomic.Int64 // images that failed decode/tagging
	validateRejects atomic.Int64 // records rejected by validation
	inserted        atomic.Int64 // records successfully upserted
	batches         atomic.Int64 // upsert batches flushed
}

// Summary is the final row accounting for a run.
//
// Invariants:
//
//	scanned   == processed + tag_errors
//	processed == inserted + validate_dropped   (absent a fatal storage error)
type Summary struct {
	Scanned         int64
	Processed       int64
	TagErrors       int64
	ValidateDropped int64
	Inserted        int64
	Batches         int64
}

// runtimeConfig contains the resolved concurrency and buffering configuration
// for a run. Values are derived from the pipeline spec with optional
// environment variable overrides (12-factor style).
type runtimeConfig struct {
	tagWorkers int
	batchSize  int
	bufferSize int
}

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var (
	newStoreFn = func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		return storage.New(ctx, cfg)
	}

	tagFn = tagger.Tag
)

// Run executes a full scan → tag → validate → upsert pipeline for the image
// directory (or manifest) named by spec.
//
// Concurrency model:
//
//	Scanner (1)
//	     → N Taggers (CPU-bound; decode + classify)
//	     → Validator (identity fields; fail-soft)
//	     → Loader (1 writer; batched upserts)
//
// Back-pressure is enforced via bounded channels so that peak memory stays
// around O(batchSize + bufferSize). A fatal storage error cancels the context,
// drains in-flight records, and surfaces the error. Per-image failures never
// abort the run.
func Run(ctx context.Context, spec config.Pipeline, log *logging.Logger) (Summary, error) {
	rt := newRuntimeConfig(spec)
	log.Info("etl runtime resolved",
		"tag_workers", rt.tagWorkers, "batch", rt.batchSize, "buffer", rt.bufferSize)

	paths, err := listImages(spec.Images)
	if err != nil {
		return Summary{}, err
	}
	if len(paths) == 0 {
		return Summary{}, fmt.Errorf("no images found in %s (expected img_*.jpg)", spec.Images.Dir)
	}
	log.Info("images discovered", "count", len(paths), "dir", spec.Images.Dir)

	store, err := newStoreFn(ctx, storage.Config{
		Kind: spec.Storage.Kind,
		DSN:  spec.Storage.DB.DSN,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return Summary{}, fmt.Errorf("apply schema: %w", err)
	}

	// Cancellation: a fatal loader error cancels upstream work.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var stats counters
	tagAgg := newErrAgg(firstN)
	validateAgg := newErrAgg(firstN)

	pathCh := make(chan string, rt.bufferSize)
	recCh := make(chan catalog.ImageMetadata, rt.bufferSize)
	validCh := make(chan catalog.ImageMetadata, rt.bufferSize)

	// 1) Scanner: feed paths.
	go func() {
		defer close(pathCh)
		for _, p := range paths {
			stats.scanned.Add(1)
			select {
			case pathCh <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	// 2) Taggers: bounded CPU pool decoding and classifying images.
	taggers, tagCtx := errgroup.WithContext(ctx)
	for i := 0; i < rt.tagWorkers; i++ {
		taggers.Go(func() error {
			for p := range pathCh {
				res, err := tagFn(p)
				if err != nil {
					tagAgg.add(err.Error())
					stats.tagErrors.Add(1)
					continue
				}
				rec := toMetadata(res)
				select {
				case recCh <- rec:
					stats.processed.Add(1)
				case <-tagCtx.Done():
					return tagCtx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		_ = taggers.Wait()
		close(recCh)
	}()

	// 3) Validator: drop records missing identity fields; fail-soft.
	var wgValidator sync.WaitGroup
	wgValidator.Add(1)
	go func() {
		defer wgValidator.Done()
		defer close(validCh)
		for rec := range recCh {
			if err := rec.Validate(); err != nil {
				validateAgg.add(err.Error())
				stats.validateRejects.Add(1)
				continue
			}
			select {
			case validCh <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	// 4) Loader: single writer batching upserts.
	loadErr := runLoader(ctx, cancel, store, validCh, rt.batchSize, &stats, log)

	wgValidator.Wait()

	logAggregates(log, tagAgg, validateAgg)
	sum := summarize(&stats)
	logSummary(log, sum)
	recordMetrics(spec.Job, sum)

	if loadErr != nil {
		return sum, fmt.Errorf("load: %w", loadErr)
	}
	return sum, nil
}

// runLoader consumes validated records, batches them, and upserts each batch.
// A storage error is fatal: it cancels the context and drains remaining
// records so upstream goroutines can exit.
func runLoader(
	ctx context.Context,
	cancel context.CancelFunc,
	store storage.Store,
	in <-chan catalog.ImageMetadata,
	batchSize int,
	stats *counters,
	log *logging.Logger,
) error {
	start := time.Now()
	batch := make([]catalog.ImageMetadata, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := store.UpsertImageMetadata(ctx, batch)
		if err != nil {
			log.Error("batch upsert failed",
				"rows", len(batch), "first", batch[0].ImageID, "err", err)
			return err
		}
		stats.inserted.Add(n)
		batchNum := stats.batches.Add(1)
		elapsed := time.Since(start)
		log.Info("batch flushed",
			"batch", batchNum,
			"inserted", n,
			"total_inserted", stats.inserted.Load(),
			"elapsed", elapsed.Truncate(time.Millisecond).String(),
		)
		batch = batch[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			for range in {
				// Drain so upstream senders unblock.
			}
			return ctx.Err()

		case rec, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					cancel()
					return err
				}
				return nil
			}
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					cancel()
					for range in {
					}
					return err
				}
			}
		}
	}
}

// listImages resolves the input set: an explicit manifest wins over a
// directory scan.
func listImages(im config.Images) ([]string, error) {
	if im.Manifest != "" {
		paths, err := file.ReadManifest(im.Manifest)
		if err != nil {
			return nil, fmt.Errorf("read manifest %s: %w", im.Manifest, err)
		}
		return paths, nil
	}
	return file.ScanImages(im.Dir)
}

func toMetadata(res tagger.Result) catalog.ImageMetadata {
	return catalog.ImageMetadata{
		ImageID:        res.ImageID,
		FilePath:       res.FilePath,
		Description:    res.Description,
		DominantColors: res.DominantColors,
		StyleTags:      res.StyleTags,
		GarmentType:    res.GarmentType,
		Accessories:    res.Accessories,
		Gender:         res.Gender,
		Season:         catalog.Season,
	}
}

// newRuntimeConfig resolves the runtime configuration for a run using the
// pipeline spec and environment-variable fallbacks.
func newRuntimeConfig(spec config.Pipeline) runtimeConfig {
	return runtimeConfig{
		tagWorkers: pickInt(spec.Runtime.TagWorkers, getenvInt("ETL_TAG_WORKERS", 4)),
		batchSize:  pickInt(spec.Runtime.BatchSize, getenvInt("ETL_BATCH_SIZE", 500)),
		bufferSize: pickInt(spec.Runtime.ChannelBuffer, getenvInt("ETL_CH_BUFFER", 256)),
	}
}

func summarize(c *counters) Summary {
	return Summary{
		Scanned:         c.scanned.Load(),
		Processed:       c.processed.Load(),
		TagErrors:       c.tagErrors.Load(),
		ValidateDropped: c.validateRejects.Load(),
		Inserted:        c.inserted.Load(),
		Batches:         c.batches.Load(),
	}
}

func logSummary(log *logging.Logger, s Summary) {
	log.Info("etl summary",
		"scanned", s.Scanned,
		"processed", s.Processed,
		"tag_errors", s.TagErrors,
		"validate_dropped", s.ValidateDropped,
		"inserted", s.Inserted,
		"batches", s.Batches,
	)

	// Conservation check; a mismatch means rows were lost under cancellation.
	if s.Scanned != s.Processed+s.TagErrors {
		log.Warn("row accounting mismatch",
			"scanned", s.Scanned, "accounted", s.Processed+s.TagErrors)
	}
}

func logAggregates(log *logging.Logger, tagAgg, validateAgg *errAgg) {
	if tagAgg.count > 0 {
		log.Warn("tag errors", "count", tagAgg.count, "showing", len(tagAgg.first))
		for i, s := range tagAgg.first {
			log.Warn("tag error example", "n", i+1, "err", s)
		}
	}
	if validateAgg.count > 0 {
		log.Warn("validation rejects", "count", validateAgg.count, "showing", len(validateAgg.first))
		for i, s := range validateAgg.first {
			log.Warn("validation reject example", "n", i+1, "err", s)
		}
	}
}

func recordMetrics(job string, s Summary) {
	metrics.RecordRows(job, "scanned", s.Scanned)
	metrics.RecordRows(job, "processed", s.Processed)
	metrics.RecordRows(job, "tag_errors", s.TagErrors)
	metrics.RecordRows(job, "validate_dropped", s.ValidateDropped)
	metrics.RecordRows(job, "inserted", s.Inserted)
	metrics.RecordBatches(job, s.Batches)
}

// errAgg aggregates errors, keeping the first few unique examples.
type errAgg struct {
	mu      sync.Mutex
	limit   int
	count   int
	first   []string
	buckets map[string]int
}

func newErrAgg(limit int) *errAgg {
	return &errAgg{limit: limit, buckets: make(map[string]int)}
}

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	a.buckets[msg]++
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.mu.Unlock()
}

// getenvInt reads an int from environment, returning def when unset/invalid.
func getenvInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

// pickInt chooses the first positive value 'a', otherwise returns 'b'.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}
