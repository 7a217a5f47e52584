// Package config defines the canonical, JSON-serializable configuration model
// for the fashionetl application. It is intentionally small, explicit, and
// dependency-free so that pipeline files can be loaded from disk and passed
// through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in pipeline
//     files.
//  3. Minimalism: No third-party config libraries; decoding is performed by the
//     standard library, with a light Options helper for typed access.
//
// Example (trimmed):
//
//	{
//	  "job":     "fashion-demo",
//	  "images":  { "dir": "./images", "count": 30, "seed": 42 },
//	  "storage": { "kind": "postgres", "db": { "dsn": "" } },
//	  "enrich":  { "options": { "max_candidates": 5 } }
//	}
//
// Database credentials follow the 12-factor convention: when storage.db.dsn is
// empty and the kind is postgres, the DSN is assembled from the DB_HOST,
// DB_NAME, DB_USER, and DB_PASSWORD environment variables (with the stock
// container defaults localhost / fashion_db / postgres / postgres).
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
)

// Pipeline describes a full run in JSON. It is the top-level object decoded
// from a pipeline file passed via -c/--config; every field has a usable
// default so the file is optional.
type Pipeline struct {
	// Job names the run for logging and metrics labeling.
	Job string `json:"job"`

	// Images configures the image directory shared by the generate and etl
	// stages.
	Images Images `json:"images"`

	// Storage describes where rows are written (postgres or sqlite).
	Storage Storage `json:"storage"`

	// Runtime controls concurrency, batching, and channel buffer sizes.
	Runtime RuntimeConfig `json:"runtime"`

	// Metrics configures the optional Prometheus push backend.
	Metrics Metrics `json:"metrics"`

	// Enrich, Simulate, and Recommend carry per-stage option bags. The keys
	// understood by each stage are documented on the stage implementation.
	Enrich    Stage `json:"enrich"`
	Simulate  Stage `json:"simulate"`
	Recommend Stage `json:"recommend"`
}

// Images configures the synthetic image corpus.
type Images struct {
	// Dir is the directory holding (or receiving) img_*.jpg files.
	Dir string `json:"dir"`

	// Count is how many images the generate stage produces.
	Count int `json:"count"`

	// Seed makes generation reproducible; 0 derives a seed from the clock.
	Seed int64 `json:"seed"`

	// Manifest optionally names a text file listing image paths (one per
	// line, '#' comments allowed). When set, the etl stage reads the listed
	// paths instead of scanning Dir.
	Manifest string `json:"manifest"`
}

// Storage selects the sink used to persist pipeline rows.
type Storage struct {
	// Kind selects the backend: "postgres" or "sqlite".
	Kind string `json:"kind"`

	// DB configures the selected backend.
	DB DBConfig `json:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the backend connection string. Leave empty for postgres to
	// assemble one from the DB_* environment variables.
	DSN string `json:"dsn"`
}

// RuntimeConfig controls concurrency, batching, and channel buffer sizes.
// Zero values fall back to ETL_* environment overrides, then defaults.
type RuntimeConfig struct {
	TagWorkers    int `json:"tag_workers"`
	BatchSize     int `json:"batch_size"`
	ChannelBuffer int `json:"channel_buffer"`
}

// Metrics configures the metrics backend. An empty PushgatewayURL keeps the
// default no-op backend.
type Metrics struct {
	PushgatewayURL string `json:"pushgateway_url"`
}

// Stage carries a free-form option bag for one pipeline stage.
type Stage struct {
	Options Options `json:"options"`
}

// Default returns a Pipeline with every field set to its stock value. The
// postgres DSN is resolved from the environment at call time.
func Default() Pipeline {
	return Pipeline{
		Job:    "fashionetl",
		Images: Images{Dir: "./images", Count: 30},
		Storage: Storage{
			Kind: "postgres",
			DB:   DBConfig{DSN: PostgresDSNFromEnv()},
		},
		Enrich:    Stage{Options: Options{}},
		Simulate:  Stage{Options: Options{}},
		Recommend: Stage{Options: Options{}},
	}
}

// Load decodes a pipeline file and fills unset fields from Default(). An
// empty path returns Default() untouched.
func Load(path string) (Pipeline, error) {
	p := Default()
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("decode config %s: %w", path, err)
	}
	if p.Job == "" {
		p.Job = "fashionetl"
	}
	if p.Images.Dir == "" {
		p.Images.Dir = "./images"
	}
	if p.Images.Count == 0 {
		p.Images.Count = 30
	}
	if p.Storage.Kind == "" {
		p.Storage.Kind = "postgres"
	}
	if p.Storage.DB.DSN == "" && p.Storage.Kind == "postgres" {
		p.Storage.DB.DSN = PostgresDSNFromEnv()
	}
	return p, nil
}

// PostgresDSNFromEnv assembles a postgres DSN from the DB_HOST, DB_NAME,
// DB_USER, and DB_PASSWORD environment variables, defaulting each to the
// stock container values (localhost / fashion_db / postgres / postgres).
func PostgresDSNFromEnv() string {
	host := getenv("DB_HOST", "localhost")
	name := getenv("DB_NAME", "fashion_db")
	user := getenv("DB_USER", "postgres")
	pass := getenv("DB_PASSWORD", "postgres")
	return fmt.Sprintf("postgres://%s:%s@%s:5432/%s",
		url.QueryEscape(user), url.QueryEscape(pass), host, name)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
//
// Options is used for stage-specific configuration where the shape varies by
// stage (e.g. enrich.options.max_candidates).
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Float returns the float64 value for key or def. Integers decode as float64
// under encoding/json, so both shapes are accepted.
func (o Options) Float(key string, def float64) float64 {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key (which may itself be a nested
// map[string]any, []any, or primitive).
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null
// "options" object in JSON decodes to a non-nil, empty Options map. This
// simplifies call sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
