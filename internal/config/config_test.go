package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDefault checks the stock pipeline values.
func TestDefault(t *testing.T) {
	p := Default()
	if p.Job != "fashionetl" || p.Images.Dir != "./images" || p.Images.Count != 30 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if p.Storage.Kind != "postgres" {
		t.Fatalf("default storage kind = %s", p.Storage.Kind)
	}
	if p.Enrich.Options == nil || p.Simulate.Options == nil || p.Recommend.Options == nil {
		t.Fatal("stage option bags not initialized")
	}
}

// TestLoadEmptyPath checks a missing -c flag yields usable defaults.
func TestLoadEmptyPath(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if p.Images.Count != 30 {
		t.Fatalf("count = %d, want 30", p.Images.Count)
	}
}

// TestLoadFileWithBackfill checks set fields are honored and unset fields
// fall back to defaults.
func TestLoadFileWithBackfill(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	body := `{
		"images":  {"dir": "/data/imgs", "count": 12, "seed": 42},
		"storage": {"kind": "sqlite", "db": {"dsn": ":memory:"}},
		"enrich":  {"options": {"max_candidates": 4, "variation_chance": 0.5}}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Images.Dir != "/data/imgs" || p.Images.Count != 12 || p.Images.Seed != 42 {
		t.Fatalf("images not honored: %+v", p.Images)
	}
	if p.Storage.Kind != "sqlite" || p.Storage.DB.DSN != ":memory:" {
		t.Fatalf("storage not honored: %+v", p.Storage)
	}
	if p.Job != "fashionetl" {
		t.Fatalf("job not backfilled: %q", p.Job)
	}
	if got := p.Enrich.Options.Int("max_candidates", 5); got != 4 {
		t.Fatalf("max_candidates = %d, want 4", got)
	}
	if got := p.Enrich.Options.Float("variation_chance", 0.2); got != 0.5 {
		t.Fatalf("variation_chance = %v, want 0.5", got)
	}
	if p.Simulate.Options == nil {
		t.Fatal("absent options bag decoded to nil")
	}
}

func TestLoadBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("broken JSON accepted")
	}
}

// TestPostgresDSNFromEnv checks credential assembly and escaping.
func TestPostgresDSNFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "fashion_db")
	t.Setenv("DB_USER", "etl")
	t.Setenv("DB_PASSWORD", "p@ss:word")

	dsn := PostgresDSNFromEnv()
	if !strings.HasPrefix(dsn, "postgres://etl:") {
		t.Fatalf("dsn = %s", dsn)
	}
	if !strings.HasSuffix(dsn, "@db.internal:5432/fashion_db") {
		t.Fatalf("dsn = %s", dsn)
	}
	if strings.Contains(dsn, "p@ss:word") {
		t.Fatalf("password not escaped: %s", dsn)
	}
}

// TestValidatePipeline checks error vs warning classification.
func TestValidatePipeline(t *testing.T) {
	good := Default()
	good.Storage.DB.DSN = "postgres://x"
	if issues := ValidatePipeline(good); HasErrors(issues) {
		t.Fatalf("default config invalid: %v", issues)
	}

	bad := Default()
	bad.Images.Dir = ""
	bad.Storage.DB.DSN = ""
	bad.Storage.Kind = "sqlite" // no env fallback for sqlite DSN
	bad.Images.Count = -1
	issues := ValidatePipeline(bad)
	if !HasErrors(issues) {
		t.Fatalf("invalid config passed: %+v", bad)
	}

	warned := Default()
	warned.Storage.DB.DSN = "postgres://x"
	warned.Storage.Kind = "mssql"
	issues = ValidatePipeline(warned)
	if HasErrors(issues) {
		t.Fatal("unknown kind should warn, not error")
	}
	found := false
	for _, is := range issues {
		if is.Severity == SeverityWarning && is.Path == "storage.kind" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no storage.kind warning in %v", issues)
	}
}

// TestOptionsTypedAccess covers the coercions stages rely on.
func TestOptionsTypedAccess(t *testing.T) {
	o := Options{
		"n":     float64(3), // JSON numbers decode as float64
		"f":     0.25,
		"s":     "x",
		"b":     true,
		"users": []any{"user001", "user002"},
	}
	if o.Int("n", 9) != 3 || o.Int("missing", 9) != 9 {
		t.Fatal("Int coercion broken")
	}
	if o.Float("f", 0) != 0.25 || o.Float("n", 0) != 3 {
		t.Fatal("Float coercion broken")
	}
	if o.String("s", "") != "x" || !o.Bool("b", false) {
		t.Fatal("String/Bool broken")
	}
	got := o.StringSlice("users")
	if len(got) != 2 || got[0] != "user001" {
		t.Fatalf("StringSlice = %v", got)
	}
	if o.StringSlice("missing") != nil {
		t.Fatal("missing slice should be nil")
	}
}
