package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	p := &PipelineConfig{ID: "listings", Kind: KindListings}
	p.ApplyDefaults()

	if p.MinMessageLen != 10 {
		t.Fatalf("expected default min length 10, got %d", p.MinMessageLen)
	}
	if p.BatchSize != 200 {
		t.Fatalf("expected default batch size 200, got %d", p.BatchSize)
	}
	if len(p.CategoryBuckets) == 0 {
		t.Fatal("expected default category buckets")
	}
}

func TestApplyDefaults_BatchSizeCapped(t *testing.T) {
	p := &PipelineConfig{ID: "listings", Kind: KindListings, BatchSize: 9000}
	p.ApplyDefaults()
	if p.BatchSize != 500 {
		t.Fatalf("expected batch size capped at 500, got %d", p.BatchSize)
	}
}

func TestValidate(t *testing.T) {
	good := &PipelineConfig{ID: "listings", Kind: KindListings, SourceTable: "properties", TargetTable: "listings"}
	good.ApplyDefaults()
	if err := good.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	noID := &PipelineConfig{Kind: KindListings, SourceTable: "properties", TargetTable: "listings"}
	if err := noID.Validate(); err == nil {
		t.Fatal("expected error for missing id")
	}

	badKind := &PipelineConfig{ID: "x", Kind: "properties", SourceTable: "a", TargetTable: "b"}
	if err := badKind.Validate(); err == nil {
		t.Fatal("expected error for unknown kind")
	}

	noTables := &PipelineConfig{ID: "x", Kind: KindMessages}
	if err := noTables.Validate(); err == nil {
		t.Fatal("expected error for missing tables")
	}
}

func TestLoadPipelineConfigs(t *testing.T) {
	dir := t.TempDir()
	yaml := `id: listings
name: Legacy listings
kind: listings
source_table: properties
target_table: listings
min_message_len: 15
auto_create_lookups: true
`
	if err := os.WriteFile(filepath.Join(dir, "listings.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	// A stray non-yaml file must be ignored.
	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("notes"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	t.Setenv("PIPELINES_DIR", dir)

	cfg := &Config{Pipelines: make(map[string]*PipelineConfig)}
	if err := cfg.loadPipelineConfigs(); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(cfg.Pipelines) != 1 {
		t.Fatalf("expected 1 pipeline, got %d", len(cfg.Pipelines))
	}
	p, ok := cfg.Pipelines["listings"]
	if !ok {
		t.Fatal("expected listings pipeline to load")
	}
	if p.MinMessageLen != 15 {
		t.Fatalf("expected configured threshold 15, got %d", p.MinMessageLen)
	}
	if p.BatchSize != 200 {
		t.Fatalf("expected default batch size applied, got %d", p.BatchSize)
	}
	if !p.AutoCreateLookups {
		t.Fatal("expected auto create lookups enabled")
	}
}

func TestLoadPipelineConfigs_MissingDirIsFine(t *testing.T) {
	t.Setenv("PIPELINES_DIR", filepath.Join(t.TempDir(), "nope"))
	cfg := &Config{Pipelines: make(map[string]*PipelineConfig)}
	if err := cfg.loadPipelineConfigs(); err != nil {
		t.Fatalf("expected missing dir to be tolerated, got %v", err)
	}
}
