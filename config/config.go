package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"aqar_pipeline/normalize"
)

type Config struct {
	SourceDBPath   string
	TargetDBURL    string
	MigrationsPath string
	Scheduler      SchedulerConfig
	Reports        ReportConfig
	LinkBatchSize  int
	LogLevel       string
	Pipelines      map[string]*PipelineConfig
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

// ReportConfig controls optional S3 upload of verification reports.
// Disabled when Bucket is empty.
type ReportConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

func (r *ReportConfig) Enabled() bool {
	return r.Bucket != ""
}

// Pipeline kinds select which raw table a pipeline reads.
const (
	KindListings = "listings"
	KindMessages = "messages"
)

// PipelineConfig parameterizes one migration pipeline. The legacy system had
// one near-identical script per migration attempt; here variations are
// configuration.
type PipelineConfig struct {
	ID                string                     `yaml:"id"`
	Name              string                     `yaml:"name"`
	Kind              string                     `yaml:"kind"`
	SourceTable       string                     `yaml:"source_table"`
	TargetTable       string                     `yaml:"target_table"`
	MinMessageLen     int                        `yaml:"min_message_len"`
	BatchSize         int                        `yaml:"batch_size"`
	AutoCreateLookups bool                       `yaml:"auto_create_lookups"`
	CategoryBuckets   []normalize.CategoryBucket `yaml:"category_buckets"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		SourceDBPath:   getEnv("SOURCE_DB_PATH", "legacy.db"),
		TargetDBURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "storage/migrations"),
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("MIGRATE_CRON"),
		},
		Reports: ReportConfig{
			Bucket:          os.Getenv("REPORT_S3_BUCKET"),
			Region:          getEnv("REPORT_S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("REPORT_S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("REPORT_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("REPORT_S3_SECRET_ACCESS_KEY"),
			Prefix:          getEnv("REPORT_S3_PREFIX", "reports"),
		},
		LinkBatchSize: getEnvInt("LINK_BATCH_SIZE", 50),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Pipelines:     make(map[string]*PipelineConfig),
	}

	if interval := os.Getenv("MIGRATE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadPipelineConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadPipelineConfigs() error {
	configDir := getEnv("PIPELINES_DIR", "config/pipelines")
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var p PipelineConfig
		if err := yaml.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		p.ApplyDefaults()

		if err := p.Validate(); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		c.Pipelines[p.ID] = &p
	}

	return nil
}

// ApplyDefaults fills unset fields with the standard thresholds.
func (p *PipelineConfig) ApplyDefaults() {
	if p.MinMessageLen == 0 {
		p.MinMessageLen = 10
	}
	if p.BatchSize == 0 {
		p.BatchSize = 200
	}
	if p.BatchSize > 500 {
		p.BatchSize = 500
	}
	if len(p.CategoryBuckets) == 0 {
		p.CategoryBuckets = normalize.DefaultCategoryBuckets
	}
}

func (p *PipelineConfig) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("pipeline id is required")
	}
	if p.Kind != KindListings && p.Kind != KindMessages {
		return fmt.Errorf("pipeline %s: unknown kind %q", p.ID, p.Kind)
	}
	if p.SourceTable == "" || p.TargetTable == "" {
		return fmt.Errorf("pipeline %s: source_table and target_table are required", p.ID)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
