package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aqar_pipeline/config"
	"aqar_pipeline/logging"
	"aqar_pipeline/pipeline"
	"aqar_pipeline/scheduler"
	"aqar_pipeline/storage"
	"aqar_pipeline/workers"
)

var (
	migrateNow = flag.Bool("migrate", false, "Run all pipelines once and exit")
	verifyOnly = flag.Bool("verify", false, "Print verification reports and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("migrate.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting aqar_pipeline...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Loaded %d pipeline configs", len(cfg.Pipelines))
	for id, p := range cfg.Pipelines {
		log.Printf("  - %s (%s)", p.Name, id)
	}

	ctx := context.Background()

	if err := storage.RunMigrations(cfg.TargetDBURL, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to migrate target schema: %v", err)
	}

	pgStore, err := storage.NewPostgresStore(ctx, cfg.TargetDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pgStore.Close()
	log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.TargetDBURL))

	sqliteStore, err := storage.NewSQLiteStore(cfg.SourceDBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer sqliteStore.Close()
	log.Printf("Source database: %s", cfg.SourceDBPath)

	runner := pipeline.New(cfg, sqliteStore, pgStore)

	if cfg.Reports.Enabled() {
		uploader, err := storage.NewReportUploader(ctx, storage.S3Config{
			Bucket:          cfg.Reports.Bucket,
			Region:          cfg.Reports.Region,
			Endpoint:        cfg.Reports.Endpoint,
			AccessKeyID:     cfg.Reports.AccessKeyID,
			SecretAccessKey: cfg.Reports.SecretAccessKey,
			Prefix:          cfg.Reports.Prefix,
		})
		if err != nil {
			log.Printf("Warning: report uploads disabled: %v", err)
		} else {
			runner.SetReportSink(uploader)
			log.Printf("Report uploads enabled: s3://%s/%s", cfg.Reports.Bucket, cfg.Reports.Prefix)
		}
	}

	if *verifyOnly {
		runVerify(ctx, cfg, sqliteStore, pgStore)
		return
	}

	if *migrateNow {
		log.Println("Running migration...")
		if err := runner.RunAll(ctx); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migration complete!")
		return
	}

	// Daemon mode
	sched := scheduler.New(cfg, runner)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	linker := pipeline.NewLinker(pgStore, nil)
	linkWorker := workers.NewLinkWorker(linker)
	go linkWorker.Run(ctx, cfg.LinkBatchSize, 5*time.Minute)
	log.Println("Link worker started")

	sched.SetWorkers(linkWorker)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}

func runVerify(ctx context.Context, cfg *config.Config, source *storage.SQLiteStore, target *storage.PostgresStore) {
	verifier := pipeline.NewVerifier(source, target)
	for id, p := range cfg.Pipelines {
		report, err := verifier.Verify(ctx, p)
		if err != nil {
			log.Printf("Verification of %s failed: %v", id, err)
			continue
		}
		out, _ := json.MarshalIndent(report, "", "  ")
		os.Stdout.Write(append(out, '\n'))
	}
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}
	if colonIdx == -1 || atIdx == -1 || colonIdx > atIdx {
		return connStr
	}

	return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
}
