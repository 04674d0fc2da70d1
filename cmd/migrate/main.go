package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/docrisk/internal/config"
	infraBQ "github.com/dvloznov/docrisk/internal/infra/bigquery"
	"github.com/dvloznov/docrisk/internal/logger"
)

type target struct {
	projectID string
	datasetID string
}

// resolveTarget prefers explicit flags over the configured storage section.
func resolveTarget(projectFlag, datasetFlag string, cfg config.StorageConfig) (target, error) {
	t := target{projectID: cfg.ProjectID, datasetID: cfg.DatasetID}
	if projectFlag != "" {
		t.projectID = projectFlag
	}
	if datasetFlag != "" {
		t.datasetID = datasetFlag
	}
	if t.projectID == "" {
		return target{}, fmt.Errorf("GCP project ID is required: pass -project or set GCP_PROJECT_ID")
	}
	if t.datasetID == "" {
		return target{}, fmt.Errorf("BigQuery dataset ID is required: pass -dataset or set BQ_DATASET_ID")
	}
	return t, nil
}

func main() {
	var (
		projectID     = flag.String("project", "", "GCP project ID (defaults to storage.project_id)")
		datasetID     = flag.String("dataset", "", "BigQuery dataset ID (defaults to storage.dataset_id)")
		appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
		migrationsDir = flag.String("migrations", "", "Directory of migration files (defaults to the embedded set)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewWithLevel(cfg.Log.Level, nil)

	t, err := resolveTarget(*projectID, *datasetID, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid migration target")
	}

	ctx := context.Background()
	client, err := bigquery.NewClient(ctx, t.projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().Str("project", t.projectID).Str("dataset", t.datasetID).Msg("Connected to BigQuery")

	migrations := infraBQ.Migrations()
	if *migrationsDir != "" {
		migrations = os.DirFS(*migrationsDir)
	}

	migrator := infraBQ.NewMigrator(client, t.projectID, t.datasetID, *appliedBy, log)
	applied, err := migrator.Run(ctx, migrations)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	if applied == 0 {
		log.Info().Msg("No new migrations to apply. Database is up to date.")
	} else {
		log.Info().Int("applied", applied).Msg("Successfully applied migrations")
	}
}
