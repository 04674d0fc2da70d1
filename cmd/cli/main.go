package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/docrisk/internal/app"
	"github.com/dvloznov/docrisk/internal/config"
	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/extract"
	"github.com/dvloznov/docrisk/internal/gcs"
	"github.com/dvloznov/docrisk/internal/logger"
	"github.com/dvloznov/docrisk/internal/pipeline"
	"github.com/dvloznov/docrisk/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	// Results go to stdout; logs stay on stderr.
	log := logger.NewConsole(os.Stderr).Level(logger.ParseLevel(cfg.Log.Level))

	switch os.Args[1] {
	case "analyze":
		runAnalyze(cfg, log)
	case "analyze-gcs":
		runAnalyzeGCS(cfg, log)
	case "score":
		runScore(cfg, log)
	case "upload":
		runUpload(cfg, log)
	case "rules":
		runRules(cfg, log)
	case "assessments":
		runAssessments(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Document Risk CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze       Analyze a local CSV, XLSX, PDF, image or JSON payload")
	fmt.Println("  analyze-gcs   Analyze a document stored in GCS")
	fmt.Println("  score         Score a metrics JSON file against the risk rules")
	fmt.Println("  upload        Upload a document to GCS")
	fmt.Println("  rules         Print the loaded risk rules")
	fmt.Println("  assessments   List stored assessments")
	fmt.Println("  help          Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func build(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts app.Options) *app.App {
	a, err := app.Build(ctx, cfg, log, opts)
	if err != nil {
		a.Close()
		log.Fatal().Err(err).Msg("Failed to build analysis stack")
	}
	return a
}

func runAnalyze(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to the document")
	documentID := fs.String("document-id", "", "Document ID (defaults to a new UUID)")
	signalsPath := fs.String("signals", "", "Path to a JSON file of external signals")
	noAlerts := fs.Bool("no-alerts", false, "Do not send Slack alerts")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	signals, err := readSignals(*signalsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid signals")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a := build(ctx, cfg, log, app.Options{SkipNotify: *noAlerts})
	defer a.Close()

	req, err := readDocument(ctx, a.Extractor, *filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to read document")
	}
	req.DocumentID = *documentID
	req.Signals = signals

	resp, err := a.Analyzer.Analyze(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}
	if err := writeJSON(os.Stdout, resp); err != nil {
		log.Fatal().Err(err).Msg("Failed to write result")
	}
}

func runAnalyzeGCS(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("analyze-gcs", flag.ExitOnError)
	gcsURI := fs.String("gcs-uri", "", "GCS URI of the document")
	documentID := fs.String("document-id", "", "Document ID (defaults to a new UUID)")
	signalsPath := fs.String("signals", "", "Path to a JSON file of external signals")
	fs.Parse(os.Args[2:])

	if *gcsURI == "" {
		log.Fatal().Msg("Error: --gcs-uri is required")
	}
	if !extract.Supported(gcs.FilenameFromURI(*gcsURI)) {
		log.Fatal().Str("gcs_uri", *gcsURI).Msg("Unsupported document format")
	}

	signals, err := readSignals(*signalsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid signals")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a := build(ctx, cfg, log, app.Options{GCS: true})
	defer a.Close()

	log.Info().Str("gcs_uri", *gcsURI).Msg("Loading document")

	content, err := a.Loader().Load(ctx, *gcsURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load document")
	}

	resp, err := a.Analyzer.Analyze(ctx, pipeline.AnalyzeRequest{
		DocumentID: *documentID,
		Content:    content,
		Signals:    signals,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}
	if err := writeJSON(os.Stdout, resp); err != nil {
		log.Fatal().Err(err).Msg("Failed to write result")
	}
}

func runScore(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	metricsPath := fs.String("metrics", "", "Path to a JSON file of cashflow metrics")
	fs.Parse(os.Args[2:])

	if *metricsPath == "" {
		log.Fatal().Msg("Error: --metrics is required")
	}

	m, err := readMetrics(*metricsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid metrics")
	}

	ctx := logger.WithContext(context.Background(), log)
	a := build(ctx, cfg, log, app.Options{SkipNotify: true})
	defer a.Close()

	if err := writeJSON(os.Stdout, a.Analyzer.Score(ctx, m)); err != nil {
		log.Fatal().Err(err).Msg("Failed to write result")
	}
}

func runUpload(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", cfg.GCS.Bucket, "GCS bucket name (or set GCS_BUCKET env)")
	objectName := fs.String("object", "", "GCS object name (defaults to a dated uploads/ path)")
	filePath := fs.String("file", "", "Path to local file")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH")
	}
	if !extract.Supported(*filePath) {
		log.Fatal().Str("file", *filePath).Msg("Unsupported document format")
	}

	if *objectName == "" {
		*objectName = gcs.ObjectName(filepath.Base(*filePath), time.Now())
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open file")
	}
	defer f.Close()

	ctx := logger.WithContext(context.Background(), log)

	client, err := gcs.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create GCS client")
	}
	defer client.Close()

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	uri, err := client.Upload(ctx, *bucketName, *objectName, "", f)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Println(uri)
}

func runRules(cfg *config.Config, log zerolog.Logger) {
	ctx := logger.WithContext(context.Background(), log)
	a := build(ctx, cfg, log, app.Options{SkipNotify: true})
	defer a.Close()

	if err := writeJSON(os.Stdout, a.Analyzer.Rules()); err != nil {
		log.Fatal().Err(err).Msg("Failed to write rules")
	}
}

func runAssessments(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("assessments", flag.ExitOnError)
	documentID := fs.String("document-id", "", "Only list assessments of this document")
	limit := fs.Int("limit", storage.DefaultListLimit, "Maximum number of assessments")
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	a := build(ctx, cfg, log, app.Options{SkipNotify: true})
	defer a.Close()

	records, err := a.Repository.List(ctx, storage.Filter{DocumentID: *documentID, Limit: *limit})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list assessments")
	}

	fmt.Printf("\n=== Assessments (%d) ===\n", len(records))
	for i, rec := range records {
		fmt.Printf("\n%d. %s\n", i+1, rec.ID)
		fmt.Printf("   Document: %s (%s)\n", rec.DocumentID, rec.DocumentType)
		fmt.Printf("   Score:    %.0f (%s)\n", rec.Score, rec.Bin)
		fmt.Printf("   Decision: %s\n", rec.Decision)
		fmt.Printf("   Created:  %s\n", rec.CreatedAt.Format(time.RFC3339))
		for _, r := range rec.Rationale {
			fmt.Printf("   - %s\n", r)
		}
	}
	fmt.Println()
}

// readDocument turns a local file into an analysis request. A .json file
// holds an analyze-document content payload; other files are extracted.
func readDocument(ctx context.Context, extractor *extract.Service, path string) (pipeline.AnalyzeRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.AnalyzeRequest{}, err
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		raw := json.RawMessage(data)
		if !json.Valid(raw) {
			return pipeline.AnalyzeRequest{}, fmt.Errorf("%s is not valid JSON", path)
		}
		return pipeline.AnalyzeRequest{Content: domain.DecodeContent(raw), Extracted: raw}, nil
	}

	content, err := extractor.Extract(ctx, filepath.Base(path), data)
	if err != nil {
		return pipeline.AnalyzeRequest{}, err
	}
	return pipeline.AnalyzeRequest{Content: content}, nil
}

func readSignals(path string) (domain.ExternalSignals, error) {
	var signals domain.ExternalSignals
	if path == "" {
		return signals, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return signals, err
	}
	if err := json.Unmarshal(data, &signals); err != nil {
		return signals, fmt.Errorf("decode signals %s: %w", path, err)
	}
	return signals, nil
}

func readMetrics(path string) (domain.Metrics, error) {
	var m domain.Metrics
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode metrics %s: %w", path, err)
	}
	return m, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
