package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"cardfetch/internal"
	"cardfetch/internal/catalog"
	"cardfetch/internal/config"
	"cardfetch/internal/logging"
	"cardfetch/internal/pipeline"
	"cardfetch/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", cfg.InputPath, "input CSV or XLSX with a 'name' column")
		output := fs.String("output", cfg.OutputPath, "output CSV path")
		variant := fs.String("variant", cfg.SchemaVariant, "a|b")
		_ = fs.Parse(os.Args[2:])
		cfg.InputPath, cfg.OutputPath = *input, *output
		cfg.SchemaVariant = strings.ToLower(strings.TrimSpace(*variant))
		must(cfg.Validate())
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err := runBatch(ctx, cfg, os.Stdout)
		cancel()
		must(err)
	case "card":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "card name")
		variant := fs.String("variant", cfg.SchemaVariant, "a|b")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*name) == "" {
			must(fmt.Errorf("--name is required"))
		}
		cfg.SchemaVariant = strings.ToLower(strings.TrimSpace(*variant))
		must(cfg.Validate())
		client := catalog.NewClient(cfg)
		defer client.Close()
		raw, err := client.Fetch(context.Background(), strings.TrimSpace(*name))
		must(err)
		schemaVariant := internal.SchemaVariant(cfg.SchemaVariant)
		card := pipeline.NewNormalizer(schemaVariant).Normalize(raw, "")
		blob, err := pipeline.RecordJSON(card, schemaVariant)
		must(err)
		var pretty bytes.Buffer
		must(json.Indent(&pretty, blob, "", "  "))
		fmt.Println(pretty.String())
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", cfg.OutputPath, "card CSV produced by run")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		count, err := pipeline.ExportCSVToXLSX(*input, *out)
		must(err)
		fmt.Printf("exported %d rows to %s\n", count, *out)
	case "runs:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs")
		_ = fs.Parse(os.Args[2:])
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
		runs, err := db.ListRuns(*limit)
		must(err)
		for _, r := range runs {
			finished := "running"
			if r.FinishedAt != nil {
				finished = *r.FinishedAt
			}
			fmt.Printf("%s variant=%s started=%s finished=%s input=%s output=%s counts=%s\n",
				r.TraceID, r.Variant, r.StartedAt, finished, r.InputPath, r.OutputPath, r.CountsJSON)
		}
	case "runs:failed":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		trace := fs.String("trace", "", "run trace id")
		out := fs.String("out", "", "output CSV path (id,name)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*trace) == "" || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--trace and --out are required"))
		}
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
		rows, err := db.FailedRows(*trace)
		must(err)
		must(pipeline.ExportRowsToCSV(rows, *out))
		fmt.Printf("wrote %d failed rows to %s\n", len(rows), *out)
	default:
		usage()
		os.Exit(1)
	}
}

func runBatch(ctx context.Context, cfg config.Config, stdout io.Writer) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	rows, err := pipeline.ReadInputRows(cfg.InputPath)
	if errors.Is(err, pipeline.ErrInputMissing) {
		return fmt.Errorf("please provide %q: %w", cfg.InputPath, err)
	}
	if err != nil {
		return err
	}

	client := catalog.NewClient(cfg)
	defer client.Close()

	opts := []pipeline.BatchOption{
		pipeline.WithPacer(catalog.NewRateLimiter(cfg.RequestDelay())),
		pipeline.WithLogger(logger),
	}
	if cfg.LedgerEnabled {
		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			logger.Warn("run ledger unavailable", zap.String("path", cfg.DBPath), zap.Error(err))
		} else {
			defer db.Close()
			opts = append(opts, pipeline.WithLedger(db))
		}
	}

	variant := internal.SchemaVariant(cfg.SchemaVariant)
	svc := pipeline.NewBatchService(client, pipeline.NewNormalizer(variant), pipeline.NewCSVSink(cfg.OutputPath, variant), opts...)

	summary, err := svc.Run(ctx, cfg.InputPath, cfg.OutputPath, rows)
	fmt.Fprintf(stdout, "done trace=%s saved=%d failed=%d skipped=%d output=%s\n",
		summary.TraceID, summary.Saved, summary.Failed, summary.Skipped, cfg.OutputPath)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func usage() {
	fmt.Println("usage: cardfetch <command>")
	fmt.Println("commands:")
	fmt.Println("  run [--input=Input.csv] [--output=yugioh_cards.csv] [--variant=a|b]")
	fmt.Println("  card --name=\"Dark Magician\" [--variant=a|b]")
	fmt.Println("  export:xlsx [--input=yugioh_cards.csv] --out=./out/cards.xlsx")
	fmt.Println("  runs:list [--limit=20]")
	fmt.Println("  runs:failed --trace=<id> --out=./retry.csv")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
