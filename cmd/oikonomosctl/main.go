package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"oikonomos/internal/storage"
	oikapi "oikonomos/pkg/oikonomos"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "optimise":
		return runOptimise(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "report":
		return runReport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: oikonomosctl <init|reset|optimise|runs|fitness|report> [flags]", msg)
}

func newClient(storeKind, dbPath string) (*oikapi.Client, error) {
	return oikapi.New(oikapi.Options{
		StoreKind: storeKind,
		DBPath:    dbPath,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "oikonomos.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "oikonomos.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runOptimise(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("optimise", flag.ContinueOnError)
	configPath := fs.String("config", "", "run config JSON path")
	settlementPath := fs.String("settlement", "", "settlement definition JSON path (overrides config)")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	population := fs.Int("pop", 0, "population size")
	tournament := fs.Int("tournament", 0, "tournament size")
	generations := fs.Int("gens", 0, "generation count")
	mutationRate := fs.Float64("mutation-rate", 0, "per-individual mutation probability")
	weightsFlag := fs.String("weights", "", "yield weights, e.g. food=1,gold=2")
	workers := fs.Int("workers", 0, "worker count")
	seed := fs.Int64("seed", 0, "rng seed (0 derives one from the clock)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "oikonomos.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	if err := overrideFromFlags(&req, setFlags, flagValues{
		runID:        *runID,
		population:   *population,
		tournament:   *tournament,
		generations:  *generations,
		mutationRate: *mutationRate,
		weights:      *weightsFlag,
		workers:      *workers,
		seed:         *seed,
	}); err != nil {
		return err
	}
	if *settlementPath != "" {
		record, err := loadSettlementRecord(*settlementPath)
		if err != nil {
			return err
		}
		req.Settlement = record
	}
	if req.Settlement.Name == "" && len(req.Settlement.Assets) == 0 {
		return errors.New("optimise requires a settlement definition (--config or --settlement)")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Optimise(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("run completed run_id=%s settlement=%s generations=%d\n",
		summary.RunID, req.Settlement.Name, len(summary.BestByGeneration))
	for i, best := range summary.BestByGeneration {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	fmt.Printf("final_best_fitness=%.6f\n", summary.FinalBestFitness)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "oikonomos.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	runs, err := client.Runs(ctx, oikapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	for _, item := range runs {
		fmt.Printf("run_id=%s created_at=%s settlement=%s pop=%d gens=%d seed=%d best_fitness=%.6f\n",
			item.RunID,
			item.CreatedAtUTC,
			item.Settlement,
			item.Population,
			item.Generations,
			item.Seed,
			item.BestFitness,
		)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id (empty selects the most recent run)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "oikonomos.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	history, err := client.FitnessHistory(ctx, *runID)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}

	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	return nil
}

func runReport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id (empty selects the most recent run)")
	jsonOut := fs.Bool("json", false, "emit report as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "oikonomos.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	report, err := client.Report(ctx, *runID)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(os.Stdout, report)
	return nil
}

func printReport(w io.Writer, report oikapi.Report) {
	fmt.Fprintf(w, "run_id=%s settlement=%s best_fitness=%.6f\n", report.RunID, report.Settlement, report.BestFitness)
	fmt.Fprintln(w, "yields:")
	for _, line := range report.Yields {
		fmt.Fprintf(w, "  %-12s %s\n", line.Category, humanize.Comma(int64(line.Amount)))
	}
	fmt.Fprintln(w, "maxima:")
	for _, line := range report.Maxima {
		fmt.Fprintf(w, "  %-12s %s\n", line.Category, humanize.Comma(int64(line.Amount)))
	}
	fmt.Fprintln(w, "assignments:")
	for _, line := range report.Assignments {
		label := line.AssetID
		if line.Idle {
			label = "(idle)"
		}
		fmt.Fprintf(w, "  %-24s %s\n", label, humanize.Comma(int64(line.Count)))
	}
}
