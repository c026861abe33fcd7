// Package oikonomos exposes the public client API: run a worker-assignment
// optimisation for a settlement, persist the result, and query past runs.
package oikonomos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"oikonomos/internal/advisor"
	"oikonomos/internal/economy"
	"oikonomos/internal/model"
	"oikonomos/internal/settlement"
	"oikonomos/internal/storage"
)

const (
	defaultDBPath         = "oikonomos.db"
	defaultPopulationSize = 30
	defaultTournamentSize = 3
	defaultGenerations    = 50
	defaultMutationRate   = 0.3
)

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

type RunRequest struct {
	RunID          string
	Settlement     model.SettlementRecord
	PopulationSize int
	TournamentSize int
	Generations    int
	MutationRate   float64
	Weights        map[string]float64
	Workers        int
	Seed           int64
}

type RunSummary struct {
	RunID            string
	BestByGeneration []float64
	FinalBestFitness float64
	Best             model.SettlementRecord
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Settlement   string
	Population   int
	Generations  int
	Seed         int64
	BestFitness  float64
}

type YieldAmount struct {
	Category string
	Amount   int
}

type AssignmentLine struct {
	AssetID string
	Count   int
	Idle    bool
}

type Report struct {
	RunID       string
	Settlement  string
	BestFitness float64
	Yields      []YieldAmount
	Maxima      []YieldAmount
	Assignments []AssignmentLine
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

// NewWithStore wires a client over an existing store, primarily for tests.
func NewWithStore(store storage.Store) *Client {
	return &Client{store: store}
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// Reset drops all persisted run artifacts.
func (c *Client) Reset(ctx context.Context) error {
	return c.store.Reset(ctx)
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Optimise runs the advisor against the request's settlement definition,
// persists the run artifacts, and returns the summary.
func (c *Client) Optimise(ctx context.Context, req RunRequest) (RunSummary, error) {
	template, err := settlement.FromRecord(req.Settlement)
	if err != nil {
		return RunSummary{}, fmt.Errorf("settlement definition: %w", err)
	}

	settings := c.settingsFromRequest(req)
	result, err := advisor.Optimise(ctx, settings, template)
	if err != nil {
		return RunSummary{}, err
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	history := make([]float64, 0, len(result.History))
	for _, entry := range result.History {
		history = append(history, entry.Fitness)
	}

	run := model.RunRecord{
		VersionedRecord: storage.Stamp(),
		ID:              runID,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339),
		Settlement:      req.Settlement.Name,
		PopulationSize:  settings.PopulationSize,
		TournamentSize:  settings.TournamentSize,
		Generations:     settings.Generations,
		MutationRate:    settings.MutationRate,
		Seed:            settings.Seed,
		Weights:         weightsToRecord(settings.Weights),
		BestFitness:     result.Fitness,
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, history); err != nil {
		return RunSummary{}, fmt.Errorf("save fitness history: %w", err)
	}

	best := settlement.ToRecord(req.Settlement.Name, result.Best)
	best.VersionedRecord = storage.Stamp()
	if err := c.store.SaveBestSettlement(ctx, runID, best); err != nil {
		return RunSummary{}, fmt.Errorf("save best settlement: %w", err)
	}

	return RunSummary{
		RunID:            runID,
		BestByGeneration: history,
		FinalBestFitness: result.Fitness,
		Best:             best,
	}, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}

	items := make([]RunItem, 0, len(runs))
	for _, run := range runs {
		items = append(items, RunItem{
			RunID:        run.ID,
			CreatedAtUTC: run.CreatedAtUTC,
			Settlement:   run.Settlement,
			Population:   run.PopulationSize,
			Generations:  run.Generations,
			Seed:         run.Seed,
			BestFitness:  run.BestFitness,
		})
	}
	return items, nil
}

// FitnessHistory returns a run's per-generation best fitness trace. An empty
// run id selects the most recent run.
func (c *Client) FitnessHistory(ctx context.Context, runID string) ([]float64, error) {
	runID, err := c.resolveRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no fitness history for run %s", runID)
	}
	return history, nil
}

// Report rebuilds a run's best settlement and summarises its yields, the
// per-category theoretical maxima, and the citizen assignment listing.
func (c *Client) Report(ctx context.Context, runID string) (Report, error) {
	runID, err := c.resolveRunID(ctx, runID)
	if err != nil {
		return Report{}, err
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return Report{}, err
	}
	if !ok {
		return Report{}, fmt.Errorf("no run %s", runID)
	}

	record, ok, err := c.store.GetBestSettlement(ctx, runID)
	if err != nil {
		return Report{}, err
	}
	if !ok {
		return Report{}, fmt.Errorf("no best settlement for run %s", runID)
	}

	best, err := settlement.FromRecord(record)
	if err != nil {
		return Report{}, fmt.Errorf("rebuild settlement: %w", err)
	}

	report := Report{
		RunID:       runID,
		Settlement:  record.Name,
		BestFitness: run.BestFitness,
	}
	for _, value := range best.TotalYields() {
		report.Yields = append(report.Yields, YieldAmount{Category: string(value.Category), Amount: value.Amount})
	}
	for _, category := range economy.Categories() {
		if max := best.MaximumYieldOf(category); max > 0 {
			report.Maxima = append(report.Maxima, YieldAmount{Category: string(category), Amount: max})
		}
	}
	for _, assignment := range best.CitizenAssignments() {
		report.Assignments = append(report.Assignments, AssignmentLine{
			AssetID: assignment.AssetID,
			Count:   assignment.Count,
			Idle:    assignment.AssetID == "",
		})
	}
	return report, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string) (string, error) {
	if runID != "" {
		return runID, nil
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs recorded")
	}
	return runs[0].ID, nil
}

func (c *Client) settingsFromRequest(req RunRequest) advisor.Settings {
	settings := advisor.Settings{
		PopulationSize: req.PopulationSize,
		TournamentSize: req.TournamentSize,
		Generations:    req.Generations,
		MutationRate:   req.MutationRate,
		Workers:        req.Workers,
		Seed:           req.Seed,
		Weights:        weightsFromRecord(req.Weights),
	}
	if settings.PopulationSize == 0 {
		settings.PopulationSize = defaultPopulationSize
	}
	if settings.TournamentSize == 0 {
		settings.TournamentSize = defaultTournamentSize
	}
	if settings.Generations == 0 {
		settings.Generations = defaultGenerations
	}
	if settings.MutationRate == 0 {
		settings.MutationRate = defaultMutationRate
	}
	if settings.Seed == 0 {
		settings.Seed = time.Now().UnixNano()
	}
	if len(settings.Weights) == 0 {
		settings.Weights = map[economy.Category]float64{
			economy.Food:       1,
			economy.Production: 1,
			economy.Gold:       1,
		}
	}
	return settings
}

func weightsFromRecord(weights map[string]float64) map[economy.Category]float64 {
	out := make(map[economy.Category]float64, len(weights))
	for category, weight := range weights {
		out[economy.Category(category)] = weight
	}
	return out
}

func weightsToRecord(weights map[economy.Category]float64) map[string]float64 {
	out := make(map[string]float64, len(weights))
	for category, weight := range weights {
		out[string(category)] = weight
	}
	return out
}
