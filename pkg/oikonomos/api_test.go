package oikonomos

import (
	"context"
	"testing"

	"oikonomos/internal/model"
	"oikonomos/internal/storage"
)

func testRecord() model.SettlementRecord {
	return model.SettlementRecord{
		Name:            "Athens",
		Size:            4,
		BaseYields:      []model.YieldRecord{{Category: "food", Amount: 2}},
		PerWorkerYields: []model.YieldRecord{{Category: "food", Amount: 1}},
		Assets: []model.AssetRecord{
			{ID: "farm:1", Kind: "tile", Yields: []model.YieldRecord{{Category: "food", Amount: 3}}},
			{ID: "farm:2", Kind: "tile", Yields: []model.YieldRecord{{Category: "food", Amount: 3}}},
			{ID: "Market", Kind: "building", Capacity: 2, Yields: []model.YieldRecord{{Category: "gold", Amount: 3}}},
		},
	}
}

func testClient(t *testing.T) *Client {
	t.Helper()
	client := NewWithStore(storage.NewMemoryStore())
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return client
}

func testRequest() RunRequest {
	return RunRequest{
		RunID:          "run-1",
		Settlement:     testRecord(),
		PopulationSize: 10,
		TournamentSize: 3,
		Generations:    10,
		MutationRate:   0.3,
		Weights:        map[string]float64{"food": 1, "gold": 2},
		Seed:           7,
	}
}

func TestOptimisePersistsRunArtifacts(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	summary, err := client.Optimise(ctx, testRequest())
	if err != nil {
		t.Fatalf("optimise: %v", err)
	}
	if summary.RunID != "run-1" {
		t.Fatalf("unexpected run id %q", summary.RunID)
	}
	if len(summary.BestByGeneration) != 10 {
		t.Fatalf("history length: got %d want 10", len(summary.BestByGeneration))
	}
	if summary.FinalBestFitness != summary.BestByGeneration[9] {
		t.Fatalf("final fitness %f does not match last generation %f", summary.FinalBestFitness, summary.BestByGeneration[9])
	}
	if summary.Best.Name != "Athens" || summary.Best.Size != 4 {
		t.Fatalf("unexpected best settlement record: %+v", summary.Best)
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "run-1" || runs[0].Settlement != "Athens" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if runs[0].BestFitness != summary.FinalBestFitness {
		t.Fatalf("stored best fitness mismatch")
	}

	history, err := client.FitnessHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("fitness history: %v", err)
	}
	if len(history) != 10 {
		t.Fatalf("stored history length: got %d want 10", len(history))
	}
}

func TestOptimiseGeneratesRunID(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	req := testRequest()
	req.RunID = ""
	summary, err := client.Optimise(ctx, req)
	if err != nil {
		t.Fatalf("optimise: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("expected generated run id")
	}
}

func TestOptimiseRejectsInvalidSettlement(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	req := testRequest()
	req.Settlement.Size = 0
	if _, err := client.Optimise(ctx, req); err == nil {
		t.Fatal("expected error for invalid settlement definition")
	}
}

func TestReportSummarisesBestSettlement(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	if _, err := client.Optimise(ctx, testRequest()); err != nil {
		t.Fatalf("optimise: %v", err)
	}

	report, err := client.Report(ctx, "run-1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Settlement != "Athens" || report.RunID != "run-1" {
		t.Fatalf("unexpected report header: %+v", report)
	}
	if len(report.Yields) == 0 {
		t.Fatal("expected yield lines")
	}
	maxima := map[string]int{}
	for _, line := range report.Maxima {
		maxima[line.Category] = line.Amount
	}
	// Max gold: both market seats at 3. Max food: base 2 + two farm seats at
	// 3 + two idle workers at 1.
	if maxima["gold"] != 6 || maxima["food"] != 10 {
		t.Fatalf("unexpected maxima: %+v", report.Maxima)
	}

	total := 0
	idleSeen := false
	for _, line := range report.Assignments {
		total += line.Count
		if line.Idle {
			idleSeen = true
		}
	}
	if total != 4 {
		t.Fatalf("assignment counts should cover the population, got %d", total)
	}
	if !idleSeen {
		t.Fatal("expected the idle bucket in the assignment listing")
	}
}

func TestReportAndHistoryResolveLatestRun(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	if _, err := client.Optimise(ctx, testRequest()); err != nil {
		t.Fatalf("optimise: %v", err)
	}

	if _, err := client.FitnessHistory(ctx, ""); err != nil {
		t.Fatalf("latest fitness history: %v", err)
	}
	report, err := client.Report(ctx, "")
	if err != nil {
		t.Fatalf("latest report: %v", err)
	}
	if report.RunID != "run-1" {
		t.Fatalf("expected latest run, got %q", report.RunID)
	}
}

func TestReportMissingRun(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	if _, err := client.Report(ctx, "missing"); err == nil {
		t.Fatal("expected error for unknown run")
	}
	if _, err := client.Report(ctx, ""); err == nil {
		t.Fatal("expected error with no runs recorded")
	}
}
