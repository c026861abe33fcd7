package evo

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

// arithmetic evolves plain numbers: fitness is the value itself, combining
// averages, mutating adds one.
type arithmetic struct {
	combineErr error
	mutateErr  error
}

func (g arithmetic) Combine(_ *rand.Rand, a, b float64) (float64, error) {
	if g.combineErr != nil {
		return 0, g.combineErr
	}
	return (a + b) / 2, nil
}

func (g arithmetic) Mutate(_ *rand.Rand, x float64) (float64, error) {
	if g.mutateErr != nil {
		return 0, g.mutateErr
	}
	return x + 1, nil
}

func (g arithmetic) Evaluate(x float64) float64 {
	return x
}

func TestNewValidatesConfig(t *testing.T) {
	valid := Config[float64]{Genetics: arithmetic{}, TournamentSize: 2, Generations: 3}

	cases := []struct {
		name   string
		mutate func(cfg *Config[float64])
	}{
		{"missing genetics", func(cfg *Config[float64]) { cfg.Genetics = nil }},
		{"tournament size zero", func(cfg *Config[float64]) { cfg.TournamentSize = 0 }},
		{"negative mutation rate", func(cfg *Config[float64]) { cfg.MutationRate = -0.1 }},
		{"mutation rate above one", func(cfg *Config[float64]) { cfg.MutationRate = 1.1 }},
		{"zero generations", func(cfg *Config[float64]) { cfg.Generations = 0 }},
	}
	for _, tc := range cases {
		cfg := valid
		tc.mutate(&cfg)
		if _, err := New(cfg); err == nil {
			t.Fatalf("%s: expected config error", tc.name)
		}
	}

	if _, err := New(valid); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestRunHistoryLengthMatchesGenerations(t *testing.T) {
	engine, err := New(Config[float64]{
		Genetics:       arithmetic{},
		TournamentSize: 2,
		Generations:    7,
		Seed:           1,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	result, err := engine.Run(context.Background(), []float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.History) != 7 {
		t.Fatalf("history length: got %d want 7", len(result.History))
	}
	for i, entry := range result.History {
		if entry.Generation != i+1 {
			t.Fatalf("history entry %d has generation %d", i, entry.Generation)
		}
	}
	if len(result.FinalPopulation) != 4 {
		t.Fatalf("final population size: got %d want 4", len(result.FinalPopulation))
	}
}

func TestElitistBestNeverRegresses(t *testing.T) {
	engine, err := New(Config[float64]{
		Genetics:       arithmetic{},
		Elitist:        true,
		TournamentSize: 2,
		MutationRate:   0,
		Generations:    20,
		Seed:           3,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	result, err := engine.Run(context.Background(), []float64{5, 1, 2, 9, 4, 3})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	prev := result.History[0].Fitness
	for _, entry := range result.History[1:] {
		if entry.Fitness < prev {
			t.Fatalf("generation %d regressed: %f < %f", entry.Generation, entry.Fitness, prev)
		}
		prev = entry.Fitness
	}
}

// The carried elite goes through the same mutation trial as offspring.
func TestElitistEliteIsStillMutated(t *testing.T) {
	engine, err := New(Config[float64]{
		Genetics:       arithmetic{},
		Elitist:        true,
		TournamentSize: 2,
		MutationRate:   1,
		Generations:    1,
		Seed:           5,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	result, err := engine.Run(context.Background(), []float64{10, 1, 1, 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// Offspring average values <= 10, +1 mutation; only the elite can reach 11.
	if result.History[0].Fitness != 11 {
		t.Fatalf("expected mutated elite fitness 11, got %f", result.History[0].Fitness)
	}
}

func TestTournamentSamplesWithoutReplacement(t *testing.T) {
	engine, err := New(Config[float64]{
		Genetics:       arithmetic{},
		TournamentSize: 5,
		Generations:    1,
		Seed:           11,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	pool := []Scored[float64]{
		{Individual: 1, Fitness: 1},
		{Individual: 9, Fitness: 9},
		{Individual: 2, Fitness: 2},
		{Individual: 3, Fitness: 3},
		{Individual: 4, Fitness: 4},
	}
	rng := rand.New(rand.NewSource(2))
	// A full-size tournament must always contain the global maximum.
	for i := 0; i < 50; i++ {
		if winner := engine.tournament(rng, pool); winner.Fitness != 9 {
			t.Fatalf("trial %d: full tournament missed maximum, got %f", i, winner.Fitness)
		}
	}
}

func TestTournamentTieBreaksOnFirstEncountered(t *testing.T) {
	engine, err := New(Config[float64]{
		Genetics:       arithmetic{},
		TournamentSize: 3,
		Generations:    1,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	pool := []Scored[float64]{
		{Individual: 1, Fitness: 5},
		{Individual: 2, Fitness: 5},
		{Individual: 3, Fitness: 5},
	}
	rng := rand.New(rand.NewSource(4))
	winner := engine.tournament(rng, pool)
	// All fitnesses tie; the first candidate drawn must win.
	if winner.Fitness != 5 {
		t.Fatalf("unexpected winner fitness %f", winner.Fitness)
	}
}

func TestRunIsDeterministicAcrossWorkerCounts(t *testing.T) {
	run := func(workers int) RunResult[float64] {
		engine, err := New(Config[float64]{
			Genetics:       arithmetic{},
			TournamentSize: 2,
			MutationRate:   0.5,
			Generations:    10,
			Workers:        workers,
			Seed:           42,
		})
		if err != nil {
			t.Fatalf("new engine: %v", err)
		}
		result, err := engine.Run(context.Background(), []float64{1, 2, 3, 4, 5, 6, 7, 8})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return result
	}

	serial := run(1)
	parallel := run(4)
	if !reflect.DeepEqual(serial.History, parallel.History) {
		t.Fatalf("history differs across worker counts")
	}
	if !reflect.DeepEqual(serial.FinalPopulation, parallel.FinalPopulation) {
		t.Fatalf("final population differs across worker counts")
	}
}

func TestRunPropagatesCallbackErrors(t *testing.T) {
	combineErr := errors.New("combine failed")
	engine, err := New(Config[float64]{
		Genetics:       arithmetic{combineErr: combineErr},
		TournamentSize: 2,
		Generations:    3,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := engine.Run(context.Background(), []float64{1, 2}); !errors.Is(err, combineErr) {
		t.Fatalf("expected combine error, got %v", err)
	}

	mutateErr := errors.New("mutate failed")
	engine, err = New(Config[float64]{
		Genetics:       arithmetic{mutateErr: mutateErr},
		TournamentSize: 2,
		MutationRate:   1,
		Generations:    3,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := engine.Run(context.Background(), []float64{1, 2}); !errors.Is(err, mutateErr) {
		t.Fatalf("expected mutate error, got %v", err)
	}
}

func TestRunRejectsEmptyPopulation(t *testing.T) {
	engine, err := New(Config[float64]{Genetics: arithmetic{}, TournamentSize: 2, Generations: 1})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := engine.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty population")
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	engine, err := New(Config[float64]{Genetics: arithmetic{}, TournamentSize: 2, Generations: 100})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.Run(ctx, []float64{1, 2}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
