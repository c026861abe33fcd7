package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"oikonomos/internal/model"
	oikapi "oikonomos/pkg/oikonomos"
)

// runConfig mirrors the optimise request so a whole run can live in one
// JSON file. Flags set on the command line override config values.
type runConfig struct {
	RunID          string                 `json:"run_id"`
	Settlement     model.SettlementRecord `json:"settlement"`
	PopulationSize int                    `json:"population_size"`
	TournamentSize int                    `json:"tournament_size"`
	Generations    int                    `json:"generations"`
	MutationRate   float64                `json:"mutation_rate"`
	Weights        map[string]float64     `json:"weights"`
	Workers        int                    `json:"workers"`
	Seed           int64                  `json:"seed"`
}

func loadRunRequestFromConfig(path string) (oikapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return oikapi.RunRequest{}, err
	}
	var cfg runConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return oikapi.RunRequest{}, err
	}

	return oikapi.RunRequest{
		RunID:          cfg.RunID,
		Settlement:     cfg.Settlement,
		PopulationSize: cfg.PopulationSize,
		TournamentSize: cfg.TournamentSize,
		Generations:    cfg.Generations,
		MutationRate:   cfg.MutationRate,
		Weights:        cfg.Weights,
		Workers:        cfg.Workers,
		Seed:           cfg.Seed,
	}, nil
}

func loadOrDefaultRunRequest(configPath string) (oikapi.RunRequest, error) {
	if configPath == "" {
		return oikapi.RunRequest{}, nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return oikapi.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

func loadSettlementRecord(path string) (model.SettlementRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.SettlementRecord{}, err
	}
	var record model.SettlementRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.SettlementRecord{}, fmt.Errorf("load settlement: %w", err)
	}
	return record, nil
}

type flagValues struct {
	runID        string
	population   int
	tournament   int
	generations  int
	mutationRate float64
	weights      string
	workers      int
	seed         int64
}

func overrideFromFlags(req *oikapi.RunRequest, set map[string]bool, values flagValues) error {
	if set["run-id"] {
		req.RunID = values.runID
	}
	if set["pop"] {
		req.PopulationSize = values.population
	}
	if set["tournament"] {
		req.TournamentSize = values.tournament
	}
	if set["gens"] {
		req.Generations = values.generations
	}
	if set["mutation-rate"] {
		req.MutationRate = values.mutationRate
	}
	if set["workers"] {
		req.Workers = values.workers
	}
	if set["seed"] {
		req.Seed = values.seed
	}
	if set["weights"] {
		weights, err := parseWeights(values.weights)
		if err != nil {
			return err
		}
		req.Weights = weights
	}
	return nil
}

// parseWeights reads "food=1,gold=2.5" into a weight map.
func parseWeights(s string) (map[string]float64, error) {
	weights := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		category, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid weight %q, want category=value", pair)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", pair, err)
		}
		if weight < 0 {
			return nil, fmt.Errorf("weight for %q must be >= 0", strings.TrimSpace(category))
		}
		weights[strings.TrimSpace(category)] = weight
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("no weights in %q", s)
	}
	return weights, nil
}
