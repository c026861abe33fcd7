// Package advisor specializes the evolutionary engine to the worker
// assignment problem: it scores settlements by weighted yields with a hard
// food floor, seeds a population from one template settlement, and supplies
// the crossover and mutation operators over assignment sets.
package advisor

import (
	"context"
	"fmt"
	"math/rand"

	"oikonomos/internal/economy"
	"oikonomos/internal/evo"
	"oikonomos/internal/settlement"
)

// idleChance is the probability that a worker left over after the greedy food
// fill stays idle during population seeding.
const idleChance = 0.25

// Settings configures one optimisation run.
type Settings struct {
	PopulationSize int
	TournamentSize int
	Generations    int
	MutationRate   float64
	Weights        map[economy.Category]float64
	Workers        int
	Seed           int64
}

// GenerationResult is one entry of the optimisation history.
type GenerationResult struct {
	Generation int
	Settlement settlement.Settlement
	Fitness    float64
}

// Result carries the optimised settlement, its fitness, and the
// per-generation fittest history.
type Result struct {
	Best    settlement.Settlement
	Fitness float64
	History []GenerationResult
}

// Optimise searches for the worker assignment of the template settlement that
// maximises the weighted yield sum, subject to the food requirement.
func Optimise(ctx context.Context, settings Settings, template settlement.Settlement) (Result, error) {
	if settings.PopulationSize < 1 {
		return Result{}, fmt.Errorf("population size must be >= 1")
	}

	rng := rand.New(rand.NewSource(settings.Seed))
	strategy := genetics{weights: settings.Weights}

	engine, err := evo.New(evo.Config[settlement.Settlement]{
		Genetics:       strategy,
		Elitist:        false,
		TournamentSize: settings.TournamentSize,
		MutationRate:   settings.MutationRate,
		Generations:    settings.Generations,
		Workers:        settings.Workers,
		Seed:           rng.Int63(),
	})
	if err != nil {
		return Result{}, err
	}

	initial := make([]settlement.Settlement, settings.PopulationSize)
	for i := range initial {
		initial[i] = seedCandidate(rng, template)
	}

	run, err := engine.Run(ctx, initial)
	if err != nil {
		return Result{}, err
	}

	history := make([]GenerationResult, 0, len(run.History))
	for _, entry := range run.History {
		history = append(history, GenerationResult{
			Generation: entry.Generation,
			Settlement: entry.Individual,
			Fitness:    entry.Fitness,
		})
	}

	final := history[len(history)-1]
	return Result{Best: final.Settlement, Fitness: final.Fitness, History: history}, nil
}

// genetics implements evo.Genetics over settlement snapshots.
type genetics struct {
	weights map[economy.Category]float64
}

// Evaluate returns the weighted yield sum, zeroed while the settlement cannot
// feed its citizens. The food floor is a hard infeasibility penalty, not a
// gradient.
func (g genetics) Evaluate(s settlement.Settlement) float64 {
	totals := s.TotalYields()
	if economy.AmountOf(economy.Food, totals) < s.RequiredFood() {
		return 0
	}

	score := 0.0
	for _, value := range totals {
		score += float64(value.Amount) * g.weights[value.Category]
	}
	return score
}

// Combine recombines two parents' assignment sets. Both listings are
// flattened into per-worker slots (citizen assignment order: assigned assets
// first, then the idle bucket); slot i of one parent pairs with slot i of the
// other. Each slot's asset is chosen uniformly and replayed onto an
// all-unassigned copy of the first parent, skipping assets whose seats were
// already consumed by earlier slots.
func (g genetics) Combine(rng *rand.Rand, a, b settlement.Settlement) (settlement.Settlement, error) {
	slotsA := flattenAssignments(a)
	slotsB := flattenAssignments(b)
	if len(slotsA) != len(slotsB) {
		return settlement.Settlement{}, fmt.Errorf("parents have different populations: %d vs %d", len(slotsA), len(slotsB))
	}

	child := a.UnassignAll()
	for i := range slotsA {
		assetID := slotsA[i]
		if rng.Intn(2) == 1 {
			assetID = slotsB[i]
		}
		if assetID == "" || !child.IsAssignable(assetID) {
			continue
		}
		next, err := child.Assign(assetID)
		if err != nil {
			return settlement.Settlement{}, err
		}
		child = next
	}
	return child, nil
}

// Mutate frees one employed worker half the time (always, when assigning
// would otherwise be impossible) and independently assigns an idle worker to
// a random assignable asset half the time. The assigned worker may be the one
// just freed, possibly back onto the same asset.
func (g genetics) Mutate(rng *rand.Rand, s settlement.Settlement) (settlement.Settlement, error) {
	free := rng.Intn(2) == 1
	if !free && s.Pool().Idle() == 0 {
		free = true
	}
	if free && s.Pool().Employed() > 0 {
		next, err := s.Unassign(randomAssignedAsset(rng, s))
		if err != nil {
			return settlement.Settlement{}, err
		}
		s = next
	}

	if rng.Intn(2) == 1 && s.Pool().Idle() > 0 {
		assignable := s.AssignableAssets()
		if len(assignable) > 0 {
			next, err := s.Assign(assignable[rng.Intn(len(assignable))].ID())
			if err != nil {
				return settlement.Settlement{}, err
			}
			s = next
		}
	}
	return s, nil
}

// seedCandidate builds one initial population member: greedy food fill until
// the settlement feeds itself or nothing is assignable, then a randomized
// spread of the remaining idle workers.
func seedCandidate(rng *rand.Rand, template settlement.Settlement) settlement.Settlement {
	s := template.UnassignAll()

	for s.Pool().Idle() > 0 {
		if economy.AmountOf(economy.Food, s.TotalYields()) >= s.RequiredFood() {
			break
		}
		best, ok := bestFoodAsset(s)
		if !ok {
			break
		}
		next, err := s.Assign(best)
		if err != nil {
			break
		}
		s = next
	}

	remaining := s.Pool().Idle()
	for i := 0; i < remaining; i++ {
		if rng.Float64() < idleChance {
			continue
		}
		assignable := s.AssignableAssets()
		if len(assignable) == 0 {
			break
		}
		next, err := s.Assign(assignable[rng.Intn(len(assignable))].ID())
		if err != nil {
			break
		}
		s = next
	}
	return s
}

// bestFoodAsset returns the assignable asset with the highest food yield.
func bestFoodAsset(s settlement.Settlement) (string, bool) {
	assignable := s.AssignableAssets()
	if len(assignable) == 0 {
		return "", false
	}
	best := assignable[0]
	for _, asset := range assignable[1:] {
		if asset.YieldOf(economy.Food) > best.YieldOf(economy.Food) {
			best = asset
		}
	}
	return best.ID(), true
}

// flattenAssignments expands the citizen assignment listing into one entry
// per worker; an empty id marks an idle worker.
func flattenAssignments(s settlement.Settlement) []string {
	out := make([]string, 0, s.Population())
	for _, assignment := range s.CitizenAssignments() {
		for i := 0; i < assignment.Count; i++ {
			out = append(out, assignment.AssetID)
		}
	}
	return out
}

// randomAssignedAsset picks an asset uniformly over employed workers, so an
// asset's chance is proportional to its assigned count.
func randomAssignedAsset(rng *rand.Rand, s settlement.Settlement) string {
	target := rng.Intn(s.Pool().Employed())
	for _, slot := range s.AssignedAssets() {
		if target < slot.Assigned {
			return slot.Asset.ID()
		}
		target -= slot.Assigned
	}
	// Unreachable while the pool counters stay consistent with the roster.
	return ""
}
