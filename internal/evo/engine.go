// Package evo implements a generic generational evolutionary search engine:
// tournament selection, crossover of tournament winners, per-individual
// Bernoulli mutation, optional single-elite carry, and a best-by-generation
// history.
//
// The engine is generic over the assignment representation and knows nothing
// about the domain; combine, mutate, and evaluate are supplied through the
// Genetics strategy interface.
package evo

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// Genetics supplies the domain-specific operators for a representation T.
// Implementations must treat their arguments as read-only and return fresh
// values; the random source is passed explicitly so runs are reproducible.
type Genetics[T any] interface {
	Combine(rng *rand.Rand, a, b T) (T, error)
	Mutate(rng *rand.Rand, individual T) (T, error)
	Evaluate(individual T) float64
}

// Scored pairs an individual with its evaluated fitness.
type Scored[T any] struct {
	Individual T
	Fitness    float64
}

// GenerationBest records the fittest individual of one generation.
type GenerationBest[T any] struct {
	Generation int
	Individual T
	Fitness    float64
}

// RunResult carries the chronological fittest-per-generation history and the
// final scored population.
type RunResult[T any] struct {
	History         []GenerationBest[T]
	FinalPopulation []Scored[T]
}

type Config[T any] struct {
	Genetics       Genetics[T]
	Elitist        bool
	TournamentSize int
	MutationRate   float64
	Generations    int
	Workers        int
	Seed           int64
}

type Engine[T any] struct {
	cfg Config[T]
	rng *rand.Rand
}

func New[T any](cfg Config[T]) (*Engine[T], error) {
	if cfg.Genetics == nil {
		return nil, fmt.Errorf("genetics strategy is required")
	}
	if cfg.TournamentSize < 1 {
		return nil, fmt.Errorf("tournament size must be >= 1")
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return nil, fmt.Errorf("mutation rate must be in [0, 1]")
	}
	if cfg.Generations < 1 {
		return nil, fmt.Errorf("generations must be >= 1")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	return &Engine[T]{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Run evolves the initial population for the configured generation count and
// returns the per-generation history plus the final population. The engine
// itself cannot fail mid-run; errors from combine/mutate propagate unchanged.
func (e *Engine[T]) Run(ctx context.Context, initial []T) (RunResult[T], error) {
	if len(initial) == 0 {
		return RunResult[T]{}, fmt.Errorf("initial population is required")
	}

	population := make([]T, len(initial))
	copy(population, initial)
	scored := e.evaluatePopulation(population)

	history := make([]GenerationBest[T], 0, e.cfg.Generations)
	for gen := 0; gen < e.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult[T]{}, err
		}

		next, err := e.step(ctx, scored)
		if err != nil {
			return RunResult[T]{}, err
		}
		scored = e.evaluatePopulation(next)

		best := fittest(scored)
		history = append(history, GenerationBest[T]{
			Generation: gen + 1,
			Individual: best.Individual,
			Fitness:    best.Fitness,
		})
	}

	return RunResult[T]{History: history, FinalPopulation: scored}, nil
}

// step produces the next generation: an optional elite carry, offspring from
// pairs of tournament winners, and a wholesale Bernoulli mutation pass over
// every produced individual, the carried elite included.
func (e *Engine[T]) step(ctx context.Context, scored []Scored[T]) ([]T, error) {
	pool := scored
	next := make([]T, 0, len(scored))

	if e.cfg.Elitist && len(scored) > 1 {
		eliteIdx := fittestIndex(scored)
		next = append(next, scored[eliteIdx].Individual)
		pool = make([]Scored[T], 0, len(scored)-1)
		pool = append(pool, scored[:eliteIdx]...)
		pool = append(pool, scored[eliteIdx+1:]...)
	}

	offspring, err := e.produceOffspring(ctx, pool, len(scored)-len(next))
	if err != nil {
		return nil, err
	}
	next = append(next, offspring...)

	return e.mutatePopulation(ctx, next)
}

// produceOffspring combines winners of two independent tournaments per
// offspring. A winner may be combined with itself. Individuals are produced
// in parallel; each job gets its own serially-drawn seed so results do not
// depend on worker scheduling.
func (e *Engine[T]) produceOffspring(ctx context.Context, pool []Scored[T], count int) ([]T, error) {
	if count <= 0 {
		return nil, nil
	}

	seeds := e.drawSeeds(count)
	out := make([]T, count)
	errs := make([]error, count)

	e.forEach(count, func(i int) {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			return
		}
		rng := rand.New(rand.NewSource(seeds[i]))
		left := e.tournament(rng, pool)
		right := e.tournament(rng, pool)
		child, err := e.cfg.Genetics.Combine(rng, left.Individual, right.Individual)
		if err != nil {
			errs[i] = err
			return
		}
		out[i] = child
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// mutatePopulation applies a per-individual Bernoulli trial; a selected
// individual is mutated wholesale, not per gene.
func (e *Engine[T]) mutatePopulation(ctx context.Context, population []T) ([]T, error) {
	seeds := e.drawSeeds(len(population))
	out := make([]T, len(population))
	errs := make([]error, len(population))

	e.forEach(len(population), func(i int) {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			return
		}
		rng := rand.New(rand.NewSource(seeds[i]))
		if rng.Float64() >= e.cfg.MutationRate {
			out[i] = population[i]
			return
		}
		mutated, err := e.cfg.Genetics.Mutate(rng, population[i])
		if err != nil {
			errs[i] = err
			return
		}
		out[i] = mutated
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *Engine[T]) evaluatePopulation(population []T) []Scored[T] {
	scored := make([]Scored[T], len(population))

	e.forEach(len(population), func(i int) {
		scored[i] = Scored[T]{
			Individual: population[i],
			Fitness:    e.cfg.Genetics.Evaluate(population[i]),
		}
	})
	return scored
}

// tournament draws TournamentSize distinct individuals without replacement
// (partial Fisher-Yates over an index slice) and returns the one with the
// highest fitness, first-encountered maximum winning ties.
func (e *Engine[T]) tournament(rng *rand.Rand, pool []Scored[T]) Scored[T] {
	size := e.cfg.TournamentSize
	if size > len(pool) {
		size = len(pool)
	}

	indices := make([]int, len(pool))
	for i := range indices {
		indices[i] = i
	}

	best := Scored[T]{}
	for round := 0; round < size; round++ {
		pick := round + rng.Intn(len(indices)-round)
		indices[round], indices[pick] = indices[pick], indices[round]
		candidate := pool[indices[round]]
		if round == 0 || candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best
}

// drawSeeds pulls one seed per job from the engine rng, serially, before a
// parallel pass starts.
func (e *Engine[T]) drawSeeds(count int) []int64 {
	seeds := make([]int64, count)
	for i := range seeds {
		seeds[i] = e.rng.Int63()
	}
	return seeds
}

// forEach fans jobs out over the configured worker count.
func (e *Engine[T]) forEach(count int, fn func(i int)) {
	workers := e.cfg.Workers
	if workers > count {
		workers = count
	}
	if workers <= 1 {
		for i := 0; i < count; i++ {
			fn(i)
		}
		return
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}
	for i := 0; i < count; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

func fittest[T any](scored []Scored[T]) Scored[T] {
	return scored[fittestIndex(scored)]
}

// fittestIndex matches the tie-break of a stable descending-score sort: among
// equal scores the earliest individual wins.
func fittestIndex[T any](scored []Scored[T]) int {
	best := 0
	for i := 1; i < len(scored); i++ {
		if scored[i].Fitness > scored[best].Fitness {
			best = i
		}
	}
	return best
}
