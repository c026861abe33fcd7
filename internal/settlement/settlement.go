// Package settlement models a single settlement: its worker pool, its roster
// of yield-producing assets, and the assignment of workers to asset seats.
//
// A Settlement is a persistent value. Every transition returns a new
// Settlement and leaves the receiver untouched, so snapshots taken during an
// evolutionary search stay valid and can be read concurrently. Asset data and
// base yield bundles are shared across snapshots; only the roster counts and
// the worker pool are copied.
package settlement

import (
	"errors"
	"fmt"
	"sort"

	"oikonomos/internal/economy"
)

// MaxTiles bounds the number of workable tile assets around a settlement.
const MaxTiles = 36

// foodPerCitizen is the fixed per-capita food requirement.
const foodPerCitizen = 2

var (
	ErrMissingYields     = errors.New("settlement requires base and per-worker yields")
	ErrInvalidSize       = errors.New("settlement size must be >= 1")
	ErrTooManyTiles      = errors.New("settlement exceeds workable tile limit")
	ErrDuplicateAssetIDs = errors.New("asset ids must be unique")

	ErrNoIdleWorkers      = errors.New("no idle workers available")
	ErrAssetNotFound      = errors.New("asset not found")
	ErrAssetFullyAssigned = errors.New("asset already at capacity")
	ErrAssetNotAssigned   = errors.New("asset has no assigned workers")
)

// WorkerPool partitions a settlement's citizens into idle and employed
// counters. Workers only ever move between the two counters; the sum is the
// settlement's population for its whole lifetime.
type WorkerPool struct {
	idle     int
	employed int
}

func (p WorkerPool) Idle() int {
	return p.idle
}

func (p WorkerPool) Employed() int {
	return p.employed
}

func (p WorkerPool) Population() int {
	return p.idle + p.employed
}

// Slot pairs an asset with its current assigned worker count.
type Slot struct {
	Asset    Asset
	Assigned int
}

// Assignment is one entry of the citizen assignment listing. An empty AssetID
// denotes the idle bucket.
type Assignment struct {
	AssetID string
	Count   int
}

type Settlement struct {
	baseYields []economy.Value
	perWorker  []economy.Value
	pool       WorkerPool
	roster     []Slot
}

// New validates and constructs a settlement with every asset unassigned and
// the entire population idle.
func New(baseYields, perWorkerYields []economy.Value, assets []Asset, size int) (Settlement, error) {
	if len(baseYields) == 0 {
		return Settlement{}, fmt.Errorf("%w: base yields", ErrMissingYields)
	}
	if len(perWorkerYields) == 0 {
		return Settlement{}, fmt.Errorf("%w: per-worker yields", ErrMissingYields)
	}
	if size < 1 {
		return Settlement{}, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}

	tiles := 0
	seen := make(map[string]struct{}, len(assets))
	roster := make([]Slot, 0, len(assets))
	for _, asset := range assets {
		if asset.Kind() == KindTile {
			tiles++
		}
		if _, dup := seen[asset.ID()]; dup {
			return Settlement{}, fmt.Errorf("%w: %s", ErrDuplicateAssetIDs, asset.ID())
		}
		seen[asset.ID()] = struct{}{}
		roster = append(roster, Slot{Asset: asset})
	}
	if tiles > MaxTiles {
		return Settlement{}, fmt.Errorf("%w: %d > %d", ErrTooManyTiles, tiles, MaxTiles)
	}

	return Settlement{
		baseYields: baseYields,
		perWorker:  perWorkerYields,
		pool:       WorkerPool{idle: size},
		roster:     roster,
	}, nil
}

func (s Settlement) Population() int {
	return s.pool.Population()
}

func (s Settlement) Pool() WorkerPool {
	return s.pool
}

// RequiredFood is the food the settlement must produce to feed its citizens.
func (s Settlement) RequiredFood() int {
	return foodPerCitizen * s.Population()
}

// TotalYields aggregates asset yields scaled by assigned workers, the
// per-worker base yields of idle workers, and the settlement base yields into
// one value per category.
func (s Settlement) TotalYields() []economy.Value {
	parts := make([]economy.Value, 0, len(s.baseYields)+len(s.roster)*2)
	parts = append(parts, s.baseYields...)
	for _, slot := range s.roster {
		if slot.Assigned > 0 {
			parts = append(parts, economy.ScaleAll(slot.Assigned, slot.Asset.Yields())...)
		}
	}
	if s.pool.idle > 0 {
		parts = append(parts, economy.ScaleAll(s.pool.idle, s.perWorker)...)
	}
	return economy.Reduce(parts)
}

// MaximumYieldOf is the upper bound on a single category achievable by
// reassigning the current worker count, ignoring the current assignment. Each
// worker independently grabs the best remaining seat, which is exact here
// because a seat's value does not depend on which other seats are taken; under
// joint constraints it would only be a greedy approximation.
func (s Settlement) MaximumYieldOf(category economy.Category) int {
	seats := make([]int, 0, len(s.roster))
	for _, slot := range s.roster {
		amount := slot.Asset.YieldOf(category)
		if amount <= 0 {
			continue
		}
		for i := 0; i < slot.Asset.Capacity(); i++ {
			seats = append(seats, amount)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(seats)))

	workers := s.Population()
	take := workers
	if take > len(seats) {
		take = len(seats)
	}
	assignedSum := 0
	for i := 0; i < take; i++ {
		assignedSum += seats[i]
	}
	idle := workers - take

	return economy.AmountOf(category, s.baseYields) + assignedSum + idle*economy.AmountOf(category, s.perWorker)
}

// Asset looks up a roster asset by id.
func (s Settlement) Asset(id string) (Asset, bool) {
	for _, slot := range s.roster {
		if slot.Asset.ID() == id {
			return slot.Asset, true
		}
	}
	return Asset{}, false
}

// IsAssignable reports whether the asset exists and has a free seat.
func (s Settlement) IsAssignable(id string) bool {
	for _, slot := range s.roster {
		if slot.Asset.ID() == id {
			return slot.Assigned < slot.Asset.Capacity()
		}
	}
	return false
}

// Assign moves one idle worker onto the asset's next free seat, returning the
// updated settlement.
func (s Settlement) Assign(id string) (Settlement, error) {
	if s.pool.idle == 0 {
		return Settlement{}, fmt.Errorf("assign %s: %w", id, ErrNoIdleWorkers)
	}
	idx := s.rosterIndex(id)
	if idx < 0 {
		return Settlement{}, fmt.Errorf("assign %s: %w", id, ErrAssetNotFound)
	}
	if s.roster[idx].Assigned >= s.roster[idx].Asset.Capacity() {
		return Settlement{}, fmt.Errorf("assign %s: %w", id, ErrAssetFullyAssigned)
	}

	next := s.cloneRoster()
	next.roster[idx].Assigned++
	next.pool.idle--
	next.pool.employed++
	return next, nil
}

// Unassign moves one worker off the asset back into the idle pool.
func (s Settlement) Unassign(id string) (Settlement, error) {
	idx := s.rosterIndex(id)
	if idx < 0 {
		return Settlement{}, fmt.Errorf("unassign %s: %w", id, ErrAssetNotFound)
	}
	if s.roster[idx].Assigned == 0 {
		return Settlement{}, fmt.Errorf("unassign %s: %w", id, ErrAssetNotAssigned)
	}

	next := s.cloneRoster()
	next.roster[idx].Assigned--
	next.pool.idle++
	next.pool.employed--
	return next, nil
}

// UnassignAll returns a settlement with every worker idle again.
func (s Settlement) UnassignAll() Settlement {
	next := s.cloneRoster()
	for i := range next.roster {
		next.roster[i].Assigned = 0
	}
	next.pool.idle = s.Population()
	next.pool.employed = 0
	return next
}

// AssignedAssets lists roster entries with at least one assigned worker, in
// roster order.
func (s Settlement) AssignedAssets() []Slot {
	out := make([]Slot, 0, len(s.roster))
	for _, slot := range s.roster {
		if slot.Assigned > 0 {
			out = append(out, slot)
		}
	}
	return out
}

// UnassignedAssets lists assets with no assigned workers.
func (s Settlement) UnassignedAssets() []Asset {
	out := make([]Asset, 0, len(s.roster))
	for _, slot := range s.roster {
		if slot.Assigned == 0 {
			out = append(out, slot.Asset)
		}
	}
	return out
}

// AssignableAssets lists assets with at least one free seat.
func (s Settlement) AssignableAssets() []Asset {
	out := make([]Asset, 0, len(s.roster))
	for _, slot := range s.roster {
		if slot.Assigned < slot.Asset.Capacity() {
			out = append(out, slot.Asset)
		}
	}
	return out
}

// CitizenAssignments pairs each assigned asset with its worker count, in
// roster order, followed by one idle-bucket entry with the idle count. The
// enumeration order is contractual: crossover flattens this listing into
// per-worker slots and consumes seat capacity first-come-first-served.
func (s Settlement) CitizenAssignments() []Assignment {
	out := make([]Assignment, 0, len(s.roster)+1)
	for _, slot := range s.roster {
		if slot.Assigned > 0 {
			out = append(out, Assignment{AssetID: slot.Asset.ID(), Count: slot.Assigned})
		}
	}
	out = append(out, Assignment{Count: s.pool.idle})
	return out
}

func (s Settlement) rosterIndex(id string) int {
	for i, slot := range s.roster {
		if slot.Asset.ID() == id {
			return i
		}
	}
	return -1
}

// cloneRoster copies the roster counts while sharing asset values and yield
// bundles with the receiver.
func (s Settlement) cloneRoster() Settlement {
	roster := make([]Slot, len(s.roster))
	copy(roster, s.roster)
	return Settlement{
		baseYields: s.baseYields,
		perWorker:  s.perWorker,
		pool:       s.pool,
		roster:     roster,
	}
}
