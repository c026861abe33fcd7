package settlement

import (
	"errors"
	"fmt"

	"oikonomos/internal/economy"
)

var ErrInvalidCapacity = errors.New("building capacity must be >= 1")

// Kind discriminates the closed asset variants.
type Kind int

const (
	KindTile Kind = iota
	KindBuilding
)

func (k Kind) String() string {
	switch k {
	case KindTile:
		return "tile"
	case KindBuilding:
		return "building"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Asset is a yield producer that can host workers: a map tile with a single
// worker seat, or a building with a fixed seat capacity. Assets are immutable
// once constructed and shared read-only across settlement snapshots.
type Asset struct {
	id       string
	kind     Kind
	capacity int
	yields   []economy.Value
}

func NewTile(positionID string, yields []economy.Value) Asset {
	return Asset{id: positionID, kind: KindTile, capacity: 1, yields: yields}
}

func NewBuilding(name string, capacity int, yields []economy.Value) (Asset, error) {
	if capacity < 1 {
		return Asset{}, fmt.Errorf("%w: %s has capacity %d", ErrInvalidCapacity, name, capacity)
	}
	return Asset{id: name, kind: KindBuilding, capacity: capacity, yields: yields}, nil
}

func (a Asset) ID() string {
	return a.id
}

func (a Asset) Kind() Kind {
	return a.kind
}

// Capacity is derived from the variant tag: tiles always seat one worker.
func (a Asset) Capacity() int {
	if a.kind == KindTile {
		return 1
	}
	return a.capacity
}

// Yields returns the asset's per-worker yield bundle.
func (a Asset) Yields() []economy.Value {
	return a.yields
}

// YieldOf looks up a single category in the asset's bundle, defaulting to 0.
func (a Asset) YieldOf(category economy.Category) int {
	return economy.AmountOf(category, a.yields)
}
