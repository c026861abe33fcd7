// Package economy defines yield categories and the value arithmetic used to
// aggregate settlement output.
package economy

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidAmount = errors.New("yield amount must be > 0")

// Category identifies one kind of settlement yield.
type Category string

const (
	Food       Category = "food"
	Production Category = "production"
	Gold       Category = "gold"
	Science    Category = "science"
	Culture    Category = "culture"
	Faith      Category = "faith"

	GreatGeneral   Category = "great_general"
	GreatAdmiral   Category = "great_admiral"
	GreatEngineer  Category = "great_engineer"
	GreatMerchant  Category = "great_merchant"
	GreatScientist Category = "great_scientist"
	GreatWriter    Category = "great_writer"
	GreatArtist    Category = "great_artist"
	GreatMusician  Category = "great_musician"
	GreatProphet   Category = "great_prophet"
)

// Categories lists every known category in canonical order.
func Categories() []Category {
	return []Category{
		Food, Production, Gold, Science, Culture, Faith,
		GreatGeneral, GreatAdmiral, GreatEngineer, GreatMerchant,
		GreatScientist, GreatWriter, GreatArtist, GreatMusician, GreatProphet,
	}
}

// Value is an immutable yield quantity. A zero or negative amount is not
// representable; absence of a category means zero.
type Value struct {
	Category Category
	Amount   int
}

func New(category Category, amount int) (Value, error) {
	if amount <= 0 {
		return Value{}, fmt.Errorf("%w: %s=%d", ErrInvalidAmount, category, amount)
	}
	return Value{Category: category, Amount: amount}, nil
}

// MustNew is a construction helper for fixed yield tables and tests.
func MustNew(category Category, amount int) Value {
	value, err := New(category, amount)
	if err != nil {
		panic(err)
	}
	return value
}

// Reduce sums amounts per category and returns one value per category
// present, sorted by category. Reducing any permutation of the same input
// produces the same output, and reducing a reduced list is a no-op.
func Reduce(values []Value) []Value {
	totals := make(map[Category]int, len(values))
	for _, value := range values {
		totals[value.Category] += value.Amount
	}

	out := make([]Value, 0, len(totals))
	for category, amount := range totals {
		out = append(out, Value{Category: category, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Scale multiplies a value's amount by factor, e.g. a per-worker yield bundle
// by the number of workers occupying a slot.
func Scale(factor int, value Value) Value {
	return Value{Category: value.Category, Amount: value.Amount * factor}
}

// ScaleAll scales every value in the bundle by factor.
func ScaleAll(factor int, values []Value) []Value {
	out := make([]Value, len(values))
	for i, value := range values {
		out[i] = Scale(factor, value)
	}
	return out
}

// AmountOf returns the amount for a category within a bundle, defaulting to 0.
func AmountOf(category Category, values []Value) int {
	total := 0
	for _, value := range values {
		if value.Category == category {
			total += value.Amount
		}
	}
	return total
}
