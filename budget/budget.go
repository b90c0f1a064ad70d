// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package budget converts resource amounts between VM units.
//
// Each ordered pair of VMs has a fixed rational rate. Budgets delegated to
// the target VM round down and reported costs round up, so the caller is
// never under-charged and the callee never receives more than the caller
// authorized. All arithmetic saturates instead of wrapping.
package budget

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/luxfi/crossvm/vmid"
)

var (
	ErrMissingRate = errors.New("missing conversion rate")
	ErrInvalidRate = errors.New("invalid conversion rate")
)

// Pair is an ordered (caller VM, target VM) pair.
type Pair struct {
	From vmid.VMID
	To   vmid.VMID
}

func (p Pair) String() string {
	return p.From.String() + "->" + p.To.String()
}

// Rate expresses how many target units one caller unit is worth, as the
// rational Mul/Div.
type Rate struct {
	Mul uint64
	Div uint64
}

// Table maps every ordered pair of distinct VMs to its conversion rate.
type Table map[Pair]Rate

// NewTable derives the full pair table from the weight-per-gas ratio.
func NewTable(weightPerGas uint64) Table {
	return Table{
		{From: vmid.EVM, To: vmid.Wasm}: {Mul: weightPerGas, Div: 1},
		{From: vmid.Wasm, To: vmid.EVM}: {Mul: 1, Div: weightPerGas},
	}
}

// Validate verifies the table covers every ordered pair of distinct VMs
// exactly once with usable rates.
func (t Table) Validate() error {
	want := 0
	for _, from := range vmid.All() {
		for _, to := range vmid.All() {
			if from == to {
				continue
			}
			want++
			rate, ok := t[Pair{From: from, To: to}]
			if !ok {
				return fmt.Errorf("%w: %s->%s", ErrMissingRate, from, to)
			}
			if rate.Mul == 0 || rate.Div == 0 {
				return fmt.Errorf("%w: %s->%s %d/%d", ErrInvalidRate, from, to, rate.Mul, rate.Div)
			}
		}
	}
	if len(t) != want {
		return fmt.Errorf("%w: %d entries, want %d", ErrInvalidRate, len(t), want)
	}
	return nil
}

// Converter applies a validated table. The table is copied at construction
// and never mutated afterwards.
type Converter struct {
	table Table
}

func NewConverter(t Table) (*Converter, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	table := make(Table, len(t))
	for pair, rate := range t {
		table[pair] = rate
	}
	return &Converter{table: table}, nil
}

// ToTargetBudget converts a caller-unit budget into the target VM's unit,
// rounding down. On overflow it saturates to MaxUint64. An unknown pair
// converts to zero so that no budget is ever delegated on a bad lookup.
func (c *Converter) ToTargetBudget(amount uint64, from, to vmid.VMID) uint64 {
	rate, ok := c.table[Pair{From: from, To: to}]
	if !ok {
		return 0
	}
	return mulDivFloor(amount, rate.Mul, rate.Div)
}

// ToCallerCost converts a target-unit consumption back into the caller's
// unit, rounding up. On overflow it saturates to MaxUint64. An unknown pair
// converts to MaxUint64 so that no cost is ever dropped on a bad lookup.
func (c *Converter) ToCallerCost(amount uint64, from, to vmid.VMID) uint64 {
	rate, ok := c.table[Pair{From: from, To: to}]
	if !ok {
		return math.MaxUint64
	}
	// Cost flows target->caller, so the rate inverts.
	return mulDivCeil(amount, rate.Div, rate.Mul)
}

// mulDivFloor returns floor(a*mul/div) using a 128-bit intermediate,
// saturating to MaxUint64 when the quotient does not fit.
func mulDivFloor(a, mul, div uint64) uint64 {
	hi, lo := bits.Mul64(a, mul)
	if hi >= div {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, div)
	return q
}

// mulDivCeil returns ceil(a*mul/div) with the same saturation rule.
func mulDivCeil(a, mul, div uint64) uint64 {
	hi, lo := bits.Mul64(a, mul)
	if hi >= div {
		return math.MaxUint64
	}
	q, r := bits.Div64(hi, lo, div)
	if r > 0 && q < math.MaxUint64 {
		q++
	}
	return q
}
