// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"

	"github.com/luxfi/constants"

	"github.com/luxfi/crossvm/vmid"
)

var (
	errZeroWeightPerGas = errors.New("weightPerGas must be positive")
	errZeroCallDepth    = errors.New("maxCallDepth must be positive")
	errZeroInputLen     = errors.New("maxInputLen must be positive")
)

// Config contains all the foundational parameters of the cross-VM dispatcher
type Config struct {
	// WeightPerGas is the number of wasm weight units one unit of bytecode
	// gas is worth. Both directions of the conversion table derive from it.
	WeightPerGas uint64 `json:"weightPerGas"`

	// MaxCallDepth bounds the number of cross-VM frames open at once within
	// a single transaction.
	MaxCallDepth uint8 `json:"maxCallDepth"`

	// MaxInputLen bounds the input payload of a single dispatch, in bytes.
	MaxInputLen int `json:"maxInputLen"`

	// BaseGasCost is charged to a bytecode-VM caller when a dispatch fails
	// before the target VM runs.
	BaseGasCost uint64 `json:"baseGasCost"`

	// BaseWeightCost is charged to a wasm-VM caller when a dispatch fails
	// before the target VM runs.
	BaseWeightCost uint64 `json:"baseWeightCost"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		WeightPerGas:   25_000,
		MaxCallDepth:   8,
		MaxInputLen:    128 * constants.KiB,
		BaseGasCost:    1_000,
		BaseWeightCost: 25_000_000,
	}
}

// Validate ensures the configuration is usable
func (c *Config) Validate() error {
	switch {
	case c.WeightPerGas == 0:
		return errZeroWeightPerGas
	case c.MaxCallDepth == 0:
		return errZeroCallDepth
	case c.MaxInputLen <= 0:
		return errZeroInputLen
	default:
		return nil
	}
}

// BaseCost returns the flat charge, in the caller VM's unit, for a dispatch
// that fails before delegation. An unknown caller has no unit to charge in.
func (c *Config) BaseCost(caller vmid.VMID) uint64 {
	switch caller {
	case vmid.EVM:
		return c.BaseGasCost
	case vmid.Wasm:
		return c.BaseWeightCost
	default:
		return 0
	}
}

// String returns a summary usable in startup logs.
func (c *Config) String() string {
	return fmt.Sprintf(
		"weightPerGas=%d maxCallDepth=%d maxInputLen=%d",
		c.WeightPerGas,
		c.MaxCallDepth,
		c.MaxInputLen,
	)
}
