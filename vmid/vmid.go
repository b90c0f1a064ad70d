// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vmid

import (
	"errors"
	"fmt"
)

// VMID identifies one of the embedded virtual machines. The values are the
// wire discriminants used by the dispatch layer and must never change.
type VMID uint8

const (
	// EVM is the bytecode VM. Its resource unit is gas.
	EVM VMID = 0x0F
	// Wasm is the wasm contract VM. Its resource unit is weight.
	Wasm VMID = 0x1F
)

var (
	ErrUnknownVM = errors.New("unknown vm")

	vms = []VMID{EVM, Wasm}
)

// All returns every valid VMID in declaration order.
func All() []VMID {
	ids := make([]VMID, len(vms))
	copy(ids, vms)
	return ids
}

// Valid returns true iff id is a member of the closed VM set.
func (id VMID) Valid() bool {
	switch id {
	case EVM, Wasm:
		return true
	default:
		return false
	}
}

// String returns the string representation of the VM identifier
func (id VMID) String() string {
	switch id {
	case EVM:
		return "evm"
	case Wasm:
		return "wasm"
	default:
		return "unknown"
	}
}

// Unit returns the name of the VM's resource unit.
func (id VMID) Unit() string {
	switch id {
	case EVM:
		return "gas"
	case Wasm:
		return "weight"
	default:
		return "unknown"
	}
}

func (id VMID) MarshalJSON() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %#02x", ErrUnknownVM, uint8(id))
	}
	return []byte(`"` + id.String() + `"`), nil
}

func (id *VMID) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"evm"`:
		*id = EVM
	case `"wasm"`:
		*id = Wasm
	case "null":
	default:
		return fmt.Errorf("%w: %s", ErrUnknownVM, b)
	}
	return nil
}
