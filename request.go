// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crossvm

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"

	"github.com/luxfi/crossvm/vmid"
)

// Request describes one cross-VM call. Budget is denominated in the caller
// VM's unit; the dispatcher converts it before delegation. Value moves from
// Caller to Target before the target executes. A nil Value means zero.
type Request struct {
	CallerVM vmid.VMID
	TargetVM vmid.VMID
	Caller   ids.ShortID
	Target   ids.ShortID
	Input    []byte
	Value    *uint256.Int
	Budget   uint64
}

// Verify checks the request is well-formed for dispatch.
func (r *Request) Verify(maxInputLen int) error {
	switch {
	case !r.CallerVM.Valid():
		return fmt.Errorf("%w: caller %#02x", vmid.ErrUnknownVM, uint8(r.CallerVM))
	case !r.TargetVM.Valid():
		return fmt.Errorf("%w: target %#02x", vmid.ErrUnknownVM, uint8(r.TargetVM))
	case r.CallerVM == r.TargetVM:
		return fmt.Errorf("%w: %s", ErrSameVM, r.CallerVM)
	case r.Caller == ids.ShortEmpty:
		return ErrEmptyCaller
	case r.Target == ids.ShortEmpty:
		return ErrEmptyTarget
	case len(r.Input) > maxInputLen:
		return fmt.Errorf("%w: %d > %d bytes", ErrInputTooLarge, len(r.Input), maxInputLen)
	default:
		return nil
	}
}

func (r *Request) value() *uint256.Int {
	if r.Value == nil {
		return new(uint256.Int)
	}
	return r.Value
}
