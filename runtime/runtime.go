// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package runtime defines the contract between the dispatcher and the
// embedded VM executors. Executors report how a call ended through a
// Result; Go errors are reserved for faults in the executor itself.
package runtime

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
)

// Status is how a call ended inside the executing VM
type Status uint8

const (
	StatusSuccess Status = iota
	StatusRevert
	StatusTrap
	StatusOutOfResource
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRevert:
		return "revert"
	case StatusTrap:
		return "trap"
	case StatusOutOfResource:
		return "out_of_resource"
	default:
		return "unknown"
	}
}

// Call is one unit of work handed to an executor. Budget is denominated in
// the executing VM's own unit.
type Call struct {
	Caller ids.ShortID
	Target ids.ShortID
	Input  []byte
	Value  *uint256.Int
	Budget uint64
}

// Env is the environment of a single call frame. State is scoped to the
// frame: everything written to it is discarded if the frame rolls back.
type Env struct {
	State database.Database
	Log   log.Logger
	Depth uint8
}

// Result reports how a call ended. Used is in the executing VM's unit and
// is clamped to the call's budget by the dispatcher. Output carries return
// data for StatusSuccess and the revert payload for StatusRevert; it is
// ignored for the other statuses.
type Result struct {
	Status Status
	Output []byte
	Used   uint64
}

// VM executes calls for one virtual machine. A returned error means the
// executor itself failed; a call that merely failed inside the VM reports
// that through the Result status.
type VM interface {
	Execute(ctx context.Context, env *Env, call Call) (Result, error)
}
