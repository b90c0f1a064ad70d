// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package batch runs sequences of sub-calls through a single VM. All calls
// share the caller's unit, so there is no resource conversion; what varies
// is how much of the sequence survives a failure, chosen by Mode.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	safemath "github.com/luxfi/math"

	"github.com/luxfi/crossvm/runtime"
	"github.com/luxfi/crossvm/state"
	"github.com/luxfi/crossvm/vmid"
)

var (
	ErrNoCalls = errors.New("empty batch")

	errNilVM = errors.New("nil vm")
)

// Mode selects how a batch reacts to a failing sub-call
type Mode uint8

const (
	// Atomic applies every sub-call or none: the first failure rolls back
	// the whole batch and stops it.
	Atomic Mode = iota
	// UntilFailure stops at the first failure but keeps the effects of the
	// sub-calls before it.
	UntilFailure
	// BestEffort attempts every sub-call and keeps each success.
	BestEffort
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case Atomic:
		return "atomic"
	case UntilFailure:
		return "until_failure"
	case BestEffort:
		return "best_effort"
	default:
		return "unknown"
	}
}

// SubCall is one call in a batch. Budget is in the executing VM's unit.
type SubCall struct {
	Target ids.ShortID
	Input  []byte
	Value  *uint256.Int
	Budget uint64
}

func (c *SubCall) value() *uint256.Int {
	if c.Value == nil {
		return new(uint256.Int)
	}
	return c.Value
}

// CallResult reports one attempted sub-call. Status and Output are only
// meaningful when Err is nil; Err is set when the value transfer or the
// executor itself failed. Applied is true iff the sub-call's effects
// survived the batch.
type CallResult struct {
	Status  runtime.Status
	Output  []byte
	Used    uint64
	Err     error
	Applied bool
}

// Result reports a finished batch. Calls holds one entry per attempted
// sub-call in order; sub-calls after a stopping failure are never attempted
// and have no entry. Consumed is the checked sum of Used over attempted
// calls, failures included.
type Result struct {
	Calls     []CallResult
	Succeeded int
	Consumed  uint64
}

// Executor runs batches through one VM.
type Executor struct {
	vmID vmid.VMID
	vm   runtime.VM
	log  log.Logger
}

func NewExecutor(id vmid.VMID, vm runtime.VM, logger log.Logger) (*Executor, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %#02x", vmid.ErrUnknownVM, uint8(id))
	}
	if vm == nil {
		return nil, errNilVM
	}
	return &Executor{
		vmID: id,
		vm:   vm,
		log:  logger,
	}, nil
}

// Run executes the batch over db, which is typically the caller's current
// frame view. Each sub-call gets its own overlay; in Atomic mode one more
// overlay encloses the whole batch. Run returns an error only when the
// batch machinery itself fails; per-call failures are reported in Result.
func (e *Executor) Run(
	ctx context.Context,
	db database.Database,
	mode Mode,
	caller ids.ShortID,
	calls []SubCall,
) (Result, error) {
	if len(calls) == 0 {
		return Result{}, ErrNoCalls
	}
	switch mode {
	case Atomic, UntilFailure, BestEffort:
	default:
		return Result{}, fmt.Errorf("unknown batch mode %d", mode)
	}

	bridge := state.NewBridge(db)

	var enclosing state.Checkpoint
	if mode == Atomic {
		enclosing = bridge.BeginFrame()
	}

	result := Result{
		Calls: make([]CallResult, 0, len(calls)),
	}
	for i, call := range calls {
		callResult := e.run(ctx, bridge, caller, call)

		consumed, err := safemath.Add64(result.Consumed, callResult.Used)
		if err != nil {
			e.abort(bridge, mode, enclosing)
			return Result{}, fmt.Errorf("batch consumption overflow: %w", err)
		}
		result.Consumed = consumed
		result.Calls = append(result.Calls, callResult)

		if callResult.Applied {
			result.Succeeded++
			continue
		}

		e.log.Debug("batch sub-call failed",
			log.Stringer("vm", e.vmID),
			log.Stringer("mode", mode),
			log.Int("index", i),
			log.Stringer("target", call.Target),
			log.Stringer("status", callResult.Status),
			log.Err(callResult.Err),
		)

		switch mode {
		case Atomic:
			// One failure undoes the whole batch, applied sub-calls
			// included.
			if err := bridge.Rollback(enclosing); err != nil {
				return Result{}, err
			}
			for j := range result.Calls {
				result.Calls[j].Applied = false
			}
			result.Succeeded = 0
			return result, nil
		case UntilFailure:
			return result, nil
		}
	}

	if mode == Atomic {
		if err := bridge.Commit(enclosing); err != nil {
			return Result{}, err
		}
	}
	return result, nil
}

// run executes one sub-call in its own frame and settles the frame.
func (e *Executor) run(
	ctx context.Context,
	bridge *state.Bridge,
	caller ids.ShortID,
	call SubCall,
) CallResult {
	cp := bridge.BeginFrame()
	view := bridge.View()

	if err := state.Transfer(view, caller, call.Target, call.value()); err != nil {
		e.abortFrame(bridge, cp)
		return CallResult{Err: err}
	}

	execResult, err := e.vm.Execute(ctx, &runtime.Env{
		State: view,
		Log:   e.log,
	}, runtime.Call{
		Caller: caller,
		Target: call.Target,
		Input:  call.Input,
		Value:  call.value(),
		Budget: call.Budget,
	})

	used := min(execResult.Used, call.Budget)
	if err != nil {
		e.abortFrame(bridge, cp)
		return CallResult{
			Used: used,
			Err:  err,
		}
	}
	if execResult.Status != runtime.StatusSuccess {
		e.abortFrame(bridge, cp)
		return CallResult{
			Status: execResult.Status,
			Output: execResult.Output,
			Used:   used,
		}
	}

	if err := bridge.Commit(cp); err != nil {
		return CallResult{
			Used: used,
			Err:  err,
		}
	}
	return CallResult{
		Status:  runtime.StatusSuccess,
		Output:  execResult.Output,
		Used:    used,
		Applied: true,
	}
}

func (e *Executor) abortFrame(bridge *state.Bridge, cp state.Checkpoint) {
	if err := bridge.Rollback(cp); err != nil {
		e.log.Warn("failed to roll back batch frame",
			log.Err(err),
		)
	}
}

func (e *Executor) abort(bridge *state.Bridge, mode Mode, enclosing state.Checkpoint) {
	if mode != Atomic {
		return
	}
	if err := bridge.Rollback(enclosing); err != nil {
		e.log.Warn("failed to roll back batch",
			log.Err(err),
		)
	}
}
