// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package crossvm routes synchronous calls between the embedded bytecode
// VM and the wasm contract VM within a single atomic transaction.
//
// A dispatch converts the caller's resource budget into the target VM's
// unit, opens an isolated state frame, moves the attached value, runs the
// target executor, and maps whatever happened to exactly one Outcome in
// the caller's terms. Failed frames leave no trace in state; the caller is
// never charged more than the budget it supplied.
package crossvm

import (
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/crossvm/budget"
	"github.com/luxfi/crossvm/config"
	"github.com/luxfi/crossvm/metrics"
	"github.com/luxfi/crossvm/runtime"
	"github.com/luxfi/crossvm/state"
)

// Dispatcher routes cross-VM calls. It is stateless across transactions;
// all per-transaction state lives in the Context passed to Dispatch.
type Dispatcher struct {
	cfg     config.Config
	conv    *budget.Converter
	vms     *runtime.Registry
	log     log.Logger
	metrics metrics.Metrics
}

// New returns a Dispatcher over the given executors. The registry does not
// need to be complete: dispatching to an unregistered VM fails the call,
// not the constructor.
func New(
	cfg config.Config,
	vms *runtime.Registry,
	logger log.Logger,
	registerer metric.Registerer,
) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if vms == nil {
		return nil, errNilRegistry
	}

	conv, err := budget.NewConverter(budget.NewTable(cfg.WeightPerGas))
	if err != nil {
		return nil, err
	}

	if registerer == nil {
		registerer = metric.NewNoOp().Registry()
	}
	m, err := metrics.New(registerer)
	if err != nil {
		return nil, err
	}

	logger.Info("initialized cross-vm dispatcher",
		log.String("config", cfg.String()),
	)
	return &Dispatcher{
		cfg:     cfg,
		conv:    conv,
		vms:     vms,
		log:     logger,
		metrics: m,
	}, nil
}

// NewContext returns a fresh per-transaction Context over the given
// transaction staging database.
func (d *Dispatcher) NewContext(db database.Database) *Context {
	return NewContext(d.cfg.MaxCallDepth, db)
}

// Dispatch routes one cross-VM call and returns its terminal outcome. It
// never returns a Go error: every failure mode is an Outcome kind, with
// the diagnostic in Outcome.Err. On return the transaction state holds the
// committed effects of the call iff the outcome kind is Success.
func (d *Dispatcher) Dispatch(ctx context.Context, tx *Context, req Request) Outcome {
	out := d.dispatch(ctx, tx, req)

	d.metrics.MarkDispatched(req.CallerVM, out.Kind.String(), out.Consumed)
	d.log.Debug("dispatched cross-vm call",
		log.Stringer("callerVM", req.CallerVM),
		log.Stringer("targetVM", req.TargetVM),
		log.Stringer("target", req.Target),
		log.Uint64("budget", req.Budget),
		log.Stringer("outcome", out.Kind),
		log.Uint64("consumed", out.Consumed),
		log.Err(out.Err),
	)
	return out
}

func (d *Dispatcher) dispatch(ctx context.Context, tx *Context, req Request) Outcome {
	// Failures before delegation charge only the flat attempt cost.
	base := min(d.cfg.BaseCost(req.CallerVM), req.Budget)

	if err := req.Verify(d.cfg.MaxInputLen); err != nil {
		return failure(InvalidTarget, base, err)
	}
	vm, ok := d.vms.Get(req.TargetVM)
	if !ok {
		return failure(InvalidTarget, base, fmt.Errorf("%w: %s", runtime.ErrMissingVM, req.TargetVM))
	}

	g, err := tx.enter(req.TargetVM, req.Target)
	if err != nil {
		return failure(RecursionLimitExceeded, base, err)
	}
	defer g.release()

	delegated := d.conv.ToTargetBudget(req.Budget, req.CallerVM, req.TargetVM)
	if delegated == 0 {
		return failure(ResourceExhausted, base, fmt.Errorf("%w: %d %s converts to zero %s",
			ErrBudgetExhausted, req.Budget, req.CallerVM.Unit(), req.TargetVM.Unit()))
	}

	cp := tx.bridge.BeginFrame()
	view := tx.bridge.View()

	if err := state.Transfer(view, req.Caller, req.Target, req.value()); err != nil {
		d.rollback(tx, cp)
		return failure(InvalidTarget, base, err)
	}

	env := &runtime.Env{
		State: view,
		Log:   d.log,
		Depth: uint8(tx.Depth()),
	}
	result, err := vm.Execute(ctx, env, runtime.Call{
		Caller: req.Caller,
		Target: req.Target,
		Input:  req.Input,
		Value:  req.value(),
		Budget: delegated,
	})
	cost := d.callerCost(&req, result.Used, delegated)
	if err != nil {
		d.rollback(tx, cp)
		return failure(Trap, cost, errors.Join(ErrExecutionTrapped, err))
	}

	switch result.Status {
	case runtime.StatusSuccess:
		if err := tx.bridge.Commit(cp); err != nil {
			return failure(Trap, cost, errors.Join(ErrExecutionTrapped, err))
		}
		d.metrics.MarkFrameCommitted()
		return Outcome{
			Kind:       Success,
			ReturnData: result.Output,
			Consumed:   cost,
		}

	case runtime.StatusRevert:
		d.rollback(tx, cp)
		return Outcome{
			Kind:       Revert,
			ReturnData: result.Output,
			Consumed:   cost,
			Err:        ErrExecutionReverted,
		}

	case runtime.StatusTrap:
		d.rollback(tx, cp)
		return failure(Trap, cost, ErrExecutionTrapped)

	case runtime.StatusOutOfResource:
		// Exhaustion inside the target consumes the entire caller budget.
		d.rollback(tx, cp)
		return failure(ResourceExhausted, req.Budget, ErrBudgetExhausted)

	default:
		d.rollback(tx, cp)
		return failure(Trap, cost, fmt.Errorf("%w: %d", errUnknownStatus, result.Status))
	}
}

// callerCost converts the target's reported consumption into the caller's
// unit. The report is clamped to the delegated budget and the converted
// cost is capped at the caller's budget, so a misbehaving executor can
// never over-charge the caller.
func (d *Dispatcher) callerCost(req *Request, used, delegated uint64) uint64 {
	used = min(used, delegated)
	cost := d.conv.ToCallerCost(used, req.CallerVM, req.TargetVM)
	return min(cost, req.Budget)
}

func (d *Dispatcher) rollback(tx *Context, cp state.Checkpoint) {
	if err := tx.bridge.Rollback(cp); err != nil {
		d.log.Warn("failed to roll back call frame",
			log.Err(err),
		)
		return
	}
	d.metrics.MarkFrameRolledBack()
}
