// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crossvm

import "errors"

var (
	// ErrSameVM rejects a dispatch whose target VM is the caller's own VM.
	// Ordinary intra-VM calls never cross the dispatch boundary.
	ErrSameVM = errors.New("target vm equals caller vm")

	// ErrEmptyCaller rejects a dispatch with no caller account to debit.
	ErrEmptyCaller = errors.New("empty caller address")

	// ErrEmptyTarget rejects a dispatch with a zero target address.
	ErrEmptyTarget = errors.New("empty target address")

	// ErrInputTooLarge rejects an input payload over the configured bound.
	ErrInputTooLarge = errors.New("input too large")

	// ErrDepthLimit refuses a frame that would exceed the depth bound.
	ErrDepthLimit = errors.New("call depth limit exceeded")

	// ErrReentrantCall refuses a frame targeting a contract that is already
	// executing on the frame stack.
	ErrReentrantCall = errors.New("reentrant cross-vm call")

	// ErrBudgetExhausted marks a budget that ran out, either converting to
	// zero before delegation or consumed entirely inside the target VM.
	ErrBudgetExhausted = errors.New("budget exhausted")

	// ErrExecutionReverted marks a call the target contract reverted.
	ErrExecutionReverted = errors.New("execution reverted")

	// ErrExecutionTrapped marks a call the target VM aborted.
	ErrExecutionTrapped = errors.New("execution trapped")

	errNilRegistry   = errors.New("nil vm registry")
	errUnknownStatus = errors.New("unknown execution status")
)
