// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtimetest

import (
	"context"

	"github.com/luxfi/crossvm/runtime"
)

var _ runtime.VM = (*VM)(nil)

// VM is a test executor that implements runtime.VM
type VM struct {
	// ExecuteF handles calls when set.
	ExecuteF func(ctx context.Context, env *runtime.Env, call runtime.Call) (runtime.Result, error)

	// ResultV and ErrV are returned when ExecuteF is nil.
	ResultV runtime.Result
	ErrV    error

	// CallsV records every call received, in order.
	CallsV []runtime.Call
}

func (vm *VM) Execute(ctx context.Context, env *runtime.Env, call runtime.Call) (runtime.Result, error) {
	vm.CallsV = append(vm.CallsV, call)
	if vm.ExecuteF != nil {
		return vm.ExecuteF(ctx, env, call)
	}
	return vm.ResultV, vm.ErrV
}
