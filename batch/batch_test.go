// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package batch_test

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/crossvm/batch"
	"github.com/luxfi/crossvm/runtime"
	"github.com/luxfi/crossvm/runtime/runtimetest"
	"github.com/luxfi/crossvm/state"
	"github.com/luxfi/crossvm/vmid"
)

var markSlot = []byte("mark")

// scriptedVM succeeds and writes a storage marker unless the input says
// otherwise. Used is always 10.
func scriptedVM() *runtimetest.VM {
	return &runtimetest.VM{
		ExecuteF: func(_ context.Context, env *runtime.Env, call runtime.Call) (runtime.Result, error) {
			switch string(call.Input) {
			case "revert":
				return runtime.Result{Status: runtime.StatusRevert, Used: 10}, nil
			case "trap":
				return runtime.Result{Status: runtime.StatusTrap, Used: 10}, nil
			}
			if err := state.SetStorage(env.State, call.Target, markSlot, call.Input); err != nil {
				return runtime.Result{}, err
			}
			return runtime.Result{Status: runtime.StatusSuccess, Output: call.Input, Used: 10}, nil
		},
	}
}

func newTestExecutor(t *testing.T) (*batch.Executor, *runtimetest.VM) {
	vm := scriptedVM()
	e, err := batch.NewExecutor(vmid.Wasm, vm, log.NewNoOpLogger())
	require.NoError(t, err)
	return e, vm
}

func TestNewExecutorRejectsBadInputs(t *testing.T) {
	require := require.New(t)

	_, err := batch.NewExecutor(vmid.VMID(0x42), &runtimetest.VM{}, log.NewNoOpLogger())
	require.ErrorIs(err, vmid.ErrUnknownVM)

	_, err = batch.NewExecutor(vmid.Wasm, nil, log.NewNoOpLogger())
	require.Error(err)
}

func TestRunRejectsBadBatches(t *testing.T) {
	require := require.New(t)

	e, _ := newTestExecutor(t)
	db := memdb.New()

	_, err := e.Run(context.Background(), db, batch.Atomic, ids.GenerateTestShortID(), nil)
	require.ErrorIs(err, batch.ErrNoCalls)

	_, err = e.Run(context.Background(), db, batch.Mode(9), ids.GenerateTestShortID(), []batch.SubCall{{
		Target: ids.GenerateTestShortID(),
		Budget: 100,
	}})
	require.Error(err)
}

func TestRunAppliesAllOnSuccess(t *testing.T) {
	require := require.New(t)

	e, _ := newTestExecutor(t)
	caller := ids.GenerateTestShortID()
	first := ids.GenerateTestShortID()
	second := ids.GenerateTestShortID()

	db := memdb.New()
	require.NoError(state.SetBalance(db, caller, uint256.NewInt(100)))

	result, err := e.Run(context.Background(), db, batch.Atomic, caller, []batch.SubCall{
		{Target: first, Input: []byte("a"), Value: uint256.NewInt(30), Budget: 100},
		{Target: second, Input: []byte("b"), Value: uint256.NewInt(20), Budget: 100},
	})
	require.NoError(err)

	require.Len(result.Calls, 2)
	require.Equal(2, result.Succeeded)
	require.Equal(uint64(20), result.Consumed)
	for _, call := range result.Calls {
		require.True(call.Applied)
		require.Equal(runtime.StatusSuccess, call.Status)
		require.NoError(call.Err)
	}

	balance, err := state.GetBalance(db, caller)
	require.NoError(err)
	require.Equal(uint256.NewInt(50), balance)

	mark, err := state.GetStorage(db, first, markSlot)
	require.NoError(err)
	require.Equal([]byte("a"), mark)

	mark, err = state.GetStorage(db, second, markSlot)
	require.NoError(err)
	require.Equal([]byte("b"), mark)
}

func TestRunAtomicRollsBackEverything(t *testing.T) {
	require := require.New(t)

	e, _ := newTestExecutor(t)
	caller := ids.GenerateTestShortID()
	first := ids.GenerateTestShortID()
	second := ids.GenerateTestShortID()

	db := memdb.New()
	require.NoError(state.SetBalance(db, caller, uint256.NewInt(100)))

	result, err := e.Run(context.Background(), db, batch.Atomic, caller, []batch.SubCall{
		{Target: first, Input: []byte("a"), Value: uint256.NewInt(30), Budget: 100},
		{Target: second, Input: []byte("revert"), Budget: 100},
		{Target: second, Input: []byte("never attempted"), Budget: 100},
	})
	require.NoError(err)

	// The failing sub-call stops the batch; nothing after it is attempted.
	require.Len(result.Calls, 2)
	require.Zero(result.Succeeded)
	require.Equal(uint64(20), result.Consumed)

	// The first sub-call succeeded in isolation but did not survive.
	require.Equal(runtime.StatusSuccess, result.Calls[0].Status)
	require.False(result.Calls[0].Applied)
	require.Equal(runtime.StatusRevert, result.Calls[1].Status)

	balance, err := state.GetBalance(db, caller)
	require.NoError(err)
	require.Equal(uint256.NewInt(100), balance)

	mark, err := state.GetStorage(db, first, markSlot)
	require.NoError(err)
	require.Nil(mark)
}

func TestRunUntilFailureKeepsPrior(t *testing.T) {
	require := require.New(t)

	e, vm := newTestExecutor(t)
	caller := ids.GenerateTestShortID()
	first := ids.GenerateTestShortID()
	second := ids.GenerateTestShortID()

	db := memdb.New()
	require.NoError(state.SetBalance(db, caller, uint256.NewInt(100)))

	result, err := e.Run(context.Background(), db, batch.UntilFailure, caller, []batch.SubCall{
		{Target: first, Input: []byte("a"), Value: uint256.NewInt(30), Budget: 100},
		{Target: second, Input: []byte("trap"), Budget: 100},
		{Target: second, Input: []byte("never attempted"), Budget: 100},
	})
	require.NoError(err)

	require.Len(result.Calls, 2)
	require.Equal(1, result.Succeeded)
	require.True(result.Calls[0].Applied)
	require.Equal(runtime.StatusTrap, result.Calls[1].Status)
	require.Len(vm.CallsV, 2)

	// The first sub-call's effects survive.
	balance, err := state.GetBalance(db, caller)
	require.NoError(err)
	require.Equal(uint256.NewInt(70), balance)

	mark, err := state.GetStorage(db, first, markSlot)
	require.NoError(err)
	require.Equal([]byte("a"), mark)
}

func TestRunBestEffortAttemptsAll(t *testing.T) {
	require := require.New(t)

	e, _ := newTestExecutor(t)
	caller := ids.GenerateTestShortID()
	first := ids.GenerateTestShortID()
	second := ids.GenerateTestShortID()

	db := memdb.New()

	result, err := e.Run(context.Background(), db, batch.BestEffort, caller, []batch.SubCall{
		{Target: first, Input: []byte("revert"), Budget: 100},
		{Target: second, Input: []byte("b"), Budget: 100},
	})
	require.NoError(err)

	require.Len(result.Calls, 2)
	require.Equal(1, result.Succeeded)
	require.False(result.Calls[0].Applied)
	require.True(result.Calls[1].Applied)

	mark, err := state.GetStorage(db, first, markSlot)
	require.NoError(err)
	require.Nil(mark)

	mark, err = state.GetStorage(db, second, markSlot)
	require.NoError(err)
	require.Equal([]byte("b"), mark)
}

func TestRunValueTransferFailure(t *testing.T) {
	require := require.New(t)

	e, vm := newTestExecutor(t)
	caller := ids.GenerateTestShortID()
	target := ids.GenerateTestShortID()

	db := memdb.New()
	require.NoError(state.SetBalance(db, caller, uint256.NewInt(10)))

	result, err := e.Run(context.Background(), db, batch.UntilFailure, caller, []batch.SubCall{
		{Target: target, Value: uint256.NewInt(50), Budget: 100},
	})
	require.NoError(err)

	require.Len(result.Calls, 1)
	require.Zero(result.Succeeded)
	require.ErrorIs(result.Calls[0].Err, state.ErrInsufficientFunds)

	// The executor never ran for the failed transfer.
	require.Empty(vm.CallsV)

	balance, err := state.GetBalance(db, caller)
	require.NoError(err)
	require.Equal(uint256.NewInt(10), balance)
}

func TestRunClampsReportedConsumption(t *testing.T) {
	require := require.New(t)

	vm := &runtimetest.VM{
		ResultV: runtime.Result{
			Status: runtime.StatusSuccess,
			Used:   1 << 50,
		},
	}
	e, err := batch.NewExecutor(vmid.EVM, vm, log.NewNoOpLogger())
	require.NoError(err)

	result, err := e.Run(context.Background(), memdb.New(), batch.BestEffort, ids.GenerateTestShortID(), []batch.SubCall{
		{Target: ids.GenerateTestShortID(), Budget: 100},
	})
	require.NoError(err)
	require.Equal(uint64(100), result.Consumed)
}
