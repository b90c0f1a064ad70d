// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestBridgeBaseView(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	bridge := NewBridge(base)

	require.Equal(database.Database(base), bridge.View())
	require.Zero(bridge.Open())
}

func TestBridgeCommitVisibility(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	bridge := NewBridge(base)

	cp := bridge.BeginFrame()
	require.Equal(1, bridge.Open())
	require.NoError(bridge.View().Put([]byte("k"), []byte("v")))

	// The write stays inside the frame until commit.
	has, err := base.Has([]byte("k"))
	require.NoError(err)
	require.False(has)

	require.NoError(bridge.Commit(cp))
	require.Zero(bridge.Open())

	value, err := base.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("v"), value)
}

func TestBridgeRollbackDiscards(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	require.NoError(base.Put([]byte("k"), []byte("old")))

	bridge := NewBridge(base)
	cp := bridge.BeginFrame()
	require.NoError(bridge.View().Put([]byte("k"), []byte("new")))
	require.NoError(bridge.View().Put([]byte("extra"), []byte("x")))

	require.NoError(bridge.Rollback(cp))

	value, err := base.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("old"), value)

	has, err := base.Has([]byte("extra"))
	require.NoError(err)
	require.False(has)
}

func TestBridgeChildReadsParent(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	require.NoError(base.Put([]byte("k"), []byte("v")))

	bridge := NewBridge(base)
	outer := bridge.BeginFrame()
	require.NoError(bridge.View().Put([]byte("outer"), []byte("o")))

	inner := bridge.BeginFrame()

	// The inner frame sees the base and the outer frame's pending writes.
	value, err := bridge.View().Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("v"), value)

	value, err = bridge.View().Get([]byte("outer"))
	require.NoError(err)
	require.Equal([]byte("o"), value)

	require.NoError(bridge.Rollback(inner))
	require.NoError(bridge.Rollback(outer))
}

func TestBridgeSiblingIsolation(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	bridge := NewBridge(base)

	first := bridge.BeginFrame()
	require.NoError(bridge.View().Put([]byte("aborted"), []byte("x")))
	require.NoError(bridge.Rollback(first))

	second := bridge.BeginFrame()
	has, err := bridge.View().Has([]byte("aborted"))
	require.NoError(err)
	require.False(has)
	require.NoError(bridge.Rollback(second))
}

func TestBridgeSequentialFramesSeeCommitted(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	bridge := NewBridge(base)

	first := bridge.BeginFrame()
	require.NoError(bridge.View().Put([]byte("k"), []byte("v")))
	require.NoError(bridge.Commit(first))

	second := bridge.BeginFrame()
	value, err := bridge.View().Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("v"), value)
	require.NoError(bridge.Rollback(second))
}

func TestBridgeOuterRollbackDiscardsInnerCommit(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	bridge := NewBridge(base)

	outer := bridge.BeginFrame()
	inner := bridge.BeginFrame()
	require.NoError(bridge.View().Put([]byte("k"), []byte("v")))
	require.NoError(bridge.Commit(inner))

	// The inner commit is only pending inside the outer frame.
	has, err := base.Has([]byte("k"))
	require.NoError(err)
	require.False(has)

	require.NoError(bridge.Rollback(outer))

	has, err = base.Has([]byte("k"))
	require.NoError(err)
	require.False(has)
	require.Zero(bridge.Open())
}

func TestBridgeFrameOrder(t *testing.T) {
	require := require.New(t)

	bridge := NewBridge(memdb.New())

	// Closing with no frame open.
	require.ErrorIs(bridge.Commit(Checkpoint{}), ErrFrameOrder)
	require.ErrorIs(bridge.Rollback(Checkpoint{}), ErrFrameOrder)

	outer := bridge.BeginFrame()
	inner := bridge.BeginFrame()

	// A frame below the top cannot close first.
	require.ErrorIs(bridge.Commit(outer), ErrFrameOrder)
	require.ErrorIs(bridge.Rollback(outer), ErrFrameOrder)

	require.NoError(bridge.Commit(inner))

	// A checkpoint cannot close twice.
	require.ErrorIs(bridge.Commit(inner), ErrFrameOrder)

	require.NoError(bridge.Rollback(outer))
	require.Zero(bridge.Open())
}

func TestBridgeTransferAcrossFrames(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	from := ids.GenerateTestShortID()
	to := ids.GenerateTestShortID()
	require.NoError(SetBalance(base, from, uint256.NewInt(100)))

	bridge := NewBridge(base)
	cp := bridge.BeginFrame()
	require.NoError(Transfer(bridge.View(), from, to, uint256.NewInt(40)))

	// Pending transfer is invisible outside the frame.
	balance, err := GetBalance(base, from)
	require.NoError(err)
	require.Equal(uint256.NewInt(100), balance)

	require.NoError(bridge.Commit(cp))

	balance, err = GetBalance(base, from)
	require.NoError(err)
	require.Equal(uint256.NewInt(60), balance)

	balance, err = GetBalance(base, to)
	require.NoError(err)
	require.Equal(uint256.NewInt(40), balance)
}
