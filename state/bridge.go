// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"

	"github.com/luxfi/database"
	"github.com/luxfi/database/versiondb"
)

var ErrFrameOrder = errors.New("frame closed out of order")

// Checkpoint identifies one open frame. It is only valid for the frame at
// the top of the bridge's stack.
type Checkpoint struct {
	index int
	layer *versiondb.Database
}

// Bridge stacks write overlays on a base database, one per cross-VM call
// frame. Writes made inside a frame stay invisible to the enclosing frame
// until the checkpoint commits, and disappear entirely when it rolls back.
//
// The bridge never writes through to the base on its own: the outermost
// commit lands in the base view, whose durability is the caller's business.
// Frames are strictly LIFO and the bridge is not safe for concurrent use.
type Bridge struct {
	base   database.Database
	layers []*versiondb.Database
}

func NewBridge(base database.Database) *Bridge {
	return &Bridge{base: base}
}

// View returns the database the currently executing frame should read and
// write. With no open frame it is the base itself.
func (b *Bridge) View() database.Database {
	if n := len(b.layers); n > 0 {
		return b.layers[n-1]
	}
	return b.base
}

// BeginFrame opens a new overlay over the current view.
func (b *Bridge) BeginFrame() Checkpoint {
	layer := versiondb.New(b.View())
	b.layers = append(b.layers, layer)
	return Checkpoint{
		index: len(b.layers) - 1,
		layer: layer,
	}
}

// Commit folds the checkpoint's writes into the enclosing view. The
// checkpoint must be the top of the stack.
func (b *Bridge) Commit(cp Checkpoint) error {
	if err := b.pop(cp); err != nil {
		return err
	}
	return cp.layer.Commit()
}

// Rollback discards every write made since the checkpoint opened. The
// checkpoint must be the top of the stack.
func (b *Bridge) Rollback(cp Checkpoint) error {
	if err := b.pop(cp); err != nil {
		return err
	}
	cp.layer.Abort()
	return nil
}

// Open returns the number of frames currently open.
func (b *Bridge) Open() int {
	return len(b.layers)
}

func (b *Bridge) pop(cp Checkpoint) error {
	top := len(b.layers) - 1
	if cp.index != top || top < 0 || b.layers[top] != cp.layer {
		return ErrFrameOrder
	}
	b.layers = b.layers[:top]
	return nil
}
