// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crossvm

import (
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"

	"github.com/luxfi/crossvm/state"
	"github.com/luxfi/crossvm/vmid"
)

// Context tracks one transaction's cross-VM activity: the stack of open
// call frames and the state bridge that isolates them. A Context must not
// outlive its transaction and must never be shared between transactions.
// It is not safe for concurrent use.
type Context struct {
	maxDepth uint8
	frames   []frame
	bridge   *state.Bridge
}

type frame struct {
	vm     vmid.VMID
	target ids.ShortID
}

// NewContext returns a Context for one transaction over the given state.
// The database is the transaction's staging view; the dispatcher commits
// outermost frames into it but never beyond it.
func NewContext(maxDepth uint8, db database.Database) *Context {
	return &Context{
		maxDepth: maxDepth,
		bridge:   state.NewBridge(db),
	}
}

// Depth returns the number of frames currently open.
func (c *Context) Depth() int {
	return len(c.frames)
}

// InFlight returns true if the (vm, target) pair is on the frame stack.
func (c *Context) InFlight(vm vmid.VMID, target ids.ShortID) bool {
	for _, f := range c.frames {
		if f.vm == vm && f.target == target {
			return true
		}
	}
	return false
}

// Idle returns true when no frame and no bridge overlay remain open. A
// Context is idle before its first dispatch and again after every
// outermost dispatch returns.
func (c *Context) Idle() bool {
	return len(c.frames) == 0 && c.bridge.Open() == 0
}

func (c *Context) enter(vm vmid.VMID, target ids.ShortID) (*guard, error) {
	if len(c.frames) >= int(c.maxDepth) {
		return nil, fmt.Errorf("%w: %d", ErrDepthLimit, c.maxDepth)
	}
	if c.InFlight(vm, target) {
		return nil, fmt.Errorf("%w: %s %s", ErrReentrantCall, vm, target)
	}
	c.frames = append(c.frames, frame{vm: vm, target: target})
	return &guard{ctx: c}, nil
}

// guard pops the frame its enter pushed. Frames close strictly LIFO, so
// release only ever drops the top of the stack.
type guard struct {
	ctx      *Context
	released bool
}

func (g *guard) release() {
	if g.released {
		return
	}
	g.released = true
	g.ctx.frames = g.ctx.frames[:len(g.ctx.frames)-1]
}
