// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"errors"
	"fmt"

	"github.com/luxfi/crossvm/vmid"
)

var (
	ErrDuplicateVM = errors.New("vm already registered")
	ErrNilVM       = errors.New("nil vm")
	ErrMissingVM   = errors.New("vm not registered")
)

// Registry binds each VM identifier to its executor. The identifier set is
// closed, so a fully populated registry covers every dispatchable target.
type Registry struct {
	vms map[vmid.VMID]VM
}

func NewRegistry() *Registry {
	return &Registry{
		vms: make(map[vmid.VMID]VM, len(vmid.All())),
	}
}

func (r *Registry) Register(id vmid.VMID, vm VM) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %#02x", vmid.ErrUnknownVM, uint8(id))
	}
	if vm == nil {
		return fmt.Errorf("%w: %s", ErrNilVM, id)
	}
	if _, ok := r.vms[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVM, id)
	}
	r.vms[id] = vm
	return nil
}

func (r *Registry) Get(id vmid.VMID) (VM, bool) {
	vm, ok := r.vms[id]
	return vm, ok
}

// Complete verifies every member of the VM set has an executor.
func (r *Registry) Complete() error {
	for _, id := range vmid.All() {
		if _, ok := r.vms[id]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingVM, id)
		}
	}
	return nil
}
