// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/ids"
)

// The ledger keyspace is partitioned by a one-byte prefix. Balance records
// are keyed by address; storage cells by address plus the hash of the slot
// key, so arbitrary-length slots map to fixed-size keys.
var (
	balancePrefix = []byte{0x00}
	storagePrefix = []byte{0x01}
)

func balanceKey(addr ids.ShortID) []byte {
	key := make([]byte, 0, len(balancePrefix)+len(addr))
	key = append(key, balancePrefix...)
	key = append(key, addr[:]...)
	return key
}

func storageKey(addr ids.ShortID, slot []byte) []byte {
	slotHash := hash.ComputeHash256(slot)
	key := make([]byte, 0, len(storagePrefix)+len(addr)+len(slotHash))
	key = append(key, storagePrefix...)
	key = append(key, addr[:]...)
	key = append(key, slotHash...)
	return key
}
