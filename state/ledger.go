// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state implements the ledger shared by the embedded VMs and the
// frame bridge that isolates cross-VM calls from each other.
//
// The ledger is a thin schema over an injected database: balances and
// contract storage cells. It makes no persistence guarantees of its own;
// whatever durability the injected database has, the ledger has.
package state

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

// Account is the serialized balance record.
type Account struct {
	Balance []byte `serialize:"true"`
}

// GetBalance returns the balance of addr. An absent account has balance zero.
func GetBalance(db database.KeyValueReader, addr ids.ShortID) (*uint256.Int, error) {
	recordBytes, err := db.Get(balanceKey(addr))
	if err == database.ErrNotFound {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}

	var account Account
	if _, err := c.Unmarshal(recordBytes, &account); err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(account.Balance), nil
}

// SetBalance overwrites the balance of addr.
func SetBalance(db database.KeyValueWriter, addr ids.ShortID, balance *uint256.Int) error {
	account := Account{Balance: balance.Bytes()}
	recordBytes, err := c.Marshal(codecVersion, &account)
	if err != nil {
		return err
	}
	return db.Put(balanceKey(addr), recordBytes)
}

// AddBalance credits amount to addr.
func AddBalance(db database.Database, addr ids.ShortID, amount *uint256.Int) error {
	balance, err := GetBalance(db, addr)
	if err != nil {
		return err
	}
	newBalance, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return fmt.Errorf("%w: %s + %s", ErrBalanceOverflow, balance, amount)
	}
	return SetBalance(db, addr, newBalance)
}

// SubBalance debits amount from addr. The balance is untouched on failure.
func SubBalance(db database.Database, addr ids.ShortID, amount *uint256.Int) error {
	balance, err := GetBalance(db, addr)
	if err != nil {
		return err
	}
	if balance.Lt(amount) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientFunds, balance, amount)
	}
	return SetBalance(db, addr, new(uint256.Int).Sub(balance, amount))
}

// Transfer moves amount from one account to another. The debit happens
// first, so an insufficient balance leaves both accounts untouched.
func Transfer(db database.Database, from, to ids.ShortID, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := SubBalance(db, from, amount); err != nil {
		return err
	}
	return AddBalance(db, to, amount)
}

// GetStorage returns the value of a contract storage cell. An absent cell
// reads as nil.
func GetStorage(db database.KeyValueReader, addr ids.ShortID, slot []byte) ([]byte, error) {
	value, err := db.Get(storageKey(addr, slot))
	if err == database.ErrNotFound {
		return nil, nil
	}
	return value, err
}

// SetStorage writes a contract storage cell. An empty value clears the cell.
func SetStorage(db database.KeyValueWriterDeleter, addr ids.ShortID, slot, value []byte) error {
	key := storageKey(addr, slot)
	if len(value) == 0 {
		return db.Delete(key)
	}
	return db.Put(key, value)
}
