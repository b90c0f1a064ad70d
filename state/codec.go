// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"

	"github.com/luxfi/codec"
	"github.com/luxfi/codec/linearcodec"
	"github.com/luxfi/constants"
)

const (
	codecVersion  = 0
	maxRecordSize = constants.KiB
)

// Codec does serialization and deserialization of ledger records
var c codec.Manager

func init() {
	c = codec.NewManager(maxRecordSize)
	lc := linearcodec.NewDefault()

	err := errors.Join(
		lc.RegisterType(&Account{}),
		c.RegisterCodec(codecVersion, lc),
	)
	if err != nil {
		panic(err)
	}
}
