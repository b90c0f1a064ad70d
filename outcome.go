// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crossvm

// Kind classifies how a dispatch ended
type Kind uint8

const (
	Success Kind = iota
	Revert
	Trap
	ResourceExhausted
	RecursionLimitExceeded
	InvalidTarget
)

// String returns the string representation of the outcome kind
func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Revert:
		return "revert"
	case Trap:
		return "trap"
	case ResourceExhausted:
		return "resource_exhausted"
	case RecursionLimitExceeded:
		return "recursion_limit_exceeded"
	case InvalidTarget:
		return "invalid_target"
	default:
		return "unknown"
	}
}

// Failed returns true for every kind except Success.
func (k Kind) Failed() bool {
	return k != Success
}

// Outcome is the single terminal result of a dispatch.
//
// Consumed is always denominated in the caller VM's unit and never exceeds
// the request's budget. ReturnData is set for Success (return data) and
// Revert (revert payload, passed through unmodified); it is empty for every
// other kind, including Trap. Err carries the failure diagnostic and wraps
// the package's sentinel errors; it is nil for Success.
type Outcome struct {
	Kind       Kind
	ReturnData []byte
	Consumed   uint64
	Err        error
}

func failure(kind Kind, consumed uint64, err error) Outcome {
	return Outcome{
		Kind:     kind,
		Consumed: consumed,
		Err:      err,
	}
}
