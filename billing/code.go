package billing

import (
	"errors"
	"fmt"

	"github.com/hosting-systems/wash/money"
)

// Code is the numeric error code crossing the guest boundary.
//
// 0 means success. Positive codes are fixed by the services module ABI
// and must never be renumbered. Negative codes signal host-side
// failures outside the guest's contract.
type Code int32

const (
	CodeSuccess Code = iota
	CodeInvalidArgumentValue
	CodeTotalCostExceededMaxValue
	CodeNegativeBalance
	CodeBalanceWouldBecomeNegative
	CodeBalanceWouldUnderflow
	CodeUnknownImport

	// CodeInternal reports a host-side error that has no ABI code,
	// e.g. the bound account disappearing from the Store.
	CodeInternal Code = -1
)

var mapCodeMessage = map[Code]string{
	CodeInvalidArgumentValue:       "invalid argument value passed to the function",
	CodeTotalCostExceededMaxValue:  "the total cost of the service exceeded the maximum value",
	CodeNegativeBalance:            "the balance is negative",
	CodeBalanceWouldBecomeNegative: "the balance would become negative after the transaction",
	CodeBalanceWouldUnderflow:      "the balance would underflow after the transaction",
	CodeUnknownImport:              "the requested import (e.g. a host function) is unknown",
	CodeInternal:                   "internal host error",
}

// CodeOf encodes a host-side error into the ABI code returned to the
// guest. A nil error encodes to CodeSuccess.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeSuccess
	case errors.Is(err, ErrInvalidArgumentValue):
		return CodeInvalidArgumentValue
	case errors.Is(err, ErrTotalCostExceededMaxValue):
		return CodeTotalCostExceededMaxValue
	case errors.Is(err, money.ErrNegative):
		return CodeNegativeBalance
	case errors.Is(err, money.ErrWouldBecomeNegative):
		return CodeBalanceWouldBecomeNegative
	case errors.Is(err, money.ErrWouldUnderflow):
		return CodeBalanceWouldUnderflow
	default:
		return CodeInternal
	}
}

// Err decodes an ABI code received from the guest back into an error.
// CodeSuccess decodes to nil.
func (c Code) Err() error {
	if c == CodeSuccess {
		return nil
	}

	msg, ok := mapCodeMessage[c]
	if !ok {
		return fmt.Errorf("billing: unrecognized error code %d", int32(c))
	}
	return fmt.Errorf("billing: %s", msg)
}
