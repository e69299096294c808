// Package money implements the fixed-point monetary unit used for
// account balances and service pricing.
//
// All arithmetic on [Unit] is checked: operations that could overflow,
// underflow, or drive a balance negative fail loudly instead of wrapping
// around. Billing code must never silently lose (or mint) money.
package money

import (
	"errors"
	"math"
)

var (
	// ErrNegative is returned when the starting amount of a checked
	// operation is already negative.
	ErrNegative = errors.New("money: amount is negative")

	// ErrWouldBecomeNegative is returned when a checked subtraction
	// would result in a negative amount.
	ErrWouldBecomeNegative = errors.New("money: amount would become negative")

	// ErrWouldUnderflow is returned when a checked subtraction would
	// underflow the underlying integer type.
	ErrWouldUnderflow = errors.New("money: amount would underflow")
)

// Unit is an amount of money counted in cents.
//
// It is a transparent wrapper around int64 so it crosses the WebAssembly
// boundary as a single i64 without any conversion.
type Unit int64

// FromCents builds a Unit from an amount of cents.
func FromCents(cents int64) Unit {
	return Unit(cents)
}

// Cents returns the amount of cents as an int64, suitable for returning
// to a guest expecting an i64.
func (u Unit) Cents() int64 {
	return int64(u)
}

// MulInt32 multiplies the Unit by a scalar count, e.g. a price per day
// by a number of days. ok is false if the result does not fit in a Unit.
func (u Unit) MulInt32(n int32) (res Unit, ok bool) {
	return u.MulInt64(int64(n))
}

// MulInt64 multiplies the Unit by a scalar count. ok is false if the
// result does not fit in a Unit.
func (u Unit) MulInt64(n int64) (res Unit, ok bool) {
	if u == 0 || n == 0 {
		return 0, true
	}

	// MinInt64 * -1 wraps back to MinInt64 and survives the division
	// check below, so it needs to be rejected explicitly.
	if (int64(u) == math.MinInt64 && n == -1) || (n == math.MinInt64 && int64(u) == -1) {
		return 0, false
	}

	res = Unit(int64(u) * n)
	if int64(res)/n != int64(u) {
		return 0, false
	}
	return res, true
}

// Sub subtracts rhs from u with the full set of balance checks:
//   - u must not already be negative (ErrNegative)
//   - the subtraction must not underflow int64 (ErrWouldUnderflow)
//   - the result must not be negative (ErrWouldBecomeNegative)
//
// There deliberately is no in-place variant: a failed Sub must leave
// the caller's amount untouched.
func (u Unit) Sub(rhs Unit) (Unit, error) {
	if u < 0 {
		return 0, ErrNegative
	}

	res := u - rhs
	if (rhs > 0 && res > u) || (rhs < 0 && res < u) {
		return 0, ErrWouldUnderflow
	}
	if res < 0 {
		return 0, ErrWouldBecomeNegative
	}

	return res, nil
}
