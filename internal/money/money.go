// Package money implements fixed-point monetary amounts with two decimal
// digits of precision. No floats touch a balance.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount (must be > 0 with at most 2 decimal digits)")
)

// Amount is a non-negative fixed-point decimal with 2-digit precision.
// The zero value is 0.00.
type Amount struct {
	dec decimal.Decimal
}

// Parse validates a strictly positive amount with at most two decimal digits.
func Parse(d decimal.Decimal) (Amount, error) {
	if !d.IsPositive() {
		return Amount{}, ErrInvalidAmount
	}
	if !d.Equal(d.Round(2)) {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{dec: d}, nil
}

// ParseString is Parse over the textual form ("30.00", "30", "30.5").
func ParseString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return Parse(d)
}

// FromCents builds an amount from integer minor units. Negative input is
// rejected; zero is allowed so balances can start empty.
func FromCents(cents int64) (Amount, error) {
	if cents < 0 {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{dec: decimal.New(cents, -2)}, nil
}

// MustFromCents is FromCents for trusted callers (tests, seed data).
func MustFromCents(cents int64) Amount {
	a, err := FromCents(cents)
	if err != nil {
		panic(err)
	}
	return a
}

// Zero returns the 0.00 amount.
func Zero() Amount { return Amount{} }

func (a Amount) Add(b Amount) Amount { return Amount{dec: a.dec.Add(b.dec)} }

// Sub panics if the result would be negative; callers must check Less first.
// Balance invariants make a negative result a programming error.
func (a Amount) Sub(b Amount) Amount {
	out := a.dec.Sub(b.dec)
	if out.IsNegative() {
		panic(fmt.Sprintf("money: %s - %s would be negative", a, b))
	}
	return Amount{dec: out}
}

func (a Amount) Less(b Amount) bool   { return a.dec.LessThan(b.dec) }
func (a Amount) Equal(b Amount) bool  { return a.dec.Equal(b.dec) }
func (a Amount) IsZero() bool         { return a.dec.IsZero() }
func (a Amount) IsPositive() bool     { return a.dec.IsPositive() }
func (a Amount) Cents() int64         { return a.dec.Shift(2).IntPart() }
func (a Amount) Decimal() decimal.Decimal { return a.dec }

// String renders the canonical two-digit form, e.g. "70.00".
func (a Amount) String() string { return a.dec.StringFixed(2) }

// MarshalJSON emits the amount as a JSON string ("70.00") to keep precision
// out of float hands on the wire.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted and bare decimal forms and applies the
// same validation as Parse, except that zero is permitted (opening balances).
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return ErrInvalidAmount
	}
	if d.IsNegative() || !d.Equal(d.Round(2)) {
		return ErrInvalidAmount
	}
	a.dec = d
	return nil
}
