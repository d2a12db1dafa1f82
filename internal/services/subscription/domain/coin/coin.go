// Package coin models token denominations and unsigned 128-bit amounts.
package coin

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"lukechampine.com/uint128"
)

// ErrInvalidAmount reports a string that is not an unsigned base-10 integer
// in the 128-bit range.
var ErrInvalidAmount = errors.New("invalid amount")

// AmountError describes why an amount string was rejected. It matches
// ErrInvalidAmount under errors.Is.
type AmountError struct {
	Input  string
	Reason string
}

func (e *AmountError) Error() string {
	if e.Input == "" {
		return ErrInvalidAmount.Error() + ": " + e.Reason
	}
	return fmt.Sprintf("%s: %s %q", ErrInvalidAmount, e.Reason, e.Input)
}

func (e *AmountError) Unwrap() error { return ErrInvalidAmount }

// Amount is a quantity in the smallest unit of a denomination.
type Amount struct {
	v uint128.Uint128
}

// Zero is the zero amount.
var Zero = Amount{}

// NewAmount returns an amount from a uint64.
func NewAmount(v uint64) Amount {
	return Amount{v: uint128.From64(v)}
}

// ParseAmount parses a non-empty string of ASCII digits. Leading zeros are
// accepted; signs, whitespace, separators and base prefixes are not.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount{}, &AmountError{Reason: "empty"}
	}
	if s[0] == '-' {
		return Amount{}, &AmountError{Input: s, Reason: "negative"}
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return Amount{}, &AmountError{Input: s, Reason: "not numeric"}
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, &AmountError{Input: s, Reason: "not numeric"}
	}
	if n.BitLen() > 128 {
		return Amount{}, &AmountError{Input: s, Reason: "overflow"}
	}
	return Amount{v: uint128.FromBig(n)}, nil
}

// MustParseAmount is ParseAmount for constants and tests.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the base-10 form.
func (a Amount) String() string { return a.v.String() }

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.v.IsZero() }

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(b.v) }

// MarshalJSON encodes the amount as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a decimal string through ParseAmount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &AmountError{Input: string(data), Reason: "not a JSON string"}
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Coin is an amount of one denomination.
type Coin struct {
	Denom  string `json:"denom"`
	Amount Amount `json:"amount"`
}

// New returns a coin.
func New(denom string, amount Amount) Coin {
	return Coin{Denom: denom, Amount: amount}
}

// String renders the coin as amount followed by denom, e.g. "1000000uatom".
func (c Coin) String() string {
	return c.Amount.String() + c.Denom
}
