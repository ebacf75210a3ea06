// Package types provides quantity and money primitives shared by all documents.
package types

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Bags is the unit of stock tracked by the ledger: an integer bag count.
type Bags int64

func (b Bags) IsPositive() bool { return b > 0 }
func (b Bags) IsZero() bool     { return b == 0 }
func (b Bags) IsNegative() bool { return b < 0 }
func (b Bags) Neg() Bags        { return -b }
func (b Bags) Int64() int64     { return int64(b) }

func (b Bags) String() string { return strconv.FormatInt(int64(b), 10) }

// Decimal converts the bag count for money arithmetic.
func (b Bags) Decimal() decimal.Decimal { return decimal.NewFromInt(int64(b)) }

// Min returns the smaller of two bag counts.
func Min(a, b Bags) Bags {
	if a < b {
		return a
	}
	return b
}

// Money represents a monetary value (rates, amounts, taxes) with full precision.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Amount returns rate × bags. An unset quantity (nil) yields zero.
func Amount(rate Money, bags *Bags) Money {
	if bags == nil {
		return decimal.Zero
	}
	return rate.Mul(bags.Decimal())
}

// Percent returns base × pct / 100.
func Percent(base, pct Money) Money {
	return base.Mul(pct).Div(decimal.NewFromInt(100))
}
