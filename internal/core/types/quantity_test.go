package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmount(t *testing.T) {
	forty := Bags(40)

	assert.True(t, MustMoney("220.00").Equal(Amount(MustMoney("5.50"), &forty)))
	assert.True(t, Amount(MustMoney("5.50"), nil).IsZero(), "unset quantity has zero amount")
}

func TestPercent(t *testing.T) {
	got := Percent(MustMoney("1000"), MustMoney("18"))
	assert.Equal(t, "180", got.String())
}

func TestBags(t *testing.T) {
	assert.True(t, Bags(1).IsPositive())
	assert.False(t, Bags(0).IsPositive())
	assert.True(t, Bags(-3).IsNegative())
	assert.Equal(t, Bags(3), Bags(-3).Neg())
	assert.Equal(t, Bags(2), Min(5, 2))
	assert.Equal(t, "42", Bags(42).String())
}
