package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldstore/internal/core/types"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestResolve_MonthlyDairy(t *testing.T) {
	rules := []Rule{
		{ItemGroup: "Dairy", BillingType: BillingMonthly, Rate: types.MustMoney("5.50")},
	}

	got := Resolve(rules, Key{ItemGroup: "Dairy", BillingType: BillingMonthly}, time.Now())
	require.True(t, got.Matched())
	assert.True(t, types.MustMoney("5.50").Equal(got.Rate))

	forty := types.Bags(40)
	assert.Equal(t, "220", types.Amount(got.Rate, &forty).String())
}

func TestResolve_NoMatchIsZero(t *testing.T) {
	rules := []Rule{
		{ItemGroup: "Dairy", BillingType: BillingMonthly, Rate: types.MustMoney("5.50")},
	}

	tests := []struct {
		name string
		key  Key
	}{
		{"other group", Key{ItemGroup: "Potato", BillingType: BillingMonthly}},
		{"other billing", Key{ItemGroup: "Dairy", BillingType: BillingDaily}},
		{"empty", Key{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(rules, tt.key, time.Now())
			assert.False(t, got.Matched())
			assert.True(t, got.Rate.IsZero())
			assert.True(t, got.LoadingRate.IsZero())
		})
	}
}

func TestResolve_Priority(t *testing.T) {
	generic := Rule{ItemGroup: "Dairy", BillingType: BillingMonthly, Rate: types.MustMoney("5.50"), Priority: 0}
	override := Rule{ItemGroup: "Dairy", BillingType: BillingMonthly, GoodsItem: "Ghee", Rate: types.MustMoney("7.00"), Priority: 10}
	lowOverride := override
	lowOverride.Priority = -1

	tests := []struct {
		name  string
		rules []Rule
		key   Key
		want  string
	}{
		{"override wins by priority", []Rule{generic, override}, Key{"Dairy", BillingMonthly, "Ghee"}, "7"},
		{"override ignored for other item", []Rule{generic, override}, Key{"Dairy", BillingMonthly, "Milk"}, "5.5"},
		{"generic wins when configured higher", []Rule{generic, lowOverride}, Key{"Dairy", BillingMonthly, "Ghee"}, "5.5"},
		{"tie goes to table order", []Rule{
			{ItemGroup: "Dairy", BillingType: BillingMonthly, Rate: types.MustMoney("1")},
			{ItemGroup: "Dairy", BillingType: BillingMonthly, Rate: types.MustMoney("2")},
		}, Key{"Dairy", BillingMonthly, ""}, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.rules, tt.key, time.Now())
			assert.Equal(t, tt.want, got.Rate.String())
		})
	}
}

func TestResolve_ValidityWindow(t *testing.T) {
	rules := []Rule{
		{ItemGroup: "Dairy", BillingType: BillingSeasonal, Rate: types.MustMoney("100"), ValidFrom: day("2024-01-01"), ValidTo: day("2024-06-30")},
		{ItemGroup: "Dairy", BillingType: BillingSeasonal, Rate: types.MustMoney("120"), ValidFrom: day("2024-07-01")},
	}
	key := Key{ItemGroup: "Dairy", BillingType: BillingSeasonal}

	assert.Equal(t, "100", Resolve(rules, key, *day("2024-06-30")).Rate.String())
	assert.Equal(t, "120", Resolve(rules, key, *day("2024-07-01")).Rate.String())
	assert.False(t, Resolve(rules, key, *day("2023-12-31")).Matched())
}

func TestRule_Validate(t *testing.T) {
	ok := Rule{ItemGroup: "Dairy", BillingType: BillingDaily, Rate: types.MustMoney("1")}
	assert.NoError(t, ok.Validate())

	bad := []Rule{
		{BillingType: BillingDaily},
		{ItemGroup: "Dairy", BillingType: "Weekly"},
		{ItemGroup: "Dairy", BillingType: BillingDaily, Rate: types.MustMoney("-1")},
		{ItemGroup: "Dairy", BillingType: BillingDaily, ValidFrom: day("2024-02-01"), ValidTo: day("2024-01-01")},
	}
	for _, r := range bad {
		assert.Error(t, r.Validate())
	}
}

func TestBillingUnits(t *testing.T) {
	tests := []struct {
		bt   BillingType
		days int
		want int
	}{
		{BillingDaily, 0, 1},
		{BillingDaily, 12, 12},
		{BillingMonthly, 1, 1},
		{BillingMonthly, 30, 1},
		{BillingMonthly, 31, 2},
		{BillingMonthly, 95, 4},
		{BillingSeasonal, 200, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BillingUnits(tt.bt, tt.days), "%s %d", tt.bt, tt.days)
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 1, DaysBetween(*day("2024-03-01"), *day("2024-03-01")))
	assert.Equal(t, 31, DaysBetween(*day("2024-03-01"), *day("2024-03-31")))
}

type failingSource struct{}

func (failingSource) Rules(context.Context) ([]Rule, error) { return nil, errors.New("boom") }

func TestService_Rate(t *testing.T) {
	svc := NewService(StaticSource{
		{ItemGroup: "Dairy", BillingType: BillingMonthly, Rate: types.MustMoney("5.50"), LoadingRate: types.MustMoney("2")},
	})

	got, err := svc.Rate(context.Background(), Key{ItemGroup: "Dairy", BillingType: BillingMonthly})
	require.NoError(t, err)
	assert.Equal(t, "5.5", got.Rate.String())
	assert.Equal(t, "2", got.LoadingRate.String())

	got, err = NewService(failingSource{}).Rate(context.Background(), Key{})
	require.NoError(t, err, "incomplete key short-circuits to zero")
	assert.True(t, got.Rate.IsZero())

	_, err = NewService(failingSource{}).Rate(context.Background(), Key{ItemGroup: "Dairy", BillingType: BillingDaily})
	assert.Error(t, err)
}
