package rate_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldstore/internal/core/types"
	"coldstore/internal/domain/rates"
)

func TestSelectQuery(t *testing.T) {
	sql, args, err := NewRuleRepo(nil).selectQuery().ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT item_group, billing_type, goods_item, rate, loading_rate, priority, valid_from, valid_to "+
			"FROM cs_rate_rules ORDER BY id",
		sql)
	assert.Empty(t, args)
}

func TestInsertQuery(t *testing.T) {
	rules := []rates.Rule{
		{ItemGroup: "Jute Bag", BillingType: rates.BillingDaily, Rate: types.MustMoney("2"), LoadingRate: types.MustMoney("1.5")},
		{ItemGroup: "Jute Bag", BillingType: rates.BillingDaily, GoodsItem: "Potato", Rate: types.MustMoney("3"), Priority: 10},
	}

	sql, args, err := NewRuleRepo(nil).insertQuery(rules).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO cs_rate_rules (item_group,billing_type,goods_item,rate,loading_rate,priority,valid_from,valid_to)")
	assert.Contains(t, sql, "($9,$10,$11,$12,$13,$14,$15,$16)")
	require.Len(t, args, 16)
	assert.Equal(t, "Potato", args[10])
	assert.Equal(t, 10, args[13])
}
