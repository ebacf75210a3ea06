// Package rate_repo stores the rate card in PostgreSQL.
package rate_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"coldstore/internal/domain/rates"
	"coldstore/internal/infrastructure/storage/postgres"
)

const rulesTable = "cs_rate_rules"

var ruleColumns = []string{
	"item_group", "billing_type", "goods_item",
	"rate", "loading_rate", "priority", "valid_from", "valid_to",
}

// RuleRepo implements rates.RuleSource over cs_rate_rules.
type RuleRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewRuleRepo creates a new rate rule repository.
func NewRuleRepo(txManager *postgres.TxManager) *RuleRepo {
	return &RuleRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ rates.RuleSource = (*RuleRepo)(nil)

// Rules returns the rate card in table order.
func (r *RuleRepo) Rules(ctx context.Context) ([]rates.Rule, error) {
	sql, args, err := r.selectQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rules := make([]rates.Rule, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rules, sql, args...); err != nil {
		return nil, fmt.Errorf("select rate rules: %w", err)
	}
	return rules, nil
}

func (r *RuleRepo) selectQuery() squirrel.SelectBuilder {
	return r.builder.Select(ruleColumns...).From(rulesTable).OrderBy("id")
}

// Replace swaps the whole rate card in one transaction.
func (r *RuleRepo) Replace(ctx context.Context, rules []rates.Rule) error {
	for i, rule := range rules {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i+1, err)
		}
	}

	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		querier := r.txManager.GetQuerier(ctx)
		if _, err := querier.Exec(ctx, "DELETE FROM "+rulesTable); err != nil {
			return fmt.Errorf("clear rate rules: %w", err)
		}
		if len(rules) == 0 {
			return nil
		}

		sql, args, err := r.insertQuery(rules).ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert rate rules: %w", err)
		}
		return nil
	})
}

func (r *RuleRepo) insertQuery(rules []rates.Rule) squirrel.InsertBuilder {
	q := r.builder.Insert(rulesTable).Columns(ruleColumns...)
	for _, rule := range rules {
		q = q.Values(
			rule.ItemGroup, rule.BillingType, rule.GoodsItem,
			rule.Rate, rule.LoadingRate, rule.Priority, rule.ValidFrom, rule.ValidTo,
		)
	}
	return q
}
