// Package ratecard loads the storage rate card from a YAML file.
package ratecard

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"coldstore/internal/core/types"
	"coldstore/internal/domain/rates"
	"coldstore/pkg/logger"
)

const dateLayout = "2006-01-02"

// fileDTO is the on-disk shape. Money and dates stay strings so a typo
// fails loading instead of silently becoming zero.
type fileDTO struct {
	Rules []ruleDTO `yaml:"rules"`
}

type ruleDTO struct {
	ItemGroup   string `yaml:"item_group"`
	BillingType string `yaml:"billing_type"`
	GoodsItem   string `yaml:"goods_item"`
	Rate        string `yaml:"rate"`
	LoadingRate string `yaml:"loading_rate"`
	Priority    *int   `yaml:"priority"`
	ValidFrom   string `yaml:"valid_from"`
	ValidTo     string `yaml:"valid_to"`
}

// Parse decodes a rate card. Rules without an explicit priority get 10 when
// they name a goods item and 0 otherwise, so item-specific rules win.
func Parse(r io.Reader) ([]rates.Rule, error) {
	var file fileDTO
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode rate card: %w", err)
	}

	out := make([]rates.Rule, 0, len(file.Rules))
	for i, dto := range file.Rules {
		rule, err := dto.toRule()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		out = append(out, rule)
	}
	return out, nil
}

func (d ruleDTO) toRule() (rates.Rule, error) {
	rule := rates.Rule{
		ItemGroup:   d.ItemGroup,
		BillingType: rates.BillingType(d.BillingType),
		GoodsItem:   d.GoodsItem,
	}

	var err error
	if rule.Rate, err = parseMoney(d.Rate); err != nil {
		return rule, fmt.Errorf("rate: %w", err)
	}
	if rule.LoadingRate, err = parseMoney(d.LoadingRate); err != nil {
		return rule, fmt.Errorf("loading_rate: %w", err)
	}
	if rule.ValidFrom, err = parseDate(d.ValidFrom); err != nil {
		return rule, fmt.Errorf("valid_from: %w", err)
	}
	if rule.ValidTo, err = parseDate(d.ValidTo); err != nil {
		return rule, fmt.Errorf("valid_to: %w", err)
	}

	switch {
	case d.Priority != nil:
		rule.Priority = *d.Priority
	case d.GoodsItem != "":
		rule.Priority = 10
	}
	return rule, nil
}

func parseMoney(s string) (types.Money, error) {
	if s == "" {
		return types.Zero(), nil
	}
	return types.NewMoneyFromString(s)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadFile parses the rate card at path.
func LoadFile(path string) ([]rates.Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rate card: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Source serves rules read from a YAML file. Reload swaps the snapshot.
type Source struct {
	path string

	mu    sync.RWMutex
	rules []rates.Rule
}

// Open loads path and returns a Source for it.
func Open(ctx context.Context, path string) (*Source, error) {
	s := &Source{path: path}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the file. On error the previous snapshot stays.
func (s *Source) Reload(ctx context.Context) error {
	rules, err := LoadFile(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()

	logger.Info(ctx, "rate card loaded", "path", s.path, "rules", len(rules))
	return nil
}

// Rules implements rates.RuleSource.
func (s *Source) Rules(context.Context) ([]rates.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]rates.Rule, len(s.rules))
	copy(out, s.rules)
	return out, nil
}
