package grouper

import (
	"fmt"
	"strings"
)

// Strategy selects whether and how naive groups are rebalanced.
type Strategy int

const (
	// StrategyNaive returns the connected components unchanged.
	StrategyNaive Strategy = iota

	// StrategyMaxAddMins packs the smallest groups onto the largest ones
	// up to total/coreCount, then merges leftovers to fit coreCount.
	StrategyMaxAddMins

	// StrategyMinsAddUp repeatedly merges the two smallest groups until
	// coreCount groups remain.
	StrategyMinsAddUp
)

// StrategyInfo describes a strategy for help output and validation.
type StrategyInfo struct {
	Strategy    Strategy `json:"-"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Limited     bool     `json:"limited"` // Bounded by core count
}

var strategyRegistry = map[Strategy]*StrategyInfo{
	StrategyNaive: {
		Strategy:    StrategyNaive,
		Name:        "naive",
		Description: "One group per conflict component, no core limit",
	},
	StrategyMaxAddMins: {
		Strategy:    StrategyMaxAddMins,
		Name:        "max-add-mins",
		Description: "Pack smallest groups onto largest up to total/cores, then merge leftovers",
		Limited:     true,
	},
	StrategyMinsAddUp: {
		Strategy:    StrategyMinsAddUp,
		Name:        "mins-add-up",
		Description: "Merge the two smallest groups until the core count is reached",
		Limited:     true,
	},
}

// ParseStrategy parses a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, info := range AllStrategies() {
		if info.Name == name {
			return info.Strategy, nil
		}
	}
	return StrategyNaive, fmt.Errorf("unknown group strategy: %q (valid: %s)", s, ValidStrategies())
}

// GetStrategyInfo returns the metadata for a strategy.
func GetStrategyInfo(s Strategy) (*StrategyInfo, bool) {
	info, ok := strategyRegistry[s]
	return info, ok
}

// ValidStrategies returns a comma-separated list of strategy names.
func ValidStrategies() string {
	infos := AllStrategies()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return strings.Join(names, ", ")
}

// AllStrategies returns all registered strategies in declaration order.
func AllStrategies() []*StrategyInfo {
	order := []Strategy{StrategyNaive, StrategyMaxAddMins, StrategyMinsAddUp}
	result := make([]*StrategyInfo, 0, len(order))
	for _, s := range order {
		result = append(result, strategyRegistry[s])
	}
	return result
}

// String returns the strategy name.
func (s Strategy) String() string {
	if info, ok := strategyRegistry[s]; ok {
		return info.Name
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Valid reports whether s is a registered strategy.
func (s Strategy) Valid() bool {
	_, ok := strategyRegistry[s]
	return ok
}

// Limited reports whether s rebalances against a core count.
func (s Strategy) Limited() bool {
	info, ok := strategyRegistry[s]
	return ok && info.Limited
}
