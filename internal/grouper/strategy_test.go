package grouper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input    string
		expected Strategy
		wantErr  bool
	}{
		{"naive", StrategyNaive, false},
		{"max-add-mins", StrategyMaxAddMins, false},
		{" MINS-ADD-UP ", StrategyMinsAddUp, false},
		{"round-robin", StrategyNaive, true},
		{"", StrategyNaive, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s, err := ParseStrategy(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "naive, max-add-mins, mins-add-up")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s)
		})
	}
}

func TestStrategy_Properties(t *testing.T) {
	tests := []struct {
		strategy Strategy
		name     string
		valid    bool
		limited  bool
	}{
		{StrategyNaive, "naive", true, false},
		{StrategyMaxAddMins, "max-add-mins", true, true},
		{StrategyMinsAddUp, "mins-add-up", true, true},
		{Strategy(9), "unknown(9)", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.strategy.String())
			assert.Equal(t, tt.valid, tt.strategy.Valid())
			assert.Equal(t, tt.limited, tt.strategy.Limited())
		})
	}
}

func TestAllStrategies(t *testing.T) {
	all := AllStrategies()
	require.Len(t, all, 3)
	assert.Equal(t, StrategyNaive, all[0].Strategy)
	assert.Equal(t, StrategyMaxAddMins, all[1].Strategy)
	assert.Equal(t, StrategyMinsAddUp, all[2].Strategy)

	info, ok := GetStrategyInfo(StrategyMinsAddUp)
	require.True(t, ok)
	assert.NotEmpty(t, info.Description)

	_, ok = GetStrategyInfo(Strategy(-1))
	assert.False(t, ok)
}
