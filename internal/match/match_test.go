package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyWords(t *testing.T) {
	m := Default()
	assert.Equal(t, []string{"power", "tiller"}, m.KeyWords("Power Tiller 8 HP"))
	assert.Nil(t, m.KeyWords("Cow"))
	assert.Nil(t, m.KeyWords(""))
}

func TestRequired(t *testing.T) {
	m := Default()
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 2}, // 1.2 rounds up
		{3, 2}, // 1.8
		{4, 3}, // 2.4
		{5, 3}, // 3.0 exactly
		{10, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Required(tt.n), "n=%d", tt.n)
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name        string
		sanctioned  string
		description string
		want        bool
	}{
		{"single key word contained", "Tractor", "Agricultural Tractor", true},
		{"case insensitive", "TRACTOR", "agricultural tractor", true},
		{"bill word inside key word", "Sprayers", "Knapsack Sprayer", true},
		{"key word inside bill word", "Spray", "Sprayer unit", true},
		{"short words ignored", "Drip irrigation kit", "Drip irrigation", true},
		{"two of three key words", "Drip irrigation system", "Irrigation system pipes", true},
		{"one of three key words", "Drip irrigation system", "Water system", false},
		{"no overlap", "Tractor", "Water pump", false},
		{"name without key words matches anything", "Cow", "Murrah buffalo", true},
		{"name without key words matches empty", "Ox", "", true},
		{"empty description", "Tractor", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.sanctioned, tt.description))
		})
	}
}

func TestFind_FirstMatchWins(t *testing.T) {
	descs := []string{"Water pump", "Tractor trailer", "Agricultural Tractor"}
	i, ok := Find("Tractor", descs)
	assert.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestFind_NoKeyWordsTakesFirst(t *testing.T) {
	i, ok := Find("Cow", []string{"Murrah buffalo", "Jersey cow"})
	assert.True(t, ok)
	assert.Equal(t, 0, i)
}

func TestFind_NoMatch(t *testing.T) {
	i, ok := Find("Harvester", []string{"Water pump"})
	assert.False(t, ok)
	assert.Equal(t, -1, i)

	_, ok = Find("Harvester", nil)
	assert.False(t, ok)
}

func TestMatcher_CustomThreshold(t *testing.T) {
	strict := Matcher{ThresholdPercent: 100, MinKeyWordLen: 4}
	assert.False(t, strict.Matches("Drip irrigation system", "Irrigation system pipes"))
	assert.True(t, strict.Matches("Drip irrigation system", "Drip irrigation system"))
}
