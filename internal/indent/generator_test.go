package indent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleParams = Params{BaseIndent: 20, MinIndent: 10, MaxTreeLevel: -1}

func TestUnitFor(t *testing.T) {
	cases := []struct {
		name      string
		maxLevel  int
		maxIndent float64
		params    Params
		want      int
	}{
		{"fits base", 3, 66, sampleParams, 20},
		{"shrinks to width", 3, 45, Params{BaseIndent: 20, MinIndent: 5, MaxTreeLevel: -1}, 15},
		{"configured minimum", 6, 30, sampleParams, 10},
		{"default minimum wins", 3, 6, Params{BaseIndent: 20, MinIndent: 1, MaxTreeLevel: -1}, DefaultMinIndent},
		{"no depth", 0, 0, sampleParams, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, UnitFor(tc.maxLevel, tc.maxIndent, tc.params))
		})
	}
}

func TestIndentForCapsDeepLevels(t *testing.T) {
	unit := UnitFor(3, 66, sampleParams)
	require.Equal(t, 20, unit)
	assert.Equal(t, 20, IndentFor(1, unit, sampleParams))
	assert.Equal(t, 40, IndentFor(2, unit, sampleParams))
	assert.Equal(t, 60, IndentFor(3, unit, sampleParams))

	capped := Params{BaseIndent: 20, MinIndent: 10, MaxTreeLevel: 2}
	assert.Equal(t, 40, IndentFor(3, unit, capped))
	assert.Equal(t, 40, IndentFor(8, unit, capped))
}

func TestGenerateOutput(t *testing.T) {
	const base = `.tab:not(.pinned):not(.collapsed-completely)[data-level]`
	want := strings.Join([]string{
		":root[data-max-tree-level=\"0\"]:not(.initializing)  {\n    --indent-size: 20px;\n  }",
		":root[data-max-tree-level=\"1\"]:not(.initializing)  {\n    --indent-size: 20px;\n  }",
		`:root[data-max-tree-level="0"]:not(.initializing) ` + base + `:not([data-level="0"]) { --tab-indent: 20px; }`,
		`:root[data-max-tree-level="1"]:not(.initializing) ` + base + `:not([data-level="0"]) { --tab-indent: 40px; }`,
		`:root[data-max-tree-level="1"]:not(.initializing) ` + base + `[data-level="1"] { --tab-indent: 20px; }`,
	}, "\n")

	assert.Equal(t, want, Generate(1, 66, sampleParams))
}

func TestGenerateGroupsSelectorsByIndent(t *testing.T) {
	out := Generate(3, 66, sampleParams)

	assert.Contains(t, out, `:root[data-max-tree-level="3"]:not(.initializing) .tab:not(.pinned):not(.collapsed-completely)[data-level][data-level="3"] { --tab-indent: 60px; }`)
	assert.Contains(t, out, "[data-level=\"1\"],\n:root[data-max-tree-level=\"3\"]")
	assert.NotContains(t, out, "NaN")
	assert.Empty(t, Generate(-1, 66, sampleParams))
}

func TestGenerateFromCacheParamsIsIdempotent(t *testing.T) {
	fresh := NewStylesheet(sampleParams)
	require.True(t, fresh.Update(3, 200*0.33, false))
	cache := fresh.Cache()
	assert.Equal(t, 8, cache.LastMaxLevel)

	restored := NewStylesheet(sampleParams)
	restored.Restore(Cache{LastMaxLevel: cache.LastMaxLevel, LastMaxIndent: cache.LastMaxIndent})
	assert.Equal(t, fresh.Definition(), restored.Definition())
	assert.Equal(t, cache, restored.Cache())
}

func TestRestoreUsesDefinitionVerbatim(t *testing.T) {
	sheet := NewStylesheet(sampleParams)
	cache := Cache{LastMaxLevel: 7, LastMaxIndent: 50, Definition: ".cached { --tab-indent: 1px; }"}

	sheet.Restore(cache)

	assert.Equal(t, cache, sheet.Cache())
	assert.False(t, sheet.Update(7, 50, false), "restored parameters cover the same depth and width")
}

func TestStylesheetUpdateRules(t *testing.T) {
	sheet := NewStylesheet(sampleParams)
	assert.Equal(t, Cache{LastMaxLevel: -1, LastMaxIndent: -1}, sheet.Cache())

	require.True(t, sheet.Update(2, 66, false))
	first := sheet.Definition()
	assert.False(t, sheet.Update(2, 66, false))
	assert.False(t, sheet.Update(7, 66, false), "headroom covers deeper levels")
	assert.Equal(t, first, sheet.Definition())

	assert.True(t, sheet.Update(8, 66, false))
	assert.True(t, sheet.Update(1, 70, false), "width change rebuilds")
	assert.True(t, sheet.Update(1, 70, true))
	assert.Equal(t, 6, sheet.Cache().LastMaxLevel)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(Generate(4, 66, sampleParams)))

	for name, definition := range map[string]string{
		"empty":       "  ",
		"declaration": ".tab { color: red; }",
		"at rule":     `@import url("x.css");`,
		"foreign var": ".tab { --other: 1px; }",
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(definition), ErrInvalidDefinition)
		})
	}
}
