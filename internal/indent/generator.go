// Package indent keeps the sidebar's nesting depth marker and the generated
// indentation stylesheet in sync with the tab tree.
package indent

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"tabsync/internal/types"
)

const (
	// DefaultMinIndent is the floor applied to any configured minimum.
	DefaultMinIndent = 3

	MaxTreeLevelAttr = "data-max-tree-level"
	LevelAttr        = "data-level"

	indentSizeProperty = "--indent-size"
	tabIndentProperty  = "--tab-indent"
)

var ErrInvalidDefinition = errors.New("invalid indent definition")

// Params are the configuration inputs of the generator.
type Params struct {
	BaseIndent int
	MinIndent  int
	// MaxTreeLevel caps the rendered depth; negative means unlimited.
	MaxTreeLevel int
}

// Cache is the serialized state of a generated stylesheet.
type Cache struct {
	LastMaxLevel  int     `json:"lastMaxLevel"`
	LastMaxIndent float64 `json:"lastMaxIndent"`
	Definition    string  `json:"definition"`
}

func (p Params) levelCap() int {
	if p.MaxTreeLevel < 0 {
		return math.MaxInt
	}
	return p.MaxTreeLevel
}

// UnitFor returns the pixel width of one nesting level when the deepest
// rendered level is maxLevel and maxIndent pixels are available.
func UnitFor(maxLevel int, maxIndent float64, p Params) int {
	minIndent := max(DefaultMinIndent, p.MinIndent)
	if maxLevel <= 0 {
		return p.BaseIndent
	}
	fit := int(math.Floor(maxIndent / float64(maxLevel)))
	return min(p.BaseIndent, max(fit, minIndent))
}

func IndentFor(level, unit int, p Params) int {
	return min(level, p.levelCap()) * unit
}

// Generate builds the stylesheet for every max-level context from 0 up to
// lastMaxLevel. The output only depends on its arguments.
func Generate(lastMaxLevel int, maxIndent float64, p Params) string {
	exact := map[int][]string{}
	fallback := map[int][]string{}
	units := make([]string, 0, max(lastMaxLevel+1, 0))

	for maxLevel := 0; maxLevel <= lastMaxLevel; maxLevel++ {
		unit := UnitFor(maxLevel, maxIndent, p)
		scope := fmt.Sprintf(`:root[%s="%d"]:not(.initializing)`, MaxTreeLevelAttr, maxLevel)
		base := fmt.Sprintf("%s .tab:not(.%s):not(.%s)[%s]",
			scope,
			types.TabStatePinned.ClassName(),
			types.TabStateCollapsedDone.ClassName(),
			LevelAttr)

		units = append(units, fmt.Sprintf("%s  {\n    %s: %dpx;\n  }", scope, indentSizeProperty, unit))

		deep := IndentFor(maxLevel+1, unit, p)
		fallback[deep] = append(fallback[deep], fmt.Sprintf(`%s:not([%s="0"])`, base, LevelAttr))

		for level := 1; level <= maxLevel; level++ {
			indent := IndentFor(level, unit, p)
			exact[indent] = append(exact[indent], fmt.Sprintf(`%s[%s="%d"]`, base, LevelAttr, level))
		}
	}

	lines := units
	for _, set := range []map[int][]string{fallback, exact} {
		for _, indent := range sortedKeys(set) {
			lines = append(lines, fmt.Sprintf("%s { %s: %dpx; }", strings.Join(set[indent], ",\n"), tabIndentProperty, indent))
		}
	}
	return strings.Join(lines, "\n")
}

func sortedKeys(set map[int][]string) []int {
	keys := make([]int, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	return keys
}

// Validate checks that definition is a well-formed stylesheet made only of
// indentation rules.
func Validate(definition string) error {
	if strings.TrimSpace(definition) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidDefinition)
	}
	parser := css.NewParser(parse.NewInput(strings.NewReader(definition)), false)
	depth := 0
	rules := 0
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
			}
			if depth != 0 {
				return fmt.Errorf("%w: unterminated rule", ErrInvalidDefinition)
			}
			if rules == 0 {
				return fmt.Errorf("%w: no rules", ErrInvalidDefinition)
			}
			return nil
		case css.BeginRulesetGrammar:
			depth++
			rules++
		case css.EndRulesetGrammar:
			depth--
		case css.CustomPropertyGrammar:
			name := string(data)
			if name != indentSizeProperty && name != tabIndentProperty {
				return fmt.Errorf("%w: unexpected property %s", ErrInvalidDefinition, name)
			}
		case css.DeclarationGrammar:
			return fmt.Errorf("%w: unexpected property %s", ErrInvalidDefinition, data)
		case css.AtRuleGrammar, css.BeginAtRuleGrammar, css.QualifiedRuleGrammar:
			return fmt.Errorf("%w: unexpected %s", ErrInvalidDefinition, strconv.Quote(string(data)))
		}
	}
}
