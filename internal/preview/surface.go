package preview

import (
	"tabsync/internal/registry"
	"tabsync/internal/sidebar"
	"tabsync/internal/types"
)

// pxPerColumn converts stylesheet pixels to terminal columns.
const pxPerColumn = 4

// Surface is the terminal stand-in for the sidebar document: it records
// the depth marker and the stylesheet the indent scheduler applies, and
// the row parts the dispatcher invalidates.
type Surface struct {
	columns      int
	maxTreeLevel int
	definition   string
	applied      int
	invalidated  map[types.TabID]sidebar.Part
}

func NewSurface(columns int) *Surface {
	return &Surface{
		columns:     columns,
		invalidated: map[types.TabID]sidebar.Part{},
	}
}

// Width is the sidebar width in stylesheet pixels.
func (s *Surface) Width() int {
	return s.columns * pxPerColumn
}

func (s *Surface) Columns() int {
	return s.columns
}

func (s *Surface) SetColumns(columns int) {
	s.columns = max(columns, 0)
}

func (s *Surface) SetMaxTreeLevel(level int) {
	s.maxTreeLevel = level
}

func (s *Surface) MaxTreeLevel() int {
	return s.maxTreeLevel
}

func (s *Surface) ApplyStylesheet(definition string) {
	s.definition = definition
	s.applied++
}

func (s *Surface) Stylesheet() string {
	return s.definition
}

// Applied counts stylesheet replacements.
func (s *Surface) Applied() int {
	return s.applied
}

func (s *Surface) Invalidate(tab *registry.Tab, parts sidebar.Part) {
	s.invalidated[tab.ID()] |= parts
}

// TakeInvalidated returns and clears the parts invalidated for id.
func (s *Surface) TakeInvalidated(id types.TabID) sidebar.Part {
	parts := s.invalidated[id]
	delete(s.invalidated, id)
	return parts
}
