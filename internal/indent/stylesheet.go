package indent

// Stylesheet holds the current indentation stylesheet together with the
// parameters it was generated from.
type Stylesheet struct {
	params        Params
	lastMaxLevel  int
	lastMaxIndent float64
	definition    string
}

func NewStylesheet(params Params) *Stylesheet {
	return &Stylesheet{
		params:        params,
		lastMaxLevel:  -1,
		lastMaxIndent: -1,
	}
}

// contextHeadroom is how many levels beyond the current maximum get rules
// up front, so small depth increases do not need a rebuild.
const contextHeadroom = 5

// Update regenerates the stylesheet unless the current one already covers
// maxLevel at the same width. It reports whether the definition was
// rebuilt.
func (s *Stylesheet) Update(maxLevel int, maxIndent float64, force bool) bool {
	if s == nil {
		return false
	}
	if maxLevel <= s.lastMaxLevel && maxIndent == s.lastMaxIndent && !force {
		return false
	}
	nextLevel := maxLevel + contextHeadroom
	s.definition = Generate(nextLevel, maxIndent, s.params)
	s.lastMaxLevel = nextLevel
	s.lastMaxIndent = maxIndent
	return true
}

// Restore adopts a cached stylesheet. A cache without definition text is
// regenerated from its parameters. The cache is trusted as is.
func (s *Stylesheet) Restore(cache Cache) {
	if s == nil {
		return
	}
	definition := cache.Definition
	if definition == "" {
		definition = Generate(cache.LastMaxLevel, cache.LastMaxIndent, s.params)
	}
	s.definition = definition
	s.lastMaxLevel = cache.LastMaxLevel
	s.lastMaxIndent = cache.LastMaxIndent
}

func (s *Stylesheet) Cache() Cache {
	if s == nil {
		return Cache{LastMaxLevel: -1, LastMaxIndent: -1}
	}
	return Cache{
		LastMaxLevel:  s.lastMaxLevel,
		LastMaxIndent: s.lastMaxIndent,
		Definition:    s.definition,
	}
}

func (s *Stylesheet) Definition() string {
	if s == nil {
		return ""
	}
	return s.definition
}

func (s *Stylesheet) SetParams(params Params) {
	if s == nil {
		return
	}
	s.params = params
}
