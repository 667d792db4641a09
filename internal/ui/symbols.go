package ui

// Result symbols. Kept in step with the dashboard's history glyphs.
const (
	SymbolSuccess = "✓"
	SymbolFail    = "✗"
)
