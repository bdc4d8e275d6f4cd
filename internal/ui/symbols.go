package ui

// Status symbols shared by listings, pickers and summaries.
const (
	SymbolSuccess = "✓"
	SymbolFail    = "✗"
	SymbolSkipped = "⊘"
	SymbolWarning = "!"
	SymbolOnline  = "●"
	SymbolOffline = "○"
)

// OnlineSymbol returns the marker for a device's reachability.
func OnlineSymbol(online bool) string {
	if online {
		return SymbolOnline
	}
	return SymbolOffline
}
