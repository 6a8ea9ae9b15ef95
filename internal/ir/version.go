package ir

// Version constants for IR schema and tool.
const (
	// IRVersion is the IR schema version.
	IRVersion = "1"

	// ToolVersion is the wlgen release version recorded in the ledger.
	ToolVersion = "0.1.0"
)
