package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
//
// Verbosity Levels:
//
//	0 (default) - Written files, errors with hints, check status
//	1 (-v)      - + Per-context progress, config sources
//	2 (-vv)     - + Preserved declarations, region warnings in detail
//	3 (-vvv)    - + Walker statistics (data types, endpoints, flows)
//	4 (-vvvv)   - + Full generated content dumps

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults    OutputCategory = iota // Files written, check result
	OutputErrors                           // Errors with hints
	OutputUserStatus                       // Final success/failure status

	// Level 1 (-v) - Informational
	OutputProgress // Per-context progress
	OutputConfig   // Config values loaded/applied

	// Level 2 (-vv) - Detailed
	OutputPreserved // Declarations kept from protected regions
	OutputRegions   // Region scanner details

	// Level 3 (-vvv) - Debug
	OutputWalkStats // Walker statistics

	// Level 4 (-vvvv) - Full dump
	OutputDataDump // Full generated content
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputUserStatus: VerbosityUser,

	OutputProgress: VerbosityInfo,
	OutputConfig:   VerbosityInfo,

	OutputPreserved: VerbosityDebug,
	OutputRegions:   VerbosityDebug,

	OutputWalkStats: VerbosityTrace,

	OutputDataDump: VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}
