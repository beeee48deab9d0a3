// Package orchestrator wires the capture, dispatch and control loops
package orchestrator

// Orchestrator configuration constants
const (
	// History event buffer for the mirror
	HistoryEventBuffer = 100

	// Default history size when the server section leaves it unset
	DefaultHistorySize = 200
)
