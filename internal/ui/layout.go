package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutFormLabelWidth is the width reserved for form labels.
	LayoutFormLabelWidth = 18
)

// Output and log display limits.
const (
	// OutputBufferLimit is the maximum number of job output lines kept in memory.
	OutputBufferLimit = 5000

	// LogFetchLimit is the maximum number of application log lines read per refresh.
	LogFetchLimit = 2000

	// maxEventsPerUpdate bounds how many buffered controller events one
	// Update applies before yielding to keys and redraws.
	maxEventsPerUpdate = 512
)

// Timing constants.
const (
	// DefaultUIInterval is the refresh interval for the header and log view.
	DefaultUIInterval = time.Second

	// OutputFrameInterval is the shortest gap between output redraws while
	// a job streams.
	OutputFrameInterval = 50 * time.Millisecond
)

// Website is opened by the website shortcut.
const Website = "https://divis.io"
