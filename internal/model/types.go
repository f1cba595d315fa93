// Package model defines shared data structures.
package model

import "time"

// MergeConfig defines the settings of one consolidation run.
type MergeConfig struct {
	InputDir   string
	OutputPath string
	Pattern    string
	FilterDate string
	StartTime  string
	EndTime    string
	Workers    int
	Name       string
	Creator    string
	LinkHref   string
	LinkText   string
	Force      bool
	History    bool
	Verbose    bool
}

// SourceFailure records a source that contributed nothing to a run.
type SourceFailure struct {
	SourceID string
	Reason   string
}

// Report summarizes a consolidation run for the caller.
type Report struct {
	StartedAt         time.Time
	FinishedAt        time.Time
	OutputPath        string
	Filter            string
	Sources           int
	Tracks            int
	Waypoints         int
	Routes            int
	TracksExcluded    int
	WaypointsExcluded int
	BadTimestamps     int
	Failures          []SourceFailure
	Success           bool
}

// Loaded returns the number of sources that parsed successfully.
func (r Report) Loaded() int {
	return r.Sources - len(r.Failures)
}

// RunRecord is a persisted run as listed by the history store. Failure
// details are loaded separately; FailureCount is always set.
type RunRecord struct {
	ID           string
	Report       Report
	FailureCount int
}
