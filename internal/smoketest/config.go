// Package smoketest drives a running evaluations API end to end: it creates
// generated evaluations, verifies they read back through every surface and
// removes them again.
package smoketest

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL string        // Base URL of the service
	Count   int           // Number of evaluations to create
	Workers int           // Number of concurrent writers
	Timeout time.Duration // HTTP request timeout
	Seed    uint64        // Generator seed; 0 picks one from the clock
	Keep    bool          // Leave created evaluations in place
	Verbose bool          // Log every request outcome
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Created    int
	Throttled  int
	Failed     int
	Verified   int
	Mismatched int
	Deleted    int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
