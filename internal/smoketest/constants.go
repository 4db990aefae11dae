package smoketest

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Retry configuration for throttled writes.
const (
	maxAttempts     = 4
	throttleBackoff = 250 * time.Millisecond
)

// PercentageMultiplier converts ratios for reporting.
const PercentageMultiplier = 100
