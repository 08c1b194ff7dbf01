package config

import (
	"fmt"
	"strconv"
)

// InvalidEnv returns a string indicating invalid environment variables
// or config file values, suitable for logging.
func InvalidEnv(name string, val string) string {
	return fmt.Sprintf("invalid config value, discarded - %s: %q", name, val)
}

// IsValidInterval checks that a cadence (in seconds) is strictly positive.
func IsValidInterval(seconds int) bool {
	return seconds > 0
}

// ToInteger converts a string to an integer, defaulting to 0 on failure.
func ToInteger(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
