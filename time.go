package auth

import "time"

// IsWithinThresholdPeriod reports whether t falls inside the window ending
// at now and spanning the parsed pattern, e.g. "1m" or "24h". The caller
// supplies now so clock-injected services stay deterministic.
func IsWithinThresholdPeriod(now, t time.Time, pattern string) (bool, error) {
	duration, err := time.ParseDuration(pattern)
	if err != nil {
		return false, err
	}

	return t.After(now.Add(-duration)), nil
}

// IsOutsideThresholdPeriod is the negation of IsWithinThresholdPeriod
func IsOutsideThresholdPeriod(now, t time.Time, pattern string) (bool, error) {
	within, err := IsWithinThresholdPeriod(now, t, pattern)
	if err != nil {
		return false, err
	}

	return !within, nil
}
