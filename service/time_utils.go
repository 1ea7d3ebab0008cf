package service

import (
	"time"
)

// CooldownRemaining returns how long until a reward last granted at lastUnix
// becomes available again. Zero means it is available now.
func CooldownRemaining(lastUnix int64, now time.Time, interval time.Duration) time.Duration {
	if lastUnix == 0 {
		return 0
	}

	elapsed := now.Sub(time.Unix(lastUnix, 0))
	if elapsed >= interval {
		return 0
	}

	// Clock moved backwards since the last grant
	if elapsed < 0 {
		return interval
	}

	return interval - elapsed
}

// NextAvailableTime calculates when a reward can next be claimed
func NextAvailableTime(lastUnix int64, now time.Time, interval time.Duration) time.Time {
	return now.Add(CooldownRemaining(lastUnix, now, interval))
}
