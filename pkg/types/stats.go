package types

// MutexStats defines blocking mutex statistics
type MutexStats struct {
	// Acquisitions is the number of successful acquisitions
	Acquisitions int64
	// Contended is the number of acquisitions that had to wait at least once
	Contended int64
	// Wakeups is the number of times a blocked caller woke up to re-check
	// the flag, whether or not it then got the mutex
	Wakeups int64
	// Waiting is the number of callers currently blocked in acquire
	Waiting int
	// Occupied reports whether the mutex is held right now
	Occupied bool
}

// ContentionRate returns the share of acquisitions that had to wait
func (s MutexStats) ContentionRate() float64 {
	if s.Acquisitions == 0 {
		return 0
	}
	return float64(s.Contended) / float64(s.Acquisitions)
}

// PlantCounters holds the two monotonic plant counters
type PlantCounters struct {
	Provided  int64
	Processed int64
}

// Bottles returns the number of full bottles for the given ratio
func (c PlantCounters) Bottles(perBottle int) int64 {
	if perBottle <= 0 {
		return 0
	}
	return c.Processed / int64(perBottle)
}

// Wasted returns the processed items left over after filling bottles
func (c PlantCounters) Wasted(perBottle int) int64 {
	if perBottle <= 0 {
		return c.Processed
	}
	return c.Processed % int64(perBottle)
}
