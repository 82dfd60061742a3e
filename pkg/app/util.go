package app

import "time"

// nextCycleDelay aims each cycle at the next whole minute so the 00:01
// sun window trigger is observed exactly once.
func nextCycleDelay() time.Duration {
	now := time.Now()
	next := time.Date(
		now.Year(),
		now.Month(),
		now.Day(),
		now.Hour(),
		now.Minute()+1,
		0,
		0,
		now.Location(),
	)
	return time.Until(next)
}

func pointer[K any](val K) *K {
	return &val
}
