package clock

import "time"

// Clock abstracts time so services and tests share the same source.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (c *SystemClock) Now() time.Time {
	return time.Now().UTC()
}
