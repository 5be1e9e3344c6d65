package clock

import "time"

// Clock abstracts wall-clock time so schedulers and quota logic can be
// driven by a fake clock in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NewSystem returns a Clock backed by time.Now.
func NewSystem() Clock { return systemClock{} }
