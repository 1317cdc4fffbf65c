package node

import (
	"math/rand"
	"time"
)

// timerFactory returns the channel the event loop waits on next to the event
// queue. A nil channel never fires.
type timerFactory func(time.Duration) <-chan time.Time

func fixedTimeout(d time.Duration) <-chan time.Time {
	if d <= 0 {
		return nil
	}
	return time.After(d)
}

// randomTimeout waits between d and 2d, so that nodes started together do not
// sweep in lockstep.
func randomTimeout(d time.Duration) <-chan time.Time {
	if d <= 0 {
		return nil
	}
	extra := time.Duration(rand.Int63()) % d
	return time.After(d + extra)
}
