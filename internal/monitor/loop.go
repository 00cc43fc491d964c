package monitor

import (
	"context"
	"time"
)

// sampleLoop is one running sampling goroutine
type sampleLoop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// stop cancels the loop and waits for its goroutine to exit. A sample in
// progress finishes first, bounded by the sampler's read timeout.
func (l *sampleLoop) stop() {
	l.cancel()
	<-l.done
}

func (c *Controller) startLoop(interval time.Duration) *sampleLoop {
	ctx, cancel := context.WithCancel(context.Background())
	l := &sampleLoop{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(l.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sample()
			}
		}
	}()
	return l
}

// sample takes one snapshot and publishes it. Only one goroutine samples
// at a time: Start seeds before the loop exists, the loop owns it after.
func (c *Controller) sample() {
	start := time.Now()
	snap := c.sampler.Sample(context.Background())
	c.instruments.ObserveSample(time.Since(start))
	c.store.Publish(snap)
}
