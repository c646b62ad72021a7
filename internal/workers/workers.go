// Package workers runs periodic background jobs until their context ends.
package workers

import (
	"context"
	"log"
	"time"
)

// Every calls fn each interval until ctx is cancelled. Errors are logged and
// the loop keeps going. fn receives a context bounded by the interval.
func Every(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context) error) {
	if interval <= 0 {
		log.Printf("Worker %s: disabled (interval %s)", name, interval)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Worker %s: started, every %s", name, interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("Worker %s: stopped", name)
			return
		case <-ticker.C:
			runOnce(ctx, name, interval, fn)
		}
	}
}

func runOnce(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context) error) {
	jobCtx, cancel := context.WithTimeout(ctx, interval)
	defer cancel()

	if err := fn(jobCtx); err != nil {
		log.Printf("Worker %s: run failed: %v", name, err)
	}
}
