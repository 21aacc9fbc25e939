package engine

import (
	"context"
	"log"
	"time"
)

// ExpiredSweeper marks overdue ACTIVE reservations EXPIRED in the
// durable store.  It returns the number of rows transitioned.
type ExpiredSweeper interface {
	ExpireDue(ctx context.Context) (int64, error)
}

// Janitor periodically reconciles the audit trail with lock expiry.
// Locks vanish from the lock store on their own; the matching
// reservation rows would otherwise read ACTIVE forever.  The sweep is
// an optimization only — Confirm lazily expires overdue rows on read,
// so correctness never depends on the janitor running.
type Janitor struct {
	sweeper  ExpiredSweeper
	interval time.Duration
}

// NewJanitor builds a sweeper loop.  A non-positive interval defaults
// to one minute.
func NewJanitor(sweeper ExpiredSweeper, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{sweeper: sweeper, interval: interval}
}

// Run sweeps until ctx is cancelled.  Intended to be launched in its
// own goroutine from main.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	log.Printf("janitor: sweeping expired reservations every %s", j.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("janitor: stopped")
			return
		case <-ticker.C:
			n, err := j.sweeper.ExpireDue(ctx)
			if err != nil {
				log.Printf("janitor: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("janitor: expired %d overdue reservations", n)
			}
		}
	}
}
