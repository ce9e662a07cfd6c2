// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartExpiryScheduler closes expired OPEN bounties once a minute. The close
// is a status-guarded update, so a bounty resolved between scheduler ticks is
// never clobbered.
func (s *BountyService) StartExpiryScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			closed, err := s.Store.CloseExpired(context.Background(), time.Now())
			if err != nil {
				log.Printf("[Scheduler] failed to close expired bounties: %v", err)
				return
			}
			if closed > 0 {
				log.Printf("✅ Closed %d expired bounties", closed)
			}
		}),
	)
}
