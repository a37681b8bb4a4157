// workers/snapshot_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"leaderboard-service/services"
)

// StartSnapshotScheduler runs the daily snapshot job at the configured UTC
// hour. The job is the only scheduled trigger in the service; everything else
// is invoked explicitly through the API.
func StartSnapshotScheduler(ctx context.Context, snapshots *services.SnapshotService, hourUTC int) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		log.Printf("[Scheduler] failed to create scheduler: %v", err)
		return
	}

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hourUTC), 0, 0))),
		gocron.NewTask(func() {
			runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			defer cancel()
			day := time.Now().UTC()
			rows, err := snapshots.Run(runCtx, day)
			if err != nil {
				log.Printf("[Scheduler] ❌ daily snapshot failed: %v", err)
				return
			}
			log.Printf("[Scheduler] ✅ daily snapshot complete: %d row(s) for %s", rows, day.Format("2006-01-02"))
		}),
	)
	if err != nil {
		log.Printf("[Scheduler] failed to register snapshot job: %v", err)
		return
	}

	sched.Start()
	log.Printf("[Scheduler] daily snapshot job registered for %02d:00 UTC", hourUTC)

	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			log.Printf("[Scheduler] shutdown error: %v", err)
		}
	}()
}
