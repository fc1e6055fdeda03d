/**
 * @description
 * Cron-driven background refresh of the dashboard collections. Local copies
 * are never authoritative, so a periodic wholesale reload keeps long-lived
 * console sessions from drifting too far from the backend between explicit
 * mutations.
 *
 * @dependencies
 * - github.com/robfig/cron/v3: Cron scheduling with panic recovery.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher periodically reloads all dashboard collections.
type Refresher struct {
	cron      *cron.Cron
	dashboard *Dashboard
	schedule  string
}

// NewRefresher creates a refresher for the dashboard on the given cron
// schedule (e.g. "@every 5m").
func NewRefresher(dashboard *Dashboard, schedule string) *Refresher {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	return &Refresher{
		cron:      c,
		dashboard: dashboard,
		schedule:  schedule,
	}
}

// Start registers the refresh job and starts the scheduler.
func (r *Refresher) Start() error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		r.dashboard.Load(ctx)
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	log.Printf("level=info component=refresher msg=\"dashboard refresh scheduled\" schedule=%q", r.schedule)
	return nil
}

// Stop gracefully stops the scheduler; the returned context is done once any
// running refresh has finished.
func (r *Refresher) Stop() context.Context {
	return r.cron.Stop()
}
