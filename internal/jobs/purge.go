// Package jobs runs the background maintenance of the till.
package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Purger drops idle wizard sessions. *services.WizardSessions implements it.
type Purger interface {
	Purge(ttl time.Duration) int
}

// Scheduler wraps the cron runner.
type Scheduler struct {
	c *cron.Cron
}

// PurgeSessions returns the job body: purge then log what went.
func PurgeSessions(p Purger, ttl time.Duration) func() {
	return func() {
		if n := p.Purge(ttl); n > 0 {
			log.Printf("Purged %d idle wizard session(s)", n)
		}
	}
}

// NewScheduler registers the session purge on spec, a cron expression or
// descriptor such as "@every 10m".
func NewScheduler(spec string, p Purger, ttl time.Duration) (*Scheduler, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, PurgeSessions(p, ttl)); err != nil {
		return nil, fmt.Errorf("schedule session purge %q: %w", spec, err)
	}
	return &Scheduler{c: c}, nil
}

func (s *Scheduler) Start() {
	s.c.Start()
	log.Println("Session purge scheduler started")
}

// Stop waits for a running purge to finish.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}
