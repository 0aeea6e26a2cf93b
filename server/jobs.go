// ABOUTME: Background jobs: periodic session cleanup and the daily free credit grant.
// ABOUTME: The grant is idempotent per calendar day, checked against the ledger before inserting.

package server

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/litai12/Tanva-sub008/store"
)

// dailyGrantReason is the ledger reason for the free daily credit grant.
const dailyGrantReason = "daily-grant"

// cleanupInterval is how often expired sessions are swept.
const cleanupInterval = 5 * time.Minute

// Jobs runs the server's background work: the session TTL sweep and the
// daily credit grant.
type Jobs struct {
	cron        *cron.Cron
	db          *store.Store
	sessions    *SessionStore
	dailyGrant  int
	logger      *log.Logger
	stopCleanup func()
}

// StartJobs launches the background jobs and returns a handle for stopping
// them. The daily grant also runs once at startup so a server that was down
// at midnight still grants for the current day.
func StartJobs(db *store.Store, sessions *SessionStore, dailyGrant int, logger *log.Logger) *Jobs {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	j := &Jobs{
		cron:       cron.New(),
		db:         db,
		sessions:   sessions,
		dailyGrant: dailyGrant,
		logger:     logger,
	}

	if dailyGrant > 0 {
		_, _ = j.cron.AddFunc("@midnight", j.grantDaily)
		j.grantDaily()
	}
	j.cron.Start()
	j.stopCleanup = sessions.StartCleanup(cleanupInterval)
	return j
}

// Stop halts the cron scheduler and the cleanup goroutine.
func (j *Jobs) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	if j.stopCleanup != nil {
		j.stopCleanup()
	}
}

// grantDaily adds the free daily credits unless they were already granted
// today.
func (j *Jobs) grantDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	granted, err := j.db.GrantedSince(ctx, dailyGrantReason, midnight)
	if err != nil {
		j.logger.Printf("daily grant: ledger check failed: %v", err)
		return
	}
	if granted {
		return
	}

	if err := j.db.Grant(ctx, dailyGrantReason, j.dailyGrant); err != nil {
		j.logger.Printf("daily grant: %v", err)
		return
	}
	j.logger.Printf("daily grant: added %d credits", j.dailyGrant)
}
