package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fambudget/budget-server-go/internal/repository"
)

// CleanupJob periodically deletes expired refresh sessions and revoked
// sessions past their retention. Expired sessions are already rejected
// on lookup; this just keeps the table from growing without bound.
type CleanupJob struct {
	sessionRepo repository.RefreshSessionRepository
	interval    time.Duration
	done        chan struct{}
}

func NewCleanupJob(sessionRepo repository.RefreshSessionRepository, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		sessionRepo: sessionRepo,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup refresh sessions")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up refresh sessions")
	}
}
