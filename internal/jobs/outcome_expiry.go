// File: internal/jobs/outcome_expiry.go
package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"shareaplate_backend/internal/config"
	"shareaplate_backend/internal/events"
	"shareaplate_backend/internal/listing"
)

// ExpiredListingSource pages through listings that expired unclaimed.
type ExpiredListingSource interface {
	FindExpiredAvailable(ctx context.Context, now time.Time, offset, limit int) ([]listing.FoodListing, error)
}

// ExpirationRecorder marks outcomes expired and reports which ones changed.
type ExpirationRecorder interface {
	RecordExpirations(ctx context.Context, listingIDs []uuid.UUID) ([]uuid.UUID, error)
}

// OutcomeExpiryJob records an expired outcome for every listing that passed
// its expiry date while still available.
type OutcomeExpiryJob struct {
	listings      ExpiredListingSource
	outcomes      ExpirationRecorder
	publisher     events.Publisher
	logger        *zap.Logger
	schedule      string
	batchSize     int
	cronScheduler *cron.Cron
	now           func() time.Time
}

// NewOutcomeExpiryJob creates a new OutcomeExpiryJob.
func NewOutcomeExpiryJob(
	listings ExpiredListingSource,
	outcomes ExpirationRecorder,
	publisher events.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) *OutcomeExpiryJob {
	scheduler := cron.New(
		cron.WithLogger(NewCronLogger(logger.Named("cron"))),
		cron.WithChain(cron.SkipIfStillRunning(NewCronLogger(logger.Named("cron")))),
	)
	batch := cfg.OutcomeExpiryBatchSize
	if batch <= 0 {
		batch = 500
	}
	return &OutcomeExpiryJob{
		listings:      listings,
		outcomes:      outcomes,
		publisher:     publisher,
		logger:        logger.Named("OutcomeExpiryJob"),
		schedule:      cfg.OutcomeExpiryJobSchedule,
		batchSize:     batch,
		cronScheduler: scheduler,
		now:           time.Now,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *OutcomeExpiryJob) SetupAndStart() error {
	if j.schedule == "" {
		j.logger.Warn("Outcome expiry job schedule not defined (OUTCOME_EXPIRY_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(j.schedule, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule outcome expiry job", zap.String("spec", j.schedule), zap.Error(err))
		return err
	}

	j.logger.Info("Outcome expiry job scheduled", zap.String("spec", j.schedule), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *OutcomeExpiryJob) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := j.RunOnce(ctx); err != nil {
		j.logger.Error("Outcome expiry job run failed", zap.Error(err))
	}
}

// RunOnce processes every expired, unclaimed listing and returns how many
// outcomes were newly marked expired.
func (j *OutcomeExpiryJob) RunOnce(ctx context.Context) (int, error) {
	j.logger.Info("Starting outcome expiry run...")
	now := j.now().UTC()
	marked, offset := 0, 0
	for {
		batch, err := j.listings.FindExpiredAvailable(ctx, now, offset, j.batchSize)
		if err != nil {
			return marked, err
		}
		if len(batch) == 0 {
			break
		}
		offset += len(batch)

		ids := make([]uuid.UUID, 0, len(batch))
		for i := range batch {
			ids = append(ids, batch[i].ID)
		}
		updated, err := j.outcomes.RecordExpirations(ctx, ids)
		marked += len(updated)
		for _, id := range updated {
			events.PublishBestEffort(ctx, j.publisher, j.logger, events.Event{
				Type:     events.TypeListingExpired,
				EntityID: id.String(),
			})
		}
		if err != nil {
			j.logger.Warn("Some outcomes could not be marked expired", zap.Error(err))
		}
		if len(batch) < j.batchSize {
			break
		}
	}
	j.logger.Info("Outcome expiry run completed", zap.Int("outcomes_expired", marked))
	return marked, nil
}

// Stop stops the scheduler, waiting up to 10 seconds for a running job.
func (j *OutcomeExpiryJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping outcome expiry job scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Outcome expiry job scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Outcome expiry job scheduler stop timed out.")
	}
}
