package services

import (
	"context"
	"log"
	"time"

	"hospital-directory/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// PurgeSchedule runs the expired-code purge at minute 0 of every hour
const PurgeSchedule = "0 * * * *"

// CronService runs background housekeeping jobs
type CronService struct {
	userRepo repositories.UserRepository
	cron     *cron.Cron
	now      func() time.Time
}

// NewCronService creates a new cron service
func NewCronService(userRepo repositories.UserRepository) *CronService {
	return &CronService{
		userRepo: userRepo,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	_, err := s.cron.AddFunc(PurgeSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.PurgeExpiredCodes(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("⏰ Cron started: purge expired codes [%s]", PurgeSchedule)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("⏰ Cron stopped")
}

// PurgeExpiredCodes clears password reset and verification codes past their expiry
func (s *CronService) PurgeExpiredCodes(ctx context.Context) int64 {
	n, err := s.userRepo.ClearExpiredCodes(ctx, s.now())
	if err != nil {
		log.Printf("❌ Failed to purge expired codes: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("🧹 Purged %d expired codes", n)
	}
	return n
}
