package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron           *cron.Cron
	otp            *OTPService
	bookings       *BookingService
	audit          *AuditService
	auditRetention time.Duration
	logger         logrus.FieldLogger
}

// NewCronService creates a new CronService
func NewCronService(otp *OTPService, bookings *BookingService, audit *AuditService, auditRetention time.Duration, logger logrus.FieldLogger) *CronService {
	return &CronService{
		cron:           cron.New(cron.WithSeconds()),
		otp:            otp,
		bookings:       bookings,
		audit:          audit,
		auditRetention: auditRetention,
		logger:         logger.WithField("component", "cron"),
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	s.logger.Info("Starting cron service...")

	// second minute hour day month weekday
	jobs := []struct {
		spec string
		name string
		fn   func()
	}{
		{"0 */10 * * * *", "Cleanup expired OTPs (every 10 minutes)", s.cleanupExpiredOTPsJob},
		{"0 5 * * * *", "Complete past bookings (hourly at :05)", s.completePastBookingsJob},
		{"0 0 3 * * *", "Purge old audit logs (daily at 3:00 AM)", s.purgeAuditLogsJob},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.fn); err != nil {
			return fmt.Errorf("failed to schedule %q: %w", job.name, err)
		}
		s.logger.WithField("spec", job.spec).Infof("✓ Scheduled: %s", job.name)
	}

	s.cron.Start()
	s.logger.Info("✓ Cron service started successfully")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("✓ Cron service stopped")
}

func (s *CronService) cleanupExpiredOTPsJob() {
	start := time.Now()
	deleted, err := s.otp.CleanupExpiredOTPs()
	if err != nil {
		s.logger.WithError(err).Error("Failed to cleanup expired OTPs")
		return
	}
	s.logger.WithFields(logrus.Fields{"deleted": deleted, "duration": time.Since(start)}).Info("Cleaned up expired OTPs")
}

func (s *CronService) completePastBookingsJob() {
	start := time.Now()
	completed, err := s.bookings.CompletePastBookings()
	if err != nil {
		s.logger.WithError(err).Error("Failed to complete past bookings")
		return
	}
	s.logger.WithFields(logrus.Fields{"completed": completed, "duration": time.Since(start)}).Info("Completed past bookings")
}

func (s *CronService) purgeAuditLogsJob() {
	start := time.Now()
	deleted, err := s.audit.CleanupOldAuditLogs(s.auditRetention)
	if err != nil {
		s.logger.WithError(err).Error("Failed to purge audit logs")
		return
	}
	s.logger.WithFields(logrus.Fields{"deleted": deleted, "duration": time.Since(start)}).Info("Purged old audit logs")
}

// RunCompletePastBookingsNow runs the completion job immediately
func (s *CronService) RunCompletePastBookingsNow() {
	s.logger.Info("[MANUAL] Running complete past bookings now...")
	s.completePastBookingsJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
