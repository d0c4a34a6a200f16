package jobs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/straye-as/gallery/internal/config"
	"github.com/straye-as/gallery/internal/storage"
	"go.uber.org/zap"
)

// SASExpiryJobName is the name of the SAS token expiry watch
const SASExpiryJobName = "sas_expiry"

var sasTokenSecondsLeft = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "gallery_sas_token_seconds_left",
		Help: "Seconds until the configured SAS token expires (0 when expired or unknown)",
	},
)

// SASExpiryJob warns ahead of the SAS token expiring. Once the token
// expires every image URL the gallery builds stops resolving.
type SASExpiryJob struct {
	info       *storage.SASInfo
	warnWithin time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewSASExpiryJob creates the job for an inspected token. info may be nil.
func NewSASExpiryJob(info *storage.SASInfo, warnWithin time.Duration, logger *zap.Logger) *SASExpiryJob {
	return &SASExpiryJob{
		info:       info,
		warnWithin: warnWithin,
		logger:     logger,
		now:        time.Now,
	}
}

// Run checks the token once and returns its status
func (j *SASExpiryJob) Run() string {
	now := j.now()
	status := j.info.Status(now, j.warnWithin)
	left := j.info.TimeLeft(now)

	sasTokenSecondsLeft.Set(left.Seconds())

	switch status {
	case storage.SASStatusExpired:
		j.logger.Error("SAS token has expired, image URLs will fail",
			zap.Time("expired_at", j.info.Expiry))
	case storage.SASStatusExpiring:
		j.logger.Warn("SAS token expires soon",
			zap.Time("expires_at", j.info.Expiry),
			zap.Duration("time_left", left.Truncate(time.Minute)))
	case storage.SASStatusUnknown:
		j.logger.Warn("SAS token expiry is unknown")
	default:
		j.logger.Debug("SAS token is valid",
			zap.Time("expires_at", j.info.Expiry),
			zap.Duration("time_left", left.Truncate(time.Minute)))
	}

	return status
}

// RegisterSASExpiryJob checks the token immediately and then on cfg.SASExpiryCron.
// It does nothing when the job is disabled.
func RegisterSASExpiryJob(scheduler *Scheduler, cfg *config.JobsConfig, info *storage.SASInfo, logger *zap.Logger) error {
	if !cfg.SASExpiryEnabled {
		logger.Info("SAS expiry job disabled")
		return nil
	}

	job := NewSASExpiryJob(info, cfg.SASExpiryWarningDuration(), logger)
	job.Run()

	return scheduler.AddJob(SASExpiryJobName, cfg.SASExpiryCron, func() { job.Run() })
}
