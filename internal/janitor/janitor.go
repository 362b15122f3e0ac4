package janitor

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/corkboard-dev/corkboard/internal/models"
)

const (
	// DefaultInterval is how often the sweep runs.
	DefaultInterval = time.Hour
	// DefaultRetention is how long read notifications are kept.
	DefaultRetention = 30 * 24 * time.Hour
)

// Janitor periodically deletes read notifications that have aged out.
// Unread notifications are never touched.
type Janitor struct {
	db        *gorm.DB
	interval  time.Duration
	retention time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(db *gorm.DB, interval time.Duration, retention time.Duration) *Janitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if retention <= 0 {
		retention = DefaultRetention
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Janitor{
		db:        db,
		interval:  interval,
		retention: retention,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start runs an immediate sweep and then sweeps on the interval until Stop.
func (j *Janitor) Start() {
	log.WithField("interval", j.interval.String()).Info("Starting notification janitor")

	go func() {
		j.Sweep()

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-j.ctx.Done():
				return
			case <-ticker.C:
				j.Sweep()
			}
		}
	}()
}

// Stop cancels the sweep loop.
func (j *Janitor) Stop() {
	j.cancel()
	log.Info("Notification janitor stopped")
}

// Sweep deletes read notifications older than the retention window and
// returns how many rows went away.
func (j *Janitor) Sweep() int64 {
	cutoff := time.Now().Add(-j.retention)

	result := j.db.
		Where("read_at IS NOT NULL AND read_at < ?", cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		log.WithError(result.Error).Error("Failed to prune notifications")
		return 0
	}

	if result.RowsAffected > 0 {
		log.WithField("pruned", result.RowsAffected).Info("Pruned read notifications")
	}

	return result.RowsAffected
}
