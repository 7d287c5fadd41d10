package repository

import (
	"errors"
	"time"

	"github.com/sevans717/aphila-sub007/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateJob(job *models.NotificationJob) error {
	return r.db.Create(job).Error
}

// ClaimPending moves up to limit pending jobs into processing and returns
// them in enqueue order. Rows are locked with SKIP LOCKED so concurrent
// workers never claim the same job, and a job is held back while an earlier
// job for the same user is still unfinished, which keeps a user's events
// arriving at each device in enqueue order. Topic jobs carry no user and are
// never held back.
func (r *NotificationRepository) ClaimPending(limit int) ([]models.NotificationJob, error) {
	var jobs []models.NotificationJob
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", models.JobPending).
			Where("user_id IS NULL OR NOT EXISTS ("+
				"SELECT 1 FROM notification_jobs prior "+
				"WHERE prior.user_id = notification_jobs.user_id "+
				"AND prior.id < notification_jobs.id "+
				"AND prior.status <> ?)", models.JobDone).
			Order("id ASC").
			Limit(limit).
			Find(&jobs).Error; err != nil {
			return err
		}
		if len(jobs) == 0 {
			return nil
		}
		ids := make([]uint, 0, len(jobs))
		for i := range jobs {
			ids = append(ids, jobs[i].ID)
			jobs[i].Status = models.JobProcessing
		}
		return tx.Model(&models.NotificationJob{}).
			Where("id IN ?", ids).
			Update("status", models.JobProcessing).Error
	})
	return jobs, err
}

// ReclaimStale flips processing jobs that stopped making progress back to
// pending so a later claim re-runs them. A job is stale when its last update
// is older than the cutoff and no delivery attempt is scheduled against it,
// which is the footprint a crashed worker leaves behind. Deliveries with a
// next_retry stay with the retry loop instead.
func (r *NotificationRepository) ReclaimStale(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := r.db.Model(&models.NotificationJob{}).
		Where("status = ? AND updated_at < ?", models.JobProcessing, cutoff).
		Where("NOT EXISTS ("+
			"SELECT 1 FROM notification_deliveries d "+
			"WHERE d.job_id = notification_jobs.id "+
			"AND d.delivered = ? AND d.gave_up = ? AND d.next_retry IS NOT NULL)",
			false, false).
		Update("status", models.JobPending)
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) MarkJobDone(jobID uint) error {
	return r.db.Model(&models.NotificationJob{}).
		Where("id = ?", jobID).
		Update("status", models.JobDone).Error
}

func (r *NotificationRepository) JobByID(jobID uint) (*models.NotificationJob, error) {
	var job models.NotificationJob
	err := r.db.First(&job, jobID).Error
	return &job, err
}

// EnsureDelivery returns the per-(job, device) outcome row, creating it on
// first touch. The unique index absorbs concurrent creates.
func (r *NotificationRepository) EnsureDelivery(jobID, deviceID uint) (*models.NotificationDelivery, error) {
	delivery := &models.NotificationDelivery{JobID: jobID, DeviceID: deviceID}
	err := r.db.Create(delivery).Error
	if err == nil {
		return delivery, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		var existing models.NotificationDelivery
		findErr := r.db.Where("job_id = ? AND device_id = ?", jobID, deviceID).First(&existing).Error
		if findErr != nil {
			return nil, findErr
		}
		return &existing, nil
	}
	return nil, err
}

// DueDeliveries returns open deliveries whose next_retry has passed, oldest
// job first.
func (r *NotificationRepository) DueDeliveries(now time.Time, limit int) ([]models.NotificationDelivery, error) {
	var deliveries []models.NotificationDelivery
	err := r.db.Where("delivered = ? AND gave_up = ? AND next_retry IS NOT NULL AND next_retry <= ?",
		false, false, now).
		Order("next_retry ASC").
		Limit(limit).
		Find(&deliveries).Error
	return deliveries, err
}

func (r *NotificationRepository) MarkDelivered(deliveryID uint) error {
	now := time.Now()
	return r.db.Model(&models.NotificationDelivery{}).
		Where("id = ?", deliveryID).
		Updates(map[string]interface{}{
			"delivered":    true,
			"last_attempt": &now,
			"next_retry":   nil,
		}).Error
}

func (r *NotificationRepository) MarkAttempted(deliveryID uint, attempts int, nextRetry *time.Time, lastError string) error {
	now := time.Now()
	return r.db.Model(&models.NotificationDelivery{}).
		Where("id = ?", deliveryID).
		Updates(map[string]interface{}{
			"attempts":     attempts,
			"last_attempt": &now,
			"next_retry":   nextRetry,
			"last_error":   lastError,
		}).Error
}

func (r *NotificationRepository) MarkGaveUp(deliveryID uint, lastError string) error {
	now := time.Now()
	return r.db.Model(&models.NotificationDelivery{}).
		Where("id = ?", deliveryID).
		Updates(map[string]interface{}{
			"gave_up":      true,
			"last_attempt": &now,
			"next_retry":   nil,
			"last_error":   lastError,
		}).Error
}

func (r *NotificationRepository) OpenDeliveryCount(jobID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.NotificationDelivery{}).
		Where("job_id = ? AND delivered = ? AND gave_up = ?", jobID, false, false).
		Count(&count).Error
	return count, err
}

// CleanupOld prunes finished jobs and their delivery outcomes.
func (r *NotificationRepository) CleanupOld(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	return r.db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.NotificationJob{}).
			Where("status = ? AND updated_at < ?", models.JobDone, cutoff).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("job_id IN ?", ids).Delete(&models.NotificationDelivery{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.NotificationJob{}, ids).Error
	})
}
