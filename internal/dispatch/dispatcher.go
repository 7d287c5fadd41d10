package dispatch

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sevans717/aphila-sub007/internal/models"
	"github.com/sevans717/aphila-sub007/internal/repository"
)

// PushSender delivers one payload to one device endpoint.
type PushSender interface {
	Send(device *models.Device, payload []byte) error
}

// Config tunes the worker pool and retry policy.
type Config struct {
	Workers        int
	MaxAttempts    int
	BaseRetryDelay time.Duration
	PollInterval   time.Duration
	ReclaimAfter   time.Duration
	CleanupAfter   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:        4,
		MaxAttempts:    5,
		BaseRetryDelay: 2 * time.Second,
		PollInterval:   5 * time.Second,
		ReclaimAfter:   time.Minute,
		CleanupAfter:   24 * time.Hour,
	}
}

// envelope is the wire payload handed to the push sender. Template
// rendering happens downstream; the core only forwards structured data.
type envelope struct {
	Kind    string                 `json:"kind"`
	TraceID string                 `json:"trace_id"`
	Data    map[string]interface{} `json:"data"`
}

// Dispatcher fans queued events out to every active device of the target
// user (direct jobs) or topic subscribers (broadcast jobs). Jobs are durable;
// delivery is at-least-once with exponential backoff per device, and a device
// that exhausts the attempt cap is deactivated rather than deleted. A job
// with zero active targets completes as a no-op success.
type Dispatcher struct {
	repo    repository.NotificationRepositoryInterface
	devices repository.DeviceRepositoryInterface
	sender  PushSender
	cfg     Config

	wake chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup
}

func NewDispatcher(
	repo repository.NotificationRepositoryInterface,
	devices repository.DeviceRepositoryInterface,
	sender PushSender,
	cfg Config,
) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Dispatcher{
		repo:    repo,
		devices: devices,
		sender:  sender,
		cfg:     cfg,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

// Enqueue appends a direct job for one user. Persisting the job is the only
// failure mode callers see; everything after is retried internally.
func (d *Dispatcher) Enqueue(userID uint, kind string, payload map[string]interface{}) error {
	return d.enqueue(&userID, "", kind, payload)
}

// EnqueueTopic appends a broadcast job resolved against topic subscriptions
// at processing time.
func (d *Dispatcher) EnqueueTopic(topic, kind string, payload map[string]interface{}) error {
	return d.enqueue(nil, topic, kind, payload)
}

func (d *Dispatcher) enqueue(userID *uint, topic, kind string, payload map[string]interface{}) error {
	traceID := uuid.NewString()
	data, err := json.Marshal(envelope{Kind: kind, TraceID: traceID, Data: payload})
	if err != nil {
		return err
	}
	job := &models.NotificationJob{
		UserID:  userID,
		Topic:   topic,
		Kind:    kind,
		Payload: string(data),
		TraceID: traceID,
	}
	if err := d.repo.CreateJob(job); err != nil {
		return err
	}

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return nil
}

// Start launches the worker pool and the cleanup loop.
func (d *Dispatcher) Start() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.wg.Add(1)
	go d.cleanupLoop()
}

// Stop drains the pool. Unfinished jobs stay durable: pending ones are
// claimed on the next start, and jobs stranded in processing by a crash are
// reclaimed by the poll loop.
func (d *Dispatcher) Stop() {
	close(d.stop)
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-d.wake:
			d.drainPending()
		case <-ticker.C:
			d.reclaimStale()
			d.drainPending()
			d.retryDue()
		}
	}
}

// reclaimStale returns crashed-worker jobs to the pending queue.
func (d *Dispatcher) reclaimStale() {
	n, err := d.repo.ReclaimStale(d.cfg.ReclaimAfter)
	if err != nil {
		log.Printf("dispatch: reclaiming stale jobs failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("dispatch: reclaimed %d stale jobs", n)
	}
}

func (d *Dispatcher) drainPending() {
	for {
		jobs, err := d.repo.ClaimPending(16)
		if err != nil {
			log.Printf("dispatch: claiming jobs failed: %v", err)
			return
		}
		if len(jobs) == 0 {
			return
		}
		for i := range jobs {
			d.processJob(&jobs[i])
		}
	}
}

// processJob resolves the job's target devices and attempts first delivery
// to each, recording a per-(job, device) outcome row.
func (d *Dispatcher) processJob(job *models.NotificationJob) {
	var targets []models.Device
	var err error
	if job.UserID != nil {
		targets, err = d.devices.ActiveForUser(*job.UserID)
	} else {
		targets, err = d.devices.ActiveForTopic(job.Topic)
	}
	if err != nil {
		log.Printf("dispatch: resolving targets for job %d failed: %v", job.ID, err)
		return
	}

	if len(targets) == 0 {
		if err := d.repo.MarkJobDone(job.ID); err != nil {
			log.Printf("dispatch: completing empty job %d failed: %v", job.ID, err)
		}
		return
	}

	for i := range targets {
		device := &targets[i]
		delivery, err := d.repo.EnsureDelivery(job.ID, device.ID)
		if err != nil {
			log.Printf("dispatch: delivery row for job %d device %d failed: %v", job.ID, device.ID, err)
			continue
		}
		if delivery.Terminal() {
			continue
		}
		d.attempt(job, device, delivery)
	}

	d.finishIfDone(job.ID)
}

// retryDue re-attempts deliveries whose backoff has elapsed.
func (d *Dispatcher) retryDue() {
	deliveries, err := d.repo.DueDeliveries(time.Now(), 64)
	if err != nil {
		log.Printf("dispatch: fetching due deliveries failed: %v", err)
		return
	}
	for i := range deliveries {
		delivery := &deliveries[i]
		job, err := d.repo.JobByID(delivery.JobID)
		if err != nil {
			log.Printf("dispatch: job %d for due delivery missing: %v", delivery.JobID, err)
			continue
		}
		device, err := d.devices.FindByID(delivery.DeviceID)
		if err != nil {
			log.Printf("dispatch: device %d for due delivery missing: %v", delivery.DeviceID, err)
			continue
		}
		if !device.IsActive {
			d.giveUp(delivery, device, "device deactivated")
			d.finishIfDone(job.ID)
			continue
		}
		d.attempt(job, device, delivery)
		d.finishIfDone(job.ID)
	}
}

func (d *Dispatcher) attempt(job *models.NotificationJob, device *models.Device, delivery *models.NotificationDelivery) {
	err := d.sender.Send(device, []byte(job.Payload))
	if err == nil {
		delivery.Delivered = true
		if markErr := d.repo.MarkDelivered(delivery.ID); markErr != nil {
			log.Printf("dispatch: marking delivery %d done failed: %v", delivery.ID, markErr)
		}
		return
	}

	attempts := delivery.Attempts + 1
	delivery.Attempts = attempts
	if attempts >= d.cfg.MaxAttempts {
		d.giveUp(delivery, device, err.Error())
		return
	}

	// Exponential backoff: base, 2*base, 4*base, ...
	delay := d.cfg.BaseRetryDelay * time.Duration(1<<uint(attempts-1))
	nextRetry := time.Now().Add(delay)
	if markErr := d.repo.MarkAttempted(delivery.ID, attempts, &nextRetry, err.Error()); markErr != nil {
		log.Printf("dispatch: recording attempt on delivery %d failed: %v", delivery.ID, markErr)
	}
	log.Printf("dispatch: push to device %d failed (attempt %d/%d): %v", device.ID, attempts, d.cfg.MaxAttempts, err)
}

// giveUp closes a delivery past the cap and deactivates the device so a
// later registration has to revive it explicitly.
func (d *Dispatcher) giveUp(delivery *models.NotificationDelivery, device *models.Device, reason string) {
	delivery.GaveUp = true
	if err := d.repo.MarkGaveUp(delivery.ID, reason); err != nil {
		log.Printf("dispatch: closing delivery %d failed: %v", delivery.ID, err)
	}
	if device.IsActive {
		if err := d.devices.Deactivate(device.ID); err != nil {
			log.Printf("dispatch: deactivating device %d failed: %v", device.ID, err)
		} else {
			log.Printf("dispatch: device %d deactivated after %d failed attempts", device.ID, delivery.Attempts)
		}
	}
}

func (d *Dispatcher) finishIfDone(jobID uint) {
	open, err := d.repo.OpenDeliveryCount(jobID)
	if err != nil {
		log.Printf("dispatch: counting open deliveries for job %d failed: %v", jobID, err)
		return
	}
	if open == 0 {
		if err := d.repo.MarkJobDone(jobID); err != nil {
			log.Printf("dispatch: completing job %d failed: %v", jobID, err)
		}
	}
}

func (d *Dispatcher) cleanupLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			if err := d.repo.CleanupOld(d.cfg.CleanupAfter); err != nil {
				log.Printf("dispatch: cleanup failed: %v", err)
			}
		}
	}
}
