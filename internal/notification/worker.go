package notification

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"emergency-ops-backend/internal/model"
)

// EventKind selects which subscriptions an event fans out to.
type EventKind string

const (
	// EventCriticalIntake fires when a case with triage level 1 or 2 is created.
	EventCriticalIntake EventKind = "critical_intake"
	// EventBedFreed fires when a bed becomes available in a ward.
	EventBedFreed EventKind = "bed_freed"
)

// Event is a single push notification job.
type Event struct {
	Kind  EventKind `json:"-"`
	Ward  string    `json:"-"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
}

// Dispatcher is the send side of the worker pool, implemented by
// *WorkerPool and mocked in engine tests.
type Dispatcher interface {
	Dispatch(ev Event)
}

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Event
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
	logger  *zap.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size, queueSize int, db *gorm.DB, webpushOptions *webpush.Options, logger *zap.Logger) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Event, queueSize),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		logger:  logger,
	}
}

// SetSender replaces the push transport; used by tests.
func (wp *WorkerPool) SetSender(s Sender) {
	wp.sender = s
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.logger.Info("notification worker started", zap.Int("worker", id))
	for {
		select {
		case ev := <-wp.jobs:
			wp.process(ctx, ev)
		case <-ctx.Done():
			wp.logger.Info("notification worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch enqueues an event without blocking the caller. Alerts are
// best-effort; a full queue drops the event with a warning.
func (wp *WorkerPool) Dispatch(ev Event) {
	select {
	case wp.jobs <- ev:
	default:
		wp.logger.Warn("notification queue full, dropping event",
			zap.String("kind", string(ev.Kind)),
			zap.String("ward", ev.Ward))
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Event {
	return wp.jobs
}

func (wp *WorkerPool) process(ctx context.Context, ev Event) {
	subs, err := wp.recipients(ctx, ev)
	if err != nil {
		wp.logger.Error("failed to fetch subscriptions",
			zap.String("kind", string(ev.Kind)), zap.Error(err))
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		wp.logger.Error("failed to marshal notification payload", zap.Error(err))
		return
	}

	wp.logger.Info("sending notifications",
		zap.String("kind", string(ev.Kind)),
		zap.Int("recipients", len(subs)))

	for _, sub := range subs {
		wp.send(ctx, sub, payload)
	}
}

// recipients resolves which subscriptions an event targets: critical
// intakes go to every subscription that opted in, bed-freed events to
// the subscriptions mapped to the bed's ward.
func (wp *WorkerPool) recipients(ctx context.Context, ev Event) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	q := wp.db.WithContext(ctx)

	switch ev.Kind {
	case EventCriticalIntake:
		q = q.Where("critical_alerts = ?", true)
	case EventBedFreed:
		q = q.
			Joins("JOIN subscription_ward_mapping swm ON swm.push_subscription_endpoint = push_subscriptions.endpoint").
			Joins("JOIN wards ON wards.id = swm.ward_id").
			Where("wards.name = ?", ev.Ward)
	default:
		return nil, nil
	}

	if err := q.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (wp *WorkerPool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.logger.Error("failed to send notification",
			zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	// Expired subscriptions are pruned so we stop retrying them.
	if resp.StatusCode == http.StatusGone {
		wp.logger.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			wp.logger.Error("failed to delete expired subscription",
				zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}
