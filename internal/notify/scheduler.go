// internal/notify/scheduler.go
package notify

import (
	"context"
	"sync"
	"time"

	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"
)

// QueuedNotification is one deferred dispatch request.
type QueuedNotification struct {
	Trigger   models.RuleTrigger
	EntityID  string
	CompanyID string
	Snapshot  *models.Snapshot
	Urgency   models.NotificationPriority
}

// Sender is the dispatch surface the scheduler drains into.
type Sender interface {
	SendSmart(ctx context.Context, trigger models.RuleTrigger, entityID, companyID string, snapshot *models.Snapshot, urgency models.NotificationPriority) error
}

// Scheduler batches non-urgent notifications and flushes them on a ticker.
// It owns its queue and ticker explicitly and is passed to callers by
// reference; there is no ambient global queue.
type Scheduler struct {
	sender   Sender
	interval time.Duration
	logger   logger.Logger

	mu      sync.Mutex
	queue   []QueuedNotification
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
}

func NewScheduler(sender Sender, interval time.Duration, log logger.Logger) *Scheduler {
	return &Scheduler{
		sender:   sender,
		interval: interval,
		logger:   log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Enqueue adds a request to the batch. Urgent requests should go straight to
// the dispatcher instead.
func (s *Scheduler) Enqueue(n QueuedNotification) {
	s.mu.Lock()
	s.queue = append(s.queue, n)
	depth := len(s.queue)
	s.mu.Unlock()

	s.logger.Debug("Notification queued", map[string]interface{}{
		"trigger":    n.Trigger,
		"entityId":   n.EntityID,
		"queueDepth": depth,
	})
}

// Start runs the flush loop until Stop is called or the context ends.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.doneCh)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Flush(ctx)
			case <-s.stopCh:
				s.Flush(ctx)
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop flushes the remaining queue and halts the loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh
}

// Flush drains the current queue synchronously.
func (s *Scheduler) Flush(ctx context.Context) {
	s.mu.Lock()
	pending := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, n := range pending {
		if err := s.sender.SendSmart(ctx, n.Trigger, n.EntityID, n.CompanyID, n.Snapshot, n.Urgency); err != nil {
			s.logger.Error("Scheduled notification dispatch failed", map[string]interface{}{
				"trigger":  n.Trigger,
				"entityId": n.EntityID,
				"error":    err.Error(),
			})
		}
	}
}
