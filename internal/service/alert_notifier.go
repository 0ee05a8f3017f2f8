package service

import (
	"context"
	"fraud_simulator/internal/domain"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const publishTimeout = 10 * time.Second

// Publisher delivers a stored alert to a downstream consumer.
type Publisher interface {
	Publish(ctx context.Context, alert domain.Alert) error
	Close() error
}

type DeliveryRecorder interface {
	RecordAlertPublishFailure()
	RecordAlertDropped()
}

// AlertNotifier fans blocked-transaction alerts out to a Publisher on a
// fixed set of worker goroutines. Notify never blocks the caller.
type AlertNotifier struct {
	publisher    Publisher
	queue        chan domain.Alert
	workers      int
	shutdownChan chan struct{}
	closed       atomic.Bool
	wg           sync.WaitGroup
	recorder     DeliveryRecorder
	logger       *slog.Logger
}

func NewAlertNotifier(
	publisher Publisher,
	queueSize int,
	workers int,
	recorder DeliveryRecorder,
	logger *slog.Logger,
) *AlertNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = 1000
	}
	if workers <= 0 {
		workers = 1
	}

	n := &AlertNotifier{
		publisher:    publisher,
		queue:        make(chan domain.Alert, queueSize),
		workers:      workers,
		shutdownChan: make(chan struct{}),
		recorder:     recorder,
		logger:       logger,
	}

	n.startWorkers()

	return n
}

// Notify queues alert for publishing. It reports false when the alert was
// dropped because the queue is full or the notifier is shut down.
func (n *AlertNotifier) Notify(alert domain.Alert) bool {
	if n.closed.Load() {
		n.drop(alert, "notifier stopped")
		return false
	}

	select {
	case n.queue <- alert.Clone():
		return true
	default:
		n.drop(alert, "queue full")
		return false
	}
}

func (n *AlertNotifier) drop(alert domain.Alert, reason string) {
	if n.recorder != nil {
		n.recorder.RecordAlertDropped()
	}
	n.logger.Warn("Fraud alert dropped",
		slog.String("transaction_id", alert.TransactionID),
		slog.String("reason", reason))
}

func (n *AlertNotifier) startWorkers() {
	for i := 0; i < n.workers; i++ {
		n.wg.Add(1)
		go n.worker(i)
	}
}

func (n *AlertNotifier) worker(id int) {
	defer n.wg.Done()

	for {
		select {
		case alert := <-n.queue:
			n.processAlert(alert, id)
		case <-n.shutdownChan:
			for {
				select {
				case alert := <-n.queue:
					n.processAlert(alert, id)
				default:
					return
				}
			}
		}
	}
}

func (n *AlertNotifier) processAlert(alert domain.Alert, workerID int) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := n.publisher.Publish(ctx, alert); err != nil {
		if n.recorder != nil {
			n.recorder.RecordAlertPublishFailure()
		}
		n.logger.Error("Failed to publish fraud alert",
			slog.String("transaction_id", alert.TransactionID),
			slog.String("error", err.Error()),
			slog.Int("worker_id", workerID),
			slog.Duration("duration", time.Since(startTime)))
		return
	}

	n.logger.Debug("Fraud alert published",
		slog.String("transaction_id", alert.TransactionID),
		slog.Int("worker_id", workerID),
		slog.Duration("duration", time.Since(startTime)))
}

// Shutdown stops accepting alerts, lets workers drain the queue and closes
// the publisher.
func (n *AlertNotifier) Shutdown(ctx context.Context) error {
	if !n.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(n.shutdownChan)

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		n.logger.Info("Alert notifier shutdown complete")
		return n.publisher.Close()
	case <-ctx.Done():
		return ctx.Err()
	}
}
