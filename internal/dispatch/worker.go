package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shinertx/jenni-shopify/internal/jenni"
	"go.uber.org/zap"
)

const (
	maxRetries     = 5
	baseDelay      = 500 * time.Millisecond
	maxDelay       = 4000 * time.Millisecond
	pollInterval   = 5 * time.Second
	batchSize      = 20
	processTimeout = 60 * time.Second
)

// Submitter forwards one order to the upstream provider.
type Submitter interface {
	SubmitOrder(ctx context.Context, order jenni.Order, idempotencyKey string) error
}

// Worker drains the queue, forwarding each job with bounded exponential
// backoff. An upstream conflict counts as success.
type Worker struct {
	queue     *Queue
	submitter Submitter
	log       *zap.Logger
}

func NewWorker(queue *Queue, submitter Submitter, log *zap.Logger) *Worker {
	return &Worker{
		queue:     queue,
		submitter: submitter,
		log:       log.Named("dispatch.worker"),
	}
}

// RunForever processes jobs until the context is cancelled, waking on new
// submissions and on a poll ticker that catches jobs left over from a
// previous process.
func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("dispatch batch failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-w.queue.wake:
		case <-ticker.C:
		}
	}
}

// RunOnce drains currently pending jobs.
func (w *Worker) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	jobs, err := w.queue.pending(ctx, batchSize)
	if err != nil {
		return err
	}
	for i := range jobs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.process(ctx, &jobs[i])
	}
	return nil
}

func (w *Worker) process(ctx context.Context, job *Job) {
	var order jenni.Order
	if err := json.Unmarshal(job.Payload, &order); err != nil {
		job.Attempts++
		if err := w.queue.markFailed(ctx, job, err); err != nil {
			w.log.Error("mark failed errored", zap.Error(err))
		}
		return
	}

	err := w.deliver(ctx, job, order)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// Interrupted, not failed; the job stays pending for the next run.
		w.log.Info("order delivery interrupted",
			zap.String("order_id", job.OrderID),
			zap.Int("attempts", job.Attempts))
		return
	}
	if err != nil {
		w.log.Error("order delivery exhausted retries, job retained",
			zap.String("order_id", job.OrderID),
			zap.Int("attempts", job.Attempts),
			zap.Error(err))
		if err := w.queue.markFailed(ctx, job, err); err != nil {
			w.log.Error("mark failed errored", zap.Error(err))
		}
		return
	}

	w.log.Info("order delivered",
		zap.String("order_id", job.OrderID),
		zap.Int("attempts", job.Attempts))
	if err := w.queue.markDelivered(ctx, job); err != nil {
		w.log.Error("mark delivered errored", zap.Error(err))
	}
}

// deliver attempts the forward with up to maxRetries retries after the first
// attempt, doubling the delay from baseDelay up to maxDelay.
func (w *Worker) deliver(ctx context.Context, job *Job, order jenni.Order) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffDelay(attempt)):
			}
		}
		job.Attempts++
		err := w.submitter.SubmitOrder(ctx, order, job.IdempotencyKey)
		if err == nil || errors.Is(err, jenni.ErrConflict) {
			return nil
		}
		lastErr = err
		w.log.Warn("order forward attempt failed",
			zap.String("order_id", job.OrderID),
			zap.Int("attempt", job.Attempts),
			zap.Error(err))
	}
	return lastErr
}

// backoffDelay doubles per retry: 500ms, 1s, 2s, 4s, 4s.
func backoffDelay(attempt int) time.Duration {
	delay := baseDelay << (attempt - 1)
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}
