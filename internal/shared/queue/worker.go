package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HandlerFunc processes one job. A returned error schedules a retry
// until maxAttempts or the job's hard expiry.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

const (
	maxAttempts = 5
	// jobs older than this are dropped instead of retried
	hardExpiry = time.Hour
)

// Worker consumes the jobs queue and routes to registered handlers.
type Worker struct {
	client   *Client
	logger   *zap.Logger
	handlers map[string]HandlerFunc
}

func NewWorker(client *Client, logger *zap.Logger) *Worker {
	return &Worker{
		client:   client,
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle registers a handler for a job type. Must be called before Run.
func (w *Worker) Handle(jobType string, fn HandlerFunc) {
	w.handlers[jobType] = fn
}

// Run consumes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.client.ch.Qos(8, 0, false); err != nil {
		return err
	}

	deliveries, err := w.client.ch.ConsumeWithContext(ctx, queueName, "workshop-worker", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			w.process(ctx, d)
		}
	}
}

func (w *Worker) process(ctx context.Context, d amqp.Delivery) {
	var job Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		w.logger.Error("malformed job dropped", zap.Error(err))
		d.Nack(false, false)
		return
	}

	log := w.logger.With(
		zap.String("job_id", job.ID),
		zap.String("job_type", job.Type),
		zap.Int("attempt", job.Attempt),
	)

	handler, ok := w.handlers[job.Type]
	if !ok {
		log.Warn("no handler for job type, dropped")
		d.Nack(false, false)
		return
	}

	if err := handler(ctx, job.Payload); err != nil {
		w.retry(ctx, job, err, log)
		d.Ack(false)
		return
	}

	log.Debug("job done")
	d.Ack(false)
}

func (w *Worker) retry(ctx context.Context, job Job, cause error, log *zap.Logger) {
	if job.Attempt >= maxAttempts {
		log.Error("job failed, retries exhausted", zap.Error(cause))
		return
	}
	if time.Since(job.EnqueuedAt) > hardExpiry {
		log.Error("job failed, expired", zap.Error(cause))
		return
	}

	delay := backoffDelay(job.Type, job.Attempt)
	job.Attempt++
	if err := w.client.publishRetry(ctx, job, delay); err != nil {
		log.Error("job retry publish failed", zap.Error(cause), zap.NamedError("publish_error", err))
		return
	}
	log.Warn("job failed, retry scheduled",
		zap.Error(cause),
		zap.Duration("delay", delay),
	)
}
