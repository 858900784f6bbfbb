package notifications

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/pkg/config"
	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
	"github.com/itsriyaas/digitalcard-backend/pkg/outbox"
)

const (
	defaultBatchSize   = 50
	defaultPollMs      = 500
	defaultMaxAttempts = 10
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Worker drains the outbox and mails customer notifications. Events it
// cannot deliver are retried with their attempt count until the ceiling,
// after which they are left unpublished for inspection.
type Worker struct {
	db           TxRunner
	repo         *outbox.Repository
	mailer       Mailer
	logg         *logger.Logger
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

// NewWorker wires the notification worker with its dependencies.
func NewWorker(cfg config.OutboxConfig, db TxRunner, repo *outbox.Repository, mailer Mailer, logg *logger.Logger) (*Worker, error) {
	if db == nil {
		return nil, errors.New("database client is required")
	}
	if repo == nil {
		return nil, errors.New("outbox repository is required")
	}
	if mailer == nil {
		return nil, errors.New("mailer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := cfg.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Worker{
		db:           db,
		repo:         repo,
		mailer:       mailer,
		logg:         logg,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

// Run polls until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	interval := w.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			w.logg.Info(ctx, "notification worker context canceled")
			return ctx.Err()
		default:
		}

		processed, err := w.ProcessBatch(ctx)
		if err != nil {
			w.logg.Error(ctx, "notification batch error", err)
			backoff = nextBackoff(backoff, interval)
			if err := w.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}

		if err := w.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// ProcessBatch drains one batch of unpublished events and reports whether
// any work was found.
func (w *Worker) ProcessBatch(ctx context.Context) (bool, error) {
	processed := false
	err := w.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := w.repo.FetchUnpublished(tx, w.batchSize, w.maxAttempts)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		processed = true
		for _, event := range events {
			if err := w.deliver(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	return processed, err
}

func (w *Worker) deliver(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) error {
	fields := map[string]any{
		"event_id":   event.ID.String(),
		"event_type": event.EventType,
	}

	email, err := BuildEmail(event)
	if err != nil {
		ctxWithFields := w.logg.WithFields(ctx, fields)
		ctxWithFields = w.logg.WithField(ctxWithFields, "error", err.Error())
		w.logg.Warn(ctxWithFields, "notification payload undecodable")
		return w.repo.MarkFailed(tx, event.ID, err)
	}
	if email == nil {
		// Nothing customer-facing to send for this event type.
		return w.repo.MarkPublished(tx, event.ID)
	}

	if err := w.mailer.Send(ctx, email.To, email.Subject, email.Body); err != nil {
		ctxWithFields := w.logg.WithFields(ctx, fields)
		ctxWithFields = w.logg.WithField(ctxWithFields, "error", err.Error())
		w.logg.Warn(ctxWithFields, "notification send failed")
		return w.repo.MarkFailed(tx, event.ID, err)
	}

	if err := w.repo.MarkPublished(tx, event.ID); err != nil {
		return err
	}
	w.logg.Info(w.logg.WithFields(ctx, fields), "notification sent")
	return nil
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base time.Duration) time.Duration {
	next := current * 2
	if next < base {
		next = base
	}
	if next > maxBackoff {
		next = maxBackoff
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if jitterWindow <= 0 {
		return d
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
