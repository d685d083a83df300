package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/segmentio/kafka-go"

	"github.com/planora-hq/planora/libs/db"
	"github.com/planora-hq/planora/libs/kafkax"
	otelx "github.com/planora-hq/planora/libs/otel"
)

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
	// Retention bounds how long published rows are kept; the sweep runs
	// on SweepSpec (cron syntax).
	Retention time.Duration
	SweepSpec string
}

// Publisher drains committed outbox rows to Kafka. Calendar writes only
// touch Postgres; this loop is the sole bridge to the broker, which is what
// makes the booking-plus-event write atomic.
type Publisher struct {
	pool   *db.Pool
	repo   *Repository
	logger *slog.Logger
	cfg    PublisherConfig

	brokers []string
}

func NewPublisher(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if cfg.SweepSpec == "" {
		cfg.SweepSpec = "10 3 * * *"
	}
	return &Publisher{
		pool:    pool,
		repo:    repo,
		logger:  logger,
		cfg:     cfg,
		brokers: kafkax.SplitBrokers(cfg.Brokers),
	}
}

// Run polls until ctx is cancelled. With no brokers configured the
// publisher disables itself; events stay queued in the outbox table.
func (p *Publisher) Run(ctx context.Context) {
	if len(p.brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  p.brokers,
		Balancer: &kafka.Hash{},
	})
	defer writer.Close()

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(p.cfg.SweepSpec, func() { p.sweep(ctx) }); err != nil {
		p.logger.Error("invalid outbox sweep schedule", "spec", p.cfg.SweepSpec, "err", err)
	} else {
		sweeper.Start()
		defer sweeper.Stop()
	}

	ticker := time.NewTicker(p.cfg.PollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.drain(ctx, writer); err != nil {
				p.logger.Error("outbox publish failed", "err", err)
			}
		}
	}
}

// drain claims one batch, writes it to Kafka, and marks it published in the
// same claiming transaction. A crash mid-batch re-publishes on the next
// poll: consumers dedupe on event id, so at-least-once is the contract.
func (p *Publisher) drain(ctx context.Context, writer *kafka.Writer) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch, err := p.repo.FetchUnpublished(ctx, tx, p.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(batch))
	for _, rec := range batch {
		if err := writer.WriteMessages(ctx, p.message(ctx, rec)); err != nil {
			return err
		}
		ids = append(ids, rec.ID)
	}

	if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// message builds the Kafka message for a record: topic from the event type,
// partition key from the aggregate so one appointment's events stay
// ordered, trace context restored from the stored strings.
func (p *Publisher) message(ctx context.Context, rec Record) kafka.Message {
	msgCtx := otelx.ContextWithTraceContext(ctx, rec.Traceparent, rec.Tracestate)
	msg := kafka.Message{
		Topic: rec.EventType,
		Key:   []byte(rec.AggregateID),
		Value: rec.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(rec.EventID)},
			{Key: "event_type", Value: []byte(rec.EventType)},
		},
	}
	msg.Headers = kafkax.InjectTraceHeaders(msgCtx, msg.Headers)
	return msg
}

func (p *Publisher) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-p.cfg.Retention)
	deleted, err := p.repo.PurgePublishedBefore(ctx, cutoff)
	if err != nil {
		p.logger.Error("outbox retention sweep failed", "err", err)
		return
	}
	if deleted > 0 {
		p.logger.Info("outbox retention sweep", "deleted", deleted, "cutoff", cutoff)
	}
}
