package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/prohmpiriya/event-planner/internal/domain"
	"github.com/prohmpiriya/event-planner/internal/repository"
	"github.com/prohmpiriya/event-planner/pkg/logger"
	"github.com/prohmpiriya/event-planner/pkg/retry"
)

// changeRecorder appends audit entries and streams them to the publisher
type changeRecorder struct {
	repo      repository.ChangeLogRepository
	publisher ChangeLogPublisher
	log       *logger.Logger
}

func newChangeRecorder(repo repository.ChangeLogRepository, publisher ChangeLogPublisher, log *logger.Logger) *changeRecorder {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &changeRecorder{repo: repo, publisher: publisher, log: log}
}

// record runs after the event write succeeded, so failures are logged
// and never returned
func (r *changeRecorder) record(ctx context.Context, entries ...domain.ChangeLogEntry) {
	if len(entries) == 0 {
		return
	}
	if err := r.repo.Append(ctx, entries...); err != nil {
		r.log.Error("failed to append changelog",
			zap.String("event_id", entries[0].EventID),
			zap.Error(err),
		)
	}
	if err := r.publisher.Publish(ctx, entries...); err != nil {
		r.log.Warn("failed to publish changelog",
			zap.String("event_id", entries[0].EventID),
			zap.Error(err),
		)
	}
}

// NopPublisher discards entries. Used when Kafka is disabled.
type NopPublisher struct{}

// Publish does nothing
func (NopPublisher) Publish(context.Context, ...domain.ChangeLogEntry) error { return nil }

// JSONProducer is the producing side of pkg/kafka.Producer
type JSONProducer interface {
	ProduceJSON(ctx context.Context, topic, key string, value any, headers map[string]string) error
}

// KafkaChangeLogPublisher writes each entry to a Kafka topic keyed by event id,
// so all entries of one event land on the same partition in order
type KafkaChangeLogPublisher struct {
	producer JSONProducer
	topic    string
	retry    retry.Config
}

// NewKafkaChangeLogPublisher creates a new KafkaChangeLogPublisher.
// Each entry is retried according to retryCfg.
func NewKafkaChangeLogPublisher(producer JSONProducer, topic string, retryCfg retry.Config) *KafkaChangeLogPublisher {
	return &KafkaChangeLogPublisher{producer: producer, topic: topic, retry: retryCfg}
}

// Publish produces the entries one by one and stops at the first entry
// that still fails after its retries
func (p *KafkaChangeLogPublisher) Publish(ctx context.Context, entries ...domain.ChangeLogEntry) error {
	for _, e := range entries {
		headers := map[string]string{
			"event_id":     e.EventID,
			"action":       string(e.Action),
			"message_type": "event.changelog",
		}
		err := retry.Do(ctx, p.retry, func(ctx context.Context) error {
			return p.producer.ProduceJSON(ctx, p.topic, e.EventID, e, headers)
		}, nil)
		if err != nil {
			return fmt.Errorf("failed to publish changelog entry %s: %w", e.ID, err)
		}
	}
	return nil
}
