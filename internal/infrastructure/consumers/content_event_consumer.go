// Package consumers contains the event-stream consumers that bridge the
// platform's content events into the cache invalidation pipeline.
package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/reposphere/staleweb/internal/config"
	"github.com/reposphere/staleweb/internal/domain/models"
	domain "github.com/reposphere/staleweb/internal/domain/service"
	"github.com/reposphere/staleweb/pkg/constants"
	"github.com/reposphere/staleweb/pkg/logger"
)

// eventBatch is the wire form of one logical transaction: every content event
// the platform committed together, flushed to the edge cache together.
type eventBatch struct {
	TxnID  string         `json:"txn_id"`
	Events []eventPayload `json:"events"`
}

type eventPayload struct {
	EventType      int                    `json:"event_type"`
	SubjectType    int                    `json:"subject_type"`
	SubjectID      string                 `json:"subject_id"`
	Detail         string                 `json:"detail,omitempty"`
	Identifiers    []string               `json:"identifiers,omitempty"`
	MetadataValues []models.MetadataValue `json:"metadata_values,omitempty"`
	Subject        *objectSnapshot        `json:"subject,omitempty"`
}

// objectSnapshot carries the state of the mutated object at event time, so no
// live repository lookup is needed on this side of the stream.
type objectSnapshot struct {
	Type        int                    `json:"type"`
	ID          string                 `json:"id"`
	Handle      string                 `json:"handle,omitempty"`
	Name        string                 `json:"name,omitempty"`
	InArchive   bool                   `json:"in_archive,omitempty"`
	Withdrawn   bool                   `json:"withdrawn,omitempty"`
	Metadata    []models.MetadataValue `json:"metadata,omitempty"`
	Identifiers []string               `json:"identifiers,omitempty"`
	Items       []objectSnapshot       `json:"items,omitempty"`
}

// ContentEventConsumer reads content-event transactions from Kafka and drives
// the stale-data consumer lifecycle: one Consume per event, one End per
// transaction.
type ContentEventConsumer struct {
	reader   *kafka.Reader
	consumer domain.Consumer
	log      logger.Logger
	tracer   trace.Tracer
	stop     chan struct{}
}

// NewContentEventConsumer creates a consumer for the content-event topic.
func NewContentEventConsumer(cfg config.KafkaConfig, consumer domain.Consumer, log logger.Logger) *ContentEventConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.ContentTopic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &ContentEventConsumer{
		reader:   reader,
		consumer: consumer,
		log:      log.WithComponent("ContentEventConsumer"),
		tracer:   otel.Tracer(constants.ServiceName),
		stop:     make(chan struct{}),
	}
}

// Start begins the consumer loop. It blocks and should be run in a goroutine.
func (c *ContentEventConsumer) Start(ctx context.Context) {
	c.log.Info(ctx, "starting content event consumer...")
	for {
		select {
		case <-c.stop:
			c.log.Info(ctx, "stopping content event consumer...")
			return
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.log.Error(ctx, "failed to fetch message from kafka", err)
				continue
			}

			if err := c.handleMessage(ctx, msg.Value); err != nil {
				// Leave the offset uncommitted so the transaction is retried
				// after a restart or rebalance.
				c.log.Error(ctx, "failed to process content event transaction", err)
				continue
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.log.Error(ctx, "failed to commit kafka message", err)
			}
		}
	}
}

// Stop terminates the consumer loop and closes the underlying reader.
func (c *ContentEventConsumer) Stop() error {
	close(c.stop)
	return c.reader.Close()
}

// handleMessage decodes one transaction and feeds it through the stale-data
// consumer. Malformed payloads are skipped, not retried: they will never
// become parseable.
func (c *ContentEventConsumer) handleMessage(ctx context.Context, value []byte) error {
	var batch eventBatch
	if err := json.Unmarshal(value, &batch); err != nil {
		c.log.Warn(ctx, "skipping malformed content event transaction",
			logger.String("error", err.Error()))
		return nil
	}

	ctx, span := c.tracer.Start(ctx, "consumer.transaction", trace.WithAttributes(
		attribute.String("txn.id", batch.TxnID),
		attribute.Int("txn.events", len(batch.Events)),
	))
	defer span.End()

	for _, payload := range batch.Events {
		event, err := payload.toEvent()
		if err != nil {
			c.log.Warn(ctx, "skipping undecodable content event",
				logger.String("txn_id", batch.TxnID),
				logger.String("error", err.Error()))
			continue
		}
		if err := c.consumer.Consume(ctx, event); err != nil {
			return fmt.Errorf("classifying event %s: %w", event, err)
		}
	}

	return c.consumer.End(ctx)
}

func (p eventPayload) toEvent() (models.Event, error) {
	var subjectID uuid.UUID
	if p.SubjectID != "" {
		parsed, err := uuid.Parse(p.SubjectID)
		if err != nil {
			return models.Event{}, fmt.Errorf("invalid subject id %q: %w", p.SubjectID, err)
		}
		subjectID = parsed
	}

	subject, err := snapshotToObject(p.Subject)
	if err != nil {
		return models.Event{}, err
	}

	return models.Event{
		EventType:      p.EventType,
		SubjectType:    p.SubjectType,
		SubjectID:      subjectID,
		Subject:        subject,
		Detail:         p.Detail,
		Identifiers:    p.Identifiers,
		MetadataValues: p.MetadataValues,
	}, nil
}

func snapshotToObject(s *objectSnapshot) (models.DSpaceObject, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid object id %q: %w", s.ID, err)
	}

	switch s.Type {
	case models.TypeCommunity:
		return &models.Community{ID: id, Handle: s.Handle}, nil
	case models.TypeCollection:
		return &models.Collection{ID: id, Handle: s.Handle}, nil
	case models.TypeItem:
		return snapshotToItem(id, s), nil
	case models.TypeBundle:
		// A bundle always belongs to an item; a snapshot without one cannot
		// be classified and must not reach OwningItem.
		if len(s.Items) == 0 {
			return nil, fmt.Errorf("bundle %s has no owning item", s.ID)
		}
		items := make([]*models.Item, 0, len(s.Items))
		for i := range s.Items {
			itemID, err := uuid.Parse(s.Items[i].ID)
			if err != nil {
				return nil, fmt.Errorf("invalid bundle item id %q: %w", s.Items[i].ID, err)
			}
			items = append(items, snapshotToItem(itemID, &s.Items[i]))
		}
		return &models.Bundle{ID: id, Name: s.Name, Items: items}, nil
	case models.TypeSite:
		return &models.Site{ID: id, Handle: s.Handle}, nil
	default:
		return nil, fmt.Errorf("unknown object type %d in snapshot", s.Type)
	}
}

func snapshotToItem(id uuid.UUID, s *objectSnapshot) *models.Item {
	return &models.Item{
		ID:          id,
		Handle:      s.Handle,
		InArchive:   s.InArchive,
		Withdrawn:   s.Withdrawn,
		Metadata:    s.Metadata,
		Identifiers: s.Identifiers,
	}
}
