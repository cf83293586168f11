// Package service contains the application services coordinating the cache
// invalidation pipeline.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reposphere/staleweb/internal/domain/models"
	domain "github.com/reposphere/staleweb/internal/domain/service"
	"github.com/reposphere/staleweb/pkg/logger"
)

// Classification outcomes, used as metric labels.
const (
	outcomeUpdate  = "update"
	outcomeRemove  = "remove"
	outcomeDelete  = "delete"
	outcomeIgnored = "ignored"
)

// urlAccumulator holds the URL sets of one logical transaction. It only ever
// exists fully constructed: a fresh one is created when a transaction first
// touches the consumer and it is discarded at transaction end, so the sets can
// never leak into the next transaction.
type urlAccumulator struct {
	// toUpdate collects the urls that need to be regenerated.
	toUpdate models.URLSet
	// toRemove collects the urls that need to be invalidated without forcing
	// a new caching.
	toRemove models.URLSet
}

func newURLAccumulator() *urlAccumulator {
	return &urlAccumulator{
		toUpdate: models.NewURLSet(),
		toRemove: models.NewURLSet(),
	}
}

// StaleWebDataConsumer tracks content mutations over one logical transaction
// and, at the transaction boundary, hands the set of stale public URLs to the
// edge cache driver.
//
// Consume and End run synchronously on the transaction-processing goroutine;
// all actual cache I/O happens asynchronously inside the driver.
type StaleWebDataConsumer struct {
	resolver  domain.URLResolver
	cache     domain.WebServerCache
	authorize domain.AuthorizeService
	metrics   domain.Metrics
	log       logger.Logger

	acc *urlAccumulator
}

// NewStaleWebDataConsumer creates the consumer. The cache driver may be nil
// when no edge cache is configured; classification still runs, only the final
// flush becomes a no-op.
func NewStaleWebDataConsumer(resolver domain.URLResolver, cache domain.WebServerCache,
	authorize domain.AuthorizeService, metrics domain.Metrics, log logger.Logger) *StaleWebDataConsumer {
	return &StaleWebDataConsumer{
		resolver:  resolver,
		cache:     cache,
		authorize: authorize,
		metrics:   metrics,
		log:       log.WithComponent("StaleWebDataConsumer"),
	}
}

// Initialize implements the consumer lifecycle; nothing to set up.
func (c *StaleWebDataConsumer) Initialize() error {
	return nil
}

// Consume classifies one content event and accumulates the affected URLs.
// Authorization lookup failures propagate to the caller: a classification that
// cannot be trusted must abort the event, not silently degrade.
func (c *StaleWebDataConsumer) Consume(ctx context.Context, event models.Event) error {
	if c.cache == nil {
		c.log.Warn(ctx, "no web server cache driver registered, consider removing the staleweb consumer if not needed")
	}
	if c.acc == nil {
		c.acc = newURLAccumulator()
	}

	normalized := normalizeEvent(event)
	switch normalized.kind {
	case kindUpdate:
		if err := c.classify(ctx, normalized.subject); err != nil {
			// The aborted transaction's sets must not leak into the next
			// flush; on redelivery the transaction re-accumulates from
			// scratch.
			c.acc = nil
			return err
		}
		return nil
	case kindDelete:
		c.acc.toRemove.AddAll(c.resolver.URLsForDeletedObject(normalized.subjectType,
			normalized.subjectID, normalized.handle, normalized.identifiers, normalized.metadataValues))
		c.metrics.RecordEventConsumed(outcomeDelete)
	default:
		if normalized.reason != "" {
			c.log.Warn(ctx, normalized.reason)
		}
		c.metrics.RecordEventConsumed(outcomeIgnored)
	}
	return nil
}

// End flushes the accumulated URL sets to the cache driver exactly once and
// discards the accumulator, whatever the driver does.
func (c *StaleWebDataConsumer) End(ctx context.Context) error {
	acc := c.acc
	if acc == nil {
		acc = newURLAccumulator()
	}
	defer func() {
		c.acc = nil
	}()

	if c.cache == nil {
		return nil
	}

	start := time.Now()
	c.cache.InvalidateAndRenew(ctx, acc.toUpdate, acc.toRemove)
	c.metrics.RecordFlush(len(acc.toUpdate), len(acc.toRemove), time.Since(start))

	if !acc.toUpdate.Empty() || !acc.toRemove.Empty() {
		c.log.Debug(ctx, "flushed stale urls to cache driver",
			logger.Int("to_update", len(acc.toUpdate)),
			logger.Int("to_remove", len(acc.toRemove)))
	}
	return nil
}

// Finish implements the consumer lifecycle; nothing to tear down.
func (c *StaleWebDataConsumer) Finish(ctx context.Context) error {
	return nil
}

// classify decides whether the subject is publicly visible and routes its URLs
// accordingly: public objects get their primary URL re-warmed and their
// aliases purged, non-public objects only get purged. A restricted or
// embargoed object must never be pre-warmed into the public edge cache.
func (c *StaleWebDataConsumer) classify(ctx context.Context, subject models.DSpaceObject) error {
	public, err := c.authorize.HasAnonymousReadPolicy(ctx, subject)
	if err != nil {
		return err
	}
	if public {
		c.acc.toUpdate.AddAll(c.resolver.URLsToCache(subject))
		c.acc.toRemove.AddAll(c.resolver.URLsToNotCache(subject))
		c.metrics.RecordEventConsumed(outcomeUpdate)
	} else {
		c.acc.toRemove.AddAll(c.resolver.AllURLs(subject))
		c.metrics.RecordEventConsumed(outcomeRemove)
	}
	return nil
}

type normalizedKind int

const (
	kindIgnored normalizedKind = iota
	kindUpdate
	kindDelete
)

// normalizedEvent is the classified form of a content event. kind selects
// which fields are meaningful: subject for updates, the scalar fields for
// deletes, reason (possibly empty) for ignored events.
type normalizedEvent struct {
	kind    normalizedKind
	subject models.DSpaceObject

	subjectType    int
	subjectID      uuid.UUID
	handle         string
	identifiers    []string
	metadataValues []models.MetadataValue

	reason string
}

func ignored(reason string) normalizedEvent {
	return normalizedEvent{kind: kindIgnored, reason: reason}
}

// normalizeEvent maps a raw content event onto an update, delete or ignored
// classification without mutating the input.
//
// ADD/REMOVE on a bundle named "TEXT" is rewritten into a MODIFY of the owning
// item: a change to the extracted full-text bitstreams invisibly changes the
// rendered representation of the item.
func normalizeEvent(event models.Event) normalizedEvent {
	subjectType := event.SubjectType
	if subjectType != models.TypeItem && subjectType != models.TypeBundle &&
		subjectType != models.TypeCollection && subjectType != models.TypeCommunity &&
		subjectType != models.TypeSite {
		return ignored(fmt.Sprintf("unexpected kind of subject in %s, skipping", event))
	}

	subject := event.Subject
	eventType := event.EventType

	if subjectType == models.TypeBundle {
		bundle, ok := subject.(*models.Bundle)
		if !ok || (eventType != models.EventAdd && eventType != models.EventRemove) || bundle.Name != "TEXT" {
			return ignored("")
		}
		subjectType = models.TypeItem
		eventType = models.EventModify
		subject = bundle.OwningItem()
	}

	switch eventType {
	case models.EventCreate, models.EventModify, models.EventModifyMetadata:
		if subject == nil {
			return ignored("")
		}
		return normalizedEvent{kind: kindUpdate, subject: subject}

	case models.EventRemove, models.EventAdd, models.EventInstall:
		// Membership changes on containers are not individually tracked; only
		// the item itself matters here.
		if subject == nil || subjectType != models.TypeItem {
			return ignored("")
		}
		return normalizedEvent{kind: kindUpdate, subject: subject}

	case models.EventDelete:
		if event.SubjectID == uuid.Nil {
			return ignored("got null subject type and/or ID on DELETE event, skipping it")
		}
		return normalizedEvent{
			kind:           kindDelete,
			subjectType:    event.SubjectType,
			subjectID:      event.SubjectID,
			handle:         event.Detail,
			identifiers:    event.Identifiers,
			metadataValues: event.MetadataValues,
		}

	default:
		return ignored(fmt.Sprintf("unexpected event type in %s, skipping", event))
	}
}
