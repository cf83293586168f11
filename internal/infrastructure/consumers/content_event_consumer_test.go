package consumers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/reposphere/staleweb/internal/domain/models"
	"github.com/reposphere/staleweb/pkg/constants"
	"github.com/reposphere/staleweb/pkg/errors"
	"github.com/reposphere/staleweb/pkg/logger"
)

// recordingConsumer records the lifecycle calls it receives.
type recordingConsumer struct {
	events     []models.Event
	ends       int
	consumeErr error
}

func (r *recordingConsumer) Initialize() error { return nil }

func (r *recordingConsumer) Consume(ctx context.Context, event models.Event) error {
	if r.consumeErr != nil {
		return r.consumeErr
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingConsumer) End(ctx context.Context) error {
	r.ends++
	return nil
}

func (r *recordingConsumer) Finish(ctx context.Context) error { return nil }

func newTestConsumer(rec *recordingConsumer) *ContentEventConsumer {
	return &ContentEventConsumer{
		consumer: rec,
		log:      logger.NewNoopLogger(),
		tracer:   otel.Tracer(constants.ServiceName),
		stop:     make(chan struct{}),
	}
}

func TestHandleMessage_DecodesTransaction(t *testing.T) {
	rec := &recordingConsumer{}
	consumer := newTestConsumer(rec)
	itemID := uuid.New()
	deletedID := uuid.New()

	payload := `{
		"txn_id": "txn-1",
		"events": [
			{
				"event_type": 2,
				"subject_type": 2,
				"subject_id": "` + itemID.String() + `",
				"subject": {
					"type": 2,
					"id": "` + itemID.String() + `",
					"handle": "123/45",
					"in_archive": true,
					"metadata": [
						{"schema": "dspace", "element": "entity", "qualifier": "type", "value": "Publication"}
					]
				}
			},
			{
				"event_type": 32,
				"subject_type": 2,
				"subject_id": "` + deletedID.String() + `",
				"detail": "123/46",
				"identifiers": ["customurl:https://y"]
			}
		]
	}`

	require.NoError(t, consumer.handleMessage(context.Background(), []byte(payload)))

	require.Len(t, rec.events, 2)
	assert.Equal(t, 1, rec.ends)

	modify := rec.events[0]
	assert.Equal(t, models.EventModify, modify.EventType)
	assert.Equal(t, models.TypeItem, modify.SubjectType)
	item, ok := modify.Subject.(*models.Item)
	require.True(t, ok)
	assert.Equal(t, itemID, item.ID)
	assert.True(t, item.InArchive)
	assert.Equal(t, "Publication", item.EntityType())

	deleted := rec.events[1]
	assert.Equal(t, models.EventDelete, deleted.EventType)
	assert.Equal(t, deletedID, deleted.SubjectID)
	assert.Equal(t, "123/46", deleted.Detail)
	assert.Equal(t, []string{"customurl:https://y"}, deleted.Identifiers)
	assert.Nil(t, deleted.Subject)
}

func TestHandleMessage_DecodesBundleSnapshot(t *testing.T) {
	rec := &recordingConsumer{}
	consumer := newTestConsumer(rec)
	bundleID := uuid.New()
	itemID := uuid.New()

	payload := `{
		"txn_id": "txn-2",
		"events": [
			{
				"event_type": 8,
				"subject_type": 1,
				"subject_id": "` + bundleID.String() + `",
				"subject": {
					"type": 1,
					"id": "` + bundleID.String() + `",
					"name": "TEXT",
					"items": [
						{"type": 2, "id": "` + itemID.String() + `", "handle": "123/45", "in_archive": true}
					]
				}
			}
		]
	}`

	require.NoError(t, consumer.handleMessage(context.Background(), []byte(payload)))

	require.Len(t, rec.events, 1)
	bundle, ok := rec.events[0].Subject.(*models.Bundle)
	require.True(t, ok)
	assert.Equal(t, "TEXT", bundle.Name)
	require.Len(t, bundle.Items, 1)
	assert.Equal(t, itemID, bundle.OwningItem().ID)
	assert.True(t, bundle.OwningItem().InArchive)
}

// A bundle event without an owning item cannot be classified; it must be
// dropped at the decode boundary instead of reaching the classifier.
func TestHandleMessage_BundleWithoutItemsIsSkipped(t *testing.T) {
	rec := &recordingConsumer{}
	consumer := newTestConsumer(rec)
	bundleID := uuid.New()
	itemID := uuid.New()

	payload := `{
		"txn_id": "txn-5",
		"events": [
			{
				"event_type": 8,
				"subject_type": 1,
				"subject_id": "` + bundleID.String() + `",
				"subject": {"type": 1, "id": "` + bundleID.String() + `", "name": "TEXT"}
			},
			{"event_type": 2, "subject_type": 2, "subject_id": "` + itemID.String() + `"}
		]
	}`

	require.NoError(t, consumer.handleMessage(context.Background(), []byte(payload)))

	require.Len(t, rec.events, 1)
	assert.Equal(t, itemID, rec.events[0].SubjectID)
	assert.Equal(t, 1, rec.ends)
}

// A payload that will never parse must be skipped, not retried forever.
func TestHandleMessage_MalformedPayloadIsSkipped(t *testing.T) {
	rec := &recordingConsumer{}
	consumer := newTestConsumer(rec)

	require.NoError(t, consumer.handleMessage(context.Background(), []byte("not json")))

	assert.Empty(t, rec.events)
	assert.Zero(t, rec.ends)
}

func TestHandleMessage_UndecodableEventIsSkipped(t *testing.T) {
	rec := &recordingConsumer{}
	consumer := newTestConsumer(rec)
	itemID := uuid.New()

	payload := `{
		"txn_id": "txn-3",
		"events": [
			{"event_type": 2, "subject_type": 2, "subject_id": "not-a-uuid"},
			{"event_type": 2, "subject_type": 2, "subject_id": "` + itemID.String() + `"}
		]
	}`

	require.NoError(t, consumer.handleMessage(context.Background(), []byte(payload)))

	require.Len(t, rec.events, 1)
	assert.Equal(t, itemID, rec.events[0].SubjectID)
	assert.Equal(t, 1, rec.ends)
}

func TestHandleMessage_ClassificationErrorAbortsTransaction(t *testing.T) {
	rec := &recordingConsumer{consumeErr: errors.ErrDatabaseOperation}
	consumer := newTestConsumer(rec)
	itemID := uuid.New()

	payload := `{
		"txn_id": "txn-4",
		"events": [
			{"event_type": 2, "subject_type": 2, "subject_id": "` + itemID.String() + `"}
		]
	}`

	err := consumer.handleMessage(context.Background(), []byte(payload))

	assert.ErrorIs(t, err, errors.ErrDatabaseOperation)
	assert.Zero(t, rec.ends)
}
