// Package service defines the domain services of the cache invalidation
// pipeline: URL resolution, edge cache driving and authorization checks.
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/reposphere/staleweb/internal/domain/models"
)

// URLResolver maps repository objects to the public-facing URLs under which
// they may be cached at the edge. All methods are pure; the returned slices
// are ordered with the primary (canonical) URL first.
type URLResolver interface {
	// AllURLs returns every URL representing the subject, primary first.
	AllURLs(subject models.DSpaceObject) []string

	// URLsToCache returns the URLs worth actively re-populating after an
	// invalidation: the primary URL only, or nothing.
	URLsToCache(subject models.DSpaceObject) []string

	// URLsToNotCache returns the secondary URLs (handle redirects, legacy
	// aliases) that must be purged but are not worth pre-warming.
	URLsToNotCache(subject models.DSpaceObject) []string

	// URLsForDeletedObject reconstructs the URLs of an object that no longer
	// exists, from the scalar fields captured in the delete event.
	URLsForDeletedObject(subjectType int, subjectID uuid.UUID, handle string,
		identifiers []string, metadataValues []models.MetadataValue) []string
}

// WebServerCache resolves URLs and drives the external edge cache.
type WebServerCache interface {
	URLResolver

	// InvalidateAndRenew asynchronously purges every URL in both sets from the
	// edge cache and re-populates the ones in toUpdate. It returns immediately
	// after scheduling and never reports failures to the caller.
	InvalidateAndRenew(ctx context.Context, toUpdate, toRemove models.URLSet)

	// Shutdown releases the driver's worker pools. In-flight calls are
	// abandoned, not drained.
	Shutdown()
}

// AuthorizeService answers whether a repository object is publicly visible.
type AuthorizeService interface {
	// HasAnonymousReadPolicy reports whether an anonymous READ resource policy
	// exists for the subject. Lookup failures propagate: a classification that
	// cannot be trusted must not be silently degraded.
	HasAnonymousReadPolicy(ctx context.Context, subject models.DSpaceObject) (bool, error)
}

// Consumer receives the content events of one logical transaction.
// Lifecycle: Initialize once, Consume zero or more times, End once at the
// transaction boundary, Finish as a final hook.
type Consumer interface {
	Initialize() error
	Consume(ctx context.Context, event models.Event) error
	End(ctx context.Context) error
	Finish(ctx context.Context) error
}
