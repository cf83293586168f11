package service

import (
	"strings"

	"github.com/google/uuid"

	"github.com/reposphere/staleweb/internal/domain/models"
)

// RepositoryURLResolver implements URLResolver against the public UI of the
// repository. Only communities, collections and items have a cache footprint;
// every other object type resolves to no URLs.
type RepositoryURLResolver struct {
	baseURL string
}

// NewRepositoryURLResolver creates a resolver rooted at the UI base URL.
func NewRepositoryURLResolver(baseURL string) *RepositoryURLResolver {
	return &RepositoryURLResolver{baseURL: strings.TrimRight(baseURL, "/")}
}

// AllURLs returns every URL representing the subject. The primary URL is
// always first; URLsToCache and URLsToNotCache partition the list by position.
func (r *RepositoryURLResolver) AllURLs(subject models.DSpaceObject) []string {
	switch obj := subject.(type) {
	case *models.Community:
		return r.containerURLs("communities", obj.ID, obj.Handle)
	case *models.Collection:
		return r.containerURLs("collections", obj.ID, obj.Handle)
	case *models.Item:
		return r.itemURLs(obj)
	default:
		return nil
	}
}

// URLsToCache returns the primary URL of the subject, or nothing.
func (r *RepositoryURLResolver) URLsToCache(subject models.DSpaceObject) []string {
	urls := r.AllURLs(subject)
	if len(urls) == 0 {
		return nil
	}
	return urls[:1]
}

// URLsToNotCache returns every URL after the primary one.
func (r *RepositoryURLResolver) URLsToNotCache(subject models.DSpaceObject) []string {
	urls := r.AllURLs(subject)
	if len(urls) < 2 {
		return nil
	}
	return urls[1:]
}

// URLsForDeletedObject rebuilds the URL list of a deleted object from the raw
// fields captured in the delete event, in the same order AllURLs would have
// produced while the object still existed.
func (r *RepositoryURLResolver) URLsForDeletedObject(subjectType int, subjectID uuid.UUID,
	handle string, identifiers []string, metadataValues []models.MetadataValue) []string {

	switch subjectType {
	case models.TypeCommunity:
		return r.containerURLs("communities", subjectID, handle)
	case models.TypeCollection:
		return r.containerURLs("collections", subjectID, handle)
	case models.TypeItem:
		var urls []string
		if entityType := models.FirstMetadataValue(metadataValues, "dspace", "entity", "type"); entityType != "" {
			urls = append(urls, r.entityURL(entityType, subjectID))
		}
		if notBlank(handle) {
			urls = append(urls, r.handleURL(handle))
		}
		urls = append(urls, r.itemURL(subjectID))
		urls = append(urls, models.CustomURLsFromIdentifiers(identifiers)...)
		return urls
	default:
		return nil
	}
}

func (r *RepositoryURLResolver) containerURLs(segment string, id uuid.UUID, handle string) []string {
	var urls []string
	if notBlank(handle) {
		urls = append(urls, r.handleURL(handle))
	}
	return append(urls, r.baseURL+"/"+segment+"/"+id.String())
}

func (r *RepositoryURLResolver) itemURLs(item *models.Item) []string {
	// Workspace and workflow items are not publicly reachable, so nothing
	// about them can be cached at the edge.
	if !item.InArchive && !item.Withdrawn {
		return nil
	}
	var urls []string
	if entityType := item.EntityType(); entityType != "" {
		urls = append(urls, r.entityURL(entityType, item.ID))
	}
	if notBlank(item.Handle) {
		urls = append(urls, r.handleURL(item.Handle))
	}
	urls = append(urls, r.itemURL(item.ID))
	if customURL := item.CustomURL(); customURL != "" {
		urls = append(urls, customURL)
	}
	return append(urls, item.OldCustomURLs()...)
}

func (r *RepositoryURLResolver) handleURL(handle string) string {
	return r.baseURL + "/handle/" + handle
}

func (r *RepositoryURLResolver) itemURL(id uuid.UUID) string {
	return r.baseURL + "/items/" + id.String()
}

func (r *RepositoryURLResolver) entityURL(entityType string, id uuid.UUID) string {
	return r.baseURL + "/entities/" + strings.ToLower(entityType) + "/" + id.String()
}

// notBlank treats whitespace-only handles the same as missing ones.
func notBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}
