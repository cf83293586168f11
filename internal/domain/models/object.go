// Package models defines the read-only view of repository content consumed by
// the cache invalidation pipeline. Objects here are snapshots of the platform's
// content model, not managed entities.
package models

import (
	"strings"

	"github.com/google/uuid"
)

// Object type tags, matching the platform's core constants.
const (
	TypeBitstream  = 0
	TypeBundle     = 1
	TypeItem       = 2
	TypeCollection = 3
	TypeCommunity  = 4
	TypeSite       = 5
)

// ActionRead is the resource-policy action granting read access.
const ActionRead = 0

// GroupAnonymous is the built-in group representing unauthenticated users.
const GroupAnonymous = "Anonymous"

// CustomURLPrefix marks alternate identifiers that carry a custom URL.
const CustomURLPrefix = "customurl:"

// MetadataValue is a single schema.element.qualifier = value tuple.
type MetadataValue struct {
	Schema    string `json:"schema"`
	Element   string `json:"element"`
	Qualifier string `json:"qualifier"`
	Value     string `json:"value"`
}

// Metadata fields the resolver cares about.
var (
	fieldEntityType   = [3]string{"dspace", "entity", "type"}
	fieldCustomURL    = [3]string{"cris", "customurl", ""}
	fieldOldCustomURL = [3]string{"cris", "customurl", "old"}
)

// FirstMetadataValue returns the first value matching the given field, or the
// empty string when the field is absent.
func FirstMetadataValue(values []MetadataValue, schema, element, qualifier string) string {
	for _, v := range values {
		if v.Schema == schema && v.Element == element && v.Qualifier == qualifier {
			return v.Value
		}
	}
	return ""
}

func allMetadataValues(values []MetadataValue, field [3]string) []string {
	var out []string
	for _, v := range values {
		if v.Schema == field[0] && v.Element == field[1] && v.Qualifier == field[2] {
			out = append(out, v.Value)
		}
	}
	return out
}

// DSpaceObject is the common read-only view of a repository object.
type DSpaceObject interface {
	ObjectID() uuid.UUID
	ObjectHandle() string
	ObjectType() int
}

// Community is a top-level container of collections.
type Community struct {
	ID     uuid.UUID
	Handle string
}

func (c *Community) ObjectID() uuid.UUID  { return c.ID }
func (c *Community) ObjectHandle() string { return c.Handle }
func (c *Community) ObjectType() int      { return TypeCommunity }

// Collection is a container of items.
type Collection struct {
	ID     uuid.UUID
	Handle string
}

func (c *Collection) ObjectID() uuid.UUID  { return c.ID }
func (c *Collection) ObjectHandle() string { return c.Handle }
func (c *Collection) ObjectType() int      { return TypeCollection }

// Item is an archival unit. Only archived or withdrawn items have a public
// cache footprint.
type Item struct {
	ID          uuid.UUID
	Handle      string
	InArchive   bool
	Withdrawn   bool
	Metadata    []MetadataValue
	Identifiers []string
}

func (i *Item) ObjectID() uuid.UUID  { return i.ID }
func (i *Item) ObjectHandle() string { return i.Handle }
func (i *Item) ObjectType() int      { return TypeItem }

// EntityType returns the item's declared entity type, or "" when none is set.
func (i *Item) EntityType() string {
	return FirstMetadataValue(i.Metadata, fieldEntityType[0], fieldEntityType[1], fieldEntityType[2])
}

// CustomURL returns the item's current custom URL, or "" when none is set.
func (i *Item) CustomURL() string {
	return FirstMetadataValue(i.Metadata, fieldCustomURL[0], fieldCustomURL[1], fieldCustomURL[2])
}

// OldCustomURLs returns every superseded custom URL still worth purging.
func (i *Item) OldCustomURLs() []string {
	return allMetadataValues(i.Metadata, fieldOldCustomURL)
}

// Bundle groups the bitstreams of an item. The bundle name distinguishes
// content kinds, e.g. "ORIGINAL", "TEXT", "LICENSE".
type Bundle struct {
	ID    uuid.UUID
	Name  string
	Items []*Item
}

func (b *Bundle) ObjectID() uuid.UUID  { return b.ID }
func (b *Bundle) ObjectHandle() string { return "" }
func (b *Bundle) ObjectType() int      { return TypeBundle }

// OwningItem returns the item the bundle belongs to.
func (b *Bundle) OwningItem() *Item {
	return b.Items[0]
}

// Site is the repository root object.
type Site struct {
	ID     uuid.UUID
	Handle string
}

func (s *Site) ObjectID() uuid.UUID  { return s.ID }
func (s *Site) ObjectHandle() string { return s.Handle }
func (s *Site) ObjectType() int      { return TypeSite }

// CustomURLsFromIdentifiers extracts custom URLs from an alternate identifier
// list by stripping the customurl prefix, preserving order.
func CustomURLsFromIdentifiers(identifiers []string) []string {
	var urls []string
	for _, id := range identifiers {
		if strings.HasPrefix(id, CustomURLPrefix) {
			urls = append(urls, strings.TrimPrefix(id, CustomURLPrefix))
		}
	}
	return urls
}

// TypeString returns the human-readable name of an object type tag.
func TypeString(objectType int) string {
	switch objectType {
	case TypeBitstream:
		return "BITSTREAM"
	case TypeBundle:
		return "BUNDLE"
	case TypeItem:
		return "ITEM"
	case TypeCollection:
		return "COLLECTION"
	case TypeCommunity:
		return "COMMUNITY"
	case TypeSite:
		return "SITE"
	default:
		return "UNKNOWN"
	}
}
