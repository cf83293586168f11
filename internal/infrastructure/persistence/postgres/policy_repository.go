package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/reposphere/staleweb/internal/domain/models"
	"github.com/reposphere/staleweb/pkg/errors"
	"github.com/reposphere/staleweb/pkg/logger"
)

// Events for the same object cluster inside one transaction, so a short
// memoization window removes most duplicate lookups without risking a stale
// answer beyond the transaction's own lifetime.
const policyMemoTTL = 2 * time.Second

// ResourcePolicy maps the platform's resourcepolicy table.
type ResourcePolicy struct {
	ID           int64      `gorm:"column:policy_id;primaryKey"`
	DSpaceObject uuid.UUID  `gorm:"column:dspace_object;type:uuid"`
	ActionID     int        `gorm:"column:action_id"`
	EPersonGroup *uuid.UUID `gorm:"column:epersongroup_id;type:uuid"`
}

func (ResourcePolicy) TableName() string {
	return "resourcepolicy"
}

// EPersonGroup maps the platform's epersongroup table.
type EPersonGroup struct {
	ID   uuid.UUID `gorm:"column:uuid;primaryKey;type:uuid"`
	Name string    `gorm:"column:name"`
}

func (EPersonGroup) TableName() string {
	return "epersongroup"
}

// PolicyRepository answers public-visibility questions from the repository's
// resource-policy table.
type PolicyRepository struct {
	db   *gorm.DB
	memo *gocache.Cache
	log  logger.Logger
}

// NewPolicyRepository creates the repository over an open database handle.
func NewPolicyRepository(db *gorm.DB, log logger.Logger) *PolicyRepository {
	return &PolicyRepository{
		db:   db,
		memo: gocache.New(policyMemoTTL, 2*policyMemoTTL),
		log:  log.WithComponent("PolicyRepository"),
	}
}

// HasAnonymousReadPolicy reports whether a READ resource policy for the
// Anonymous group exists on the subject. Database errors propagate: without a
// trustworthy answer the event classification must be aborted.
func (r *PolicyRepository) HasAnonymousReadPolicy(ctx context.Context, subject models.DSpaceObject) (bool, error) {
	key := subject.ObjectID().String()
	if cached, ok := r.memo.Get(key); ok {
		return cached.(bool), nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&ResourcePolicy{}).
		Joins("JOIN epersongroup ON epersongroup.uuid = resourcepolicy.epersongroup_id").
		Where("resourcepolicy.dspace_object = ? AND resourcepolicy.action_id = ? AND epersongroup.name = ?",
			subject.ObjectID(), models.ActionRead, models.GroupAnonymous).
		Count(&count).Error
	if err != nil {
		return false, errors.ErrDatabaseOperation.WithError(err)
	}

	public := count > 0
	r.memo.Set(key, public, gocache.DefaultExpiration)
	return public, nil
}
