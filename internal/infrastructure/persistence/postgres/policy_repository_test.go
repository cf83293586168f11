package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/reposphere/staleweb/internal/domain/models"
	"github.com/reposphere/staleweb/internal/infrastructure/persistence/postgres"
	"github.com/reposphere/staleweb/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&postgres.EPersonGroup{}, &postgres.ResourcePolicy{}))
	return db
}

func grantRead(t *testing.T, db *gorm.DB, groupName string, objectID uuid.UUID, action int) {
	t.Helper()
	group := postgres.EPersonGroup{ID: uuid.New(), Name: groupName}
	require.NoError(t, db.Create(&group).Error)
	policy := postgres.ResourcePolicy{
		DSpaceObject: objectID,
		ActionID:     action,
		EPersonGroup: &group.ID,
	}
	require.NoError(t, db.Create(&policy).Error)
}

func TestHasAnonymousReadPolicy(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewPolicyRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	publicItem := &models.Item{ID: uuid.New(), InArchive: true}
	restrictedItem := &models.Item{ID: uuid.New(), InArchive: true}
	adminOnlyItem := &models.Item{ID: uuid.New(), InArchive: true}
	writeOnlyItem := &models.Item{ID: uuid.New(), InArchive: true}

	grantRead(t, db, models.GroupAnonymous, publicItem.ID, models.ActionRead)
	grantRead(t, db, "Administrator", adminOnlyItem.ID, models.ActionRead)
	grantRead(t, db, models.GroupAnonymous, writeOnlyItem.ID, 1)

	public, err := repo.HasAnonymousReadPolicy(ctx, publicItem)
	require.NoError(t, err)
	assert.True(t, public)

	for _, subject := range []models.DSpaceObject{restrictedItem, adminOnlyItem, writeOnlyItem} {
		public, err := repo.HasAnonymousReadPolicy(ctx, subject)
		require.NoError(t, err)
		assert.False(t, public)
	}
}

func TestHasAnonymousReadPolicy_MemoizesWithinWindow(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewPolicyRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	item := &models.Item{ID: uuid.New(), InArchive: true}
	grantRead(t, db, models.GroupAnonymous, item.ID, models.ActionRead)

	public, err := repo.HasAnonymousReadPolicy(ctx, item)
	require.NoError(t, err)
	require.True(t, public)

	// Dropping the policy is not visible through the memoization window.
	require.NoError(t, db.Where("dspace_object = ?", item.ID).Delete(&postgres.ResourcePolicy{}).Error)

	public, err = repo.HasAnonymousReadPolicy(ctx, item)
	require.NoError(t, err)
	assert.True(t, public)
}

func TestHasAnonymousReadPolicy_DatabaseErrorPropagates(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewPolicyRepository(db, logger.NewNoopLogger())

	// Break the schema so the query fails.
	require.NoError(t, db.Migrator().DropTable(&postgres.ResourcePolicy{}))

	_, err := repo.HasAnonymousReadPolicy(context.Background(), &models.Item{ID: uuid.New()})
	assert.Error(t, err)
}
