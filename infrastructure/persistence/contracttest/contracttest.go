// Package contracttest holds the behavioral suite every persistence
// backend must pass. The suite exercises the repository contracts only
// through their interfaces, so a backend passes it exactly when callers
// cannot tell it apart from any other backend.
package contracttest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idp-backend/application/ports"
	"idp-backend/domain/entities"
	apperrors "idp-backend/pkg/errors"
)

// Run executes the full suite. open must return a fresh, empty backend
// for each subtest.
func Run(t *testing.T, open func(t *testing.T) *ports.Repositories) {
	t.Run("SaveAssignsIdentityAndTimestamps", func(t *testing.T) { testSaveAssignsIdentity(t, open(t)) })
	t.Run("FindByIDUnknownAndZero", func(t *testing.T) { testFindByIDUnknownAndZero(t, open(t)) })
	t.Run("UpdateAdvancesUpdatedAtOnly", func(t *testing.T) { testUpdateAdvancesUpdatedAt(t, open(t)) })
	t.Run("DeleteIsIdempotent", func(t *testing.T) { testDeleteIsIdempotent(t, open(t)) })
	t.Run("FindAllSpansPages", func(t *testing.T) { testFindAllSpansPages(t, open(t)) })
	t.Run("CountAndExists", func(t *testing.T) { testCountAndExists(t, open(t)) })
	t.Run("SaveAllAndDeleteAll", func(t *testing.T) { testSaveAllAndDeleteAll(t, open(t)) })
	t.Run("StackNameOwnerUniqueness", func(t *testing.T) { testStackNameOwnerUniqueness(t, open(t)) })
	t.Run("StackFinders", func(t *testing.T) { testStackFinders(t, open(t)) })
	t.Run("OptimisticLockRejectsStaleWrite", func(t *testing.T) { testOptimisticLock(t, open(t)) })
	t.Run("LockedSaveRecreatesDeletedRecord", func(t *testing.T) { testLockedSaveRecreatesDeleted(t, open(t)) })
	t.Run("BlueprintNameLookup", func(t *testing.T) { testBlueprintNameLookup(t, open(t)) })
	t.Run("BlueprintResourceFinders", func(t *testing.T) { testBlueprintResourceFinders(t, open(t)) })
	t.Run("APIKeyHashUniqueness", func(t *testing.T) { testAPIKeyHashUniqueness(t, open(t)) })
	t.Run("APIKeyFinders", func(t *testing.T) { testAPIKeyFinders(t, open(t)) })
	t.Run("RotateKeySwapsAtomically", func(t *testing.T) { testRotateKey(t, open(t)) })
	t.Run("RotateKeyRejectsConcurrentChange", func(t *testing.T) { testRotateKeyConflict(t, open(t)) })
	t.Run("CatalogFinders", func(t *testing.T) { testCatalogFinders(t, open(t)) })
	t.Run("PropertySchemaOrdering", func(t *testing.T) { testPropertySchemaOrdering(t, open(t)) })
	t.Run("MappingPairUniqueness", func(t *testing.T) { testMappingPairUniqueness(t, open(t)) })
	t.Run("AuditLogAppendOnly", func(t *testing.T) { testAuditLog(t, open(t)) })
}

func newStack(name, createdBy string) *entities.Stack {
	return &entities.Stack{
		Name:                name,
		Description:         "test stack",
		StackType:           entities.StackTypeRestfulAPI,
		ProgrammingLanguage: entities.LanguageQuarkus,
		CreatedBy:           createdBy,
		Configuration:       map[string]any{"replicas": float64(2)},
	}
}

func newKey(name, hash, userEmail string) *entities.APIKey {
	return &entities.APIKey{
		KeyName:   name,
		KeyHash:   hash,
		KeyPrefix: "idp_",
		KeyType:   entities.APIKeyTypeUser,
		UserEmail: userEmail,
		IsActive:  true,
	}
}

func testSaveAssignsIdentity(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	saved, err := repos.Stacks.Save(ctx, newStack("checkout", "dev@example.com"))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, saved.ID)
	require.False(t, saved.CreatedAt.IsZero())
	require.False(t, saved.UpdatedAt.IsZero())

	found, err := repos.Stacks.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, saved.ID, found.ID)
	assert.Equal(t, "checkout", found.Name)
	assert.Equal(t, entities.StackTypeRestfulAPI, found.StackType)
	assert.Equal(t, map[string]any{"replicas": float64(2)}, found.Configuration)
	assert.True(t, found.CreatedAt.Equal(saved.CreatedAt))
	assert.True(t, found.UpdatedAt.Equal(saved.UpdatedAt))
}

func testFindByIDUnknownAndZero(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	found, err := repos.Teams.FindByID(ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = repos.Teams.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)

	all, err := repos.Teams.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testUpdateAdvancesUpdatedAt(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	saved, err := repos.Blueprints.Save(ctx, &entities.Blueprint{Name: "base-service", IsActive: true})
	require.NoError(t, err)
	createdAt := saved.CreatedAt
	firstUpdatedAt := saved.UpdatedAt

	saved.Description = "revised"
	updated, err := repos.Blueprints.Save(ctx, saved)
	require.NoError(t, err)
	assert.True(t, updated.CreatedAt.Equal(createdAt))
	assert.True(t, updated.UpdatedAt.After(firstUpdatedAt))

	found, err := repos.Blueprints.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "revised", found.Description)
}

func testDeleteIsIdempotent(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	saved, err := repos.Teams.Save(ctx, &entities.Team{Name: "platform", IsActive: true})
	require.NoError(t, err)

	require.NoError(t, repos.Teams.Delete(ctx, saved.ID))

	found, err := repos.Teams.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, repos.Teams.Delete(ctx, saved.ID))
	require.NoError(t, repos.Teams.Delete(ctx, uuid.Nil))
}

// testFindAllSpansPages writes more records than one response page holds
// and verifies the full logical result set comes back.
func testFindAllSpansPages(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()
	const total = 150

	seen := make(map[uuid.UUID]bool, total)
	for i := 0; i < total; i++ {
		saved, err := repos.Teams.Save(ctx, &entities.Team{
			Name:     fmt.Sprintf("team-%03d", i),
			IsActive: true,
		})
		require.NoError(t, err)
		seen[saved.ID] = true
	}

	all, err := repos.Teams.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, total)
	for _, team := range all {
		assert.True(t, seen[team.ID], "unexpected team %s", team.ID)
	}

	count, err := repos.Teams.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(total), count)

	active, err := repos.Teams.FindByIsActive(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, total)
}

func testCountAndExists(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	count, err := repos.CloudProviders.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	saved, err := repos.CloudProviders.Save(ctx, &entities.CloudProvider{Name: "aws", Enabled: true})
	require.NoError(t, err)

	exists, err := repos.CloudProviders.Exists(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repos.CloudProviders.Exists(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)

	count, err = repos.CloudProviders.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func testSaveAllAndDeleteAll(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	batch := []*entities.ResourceType{
		{Name: "postgres-db", Category: entities.ResourceCategoryNonShared, Enabled: true},
		{Name: "redis-cache", Category: entities.ResourceCategoryShared, Enabled: true},
		{Name: "sqs-queue", Category: entities.ResourceCategoryBoth, Enabled: false},
	}
	saved, err := repos.ResourceTypes.SaveAll(ctx, batch)
	require.NoError(t, err)
	require.Len(t, saved, 3)

	ids := make([]uuid.UUID, 0, len(saved))
	for _, rt := range saved {
		require.NotEqual(t, uuid.Nil, rt.ID)
		ids = append(ids, rt.ID)
	}

	require.NoError(t, repos.ResourceTypes.DeleteAll(ctx, ids))
	count, err := repos.ResourceTypes.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func testStackNameOwnerUniqueness(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	first, err := repos.Stacks.Save(ctx, newStack("checkout", "alice@example.com"))
	require.NoError(t, err)

	_, err = repos.Stacks.Save(ctx, newStack("checkout", "alice@example.com"))
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err), "want conflict, got %v", err)

	// The same name under a different owner is a different stack.
	second, err := repos.Stacks.Save(ctx, newStack("checkout", "bob@example.com"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	exists, err := repos.Stacks.ExistsByNameAndCreatedBy(ctx, "checkout", "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repos.Stacks.ExistsByNameAndCreatedBy(ctx, "checkout", "carol@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func testStackFinders(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	teamID := uuid.New()
	providerID := uuid.New()
	blueprintID := uuid.New()

	app := newStack("checkout", "alice@example.com")
	app.TeamID = teamID
	app.CloudProviderID = providerID
	app.BlueprintID = blueprintID
	_, err := repos.Stacks.Save(ctx, app)
	require.NoError(t, err)

	preview := newStack("checkout-pr-42", "alice@example.com")
	preview.StackType = entities.StackTypeRestfulServerless
	preview.EphemeralPrefix = "pr-42"
	preview.CloudProviderID = providerID
	_, err = repos.Stacks.Save(ctx, preview)
	require.NoError(t, err)

	other := newStack("billing", "bob@example.com")
	_, err = repos.Stacks.Save(ctx, other)
	require.NoError(t, err)

	byOwner, err := repos.Stacks.FindByCreatedBy(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Len(t, byOwner, 2)

	byType, err := repos.Stacks.FindByStackType(ctx, entities.StackTypeRestfulServerless)
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "checkout-pr-42", byType[0].Name)
	assert.True(t, byType[0].IsEphemeral())

	byTeam, err := repos.Stacks.FindByTeamID(ctx, teamID)
	require.NoError(t, err)
	require.Len(t, byTeam, 1)
	assert.Equal(t, "checkout", byTeam[0].Name)

	byPrefix, err := repos.Stacks.FindByEphemeralPrefix(ctx, "pr-42")
	require.NoError(t, err)
	assert.Len(t, byPrefix, 1)

	byBlueprint, err := repos.Stacks.FindByBlueprintID(ctx, blueprintID)
	require.NoError(t, err)
	require.Len(t, byBlueprint, 1)
	assert.Equal(t, "checkout", byBlueprint[0].Name)

	byProviderOwner, err := repos.Stacks.FindByCloudProviderAndCreatedBy(ctx, providerID, "alice@example.com")
	require.NoError(t, err)
	assert.Len(t, byProviderOwner, 2)

	byProviderOwner, err = repos.Stacks.FindByCloudProviderAndCreatedBy(ctx, providerID, "bob@example.com")
	require.NoError(t, err)
	assert.Empty(t, byProviderOwner)

	// Empty or zero finder arguments short-circuit to an empty result.
	none, err := repos.Stacks.FindByCreatedBy(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, none)
	none, err = repos.Stacks.FindByTeamID(ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testOptimisticLock(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	saved, err := repos.Stacks.Save(ctx, newStack("checkout", "alice@example.com"))
	require.NoError(t, err)
	observed := saved.UpdatedAt

	// A writer holding the current version wins.
	saved.Description = "first edit"
	afterFirst, err := repos.Stacks.SaveWithOptimisticLock(ctx, saved, observed)
	require.NoError(t, err)
	assert.True(t, afterFirst.UpdatedAt.After(observed))

	// A writer still holding the old version loses, and the record is
	// untouched by its attempt.
	stale := *afterFirst
	stale.Description = "stale edit"
	_, err = repos.Stacks.SaveWithOptimisticLock(ctx, &stale, observed)
	require.Error(t, err)
	assert.True(t, apperrors.IsOptimisticLock(err), "want optimistic lock, got %v", err)

	current, err := repos.Stacks.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "first edit", current.Description)
	assert.True(t, current.UpdatedAt.Equal(afterFirst.UpdatedAt))
}

func testLockedSaveRecreatesDeleted(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	saved, err := repos.Stacks.Save(ctx, newStack("phoenix", "alice@example.com"))
	require.NoError(t, err)
	observed := saved.UpdatedAt

	require.NoError(t, repos.Stacks.Delete(ctx, saved.ID))

	// With no stored record to compare against, the guarded save writes
	// the stack back instead of reporting a lost race.
	saved.Description = "revived"
	revived, err := repos.Stacks.SaveWithOptimisticLock(ctx, saved, observed)
	require.NoError(t, err)
	assert.True(t, revived.UpdatedAt.After(observed))

	current, err := repos.Stacks.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "revived", current.Description)
}

func testBlueprintNameLookup(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	saved, err := repos.Blueprints.Save(ctx, &entities.Blueprint{Name: "base-service", IsActive: true})
	require.NoError(t, err)
	_, err = repos.Blueprints.Save(ctx, &entities.Blueprint{Name: "legacy-service", IsActive: false})
	require.NoError(t, err)

	found, err := repos.Blueprints.FindByName(ctx, "base-service")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, saved.ID, found.ID)

	missing, err := repos.Blueprints.FindByName(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repos.Blueprints.Save(ctx, &entities.Blueprint{Name: "base-service"})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err), "want conflict, got %v", err)

	active, err := repos.Blueprints.FindByIsActive(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "base-service", active[0].Name)
}

func testBlueprintResourceFinders(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	blueprintID := uuid.New()
	typeID := uuid.New()
	providerID := uuid.New()

	_, err := repos.BlueprintResources.Save(ctx, &entities.BlueprintResource{
		Name:            "orders-db",
		BlueprintID:     blueprintID,
		ResourceTypeID:  typeID,
		CloudProviderID: providerID,
		IsActive:        true,
		Configuration:   map[string]any{"engine": "postgres"},
	})
	require.NoError(t, err)
	_, err = repos.BlueprintResources.Save(ctx, &entities.BlueprintResource{
		Name:        "orders-cache",
		BlueprintID: blueprintID,
		IsActive:    false,
	})
	require.NoError(t, err)

	byBlueprint, err := repos.BlueprintResources.FindByBlueprintID(ctx, blueprintID)
	require.NoError(t, err)
	assert.Len(t, byBlueprint, 2)

	byType, err := repos.BlueprintResources.FindByResourceTypeID(ctx, typeID)
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "orders-db", byType[0].Name)
	assert.Equal(t, map[string]any{"engine": "postgres"}, byType[0].Configuration)

	byProvider, err := repos.BlueprintResources.FindByCloudProviderID(ctx, providerID)
	require.NoError(t, err)
	assert.Len(t, byProvider, 1)

	inactive, err := repos.BlueprintResources.FindByIsActive(ctx, false)
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, "orders-cache", inactive[0].Name)
}

func testAPIKeyHashUniqueness(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	first, err := repos.APIKeys.Save(ctx, newKey("ci", "hash-1", "alice@example.com"))
	require.NoError(t, err)

	_, err = repos.APIKeys.Save(ctx, newKey("shadow", "hash-1", "bob@example.com"))
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err), "want conflict, got %v", err)

	found, err := repos.APIKeys.FindByKeyHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	missing, err := repos.APIKeys.FindByKeyHash(ctx, "hash-unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testAPIKeyFinders(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	active := newKey("ci", "hash-1", "alice@example.com")
	active.CreatedByEmail = "admin@example.com"
	_, err := repos.APIKeys.Save(ctx, active)
	require.NoError(t, err)

	disabled := newKey("old-ci", "hash-2", "alice@example.com")
	disabled.IsActive = false
	_, err = repos.APIKeys.Save(ctx, disabled)
	require.NoError(t, err)

	system := newKey("provisioner", "hash-3", "svc@example.com")
	system.KeyType = entities.APIKeyTypeSystem
	_, err = repos.APIKeys.Save(ctx, system)
	require.NoError(t, err)

	byEmail, err := repos.APIKeys.FindByUserEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Len(t, byEmail, 2)

	byType, err := repos.APIKeys.FindByKeyType(ctx, entities.APIKeyTypeSystem)
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "provisioner", byType[0].KeyName)

	activeKeys, err := repos.APIKeys.FindByIsActive(ctx, true)
	require.NoError(t, err)
	assert.Len(t, activeKeys, 2)

	byCreator, err := repos.APIKeys.FindByCreatedByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Len(t, byCreator, 1)

	activeForAlice, err := repos.APIKeys.FindByUserEmailAndIsActive(ctx, "alice@example.com", true)
	require.NoError(t, err)
	require.Len(t, activeForAlice, 1)
	assert.Equal(t, "ci", activeForAlice[0].KeyName)
}

func testRotateKey(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	oldKey, err := repos.APIKeys.Save(ctx, newKey("ci", "hash-old", "alice@example.com"))
	require.NoError(t, err)
	oldID := oldKey.ID

	replacement := newKey("ci", "hash-new", "alice@example.com")
	replacement.CreatedByEmail = "alice@example.com"
	rotated, err := repos.APIKeys.RotateKey(ctx, oldKey, replacement)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, rotated.ID)
	assert.NotEqual(t, oldID, rotated.ID)

	revoked, err := repos.APIKeys.FindByID(ctx, oldID)
	require.NoError(t, err)
	require.NotNil(t, revoked)
	assert.False(t, revoked.IsActive)
	require.NotNil(t, revoked.RevokedAt)
	assert.Equal(t, "alice@example.com", revoked.RevokedByEmail)
	assert.False(t, revoked.IsValid())

	created, err := repos.APIKeys.FindByKeyHash(ctx, "hash-new")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, rotated.ID, created.ID)
	assert.True(t, created.IsValid())
}

// testRotateKeyConflict rotates with a stale view of the old key and
// verifies the failure is atomic: the old key keeps its state and the
// new key is never written.
func testRotateKeyConflict(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	saved, err := repos.APIKeys.Save(ctx, newKey("ci", "hash-old", "alice@example.com"))
	require.NoError(t, err)

	staleView := *saved

	// Another writer touches the key after our view was taken.
	saved.KeyName = "ci-renamed"
	touched, err := repos.APIKeys.Save(ctx, saved)
	require.NoError(t, err)

	_, err = repos.APIKeys.RotateKey(ctx, &staleView, newKey("ci", "hash-new", "alice@example.com"))
	require.Error(t, err)
	assert.True(t, apperrors.IsOptimisticLock(err), "want optimistic lock, got %v", err)

	current, err := repos.APIKeys.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.True(t, current.IsActive)
	assert.Nil(t, current.RevokedAt)
	assert.Equal(t, "ci-renamed", current.KeyName)
	assert.True(t, current.UpdatedAt.Equal(touched.UpdatedAt))

	orphan, err := repos.APIKeys.FindByKeyHash(ctx, "hash-new")
	require.NoError(t, err)
	assert.Nil(t, orphan)
}

func testCatalogFinders(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	_, err := repos.CloudProviders.Save(ctx, &entities.CloudProvider{Name: "aws", DisplayName: "AWS", Enabled: true})
	require.NoError(t, err)
	_, err = repos.CloudProviders.Save(ctx, &entities.CloudProvider{Name: "azure", DisplayName: "Azure", Enabled: false})
	require.NoError(t, err)

	_, err = repos.CloudProviders.Save(ctx, &entities.CloudProvider{Name: "aws"})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err), "want conflict, got %v", err)

	provider, err := repos.CloudProviders.FindByName(ctx, "aws")
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.Equal(t, "AWS", provider.DisplayName)

	enabled, err := repos.CloudProviders.FindByEnabled(ctx, true)
	require.NoError(t, err)
	assert.Len(t, enabled, 1)

	_, err = repos.ResourceTypes.Save(ctx, &entities.ResourceType{Name: "postgres-db", Category: entities.ResourceCategoryNonShared, Enabled: true})
	require.NoError(t, err)
	_, err = repos.ResourceTypes.Save(ctx, &entities.ResourceType{Name: "redis-cache", Category: entities.ResourceCategoryShared, Enabled: true})
	require.NoError(t, err)

	rt, err := repos.ResourceTypes.FindByName(ctx, "postgres-db")
	require.NoError(t, err)
	require.NotNil(t, rt)

	shared, err := repos.ResourceTypes.FindByCategory(ctx, entities.ResourceCategoryShared)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, "redis-cache", shared[0].Name)

	teams, err := repos.Teams.Save(ctx, &entities.Team{Name: "platform", IsActive: true})
	require.NoError(t, err)
	byName, err := repos.Teams.FindByName(ctx, "platform")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, teams.ID, byName[0].ID)
}

func testPropertySchemaOrdering(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()
	mappingID := uuid.New()

	// Saved deliberately out of display order.
	for _, schema := range []*entities.PropertySchema{
		{MappingID: mappingID, PropertyName: "storage_gb", DataType: entities.PropertyDataTypeNumber, Required: false, DisplayOrder: 3, DefaultValue: float64(20)},
		{MappingID: mappingID, PropertyName: "engine", DataType: entities.PropertyDataTypeString, Required: true, DisplayOrder: 1,
			ValidationRules: map[string]any{"enum": []any{"postgres", "mysql"}}},
		{MappingID: mappingID, PropertyName: "multi_az", DataType: entities.PropertyDataTypeBoolean, Required: true, DisplayOrder: 2},
	} {
		_, err := repos.PropertySchemas.Save(ctx, schema)
		require.NoError(t, err)
	}

	ordered, err := repos.PropertySchemas.FindByMappingID(ctx, mappingID)
	require.NoError(t, err)
	require.Len(t, ordered, 3)
	assert.Equal(t, "engine", ordered[0].PropertyName)
	assert.Equal(t, "multi_az", ordered[1].PropertyName)
	assert.Equal(t, "storage_gb", ordered[2].PropertyName)
	assert.Equal(t, map[string]any{"enum": []any{"postgres", "mysql"}}, ordered[0].ValidationRules)
	assert.Equal(t, float64(20), ordered[2].DefaultValue)

	required, err := repos.PropertySchemas.FindByMappingIDAndRequired(ctx, mappingID, true)
	require.NoError(t, err)
	require.Len(t, required, 2)
	assert.Equal(t, "engine", required[0].PropertyName)
	assert.Equal(t, "multi_az", required[1].PropertyName)
}

func testMappingPairUniqueness(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	typeID := uuid.New()
	providerID := uuid.New()

	first, err := repos.Mappings.Save(ctx, &entities.ResourceTypeCloudMapping{
		ResourceTypeID:          typeID,
		CloudProviderID:         providerID,
		TerraformModuleLocation: "git::https://example.com/modules/db",
		ModuleLocationType:      entities.ModuleLocationGit,
		Enabled:                 true,
	})
	require.NoError(t, err)

	_, err = repos.Mappings.Save(ctx, &entities.ResourceTypeCloudMapping{
		ResourceTypeID:          typeID,
		CloudProviderID:         providerID,
		TerraformModuleLocation: "git::https://example.com/modules/db-v2",
		ModuleLocationType:      entities.ModuleLocationGit,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err), "want conflict, got %v", err)

	found, err := repos.Mappings.FindByResourceTypeAndCloudProvider(ctx, typeID, providerID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	// The same type on a different provider is a different mapping.
	_, err = repos.Mappings.Save(ctx, &entities.ResourceTypeCloudMapping{
		ResourceTypeID:          typeID,
		CloudProviderID:         uuid.New(),
		TerraformModuleLocation: "git::https://example.com/modules/db-azure",
		ModuleLocationType:      entities.ModuleLocationGit,
	})
	require.NoError(t, err)

	byType, err := repos.Mappings.FindByResourceTypeID(ctx, typeID)
	require.NoError(t, err)
	assert.Len(t, byType, 2)
}

func testAuditLog(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()

	entry, err := repos.AuditLogs.Save(ctx, &entities.AdminAuditLog{
		UserEmail:  "admin@example.com",
		Action:     "DELETE",
		EntityType: "Stack",
		EntityID:   uuid.New(),
		Details:    map[string]any{"reason": "decommissioned"},
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
	assert.False(t, entry.CreatedAt.IsZero())

	pinned := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err = repos.AuditLogs.Save(ctx, &entities.AdminAuditLog{
		UserEmail:  "admin@example.com",
		Action:     "UPDATE",
		EntityType: "Blueprint",
		Timestamp:  pinned,
	})
	require.NoError(t, err)

	byUser, err := repos.AuditLogs.FindByUserEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byAction, err := repos.AuditLogs.FindByAction(ctx, "DELETE")
	require.NoError(t, err)
	require.Len(t, byAction, 1)
	assert.Equal(t, "Stack", byAction[0].EntityType)
	assert.Equal(t, map[string]any{"reason": "decommissioned"}, byAction[0].Details)

	byEntity, err := repos.AuditLogs.FindByEntityType(ctx, "Blueprint")
	require.NoError(t, err)
	require.Len(t, byEntity, 1)
	assert.True(t, byEntity[0].Timestamp.Equal(pinned))
}
