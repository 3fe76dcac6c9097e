package dynamodb

import (
	"testing"

	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/infrastructure/persistence/contracttest"
	"idp-backend/infrastructure/persistence/dynamodb/dynamotest"
)

// newTestFake declares every table and secondary index the repositories
// expect, mirroring the production table definitions.
func newTestFake(tables Tables) *dynamotest.Fake {
	fake := dynamotest.NewFake()

	fake.CreateTable(tables.Stacks, map[string]string{
		gsiStackCreatedBy:       "createdBy",
		gsiStackType:            "stackType",
		gsiStackTeamID:          "teamId",
		gsiStackCloudProviderID: "cloudProviderId",
		gsiStackEphemeral:       "ephemeralPrefix",
	})
	fake.CreateTable(tables.Blueprints, map[string]string{
		gsiBlueprintName:     "name",
		gsiBlueprintIsActive: "isActive",
	})
	fake.CreateTable(tables.BlueprintResources, map[string]string{
		gsiResourceBlueprintID:     "blueprintId",
		gsiResourceTypeID:          "resourceTypeId",
		gsiResourceCloudProviderID: "cloudProviderId",
		gsiResourceIsActive:        "isActive",
	})
	fake.CreateTable(tables.APIKeys, map[string]string{
		gsiKeyHash:           "keyHash",
		gsiKeyUserEmail:      "userEmail",
		gsiKeyType:           "keyType",
		gsiKeyIsActive:       "isActive",
		gsiKeyCreatedByEmail: "createdByEmail",
	})
	fake.CreateTable(tables.Teams, map[string]string{
		gsiTeamName:     "name",
		gsiTeamIsActive: "isActive",
	})
	fake.CreateTable(tables.CloudProviders, map[string]string{
		gsiProviderName:    "name",
		gsiProviderEnabled: "enabled",
	})
	fake.CreateTable(tables.ResourceTypes, map[string]string{
		gsiResourceTypeName:     "name",
		gsiResourceTypeCategory: "category",
		gsiResourceTypeEnabled:  "enabled",
	})
	fake.CreateTable(tables.PropertySchemas, map[string]string{
		gsiSchemaMappingID: "mappingId",
	})
	fake.CreateTable(tables.Mappings, map[string]string{
		gsiMappingResourceTypeID:  "resourceTypeId",
		gsiMappingCloudProviderID: "cloudProviderId",
		gsiMappingEnabled:         "enabled",
	})
	fake.CreateTable(tables.AuditLogs, map[string]string{
		gsiAuditUserEmail:  "userEmail",
		gsiAuditEntityType: "entityType",
		gsiAuditAction:     "action",
	})

	return fake
}

// TestRepositoriesContract runs the shared behavioral suite against the
// in-memory store. PageSize is kept small so FindAll and the index
// finders cross continuation-token boundaries during the suite.
func TestRepositoriesContract(t *testing.T) {
	contracttest.Run(t, func(t *testing.T) *ports.Repositories {
		tables := NewTables("test_")
		fake := newTestFake(tables)
		fake.PageSize = 25
		return NewRepositories(fake, tables, zap.NewNop())
	})
}
