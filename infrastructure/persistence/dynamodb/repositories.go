package dynamodb

import (
	"go.uber.org/zap"

	"idp-backend/application/ports"
)

// NewRepositories wires every entity repository against one shared store
// client and transaction manager. The client is safe for concurrent use
// and shared read-only across all repositories.
func NewRepositories(client Client, tables Tables, logger *zap.Logger) *ports.Repositories {
	tx := NewTransactionManager(client, logger)

	return &ports.Repositories{
		Stacks:             NewStackRepository(client, tx, tables, logger),
		Blueprints:         NewBlueprintRepository(client, tx, tables, logger),
		BlueprintResources: NewBlueprintResourceRepository(client, tx, tables, logger),
		APIKeys:            NewAPIKeyRepository(client, tx, tables, logger),
		Teams:              NewTeamRepository(client, tx, tables, logger),
		CloudProviders:     NewCloudProviderRepository(client, tx, tables, logger),
		ResourceTypes:      NewResourceTypeRepository(client, tx, tables, logger),
		PropertySchemas:    NewPropertySchemaRepository(client, tx, tables, logger),
		Mappings:           NewMappingRepository(client, tx, tables, logger),
		AuditLogs:          NewAuditLogRepository(client, tx, tables, logger),
	}
}
