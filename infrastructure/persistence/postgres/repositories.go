package postgres

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"idp-backend/application/ports"
)

// NewRepositories wires every relational repository onto one shared
// connection pool.
func NewRepositories(db *sqlx.DB, logger *zap.Logger) *ports.Repositories {
	return &ports.Repositories{
		Stacks:             NewStackRepository(db, logger),
		Blueprints:         NewBlueprintRepository(db, logger),
		BlueprintResources: NewBlueprintResourceRepository(db, logger),
		APIKeys:            NewAPIKeyRepository(db, logger),
		Teams:              NewTeamRepository(db, logger),
		CloudProviders:     NewCloudProviderRepository(db, logger),
		ResourceTypes:      NewResourceTypeRepository(db, logger),
		PropertySchemas:    NewPropertySchemaRepository(db, logger),
		Mappings:           NewMappingRepository(db, logger),
		AuditLogs:          NewAuditLogRepository(db, logger),
	}
}
