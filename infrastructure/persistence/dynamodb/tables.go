package dynamodb

// Tables maps each entity type to its physical table name. The mapping is
// static configuration: tables and their indexes are pre-declared, never
// discovered at runtime.
type Tables struct {
	Stacks             string
	Blueprints         string
	BlueprintResources string
	APIKeys            string
	Teams              string
	CloudProviders     string
	ResourceTypes      string
	PropertySchemas    string
	Mappings           string
	AuditLogs          string
}

// NewTables resolves the table names under the given prefix.
func NewTables(prefix string) Tables {
	return Tables{
		Stacks:             prefix + "stacks",
		Blueprints:         prefix + "blueprints",
		BlueprintResources: prefix + "blueprint_resources",
		APIKeys:            prefix + "api_keys",
		Teams:              prefix + "teams",
		CloudProviders:     prefix + "cloud_providers",
		ResourceTypes:      prefix + "resource_types",
		PropertySchemas:    prefix + "property_schemas",
		Mappings:           prefix + "resource_type_cloud_mappings",
		AuditLogs:          prefix + "admin_audit_logs",
	}
}

// Secondary-index names, one per queryable attribute. An attribute listed
// here is queried through its index; anything else falls back to a scan.
const (
	// stacks
	gsiStackCreatedBy       = "createdBy-createdAt-index"
	gsiStackType            = "stackType-createdAt-index"
	gsiStackTeamID          = "teamId-createdAt-index"
	gsiStackCloudProviderID = "cloudProviderId-createdAt-index"
	gsiStackEphemeral       = "ephemeralPrefix-createdAt-index"

	// blueprints
	gsiBlueprintName     = "name-index"
	gsiBlueprintIsActive = "isActive-createdAt-index"

	// blueprint resources
	gsiResourceBlueprintID     = "blueprintId-createdAt-index"
	gsiResourceTypeID          = "resourceTypeId-createdAt-index"
	gsiResourceCloudProviderID = "cloudProviderId-createdAt-index"
	gsiResourceIsActive        = "isActive-createdAt-index"

	// api keys
	gsiKeyHash           = "keyHash-index"
	gsiKeyUserEmail      = "userEmail-createdAt-index"
	gsiKeyType           = "keyType-createdAt-index"
	gsiKeyIsActive       = "isActive-createdAt-index"
	gsiKeyCreatedByEmail = "createdByEmail-createdAt-index"

	// teams
	gsiTeamName     = "name-index"
	gsiTeamIsActive = "isActive-createdAt-index"

	// cloud providers
	gsiProviderName    = "name-index"
	gsiProviderEnabled = "enabled-createdAt-index"

	// resource types
	gsiResourceTypeName     = "name-index"
	gsiResourceTypeCategory = "category-createdAt-index"
	gsiResourceTypeEnabled  = "enabled-createdAt-index"

	// property schemas
	gsiSchemaMappingID = "mappingId-displayOrder-index"

	// resource type cloud mappings
	gsiMappingResourceTypeID  = "resourceTypeId-createdAt-index"
	gsiMappingCloudProviderID = "cloudProviderId-createdAt-index"
	gsiMappingEnabled         = "enabled-createdAt-index"

	// admin audit logs
	gsiAuditUserEmail  = "userEmail-timestamp-index"
	gsiAuditEntityType = "entityType-timestamp-index"
	gsiAuditAction     = "action-timestamp-index"
)
