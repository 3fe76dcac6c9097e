package entities

// StackType classifies what kind of workload a stack provisions.
type StackType string

const (
	StackTypeInfrastructure           StackType = "INFRASTRUCTURE"
	StackTypeRestfulServerless        StackType = "RESTFUL_SERVERLESS"
	StackTypeRestfulAPI               StackType = "RESTFUL_API"
	StackTypeJavascriptWebApplication StackType = "JAVASCRIPT_WEB_APPLICATION"
	StackTypeEventDrivenServerless    StackType = "EVENT_DRIVEN_SERVERLESS"
	StackTypeEventDrivenAPI           StackType = "EVENT_DRIVEN_API"
)

// DisplayName returns the human-readable label for the stack type.
func (t StackType) DisplayName() string {
	switch t {
	case StackTypeInfrastructure:
		return "Infrastructure"
	case StackTypeRestfulServerless:
		return "RESTful Serverless"
	case StackTypeRestfulAPI:
		return "RESTful API"
	case StackTypeJavascriptWebApplication:
		return "JavaScript Web Application"
	case StackTypeEventDrivenServerless:
		return "Event-driven Serverless"
	case StackTypeEventDrivenAPI:
		return "Event-driven API"
	default:
		return string(t)
	}
}

// ProgrammingLanguage is the runtime a stack's application code targets.
type ProgrammingLanguage string

const (
	LanguageQuarkus ProgrammingLanguage = "QUARKUS"
	LanguageNodeJS  ProgrammingLanguage = "NODE_JS"
	LanguageReact   ProgrammingLanguage = "REACT"
)

// APIKeyType distinguishes personal keys from long-lived system keys.
type APIKeyType string

const (
	// APIKeyTypeUser is a personal key tied to one user's credentials.
	APIKeyTypeUser APIKeyType = "USER"

	// APIKeyTypeSystem is an administrator-issued key for automated
	// systems, not tied to any individual account.
	APIKeyTypeSystem APIKeyType = "SYSTEM"
)

// ResourceCategory controls where a resource type may be used.
type ResourceCategory string

const (
	ResourceCategoryShared    ResourceCategory = "SHARED"     // blueprints only
	ResourceCategoryNonShared ResourceCategory = "NON_SHARED" // stacks only
	ResourceCategoryBoth      ResourceCategory = "BOTH"
)

// PropertyDataType is the value type of a configurable property.
type PropertyDataType string

const (
	PropertyDataTypeString  PropertyDataType = "STRING"
	PropertyDataTypeNumber  PropertyDataType = "NUMBER"
	PropertyDataTypeBoolean PropertyDataType = "BOOLEAN"
	PropertyDataTypeList    PropertyDataType = "LIST"
)

// ModuleLocationType says where a terraform module is sourced from.
type ModuleLocationType string

const (
	ModuleLocationGit        ModuleLocationType = "GIT"
	ModuleLocationFileSystem ModuleLocationType = "FILE_SYSTEM"
	ModuleLocationRegistry   ModuleLocationType = "REGISTRY"
)
