package entities

import (
	"time"

	"github.com/google/uuid"
)

// Stack is a deployable unit of infrastructure created from a blueprint.
// The (Name, CreatedBy) pair is unique across all stacks.
type Stack struct {
	ID                  uuid.UUID           `json:"id"`
	Name                string              `json:"name"`
	Description         string              `json:"description"`
	CloudName           string              `json:"cloudName"`
	RoutePath           string              `json:"routePath"`
	RepositoryURL       string              `json:"repositoryUrl"`
	StackType           StackType           `json:"stackType"`
	ProgrammingLanguage ProgrammingLanguage `json:"programmingLanguage"`
	IsPublic            bool                `json:"isPublic"`
	CreatedBy           string              `json:"createdBy"`
	TeamID              uuid.UUID           `json:"teamId"`
	BlueprintID         uuid.UUID           `json:"blueprintId"`
	CloudProviderID     uuid.UUID           `json:"cloudProviderId"`
	EphemeralPrefix     string              `json:"ephemeralPrefix"`
	Configuration       map[string]any      `json:"configuration"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// IsEphemeral reports whether the stack was created as a short-lived
// preview environment.
func (s *Stack) IsEphemeral() bool {
	return s.EphemeralPrefix != ""
}
