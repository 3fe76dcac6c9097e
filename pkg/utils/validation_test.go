package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name  string `validate:"required,min=3"`
	Email string `validate:"required,email"`
}

func TestValidateStructPassesValidInput(t *testing.T) {
	assert.NoError(t, ValidateStruct(sampleRequest{Name: "abc", Email: "a@example.com"}))
}

func TestValidateStructJoinsFieldMessages(t *testing.T) {
	err := ValidateStruct(sampleRequest{Name: "ab", Email: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name must be at least 3 characters")
	assert.Contains(t, err.Error(), "email must be a valid email")
}

func TestValidateStructKeepsVerbCharactersIntact(t *testing.T) {
	type discountRequest struct {
		Rate string `validate:"required,oneof=50% 100%"`
	}
	err := ValidateStruct(discountRequest{Rate: "75%"})
	require.Error(t, err)
	assert.Equal(t, "rate must be one of: 50% 100%", err.Error())
}
