package services

import (
	"testing"

	"github.com/recipemap/recipemap/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaultValue(t *testing.T) {
	tests := []struct {
		fieldType models.FieldType
		raw       string
		valid     bool
	}{
		{models.FieldTypeText, "Organic apples", true},
		{models.FieldTypeText, "", true},
		{models.FieldTypeNumber, "12.5", true},
		{models.FieldTypeNumber, "-3", true},
		{models.FieldTypeNumber, "twelve", false},
		{models.FieldTypeNumber, `"12"`, false},
		{models.FieldTypeDate, "2024-03-01", true},
		{models.FieldTypeDate, "2024-03-01T10:00:00Z", true},
		{models.FieldTypeDate, "yesterday", false},
		{models.FieldTypeSelect, "kg", true},
		{models.FieldTypeSelect, "", false},
		{models.FieldType("Color"), "red", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.fieldType)+"/"+tt.raw, func(t *testing.T) {
			err := validateDefaultValue(tt.fieldType, tt.raw)
			if tt.valid {
				assert.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, ErrInvalidDefaultValue)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	err := validateRequest("CreateMapTemplate", CreateMapTemplateRequest{Name: "Bakery", Type: models.TemplateTypeCustom})
	require.NoError(t, err)

	err = validateRequest("CreateMapTemplate", CreateMapTemplateRequest{Name: "Bakery", Type: "Other"})
	require.ErrorIs(t, err, ErrInvalidRequest)

	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "invalid_request", serviceErr.Code)
	assert.Contains(t, serviceErr.Message, "Type failed on variant")
}

func TestValidateRequest_NestedVariants(t *testing.T) {
	bad := models.ActionType("teleport")

	req := CreateRecipeTemplateRequest{Name: "Bake", Commitment: &bad}
	require.ErrorIs(t, validateRequest("CreateTemplate", req), ErrInvalidRequest)

	req = CreateRecipeTemplateRequest{
		Name: "Bake",
		Flows: []FlowTemplateRequest{{
			EventType:  models.EventTypeEconomicEvent,
			RoleType:   models.RoleTypeInput,
			Action:     models.ActionTypeConsume,
			Identifier: "flour",
			DataFields: []DataFieldRequest{{
				FieldIdentifier: "amount",
				FieldClass:      models.FieldClassQuantity,
				Field:           "Amount",
				FieldType:       "Weight",
			}},
		}},
	}
	require.ErrorIs(t, validateRequest("CreateTemplate", req), ErrInvalidRequest)

	req.Flows[0].DataFields[0].FieldType = models.FieldTypeNumber
	require.NoError(t, validateRequest("CreateTemplate", req))
}
