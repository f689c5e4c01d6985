package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/recipemap/recipemap/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// variant is satisfied by every closed enumeration in models.
type variant interface {
	IsValid() bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	err := v.RegisterValidation("variant", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(variant)

		return ok && value.IsValid()
	})
	if err != nil {
		panic(fmt.Errorf("failed to register variant validation: %w", err))
	}

	return v
}

// validateRequest runs struct validation and reports failures as ErrInvalidRequest.
func validateRequest(op string, req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return NewValidationError(op, "invalid_request", err.Error(), ErrInvalidRequest)
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, fmt.Sprintf("%s failed on %s", fieldErr.Namespace(), fieldErr.Tag()))
	}

	return NewValidationError(op, "invalid_request", strings.Join(fields, "; "), ErrInvalidRequest)
}

var defaultValueSchemas = sync.OnceValue(func() map[models.FieldType]*gojsonschema.Schema {
	sources := map[models.FieldType]string{
		models.FieldTypeText:   `{"type": "string"}`,
		models.FieldTypeSelect: `{"type": "string", "minLength": 1}`,
		models.FieldTypeNumber: `{"type": "number"}`,
		models.FieldTypeDate: `{"type": "string", "anyOf": [
			{"format": "date"},
			{"format": "date-time"}
		]}`,
	}

	schemas := make(map[models.FieldType]*gojsonschema.Schema, len(sources))

	for fieldType, source := range sources {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
		if err != nil {
			panic(fmt.Errorf("invalid default value schema for %s: %w", fieldType, err))
		}

		schemas[fieldType] = schema
	}

	return schemas
})

// validateDefaultValue checks that raw, the stored text of a default value, fits fieldType.
// Number defaults are read as JSON numbers, every other type as a plain string.
func validateDefaultValue(fieldType models.FieldType, raw string) error {
	schema, ok := defaultValueSchemas()[fieldType]
	if !ok {
		return fmt.Errorf("%w: unknown field type %q", ErrInvalidDefaultValue, fieldType)
	}

	var document gojsonschema.JSONLoader

	switch fieldType {
	case models.FieldTypeNumber:
		document = gojsonschema.NewStringLoader(raw)
	case models.FieldTypeText, models.FieldTypeDate, models.FieldTypeSelect:
		document = gojsonschema.NewGoLoader(raw)
	}

	result, err := schema.Validate(document)
	if err != nil {
		return fmt.Errorf("%w: %q is not a %s: %v", ErrInvalidDefaultValue, raw, fieldType, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			details = append(details, resultErr.String())
		}

		return fmt.Errorf("%w: %q is not a %s: %s", ErrInvalidDefaultValue, raw, fieldType, strings.Join(details, "; "))
	}

	return nil
}
