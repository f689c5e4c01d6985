package services

import (
	"context"
	"fmt"

	"github.com/recipemap/recipemap/pkg/persistence"
)

// FieldInheritance resolves a field's inherits reference to a stored declaration.
type FieldInheritance struct{}

func NewFieldInheritance() *FieldInheritance {
	return &FieldInheritance{}
}

// Resolve returns the id of the field fieldIdentifier of the flow flowIdentifier in templateID.
func (f *FieldInheritance) Resolve(ctx context.Context, tx persistence.Transaction, templateID, flowIdentifier, fieldIdentifier string) (string, error) {
	notFound := func(cause error) error {
		return &InheritedFieldError{
			TemplateID:      templateID,
			FlowIdentifier:  flowIdentifier,
			FieldIdentifier: fieldIdentifier,
			Err:             fmt.Errorf("%w: %v", ErrInheritedFieldNotFound, cause),
		}
	}

	flow, err := tx.Flows().GetByIdentifier(ctx, templateID, flowIdentifier)
	if err != nil {
		if persistence.IsNotFound(err) {
			return "", notFound(err)
		}

		return "", fmt.Errorf("failed to load flow %s: %w", flowIdentifier, err)
	}

	field, err := tx.DataFields().GetByIdentifier(ctx, flow.ID, fieldIdentifier)
	if err != nil {
		if persistence.IsNotFound(err) {
			return "", notFound(err)
		}

		return "", fmt.Errorf("failed to load field %s: %w", fieldIdentifier, err)
	}

	return field.ID, nil
}
