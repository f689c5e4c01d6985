package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/recipemap/recipemap/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		templateErr := persistence.NewRecordError("GetByID", "recipe_templates", "template-123", persistence.ErrTemplateNotFound)
		recipeErr := persistence.NewRecordError("GetByID", "recipes", "recipe-456", persistence.ErrRecipeNotFound)

		assert.True(t, persistence.IsTemplateNotFound(templateErr))
		assert.True(t, persistence.IsRecipeNotFound(recipeErr))
		assert.False(t, persistence.IsRecipeNotFound(templateErr))
		assert.True(t, persistence.IsNotFound(templateErr))
		assert.True(t, persistence.IsNotFound(recipeErr))

		wrapped := fmt.Errorf("failed to load template: %w", templateErr)
		assert.True(t, errors.Is(wrapped, persistence.ErrTemplateNotFound))
	})

	t.Run("record error contains context", func(t *testing.T) {
		err := persistence.NewRecordError("Insert", "recipe_templates", "mill", persistence.ErrDuplicateKey)

		assert.Contains(t, err.Error(), "Insert")
		assert.Contains(t, err.Error(), "recipe_templates mill")
		assert.Contains(t, err.Error(), "duplicate key")
		assert.True(t, persistence.IsDuplicateKey(err))
		assert.False(t, persistence.IsNotFound(err))
	})

	t.Run("record error without key", func(t *testing.T) {
		err := persistence.NewRecordError("List", "blacklist_rules", "", persistence.ErrSerializationFailure)

		assert.Equal(t, "List operation failed on blacklist_rules: serialization failure", err.Error())
		assert.True(t, persistence.IsSerializationFailure(err))
	})
}
