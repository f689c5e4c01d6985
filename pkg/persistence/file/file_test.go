package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/recipemap/recipemap/pkg/models"
	"github.com/recipemap/recipemap/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersistence(t *testing.T) {
	dir := t.TempDir()

	fp, err := NewPersistence("file://" + dir)
	require.NoError(t, err)
	assert.Equal(t, dir, fp.root)

	require.NoError(t, fp.HealthCheck(t.Context()))
	require.NoError(t, fp.Close(t.Context()))
}

func TestNewPersistence_CorruptDataset(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataFileName), []byte("{not json"), 0600))

	_, err := NewPersistence(dir)
	require.Error(t, err)
}

func insertMap(t *testing.T, fp *Persistence) *models.MapTemplate {
	t.Helper()

	mapTemplate := &models.MapTemplate{Name: "Bakery", Type: models.TemplateTypeCustom}

	err := fp.WithTransaction(t.Context(), persistence.TxOptions{},
		func(ctx context.Context, tx persistence.Transaction) error {
			return tx.MapTemplates().Insert(ctx, mapTemplate)
		})
	require.NoError(t, err)

	return mapTemplate
}

func TestWithTransaction_CommitSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	fp, err := NewPersistence(dir)
	require.NoError(t, err)

	mapTemplate := insertMap(t, fp)
	assert.NotEmpty(t, mapTemplate.ID)
	assert.False(t, mapTemplate.CreatedAt.IsZero())

	reopened, err := NewPersistence(dir)
	require.NoError(t, err)

	err = reopened.WithTransaction(t.Context(), persistence.TxOptions{ReadOnly: true},
		func(ctx context.Context, tx persistence.Transaction) error {
			loaded, err := tx.MapTemplates().GetByID(ctx, mapTemplate.ID)
			require.NoError(t, err)
			assert.Equal(t, "Bakery", loaded.Name)

			return nil
		})
	require.NoError(t, err)
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	fp, err := NewPersistence(t.TempDir())
	require.NoError(t, err)

	mapTemplate := insertMap(t, fp)
	failure := errors.New("boom")

	err = fp.WithTransaction(t.Context(), persistence.TxOptions{Serializable: true},
		func(ctx context.Context, tx persistence.Transaction) error {
			err := tx.Templates().Insert(ctx, &models.RecipeTemplate{
				MapTemplateID: mapTemplate.ID,
				Identifier:    "mill",
				Name:          "Mill",
				Version:       1,
			})
			require.NoError(t, err)

			templates, err := tx.Templates().ListByMapTemplate(ctx, mapTemplate.ID)
			require.NoError(t, err)
			assert.Len(t, templates, 1)

			return failure
		})
	require.ErrorIs(t, err, failure)

	err = fp.WithTransaction(t.Context(), persistence.TxOptions{ReadOnly: true},
		func(ctx context.Context, tx persistence.Transaction) error {
			templates, err := tx.Templates().ListByMapTemplate(ctx, mapTemplate.ID)
			require.NoError(t, err)
			assert.Empty(t, templates)

			return nil
		})
	require.NoError(t, err)
}

func TestWithTransaction_ReadOnlyDiscardsWrites(t *testing.T) {
	fp, err := NewPersistence(t.TempDir())
	require.NoError(t, err)

	err = fp.WithTransaction(t.Context(), persistence.TxOptions{ReadOnly: true},
		func(ctx context.Context, tx persistence.Transaction) error {
			return tx.Recipes().Insert(ctx, &models.Recipe{AgentID: "agent-1", Name: "Bread"})
		})
	require.NoError(t, err)

	err = fp.WithTransaction(t.Context(), persistence.TxOptions{ReadOnly: true},
		func(ctx context.Context, tx persistence.Transaction) error {
			recipes, err := tx.Recipes().ListByAgent(ctx, "agent-1")
			require.NoError(t, err)
			assert.Empty(t, recipes)

			return nil
		})
	require.NoError(t, err)
}

func TestWithTransaction_CancelledContext(t *testing.T) {
	fp, err := NewPersistence(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	called := false
	err = fp.WithTransaction(ctx, persistence.TxOptions{}, func(context.Context, persistence.Transaction) error {
		called = true

		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestTemplateRepository(t *testing.T) {
	fp, err := NewPersistence(t.TempDir())
	require.NoError(t, err)

	mapTemplate := insertMap(t, fp)

	err = fp.WithTransaction(t.Context(), persistence.TxOptions{},
		func(ctx context.Context, tx persistence.Transaction) error {
			repo := tx.Templates()

			v1 := &models.RecipeTemplate{MapTemplateID: mapTemplate.ID, Identifier: "mill", Name: "Mill", Version: 1}
			require.NoError(t, repo.Insert(ctx, v1))

			duplicate := &models.RecipeTemplate{MapTemplateID: mapTemplate.ID, Identifier: "mill", Name: "Mill", Version: 1}
			assert.True(t, persistence.IsDuplicateKey(repo.Insert(ctx, duplicate)))

			v2 := &models.RecipeTemplate{MapTemplateID: mapTemplate.ID, Identifier: "mill", Name: "Mill", Version: 2}
			require.NoError(t, repo.Insert(ctx, v2))
			require.NoError(t, repo.SetOverriddenBy(ctx, v1.ID, v2.ID))

			canonical, err := repo.GetByIdentifier(ctx, mapTemplate.ID, "mill")
			require.NoError(t, err)
			assert.Equal(t, v2.ID, canonical.ID)

			_, err = repo.GetByIdentifier(ctx, mapTemplate.ID, "oven")
			assert.True(t, persistence.IsTemplateNotFound(err))

			loaded, err := repo.GetByID(ctx, v1.ID)
			require.NoError(t, err)
			require.NotNil(t, loaded.OverriddenBy)
			assert.Equal(t, v2.ID, *loaded.OverriddenBy)

			// Returned records are copies.
			loaded.Name = "Changed"
			again, err := repo.GetByID(ctx, v1.ID)
			require.NoError(t, err)
			assert.Equal(t, "Mill", again.Name)

			return nil
		})
	require.NoError(t, err)
}

func TestBlacklistRepository(t *testing.T) {
	fp, err := NewPersistence(t.TempDir())
	require.NoError(t, err)

	err = fp.WithTransaction(t.Context(), persistence.TxOptions{},
		func(ctx context.Context, tx persistence.Transaction) error {
			repo := tx.Blacklists()

			require.NoError(t, repo.Insert(ctx, &models.BlacklistRule{MapTemplateID: "m", RecipeTemplateID: "b", RecipeTemplatePredecessorID: "a"}))
			require.NoError(t, repo.Insert(ctx, &models.BlacklistRule{MapTemplateID: "m", RecipeTemplateID: "c", RecipeTemplatePredecessorID: "b"}))
			require.NoError(t, repo.Insert(ctx, &models.BlacklistRule{MapTemplateID: "m", RecipeTemplateID: "c", RecipeTemplatePredecessorID: "a"}))

			err := repo.Insert(ctx, &models.BlacklistRule{MapTemplateID: "m", RecipeTemplateID: "b", RecipeTemplatePredecessorID: "a"})
			assert.True(t, persistence.IsDuplicateKey(err))

			forbidden, err := repo.Exists(ctx, "b", "a")
			require.NoError(t, err)
			assert.True(t, forbidden)

			forbidden, err = repo.Exists(ctx, "a", "b")
			require.NoError(t, err)
			assert.False(t, forbidden)

			moved, err := repo.Repoint(ctx, "a", "a2")
			require.NoError(t, err)
			assert.Equal(t, int64(2), moved)

			touching, err := repo.ListTouching(ctx, "a2")
			require.NoError(t, err)
			assert.Len(t, touching, 2)

			deleted, err := repo.DeleteTouching(ctx, "m", "b")
			require.NoError(t, err)
			assert.Equal(t, int64(2), deleted)

			rules, err := repo.ListByMapTemplate(ctx, "m")
			require.NoError(t, err)
			require.Len(t, rules, 1)
			assert.Equal(t, "c", rules[0].RecipeTemplateID)
			assert.Equal(t, "a2", rules[0].RecipeTemplatePredecessorID)

			return nil
		})
	require.NoError(t, err)
}

func TestProcessRepository(t *testing.T) {
	fp, err := NewPersistence(t.TempDir())
	require.NoError(t, err)

	err = fp.WithTransaction(t.Context(), persistence.TxOptions{},
		func(ctx context.Context, tx persistence.Transaction) error {
			recipe := &models.Recipe{AgentID: "agent-1", Name: "Bread"}
			require.NoError(t, tx.Recipes().Insert(ctx, recipe))

			repo := tx.Processes()

			first := &models.RecipeProcess{RecipeID: recipe.ID, RecipeTemplateID: "t1", Name: "Mill"}
			second := &models.RecipeProcess{RecipeID: recipe.ID, RecipeTemplateID: "t2", Name: "Bake"}
			require.NoError(t, repo.Insert(ctx, first))
			require.NoError(t, repo.Insert(ctx, second))

			edge := &models.ProcessEdge{RecipeID: recipe.ID, RecipeProcessID: second.ID, PredecessorID: first.ID}
			require.NoError(t, repo.InsertEdge(ctx, edge))

			err := repo.InsertEdge(ctx, &models.ProcessEdge{RecipeID: recipe.ID, RecipeProcessID: second.ID, PredecessorID: first.ID})
			assert.True(t, persistence.IsDuplicateKey(err))

			processes, err := repo.CountByRecipe(ctx, recipe.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, processes)

			edges, err := repo.CountEdgesByRecipe(ctx, recipe.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, edges)

			_, err = tx.Recipes().GetByID(ctx, "missing")
			assert.True(t, persistence.IsRecipeNotFound(err))

			withResources := &models.Recipe{AgentID: "agent-1", Name: "Flour", ResourceSpecificationIDs: []string{"spec-1", "spec-2"}}
			require.NoError(t, tx.Recipes().Insert(ctx, withResources))
			withResources.ResourceSpecificationIDs[0] = "changed"

			stored, err := tx.Recipes().GetByID(ctx, withResources.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{"spec-1", "spec-2"}, stored.ResourceSpecificationIDs)

			plain, err := tx.Recipes().GetByID(ctx, recipe.ID)
			require.NoError(t, err)
			assert.NotNil(t, plain.ResourceSpecificationIDs)
			assert.Empty(t, plain.ResourceSpecificationIDs)

			return nil
		})
	require.NoError(t, err)
}
