package postgresql_test

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/recipemap/recipemap/pkg/models"
	"github.com/recipemap/recipemap/pkg/persistence"
	"github.com/recipemap/recipemap/pkg/persistence/postgresql"
	"github.com/recipemap/recipemap/pkg/services"
	"github.com/recipemap/recipemap/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	// Drop tables in reverse dependency order (children first, parents last)
	for _, table := range []string{
		"recipe_resources", "process_edges", "recipe_processes", "recipes", "template_access", "blacklist_rules",
		"data_fields", "field_groups", "recipe_flow_templates", "recipe_templates", "map_templates",
		"schema_migrations",
	} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("recipemap_test"),
			postgres.WithUsername("recipemap"),
			postgres.WithPassword("recipemap"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	p, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	for _, table := range []string{"map_templates", "recipe_templates", "blacklist_rules", "process_edges", "recipe_resources", "schema_migrations"} {
		var exists bool

		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	version, err := p.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	// Running the migrations again is a no-op.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	again, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)
	require.NoError(t, again.Close(ctx))
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	err := p.HealthCheck(ctx)
	assert.NoError(t, err)
}

func insertTemplates(ctx context.Context, t *testing.T, p *postgresql.Persistence, identifiers ...string) (string, []*models.RecipeTemplate) {
	t.Helper()

	mapTemplate := &models.MapTemplate{Name: "Bakery", Type: models.TemplateTypeCustom}
	templates := make([]*models.RecipeTemplate, 0, len(identifiers))

	err := p.WithTransaction(ctx, persistence.TxOptions{}, func(ctx context.Context, tx persistence.Transaction) error {
		err := tx.MapTemplates().Insert(ctx, mapTemplate)
		if err != nil {
			return err
		}

		for _, identifier := range identifiers {
			template := &models.RecipeTemplate{
				MapTemplateID: mapTemplate.ID,
				Identifier:    identifier,
				Name:          identifier,
				Version:       1,
			}

			err := tx.Templates().Insert(ctx, template)
			if err != nil {
				return err
			}

			templates = append(templates, template)
		}

		return nil
	})
	require.NoError(t, err)

	return mapTemplate.ID, templates
}

func TestTemplateRepository(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	mapID, templates := insertTemplates(ctx, t, p, "mill")
	v1 := templates[0]

	err := p.WithTransaction(ctx, persistence.TxOptions{Serializable: true}, func(ctx context.Context, tx persistence.Transaction) error {
		repo := tx.Templates()

		duplicate := &models.RecipeTemplate{MapTemplateID: mapID, Identifier: "mill", Name: "Mill", Version: 1}
		err := repo.Insert(ctx, duplicate)
		assert.True(t, persistence.IsDuplicateKey(err))

		return nil
	})
	// The failed insert aborted the transaction, so the commit reports it.
	require.Error(t, err)

	var v2 *models.RecipeTemplate

	err = p.WithTransaction(ctx, persistence.TxOptions{Serializable: true}, func(ctx context.Context, tx persistence.Transaction) error {
		repo := tx.Templates()

		first := v1.ID
		commitment := models.ActionTypeTransfer
		v2 = &models.RecipeTemplate{
			MapTemplateID: mapID,
			Identifier:    "mill",
			Name:          "Mill",
			Version:       2,
			FirstVersion:  &first,
			Commitment:    &commitment,
		}

		err := repo.Insert(ctx, v2)
		if err != nil {
			return err
		}

		return repo.SetOverriddenBy(ctx, v1.ID, v2.ID)
	})
	require.NoError(t, err)

	err = p.WithTransaction(ctx, persistence.TxOptions{ReadOnly: true}, func(ctx context.Context, tx persistence.Transaction) error {
		repo := tx.Templates()

		loaded, err := repo.GetByID(ctx, v1.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded.OverriddenBy)
		assert.Equal(t, v2.ID, *loaded.OverriddenBy)
		assert.Nil(t, loaded.Commitment)

		canonical, err := repo.GetByIdentifier(ctx, mapID, "mill")
		require.NoError(t, err)
		assert.Equal(t, v2.ID, canonical.ID)
		require.NotNil(t, canonical.Commitment)
		assert.Equal(t, models.ActionTypeTransfer, *canonical.Commitment)

		all, err := repo.ListByMapTemplate(ctx, mapID)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		_, err = repo.GetByID(ctx, "not-a-uuid")
		assert.True(t, persistence.IsTemplateNotFound(err))

		_, err = repo.GetByID(ctx, "0190b7a2-0000-7000-8000-000000000000")
		assert.True(t, persistence.IsTemplateNotFound(err))

		return nil
	})
	require.NoError(t, err)
}

func TestBlacklistRepository_Repoint(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	mapID, templates := insertTemplates(ctx, t, p, "a", "b", "a2")
	a, b, a2 := templates[0], templates[1], templates[2]

	err := p.WithTransaction(ctx, persistence.TxOptions{}, func(ctx context.Context, tx persistence.Transaction) error {
		repo := tx.Blacklists()

		require.NoError(t, repo.Insert(ctx, &models.BlacklistRule{
			MapTemplateID: mapID, RecipeTemplateID: b.ID, RecipeTemplatePredecessorID: a.ID,
		}))
		require.NoError(t, repo.Insert(ctx, &models.BlacklistRule{
			MapTemplateID: mapID, RecipeTemplateID: a.ID, RecipeTemplatePredecessorID: b.ID,
		}))

		moved, err := repo.Repoint(ctx, a.ID, a2.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), moved)

		forbidden, err := repo.Exists(ctx, b.ID, a2.ID)
		require.NoError(t, err)
		assert.True(t, forbidden)

		forbidden, err = repo.Exists(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.False(t, forbidden)

		deleted, err := repo.DeleteTouching(ctx, mapID, a2.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		return nil
	})
	require.NoError(t, err)
}

func TestWithTransaction_Rollback(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	failure := errors.New("boom")

	err := p.WithTransaction(ctx, persistence.TxOptions{}, func(ctx context.Context, tx persistence.Transaction) error {
		require.NoError(t, tx.Recipes().Insert(ctx, &models.Recipe{AgentID: "agent-1", Name: "Bread"}))

		return failure
	})
	require.ErrorIs(t, err, failure)

	err = p.WithTransaction(ctx, persistence.TxOptions{ReadOnly: true}, func(ctx context.Context, tx persistence.Transaction) error {
		recipes, err := tx.Recipes().ListByAgent(ctx, "agent-1")
		require.NoError(t, err)
		assert.Empty(t, recipes)

		return nil
	})
	require.NoError(t, err)
}

func TestServices_Instantiate(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	svc := services.New(services.Deps{Persistence: p})

	mapTemplate, err := svc.Maps.Create(ctx, services.CreateMapTemplateRequest{Name: "Bakery", Type: models.TemplateTypeFDA})
	require.NoError(t, err)

	mill, err := svc.Templates.CreateTemplate(ctx, testutil.CreateTemplateRequest(mapTemplate.ID, "mill"))
	require.NoError(t, err)

	bake, err := svc.Templates.CreateTemplate(ctx, testutil.CreateTemplateRequest(mapTemplate.ID, "bake"))
	require.NoError(t, err)

	_, err = svc.Blacklist.ReplaceRules(ctx, services.ReplaceBlacklistRequest{
		MapTemplateID: mapTemplate.ID,
		TemplateID:    mill.ID,
		Rules:         []services.BlacklistRuleInput{{TemplateID: mill.ID, PredecessorID: bake.ID}},
	})
	require.NoError(t, err)

	mill2, err := svc.Templates.OverrideTemplate(ctx, mill.ID, testutil.CreateTemplateRequest("", ""))
	require.NoError(t, err)

	flour, wheat := "0190b7a2-0000-7000-8000-00000000f10a", "0190b7a2-0000-7000-8000-00000000a7ea"

	recipe, err := svc.Recipes.Create(ctx, services.CreateRecipeRequest{
		AgentID:                  "agent-1",
		Name:                     "Bread",
		ResourceSpecificationIDs: []string{wheat, flour},
	})
	require.NoError(t, err)

	recipes, err := svc.Recipes.ListByAgent(ctx, "agent-1")
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, []string{wheat, flour}, recipes[0].ResourceSpecificationIDs)

	_, err = svc.Graph.Instantiate(ctx, services.InstantiateRecipeRequest{
		RecipeID: recipe.ID,
		Nodes:    []services.InstantiateNode{testutil.Node("1", bake.ID), testutil.Node("2", mill.ID, "1")},
	})
	require.ErrorIs(t, err, services.ErrBlacklistViolation)

	responses, err := svc.Graph.Instantiate(ctx, services.InstantiateRecipeRequest{
		RecipeID: recipe.ID,
		Nodes:    []services.InstantiateNode{testutil.Node("1", mill2.ID), testutil.Node("2", bake.ID, "1")},
	})
	require.NoError(t, err)
	require.Len(t, responses, 2)

	graph, err := svc.Recipes.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Len(t, graph.Processes, 2)
	require.Len(t, graph.Edges, 1)
	assert.Equal(t, responses[0].ID, graph.Edges[0].PredecessorID)
	assert.Equal(t, []string{wheat, flour}, graph.Recipe.ResourceSpecificationIDs)
}
