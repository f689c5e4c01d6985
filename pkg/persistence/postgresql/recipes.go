package postgresql

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/recipemap/recipemap/pkg/models"
)

// RecipeRepository handles recipe rows inside one transaction.
type RecipeRepository struct {
	tx     *sql.Tx
	logger *slog.Logger
}

func (r *RecipeRepository) Insert(ctx context.Context, recipe *models.Recipe) error {
	id, err := newID(recipe.ID)
	if err != nil {
		return err
	}

	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = time.Now().UTC()
	}

	_, err = r.tx.ExecContext(ctx,
		`INSERT INTO recipes (id, agent_id, name, note, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, recipe.AgentID, recipe.Name, recipe.Note, recipe.CreatedAt,
	)
	if err != nil {
		return recordError("Insert", "recipes", id, err)
	}

	for position, specID := range recipe.ResourceSpecificationIDs {
		_, err = r.tx.ExecContext(ctx,
			`INSERT INTO recipe_resources (recipe_id, resource_specification_id, position) VALUES ($1, $2, $3)`,
			id, specID, position,
		)
		if err != nil {
			return recordError("Insert", "recipe_resources", id, err)
		}
	}

	recipe.ID = id

	return nil
}

// withResources fills in the resource specification ids of every recipe.
func (r *RecipeRepository) withResources(ctx context.Context, recipes ...*models.Recipe) error {
	for _, recipe := range recipes {
		rows, err := queryAll(ctx, r.tx, r.logger, func(row rowScanner) (*string, error) {
			var specID string

			err := row.Scan(&specID)
			if err != nil {
				return nil, err
			}

			return &specID, nil
		}, `SELECT resource_specification_id FROM recipe_resources WHERE recipe_id = $1 ORDER BY position`, recipe.ID)
		if err != nil {
			return recordError("ListResources", "recipe_resources", recipe.ID, err)
		}

		recipe.ResourceSpecificationIDs = make([]string, 0, len(rows))
		for _, specID := range rows {
			recipe.ResourceSpecificationIDs = append(recipe.ResourceSpecificationIDs, *specID)
		}
	}

	return nil
}

func (r *RecipeRepository) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	if !isUUID(id) {
		return nil, recordError("GetByID", "recipes", id, sql.ErrNoRows)
	}

	recipe, err := scanRecipe(r.tx.QueryRowContext(ctx,
		`SELECT id, agent_id, name, note, created_at FROM recipes WHERE id = $1`, id))
	if err != nil {
		return nil, recordError("GetByID", "recipes", id, err)
	}

	err = r.withResources(ctx, recipe)
	if err != nil {
		return nil, err
	}

	return recipe, nil
}

func (r *RecipeRepository) ListByAgent(ctx context.Context, agentID string) ([]*models.Recipe, error) {
	result, err := queryAll(ctx, r.tx, r.logger, scanRecipe,
		`SELECT id, agent_id, name, note, created_at FROM recipes WHERE agent_id = $1 ORDER BY id`, agentID)
	if err != nil {
		return nil, recordError("ListByAgent", "recipes", agentID, err)
	}

	err = r.withResources(ctx, result...)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	var recipe models.Recipe

	err := row.Scan(&recipe.ID, &recipe.AgentID, &recipe.Name, &recipe.Note, &recipe.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &recipe, nil
}

// ProcessRepository handles recipe processes and their edges inside one transaction.
type ProcessRepository struct {
	tx     *sql.Tx
	logger *slog.Logger
}

func (r *ProcessRepository) Insert(ctx context.Context, process *models.RecipeProcess) error {
	id, err := newID(process.ID)
	if err != nil {
		return err
	}

	_, err = r.tx.ExecContext(ctx,
		`INSERT INTO recipe_processes (id, recipe_id, recipe_template_id, name) VALUES ($1, $2, $3, $4)`,
		id, process.RecipeID, process.RecipeTemplateID, process.Name,
	)
	if err != nil {
		return recordError("Insert", "recipe_processes", id, err)
	}

	process.ID = id

	return nil
}

func (r *ProcessRepository) InsertEdge(ctx context.Context, edge *models.ProcessEdge) error {
	id, err := newID(edge.ID)
	if err != nil {
		return err
	}

	_, err = r.tx.ExecContext(ctx,
		`INSERT INTO process_edges (id, recipe_id, recipe_process_id, predecessor_id) VALUES ($1, $2, $3, $4)`,
		id, edge.RecipeID, edge.RecipeProcessID, edge.PredecessorID,
	)
	if err != nil {
		return recordError("InsertEdge", "process_edges", edge.RecipeProcessID, err)
	}

	edge.ID = id

	return nil
}

func (r *ProcessRepository) ListByRecipe(ctx context.Context, recipeID string) ([]*models.RecipeProcess, error) {
	if !isUUID(recipeID) {
		return []*models.RecipeProcess{}, nil
	}

	result, err := queryAll(ctx, r.tx, r.logger, func(row rowScanner) (*models.RecipeProcess, error) {
		var p models.RecipeProcess

		err := row.Scan(&p.ID, &p.RecipeID, &p.RecipeTemplateID, &p.Name)
		if err != nil {
			return nil, err
		}

		return &p, nil
	}, `SELECT id, recipe_id, recipe_template_id, name FROM recipe_processes WHERE recipe_id = $1 ORDER BY id`, recipeID)
	if err != nil {
		return nil, recordError("ListByRecipe", "recipe_processes", recipeID, err)
	}

	return result, nil
}

func (r *ProcessRepository) ListEdgesByRecipe(ctx context.Context, recipeID string) ([]*models.ProcessEdge, error) {
	if !isUUID(recipeID) {
		return []*models.ProcessEdge{}, nil
	}

	result, err := queryAll(ctx, r.tx, r.logger, func(row rowScanner) (*models.ProcessEdge, error) {
		var e models.ProcessEdge

		err := row.Scan(&e.ID, &e.RecipeID, &e.RecipeProcessID, &e.PredecessorID)
		if err != nil {
			return nil, err
		}

		return &e, nil
	}, `SELECT id, recipe_id, recipe_process_id, predecessor_id FROM process_edges WHERE recipe_id = $1 ORDER BY id`, recipeID)
	if err != nil {
		return nil, recordError("ListEdgesByRecipe", "process_edges", recipeID, err)
	}

	return result, nil
}

func (r *ProcessRepository) CountByRecipe(ctx context.Context, recipeID string) (int, error) {
	return r.count(ctx, "CountByRecipe", "recipe_processes", recipeID)
}

func (r *ProcessRepository) CountEdgesByRecipe(ctx context.Context, recipeID string) (int, error) {
	return r.count(ctx, "CountEdgesByRecipe", "process_edges", recipeID)
}

func (r *ProcessRepository) count(ctx context.Context, op, table, recipeID string) (int, error) {
	if !isUUID(recipeID) {
		return 0, nil
	}

	var count int

	// table is one of two constants above, never caller input.
	err := r.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE recipe_id = $1`, recipeID).Scan(&count)
	if err != nil {
		return 0, recordError(op, table, recipeID, err)
	}

	return count, nil
}
