package file

import (
	"context"
	"time"

	"github.com/recipemap/recipemap/pkg/models"
	"github.com/recipemap/recipemap/pkg/persistence"
)

type recipeRepository struct {
	data *dataset
}

func (r *recipeRepository) Insert(_ context.Context, recipe *models.Recipe) error {
	id, err := newID(recipe.ID)
	if err != nil {
		return err
	}

	recipe.ID = id
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = time.Now().UTC()
	}

	r.data.Recipes = append(r.data.Recipes, copyRecipe(recipe))

	return nil
}

func copyRecipe(recipe *models.Recipe) *models.Recipe {
	c := copyOf(recipe)
	c.ResourceSpecificationIDs = append(make([]string, 0, len(recipe.ResourceSpecificationIDs)), recipe.ResourceSpecificationIDs...)

	return c
}

func (r *recipeRepository) GetByID(_ context.Context, id string) (*models.Recipe, error) {
	for _, recipe := range r.data.Recipes {
		if recipe.ID == id {
			return copyRecipe(recipe), nil
		}
	}

	return nil, persistence.NewRecordError("GetByID", "recipes", id, persistence.ErrRecipeNotFound)
}

func (r *recipeRepository) ListByAgent(_ context.Context, agentID string) ([]*models.Recipe, error) {
	res := make([]*models.Recipe, 0)

	for _, recipe := range r.data.Recipes {
		if recipe.AgentID == agentID {
			res = append(res, copyRecipe(recipe))
		}
	}

	return res, nil
}

type processRepository struct {
	data *dataset
}

func (r *processRepository) Insert(_ context.Context, process *models.RecipeProcess) error {
	id, err := newID(process.ID)
	if err != nil {
		return err
	}

	process.ID = id
	r.data.Processes = append(r.data.Processes, copyOf(process))

	return nil
}

func (r *processRepository) InsertEdge(_ context.Context, edge *models.ProcessEdge) error {
	for _, existing := range r.data.Edges {
		if existing.RecipeProcessID == edge.RecipeProcessID && existing.PredecessorID == edge.PredecessorID {
			return persistence.NewRecordError("InsertEdge", "process_edges", edge.RecipeProcessID, persistence.ErrDuplicateKey)
		}
	}

	id, err := newID(edge.ID)
	if err != nil {
		return err
	}

	edge.ID = id
	r.data.Edges = append(r.data.Edges, copyOf(edge))

	return nil
}

func (r *processRepository) ListByRecipe(_ context.Context, recipeID string) ([]*models.RecipeProcess, error) {
	res := make([]*models.RecipeProcess, 0)

	for _, p := range r.data.Processes {
		if p.RecipeID == recipeID {
			res = append(res, copyOf(p))
		}
	}

	return res, nil
}

func (r *processRepository) ListEdgesByRecipe(_ context.Context, recipeID string) ([]*models.ProcessEdge, error) {
	res := make([]*models.ProcessEdge, 0)

	for _, e := range r.data.Edges {
		if e.RecipeID == recipeID {
			res = append(res, copyOf(e))
		}
	}

	return res, nil
}

func (r *processRepository) CountByRecipe(_ context.Context, recipeID string) (int, error) {
	count := 0

	for _, p := range r.data.Processes {
		if p.RecipeID == recipeID {
			count++
		}
	}

	return count, nil
}

func (r *processRepository) CountEdgesByRecipe(_ context.Context, recipeID string) (int, error) {
	count := 0

	for _, e := range r.data.Edges {
		if e.RecipeID == recipeID {
			count++
		}
	}

	return count, nil
}
