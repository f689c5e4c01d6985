package services

import (
	"context"
	"fmt"

	"github.com/recipemap/recipemap/pkg/events"
	"github.com/recipemap/recipemap/pkg/models"
	"github.com/recipemap/recipemap/pkg/persistence"
)

type CreateRecipeRequest struct {
	AgentID string  `json:"agent_id" validate:"required"`
	Name    string  `json:"name"     validate:"required,min=1"`
	Note    *string `json:"note,omitempty"`

	// ResourceSpecificationIDs are stored as given; the specifications are not looked up.
	ResourceSpecificationIDs []string `json:"resource_specification_ids,omitempty" validate:"unique,dive,uuid"`
}

// Recipes manages recipe containers. Processes are added through RecipeGraph.
type Recipes struct {
	core
}

func NewRecipes(deps Deps) *Recipes {
	return &Recipes{core: newCore(deps, "recipes")}
}

func (r *Recipes) Create(ctx context.Context, req CreateRecipeRequest) (*models.Recipe, error) {
	err := validateRequest("CreateRecipe", req)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AgentID:                  req.AgentID,
		Name:                     req.Name,
		Note:                     req.Note,
		ResourceSpecificationIDs: append(make([]string, 0, len(req.ResourceSpecificationIDs)), req.ResourceSpecificationIDs...),
	}

	err = r.persistence.WithTransaction(ctx, persistence.TxOptions{},
		func(ctx context.Context, tx persistence.Transaction) error {
			return tx.Recipes().Insert(ctx, recipe)
		})
	if err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	r.logger.InfoContext(ctx, "recipe created", "recipe_id", recipe.ID, "agent_id", recipe.AgentID)

	r.publish(ctx, events.RecipeCreated{
		BaseEvent: newBaseEvent(events.RecipeCreatedEvent),
		RecipeID:  recipe.ID,
		AgentID:   recipe.AgentID,
	})

	return recipe, nil
}

// Get returns the recipe with its processes and edges.
func (r *Recipes) Get(ctx context.Context, id string) (*models.RecipeGraph, error) {
	var graph *models.RecipeGraph

	err := r.persistence.WithTransaction(ctx, persistence.TxOptions{ReadOnly: true},
		func(ctx context.Context, tx persistence.Transaction) error {
			recipe, err := tx.Recipes().GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load recipe: %w", err)
			}

			processes, err := tx.Processes().ListByRecipe(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to list processes: %w", err)
			}

			edges, err := tx.Processes().ListEdgesByRecipe(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to list edges: %w", err)
			}

			if processes == nil {
				processes = make([]*models.RecipeProcess, 0)
			}

			if edges == nil {
				edges = make([]*models.ProcessEdge, 0)
			}

			graph = &models.RecipeGraph{Recipe: recipe, Processes: processes, Edges: edges}

			return nil
		})
	if err != nil {
		return nil, err
	}

	return graph, nil
}

func (r *Recipes) ListByAgent(ctx context.Context, agentID string) ([]*models.Recipe, error) {
	var recipes []*models.Recipe

	err := r.persistence.WithTransaction(ctx, persistence.TxOptions{ReadOnly: true},
		func(ctx context.Context, tx persistence.Transaction) error {
			var err error

			recipes, err = tx.Recipes().ListByAgent(ctx, agentID)

			return err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	if recipes == nil {
		recipes = make([]*models.Recipe, 0)
	}

	return recipes, nil
}
