package models

import "time"

// Recipe is an agent's container of recipe processes.
type Recipe struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id" validate:"required"`
	Name      string    `json:"name"     validate:"required,min=1"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// ResourceSpecificationIDs names the resource specifications the recipe produces or
	// consumes, in the order given at creation. The specifications live outside this module.
	ResourceSpecificationIDs []string `json:"resource_specification_ids" validate:"dive,uuid"`
}

// RecipeProcess is a process node instantiated from a recipe template.
type RecipeProcess struct {
	ID               string `json:"id"`
	RecipeID         string `json:"recipe_id"`
	RecipeTemplateID string `json:"recipe_template_id"`
	Name             string `json:"name"`
}

// ProcessEdge links a recipe process to one of its predecessors.
type ProcessEdge struct {
	ID              string `json:"id"`
	RecipeID        string `json:"recipe_id"`
	RecipeProcessID string `json:"recipe_process_id"` // Successor
	PredecessorID   string `json:"predecessor_id"`
}

// RecipeGraph is the read model of a recipe with its process graph.
type RecipeGraph struct {
	Recipe    *Recipe          `json:"recipe"`
	Processes []*RecipeProcess `json:"processes"`
	Edges     []*ProcessEdge   `json:"edges"`
}
