// Package persistence provides the storage abstraction for templates and recipes.
package persistence

import (
	"context"

	"github.com/recipemap/recipemap/pkg/models"
)

// TxOptions configures a unit of work.
type TxOptions struct {
	// Serializable runs the transaction at SERIALIZABLE isolation instead of READ COMMITTED.
	Serializable bool
	ReadOnly     bool
}

// TxFunc is the body of a unit of work. Returning an error rolls the transaction back.
type TxFunc func(ctx context.Context, tx Transaction) error

type Persistence interface {
	// WithTransaction runs fn inside one transaction and commits only if fn returns nil.
	WithTransaction(ctx context.Context, opts TxOptions, fn TxFunc) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// Transaction exposes the repositories bound to one open transaction.
type Transaction interface {
	MapTemplates() MapTemplateRepository
	Templates() TemplateRepository
	Flows() FlowTemplateRepository
	DataFields() DataFieldRepository
	Blacklists() BlacklistRepository
	TemplateAccess() TemplateAccessRepository
	Recipes() RecipeRepository
	Processes() ProcessRepository
}

type MapTemplateRepository interface {
	Insert(ctx context.Context, mapTemplate *models.MapTemplate) error
	// GetByID returns ErrMapTemplateNotFound when no row matches.
	GetByID(ctx context.Context, id string) (*models.MapTemplate, error)
	List(ctx context.Context) ([]*models.MapTemplate, error)
}

type TemplateRepository interface {
	Insert(ctx context.Context, template *models.RecipeTemplate) error
	// GetByID returns ErrTemplateNotFound when no row matches.
	GetByID(ctx context.Context, id string) (*models.RecipeTemplate, error)
	// GetByIdentifier returns the canonical template with the identifier inside a map template.
	GetByIdentifier(ctx context.Context, mapTemplateID, identifier string) (*models.RecipeTemplate, error)
	ListByMapTemplate(ctx context.Context, mapTemplateID string) ([]*models.RecipeTemplate, error)
	SetOverriddenBy(ctx context.Context, id, overriddenBy string) error
}

type FlowTemplateRepository interface {
	Insert(ctx context.Context, flow *models.RecipeFlowTemplate) error
	ListByTemplate(ctx context.Context, templateID string) ([]*models.RecipeFlowTemplate, error)
	// GetByIdentifier returns ErrFlowTemplateNotFound when no flow of the template has the identifier.
	GetByIdentifier(ctx context.Context, templateID, identifier string) (*models.RecipeFlowTemplate, error)
}

type DataFieldRepository interface {
	InsertGroup(ctx context.Context, group *models.FieldGroup) error
	ListGroupsByFlow(ctx context.Context, flowID string) ([]*models.FieldGroup, error)
	Insert(ctx context.Context, field *models.DataFieldDeclaration) error
	ListByFlow(ctx context.Context, flowID string) ([]*models.DataFieldDeclaration, error)
	// GetByIdentifier returns ErrDataFieldNotFound when no field of the flow has the identifier.
	GetByIdentifier(ctx context.Context, flowID, fieldIdentifier string) (*models.DataFieldDeclaration, error)
}

type BlacklistRepository interface {
	Insert(ctx context.Context, rule *models.BlacklistRule) error
	ListByMapTemplate(ctx context.Context, mapTemplateID string) ([]*models.BlacklistRule, error)
	// ListTouching returns every rule whose successor or predecessor is templateID.
	ListTouching(ctx context.Context, templateID string) ([]*models.BlacklistRule, error)
	Exists(ctx context.Context, successorID, predecessorID string) (bool, error)
	// DeleteTouching deletes the rules of a map template that reference templateID on either side.
	DeleteTouching(ctx context.Context, mapTemplateID, templateID string) (int64, error)
	// Repoint moves every rule referencing fromTemplateID, on either side, to toTemplateID.
	Repoint(ctx context.Context, fromTemplateID, toTemplateID string) (int64, error)
}

type TemplateAccessRepository interface {
	Insert(ctx context.Context, access *models.TemplateAccess) error
	Exists(ctx context.Context, agentID, templateID string) (bool, error)
	ListByAgent(ctx context.Context, agentID string) ([]*models.TemplateAccess, error)
}

type RecipeRepository interface {
	Insert(ctx context.Context, recipe *models.Recipe) error
	// GetByID returns ErrRecipeNotFound when no row matches.
	GetByID(ctx context.Context, id string) (*models.Recipe, error)
	ListByAgent(ctx context.Context, agentID string) ([]*models.Recipe, error)
}

type ProcessRepository interface {
	Insert(ctx context.Context, process *models.RecipeProcess) error
	InsertEdge(ctx context.Context, edge *models.ProcessEdge) error
	ListByRecipe(ctx context.Context, recipeID string) ([]*models.RecipeProcess, error)
	ListEdgesByRecipe(ctx context.Context, recipeID string) ([]*models.ProcessEdge, error)
	CountByRecipe(ctx context.Context, recipeID string) (int, error)
	CountEdgesByRecipe(ctx context.Context, recipeID string) (int, error)
}
