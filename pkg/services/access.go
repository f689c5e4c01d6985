package services

import (
	"context"
	"fmt"

	"github.com/recipemap/recipemap/pkg/models"
	"github.com/recipemap/recipemap/pkg/otelhelper"
	"github.com/recipemap/recipemap/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

type AssignTemplateRequest struct {
	AgentID    string `json:"agent_id"    validate:"required"`
	TemplateID string `json:"template_id" validate:"required"`
}

// TemplateAccess records which agents may use which recipe templates.
type TemplateAccess struct {
	core

	versions *VersionChain
}

func NewTemplateAccess(deps Deps, versions *VersionChain) *TemplateAccess {
	return &TemplateAccess{core: newCore(deps, "template_access"), versions: versions}
}

func (a *TemplateAccess) Assign(ctx context.Context, req AssignTemplateRequest) (*models.TemplateAccess, error) {
	err := validateRequest("AssignTemplate", req)
	if err != nil {
		return nil, err
	}

	access := &models.TemplateAccess{AgentID: req.AgentID, RecipeTemplateID: req.TemplateID}

	err = a.persistence.WithTransaction(ctx, persistence.TxOptions{},
		func(ctx context.Context, tx persistence.Transaction) error {
			_, err := tx.Templates().GetByID(ctx, req.TemplateID)
			if err != nil {
				return fmt.Errorf("failed to load template: %w", err)
			}

			exists, err := tx.TemplateAccess().Exists(ctx, req.AgentID, req.TemplateID)
			if err != nil {
				return fmt.Errorf("failed to look up template access: %w", err)
			}

			if exists {
				return &TemplateError{Op: "AssignTemplate", TemplateID: req.TemplateID, Err: ErrTemplateAccessExists}
			}

			return tx.TemplateAccess().Insert(ctx, access)
		})
	if err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "template assigned", "agent_id", req.AgentID, "template_id", req.TemplateID)

	return access, nil
}

// TemplatesForAgent returns the canonical version of every template assigned to agentID,
// each at most once, in assignment order.
func (a *TemplateAccess) TemplatesForAgent(ctx context.Context, agentID string) ([]*models.RecipeTemplate, error) {
	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "template_access.list",
		attribute.String(otelhelper.AgentIDKey, agentID))

	templates := make([]*models.RecipeTemplate, 0)

	err := a.persistence.WithTransaction(ctx, persistence.TxOptions{ReadOnly: true},
		func(ctx context.Context, tx persistence.Transaction) error {
			grants, err := tx.TemplateAccess().ListByAgent(ctx, agentID)
			if err != nil {
				return fmt.Errorf("failed to list template access: %w", err)
			}

			seen := make(map[string]struct{}, len(grants))

			for _, grant := range grants {
				canonical, err := a.versions.ResolveCanonical(ctx, tx, grant.RecipeTemplateID)
				if err != nil {
					return err
				}

				if _, dup := seen[canonical]; dup {
					continue
				}

				seen[canonical] = struct{}{}

				template, err := tx.Templates().GetByID(ctx, canonical)
				if err != nil {
					return fmt.Errorf("failed to load template: %w", err)
				}

				templates = append(templates, template)
			}

			return nil
		})
	otelhelper.End(span, err)

	if err != nil {
		return nil, err
	}

	return templates, nil
}
