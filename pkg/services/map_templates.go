package services

import (
	"context"
	"fmt"

	"github.com/recipemap/recipemap/pkg/models"
	"github.com/recipemap/recipemap/pkg/otelhelper"
	"github.com/recipemap/recipemap/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

type CreateMapTemplateRequest struct {
	Name string              `json:"name" validate:"required,min=1"`
	Type models.TemplateType `json:"type" validate:"required,variant"`
}

// MapTemplates manages map templates and their aggregated read model.
type MapTemplates struct {
	core
}

func NewMapTemplates(deps Deps) *MapTemplates {
	return &MapTemplates{core: newCore(deps, "map_templates")}
}

func (m *MapTemplates) Create(ctx context.Context, req CreateMapTemplateRequest) (*models.MapTemplate, error) {
	err := validateRequest("CreateMapTemplate", req)
	if err != nil {
		return nil, err
	}

	mapTemplate := &models.MapTemplate{Name: req.Name, Type: req.Type}

	err = m.persistence.WithTransaction(ctx, persistence.TxOptions{},
		func(ctx context.Context, tx persistence.Transaction) error {
			return tx.MapTemplates().Insert(ctx, mapTemplate)
		})
	if err != nil {
		return nil, fmt.Errorf("failed to create map template: %w", err)
	}

	m.logger.InfoContext(ctx, "map template created", "map_template_id", mapTemplate.ID, "name", mapTemplate.Name)

	return mapTemplate, nil
}

// Get returns the map template with every template version and blacklist rule it holds.
func (m *MapTemplates) Get(ctx context.Context, id string) (*models.MapTemplateView, error) {
	ctx, span := otelhelper.StartSpan(ctx, m.tracer, "map_template.get",
		attribute.String(otelhelper.MapTemplateIDKey, id))

	var view *models.MapTemplateView

	err := m.persistence.WithTransaction(ctx, persistence.TxOptions{ReadOnly: true},
		func(ctx context.Context, tx persistence.Transaction) error {
			var err error

			view, err = loadMapTemplateView(ctx, tx, id)

			return err
		})
	otelhelper.End(span, err)

	if err != nil {
		return nil, err
	}

	return view, nil
}

func (m *MapTemplates) List(ctx context.Context) ([]*models.MapTemplate, error) {
	var mapTemplates []*models.MapTemplate

	err := m.persistence.WithTransaction(ctx, persistence.TxOptions{ReadOnly: true},
		func(ctx context.Context, tx persistence.Transaction) error {
			var err error

			mapTemplates, err = tx.MapTemplates().List(ctx)

			return err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list map templates: %w", err)
	}

	return mapTemplates, nil
}

func loadMapTemplateView(ctx context.Context, tx persistence.Transaction, mapTemplateID string) (*models.MapTemplateView, error) {
	mapTemplate, err := tx.MapTemplates().GetByID(ctx, mapTemplateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load map template: %w", err)
	}

	templates, err := tx.Templates().ListByMapTemplate(ctx, mapTemplateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	rules, err := tx.Blacklists().ListByMapTemplate(ctx, mapTemplateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blacklist rules: %w", err)
	}

	view := &models.MapTemplateView{
		Map:        mapTemplate,
		Templates:  make([]*models.RecipeTemplateWithFlows, 0, len(templates)),
		Blacklists: rules,
	}

	for _, template := range templates {
		withFlows, err := loadTemplateWithFlows(ctx, tx, template)
		if err != nil {
			return nil, err
		}

		view.Templates = append(view.Templates, withFlows)
	}

	if view.Blacklists == nil {
		view.Blacklists = make([]*models.BlacklistRule, 0)
	}

	return view, nil
}

func loadTemplateWithFlows(ctx context.Context, tx persistence.Transaction, template *models.RecipeTemplate) (*models.RecipeTemplateWithFlows, error) {
	flows, err := tx.Flows().ListByTemplate(ctx, template.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows of template %s: %w", template.ID, err)
	}

	result := &models.RecipeTemplateWithFlows{
		RecipeTemplate: *template,
		Flows:          make([]*models.FlowTemplateWithFields, 0, len(flows)),
	}

	for _, flow := range flows {
		groups, err := tx.DataFields().ListGroupsByFlow(ctx, flow.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list groups of flow %s: %w", flow.ID, err)
		}

		fields, err := tx.DataFields().ListByFlow(ctx, flow.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list fields of flow %s: %w", flow.ID, err)
		}

		if groups == nil {
			groups = make([]*models.FieldGroup, 0)
		}

		if fields == nil {
			fields = make([]*models.DataFieldDeclaration, 0)
		}

		result.Flows = append(result.Flows, &models.FlowTemplateWithFields{
			RecipeFlowTemplate: *flow,
			DataFields:         fields,
			Groups:             groups,
		})
	}

	return result, nil
}
