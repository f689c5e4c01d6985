package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/recipemap/recipemap/pkg/events"
	"github.com/recipemap/recipemap/pkg/models"
	"github.com/recipemap/recipemap/pkg/otelhelper"
	"github.com/recipemap/recipemap/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

// InheritsRequest points a field at a field declared in another flow.
type InheritsRequest struct {
	// TemplateID defaults to the template being written, so a field may inherit from a
	// flow declared earlier in the same request.
	TemplateID      string `json:"template_id,omitempty"`
	FlowIdentifier  string `json:"flow_identifier"  validate:"required"`
	FieldIdentifier string `json:"field_identifier" validate:"required"`
}

type DataFieldRequest struct {
	FieldIdentifier string              `json:"field_identifier" validate:"required"`
	FieldClass      models.FieldClass   `json:"field_class"      validate:"required,variant"`
	Field           string              `json:"field"            validate:"required"`
	FieldType       models.FieldType    `json:"field_type"       validate:"required,variant"`
	Note            *string             `json:"note,omitempty"`
	Required        bool                `json:"required"`
	FlowThrough     *models.FlowThrough `json:"flow_through,omitempty" validate:"omitempty,variant"`
	Inherits        *InheritsRequest    `json:"inherits,omitempty"`
	AcceptDefault   bool                `json:"accept_default"`
	DefaultValue    *string             `json:"default_value,omitempty"`
}

// FieldGroupRequest declares a group by the identifiers of its fields.
// An entry may hold several identifiers separated by commas.
type FieldGroupRequest struct {
	Name   string                 `json:"name"   validate:"required"`
	Class  models.FieldGroupClass `json:"class"  validate:"required,variant"`
	Fields []string               `json:"fields"`
}

type FlowTemplateRequest struct {
	EventType    models.EventType    `json:"event_type"   validate:"required,variant"`
	RoleType     models.RoleType     `json:"role_type"    validate:"required,variant"`
	Action       models.ActionType   `json:"action"       validate:"required,variant"`
	Identifier   string              `json:"identifier"   validate:"required"`
	Interactions *int                `json:"interactions,omitempty" validate:"omitempty,min=0"`
	DataFields   []DataFieldRequest  `json:"data_fields"  validate:"dive"`
	Groups       []FieldGroupRequest `json:"groups"       validate:"dive"`
}

// CreateRecipeTemplateRequest describes a template version with its flows and fields.
// On override MapTemplateID and Identifier may be left empty; they come from the old version.
type CreateRecipeTemplateRequest struct {
	MapTemplateID string                `json:"map_template_id"`
	Identifier    string                `json:"identifier"`
	Name          string                `json:"name"       validate:"required"`
	Commitment    *models.ActionType    `json:"commitment,omitempty" validate:"omitempty,variant"`
	Trigger       *models.ActionType    `json:"trigger,omitempty"    validate:"omitempty,variant"`
	Fulfills      *string               `json:"fulfills,omitempty"` // Identifier of a template in the same map
	CreatedBy     *string               `json:"created_by,omitempty"`
	Flows         []FlowTemplateRequest `json:"flows"      validate:"dive"`
}

// TemplateEditor creates recipe templates and new versions of them.
type TemplateEditor struct {
	core

	inheritance *FieldInheritance
}

func NewTemplateEditor(deps Deps, inheritance *FieldInheritance) *TemplateEditor {
	return &TemplateEditor{core: newCore(deps, "template_editor"), inheritance: inheritance}
}

// CreateTemplate stores version 1 of a template with its flows, groups and fields.
func (e *TemplateEditor) CreateTemplate(ctx context.Context, req CreateRecipeTemplateRequest) (*models.RecipeTemplateWithFlows, error) {
	err := e.validate("CreateTemplate", req)
	if err != nil {
		return nil, err
	}

	if req.MapTemplateID == "" || req.Identifier == "" {
		return nil, NewValidationError("CreateTemplate", "invalid_request",
			"map_template_id and identifier are required", ErrInvalidRequest)
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "template.create",
		attribute.String(otelhelper.MapTemplateIDKey, req.MapTemplateID),
		attribute.String(otelhelper.TemplateIdentKey, req.Identifier),
	)

	var created *models.RecipeTemplateWithFlows

	err = e.persistence.WithTransaction(ctx, persistence.TxOptions{},
		func(ctx context.Context, tx persistence.Transaction) error {
			_, err := tx.MapTemplates().GetByID(ctx, req.MapTemplateID)
			if err != nil {
				return fmt.Errorf("failed to load map template: %w", err)
			}

			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate template ID: %w", err)
			}

			firstVersion := id.String()
			template := &models.RecipeTemplate{
				ID:            id.String(),
				MapTemplateID: req.MapTemplateID,
				Identifier:    req.Identifier,
				Version:       1,
				FirstVersion:  &firstVersion,
			}

			created, err = e.insert(ctx, tx, template, req)

			return err
		})
	otelhelper.End(span, err)

	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "template created",
		"template_id", created.ID, "identifier", created.Identifier, "map_template_id", created.MapTemplateID)

	e.publish(ctx, events.TemplateCreated{
		BaseEvent:     newBaseEvent(events.TemplateCreatedEvent),
		MapTemplateID: created.MapTemplateID,
		TemplateID:    created.ID,
		Identifier:    created.Identifier,
		Version:       created.Version,
	})

	return created, nil
}

// OverrideTemplate stores a new version of oldID and points oldID at it, in one SERIALIZABLE
// transaction. Blacklist rules naming oldID move to the new version.
func (e *TemplateEditor) OverrideTemplate(ctx context.Context, oldID string, req CreateRecipeTemplateRequest) (*models.RecipeTemplateWithFlows, error) {
	err := e.validate("OverrideTemplate", req)
	if err != nil {
		return nil, err
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "template.override",
		attribute.String(otelhelper.TemplateIDKey, oldID))

	var (
		created *models.RecipeTemplateWithFlows
		moved   int64
	)

	err = e.persistence.WithTransaction(ctx, persistence.TxOptions{Serializable: true},
		func(ctx context.Context, tx persistence.Transaction) error {
			old, err := tx.Templates().GetByID(ctx, oldID)
			if err != nil {
				return fmt.Errorf("failed to load template: %w", err)
			}

			if !old.IsCanonical() {
				return &TemplateError{Op: "OverrideTemplate", TemplateID: oldID, Err: ErrAlreadyOverridden}
			}

			if (req.MapTemplateID != "" && req.MapTemplateID != old.MapTemplateID) ||
				(req.Identifier != "" && req.Identifier != old.Identifier) {
				return NewValidationError("OverrideTemplate", "invalid_request",
					"a new version keeps the map template and identifier of the old one", ErrInvalidRequest)
			}

			firstVersion := old.ID
			if old.FirstVersion != nil {
				firstVersion = *old.FirstVersion
			}

			template := &models.RecipeTemplate{
				MapTemplateID: old.MapTemplateID,
				Identifier:    old.Identifier,
				Version:       old.Version + 1,
				FirstVersion:  &firstVersion,
			}

			created, err = e.insert(ctx, tx, template, req)
			if err != nil {
				return err
			}

			err = tx.Templates().SetOverriddenBy(ctx, old.ID, created.ID)
			if err != nil {
				return fmt.Errorf("failed to link new version: %w", err)
			}

			moved, err = tx.Blacklists().Repoint(ctx, old.ID, created.ID)
			if err != nil {
				return fmt.Errorf("failed to move blacklist rules: %w", err)
			}

			return nil
		})
	otelhelper.End(span, err)

	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "template overridden",
		"previous_id", oldID, "template_id", created.ID, "version", created.Version, "rules_moved", moved)

	e.publish(ctx, events.TemplateOverridden{
		BaseEvent:     newBaseEvent(events.TemplateOverriddenEvent),
		MapTemplateID: created.MapTemplateID,
		PreviousID:    oldID,
		TemplateID:    created.ID,
		FirstVersion:  *created.FirstVersion,
		Version:       created.Version,
	})

	return created, nil
}

// GetTemplate returns a template with its flows, groups and fields.
func (e *TemplateEditor) GetTemplate(ctx context.Context, id string) (*models.RecipeTemplateWithFlows, error) {
	var result *models.RecipeTemplateWithFlows

	err := e.persistence.WithTransaction(ctx, persistence.TxOptions{ReadOnly: true},
		func(ctx context.Context, tx persistence.Transaction) error {
			template, err := tx.Templates().GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load template: %w", err)
			}

			result, err = loadTemplateWithFlows(ctx, tx, template)

			return err
		})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (e *TemplateEditor) validate(op string, req CreateRecipeTemplateRequest) error {
	err := validateRequest(op, req)
	if err != nil {
		return err
	}

	for _, flow := range req.Flows {
		for _, field := range flow.DataFields {
			if field.DefaultValue == nil {
				continue
			}

			err := validateDefaultValue(field.FieldType, *field.DefaultValue)
			if err != nil {
				return &TemplateError{Op: op, TemplateID: req.Identifier, Err: fmt.Errorf("field %s.%s: %w",
					flow.Identifier, field.FieldIdentifier, err)}
			}
		}
	}

	return nil
}

// insert writes template, then each flow with its groups and fields in request order.
func (e *TemplateEditor) insert(ctx context.Context, tx persistence.Transaction, template *models.RecipeTemplate, req CreateRecipeTemplateRequest) (*models.RecipeTemplateWithFlows, error) {
	template.Name = req.Name
	template.Commitment = req.Commitment
	template.Trigger = req.Trigger
	template.CreatedBy = req.CreatedBy

	if req.Fulfills != nil {
		fulfilled, err := tx.Templates().GetByIdentifier(ctx, template.MapTemplateID, *req.Fulfills)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve fulfilled template %s: %w", *req.Fulfills, err)
		}

		template.Fulfills = &fulfilled.ID
	}

	err := tx.Templates().Insert(ctx, template)
	if err != nil {
		return nil, fmt.Errorf("failed to insert template: %w", err)
	}

	result := &models.RecipeTemplateWithFlows{
		RecipeTemplate: *template,
		Flows:          make([]*models.FlowTemplateWithFields, 0, len(req.Flows)),
	}

	for _, flowReq := range req.Flows {
		flow, err := e.insertFlow(ctx, tx, template.ID, flowReq)
		if err != nil {
			return nil, err
		}

		result.Flows = append(result.Flows, flow)
	}

	return result, nil
}

func (e *TemplateEditor) insertFlow(ctx context.Context, tx persistence.Transaction, templateID string, req FlowTemplateRequest) (*models.FlowTemplateWithFields, error) {
	flow := &models.RecipeFlowTemplate{
		RecipeTemplateID: templateID,
		EventType:        req.EventType,
		RoleType:         req.RoleType,
		Action:           req.Action,
		Identifier:       req.Identifier,
		Interactions:     req.Interactions,
	}

	err := tx.Flows().Insert(ctx, flow)
	if err != nil {
		return nil, fmt.Errorf("failed to insert flow %s: %w", req.Identifier, err)
	}

	result := &models.FlowTemplateWithFields{
		RecipeFlowTemplate: *flow,
		DataFields:         make([]*models.DataFieldDeclaration, 0, len(req.DataFields)),
		Groups:             make([]*models.FieldGroup, 0, len(req.Groups)),
	}

	membership, err := groupMembership(req)
	if err != nil {
		return nil, err
	}

	groupIDs := make([]string, 0, len(req.Groups))

	for _, groupReq := range req.Groups {
		group := &models.FieldGroup{
			RecipeFlowTemplateID: flow.ID,
			Name:                 groupReq.Name,
			Class:                groupReq.Class,
		}

		err := tx.DataFields().InsertGroup(ctx, group)
		if err != nil {
			return nil, fmt.Errorf("failed to insert group %s: %w", groupReq.Name, err)
		}

		groupIDs = append(groupIDs, group.ID)
		result.Groups = append(result.Groups, group)
	}

	for _, fieldReq := range req.DataFields {
		field := &models.DataFieldDeclaration{
			RecipeFlowTemplateID: flow.ID,
			FieldIdentifier:      fieldReq.FieldIdentifier,
			FieldClass:           fieldReq.FieldClass,
			Field:                fieldReq.Field,
			FieldType:            fieldReq.FieldType,
			Note:                 fieldReq.Note,
			Required:             fieldReq.Required,
			FlowThrough:          fieldReq.FlowThrough,
			AcceptDefault:        fieldReq.AcceptDefault,
			DefaultValue:         fieldReq.DefaultValue,
		}

		if position, ok := membership[fieldReq.FieldIdentifier]; ok {
			field.GroupID = &groupIDs[position]
		}

		if fieldReq.Inherits != nil {
			source := fieldReq.Inherits.TemplateID
			if source == "" {
				source = templateID
			}

			inherited, err := e.inheritance.Resolve(ctx, tx, source,
				fieldReq.Inherits.FlowIdentifier, fieldReq.Inherits.FieldIdentifier)
			if err != nil {
				return nil, err
			}

			field.Inherits = &inherited
		}

		err := tx.DataFields().Insert(ctx, field)
		if err != nil {
			return nil, fmt.Errorf("failed to insert field %s: %w", fieldReq.FieldIdentifier, err)
		}

		result.DataFields = append(result.DataFields, field)
	}

	return result, nil
}

// groupMembership maps each grouped field identifier to the position of its group.
func groupMembership(req FlowTemplateRequest) (map[string]int, error) {
	declared := make(map[string]struct{}, len(req.DataFields))
	for _, field := range req.DataFields {
		declared[field.FieldIdentifier] = struct{}{}
	}

	membership := make(map[string]int)

	for position, group := range req.Groups {
		for _, entry := range group.Fields {
			for _, identifier := range strings.Split(entry, ",") {
				identifier = strings.TrimSpace(identifier)
				if identifier == "" {
					continue
				}

				if _, ok := declared[identifier]; !ok {
					return nil, NewValidationError("CreateTemplate", "invalid_request",
						fmt.Sprintf("group %s lists undeclared field %s in flow %s", group.Name, identifier, req.Identifier),
						ErrInvalidRequest)
				}

				if other, taken := membership[identifier]; taken && other != position {
					return nil, NewValidationError("CreateTemplate", "invalid_request",
						fmt.Sprintf("field %s belongs to more than one group in flow %s", identifier, req.Identifier),
						ErrInvalidRequest)
				}

				membership[identifier] = position
			}
		}
	}

	return membership, nil
}
