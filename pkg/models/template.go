// Package models defines the domain models for process templates and recipes.
package models

import "time"

// MapTemplate is a named collection of recipe templates.
type MapTemplate struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"       validate:"required,min=1"`
	Type      TemplateType `json:"type"       validate:"required,oneof=FDA Custom"`
	CreatedAt time.Time    `json:"created_at"`
}

// RecipeTemplate is one version of a process template in a map template.
//
// Versions form a chain through OverriddenBy. The template at the end of the chain,
// the one with no OverriddenBy, is the canonical version.
type RecipeTemplate struct {
	ID            string      `json:"id"`
	MapTemplateID string      `json:"map_template_id" validate:"required"`
	Identifier    string      `json:"identifier"      validate:"required,min=1"` // Stable across versions
	Name          string      `json:"name"            validate:"required,min=1"`
	Version       int         `json:"version"         validate:"min=1"`
	OverriddenBy  *string     `json:"overridden_by,omitempty"`
	FirstVersion  *string     `json:"first_version,omitempty"` // Cached id of version 1
	Commitment    *ActionType `json:"commitment,omitempty"`
	Trigger       *ActionType `json:"trigger,omitempty"`
	Fulfills      *string     `json:"fulfills,omitempty"` // Template this one completes
	CreatedBy     *string     `json:"created_by,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// IsCanonical reports whether no newer version supersedes this template.
func (t *RecipeTemplate) IsCanonical() bool {
	return t.OverriddenBy == nil
}

// RecipeFlowTemplate is an input or output declaration of a recipe template.
type RecipeFlowTemplate struct {
	ID               string     `json:"id"`
	RecipeTemplateID string     `json:"recipe_template_id"`
	EventType        EventType  `json:"event_type"         validate:"required"`
	RoleType         RoleType   `json:"role_type"          validate:"required,oneof=Input Output"`
	Action           ActionType `json:"action"             validate:"required"`
	Identifier       string     `json:"identifier"         validate:"required,min=1"` // Unique within the template
	Interactions     *int       `json:"interactions,omitempty"`
}

// FieldGroup gathers data fields of a flow that are rendered together.
type FieldGroup struct {
	ID                   string          `json:"id"`
	RecipeFlowTemplateID string          `json:"recipe_flow_template_id"`
	Name                 string          `json:"name"  validate:"required"`
	Class                FieldGroupClass `json:"class" validate:"required"`
}

// DataFieldDeclaration is a typed field attached to a flow template.
type DataFieldDeclaration struct {
	ID                   string       `json:"id"`
	RecipeFlowTemplateID string       `json:"recipe_flow_template_id"`
	GroupID              *string      `json:"group_id,omitempty"`
	FieldIdentifier      string       `json:"field_identifier" validate:"required"`
	FieldClass           FieldClass   `json:"field_class"      validate:"required"`
	Field                string       `json:"field"            validate:"required"`
	FieldType            FieldType    `json:"field_type"       validate:"required"`
	Note                 *string      `json:"note,omitempty"`
	Required             bool         `json:"required"`
	FlowThrough          *FlowThrough `json:"flow_through,omitempty"`
	Inherits             *string      `json:"inherits,omitempty"` // Resolved DataFieldDeclaration id
	AcceptDefault        bool         `json:"accept_default"`
	DefaultValue         *string      `json:"default_value,omitempty"`
}

// BlacklistRule forbids one template from directly preceding another inside a map template.
// Both ids are canonical template ids. The rule is directed.
type BlacklistRule struct {
	ID                          string `json:"id"`
	MapTemplateID               string `json:"map_template_id"`
	RecipeTemplateID            string `json:"recipe_template_id"             validate:"required"` // Successor
	RecipeTemplatePredecessorID string `json:"recipe_template_predecessor_id" validate:"required"`
}

// TemplateAccess grants an agent the use of a recipe template.
type TemplateAccess struct {
	ID               string `json:"id"`
	AgentID          string `json:"agent_id"`
	RecipeTemplateID string `json:"recipe_template_id"`
}

// FlowTemplateWithFields is the read model of a flow template.
type FlowTemplateWithFields struct {
	RecipeFlowTemplate

	DataFields []*DataFieldDeclaration `json:"data_fields"`
	Groups     []*FieldGroup           `json:"groups"`
}

// RecipeTemplateWithFlows is the read model of a recipe template.
type RecipeTemplateWithFlows struct {
	RecipeTemplate

	Flows []*FlowTemplateWithFields `json:"flows"`
}

// MapTemplateView is the read model of a map template with its templates and rules.
type MapTemplateView struct {
	Map        *MapTemplate               `json:"map"`
	Templates  []*RecipeTemplateWithFlows `json:"templates"`
	Blacklists []*BlacklistRule           `json:"blacklists"`
}
