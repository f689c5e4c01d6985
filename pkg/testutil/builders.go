// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/recipemap/recipemap/pkg/models"
	"github.com/recipemap/recipemap/pkg/services"
)

// CreateTemplateRequest creates a template request with one input and one output flow.
func CreateTemplateRequest(mapTemplateID, identifier string, overrides ...func(*services.CreateRecipeTemplateRequest)) services.CreateRecipeTemplateRequest {
	req := services.CreateRecipeTemplateRequest{
		MapTemplateID: mapTemplateID,
		Identifier:    identifier,
		Name:          "Template " + identifier,
		Flows: []services.FlowTemplateRequest{
			CreateFlowRequest("input", models.RoleTypeInput, models.ActionTypeConsume),
			CreateFlowRequest("output", models.RoleTypeOutput, models.ActionTypeProduce),
		},
	}

	for _, override := range overrides {
		override(&req)
	}

	return req
}

// CreateFlowRequest creates a flow with a single product field.
func CreateFlowRequest(identifier string, role models.RoleType, action models.ActionType) services.FlowTemplateRequest {
	return services.FlowTemplateRequest{
		EventType:  models.EventTypeEconomicEvent,
		RoleType:   role,
		Action:     action,
		Identifier: identifier,
		DataFields: []services.DataFieldRequest{
			CreateDataFieldRequest("product", models.FieldTypeText),
		},
	}
}

// CreateDataFieldRequest creates a required product field of the given type.
func CreateDataFieldRequest(identifier string, fieldType models.FieldType, overrides ...func(*services.DataFieldRequest)) services.DataFieldRequest {
	field := services.DataFieldRequest{
		FieldIdentifier: identifier,
		FieldClass:      models.FieldClassProduct,
		Field:           "Field " + identifier,
		FieldType:       fieldType,
		Required:        true,
	}

	for _, override := range overrides {
		override(&field)
	}

	return field
}

// WithName sets the template name.
func WithName(name string) func(*services.CreateRecipeTemplateRequest) {
	return func(r *services.CreateRecipeTemplateRequest) {
		r.Name = name
	}
}

// WithFlows replaces the flows of the template.
func WithFlows(flows ...services.FlowTemplateRequest) func(*services.CreateRecipeTemplateRequest) {
	return func(r *services.CreateRecipeTemplateRequest) {
		r.Flows = flows
	}
}

// WithFulfills makes the template fulfill the template with the given identifier.
func WithFulfills(identifier string) func(*services.CreateRecipeTemplateRequest) {
	return func(r *services.CreateRecipeTemplateRequest) {
		r.Fulfills = &identifier
	}
}

// WithDefault sets a default value the field accepts.
func WithDefault(value string) func(*services.DataFieldRequest) {
	return func(f *services.DataFieldRequest) {
		f.AcceptDefault = true
		f.DefaultValue = &value
	}
}

// WithInherits points the field at another field.
func WithInherits(templateID, flowIdentifier, fieldIdentifier string) func(*services.DataFieldRequest) {
	return func(f *services.DataFieldRequest) {
		f.Inherits = &services.InheritsRequest{
			TemplateID:      templateID,
			FlowIdentifier:  flowIdentifier,
			FieldIdentifier: fieldIdentifier,
		}
	}
}

// Node creates an instantiation node.
func Node(nodeID, templateID string, predecessors ...string) services.InstantiateNode {
	return services.InstantiateNode{
		NodeID:       nodeID,
		TemplateID:   templateID,
		Name:         "Process " + nodeID,
		Predecessors: predecessors,
	}
}
