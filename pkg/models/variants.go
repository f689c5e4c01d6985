package models

// TemplateType classifies a map template.
type TemplateType string

const (
	TemplateTypeFDA    TemplateType = "FDA"    // Regulatory template set
	TemplateTypeCustom TemplateType = "Custom" // Organization-defined template set
)

func (t TemplateType) IsValid() bool {
	switch t {
	case TemplateTypeFDA, TemplateTypeCustom:
		return true
	default:
		return false
	}
}

// EventType is the kind of event a flow template records.
type EventType string

const (
	EventTypeEconomicEvent EventType = "EconomicEvent"
)

func (e EventType) IsValid() bool {
	switch e {
	case EventTypeEconomicEvent:
		return true
	default:
		return false
	}
}

// RoleType tells whether a flow enters or leaves a process.
type RoleType string

const (
	RoleTypeInput  RoleType = "Input"
	RoleTypeOutput RoleType = "Output"
)

func (r RoleType) IsValid() bool {
	switch r {
	case RoleTypeInput, RoleTypeOutput:
		return true
	default:
		return false
	}
}

// ActionType is the ValueFlows action verb of a flow, commitment or trigger.
type ActionType string

const (
	ActionTypeCite     ActionType = "cite"
	ActionTypeProduce  ActionType = "produce"
	ActionTypeConsume  ActionType = "consume"
	ActionTypeTransfer ActionType = "transfer"
	ActionTypeUse      ActionType = "use"
	ActionTypeLoad     ActionType = "load"
	ActionTypeUnload   ActionType = "unload"
)

func (a ActionType) IsValid() bool {
	switch a {
	case ActionTypeCite, ActionTypeProduce, ActionTypeConsume, ActionTypeTransfer,
		ActionTypeUse, ActionTypeLoad, ActionTypeUnload:
		return true
	default:
		return false
	}
}

// FieldClass is the semantic class of a data field declaration.
type FieldClass string

const (
	FieldClassProduct            FieldClass = "product"
	FieldClassQuantity           FieldClass = "quantity"
	FieldClassLocation           FieldClass = "location"
	FieldClassTime               FieldClass = "time"
	FieldClassTrackingIdentifier FieldClass = "tracking_identifier"
	FieldClassCustom             FieldClass = "custom"
)

func (f FieldClass) IsValid() bool {
	switch f {
	case FieldClassProduct, FieldClassQuantity, FieldClassLocation, FieldClassTime,
		FieldClassTrackingIdentifier, FieldClassCustom:
		return true
	default:
		return false
	}
}

// FieldType is the value type a data field accepts.
type FieldType string

const (
	FieldTypeText   FieldType = "Text"
	FieldTypeDate   FieldType = "Date"
	FieldTypeNumber FieldType = "Number"
	FieldTypeSelect FieldType = "Select"
)

func (f FieldType) IsValid() bool {
	switch f {
	case FieldTypeText, FieldTypeDate, FieldTypeNumber, FieldTypeSelect:
		return true
	default:
		return false
	}
}

// FlowThrough tells whether a field value stays inside the recipe or is exchanged with
// another agent.
type FlowThrough string

const (
	FlowThroughInternal FlowThrough = "internal"
	FlowThroughExternal FlowThrough = "external"
)

func (f FlowThrough) IsValid() bool {
	switch f {
	case FlowThroughInternal, FlowThroughExternal:
		return true
	default:
		return false
	}
}

// FieldGroupClass classifies a group of data fields shown together.
type FieldGroupClass string

const (
	FieldGroupClassResourceSpecification FieldGroupClass = "ResourceSpecification"
	FieldGroupClassEconomicResource      FieldGroupClass = "EconomicResource"
	FieldGroupClassLocation              FieldGroupClass = "Location"
	FieldGroupClassCustom                FieldGroupClass = "Custom"
	FieldGroupClassReferenceDocument     FieldGroupClass = "ReferenceDocument"
)

func (f FieldGroupClass) IsValid() bool {
	switch f {
	case FieldGroupClassResourceSpecification, FieldGroupClassEconomicResource,
		FieldGroupClassLocation, FieldGroupClassCustom, FieldGroupClassReferenceDocument:
		return true
	default:
		return false
	}
}
