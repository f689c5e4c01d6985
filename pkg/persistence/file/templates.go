package file

import (
	"context"
	"time"

	"github.com/recipemap/recipemap/pkg/models"
	"github.com/recipemap/recipemap/pkg/persistence"
)

func copyOf[T any](v *T) *T {
	c := *v

	return &c
}

type mapTemplateRepository struct {
	data *dataset
}

func (r *mapTemplateRepository) Insert(_ context.Context, mapTemplate *models.MapTemplate) error {
	id, err := newID(mapTemplate.ID)
	if err != nil {
		return err
	}

	mapTemplate.ID = id
	if mapTemplate.CreatedAt.IsZero() {
		mapTemplate.CreatedAt = time.Now().UTC()
	}

	r.data.MapTemplates = append(r.data.MapTemplates, copyOf(mapTemplate))

	return nil
}

func (r *mapTemplateRepository) GetByID(_ context.Context, id string) (*models.MapTemplate, error) {
	for _, m := range r.data.MapTemplates {
		if m.ID == id {
			return copyOf(m), nil
		}
	}

	return nil, persistence.NewRecordError("GetByID", "map_templates", id, persistence.ErrMapTemplateNotFound)
}

func (r *mapTemplateRepository) List(_ context.Context) ([]*models.MapTemplate, error) {
	res := make([]*models.MapTemplate, 0, len(r.data.MapTemplates))
	for _, m := range r.data.MapTemplates {
		res = append(res, copyOf(m))
	}

	return res, nil
}

type templateRepository struct {
	data *dataset
}

func (r *templateRepository) Insert(_ context.Context, template *models.RecipeTemplate) error {
	for _, existing := range r.data.Templates {
		if existing.MapTemplateID == template.MapTemplateID &&
			existing.Identifier == template.Identifier &&
			existing.Version == template.Version {
			return persistence.NewRecordError("Insert", "recipe_templates", template.Identifier, persistence.ErrDuplicateKey)
		}
	}

	id, err := newID(template.ID)
	if err != nil {
		return err
	}

	template.ID = id
	if template.CreatedAt.IsZero() {
		template.CreatedAt = time.Now().UTC()
	}

	r.data.Templates = append(r.data.Templates, copyOf(template))

	return nil
}

func (r *templateRepository) GetByID(_ context.Context, id string) (*models.RecipeTemplate, error) {
	for _, t := range r.data.Templates {
		if t.ID == id {
			return copyOf(t), nil
		}
	}

	return nil, persistence.NewRecordError("GetByID", "recipe_templates", id, persistence.ErrTemplateNotFound)
}

func (r *templateRepository) GetByIdentifier(_ context.Context, mapTemplateID, identifier string) (*models.RecipeTemplate, error) {
	for _, t := range r.data.Templates {
		if t.MapTemplateID == mapTemplateID && t.Identifier == identifier && t.OverriddenBy == nil {
			return copyOf(t), nil
		}
	}

	return nil, persistence.NewRecordError("GetByIdentifier", "recipe_templates", identifier, persistence.ErrTemplateNotFound)
}

func (r *templateRepository) ListByMapTemplate(_ context.Context, mapTemplateID string) ([]*models.RecipeTemplate, error) {
	res := make([]*models.RecipeTemplate, 0)

	for _, t := range r.data.Templates {
		if t.MapTemplateID == mapTemplateID {
			res = append(res, copyOf(t))
		}
	}

	return res, nil
}

func (r *templateRepository) SetOverriddenBy(_ context.Context, id, overriddenBy string) error {
	for _, t := range r.data.Templates {
		if t.ID == id {
			next := overriddenBy
			t.OverriddenBy = &next

			return nil
		}
	}

	return persistence.NewRecordError("SetOverriddenBy", "recipe_templates", id, persistence.ErrTemplateNotFound)
}

type flowRepository struct {
	data *dataset
}

func (r *flowRepository) Insert(_ context.Context, flow *models.RecipeFlowTemplate) error {
	for _, existing := range r.data.Flows {
		if existing.RecipeTemplateID == flow.RecipeTemplateID && existing.Identifier == flow.Identifier {
			return persistence.NewRecordError("Insert", "recipe_flow_templates", flow.Identifier, persistence.ErrDuplicateKey)
		}
	}

	id, err := newID(flow.ID)
	if err != nil {
		return err
	}

	flow.ID = id
	r.data.Flows = append(r.data.Flows, copyOf(flow))

	return nil
}

func (r *flowRepository) ListByTemplate(_ context.Context, templateID string) ([]*models.RecipeFlowTemplate, error) {
	res := make([]*models.RecipeFlowTemplate, 0)

	for _, f := range r.data.Flows {
		if f.RecipeTemplateID == templateID {
			res = append(res, copyOf(f))
		}
	}

	return res, nil
}

func (r *flowRepository) GetByIdentifier(_ context.Context, templateID, identifier string) (*models.RecipeFlowTemplate, error) {
	for _, f := range r.data.Flows {
		if f.RecipeTemplateID == templateID && f.Identifier == identifier {
			return copyOf(f), nil
		}
	}

	return nil, persistence.NewRecordError("GetByIdentifier", "recipe_flow_templates", identifier, persistence.ErrFlowTemplateNotFound)
}

type dataFieldRepository struct {
	data *dataset
}

func (r *dataFieldRepository) InsertGroup(_ context.Context, group *models.FieldGroup) error {
	id, err := newID(group.ID)
	if err != nil {
		return err
	}

	group.ID = id
	r.data.Groups = append(r.data.Groups, copyOf(group))

	return nil
}

func (r *dataFieldRepository) ListGroupsByFlow(_ context.Context, flowID string) ([]*models.FieldGroup, error) {
	res := make([]*models.FieldGroup, 0)

	for _, g := range r.data.Groups {
		if g.RecipeFlowTemplateID == flowID {
			res = append(res, copyOf(g))
		}
	}

	return res, nil
}

func (r *dataFieldRepository) Insert(_ context.Context, field *models.DataFieldDeclaration) error {
	for _, existing := range r.data.DataFields {
		if existing.RecipeFlowTemplateID == field.RecipeFlowTemplateID && existing.FieldIdentifier == field.FieldIdentifier {
			return persistence.NewRecordError("Insert", "data_fields", field.FieldIdentifier, persistence.ErrDuplicateKey)
		}
	}

	id, err := newID(field.ID)
	if err != nil {
		return err
	}

	field.ID = id
	r.data.DataFields = append(r.data.DataFields, copyOf(field))

	return nil
}

func (r *dataFieldRepository) ListByFlow(_ context.Context, flowID string) ([]*models.DataFieldDeclaration, error) {
	res := make([]*models.DataFieldDeclaration, 0)

	for _, f := range r.data.DataFields {
		if f.RecipeFlowTemplateID == flowID {
			res = append(res, copyOf(f))
		}
	}

	return res, nil
}

func (r *dataFieldRepository) GetByIdentifier(_ context.Context, flowID, fieldIdentifier string) (*models.DataFieldDeclaration, error) {
	for _, f := range r.data.DataFields {
		if f.RecipeFlowTemplateID == flowID && f.FieldIdentifier == fieldIdentifier {
			return copyOf(f), nil
		}
	}

	return nil, persistence.NewRecordError("GetByIdentifier", "data_fields", fieldIdentifier, persistence.ErrDataFieldNotFound)
}

type blacklistRepository struct {
	data *dataset
}

func (r *blacklistRepository) Insert(_ context.Context, rule *models.BlacklistRule) error {
	for _, existing := range r.data.Blacklists {
		if existing.MapTemplateID == rule.MapTemplateID &&
			existing.RecipeTemplateID == rule.RecipeTemplateID &&
			existing.RecipeTemplatePredecessorID == rule.RecipeTemplatePredecessorID {
			return persistence.NewRecordError("Insert", "blacklist_rules", rule.RecipeTemplateID, persistence.ErrDuplicateKey)
		}
	}

	id, err := newID(rule.ID)
	if err != nil {
		return err
	}

	rule.ID = id
	r.data.Blacklists = append(r.data.Blacklists, copyOf(rule))

	return nil
}

func (r *blacklistRepository) ListByMapTemplate(_ context.Context, mapTemplateID string) ([]*models.BlacklistRule, error) {
	res := make([]*models.BlacklistRule, 0)

	for _, b := range r.data.Blacklists {
		if b.MapTemplateID == mapTemplateID {
			res = append(res, copyOf(b))
		}
	}

	return res, nil
}

func (r *blacklistRepository) ListTouching(_ context.Context, templateID string) ([]*models.BlacklistRule, error) {
	res := make([]*models.BlacklistRule, 0)

	for _, b := range r.data.Blacklists {
		if b.RecipeTemplateID == templateID || b.RecipeTemplatePredecessorID == templateID {
			res = append(res, copyOf(b))
		}
	}

	return res, nil
}

func (r *blacklistRepository) Exists(_ context.Context, successorID, predecessorID string) (bool, error) {
	for _, b := range r.data.Blacklists {
		if b.RecipeTemplateID == successorID && b.RecipeTemplatePredecessorID == predecessorID {
			return true, nil
		}
	}

	return false, nil
}

func (r *blacklistRepository) DeleteTouching(_ context.Context, mapTemplateID, templateID string) (int64, error) {
	kept := make([]*models.BlacklistRule, 0, len(r.data.Blacklists))

	var deleted int64

	for _, b := range r.data.Blacklists {
		if b.MapTemplateID == mapTemplateID &&
			(b.RecipeTemplateID == templateID || b.RecipeTemplatePredecessorID == templateID) {
			deleted++

			continue
		}

		kept = append(kept, b)
	}

	r.data.Blacklists = kept

	return deleted, nil
}

func (r *blacklistRepository) Repoint(_ context.Context, fromTemplateID, toTemplateID string) (int64, error) {
	var moved int64

	for _, b := range r.data.Blacklists {
		touched := false

		if b.RecipeTemplateID == fromTemplateID {
			b.RecipeTemplateID = toTemplateID
			touched = true
		}

		if b.RecipeTemplatePredecessorID == fromTemplateID {
			b.RecipeTemplatePredecessorID = toTemplateID
			touched = true
		}

		if touched {
			moved++
		}
	}

	return moved, nil
}

type accessRepository struct {
	data *dataset
}

func (r *accessRepository) Insert(_ context.Context, access *models.TemplateAccess) error {
	for _, existing := range r.data.Access {
		if existing.AgentID == access.AgentID && existing.RecipeTemplateID == access.RecipeTemplateID {
			return persistence.NewRecordError("Insert", "template_access", access.AgentID, persistence.ErrDuplicateKey)
		}
	}

	id, err := newID(access.ID)
	if err != nil {
		return err
	}

	access.ID = id
	r.data.Access = append(r.data.Access, copyOf(access))

	return nil
}

func (r *accessRepository) Exists(_ context.Context, agentID, templateID string) (bool, error) {
	for _, a := range r.data.Access {
		if a.AgentID == agentID && a.RecipeTemplateID == templateID {
			return true, nil
		}
	}

	return false, nil
}

func (r *accessRepository) ListByAgent(_ context.Context, agentID string) ([]*models.TemplateAccess, error) {
	res := make([]*models.TemplateAccess, 0)

	for _, a := range r.data.Access {
		if a.AgentID == agentID {
			res = append(res, copyOf(a))
		}
	}

	return res, nil
}
