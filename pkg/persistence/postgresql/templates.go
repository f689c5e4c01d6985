package postgresql

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/recipemap/recipemap/pkg/models"
)

// isUUID reports whether key can be compared against a UUID column.
func isUUID(key string) bool {
	_, err := uuid.Parse(key)

	return err == nil
}

// MapTemplateRepository handles map template rows inside one transaction.
type MapTemplateRepository struct {
	tx     *sql.Tx
	logger *slog.Logger
}

func (r *MapTemplateRepository) Insert(ctx context.Context, mapTemplate *models.MapTemplate) error {
	id, err := newID(mapTemplate.ID)
	if err != nil {
		return err
	}

	if mapTemplate.CreatedAt.IsZero() {
		mapTemplate.CreatedAt = time.Now().UTC()
	}

	_, err = r.tx.ExecContext(ctx,
		`INSERT INTO map_templates (id, name, type, created_at) VALUES ($1, $2, $3, $4)`,
		id, mapTemplate.Name, mapTemplate.Type, mapTemplate.CreatedAt,
	)
	if err != nil {
		return recordError("Insert", "map_templates", id, err)
	}

	mapTemplate.ID = id

	return nil
}

func (r *MapTemplateRepository) GetByID(ctx context.Context, id string) (*models.MapTemplate, error) {
	if !isUUID(id) {
		return nil, recordError("GetByID", "map_templates", id, sql.ErrNoRows)
	}

	row := r.tx.QueryRowContext(ctx,
		`SELECT id, name, type, created_at FROM map_templates WHERE id = $1`, id)

	mapTemplate, err := scanMapTemplate(row)
	if err != nil {
		return nil, recordError("GetByID", "map_templates", id, err)
	}

	return mapTemplate, nil
}

func (r *MapTemplateRepository) List(ctx context.Context) ([]*models.MapTemplate, error) {
	result, err := queryAll(ctx, r.tx, r.logger, scanMapTemplate,
		`SELECT id, name, type, created_at FROM map_templates ORDER BY id`)
	if err != nil {
		return nil, recordError("List", "map_templates", "", err)
	}

	return result, nil
}

func scanMapTemplate(row rowScanner) (*models.MapTemplate, error) {
	var m models.MapTemplate

	err := row.Scan(&m.ID, &m.Name, &m.Type, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

const templateColumns = `
	id
  , map_template_id
  , identifier
  , name
  , version
  , overridden_by
  , first_version
  , commitment_action
  , trigger_action
  , fulfills
  , created_by
  , created_at
`

// TemplateRepository handles recipe template rows inside one transaction.
type TemplateRepository struct {
	tx     *sql.Tx
	logger *slog.Logger
}

func (r *TemplateRepository) Insert(ctx context.Context, template *models.RecipeTemplate) error {
	id, err := newID(template.ID)
	if err != nil {
		return err
	}

	if template.CreatedAt.IsZero() {
		template.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO recipe_templates (` + templateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.tx.ExecContext(ctx, query,
		id,
		template.MapTemplateID,
		template.Identifier,
		template.Name,
		template.Version,
		template.OverriddenBy,
		template.FirstVersion,
		template.Commitment,
		template.Trigger,
		template.Fulfills,
		template.CreatedBy,
		template.CreatedAt,
	)
	if err != nil {
		return recordError("Insert", "recipe_templates", id, err)
	}

	template.ID = id

	return nil
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.RecipeTemplate, error) {
	if !isUUID(id) {
		return nil, recordError("GetByID", "recipe_templates", id, sql.ErrNoRows)
	}

	row := r.tx.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM recipe_templates WHERE id = $1`, id)

	template, err := scanTemplate(row)
	if err != nil {
		return nil, recordError("GetByID", "recipe_templates", id, err)
	}

	return template, nil
}

func (r *TemplateRepository) GetByIdentifier(ctx context.Context, mapTemplateID, identifier string) (*models.RecipeTemplate, error) {
	if !isUUID(mapTemplateID) {
		return nil, recordError("GetByIdentifier", "recipe_templates", identifier, sql.ErrNoRows)
	}

	row := r.tx.QueryRowContext(ctx, `
		SELECT `+templateColumns+`
		FROM recipe_templates
		WHERE map_template_id = $1 AND identifier = $2 AND overridden_by IS NULL
		ORDER BY version DESC
		LIMIT 1
	`, mapTemplateID, identifier)

	template, err := scanTemplate(row)
	if err != nil {
		return nil, recordError("GetByIdentifier", "recipe_templates", identifier, err)
	}

	return template, nil
}

func (r *TemplateRepository) ListByMapTemplate(ctx context.Context, mapTemplateID string) ([]*models.RecipeTemplate, error) {
	if !isUUID(mapTemplateID) {
		return []*models.RecipeTemplate{}, nil
	}

	result, err := queryAll(ctx, r.tx, r.logger, scanTemplate,
		`SELECT `+templateColumns+` FROM recipe_templates WHERE map_template_id = $1 ORDER BY id`, mapTemplateID)
	if err != nil {
		return nil, recordError("ListByMapTemplate", "recipe_templates", mapTemplateID, err)
	}

	return result, nil
}

func (r *TemplateRepository) SetOverriddenBy(ctx context.Context, id, overriddenBy string) error {
	if !isUUID(id) {
		return recordError("SetOverriddenBy", "recipe_templates", id, sql.ErrNoRows)
	}

	res, err := r.tx.ExecContext(ctx, `UPDATE recipe_templates SET overridden_by = $2 WHERE id = $1`, id, overriddenBy)
	if err != nil {
		return recordError("SetOverriddenBy", "recipe_templates", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return recordError("SetOverriddenBy", "recipe_templates", id, err)
	}

	if affected == 0 {
		return recordError("SetOverriddenBy", "recipe_templates", id, sql.ErrNoRows)
	}

	return nil
}

func scanTemplate(row rowScanner) (*models.RecipeTemplate, error) {
	var t models.RecipeTemplate

	err := row.Scan(
		&t.ID,
		&t.MapTemplateID,
		&t.Identifier,
		&t.Name,
		&t.Version,
		&t.OverriddenBy,
		&t.FirstVersion,
		&t.Commitment,
		&t.Trigger,
		&t.Fulfills,
		&t.CreatedBy,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// FlowTemplateRepository handles recipe flow template rows inside one transaction.
type FlowTemplateRepository struct {
	tx     *sql.Tx
	logger *slog.Logger
}

func (r *FlowTemplateRepository) Insert(ctx context.Context, flow *models.RecipeFlowTemplate) error {
	id, err := newID(flow.ID)
	if err != nil {
		return err
	}

	_, err = r.tx.ExecContext(ctx, `
		INSERT INTO recipe_flow_templates (id, recipe_template_id, event_type, role_type, action, identifier, interactions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, flow.RecipeTemplateID, flow.EventType, flow.RoleType, flow.Action, flow.Identifier, flow.Interactions)
	if err != nil {
		return recordError("Insert", "recipe_flow_templates", flow.Identifier, err)
	}

	flow.ID = id

	return nil
}

func (r *FlowTemplateRepository) ListByTemplate(ctx context.Context, templateID string) ([]*models.RecipeFlowTemplate, error) {
	if !isUUID(templateID) {
		return []*models.RecipeFlowTemplate{}, nil
	}

	result, err := queryAll(ctx, r.tx, r.logger, scanFlow, `
		SELECT id, recipe_template_id, event_type, role_type, action, identifier, interactions
		FROM recipe_flow_templates
		WHERE recipe_template_id = $1
		ORDER BY id
	`, templateID)
	if err != nil {
		return nil, recordError("ListByTemplate", "recipe_flow_templates", templateID, err)
	}

	return result, nil
}

func (r *FlowTemplateRepository) GetByIdentifier(ctx context.Context, templateID, identifier string) (*models.RecipeFlowTemplate, error) {
	if !isUUID(templateID) {
		return nil, recordError("GetByIdentifier", "recipe_flow_templates", identifier, sql.ErrNoRows)
	}

	row := r.tx.QueryRowContext(ctx, `
		SELECT id, recipe_template_id, event_type, role_type, action, identifier, interactions
		FROM recipe_flow_templates
		WHERE recipe_template_id = $1 AND identifier = $2
	`, templateID, identifier)

	flow, err := scanFlow(row)
	if err != nil {
		return nil, recordError("GetByIdentifier", "recipe_flow_templates", identifier, err)
	}

	return flow, nil
}

func scanFlow(row rowScanner) (*models.RecipeFlowTemplate, error) {
	var f models.RecipeFlowTemplate

	err := row.Scan(&f.ID, &f.RecipeTemplateID, &f.EventType, &f.RoleType, &f.Action, &f.Identifier, &f.Interactions)
	if err != nil {
		return nil, err
	}

	return &f, nil
}

const dataFieldColumns = `
	id
  , recipe_flow_template_id
  , group_id
  , field_identifier
  , field_class
  , field
  , field_type
  , note
  , required
  , flow_through
  , inherits
  , accept_default
  , default_value
`

// DataFieldRepository handles field groups and data field declarations inside one transaction.
type DataFieldRepository struct {
	tx     *sql.Tx
	logger *slog.Logger
}

func (r *DataFieldRepository) InsertGroup(ctx context.Context, group *models.FieldGroup) error {
	id, err := newID(group.ID)
	if err != nil {
		return err
	}

	_, err = r.tx.ExecContext(ctx,
		`INSERT INTO field_groups (id, recipe_flow_template_id, name, class) VALUES ($1, $2, $3, $4)`,
		id, group.RecipeFlowTemplateID, group.Name, group.Class,
	)
	if err != nil {
		return recordError("InsertGroup", "field_groups", group.Name, err)
	}

	group.ID = id

	return nil
}

func (r *DataFieldRepository) ListGroupsByFlow(ctx context.Context, flowID string) ([]*models.FieldGroup, error) {
	result, err := queryAll(ctx, r.tx, r.logger, func(row rowScanner) (*models.FieldGroup, error) {
		var g models.FieldGroup

		err := row.Scan(&g.ID, &g.RecipeFlowTemplateID, &g.Name, &g.Class)
		if err != nil {
			return nil, err
		}

		return &g, nil
	}, `
		SELECT id, recipe_flow_template_id, name, class
		FROM field_groups
		WHERE recipe_flow_template_id = $1
		ORDER BY id
	`, flowID)
	if err != nil {
		return nil, recordError("ListGroupsByFlow", "field_groups", flowID, err)
	}

	return result, nil
}

func (r *DataFieldRepository) Insert(ctx context.Context, field *models.DataFieldDeclaration) error {
	id, err := newID(field.ID)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO data_fields (` + dataFieldColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.tx.ExecContext(ctx, query,
		id,
		field.RecipeFlowTemplateID,
		field.GroupID,
		field.FieldIdentifier,
		field.FieldClass,
		field.Field,
		field.FieldType,
		field.Note,
		field.Required,
		field.FlowThrough,
		field.Inherits,
		field.AcceptDefault,
		field.DefaultValue,
	)
	if err != nil {
		return recordError("Insert", "data_fields", field.FieldIdentifier, err)
	}

	field.ID = id

	return nil
}

func (r *DataFieldRepository) ListByFlow(ctx context.Context, flowID string) ([]*models.DataFieldDeclaration, error) {
	result, err := queryAll(ctx, r.tx, r.logger, scanDataField,
		`SELECT `+dataFieldColumns+` FROM data_fields WHERE recipe_flow_template_id = $1 ORDER BY id`, flowID)
	if err != nil {
		return nil, recordError("ListByFlow", "data_fields", flowID, err)
	}

	return result, nil
}

func (r *DataFieldRepository) GetByIdentifier(ctx context.Context, flowID, fieldIdentifier string) (*models.DataFieldDeclaration, error) {
	row := r.tx.QueryRowContext(ctx,
		`SELECT `+dataFieldColumns+` FROM data_fields WHERE recipe_flow_template_id = $1 AND field_identifier = $2`,
		flowID, fieldIdentifier,
	)

	field, err := scanDataField(row)
	if err != nil {
		return nil, recordError("GetByIdentifier", "data_fields", fieldIdentifier, err)
	}

	return field, nil
}

func scanDataField(row rowScanner) (*models.DataFieldDeclaration, error) {
	var f models.DataFieldDeclaration

	err := row.Scan(
		&f.ID,
		&f.RecipeFlowTemplateID,
		&f.GroupID,
		&f.FieldIdentifier,
		&f.FieldClass,
		&f.Field,
		&f.FieldType,
		&f.Note,
		&f.Required,
		&f.FlowThrough,
		&f.Inherits,
		&f.AcceptDefault,
		&f.DefaultValue,
	)
	if err != nil {
		return nil, err
	}

	return &f, nil
}
