package postgresql

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/recipemap/recipemap/pkg/models"
)

// BlacklistRepository handles blacklist rule rows inside one transaction.
type BlacklistRepository struct {
	tx     *sql.Tx
	logger *slog.Logger
}

func (r *BlacklistRepository) Insert(ctx context.Context, rule *models.BlacklistRule) error {
	id, err := newID(rule.ID)
	if err != nil {
		return err
	}

	_, err = r.tx.ExecContext(ctx, `
		INSERT INTO blacklist_rules (id, map_template_id, recipe_template_id, recipe_template_predecessor_id)
		VALUES ($1, $2, $3, $4)
	`, id, rule.MapTemplateID, rule.RecipeTemplateID, rule.RecipeTemplatePredecessorID)
	if err != nil {
		return recordError("Insert", "blacklist_rules", rule.RecipeTemplateID, err)
	}

	rule.ID = id

	return nil
}

func (r *BlacklistRepository) ListByMapTemplate(ctx context.Context, mapTemplateID string) ([]*models.BlacklistRule, error) {
	if !isUUID(mapTemplateID) {
		return []*models.BlacklistRule{}, nil
	}

	result, err := queryAll(ctx, r.tx, r.logger, scanBlacklistRule, `
		SELECT id, map_template_id, recipe_template_id, recipe_template_predecessor_id
		FROM blacklist_rules
		WHERE map_template_id = $1
		ORDER BY id
	`, mapTemplateID)
	if err != nil {
		return nil, recordError("ListByMapTemplate", "blacklist_rules", mapTemplateID, err)
	}

	return result, nil
}

func (r *BlacklistRepository) ListTouching(ctx context.Context, templateID string) ([]*models.BlacklistRule, error) {
	if !isUUID(templateID) {
		return []*models.BlacklistRule{}, nil
	}

	result, err := queryAll(ctx, r.tx, r.logger, scanBlacklistRule, `
		SELECT id, map_template_id, recipe_template_id, recipe_template_predecessor_id
		FROM blacklist_rules
		WHERE recipe_template_id = $1 OR recipe_template_predecessor_id = $1
		ORDER BY id
	`, templateID)
	if err != nil {
		return nil, recordError("ListTouching", "blacklist_rules", templateID, err)
	}

	return result, nil
}

func (r *BlacklistRepository) Exists(ctx context.Context, successorID, predecessorID string) (bool, error) {
	if !isUUID(successorID) || !isUUID(predecessorID) {
		return false, nil
	}

	var exists bool

	err := r.tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM blacklist_rules
			WHERE recipe_template_id = $1 AND recipe_template_predecessor_id = $2
		)
	`, successorID, predecessorID).Scan(&exists)
	if err != nil {
		return false, recordError("Exists", "blacklist_rules", successorID, err)
	}

	return exists, nil
}

func (r *BlacklistRepository) DeleteTouching(ctx context.Context, mapTemplateID, templateID string) (int64, error) {
	res, err := r.tx.ExecContext(ctx, `
		DELETE FROM blacklist_rules
		WHERE map_template_id = $1
		  AND (recipe_template_id = $2 OR recipe_template_predecessor_id = $2)
	`, mapTemplateID, templateID)
	if err != nil {
		return 0, recordError("DeleteTouching", "blacklist_rules", templateID, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, recordError("DeleteTouching", "blacklist_rules", templateID, err)
	}

	return deleted, nil
}

func (r *BlacklistRepository) Repoint(ctx context.Context, fromTemplateID, toTemplateID string) (int64, error) {
	res, err := r.tx.ExecContext(ctx, `
		UPDATE blacklist_rules
		SET recipe_template_id = CASE WHEN recipe_template_id = $1 THEN $2 ELSE recipe_template_id END
		  , recipe_template_predecessor_id = CASE WHEN recipe_template_predecessor_id = $1 THEN $2 ELSE recipe_template_predecessor_id END
		WHERE recipe_template_id = $1 OR recipe_template_predecessor_id = $1
	`, fromTemplateID, toTemplateID)
	if err != nil {
		return 0, recordError("Repoint", "blacklist_rules", fromTemplateID, err)
	}

	moved, err := res.RowsAffected()
	if err != nil {
		return 0, recordError("Repoint", "blacklist_rules", fromTemplateID, err)
	}

	return moved, nil
}

func scanBlacklistRule(row rowScanner) (*models.BlacklistRule, error) {
	var b models.BlacklistRule

	err := row.Scan(&b.ID, &b.MapTemplateID, &b.RecipeTemplateID, &b.RecipeTemplatePredecessorID)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

// TemplateAccessRepository handles agent template assignments inside one transaction.
type TemplateAccessRepository struct {
	tx     *sql.Tx
	logger *slog.Logger
}

func (r *TemplateAccessRepository) Insert(ctx context.Context, access *models.TemplateAccess) error {
	id, err := newID(access.ID)
	if err != nil {
		return err
	}

	_, err = r.tx.ExecContext(ctx,
		`INSERT INTO template_access (id, agent_id, recipe_template_id) VALUES ($1, $2, $3)`,
		id, access.AgentID, access.RecipeTemplateID,
	)
	if err != nil {
		return recordError("Insert", "template_access", access.AgentID, err)
	}

	access.ID = id

	return nil
}

func (r *TemplateAccessRepository) Exists(ctx context.Context, agentID, templateID string) (bool, error) {
	if !isUUID(templateID) {
		return false, nil
	}

	var exists bool

	err := r.tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM template_access WHERE agent_id = $1 AND recipe_template_id = $2)`,
		agentID, templateID,
	).Scan(&exists)
	if err != nil {
		return false, recordError("Exists", "template_access", agentID, err)
	}

	return exists, nil
}

func (r *TemplateAccessRepository) ListByAgent(ctx context.Context, agentID string) ([]*models.TemplateAccess, error) {
	result, err := queryAll(ctx, r.tx, r.logger, func(row rowScanner) (*models.TemplateAccess, error) {
		var a models.TemplateAccess

		err := row.Scan(&a.ID, &a.AgentID, &a.RecipeTemplateID)
		if err != nil {
			return nil, err
		}

		return &a, nil
	}, `SELECT id, agent_id, recipe_template_id FROM template_access WHERE agent_id = $1 ORDER BY id`, agentID)
	if err != nil {
		return nil, recordError("ListByAgent", "template_access", agentID, err)
	}

	return result, nil
}
