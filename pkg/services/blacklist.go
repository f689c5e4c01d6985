package services

import (
	"context"
	"fmt"

	"github.com/recipemap/recipemap/pkg/events"
	"github.com/recipemap/recipemap/pkg/models"
	"github.com/recipemap/recipemap/pkg/otelhelper"
	"github.com/recipemap/recipemap/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

// Blacklist decides whether one template may directly precede another.
// Rules hold canonical ids and forbid one direction only. Anything without a rule is allowed.
type Blacklist struct {
	core

	versions *VersionChain
}

func NewBlacklist(deps Deps, versions *VersionChain) *Blacklist {
	return &Blacklist{core: newCore(deps, "blacklist"), versions: versions}
}

// BlacklistRelations lists the templates a template may not follow or precede.
type BlacklistRelations struct {
	TemplateID   string   `json:"template_id"`  // Canonical id the relations were computed for
	Predecessors []string `json:"predecessors"` // Templates forbidden directly before TemplateID
	Successors   []string `json:"successors"`   // Templates forbidden directly after TemplateID
}

// BlacklistRuleInput is one rule of a replacement request. Ids may be any version.
type BlacklistRuleInput struct {
	TemplateID    string `json:"template_id"    validate:"required"` // Successor
	PredecessorID string `json:"predecessor_id" validate:"required"`
}

// ReplaceBlacklistRequest replaces every rule of a map template that touches TemplateID.
type ReplaceBlacklistRequest struct {
	MapTemplateID string               `json:"map_template_id" validate:"required"`
	TemplateID    string               `json:"template_id"     validate:"required"`
	Rules         []BlacklistRuleInput `json:"rules"           validate:"dive"`
}

// CanConnect reports whether a process of successorTemplateID may list a process of
// predecessorTemplateID as its predecessor.
func (b *Blacklist) CanConnect(ctx context.Context, tx persistence.Transaction, successorTemplateID, predecessorTemplateID string) (bool, error) {
	successor, err := b.versions.ResolveCanonical(ctx, tx, successorTemplateID)
	if err != nil {
		return false, err
	}

	predecessor, err := b.versions.ResolveCanonical(ctx, tx, predecessorTemplateID)
	if err != nil {
		return false, err
	}

	return b.canConnectCanonical(ctx, tx, successor, predecessor)
}

func (b *Blacklist) canConnectCanonical(ctx context.Context, tx persistence.Transaction, successor, predecessor string) (bool, error) {
	forbidden, err := tx.Blacklists().Exists(ctx, successor, predecessor)
	if err != nil {
		return false, fmt.Errorf("failed to look up blacklist rule: %w", err)
	}

	return !forbidden, nil
}

// Relations returns the restrictions around the canonical version of templateID.
func (b *Blacklist) Relations(ctx context.Context, tx persistence.Transaction, templateID string) (*BlacklistRelations, error) {
	canonical, err := b.versions.ResolveCanonical(ctx, tx, templateID)
	if err != nil {
		return nil, err
	}

	rules, err := tx.Blacklists().ListTouching(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to list blacklist rules: %w", err)
	}

	relations := &BlacklistRelations{
		TemplateID:   canonical,
		Predecessors: make([]string, 0),
		Successors:   make([]string, 0),
	}

	for _, rule := range rules {
		if rule.RecipeTemplateID == canonical {
			relations.Predecessors = append(relations.Predecessors, rule.RecipeTemplatePredecessorID)
		}

		if rule.RecipeTemplatePredecessorID == canonical {
			relations.Successors = append(relations.Successors, rule.RecipeTemplateID)
		}
	}

	return relations, nil
}

// GetRelations runs Relations in its own read-only transaction.
func (b *Blacklist) GetRelations(ctx context.Context, templateID string) (*BlacklistRelations, error) {
	ctx, span := otelhelper.StartSpan(ctx, b.tracer, "blacklist.relations",
		attribute.String(otelhelper.TemplateIDKey, templateID))

	var relations *BlacklistRelations

	err := b.persistence.WithTransaction(ctx, persistence.TxOptions{ReadOnly: true},
		func(ctx context.Context, tx persistence.Transaction) error {
			var err error

			relations, err = b.Relations(ctx, tx, templateID)

			return err
		})
	otelhelper.End(span, err)

	if err != nil {
		return nil, err
	}

	return relations, nil
}

// ReplaceRules deletes every rule of the map template that references the selected
// template, on either side, and stores the given rules instead. It runs SERIALIZABLE.
func (b *Blacklist) ReplaceRules(ctx context.Context, req ReplaceBlacklistRequest) (*models.MapTemplateView, error) {
	err := validateRequest("ReplaceRules", req)
	if err != nil {
		return nil, err
	}

	ctx, span := otelhelper.StartSpan(ctx, b.tracer, "blacklist.replace",
		attribute.String(otelhelper.MapTemplateIDKey, req.MapTemplateID),
		attribute.String(otelhelper.TemplateIDKey, req.TemplateID),
		attribute.Int(otelhelper.RuleCountKey, len(req.Rules)),
	)

	var (
		view     *models.MapTemplateView
		selected string
		deleted  int64
	)

	err = b.persistence.WithTransaction(ctx, persistence.TxOptions{Serializable: true},
		func(ctx context.Context, tx persistence.Transaction) error {
			_, err := tx.MapTemplates().GetByID(ctx, req.MapTemplateID)
			if err != nil {
				return fmt.Errorf("failed to load map template: %w", err)
			}

			selected, err = b.canonicalInMap(ctx, tx, req.MapTemplateID, req.TemplateID)
			if err != nil {
				return err
			}

			deleted, err = tx.Blacklists().DeleteTouching(ctx, req.MapTemplateID, selected)
			if err != nil {
				return fmt.Errorf("failed to delete blacklist rules: %w", err)
			}

			seen := make(map[[2]string]struct{}, len(req.Rules))

			for _, input := range req.Rules {
				rule, err := b.canonicalRule(ctx, tx, req.MapTemplateID, input)
				if err != nil {
					return err
				}

				// Every stored rule references the template it was replaced under.
				if rule.RecipeTemplateID != selected && rule.RecipeTemplatePredecessorID != selected {
					return &TemplateError{
						Op:         "ReplaceRules",
						TemplateID: input.TemplateID,
						Err:        fmt.Errorf("%w: rule does not reference template %s", ErrInvalidRequest, selected),
					}
				}

				key := [2]string{rule.RecipeTemplateID, rule.RecipeTemplatePredecessorID}
				if _, dup := seen[key]; dup {
					return &TemplateError{
						Op:         "ReplaceRules",
						TemplateID: input.TemplateID,
						Err:        fmt.Errorf("%w: rule listed twice", ErrInvalidRequest),
					}
				}

				seen[key] = struct{}{}

				err = tx.Blacklists().Insert(ctx, rule)
				if err != nil {
					return fmt.Errorf("failed to insert blacklist rule: %w", err)
				}
			}

			view, err = loadMapTemplateView(ctx, tx, req.MapTemplateID)

			return err
		})
	otelhelper.End(span, err)

	if err != nil {
		return nil, err
	}

	b.logger.InfoContext(ctx, "blacklist rules replaced",
		"map_template_id", req.MapTemplateID, "template_id", selected,
		"deleted", deleted, "inserted", len(req.Rules))

	b.publish(ctx, events.BlacklistReplaced{
		BaseEvent:     newBaseEvent(events.BlacklistReplacedEvent),
		MapTemplateID: req.MapTemplateID,
		TemplateID:    selected,
		Deleted:       deleted,
		Inserted:      len(req.Rules),
	})

	return view, nil
}

func (b *Blacklist) canonicalRule(ctx context.Context, tx persistence.Transaction, mapTemplateID string, input BlacklistRuleInput) (*models.BlacklistRule, error) {
	successor, err := b.canonicalInMap(ctx, tx, mapTemplateID, input.TemplateID)
	if err != nil {
		return nil, err
	}

	predecessor, err := b.canonicalInMap(ctx, tx, mapTemplateID, input.PredecessorID)
	if err != nil {
		return nil, err
	}

	return &models.BlacklistRule{
		MapTemplateID:               mapTemplateID,
		RecipeTemplateID:            successor,
		RecipeTemplatePredecessorID: predecessor,
	}, nil
}

// canonicalInMap resolves templateID to its canonical version and checks it belongs to the map.
func (b *Blacklist) canonicalInMap(ctx context.Context, tx persistence.Transaction, mapTemplateID, templateID string) (string, error) {
	canonical, err := b.versions.ResolveCanonical(ctx, tx, templateID)
	if err != nil {
		return "", err
	}

	template, err := tx.Templates().GetByID(ctx, canonical)
	if err != nil {
		return "", fmt.Errorf("failed to load template: %w", err)
	}

	if template.MapTemplateID != mapTemplateID {
		return "", &TemplateError{Op: "ReplaceRules", TemplateID: templateID, Err: ErrTemplateNotInMap}
	}

	return canonical, nil
}
