package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/recipemap/recipemap/pkg/persistence"
)

// MaxVersionHops bounds a version chain walk even when no id repeats.
const MaxVersionHops = 1024

// VersionChain follows overridden_by links to the canonical version of a template.
// It only reads, always inside the caller's transaction.
type VersionChain struct {
	logger *slog.Logger
}

func NewVersionChain(logger *slog.Logger) *VersionChain {
	return &VersionChain{logger: logger}
}

// ResolveCanonical returns the id of the template that ends the chain starting at templateID.
// A canonical template resolves to itself.
func (v *VersionChain) ResolveCanonical(ctx context.Context, tx persistence.Transaction, templateID string) (string, error) {
	chain, err := v.walk(ctx, tx, "ResolveCanonical", templateID)
	if err != nil {
		return "", err
	}

	return chain[len(chain)-1], nil
}

// Chain returns every template id from templateID to the canonical version, in order.
func (v *VersionChain) Chain(ctx context.Context, tx persistence.Transaction, templateID string) ([]string, error) {
	return v.walk(ctx, tx, "Chain", templateID)
}

func (v *VersionChain) walk(ctx context.Context, tx persistence.Transaction, op, templateID string) ([]string, error) {
	templates := tx.Templates()

	current, err := templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", templateID, err)
	}

	visited := map[string]struct{}{current.ID: {}}
	chain := []string{current.ID}

	for current.OverriddenBy != nil {
		next := *current.OverriddenBy

		if _, seen := visited[next]; seen || len(chain) >= MaxVersionHops {
			v.logger.ErrorContext(ctx, "version chain does not terminate",
				"template_id", templateID, "revisited", next, "hops", len(chain))

			return nil, &TemplateError{Op: op, TemplateID: templateID, Err: ErrVersionCycleDetected}
		}

		current, err = templates.GetByID(ctx, next)
		if err != nil {
			if persistence.IsTemplateNotFound(err) {
				v.logger.ErrorContext(ctx, "version chain references a missing template",
					"template_id", templateID, "missing", next)

				return nil, &TemplateError{Op: op, TemplateID: next, Err: ErrBrokenVersionChain}
			}

			return nil, fmt.Errorf("failed to load template %s: %w", next, err)
		}

		visited[next] = struct{}{}
		chain = append(chain, next)
	}

	return chain, nil
}
