// Package services implements template authoring and recipe instantiation on top of persistence.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/recipemap/recipemap/pkg/eventbus"
	"github.com/recipemap/recipemap/pkg/events"
	"github.com/recipemap/recipemap/pkg/otelhelper"
	"github.com/recipemap/recipemap/pkg/persistence"
	"go.opentelemetry.io/otel/trace"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Persistence persistence.Persistence
	Publisher   eventbus.Publisher // Optional, events are dropped when nil
	Tracer      trace.Tracer       // Optional, a no-op tracer is used when nil
	Logger      *slog.Logger       // Optional, slog.Default() when nil
}

type core struct {
	persistence persistence.Persistence
	publisher   eventbus.Publisher
	tracer      trace.Tracer
	logger      *slog.Logger
}

func newCore(deps Deps, module string) core {
	c := core{
		persistence: deps.Persistence,
		publisher:   deps.Publisher,
		tracer:      deps.Tracer,
		logger:      deps.Logger,
	}

	if c.publisher == nil {
		c.publisher = eventbus.DiscardBus{}
	}

	if c.tracer == nil {
		c.tracer = otelhelper.NoopTracer()
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	c.logger = c.logger.With("module", module)

	return c
}

// publish sends event after a commit. The write already happened, so a failure is only logged.
func (c *core) publish(ctx context.Context, event events.Event) {
	err := c.publisher.Publish(ctx, event)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to publish event",
			"event_type", event.GetType(), "key", event.PartitionKey(), "error", err)
	}
}

func newBaseEvent(eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// Services bundles every service over one set of dependencies.
type Services struct {
	Versions    *VersionChain
	Blacklist   *Blacklist
	Inheritance *FieldInheritance
	Graph       *RecipeGraph
	Templates   *TemplateEditor
	Maps        *MapTemplates
	Recipes     *Recipes
	Access      *TemplateAccess
}

func New(deps Deps) *Services {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	versions := NewVersionChain(logger.With("module", "versions"))
	blacklist := NewBlacklist(deps, versions)
	inheritance := NewFieldInheritance()

	return &Services{
		Versions:    versions,
		Blacklist:   blacklist,
		Inheritance: inheritance,
		Graph:       NewRecipeGraph(deps, versions, blacklist),
		Templates:   NewTemplateEditor(deps, inheritance),
		Maps:        NewMapTemplates(deps),
		Recipes:     NewRecipes(deps),
		Access:      NewTemplateAccess(deps, versions),
	}
}
