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

// InstantiateNode is one process of an instantiation request. NodeID and the entries of
// Predecessors are labels local to the request, never stored.
type InstantiateNode struct {
	NodeID       string   `json:"node_id"      validate:"required"`
	TemplateID   string   `json:"template_id"  validate:"required"`
	Name         string   `json:"name"         validate:"required"`
	Predecessors []string `json:"predecessors" validate:"dive,required"`
}

type InstantiateRecipeRequest struct {
	RecipeID string            `json:"recipe_id" validate:"required"`
	Nodes    []InstantiateNode `json:"nodes"     validate:"required,min=1,dive"`
}

// RecipeProcessResponse describes one stored process and the row ids of its predecessors.
type RecipeProcessResponse struct {
	ID               string   `json:"id"`
	NodeID           string   `json:"node_id"`
	RecipeID         string   `json:"recipe_id"`
	RecipeTemplateID string   `json:"recipe_template_id"`
	Name             string   `json:"name"`
	Predecessors     []string `json:"predecessors"`
}

// RecipeGraph turns a flat node list into the process graph of a recipe.
type RecipeGraph struct {
	core

	versions  *VersionChain
	blacklist *Blacklist
}

func NewRecipeGraph(deps Deps, versions *VersionChain, blacklist *Blacklist) *RecipeGraph {
	return &RecipeGraph{
		core:      newCore(deps, "recipe_graph"),
		versions:  versions,
		blacklist: blacklist,
	}
}

// requestGraph indexes the nodes of a request by position.
type requestGraph struct {
	nodes        []InstantiateNode
	index        map[string]int
	predecessors [][]int
	successors   [][]int
}

// buildRequestGraph checks the request shape without touching storage. Checks run in this
// order: node ids are unique, no node is an orphan, every predecessor names a node of the
// request, no predecessor repeats and there is no cycle. A node listing any predecessor is not
// an orphan, and a single-node request always is one.
func buildRequestGraph(nodes []InstantiateNode) (*requestGraph, error) {
	graph := &requestGraph{
		nodes:        nodes,
		index:        make(map[string]int, len(nodes)),
		predecessors: make([][]int, len(nodes)),
		successors:   make([][]int, len(nodes)),
	}

	for i, node := range nodes {
		if _, exists := graph.index[node.NodeID]; exists {
			return nil, &ProcessNodeError{
				Op:     "Instantiate",
				NodeID: node.NodeID,
				Err:    fmt.Errorf("%w: duplicate node id", ErrInvalidRequest),
			}
		}

		graph.index[node.NodeID] = i
	}

	listed := make([]bool, len(nodes))

	for _, node := range nodes {
		for _, predecessorID := range node.Predecessors {
			if j, ok := graph.index[predecessorID]; ok {
				listed[j] = true
			}
		}
	}

	for i, node := range nodes {
		if len(node.Predecessors) == 0 && !listed[i] {
			return nil, &ProcessNodeError{Op: "Instantiate", NodeID: node.NodeID, Err: ErrOrphanProcessNode}
		}
	}

	for i, node := range nodes {
		seen := make(map[string]struct{}, len(node.Predecessors))

		for _, predecessorID := range node.Predecessors {
			j, ok := graph.index[predecessorID]
			if !ok {
				return nil, &ProcessNodeError{
					Op:            "Instantiate",
					NodeID:        node.NodeID,
					PredecessorID: predecessorID,
					Err:           ErrUnknownPredecessorReference,
				}
			}

			if _, dup := seen[predecessorID]; dup {
				return nil, &ProcessNodeError{
					Op:            "Instantiate",
					NodeID:        node.NodeID,
					PredecessorID: predecessorID,
					Err:           fmt.Errorf("%w: predecessor listed twice", ErrInvalidRequest),
				}
			}

			seen[predecessorID] = struct{}{}
			graph.predecessors[i] = append(graph.predecessors[i], j)
			graph.successors[j] = append(graph.successors[j], i)
		}
	}

	err := graph.checkAcyclic()
	if err != nil {
		return nil, err
	}

	return graph, nil
}

// checkAcyclic peels off nodes whose predecessors are all placed. Whatever is left sits on a cycle.
func (g *requestGraph) checkAcyclic() error {
	pending := make([]int, len(g.nodes))
	ready := make([]int, 0, len(g.nodes))

	for i := range g.nodes {
		pending[i] = len(g.predecessors[i])
		if pending[i] == 0 {
			ready = append(ready, i)
		}
	}

	placed := 0

	for len(ready) > 0 {
		current := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		placed++

		for _, successor := range g.successors[current] {
			pending[successor]--
			if pending[successor] == 0 {
				ready = append(ready, successor)
			}
		}
	}

	if placed == len(g.nodes) {
		return nil
	}

	for i, node := range g.nodes {
		if pending[i] > 0 {
			return &ProcessNodeError{Op: "Instantiate", NodeID: node.NodeID, Err: ErrProcessCycle}
		}
	}

	return nil
}

// Instantiate stores every node of req as a process of the recipe and links each node to
// its predecessors. Either every process and edge is written or none is.
func (g *RecipeGraph) Instantiate(ctx context.Context, req InstantiateRecipeRequest) ([]*RecipeProcessResponse, error) {
	err := validateRequest("Instantiate", req)
	if err != nil {
		return nil, err
	}

	graph, err := buildRequestGraph(req.Nodes)
	if err != nil {
		return nil, err
	}

	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "recipe.instantiate",
		attribute.String(otelhelper.RecipeIDKey, req.RecipeID),
		attribute.Int(otelhelper.NodeCountKey, len(req.Nodes)),
	)

	var (
		responses []*RecipeProcessResponse
		edges     int
	)

	err = g.persistence.WithTransaction(ctx, persistence.TxOptions{},
		func(ctx context.Context, tx persistence.Transaction) error {
			var err error

			responses, edges, err = g.write(ctx, tx, req.RecipeID, graph)

			return err
		})
	otelhelper.End(span, err)

	if err != nil {
		return nil, err
	}

	processIDs := make([]string, 0, len(responses))
	for _, response := range responses {
		processIDs = append(processIDs, response.ID)
	}

	g.logger.InfoContext(ctx, "recipe processes instantiated",
		"recipe_id", req.RecipeID, "processes", len(responses), "edges", edges)

	g.publish(ctx, events.RecipeProcessesInstantiated{
		BaseEvent:  newBaseEvent(events.RecipeProcessesInstantiatedEvent),
		RecipeID:   req.RecipeID,
		ProcessIDs: processIDs,
		EdgeCount:  edges,
	})

	return responses, nil
}

func (g *RecipeGraph) write(ctx context.Context, tx persistence.Transaction, recipeID string, graph *requestGraph) ([]*RecipeProcessResponse, int, error) {
	_, err := tx.Recipes().GetByID(ctx, recipeID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load recipe: %w", err)
	}

	rowIDs := make(map[string]string, len(graph.nodes))
	responses := make([]*RecipeProcessResponse, 0, len(graph.nodes))

	for _, node := range graph.nodes {
		_, err := tx.Templates().GetByID(ctx, node.TemplateID)
		if err != nil {
			return nil, 0, &ProcessNodeError{Op: "Instantiate", NodeID: node.NodeID, Err: err}
		}

		process := &models.RecipeProcess{
			RecipeID:         recipeID,
			RecipeTemplateID: node.TemplateID,
			Name:             node.Name,
		}

		err = tx.Processes().Insert(ctx, process)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to insert process for node %s: %w", node.NodeID, err)
		}

		rowIDs[node.NodeID] = process.ID
		responses = append(responses, &RecipeProcessResponse{
			ID:               process.ID,
			NodeID:           node.NodeID,
			RecipeID:         recipeID,
			RecipeTemplateID: node.TemplateID,
			Name:             node.Name,
			Predecessors:     make([]string, 0, len(node.Predecessors)),
		})
	}

	canonical := make(map[string]string)
	resolve := func(templateID string) (string, error) {
		if id, ok := canonical[templateID]; ok {
			return id, nil
		}

		id, err := g.versions.ResolveCanonical(ctx, tx, templateID)
		if err != nil {
			return "", err
		}

		canonical[templateID] = id

		return id, nil
	}

	edges := 0

	for i, node := range graph.nodes {
		successor, err := resolve(node.TemplateID)
		if err != nil {
			return nil, 0, err
		}

		for _, predecessorNodeID := range node.Predecessors {
			predecessorNode := graph.nodes[graph.index[predecessorNodeID]]

			predecessor, err := resolve(predecessorNode.TemplateID)
			if err != nil {
				return nil, 0, err
			}

			allowed, err := g.blacklist.canConnectCanonical(ctx, tx, successor, predecessor)
			if err != nil {
				return nil, 0, err
			}

			if !allowed {
				return nil, 0, &ProcessNodeError{
					Op:            "Instantiate",
					NodeID:        node.NodeID,
					PredecessorID: predecessorNodeID,
					Err:           ErrBlacklistViolation,
				}
			}

			predecessorRowID, ok := rowIDs[predecessorNodeID]
			if !ok {
				return nil, 0, &ProcessNodeError{
					Op:            "Instantiate",
					NodeID:        node.NodeID,
					PredecessorID: predecessorNodeID,
					Err:           ErrUnknownPredecessorReference,
				}
			}

			err = tx.Processes().InsertEdge(ctx, &models.ProcessEdge{
				RecipeID:        recipeID,
				RecipeProcessID: responses[i].ID,
				PredecessorID:   predecessorRowID,
			})
			if err != nil {
				return nil, 0, fmt.Errorf("failed to insert edge %s <- %s: %w", node.NodeID, predecessorNodeID, err)
			}

			responses[i].Predecessors = append(responses[i].Predecessors, predecessorRowID)
			edges++
		}
	}

	return responses, edges, nil
}
