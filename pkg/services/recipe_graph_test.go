package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, predecessors ...string) InstantiateNode {
	return InstantiateNode{NodeID: id, TemplateID: "template-" + id, Name: id, Predecessors: predecessors}
}

func TestBuildRequestGraph(t *testing.T) {
	tests := []struct {
		name          string
		nodes         []InstantiateNode
		wantErr       error
		wantNode      string
		wantPredecess string
	}{
		{
			name:  "chain of three",
			nodes: []InstantiateNode{node("a"), node("b", "a"), node("c", "b")},
		},
		{
			name:  "diamond",
			nodes: []InstantiateNode{node("a"), node("b", "a"), node("c", "a"), node("d", "b", "c")},
		},
		{
			name:  "predecessor listed after its successor",
			nodes: []InstantiateNode{node("b", "a"), node("a")},
		},
		{
			name:     "single node is an orphan",
			nodes:    []InstantiateNode{node("a")},
			wantErr:  ErrOrphanProcessNode,
			wantNode: "a",
		},
		{
			name:     "isolated node next to a pair",
			nodes:    []InstantiateNode{node("a"), node("b", "a"), node("c")},
			wantErr:  ErrOrphanProcessNode,
			wantNode: "c",
		},
		{
			name:          "unknown predecessor",
			nodes:         []InstantiateNode{node("a"), node("b", "a"), node("c", "b", "x")},
			wantErr:       ErrUnknownPredecessorReference,
			wantNode:      "c",
			wantPredecess: "x",
		},
		{
			name:     "orphan reported before an unknown predecessor",
			nodes:    []InstantiateNode{node("1", "9"), node("2")},
			wantErr:  ErrOrphanProcessNode,
			wantNode: "2",
		},
		{
			name:     "unknown reference does not make its target reachable",
			nodes:    []InstantiateNode{node("a"), node("b", "x")},
			wantErr:  ErrOrphanProcessNode,
			wantNode: "a",
		},
		{
			name:     "duplicate node id",
			nodes:    []InstantiateNode{node("a"), node("a")},
			wantErr:  ErrInvalidRequest,
			wantNode: "a",
		},
		{
			name:          "predecessor listed twice",
			nodes:         []InstantiateNode{node("a"), node("b", "a", "a")},
			wantErr:       ErrInvalidRequest,
			wantNode:      "b",
			wantPredecess: "a",
		},
		{
			name:    "two node cycle",
			nodes:   []InstantiateNode{node("a", "b"), node("b", "a")},
			wantErr: ErrProcessCycle,
		},
		{
			name:    "self loop",
			nodes:   []InstantiateNode{node("a", "a")},
			wantErr: ErrProcessCycle,
		},
		{
			name:    "cycle behind a valid head",
			nodes:   []InstantiateNode{node("a"), node("b", "a", "c"), node("c", "b")},
			wantErr: ErrProcessCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph, err := buildRequestGraph(tt.nodes)

			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Len(t, graph.nodes, len(tt.nodes))

				return
			}

			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, graph)
			assert.True(t, IsValidationError(err))

			var nodeErr *ProcessNodeError
			require.True(t, errors.As(err, &nodeErr))

			if tt.wantNode != "" {
				assert.Equal(t, tt.wantNode, nodeErr.NodeID)
			}

			assert.Equal(t, tt.wantPredecess, nodeErr.PredecessorID)
		})
	}
}

func TestBuildRequestGraph_Edges(t *testing.T) {
	graph, err := buildRequestGraph([]InstantiateNode{node("a"), node("b", "a"), node("c", "a", "b")})
	require.NoError(t, err)

	assert.Equal(t, [][]int{nil, {0}, {0, 1}}, graph.predecessors)
	assert.Equal(t, [][]int{{1, 2}, {2}, nil}, graph.successors)
}
