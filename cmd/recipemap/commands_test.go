package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/recipemap/recipemap/pkg/models"
	"github.com/recipemap/recipemap/pkg/services"
	"github.com/recipemap/recipemap/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliHarness struct {
	t       *testing.T
	dataDir string
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()

	return &cliHarness{t: t, dataDir: t.TempDir()}
}

// run executes the command line and decodes its JSON output into out.
func (h *cliHarness) run(out any, args ...string) error {
	h.t.Helper()

	var stdout bytes.Buffer

	command := newCommand()
	command.Writer = &stdout

	argv := append([]string{"recipemap", "--database-url", "file://" + h.dataDir, "--log-level", "error"}, args...)

	err := command.Run(h.t.Context(), argv)
	if err != nil {
		return err
	}

	if out != nil {
		require.NoError(h.t, json.Unmarshal(stdout.Bytes(), out))
	}

	return nil
}

func (h *cliHarness) requestFile(name string, req any) string {
	h.t.Helper()

	data, err := json.Marshal(req)
	require.NoError(h.t, err)

	path := filepath.Join(h.t.TempDir(), name)
	require.NoError(h.t, os.WriteFile(path, data, 0600))

	return path
}

func TestCLI_TemplateToRecipe(t *testing.T) {
	h := newHarness(t)

	var mapTemplate models.MapTemplate
	require.NoError(t, h.run(&mapTemplate, "map", "create", "--name", "Bakery", "--type", "FDA"))
	assert.Equal(t, models.TemplateTypeFDA, mapTemplate.Type)

	var mill, bake models.RecipeTemplateWithFlows
	require.NoError(t, h.run(&mill, "template", "create", "--file",
		h.requestFile("mill.json", testutil.CreateTemplateRequest(mapTemplate.ID, "mill"))))
	require.NoError(t, h.run(&bake, "template", "create", "--file",
		h.requestFile("bake.json", testutil.CreateTemplateRequest(mapTemplate.ID, "bake"))))

	var view models.MapTemplateView
	require.NoError(t, h.run(&view, "blacklist", "set", "--file", h.requestFile("rules.json", services.ReplaceBlacklistRequest{
		MapTemplateID: mapTemplate.ID,
		TemplateID:    mill.ID,
		Rules:         []services.BlacklistRuleInput{{TemplateID: mill.ID, PredecessorID: bake.ID}},
	})))
	assert.Len(t, view.Templates, 2)
	assert.Len(t, view.Blacklists, 1)

	var relations services.BlacklistRelations
	require.NoError(t, h.run(&relations, "template", "relations", bake.ID))
	assert.Equal(t, []string{mill.ID}, relations.Successors)

	var recipe models.Recipe
	wheat := "0190b7a2-0000-7000-8000-00000000a7ea"
	require.NoError(t, h.run(&recipe, "recipe", "create", "--agent", "agent-1", "--name", "Bread", "--resource", wheat))
	assert.Equal(t, []string{wheat}, recipe.ResourceSpecificationIDs)

	err := h.run(nil, "recipe", "instantiate", "--file", h.requestFile("bad.json", services.InstantiateRecipeRequest{
		RecipeID: recipe.ID,
		Nodes:    []services.InstantiateNode{testutil.Node("1", bake.ID), testutil.Node("2", mill.ID, "1")},
	}))
	require.ErrorIs(t, err, services.ErrBlacklistViolation)

	var processes []services.RecipeProcessResponse
	require.NoError(t, h.run(&processes, "recipe", "instantiate", "--file", h.requestFile("good.json", services.InstantiateRecipeRequest{
		RecipeID: recipe.ID,
		Nodes:    []services.InstantiateNode{testutil.Node("1", mill.ID), testutil.Node("2", bake.ID, "1")},
	})))
	require.Len(t, processes, 2)

	var graph models.RecipeGraph
	require.NoError(t, h.run(&graph, "recipe", "get", recipe.ID))
	assert.Len(t, graph.Processes, 2)
	assert.Len(t, graph.Edges, 1)
}

func TestCLI_Override(t *testing.T) {
	h := newHarness(t)

	var mapTemplate models.MapTemplate
	require.NoError(t, h.run(&mapTemplate, "map", "create", "--name", "Bakery"))

	var v1, v2 models.RecipeTemplateWithFlows
	require.NoError(t, h.run(&v1, "template", "create", "--file",
		h.requestFile("mill.json", testutil.CreateTemplateRequest(mapTemplate.ID, "mill"))))

	override := h.requestFile("mill-v2.json", testutil.CreateTemplateRequest("", "", testutil.WithName("Stone mill")))
	require.NoError(t, h.run(&v2, "template", "override", "--file", override, v1.ID))
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, "Stone mill", v2.Name)

	err := h.run(nil, "template", "override", "--file", override, v1.ID)
	require.ErrorIs(t, err, services.ErrAlreadyOverridden)

	require.NoError(t, h.run(nil, "access", "assign", "--agent", "agent-1", "--template", v1.ID))

	var templates []models.RecipeTemplate
	require.NoError(t, h.run(&templates, "access", "list", "--agent", "agent-1"))
	require.Len(t, templates, 1)
	assert.Equal(t, v2.ID, templates[0].ID)
}

func TestCLI_Errors(t *testing.T) {
	h := newHarness(t)

	err := h.run(nil, "template", "get")
	require.ErrorContains(t, err, "missing template-id argument")

	err = h.run(nil, "template", "create", "--file", filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorContains(t, err, "failed to open request file")

	path := filepath.Join(t.TempDir(), "unknown.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"recipe_id": "r", "nodes": [], "extra": true}`), 0600))

	err = h.run(nil, "recipe", "instantiate", "--file", path)
	require.ErrorContains(t, err, "failed to decode request")

	var migrated map[string]any
	require.NoError(t, h.run(&migrated, "migrate"))
	assert.Equal(t, "ok", migrated["status"])
}
