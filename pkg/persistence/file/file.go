// Package file provides file-based persistence for templates and recipes.
//
// The whole dataset lives in one JSON document. A transaction works on a deep copy of
// the committed dataset and the copy replaces it, on disk and in memory, only on commit.
// Transactions are serialized by a mutex.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/recipemap/recipemap/pkg/models"
	"github.com/recipemap/recipemap/pkg/persistence"
)

const dataFileName = "recipemap.json"

type dataset struct {
	MapTemplates []*models.MapTemplate          `json:"map_templates"`
	Templates    []*models.RecipeTemplate       `json:"recipe_templates"`
	Flows        []*models.RecipeFlowTemplate   `json:"recipe_flow_templates"`
	Groups       []*models.FieldGroup           `json:"field_groups"`
	DataFields   []*models.DataFieldDeclaration `json:"data_fields"`
	Blacklists   []*models.BlacklistRule        `json:"blacklist_rules"`
	Access       []*models.TemplateAccess       `json:"template_access"`
	Recipes      []*models.Recipe               `json:"recipes"`
	Processes    []*models.RecipeProcess        `json:"recipe_processes"`
	Edges        []*models.ProcessEdge          `json:"process_edges"`
}

func (d *dataset) clone() (*dataset, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dataset: %w", err)
	}

	copied := &dataset{}

	err = json.Unmarshal(data, copied)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}

	return copied, nil
}

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root string
	mu   sync.Mutex
	data *dataset
}

// NewPersistence opens the dataset stored under root, creating the directory when missing.
func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	err := os.MkdirAll(cleanRoot, 0750)
	if err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	fp := &Persistence{root: cleanRoot, data: &dataset{}}

	raw, err := os.ReadFile(fp.path())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	if len(raw) > 0 {
		err = json.Unmarshal(raw, fp.data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse dataset: %w", err)
		}
	}

	return fp, nil
}

func (fp *Persistence) path() string {
	return filepath.Join(fp.root, dataFileName)
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// WithTransaction runs fn against a private copy of the dataset. Every transaction is
// serialized, so all of them behave as SERIALIZABLE.
func (fp *Persistence) WithTransaction(ctx context.Context, opts persistence.TxOptions, fn persistence.TxFunc) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	working, err := fp.data.clone()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx := &transaction{data: working}

	err = fn(ctx, tx)
	if err != nil {
		return err
	}

	if opts.ReadOnly {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	err = fp.write(working)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	fp.data = working

	return nil
}

func (fp *Persistence) write(data *dataset) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	tmp := fp.path() + ".tmp"

	err = os.WriteFile(tmp, encoded, 0600)
	if err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	return os.Rename(tmp, fp.path())
}

type transaction struct {
	data *dataset
}

func (t *transaction) MapTemplates() persistence.MapTemplateRepository {
	return &mapTemplateRepository{data: t.data}
}

func (t *transaction) Templates() persistence.TemplateRepository {
	return &templateRepository{data: t.data}
}

func (t *transaction) Flows() persistence.FlowTemplateRepository {
	return &flowRepository{data: t.data}
}

func (t *transaction) DataFields() persistence.DataFieldRepository {
	return &dataFieldRepository{data: t.data}
}

func (t *transaction) Blacklists() persistence.BlacklistRepository {
	return &blacklistRepository{data: t.data}
}

func (t *transaction) TemplateAccess() persistence.TemplateAccessRepository {
	return &accessRepository{data: t.data}
}

func (t *transaction) Recipes() persistence.RecipeRepository {
	return &recipeRepository{data: t.data}
}

func (t *transaction) Processes() persistence.ProcessRepository {
	return &processRepository{data: t.data}
}

func newID(current string) (string, error) {
	if current != "" {
		return current, nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}

	return id.String(), nil
}
