// Package postgresql provides PostgreSQL persistence implementation for templates and recipes.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/recipemap/recipemap/pkg/persistence"
	"github.com/recipemap/recipemap/pkg/persistence/sqlbase"
)

const (
	uniqueViolation      = pq.ErrorCode("23505")
	serializationFailure = pq.ErrorCode("40001")
	invalidTextValue     = pq.ErrorCode("22P02")
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db         *sql.DB
	logger     *slog.Logger
	migrations *sqlbase.MigrationManager
}

// NewPersistence creates a new PostgreSQL persistence layer and migrates the schema.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	postgres := &Persistence{
		db:         database,
		logger:     logger,
		migrations: sqlbase.NewMigrationManager(logger, database, migrations()),
	}

	err = postgres.migrations.RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// SchemaVersion returns the applied schema version.
func (p *Persistence) SchemaVersion(ctx context.Context) (int, error) {
	return p.migrations.CurrentVersion(ctx)
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// WithTransaction runs fn inside one database transaction. READ COMMITTED is the default
// isolation, opts.Serializable switches to SERIALIZABLE.
func (p *Persistence) WithTransaction(ctx context.Context, opts persistence.TxOptions, fn persistence.TxFunc) error {
	isolation := sql.LevelReadCommitted
	if opts.Serializable {
		isolation = sql.LevelSerializable
	}

	sqlTx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: isolation, ReadOnly: opts.ReadOnly})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = sqlTx.Rollback()

			panic(r)
		}
	}()

	err = fn(ctx, &transaction{tx: sqlTx, logger: p.logger})
	if err != nil {
		rollbackErr := sqlTx.Rollback()
		if rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			p.logger.ErrorContext(ctx, "failed to rollback transaction", "error", rollbackErr)
		}

		return classify(err)
	}

	err = sqlTx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}

	return nil
}

type transaction struct {
	tx     *sql.Tx
	logger *slog.Logger
}

func (t *transaction) MapTemplates() persistence.MapTemplateRepository {
	return &MapTemplateRepository{tx: t.tx, logger: t.logger}
}

func (t *transaction) Templates() persistence.TemplateRepository {
	return &TemplateRepository{tx: t.tx, logger: t.logger}
}

func (t *transaction) Flows() persistence.FlowTemplateRepository {
	return &FlowTemplateRepository{tx: t.tx, logger: t.logger}
}

func (t *transaction) DataFields() persistence.DataFieldRepository {
	return &DataFieldRepository{tx: t.tx, logger: t.logger}
}

func (t *transaction) Blacklists() persistence.BlacklistRepository {
	return &BlacklistRepository{tx: t.tx, logger: t.logger}
}

func (t *transaction) TemplateAccess() persistence.TemplateAccessRepository {
	return &TemplateAccessRepository{tx: t.tx, logger: t.logger}
}

func (t *transaction) Recipes() persistence.RecipeRepository {
	return &RecipeRepository{tx: t.tx, logger: t.logger}
}

func (t *transaction) Processes() persistence.ProcessRepository {
	return &ProcessRepository{tx: t.tx, logger: t.logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// queryAll runs query and scans every row with scan, keeping database order.
func queryAll[T any](
	ctx context.Context,
	tx *sql.Tx,
	logger *slog.Logger,
	scan func(rowScanner) (*T, error),
	query string,
	args ...any,
) ([]*T, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	result := make([]*T, 0)

	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}

		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// classify maps PostgreSQL error codes onto persistence sentinels.
func classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || errors.Is(err, persistence.ErrDuplicateKey) ||
		errors.Is(err, persistence.ErrSerializationFailure) {
		return err
	}

	switch pqErr.Code {
	case uniqueViolation:
		return fmt.Errorf("%w: %w", persistence.ErrDuplicateKey, err)
	case serializationFailure:
		return fmt.Errorf("%w: %w", persistence.ErrSerializationFailure, err)
	default:
		return err
	}
}

// recordError wraps err with its table and key. A malformed UUID key can match no row,
// so it reads as not found.
func recordError(op, table, key string, err error) error {
	var pqErr *pq.Error
	if errors.Is(err, sql.ErrNoRows) || (errors.As(err, &pqErr) && pqErr.Code == invalidTextValue) {
		return persistence.NewRecordError(op, table, key, notFound(table))
	}

	return persistence.NewRecordError(op, table, key, classify(err))
}

func notFound(table string) error {
	switch table {
	case "map_templates":
		return persistence.ErrMapTemplateNotFound
	case "recipe_templates":
		return persistence.ErrTemplateNotFound
	case "recipe_flow_templates":
		return persistence.ErrFlowTemplateNotFound
	case "data_fields":
		return persistence.ErrDataFieldNotFound
	case "recipes":
		return persistence.ErrRecipeNotFound
	default:
		return sql.ErrNoRows
	}
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
