package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/datatable/internal/core"
)

// GroupPostgres is the registry group for database tables.
const GroupPostgres = "Postgres"

// DefaultMaxRows bounds a single table load.
const DefaultMaxRows = 5000

// ErrIDColumn is returned when a relation cannot be keyed by its configured
// id column: the column is missing, or the relation also has an "id"
// column that the row identifier would shadow.
var ErrIDColumn = errors.New("unusable id column")

// Querier is the subset of *pgxpool.Pool used by the Postgres source.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresTable seeds a table from a PostgreSQL relation.
type PostgresTable struct {
	db       Querier
	name     string
	idColumn string
	maxRows  int
}

// NewPostgresTable creates a source for relation name keyed by idColumn.
// An empty idColumn means "id".
func NewPostgresTable(db Querier, name, idColumn string, maxRows int) *PostgresTable {
	if idColumn == "" {
		idColumn = core.IDField
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &PostgresTable{db: db, name: name, idColumn: idColumn, maxRows: maxRows}
}

// ParseTableSpec splits a "relation[:idColumn]" entry from configuration.
func ParseTableSpec(spec string) (name, idColumn string) {
	name, idColumn, _ = strings.Cut(strings.TrimSpace(spec), ":")
	return strings.TrimSpace(name), strings.TrimSpace(idColumn)
}

// Name returns the relation name.
func (p *PostgresTable) Name() string { return p.name }

// IDColumn returns the column that identifies rows.
func (p *PostgresTable) IDColumn() string { return p.idColumn }

// Columns derives column definitions from the relation's result shape.
func (p *PostgresTable) Columns(ctx context.Context) ([]core.Column, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT 0", quoteIdentifier(p.name))
	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", p.name, err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	if err := p.checkIDColumn(fds); err != nil {
		return nil, err
	}
	cols := columnsFrom(fds)
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describe %s: %w", p.name, err)
	}
	return cols, nil
}

// Load reads up to maxRows rows ordered by the id column. The revision is a
// content hash, so an unchanged relation reloads without discarding edits.
func (p *PostgresTable) Load(ctx context.Context) (core.Snapshot, error) {
	query := fmt.Sprintf(
		"SELECT * FROM %s ORDER BY %s LIMIT $1",
		quoteIdentifier(p.name),
		quoteIdentifier(p.idColumn),
	)
	rows, err := p.db.Query(ctx, query, p.maxRows)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("query %s: %w", p.name, err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	if err := p.checkIDColumn(fds); err != nil {
		return core.Snapshot{}, err
	}
	hash := sha256.New()
	var out []core.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("read %s values: %w", p.name, err)
		}

		fields := make([]core.Field, 0, len(values)+1)
		for i, raw := range values {
			v := FromPg(raw)
			name := fds[i].Name
			if name == p.idColumn && name != core.IDField {
				fields = append(fields, core.F(core.IDField, v))
			}
			fields = append(fields, core.F(name, v))
			fmt.Fprintf(hash, "%s=%s\x1f", name, v.String())
		}
		hash.Write([]byte{'\x1e'})
		out = append(out, core.NewRow(fields...))
	}
	if err := rows.Err(); err != nil {
		return core.Snapshot{}, fmt.Errorf("rows %s: %w", p.name, err)
	}

	sum := hash.Sum(nil)
	return core.Snapshot{Rows: out, Revision: hex.EncodeToString(sum[:12])}, nil
}

// checkIDColumn requires the id column in fds and, when it is not "id"
// itself, no separate "id" column.
func (p *PostgresTable) checkIDColumn(fds []pgconn.FieldDescription) error {
	found := false
	for _, fd := range fds {
		switch fd.Name {
		case p.idColumn:
			found = true
		case core.IDField:
			return fmt.Errorf("%w: %s has an %q column; key it by %q or rename the column",
				ErrIDColumn, p.name, core.IDField, core.IDField)
		}
	}
	if !found {
		return fmt.Errorf("%w: %s has no column %q", ErrIDColumn, p.name, p.idColumn)
	}
	return nil
}

// Definition builds a registry entry for this relation.
func (p *PostgresTable) Definition(ctx context.Context, opts core.Options) (core.TableDefinition, error) {
	cols, err := p.Columns(ctx)
	if err != nil {
		return core.TableDefinition{}, err
	}
	return core.TableDefinition{
		Info: core.TableInfo{
			Key:   "pg_" + strings.ReplaceAll(p.name, ".", "_"),
			Group: GroupPostgres,
			Label: columnTitle(p.name[strings.LastIndex(p.name, ".")+1:]),
		},
		Columns: cols,
		Options: opts,
		Load:    p.Load,
	}, nil
}

// RegisterPostgres registers one table per spec ("relation[:idColumn]").
// With writeBack set, committed edits and deletions are persisted through a
// Writeback per table; the caller must run the returned writebacks.
func RegisterPostgres(ctx context.Context, db Querier, specs []string, opts core.Options, maxRows int, writeBack bool) ([]*Writeback, error) {
	var writers []*Writeback
	for _, spec := range specs {
		name, idCol := ParseTableSpec(spec)
		if name == "" {
			continue
		}
		pt := NewPostgresTable(db, name, idCol, maxRows)
		def, err := pt.Definition(ctx, opts)
		if err != nil {
			return writers, err
		}
		if writeBack {
			wb := NewWriteback(db, pt.Name(), pt.IDColumn(), def.Columns, 0)
			def.Listener = wb
			writers = append(writers, wb)
		}
		if err := core.Register(def); err != nil {
			return writers, err
		}
		slog.Debug("registered postgres table", "table", name, "key", def.Info.Key, "columns", len(def.Columns))
	}
	return writers, nil
}

func columnsFrom(fds []pgconn.FieldDescription) []core.Column {
	cols := make([]core.Column, 0, len(fds))
	for _, fd := range fds {
		typ := ColumnTypeForOID(fd.DataTypeOID)
		cols = append(cols, core.Column{
			Key:        fd.Name,
			Title:      columnTitle(fd.Name),
			Type:       typ,
			Sortable:   true,
			Filterable: typ != core.TypeDate,
			Resizable:  true,
		})
	}
	return cols
}
