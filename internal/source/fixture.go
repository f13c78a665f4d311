package source

// fixture.go loads table definitions and seed rows from YAML files.
//
// A fixture file looks like:
//
//	key: employees
//	label: Employees
//	options:
//	  searchable: true
//	  pageSizeOptions: [10, 25]
//	columns:
//	  - {key: name, title: Name, type: string, sortable: true, filterable: true}
//	  - {key: hired, title: Hired, type: date, sortable: true}
//	rows:
//	  - {id: 1, name: Grace Hopper, hired: 1944-07-01}
//
// Row field order follows the file. Scalars in typed columns are parsed
// with core.ParseValue, so dates may be written in any supported layout.

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/datatable/internal/core"
)

// GroupFixtures is the registry group for YAML fixtures.
const GroupFixtures = "Fixtures"

type fixtureFile struct {
	Key     string          `yaml:"key"`
	Label   string          `yaml:"label"`
	Group   string          `yaml:"group"`
	Options *fixtureOptions `yaml:"options"`
	Columns []fixtureColumn `yaml:"columns"`
	Rows    []yaml.Node     `yaml:"rows"`
}

type fixtureOptions struct {
	Searchable      bool  `yaml:"searchable"`
	Selectable      bool  `yaml:"selectable"`
	Deletable       bool  `yaml:"deletable"`
	Editable        bool  `yaml:"editable"`
	Resizable       bool  `yaml:"resizable"`
	Bordered        bool  `yaml:"bordered"`
	StickyHeader    *bool `yaml:"stickyHeader"`
	ScrollX         int   `yaml:"scrollX"`
	ScrollY         int   `yaml:"scrollY"`
	PageSizeOptions []int `yaml:"pageSizeOptions"`
	ShowSizeChanger bool  `yaml:"showSizeChanger"`
	ShowQuickJumper bool  `yaml:"showQuickJumper"`
}

type fixtureColumn struct {
	Key                 string `yaml:"key"`
	Title               string `yaml:"title"`
	Type                string `yaml:"type"`
	Sortable            bool   `yaml:"sortable"`
	Filterable          bool   `yaml:"filterable"`
	Resizable           bool   `yaml:"resizable"`
	Hidden              bool   `yaml:"hidden"`
	Width               int    `yaml:"width"`
	OpenInNewTab        bool   `yaml:"openInNewTab"`
	ShowValueAsLinkIcon bool   `yaml:"showValueAsLinkIcon"`
}

// Fixture is a table backed by a YAML file. Every Load re-reads the file;
// the revision is the file's content hash.
type Fixture struct {
	path     string
	defaults core.Options
}

// NewFixture creates a fixture for path. defaults apply when the file has
// no options block.
func NewFixture(path string, defaults core.Options) *Fixture {
	return &Fixture{path: path, defaults: defaults}
}

// Path returns the fixture file path.
func (f *Fixture) Path() string { return f.path }

// Definition parses the file and builds a registry entry.
func (f *Fixture) Definition() (core.TableDefinition, error) {
	def, _, err := f.read()
	return def, err
}

// Load re-reads the file and returns its rows.
func (f *Fixture) Load(ctx context.Context) (core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return core.Snapshot{}, err
	}
	_, snap, err := f.read()
	return snap, err
}

func (f *Fixture) read() (core.TableDefinition, core.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return core.TableDefinition{}, core.Snapshot{}, fmt.Errorf("fixture %s: %w", f.path, err)
	}
	base := strings.TrimSuffix(filepath.Base(f.path), filepath.Ext(f.path))
	def, snap, err := ParseFixture(data, base, f.defaults)
	if err != nil {
		return core.TableDefinition{}, core.Snapshot{}, fmt.Errorf("fixture %s: %w", f.path, err)
	}
	def.Load = f.Load
	return def, snap, nil
}

// ParseFixture decodes fixture YAML. fallbackKey names the table when the
// file has no key. The returned definition has no loader.
func ParseFixture(data []byte, fallbackKey string, defaults core.Options) (core.TableDefinition, core.Snapshot, error) {
	var ff fixtureFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return core.TableDefinition{}, core.Snapshot{}, fmt.Errorf("parse yaml: %w", err)
	}

	key := ff.Key
	if key == "" {
		key = fallbackKey
	}
	if key == "" {
		return core.TableDefinition{}, core.Snapshot{}, errors.New("missing table key")
	}

	cols, err := fixtureColumns(ff.Columns)
	if err != nil {
		return core.TableDefinition{}, core.Snapshot{}, err
	}
	types := make(map[string]core.ColumnType, len(cols))
	for _, c := range cols {
		types[c.Key] = c.Type
	}

	rows := make([]core.Row, 0, len(ff.Rows))
	for i := range ff.Rows {
		r, err := fixtureRow(&ff.Rows[i], types)
		if err != nil {
			return core.TableDefinition{}, core.Snapshot{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, r)
	}

	group := ff.Group
	if group == "" {
		group = GroupFixtures
	}
	opts := defaults
	if ff.Options != nil {
		opts = ff.Options.toCore(defaults)
	}

	sum := sha256.Sum256(data)
	def := core.TableDefinition{
		Info:    core.TableInfo{Key: key, Group: group, Label: ff.Label},
		Columns: cols,
		Options: opts,
	}
	return def, core.Snapshot{Rows: rows, Revision: hex.EncodeToString(sum[:12])}, nil
}

func (o *fixtureOptions) toCore(defaults core.Options) core.Options {
	opts := core.Options{
		Searchable:      o.Searchable,
		Selectable:      o.Selectable,
		Deletable:       o.Deletable,
		Editable:        o.Editable,
		Resizable:       o.Resizable,
		Bordered:        o.Bordered,
		StickyHeader:    defaults.StickyHeader,
		ScrollX:         o.ScrollX,
		ScrollY:         o.ScrollY,
		PageSizeOptions: o.PageSizeOptions,
		ShowSizeChanger: o.ShowSizeChanger,
		ShowQuickJumper: o.ShowQuickJumper,
	}
	if o.StickyHeader != nil {
		opts.StickyHeader = *o.StickyHeader
	}
	if len(opts.PageSizeOptions) == 0 {
		opts.PageSizeOptions = defaults.PageSizeOptions
	}
	return opts
}

func fixtureColumns(in []fixtureColumn) ([]core.Column, error) {
	if len(in) == 0 {
		return nil, errors.New("no columns defined")
	}
	seen := make(map[string]bool, len(in))
	cols := make([]core.Column, 0, len(in))
	for i, fc := range in {
		if fc.Key == "" {
			return nil, fmt.Errorf("column %d: missing key", i+1)
		}
		if seen[fc.Key] {
			return nil, fmt.Errorf("column %q defined twice", fc.Key)
		}
		seen[fc.Key] = true

		title := fc.Title
		if title == "" {
			title = columnTitle(fc.Key)
		}
		cols = append(cols, core.Column{
			Key:                 fc.Key,
			Title:               title,
			Type:                core.ParseColumnType(strings.ToLower(fc.Type)),
			Sortable:            fc.Sortable,
			Filterable:          fc.Filterable,
			Resizable:           fc.Resizable,
			Hidden:              fc.Hidden,
			Width:               fc.Width,
			OpenInNewTab:        fc.OpenInNewTab,
			ShowValueAsLinkIcon: fc.ShowValueAsLinkIcon,
		})
	}
	return cols, nil
}

// fixtureRow walks a mapping node so field order is preserved.
func fixtureRow(n *yaml.Node, types map[string]core.ColumnType) (core.Row, error) {
	if n.Kind != yaml.MappingNode {
		return core.Row{}, fmt.Errorf("line %d: row is not a mapping", n.Line)
	}
	fields := make([]core.Field, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, vn := n.Content[i], n.Content[i+1]
		var raw any
		if err := vn.Decode(&raw); err != nil {
			return core.Row{}, fmt.Errorf("line %d: field %s: %w", vn.Line, k.Value, err)
		}
		v := core.FromAny(raw)
		if s, ok := v.Str(); ok {
			if typ, declared := types[k.Value]; declared && typ != core.TypeString && typ != core.TypeLink {
				v = core.ParseValue(s, typ)
			}
		}
		fields = append(fields, core.F(k.Value, v))
	}
	r := core.NewRow(fields...)
	if r.ID() == "" {
		return core.Row{}, fmt.Errorf("line %d: row has no %s", n.Line, core.IDField)
	}
	return r, nil
}

// RegisterFixtures registers every *.yaml and *.yml file in dir and returns
// the number of tables registered. A missing directory registers nothing.
func RegisterFixtures(dir string, defaults core.Options) (int, error) {
	paths, err := FixturePaths(dir)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, p := range paths {
		def, err := NewFixture(p, defaults).Definition()
		if err != nil {
			return count, err
		}
		if err := core.Register(def); err != nil {
			return count, fmt.Errorf("fixture %s: %w", p, err)
		}
		slog.Debug("registered fixture", "path", p, "key", def.Info.Key, "columns", len(def.Columns))
		count++
	}
	return count, nil
}

// FixturePaths lists the fixture files in dir, sorted.
func FixturePaths(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("fixture dir %s: %w", dir, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}
