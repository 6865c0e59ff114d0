package schema

import (
	"fmt"
	"regexp"
	"strings"
)

type ColumnType int

const (
	UUID ColumnType = iota
	Date
	Timestamp
	Int
	Float
	Text
	Bool
	Serial
)

// sqlType is the SQLite declaration for each column type. Dates and
// timestamps are stored as ISO-8601 text.
func (t ColumnType) sqlType() string {
	switch t {
	case Int, Serial:
		return "INTEGER"
	case Float:
		return "REAL"
	case Bool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

type OnDelete string

const (
	Cascade OnDelete = "CASCADE"
	SetNull OnDelete = "SET NULL"
)

type Column struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
	NotNull    bool
	Unique     bool
	Default    string
}

type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  OnDelete
}

// Table describes one relational table. Columns keep declaration order.
type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
	Unique      [][]string
}

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func validIdentifier(name string) error {
	if !identifier.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Validate checks that every name is a plain identifier and every foreign
// key and unique constraint refers to a declared column.
func (t Table) Validate() error {
	if err := validIdentifier(t.Name); err != nil {
		return err
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", t.Name)
	}
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if err := validIdentifier(c.Name); err != nil {
			return fmt.Errorf("table %s: %w", t.Name, err)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("table %s: duplicate column %s", t.Name, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	for _, fk := range t.ForeignKeys {
		if _, ok := seen[fk.Column]; !ok {
			return fmt.Errorf("table %s: foreign key on unknown column %s", t.Name, fk.Column)
		}
		if err := validIdentifier(fk.RefTable); err != nil {
			return fmt.Errorf("table %s: %w", t.Name, err)
		}
		if err := validIdentifier(fk.RefColumn); err != nil {
			return fmt.Errorf("table %s: %w", t.Name, err)
		}
	}
	for _, group := range t.Unique {
		for _, name := range group {
			if _, ok := seen[name]; !ok {
				return fmt.Errorf("table %s: unique constraint on unknown column %s", t.Name, name)
			}
		}
	}
	return nil
}

func (c Column) definition() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte(' ')
	b.WriteString(c.Type.sqlType())
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
		if c.Type == Serial {
			b.WriteString(" AUTOINCREMENT")
		}
	}
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.Unique {
		b.WriteString(" UNIQUE")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	return b.String()
}

func (t Table) CreateSQL() string {
	parts := make([]string, 0, len(t.Columns)+len(t.ForeignKeys)+len(t.Unique))
	for _, c := range t.Columns {
		parts = append(parts, c.definition())
	}
	for _, group := range t.Unique {
		parts = append(parts, fmt.Sprintf("UNIQUE (%s)", strings.Join(group, ", ")))
	}
	for _, fk := range t.ForeignKeys {
		clause := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)", fk.Column, fk.RefTable, fk.RefColumn)
		if fk.OnDelete != "" {
			clause += " ON DELETE " + string(fk.OnDelete)
		}
		parts = append(parts, clause)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n);", t.Name, strings.Join(parts, ",\n\t"))
}

// IndexName is the name of the index created for a foreign key column.
func (t Table) IndexName(column string) string {
	return "idx_" + t.Name + "_" + column
}

// IndexSQL returns one CREATE INDEX statement per foreign key column.
func (t Table) IndexSQL() []string {
	stmts := make([]string, 0, len(t.ForeignKeys))
	for _, fk := range t.ForeignKeys {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s);", t.IndexName(fk.Column), t.Name, fk.Column))
	}
	return stmts
}
