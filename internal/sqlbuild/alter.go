package sqlbuild

import (
	"fmt"
	"strings"
)

// AlterKind tags an AlterOperation.
type AlterKind string

const (
	KindAddColumn      AlterKind = "ADD_COLUMN"
	KindModifyColumn   AlterKind = "MODIFY_COLUMN"
	KindDropColumn     AlterKind = "DROP_COLUMN"
	KindAddPrimaryKey  AlterKind = "ADD_PRIMARY_KEY"
	KindDropPrimaryKey AlterKind = "DROP_PRIMARY_KEY"
	KindAddIndex       AlterKind = "ADD_INDEX"
	KindAddUnique      AlterKind = "ADD_UNIQUE"
	KindDropIndex      AlterKind = "DROP_INDEX"
	KindAddForeignKey  AlterKind = "ADD_FOREIGN_KEY"
	KindDropForeignKey AlterKind = "DROP_FOREIGN_KEY"
)

// Index types carried by ADD_INDEX and ADD_UNIQUE.
const (
	IndexTypeBTree    = "BTREE"
	IndexTypeHash     = "HASH"
	IndexTypeFulltext = "FULLTEXT"
)

// ColumnSpec is a complete column definition for ADD_COLUMN and
// MODIFY_COLUMN. Type is the full type, e.g. "int(10) unsigned".
type ColumnSpec struct {
	Name          string  `json:"name" yaml:"name"`
	Type          string  `json:"type" yaml:"type"`
	Nullable      bool    `json:"nullable" yaml:"nullable"`
	AutoIncrement bool    `json:"auto_increment,omitempty" yaml:"auto_increment,omitempty"`
	Default       *string `json:"default,omitempty" yaml:"default,omitempty"`
	Extra         string  `json:"extra,omitempty" yaml:"extra,omitempty"`
	Comment       string  `json:"comment,omitempty" yaml:"comment,omitempty"`
	After         string  `json:"after,omitempty" yaml:"after,omitempty"`
	First         bool    `json:"first,omitempty" yaml:"first,omitempty"`
}

// ForeignKeyRef is the payload of ADD_FOREIGN_KEY.
type ForeignKeyRef struct {
	Column    string `json:"column" yaml:"column"`
	RefTable  string `json:"ref_table" yaml:"ref_table"`
	RefColumn string `json:"ref_column" yaml:"ref_column"`
	OnDelete  string `json:"on_delete,omitempty" yaml:"on_delete,omitempty"`
	OnUpdate  string `json:"on_update,omitempty" yaml:"on_update,omitempty"`
}

// AlterOperation is one clause of a batched ALTER TABLE. Only the fields
// its Kind needs are set.
type AlterOperation struct {
	Kind       AlterKind      `json:"type" yaml:"type"`
	Column     *ColumnSpec    `json:"column,omitempty" yaml:"column,omitempty"`
	Name       string         `json:"name,omitempty" yaml:"name,omitempty"`
	Columns    []string       `json:"columns,omitempty" yaml:"columns,omitempty"`
	IndexType  string         `json:"index_type,omitempty" yaml:"index_type,omitempty"`
	ForeignKey *ForeignKeyRef `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
}

// Destructive reports whether applying op loses data or a constraint.
func (op AlterOperation) Destructive() bool {
	switch op.Kind {
	case KindDropColumn, KindDropPrimaryKey, KindDropIndex, KindDropForeignKey:
		return true
	}
	return false
}

// Validate checks that op carries the payload its kind requires.
func (op AlterOperation) Validate() error {
	field := string(op.Kind)
	switch op.Kind {
	case KindAddColumn, KindModifyColumn:
		if op.Column == nil {
			return invalid(field, "column definition is required")
		}
		if strings.TrimSpace(op.Column.Name) == "" {
			return invalid(field, "column name is required")
		}
		if strings.TrimSpace(op.Column.Type) == "" {
			return invalid(field, "column type is required")
		}
		if op.Column.First && op.Column.After != "" {
			return invalid(field, "FIRST and AFTER are mutually exclusive")
		}
	case KindDropColumn, KindDropIndex, KindDropForeignKey:
		if strings.TrimSpace(op.Name) == "" {
			return invalid(field, "name is required")
		}
	case KindAddPrimaryKey:
		if len(trimmed(op.Columns)) == 0 {
			return invalid(field, "select at least one column for the primary key")
		}
	case KindDropPrimaryKey:
	case KindAddIndex, KindAddUnique:
		if len(trimmed(op.Columns)) == 0 {
			return invalid(field, "select at least one column")
		}
		switch strings.ToUpper(op.IndexType) {
		case "", IndexTypeBTree, IndexTypeHash:
		case IndexTypeFulltext:
			if op.Kind == KindAddUnique {
				return invalid(field, "a unique index cannot be FULLTEXT")
			}
		default:
			return invalid(field, "unsupported index type %q", op.IndexType)
		}
	case KindAddForeignKey:
		fk := op.ForeignKey
		switch {
		case fk == nil || strings.TrimSpace(fk.Column) == "":
			return invalid(field, "local column is required")
		case strings.TrimSpace(fk.RefTable) == "":
			return invalid(field, "referenced table is required")
		case strings.TrimSpace(fk.RefColumn) == "":
			return invalid(field, "referenced column is required")
		}
		if _, err := parseReferentialAction(field, fk.OnDelete); err != nil {
			return err
		}
		if _, err := parseReferentialAction(field, fk.OnUpdate); err != nil {
			return err
		}
	default:
		return invalid("type", "unknown alter operation %q", op.Kind)
	}
	return nil
}

// Clause renders op as one ALTER TABLE clause.
func (op AlterOperation) Clause() (string, error) {
	if err := op.Validate(); err != nil {
		return "", err
	}
	switch op.Kind {
	case KindAddColumn:
		return "ADD COLUMN " + op.Column.ddl(), nil
	case KindModifyColumn:
		return "MODIFY COLUMN " + op.Column.ddl(), nil
	case KindDropColumn:
		return "DROP COLUMN " + Backtick(op.Name), nil
	case KindAddPrimaryKey:
		return "ADD PRIMARY KEY (" + quoteList(trimmed(op.Columns)) + ")", nil
	case KindDropPrimaryKey:
		return "DROP PRIMARY KEY", nil
	case KindAddIndex, KindAddUnique:
		return op.indexClause(), nil
	case KindDropIndex:
		return "DROP INDEX " + Backtick(op.Name), nil
	case KindAddForeignKey:
		fk := op.ForeignKey
		clause, err := foreignKeyClause(string(op.Kind), op.Name, []string{fk.Column},
			fk.RefTable, []string{fk.RefColumn}, fk.OnDelete, fk.OnUpdate)
		if err != nil {
			return "", err
		}
		return "ADD " + clause, nil
	case KindDropForeignKey:
		return "DROP FOREIGN KEY " + Backtick(op.Name), nil
	}
	return "", invalid("type", "unknown alter operation %q", op.Kind)
}

func (op AlterOperation) indexClause() string {
	typ := strings.ToUpper(op.IndexType)
	var b strings.Builder
	switch {
	case typ == IndexTypeFulltext:
		b.WriteString("ADD FULLTEXT INDEX")
	case op.Kind == KindAddUnique:
		b.WriteString("ADD UNIQUE INDEX")
	default:
		b.WriteString("ADD INDEX")
	}
	if n := strings.TrimSpace(op.Name); n != "" {
		b.WriteString(" " + Backtick(n))
	}
	b.WriteString(" (" + quoteList(trimmed(op.Columns)) + ")")
	if typ != IndexTypeFulltext {
		if typ == "" {
			typ = IndexTypeBTree
		}
		b.WriteString(" USING " + typ)
	}
	return b.String()
}

func (c *ColumnSpec) ddl() string {
	s := columnDDL{
		name:          strings.TrimSpace(c.Name),
		typ:           strings.TrimSpace(c.Type),
		nullable:      c.Nullable,
		explicitNull:  true,
		autoIncrement: c.AutoIncrement,
		def:           c.Default,
		extra:         c.Extra,
		comment:       c.Comment,
	}.String()
	switch {
	case c.First:
		s += " FIRST"
	case strings.TrimSpace(c.After) != "":
		s += " AFTER " + Backtick(strings.TrimSpace(c.After))
	}
	return s
}

// RenderAlterTable renders ops as a single ALTER TABLE statement with the
// clauses in batch order. Every operation is validated first; nothing is
// rendered if any of them is invalid.
func RenderAlterTable(table string, ops []AlterOperation) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", invalid("table", "table name is required")
	}
	if len(ops) == 0 {
		return "", invalid("operations", "no operations to apply")
	}
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return "", fmt.Errorf("operation %d: %w", i+1, err)
		}
	}
	clauses := make([]string, len(ops))
	for i, op := range ops {
		c, err := op.Clause()
		if err != nil {
			return "", fmt.Errorf("operation %d: %w", i+1, err)
		}
		clauses[i] = c
	}
	return "ALTER TABLE " + Backtick(strings.TrimSpace(table)) + "\n  " + strings.Join(clauses, ",\n  ") + ";", nil
}
