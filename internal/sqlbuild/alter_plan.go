package sqlbuild

import (
	"strings"

	"github.com/sadopc/sqlcraft/internal/schema"
)

// ColumnForm is the add-column form.
type ColumnForm struct {
	Name          string   `json:"name" yaml:"name"`
	Type          string   `json:"type" yaml:"type"`
	Length        string   `json:"length,omitempty" yaml:"length,omitempty"`
	EnumValues    []string `json:"enum_values,omitempty" yaml:"enum_values,omitempty"`
	Unsigned      bool     `json:"unsigned,omitempty" yaml:"unsigned,omitempty"`
	Nullable      bool     `json:"nullable" yaml:"nullable"`
	AutoIncrement bool     `json:"auto_increment,omitempty" yaml:"auto_increment,omitempty"`
	Default       *string  `json:"default,omitempty" yaml:"default,omitempty"`
	Comment       string   `json:"comment,omitempty" yaml:"comment,omitempty"`
	After         string   `json:"after,omitempty" yaml:"after,omitempty"`
	First         bool     `json:"first,omitempty" yaml:"first,omitempty"`
}

// ColumnChange is a partial edit of an existing column. Nil fields keep the
// current value. DropDefault removes the default.
type ColumnChange struct {
	Type          *string `json:"type,omitempty" yaml:"type,omitempty"`
	Nullable      *bool   `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	AutoIncrement *bool   `json:"auto_increment,omitempty" yaml:"auto_increment,omitempty"`
	Default       *string `json:"default,omitempty" yaml:"default,omitempty"`
	DropDefault   bool    `json:"drop_default,omitempty" yaml:"drop_default,omitempty"`
	Comment       *string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// IndexForm is the add-index form.
type IndexForm struct {
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Columns  []string `json:"columns" yaml:"columns"`
	Unique   bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
	Fulltext bool     `json:"fulltext,omitempty" yaml:"fulltext,omitempty"`
}

// ForeignKeyForm is the add-foreign-key form.
type ForeignKeyForm struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Column    string `json:"column" yaml:"column"`
	RefTable  string `json:"ref_table" yaml:"ref_table"`
	RefColumn string `json:"ref_column" yaml:"ref_column"`
	OnDelete  string `json:"on_delete,omitempty" yaml:"on_delete,omitempty"`
	OnUpdate  string `json:"on_update,omitempty" yaml:"on_update,omitempty"`
}

// AddColumn builds ADD_COLUMN from the form.
func AddColumn(f ColumnForm) ([]AlterOperation, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return nil, invalid("name", "column name is required")
	}
	typ, err := ColumnDefinition{
		Name:       name,
		Type:       f.Type,
		Length:     f.Length,
		EnumValues: f.EnumValues,
		Unsigned:   f.Unsigned,
	}.TypeClause()
	if err != nil {
		return nil, err
	}
	spec := &ColumnSpec{
		Name:          name,
		Type:          typ,
		Nullable:      f.Nullable,
		AutoIncrement: f.AutoIncrement,
		Default:       f.Default,
		Comment:       f.Comment,
		After:         strings.TrimSpace(f.After),
		First:         f.First,
	}
	if spec.AutoIncrement {
		spec.Default = nil
	}
	return single(AlterOperation{Kind: KindAddColumn, Column: spec})
}

// ModifyColumn rebuilds the whole definition of existing with ch applied.
// Attributes ch does not touch are carried over; auto_increment is
// re-asserted and a default is never emitted next to it.
func ModifyColumn(existing schema.Column, ch ColumnChange) ([]AlterOperation, error) {
	if strings.TrimSpace(existing.Name) == "" {
		return nil, invalid("column", "column name is required")
	}
	spec := SpecFromColumn(existing)
	if ch.Type != nil {
		if strings.TrimSpace(*ch.Type) == "" {
			return nil, invalid("type", "column type cannot be empty")
		}
		spec.Type = strings.TrimSpace(*ch.Type)
	}
	if ch.Nullable != nil {
		spec.Nullable = *ch.Nullable
	}
	if ch.AutoIncrement != nil {
		spec.AutoIncrement = *ch.AutoIncrement
	}
	switch {
	case ch.DropDefault:
		spec.Default = nil
	case ch.Default != nil:
		d := *ch.Default
		spec.Default = &d
	}
	if ch.Comment != nil {
		spec.Comment = *ch.Comment
	}
	if spec.AutoIncrement {
		spec.Default = nil
	}
	return single(AlterOperation{Kind: KindModifyColumn, Column: &spec})
}

// ToggleNullable flips NULL / NOT NULL on existing.
func ToggleNullable(existing schema.Column) ([]AlterOperation, error) {
	n := !existing.Nullable
	return ModifyColumn(existing, ColumnChange{Nullable: &n})
}

// SetDefault replaces the default of existing. A nil def removes it.
func SetDefault(existing schema.Column, def *string) ([]AlterOperation, error) {
	if def == nil {
		return ModifyColumn(existing, ColumnChange{DropDefault: true})
	}
	return ModifyColumn(existing, ColumnChange{Default: def})
}

// SetComment replaces the comment of existing.
func SetComment(existing schema.Column, comment string) ([]AlterOperation, error) {
	return ModifyColumn(existing, ColumnChange{Comment: &comment})
}

// DropColumn builds DROP_COLUMN. Callers confirm before applying.
func DropColumn(name string) ([]AlterOperation, error) {
	return dropByName(KindDropColumn, "column", name)
}

// ChangePrimaryKey replaces the primary key of table with cols: DROP then
// ADD, the drop only when a key exists today.
func ChangePrimaryKey(table schema.Table, cols []string) ([]AlterOperation, error) {
	cols = trimmed(cols)
	if len(cols) == 0 {
		return nil, invalid("columns", "select at least one column for the primary key")
	}
	if err := knownColumns(table, cols); err != nil {
		return nil, err
	}
	var ops []AlterOperation
	if table.HasPrimaryKey() {
		ops = append(ops, AlterOperation{Kind: KindDropPrimaryKey})
	}
	ops = append(ops, AlterOperation{Kind: KindAddPrimaryKey, Columns: cols})
	return ops, nil
}

// AddIndex builds ADD_INDEX or ADD_UNIQUE. FULLTEXT only applies to
// non-unique indexes; everything else is BTREE.
func AddIndex(f IndexForm) ([]AlterOperation, error) {
	cols := trimmed(f.Columns)
	if len(cols) == 0 {
		return nil, invalid("columns", "select at least one column")
	}
	op := AlterOperation{Kind: KindAddIndex, Name: strings.TrimSpace(f.Name), Columns: cols, IndexType: IndexTypeBTree}
	if f.Unique {
		op.Kind = KindAddUnique
	} else if f.Fulltext {
		op.IndexType = IndexTypeFulltext
	}
	return single(op)
}

// DropIndex builds DROP_INDEX.
func DropIndex(name string) ([]AlterOperation, error) {
	return dropByName(KindDropIndex, "name", name)
}

// AddForeignKey builds ADD_FOREIGN_KEY. Referential actions default to
// RESTRICT; an empty name is left for the server to generate.
func AddForeignKey(f ForeignKeyForm) ([]AlterOperation, error) {
	switch {
	case strings.TrimSpace(f.Column) == "":
		return nil, invalid("column", "local column is required")
	case strings.TrimSpace(f.RefTable) == "":
		return nil, invalid("ref_table", "referenced table is required")
	case strings.TrimSpace(f.RefColumn) == "":
		return nil, invalid("ref_column", "referenced column is required")
	}
	ref := &ForeignKeyRef{
		Column:    strings.TrimSpace(f.Column),
		RefTable:  strings.TrimSpace(f.RefTable),
		RefColumn: strings.TrimSpace(f.RefColumn),
		OnDelete:  orDefault(f.OnDelete, DefaultReferentialAction),
		OnUpdate:  orDefault(f.OnUpdate, DefaultReferentialAction),
	}
	return single(AlterOperation{Kind: KindAddForeignKey, Name: strings.TrimSpace(f.Name), ForeignKey: ref})
}

// DropForeignKey builds DROP_FOREIGN_KEY.
func DropForeignKey(name string) ([]AlterOperation, error) {
	return dropByName(KindDropForeignKey, "name", name)
}

// SpecFromColumn converts introspected metadata into a full column
// definition. Extra is kept minus auto_increment, which becomes its own
// flag, and minus DEFAULT_GENERATED, which MySQL reports but does not accept.
func SpecFromColumn(c schema.Column) ColumnSpec {
	spec := ColumnSpec{
		Name:          c.Name,
		Type:          c.Type(),
		Nullable:      c.Nullable,
		AutoIncrement: c.AutoIncrement(),
		Extra:         cleanExtra(c.ExtraWithoutAutoIncrement()),
		Comment:       c.Comment,
	}
	if c.Default != nil && !spec.AutoIncrement {
		d := *c.Default
		spec.Default = &d
	}
	return spec
}

func cleanExtra(extra string) string {
	fields := strings.Fields(extra)
	kept := fields[:0]
	for _, f := range fields {
		if strings.EqualFold(f, "DEFAULT_GENERATED") {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// ActionKind names a schema-editor action.
type ActionKind string

const (
	ActionAddColumn        ActionKind = "add_column"
	ActionModifyColumn     ActionKind = "modify_column"
	ActionToggleNullable   ActionKind = "toggle_nullable"
	ActionSetDefault       ActionKind = "set_default"
	ActionSetComment       ActionKind = "set_comment"
	ActionDropColumn       ActionKind = "drop_column"
	ActionChangePrimaryKey ActionKind = "change_primary_key"
	ActionAddIndex         ActionKind = "add_index"
	ActionDropIndex        ActionKind = "drop_index"
	ActionAddForeignKey    ActionKind = "add_foreign_key"
	ActionDropForeignKey   ActionKind = "drop_foreign_key"
)

// Action is one schema-editor request. Column names the existing column for
// the modify flows; the other fields are read according to Op.
type Action struct {
	Op         ActionKind      `json:"op" yaml:"op"`
	Column     string          `json:"column,omitempty" yaml:"column,omitempty"`
	Name       string          `json:"name,omitempty" yaml:"name,omitempty"`
	Columns    []string        `json:"columns,omitempty" yaml:"columns,omitempty"`
	Default    *string         `json:"default,omitempty" yaml:"default,omitempty"`
	Comment    string          `json:"comment,omitempty" yaml:"comment,omitempty"`
	Definition *ColumnForm     `json:"definition,omitempty" yaml:"definition,omitempty"`
	Change     *ColumnChange   `json:"change,omitempty" yaml:"change,omitempty"`
	Index      *IndexForm      `json:"index,omitempty" yaml:"index,omitempty"`
	ForeignKey *ForeignKeyForm `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
}

// Plan turns one action into its ordered operations against the current
// state of the table.
func Plan(a Action, existing schema.Table) ([]AlterOperation, error) {
	column := func() (schema.Column, error) {
		name := strings.TrimSpace(a.Column)
		if name == "" {
			return schema.Column{}, invalid("column", "column is required")
		}
		c, ok := existing.Column(name)
		if !ok {
			return schema.Column{}, invalid("column", "unknown column %q in %s", name, existing.Name)
		}
		return c, nil
	}

	switch a.Op {
	case ActionAddColumn:
		if a.Definition == nil {
			return nil, invalid("definition", "column definition is required")
		}
		return AddColumn(*a.Definition)
	case ActionModifyColumn:
		c, err := column()
		if err != nil {
			return nil, err
		}
		if a.Change == nil {
			return nil, invalid("change", "nothing to change")
		}
		return ModifyColumn(c, *a.Change)
	case ActionToggleNullable:
		c, err := column()
		if err != nil {
			return nil, err
		}
		return ToggleNullable(c)
	case ActionSetDefault:
		c, err := column()
		if err != nil {
			return nil, err
		}
		return SetDefault(c, a.Default)
	case ActionSetComment:
		c, err := column()
		if err != nil {
			return nil, err
		}
		return SetComment(c, a.Comment)
	case ActionDropColumn:
		c, err := column()
		if err != nil {
			return nil, err
		}
		return DropColumn(c.Name)
	case ActionChangePrimaryKey:
		return ChangePrimaryKey(existing, a.Columns)
	case ActionAddIndex:
		if a.Index == nil {
			return nil, invalid("index", "index definition is required")
		}
		return AddIndex(*a.Index)
	case ActionDropIndex:
		return DropIndex(a.Name)
	case ActionAddForeignKey:
		if a.ForeignKey == nil {
			return nil, invalid("foreign_key", "foreign key definition is required")
		}
		return AddForeignKey(*a.ForeignKey)
	case ActionDropForeignKey:
		return DropForeignKey(a.Name)
	}
	return nil, invalid("op", "unknown action %q", a.Op)
}

// PlanAll plans a sequence of actions into one batch.
func PlanAll(actions []Action, existing schema.Table) ([]AlterOperation, error) {
	var ops []AlterOperation
	for _, a := range actions {
		planned, err := Plan(a, existing)
		if err != nil {
			return nil, err
		}
		ops = append(ops, planned...)
	}
	return ops, nil
}

func knownColumns(t schema.Table, cols []string) error {
	if len(t.Columns) == 0 {
		return nil
	}
	for _, c := range cols {
		if _, ok := t.Column(c); !ok {
			return invalid("columns", "unknown column %q in %s", c, t.Name)
		}
	}
	return nil
}

func dropByName(kind AlterKind, field, name string) ([]AlterOperation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid(field, "name is required")
	}
	return single(AlterOperation{Kind: kind, Name: name})
}

func single(op AlterOperation) ([]AlterOperation, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return []AlterOperation{op}, nil
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
