package sqlbuild

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/sadopc/sqlcraft/internal/schema"
)

func accountsTable() schema.Table {
	return schema.Table{
		Name: "accounts",
		Columns: []schema.Column{
			{Name: "id", DataType: "int", ColumnType: "int(10) unsigned", KeyType: schema.KeyPrimary, Extra: "auto_increment"},
			{Name: "tenant_id", DataType: "int", ColumnType: "int(10) unsigned"},
			{Name: "email", DataType: "varchar", ColumnType: "varchar(255)", Nullable: true, Default: strPtr("none"), Comment: "login"},
			{Name: "updated_at", DataType: "timestamp", ColumnType: "timestamp", Default: strPtr("CURRENT_TIMESTAMP"),
				Extra: "DEFAULT_GENERATED on update CURRENT_TIMESTAMP"},
		},
		Indexes: []schema.Index{{Name: "PRIMARY", Columns: []string{"id"}, Unique: true}},
	}
}

func TestChangePrimaryKey_Ordering(t *testing.T) {
	ops, err := ChangePrimaryKey(accountsTable(), []string{"id", "tenant_id"})
	if err != nil {
		t.Fatal(err)
	}
	want := []AlterOperation{
		{Kind: KindDropPrimaryKey},
		{Kind: KindAddPrimaryKey, Columns: []string{"id", "tenant_id"}},
	}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("ChangePrimaryKey() = %+v, want %+v", ops, want)
	}
}

func TestChangePrimaryKey_NoExistingKey(t *testing.T) {
	tbl := schema.Table{Name: "t", Columns: []schema.Column{{Name: "a", DataType: "int"}}}
	ops, err := ChangePrimaryKey(tbl, []string{"a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 || ops[0].Kind != KindAddPrimaryKey {
		t.Errorf("ChangePrimaryKey() = %+v, want only ADD_PRIMARY_KEY", ops)
	}

	if _, err := ChangePrimaryKey(tbl, []string{" "}); !IsValidation(err) {
		t.Errorf("empty selection: error = %v, want validation error", err)
	}
	if _, err := ChangePrimaryKey(tbl, []string{"b"}); !IsValidation(err) {
		t.Errorf("unknown column: error = %v, want validation error", err)
	}
}

func TestSetComment_PreservesAutoIncrementAndDropsDefault(t *testing.T) {
	id := accountsTable().Columns[0]
	id.Default = strPtr("0")

	ops, err := SetComment(id, "Row id")
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 || ops[0].Kind != KindModifyColumn {
		t.Fatalf("SetComment() = %+v, want one MODIFY_COLUMN", ops)
	}
	spec := ops[0].Column
	if !spec.AutoIncrement {
		t.Error("auto_increment was not re-asserted")
	}
	if spec.Default != nil {
		t.Errorf("default = %q, want none", *spec.Default)
	}
	if spec.Type != "int(10) unsigned" || spec.Nullable || spec.Comment != "Row id" {
		t.Errorf("rebuilt spec = %+v", spec)
	}

	raw, err := json.Marshal(ops[0])
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	colJSON := decoded["column"].(map[string]any)
	if colJSON["auto_increment"] != true {
		t.Errorf("json auto_increment = %v, want true", colJSON["auto_increment"])
	}
	if _, ok := colJSON["default"]; ok {
		t.Errorf("json carries a default key: %s", raw)
	}
	if decoded["type"] != "MODIFY_COLUMN" {
		t.Errorf("json type = %v", decoded["type"])
	}
}

func TestToggleNullable_KeepsEverythingElse(t *testing.T) {
	tbl := accountsTable()

	ops, err := ToggleNullable(tbl.Columns[2])
	if err != nil {
		t.Fatal(err)
	}
	want := ColumnSpec{Name: "email", Type: "varchar(255)", Nullable: false, Default: strPtr("none"), Comment: "login"}
	if !reflect.DeepEqual(*ops[0].Column, want) {
		t.Errorf("ToggleNullable(email) = %+v, want %+v", *ops[0].Column, want)
	}

	ops, err = ToggleNullable(tbl.Columns[3])
	if err != nil {
		t.Fatal(err)
	}
	spec := ops[0].Column
	if !spec.Nullable || spec.Extra != "on update CURRENT_TIMESTAMP" || spec.Default == nil || *spec.Default != "CURRENT_TIMESTAMP" {
		t.Errorf("ToggleNullable(updated_at) = %+v", spec)
	}
}

func TestSetDefault(t *testing.T) {
	email := accountsTable().Columns[2]

	ops, err := SetDefault(email, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ops[0].Column.Default != nil {
		t.Error("SetDefault(nil) kept the default")
	}

	ops, err = SetDefault(email, strPtr("x@y"))
	if err != nil {
		t.Fatal(err)
	}
	if got := *ops[0].Column.Default; got != "x@y" {
		t.Errorf("default = %q, want x@y", got)
	}
	if ops[0].Column.Comment != "login" || !ops[0].Column.Nullable {
		t.Errorf("SetDefault dropped attributes: %+v", ops[0].Column)
	}
}

func TestAddColumn(t *testing.T) {
	ops, err := AddColumn(ColumnForm{Name: "age", Type: "int", Length: "11", Unsigned: true, Default: strPtr("0"), After: "email"})
	if err != nil {
		t.Fatal(err)
	}
	spec := ops[0].Column
	if ops[0].Kind != KindAddColumn || spec.Type != "INT(11) UNSIGNED" || spec.After != "email" {
		t.Errorf("AddColumn() = %+v / %+v", ops[0], spec)
	}

	ops, err = AddColumn(ColumnForm{Name: "seq", Type: "bigint", AutoIncrement: true, Default: strPtr("1")})
	if err != nil {
		t.Fatal(err)
	}
	if ops[0].Column.Default != nil {
		t.Error("auto-increment column kept a default")
	}

	for _, f := range []ColumnForm{
		{Type: "int"},
		{Name: "x"},
		{Name: "x", Type: "set"},
		{Name: "x", Type: "int", First: true, After: "id"},
	} {
		if _, err := AddColumn(f); !IsValidation(err) {
			t.Errorf("AddColumn(%+v) error = %v, want validation error", f, err)
		}
	}
}

func TestAddIndex(t *testing.T) {
	tests := []struct {
		form     IndexForm
		wantKind AlterKind
		wantType string
	}{
		{IndexForm{Columns: []string{"a"}}, KindAddIndex, IndexTypeBTree},
		{IndexForm{Columns: []string{"a"}, Fulltext: true}, KindAddIndex, IndexTypeFulltext},
		{IndexForm{Columns: []string{"a"}, Unique: true}, KindAddUnique, IndexTypeBTree},
		{IndexForm{Columns: []string{"a"}, Unique: true, Fulltext: true}, KindAddUnique, IndexTypeBTree},
	}
	for _, tt := range tests {
		ops, err := AddIndex(tt.form)
		if err != nil {
			t.Fatalf("AddIndex(%+v): %v", tt.form, err)
		}
		if ops[0].Kind != tt.wantKind || ops[0].IndexType != tt.wantType {
			t.Errorf("AddIndex(%+v) = %s/%s, want %s/%s", tt.form, ops[0].Kind, ops[0].IndexType, tt.wantKind, tt.wantType)
		}
	}
	if _, err := AddIndex(IndexForm{Name: "idx"}); !IsValidation(err) {
		t.Errorf("no columns: error = %v, want validation error", err)
	}
}

func TestAddForeignKey(t *testing.T) {
	ops, err := AddForeignKey(ForeignKeyForm{Column: "tenant_id", RefTable: "tenants", RefColumn: "id"})
	if err != nil {
		t.Fatal(err)
	}
	fk := ops[0].ForeignKey
	if fk.OnDelete != "RESTRICT" || fk.OnUpdate != "RESTRICT" || ops[0].Name != "" {
		t.Errorf("AddForeignKey() = %+v / %+v", ops[0], fk)
	}

	for _, f := range []ForeignKeyForm{
		{RefTable: "tenants", RefColumn: "id"},
		{Column: "tenant_id", RefColumn: "id"},
		{Column: "tenant_id", RefTable: "tenants"},
		{Column: "tenant_id", RefTable: "tenants", RefColumn: "id", OnDelete: "DROP"},
	} {
		if _, err := AddForeignKey(f); !IsValidation(err) {
			t.Errorf("AddForeignKey(%+v) error = %v, want validation error", f, err)
		}
	}
}

func TestDropOperationsNeedName(t *testing.T) {
	for name, fn := range map[string]func(string) ([]AlterOperation, error){
		"DropColumn":     DropColumn,
		"DropIndex":      DropIndex,
		"DropForeignKey": DropForeignKey,
	} {
		if _, err := fn(""); !IsValidation(err) {
			t.Errorf("%s(\"\") error = %v, want validation error", name, err)
		}
		ops, err := fn("x")
		if err != nil || len(ops) != 1 || ops[0].Name != "x" || !ops[0].Destructive() {
			t.Errorf("%s(x) = %+v, %v", name, ops, err)
		}
	}
}

func TestPlan(t *testing.T) {
	tbl := accountsTable()

	ops, err := Plan(Action{Op: ActionSetDefault, Column: "email", Default: strPtr("a")}, tbl)
	if err != nil {
		t.Fatal(err)
	}
	if ops[0].Kind != KindModifyColumn || *ops[0].Column.Default != "a" {
		t.Errorf("Plan(set_default) = %+v", ops)
	}

	ops, err = PlanAll([]Action{
		{Op: ActionChangePrimaryKey, Columns: []string{"id", "tenant_id"}},
		{Op: ActionDropColumn, Column: "email"},
	}, tbl)
	if err != nil {
		t.Fatal(err)
	}
	var kinds []string
	for _, op := range ops {
		kinds = append(kinds, string(op.Kind))
	}
	if got := strings.Join(kinds, ","); got != "DROP_PRIMARY_KEY,ADD_PRIMARY_KEY,DROP_COLUMN" {
		t.Errorf("PlanAll() kinds = %s", got)
	}

	errCases := []Action{
		{Op: ActionToggleNullable, Column: "missing"},
		{Op: ActionSetComment},
		{Op: ActionAddColumn},
		{Op: ActionModifyColumn, Column: "email"},
		{Op: ActionAddIndex},
		{Op: ActionAddForeignKey},
		{Op: "rename_table"},
	}
	for _, a := range errCases {
		if _, err := Plan(a, tbl); !IsValidation(err) {
			t.Errorf("Plan(%+v) error = %v, want validation error", a, err)
		}
	}
}

func TestRenderAlterTable(t *testing.T) {
	tbl := accountsTable()
	var ops []AlterOperation
	for _, step := range []func() ([]AlterOperation, error){
		func() ([]AlterOperation, error) { return ChangePrimaryKey(tbl, []string{"id", "tenant_id"}) },
		func() ([]AlterOperation, error) { return SetComment(tbl.Columns[0], "Row id") },
		func() ([]AlterOperation, error) {
			return AddColumn(ColumnForm{Name: "age", Type: "int", Length: "11", Unsigned: true, Default: strPtr("0"), After: "email"})
		},
		func() ([]AlterOperation, error) { return ToggleNullable(tbl.Columns[3]) },
		func() ([]AlterOperation, error) { return AddIndex(IndexForm{Name: "idx_email", Columns: []string{"email"}, Unique: true}) },
		func() ([]AlterOperation, error) {
			return AddForeignKey(ForeignKeyForm{Name: "fk_tenant", Column: "tenant_id", RefTable: "tenants", RefColumn: "id", OnDelete: "set null"})
		},
		func() ([]AlterOperation, error) { return DropIndex("idx_old") },
	} {
		planned, err := step()
		if err != nil {
			t.Fatal(err)
		}
		ops = append(ops, planned...)
	}

	got, err := RenderAlterTable("accounts", ops)
	if err != nil {
		t.Fatal(err)
	}
	want := "ALTER TABLE `accounts`\n" +
		"  DROP PRIMARY KEY,\n" +
		"  ADD PRIMARY KEY (`id`, `tenant_id`),\n" +
		"  MODIFY COLUMN `id` int(10) unsigned NOT NULL AUTO_INCREMENT COMMENT 'Row id',\n" +
		"  ADD COLUMN `age` INT(11) UNSIGNED NOT NULL DEFAULT 0 AFTER `email`,\n" +
		"  MODIFY COLUMN `updated_at` timestamp NULL DEFAULT CURRENT_TIMESTAMP on update CURRENT_TIMESTAMP,\n" +
		"  ADD UNIQUE INDEX `idx_email` (`email`) USING BTREE,\n" +
		"  ADD CONSTRAINT `fk_tenant` FOREIGN KEY (`tenant_id`) REFERENCES `tenants` (`id`) ON DELETE SET NULL ON UPDATE RESTRICT,\n" +
		"  DROP INDEX `idx_old`;"
	if got != want {
		t.Errorf("RenderAlterTable() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderAlterTable_RejectsWholeBatch(t *testing.T) {
	ops := []AlterOperation{
		{Kind: KindDropColumn, Name: "a"},
		{Kind: KindAddIndex},
	}
	got, err := RenderAlterTable("t", ops)
	if !IsValidation(err) || got != "" {
		t.Errorf("RenderAlterTable() = %q, %v; want validation error and no SQL", got, err)
	}
	if !strings.Contains(err.Error(), "operation 2") {
		t.Errorf("error %q does not name the failing operation", err)
	}

	if _, err := RenderAlterTable("t", nil); !IsValidation(err) {
		t.Errorf("empty batch: error = %v", err)
	}
	if err := (AlterOperation{Kind: "RENAME"}).Validate(); !IsValidation(err) {
		t.Errorf("unknown kind: error = %v", err)
	}
}
