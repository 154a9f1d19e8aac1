package sqlbuild

import (
	"strings"
	"testing"
)

func ordersTable() CreateTable {
	return CreateTable{
		Name: "orders",
		Columns: []ColumnDefinition{
			{Name: "id", Type: "int", Unsigned: true, AutoIncrement: true, PrimaryKey: true},
			{Name: "email", Type: "varchar", Length: "255", Unique: true},
			{Name: "status", Type: "enum", EnumValues: []string{"new", "it's done"}, Default: strPtr("new")},
			{Name: "total", Type: "decimal", Length: "10, 2", Nullable: true, Default: strPtr("0"), Comment: "Order's total"},
			{Name: "customer_id", Type: "int", Unsigned: true},
			{Name: "created_at", Type: "timestamp", Default: strPtr("current_timestamp")},
		},
		Indexes: []IndexSpec{{Name: "idx_status", Columns: []string{"status", "created_at"}}},
		ForeignKeys: []ForeignKeySpec{{
			Name: "fk_customer", Column: "customer_id", RefTable: "customers", RefColumn: "id", OnDelete: "cascade",
		}},
	}
}

func TestCreateTable_Build(t *testing.T) {
	got, err := ordersTable().Build()
	if err != nil {
		t.Fatal(err)
	}
	want := "CREATE TABLE `orders` (\n" +
		"  `id` INT UNSIGNED NOT NULL AUTO_INCREMENT,\n" +
		"  `email` VARCHAR(255) NOT NULL,\n" +
		"  `status` ENUM('new','it''s done') NOT NULL DEFAULT 'new',\n" +
		"  `total` DECIMAL(10,2) DEFAULT 0 COMMENT 'Order''s total',\n" +
		"  `customer_id` INT UNSIGNED NOT NULL,\n" +
		"  `created_at` TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,\n" +
		"  PRIMARY KEY (`id`),\n" +
		"  UNIQUE KEY `email` (`email`),\n" +
		"  KEY `idx_status` (`status`, `created_at`),\n" +
		"  CONSTRAINT `fk_customer` FOREIGN KEY (`customer_id`) REFERENCES `customers` (`id`) ON DELETE CASCADE\n" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;"
	if got != want {
		t.Errorf("Build() =\n%s\nwant\n%s", got, want)
	}
}

func TestCreateTable_Sentinels(t *testing.T) {
	got, err := CreateTable{}.Build()
	if err != nil || got != SentinelCreateNoName {
		t.Errorf("no name: Build() = %q, %v", got, err)
	}
	got, err = CreateTable{Name: "t"}.Build()
	if err != nil || got != SentinelCreateNoColumns {
		t.Errorf("no columns: Build() = %q, %v", got, err)
	}
	if SentinelCreateNoName == SentinelCreateNoColumns {
		t.Error("sentinels must differ")
	}

	got, err = CreateTable{Name: "t", Columns: []ColumnDefinition{{Name: "a", Type: "text", Nullable: true}}}.Build()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "CREATE TABLE") || !strings.HasSuffix(got, ";") {
		t.Errorf("Build() = %q, want CREATE TABLE ... ;", got)
	}
}

func TestCreateTable_CompositeKeyAndOptions(t *testing.T) {
	ct := CreateTable{
		Name:      "memberships",
		Engine:    "MyISAM",
		Charset:   "latin1",
		Collation: "latin1_swedish_ci",
		Comment:   "links",
		Columns: []ColumnDefinition{
			{Name: "user_id", Type: "bigint", PrimaryKey: true},
			{Name: "note", Type: "text", Nullable: true},
			{Name: "group_id", Type: "bigint", PrimaryKey: true, Unique: true},
		},
		Indexes: []IndexSpec{{Type: IndexFulltext, Columns: []string{"note"}}},
	}
	got, err := ct.Build()
	if err != nil {
		t.Fatal(err)
	}
	want := "CREATE TABLE `memberships` (\n" +
		"  `user_id` BIGINT NOT NULL,\n" +
		"  `note` TEXT,\n" +
		"  `group_id` BIGINT NOT NULL,\n" +
		"  PRIMARY KEY (`user_id`, `group_id`),\n" +
		"  FULLTEXT KEY (`note`)\n" +
		") ENGINE=MyISAM DEFAULT CHARSET=latin1 COLLATE=latin1_swedish_ci COMMENT='links';"
	if got != want {
		t.Errorf("Build() =\n%s\nwant\n%s", got, want)
	}
}

func TestCreateTable_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateTable)
	}{
		{"column without name", func(c *CreateTable) { c.Columns[1].Name = "" }},
		{"column without type", func(c *CreateTable) { c.Columns[1].Type = "" }},
		{"enum without values", func(c *CreateTable) { c.Columns[2].EnumValues = nil }},
		{"values on non-enum", func(c *CreateTable) { c.Columns[1].EnumValues = []string{"a"} }},
		{"bad length", func(c *CreateTable) { c.Columns[1].Length = "abc" }},
		{"duplicate column", func(c *CreateTable) { c.Columns[4].Name = "EMAIL" }},
		{"duplicate index name", func(c *CreateTable) {
			c.Indexes = append(c.Indexes, IndexSpec{Name: "idx_status", Columns: []string{"total"}})
		}},
		{"index name clashes with unique key", func(c *CreateTable) { c.Indexes[0].Name = "email" }},
		{"fk name clashes with index", func(c *CreateTable) { c.ForeignKeys[0].Name = "idx_status" }},
		{"index without columns", func(c *CreateTable) { c.Indexes[0].Columns = nil }},
		{"index on unknown column", func(c *CreateTable) { c.Indexes[0].Columns = []string{"nope"} }},
		{"unknown index type", func(c *CreateTable) { c.Indexes[0].Type = "SPATIAL-ISH" }},
		{"fk without ref column", func(c *CreateTable) { c.ForeignKeys[0].RefColumn = "" }},
		{"fk without ref table", func(c *CreateTable) { c.ForeignKeys[0].RefTable = "" }},
		{"fk bad action", func(c *CreateTable) { c.ForeignKeys[0].OnUpdate = "EXPLODE" }},
		{"bad engine", func(c *CreateTable) { c.Engine = "Inno DB;" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := ordersTable()
			tt.mutate(&ct)
			got, err := ct.Build()
			if !IsValidation(err) {
				t.Errorf("Build() error = %v, want validation error", err)
			}
			if got != "" {
				t.Errorf("Build() emitted %q alongside an error", got)
			}
		})
	}
}

func TestDefaultLiteral(t *testing.T) {
	tests := []struct {
		v, typ, want string
	}{
		{"NULL", "varchar(10)", "NULL"},
		{"now()", "datetime", "NOW()"},
		{"CURRENT_TIMESTAMP(3)", "datetime(3)", "CURRENT_TIMESTAMP(3)"},
		{"0", "INT UNSIGNED", "0"},
		{"1.50", "DECIMAL(10,2)", "1.50"},
		{"abc", "INT", "'abc'"},
		{"1", "ENUM('interior','1')", "'1'"},
		{"it's", "text", "'it''s'"},
	}
	for _, tt := range tests {
		if got := DefaultLiteral(tt.v, tt.typ); got != tt.want {
			t.Errorf("DefaultLiteral(%q, %q) = %q, want %q", tt.v, tt.typ, got, tt.want)
		}
	}
}
