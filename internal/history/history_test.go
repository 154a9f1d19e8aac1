package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestHistory(t *testing.T, dir string) *History {
	t.Helper()
	h, err := Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return h
}

func TestOpenCreatesDBFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	h := openTestHistory(t, dir)
	defer h.Close()

	if _, err := os.Stat(filepath.Join(dir, "history.db")); err != nil {
		t.Errorf("history.db was not created: %v", err)
	}
	entries, err := h.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() on new DB error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Recent() on new DB = %d entries, want 0", len(entries))
	}
}

func TestAddAndRecent(t *testing.T) {
	h := openTestHistory(t, t.TempDir())
	defer h.Close()
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := range 5 {
		err := h.Add(ctx, Entry{
			Query:        "SELECT " + string(rune('A'+i)),
			Adapter:      "mysql",
			DatabaseName: "shop",
			ExecutedAt:   base.Add(time.Duration(i) * time.Minute),
			DurationMS:   int64(10 * (i + 1)),
			RowCount:     int64(i + 1),
		})
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	entries, err := h.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Recent(3) returned %d entries, want 3", len(entries))
	}
	if entries[0].Query != "SELECT E" || entries[2].Query != "SELECT C" {
		t.Errorf("Recent() order = %q..%q, want most recent first", entries[0].Query, entries[2].Query)
	}
	if entries[0].Action != "query" {
		t.Errorf("default Action = %q, want query", entries[0].Action)
	}
	if entries[0].DurationMS != 50 || entries[0].RowCount != 5 || entries[0].DatabaseName != "shop" {
		t.Errorf("entry fields = %+v", entries[0])
	}
}

func TestListFilters(t *testing.T) {
	h := openTestHistory(t, t.TempDir())
	defer h.Close()
	ctx := context.Background()

	now := time.Now().UTC()
	seed := []Entry{
		{Action: "query", Query: "SELECT * FROM users"},
		{Action: "insert", Table: "users", Query: "INSERT INTO users (name)\nVALUES ('alice');"},
		{Action: "query", Query: "SELECT * FROM orders"},
		{Action: "update", Table: "users", Query: "UPDATE users\nSET name = 'bob'\nWHERE id = 1;"},
		{Action: "delete", Table: "orders", Query: "DELETE FROM orders\nWHERE id = 9;", Error: "foreign key"},
	}
	for i, e := range seed {
		e.Adapter = "mysql"
		e.ExecutedAt = now.Add(time.Duration(i) * time.Second)
		if err := h.Add(ctx, e); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"everything", Filter{}, 5},
		{"pattern", Filter{Pattern: "%users%"}, 3},
		{"prefix pattern", Filter{Pattern: "SELECT%"}, 2},
		{"table", Filter{Table: "users"}, 2},
		{"action", Filter{Action: "delete"}, 1},
		{"table and action", Filter{Table: "users", Action: "update"}, 1},
		{"limit", Filter{Limit: 2}, 2},
		{"no match", Filter{Pattern: "%TRUNCATE%"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List(%+v) error = %v", tt.filter, err)
			}
			if len(got) != tt.want {
				t.Errorf("List(%+v) returned %d entries, want %d", tt.filter, len(got), tt.want)
			}
		})
	}

	failed, err := h.List(ctx, Filter{Action: "delete"})
	if err != nil {
		t.Fatal(err)
	}
	if !failed[0].Failed() || failed[0].Error != "foreign key" || failed[0].Table != "orders" {
		t.Errorf("failed entry = %+v", failed[0])
	}
}

func TestClear(t *testing.T) {
	h := openTestHistory(t, t.TempDir())
	defer h.Close()
	ctx := context.Background()

	for range 3 {
		if err := h.Add(ctx, Entry{Query: "SELECT 1"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := h.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	entries, err := h.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Recent() after Clear = %d entries, want 0", len(entries))
	}
}

func TestCloseAndReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	h1 := openTestHistory(t, dir)
	for i := range 3 {
		err := h1.Add(ctx, Entry{
			Query:      "query_" + string(rune('A'+i)),
			ExecutedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if err := h1.Close(); err != nil {
		t.Fatalf("Close() first session error = %v", err)
	}

	h2 := openTestHistory(t, dir)
	defer h2.Close()

	entries, err := h2.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() after reopen error = %v", err)
	}
	if len(entries) != 3 || entries[0].Query != "query_C" {
		t.Errorf("Recent() after reopen = %+v", entries)
	}
}

func TestNilHistory(t *testing.T) {
	var h *History
	ctx := context.Background()
	if err := h.Add(ctx, Entry{Query: "SELECT 1"}); err != nil {
		t.Errorf("Add on nil history = %v", err)
	}
	if got, err := h.List(ctx, Filter{}); got != nil || err != nil {
		t.Errorf("List on nil history = %v, %v", got, err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close on nil history = %v", err)
	}
}

func TestMemoryHistory(t *testing.T) {
	h, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error = %v", err)
	}
	defer h.Close()

	ctx := context.Background()
	if err := h.Add(ctx, Entry{Query: "SELECT 1"}); err != nil {
		t.Fatal(err)
	}
	entries, err := h.Recent(ctx, 1)
	if err != nil || len(entries) != 1 {
		t.Errorf("Recent() = %v, %v", entries, err)
	}
}
