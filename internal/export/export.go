// Package export writes query results to a terminal table, CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/sadopc/sqlcraft/internal/theme"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// MaxCellWidth bounds table cells; longer values are cut with an ellipsis.
const MaxCellWidth = 48

// ParseFormat accepts table, csv or json in any case. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("export: unknown format %q (want table, csv or json)", s)
}

// Write encodes columns and rows to w. A nil value is NULL: an empty CSV
// field, JSON null, or a dimmed NULL cell in a table.
func Write(w io.Writer, f Format, columns []string, rows [][]any, th *theme.Theme) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, columns, rows)
	case FormatJSON:
		return writeJSON(w, columns, rows)
	case FormatTable, "":
		return writeTable(w, columns, rows, th)
	}
	return fmt.Errorf("export: unknown format %q", f)
}

func writeCSV(w io.Writer, columns []string, rows [][]any) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for j := range columns {
			record[j] = ""
			if j < len(row) && row[j] != nil {
				record[j] = Cell(row[j])
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, columns []string, rows [][]any) error {
	objects := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]any, len(columns))
		for j, name := range columns {
			var v any
			if j < len(row) {
				v = row[j]
			}
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			obj[name] = v
		}
		objects = append(objects, obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(objects)
}

func writeTable(w io.Writer, columns []string, rows [][]any, th *theme.Theme) error {
	if th == nil {
		th = theme.Default()
	}
	cells := make([][]string, len(rows))
	nulls := make([][]bool, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(columns))
		nulls[i] = make([]bool, len(columns))
		for j := range columns {
			if j >= len(row) || row[j] == nil {
				cells[i][j] = "NULL"
				nulls[i][j] = true
				continue
			}
			cells[i][j] = runewidth.Truncate(oneLine(Cell(row[j])), MaxCellWidth, "…")
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(th.TableBorder).
		Headers(columns...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return th.TableHeader
			case row >= 0 && row < len(nulls) && col < len(nulls[row]) && nulls[row][col]:
				return th.TableNull
			}
			return th.TableCell
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// Cell renders one value the way it is shown to users.
func Cell(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	return fmt.Sprint(v)
}

func oneLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(s)
}
