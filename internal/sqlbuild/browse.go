package sqlbuild

import (
	"math"
	"strconv"
	"strings"

	"github.com/sadopc/sqlcraft/internal/schema"
)

// BrowseQuery is a paginated read of one table. Page is 1-based.
type BrowseQuery struct {
	Table   string
	Columns []schema.Column
	Page    int
	Limit   int
	Sort    string
	Order   string
	Search  string
	Filters []Condition
	Quote   Quoter
	// CastText makes search match non-character columns through
	// CAST(col AS TEXT) for engines where LIKE does not coerce them.
	CastText bool
}

// Build returns the page query and the matching COUNT(*) query.
func (q BrowseQuery) Build() (data, count string, err error) {
	if strings.TrimSpace(q.Table) == "" {
		return "", "", invalid("table", "table name is required")
	}
	if q.Limit <= 0 {
		return "", "", invalid("limit", "limit must be positive")
	}
	if q.Page > 1 && q.Page-1 > math.MaxInt/q.Limit {
		return "", "", invalid("page", "page %d is out of range", q.Page)
	}

	where, err := q.where()
	if err != nil {
		return "", "", err
	}
	from := "FROM " + q.Quote.ident(q.Table)

	lines := []string{"SELECT *", from}
	countLines := []string{"SELECT COUNT(*) AS total", from}
	if where != "" {
		lines = append(lines, "WHERE "+where)
		countLines = append(countLines, "WHERE "+where)
	}

	if sort := strings.TrimSpace(q.Sort); sort != "" {
		if len(q.Columns) > 0 && !hasColumn(q.Columns, sort) {
			return "", "", invalid("sort", "unknown column %q", sort)
		}
		dir, err := parseDirection(q.Order)
		if err != nil {
			return "", "", err
		}
		lines = append(lines, "ORDER BY "+q.Quote.ident(sort)+" "+dir)
	}

	lines = append(lines, "LIMIT "+strconv.Itoa(q.Limit))
	if off := q.offset(); off > 0 {
		lines = append(lines, "OFFSET "+strconv.Itoa(off))
	}
	return strings.Join(lines, "\n") + ";", strings.Join(countLines, "\n") + ";", nil
}

func (q BrowseQuery) offset() int {
	if q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// where combines the search chain and the filter chain as
// (search) AND (filters). Either side may be absent.
func (q BrowseQuery) where() (string, error) {
	lit := LiteralByColumn(q.Columns)
	search, err := q.searchClause()
	if err != nil {
		return "", err
	}
	filters, err := renderConditions(q.Filters, lit, q.Quote)
	if err != nil {
		return "", err
	}
	switch {
	case search != "" && filters != "":
		return "(" + search + ") AND (" + filters + ")", nil
	case search != "":
		return search, nil
	default:
		return filters, nil
	}
}

// searchClause matches the term against every column: LIKE on textual
// columns, equality on numeric columns when the term is a number. Other
// columns are matched with LIKE, cast to text when CastText is set.
func (q BrowseQuery) searchClause() (string, error) {
	term := strings.TrimSpace(q.Search)
	if term == "" {
		return "", nil
	}
	if len(q.Columns) == 0 {
		return "", invalid("search", "cannot search %s without column metadata", q.Table)
	}
	var parts []string
	numeric := IsNumericLiteral(term)
	for _, c := range q.Columns {
		col := q.Quote.ident(c.Name)
		if c.IsNumeric() {
			if numeric {
				parts = append(parts, col+" = "+term)
			}
			continue
		}
		if q.CastText && !c.IsText() {
			col = "CAST(" + col + " AS TEXT)"
		}
		parts = append(parts, col+" LIKE "+Quote("%"+term+"%"))
	}
	if len(parts) == 0 {
		return "1 = 0", nil
	}
	return strings.Join(parts, " OR "), nil
}

// TotalPages is the page count for total rows at limit rows per page.
// An empty result still has one page.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func hasColumn(cols []schema.Column, name string) bool {
	name = unquote(name)
	for _, c := range cols {
		if c.Name == name {
			return true
		}
	}
	return false
}
