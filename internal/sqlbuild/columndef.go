package sqlbuild

import (
	"regexp"
	"strings"

	"github.com/sadopc/sqlcraft/internal/schema"
)

// columnDDL is one rendered column definition, shared by CREATE TABLE and
// ALTER TABLE ADD/MODIFY COLUMN.
type columnDDL struct {
	name          string
	typ           string
	nullable      bool
	explicitNull  bool
	autoIncrement bool
	def           *string
	extra         string
	comment       string
}

func (c columnDDL) String() string {
	var b strings.Builder
	b.WriteString(Backtick(c.name))
	b.WriteString(" ")
	b.WriteString(c.typ)
	if !c.nullable {
		b.WriteString(" NOT NULL")
	} else if c.explicitNull {
		b.WriteString(" NULL")
	}
	if c.autoIncrement {
		b.WriteString(" AUTO_INCREMENT")
	}
	if c.def != nil && !c.autoIncrement {
		b.WriteString(" DEFAULT ")
		b.WriteString(DefaultLiteral(*c.def, c.typ))
	}
	if extra := strings.TrimSpace(c.extra); extra != "" {
		b.WriteString(" ")
		b.WriteString(extra)
	}
	if c.comment != "" {
		b.WriteString(" COMMENT ")
		b.WriteString(Quote(c.comment))
	}
	return b.String()
}

var defaultKeywords = regexp.MustCompile(`(?i)^(NULL|CURRENT_TIMESTAMP(\(\d*\))?|NOW\(\d*\)|CURRENT_DATE|CURRENT_TIME|LOCALTIMESTAMP)$`)

// DefaultLiteral renders a column default. NULL and the current-time
// keywords stay bare, numbers stay bare on numeric types, anything else is
// quoted.
func DefaultLiteral(v, typ string) string {
	t := strings.TrimSpace(v)
	if defaultKeywords.MatchString(t) {
		return strings.ToUpper(t)
	}
	base := typ
	if i := strings.IndexAny(base, "( "); i >= 0 {
		base = base[:i]
	}
	if schema.IsNumericType(base) && IsNumericLiteral(t) {
		return t
	}
	return Quote(v)
}

var optionName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Referential actions accepted for ON DELETE / ON UPDATE.
var referentialActions = []string{"RESTRICT", "CASCADE", "SET NULL", "NO ACTION", "SET DEFAULT"}

// DefaultReferentialAction applies when a foreign key leaves an action empty.
const DefaultReferentialAction = "RESTRICT"

func parseReferentialAction(field, a string) (string, error) {
	norm := strings.ToUpper(strings.Join(strings.Fields(a), " "))
	if norm == "" {
		return "", nil
	}
	for _, ra := range referentialActions {
		if ra == norm {
			return ra, nil
		}
	}
	return "", invalid(field, "unsupported referential action %q", a)
}

func quoteList(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = Backtick(n)
	}
	return strings.Join(q, ", ")
}
