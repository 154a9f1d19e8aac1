package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/sqlcraft/internal/api"
	"github.com/sadopc/sqlcraft/internal/highlight"
	"github.com/sadopc/sqlcraft/internal/prompt"
	"github.com/sadopc/sqlcraft/internal/sqlbuild"
)

func newRenderCmd(c *cli) *cobra.Command {
	var file string
	var live bool

	cmd := &cobra.Command{
		Use:   "render (select|update|create) -f FILE",
		Short: "Print the statement a builder file describes",
		Long: `render reads query-builder state from a YAML (or JSON) file and prints
the statement without running it. Use -f - to read standard input.

With --live, UPDATE values are formatted against the table's real column
types and identifiers are quoted for the connection.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"select", "update", "create"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			var sql string
			switch args[0] {
			case "select":
				var q sqlbuild.SelectQuery
				if err := yaml.Unmarshal(data, &q); err != nil {
					return fmt.Errorf("parse %s: %w", file, err)
				}
				sql, err = q.Build()
			case "update":
				var q sqlbuild.UpdateQuery
				if err := yaml.Unmarshal(data, &q); err != nil {
					return fmt.Errorf("parse %s: %w", file, err)
				}
				if live {
					if err := c.describeUpdate(cmd, &q); err != nil {
						return err
					}
				}
				sql, err = q.Build()
				if err == nil && !sqlbuild.IsSentinel(sql) && q.HasUnscopedWhere() {
					c.notifier(cmd).Notify(prompt.Warning, api.WarningUnscopedUpdate)
				}
			case "create":
				var ct sqlbuild.CreateTable
				if err := yaml.Unmarshal(data, &ct); err != nil {
					return fmt.Errorf("parse %s: %w", file, err)
				}
				sql, err = ct.Build()
			default:
				return fmt.Errorf("unknown statement %q (want select, update or create)", args[0])
			}
			if err != nil {
				return err
			}

			c.printSQL(cmd.OutOrStdout(), sql)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Builder state file (- for stdin)")
	cmd.Flags().BoolVar(&live, "live", false, "Use the connected table's columns and quoting")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// describeUpdate fills the column metadata and quoting of q from the live
// table.
func (c *cli) describeUpdate(cmd *cobra.Command, q *sqlbuild.UpdateQuery) error {
	if q.Table == "" {
		return nil
	}
	svc, cleanup, err := c.openService(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	s, err := svc.Schema(cmd.Context(), q.Table)
	if err != nil {
		return err
	}
	q.Table = s.Table
	q.Columns = s.Columns
	q.Quote = svc.Quote()
	return nil
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return data, nil
}

// printSQL writes sql, highlighted when w is a terminal.
func (c *cli) printSQL(w io.Writer, sql string) {
	if styled(w) {
		sql = highlight.SQL().Highlight(sql, c.theme())
	}
	fmt.Fprintln(w, sql)
}
