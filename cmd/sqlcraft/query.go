package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/sqlcraft/internal/adapter"
	"github.com/sadopc/sqlcraft/internal/export"
	"github.com/sadopc/sqlcraft/internal/prompt"
	"github.com/sadopc/sqlcraft/internal/service"
)

func newQueryCmd(c *cli) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: "Run one statement exactly as given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			svc, cleanup, err := c.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.Query(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s", service.CleanError(err))
			}
			return c.writeResult(cmd, f, res)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "table", "Output format: table, csv or json")
	return cmd
}

func (c *cli) writeResult(cmd *cobra.Command, f export.Format, res *adapter.QueryResult) error {
	n := c.notifier(cmd)
	if !res.IsSelect {
		msg := res.Message
		if msg == "" {
			msg = fmt.Sprintf("%d row(s) affected", res.RowCount)
		}
		n.Notify(prompt.Success, msg)
		return nil
	}
	cols := make([]string, len(res.Columns))
	for i, col := range res.Columns {
		cols[i] = col.Name
	}
	if err := export.Write(cmd.OutOrStdout(), f, cols, res.Rows, c.theme()); err != nil {
		return err
	}
	if res.Truncated {
		n.Notify(prompt.Warning, fmt.Sprintf("result truncated to %d rows", len(res.Rows)))
	}
	return nil
}

func newBrowseCmd(c *cli) *cobra.Command {
	var (
		req     service.BrowseRequest
		filters string
		format  string
	)
	cmd := &cobra.Command{
		Use:   "browse TABLE",
		Short: "Page through a table",
		Long: `browse prints one page of a table. --filters takes a JSON array of
conditions, for example '[{"column":"age","operator":">","value":30}]'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			req.Table = args[0]
			if strings.TrimSpace(filters) != "" {
				if err := json.Unmarshal([]byte(filters), &req.Filters); err != nil {
					return fmt.Errorf("--filters: %w", err)
				}
			}

			svc, cleanup, err := c.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.Browse(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("%s", service.CleanError(err))
			}

			rows := make([][]any, len(res.Rows))
			for i, m := range res.Rows {
				rows[i] = make([]any, len(res.Columns))
				for j, col := range res.Columns {
					rows[i][j] = m[col]
				}
			}
			if err := export.Write(cmd.OutOrStdout(), f, res.Columns, rows, c.theme()); err != nil {
				return err
			}
			c.notifier(cmd).Notify(prompt.Info,
				fmt.Sprintf("page %d of %d, %d row(s) total", res.Page, res.TotalPages, res.TotalRows))
			return nil
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&req.Page, "page", 1, "Page number")
	fl.IntVar(&req.Limit, "limit", 0, "Rows per page (default from config)")
	fl.StringVar(&req.Sort, "sort", "", "Sort column")
	fl.StringVar(&req.Order, "order", "asc", "Sort direction: asc or desc")
	fl.StringVar(&req.Search, "search", "", "Text to look for in every column")
	fl.StringVar(&filters, "filters", "", "JSON array of filter conditions")
	fl.StringVarP(&format, "format", "o", "table", "Output format: table, csv or json")
	return cmd
}
