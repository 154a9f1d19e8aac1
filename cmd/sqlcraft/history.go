package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/sqlcraft/internal/export"
	"github.com/sadopc/sqlcraft/internal/history"
	"github.com/sadopc/sqlcraft/internal/prompt"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var (
		f        history.Filter
		format   string
		clearAll bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently executed statements",
		RunE: func(cmd *cobra.Command, args []string) error {
			of, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			path, err := c.cfg.HistoryPath()
			if err != nil {
				return err
			}
			h, err := history.Open(path)
			if err != nil {
				return err
			}
			defer h.Close()

			n := c.notifier(cmd)
			if clearAll {
				ok, err := c.confirmer(cmd).Confirm(cmd.Context(), prompt.Request{Title: "Delete all query history?"})
				if err != nil || !ok {
					return err
				}
				if err := h.Clear(cmd.Context()); err != nil {
					return err
				}
				n.Notify(prompt.Success, "history cleared")
				return nil
			}

			entries, err := h.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			cols := []string{"executed_at", "action", "table", "rows", "ms", "query", "error"}
			rows := make([][]any, len(entries))
			for i, e := range entries {
				var errText any
				if e.Failed() {
					errText = e.Error
				}
				rows[i] = []any{e.ExecutedAt.Local().Format("2006-01-02 15:04:05"), e.Action, e.Table, e.RowCount, e.DurationMS, e.Query, errText}
			}
			if err := export.Write(cmd.OutOrStdout(), of, cols, rows, c.theme()); err != nil {
				return err
			}
			if len(entries) == 0 {
				n.Notify(prompt.Info, fmt.Sprintf("no history in %s", path))
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.IntVarP(&f.Limit, "limit", "n", history.DefaultLimit, "Maximum entries")
	fl.StringVar(&f.Pattern, "pattern", "", "SQL LIKE pattern on the statement")
	fl.StringVar(&f.Table, "table", "", "Only statements on this table")
	fl.StringVar(&f.Action, "action", "", "Only this action (query, browse, insert, update, delete, alter, create)")
	fl.StringVarP(&format, "format", "o", "table", "Output format: table, csv or json")
	fl.BoolVar(&clearAll, "clear", false, "Delete all history")
	return cmd
}
