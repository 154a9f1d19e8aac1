package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/sqlcraft/internal/adapter"
	"github.com/sadopc/sqlcraft/internal/highlight"
	"github.com/sadopc/sqlcraft/internal/prompt"
	"github.com/sadopc/sqlcraft/internal/service"
	"github.com/sadopc/sqlcraft/internal/sqlbuild"
)

func newAlterCmd(c *cli) *cobra.Command {
	var file string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "alter TABLE -f ACTIONS",
		Short: "Plan and apply schema-editor actions to a table",
		Long: `alter reads a YAML list of schema-editor actions, plans them against
the table's current definition, prints the ALTER TABLE statement and applies
it after confirmation. Plans that drop anything ask for the table name to be
typed back.

Example actions file:
  - op: add_column
    definition: {name: nickname, type: varchar, length: "64", nullable: true}
  - op: drop_index
    name: idx_email`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			var actions []sqlbuild.Action
			if err := yaml.Unmarshal(data, &actions); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}

			svc, cleanup, err := c.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			plan, err := svc.PlanAlter(cmd.Context(), args[0], actions)
			if err != nil {
				return err
			}
			c.printSQL(cmd.OutOrStdout(), plan.SQL)
			if dryRun {
				return nil
			}

			n := c.notifier(cmd)
			req := prompt.Request{
				Title: fmt.Sprintf("Apply %d operation(s) to %s?", len(plan.Operations), plan.Table),
				Body:  highlight.SQL().Highlight(plan.SQL, c.theme()),
			}
			if plan.Destructive {
				req.Require = plan.Table
				n.Notify(prompt.Warning, "this plan drops data or constraints")
			}
			ok, err := c.confirmer(cmd).Confirm(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !ok {
				n.Notify(prompt.Info, "cancelled; nothing was changed")
				return nil
			}

			if err := svc.Alter(cmd.Context(), plan.Table, plan.Operations); err != nil {
				if errors.Is(err, adapter.ErrUnsupported) {
					return fmt.Errorf("%s connections cannot alter tables; run the statement above manually", svc.Conn().AdapterName())
				}
				return fmt.Errorf("%s", service.CleanError(err))
			}
			n.Notify(prompt.Success, fmt.Sprintf("Table %s altered", plan.Table))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Actions file (- for stdin)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the statement without applying it")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
