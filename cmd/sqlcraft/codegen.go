package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sadopc/sqlcraft/internal/codegen"
	"github.com/sadopc/sqlcraft/internal/highlight"
	"github.com/sadopc/sqlcraft/internal/prompt"
)

func newCodegenCmd(c *cli) *cobra.Command {
	var table, class, namespace, out string
	cmd := &cobra.Command{
		Use:   "codegen --table TABLE",
		Short: "Generate a PHP data-access class for a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := c.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			s, err := svc.Schema(cmd.Context(), table)
			if err != nil {
				return err
			}
			if class == "" {
				class = codegen.ClassName(s.Table)
			}
			src, err := codegen.PHP(codegen.Options{
				Table:      s.Table,
				ClassName:  class,
				Namespace:  namespace,
				Columns:    s.Columns,
				PrimaryKey: s.PrimaryKey,
			})
			if err != nil {
				return err
			}

			if out != "" {
				if err := os.WriteFile(out, []byte(src), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				c.notifier(cmd).Notify(prompt.Success, fmt.Sprintf("wrote %s to %s", class, out))
				return nil
			}
			w := cmd.OutOrStdout()
			if styled(w) {
				src = highlight.PHP().Highlight(src, c.theme())
			}
			fmt.Fprint(w, src)
			return nil
		},
	}
	cmd.Flags().StringVarP(&table, "table", "t", "", "Table to generate for")
	cmd.Flags().StringVar(&class, "class", "", "Class name (default: the table name in StudlyCase)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "PHP namespace")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}
