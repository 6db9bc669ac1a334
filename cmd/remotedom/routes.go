package main

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/remotedom/remotedom/dispatch"
)

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the demo handlers and views",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := dispatch.New()
			registerDemo(d)

			names := d.Names()
			views := d.Views()

			rows := make([][]string, 0, len(names)+len(views))
			for _, name := range names {
				rows = append(rows, []string{name, "call"})
			}
			for _, name := range views {
				rows = append(rows, []string{name, "view"})
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Name", "Kind"})
			table.AppendBulk(rows)
			table.Render()

			return nil
		},
	}
}
