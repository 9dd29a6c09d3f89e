package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/reportgen/internal/render"
)

func exportCmd() *cobra.Command {
	var format string
	var out string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a saved report as PDF, Markdown or HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := a.svc.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			in := res.RenderInput()
			if out == "" {
				out = render.Filename(in, f)
			}
			if err := exportToFile(cmd, a, f, in, out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "export format: pdf|md|html")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: derived from the topic)")
	return cmd
}
