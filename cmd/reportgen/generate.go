package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/reportgen/internal/generate"
	"github.com/thywilljoshua/reportgen/internal/render"
	"github.com/thywilljoshua/reportgen/internal/report"
)

type generateSummary struct {
	ID           string   `json:"id,omitempty"`
	Topic        string   `json:"topic"`
	Saved        bool     `json:"saved"`
	Images       int      `json:"images"`
	Placeholders int      `json:"placeholders"`
	Figures      int      `json:"figures"`
	Files        []string `json:"files,omitempty"`
	PDFPages     int      `json:"pdf_pages,omitempty"`
}

func generateCmd() *cobra.Command {
	cfg := report.DefaultConfiguration()
	var outDir string
	var writePDF bool
	var writeMD bool
	var writeHTML bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a report on a topic and export it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			if dryRun {
				prompt, err := a.svc.Prompt(cfg)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), prompt)
				return nil
			}

			res, err := a.svc.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			summary := summarize(res)
			in := res.RenderInput()
			formats := selectedFormats(writePDF, writeMD, writeHTML)
			for _, f := range formats {
				path := filepath.Join(outDir, render.Filename(in, f))
				if err := exportToFile(cmd, a, f, in, path); err != nil {
					return err
				}
				summary.Files = append(summary.Files, path)
				if f == render.FormatPDF {
					if n, err := render.PageCountFile(path); err == nil {
						summary.PDFPages = n
					}
				}
			}

			b, _ := json.MarshalIndent(summary, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfg.Topic, "topic", "t", "", "report topic")
	cmd.Flags().BoolVar(&cfg.IncludeImages, "images", false, "generate illustrative images")
	cmd.Flags().IntVar(&cfg.ImageCount, "image-count", cfg.ImageCount, "number of images to generate")
	cmd.Flags().BoolVar(&cfg.IncludeGraphs, "graphs", false, "ask for graph placeholders")
	cmd.Flags().IntVar(&cfg.ReportLength, "length", cfg.ReportLength, "report length from 1 (brief) to 5 (extensive)")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "directory for exported files")
	cmd.Flags().BoolVar(&writePDF, "pdf", true, "export a PDF")
	cmd.Flags().BoolVar(&writeMD, "md", false, "export the raw Markdown")
	cmd.Flags().BoolVar(&writeHTML, "html", false, "export the HTML preview")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the generation prompt and exit")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func summarize(res *generate.Result) generateSummary {
	s := generateSummary{
		Topic:   res.Config.Topic,
		Saved:   res.Saved != nil,
		Images:  len(res.Assets),
		Figures: len(res.Document.Figures()),
	}
	if res.Saved != nil {
		s.ID = res.Saved.ID
	}
	for _, a := range res.Assets {
		if a.IsPlaceholder() {
			s.Placeholders++
		}
	}
	return s
}

func selectedFormats(pdf, md, html bool) []render.Format {
	var out []render.Format
	if pdf {
		out = append(out, render.FormatPDF)
	}
	if md {
		out = append(out, render.FormatMarkdown)
	}
	if html {
		out = append(out, render.FormatHTML)
	}
	return out
}

func exportToFile(cmd *cobra.Command, a *app, f render.Format, in render.Input, path string) error {
	exp, err := render.ForFormat(f, a.fetcher)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := exp.Export(cmd.Context(), in, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", f, err)
	}
	a.logger.Info("exported report", "format", f, "path", path, "bytes", n)
	return nil
}
