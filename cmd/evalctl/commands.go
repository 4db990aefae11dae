package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/report"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/tui"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/catalog"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/stats"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/smoketest"
)

func (c *cli) listCmd() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List evaluations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := c.open(cmd, true)
			if err != nil {
				return err
			}
			defer svc.Stop()

			items := svc.List(cmd.Context(), search)
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "RESIDENTE", "AÑO", "TRIMESTRE", "FECHA")
			for _, ev := range items {
				t.Row(ev.ID, ev.FullName(), ev.AcademicYear, ev.Trimester, shortDate(ev.Date))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			fmt.Fprintf(cmd.OutOrStdout(), "%d evaluaciones\n", len(items))
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "query", "q", "", "filter by name, academic year or trimester")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one evaluation resolved against the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := c.open(cmd, true)
			if err != nil {
				return err
			}
			defer svc.Stop()

			d, _, err := svc.Report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), d)
			}
			printDetail(cmd.OutOrStdout(), d)
			return nil
		},
	}
}

func printDetail(w io.Writer, d report.Detail) {
	fmt.Fprintf(w, "%s\n%s · %s · %s\n", d.Resident, d.AcademicYear, d.Trimester, d.Date)
	fmt.Fprintf(w, "Promedio general: %.1f (%d/%d calificados)\n", d.Average, d.RatedItems, d.TotalItems)
	for _, sec := range d.Sections {
		fmt.Fprintf(w, "\n%s. %s (%.1f)\n", sec.ID, sec.Title, sec.Average)
		for _, row := range sec.Rows {
			fmt.Fprintf(w, "  %-4s %-64s %s\n", row.ItemID, row.Label, row.Text)
		}
	}
}

func (c *cli) saveCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or edit an evaluation from a JSON draft",
		Long: `Reads a draft in the API's JSON shape and pushes it. A draft with an
id edits that record, one without creates a new record.
Use -f - to read the draft from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var r io.Reader = cmd.InOrStdin()
			if from != "-" {
				f, err := os.Open(from)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			var d model.Draft
			if err := json.NewDecoder(r).Decode(&d); err != nil {
				return fmt.Errorf("decode draft: %w", err)
			}

			svc, _, err := c.open(cmd, true)
			if err != nil {
				return err
			}
			defer svc.Stop()

			ev, err := svc.Save(cmd.Context(), d)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), ev)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", ev.ID, ev.FullName())
			return nil
		},
	}
	cmd.Flags().StringVarP(&from, "file", "f", "-", "draft JSON file")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an evaluation from the shared document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := c.open(cmd, true)
			if err != nil {
				return err
			}
			defer svc.Stop()

			if err := svc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func (c *cli) pullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Pull the remote document into the local copy",
		Long:  "Pulls once and exits non-zero when the remote could not be read.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := c.open(cmd, false)
			if err != nil {
				return err
			}
			defer svc.Stop()

			res := svc.Refresh(cmd.Context())
			if c.jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), svc.Status(cmd.Context())); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "source=%s records=%d\n", res.Source, res.Records)
			}
			return res.Err
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write the evaluation report as a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := c.open(cmd, true)
			if err != nil {
				return err
			}
			defer svc.Stop()

			ev, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			path, err := tui.ExportPDF(dir, ev, svc.Catalog())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "output", "o", ".", "output directory")
	return cmd
}

// statsOutput is the JSON shape of the stats command.
type statsOutput struct {
	Overview   stats.Overview          `json:"overview"`
	Categories []stats.CategoryAverage `json:"categories"`
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show collection statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := c.open(cmd, true)
			if err != nil {
				return err
			}
			defer svc.Stop()

			ctx := cmd.Context()
			out := statsOutput{Overview: svc.Overview(ctx), Categories: cohortAverages(svc.List(ctx, ""), svc.Catalog())}
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			o := out.Overview
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Evaluaciones:      %d\n", o.Evaluations)
			fmt.Fprintf(w, "Residentes:        %d\n", o.Residents)
			fmt.Fprintf(w, "Ítems calificados: %d\n", o.RatedItems)
			fmt.Fprintf(w, "Promedio global:   %.1f\n", o.GlobalAverage)
			fmt.Fprintf(w, "Estado:            %s\n", o.Status)
			for _, ca := range out.Categories {
				fmt.Fprintf(w, "  %s: %.1f (%d calificados)\n", ca.CategoryID, ca.Average, ca.Rated)
			}
			return nil
		},
	}
}

// cohortAverages pools every record's ratings into one average per catalog
// category.
func cohortAverages(records []model.Evaluation, cat *catalog.Catalog) []stats.CategoryAverage {
	out := make([]stats.CategoryAverage, len(cat.Categories))
	for i, c := range cat.Categories {
		sum := 0
		out[i] = stats.CategoryAverage{CategoryID: c.ID, Total: len(c.Items) * len(records)}
		for _, ev := range records {
			for _, it := range c.Items {
				if r := ev.Rating(c.ID, it.ID); r.Rated() {
					sum += r.Value()
					out[i].Rated++
				}
			}
		}
		if out[i].Rated > 0 {
			out[i].Average = math.Round(float64(sum)/float64(out[i].Rated)*10) / 10
		}
	}
	return out
}

func (c *cli) tuiCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cfg, err := c.open(cmd, false)
			if err != nil {
				return err
			}
			defer svc.Stop()
			return tui.Run(cmd.Context(), svc,
				tui.WithOutputDir(dir),
				tui.WithRefreshInterval(cfg.PollInterval),
			)
		},
	}
	cmd.Flags().StringVarP(&dir, "output", "o", ".", "directory for exported PDFs")
	return cmd
}

func (c *cli) smokeCmd() *cobra.Command {
	cfg := smoketest.Config{
		BaseURL: "http://localhost:9080",
		Count:   smoketest.DefaultCount,
		Timeout: smoketest.DefaultTimeout,
	}
	var seed string
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Exercise a running server end to end",
		Long: `Creates generated evaluations through the HTTP API, checks that each one
reads back through the list, the report and the PDF routes, then deletes
them unless --keep is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if seed != "" {
				v, err := strconv.ParseUint(seed, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid --seed: %w", err)
				}
				cfg.Seed = v
			}
			cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
			cfg.Verbose = c.verbose
			st, err := smoketest.Run(cmd.Context(), &cfg)
			if st != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "created=%d verified=%d mismatched=%d deleted=%d in %s\n",
					st.Created, st.Verified, st.Mismatched, st.Deleted, st.Duration.Round(time.Millisecond))
			}
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "server base URL")
	cmd.Flags().IntVar(&cfg.Count, "count", cfg.Count, "evaluations to create")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 0, "concurrent writers (0 uses the CPU count)")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")
	cmd.Flags().BoolVar(&cfg.Keep, "keep", false, "leave the created evaluations in place")
	cmd.Flags().StringVar(&seed, "seed", "", "generator seed (random when empty)")
	return cmd
}

func shortDate(t model.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
