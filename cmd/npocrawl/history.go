package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/npocrawl/internal/config"
	"github.com/nao1215/npocrawl/internal/database"
	"github.com/nao1215/npocrawl/internal/model"
	"github.com/nao1215/npocrawl/internal/report"
)

const historyTimeFormat = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [country]",
		Short: "Show stored crawl runs and records",
		Long: `History lists the crawl runs recorded in the npocrawl database, newest
first. With a country only the runs of that country are listed.

With --records it lists the nonprofits stored for the country instead. A
record is stored once per country and source page, however often it was
crawled.

Examples:
  # All runs
  npocrawl history

  # Runs of one country
  npocrawl history Thailand

  # Stored records of one country as JSON
  npocrawl history --records --json Thailand`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("records", "r", false,
		"List the stored nonprofits instead of the runs")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the npocrawl database")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var country string
	if len(args) > 0 {
		country = config.NormalizeCountry(args[0])
	}

	records, err := cmd.Flags().GetBool("records")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	// Reading history never creates a database.
	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(out, "No crawl history found.")
		fmt.Fprintln(out, "\nUse 'npocrawl crawl <country>' to start crawling.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if records {
		return listRecords(ctx, db, out, country, jsonOutput)
	}
	return listRuns(ctx, db, out, country, jsonOutput)
}

// listRuns prints the stored runs of a country, or of all countries.
func listRuns(ctx context.Context, db *database.RecordDB, out io.Writer, country string, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, country)
	if err != nil {
		return err
	}

	if jsonOutput {
		if runs == nil {
			runs = []database.RunRecord{}
		}
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(runs)
		return err
	}

	if len(runs) == 0 {
		if country != "" {
			fmt.Fprintf(out, "No crawl runs found for %s\n", country)
		} else {
			fmt.Fprintln(out, "No crawl runs found.")
		}
		return nil
	}

	title := "Crawl history"
	if country != "" {
		title += " for " + country
	}
	fmt.Fprintf(out, "%s (%d runs):\n\n", title, len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-19s  %7s  %7s  %s\n", "ID", "Country", "Started", "Pages", "Records", "Status")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 78))

	for _, r := range runs {
		var pages, emitted int
		if r.Stats != nil {
			pages, emitted = r.Stats.PagesFetched, r.Stats.RecordsEmitted
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-19s  %7d  %7d  %s\n",
			r.ID,
			r.Country,
			r.StartedAt.Local().Format(historyTimeFormat),
			pages,
			emitted,
			runStatus(r),
		)
	}

	fmt.Fprintln(out, "\nUse 'npocrawl history --records <country>' to list the stored nonprofits.")
	return nil
}

// runStatus describes how a stored run ended.
func runStatus(r database.RunRecord) string {
	switch {
	case !r.Finished():
		return "unfinished"
	case r.Stats != nil && r.Stats.Truncated:
		return "truncated"
	default:
		return "complete"
	}
}

// listRecords prints the stored nonprofits of a country, or of all countries.
func listRecords(ctx context.Context, db *database.RecordDB, out io.Writer, country string, jsonOutput bool) error {
	records, err := db.ListNonprofits(ctx, country)
	if err != nil {
		return err
	}

	if jsonOutput {
		if records == nil {
			records = []model.Nonprofit{}
		}
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(records)
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No stored nonprofits found.")
		return nil
	}

	fmt.Fprintf(out, "Stored nonprofits (%d):\n", len(records))
	var lastGroup string
	for _, n := range records {
		group := n.Country + " / " + cityOrUnknown(n.City)
		if group != lastGroup {
			fmt.Fprintf(out, "\n  %s\n", group)
			lastGroup = group
		}
		line := "    • " + n.Name
		if n.Website != "" {
			line += "  <" + n.Website + ">"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func cityOrUnknown(city string) string {
	if city == "" {
		return "(no city)"
	}
	return city
}
