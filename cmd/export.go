package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/pronto/internal/timecalc"
)

var (
	exportFormat string
	exportDate   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the week's day records to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json")
	exportCmd.Flags().StringVar(&exportDate, "date", "", "Any day of the week to export (YYYY-MM-DD, default today)")
}

func runExport(cmd *cobra.Command, args []string) error {
	day, err := parseDay(exportDate, now())
	if err != nil {
		return err
	}
	if exportFormat != "csv" && exportFormat != "json" {
		return usageError("unknown format %q: want csv or json", exportFormat)
	}

	from, to := timecalc.WeekRange(day)
	records, err := app.store.LoadRange(cmd.Context(), from, to)
	if err != nil {
		return storageError(err)
	}

	out := cmd.OutOrStdout()
	if exportFormat == "json" {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return storageError(fmt.Errorf("encoding JSON: %w", err))
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintln(out, "date,id,time,type,kind,photo")
	for _, rec := range records {
		for _, e := range rec.Entries {
			photo := ""
			if e.Photo != nil {
				photo = *e.Photo
			}
			fmt.Fprintf(out, "%s,%s,%s,%s,%s,%s\n",
				csvEscape(rec.Date),
				csvEscape(e.ID),
				csvEscape(e.Time),
				csvEscape(e.Type),
				csvEscape(e.EngineKind().String()),
				csvEscape(photo),
			)
		}
	}
	return nil
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	needsQuote := false
	for _, c := range s {
		if c == ',' || c == '"' || c == '\n' || c == '\r' {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return s
	}
	// Escape internal double quotes by doubling them.
	escaped := ""
	for _, c := range s {
		if c == '"' {
			escaped += "\""
		}
		escaped += string(c)
	}
	return `"` + escaped + `"`
}
