package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/idelchi/dutree/internal/report"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
	// Indent is the per-level indentation of nested entries.
	Indent = "  "
)

// PrintJSON outputs the report in JSON format.
func PrintJSON(rep *report.Report, writer io.Writer) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintYAML outputs the report in YAML format.
func PrintYAML(rep *report.Report, writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2) //nolint:mnd // Two-space indentation

	if err := encoder.Encode(rep); err != nil {
		return fmt.Errorf("encoding YAML output: %w", err)
	}

	return encoder.Close()
}

// PrintPaths outputs one directory path per line, biggest first.
func PrintPaths(rep *report.Report, writer io.Writer) error {
	for _, path := range rep.Directories() {
		if _, err := fmt.Fprintln(writer, path); err != nil {
			return err
		}
	}

	return nil
}

// PrintTable outputs the report in human-readable table format.
//
//nolint:forbidigo // This function prints output to the console.
func PrintTable(rep *report.Report, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	total := rep.Root.Info.Size

	fmt.Fprintln(w, "\nUsage:\t\t\t\t")
	fmt.Fprintln(w, "  size\t%\tfiles\tdirs\tpath")

	var row func(item report.Item, level int)

	row = func(item report.Item, level int) {
		pct := 0.0
		if total > 0 {
			pct = 100.0 * float64(item.Info.Size) / float64(total)
		}

		fmt.Fprintf(w, "  %s\t%.1f%%\t%d\t%d\t%s%s\n",
			humanize.IBytes(item.Info.Size), pct, item.Info.Files, item.Info.Dirs,
			strings.Repeat(Indent, level), item.Path)

		for _, child := range item.Children {
			row(child, level+1)
		}
	}

	row(rep.Root, 0)

	// Stats summary
	fmt.Fprintln(w, "\nStats:\t\t")
	fmt.Fprintf(w, "Total files:\t%d\n", rep.Root.Info.Files)
	fmt.Fprintf(w, "Total directories:\t%d\n", rep.Root.Info.Dirs)
	fmt.Fprintf(w, "Other entries:\t%d\n", rep.Root.Info.Other)
	fmt.Fprintf(w, "Total size:\t%s (%d bytes)\n", humanize.IBytes(total), total)
	fmt.Fprintf(w, "Errors:\t%d\n", len(rep.Errors))

	if rep.Census != nil {
		verdict := "ok"
		if len(rep.Mismatch) > 0 {
			verdict = strings.Join(rep.Mismatch, ", ")
		}

		fmt.Fprintf(w, "Census:\t%s (%v)\n", verdict, rep.Census.Elapsed)
	}

	fmt.Fprintf(w, "\nElapsed:\t%v (%s)\n", rep.Elapsed, rep.Strategy)

	return w.Flush()
}
