package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thesismate/topic-scout/internal/literature"
	"github.com/thesismate/topic-scout/internal/store"
	"github.com/thesismate/topic-scout/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a session's citations and evaluations from the store",
	Long: `Export writes the literature gathered for a session as BibTeX entries,
CSL-YAML references, or the full evaluations as JSON. Use --list to see
which sessions the store holds, or --from-file to export a round saved
with propose --output instead of a stored session.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("session", "", "session ID to export")
	exportCmd.Flags().String("from-file", "", "export from a saved evaluation file instead of the store")
	exportCmd.Flags().String("format", "bibtex", "export format: bibtex, csl, or json")
	exportCmd.Flags().String("output", "", "output file (default: stdout)")
	exportCmd.Flags().Bool("list", false, "list stored sessions instead of exporting")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	var w io.Writer = os.Stdout
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	format, _ := cmd.Flags().GetString("format")

	if fromFile, _ := cmd.Flags().GetString("from-file"); fromFile != "" {
		return exportFromFile(w, fromFile, format)
	}

	st, err := store.NewStore(engineConfig().Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()

	if list, _ := cmd.Flags().GetBool("list"); list {
		return listSessions(ctx, st)
	}

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		return fmt.Errorf("provide --session (or --list to see stored sessions)")
	}

	switch format {
	case "bibtex":
		return st.ExportBibTeX(ctx, w, sessionID)
	case "csl":
		return st.ExportCSL(ctx, w, sessionID)
	case "json":
		return st.ExportJSON(ctx, w, sessionID)
	default:
		return fmt.Errorf("unsupported format %q: use bibtex, csl, or json", format)
	}
}

// exportFromFile renders a round saved by propose --output.
func exportFromFile(w io.Writer, path, format string) error {
	ef, err := literature.ReadEvalFile(path)
	if err != nil {
		return err
	}

	var records []types.LiteratureRecord
	for _, ev := range ef.Evaluations {
		records = append(records, ev.SampleRecords...)
	}

	switch format {
	case "bibtex":
		seen := make(map[string]bool)
		first := true
		for _, r := range records {
			key := literature.CiteKey(r)
			if seen[key] {
				continue
			}
			seen[key] = true
			if !first {
				fmt.Fprintln(w)
			}
			first = false
			fmt.Fprintln(w, literature.BibTeX(r))
		}
		return nil
	case "csl":
		return literature.FormatCSL(records, w)
	case "json":
		return literature.FormatJSON(ef.Evaluations, w)
	default:
		return fmt.Errorf("unsupported format %q: use bibtex, csl, or json", format)
	}
}

func listSessions(ctx context.Context, st *store.Store) error {
	infos, err := st.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No stored sessions.")
		return nil
	}

	fmt.Printf("%-36s  %-24s  %-18s  %s\n", "ID", "Field", "Stage", "Updated")
	fmt.Println(strings.Repeat("-", 100))
	for _, info := range infos {
		field := info.Field
		if len(field) > 24 {
			field = field[:21] + "..."
		}
		fmt.Printf("%-36s  %-24s  %-18s  %s\n",
			info.ID, field, info.Stage, info.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
