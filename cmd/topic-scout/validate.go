package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thesismate/topic-scout/internal/literature"
)

var validateCmd = &cobra.Command{
	Use:   "validate <topic>",
	Short: "Check one topic against live literature sources",
	Long: `Validate collects literature for a single topic phrase from the enabled
academic sources, merges and ranks the evidence, and reports a feasibility
score with sample citations. No AI key is needed.

With --save the evaluation is persisted under a new session so it can be
exported later.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Int("max-records", 0, "maximum merged records to collect (0 = default)")
	validateCmd.Flags().Bool("json", false, "output the evaluation as JSON")
	validateCmd.Flags().Bool("bibtex", false, "output sample records as BibTeX")
	validateCmd.Flags().Bool("csl", false, "output sample records as CSL-YAML")
	validateCmd.Flags().Bool("save", false, "persist the evaluation into the store")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a topic phrase to validate")
	}
	topic := strings.Join(args, " ")

	if maxRecords, _ := cmd.Flags().GetInt("max-records"); maxRecords > 0 {
		viper.Set("sources.max_records", maxRecords)
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ev, err := a.engine.Evaluate(context.Background(), topic)
	if err != nil {
		return err
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	bibtexOut, _ := cmd.Flags().GetBool("bibtex")
	cslOut, _ := cmd.Flags().GetBool("csl")

	switch {
	case jsonOut:
		if err := literature.FormatJSON(ev, os.Stdout); err != nil {
			return err
		}
	case bibtexOut:
		for i, r := range ev.SampleRecords {
			if i > 0 {
				fmt.Println()
			}
			fmt.Println(literature.BibTeX(r))
		}
	case cslOut:
		if err := literature.FormatCSL(ev.SampleRecords, os.Stdout); err != nil {
			return err
		}
	default:
		literature.FormatEvaluation(ev, os.Stdout)
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		sessionID := uuid.NewString()
		if err := a.store.SaveEvaluation(context.Background(), sessionID, ev); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved under session %s\n", sessionID)
	}
	return nil
}
