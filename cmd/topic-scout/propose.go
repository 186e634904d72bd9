package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thesismate/topic-scout/internal/conversation"
	"github.com/thesismate/topic-scout/internal/literature"
	"github.com/thesismate/topic-scout/pkg/types"
)

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Generate and validate topic proposals without a chat session",
	Long: `Propose runs one proposal round from a field and interests given on the
command line: candidate topics are generated, each is validated against
literature sources, and the feasible ones are shown ranked.`,
	RunE: runPropose,
}

func init() {
	proposeCmd.Flags().String("field", "", "research field (required)")
	proposeCmd.Flags().String("interests", "", "comma-separated research interests (required)")
	proposeCmd.Flags().Bool("json", false, "output evaluations as JSON")
	proposeCmd.Flags().String("output", "", "also save the round to a YAML evaluation file")

	rootCmd.AddCommand(proposeCmd)
}

func runPropose(cmd *cobra.Command, args []string) error {
	field, _ := cmd.Flags().GetString("field")
	interestsFlag, _ := cmd.Flags().GetString("interests")

	var interests []string
	for _, s := range strings.Split(interestsFlag, ",") {
		if s = strings.TrimSpace(s); s != "" {
			interests = append(interests, s)
		}
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	conv := conversation.Apply(types.NewConversationContext(), conversation.Extraction{
		Field:     field,
		Interests: interests,
	})

	res := a.proposer.Propose(context.Background(), conv)
	switch res.Missing {
	case "field":
		return fmt.Errorf("provide --field")
	case "interests":
		return fmt.Errorf("provide --interests")
	}

	if len(res.Evaluations) == 0 {
		return fmt.Errorf("no proposals could be produced; try again or add interests")
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := literature.WriteEvalFile(output, conv.Field, conv.Interests, res.Evaluations); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved round to %s\n", output)
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return literature.FormatJSON(res.Evaluations, os.Stdout)
	}

	if res.LowConfidence {
		fmt.Fprintln(os.Stderr, "Literature coverage looks thin; showing the strongest candidates anyway.")
	}
	for i, ev := range res.Evaluations {
		if i > 0 {
			fmt.Println()
		}
		literature.FormatEvaluation(ev, os.Stdout)
	}
	return nil
}
