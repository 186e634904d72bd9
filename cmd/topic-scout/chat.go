// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thesismate/topic-scout/internal/literature"
	"github.com/thesismate/topic-scout/internal/route"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk through your research goals and get validated topic proposals",
	Long: `Chat runs an interactive session. Describe your field and interests in
plain language; once both are known, candidate topics are generated and
checked against live literature sources before being shown.

Local commands inside the session:
  /reset    start over with a clean context
  /revisit  reopen topic exploration after proposals were shown
  /quit     leave the session

Progress is saved after every turn. Resume a previous session with
--session and its ID.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().String("session", "", "resume a stored session by ID")

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID != "" {
		conv, err := a.store.LoadContext(ctx, sessionID)
		if err != nil {
			return err
		}
		a.manager.Attach(sessionID, conv)
		fmt.Printf("Resumed session %s (field: %s)\n", sessionID, valueOr(conv.Field, "not set yet"))
	} else {
		sessionID = a.manager.Create()
		fmt.Printf("Started session %s\n", sessionID)
	}

	fmt.Println("Tell me about your research goals. /quit to leave.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			fmt.Printf("Session %s saved. Resume with --session %s\n", sessionID, sessionID)
			return nil
		case "/reset":
			if err := a.manager.Reset(ctx, sessionID); err != nil {
				return err
			}
			fmt.Println("Context cleared. What field are you working in?")
			continue
		case "/revisit":
			if err := a.manager.Revisit(ctx, sessionID); err != nil {
				return err
			}
			fmt.Println("Happy to look again. Add new angles, or ask for more proposals.")
			continue
		}

		dir, err := a.manager.Handle(ctx, sessionID, line)
		if err != nil {
			return err
		}
		renderDirective(dir, os.Stdout)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	fmt.Printf("\nSession %s saved. Resume with --session %s\n", sessionID, sessionID)
	return nil
}

// renderDirective prints the router's decision as conversation output.
func renderDirective(dir route.Directive, w io.Writer) {
	switch dir.Kind {
	case route.AskField:
		fmt.Fprintln(w, "What field are you working in? A discipline or subfield is enough.")
	case route.AskInterests:
		fmt.Fprintln(w, "Got it. Which problems or areas within that field interest you most?")
	case route.ShowProposals:
		renderProposals(dir, w)
	case route.Idle:
		if dir.LowConfidence {
			fmt.Fprintln(w, "I couldn't put together proposals this round. Tell me more, or try again in a moment.")
		} else {
			fmt.Fprintln(w, "Nothing new to work with. Add detail about your interests, or /revisit to explore again.")
		}
	}
}

func renderProposals(dir route.Directive, w io.Writer) {
	if dir.LowConfidence {
		fmt.Fprintln(w, "Literature coverage looks thin, but these are the strongest candidates:")
	} else {
		fmt.Fprintln(w, "Here are topic proposals backed by current literature:")
	}
	for i, ev := range dir.Evaluations {
		fmt.Fprintf(w, "\n%d. ", i+1)
		literature.FormatEvaluation(ev, w)
	}
	fmt.Fprintln(w, "\nTell me more to refine these, or /revisit to explore differently.")
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
