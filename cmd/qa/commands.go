package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/sozercan/qa-mole/internal/loader"
	"github.com/sozercan/qa-mole/internal/tui"
)

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func (a *app) newExampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "example",
		Short: "Load an example passage and question from the service",
		Long: `Fetches one example payload from the service and prints it.

When the service cannot be reached, or answers with anything but a success
payload, the built-in Mars 2020 example is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			v := newConsoleView()
			loader.New(a.client()).Load(ctx, v)
			v.render(cmd.OutOrStdout())
			return nil
		},
	}
}

func (a *app) newAskCmd() *cobra.Command {
	var passage, question string
	var useExample bool

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask a question about a passage",
		Example: `  qa ask --context "The rover landed in 2021." --question "When did the rover land?"
  qa ask --example
  qa ask --example --question "Where did it land?"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			c := a.client()
			out := cmd.OutOrStdout()

			if useExample {
				v := newConsoleView()
				loader.New(c).Load(ctx, v)
				v.render(out)
				fmt.Fprintln(out)
				if passage == "" {
					passage = v.context
				}
				if question == "" {
					question = v.question
				}
			}
			if passage == "" || question == "" {
				return errors.New("both --context and --question are required (or use --example)")
			}

			resp, err := c.Predict(ctx, passage, question)
			if err != nil {
				return fmt.Errorf("prediction failed: %w", err)
			}

			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Answer:"), answerStyle.Render(resp.Answer))
			fmt.Fprintf(out, "%s %.2f%%  %s\n", labelStyle.Render("Confidence:"), resp.Confidence,
				mutedStyle.Render(fmt.Sprintf("(%d chars)", utf8.RuneCountInString(resp.Answer))))
			return nil
		},
	}

	cmd.Flags().StringVar(&passage, "context", "", "Passage to search for the answer")
	cmd.Flags().StringVarP(&question, "question", "q", "", "Question to ask")
	cmd.Flags().BoolVarP(&useExample, "example", "e", false, "Pre-fill context and question with an example from the service")
	return cmd
}

func (a *app) newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show service health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			h, err := a.client().Health(ctx)
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			status := successStyle.Render(h.Status)
			if !h.ModelLoaded {
				status = errorStyle.Render(h.Status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (model loaded: %t)\n", h.Service, status, h.ModelLoaded)
			return nil
		},
	}
}

func (a *app) newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently answered questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			entries, err := a.client().History(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No questions answered yet."))
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s %s\n", mutedStyle.Render(e.CreatedAt.Local().Format(time.DateTime)), labelStyle.Render(e.Question))
				fmt.Fprintf(out, "  %s %s\n", answerStyle.Render(e.Answer),
					mutedStyle.Render(fmt.Sprintf("(%.2f%%, %s)", e.Confidence, e.Backend)))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of entries to show (default from the service)")
	return cmd
}

func (a *app) newUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive question form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			c := a.client()
			return tui.Run(ctx, loader.New(c), c)
		},
	}
}
