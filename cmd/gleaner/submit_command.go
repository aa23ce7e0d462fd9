package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gleaner/internal/corpus"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var source string
	var language string
	var script string
	var maxSentences int
	var transliterate bool
	var threshold float64
	var wait bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a corpus processing job",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]any{
				"source":   strings.TrimSpace(source),
				"language": strings.TrimSpace(language),
			}
			if cmd.Flags().Changed("max-sentences") {
				params["max_sentences"] = maxSentences
			}
			if cmd.Flags().Changed("transliterate") {
				params["transliterate"] = transliterate
			}
			if cmd.Flags().Changed("threshold") {
				params["confidence_threshold"] = threshold
			}
			if strings.TrimSpace(script) != "" {
				params["script"] = strings.TrimSpace(script)
			}

			// Reject bad parameters locally before bothering the daemon.
			if _, _, err := corpus.ParseParams(params); err != nil {
				return err
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}
			created, err := client.submit(params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Submitted job %s (%s)\n", created.JobID, created.Status)
			if !wait {
				return nil
			}
			return waitForJob(cmd.Context(), client, created.JobID, out)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Corpus source (oscar or wikipedia)")
	cmd.Flags().StringVar(&language, "language", "", "Language code")
	cmd.Flags().StringVar(&script, "script", "", "Restrict sentences to a script (Latn, Cyrl, Arab)")
	cmd.Flags().IntVar(&maxSentences, "max-sentences", corpus.DefaultMaxSentences, "Number of sentences to collect")
	cmd.Flags().BoolVar(&transliterate, "transliterate", corpus.DefaultTransliterate, "Apply IPA transliteration to the output")
	cmd.Flags().Float64Var(&threshold, "threshold", corpus.DefaultConfidenceThreshold, "Language identification confidence threshold")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the job reaches a terminal state")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("language")
	return cmd
}

func waitForJob(ctx context.Context, client *apiClient, id string, out io.Writer) error {
	lastLine := ""
	for {
		view, err := client.job(id)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%s %3d%% %s", view.Status, view.Progress, view.Message)
		if line != lastLine {
			fmt.Fprintln(out, line)
			lastLine = line
		}
		switch view.Status {
		case "completed":
			return nil
		case "failed":
			if view.Error != "" {
				return fmt.Errorf("job failed: %s", view.Error)
			}
			return fmt.Errorf("job failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}
