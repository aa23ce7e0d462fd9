package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			views, err := client.jobs()
			if err != nil {
				return err
			}
			views = filterJobs(views, listStatuses)
			if jsonOut {
				return writeJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
				return nil
			}
			table := renderTable(
				[]string{"Job", "Status", "Progress", "Message", "Updated"},
				buildJobRows(views),
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status [jobID]",
		Short: "Show a single job, or a summary of all jobs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return printStatusSummary(cmd, client, jsonOut)
			}
			view, err := client.job(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job:      %s\n", view.JobID)
			fmt.Fprintf(out, "Status:   %s\n", view.Status)
			fmt.Fprintf(out, "Progress: %d%%\n", view.Progress)
			if view.Message != "" {
				fmt.Fprintf(out, "Message:  %s\n", view.Message)
			}
			if view.Error != "" {
				fmt.Fprintf(out, "Error:    %s\n", view.Error)
			}
			if view.UploadStatus != "" {
				fmt.Fprintf(out, "Upload:   %s\n", view.UploadStatus)
			}
			if view.FileID != "" {
				fmt.Fprintf(out, "File ID:  %s\n", view.FileID)
			}
			if view.ResultURL != "" {
				fmt.Fprintf(out, "Result:   %s\n", view.ResultURL)
			}
			fmt.Fprintf(out, "Created:  %s\n", view.CreatedAt)
			fmt.Fprintf(out, "Updated:  %s\n", view.UpdatedAt)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}

func printStatusSummary(cmd *cobra.Command, client *apiClient, jsonOut bool) error {
	views, err := client.jobs()
	if err != nil {
		return err
	}
	counts := map[string]int{}
	for _, view := range views {
		counts[view.Status]++
	}
	if jsonOut {
		return writeJSON(cmd, counts)
	}
	if len(views) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
		return nil
	}
	rows := make([][]string, 0, len(counts))
	for _, status := range []string{"queued", "processing", "completed", "failed"} {
		if counts[status] > 0 {
			rows = append(rows, []string{status, strconv.Itoa(counts[status])})
		}
	}
	table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}

func newResultCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "result <jobID>",
		Short: "Fetch a completed job's corpus file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])
			target := strings.TrimSpace(outputPath)
			if target == "" {
				return client.result(id, cmd.OutOrStdout())
			}
			f, err := os.Create(target)
			if err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
			if err := client.result(id, f); err != nil {
				f.Close()
				os.Remove(target)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote result to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the result to a file instead of stdout")
	return cmd
}

func filterJobs(views []jobView, statuses []string) []jobView {
	if len(statuses) == 0 {
		return views
	}
	wanted := make(map[string]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[strings.ToLower(strings.TrimSpace(status))] = struct{}{}
	}
	filtered := views[:0]
	for _, view := range views {
		if _, ok := wanted[strings.ToLower(view.Status)]; ok {
			filtered = append(filtered, view)
		}
	}
	return filtered
}

func buildJobRows(views []jobView) [][]string {
	rows := make([][]string, 0, len(views))
	for _, view := range views {
		message := view.Message
		if view.Error != "" {
			message = view.Error
		}
		rows = append(rows, []string{
			view.JobID,
			view.Status,
			strconv.Itoa(view.Progress) + "%",
			message,
			view.UpdatedAt,
		})
	}
	return rows
}
