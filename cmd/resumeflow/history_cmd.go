package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/resumeflow/history"
)

func (a *app) historyStore() (*history.FileStore, error) {
	s, err := a.settings()
	if err != nil {
		return nil, err
	}
	if s.OutputDir == "" {
		return nil, fmt.Errorf("run history is kept under output_dir, which is not set")
	}
	return history.NewFileStore(historyDir(s))
}

func newHistoryCmd(a *app) *cobra.Command {
	var filter history.ListFilter
	var status string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := a.historyStore()
			if err != nil {
				return err
			}
			filter.Status = history.Status(status)
			runs, err := store.List(filter)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				a.printf("No runs recorded in %s\n", store.BaseDir())
				return nil
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSTATUS\tRETRIES\tSTARTED\tDOCUMENT")
			for _, m := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					m.RunID, m.Status, m.RetryCount, m.StartedAt.Format(time.DateTime), m.DocumentURL)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&filter.FlowID, "flow", "", "Only runs with this flow label")
	cmd.Flags().StringVar(&status, "status", "", "Only runs with this status (passed, forced, failed, canceled)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "Maximum runs to list")

	cmd.AddCommand(newHistoryShowCmd(a))
	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show every step of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := a.historyStore()
			if err != nil {
				return err
			}
			rec, err := store.Load(args[0])
			if err != nil {
				return err
			}

			m := rec.Meta
			a.printf("Run %s [%s]\n", m.RunID, m.Status)
			if m.FlowID != "" {
				a.printf("Flow: %s\n", m.FlowID)
			}
			a.printf("Retries: %d, tokens: %d in, %d out\n", m.RetryCount, m.Usage.TokensIn, m.Usage.TokensOut)
			if m.Error != "" {
				a.printf("Error (%s): %s\n", m.FailedNode, m.Error)
			}

			for _, step := range rec.Steps {
				a.printf("\n#%d %s (retry %d)", step.Seq, step.Node, step.RetryCount)
				if step.Tag != "" {
					a.printf(" %s", step.Tag)
				}
				a.printf("\n")
				text := step.Text
				if !full {
					text = firstLine(text)
				}
				if text != "" {
					a.printf("  %s\n", text)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Print the full text of each step")
	return cmd
}
