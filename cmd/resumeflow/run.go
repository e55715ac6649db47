package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/resumeflow/server"
	"github.com/randalmurphal/resumeflow/stages"
	"github.com/randalmurphal/resumeflow/workflow"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		flowID  string
		asJSON  bool
		runOnly bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the workflow once and print the result",
		Long: `Run loads the posting and the application questions, drafts an answer,
revises it until the reviewer passes it or the retry budget is spent, then
generates interview questions and publishes the result.

Postings may be a URL or an .html/.txt file. Questions may be a .pdf, .docx,
.txt or .md file, or gdoc:<document-id> when google_credentials is set.`,
		Example: `  resumeflow run --posting https://jobs.example.com/123 --questions questions.pdf
  resumeflow run --posting posting.html --questions gdoc:1AbC... --doc-id 1XyZ...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			if s.Posting == "" || s.QuestionsDoc == "" {
				return fmt.Errorf("%w: pass --posting and --questions", stages.ErrNoSources)
			}

			logger := a.logger(s.LogLevel)
			ctx := cmd.Context()
			c, err := build(ctx, s, a.projectDir, logger, !runOnly)
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := c.runner.Run(ctx, workflow.NewState(flowID))
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(server.Response(result))
			}
			a.printResult(result)
			return nil
		},
	}

	cmd.Flags().String("posting", "", "Job posting URL or file")
	cmd.Flags().String("questions", "", "Application questions file or gdoc:<id>")
	cmd.Flags().String("doc-id", "", "Google Docs document to append the result to")
	cmd.Flags().String("output-dir", "", "Directory for the markdown copy of the result")
	cmd.Flags().StringVar(&flowID, "flow", "", "Label for this application, used in the run ID and document title")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&runOnly, "no-publish", false, "Skip publishing and only print the result")
	return cmd
}

func (a *app) printResult(state workflow.State) {
	resp := server.Response(state)

	a.printf("Run %s\n", resp.RunID)
	status := "passed review"
	if resp.Forced {
		status = "retry budget exhausted, last draft kept"
	}
	a.printf("Status: %s after %d retries (%s)\n", status, resp.RetryCount, resp.Duration)
	a.printf("Tokens: %d in, %d out\n", resp.Usage.TokensIn, resp.Usage.TokensOut)
	if resp.DocumentURL != "" {
		a.printf("Published: %s\n", resp.DocumentURL)
	}

	a.printf("\n%s\n%s\n", "Application", strings.Repeat("=", len("Application")))
	a.printf("%s\n", resp.Resume)
	a.printf("\n%s\n%s\n", "Interview Questions", strings.Repeat("=", len("Interview Questions")))
	a.printf("%s\n", resp.Questions)
}
