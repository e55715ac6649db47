package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/resumeflow/config"
)

// app carries what every command shares: output streams, the config
// resolver inputs and the flag overrides collected from the command line.
type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	// globalPath and projectDir override the resolver's discovery when set.
	globalPath string
	projectDir string

	flags map[string]string
}

func newApp() *app {
	return &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		flags:  map[string]string{},
	}
}

func (a *app) resolver() *config.Resolver {
	opts := []config.Option{
		config.WithEnv(a.getenv),
		config.WithErrWriter(a.stderr),
	}
	if a.globalPath != "" {
		opts = append(opts, config.WithGlobalPath(a.globalPath))
	}
	if a.projectDir != "" {
		opts = append(opts, config.WithProjectRoot(a.projectDir))
	}
	return config.NewResolver(opts...)
}

// settings resolves and validates the configuration.
func (a *app) settings() (config.Settings, error) {
	return config.Parse(a.resolver().Resolve(a.flags))
}

func (a *app) logger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
}

// flagKeys maps command-line flags onto config keys. A flag only overrides
// the config when it was given explicitly.
var flagKeys = map[string]string{
	"log-level":   "log_level",
	"max-retries": "max_retries",
	"provider":    "llm_provider",
	"posting":     "posting",
	"questions":   "questions_doc",
	"doc-id":      "google_doc_id",
	"output-dir":  "output_dir",
	"addr":        "listen_addr",
}

func (a *app) collectFlags(cmd *cobra.Command) {
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f != nil && f.Changed {
			a.flags[key] = f.Value.String()
		}
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "resumeflow",
		Short: "Draft, review and publish a resume for a job posting",
		Long: `resumeflow analyses a job posting and a set of application questions,
drafts a resume answer, and revises it under an automated reviewer until the
reviewer passes it or the retry budget runs out. Interview questions are
generated for the final draft and the result is published.

Configuration is layered: defaults < ~/.config/resumeflow/config.yaml <
.resumeflow.yaml < RESUMEFLOW_* environment < flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.collectFlags(cmd)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.projectDir, "project", "", "Project directory holding .resumeflow.yaml and prompt overrides")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.Int("max-retries", 0, "Retry budget for the revise loop")
	pf.String("provider", "", "LLM provider (claude or gemini)")

	root.AddCommand(
		newRunCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newTokenCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return line
}
