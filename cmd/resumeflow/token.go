package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/resumeflow/auth"
	rferrors "github.com/randalmurphal/resumeflow/errors"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		subject string
		scopes  []string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP server",
		Example: `  resumeflow token --subject ci
  curl -H "Authorization: Bearer $(resumeflow token --subject me)" ...`,
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			if s.JWTSecret == "" {
				return rferrors.NewMissingCredentialError("jwt_secret", "Issuing tokens")
			}

			token, err := auth.Issue(auth.Config{Secret: []byte(s.JWTSecret), TTL: ttl}, subject, scopes...)
			if err != nil {
				return err
			}
			a.printf("%s\n", token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "resumeflow", "Token subject")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{auth.ScopeRunsCreate}, "Scopes to grant")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "Token lifetime")
	return cmd
}
