package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/eringen/inkpost/auth"
)

// newTokenCmd issues a signed access token for local development, standing
// in for the identity provider.
func newTokenCmd(load func() (settings, error)) *cobra.Command {
	var (
		subject string
		email   string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load()
			if err != nil {
				return err
			}
			if s.Site.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not set")
			}
			if subject == "" {
				subject = uuid.NewString()
			}
			tok, err := auth.Issue(s.Site.JWTSecret, s.Site.JWTIssuer, subject, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "owner id (default: random UUID)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
