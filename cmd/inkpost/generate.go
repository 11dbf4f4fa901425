package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eringen/inkpost/ai"
	"github.com/eringen/inkpost/blog"
)

// newGenerateCmd writes an AI draft straight into the database, bypassing
// the HTTP server.
func newGenerateCmd(load func() (settings, error)) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate a draft post with the configured AI provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if owner == "" {
				return errors.New("--owner is required")
			}
			s, err := load()
			if err != nil {
				return err
			}
			driver, dsn := s.Site.DatabaseDriver, s.Site.DatabaseURL
			if driver == "" {
				driver = "sqlite"
			}
			if dsn == "" {
				dsn = "data/inkpost.db"
			}
			store, err := blog.NewStore(driver, dsn)
			if err != nil {
				return err
			}
			defer store.Close()

			completer, err := ai.NewCompleter(cmd.Context(), s.Site.AI)
			if err != nil {
				return err
			}
			posts := blog.NewGateway(store, nil, nil, blog.WithLogger(s.Log))
			gen := ai.NewGenerator(completer, posts, ai.WithLogger(s.Log))

			post, err := gen.GenerateDraft(cmd.Context(), owner, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d min\t%s\n", post.ID, post.Slug, post.ReadTime, post.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner id the draft belongs to")
	return cmd
}
