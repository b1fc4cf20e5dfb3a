package cli

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/store"
)

// newPurgeCommand deletes every user and exercise from the configured store.
func newPurgeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete all users and exercises",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			st, err := store.Open(ctx, opts.cfg.DatabaseURL, opts.cfg.DatabaseName)
			if err != nil {
				return errors.Wrap(err, "open store")
			}
			defer func() {
				if err := st.Close(ctx); err != nil {
					log.WithError(err).Warn("close store")
				}
			}()

			result, err := domain.NewService(st).Purge(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Deleted %d documents from users\n", result.Users)
			fmt.Fprintf(out, "Deleted %d documents from exercises\n", result.Exercises)
			return nil
		},
	}
}
