package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/intikhab/internal/app/system/indexes"
	"github.com/dalemusser/intikhab/internal/app/system/validators"
	"github.com/spf13/cobra"
)

// NewIndexesCommand creates the indexes command.
func NewIndexesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "indexes",
		Short:        "Create collections, validators and indexes",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			logger := rootOpts.logger()
			defer func() { _ = logger.Sync() }()

			db, closeDB, err := rootOpts.connect(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := validators.EnsureAll(ctx, db, logger); err != nil {
				return fmt.Errorf("validators: %w", err)
			}
			if err := indexes.EnsureAll(ctx, db); err != nil {
				return fmt.Errorf("indexes: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema ensured on %s\n", db.Name())
			return nil
		},
	}
}
