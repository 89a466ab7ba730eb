package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/kidsync/internal/models"
	"github.com/spf13/cobra"
)

func (r *runner) listCommand() *cobra.Command {
	var (
		name   string
		offset int
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show cached records in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.list(cmd.Context(), name, offset, limit)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only records whose first or last name contains this")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to show")
	return cmd
}

func (a *App) list(ctx context.Context, name string, offset, limit int) error {
	var (
		recs []models.Record
		err  error
	)
	if name != "" {
		recs, err = a.records.FindByName(ctx, name)
	} else {
		recs, err = a.store.List(ctx, offset, limit)
	}
	if err != nil {
		return err
	}

	for _, rec := range recs {
		printRecord(a.out, rec)
	}

	total, err := a.store.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d shown, %d stored\n", len(recs), total)
	return nil
}
