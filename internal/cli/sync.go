package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/kidsync/internal/enrich"
	"github.com/dmitrijs2005/kidsync/internal/services"
	"github.com/spf13/cobra"
)

func (r *runner) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch every remote page and merge it into the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.fullResync(cmd.Context())
		},
	}
}

func (a *App) fullResync(ctx context.Context) error {
	done := make(chan services.Result, 1)
	a.sync.FullResync(ctx, func(res services.Result) { done <- res })

	var res services.Result
	select {
	case res = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	fmt.Fprintf(a.out, "run %s: %d/%d pages merged, %d empty, %d inserted, %d updated\n",
		res.RunID, res.PagesMerged, res.TotalPages, res.PagesEmpty, res.Inserted, res.Updated)
	return res.Err
}

func (r *runner) detailCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detail KEY",
		Short: "Fetch the detail of one record and show it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.detail(cmd.Context(), args[0])
		},
	}
}

func (a *App) detail(ctx context.Context, key string) error {
	type outcome struct {
		out enrich.Outcome
		err error
	}
	done := make(chan outcome, 1)
	a.sync.SyncDetail(ctx, key, func(out enrich.Outcome, err error) { done <- outcome{out, err} })

	var o outcome
	select {
	case o = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	switch {
	case o.out == enrich.Failed:
		return o.err
	case o.out == enrich.NotFound:
		return fmt.Errorf("record %s is not stored, run sync or browse first", key)
	case o.err != nil:
		a.log.Warn(ctx, "detail unavailable, showing cached record", "key", key, "error", o.err)
	}

	rec, err := a.records.Get(ctx, key)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("record %s is not stored", key)
	}
	fmt.Fprintf(a.out, "detail: %s\n", o.out)
	printDetail(a.out, *rec)
	return nil
}

func (r *runner) resetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every cached record and rewind paging to the first page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := r.app.sync.Reset(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(r.app.out, "deleted %d records\n", n)
			return nil
		},
	}
}
