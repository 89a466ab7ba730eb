package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/kidsync/internal/models"
	"github.com/dmitrijs2005/kidsync/internal/pager"
	"github.com/dmitrijs2005/kidsync/internal/services"
	"github.com/dmitrijs2005/kidsync/internal/store"
	"github.com/spf13/cobra"
)

func (r *runner) browseCommand() *cobra.Command {
	var pages int
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Scroll through the cached list, fetching a remote page each time the end is reached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.browse(cmd.Context(), pages)
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "number of times to reach the end of the list")
	return cmd
}

// browse drives the paged list the way a scrolling screen would: read to the
// last item, let the boundary callback fetch, repeat.
func (a *App) browse(ctx context.Context, pages int) error {
	res, err := a.records.Search(ctx)
	if err != nil {
		return err
	}
	defer res.Close()

	hits := 0
	if res.Pager.State() == pager.FetchInFlight {
		// An empty store already asked for the first page.
		hits++
		if err := a.settle(res); err != nil {
			return err
		}
	}

	for hits < pages && res.Pager.State() != pager.Exhausted {
		if err := growAll(ctx, res.List); err != nil {
			return err
		}
		if n := res.List.Len(); n > 0 {
			if err := res.List.ItemVisible(ctx, n-1); err != nil {
				return err
			}
		} else {
			res.Pager.Request()
		}
		hits++
		if err := a.settle(res); err != nil {
			return err
		}
	}
	if err := growAll(ctx, res.List); err != nil {
		return err
	}

	for _, rec := range res.List.Items() {
		printRecord(a.out, rec)
	}
	fmt.Fprintf(a.out, "%d records loaded, pager %s\n", res.List.Len(), res.Pager.State())
	return nil
}

// settle waits for the pager and reports a failed fetch.
func (a *App) settle(res *services.SearchResult) error {
	res.Pager.Wait()
	ns := res.NetworkState.Get()
	if ns.Status == models.StatusFailed {
		return fmt.Errorf("fetch failed: %s", ns.Message)
	}
	return nil
}

// growAll loads every stored row into the list without reaching the
// boundary. An empty list is reloaded first since the store may have been
// filled after Load.
func growAll(ctx context.Context, list *store.PagedList) error {
	if list.Len() == 0 {
		if err := list.Load(ctx); err != nil {
			return err
		}
	}
	for {
		grew, err := list.Grow(ctx)
		if err != nil || !grew {
			return err
		}
	}
}
