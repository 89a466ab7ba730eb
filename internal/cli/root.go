package cli

import (
	"context"
	"io"

	"github.com/dmitrijs2005/kidsync/internal/config"
	"github.com/spf13/cobra"
)

type runner struct {
	cfg *config.Config
	out io.Writer
	app *App
}

// Run executes the kidsync command line in args and releases everything it
// opened. args are scanned for -c/--config before cobra parses them, so the
// JSON file supplies the flag defaults.
func Run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	r := &runner{cfg: cfg, out: out}
	defer r.close()

	root := r.rootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	return root.ExecuteContext(ctx)
}

func (r *runner) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "kidsync",
		Short:        "Mirror the missing children search into a local store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.cfg.Validate(); err != nil {
				return err
			}
			app, err := NewApp(cmd.Context(), r.cfg, r.out)
			if err != nil {
				return err
			}
			r.app = app
			return nil
		},
	}
	r.cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(
		r.syncCommand(),
		r.browseCommand(),
		r.detailCommand(),
		r.listCommand(),
		r.resetCommand(),
	)
	return root
}

func (r *runner) close() {
	if r.app == nil {
		return
	}
	if err := r.app.Close(); err != nil {
		r.app.log.Warn(context.Background(), "close failed", "error", err)
	}
	r.app = nil
}
