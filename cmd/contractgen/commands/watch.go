package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/contractgen/watch"
)

// WatchCmd regenerates contracts whenever the model file changes
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate contracts when the model changes",
	Long: `Generate contracts once, then watch the model file and regenerate after
every change. Bursts of changes are debounced (watch.debounce_ms) and
regenerations are capped (watch.max_regenerations_per_minute).

Examples:
  contractgen watch --model insurance.yaml -v`,
	RunE: runWatch,
}

var watchFlags modelFlags

func init() {
	watchFlags.register(WatchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	r, err := watchFlags.prepare(cmd, "watch")
	if err != nil {
		return err
	}
	if _, _, err := r.generate(); err != nil {
		return err
	}
	pterm.Success.Printfln("Generated contracts in %s", r.dir)

	regenerate := func(ctx context.Context) error {
		if err := r.loadModel(watchFlags.model); err != nil {
			return err
		}
		paths, _, err := r.generate()
		if err != nil {
			return err
		}
		for _, p := range paths {
			pterm.Success.Printfln("Regenerated %s", p)
		}
		return nil
	}

	w, err := watch.New([]string{watchFlags.model}, regenerate, watch.Options{
		Debounce:     time.Duration(r.cfg.Watch.DebounceMS) * time.Millisecond,
		MaxPerMinute: r.cfg.Watch.MaxRegenerationsPerMinute,
		Logger:       r.log.Named("watch"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(r.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pterm.Info.Printfln("Watching %s (Ctrl+C to stop)", watchFlags.model)
	if err := w.Run(ctx); err != nil {
		return err
	}
	r.log.Infow("watch stopped")
	return nil
}
